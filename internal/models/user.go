package models

import "time"

type UserRole string

const (
	RoleAgencyAdmin UserRole = "agency_admin"
	RoleOwner       UserRole = "owner"
	RoleTenant      UserRole = "tenant"
)

type User struct {
	ID           uint `gorm:"primaryKey"`
	AgencyID     *uint
	Agency       *Agency
	Name         string   `gorm:"size:100;not null"`
	Email        string   `gorm:"size:100;uniqueIndex;not null"`
	PasswordHash string   `gorm:"size:255;not null"`
	Role         UserRole `gorm:"size:20;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
