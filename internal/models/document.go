package models

import "time"

// Document: metadatos de un archivo subido al kDrive (WebDAV).
// El contenido vive en el servidor WebDAV; aquí solo guardamos la ruta remota.
type Document struct {
	ID         uint `gorm:"primaryKey"`
	AgencyID   uint `gorm:"index;not null"`
	Agency     Agency
	PropertyID *uint `gorm:"index"`
	LeaseID    *uint `gorm:"index"`
	OwnerID    *uint `gorm:"index"`
	Name       string `gorm:"size:255;not null"` // nombre original del archivo
	RemotePath string `gorm:"size:500;not null"` // ruta en el WebDAV (nombre generado)
	MimeType   string `gorm:"size:100"`
	Size       int64  `gorm:"default:0"`
	UploadedBy uint   // user id
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
