package admin

import (
	"strings"

	"inmogest-backend/internal/auth"
	"inmogest-backend/internal/database"
	"inmogest-backend/internal/models"
	"inmogest-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type CreateUserRequest struct {
	Name     string `json:"name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,oneof=owner tenant"`
	OwnerID  *uint  `json:"owner_id"`  // ficha a vincular si role=owner
	TenantID *uint  `json:"tenant_id"` // ficha a vincular si role=tenant
}

type ResetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=8"`
}

type UserResponse struct {
	ID        uint   `json:"id"`
	AgencyID  *uint  `json:"agency_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
}

func toUserResponse(u models.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		AgencyID:  u.AgencyID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// POST /api/users
// Crea la cuenta de acceso de un propietario o inquilino y la vincula a su ficha.
func CreateUserHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actx, err := auth.FromRequest(c)
		if err != nil {
			return err
		}
		if actx.Role != models.RoleAgencyAdmin {
			return fiber.NewError(fiber.StatusForbidden, "Solo la agencia puede crear cuentas")
		}
		agencyID, err := actx.RequireAgency()
		if err != nil {
			return err
		}

		var body CreateUserRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Datos inválidos")
		}
		if err := validation.Struct(body); err != nil {
			return err
		}

		role := models.UserRole(body.Role)

		var existing models.User
		if err := database.DB.Where("email = ?", strings.ToLower(body.Email)).First(&existing).Error; err == nil {
			return fiber.NewError(fiber.StatusConflict, "Ya existe un usuario con ese correo")
		}

		// La ficha a vincular debe existir, ser de la agencia y no tener ya cuenta
		var ownerRecord models.Owner
		var tenantRecord models.Tenant
		switch role {
		case models.RoleOwner:
			if body.OwnerID == nil {
				return fiber.NewError(fiber.StatusBadRequest, "owner_id es obligatorio para cuentas de propietario")
			}
			if err := database.DB.First(&ownerRecord, "id = ? AND agency_id = ?", *body.OwnerID, agencyID).Error; err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Propietario no encontrado en la agencia")
			}
			if ownerRecord.UserID != nil {
				return fiber.NewError(fiber.StatusConflict, "El propietario ya tiene cuenta")
			}
		case models.RoleTenant:
			if body.TenantID == nil {
				return fiber.NewError(fiber.StatusBadRequest, "tenant_id es obligatorio para cuentas de inquilino")
			}
			if err := database.DB.First(&tenantRecord, "id = ? AND agency_id = ?", *body.TenantID, agencyID).Error; err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Inquilino no encontrado en la agencia")
			}
			if tenantRecord.UserID != nil {
				return fiber.NewError(fiber.StatusConflict, "El inquilino ya tiene cuenta")
			}
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo procesar la contraseña")
		}

		user := models.User{
			AgencyID:     &agencyID,
			Name:         strings.TrimSpace(body.Name),
			Email:        strings.ToLower(strings.TrimSpace(body.Email)),
			PasswordHash: string(hash),
			Role:         role,
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&user).Error; err != nil {
				return err
			}
			switch role {
			case models.RoleOwner:
				return tx.Model(&models.Owner{}).Where("id = ?", ownerRecord.ID).Update("user_id", user.ID).Error
			case models.RoleTenant:
				return tx.Model(&models.Tenant{}).Where("id = ?", tenantRecord.ID).Update("user_id", user.ID).Error
			}
			return nil
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo crear la cuenta")
		}

		return c.Status(fiber.StatusCreated).JSON(toUserResponse(user))
	}
}

// GET /api/users
func ListUsersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actx, err := auth.FromRequest(c)
		if err != nil {
			return err
		}
		if actx.Role != models.RoleAgencyAdmin {
			return fiber.NewError(fiber.StatusForbidden, "Solo la agencia puede listar cuentas")
		}
		agencyID, err := actx.RequireAgency()
		if err != nil {
			return err
		}

		var users []models.User
		if err := database.DB.Where("agency_id = ?", agencyID).Order("id ASC").Find(&users).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar las cuentas")
		}

		resp := make([]UserResponse, 0, len(users))
		for _, u := range users {
			resp = append(resp, toUserResponse(u))
		}
		return c.JSON(resp)
	}
}

// PUT /api/users/:id/password
func ResetUserPasswordHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, actx, err := loadUserForRequest(c)
		if err != nil {
			return err
		}
		if actx.Role != models.RoleAgencyAdmin {
			return fiber.NewError(fiber.StatusForbidden, "Solo la agencia puede cambiar contraseñas")
		}

		var body ResetPasswordRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Datos inválidos")
		}
		if err := validation.Struct(body); err != nil {
			return err
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo procesar la contraseña")
		}

		if err := database.DB.Model(user).Update("password_hash", string(hash)).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo cambiar la contraseña")
		}
		return c.JSON(fiber.Map{"message": "Contraseña actualizada"})
	}
}

// DELETE /api/users/:id
// Elimina la cuenta de acceso; la ficha (propietario/inquilino) se conserva.
func DeleteUserHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, actx, err := loadUserForRequest(c)
		if err != nil {
			return err
		}
		if actx.Role != models.RoleAgencyAdmin {
			return fiber.NewError(fiber.StatusForbidden, "Solo la agencia puede eliminar cuentas")
		}
		if user.ID == actx.UserID {
			return fiber.NewError(fiber.StatusConflict, "No puedes eliminar tu propia cuenta")
		}
		if user.Role == models.RoleAgencyAdmin {
			return fiber.NewError(fiber.StatusConflict, "No se puede eliminar la cuenta de la agencia")
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&models.Owner{}).Where("user_id = ?", user.ID).Update("user_id", nil).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.Tenant{}).Where("user_id = ?", user.ID).Update("user_id", nil).Error; err != nil {
				return err
			}
			return tx.Delete(&models.User{}, user.ID).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo eliminar la cuenta")
		}
		return c.JSON(fiber.Map{"deleted": user.ID})
	}
}

func loadUserForRequest(c *fiber.Ctx) (*models.User, auth.Context, error) {
	actx, err := auth.FromRequest(c)
	if err != nil {
		return nil, actx, err
	}
	agencyID, err := actx.RequireAgency()
	if err != nil {
		return nil, actx, err
	}

	id := c.Params("id")

	var user models.User
	if err := database.DB.First(&user, "id = ?", id).Error; err != nil {
		return nil, actx, fiber.NewError(fiber.StatusNotFound, "Cuenta no encontrada")
	}
	if user.AgencyID == nil || *user.AgencyID != agencyID {
		return nil, actx, fiber.NewError(fiber.StatusForbidden, "No tienes acceso a esta cuenta")
	}

	return &user, actx, nil
}
