package auth

import (
	"strings"

	"inmogest-backend/internal/config"
	"inmogest-backend/internal/database"
	"inmogest-backend/internal/models"
	"inmogest-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type RegisterAgencyRequest struct {
	AgencyName string `json:"agency_name" validate:"required,min=3"`
	AdminName  string `json:"admin_name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /api/auth/register-agency
// Alta de una agencia nueva junto con su primer administrador.
func RegisterAgencyHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterAgencyRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la petición inválido")
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))
		body.AgencyName = strings.TrimSpace(body.AgencyName)

		if err := validation.Struct(body); err != nil {
			return err
		}

		var count int64
		database.DB.Model(&models.User{}).
			Where("email = ?", body.Email).
			Count(&count)
		if count > 0 {
			return fiber.NewError(fiber.StatusConflict, "Ya existe un usuario con ese correo")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo procesar la contraseña")
		}

		agency := models.Agency{Name: body.AgencyName, Email: body.Email}
		admin := models.User{
			Name:         body.AdminName,
			Email:        body.Email,
			PasswordHash: string(hash),
			Role:         models.RoleAgencyAdmin,
		}

		// Agencia + administrador en una sola transacción
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&agency).Error; err != nil {
				return err
			}
			admin.AgencyID = &agency.ID
			return tx.Create(&admin).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo registrar la agencia")
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"agency_id": agency.ID,
			"user_id":   admin.ID,
			"email":     admin.Email,
			"role":      admin.Role,
		})
	}
}

// POST /api/auth/login
func LoginHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la petición inválido")
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))

		var user models.User
		if err := database.DB.Where("email = ?", body.Email).First(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Correo o contraseña incorrectos")
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Correo o contraseña incorrectos")
		}

		token, err := GenerateToken(cfg.JWTSecret, &user)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo generar el token")
		}

		return c.JSON(fiber.Map{
			"token": token,
			"user": fiber.Map{
				"id":        user.ID,
				"name":      user.Name,
				"email":     user.Email,
				"role":      user.Role,
				"agency_id": user.AgencyID,
			},
		})
	}
}

// GET /api/auth/me
func MeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actx, err := FromRequest(c)
		if err != nil {
			return err
		}

		var user models.User
		if err := database.DB.First(&user, actx.UserID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Usuario no encontrado")
		}

		response := fiber.Map{
			"user_id":   user.ID,
			"name":      user.Name,
			"email":     user.Email,
			"role":      user.Role,
			"agency_id": user.AgencyID,
		}

		if user.AgencyID != nil {
			var agency models.Agency
			if err := database.DB.First(&agency, *user.AgencyID).Error; err == nil {
				response["agency"] = fiber.Map{
					"id":      agency.ID,
					"name":    agency.Name,
					"address": agency.Address,
					"phone":   agency.Phone,
				}
			}
		}

		return c.JSON(response)
	}
}
