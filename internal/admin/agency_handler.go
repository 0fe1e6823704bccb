package admin

import (
	"strings"

	"inmogest-backend/internal/auth"
	"inmogest-backend/internal/config"
	"inmogest-backend/internal/database"
	"inmogest-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type AgencyResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	RNC       string `json:"rnc"`
	Address   string `json:"address"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

type UpdateAgencyRequest struct {
	Name    *string `json:"name"`
	RNC     *string `json:"rnc"`
	Address *string `json:"address"`
	Phone   *string `json:"phone"`
	Email   *string `json:"email"`
}

func toAgencyResponse(a models.Agency) AgencyResponse {
	return AgencyResponse{
		ID:        a.ID,
		Name:      a.Name,
		RNC:       a.RNC,
		Address:   a.Address,
		Phone:     a.Phone,
		Email:     a.Email,
		CreatedAt: a.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// GET /api/agencies
// Reservado al correo maestro configurado; lista todas las agencias.
func ListAgenciesHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actx, err := auth.FromRequest(c)
		if err != nil {
			return err
		}
		if !actx.IsMasterAdmin(cfg.MasterAdminEmail) {
			return fiber.NewError(fiber.StatusForbidden, "Solo el administrador maestro puede listar agencias")
		}

		var agencies []models.Agency
		if err := database.DB.Order("id ASC").Find(&agencies).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar las agencias")
		}

		resp := make([]AgencyResponse, 0, len(agencies))
		for _, a := range agencies {
			resp = append(resp, toAgencyResponse(a))
		}
		return c.JSON(resp)
	}
}

// GET /api/agencies/me
func GetMyAgencyHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actx, err := auth.FromRequest(c)
		if err != nil {
			return err
		}
		agencyID, err := actx.RequireAgency()
		if err != nil {
			return err
		}

		var agency models.Agency
		if err := database.DB.First(&agency, agencyID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Agencia no encontrada")
		}
		return c.JSON(toAgencyResponse(agency))
	}
}

// PUT /api/agencies/me
func UpdateMyAgencyHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actx, err := auth.FromRequest(c)
		if err != nil {
			return err
		}
		if actx.Role != models.RoleAgencyAdmin {
			return fiber.NewError(fiber.StatusForbidden, "Solo la agencia puede editar sus datos")
		}
		agencyID, err := actx.RequireAgency()
		if err != nil {
			return err
		}

		var body UpdateAgencyRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Datos inválidos")
		}

		updates := map[string]interface{}{}
		if body.Name != nil {
			if strings.TrimSpace(*body.Name) == "" {
				return fiber.NewError(fiber.StatusBadRequest, "El nombre no puede estar vacío")
			}
			updates["name"] = strings.TrimSpace(*body.Name)
		}
		if body.RNC != nil {
			updates["rnc"] = strings.TrimSpace(*body.RNC)
		}
		if body.Address != nil {
			updates["address"] = strings.TrimSpace(*body.Address)
		}
		if body.Phone != nil {
			updates["phone"] = strings.TrimSpace(*body.Phone)
		}
		if body.Email != nil {
			updates["email"] = strings.TrimSpace(*body.Email)
		}
		if len(updates) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "No hay campos para actualizar")
		}

		if err := database.DB.Model(&models.Agency{}).Where("id = ?", agencyID).Updates(updates).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo actualizar la agencia")
		}

		var agency models.Agency
		if err := database.DB.First(&agency, agencyID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo leer la agencia")
		}
		return c.JSON(toAgencyResponse(agency))
	}
}
