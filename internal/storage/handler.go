package storage

import (
	"fmt"

	"inmogest-backend/internal/auth"
	"inmogest-backend/internal/database"
	"inmogest-backend/internal/logger"
	"inmogest-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type DocumentResponse struct {
	ID         uint   `json:"id"`
	PropertyID *uint  `json:"property_id"`
	LeaseID    *uint  `json:"lease_id"`
	OwnerID    *uint  `json:"owner_id"`
	Name       string `json:"name"`
	MimeType   string `json:"mime_type"`
	Size       int64  `json:"size"`
	CreatedAt  string `json:"created_at"`
}

func toDocumentResponse(d models.Document) DocumentResponse {
	return DocumentResponse{
		ID:         d.ID,
		PropertyID: d.PropertyID,
		LeaseID:    d.LeaseID,
		OwnerID:    d.OwnerID,
		Name:       d.Name,
		MimeType:   d.MimeType,
		Size:       d.Size,
		CreatedAt:  d.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func parseOptionalID(c *fiber.Ctx, field string) *uint {
	s := c.FormValue(field)
	if s == "" {
		return nil
	}
	var id uint
	if _, err := fmt.Sscan(s, &id); err != nil || id == 0 {
		return nil
	}
	return &id
}

// POST /api/documents (multipart: file + property_id/lease_id/owner_id opcionales)
func UploadDocumentHandler(drive *KDrive) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actx, err := auth.FromRequest(c)
		if err != nil {
			return err
		}
		agencyID, err := actx.RequireAgency()
		if err != nil {
			return err
		}
		if actx.Role != models.RoleAgencyAdmin {
			return fiber.NewError(fiber.StatusForbidden, "Solo la agencia puede subir documentos")
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Falta el archivo 'file'")
		}

		src, err := fileHeader.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "No se pudo leer el archivo")
		}
		defer src.Close()

		remote, err := drive.Upload(agencyID, fileHeader.Filename, src)
		if err != nil {
			if err == ErrDisabled {
				return fiber.NewError(fiber.StatusServiceUnavailable, "El almacenamiento de documentos está deshabilitado")
			}
			logger.LogError("storage", "UploadDocumentHandler", "subiendo a kDrive", err)
			return fiber.NewError(fiber.StatusBadGateway, "No se pudo subir el archivo al kDrive")
		}

		doc := models.Document{
			AgencyID:   agencyID,
			PropertyID: parseOptionalID(c, "property_id"),
			LeaseID:    parseOptionalID(c, "lease_id"),
			OwnerID:    parseOptionalID(c, "owner_id"),
			Name:       fileHeader.Filename,
			RemotePath: remote,
			MimeType:   fileHeader.Header.Get("Content-Type"),
			Size:       fileHeader.Size,
			UploadedBy: actx.UserID,
		}

		if err := database.DB.Create(&doc).Error; err != nil {
			// El archivo ya quedó en el WebDAV; intentamos no dejarlo huérfano
			_ = drive.Delete(remote)
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo guardar el documento")
		}

		return c.Status(fiber.StatusCreated).JSON(toDocumentResponse(doc))
	}
}

// GET /api/documents?property_id=&lease_id=&owner_id=
func ListDocumentsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actx, err := auth.FromRequest(c)
		if err != nil {
			return err
		}
		agencyID, err := actx.RequireAgency()
		if err != nil {
			return err
		}

		q := database.DB.Where("agency_id = ?", agencyID).Order("created_at DESC")

		for _, field := range []string{"property_id", "lease_id", "owner_id"} {
			if s := c.Query(field); s != "" {
				var id uint
				if _, err := fmt.Sscan(s, &id); err != nil || id == 0 {
					return fiber.NewError(fiber.StatusBadRequest, field+" inválido")
				}
				q = q.Where(field+" = ?", id)
			}
		}

		var docs []models.Document
		if err := q.Find(&docs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar los documentos")
		}

		resp := make([]DocumentResponse, 0, len(docs))
		for _, d := range docs {
			resp = append(resp, toDocumentResponse(d))
		}
		return c.JSON(resp)
	}
}

// GET /api/documents/:id/download
func DownloadDocumentHandler(drive *KDrive) fiber.Handler {
	return func(c *fiber.Ctx) error {
		doc, err := loadDocumentForRequest(c)
		if err != nil {
			return err
		}

		stream, err := drive.Download(doc.RemotePath)
		if err != nil {
			if err == ErrDisabled {
				return fiber.NewError(fiber.StatusServiceUnavailable, "El almacenamiento de documentos está deshabilitado")
			}
			logger.LogError("storage", "DownloadDocumentHandler", "descargando de kDrive", err)
			return fiber.NewError(fiber.StatusBadGateway, "No se pudo descargar el archivo del kDrive")
		}

		if doc.MimeType != "" {
			c.Set(fiber.HeaderContentType, doc.MimeType)
		}
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", doc.Name))
		return c.SendStream(stream)
	}
}

// DELETE /api/documents/:id
func DeleteDocumentHandler(drive *KDrive) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actx, err := auth.FromRequest(c)
		if err != nil {
			return err
		}
		if actx.Role != models.RoleAgencyAdmin {
			return fiber.NewError(fiber.StatusForbidden, "Solo la agencia puede eliminar documentos")
		}

		doc, err := loadDocumentForRequest(c)
		if err != nil {
			return err
		}

		if err := drive.Delete(doc.RemotePath); err != nil && err != ErrDisabled {
			logger.LogError("storage", "DeleteDocumentHandler", "eliminando del kDrive", err)
			return fiber.NewError(fiber.StatusBadGateway, "No se pudo eliminar el archivo del kDrive")
		}

		if err := database.DB.Delete(&models.Document{}, doc.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo eliminar el documento")
		}

		return c.JSON(fiber.Map{"deleted": doc.ID})
	}
}

func loadDocumentForRequest(c *fiber.Ctx) (*models.Document, error) {
	actx, err := auth.FromRequest(c)
	if err != nil {
		return nil, err
	}
	agencyID, err := actx.RequireAgency()
	if err != nil {
		return nil, err
	}

	id := c.Params("id")

	var doc models.Document
	if err := database.DB.First(&doc, "id = ?", id).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Documento no encontrado")
	}
	if doc.AgencyID != agencyID {
		return nil, fiber.NewError(fiber.StatusForbidden, "No tienes acceso a este documento")
	}

	return &doc, nil
}
