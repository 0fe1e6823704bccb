package main

import (
	"log"
	"strings"

	"inmogest-backend/internal/admin"
	"inmogest-backend/internal/audit"
	"inmogest-backend/internal/auth"
	"inmogest-backend/internal/calendar"
	"inmogest-backend/internal/config"
	"inmogest-backend/internal/dashboard"
	"inmogest-backend/internal/database"
	"inmogest-backend/internal/invoice"
	"inmogest-backend/internal/lease"
	"inmogest-backend/internal/mailer"
	"inmogest-backend/internal/maintenance"
	"inmogest-backend/internal/models"
	"inmogest-backend/internal/owner"
	"inmogest-backend/internal/payment"
	"inmogest-backend/internal/property"
	"inmogest-backend/internal/report"
	"inmogest-backend/internal/storage"
	"inmogest-backend/internal/tenant"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	cfg := config.Load()
	database.Init(cfg)

	drive := storage.NewKDrive(cfg)
	mail := mailer.New(cfg)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.Println("Unexpected error:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Error inesperado del servidor",
			})
		},
	})

	// CORS origins llegan como string separado por comas
	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-agency", auth.RegisterAgencyHandler(cfg))
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	// Agencia
	protected.Get("/agencies", admin.ListAgenciesHandler(cfg))
	protected.Get("/agencies/me", admin.GetMyAgencyHandler())
	protected.Put("/agencies/me", admin.UpdateMyAgencyHandler())

	// Cuentas de acceso (propietarios/inquilinos)
	adminRoutes := protected.Group("")
	adminRoutes.Use(auth.RequireRole(models.RoleAgencyAdmin))
	adminRoutes.Post("/users", admin.CreateUserHandler())
	adminRoutes.Get("/users", admin.ListUsersHandler())
	adminRoutes.Put("/users/:id/password", admin.ResetUserPasswordHandler())
	adminRoutes.Delete("/users/:id", admin.DeleteUserHandler())

	// Inmuebles
	protected.Post("/properties", property.CreatePropertyHandler())
	protected.Get("/properties", property.ListPropertiesHandler())
	protected.Get("/properties/:id", property.GetPropertyHandler())
	protected.Put("/properties/:id", property.UpdatePropertyHandler())
	protected.Delete("/properties/:id", property.DeletePropertyHandler())

	// Propietarios
	protected.Post("/owners", owner.CreateOwnerHandler())
	protected.Get("/owners", owner.ListOwnersHandler())
	protected.Get("/owners/:id", owner.GetOwnerHandler())
	protected.Put("/owners/:id", owner.UpdateOwnerHandler())
	protected.Delete("/owners/:id", owner.DeleteOwnerHandler())

	// Inquilinos
	protected.Post("/tenants", tenant.CreateTenantHandler())
	protected.Get("/tenants", tenant.ListTenantsHandler())
	protected.Get("/tenants/:id", tenant.GetTenantHandler())
	protected.Put("/tenants/:id", tenant.UpdateTenantHandler())
	protected.Delete("/tenants/:id", tenant.DeleteTenantHandler())

	// Contratos de alquiler
	protected.Post("/leases", lease.CreateLeaseHandler())
	protected.Get("/leases", lease.ListLeasesHandler())
	protected.Get("/leases/:id", lease.GetLeaseHandler())
	protected.Put("/leases/:id", lease.UpdateLeaseHandler())
	protected.Put("/leases/:id/terminate", lease.TerminateLeaseHandler())
	protected.Delete("/leases/:id", lease.DeleteLeaseHandler())

	// Facturas
	protected.Post("/invoices", invoice.CreateInvoiceHandler())
	protected.Get("/invoices", invoice.ListInvoicesHandler())
	protected.Get("/invoices/:id", invoice.GetInvoiceHandler())
	protected.Put("/invoices/:id", invoice.UpdateInvoiceHandler())
	protected.Delete("/invoices/:id", invoice.DeleteInvoiceHandler())
	protected.Post("/invoices/:id/remind", invoice.RemindInvoiceHandler(mail))

	// Pagos
	protected.Post("/payments", payment.CreatePaymentHandler())
	protected.Get("/payments", payment.ListPaymentsHandler())
	protected.Get("/payments/:id", payment.GetPaymentHandler())
	protected.Put("/payments/:id", payment.UpdatePaymentHandler())
	protected.Delete("/payments/:id", payment.DeletePaymentHandler())

	// Mantenimiento
	protected.Post("/maintenance-requests", maintenance.CreateRequestHandler())
	protected.Get("/maintenance-requests", maintenance.ListRequestsHandler())
	protected.Get("/maintenance-requests/:id", maintenance.GetRequestHandler())
	protected.Put("/maintenance-requests/:id", maintenance.UpdateRequestHandler())
	protected.Delete("/maintenance-requests/:id", maintenance.DeleteRequestHandler())

	// Reportes financieros
	protected.Post("/reports/manager", report.GenerateManagerReportHandler(cfg))
	protected.Post("/reports/owner", report.GenerateOwnerReportHandler(cfg))
	protected.Get("/reports", report.ListReportsHandler())
	protected.Get("/reports/:id", report.GetReportHandler())
	protected.Put("/reports/:id", report.UpdateReportHandler(cfg))
	protected.Delete("/reports/:id", report.DeleteReportHandler())
	protected.Delete("/reports", report.DeleteReportsForPeriodHandler())
	protected.Get("/reports/:id/export", report.ExportReportHandler())
	protected.Post("/reports/:id/send", report.SendReportHandler(mail))

	// Calendario de vencimientos
	protected.Post("/calendar/sync", calendar.SyncHandler(cfg))
	protected.Get("/calendar/events", calendar.ListEventsHandler())
	protected.Delete("/calendar/events/:id", calendar.DeleteEventHandler())

	// Documentos (kDrive)
	protected.Post("/documents", storage.UploadDocumentHandler(drive))
	protected.Get("/documents", storage.ListDocumentsHandler())
	protected.Get("/documents/:id/download", storage.DownloadDocumentHandler(drive))
	protected.Delete("/documents/:id", storage.DeleteDocumentHandler(drive))

	// Dashboard
	protected.Get("/dashboard/income-chart", dashboard.IncomeChartHandler())

	// Audit logs
	protected.Get("/audit-logs", audit.ListAuditLogsHandler())
	protected.Post("/audit-logs/:id/undo", audit.UndoAuditLogHandler())

	log.Println("Servidor escuchando en el puerto:", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
