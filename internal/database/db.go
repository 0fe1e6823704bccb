package database

import (
	"log"

	"inmogest-backend/internal/config"
	"inmogest-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("No se pudo conectar a la base de datos: %v", err)
	}

	// Migración manual: reports.owner_id se agregó después del primer despliegue.
	// Los reportes de gerencia existentes deben quedar con owner_id NULL.
	if DB.Migrator().HasTable(&models.Report{}) {
		if !DB.Migrator().HasColumn(&models.Report{}, "owner_id") {
			log.Println("Agregando columna reports.owner_id...")
			if err := DB.Exec("ALTER TABLE reports ADD COLUMN owner_id BIGINT").Error; err != nil {
				log.Printf("Error agregando owner_id (puede existir ya): %v", err)
			}
			DB.Exec("CREATE INDEX IF NOT EXISTS idx_reports_owner_id ON reports(owner_id)")
		}
	}

	err = DB.AutoMigrate(
		&models.Agency{},
		&models.User{},
		&models.Owner{},
		&models.Tenant{},
		&models.Property{},
		&models.Lease{},
		&models.Invoice{},
		&models.Payment{},
		&models.MaintenanceRequest{},
		&models.Report{},
		&models.CalendarEvent{},
		&models.Document{},
		&models.AuditLog{},
	)
	if err != nil {
		log.Fatalf("Error en AutoMigrate: %v", err)
	}

	// Índice de consulta del sincronizador de calendario: eventos por usuario y tipo
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_calendar_events_user_type ON calendar_events(user_id, type)")

	log.Println("Conexión a la base de datos establecida. Migración completada.")
}
