package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort    string
	DatabaseDSN string
	JWTSecret   string
	CORSOrigins string

	// Email del administrador maestro: puede ver y gestionar todas las agencias.
	// Antes era una constante en el código; ahora es configuración explícita.
	MasterAdminEmail string

	// kDrive (WebDAV)
	KDriveURL      string
	KDriveUser     string
	KDrivePassword string
	KDriveRoot     string // carpeta raíz dentro del WebDAV

	// API de correo transaccional
	EmailAPIURL string
	EmailAPIKey string
	EmailFrom   string

	// Recordatorios de vencimiento de contratos
	AlertDays int    // días de antelación
	AlertTime string // hora del recordatorio "HH:MM"

	// Comisión por defecto para reportes de gerencia (%)
	DefaultFeePercent float64
}

func Load() *Config {
	// .env es opcional; en producción las variables vienen del entorno
	_ = godotenv.Load()

	cfg := &Config{
		HTTPPort:         getEnv("HTTP_PORT", "8080"),
		DatabaseDSN:      getEnv("DATABASE_DSN", "host=localhost user=postgres password=postgres dbname=inmogest port=5432 sslmode=disable"),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		CORSOrigins:      getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		MasterAdminEmail: getEnv("MASTER_ADMIN_EMAIL", ""),
		KDriveURL:        getEnv("KDRIVE_URL", ""),
		KDriveUser:       getEnv("KDRIVE_USER", ""),
		KDrivePassword:   getEnv("KDRIVE_PASSWORD", ""),
		KDriveRoot:       getEnv("KDRIVE_ROOT", "/inmogest"),
		EmailAPIURL:      getEnv("EMAIL_API_URL", ""),
		EmailAPIKey:      getEnv("EMAIL_API_KEY", ""),
		EmailFrom:        getEnv("EMAIL_FROM", "no-reply@inmogest.do"),
		AlertTime:        getEnv("LEASE_ALERT_TIME", "09:00"),
	}

	cfg.AlertDays = getEnvInt("LEASE_ALERT_DAYS", 30)
	cfg.DefaultFeePercent = getEnvFloat("DEFAULT_FEE_PERCENT", 5)

	// Controles de seguridad para producción
	if cfg.JWTSecret == "" {
		log.Fatal("[FATAL] La variable de entorno JWT_SECRET no está definida. Es obligatoria.")
	}
	if len(cfg.JWTSecret) < 32 {
		log.Fatal("[FATAL] JWT_SECRET debe tener al menos 32 caracteres. Riesgo de seguridad.")
	}
	if cfg.KDriveURL == "" {
		log.Println("[WARN] KDRIVE_URL no está definida, la subida de documentos quedará deshabilitada.")
	}
	if cfg.EmailAPIURL == "" {
		log.Println("[WARN] EMAIL_API_URL no está definida, el envío de correos quedará deshabilitado.")
	}

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("[WARN] %s tiene un valor no numérico, usando %d", key, def)
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		log.Printf("[WARN] %s tiene un valor no numérico, usando %g", key, def)
	}
	return def
}
