package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App     AppConfig
	DB      DBConfig
	HTTP    HTTPConfig
	AI      AIConfig
	Import  ImportConfig
	Storage StorageConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
}

// DBConfig configuración de PostgreSQL.
// Si DatabaseURL no está vacío, se usa como connection string completo (ej. DATABASE_URL de Supabase).
type DBConfig struct {
	DatabaseURL   string
	Host          string
	Port          int
	User          string
	Password      string
	DBName        string
	SSLMode       string
	RunMigrations bool
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN devuelve el connection string para PostgreSQL con URL encoding para caracteres especiales.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// AIConfig configuración del servicio externo de extracción de documentos.
// Provider: "edge" (función HTTP propia), "anthropic" o "gemini" (Vertex AI).
type AIConfig struct {
	Provider        string
	EdgeURL         string
	EdgeToken       string
	AnthropicAPIKey string
	AnthropicModel  string
	GeminiProjectID string
	GeminiLocation  string
	GeminiModel     string
	Timeout         time.Duration
}

// ImportConfig parámetros del pipeline de importación de NF-e.
type ImportConfig struct {
	Pause             time.Duration // pausa entre archivos de un lote
	DescriptionLabel  string        // prefijo de la descripción del documento ("NF 123")
	DefaultCategoryID string        // vacío = sin categoría
	DefaultBranchID   string        // vacío = sin filial
	MaxUploadBytes    int64
	DropDir           string // vacío = job de carpeta desactivado
	DropSchedule      string
	TimeZone          string
}

// StorageConfig archivo de los XML importados en Cloud Storage.
type StorageConfig struct {
	ArchiveBucket string // vacío = sin archivo
	ArchivePrefix string
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, DB_HOST, AI_PROVIDER, IMPORT_PAUSE_MS, etc.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "fiscal-ingest-api"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
		},
		DB: DBConfig{
			DatabaseURL:   getString(v, "DATABASE_URL", ""),
			Host:          getString(v, "DB_HOST", "localhost"),
			Port:          getInt(v, "DB_PORT", 5432),
			User:          getString(v, "DB_USER", "postgres"),
			Password:      getString(v, "DB_PASSWORD", ""),
			DBName:        getString(v, "DB_NAME", "fiscal_ingest"),
			SSLMode:       getString(v, "DB_SSLMODE", "disable"),
			RunMigrations: getBool(v, "DB_RUN_MIGRATIONS", true),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		AI: AIConfig{
			Provider:        strings.ToLower(getString(v, "AI_PROVIDER", "edge")),
			EdgeURL:         getString(v, "AI_EDGE_URL", ""),
			EdgeToken:       getString(v, "AI_EDGE_TOKEN", ""),
			AnthropicAPIKey: getString(v, "ANTHROPIC_API_KEY", ""),
			AnthropicModel:  getString(v, "ANTHROPIC_MODEL", "claude-3-5-sonnet-20241022"),
			GeminiProjectID: getString(v, "GEMINI_PROJECT_ID", ""),
			GeminiLocation:  getString(v, "GEMINI_LOCATION", "us-central1"),
			GeminiModel:     getString(v, "GEMINI_MODEL", "gemini-1.5-pro"),
			Timeout:         time.Duration(getInt(v, "AI_TIMEOUT_SECONDS", 60)) * time.Second,
		},
		Import: ImportConfig{
			Pause:             time.Duration(getInt(v, "IMPORT_PAUSE_MS", 300)) * time.Millisecond,
			DescriptionLabel:  getString(v, "IMPORT_DESCRIPTION_LABEL", "NF"),
			DefaultCategoryID: getString(v, "IMPORT_DEFAULT_CATEGORY_ID", ""),
			DefaultBranchID:   getString(v, "IMPORT_DEFAULT_BRANCH_ID", ""),
			MaxUploadBytes:    int64(getInt(v, "IMPORT_MAX_UPLOAD_MB", 10)) << 20,
			DropDir:           getString(v, "IMPORT_DROP_DIR", ""),
			DropSchedule:      getString(v, "IMPORT_DROP_SCHEDULE", "*/15 * * * *"),
			TimeZone:          getString(v, "IMPORT_TIMEZONE", "America/Sao_Paulo"),
		},
		Storage: StorageConfig{
			ArchiveBucket: getString(v, "ARCHIVE_BUCKET", ""),
			ArchivePrefix: getString(v, "ARCHIVE_PREFIX", "nfe"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.AI.Provider {
	case "edge", "anthropic", "gemini":
	default:
		return fmt.Errorf("config: AI_PROVIDER inválido %q (edge|anthropic|gemini)", c.AI.Provider)
	}
	if c.Import.Pause < 0 {
		return fmt.Errorf("config: IMPORT_PAUSE_MS no puede ser negativo")
	}
	if c.Import.MaxUploadBytes <= 0 {
		return fmt.Errorf("config: IMPORT_MAX_UPLOAD_MB debe ser positivo")
	}
	return nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if v.IsSet(key) {
		b, err := strconv.ParseBool(strings.TrimSpace(v.GetString(key)))
		if err != nil {
			return def
		}
		return b
	}
	return def
}
