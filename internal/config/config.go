package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port          string
	BindHost      string
	Env           string
	PublicBaseURL string
	LogLevel      string
	LogFile       string
	DBPath        string
	ReportsDir    string

	ClinicName    string
	ClinicAddress string

	// WhatsApp delivery
	WhatsAppAPIURL        string
	WhatsAppPhoneNumberID string
	WhatsAppAccessToken   string
	WhatsAppWebURL        string
	WhatsAppWebEnabled    bool
	DeliveryTimeout       time.Duration
	CountryCode           string

	// PDF rendering
	WkhtmltopdfPath  string
	ChromePath       string
	PDFRenderTimeout time.Duration

	LaunchBrowser      bool
	CORSAllowedOrigins []string

	// Artifact mirror
	ArchiveS3Bucket     string
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
}

// Load reads configuration from environment variables, after applying an optional .env file.
func Load() *Config {
	// A missing .env is normal; real environment variables always win.
	_ = godotenv.Load()

	port := getEnv("PORT", "5000")
	return &Config{
		Port:          port,
		BindHost:      getEnv("BIND_HOST", "127.0.0.1"),
		Env:           getEnv("ENV", "development"),
		PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:"+port), "/"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFile:       getEnv("LOG_FILE", ""),
		DBPath:        getEnv("DB_PATH", "pathology_reports.db"),
		ReportsDir:    getEnv("REPORTS_DIR", "reports/completed_reports"),

		ClinicName:    getEnv("CLINIC_NAME", "UJJIVAN HOSPITAL"),
		ClinicAddress: getEnv("CLINIC_ADDRESS", "Vidyut Nagar, Gautam Budh Nagar, Uttar Pradesh - 201008"),

		WhatsAppAPIURL:        getEnv("WHATSAPP_API_URL", "https://graph.facebook.com/v17.0/"),
		WhatsAppPhoneNumberID: getEnv("WHATSAPP_PHONE_NUMBER_ID", ""),
		WhatsAppAccessToken:   getEnv("WHATSAPP_ACCESS_TOKEN", ""),
		WhatsAppWebURL:        getEnv("WHATSAPP_WEB_URL", "https://web.whatsapp.com/send"),
		WhatsAppWebEnabled:    getEnvAsBool("WHATSAPP_WEB_ENABLED", true),
		DeliveryTimeout:       getEnvAsDuration("DELIVERY_TIMEOUT", 15*time.Second),
		CountryCode:           getEnv("COUNTRY_CODE", "91"),

		WkhtmltopdfPath:  getEnv("WKHTMLTOPDF_PATH", ""),
		ChromePath:       getEnv("CHROME_PATH", ""),
		PDFRenderTimeout: getEnvAsDuration("PDF_RENDER_TIMEOUT", 30*time.Second),

		LaunchBrowser:      getEnvAsBool("LAUNCH_BROWSER", false),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),

		ArchiveS3Bucket:     getEnv("ARCHIVE_S3_BUCKET", ""),
		AWSRegion:           getEnv("AWS_REGION", "ap-south-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
	}
}

// Addr returns the host:port the HTTP server binds to.
func (c *Config) Addr() string {
	return c.BindHost + ":" + c.Port
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
