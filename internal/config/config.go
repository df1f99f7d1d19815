package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/mind-engage/mindengage-testprep/internal/attempt"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	Mode     Mode
	HTTPAddr string

	StoreDriver string // json|sqlite|postgres
	DBDSN       string
	DataFile    string // json driver

	BlobBasePath string

	AuthSecret    string
	TokenTTL      time.Duration
	AdminUser     string
	AdminPassHash string // bcrypt; empty disables the admin seed

	// AllowClaimRole keeps the token's role when the user store cannot be reached.
	AllowClaimRole bool

	GeminiAPIKey string
	GeminiModel  string

	PDFMinTextChars int
	PDFMaxPages     int

	ClearPolicy attempt.ClearPolicy
	DraftIdle   time.Duration

	CORSOriginsOnline  []string
	CORSOriginsOffline []string
}

// Load reads .env (if present) into the environment and then builds the config.
// Variables already set in the environment take precedence over the file.
func Load(files ...string) Config {
	if err := godotenv.Load(files...); err != nil && !os.IsNotExist(err) {
		log.Printf("config: %v", err)
	}
	return FromEnv()
}

func FromEnv() Config {
	mode := Mode(envOr("MODE", string(ModeOffline)))
	policy, err := attempt.ParseClearPolicy(os.Getenv("CLEAR_MARKED_POLICY"))
	if err != nil {
		log.Printf("config: %v; using %s", err, policy)
	}
	return Config{
		Mode:     mode,
		HTTPAddr: envOr("HTTP_ADDR", ":8080"),

		StoreDriver: envOr("STORE_DRIVER", "json"),
		DBDSN:       envOr("DB_DSN", ""),
		DataFile:    envOr("DATA_FILE", "./data/db.json"),

		BlobBasePath: envOr("BLOB_BASE_PATH", "./data"),

		AuthSecret:    envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
		TokenTTL:      time.Duration(envInt("TOKEN_TTL_HOURS", 24*7)) * time.Hour,
		AdminUser:     envOr("ADMIN_USER", "admin"),
		AdminPassHash: os.Getenv("ADMIN_PASS_HASH"),

		AllowClaimRole: envBool("ALLOW_CLAIM_ROLE_FALLBACK", mode == ModeOffline),

		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  envOr("GEMINI_MODEL", "gemini-2.5-flash"),

		PDFMinTextChars: envInt("PDF_MIN_TEXT_CHARS", 200),
		PDFMaxPages:     envInt("PDF_MAX_PAGES", 5),

		ClearPolicy: policy,
		DraftIdle:   time.Duration(envInt("DRAFT_IDLE_MINUTES", 120)) * time.Minute,

		CORSOriginsOnline:  csvOr("CORS_ORIGINS_ONLINE", "https://testprep.mindengage.ai"),
		CORSOriginsOffline: csvOr("CORS_ORIGINS_OFFLINE", "http://localhost:3000,http://localhost:5173"),
	}
}

// CORSOrigins returns the allowed origins for the configured mode.
func (c Config) CORSOrigins() []string {
	if c.Mode == ModeOnline {
		return c.CORSOriginsOnline
	}
	return c.CORSOriginsOffline
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		log.Printf("config: %s=%q is not a number; using %d", k, v, def)
		return def
	}
	return n
}

func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
