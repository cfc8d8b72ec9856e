package config

import (
	"flag"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string
	Env  string
	// SessionSecret signs session cookies. A generated default keeps local
	// development working; production must set SESSION_SECRET.
	SessionSecret string
	// ModelDir holds the component-lib and icons dumps.
	ModelDir string
	// DatabaseURL selects postgres when set; otherwise sqlite at SQLitePath.
	DatabaseURL string
	SQLitePath  string
	// TemplatePath is the sandbox template zip on disk; when empty the
	// template is fetched from blob storage under TemplateKey.
	TemplatePath string
	TemplateKey  string
	// SandboxRuntime picks "process" (npm/vite) or "embedded" (esbuild).
	SandboxRuntime string
	// Provider selects the completion backend: "openai" (any
	// OpenAI-compatible endpoint) or "gemini".
	Provider      string
	DesignModel   string
	GenerateModel string
	OpenAIBaseURL string
	Blob          BlobConfig
}

type BlobConfig struct {
	Enabled   bool
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	port := flag.String("port", ":8081", "server port")
	flag.Parse()

	if envPort := os.Getenv("PORT"); envPort != "" {
		if strings.HasPrefix(envPort, ":") {
			*port = envPort
		} else {
			*port = ":" + envPort
		}
	}

	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = "local"
	}

	return &Config{
		Port:           *port,
		Env:            env,
		SessionSecret:  firstNonEmpty(strings.TrimSpace(os.Getenv("SESSION_SECRET")), "uismith-dev-secret"),
		ModelDir:       firstNonEmpty(strings.TrimSpace(os.Getenv("MODEL_DIR")), "model"),
		DatabaseURL:    strings.TrimSpace(os.Getenv("DATABASE_URL")),
		SQLitePath:     firstNonEmpty(strings.TrimSpace(os.Getenv("SQLITE_PATH")), "uismith.db"),
		TemplatePath:   strings.TrimSpace(os.Getenv("TEMPLATE_PATH")),
		TemplateKey:    firstNonEmpty(strings.TrimSpace(os.Getenv("TEMPLATE_KEY")), "templates/react-vite.zip"),
		SandboxRuntime: firstNonEmpty(strings.TrimSpace(os.Getenv("SANDBOX_RUNTIME")), "process"),
		Provider:       firstNonEmpty(strings.TrimSpace(os.Getenv("LLM_PROVIDER")), "openai"),
		DesignModel:    firstNonEmpty(strings.TrimSpace(os.Getenv("DESIGN_MODEL")), "gpt-3.5-turbo"),
		GenerateModel:  firstNonEmpty(strings.TrimSpace(os.Getenv("GENERATE_MODEL")), "gpt-4"),
		OpenAIBaseURL:  strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")),
		Blob:           loadBlobConfig(env),
	}, nil
}

func loadBlobConfig(env string) BlobConfig {
	endpoint := resolveBlobEndpoint(env)
	return BlobConfig{
		Enabled:   endpoint != "",
		Endpoint:  endpoint,
		Region:    firstNonEmpty(strings.TrimSpace(os.Getenv("BLOB_S3_REGION")), "us-east-1"),
		AccessKey: firstNonEmpty(strings.TrimSpace(os.Getenv("BLOB_S3_ACCESS_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER"))),
		SecretKey: firstNonEmpty(strings.TrimSpace(os.Getenv("BLOB_S3_SECRET_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD"))),
		Bucket:    firstNonEmpty(strings.TrimSpace(os.Getenv("BLOB_S3_BUCKET")), "uismith-assets"),
		UseSSL:    resolveBlobUseSSL(env),
	}
}

func resolveBlobEndpoint(env string) string {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return strings.TrimSpace(os.Getenv("BLOB_MINIO_ENDPOINT"))
	}
	return strings.TrimSpace(os.Getenv("BLOB_S3_ENDPOINT"))
}

func resolveBlobUseSSL(env string) bool {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return false
	}
	raw := strings.TrimSpace(os.Getenv("BLOB_S3_USE_SSL"))
	if raw == "" {
		return true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return true
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
