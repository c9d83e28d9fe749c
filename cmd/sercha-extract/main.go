package main

// @title           Sercha Extract API
// @version         1.0
// @description     Document extraction API. Sercha Extract turns PDF, HTML, office, archive and image documents into text, tables, metadata and chunks.

// @contact.name   Sercha OSS
// @contact.url    https://github.com/custodia-labs/sercha-extract/issues

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8000
// @BasePath  /api/v1
// @schemes   http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token. Format: "Bearer {token}"

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	_ "github.com/custodia-labs/sercha-extract/docs"
	"github.com/custodia-labs/sercha-extract/internal/adapters/driven/ai"
	"github.com/custodia-labs/sercha-extract/internal/adapters/driven/auth"
	"github.com/custodia-labs/sercha-extract/internal/adapters/driven/postgres"
	redisadapter "github.com/custodia-labs/sercha-extract/internal/adapters/driven/redis"
	"github.com/custodia-labs/sercha-extract/internal/adapters/driven/source"
	"github.com/custodia-labs/sercha-extract/internal/adapters/driven/sqlite"
	"github.com/custodia-labs/sercha-extract/internal/adapters/driven/tesseract"
	"github.com/custodia-labs/sercha-extract/internal/adapters/driven/textract"
	"github.com/custodia-labs/sercha-extract/internal/adapters/driving/http"
	"github.com/custodia-labs/sercha-extract/internal/adapters/driving/mcpserver"
	"github.com/custodia-labs/sercha-extract/internal/cache"
	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-extract/internal/core/services"
	"github.com/custodia-labs/sercha-extract/internal/runtime"
)

var version = "dev"

// purger drops expired rows from SQL-backed result stores
type purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// cacheBackend is the shared cache wiring chosen from the environment
type cacheBackend struct {
	name    string
	store   driven.ResultStore
	lock    driven.DistributedLock
	checks  map[string]http.Pinger
	closers []func() error
}

func (b *cacheBackend) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			log.Printf("Warning: close failed: %v", err)
		}
	}
}

func main() {
	// A missing .env file is fine
	_ = godotenv.Load()

	// Get run mode from environment (RUN_MODE) or command line arg
	mode := getEnv("RUN_MODE", "api")
	args := os.Args[1:]
	if len(args) > 0 {
		mode, args = args[0], args[1:]
	}

	logger := newLogger(getEnv("LOG_FORMAT", "text"), getEnv("LOG_LEVEL", "info"))
	slog.SetDefault(logger)

	if mode == "token" {
		os.Exit(runToken(args))
	}

	log.Printf("sercha-extract %s starting in %s mode", version, mode)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// ===== Cache backend =====
	ttl := time.Duration(getEnvInt("CACHE_TTL_SEC", 86400)) * time.Second
	backend, err := setupCache(ctx, ttl)
	if err != nil {
		log.Fatalf("Failed to initialize cache backend: %v", err)
	}
	defer backend.close()

	// ===== Plugins =====
	runtimeConfig := domain.NewRuntimeConfig(backend.name)
	plugins := runtime.DefaultPlugins(runtimeConfig, logger)
	pluginService := services.NewPluginService(plugins, ai.NewFactory(), logger)
	registerOcrBackends(ctx, pluginService)
	configureEmbedding(ctx, pluginService)

	resultCache := cache.New(cache.Options{
		Store:  backend.store,
		Lock:   backend.lock,
		Logger: logger,
	})
	extractionService := services.NewExtractionService(plugins, resultCache, setupSources(ctx, mode), logger)

	log.Printf("Runtime config: cache_backend=%s, embedding=%t, ocr_backends=%v",
		runtimeConfig.CacheBackend,
		runtimeConfig.EmbeddingAvailable(),
		pluginService.List().OcrBackends)

	var code int
	switch mode {
	case "api":
		runAPI(extractionService, pluginService, backend.checks, logger)
	case "mcp":
		runMCP(ctx, extractionService, logger)
	case "extract":
		code = runExtract(ctx, extractionService, args)
	default:
		log.Printf("Unknown mode: %s (use: api, mcp, extract or token)", mode)
		code = 2
	}

	if err := plugins.Shutdown(); err != nil {
		log.Printf("Warning: plugin shutdown failed: %v", err)
	}
	if code != 0 {
		backend.close()
		os.Exit(code)
	}
}

// setupCache picks the shared result store: Redis, then PostgreSQL, then
// SQLite. Without any of them only the in-process cache is used.
func setupCache(ctx context.Context, ttl time.Duration) (*cacheBackend, error) {
	b := &cacheBackend{name: "memory", checks: map[string]http.Pinger{}}

	if redisURL := getEnv("REDIS_URL", ""); redisURL != "" {
		log.Println("Connecting to Redis...")
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		store := redisadapter.NewResultStore(client, ttl)
		b.name = "redis"
		b.store = store
		b.lock = redisadapter.NewLock(client)
		b.checks["redis"] = store
		b.closers = append(b.closers, client.Close)
		log.Println("Using Redis result store and distributed lock")
		return b, nil
	}

	if databaseURL := getEnv("DATABASE_URL", ""); databaseURL != "" {
		log.Println("Connecting to PostgreSQL...")
		cfg := postgres.DefaultConfig(databaseURL)
		cfg.MaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", cfg.MaxOpenConns)
		cfg.MaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", cfg.MaxIdleConns)
		db, err := postgres.Connect(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		if err := db.InitSchema(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("initialize schema: %w", err)
		}
		store := postgres.NewResultStore(db, ttl)
		b.name = "postgres"
		b.store = store
		b.lock = postgres.NewAdvisoryLock(db)
		b.checks["postgres"] = store
		b.closers = append(b.closers, db.Close)
		go purgeExpired(ctx, store, purgeInterval())
		log.Println("Using PostgreSQL result store and advisory lock")
		return b, nil
	}

	if path := getEnv("SQLITE_PATH", ""); path != "" {
		store, err := sqlite.Open(ctx, path, ttl)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		b.name = "sqlite"
		b.store = store
		b.checks["sqlite"] = store
		b.closers = append(b.closers, store.Close)
		go purgeExpired(ctx, store, purgeInterval())
		log.Printf("Using SQLite result store at %s", path)
		return b, nil
	}

	log.Println("Using in-memory result cache")
	return b, nil
}

func purgeInterval() time.Duration {
	return time.Duration(getEnvInt("CACHE_PURGE_INTERVAL_SEC", 600)) * time.Second
}

// purgeExpired periodically removes expired results until ctx is done
func purgeExpired(ctx context.Context, p purger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := p.PurgeExpired(ctx)
			if err != nil {
				slog.Warn("cache purge failed", "error", err)
				continue
			}
			if n > 0 {
				slog.Debug("purged expired cache entries", "count", n)
			}
		}
	}
}

// registerOcrBackends registers the OCR engines available in this build
func registerOcrBackends(ctx context.Context, plugins driving.PluginService) {
	if tesseract.Available {
		var langs []string
		if v := getEnv("TESSERACT_LANGUAGES", ""); v != "" {
			langs = splitList(v)
		}
		if err := plugins.RegisterOcrBackend(tesseract.New(langs...)); err != nil {
			log.Printf("Warning: tesseract registration failed: %v", err)
		}
	} else {
		log.Println("Tesseract support not compiled in (build with -tags tesseract)")
	}

	if getEnvBool("TEXTRACT_ENABLED", false) {
		backend, err := textract.New(ctx, textract.Config{
			Region:    getEnv("AWS_REGION", "us-east-1"),
			AccessKey: getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		})
		if err != nil {
			log.Printf("Warning: textract unavailable: %v", err)
			return
		}
		if err := plugins.RegisterOcrBackend(backend); err != nil {
			log.Printf("Warning: textract registration failed: %v", err)
		}
	}
}

// configureEmbedding enables chunk embeddings when a provider is configured
func configureEmbedding(ctx context.Context, plugins driving.PluginService) {
	input := driving.EmbeddingSettingsInput{
		Provider: domain.AIProvider(getEnv("EMBEDDING_PROVIDER", "")),
		Model:    getEnv("EMBEDDING_MODEL", ""),
		APIKey:   getEnv("OPENAI_API_KEY", ""),
		BaseURL:  getEnv("EMBEDDING_BASE_URL", ""),
	}
	if input.Provider == "" && input.APIKey != "" {
		input.Provider = domain.AIProviderOpenAI
	}
	if input.Provider == "" {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	status, err := plugins.ConfigureEmbedding(ctx, input)
	if err != nil {
		log.Printf("Warning: embedding configuration failed: %v", err)
		return
	}
	if !status.Available {
		log.Printf("Warning: embedding provider %s is not reachable, embeddings disabled", input.Provider)
	}
}

// setupSources builds the document sources. Local files are readable by
// the API only when ALLOW_LOCAL_FILES is set.
func setupSources(ctx context.Context, mode string) []driven.DocumentSource {
	maxBytes := int64(getEnvInt("MAX_DOCUMENT_BYTES", int(source.DefaultMaxBytes)))

	var sources []driven.DocumentSource
	if mode != "api" || getEnvBool("ALLOW_LOCAL_FILES", false) {
		sources = append(sources, source.NewFileSource(maxBytes))
	}
	sources = append(sources, source.NewHTTPSource(&nethttp.Client{Timeout: 60 * time.Second}, maxBytes))

	if getEnvBool("S3_ENABLED", true) {
		s3, err := source.NewS3Source(ctx, source.S3Config{
			Region:    getEnv("AWS_REGION", "us-east-1"),
			AccessKey: getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			Endpoint:  getEnv("S3_ENDPOINT", ""),
		}, maxBytes)
		if err != nil {
			log.Printf("Warning: s3 source unavailable: %v", err)
		} else {
			sources = append(sources, s3)
		}
	}
	return sources
}

func runAPI(
	extractionService driving.ExtractionService,
	pluginService driving.PluginService,
	checks map[string]http.Pinger,
	logger *slog.Logger,
) {
	cfg := http.DefaultConfig()
	cfg.Host = getEnv("HOST", cfg.Host)
	cfg.Port = getEnvInt("PORT", cfg.Port)
	cfg.Version = version
	cfg.MaxUploadBytes = int64(getEnvInt("MAX_UPLOAD_BYTES", int(cfg.MaxUploadBytes)))
	if origins := getEnv("CORS_ORIGINS", ""); origins != "" {
		cfg.AllowedOrigins = splitList(origins)
	}

	var tokens driven.TokenVerifier
	if secret := getEnv("API_JWT_SECRET", ""); secret != "" {
		tokens = auth.NewAdapter(secret)
		log.Println("API bearer authentication enabled")
	} else {
		log.Println("Warning: API_JWT_SECRET not set, API is unauthenticated")
	}

	server := http.NewServer(cfg, extractionService, pluginService, tokens, checks, logger)

	log.Printf("API server starting on %s:%d", cfg.Host, cfg.Port)
	if err := server.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func runMCP(ctx context.Context, extractionService driving.ExtractionService, logger *slog.Logger) {
	server := mcpserver.NewServer(version, extractionService, logger)
	if err := server.RunStdio(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("MCP server error: %v", err)
	}
}

// runExtract extracts each location and prints the results as JSON. It
// returns a non-zero exit code when any input fails.
func runExtract(ctx context.Context, extractionService driving.ExtractionService, locations []string) int {
	if len(locations) == 0 {
		fmt.Fprintln(os.Stderr, "usage: sercha-extract extract <path|uri>...")
		return 2
	}

	cfg, err := domain.ParseExtractionConfig([]byte(getEnv("EXTRACT_CONFIG", "")))
	if err != nil {
		fmt.Fprintf(os.Stderr, "sercha-extract: %v\n", err)
		return 2
	}

	var output any
	failed := false
	if len(locations) == 1 {
		result, err := extractionService.ExtractFile(ctx, locations[0], "", cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "sercha-extract: %s: %s: %v\n", locations[0], domain.KindOf(err).TypeName(), err)
			return 1
		}
		output = result
	} else {
		results, err := extractionService.BatchExtractFiles(ctx, locations, cfg)
		if err != nil && results == nil {
			fmt.Fprintf(os.Stderr, "sercha-extract: %v\n", err)
			return 1
		}
		for i, r := range results {
			if r.Metadata.Error != nil {
				failed = true
				fmt.Fprintf(os.Stderr, "sercha-extract: %s: %s: %s\n", locations[i], r.Metadata.Error.ErrorType, r.Metadata.Error.Message)
			}
		}
		output = results
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(output); err != nil {
		fmt.Fprintf(os.Stderr, "sercha-extract: encode result: %v\n", err)
		return 1
	}
	if failed {
		return 1
	}
	return 0
}

// runToken mints an API token: token <subject> [scopes]
func runToken(args []string) int {
	secret := getEnv("API_JWT_SECRET", "")
	if secret == "" || len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: API_JWT_SECRET=... sercha-extract token <subject> [extract,admin]")
		return 2
	}
	scopes := []string{domain.ScopeExtract}
	if len(args) > 1 {
		scopes = splitList(args[1])
	}

	now := time.Now()
	token, err := auth.NewAdapter(secret).GenerateToken(&domain.TokenClaims{
		Subject:   args[0],
		Scopes:    scopes,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(time.Duration(getEnvInt("TOKEN_TTL_HOURS", 24)) * time.Hour).Unix(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "sercha-extract: %v\n", err)
		return 1
	}
	fmt.Println(token)
	return 0
}

// Helper functions

func newLogger(format, level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.ToLower(format) == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}
