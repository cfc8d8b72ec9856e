package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"uismith/internal/blob"
	"uismith/internal/catalog"
	"uismith/internal/config"
	"uismith/internal/pipeline"
	"uismith/internal/preview"
	"uismith/internal/sandbox"
	"uismith/internal/store"
	"uismith/internal/token"
	"uismith/internal/web"
)

var errNoTemplate = errors.New("no sandbox template configured: set TEMPLATE_PATH or blob storage")

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	repo, err := openRepository(cfg)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer repo.Close()

	assets, err := openBlobStore(cfg)
	if err != nil {
		log.Fatalf("open blob store: %v", err)
	}

	template, err := templateSource(cfg, assets)
	if err != nil {
		log.Fatalf("resolve template: %v", err)
	}

	counter := token.NewCached(token.Heuristic{}, 1024)
	engine := pipeline.NewEngine(catalog.DirLoader(cfg.ModelDir), counter, pipeline.Config{
		DesignModel:   cfg.DesignModel,
		GenerateModel: cfg.GenerateModel,
	})
	generator := web.NewLLMGenerator(engine, counter, cfg.Provider, cfg.OpenAIBaseURL)

	runtime := newRuntime(cfg)
	defer runtime.Close()
	provisioner := sandbox.New(runtime, template)
	bridge := preview.NewBridge(provisioner, preview.NewNotifier())

	handlers := web.NewHandlers(repo, web.NewSessionStore(cfg.SessionSecret), generator, bridge, template)
	handlers.Snapshots = assets
	srv := web.NewServer(cfg.Port, handlers.Routes())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		log.Fatalf("server: %v", err)
	}
}

func openRepository(cfg *config.Config) (store.Repository, error) {
	if cfg.DatabaseURL != "" {
		return store.NewPostgresStore(cfg.DatabaseURL)
	}
	return store.NewSQLiteStore(cfg.SQLitePath)
}

func newRuntime(cfg *config.Config) sandbox.Runtime {
	if cfg.SandboxRuntime == "embedded" {
		return sandbox.NewEmbeddedRuntime()
	}
	return sandbox.NewProcessRuntime()
}

func openBlobStore(cfg *config.Config) (blob.Store, error) {
	if !cfg.Blob.Enabled {
		return nil, nil
	}
	return blob.NewS3Store(blob.S3Config{
		Endpoint:  cfg.Blob.Endpoint,
		Region:    cfg.Blob.Region,
		AccessKey: cfg.Blob.AccessKey,
		SecretKey: cfg.Blob.SecretKey,
		Bucket:    cfg.Blob.Bucket,
		UseSSL:    cfg.Blob.UseSSL,
	})
}

// templateSource prefers a local archive; otherwise the template comes from
// blob storage, fetched when the sandbox boots.
func templateSource(cfg *config.Config, assets blob.Store) (sandbox.TemplateSource, error) {
	if cfg.TemplatePath != "" {
		return sandbox.FileTemplate(cfg.TemplatePath), nil
	}
	if assets == nil {
		return nil, errNoTemplate
	}
	key := cfg.TemplateKey
	return func(ctx context.Context) ([]byte, error) {
		return assets.Get(ctx, key)
	}, nil
}
