package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/candlr-app/candlr/internal/api"
	"github.com/candlr-app/candlr/internal/config"
	"github.com/candlr-app/candlr/internal/db"
	"github.com/candlr-app/candlr/internal/fsutil"
	"github.com/candlr-app/candlr/internal/genai"
	"github.com/candlr-app/candlr/internal/imagelog"
	"github.com/candlr-app/candlr/internal/mold"
	"github.com/candlr-app/candlr/internal/version"
)

var (
	configPath    = flag.String("config", "", "Path to JSON config file")
	listen        = flag.String("listen", "", "Listen address (overrides config)")
	dbPath        = flag.String("db", "", "History database path (overrides config)")
	migrationsDir = flag.String("migrations", "", "Migrations directory (overrides config)")
	imageLogDir   = flag.String("image-log-dir", "", "Directory for pipeline image captures (overrides config)")
	showVersion   = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("candlr %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	cfg := config.Empty()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}
	// Flags win over the config file.
	if *listen != "" {
		cfg.ListenAddr = listen
	}
	if *dbPath != "" {
		cfg.DBPath = dbPath
	}
	if *migrationsDir != "" {
		cfg.MigrationsDir = migrationsDir
	}
	if *imageLogDir != "" {
		cfg.ImageLogDir = imageLogDir
	}

	database, err := db.NewDB(cfg.GetDBPath())
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer database.Close()
	if err := database.MigrateUp(cfg.GetMigrationsDir()); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var images *imagelog.Logger
	if dir := cfg.GetImageLogDir(); dir != "" {
		images, err = imagelog.New(fsutil.OSFileSystem{}, dir)
		if err != nil {
			log.Fatalf("failed to create image log dir: %v", err)
		}
		log.Printf("saving pipeline image captures to %s", dir)
	}

	gen := mold.NewGenerator()
	gen.GaussianSigma = cfg.GetGaussianSigma()
	gen.SmoothLambda = cfg.GetSmoothLambda()
	gen.SmoothIterations = cfg.GetSmoothIterations()

	client := genai.NewClient(cfg.GetGenAIEndpoint(), cfg.GetGenAIAPIKey(), cfg.GetGenAIModel(), nil)
	if cfg.GetGenAIEndpoint() == "" || cfg.GetGenAIAPIKey() == "" {
		log.Printf("image model not configured; depth maps fall back to local processing")
	}
	ai := genai.NewService(client, images)

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := api.NewServer(gen, ai, database, images).ServeMux()
		database.AttachAdminRoutes(mux)

		server := &http.Server{
			Addr:              cfg.GetListenAddr(),
			Handler:           api.LoggingMiddleware(mux),
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      cfg.GetRequestTimeout(),
		}

		go func() {
			log.Printf("candlr %s listening on %s", version.Version, cfg.GetListenAddr())
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
			if err := server.Close(); err != nil {
				log.Printf("HTTP server force close error: %v", err)
			}
		}
		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("graceful shutdown complete")
}
