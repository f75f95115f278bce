package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/sethvargo/go-password/password"
	"github.com/spf13/afero"
	"gopkg.in/natefinch/lumberjack.v2"

	"reelhouse/api"
	"reelhouse/config"
	"reelhouse/handlers"
	"reelhouse/models"
	"reelhouse/services/catalog"
	"reelhouse/services/progress"
	"reelhouse/services/sessions"
	"reelhouse/services/users"
)

func main() {
	portOverride := flag.Int("port", 0, "override server port from config")
	flag.Parse()

	fmt.Println("🎬 Reelhouse starting...")

	configPath := os.Getenv("REELHOUSE_CONFIG")
	if configPath == "" {
		configPath = filepath.Join("data", "settings.json")
	}

	cfgManager := config.NewManager(configPath)
	settings, err := cfgManager.Load()
	if err != nil {
		log.Fatalf("failed to load settings: %v", err)
	}

	// Set up file logging with rotation
	if settings.Log.File != "" {
		logDir := filepath.Dir(settings.Log.File)
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			log.Printf("Warning: could not create log directory %s: %v", logDir, err)
		} else {
			fileWriter := &lumberjack.Logger{
				Filename:   settings.Log.File,
				MaxSize:    settings.Log.MaxSize,
				MaxBackups: settings.Log.MaxBackups,
				MaxAge:     settings.Log.MaxAge,
				Compress:   settings.Log.Compress,
			}
			log.SetOutput(io.MultiWriter(os.Stdout, fileWriter))
			log.SetFlags(log.LstdFlags | log.Lshortfile)
			log.Printf("Logging to file: %s", settings.Log.File)
		}
	}

	if *portOverride > 0 {
		settings.Server.Port = *portOverride
	}

	usersSvc, err := users.NewService(settings.Storage.Directory)
	if err != nil {
		log.Fatalf("failed to init users service: %v", err)
	}
	if err := bootstrapAdmin(usersSvc); err != nil {
		log.Fatalf("failed to bootstrap admin account: %v", err)
	}

	sessionsSvc := sessions.NewServiceWithTTL(time.Duration(settings.Auth.SessionTTLHours) * time.Hour)

	catalogSvc, err := catalog.NewService(settings.Storage.Directory)
	if err != nil {
		log.Fatalf("failed to init catalog service: %v", err)
	}
	movies, series, episodes := catalogSvc.Counts()
	log.Printf("Catalogue loaded: %d movies, %d series, %d episodes", movies, series, episodes)

	progressSvc, err := progress.NewService(settings.Storage.Directory)
	if err != nil {
		log.Fatalf("failed to init progress service: %v", err)
	}

	libraryFs := afero.NewBasePathFs(afero.NewOsFs(), settings.Library.Directory)

	r := mux.NewRouter()
	api.Register(
		r,
		handlers.NewAuthHandler(usersSvc, sessionsSvc),
		handlers.NewCatalogHandler(catalogSvc),
		handlers.NewProgressHandler(progressSvc),
		handlers.NewVideoHandler(libraryFs),
		sessionsSvc,
	)

	addr := fmt.Sprintf("%s:%d", settings.Server.Host, settings.Server.Port)
	fmt.Printf("Server starting on %s\n", addr)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // streaming responses must not be cut off
		IdleTimeout:  120 * time.Second,
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-shutdownChan
	log.Println("🛑 Shutdown signal received, cleaning up...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("✅ Shutdown complete")
}

// bootstrapAdmin creates the initial admin account on a fresh install. The
// generated password is printed once; change it after the first login.
func bootstrapAdmin(usersSvc *users.Service) error {
	if usersSvc.Count() > 0 {
		return nil
	}

	generated, err := password.Generate(16, 4, 0, false, false)
	if err != nil {
		return fmt.Errorf("generate admin password: %w", err)
	}

	if _, err := usersSvc.Create(models.DefaultAdminUsername, "", generated); err != nil {
		return fmt.Errorf("create admin account: %w", err)
	}

	fmt.Printf("🔑 Created initial account %q with password: %s\n", models.DefaultAdminUsername, generated)
	fmt.Println("   Log in and change it right away.")
	return nil
}
