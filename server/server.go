package server

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vinylfm/cache"
	"vinylfm/config"
	"vinylfm/logger"
	"vinylfm/repository"
	"vinylfm/storage"

	"github.com/gorilla/mux"
)

// Start initializes and starts the HTTP server.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogPath,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	})

	ensureDirExists(cfg.LibraryDir)

	blobs, err := NewBlobStore(cfg)
	if err != nil {
		logger.Fatal("initializing blob store failed", logger.ErrorField(err))
	}
	repo, err := NewLibraryRepository(cfg)
	if err != nil {
		logger.Fatal("initializing library store failed", logger.ErrorField(err))
	}
	defer closeIfCloser(repo)

	libCache := cache.New(repo)
	hub := NewEventHub()
	apiHandler := NewAPIHandler(repo, blobs, libCache, hub, cfg)

	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()

	// Only the file driver has a document file another process can touch.
	if cfg.LibraryStore == "file" {
		watcher, err := cache.NewWatcher(cfg.LibraryDir, libCache, func() {
			lib, _ := libCache.Load(context.Background())
			hub.Broadcast(libraryUpdated(lib))
		})
		if err != nil {
			logger.Warn("library watcher unavailable", logger.ErrorField(err))
		} else {
			defer watcher.Close()
			go watcher.Run(watchCtx)
		}
	}

	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      NewRouter(apiHandler),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("server starting",
			logger.String("addr", cfg.ServerAddr),
			logger.String("libraryDir", cfg.LibraryDir),
			logger.String("blobDriver", cfg.BlobDriver),
			logger.String("libraryStore", cfg.LibraryStore),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", logger.ErrorField(err))
		}
	}()

	<-stop
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", logger.ErrorField(err))
	}

	logger.Info("server stopped")
}

// NewRouter wires all routes and middleware.
func NewRouter(apiHandler *APIHandler) *mux.Router {
	router := mux.NewRouter()
	router.Use(corsMiddleware, requestIDMiddleware, loggingMiddleware)

	router.HandleFunc("/api/health", apiHandler.HealthHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/library", apiHandler.GetLibraryHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/library", apiHandler.SaveLibraryHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/upload", apiHandler.UploadHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/events", apiHandler.EventsHandler).Methods(http.MethodGet)
	router.PathPrefix(storage.RefPrefix).HandlerFunc(apiHandler.FilesHandler).Methods(http.MethodGet)

	return router
}

// NewBlobStore selects the asset backend from configuration.
func NewBlobStore(cfg *config.Config) (storage.BlobStore, error) {
	switch cfg.BlobDriver {
	case "minio":
		return storage.NewMinioBlobStore(cfg)
	default:
		return storage.NewFSBlobStore(cfg.LibraryDir), nil
	}
}

// NewLibraryRepository selects the document store from configuration.
func NewLibraryRepository(cfg *config.Config) (repository.LibraryRepository, error) {
	switch cfg.LibraryStore {
	case "redis":
		return repository.NewRedisLibraryRepository(cfg)
	default:
		return repository.NewFileLibraryRepository(cfg.LibraryDir), nil
	}
}

func closeIfCloser(repo repository.LibraryRepository) {
	if closer, ok := repo.(io.Closer); ok {
		closer.Close()
	}
}

func ensureDirExists(path string) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Info("creating directory", logger.String("path", path))
		if err := os.MkdirAll(path, 0755); err != nil {
			logger.Fatal("creating directory failed", logger.String("path", path), logger.ErrorField(err))
		}
	} else if err != nil {
		logger.Fatal("checking directory failed", logger.String("path", path), logger.ErrorField(err))
	}
}
