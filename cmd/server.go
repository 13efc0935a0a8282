package cmd

import (
	"context"
	"os"
	"strconv"

	"beatvault/config"
	"beatvault/handlers"
	"beatvault/indexer"
	"beatvault/logger"
	"beatvault/metadata"
	"beatvault/middleware"
	"beatvault/services"
	"beatvault/store"
	"beatvault/websocket"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the beatvault HTTP server",
	Long:  "Starts the HTTP server that serves the beat library, streams audio and pushes scan progress over WebSocket.",
	Run: func(cmd *cobra.Command, args []string) {
		startServer()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}

// startServer wires the services together and runs the HTTP server.
func startServer() {
	cfg := config.Load()
	logger.Init(logger.Config{
		Level:      cfg.LogLevel,
		OutputPath: cfg.LogFile,
		MaxSize:    20,
		MaxBackups: 3,
		MaxAge:     14,
	})
	defer logger.Sync()

	// Set production mode if not specified
	if mode := os.Getenv("GIN_MODE"); mode != "" {
		gin.SetMode(mode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize services
	st := store.NewFileStore(cfg.SnapshotPath)
	pipeline := indexer.NewPipeline(
		st,
		indexer.NewFolderScanner(),
		indexer.NewBuilder(metadata.NewExtractor()),
		cfg.BatchSize,
	)
	library := services.NewLibrary(st, pipeline)

	hub := websocket.NewHub()
	go hub.Run()

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	beatsHandler := handlers.NewBeatsHandler(library)
	foldersHandler := handlers.NewFoldersHandler(library)
	scanHandler := handlers.NewScanHandler(library, hub)

	// Setup router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.Logging())

	setupRoutes(r, healthHandler, beatsHandler, foldersHandler, scanHandler)

	if cfg.WatchFolders {
		startWatcher(cfg, library, hub)
	}

	logger.Info("beatvault server starting",
		zap.Int("port", cfg.Port),
		zap.String("index", cfg.SnapshotPath))

	if err := r.Run(":" + strconv.Itoa(cfg.Port)); err != nil {
		logger.Error("failed to start server", zap.Error(err))
	}
}

// setupRoutes configures all the HTTP routes
func setupRoutes(r *gin.Engine, healthHandler *handlers.HealthHandler, beatsHandler *handlers.BeatsHandler, foldersHandler *handlers.FoldersHandler, scanHandler *handlers.ScanHandler) {
	// Health check endpoint
	r.GET("/health", healthHandler.HealthCheck)

	// API routes group
	apiGroup := r.Group("/api")
	{
		// Library records
		beatsGroup := apiGroup.Group("/beats")
		{
			beatsGroup.GET("", beatsHandler.ListBeats)
			beatsGroup.DELETE("", beatsHandler.ClearIndex)
			beatsGroup.PATCH("/:id", beatsHandler.UpdateBeat)
			beatsGroup.GET("/:id/cover", beatsHandler.Cover)
			beatsGroup.GET("/:id/stream", beatsHandler.Stream)
		}

		// Library folders
		foldersGroup := apiGroup.Group("/folders")
		{
			foldersGroup.GET("", foldersHandler.ListFolders)
			foldersGroup.POST("", foldersHandler.AddFolder)
			foldersGroup.DELETE("", foldersHandler.RemoveFolder)
		}

		// Indexing
		apiGroup.POST("/scan", scanHandler.StartScan)

		// WebSocket endpoint for scan progress
		apiGroup.GET("/ws/scan", scanHandler.HandleWebSocketConnection)
	}
}

// startWatcher rescans automatically when watched folders change.
func startWatcher(cfg *config.Config, library services.Library, hub websocket.Hub) {
	rescan := func() {
		result, err := library.Scan(context.Background(), hub.BroadcastProgress)
		if err != nil {
			logger.Error("automatic rescan failed", zap.Error(err))
			return
		}
		logger.Info("automatic rescan finished", zap.Int("beats", len(result.Beats)))
	}

	watcher, err := services.NewWatcher(cfg.WatchDebounce, rescan)
	if err != nil {
		logger.Warn("could not start folder watcher", zap.Error(err))
		return
	}

	folders, err := library.Folders()
	if err != nil {
		logger.Warn("could not load folders for watching", zap.Error(err))
		return
	}
	if err := watcher.Watch(folders); err != nil {
		logger.Warn("could not watch folders", zap.Error(err))
	}

	go watcher.Run(context.Background())
}
