package handlers

import (
	"context"
	"net/http"
	"sync/atomic"

	"beatvault/logger"
	"beatvault/services"
	"beatvault/types"
	ws "beatvault/websocket"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ScanHandler triggers index runs and exposes the progress WebSocket
type ScanHandler struct {
	library  services.Library
	hub      ws.Hub
	scanning atomic.Bool
}

// NewScanHandler creates a new scan handler
func NewScanHandler(library services.Library, hub ws.Hub) *ScanHandler {
	return &ScanHandler{library: library, hub: hub}
}

// StartScan kicks off an index run in the background. Progress is pushed to
// WebSocket clients; only one run may be in flight at a time.
func (h *ScanHandler) StartScan(c *gin.Context) {
	if !h.scanning.CompareAndSwap(false, true) {
		c.JSON(http.StatusConflict, gin.H{
			"error": "a scan is already in progress",
		})
		return
	}

	go func() {
		defer h.scanning.Store(false)

		result, err := h.library.Scan(context.Background(), h.hub.BroadcastProgress)
		if err != nil {
			logger.Error("scan failed", zap.Error(err))
			h.hub.BroadcastScan("error", types.ScanProgress{}, err.Error())
			return
		}

		logger.Info("scan finished",
			zap.Int("beats", len(result.Beats)),
			zap.Int("cached", result.Cached),
			zap.Int("fresh", result.Fresh),
			zap.Int("degraded", result.Degraded),
			zap.Int("folderErrors", len(result.FolderErrors)))

		h.hub.BroadcastScan("complete",
			types.ScanProgress{Current: len(result.Beats), Total: len(result.Beats), Percentage: 100},
			result.Warning())
	}()

	c.JSON(http.StatusAccepted, gin.H{"message": "scan started"})
}

// HandleWebSocketConnection upgrades the connection and streams scan progress
func (h *ScanHandler) HandleWebSocketConnection(c *gin.Context) {
	upgrader := ws.GetUpgrader()
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := ws.NewClient(h.hub, conn)
	h.hub.RegisterClient(client)
	client.StartPumps()
}
