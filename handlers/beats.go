package handlers

import (
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"beatvault/logger"
	"beatvault/metadata"
	"beatvault/services"
	"beatvault/types"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BeatsHandler handles library record endpoints
type BeatsHandler struct {
	library services.Library
}

// NewBeatsHandler creates a new beats handler
func NewBeatsHandler(library services.Library) *BeatsHandler {
	return &BeatsHandler{library: library}
}

// ListBeats returns the indexed records, optionally filtered and sorted
func (h *BeatsHandler) ListBeats(c *gin.Context) {
	beats, err := h.library.Search(
		c.Query("search"),
		c.DefaultQuery("sort", ""),
		c.DefaultQuery("order", "asc"),
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to load beats",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"beats": beats,
		"count": len(beats),
	})
}

// UpdateBeatRequest is the PATCH body for user edits. Only bpm and key are
// user-editable; everything else is owned by the scan.
type UpdateBeatRequest struct {
	BPM *int    `json:"bpm"`
	Key *string `json:"key"`
}

// UpdateBeat applies a user edit to a single record
func (h *BeatsHandler) UpdateBeat(c *gin.Context) {
	var req UpdateBeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid update format",
			"details": err.Error(),
		})
		return
	}
	if req.BPM == nil && req.Key == nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "nothing to update, provide bpm and/or key",
		})
		return
	}

	beat, err := h.library.UpdateBeat(c.Param("id"), req.BPM, req.Key)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "failed to update beat",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"beat": beat})
}

// ClearIndex removes every record from the persisted index
func (h *BeatsHandler) ClearIndex(c *gin.Context) {
	if err := h.library.ClearIndex(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to clear index",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "index cleared"})
}

// Cover serves the embedded cover image of a record
func (h *BeatsHandler) Cover(c *gin.Context) {
	beat, err := h.library.GetBeat(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "beat not found"})
		return
	}

	mime, data, err := decodeCoverArt(beat.CoverArt)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "beat has no cover art"})
		return
	}

	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, mime, data)
}

// decodeCoverArt splits a data:<mime>;base64,<payload> URI into its parts.
func decodeCoverArt(uri string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, fmt.Errorf("no cover art")
	}
	mime, payload, ok := strings.Cut(rest, ";base64,")
	if !ok {
		return "", nil, fmt.Errorf("malformed cover art data URI")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, err
	}
	return mime, data, nil
}

// Stream streams a record's audio file with support for range requests
func (h *BeatsHandler) Stream(c *gin.Context) {
	beat, err := h.library.GetBeat(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "beat not found"})
		return
	}

	fileInfo, err := os.Stat(beat.Path)
	if err != nil {
		if os.IsNotExist(err) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "file no longer exists",
				"path":  beat.Path,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "file access error",
			"details": err.Error(),
		})
		return
	}

	if fileInfo.IsDir() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "path is a directory, not a file",
		})
		return
	}

	file, err := os.Open(beat.Path)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to open file",
			"details": err.Error(),
		})
		return
	}
	defer file.Close()

	// Set appropriate headers for audio streaming
	c.Header("Content-Type", metadata.MIMEType(beat.Format))
	c.Header("Content-Length", strconv.FormatInt(fileInfo.Size(), 10))
	c.Header("Accept-Ranges", "bytes")
	c.Header("Cache-Control", "public, max-age=3600")

	// Handle range requests for seeking
	rangeHeader := c.GetHeader("Range")
	if rangeHeader != "" {
		h.handleRangeRequest(c, file, fileInfo.Size(), rangeHeader, beat)
		return
	}

	// Stream the entire file
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, file); err != nil {
		logger.Warn("error streaming file", zap.String("path", beat.Path), zap.Error(err))
	}
}

// handleRangeRequest handles HTTP range requests for efficient seeking
func (h *BeatsHandler) handleRangeRequest(c *gin.Context, file *os.File, fileSize int64, rangeHeader string, beat *types.Beat) {
	// Parse range header (e.g., "bytes=0-1023" or "bytes=1024-")
	if !strings.HasPrefix(rangeHeader, "bytes=") {
		c.Status(http.StatusRequestedRangeNotSatisfiable)
		return
	}

	rangeSpec := strings.TrimPrefix(rangeHeader, "bytes=")
	ranges := strings.Split(rangeSpec, "-")

	if len(ranges) != 2 {
		c.Status(http.StatusRequestedRangeNotSatisfiable)
		return
	}

	var start, end int64
	var err error

	// Parse start position
	if ranges[0] != "" {
		start, err = strconv.ParseInt(ranges[0], 10, 64)
		if err != nil || start < 0 {
			c.Status(http.StatusRequestedRangeNotSatisfiable)
			return
		}
	}

	// Parse end position
	if ranges[1] != "" {
		end, err = strconv.ParseInt(ranges[1], 10, 64)
		if err != nil || end < start {
			c.Status(http.StatusRequestedRangeNotSatisfiable)
			return
		}
	} else {
		end = fileSize - 1
	}

	// Validate range bounds
	if start >= fileSize {
		c.Status(http.StatusRequestedRangeNotSatisfiable)
		return
	}
	if end >= fileSize {
		end = fileSize - 1
	}

	contentLength := end - start + 1

	// Seek to start position
	if _, err := file.Seek(start, io.SeekStart); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to seek file",
		})
		return
	}

	// Set partial content headers
	c.Header("Content-Type", metadata.MIMEType(beat.Format))
	c.Header("Content-Length", strconv.FormatInt(contentLength, 10))
	c.Header("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, fileSize))
	c.Header("Accept-Ranges", "bytes")
	c.Header("Cache-Control", "public, max-age=3600")
	c.Status(http.StatusPartialContent)

	// Copy only the requested range
	if _, err := io.CopyN(c.Writer, file, contentLength); err != nil {
		logger.Warn("error streaming range",
			zap.Int64("start", start),
			zap.Int64("end", end),
			zap.Error(err))
	}
}
