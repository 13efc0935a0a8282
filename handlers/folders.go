package handlers

import (
	"net/http"

	"beatvault/services"

	"github.com/gin-gonic/gin"
)

// FoldersHandler manages the set of library folders
type FoldersHandler struct {
	library services.Library
}

// NewFoldersHandler creates a new folders handler
func NewFoldersHandler(library services.Library) *FoldersHandler {
	return &FoldersHandler{library: library}
}

// FolderRequest is the body for adding or removing a folder
type FolderRequest struct {
	Path string `json:"path" binding:"required"`
}

// ListFolders returns the configured library folders
func (h *FoldersHandler) ListFolders(c *gin.Context) {
	folders, err := h.library.Folders()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to load folders",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"folders": folders,
		"count":   len(folders),
	})
}

// AddFolder adds a folder to the library
func (h *FoldersHandler) AddFolder(c *gin.Context) {
	var req FolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "folder path is required",
			"details": err.Error(),
		})
		return
	}

	folders, err := h.library.AddFolder(req.Path)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "failed to add folder",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"folders": folders})
}

// RemoveFolder removes a folder from the library. Its records drop out of
// the snapshot on the next scan.
func (h *FoldersHandler) RemoveFolder(c *gin.Context) {
	var req FolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "folder path is required",
			"details": err.Error(),
		})
		return
	}

	folders, err := h.library.RemoveFolder(req.Path)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "failed to remove folder",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"folders": folders})
}
