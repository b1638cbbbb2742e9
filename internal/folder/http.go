package folder

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ksenchy/filevault/internal/auth"
)

// RegisterRoutes mounts folder operations under the provided router group.
func RegisterRoutes(group *gin.RouterGroup, service *Service) {
	handler := &httpHandler{service: service}
	group.POST("/folders", handler.createFolder)
	group.GET("/folders", handler.listFolders)
	group.GET("/folders/:folderID", handler.getFolder)
	group.PUT("/folders/:folderID", handler.updateFolder)
	group.DELETE("/folders/:folderID", handler.deleteFolder)
}

type httpHandler struct {
	service *Service
}

type createFolderRequest struct {
	Name           string  `json:"name" binding:"required"`
	ParentFolderID *string `json:"parentFolderId"`
	Description    *string `json:"description" binding:"omitempty,max=500"`
	Color          *string `json:"color"`
}

type updateFolderRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description" binding:"omitempty,max=500"`
	Color       *string `json:"color"`
}

func (h *httpHandler) createFolder(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req createFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	input := CreateInput{
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
	}
	if req.ParentFolderID != nil && *req.ParentFolderID != "" {
		parentID, err := uuid.Parse(*req.ParentFolderID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid parent folder id"})
			return
		}
		input.ParentFolderID = &parentID
	}

	created, err := h.service.CreateFolder(c.Request.Context(), userID, input)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidName):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid folder name", "details": `name must be 1-255 characters and must not contain <>:"/\|?*`})
		case errors.Is(err, ErrInvalidColor):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid folder color", "details": "color must be #RRGGBB"})
		case errors.Is(err, ErrParentNotFound):
			c.JSON(http.StatusBadRequest, gin.H{"error": "parent folder not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create folder"})
		}
		return
	}

	c.JSON(http.StatusOK, created)
}

func (h *httpHandler) listFolders(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var parentID *uuid.UUID
	if raw := c.Query("parentFolderId"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid parent folder id"})
			return
		}
		parentID = &parsed
	}

	folders, err := h.service.ListFolders(c.Request.Context(), userID, parentID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list folders"})
		return
	}
	if folders == nil {
		folders = []Folder{}
	}

	c.JSON(http.StatusOK, folders)
}

func (h *httpHandler) getFolder(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	folderID, err := uuid.Parse(c.Param("folderID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid folder id"})
		return
	}

	f, err := h.service.GetFolder(c.Request.Context(), userID, folderID)
	if err != nil {
		if errors.Is(err, ErrFolderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "folder not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch folder"})
		return
	}

	c.JSON(http.StatusOK, f)
}

func (h *httpHandler) updateFolder(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	folderID, err := uuid.Parse(c.Param("folderID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid folder id"})
		return
	}

	var req updateFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	err = h.service.UpdateFolder(c.Request.Context(), userID, folderID, UpdateInput{
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidName):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid folder name", "details": `name must be 1-255 characters and must not contain <>:"/\|?*`})
		case errors.Is(err, ErrInvalidColor):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid folder color", "details": "color must be #RRGGBB"})
		case errors.Is(err, ErrFolderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "folder not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update folder"})
		}
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *httpHandler) deleteFolder(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	folderID, err := uuid.Parse(c.Param("folderID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid folder id"})
		return
	}

	deleted, err := h.service.DeleteFolder(c.Request.Context(), userID, folderID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete folder"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "folder not found"})
		return
	}

	c.Status(http.StatusNoContent)
}
