package file

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ksenchy/filevault/internal/auth"
	"github.com/ksenchy/filevault/internal/folder"
	"github.com/ksenchy/filevault/internal/objectstore"
)

// RegisterRoutes mounts file operations under the provided router group.
func RegisterRoutes(group *gin.RouterGroup, service *Service) {
	handler := &httpHandler{service: service}
	group.POST("/files/upload-url", handler.beginPresignedUpload)
	group.POST("/files/direct-upload", handler.directUpload)
	group.POST("/files/confirm-upload", handler.confirmUpload)
	group.GET("/files/folder/:folderID", handler.listFolderFiles)
	group.GET("/files/download/:fileID", handler.getDownloadURL)
	group.PUT("/files/:fileID", handler.updateFile)
	group.DELETE("/files/:fileID", handler.deleteFile)
	group.GET("/files/search", handler.searchFiles)
}

type httpHandler struct {
	service *Service
}

type uploadURLRequest struct {
	FileName    string `json:"fileName" binding:"required"`
	FolderID    string `json:"folderId" binding:"required"`
	ContentType string `json:"contentType"`
}

type confirmUploadRequest struct {
	FileID      string  `json:"fileId" binding:"required"`
	Description *string `json:"description"`
	Tags        *string `json:"tags"`
}

type updateFileRequest struct {
	Description *string `json:"description"`
	Tags        *string `json:"tags"`
	IsPublic    *bool   `json:"isPublic"`
}

func (h *httpHandler) beginPresignedUpload(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req uploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	folderID, err := uuid.Parse(req.FolderID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid folder id"})
		return
	}

	grant, err := h.service.BeginPresignedUpload(c.Request.Context(), userID, PresignInput{
		FileName:    req.FileName,
		FolderID:    folderID,
		ContentType: req.ContentType,
	})
	if err != nil {
		respondServiceError(c, err, "failed to create upload url")
		return
	}

	c.JSON(http.StatusOK, grant)
}

func (h *httpHandler) directUpload(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	folderID, err := uuid.Parse(c.PostForm("folderId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "folderId field is required"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file field is required"})
		return
	}

	rec, err := h.service.DirectUpload(c.Request.Context(), userID, folderID, fileHeader)
	if err != nil {
		respondServiceError(c, err, "failed to upload file")
		return
	}

	c.JSON(http.StatusOK, rec)
}

func (h *httpHandler) confirmUpload(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req confirmUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	fileID, err := uuid.Parse(req.FileID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file id"})
		return
	}

	rec, err := h.service.ConfirmUpload(c.Request.Context(), userID, fileID, req.Description, req.Tags)
	if err != nil {
		respondServiceError(c, err, "failed to confirm upload")
		return
	}

	c.JSON(http.StatusOK, rec)
}

func (h *httpHandler) listFolderFiles(c *gin.Context) {
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

	files, err := h.service.ListFolderFiles(c.Request.Context(), userID, folderID)
	if err != nil {
		respondServiceError(c, err, "failed to list files")
		return
	}
	if files == nil {
		files = []FileRecord{}
	}

	c.JSON(http.StatusOK, files)
}

func (h *httpHandler) getDownloadURL(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	fileID, err := uuid.Parse(c.Param("fileID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file id"})
		return
	}

	link, err := h.service.GetDownloadURL(c.Request.Context(), userID, fileID)
	if err != nil {
		respondServiceError(c, err, "failed to create download url")
		return
	}

	c.JSON(http.StatusOK, link)
}

func (h *httpHandler) deleteFile(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	fileID, err := uuid.Parse(c.Param("fileID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file id"})
		return
	}

	if err := h.service.Delete(c.Request.Context(), userID, fileID); err != nil {
		respondServiceError(c, err, "failed to delete file")
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *httpHandler) updateFile(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	fileID, err := uuid.Parse(c.Param("fileID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file id"})
		return
	}

	var req updateFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	rec, err := h.service.UpdateMetadata(c.Request.Context(), userID, fileID, UpdateInput{
		Description: req.Description,
		Tags:        req.Tags,
		IsPublic:    req.IsPublic,
	})
	if err != nil {
		respondServiceError(c, err, "failed to update file")
		return
	}

	c.JSON(http.StatusOK, rec)
}

func (h *httpHandler) searchFiles(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	params, err := parseSearchParams(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad search params", "details": err.Error()})
		return
	}

	result, err := h.service.Search(c.Request.Context(), userID, params)
	if err != nil {
		respondServiceError(c, err, "failed to search files")
		return
	}

	c.JSON(http.StatusOK, result)
}

func parseSearchParams(c *gin.Context) (SearchParams, error) {
	params := SearchParams{
		SearchTerm:     c.Query("searchTerm"),
		ContentType:    c.Query("contentType"),
		SortBy:         c.DefaultQuery("sortBy", SortByCreatedAt),
		SortDescending: true,
		PageNumber:     1,
		PageSize:       20,
	}

	if raw := c.Query("sortDescending"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return SearchParams{}, errors.New("sortDescending must be a boolean")
		}
		params.SortDescending = parsed
	}
	if raw := c.Query("pageNumber"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return SearchParams{}, errors.New("pageNumber must be an integer")
		}
		params.PageNumber = parsed
	}
	if raw := c.Query("pageSize"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return SearchParams{}, errors.New("pageSize must be an integer")
		}
		params.PageSize = parsed
	}
	if raw := c.Query("fromDate"); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			return SearchParams{}, errors.New("fromDate must be RFC3339 or YYYY-MM-DD")
		}
		params.FromDate = &parsed
	}
	if raw := c.Query("toDate"); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			return SearchParams{}, errors.New("toDate must be RFC3339 or YYYY-MM-DD")
		}
		params.ToDate = &parsed
	}
	if raw := c.Query("folderId"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			return SearchParams{}, errors.New("folderId must be a uuid")
		}
		params.FolderID = &parsed
	}

	return params, nil
}

func parseDate(raw string) (time.Time, error) {
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return parsed, nil
	}
	return time.Parse("2006-01-02", raw)
}

// respondServiceError maps service failures onto the error taxonomy: 400 for
// validation, 404 for anything missing/foreign/deleted, 500 with a category
// for storage backend failures.
func respondServiceError(c *gin.Context, err error, fallback string) {
	var targetErr *TargetFolderError
	var storeErr *objectstore.Error

	switch {
	case errors.As(err, &targetErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "folder not found", "details": targetErr.Error()})
	case errors.Is(err, ErrInvalidFileName):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file name", "details": `name must be 1-255 characters and must not contain <>:"/\|?*`})
	case errors.Is(err, ErrFileTooLarge):
		c.JSON(http.StatusBadRequest, gin.H{"error": "file too large"})
	case errors.Is(err, ErrBadPageParams):
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad page params", "details": "pageNumber must be >= 1 and pageSize within [1,100]"})
	case errors.Is(err, ErrFileNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
	case errors.Is(err, folder.ErrFolderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "folder not found"})
	case errors.As(err, &storeErr):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage backend failure", "details": string(storeErr.Category)})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
