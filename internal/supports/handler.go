package supports

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/lexwebinar/backend/internal/middleware"
	"github.com/lexwebinar/backend/internal/models"
	"github.com/lexwebinar/backend/pkg/response"
	"github.com/lexwebinar/backend/pkg/storage"
)

// UploadURLRequest is the body for POST /supports/upload-url. The client
// uploads the file itself with the returned presigned URL.
type UploadURLRequest struct {
	Title       string  `json:"title" binding:"required"`
	Type        string  `json:"type" binding:"required"`
	WebinarID   *string `json:"webinar_id"`
	Filename    string  `json:"filename" binding:"required"`
	ContentType string  `json:"content_type" binding:"required"`
}

// UploadURLResponse carries the created support and its presigned PUT URL.
type UploadURLResponse struct {
	Support   *models.Support `json:"support"`
	UploadURL string          `json:"upload_url"`
}

// Handler handles support document HTTP endpoints.
type Handler struct {
	repo   *Repository
	store  *storage.S3
	logger *zap.Logger
}

// NewHandler creates a support handler.
func NewHandler(repo *Repository, store *storage.S3, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, store: store, logger: logger}
}

func (h *Handler) resolveWebinar(c *gin.Context, raw *string) (*uuid.UUID, bool) {
	if raw == nil || *raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		response.BadRequest(c, "invalid webinar id")
		return nil, false
	}
	ok, err := h.repo.WebinarExists(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("webinar existence check failed", zap.Error(err))
		response.Internal(c, "failed to create support")
		return nil, false
	}
	if !ok {
		response.BadRequest(c, "webinar not found")
		return nil, false
	}
	return &id, true
}

// Create handles POST /supports (admin only): multipart upload of the file
// together with its metadata.
func (h *Handler) Create(c *gin.Context) {
	title := c.PostForm("title")
	if title == "" {
		response.BadRequest(c, "title is required")
		return
	}
	supportType := models.SupportType(c.PostForm("type"))
	if !models.ValidSupportType(supportType) {
		response.BadRequest(c, "type must be SLIDE, DOCUMENT, RECORDING or OTHER")
		return
	}
	var webinarRaw *string
	if s := c.PostForm("webinar_id"); s != "" {
		webinarRaw = &s
	}
	webinarID, ok := h.resolveWebinar(c, webinarRaw)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "file is required")
		return
	}
	if fileHeader.Size > storage.MaxSupportFileSize {
		response.BadRequest(c, "file exceeds the 50MB limit")
		return
	}
	contentType := fileHeader.Header.Get("Content-Type")
	if !storage.ValidateSupportFileType(contentType, fileHeader.Filename) {
		response.BadRequest(c, "unsupported file type")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.logger.Error("open upload failed", zap.Error(err))
		response.Internal(c, "failed to create support")
		return
	}
	defer file.Close()

	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	sup := &models.Support{
		ID:           uuid.New(),
		Title:        title,
		Type:         supportType,
		WebinarID:    webinarID,
		UploadedByID: userID,
	}
	webinarKeyPart := ""
	if webinarID != nil {
		webinarKeyPart = webinarID.String()
	}
	key := storage.SupportKey(webinarKeyPart, sup.ID.String(), fileHeader.Filename)

	if _, err := h.store.Upload(c.Request.Context(), key, contentType, file); err != nil {
		h.logger.Error("support upload failed", zap.String("key", key), zap.Error(err))
		response.Internal(c, "failed to upload support")
		return
	}
	sup.FileKey = key

	if err := h.repo.Create(c.Request.Context(), sup); err != nil {
		h.logger.Error("create support failed", zap.Error(err))
		response.Internal(c, "failed to create support")
		return
	}
	response.Created(c, sup)
}

// UploadURL handles POST /supports/upload-url (admin only): creates the
// metadata row and returns a presigned PUT URL for the client to upload with.
func (h *Handler) UploadURL(c *gin.Context) {
	var req UploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	supportType := models.SupportType(req.Type)
	if !models.ValidSupportType(supportType) {
		response.BadRequest(c, "type must be SLIDE, DOCUMENT, RECORDING or OTHER")
		return
	}
	if !storage.ValidateSupportFileType(req.ContentType, req.Filename) {
		response.BadRequest(c, "unsupported file type")
		return
	}
	webinarID, ok := h.resolveWebinar(c, req.WebinarID)
	if !ok {
		return
	}

	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	sup := &models.Support{
		ID:           uuid.New(),
		Title:        req.Title,
		Type:         supportType,
		WebinarID:    webinarID,
		UploadedByID: userID,
	}
	webinarKeyPart := ""
	if webinarID != nil {
		webinarKeyPart = webinarID.String()
	}
	sup.FileKey = storage.SupportKey(webinarKeyPart, sup.ID.String(), req.Filename)

	uploadURL, err := h.store.PresignPut(c.Request.Context(), sup.FileKey, req.ContentType)
	if err != nil {
		h.logger.Error("presign put failed", zap.String("key", sup.FileKey), zap.Error(err))
		response.Internal(c, "failed to create upload url")
		return
	}
	if err := h.repo.Create(c.Request.Context(), sup); err != nil {
		h.logger.Error("create support failed", zap.Error(err))
		response.Internal(c, "failed to create support")
		return
	}
	response.Created(c, UploadURLResponse{Support: sup, UploadURL: uploadURL})
}

// ListByWebinar handles GET /webinars/:id/supports. Each support carries a
// presigned download URL.
func (h *Handler) ListByWebinar(c *gin.Context) {
	webinarID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid webinar id")
		return
	}
	ok, err := h.repo.WebinarExists(c.Request.Context(), webinarID)
	if err != nil {
		h.logger.Error("webinar existence check failed", zap.Error(err))
		response.Internal(c, "failed to list supports")
		return
	}
	if !ok {
		response.NotFound(c, "webinar not found")
		return
	}

	list, err := h.repo.ListByWebinar(c.Request.Context(), webinarID)
	if err != nil {
		h.logger.Error("list supports failed", zap.Error(err))
		response.Internal(c, "failed to list supports")
		return
	}
	for i := range list {
		url, err := h.store.PresignGet(c.Request.Context(), list[i].FileKey)
		if err != nil {
			h.logger.Warn("presign get failed", zap.String("key", list[i].FileKey), zap.Error(err))
			continue
		}
		list[i].FileURL = url
	}
	response.OK(c, list)
}

// Download handles GET /supports/:id/download: redirect-free presigned URL.
func (h *Handler) Download(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid support id")
		return
	}
	sup, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("get support failed", zap.Error(err))
		response.Internal(c, "failed to load support")
		return
	}
	if sup == nil {
		response.NotFound(c, "support not found")
		return
	}
	url, err := h.store.PresignGet(c.Request.Context(), sup.FileKey)
	if err != nil {
		h.logger.Error("presign get failed", zap.String("key", sup.FileKey), zap.Error(err))
		response.Internal(c, "failed to build download url")
		return
	}
	sup.FileURL = url
	response.OK(c, sup)
}

// Delete handles DELETE /supports/:id (admin only). Soft-deletes the row and
// removes the S3 object best effort.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid support id")
		return
	}
	sup, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("get support failed", zap.Error(err))
		response.Internal(c, "failed to delete support")
		return
	}
	if sup == nil {
		response.NotFound(c, "support not found")
		return
	}
	if err := h.repo.SoftDelete(c.Request.Context(), id, time.Now()); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "support not found")
			return
		}
		h.logger.Error("delete support failed", zap.Error(err))
		response.Internal(c, "failed to delete support")
		return
	}
	if err := h.store.Delete(c.Request.Context(), sup.FileKey); err != nil {
		h.logger.Warn("s3 object delete failed", zap.String("key", sup.FileKey), zap.Error(err))
	}
	response.NoContent(c)
}
