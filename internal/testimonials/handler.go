package testimonials

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/lexwebinar/backend/internal/middleware"
	"github.com/lexwebinar/backend/internal/models"
	"github.com/lexwebinar/backend/pkg/response"
)

// CreateRequest is the body for POST /testimonials.
type CreateRequest struct {
	WebinarID *string `json:"webinar_id"`
	Content   string  `json:"content" binding:"required"`
	Rating    int     `json:"rating" binding:"required"`
}

// ModerateRequest is the body for PATCH /testimonials/:id/moderate.
type ModerateRequest struct {
	Status string `json:"status" binding:"required"`
}

// Handler handles testimonial HTTP endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates a testimonial handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

// Create handles POST /testimonials. The author is the authenticated user;
// the testimonial starts PENDING until an admin moderates it.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if n := len([]rune(req.Content)); n < 10 || n > 1000 {
		response.BadRequest(c, "content must be 10-1000 characters")
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		response.BadRequest(c, "rating must be 1-5")
		return
	}

	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	t := &models.Testimonial{
		UserID:  userID,
		Content: req.Content,
		Rating:  req.Rating,
	}
	if req.WebinarID != nil {
		webinarID, err := uuid.Parse(*req.WebinarID)
		if err != nil {
			response.BadRequest(c, "invalid webinar id")
			return
		}
		ok, err := h.repo.WebinarExists(c.Request.Context(), webinarID)
		if err != nil {
			h.logger.Error("webinar existence check failed", zap.Error(err))
			response.Internal(c, "failed to create testimonial")
			return
		}
		if !ok {
			response.BadRequest(c, "webinar not found")
			return
		}
		t.WebinarID = &webinarID
	}

	if err := h.repo.Create(c.Request.Context(), t); err != nil {
		h.logger.Error("create testimonial failed", zap.Error(err))
		response.Internal(c, "failed to create testimonial")
		return
	}
	response.Created(c, t)
}

// FindAll handles GET /testimonials with status/user_id/webinar_id/search
// query filters.
func (h *Handler) FindAll(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	var f ListFilter
	if s := c.Query("status"); s != "" {
		status := models.ModerationStatus(s)
		switch status {
		case models.ModerationPending, models.ModerationApproved, models.ModerationRejected:
			f.Status = status
		default:
			response.BadRequest(c, "unknown status "+s)
			return
		}
	}
	if s := c.Query("user_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			response.BadRequest(c, "invalid user_id")
			return
		}
		f.UserID = &id
	}
	if s := c.Query("webinar_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			response.BadRequest(c, "invalid webinar_id")
			return
		}
		f.WebinarID = &id
	}
	f.Search = c.Query("search")

	list, total, err := h.repo.List(c.Request.Context(), f, page, limit)
	if err != nil {
		h.logger.Error("list testimonials failed", zap.Error(err))
		response.Internal(c, "failed to list testimonials")
		return
	}
	response.Paginated(c, list, total, page, limit)
}

// FindOne handles GET /testimonials/:id.
func (h *Handler) FindOne(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid testimonial id")
		return
	}
	t, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("get testimonial failed", zap.Error(err))
		response.Internal(c, "failed to load testimonial")
		return
	}
	if t == nil {
		response.NotFound(c, "testimonial not found")
		return
	}
	response.OK(c, t)
}

// Moderate handles PATCH /testimonials/:id/moderate (admin only).
func (h *Handler) Moderate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid testimonial id")
		return
	}
	var req ModerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	status := models.ModerationStatus(req.Status)
	if status != models.ModerationApproved && status != models.ModerationRejected {
		response.BadRequest(c, "status must be APPROVED or REJECTED")
		return
	}

	if err := h.repo.SetStatus(c.Request.Context(), id, status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "testimonial not found")
			return
		}
		h.logger.Error("moderate testimonial failed", zap.Error(err))
		response.Internal(c, "failed to moderate testimonial")
		return
	}
	t, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil || t == nil {
		h.logger.Error("reload testimonial failed", zap.Error(err))
		response.Internal(c, "failed to moderate testimonial")
		return
	}
	response.OK(c, t)
}

// Delete handles DELETE /testimonials/:id (admin only). Soft delete.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid testimonial id")
		return
	}
	if err := h.repo.SoftDelete(c.Request.Context(), id, time.Now()); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "testimonial not found")
			return
		}
		h.logger.Error("delete testimonial failed", zap.Error(err))
		response.Internal(c, "failed to delete testimonial")
		return
	}
	response.NoContent(c)
}
