package webinars

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lexwebinar/backend/internal/models"
	"github.com/lexwebinar/backend/pkg/response"
)

// CreateRequest is the body for POST /webinars.
type CreateRequest struct {
	Title       string  `json:"title" binding:"required"`
	Description string  `json:"description" binding:"required"`
	DateTime    string  `json:"date_time" binding:"required"`
	Duration    int     `json:"duration" binding:"required"`
	LegalTopic  string  `json:"legal_topic" binding:"required"`
	MaxCapacity int     `json:"max_capacity" binding:"required"`
	AccessLink  *string `json:"access_link"`
	Status      *string `json:"status"`
	Tags        TagList `json:"tags"`
}

// UpdateRequest is the body for PATCH /webinars/:id. All fields optional.
type UpdateRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	DateTime    *string  `json:"date_time"`
	Duration    *int     `json:"duration"`
	LegalTopic  *string  `json:"legal_topic"`
	MaxCapacity *int     `json:"max_capacity"`
	AccessLink  *string  `json:"access_link"`
	Tags        *TagList `json:"tags"`
}

// StatusRequest is the body for PATCH /webinars/:id/status.
type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// AssignActorsRequest is the body for PATCH /webinars/:id/actors.
// An absent animated_by/moderated_by leaves that reference untouched;
// collaborator_ids always replaces the full set.
type AssignActorsRequest struct {
	AnimatedByID    *string  `json:"animated_by"`
	ModeratedByID   *string  `json:"moderated_by"`
	CollaboratorIDs []string `json:"collaborator_ids"`
}

// Handler handles webinar HTTP endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates a webinar handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) fail(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.NotFound(c, "webinar not found")
	case errors.Is(err, ErrValidation):
		response.BadRequest(c, err.Error())
	case errors.Is(err, ErrActorNotFound):
		response.BadRequest(c, err.Error())
	case errors.Is(err, ErrInvalidTransition):
		response.Conflict(c, err.Error())
	default:
		h.logger.Error("webinar "+op+" failed", zap.Error(err))
		response.Internal(c, "failed to "+op+" webinar")
	}
}

// Create handles POST /webinars (admin only).
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	dateTime, err := time.Parse(time.RFC3339, req.DateTime)
	if err != nil {
		response.BadRequest(c, "invalid date_time, expected RFC3339")
		return
	}

	in := CreateInput{
		Title:       req.Title,
		Description: req.Description,
		DateTime:    dateTime,
		Duration:    req.Duration,
		LegalTopic:  req.LegalTopic,
		MaxCapacity: req.MaxCapacity,
		AccessLink:  req.AccessLink,
		Tags:        req.Tags,
	}
	if req.Status != nil {
		st := models.WebinarStatus(*req.Status)
		in.Status = &st
	}

	w, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		h.fail(c, "create", err)
		return
	}
	response.Created(c, w)
}

// FindAll handles GET /webinars with page/limit query params.
func (h *Handler) FindAll(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	list, total, err := h.svc.FindAll(c.Request.Context(), page, limit)
	if err != nil {
		h.fail(c, "list", err)
		return
	}
	if list == nil {
		list = []models.Webinar{}
	}
	if page < 1 {
		page = 1
	}
	response.Paginated(c, list, total, page, limit)
}

// FindOne handles GET /webinars/:id.
func (h *Handler) FindOne(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid webinar id")
		return
	}
	d, err := h.svc.FindOne(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "get", err)
		return
	}
	response.OK(c, d)
}

// Update handles PATCH /webinars/:id (admin only).
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid webinar id")
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	in := UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Duration:    req.Duration,
		LegalTopic:  req.LegalTopic,
		MaxCapacity: req.MaxCapacity,
		AccessLink:  req.AccessLink,
	}
	if req.DateTime != nil {
		t, err := time.Parse(time.RFC3339, *req.DateTime)
		if err != nil {
			response.BadRequest(c, "invalid date_time, expected RFC3339")
			return
		}
		in.DateTime = &t
	}
	if req.Tags != nil {
		names := []string(*req.Tags)
		in.Tags = &names
	}

	w, err := h.svc.Update(c.Request.Context(), id, in)
	if err != nil {
		h.fail(c, "update", err)
		return
	}
	response.OK(c, w)
}

// HandleStatus handles PATCH /webinars/:id/status (admin only).
func (h *Handler) HandleStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid webinar id")
		return
	}
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	w, err := h.svc.HandleStatus(c.Request.Context(), id, models.WebinarStatus(req.Status))
	if err != nil {
		h.fail(c, "change status of", err)
		return
	}
	response.OK(c, w)
}

// AssignActors handles PATCH /webinars/:id/actors (admin only).
func (h *Handler) AssignActors(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid webinar id")
		return
	}
	var req AssignActorsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	var actors Actors
	if req.AnimatedByID != nil {
		uid, err := uuid.Parse(*req.AnimatedByID)
		if err != nil {
			response.BadRequest(c, "invalid animated_by id")
			return
		}
		actors.AnimatedByID = &uid
	}
	if req.ModeratedByID != nil {
		uid, err := uuid.Parse(*req.ModeratedByID)
		if err != nil {
			response.BadRequest(c, "invalid moderated_by id")
			return
		}
		actors.ModeratedByID = &uid
	}
	actors.CollaboratorIDs = make([]uuid.UUID, 0, len(req.CollaboratorIDs))
	for _, s := range req.CollaboratorIDs {
		uid, err := uuid.Parse(s)
		if err != nil {
			response.BadRequest(c, "invalid collaborator id "+s)
			return
		}
		actors.CollaboratorIDs = append(actors.CollaboratorIDs, uid)
	}

	w, err := h.svc.AssignActors(c.Request.Context(), id, actors)
	if err != nil {
		h.fail(c, "assign actors to", err)
		return
	}
	response.OK(c, w)
}

// Delete handles DELETE /webinars/:id (admin only). Soft delete.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid webinar id")
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, "delete", err)
		return
	}
	response.NoContent(c)
}
