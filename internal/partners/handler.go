package partners

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/lexwebinar/backend/internal/middleware"
	"github.com/lexwebinar/backend/internal/models"
	"github.com/lexwebinar/backend/pkg/mailer"
	"github.com/lexwebinar/backend/pkg/queue"
	"github.com/lexwebinar/backend/pkg/response"
)

// ApplyRequest is the body for the public POST /partners/apply.
type ApplyRequest struct {
	ResponsibleFirstName    string `json:"responsible_first_name" binding:"required"`
	ResponsibleLastName     string `json:"responsible_last_name" binding:"required"`
	ResponsibleEmail        string `json:"responsible_email" binding:"required,email"`
	Phone                   string `json:"phone" binding:"required"`
	OccupiedPosition        string `json:"occupied_position" binding:"required"`
	StructureName           string `json:"structure_name" binding:"required"`
	PartnershipType         string `json:"partnership_type" binding:"required"`
	ProvidedExpertise       string `json:"provided_expertise"`
	CollaborationExperience string `json:"collaboration_experience"`
}

// ReviewRequest is the body for PATCH /partners/:id/review.
type ReviewRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note"`
}

// Handler handles partner application HTTP endpoints.
type Handler struct {
	repo   *Repository
	jobs   *queue.Queue
	logger *zap.Logger
}

// NewHandler creates a partner application handler.
func NewHandler(repo *Repository, jobs *queue.Queue, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, jobs: jobs, logger: logger}
}

// Apply handles POST /partners/apply (public). The applicant receives an
// acknowledgement email.
func (h *Handler) Apply(c *gin.Context) {
	var req ApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	p := &models.PartnerApplication{
		ResponsibleFirstName:    strings.TrimSpace(req.ResponsibleFirstName),
		ResponsibleLastName:     strings.TrimSpace(req.ResponsibleLastName),
		ResponsibleEmail:        strings.ToLower(strings.TrimSpace(req.ResponsibleEmail)),
		Phone:                   strings.TrimSpace(req.Phone),
		OccupiedPosition:        strings.TrimSpace(req.OccupiedPosition),
		StructureName:           strings.TrimSpace(req.StructureName),
		PartnershipType:         strings.TrimSpace(req.PartnershipType),
		ProvidedExpertise:       strings.TrimSpace(req.ProvidedExpertise),
		CollaborationExperience: strings.TrimSpace(req.CollaborationExperience),
	}
	if err := h.repo.Create(c.Request.Context(), p); err != nil {
		h.logger.Error("create partner application failed", zap.Error(err))
		response.Internal(c, "failed to submit application")
		return
	}

	subject, body := mailer.PartnerApplicationReceived(p.StructureName)
	if err := h.jobs.EnqueueEmail(c.Request.Context(), queue.EmailPayload{
		EmailType:      queue.EmailPartnerReceived,
		RecipientEmail: p.ResponsibleEmail,
		Subject:        subject,
		BodyHTML:       body,
	}); err != nil {
		h.logger.Error("enqueue acknowledgement email failed", zap.Error(err))
	}

	response.Created(c, p)
}

// FindAll handles GET /partners (admin only) with an optional status filter.
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

	var status models.ApplicationStatus
	if s := c.Query("status"); s != "" {
		status = models.ApplicationStatus(s)
		switch status {
		case models.ApplicationPending, models.ApplicationAccepted, models.ApplicationRejected:
		default:
			response.BadRequest(c, "unknown status "+s)
			return
		}
	}

	list, total, err := h.repo.List(c.Request.Context(), status, page, limit)
	if err != nil {
		h.logger.Error("list partner applications failed", zap.Error(err))
		response.Internal(c, "failed to list applications")
		return
	}
	response.Paginated(c, list, total, page, limit)
}

// FindOne handles GET /partners/:id (admin only).
func (h *Handler) FindOne(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid application id")
		return
	}
	p, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("get partner application failed", zap.Error(err))
		response.Internal(c, "failed to load application")
		return
	}
	if p == nil {
		response.NotFound(c, "application not found")
		return
	}
	response.OK(c, p)
}

// Review handles PATCH /partners/:id/review (admin only). Only PENDING
// applications can be accepted or rejected; the decision is final.
func (h *Handler) Review(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid application id")
		return
	}
	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	status := models.ApplicationStatus(req.Status)
	if status != models.ApplicationAccepted && status != models.ApplicationRejected {
		response.BadRequest(c, "status must be ACCEPTED or REJECTED")
		return
	}

	p, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("get partner application failed", zap.Error(err))
		response.Internal(c, "failed to review application")
		return
	}
	if p == nil {
		response.NotFound(c, "application not found")
		return
	}
	if p.Status != models.ApplicationPending {
		response.Conflict(c, "application has already been reviewed")
		return
	}

	reviewerID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	if err := h.repo.Review(c.Request.Context(), id, status, reviewerID, req.Note); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Conflict(c, "application has already been reviewed")
			return
		}
		h.logger.Error("review partner application failed", zap.Error(err))
		response.Internal(c, "failed to review application")
		return
	}

	p, err = h.repo.GetByID(c.Request.Context(), id)
	if err != nil || p == nil {
		h.logger.Error("reload partner application failed", zap.Error(err))
		response.Internal(c, "failed to review application")
		return
	}
	response.OK(c, p)
}

// Delete handles DELETE /partners/:id (admin only). Soft delete.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid application id")
		return
	}
	if err := h.repo.SoftDelete(c.Request.Context(), id, time.Now()); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "application not found")
			return
		}
		h.logger.Error("delete partner application failed", zap.Error(err))
		response.Internal(c, "failed to delete application")
		return
	}
	response.NoContent(c)
}
