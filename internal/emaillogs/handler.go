package emaillogs

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lexwebinar/backend/pkg/mailer"
	"github.com/lexwebinar/backend/pkg/queue"
	"github.com/lexwebinar/backend/pkg/response"
)

// Handler handles email log HTTP endpoints (admin only).
type Handler struct {
	repo   *Repository
	jobs   *queue.Queue
	logger *zap.Logger
}

// NewHandler creates an email log handler.
func NewHandler(repo *Repository, jobs *queue.Queue, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, jobs: jobs, logger: logger}
}

// FindAll handles GET /email-logs with webinar_id/status query filters.
func (h *Handler) FindAll(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	var webinarID *uuid.UUID
	if s := c.Query("webinar_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			response.BadRequest(c, "invalid webinar_id")
			return
		}
		webinarID = &id
	}

	list, total, err := h.repo.List(c.Request.Context(), webinarID, c.Query("status"), page, limit)
	if err != nil {
		h.logger.Error("list email logs failed", zap.Error(err))
		response.Internal(c, "failed to list email logs")
		return
	}
	response.Paginated(c, list, total, page, limit)
}

// FindOne handles GET /email-logs/:id.
func (h *Handler) FindOne(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid email log id")
		return
	}
	log, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("get email log failed", zap.Error(err))
		response.Internal(c, "failed to load email log")
		return
	}
	if log == nil {
		response.NotFound(c, "email log not found")
		return
	}
	response.OK(c, log)
}

// Resend handles POST /email-logs/:id/resend: rebuilds the email from the
// logged type and re-enqueues it. Only webinar-bound emails can be resent;
// their bodies are rebuilt from the current webinar data.
func (h *Handler) Resend(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid email log id")
		return
	}
	log, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("get email log failed", zap.Error(err))
		response.Internal(c, "failed to resend email")
		return
	}
	if log == nil {
		response.NotFound(c, "email log not found")
		return
	}
	if log.WebinarID == nil {
		response.Conflict(c, "only webinar emails can be resent")
		return
	}

	title, dateTime, found, err := h.repo.WebinarInfo(c.Request.Context(), *log.WebinarID)
	if err != nil {
		h.logger.Error("load webinar for resend failed", zap.Error(err))
		response.Internal(c, "failed to resend email")
		return
	}
	if !found {
		response.Conflict(c, "webinar no longer exists")
		return
	}

	var subject, body string
	switch log.EmailType {
	case queue.EmailRegistrationConfirmed:
		subject, body = mailer.RegistrationConfirmed(title, dateTime)
	case queue.EmailRegistrationCanceled:
		subject, body = mailer.RegistrationCanceled(title)
	default:
		response.Conflict(c, "email type "+log.EmailType+" cannot be resent")
		return
	}

	if err := h.jobs.EnqueueEmail(c.Request.Context(), queue.EmailPayload{
		EmailType:      log.EmailType,
		WebinarID:      log.WebinarID,
		RegistrationID: log.RegistrationID,
		RecipientEmail: log.RecipientEmail,
		Subject:        subject,
		BodyHTML:       body,
	}); err != nil {
		h.logger.Error("enqueue resend failed", zap.Error(err))
		response.Internal(c, "failed to resend email")
		return
	}
	response.OK(c, gin.H{"resent": true, "recipient": log.RecipientEmail})
}
