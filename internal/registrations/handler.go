package registrations

import (
	"context"
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lexwebinar/backend/internal/models"
	"github.com/lexwebinar/backend/pkg/mailer"
	"github.com/lexwebinar/backend/pkg/queue"
	"github.com/lexwebinar/backend/pkg/response"
)

// UserReader loads user records for notification recipients.
type UserReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// RegisterRequest is the body for POST /webinars/:id/register and
// POST /webinars/:id/unregister.
type RegisterRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
}

// Handler handles registration HTTP endpoints.
type Handler struct {
	svc    *Service
	users  UserReader
	jobs   *queue.Queue
	logger *zap.Logger
}

// NewHandler creates a registration handler.
func NewHandler(svc *Service, users UserReader, jobs *queue.Queue, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, users: users, jobs: jobs, logger: logger}
}

func (h *Handler) fail(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, ErrWebinarNotFound):
		response.NotFound(c, "webinar not found")
	case errors.Is(err, ErrRegistrationNotFound):
		response.NotFound(c, "registration not found")
	case errors.Is(err, ErrUserNotFound):
		response.BadRequest(c, "user not found")
	case errors.Is(err, ErrNotOpen):
		response.Conflict(c, "webinar is not open for registration")
	case errors.Is(err, ErrCapacityFull):
		response.Conflict(c, "webinar is at full capacity")
	case errors.Is(err, ErrAlreadyRegistered):
		response.Conflict(c, "user is already registered")
	case errors.Is(err, ErrAlreadyCanceled):
		response.Conflict(c, "registration is already canceled")
	default:
		h.logger.Error("registration "+op+" failed", zap.Error(err))
		response.Internal(c, "failed to "+op)
	}
}

func parseIDs(c *gin.Context) (webinarID, userID uuid.UUID, ok bool) {
	webinarID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid webinar id")
		return uuid.Nil, uuid.Nil, false
	}
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return uuid.Nil, uuid.Nil, false
	}
	userID, err = uuid.Parse(req.UserID)
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return uuid.Nil, uuid.Nil, false
	}
	return webinarID, userID, true
}

// Register handles POST /webinars/:id/register.
func (h *Handler) Register(c *gin.Context) {
	webinarID, userID, ok := parseIDs(c)
	if !ok {
		return
	}
	res, err := h.svc.Register(c.Request.Context(), webinarID, userID)
	if err != nil {
		h.fail(c, "register", err)
		return
	}

	subject, body := mailer.RegistrationConfirmed(res.Webinar.Title, res.Webinar.DateTime)
	h.notify(c, queue.EmailRegistrationConfirmed, res, subject, body)

	response.Created(c, res.Registration)
}

// Unregister handles POST /webinars/:id/unregister.
func (h *Handler) Unregister(c *gin.Context) {
	webinarID, userID, ok := parseIDs(c)
	if !ok {
		return
	}
	res, err := h.svc.Unregister(c.Request.Context(), webinarID, userID)
	if err != nil {
		h.fail(c, "unregister", err)
		return
	}

	subject, body := mailer.RegistrationCanceled(res.Webinar.Title)
	h.notify(c, queue.EmailRegistrationCanceled, res, subject, body)

	response.OK(c, res.Registration)
}

// notify enqueues an email job for the registration's user. Failures are
// logged, never surfaced; the registration itself already succeeded.
func (h *Handler) notify(c *gin.Context, emailType string, res *Result, subject, body string) {
	ctx := c.Request.Context()
	user, err := h.users.GetByID(ctx, res.Registration.UserID)
	if err != nil || user == nil {
		h.logger.Warn("skipping email, user lookup failed",
			zap.String("user_id", res.Registration.UserID.String()), zap.Error(err))
		return
	}
	payload := queue.EmailPayload{
		EmailType:      emailType,
		WebinarID:      &res.Webinar.ID,
		RegistrationID: &res.Registration.ID,
		RecipientEmail: user.Email,
		Subject:        subject,
		BodyHTML:       body,
	}
	if err := h.jobs.EnqueueEmail(ctx, payload); err != nil {
		h.logger.Error("enqueue email failed",
			zap.String("email_type", emailType), zap.Error(err))
	}
}

// FindAll handles GET /registrations (admin only).
func (h *Handler) FindAll(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	list, total, err := h.svc.FindAll(c.Request.Context(), page, limit)
	if err != nil {
		h.fail(c, "list registrations", err)
		return
	}
	if page < 1 {
		page = 1
	}
	response.Paginated(c, list, total, page, limit)
}

// FindByWebinar handles GET /webinars/:id/registrations (admin only).
func (h *Handler) FindByWebinar(c *gin.Context) {
	webinarID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid webinar id")
		return
	}
	list, err := h.svc.FindByWebinar(c.Request.Context(), webinarID)
	if err != nil {
		h.fail(c, "list registrations", err)
		return
	}
	response.OK(c, list)
}

// Stats handles GET /webinars/:id/stats (admin only).
func (h *Handler) Stats(c *gin.Context) {
	webinarID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid webinar id")
		return
	}
	stats, err := h.svc.GetStats(c.Request.Context(), webinarID)
	if err != nil {
		h.fail(c, "load stats", err)
		return
	}
	response.OK(c, stats)
}
