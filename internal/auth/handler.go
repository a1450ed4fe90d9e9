package auth

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lexwebinar/backend/internal/models"
	"github.com/lexwebinar/backend/pkg/response"
	"github.com/lexwebinar/backend/pkg/utils"
)

// RegisterRequest is the body for POST /auth/register.
type RegisterRequest struct {
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required,min=8"`
	FirstName    string `json:"first_name" binding:"required"`
	LastName     string `json:"last_name" binding:"required"`
	Role         string `json:"role"` // optional, defaults to PARTICIPANT
	BirthDate    string `json:"birth_date"`
	Phone        string `json:"phone"`
	ProfileImage string `json:"profile_image"`
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse is the auth response with JWT.
type TokenResponse struct {
	Token string            `json:"token"`
	User  models.UserPublic `json:"user"`
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	repo   *Repository
	jwt    *JWTService
	logger *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(repo *Repository, jwt *JWTService, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, jwt: jwt, logger: logger}
}

// Register handles POST /auth/register. Admin accounts cannot be self-registered.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	role := models.RoleParticipant
	if req.Role != "" {
		switch models.Role(req.Role) {
		case models.RoleSpeaker, models.RoleModerator, models.RoleParticipant:
			role = models.Role(req.Role)
		default:
			response.BadRequest(c, "invalid role")
			return
		}
	}

	existing, err := h.repo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		response.Internal(c, "failed to register")
		return
	}
	if existing != nil {
		response.Conflict(c, "email already registered")
		return
	}

	profile := &CreateUserParams{Phone: req.Phone, ProfileImage: req.ProfileImage}
	if req.BirthDate != "" {
		t, err := time.Parse("2006-01-02", req.BirthDate)
		if err != nil {
			response.BadRequest(c, "invalid birth_date, expected YYYY-MM-DD")
			return
		}
		profile.BirthDate = &t
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		response.Internal(c, "failed to register")
		return
	}

	u, err := h.repo.Create(c.Request.Context(), req.Email, hash, req.FirstName, req.LastName, role, profile)
	if err != nil {
		h.logger.Error("create user failed", zap.Error(err), zap.String("email", req.Email))
		response.Internal(c, "failed to register")
		return
	}

	token, err := h.jwt.Generate(u.ID, u.Email, u.Role)
	if err != nil {
		response.Internal(c, "failed to issue token")
		return
	}
	response.Created(c, TokenResponse{Token: token, User: u.ToPublic()})
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	u, err := h.repo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		response.Internal(c, "failed to login")
		return
	}
	if u == nil || !utils.CheckPassword(req.Password, u.Password) {
		response.Unauthorized(c, "invalid credentials")
		return
	}
	if u.Status == models.AccountSuspended {
		response.Forbidden(c, "account suspended")
		return
	}

	if err := h.repo.UpdateLastLogin(c.Request.Context(), u.ID); err != nil {
		h.logger.Warn("update last login failed", zap.Error(err), zap.String("user_id", u.ID.String()))
	}

	token, err := h.jwt.Generate(u.ID, u.Email, u.Role)
	if err != nil {
		response.Internal(c, "failed to issue token")
		return
	}
	response.OK(c, TokenResponse{Token: token, User: u.ToPublic()})
}

// List handles GET /users (admin only; used for actor assignment screens).
func (h *Handler) List(c *gin.Context) {
	users, err := h.repo.List(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to list users")
		return
	}
	response.OK(c, users)
}

// UpdateStatusRequest is the body for PATCH /users/:id/status.
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus handles PATCH /users/:id/status (admin validates or suspends accounts).
func (h *Handler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "status required")
		return
	}
	status := models.AccountStatus(req.Status)
	switch status {
	case models.AccountPendingValidation, models.AccountActive, models.AccountSuspended:
	default:
		response.BadRequest(c, "invalid status")
		return
	}
	if err := h.repo.SetStatus(c.Request.Context(), id, status); err != nil {
		response.NotFound(c, "user not found")
		return
	}
	response.OK(c, gin.H{"id": id, "status": status})
}
