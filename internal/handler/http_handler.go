package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/zenon0777/payever-backend-assessment/internal/domain"
	"github.com/zenon0777/payever-backend-assessment/internal/service"
	"github.com/zenon0777/payever-backend-assessment/pkg/log"
	"github.com/zenon0777/payever-backend-assessment/pkg/response"
)

// HeaderAdvisory lists side effects that failed without failing the request.
const HeaderAdvisory = "X-Advisory"

// Handler handles HTTP requests for user service.
type Handler struct {
	userService service.UserService
}

// NewHandler creates a new HTTP handler.
func NewHandler(userService service.UserService) *Handler {
	return &Handler{
		userService: userService,
	}
}

// RegisterRoutes registers all routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	users := r.Group("/api/users")
	{
		users.POST("", h.CreateUser)
		users.GET("/:userId", h.GetUser)
		users.GET("/:userId/avatar", h.GetUserAvatar)
		users.DELETE("/:userId/avatar", h.DeleteUserAvatar)
	}
}

// CreateUser handles user creation.
func (h *Handler) CreateUser(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	var req domain.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid create user request")
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.userService.CreateUser(ctx, &req)
	if err != nil {
		if errors.Is(err, service.ErrEmailExists) {
			response.Conflict(c, "user with this email already exists")
			return
		}
		l.Error().Err(err).Str(log.FieldEmail, req.Email).Msg("create user failed")
		response.InternalError(c, "failed to create user")
		return
	}

	if result.Degraded() {
		effects := make([]string, 0, len(result.Advisories))
		for _, a := range result.Advisories {
			effects = append(effects, a.Effect)
		}
		c.Header(HeaderAdvisory, strings.Join(effects, ","))
	}

	response.Created(c, result.User)
}

// GetUser returns the directory record of a user as received.
func (h *Handler) GetUser(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	userID := c.Param("userId")

	user, err := h.userService.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFound(c, "user not found")
			return
		}
		l.Error().Err(err).Msg("get user failed")
		response.InternalError(c, "failed to get user")
		return
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", user.Raw)
}

// GetUserAvatar returns the base64 avatar of a user.
func (h *Handler) GetUserAvatar(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	userID := c.Param("userId")

	img, err := h.userService.GetUserAvatar(ctx, userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			response.NotFound(c, "user not found")
		case errors.Is(err, service.ErrAvatarFetch):
			response.BadGateway(c, "failed to fetch avatar")
		default:
			l.Error().Err(err).Msg("get avatar failed")
			response.InternalError(c, "failed to get avatar")
		}
		return
	}

	response.Success(c, img)
}

// DeleteUserAvatar removes a stored avatar.
func (h *Handler) DeleteUserAvatar(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	userID := c.Param("userId")

	if err := h.userService.DeleteUserAvatar(ctx, userID); err != nil {
		if errors.Is(err, service.ErrAvatarNotFound) {
			response.NotFound(c, "avatar not found")
			return
		}
		l.Error().Err(err).Msg("delete avatar failed")
		response.InternalError(c, "failed to delete avatar")
		return
	}

	response.NoContent(c)
}
