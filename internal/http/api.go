package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"task-manager/internal/apperr"
	"task-manager/internal/auth"
	"task-manager/internal/domain"
	"task-manager/internal/ratelimit"
	"task-manager/internal/service"
)

// TokenVerifier decodes bearer tokens into claims.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	users   service.UserService
	tasks   service.TaskService
	exports service.ExportService
	tokens  TokenVerifier
	limiter ratelimit.Limiter
	logger  *logrus.Logger
}

func NewHandler(
	users service.UserService,
	tasks service.TaskService,
	exports service.ExportService,
	tokens TokenVerifier,
	limiter ratelimit.Limiter,
	logger *logrus.Logger,
) *Handler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handler{
		users:   users,
		tasks:   tasks,
		exports: exports,
		tokens:  tokens,
		limiter: limiter,
		logger:  logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(requestLogger(h.logger))
	router.Use(corsMiddleware())

	router.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
	})

	authenticated := h.Authenticate()

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/", h.register)
		authGroup.POST("/register", h.register)
		authGroup.POST("/login", h.login)
		authGroup.GET("/me", authenticated, h.me)
	}

	user := router.Group("/user", authenticated)
	{
		user.GET("/me", h.me)
		user.PUT("/password", h.changePassword)
	}

	admin := router.Group("/admin", authenticated, RequireRole(domain.RoleAdmin))
	{
		admin.GET("/get_all_users", h.listUsers)
		admin.GET("/users", h.listUsers)
	}

	tasks := router.Group("/tasks", authenticated)
	{
		tasks.POST("", h.createTask)
		tasks.POST("/create", h.createTask)
		tasks.GET("", h.listTasks)
		tasks.GET("/get_all_my_tasks", h.listTasks)
		tasks.POST("/export", h.exportTasks)
		tasks.GET("/exports", h.listExports)
		tasks.GET("/:id", h.getTask)
		tasks.PUT("/update_status/:id", h.completeTask)
		tasks.PATCH("/:id/complete", h.completeTask)
		tasks.DELETE("/:id", h.deleteTask)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// respondError renders err as {"error", "code"} and stops the chain.
func (h *Handler) respondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal {
		h.logger.WithFields(logrus.Fields{
			"request_id": c.GetString(requestIDKey),
			"path":       c.FullPath(),
		}).WithError(err).Error("request failed")
	}
	c.AbortWithStatusJSON(apperr.Status(err), errorBody(kind, apperr.Message(err)))
}

func errorBody(kind apperr.Kind, message string) gin.H {
	return gin.H{"error": message, "code": kind}
}
