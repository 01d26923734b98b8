package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/emilythestrangee/campus-forum/backend/internal/auth"
	"github.com/emilythestrangee/campus-forum/backend/internal/config"
	"github.com/emilythestrangee/campus-forum/backend/internal/database"
	"github.com/emilythestrangee/campus-forum/backend/internal/handlers"
	"github.com/emilythestrangee/campus-forum/backend/internal/middleware"
	"github.com/emilythestrangee/campus-forum/backend/internal/models"
)

type Server struct {
	cfg     *config.Config
	db      database.Service
	tokens  *auth.TokenManager
	handler *handlers.Handler
	log     *zap.Logger
}

// NewServer wires the handlers to their dependencies.
func NewServer(cfg *config.Config, db database.Service, votes handlers.VoteService, log *zap.Logger) *Server {
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiresIn)
	return &Server{
		cfg:     cfg,
		db:      db,
		tokens:  tokens,
		handler: handlers.NewHandler(db.GetDB(), votes, tokens, log),
		log:     log,
	}
}

// HTTPServer returns the configured http.Server for the API.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         ":" + s.cfg.Port,
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() *gin.Engine {
	gin.SetMode(s.cfg.GinMode)
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.AccessLog(s.log), gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     s.cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Requested-With", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: !allowsAll(s.cfg.CORSOrigins),
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", s.health)

	requireAuth := middleware.AuthMiddleware(s.tokens, middleware.GormUsers{DB: s.db.GetDB()})
	adminOnly := middleware.RequireRole(models.RoleAdmin)
	h := s.handler

	api := r.Group("/api")
	{
		authRoutes := api.Group("/auth")
		authRoutes.POST("/register", h.Auth.Register)
		authRoutes.POST("/login", h.Auth.Login)
		authRoutes.GET("/me", requireAuth, h.Auth.GetMe)

		posts := api.Group("/posts")
		posts.GET("", h.Post.GetPosts)
		posts.GET("/search", h.Post.SearchPosts)
		posts.GET("/:id", h.Post.GetPost)
		posts.GET("/:id/comments", h.Comment.GetComments)
		posts.POST("", requireAuth, h.Post.CreatePost)
		posts.POST("/:id/comments", requireAuth, h.Comment.CreateComment)
		posts.POST("/:id/vote", requireAuth, h.Post.VotePost)
		posts.DELETE("/:id", requireAuth, adminOnly, h.Post.DeletePost)

		comments := api.Group("/comments", requireAuth)
		comments.POST("/:id/vote", h.Comment.VoteComment)
		comments.DELETE("/:id", h.Comment.DeleteComment)

		users := api.Group("/users", requireAuth, adminOnly)
		users.GET("", h.User.GetUsers)
		users.POST("", h.User.CreateUser)
		users.PUT("/:id", h.User.UpdateUser)
		users.DELETE("/:id", h.User.DeleteUser)
		users.POST("/:id/toggle-status", h.User.ToggleStatus)
		users.POST("/:id/reset-password", h.User.ResetPassword)

		admin := api.Group("/admin", requireAuth, adminOnly)
		admin.POST("/reconcile/:kind", h.Admin.ReconcileKind)
		admin.POST("/reconcile/:kind/:id", h.Admin.ReconcileOne)
	}

	return r
}

func (s *Server) health(c *gin.Context) {
	stats := s.db.Health(c.Request.Context())
	status := http.StatusOK
	if stats["status"] != "up" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, stats)
}

// allowsAll reports whether origins is the wildcard, which browsers refuse to
// combine with credentials.
func allowsAll(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
