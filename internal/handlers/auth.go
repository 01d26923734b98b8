package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/emilythestrangee/campus-forum/backend/internal/auth"
	"github.com/emilythestrangee/campus-forum/backend/internal/middleware"
	"github.com/emilythestrangee/campus-forum/backend/internal/models"
)

type AuthHandler struct {
	db     *gorm.DB
	tokens *auth.TokenManager
	log    *zap.Logger
}

func NewAuthHandler(db *gorm.DB, tokens *auth.TokenManager, log *zap.Logger) *AuthHandler {
	return &AuthHandler{db: db, tokens: tokens, log: log}
}

// Register handles user registration
func (h *AuthHandler) Register(c *gin.Context) {
	var input models.RegisterRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		fail(c, http.StatusBadRequest, "All fields are required")
		return
	}
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	// Check if username or email already exists
	var existing int64
	if err := h.db.WithContext(c.Request.Context()).Model(&models.User{}).
		Where("username = ? OR email = ?", input.Username, input.Email).
		Count(&existing).Error; err != nil {
		internalError(c, h.log, "failed to check existing users", err)
		return
	}
	if existing > 0 {
		fail(c, http.StatusConflict, "User with this email or username already exists")
		return
	}

	hashedPassword, err := auth.HashPassword(input.Password)
	if err != nil {
		internalError(c, h.log, "failed to hash password", err)
		return
	}

	user := models.User{
		Username: input.Username,
		Email:    input.Email,
		Password: hashedPassword,
		FullName: input.FullName,
		Role:     models.ParseRole(input.Role),
		IsActive: true,
		Avatar:   models.DefaultAvatar(input.FullName),
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&user).Error; err != nil {
		if pgCode(err) == pgUniqueViolation {
			fail(c, http.StatusConflict, "User with this email or username already exists")
			return
		}
		internalError(c, h.log, "failed to create user", err)
		return
	}

	token, err := h.tokens.Issue(&user)
	if err != nil {
		internalError(c, h.log, "failed to issue token", err)
		return
	}

	h.log.Info("user registered", zap.Int("user_id", user.ID), zap.String("role", string(user.Role)))
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Registration successful",
		"data": gin.H{
			"user":  newUserResponse(&user),
			"token": token,
		},
	})
}

// Login handles user login
func (h *AuthHandler) Login(c *gin.Context) {
	var input models.LoginRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		fail(c, http.StatusBadRequest, "Email and password are required")
		return
	}

	var user models.User
	err := h.db.WithContext(c.Request.Context()).
		Where("email = ?", strings.ToLower(strings.TrimSpace(input.Email))).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		fail(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err != nil {
		internalError(c, h.log, "failed to load user", err)
		return
	}

	if !user.IsActive {
		fail(c, http.StatusUnauthorized, "Your account has been deactivated. Please contact the administrator for assistance.")
		return
	}
	if !auth.CheckPassword(user.Password, input.Password) {
		fail(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := h.tokens.Issue(&user)
	if err != nil {
		internalError(c, h.log, "failed to issue token", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Login successful",
		"data": gin.H{
			"user":  newUserResponse(&user),
			"token": token,
		},
	})
}

// GetMe returns the current authenticated user
func (h *AuthHandler) GetMe(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		fail(c, http.StatusUnauthorized, "User not authenticated")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User retrieved successfully",
		"data":    newUserResponse(user),
	})
}
