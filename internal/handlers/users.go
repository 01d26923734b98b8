package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/emilythestrangee/campus-forum/backend/internal/auth"
	"github.com/emilythestrangee/campus-forum/backend/internal/middleware"
	"github.com/emilythestrangee/campus-forum/backend/internal/models"
)

// UserHandler serves the admin account management routes.
type UserHandler struct {
	db    *gorm.DB
	votes VoteService
	log   *zap.Logger
}

func NewUserHandler(db *gorm.DB, votes VoteService, log *zap.Logger) *UserHandler {
	return &UserHandler{db: db, votes: votes, log: log}
}

// taken reports whether an account other than exceptID holds value in column.
func (h *UserHandler) taken(c *gin.Context, column, value string, exceptID int) (bool, error) {
	var n int64
	err := h.db.WithContext(c.Request.Context()).Model(&models.User{}).
		Where(column+" = ? AND id <> ?", value, exceptID).
		Count(&n).Error
	return n > 0, err
}

func (h *UserHandler) load(c *gin.Context, id int) (*models.User, bool) {
	var user models.User
	err := h.db.WithContext(c.Request.Context()).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		fail(c, http.StatusNotFound, "User not found")
		return nil, false
	}
	if err != nil {
		internalError(c, h.log, "failed to load user", err)
		return nil, false
	}
	return &user, true
}

// GetUsers lists every account, newest first
func (h *UserHandler) GetUsers(c *gin.Context) {
	var users []models.User
	if err := h.db.WithContext(c.Request.Context()).Order("created_at desc").Find(&users).Error; err != nil {
		internalError(c, h.log, "failed to fetch users", err)
		return
	}

	responses := make([]userResponse, 0, len(users))
	for i := range users {
		responses = append(responses, newUserResponse(&users[i]))
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": responses, "total": len(responses)})
}

// CreateUser creates an account with any role
func (h *UserHandler) CreateUser(c *gin.Context) {
	var input models.CreateUserRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				if fe.Field() == "Password" && fe.Tag() == "min" {
					fail(c, http.StatusBadRequest, "Password must be at least 6 characters long")
					return
				}
			}
		}
		fail(c, http.StatusBadRequest, "All fields are required")
		return
	}
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	for _, f := range []struct{ column, value, message string }{
		{"email", input.Email, "Email already exists"},
		{"username", input.Username, "Username already exists"},
	} {
		dup, err := h.taken(c, f.column, f.value, 0)
		if err != nil {
			internalError(c, h.log, "failed to check existing users", err)
			return
		}
		if dup {
			fail(c, http.StatusBadRequest, f.message)
			return
		}
	}

	hashed, err := auth.HashPassword(input.Password)
	if err != nil {
		internalError(c, h.log, "failed to hash password", err)
		return
	}

	user := models.User{
		Username: input.Username,
		Email:    input.Email,
		Password: hashed,
		FullName: input.FullName,
		Role:     models.ParseRole(input.Role),
		IsActive: true,
		Avatar:   models.DefaultAvatar(input.FullName),
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&user).Error; err != nil {
		if pgCode(err) == pgUniqueViolation {
			fail(c, http.StatusBadRequest, "Username or email already exists")
			return
		}
		internalError(c, h.log, "failed to create user", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "User created successfully",
		"data":    newUserResponse(&user),
	})
}

// UpdateUser changes profile fields, role or status
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := paramID(c, "id", "user")
	if !ok {
		return
	}

	var input models.UpdateUserRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	user, ok := h.load(c, id)
	if !ok {
		return
	}

	updates := map[string]any{}
	if email := strings.ToLower(strings.TrimSpace(input.Email)); email != "" && email != user.Email {
		dup, err := h.taken(c, "email", email, id)
		if err != nil {
			internalError(c, h.log, "failed to check existing users", err)
			return
		}
		if dup {
			fail(c, http.StatusBadRequest, "Email already exists")
			return
		}
		updates["email"] = email
	}
	if input.Username != "" && input.Username != user.Username {
		dup, err := h.taken(c, "username", input.Username, id)
		if err != nil {
			internalError(c, h.log, "failed to check existing users", err)
			return
		}
		if dup {
			fail(c, http.StatusBadRequest, "Username already exists")
			return
		}
		updates["username"] = input.Username
	}
	if input.FullName != "" {
		updates["full_name"] = input.FullName
	}
	if input.Role != "" {
		updates["role"] = models.ParseRole(input.Role)
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}

	if len(updates) > 0 {
		if err := h.update(c, user, updates); err != nil {
			if pgCode(err) == pgUniqueViolation {
				fail(c, http.StatusBadRequest, "Username or email already exists")
				return
			}
			internalError(c, h.log, "failed to update user", err)
			return
		}
	}

	if user, ok = h.load(c, id); !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User updated successfully",
		"data":    newUserResponse(user),
	})
}

// update writes updates to the account and carries a new name or role onto
// the author columns of everything it wrote, in one transaction.
func (h *UserHandler) update(c *gin.Context, user *models.User, updates map[string]any) error {
	author := map[string]any{}
	if name, ok := updates["full_name"]; ok {
		author["author_name"] = name
	}
	if role, ok := updates["role"]; ok {
		author["author_role"] = role
	}

	return h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(user).Updates(updates).Error; err != nil {
			return err
		}
		if len(author) == 0 {
			return nil
		}
		for _, content := range []any{&models.Post{}, &models.Comment{}} {
			err := tx.Model(content).Where("author_id = ?", user.ID).UpdateColumns(author).Error
			if err != nil {
				return errors.Wrap(err, "update authored content")
			}
		}
		return nil
	})
}

// DeleteUser removes an account with everything it authored and every vote
// it cast
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := paramID(c, "id", "user")
	if !ok {
		return
	}
	if self, _ := middleware.UserID(c); self == id {
		fail(c, http.StatusBadRequest, "Cannot delete your own account")
		return
	}

	res, err := h.votes.DeleteUser(c.Request.Context(), id)
	if err != nil {
		respondStoreError(c, h.log, err, "User")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User deleted successfully",
		"data":    res,
	})
}

// ToggleStatus activates or deactivates an account
func (h *UserHandler) ToggleStatus(c *gin.Context) {
	id, ok := paramID(c, "id", "user")
	if !ok {
		return
	}
	if self, _ := middleware.UserID(c); self == id {
		fail(c, http.StatusBadRequest, "Cannot deactivate your own account")
		return
	}

	res := h.db.WithContext(c.Request.Context()).Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("is_active", gorm.Expr("NOT is_active"))
	if res.Error != nil {
		internalError(c, h.log, "failed to toggle user status", res.Error)
		return
	}
	if res.RowsAffected == 0 {
		fail(c, http.StatusNotFound, "User not found")
		return
	}

	user, ok := h.load(c, id)
	if !ok {
		return
	}
	state := "deactivated"
	if user.IsActive {
		state = "activated"
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User " + state + " successfully",
		"data":    newUserResponse(user),
	})
}

// ResetPassword sets a new password for an account
func (h *UserHandler) ResetPassword(c *gin.Context) {
	id, ok := paramID(c, "id", "user")
	if !ok {
		return
	}

	var input models.ResetPasswordRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		fail(c, http.StatusBadRequest, "Password must be at least 6 characters long")
		return
	}

	hashed, err := auth.HashPassword(input.NewPassword)
	if err != nil {
		internalError(c, h.log, "failed to hash password", err)
		return
	}

	res := h.db.WithContext(c.Request.Context()).Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{"password": hashed})
	if res.Error != nil {
		internalError(c, h.log, "failed to reset password", res.Error)
		return
	}
	if res.RowsAffected == 0 {
		fail(c, http.StatusNotFound, "User not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Password reset successfully"})
}
