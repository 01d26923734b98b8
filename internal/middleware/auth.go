// Package middleware holds the gin middleware shared by every route group.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/emilythestrangee/campus-forum/backend/internal/auth"
	"github.com/emilythestrangee/campus-forum/backend/internal/models"
)

// Context keys set by AuthMiddleware.
const (
	KeyUserID = "user_id"
	KeyRole   = "role"
	KeyUser   = "user"
)

// UserFinder loads the account behind a token.
type UserFinder interface {
	FindUser(ctx context.Context, id int) (*models.User, error)
}

// GormUsers finds users in the users table.
type GormUsers struct {
	DB *gorm.DB
}

func (g GormUsers) FindUser(ctx context.Context, id int) (*models.User, error) {
	var u models.User
	if err := g.DB.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// AuthMiddleware requires a valid bearer token for an active account and
// stores the account in the request context.
func AuthMiddleware(tokens *auth.TokenManager, users UserFinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, found := strings.CutPrefix(header, "Bearer ")
		if !found || raw == "" {
			abort(c, http.StatusUnauthorized, "Access token required")
			return
		}

		claims, err := tokens.Parse(raw)
		if err != nil {
			abort(c, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		user, err := users.FindUser(c.Request.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				abort(c, http.StatusUnauthorized, "User not found")
				return
			}
			_ = c.Error(err)
			abort(c, http.StatusInternalServerError, "Internal server error")
			return
		}
		if !user.IsActive {
			abort(c, http.StatusUnauthorized, "Account is deactivated")
			return
		}

		c.Set(KeyUserID, user.ID)
		c.Set(KeyRole, user.Role)
		c.Set(KeyUser, user)
		c.Next()
	}
}

// RequireRole lets the request through only when the authenticated user has
// one of roles. It must run after AuthMiddleware.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := c.Get(KeyRole)
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		abort(c, http.StatusForbidden, "Insufficient permissions")
	}
}

// UserID returns the authenticated user's id.
func UserID(c *gin.Context) (int, bool) {
	id, ok := c.Get(KeyUserID)
	if !ok {
		return 0, false
	}
	v, ok := id.(int)
	return v, ok
}

// CurrentUser returns the authenticated account.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	u, ok := c.Get(KeyUser)
	if !ok {
		return nil, false
	}
	user, ok := u.(*models.User)
	return user, ok
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
}
