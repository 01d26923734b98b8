package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/emilythestrangee/campus-forum/backend/internal/auth"
	"github.com/emilythestrangee/campus-forum/backend/internal/models"
)

type usersByID map[int]*models.User

func (u usersByID) FindUser(_ context.Context, id int) (*models.User, error) {
	if user, ok := u[id]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(tokens *auth.TokenManager, users UserFinder) *gin.Engine {
	r := gin.New()
	r.GET("/me", AuthMiddleware(tokens, users), func(c *gin.Context) {
		id, _ := UserID(c)
		u, _ := CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"id": id, "username": u.Username})
	})
	r.GET("/admin", AuthMiddleware(tokens, users), RequireRole(models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func do(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	student := &models.User{ID: 1, Username: "student1", Role: models.RoleStudent, IsActive: true}
	admin := &models.User{ID: 2, Username: "admin", Role: models.RoleAdmin, IsActive: true}
	inactive := &models.User{ID: 3, Username: "gone", Role: models.RoleStudent, IsActive: false}
	r := newRouter(tokens, usersByID{1: student, 2: admin, 3: inactive})

	issue := func(u *models.User) string {
		raw, err := tokens.Issue(u)
		require.NoError(t, err)
		return raw
	}

	t.Run("valid token", func(t *testing.T) {
		w := do(r, "/me", issue(student))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"id":1,"username":"student1"}`, w.Body.String())
	})

	t.Run("missing header", func(t *testing.T) {
		w := do(r, "/me", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"success":false,"message":"Access token required"}`, w.Body.String())
	})

	t.Run("bad token", func(t *testing.T) {
		w := do(r, "/me", "abc.def.ghi")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("deleted user", func(t *testing.T) {
		w := do(r, "/me", issue(&models.User{ID: 99, Role: models.RoleStudent}))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "User not found")
	})

	t.Run("deactivated user", func(t *testing.T) {
		w := do(r, "/me", issue(inactive))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("role required", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, do(r, "/admin", issue(student)).Code)
		assert.Equal(t, http.StatusNoContent, do(r, "/admin", issue(admin)).Code)
	})
}
