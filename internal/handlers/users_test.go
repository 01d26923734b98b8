package handlers

import (
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	selectUser     = `SELECT \* FROM "users" WHERE "users"."id" = \$1`
	updateUser     = `UPDATE "users" SET`
	updatePosts    = `UPDATE "posts" SET "author_name"=\$1,"author_role"=\$2 WHERE author_id = \$3`
	updateComments = `UPDATE "comments" SET "author_name"=\$1,"author_role"=\$2 WHERE author_id = \$3`
)

func newUserRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	require.NoError(t, err)

	h := NewHandler(db, nil, nil, zaptest.NewLogger(t))
	r := gin.New()
	r.PUT("/users/:id", h.User.UpdateUser)
	return r, mock
}

func userRows(name, role string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "username", "email", "full_name", "role", "is_active"}).
		AddRow(3, "student1", "student@university.edu", name, role, true)
}

func TestUpdateUserRenamesAuthoredContent(t *testing.T) {
	r, mock := newUserRouter(t)

	mock.ExpectQuery(selectUser).WillReturnRows(userRows("Old Name", "STUDENT"))
	mock.ExpectBegin()
	mock.ExpectExec(updateUser).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(updatePosts).WithArgs("New Name", "TEACHER", 3).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(updateComments).WithArgs("New Name", "TEACHER", 3).
		WillReturnResult(sqlmock.NewResult(0, 5))
	mock.ExpectCommit()
	mock.ExpectQuery(selectUser).WillReturnRows(userRows("New Name", "TEACHER"))

	w := request(r, http.MethodPut, "/users/3", `{"fullName":"New Name","role":"teacher"}`)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"fullName":"New Name"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateUserStatusLeavesContentAlone(t *testing.T) {
	r, mock := newUserRouter(t)

	mock.ExpectQuery(selectUser).WillReturnRows(userRows("Old Name", "STUDENT"))
	mock.ExpectBegin()
	mock.ExpectExec(updateUser).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(selectUser).WillReturnRows(userRows("Old Name", "STUDENT"))

	w := request(r, http.MethodPut, "/users/3", `{"isActive":true}`)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateUserRollsBackWhenContentUpdateFails(t *testing.T) {
	r, mock := newUserRouter(t)

	mock.ExpectQuery(selectUser).WillReturnRows(userRows("Old Name", "STUDENT"))
	mock.ExpectBegin()
	mock.ExpectExec(updateUser).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "posts" SET`).WillReturnError(assert.AnError)
	mock.ExpectRollback()

	w := request(r, http.MethodPut, "/users/3", `{"fullName":"New Name"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
