// Package testutil starts throwaway PostgreSQL instances and builds fixtures
// for package tests.
package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/emilythestrangee/campus-forum/backend/internal/database"
	"github.com/emilythestrangee/campus-forum/backend/internal/models"
)

const postgresImage = "postgres:16-alpine"

// StartPostgres runs a PostgreSQL container with the schema migrated and
// returns its DSN and a function that removes it.
func StartPostgres(ctx context.Context) (string, func(), error) {
	ctr, err := tcpostgres.Run(ctx, postgresImage,
		tcpostgres.WithDatabase("forum_test"),
		tcpostgres.WithUsername("forum"),
		tcpostgres.WithPassword("forum"),
		tcpostgres.BasicWaitStrategies(),
	)
	stop := func() {
		if ctr != nil {
			_ = testcontainers.TerminateContainer(ctr)
		}
	}
	if err != nil {
		stop()
		return "", nil, fmt.Errorf("start postgres container: %w", err)
	}

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		stop()
		return "", nil, err
	}

	db, err := database.Open(dsn, zap.NewNop(), time.Second)
	if err != nil {
		stop()
		return "", nil, err
	}
	if err := database.Migrate(db); err != nil {
		stop()
		return "", nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	return dsn, stop, nil
}

// NewDB opens dsn with every table emptied, so each test starts from a clean
// store. The connection pool is closed when the test ends.
func NewDB(t *testing.T, dsn string) *gorm.DB {
	t.Helper()

	db, err := database.Open(dsn, zap.NewNop(), time.Second)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	err = db.Exec(`TRUNCATE comment_votes, post_votes, comments, posts, users RESTART IDENTITY CASCADE`).Error
	if err != nil {
		t.Fatalf("Failed to clean database: %v", err)
	}
	return db
}

var seq atomic.Int64

// CreateUser inserts an active user with password "password".
func CreateUser(t *testing.T, db *gorm.DB, role models.Role) *models.User {
	t.Helper()

	n := seq.Add(1)
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	u := &models.User{
		Username: fmt.Sprintf("user%d", n),
		Email:    fmt.Sprintf("user%d@university.edu", n),
		Password: string(hash),
		FullName: fmt.Sprintf("Test User %d", n),
		Role:     role,
		IsActive: true,
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return u
}

// CreatePost inserts a post by author.
func CreatePost(t *testing.T, db *gorm.DB, author *models.User, tags ...string) *models.Post {
	t.Helper()

	if tags == nil {
		tags = []string{}
	}
	p := &models.Post{
		Title:      fmt.Sprintf("Post %d", seq.Add(1)),
		Content:    "Body",
		Tags:       tags,
		AuthorID:   author.ID,
		AuthorName: author.FullName,
		AuthorRole: author.Role,
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("Failed to create test post: %v", err)
	}
	return p
}

// CreateComment inserts a comment on post; parent may be nil.
func CreateComment(t *testing.T, db *gorm.DB, post *models.Post, author *models.User, parent *models.Comment) *models.Comment {
	t.Helper()

	c := &models.Comment{
		Content:    fmt.Sprintf("Comment %d", seq.Add(1)),
		PostID:     post.ID,
		AuthorID:   author.ID,
		AuthorName: author.FullName,
		AuthorRole: author.Role,
	}
	if parent != nil {
		c.ParentCommentID = &parent.ID
	}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("Failed to create test comment: %v", err)
	}
	return c
}

// VoteCount reads the stored tally of a post or comment table row.
func VoteCount(t *testing.T, db *gorm.DB, table string, id int) int {
	t.Helper()

	var n int
	if err := db.Table(table).Select("vote_count").Where("id = ?", id).Scan(&n).Error; err != nil {
		t.Fatalf("Failed to read vote_count: %v", err)
	}
	return n
}

// LedgerSum recomputes a tally from the ledger table.
func LedgerSum(t *testing.T, db *gorm.DB, ledgerTable, foreignKey string, id int) int {
	t.Helper()

	var n int
	q := fmt.Sprintf(
		"SELECT COALESCE(SUM(CASE WHEN type = 'UPVOTE' THEN 1 ELSE -1 END), 0) FROM %s WHERE %s = ?",
		ledgerTable, foreignKey,
	)
	if err := db.Raw(q, id).Scan(&n).Error; err != nil {
		t.Fatalf("Failed to sum ledger: %v", err)
	}
	return n
}

// Count returns the number of rows in table matching the condition.
func Count(t *testing.T, db *gorm.DB, table, where string, args ...any) int64 {
	t.Helper()

	var n int64
	if err := db.Table(table).Where(where, args...).Count(&n).Error; err != nil {
		t.Fatalf("Failed to count %s: %v", table, err)
	}
	return n
}
