package database_test

import (
	"context"
	"flag"
	"log"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/emilythestrangee/campus-forum/backend/internal/config"
	"github.com/emilythestrangee/campus-forum/backend/internal/database"
	"github.com/emilythestrangee/campus-forum/backend/internal/models"
	"github.com/emilythestrangee/campus-forum/backend/internal/testutil"
)

var testDSN string

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	dsn, stop, err := testutil.StartPostgres(context.Background())
	if err != nil {
		log.Printf("postgres unavailable, database tests will be skipped: %v", err)
	} else {
		testDSN = dsn
	}

	code := m.Run()
	if stop != nil {
		stop()
	}
	os.Exit(code)
}

func newService(t *testing.T) database.Service {
	t.Helper()
	if testDSN == "" {
		t.Skip("postgres container not available")
	}
	testutil.NewDB(t, testDSN)

	srv, err := database.New(&config.Config{
		DatabaseURL:     testDSN,
		DBMaxOpenConns:  5,
		DBMaxIdleConns:  2,
		DBConnLifetime:  time.Hour,
		DBSlowThreshold: time.Second,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })
	return srv
}

func TestNewRequiresURL(t *testing.T) {
	_, err := database.New(&config.Config{}, zaptest.NewLogger(t))
	require.Error(t, err)
}

func TestHealth(t *testing.T) {
	srv := newService(t)

	stats := srv.Health(context.Background())
	assert.Equal(t, "up", stats["status"])
	assert.Contains(t, stats, "open_connections")
	assert.Contains(t, stats, "wait_count")
}

func TestMigrateIsRepeatable(t *testing.T) {
	srv := newService(t)
	require.NoError(t, srv.Migrate())
	require.NoError(t, srv.Migrate())

	// Foreign keys must not cascade; deletes go through the votes package.
	var cascading int64
	err := srv.GetDB().Raw(`
		SELECT COUNT(*) FROM information_schema.referential_constraints
		WHERE delete_rule = 'CASCADE'`).Scan(&cascading).Error
	require.NoError(t, err)
	assert.Zero(t, cascading)

	var fks int64
	err = srv.GetDB().Raw(`
		SELECT COUNT(*) FROM information_schema.table_constraints
		WHERE constraint_type = 'FOREIGN KEY'`).Scan(&fks).Error
	require.NoError(t, err)
	assert.GreaterOrEqual(t, fks, int64(7))
}

func TestSeed(t *testing.T) {
	srv := newService(t)
	ctx := context.Background()

	require.NoError(t, database.Seed(ctx, srv.GetDB()))
	require.NoError(t, database.Seed(ctx, srv.GetDB()))

	db := srv.GetDB()
	assert.Equal(t, int64(3), testutil.Count(t, db, "users", "1 = 1"))
	assert.Equal(t, int64(2), testutil.Count(t, db, "posts", "1 = 1"))
	assert.Equal(t, int64(2), testutil.Count(t, db, "comments", "1 = 1"))

	var admin models.User
	require.NoError(t, db.Where("email = ?", "admin@university.edu").First(&admin).Error)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.True(t, admin.IsActive)

	var welcome models.Post
	require.NoError(t, db.Where("author_id = ?", admin.ID).First(&welcome).Error)
	assert.Equal(t, []string{"Announcement", "Welcome"}, []string(welcome.Tags))
	assert.Zero(t, welcome.VoteCount)
}
