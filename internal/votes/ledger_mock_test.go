package votes

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	selectTarget = `SELECT .*vote_count.* FROM "posts" WHERE id = \$1 FOR KEY SHARE`
	selectLedger = `SELECT .*type.* FROM "post_votes" WHERE user_id = \$1 AND post_id = \$2 FOR UPDATE`
	insertLedger = `INSERT INTO "post_votes"`
	bumpTally    = `UPDATE "posts" SET "vote_count"=vote_count \+ \$1 WHERE id = \$2`
	readTally    = `SELECT .*vote_count.* FROM "posts" WHERE id = \$1`
)

func newMockService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	require.NoError(t, err)

	return NewService(db, zaptest.NewLogger(t)), mock
}

func TestVoteCommitFailure(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(selectTarget).WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"vote_count"}).AddRow(3))
	mock.ExpectQuery(selectLedger).WithArgs(2, 7).
		WillReturnRows(sqlmock.NewRows([]string{"type"}))
	mock.ExpectQuery(insertLedger).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))
	mock.ExpectExec(bumpTally).WithArgs(1, 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(readTally).WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"vote_count"}).AddRow(4))
	mock.ExpectCommit().WillReturnError(errors.New("connection reset by peer"))

	_, err := svc.Vote(context.Background(), 2, 7, KindPost, Up)
	assert.True(t, errors.Is(err, ErrStoreFailure), "got %v", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVoteRetriesOnceAfterConflict(t *testing.T) {
	svc, mock := newMockService(t)

	// First attempt loses the race for the unique (post, user) slot.
	mock.ExpectBegin()
	mock.ExpectQuery(selectTarget).WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"vote_count"}).AddRow(0))
	mock.ExpectQuery(selectLedger).WithArgs(2, 7).
		WillReturnRows(sqlmock.NewRows([]string{"type"}))
	mock.ExpectQuery(insertLedger).
		WillReturnError(&pgconn.PgError{Code: codeUniqueViolation, ConstraintName: "idx_post_votes_post_user"})
	mock.ExpectRollback()

	// The retry sees the winner's row and has nothing left to do.
	mock.ExpectBegin()
	mock.ExpectQuery(selectTarget).WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"vote_count"}).AddRow(1))
	mock.ExpectQuery(selectLedger).WithArgs(2, 7).
		WillReturnRows(sqlmock.NewRows([]string{"type"}).AddRow("UPVOTE"))
	mock.ExpectCommit()

	votes, err := svc.Vote(context.Background(), 2, 7, KindPost, Up)
	require.NoError(t, err)
	assert.Equal(t, 1, votes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVoteGivesUpAfterSecondConflict(t *testing.T) {
	svc, mock := newMockService(t)

	for i := 0; i < maxAttempts; i++ {
		mock.ExpectBegin()
		mock.ExpectQuery(selectTarget).WithArgs(7).
			WillReturnRows(sqlmock.NewRows([]string{"vote_count"}).AddRow(0))
		mock.ExpectQuery(selectLedger).WithArgs(2, 7).
			WillReturnError(&pgconn.PgError{Code: codeDeadlockDetected})
		mock.ExpectRollback()
	}

	_, err := svc.Vote(context.Background(), 2, 7, KindPost, Down)
	assert.True(t, errors.Is(err, ErrConflict), "got %v", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVoteMissingTargetTouchesNothing(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(selectTarget).WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"vote_count"}))
	mock.ExpectRollback()

	_, err := svc.Vote(context.Background(), 2, 7, KindPost, Up)
	assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVoteValidatesBeforeStoreAccess(t *testing.T) {
	svc, mock := newMockService(t)
	ctx := context.Background()

	_, err := svc.Vote(ctx, 2, 7, KindPost, Choice("sideways"))
	assert.True(t, errors.Is(err, ErrBadRequest), "got %v", err)

	_, err = svc.Vote(ctx, 2, 7, Kind(0), Up)
	assert.True(t, errors.Is(err, ErrBadRequest), "got %v", err)

	_, err = svc.Vote(ctx, 0, 7, KindPost, Up)
	assert.True(t, errors.Is(err, ErrUnauthorized), "got %v", err)

	assert.NoError(t, mock.ExpectationsWereMet())
}
