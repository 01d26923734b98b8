package votes

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/campus-forum/backend/internal/models"
)

// maxAttempts is the first try plus one retry after a conflict.
const maxAttempts = 2

// tallyExpr sums a ledger into a net score.
var tallyExpr = fmt.Sprintf("COALESCE(SUM(CASE WHEN type = '%s' THEN 1 ELSE -1 END), 0)", models.VoteUp)

// Service applies votes and keeps tallies consistent. All state lives in the
// database handle it is given; it caches nothing.
type Service struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewService(db *gorm.DB, log *zap.Logger) *Service {
	return &Service{db: db, log: log.Named("votes")}
}

// Vote records actorID's choice on a target and returns the target's new
// vote count. The ledger change and the counter delta commit together.
func (s *Service) Vote(ctx context.Context, actorID, targetID int, kind Kind, choice Choice) (int, error) {
	if !choice.valid() {
		return 0, errors.Wrapf(ErrBadRequest, "invalid vote type %q", string(choice))
	}
	spec, err := kind.spec()
	if err != nil {
		return 0, err
	}
	if actorID <= 0 {
		return 0, errors.WithStack(ErrUnauthorized)
	}

	var (
		votes    int
		mutation Mutation
		delta    int
	)
	err = s.transact(ctx, fkMissingRow, func(tx *gorm.DB) error {
		// KEY SHARE keeps the target from being deleted or reconciled under
		// us without blocking other voters.
		var counts []int
		err := tx.Model(spec.target()).
			Clauses(clause.Locking{Strength: "KEY SHARE"}).
			Where("id = ?", targetID).
			Pluck("vote_count", &counts).Error
		if err != nil {
			return err
		}
		if len(counts) == 0 {
			return errors.Wrapf(ErrNotFound, "%s %d", kind, targetID)
		}

		// Lock the existing ledger row so a concurrent change by the same
		// user waits and then sees our write.
		var current []models.VoteType
		err = tx.Model(spec.ledger()).
			Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
			Where("user_id = ? AND "+spec.foreignKey+" = ?", actorID, targetID).
			Pluck("type", &current).Error
		if err != nil {
			return err
		}

		var existing *models.VoteType
		if len(current) > 0 {
			existing = &current[0]
		}
		mutation, delta = Transition(existing, choice)

		if err := applyMutation(tx, spec, mutation, actorID, targetID, choice); err != nil {
			return err
		}

		if delta == 0 {
			votes = counts[0]
			return nil
		}

		if err := tx.Model(spec.target()).
			Where("id = ?", targetID).
			UpdateColumn("vote_count", gorm.Expr("vote_count + ?", delta)).Error; err != nil {
			return err
		}

		var updated []int
		if err := tx.Model(spec.target()).Where("id = ?", targetID).Pluck("vote_count", &updated).Error; err != nil {
			return err
		}
		if len(updated) == 0 {
			return errors.Wrapf(ErrNotFound, "%s %d", kind, targetID)
		}
		votes = updated[0]
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.log.Debug("vote applied",
		zap.Stringer("kind", kind),
		zap.Int("target_id", targetID),
		zap.Int("user_id", actorID),
		zap.String("choice", string(choice)),
		zap.Stringer("mutation", mutation),
		zap.Int("delta", delta),
		zap.Int("votes", votes),
	)
	return votes, nil
}

func applyMutation(tx *gorm.DB, spec kindSpec, m Mutation, userID, targetID int, choice Choice) error {
	where := "user_id = ? AND " + spec.foreignKey + " = ?"
	switch m {
	case Insert:
		return tx.Create(spec.newVote(userID, targetID, choice.voteType())).Error
	case Update:
		return tx.Model(spec.ledger()).
			Where(where, userID, targetID).
			Updates(map[string]any{"type": choice.voteType(), "updated_at": time.Now().UTC()}).Error
	case Delete:
		return tx.Where(where, userID, targetID).Delete(spec.ledger()).Error
	}
	return nil
}

// Reconcile recomputes one target's vote count from its ledger rows and
// stores it. Use it after any change to the ledger that bypassed Vote.
func (s *Service) Reconcile(ctx context.Context, targetID int, kind Kind) (int, error) {
	spec, err := kind.spec()
	if err != nil {
		return 0, err
	}

	var before, after int
	err = s.transact(ctx, fkMissingRow, func(tx *gorm.DB) error {
		// FOR UPDATE waits for in-flight votes holding KEY SHARE, so the sum
		// below sees every committed delta and no new one can land before we
		// write.
		var counts []int
		err := tx.Model(spec.target()).
			Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
			Where("id = ?", targetID).
			Pluck("vote_count", &counts).Error
		if err != nil {
			return err
		}
		if len(counts) == 0 {
			return errors.Wrapf(ErrNotFound, "%s %d", kind, targetID)
		}
		before = counts[0]

		q := "SELECT " + tallyExpr + " FROM " + spec.ledgerTable + " WHERE " + spec.foreignKey + " = ?"
		if err := tx.Raw(q, targetID).Scan(&after).Error; err != nil {
			return err
		}

		if after == before {
			return nil
		}
		return tx.Model(spec.target()).
			Where("id = ?", targetID).
			UpdateColumn("vote_count", after).Error
	})
	if err != nil {
		return 0, err
	}

	if after != before {
		s.log.Warn("vote count drift corrected",
			zap.Stringer("kind", kind),
			zap.Int("target_id", targetID),
			zap.Int("stored", before),
			zap.Int("actual", after),
		)
	}
	return after, nil
}

// ReconcileAll recomputes every tally of one kind and returns how many
// targets had drifted.
func (s *Service) ReconcileAll(ctx context.Context, kind Kind) (int64, error) {
	spec, err := kind.spec()
	if err != nil {
		return 0, err
	}

	var fixed int64
	err = s.transact(ctx, fkMissingRow, func(tx *gorm.DB) error {
		// Conflicts with the ROW EXCLUSIVE lock a vote takes for its
		// increment, so every delta lands either before the sums are taken
		// or on top of the value written here.
		if err := tx.Exec("LOCK TABLE " + spec.table + " IN SHARE ROW EXCLUSIVE MODE").Error; err != nil {
			return err
		}

		sum := fmt.Sprintf(
			"(SELECT %s FROM %s v WHERE v.%s = %s.id)",
			tallyExpr, spec.ledgerTable, spec.foreignKey, spec.table,
		)
		res := tx.Exec(fmt.Sprintf(
			"UPDATE %s SET vote_count = %s WHERE vote_count <> %s",
			spec.table, sum, sum,
		))
		fixed = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return 0, err
	}

	s.log.Info("tallies reconciled", zap.Stringer("kind", kind), zap.Int64("corrected", fixed))
	return fixed, nil
}

// ReconcileKinds runs ReconcileAll for each kind concurrently. The result is
// keyed by kind.
func (s *Service) ReconcileKinds(ctx context.Context, kinds ...Kind) (map[Kind]int64, error) {
	results := make([]int64, len(kinds))
	g, ctx := errgroup.WithContext(ctx)
	for i, k := range kinds {
		g.Go(func() error {
			n, err := s.ReconcileAll(ctx, k)
			results[i] = n
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[Kind]int64, len(kinds))
	for i, k := range kinds {
		out[k] = results[i]
	}
	return out, nil
}

// transact runs fn in a transaction and retries it once when it loses a
// race. Any error rolls the whole unit back.
func (s *Service) transact(ctx context.Context, policy fkPolicy, fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = classify(s.db.WithContext(ctx).Transaction(fn), policy)
		if err == nil || !errors.Is(err, ErrConflict) || ctx.Err() != nil {
			return err
		}
		s.log.Debug("transaction conflict, retrying", zap.Int("attempt", attempt), zap.Error(err))
	}
	return err
}
