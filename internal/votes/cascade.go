package votes

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/campus-forum/backend/internal/models"
)

// CascadeResult counts the rows a cascade removed.
type CascadeResult struct {
	Users        int64 `json:"users"`
	Posts        int64 `json:"posts"`
	Comments     int64 `json:"comments"`
	PostVotes    int64 `json:"postVotes"`
	CommentVotes int64 `json:"commentVotes"`
}

func (r CascadeResult) fields() []zap.Field {
	return []zap.Field{
		zap.Int64("users", r.Users),
		zap.Int64("posts", r.Posts),
		zap.Int64("comments", r.Comments),
		zap.Int64("post_votes", r.PostVotes),
		zap.Int64("comment_votes", r.CommentVotes),
	}
}

// commentSubtree collects the given comments plus every reply below them.
const commentSubtree = `
WITH RECURSIVE subtree AS (
	SELECT id FROM comments WHERE id IN ?
	UNION
	SELECT c.id FROM comments c JOIN subtree s ON c.parent_comment_id = s.id
)
SELECT id FROM subtree`

var forUpdate = clause.Locking{Strength: clause.LockingStrengthUpdate}

// DeletePost removes a post, its votes, its comments and their votes in one
// transaction.
func (s *Service) DeletePost(ctx context.Context, postID int) (CascadeResult, error) {
	var res CascadeResult
	err := s.transact(ctx, fkRace, func(tx *gorm.DB) error {
		res = CascadeResult{}

		// Locking the post blocks new votes and comments on it until we finish.
		if err := lockOne(tx, &models.Post{}, postID); err != nil {
			return err
		}

		var commentIDs []int
		if err := tx.Model(&models.Comment{}).
			Clauses(forUpdate).
			Where("post_id = ?", postID).
			Pluck("id", &commentIDs).Error; err != nil {
			return err
		}

		return runSteps([]step{
			{&res.PostVotes, func() *gorm.DB { return tx.Where("post_id = ?", postID).Delete(&models.PostVote{}) }},
			{&res.CommentVotes, func() *gorm.DB { return deleteIn(tx, &models.CommentVote{}, "comment_id", commentIDs) }},
			{&res.Comments, func() *gorm.DB { return deleteIn(tx, &models.Comment{}, "id", commentIDs) }},
			{&res.Posts, func() *gorm.DB { return tx.Where("id = ?", postID).Delete(&models.Post{}) }},
		})
	})
	if err != nil {
		return CascadeResult{}, err
	}

	s.log.Info("post deleted", append([]zap.Field{zap.Int("post_id", postID)}, res.fields()...)...)
	return res, nil
}

// DeleteComment removes a comment, every reply below it and all their votes
// in one transaction.
func (s *Service) DeleteComment(ctx context.Context, commentID int) (CascadeResult, error) {
	var res CascadeResult
	err := s.transact(ctx, fkRace, func(tx *gorm.DB) error {
		res = CascadeResult{}

		if err := lockOne(tx, &models.Comment{}, commentID); err != nil {
			return err
		}

		ids, err := lockSubtree(tx, []int{commentID})
		if err != nil {
			return err
		}

		return runSteps([]step{
			{&res.CommentVotes, func() *gorm.DB { return deleteIn(tx, &models.CommentVote{}, "comment_id", ids) }},
			{&res.Comments, func() *gorm.DB { return deleteIn(tx, &models.Comment{}, "id", ids) }},
		})
	})
	if err != nil {
		return CascadeResult{}, err
	}

	s.log.Info("comment deleted", append([]zap.Field{zap.Int("comment_id", commentID)}, res.fields()...)...)
	return res, nil
}

// DeleteUser removes an account and everything hanging off it in one
// transaction: the votes it cast (surviving targets get their tallies
// adjusted), its comments with their replies, its posts with all their
// comments, and finally the user row.
func (s *Service) DeleteUser(ctx context.Context, userID int) (CascadeResult, error) {
	var res CascadeResult
	err := s.transact(ctx, fkRace, func(tx *gorm.DB) error {
		res = CascadeResult{}

		// Locking the user blocks new ledger rows referencing it.
		if err := lockOne(tx, &models.User{}, userID); err != nil {
			return err
		}

		var postIDs []int
		if err := tx.Model(&models.Post{}).
			Clauses(forUpdate).
			Where("author_id = ?", userID).
			Pluck("id", &postIDs).Error; err != nil {
			return err
		}

		var roots []int
		q := tx.Model(&models.Comment{}).Where("author_id = ?", userID)
		if len(postIDs) > 0 {
			q = q.Or("post_id IN ?", postIDs)
		}
		if err := q.Pluck("id", &roots).Error; err != nil {
			return err
		}
		commentIDs, err := lockSubtree(tx, roots)
		if err != nil {
			return err
		}

		for _, k := range Kinds {
			if err := retractVotes(tx, specs[k], userID); err != nil {
				return err
			}
		}

		commentVotes := tx.Where("user_id = ?", userID)
		if len(commentIDs) > 0 {
			commentVotes = commentVotes.Or("comment_id IN ?", commentIDs)
		}
		postVotes := tx.Where("user_id = ?", userID)
		if len(postIDs) > 0 {
			postVotes = postVotes.Or("post_id IN ?", postIDs)
		}

		return runSteps([]step{
			{&res.CommentVotes, func() *gorm.DB { return commentVotes.Delete(&models.CommentVote{}) }},
			{&res.PostVotes, func() *gorm.DB { return postVotes.Delete(&models.PostVote{}) }},
			{&res.Comments, func() *gorm.DB { return deleteIn(tx, &models.Comment{}, "id", commentIDs) }},
			{&res.Posts, func() *gorm.DB { return deleteIn(tx, &models.Post{}, "id", postIDs) }},
			{&res.Users, func() *gorm.DB { return tx.Where("id = ?", userID).Delete(&models.User{}) }},
		})
	})
	if err != nil {
		return CascadeResult{}, err
	}

	s.log.Info("user deleted", append([]zap.Field{zap.Int("user_id", userID)}, res.fields()...)...)
	return res, nil
}

// retractVotes takes the user's votes back out of every target's tally. The
// ledger rows themselves are deleted by the caller.
func retractVotes(tx *gorm.DB, spec kindSpec, userID int) error {
	var locked []int
	if err := tx.Model(spec.ledger()).
		Clauses(forUpdate).
		Where("user_id = ?", userID).
		Pluck("id", &locked).Error; err != nil {
		return err
	}
	if len(locked) == 0 {
		return nil
	}

	q := fmt.Sprintf(`
UPDATE %[1]s AS t SET vote_count = t.vote_count - d.delta
FROM (
	SELECT %[2]s AS target_id, %[3]s AS delta
	FROM %[4]s WHERE user_id = ? GROUP BY %[2]s
) AS d
WHERE t.id = d.target_id`, spec.table, spec.foreignKey, tallyExpr, spec.ledgerTable)
	return tx.Exec(q, userID).Error
}

func lockOne(tx *gorm.DB, model any, id int) error {
	var ids []int
	if err := tx.Model(model).Clauses(forUpdate).Where("id = ?", id).Pluck("id", &ids).Error; err != nil {
		return err
	}
	if len(ids) == 0 {
		return errors.Wrapf(ErrNotFound, "%T %d", model, id)
	}
	return nil
}

// lockSubtree expands roots to their reply trees and row-locks the result.
// A reply inserted after the expansion makes the final delete fail on the
// parent foreign key, which is reported as a conflict and retried.
func lockSubtree(tx *gorm.DB, roots []int) ([]int, error) {
	if len(roots) == 0 {
		return nil, nil
	}
	var ids []int
	if err := tx.Raw(commentSubtree, roots).Scan(&ids).Error; err != nil {
		return nil, err
	}
	var locked []int
	if err := tx.Model(&models.Comment{}).
		Clauses(forUpdate).
		Where("id IN ?", ids).
		Pluck("id", &locked).Error; err != nil {
		return nil, err
	}
	return locked, nil
}

// deleteIn deletes rows whose column is in ids. An empty ids list deletes
// nothing and issues no statement.
func deleteIn(tx *gorm.DB, model any, column string, ids []int) *gorm.DB {
	if len(ids) == 0 {
		return nil
	}
	return tx.Where(column+" IN ?", ids).Delete(model)
}

// step is one delete in a cascade; run returns nil when there is nothing to do.
type step struct {
	n   *int64
	run func() *gorm.DB
}

// runSteps executes the deletes in order and stops at the first error.
func runSteps(steps []step) error {
	for _, st := range steps {
		res := st.run()
		if res == nil {
			continue
		}
		if res.Error != nil {
			return res.Error
		}
		*st.n = res.RowsAffected
	}
	return nil
}
