package votes

import (
	"github.com/pkg/errors"

	"github.com/emilythestrangee/campus-forum/backend/internal/models"
)

// Kind selects which target table and ledger a call works on.
type Kind int

const (
	KindPost Kind = iota + 1
	KindComment
)

// Kinds lists every target kind.
var Kinds = []Kind{KindPost, KindComment}

// ParseKind accepts "post" or "comment".
func ParseKind(s string) (Kind, error) {
	switch s {
	case "post", "posts":
		return KindPost, nil
	case "comment", "comments":
		return KindComment, nil
	}
	return 0, errors.Wrapf(ErrBadRequest, "unknown target kind %q", s)
}

func (k Kind) String() string {
	switch k {
	case KindPost:
		return "post"
	case KindComment:
		return "comment"
	default:
		return "unknown"
	}
}

// kindSpec is everything the shared routines need to know about a target kind.
type kindSpec struct {
	table       string
	ledgerTable string
	// foreignKey is the ledger column that references the target.
	foreignKey string
	target     func() any
	ledger     func() any
	newVote    func(userID, targetID int, t models.VoteType) any
}

var specs = map[Kind]kindSpec{
	KindPost: {
		table:       "posts",
		ledgerTable: "post_votes",
		foreignKey:  "post_id",
		target:      func() any { return &models.Post{} },
		ledger:      func() any { return &models.PostVote{} },
		newVote: func(userID, targetID int, t models.VoteType) any {
			return &models.PostVote{UserID: userID, PostID: targetID, Type: t}
		},
	},
	KindComment: {
		table:       "comments",
		ledgerTable: "comment_votes",
		foreignKey:  "comment_id",
		target:      func() any { return &models.Comment{} },
		ledger:      func() any { return &models.CommentVote{} },
		newVote: func(userID, targetID int, t models.VoteType) any {
			return &models.CommentVote{UserID: userID, CommentID: targetID, Type: t}
		},
	},
}

func (k Kind) spec() (kindSpec, error) {
	s, ok := specs[k]
	if !ok {
		return kindSpec{}, errors.Wrapf(ErrBadRequest, "unknown target kind %d", int(k))
	}
	return s, nil
}
