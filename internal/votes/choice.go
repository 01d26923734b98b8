// Package votes keeps the denormalized vote_count on posts and comments in
// step with the per-user vote ledger, and owns the cascades that remove
// ledger rows together with the content they point at.
package votes

import (
	"github.com/pkg/errors"

	"github.com/emilythestrangee/campus-forum/backend/internal/models"
)

// Choice is what a voter asks for. The values match the request body.
type Choice string

const (
	Up     Choice = "upvote"
	Down   Choice = "downvote"
	Remove Choice = "remove"
)

// ParseChoice validates a request value.
func ParseChoice(s string) (Choice, error) {
	switch c := Choice(s); c {
	case Up, Down, Remove:
		return c, nil
	}
	return "", errors.Wrapf(ErrBadRequest, "vote type must be upvote, downvote or remove, got %q", s)
}

func (c Choice) valid() bool {
	return c == Up || c == Down || c == Remove
}

// voteType is the ledger value for Up and Down. Remove has none.
func (c Choice) voteType() models.VoteType {
	if c == Up {
		return models.VoteUp
	}
	return models.VoteDown
}

// Mutation is the ledger change a vote request needs.
type Mutation int

const (
	NoChange Mutation = iota
	Insert
	Update
	Delete
)

func (m Mutation) String() string {
	switch m {
	case Insert:
		return "insert"
	case Update:
		return "update"
	case Delete:
		return "delete"
	default:
		return "none"
	}
}

// Transition returns the ledger mutation and the tally delta for moving from
// the existing vote (nil when there is none) to the requested choice.
func Transition(existing *models.VoteType, requested Choice) (Mutation, int) {
	if existing == nil {
		switch requested {
		case Up:
			return Insert, 1
		case Down:
			return Insert, -1
		default:
			return NoChange, 0
		}
	}

	if requested == Remove {
		return Delete, -existing.Value()
	}
	want := requested.voteType()
	if want == *existing {
		return NoChange, 0
	}
	return Update, want.Value() - existing.Value()
}
