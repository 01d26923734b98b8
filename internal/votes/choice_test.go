package votes

import (
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/campus-forum/backend/internal/models"
)

func voteType(t models.VoteType) *models.VoteType { return &t }

func TestTransition(t *testing.T) {
	tests := []struct {
		name      string
		existing  *models.VoteType
		requested Choice
		mutation  Mutation
		delta     int
	}{
		{"none remove", nil, Remove, NoChange, 0},
		{"none up", nil, Up, Insert, 1},
		{"none down", nil, Down, Insert, -1},
		{"up remove", voteType(models.VoteUp), Remove, Delete, -1},
		{"down remove", voteType(models.VoteDown), Remove, Delete, 1},
		{"up up", voteType(models.VoteUp), Up, NoChange, 0},
		{"down down", voteType(models.VoteDown), Down, NoChange, 0},
		{"up down", voteType(models.VoteUp), Down, Update, -2},
		{"down up", voteType(models.VoteDown), Up, Update, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mutation, delta := Transition(tt.existing, tt.requested)
			assert.Equal(t, tt.mutation, mutation)
			assert.Equal(t, tt.delta, delta)
		})
	}
}

// Replaying random choices through Transition must keep the running total
// equal to the value of the final ledger state.
func TestTransitionKeepsTallyInStep(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	choices := []Choice{Up, Down, Remove}

	for run := 0; run < 200; run++ {
		var (
			existing *models.VoteType
			tally    int
		)
		for i := 0; i < 20; i++ {
			c := choices[rng.Intn(len(choices))]
			m, delta := Transition(existing, c)
			tally += delta

			switch m {
			case Insert, Update:
				existing = voteType(c.voteType())
			case Delete:
				existing = nil
			}

			want := 0
			if existing != nil {
				want = existing.Value()
			}
			require.Equal(t, want, tally, "run %d step %d", run, i)
		}
	}
}

func TestParseChoice(t *testing.T) {
	for _, s := range []string{"upvote", "downvote", "remove"} {
		c, err := ParseChoice(s)
		require.NoError(t, err)
		assert.Equal(t, Choice(s), c)
	}

	for _, s := range []string{"", "UPVOTE", "up", "like"} {
		_, err := ParseChoice(s)
		assert.True(t, errors.Is(err, ErrBadRequest), "input %q", s)
	}
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("post")
	require.NoError(t, err)
	assert.Equal(t, KindPost, k)

	k, err = ParseKind("comments")
	require.NoError(t, err)
	assert.Equal(t, KindComment, k)

	_, err = ParseKind("user")
	assert.True(t, errors.Is(err, ErrBadRequest))

	_, err = Kind(9).spec()
	assert.True(t, errors.Is(err, ErrBadRequest))
}

func TestMutationString(t *testing.T) {
	assert.Equal(t, "none", NoChange.String())
	assert.Equal(t, "insert", Insert.String())
	assert.Equal(t, "update", Update.String())
	assert.Equal(t, "delete", Delete.String())
}
