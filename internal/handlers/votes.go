package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/emilythestrangee/campus-forum/backend/internal/middleware"
	"github.com/emilythestrangee/campus-forum/backend/internal/models"
	"github.com/emilythestrangee/campus-forum/backend/internal/votes"
)

//go:generate mockgen -destination=mocks/mock_vote_service.go -package=mocks . VoteService

// VoteService is the part of the votes package the HTTP layer uses.
type VoteService interface {
	Vote(ctx context.Context, actorID, targetID int, kind votes.Kind, choice votes.Choice) (int, error)
	Reconcile(ctx context.Context, targetID int, kind votes.Kind) (int, error)
	ReconcileAll(ctx context.Context, kind votes.Kind) (int64, error)
	DeletePost(ctx context.Context, postID int) (votes.CascadeResult, error)
	DeleteComment(ctx context.Context, commentID int) (votes.CascadeResult, error)
	DeleteUser(ctx context.Context, userID int) (votes.CascadeResult, error)
}

var _ VoteService = (*votes.Service)(nil)

// castVote is shared by the post and comment vote routes.
func castVote(c *gin.Context, svc VoteService, log *zap.Logger, kind votes.Kind, what string) {
	targetID, ok := paramID(c, "id", what)
	if !ok {
		return
	}

	var req models.VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Vote type is required")
		return
	}
	choice, err := votes.ParseChoice(req.Type)
	if err != nil {
		fail(c, http.StatusBadRequest, "Vote type must be upvote, downvote or remove")
		return
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		fail(c, http.StatusUnauthorized, "User not authenticated")
		return
	}

	count, err := svc.Vote(c.Request.Context(), userID, targetID, kind, choice)
	if err != nil {
		respondStoreError(c, log, err, what)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "votes": count})
}

// respondStoreError maps an error from the votes package onto a status code.
func respondStoreError(c *gin.Context, log *zap.Logger, err error, what string) {
	switch {
	case errors.Is(err, votes.ErrBadRequest):
		fail(c, http.StatusBadRequest, "Invalid request")
	case errors.Is(err, votes.ErrUnauthorized):
		fail(c, http.StatusUnauthorized, "User not authenticated")
	case errors.Is(err, votes.ErrNotFound):
		fail(c, http.StatusNotFound, what+" not found")
	case errors.Is(err, votes.ErrConflict):
		fail(c, http.StatusConflict, "The request conflicted with a concurrent update, please retry")
	default:
		internalError(c, log, "votes operation failed", err)
	}
}
