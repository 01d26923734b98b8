package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/emilythestrangee/campus-forum/backend/internal/votes"
)

// AdminHandler exposes tally maintenance.
type AdminHandler struct {
	votes VoteService
	log   *zap.Logger
}

func NewAdminHandler(votes VoteService, log *zap.Logger) *AdminHandler {
	return &AdminHandler{votes: votes, log: log}
}

func (h *AdminHandler) kind(c *gin.Context) (votes.Kind, bool) {
	kind, err := votes.ParseKind(c.Param("kind"))
	if err != nil {
		fail(c, http.StatusBadRequest, "Kind must be post or comment")
		return 0, false
	}
	return kind, true
}

// ReconcileOne recomputes the vote count of one post or comment
func (h *AdminHandler) ReconcileOne(c *gin.Context) {
	kind, ok := h.kind(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id", kind.String())
	if !ok {
		return
	}

	count, err := h.votes.Reconcile(c.Request.Context(), id, kind)
	if err != nil {
		what := "Post"
		if kind == votes.KindComment {
			what = "Comment"
		}
		respondStoreError(c, h.log, err, what)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "votes": count})
}

// ReconcileKind recomputes every vote count of one kind
func (h *AdminHandler) ReconcileKind(c *gin.Context) {
	kind, ok := h.kind(c)
	if !ok {
		return
	}

	updated, err := h.votes.ReconcileAll(c.Request.Context(), kind)
	if err != nil {
		respondStoreError(c, h.log, err, "Target")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Vote counts reconciled",
		"data":    gin.H{"kind": kind.String(), "updated": updated},
	})
}
