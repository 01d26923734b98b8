package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/emilythestrangee/campus-forum/backend/internal/middleware"
	"github.com/emilythestrangee/campus-forum/backend/internal/models"
	"github.com/emilythestrangee/campus-forum/backend/internal/votes"
)

type CommentHandler struct {
	db    *gorm.DB
	votes VoteService
	log   *zap.Logger
}

func NewCommentHandler(db *gorm.DB, votes VoteService, log *zap.Logger) *CommentHandler {
	return &CommentHandler{db: db, votes: votes, log: log}
}

func (h *CommentHandler) postExists(c *gin.Context, postID int) bool {
	var n int64
	if err := h.db.WithContext(c.Request.Context()).Model(&models.Post{}).
		Where("id = ?", postID).Count(&n).Error; err != nil {
		internalError(c, h.log, "failed to load post", err)
		return false
	}
	if n == 0 {
		fail(c, http.StatusNotFound, "Post not found")
		return false
	}
	return true
}

// GetComments returns all comments for a post, oldest first
func (h *CommentHandler) GetComments(c *gin.Context) {
	postID, ok := paramID(c, "id", "post")
	if !ok || !h.postExists(c, postID) {
		return
	}

	var comments []models.Comment
	if err := h.db.WithContext(c.Request.Context()).
		Where("post_id = ?", postID).
		Order("created_at asc").Order("id asc").
		Find(&comments).Error; err != nil {
		internalError(c, h.log, "failed to fetch comments", err)
		return
	}

	responses := make([]commentResponse, 0, len(comments))
	for i := range comments {
		responses = append(responses, newCommentResponse(&comments[i]))
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": responses, "total": len(responses)})
}

// CreateComment creates a new comment or reply on a post
func (h *CommentHandler) CreateComment(c *gin.Context) {
	postID, ok := paramID(c, "id", "post")
	if !ok {
		return
	}

	var input models.CreateCommentRequest
	if err := c.ShouldBindJSON(&input); err != nil || strings.TrimSpace(input.Content) == "" {
		fail(c, http.StatusBadRequest, "Content is required")
		return
	}

	author, ok := middleware.CurrentUser(c)
	if !ok {
		fail(c, http.StatusUnauthorized, "User not authenticated")
		return
	}

	if !h.postExists(c, postID) {
		return
	}

	// A reply must stay on the thread of its parent.
	if input.ParentCommentID != nil {
		var parent models.Comment
		err := h.db.WithContext(c.Request.Context()).Select("id", "post_id").
			First(&parent, *input.ParentCommentID).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			internalError(c, h.log, "failed to load parent comment", err)
			return
		}
		if err != nil || parent.PostID != postID {
			fail(c, http.StatusBadRequest, "Invalid parent comment")
			return
		}
	}

	comment := models.Comment{
		Content:         input.Content,
		PostID:          postID,
		AuthorID:        author.ID,
		AuthorName:      author.FullName,
		AuthorRole:      author.Role,
		ParentCommentID: input.ParentCommentID,
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&comment).Error; err != nil {
		// The post or parent was deleted since the checks above.
		if pgCode(err) == pgForeignKeyViolation {
			fail(c, http.StatusNotFound, "Post not found")
			return
		}
		internalError(c, h.log, "failed to create comment", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Comment created successfully",
		"data":    newCommentResponse(&comment),
	})
}

// DeleteComment deletes a comment, its replies and their votes (author or admin)
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	commentID, ok := paramID(c, "id", "comment")
	if !ok {
		return
	}

	user, ok := middleware.CurrentUser(c)
	if !ok {
		fail(c, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var comment models.Comment
	err := h.db.WithContext(c.Request.Context()).Select("id", "author_id").First(&comment, commentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		fail(c, http.StatusNotFound, "Comment not found")
		return
	}
	if err != nil {
		internalError(c, h.log, "failed to load comment", err)
		return
	}

	if comment.AuthorID != user.ID && user.Role != models.RoleAdmin {
		fail(c, http.StatusForbidden, "You can only delete your own comments")
		return
	}

	res, err := h.votes.DeleteComment(c.Request.Context(), commentID)
	if err != nil {
		respondStoreError(c, h.log, err, "Comment")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Comment deleted successfully",
		"data":    res,
	})
}

// VoteComment applies an upvote, downvote or removal to a comment
func (h *CommentHandler) VoteComment(c *gin.Context) {
	castVote(c, h.votes, h.log, votes.KindComment, "Comment")
}
