package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/emilythestrangee/campus-forum/backend/internal/middleware"
	"github.com/emilythestrangee/campus-forum/backend/internal/models"
	"github.com/emilythestrangee/campus-forum/backend/internal/votes"
)

const maxPageSize = 100

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type PostHandler struct {
	db    *gorm.DB
	votes VoteService
	log   *zap.Logger
}

func NewPostHandler(db *gorm.DB, votes VoteService, log *zap.Logger) *PostHandler {
	return &PostHandler{db: db, votes: votes, log: log}
}

// commentCounts returns the number of comments per post id.
func (h *PostHandler) commentCounts(ctx context.Context, posts []models.Post) (map[int]int64, error) {
	counts := make(map[int]int64, len(posts))
	if len(posts) == 0 {
		return counts, nil
	}
	ids := make([]int, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
	}

	var rows []struct {
		PostID int
		N      int64
	}
	err := h.db.WithContext(ctx).Model(&models.Comment{}).
		Select("post_id, COUNT(*) AS n").
		Where("post_id IN ?", ids).
		Group("post_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		counts[r.PostID] = r.N
	}
	return counts, nil
}

func (h *PostHandler) respondPosts(c *gin.Context, posts []models.Post, extra gin.H) {
	counts, err := h.commentCounts(c.Request.Context(), posts)
	if err != nil {
		internalError(c, h.log, "failed to count comments", err)
		return
	}

	responses := make([]postResponse, 0, len(posts))
	for i := range posts {
		responses = append(responses, newPostResponse(&posts[i], counts[posts[i].ID]))
	}

	body := gin.H{"success": true, "data": responses}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

// GetPosts returns one page of posts, newest first
func (h *PostHandler) GetPosts(c *gin.Context) {
	page := queryInt(c, "page", 1)
	limit := min(queryInt(c, "limit", 10), maxPageSize)

	var (
		posts []models.Post
		total int64
	)
	db := h.db.WithContext(c.Request.Context())
	if err := db.Model(&models.Post{}).Count(&total).Error; err != nil {
		internalError(c, h.log, "failed to count posts", err)
		return
	}
	if err := db.Order("created_at desc").Order("id desc").
		Offset((page - 1) * limit).Limit(limit).
		Find(&posts).Error; err != nil {
		internalError(c, h.log, "failed to fetch posts", err)
		return
	}

	h.respondPosts(c, posts, gin.H{"total": total, "page": page, "limit": limit})
}

// SearchPosts filters by keyword and tags. A post matches the tag filter
// when any requested tag is one of its tags.
func (h *PostHandler) SearchPosts(c *gin.Context) {
	keyword := strings.TrimSpace(c.Query("keyword"))
	var tags []string
	for _, t := range strings.Split(c.Query("tags"), ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}

	q := h.db.WithContext(c.Request.Context()).Model(&models.Post{})
	if keyword != "" {
		like := "%" + likeEscaper.Replace(keyword) + "%"
		q = q.Where("(title ILIKE ? OR content ILIKE ?)", like, like)
	}
	if len(tags) > 0 {
		anyTag := h.db.Where("tags @> ?::jsonb", datatypes.JSONSlice[string]{tags[0]})
		for _, t := range tags[1:] {
			anyTag = anyTag.Or("tags @> ?::jsonb", datatypes.JSONSlice[string]{t})
		}
		q = q.Where(anyTag)
	}

	switch c.DefaultQuery("sortBy", "newest") {
	case "oldest":
		q = q.Order("created_at asc")
	case "most_votes":
		q = q.Order("vote_count desc").Order("created_at desc")
	case "most_comments":
		q = q.Order("(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id) desc").Order("created_at desc")
	default:
		q = q.Order("created_at desc")
	}

	var posts []models.Post
	if err := q.Find(&posts).Error; err != nil {
		internalError(c, h.log, "failed to search posts", err)
		return
	}

	h.respondPosts(c, posts, gin.H{"total": len(posts)})
}

// GetPost returns a single post by ID with the ids of its voters
func (h *PostHandler) GetPost(c *gin.Context) {
	postID, ok := paramID(c, "id", "post")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var post models.Post
	err := h.db.WithContext(ctx).First(&post, postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		fail(c, http.StatusNotFound, "Post not found")
		return
	}
	if err != nil {
		internalError(c, h.log, "failed to load post", err)
		return
	}

	counts, err := h.commentCounts(ctx, []models.Post{post})
	if err != nil {
		internalError(c, h.log, "failed to count comments", err)
		return
	}

	var ledger []models.PostVote
	if err := h.db.WithContext(ctx).Select("user_id", "type").
		Where("post_id = ?", postID).Order("id").
		Find(&ledger).Error; err != nil {
		internalError(c, h.log, "failed to load votes", err)
		return
	}

	resp := newPostResponse(&post, counts[post.ID])
	for _, v := range ledger {
		if v.Type == models.VoteUp {
			resp.UpvotedBy = append(resp.UpvotedBy, v.UserID)
		} else {
			resp.DownvotedBy = append(resp.DownvotedBy, v.UserID)
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": resp})
}

// CreatePost creates a new post (PROTECTED - requires authentication)
func (h *PostHandler) CreatePost(c *gin.Context) {
	var input models.CreatePostRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		fail(c, http.StatusBadRequest, "Title and content are required")
		return
	}
	if strings.TrimSpace(input.Title) == "" || strings.TrimSpace(input.Content) == "" {
		fail(c, http.StatusBadRequest, "Title and content are required")
		return
	}

	author, ok := middleware.CurrentUser(c)
	if !ok {
		fail(c, http.StatusUnauthorized, "User not authenticated")
		return
	}

	post := models.Post{
		Title:      strings.TrimSpace(input.Title),
		Content:    input.Content,
		Tags:       normalizeTags(input.Tags),
		AuthorID:   author.ID,
		AuthorName: author.FullName,
		AuthorRole: author.Role,
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&post).Error; err != nil {
		if pgCode(err) == pgForeignKeyViolation {
			fail(c, http.StatusUnauthorized, "User not found")
			return
		}
		internalError(c, h.log, "failed to create post", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Post created successfully",
		"data":    newPostResponse(&post, 0),
	})
}

// DeletePost removes a post with its comments and votes (admin only)
func (h *PostHandler) DeletePost(c *gin.Context) {
	postID, ok := paramID(c, "id", "post")
	if !ok {
		return
	}

	res, err := h.votes.DeletePost(c.Request.Context(), postID)
	if err != nil {
		respondStoreError(c, h.log, err, "Post")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Post deleted successfully",
		"data":    res,
	})
}

// VotePost applies an upvote, downvote or removal to a post
func (h *PostHandler) VotePost(c *gin.Context) {
	castVote(c, h.votes, h.log, votes.KindPost, "Post")
}

// normalizeTags trims tags and drops empty and repeated ones.
func normalizeTags(in []string) datatypes.JSONSlice[string] {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, t := range in {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
