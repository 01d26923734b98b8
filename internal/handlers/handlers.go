package handlers

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/emilythestrangee/campus-forum/backend/internal/auth"
)

// Handler combines all handler types
type Handler struct {
	Auth    *AuthHandler
	Post    *PostHandler
	Comment *CommentHandler
	User    *UserHandler
	Admin   *AdminHandler
}

// NewHandler creates a unified handler with all sub-handlers
func NewHandler(db *gorm.DB, votes VoteService, tokens *auth.TokenManager, log *zap.Logger) *Handler {
	log = log.Named("handlers")
	return &Handler{
		Auth:    NewAuthHandler(db, tokens, log),
		Post:    NewPostHandler(db, votes, log),
		Comment: NewCommentHandler(db, votes, log),
		User:    NewUserHandler(db, votes, log),
		Admin:   NewAdminHandler(votes, log),
	}
}
