package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/emilythestrangee/campus-forum/backend/internal/auth"
	"github.com/emilythestrangee/campus-forum/backend/internal/models"
)

type seedUser struct {
	username, email, password, fullName string
	role                                models.Role
}

var seedUsers = []seedUser{
	{"admin", "admin@university.edu", "admin123", "Forum Administrator", models.RoleAdmin},
	{"teacher1", "teacher@university.edu", "teacher123", "Nguyen Van A", models.RoleTeacher},
	{"student1", "student@university.edu", "student123", "Tran Thi B", models.RoleStudent},
}

// Seed inserts demo accounts, two posts and a comment on each. Accounts are
// matched by email so running it twice is harmless; content is only created
// when the posts table is empty.
func Seed(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := make(map[models.Role]*models.User, len(seedUsers))
		for _, su := range seedUsers {
			hash, err := auth.HashPassword(su.password)
			if err != nil {
				return err
			}
			u := models.User{
				Username: su.username,
				Email:    su.email,
				Password: hash,
				FullName: su.fullName,
				Role:     su.role,
				IsActive: true,
				Avatar:   models.DefaultAvatar(su.fullName),
			}
			if err := tx.Where(models.User{Email: su.email}).FirstOrCreate(&u).Error; err != nil {
				return fmt.Errorf("seed user %s: %w", su.email, err)
			}
			users[su.role] = &u
		}

		var posts int64
		if err := tx.Model(&models.Post{}).Count(&posts).Error; err != nil {
			return err
		}
		if posts > 0 {
			return nil
		}

		admin, teacher, student := users[models.RoleAdmin], users[models.RoleTeacher], users[models.RoleStudent]
		welcome := models.Post{
			Title:      "Welcome to the university forum",
			Content:    "<p>This is the first post on the forum. Join the discussion and share what you know!</p>",
			Tags:       []string{"Announcement", "Welcome"},
			AuthorID:   admin.ID,
			AuthorName: admin.FullName,
			AuthorRole: admin.Role,
		}
		guide := models.Post{
			Title:      "How to get the most out of the forum",
			Content:    "<p>A short guide to using the forum effectively.</p>",
			Tags:       []string{"Guide", "Education"},
			AuthorID:   teacher.ID,
			AuthorName: teacher.FullName,
			AuthorRole: teacher.Role,
		}
		for _, p := range []*models.Post{&welcome, &guide} {
			if err := tx.Create(p).Error; err != nil {
				return fmt.Errorf("seed post: %w", err)
			}
		}

		comments := []models.Comment{
			{Content: "Thanks for setting this up!", PostID: welcome.ID},
			{Content: "Very helpful, thank you for sharing.", PostID: guide.ID},
		}
		for i := range comments {
			comments[i].AuthorID = student.ID
			comments[i].AuthorName = student.FullName
			comments[i].AuthorRole = student.Role
		}
		return tx.Create(&comments).Error
	})
}
