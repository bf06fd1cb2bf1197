package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"seungpyo.lee/MemoryJournal/pkg/apperr"
	"seungpyo.lee/MemoryJournal/services/post-service/internal/domain"
)

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new PostRepository with the given GORM DB instance.
func NewPostRepository(db *gorm.DB) domain.PostRepository {
	return &postRepository{db: db}
}

// Create inserts the post row, then its images in one batch, inside a single transaction.
func (r *postRepository) Create(ctx context.Context, post *domain.Post) error {
	images := post.Images
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(post).Error; err != nil {
			return fmt.Errorf("failed to create post: %w", err)
		}
		if len(images) == 0 {
			return nil
		}
		rows := make([]domain.Image, len(images))
		for i, img := range images {
			rows[i] = domain.Image{URL: img.URL, PostID: post.ID}
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to create images: %w", err)
		}
		post.Images = rows
		return nil
	})
	return err
}

// GetByID retrieves a post with its images and creator.
func (r *postRepository) GetByID(ctx context.Context, id uint) (*domain.Post, error) {
	return r.getByID(r.db.WithContext(ctx), id)
}

func (r *postRepository) getByID(db *gorm.DB, id uint) (*domain.Post, error) {
	var post domain.Post
	err := db.Preload("Images", func(db *gorm.DB) *gorm.DB {
		return db.Order("images.id ASC")
	}).Preload("CreatedBy").First(&post, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return &post, nil
}

// List returns all posts, newest first.
func (r *postRepository) List(ctx context.Context) ([]domain.Post, error) {
	var posts []domain.Post
	err := r.db.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("images.id ASC")
		}).
		Preload("CreatedBy").
		Order("created_at DESC").
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}

// Update overwrites the text and date columns and, when images is non-empty,
// deletes the current image set before inserting the new one.
func (r *postRepository) Update(ctx context.Context, id uint, fields domain.PostFields, images []string) (*domain.Post, error) {
	var updated *domain.Post
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&domain.Post{}).Where("id = ?", id).Updates(map[string]interface{}{
			"title":       fields.Title,
			"description": fields.Description,
			"date_posted": fields.DatePosted,
		})
		if result.Error != nil {
			return fmt.Errorf("failed to update post: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return apperr.ErrNotFound
		}
		if len(images) > 0 {
			if err := tx.Where("post_id = ?", id).Delete(&domain.Image{}).Error; err != nil {
				return fmt.Errorf("failed to delete images: %w", err)
			}
			rows := domain.ImagesFor(id, images)
			if err := tx.Create(&rows).Error; err != nil {
				return fmt.Errorf("failed to create images: %w", err)
			}
		}
		post, err := r.getByID(tx, id)
		if err != nil {
			return err
		}
		updated = post
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the post's images and then the post.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&domain.Image{}).Error; err != nil {
			return fmt.Errorf("failed to delete images: %w", err)
		}
		result := tx.Delete(&domain.Post{}, id)
		if result.Error != nil {
			return fmt.Errorf("failed to delete post: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return apperr.ErrNotFound
		}
		return nil
	})
}
