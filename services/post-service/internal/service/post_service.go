package service

import (
	"context"
	"errors"
	"fmt"

	"seungpyo.lee/MemoryJournal/pkg/apperr"
	"seungpyo.lee/MemoryJournal/pkg/logger"
	"seungpyo.lee/MemoryJournal/pkg/session"
	"seungpyo.lee/MemoryJournal/services/post-service/internal/domain"
)

type postService struct {
	postRepo domain.PostRepository
	userRepo domain.UserRepository
	log      *logger.Logger
}

// NewPostService creates a new PostService with the given repositories.
func NewPostService(postRepo domain.PostRepository, userRepo domain.UserRepository, log *logger.Logger) domain.PostService {
	return &postService{postRepo: postRepo, userRepo: userRepo, log: log}
}

// Create validates the input and stores a post owned by the caller's couple.
func (s *postService) Create(ctx context.Context, sess session.Session, in domain.PostInput) (*domain.Post, error) {
	if !sess.Authenticated() {
		return nil, apperr.ErrUnauthenticated
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if in.CreatedByID == "" {
		return nil, apperr.Invalid("createdById", "is required")
	}
	if _, err := s.userRepo.GetByID(ctx, in.CreatedByID); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, apperr.Invalid("createdById", "does not reference a known user")
		}
		return nil, fmt.Errorf("failed to check creator: %w", err)
	}
	post := &domain.Post{
		Title:       in.Title,
		Description: in.Description,
		DatePosted:  in.DatePosted,
		CreatedByID: in.CreatedByID,
		CouplesID:   sess.UserID,
		Images:      domain.ImagesFor(0, in.Images),
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}
	s.log.Infof("post %d created by %s with %d images", post.ID, post.CreatedByID, len(post.Images))
	return post, nil
}

// Update overwrites the post's fields and replaces its images when new ones are given.
func (s *postService) Update(ctx context.Context, sess session.Session, id uint, in domain.PostInput) (*domain.Post, error) {
	if !sess.Authenticated() {
		return nil, apperr.ErrUnauthenticated
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	post, err := s.postRepo.Update(ctx, id, in.Fields(), in.Images)
	if err != nil {
		return nil, fmt.Errorf("failed to update post %d: %w", id, err)
	}
	return post, nil
}

// GetByID returns a single post with its images.
func (s *postService) GetByID(ctx context.Context, sess session.Session, id uint) (*domain.Post, error) {
	if !sess.Authenticated() {
		return nil, apperr.ErrUnauthenticated
	}
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get post %d: %w", id, err)
	}
	return post, nil
}

// GetUserPosts returns every post of the deployment's shared group, newest first.
func (s *postService) GetUserPosts(ctx context.Context) ([]domain.Post, error) {
	posts, err := s.postRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get posts: %w", err)
	}
	return posts, nil
}

// Delete removes a post and its images.
func (s *postService) Delete(ctx context.Context, sess session.Session, id uint) error {
	if !sess.Authenticated() {
		return apperr.ErrUnauthenticated
	}
	if err := s.postRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete post %d: %w", id, err)
	}
	s.log.Infof("post %d deleted by %s", id, sess.UserID)
	return nil
}

// Hello echoes text back as a greeting.
func (s *postService) Hello(text string) string {
	return "Hello " + text
}

// SyncUser upserts the session's user.
func (s *postService) SyncUser(ctx context.Context, sess session.Session) error {
	if !sess.Authenticated() {
		return apperr.ErrUnauthenticated
	}
	if err := s.userRepo.Upsert(ctx, &domain.User{ID: sess.UserID, Name: sess.Name}); err != nil {
		return fmt.Errorf("failed to sync user %s: %w", sess.UserID, err)
	}
	return nil
}
