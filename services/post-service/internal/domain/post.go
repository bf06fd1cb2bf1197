package domain

import (
	"context"
	"net/url"
	"time"
	"unicode/utf8"

	"seungpyo.lee/MemoryJournal/pkg/apperr"
	"seungpyo.lee/MemoryJournal/pkg/datefmt"
	"seungpyo.lee/MemoryJournal/pkg/session"
)

const (
	MaxTitleLength       = 380
	MaxDescriptionLength = 1000
	MaxImages            = 4
)

// Post is a single dated memory with up to MaxImages images.
type Post struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Title       string    `json:"title" gorm:"type:varchar(380);not null"`
	Description string    `json:"description" gorm:"type:varchar(1000);not null"`
	DatePosted  string    `json:"datePosted" gorm:"type:varchar(30);not null"`
	CreatedByID string    `json:"createdById" gorm:"not null;index"`
	CreatedBy   *User     `json:"createdBy,omitempty" gorm:"foreignKey:CreatedByID"`
	CouplesID   string    `json:"couplesId" gorm:"not null;index"`
	Images      []Image   `json:"images" gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Image is a stored object URL attached to a post.
type Image struct {
	ID     uint   `json:"id" gorm:"primaryKey"`
	URL    string `json:"url" gorm:"not null"`
	PostID uint   `json:"postId" gorm:"not null;index"`
}

// PostInput carries the caller-controlled fields of create and update.
// CreatedByID is ignored by update.
type PostInput struct {
	Title       string
	Description string
	DatePosted  string
	CreatedByID string
	Images      []string
}

// PostFields are the columns update overwrites unconditionally.
type PostFields struct {
	Title       string
	Description string
	DatePosted  string
}

// Validate checks the length, date and image constraints shared by create and update.
func (in PostInput) Validate() error {
	if err := checkLength("title", in.Title, MaxTitleLength); err != nil {
		return err
	}
	if err := checkLength("description", in.Description, MaxDescriptionLength); err != nil {
		return err
	}
	if _, err := datefmt.Parse(in.DatePosted); err != nil {
		return apperr.Invalid("datePosted", "must be a valid day/month/year date")
	}
	if len(in.Images) > MaxImages {
		return apperr.Invalid("images", "at most %d images are allowed", MaxImages)
	}
	for _, raw := range in.Images {
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return apperr.Invalid("images", "%q is not an absolute URL", raw)
		}
	}
	return nil
}

// Fields returns the text and date columns of the input.
func (in PostInput) Fields() PostFields {
	return PostFields{Title: in.Title, Description: in.Description, DatePosted: in.DatePosted}
}

func checkLength(field, value string, max int) error {
	n := utf8.RuneCountInString(value)
	if n == 0 {
		return apperr.Invalid(field, "is required")
	}
	if n > max {
		return apperr.Invalid(field, "must be at most %d characters", max)
	}
	return nil
}

// ImagesFor builds Image rows for postID in the given order.
func ImagesFor(postID uint, urls []string) []Image {
	images := make([]Image, 0, len(urls))
	for _, u := range urls {
		images = append(images, Image{URL: u, PostID: postID})
	}
	return images
}

type PostRepository interface {
	// Create writes the post and then its images as one batch.
	Create(ctx context.Context, post *Post) error
	GetByID(ctx context.Context, id uint) (*Post, error)
	// List returns every post with images and creator, newest first.
	List(ctx context.Context) ([]Post, error)
	// Update overwrites fields and, when images is non-empty, replaces the image set.
	Update(ctx context.Context, id uint, fields PostFields, images []string) (*Post, error)
	// Delete removes the images of id and then the post.
	Delete(ctx context.Context, id uint) error
}

type PostService interface {
	Create(ctx context.Context, s session.Session, in PostInput) (*Post, error)
	Update(ctx context.Context, s session.Session, id uint, in PostInput) (*Post, error)
	GetByID(ctx context.Context, s session.Session, id uint) (*Post, error)
	GetUserPosts(ctx context.Context) ([]Post, error)
	Delete(ctx context.Context, s session.Session, id uint) error
	Hello(text string) string
	// SyncUser records the session's user so posts can reference it.
	SyncUser(ctx context.Context, s session.Session) error
}
