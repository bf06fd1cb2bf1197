package model

import "seungpyo.lee/MemoryJournal/services/post-service/internal/domain"

// CreatePostRequest represents the request payload for creating a new post
type CreatePostRequest struct {
	Title       string   `json:"title" binding:"required,min=1,max=380"`
	Description string   `json:"description" binding:"required,min=1,max=1000"`
	CreatedByID string   `json:"createdById" binding:"required"`
	DatePosted  string   `json:"datePosted" binding:"required,min=3,max=30"`
	Images      []string `json:"images" binding:"max=4,dive,url"`
}

// UpdatePostRequest represents the request payload for updating an existing post
type UpdatePostRequest struct {
	Title       string   `json:"title" binding:"required,min=1,max=380"`
	Description string   `json:"description" binding:"required,min=1,max=1000"`
	DatePosted  string   `json:"datePosted" binding:"required,min=3,max=30"`
	Images      []string `json:"images" binding:"max=4,dive,url"`
}

// ToInput converts the request into service input.
func (r CreatePostRequest) ToInput() domain.PostInput {
	return domain.PostInput{
		Title:       r.Title,
		Description: r.Description,
		DatePosted:  r.DatePosted,
		CreatedByID: r.CreatedByID,
		Images:      r.Images,
	}
}

// ToInput converts the request into service input.
func (r UpdatePostRequest) ToInput() domain.PostInput {
	return domain.PostInput{
		Title:       r.Title,
		Description: r.Description,
		DatePosted:  r.DatePosted,
		Images:      r.Images,
	}
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
	Field string `json:"field,omitempty"`
}

// HelloResponse is the body of GET /hello.
type HelloResponse struct {
	Greeting string `json:"greeting"`
}
