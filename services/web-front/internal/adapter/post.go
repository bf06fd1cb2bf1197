package adapter

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"
)

type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Image struct {
	ID     uint   `json:"id"`
	URL    string `json:"url"`
	PostID uint   `json:"postId"`
}

// Owner is the createdBy field as it arrives on the wire: either a bare user
// id or an embedded user object.
type Owner struct {
	id   string
	user *User
}

// OwnerID builds an Owner holding only an id.
func OwnerID(id string) Owner { return Owner{id: id} }

// OwnerUser builds an Owner holding an embedded user.
func OwnerUser(u User) Owner { return Owner{user: &u} }

// Embedded returns the embedded user, if any.
func (o Owner) Embedded() (User, bool) {
	if o.user == nil {
		return User{}, false
	}
	return *o.user, true
}

// ID returns the owner's id in either shape.
func (o Owner) ID() string {
	if o.user != nil {
		return o.user.ID
	}
	return o.id
}

// Resolve collapses the variant into a User, using fallbackID when the wire carried nothing.
func (o Owner) Resolve(fallbackID string) User {
	if u, ok := o.Embedded(); ok {
		if u.ID == "" {
			u.ID = fallbackID
		}
		return u
	}
	if o.id != "" {
		return User{ID: o.id}
	}
	return User{ID: fallbackID}
}

func (o *Owner) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*o = Owner{}
		return nil
	case len(data) > 0 && data[0] == '"':
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*o = OwnerID(id)
		return nil
	case len(data) > 0 && data[0] == '{':
		var u User
		if err := json.Unmarshal(data, &u); err != nil {
			return err
		}
		*o = OwnerUser(u)
		return nil
	}
	return errors.New("createdBy must be a string id or a user object")
}

func (o Owner) MarshalJSON() ([]byte, error) {
	if o.user != nil {
		return json.Marshal(o.user)
	}
	if o.id == "" {
		return []byte("null"), nil
	}
	return json.Marshal(o.id)
}

// Post is the single shape view logic sees. Creator is always resolved.
type Post struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DatePosted  string    `json:"datePosted"`
	CreatedByID string    `json:"createdById"`
	CouplesID   string    `json:"couplesId"`
	Images      []Image   `json:"images"`
	Creator     User      `json:"creator"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ImageURLs returns the post's image URLs in stored order.
func (p Post) ImageURLs() []string {
	urls := make([]string, len(p.Images))
	for i, img := range p.Images {
		urls[i] = img.URL
	}
	return urls
}

// wirePost is the post-service response body.
type wirePost struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DatePosted  string    `json:"datePosted"`
	CreatedByID string    `json:"createdById"`
	CreatedBy   Owner     `json:"createdBy"`
	CouplesID   string    `json:"couplesId"`
	Images      []Image   `json:"images"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (w wirePost) resolve() Post {
	images := w.Images
	if images == nil {
		images = []Image{}
	}
	return Post{
		ID:          w.ID,
		Title:       w.Title,
		Description: w.Description,
		DatePosted:  w.DatePosted,
		CreatedByID: w.CreatedByID,
		CouplesID:   w.CouplesID,
		Images:      images,
		Creator:     w.CreatedBy.Resolve(w.CreatedByID),
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}
}

// PostInput is the body of create and update.
type PostInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	CreatedByID string   `json:"createdById,omitempty"`
	DatePosted  string   `json:"datePosted"`
	Images      []string `json:"images"`
}
