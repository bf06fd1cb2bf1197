package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"seungpyo.lee/MemoryJournal/pkg/apperr"
)

// PostClient calls the post-service on behalf of one session token.
type PostClient struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

func NewPostClient(baseURL string, httpClient *http.Client) *PostClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &PostClient{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

// WithToken returns a copy of the client that authenticates as token.
func (c *PostClient) WithToken(token string) *PostClient {
	cp := *c
	cp.token = token
	return &cp
}

func (c *PostClient) Create(ctx context.Context, in PostInput) (*Post, error) {
	var w wirePost
	if err := c.do(ctx, http.MethodPost, "/posts", in, &w); err != nil {
		return nil, err
	}
	p := w.resolve()
	return &p, nil
}

func (c *PostClient) Update(ctx context.Context, id uint, in PostInput) (*Post, error) {
	in.CreatedByID = ""
	var w wirePost
	if err := c.do(ctx, http.MethodPut, postPath(id), in, &w); err != nil {
		return nil, err
	}
	p := w.resolve()
	return &p, nil
}

func (c *PostClient) GetByID(ctx context.Context, id uint) (*Post, error) {
	var w wirePost
	if err := c.do(ctx, http.MethodGet, postPath(id), nil, &w); err != nil {
		return nil, err
	}
	p := w.resolve()
	return &p, nil
}

// GetUserPosts fetches every post of the shared group, newest first.
func (c *PostClient) GetUserPosts(ctx context.Context) ([]Post, error) {
	var ws []wirePost
	if err := c.do(ctx, http.MethodGet, "/posts", nil, &ws); err != nil {
		return nil, err
	}
	posts := make([]Post, len(ws))
	for i, w := range ws {
		posts[i] = w.resolve()
	}
	return posts, nil
}

func (c *PostClient) Delete(ctx context.Context, id uint) error {
	return c.do(ctx, http.MethodDelete, postPath(id), nil, nil)
}

// Logout revokes the client's token on the post-service.
func (c *PostClient) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/session", nil, nil)
}

func postPath(id uint) string {
	return "/posts/" + strconv.FormatUint(uint64(id), 10)
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
	Field string `json:"field"`
}

func (c *PostClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return statusError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("invalid post-service response: %w", err)
	}
	return nil
}

// statusError maps a failed response onto the shared error taxonomy.
func statusError(resp *http.Response) error {
	var e errorResponse
	_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&e)
	switch resp.StatusCode {
	case http.StatusBadRequest:
		msg := e.Error
		if msg == "" {
			msg = "invalid request"
		}
		return &apperr.ValidationError{Field: e.Field, Message: msg}
	case http.StatusUnauthorized:
		return apperr.ErrUnauthenticated
	case http.StatusNotFound:
		return apperr.ErrNotFound
	}
	return fmt.Errorf("post-service returned status %d: %s", resp.StatusCode, e.Error)
}
