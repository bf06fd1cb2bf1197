// Package listing filters fetched posts by the month and year of their datePosted.
package listing

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"seungpyo.lee/MemoryJournal/pkg/apperr"
	"seungpyo.lee/MemoryJournal/pkg/datefmt"
	"seungpyo.lee/MemoryJournal/services/web-front/internal/adapter"
)

// AllMonths selects every month of the year.
const AllMonths = 0

type Filter struct {
	Month int // 1-12, or AllMonths
	Year  int
}

// ParseFilter reads month ("1".."12", "all" or empty) and year (empty means now's year).
func ParseFilter(month, year string, now time.Time) (Filter, error) {
	f := Filter{Month: AllMonths, Year: now.Year()}
	switch m := strings.TrimSpace(strings.ToLower(month)); m {
	case "", "all":
	default:
		n, err := strconv.Atoi(m)
		if err != nil || n < 1 || n > 12 {
			return Filter{}, apperr.Invalid("month", "must be 1-12 or all")
		}
		f.Month = n
	}
	if y := strings.TrimSpace(year); y != "" {
		n, err := strconv.Atoi(y)
		if err != nil || n < 1 {
			return Filter{}, apperr.Invalid("year", "must be a positive year")
		}
		f.Year = n
	}
	return f, nil
}

// Matches reports whether a datePosted string falls inside the filter.
// Unparseable dates never match.
func (f Filter) Matches(datePosted string) bool {
	t, err := datefmt.Parse(datePosted)
	if err != nil {
		return false
	}
	if t.Year() != f.Year {
		return false
	}
	return f.Month == AllMonths || int(t.Month()) == f.Month
}

// Apply returns a new slice with the posts that match f, in their original order.
func Apply(posts []adapter.Post, f Filter) []adapter.Post {
	out := make([]adapter.Post, 0, len(posts))
	for _, p := range posts {
		if f.Matches(p.DatePosted) {
			out = append(out, p)
		}
	}
	return out
}

// Lister fetches the full post list.
type Lister interface {
	GetUserPosts(ctx context.Context) ([]adapter.Post, error)
}

// View holds one fetched list and re-derives the visible posts whenever the
// list or the filter changes.
type View struct {
	posts   []adapter.Post
	filter  Filter
	visible []adapter.Post
}

func NewView(f Filter) *View {
	v := &View{filter: f}
	v.derive()
	return v
}

// Load fetches the list once.
func (v *View) Load(ctx context.Context, api Lister) error {
	posts, err := api.GetUserPosts(ctx)
	if err != nil {
		return fmt.Errorf("failed to load posts: %w", err)
	}
	v.SetPosts(posts)
	return nil
}

func (v *View) SetPosts(posts []adapter.Post) {
	v.posts = posts
	v.derive()
}

func (v *View) SetMonth(month int) {
	v.filter.Month = month
	v.derive()
}

func (v *View) SetYear(year int) {
	v.filter.Year = year
	v.derive()
}

func (v *View) Filter() Filter { return v.filter }

func (v *View) Posts() []adapter.Post { return v.posts }

func (v *View) Visible() []adapter.Post { return v.visible }

func (v *View) derive() {
	v.visible = Apply(v.posts, v.filter)
}

// Card is the listing's rendering of one post.
type Card struct {
	ID          uint     `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	DatePosted  string   `json:"datePosted"`
	DisplayDate string   `json:"displayDate"`
	Creator     string   `json:"creator"`
	Images      []string `json:"images"`
}

// Page is the JSON view model of the listing.
type Page struct {
	Month string `json:"month"`
	Year  int    `json:"year"`
	Total int    `json:"total"`
	Posts []Card `json:"posts"`
}

// Page renders the visible posts.
func (v *View) Page() Page {
	month := "all"
	if v.filter.Month != AllMonths {
		month = strconv.Itoa(v.filter.Month)
	}
	cards := make([]Card, 0, len(v.visible))
	for _, p := range v.visible {
		cards = append(cards, CardOf(p))
	}
	return Page{Month: month, Year: v.filter.Year, Total: len(v.posts), Posts: cards}
}

// CardOf renders a single post, degrading an unreadable date to a placeholder.
func CardOf(p adapter.Post) Card {
	creator := p.Creator.Name
	if creator == "" {
		creator = p.Creator.ID
	}
	return Card{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		DatePosted:  p.DatePosted,
		DisplayDate: datefmt.Display(p.DatePosted),
		Creator:     creator,
		Images:      p.ImageURLs(),
	}
}
