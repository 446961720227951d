package post

import (
	"strings"
	"time"
	"unicode/utf8"

	"blog/pkg/common"
	"blog/pkg/user"
)

const (
	CategoryOther  = "Other"
	CategoryAll    = "All"
	MaxTitleLength = 200
)

var Categories = []string{"Technology", "Travel", "Food", "Lifestyle", "Health", "Business", CategoryOther}

type PostId string

type Post struct {
	Id       PostId   `json:"id" bson:"id"`
	Title    string   `json:"title" bson:"title"`
	Content  string   `json:"content" bson:"content"`
	AuthorId string   `json:"authorId" bson:"authorId"`
	Image    string   `json:"image" bson:"image"`
	Category string   `json:"category" bson:"category"`
	Tags     []string `json:"tags" bson:"tags"`
	Likes    []string `json:"likes" bson:"likes"`
	Views    int      `json:"views" bson:"views"`

	Created time.Time `json:"created" bson:"created"`
	Updated time.Time `json:"updated" bson:"updated"`

	// Filled on the way out, never stored.
	Author     *user.Summary `json:"author" bson:"-"`
	LikesCount int           `json:"likesCount" bson:"-"`
}

// NewPost is the client payload for creating a post.
type NewPost struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Image    string   `json:"image"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}

// Update is the client payload for a partial post update. Nil fields
// keep their stored values; an empty Image clears the image.
type Update struct {
	Title    *string   `json:"title"`
	Content  *string   `json:"content"`
	Image    *string   `json:"image"`
	Category *string   `json:"category"`
	Tags     *[]string `json:"tags"`
}

type Filter struct {
	Search   string
	Category string
	AuthorId string
}

type Page struct {
	Posts       []*Post `json:"posts"`
	TotalPages  int     `json:"totalPages"`
	CurrentPage int     `json:"currentPage"`
	TotalPosts  int64   `json:"totalPosts"`
}

func (p *Post) HasLike(userId string) bool {
	for _, id := range p.Likes {
		if id == userId {
			return true
		}
	}
	return false
}

// Validate trims the payload and fills defaults.
func (np *NewPost) Validate() error {
	np.Title = strings.TrimSpace(np.Title)
	np.Content = strings.TrimSpace(np.Content)
	if err := validateTitle(np.Title); err != nil {
		return err
	}
	if np.Content == "" {
		return common.Validationf("content is required")
	}
	category, err := normalizeCategory(np.Category)
	if err != nil {
		return err
	}
	np.Category = category
	np.Image = strings.TrimSpace(np.Image)
	np.Tags = normalizeTags(np.Tags)
	return nil
}

func (u *Update) Validate() error {
	if u.Title != nil {
		title := strings.TrimSpace(*u.Title)
		if err := validateTitle(title); err != nil {
			return err
		}
		u.Title = &title
	}
	if u.Content != nil {
		content := strings.TrimSpace(*u.Content)
		if content == "" {
			return common.Validationf("content can't be empty")
		}
		u.Content = &content
	}
	if u.Category != nil {
		category, err := normalizeCategory(*u.Category)
		if err != nil {
			return err
		}
		u.Category = &category
	}
	if u.Image != nil {
		image := strings.TrimSpace(*u.Image)
		u.Image = &image
	}
	if u.Tags != nil {
		tags := normalizeTags(*u.Tags)
		u.Tags = &tags
	}
	return nil
}

// Apply copies the supplied fields onto p.
func (u *Update) Apply(p *Post) {
	if u.Title != nil {
		p.Title = *u.Title
	}
	if u.Content != nil {
		p.Content = *u.Content
	}
	if u.Image != nil {
		p.Image = *u.Image
	}
	if u.Category != nil {
		p.Category = *u.Category
	}
	if u.Tags != nil {
		p.Tags = *u.Tags
	}
}

func validateTitle(title string) error {
	if title == "" {
		return common.Validationf("title is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return common.Validationf("title must be at most %d characters", MaxTitleLength)
	}
	return nil
}

func normalizeCategory(category string) (string, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return CategoryOther, nil
	}
	for _, c := range Categories {
		if strings.EqualFold(c, category) {
			return c, nil
		}
	}
	return "", common.Validationf("unknown category %q", category)
}

func normalizeTags(tags []string) []string {
	res := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if _, ok := seen[t]; ok || t == "" {
			continue
		}
		seen[t] = struct{}{}
		res = append(res, t)
	}
	return res
}

// NewPage computes the page counters for a listing.
func NewPage(posts []*Post, total int64, page, limit int) *Page {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return &Page{
		Posts:       posts,
		TotalPages:  totalPages,
		CurrentPage: page,
		TotalPosts:  total,
	}
}

// pageOffset returns how many posts precede the given page. ok is false
// when the page starts past total, so no (page-1)*limit product can
// overflow.
func pageOffset(page, limit int, total int64) (offset int64, ok bool) {
	if page < 1 || limit < 1 {
		return 0, false
	}
	if int64(page-1) > total/int64(limit) {
		return 0, false
	}
	return int64(page-1) * int64(limit), true
}
