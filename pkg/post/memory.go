package post

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"blog/pkg/common"
)

// MemoryRepo keeps posts in process memory. It is not durable and serves
// a single process only.
type MemoryRepo struct {
	mu    sync.RWMutex
	posts map[PostId]*Post
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{posts: map[PostId]*Post{}}
}

func (r *MemoryRepo) Add(_ context.Context, p *Post) (PostId, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[p.Id]; ok {
		return PostId(``), fmt.Errorf("post/memory: post %s: %w", p.Id, common.ErrConflict)
	}
	r.posts[p.Id] = clonePost(p)
	return p.Id, nil
}

func (r *MemoryRepo) GetById(_ context.Context, id PostId) (*Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.posts[id]
	if !ok {
		return nil, fmt.Errorf("post/memory: post %s: %w", id, common.ErrNotFound)
	}
	return clonePost(p), nil
}

func (r *MemoryRepo) IncViews(_ context.Context, id PostId) (*Post, error) {
	return r.modify(id, func(p *Post) { p.Views++ })
}

func (r *MemoryRepo) Update(_ context.Context, id PostId, upd *Update) (*Post, error) {
	return r.modify(id, func(p *Post) {
		upd.Apply(p)
		p.Updated = time.Now()
	})
}

func (r *MemoryRepo) Delete(_ context.Context, id PostId) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[id]; !ok {
		return fmt.Errorf("post/memory: post %s: %w", id, common.ErrNotFound)
	}
	delete(r.posts, id)
	return nil
}

func (r *MemoryRepo) ToggleLike(_ context.Context, id PostId, userId string) (*Post, bool, error) {
	var liked bool
	p, err := r.modify(id, func(p *Post) {
		if p.HasLike(userId) {
			likes := make([]string, 0, len(p.Likes))
			for _, l := range p.Likes {
				if l != userId {
					likes = append(likes, l)
				}
			}
			p.Likes = likes
			return
		}
		p.Likes = append(p.Likes, userId)
		liked = true
	})
	if err != nil {
		return nil, false, err
	}
	return p, liked, nil
}

func (r *MemoryRepo) List(_ context.Context, f Filter, page, limit int) ([]*Post, int64, error) {
	r.mu.RLock()
	matched := []*Post{}
	for _, p := range r.posts {
		if matches(p, f) {
			matched = append(matched, clonePost(p))
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Created.After(matched[j].Created)
	})

	total := int64(len(matched))
	offset, ok := pageOffset(page, limit, total)
	if !ok || offset >= total {
		return []*Post{}, total, nil
	}
	end := total
	if int64(limit) < total-offset {
		end = offset + int64(limit)
	}
	return matched[offset:end], total, nil
}

func (r *MemoryRepo) modify(id PostId, fn func(*Post)) (*Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return nil, fmt.Errorf("post/memory: post %s: %w", id, common.ErrNotFound)
	}
	fn(p)
	return clonePost(p), nil
}

func matches(p *Post, f Filter) bool {
	if f.Category != "" && f.Category != CategoryAll && p.Category != f.Category {
		return false
	}
	if f.AuthorId != "" && p.AuthorId != f.AuthorId {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(p.Title), q) && !strings.Contains(strings.ToLower(p.Content), q) {
			return false
		}
	}
	return true
}

func clonePost(p *Post) *Post {
	c := *p
	c.Tags = append([]string{}, p.Tags...)
	c.Likes = append([]string{}, p.Likes...)
	c.Author = nil
	return &c
}
