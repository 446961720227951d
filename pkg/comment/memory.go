package comment

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"blog/pkg/common"
	"blog/pkg/post"
)

// MemoryRepo keeps comments in process memory. It is not durable and
// serves a single process only.
type MemoryRepo struct {
	mu       sync.RWMutex
	comments map[CommentId]*Comment
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{comments: map[CommentId]*Comment{}}
}

func (r *MemoryRepo) Add(_ context.Context, c *Comment) (CommentId, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.comments[c.Id]; ok {
		return CommentId(``), fmt.Errorf("comment/memory: comment %s: %w", c.Id, common.ErrConflict)
	}
	r.comments[c.Id] = cloneComment(c)
	return c.Id, nil
}

func (r *MemoryRepo) GetById(_ context.Context, id CommentId) (*Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.comments[id]
	if !ok {
		return nil, fmt.Errorf("comment/memory: comment %s: %w", id, common.ErrNotFound)
	}
	return cloneComment(c), nil
}

func (r *MemoryRepo) ListByPost(_ context.Context, postId post.PostId) ([]*Comment, error) {
	r.mu.RLock()
	res := []*Comment{}
	for _, c := range r.comments {
		if c.PostId == postId {
			res = append(res, cloneComment(c))
		}
	}
	r.mu.RUnlock()

	sort.Slice(res, func(i, j int) bool {
		if res[i].Created.Equal(res[j].Created) {
			return res[i].Id < res[j].Id
		}
		return res[i].Created.After(res[j].Created)
	})
	return res, nil
}

func (r *MemoryRepo) UpdateContent(_ context.Context, id CommentId, content string) (*Comment, error) {
	return r.modify(id, func(c *Comment) {
		c.Content = content
		c.Updated = time.Now()
	})
}

func (r *MemoryRepo) Delete(_ context.Context, id CommentId) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.comments[id]; !ok {
		return fmt.Errorf("comment/memory: comment %s: %w", id, common.ErrNotFound)
	}
	delete(r.comments, id)
	return nil
}

func (r *MemoryRepo) DeleteByPost(_ context.Context, postId post.PostId) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, c := range r.comments {
		if c.PostId == postId {
			delete(r.comments, id)
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepo) ToggleLike(_ context.Context, id CommentId, userId string) (*Comment, bool, error) {
	var liked bool
	c, err := r.modify(id, func(c *Comment) {
		if c.HasLike(userId) {
			likes := make([]string, 0, len(c.Likes))
			for _, l := range c.Likes {
				if l != userId {
					likes = append(likes, l)
				}
			}
			c.Likes = likes
			return
		}
		c.Likes = append(c.Likes, userId)
		liked = true
	})
	if err != nil {
		return nil, false, err
	}
	return c, liked, nil
}

func (r *MemoryRepo) modify(id CommentId, fn func(*Comment)) (*Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.comments[id]
	if !ok {
		return nil, fmt.Errorf("comment/memory: comment %s: %w", id, common.ErrNotFound)
	}
	fn(c)
	return cloneComment(c), nil
}

func cloneComment(c *Comment) *Comment {
	cc := *c
	cc.Likes = append([]string{}, c.Likes...)
	cc.Author = nil
	return &cc
}
