package post

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blog/pkg/common"
)

func seedMemory(t *testing.T) *MemoryRepo {
	r := NewMemoryRepo()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	categories := []string{"Travel", "Food", "Travel", "Technology"}
	for i, c := range categories {
		_, err := r.Add(context.Background(), &Post{
			Id:       PostId(fmt.Sprint(i + 1)),
			Title:    fmt.Sprintf("post %d about %s", i+1, c),
			Content:  "content",
			AuthorId: "1",
			Category: c,
			Likes:    []string{},
			Created:  base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}
	return r
}

func TestMemoryViewsIncrementByOnePerCall(t *testing.T) {
	ctx := context.Background()
	r := seedMemory(t)

	before, err := r.GetById(ctx, "1")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := r.IncViews(ctx, "1")
		require.NoError(t, err)
	}
	after, err := r.GetById(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, before.Views+3, after.Views)

	_, err = r.IncViews(ctx, "404")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestMemoryToggleLikeIsInvolution(t *testing.T) {
	ctx := context.Background()
	r := seedMemory(t)

	p, liked, err := r.ToggleLike(ctx, "1", "u1")
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Len(t, p.Likes, 1)

	p, liked, err = r.ToggleLike(ctx, "1", "u1")
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Empty(t, p.Likes)
}

func TestMemoryConcurrentLikesFromDifferentUsers(t *testing.T) {
	ctx := context.Background()
	r := seedMemory(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, err := r.ToggleLike(ctx, "2", fmt.Sprint("u", i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	p, err := r.GetById(ctx, "2")
	require.NoError(t, err)
	assert.Len(t, p.Likes, 50)
}

func TestMemoryList(t *testing.T) {
	ctx := context.Background()
	r := seedMemory(t)

	t.Run("newest first without filter", func(t *testing.T) {
		posts, total, err := r.List(ctx, Filter{}, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		ids := []PostId{}
		for _, p := range posts {
			ids = append(ids, p.Id)
		}
		assert.Equal(t, []PostId{"4", "3", "2", "1"}, ids)
	})

	t.Run("category", func(t *testing.T) {
		posts, total, err := r.List(ctx, Filter{Category: "Travel"}, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		for _, p := range posts {
			assert.Equal(t, "Travel", p.Category)
		}
	})

	t.Run("search is case-insensitive", func(t *testing.T) {
		posts, _, err := r.List(ctx, Filter{Search: "FOOD"}, 1, 10)
		require.NoError(t, err)
		require.Len(t, posts, 1)
		assert.Equal(t, PostId("2"), posts[0].Id)
	})

	t.Run("pagination", func(t *testing.T) {
		posts, total, err := r.List(ctx, Filter{}, 2, 3)
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		require.Len(t, posts, 1)
		assert.Equal(t, PostId("1"), posts[0].Id)

		posts, _, err = r.List(ctx, Filter{}, 5, 3)
		require.NoError(t, err)
		assert.Empty(t, posts)

		posts, total, err = r.List(ctx, Filter{}, math.MaxInt, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		assert.Empty(t, posts)

		posts, _, err = r.List(ctx, Filter{}, 1, math.MaxInt)
		require.NoError(t, err)
		assert.Len(t, posts, 4)
	})
}

func TestMemoryUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	r := seedMemory(t)

	title := "X"
	p, err := r.Update(ctx, "1", &Update{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "X", p.Title)
	assert.Equal(t, "content", p.Content)
	assert.Equal(t, "Travel", p.Category)

	require.NoError(t, r.Delete(ctx, "1"))
	assert.ErrorIs(t, r.Delete(ctx, "1"), common.ErrNotFound)
	_, err = r.GetById(ctx, "1")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
