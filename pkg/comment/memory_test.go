package comment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blog/pkg/common"
)

func TestMemoryRepo(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, c := range []*Comment{
		{Id: "1", PostId: "p1", AuthorId: "a", Content: "first", Created: base},
		{Id: "2", PostId: "p1", ParentId: "1", AuthorId: "b", Content: "reply", Created: base.Add(time.Minute)},
		{Id: "3", PostId: "p2", AuthorId: "a", Content: "elsewhere", Created: base},
	} {
		_, err := r.Add(ctx, c)
		require.NoError(t, err, i)
	}

	t.Run("list is per post and newest first", func(t *testing.T) {
		got, err := r.ListByPost(ctx, "p1")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, CommentId("2"), got[0].Id)
		assert.Equal(t, CommentId("1"), got[1].Id)
	})

	t.Run("update content", func(t *testing.T) {
		c, err := r.UpdateContent(ctx, "1", "edited")
		require.NoError(t, err)
		assert.Equal(t, "edited", c.Content)
		assert.Equal(t, CommentId(""), c.ParentId)

		_, err = r.UpdateContent(ctx, "404", "edited")
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("toggle like twice restores membership", func(t *testing.T) {
		c, liked, err := r.ToggleLike(ctx, "2", "z")
		require.NoError(t, err)
		assert.True(t, liked)
		assert.Equal(t, []string{"z"}, c.Likes)

		c, liked, err = r.ToggleLike(ctx, "2", "z")
		require.NoError(t, err)
		assert.False(t, liked)
		assert.Empty(t, c.Likes)
	})

	t.Run("delete by post", func(t *testing.T) {
		n, err := r.DeleteByPost(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		got, err := r.ListByPost(ctx, "p1")
		require.NoError(t, err)
		assert.Empty(t, got)

		_, err = r.GetById(ctx, "3")
		assert.NoError(t, err)
	})
}
