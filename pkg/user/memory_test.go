package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blog/pkg/common"
)

func TestMemoryRepo(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()

	pike := &User{Username: "pike", Email: "pike@example.com", Password: hashedPass}
	id, err := r.Add(ctx, pike)
	require.NoError(t, err)
	assert.Equal(t, "1", id)
	assert.False(t, pike.Created.IsZero())

	t.Run("duplicate username or email is a conflict", func(t *testing.T) {
		_, err := r.Add(ctx, &User{Username: "pike", Email: "other@example.com"})
		assert.ErrorIs(t, err, common.ErrConflict)
		_, err = r.Add(ctx, &User{Username: "other", Email: "pike@example.com"})
		assert.ErrorIs(t, err, common.ErrConflict)

		all, err := r.GetAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("lookups", func(t *testing.T) {
		u, err := r.GetByEmail(ctx, "pike@example.com")
		require.NoError(t, err)
		assert.Equal(t, id, u.Id)

		u, err = r.GetByUsername(ctx, "pike")
		require.NoError(t, err)
		assert.Equal(t, id, u.Id)

		_, err = r.GetById(ctx, "404")
		assert.ErrorIs(t, err, common.ErrNotFound)

		users, err := r.GetByIds(ctx, []string{id, "404"})
		require.NoError(t, err)
		assert.Len(t, users, 1)
	})

	t.Run("update profile", func(t *testing.T) {
		_, err := r.Add(ctx, &User{Username: "rob", Email: "rob@example.com"})
		require.NoError(t, err)

		taken := "rob"
		_, err = r.UpdateProfile(ctx, id, ProfileUpdate{Username: &taken})
		assert.ErrorIs(t, err, common.ErrConflict)

		ava := "https://example.com/a.png"
		u, err := r.UpdateProfile(ctx, id, ProfileUpdate{Avatar: &ava})
		require.NoError(t, err)
		assert.Equal(t, "pike", u.Username)
		assert.Equal(t, ava, u.Avatar)

		_, err = r.UpdateProfile(ctx, "404", ProfileUpdate{Avatar: &ava})
		assert.ErrorIs(t, err, common.ErrNotFound)
	})
}
