package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/GoArmGo/CampusEvents/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsers(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	alice := &domain.User{Username: "alice", Email: "shared@example.com", PasswordHash: "h"}
	require.NoError(t, s.CreateUser(ctx, alice))
	assert.NotEqual(t, uuid.Nil, alice.ID)

	err := s.CreateUser(ctx, &domain.User{Username: "alice", Email: "other@example.com"})
	assert.True(t, errors.Is(err, domain.ErrConflict))

	time.Sleep(time.Millisecond)
	require.NoError(t, s.CreateUser(ctx, &domain.User{Username: "bob", Email: "shared@example.com"}))

	got, err := s.GetUserByEmail(ctx, "shared@example.com")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username, "earliest user wins on duplicate email")

	got, err = s.GetUserByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "h", got.PasswordHash)

	_, err = s.GetUserByUsername(ctx, "ghost")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestPostsLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	owner := &domain.User{Username: "alice", Email: "alice@example.com"}
	require.NoError(t, s.CreateUser(ctx, owner))

	p := &domain.Post{Name: "Jazz Night", Slug: "jazz-night", UserID: owner.ID, ImageKey: "k1"}
	require.NoError(t, s.CreatePost(ctx, p))

	err := s.CreatePost(ctx, &domain.Post{Name: "Other", Slug: "jazz-night", UserID: owner.ID})
	assert.True(t, errors.Is(err, domain.ErrConflict), "slug must be unique")

	all, err := s.ListPosts(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "alice", all[0].User.Username)
	assert.Empty(t, all[0].User.Email)

	mine, err := s.ListPostsByUser(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "alice@example.com", mine[0].User.Email)

	_, _, err = s.UpdateOwnedPost(ctx, p.ID, uuid.New(), domain.PostChanges{Name: "X", Slug: "x"})
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	updated, prev, err := s.UpdateOwnedPost(ctx, p.ID, owner.ID, domain.PostChanges{
		Name: "Jazz Night II", Slug: "jazz-night-ii", ReplaceImage: true, ImageKey: "k2",
	})
	require.NoError(t, err)
	assert.Equal(t, "k1", prev)
	assert.Equal(t, "k2", updated.ImageKey)
	require.NotNil(t, updated.User)
	assert.Equal(t, owner.ID, updated.User.ID)

	owned, err := s.OwnsPost(ctx, p.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, owned)
	owned, err = s.OwnsPost(ctx, p.ID, uuid.New())
	require.NoError(t, err)
	assert.False(t, owned)

	bySlug, err := s.ListPostsBySlug(ctx, "jazz-night")
	require.NoError(t, err)
	assert.Empty(t, bySlug)

	_, err = s.DeleteOwnedPost(ctx, p.ID, uuid.New())
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	deleted, err := s.DeleteOwnedPost(ctx, p.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, "k2", deleted.ImageKey)
	require.NotNil(t, deleted.User)
	assert.Equal(t, owner.ID, deleted.User.ID)

	owned, err = s.OwnsPost(ctx, p.ID, owner.ID)
	require.NoError(t, err)
	assert.False(t, owned, "deleted post has no owner")

	n, err := s.CountPosts(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestConcurrentCreateSameName(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	owner := uuid.New()

	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.CreatePost(ctx, &domain.Post{Name: "Jazz Night", Slug: "jazz-night", UserID: owner})
		}()
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		if err == nil {
			ok++
		} else {
			assert.True(t, errors.Is(err, domain.ErrConflict))
		}
	}
	assert.Equal(t, 1, ok)
}
