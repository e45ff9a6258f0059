package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/GoArmGo/CampusEvents/internal/domain"
	"github.com/google/uuid"
)

// Store — хранилище пользователей и событий в памяти процесса.
// Реализует ports.UserStorage и ports.PostStorage с теми же
// ограничениями уникальности, что и схема PostgreSQL.
type Store struct {
	mu    sync.RWMutex
	users map[uuid.UUID]domain.User
	posts map[uuid.UUID]domain.Post
	now   func() time.Time
}

func NewStore() *Store {
	return &Store{
		users: make(map[uuid.UUID]domain.User),
		posts: make(map[uuid.UUID]domain.Post),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) CreateUser(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == user.Username {
			return domain.Conflict("Username already taken")
		}
	}

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := s.now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	s.users[user.ID] = *user
	return nil
}

func (s *Store) GetUserByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*domain.User, error) {
	return s.findUser(func(u domain.User) bool { return u.Username == username })
}

// GetUserByEmail возвращает самого раннего пользователя с таким email.
func (s *Store) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	return s.findUser(func(u domain.User) bool { return u.Email == email })
}

func (s *Store) findUser(match func(domain.User) bool) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found *domain.User
	for _, u := range s.users {
		if !match(u) {
			continue
		}
		if found == nil || u.CreatedAt.Before(found.CreatedAt) {
			u := u
			found = &u
		}
	}
	if found == nil {
		return nil, domain.ErrNotFound
	}
	return found, nil
}

func (s *Store) CreatePost(_ context.Context, post *domain.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.nameOrSlugTaken(post.Name, post.Slug, uuid.Nil) {
		return domain.Conflict("Event with this name already exists")
	}

	if post.ID == uuid.Nil {
		post.ID = uuid.New()
	}
	now := s.now()
	if post.CreatedAt.IsZero() {
		post.CreatedAt = now
	}
	post.UpdatedAt = now

	stored := *post
	stored.User = nil
	s.posts[stored.ID] = stored
	return nil
}

func (s *Store) ListPosts(_ context.Context) ([]domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(domain.Post) bool { return true }, false), nil
}

func (s *Store) CountPosts(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.posts)), nil
}

func (s *Store) ListPostsBySlug(_ context.Context, slug string) ([]domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(p domain.Post) bool { return p.Slug == slug }, false), nil
}

func (s *Store) ListPostsByUser(_ context.Context, userID uuid.UUID) ([]domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(p domain.Post) bool { return p.UserID == userID }, true), nil
}

func (s *Store) UpdateOwnedPost(_ context.Context, postID, userID uuid.UUID, c domain.PostChanges) (*domain.Post, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[postID]
	if !ok || p.UserID != userID {
		return nil, "", domain.ErrNotFound
	}
	if s.nameOrSlugTaken(c.Name, c.Slug, postID) {
		return nil, "", domain.Conflict("Event with this name already exists")
	}

	prevKey := p.ImageKey
	c.Apply(&p)
	p.UpdatedAt = s.now()
	s.posts[postID] = p

	out := p
	out.User = &domain.Owner{ID: p.UserID}
	return &out, prevKey, nil
}

func (s *Store) DeleteOwnedPost(_ context.Context, postID, userID uuid.UUID) (*domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[postID]
	if !ok || p.UserID != userID {
		return nil, domain.ErrNotFound
	}
	delete(s.posts, postID)
	p.User = &domain.Owner{ID: p.UserID}
	return &p, nil
}

func (s *Store) OwnsPost(_ context.Context, postID, userID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.posts[postID]
	return ok && p.UserID == userID, nil
}

// nameOrSlugTaken вызывается под блокировкой.
func (s *Store) nameOrSlugTaken(name, slug string, except uuid.UUID) bool {
	for id, p := range s.posts {
		if id == except {
			continue
		}
		if p.Name == name || p.Slug == slug {
			return true
		}
	}
	return false
}

// collect вызывается под блокировкой; порядок — от новых к старым.
func (s *Store) collect(match func(domain.Post) bool, withEmail bool) []domain.Post {
	out := make([]domain.Post, 0)
	for _, p := range s.posts {
		if !match(p) {
			continue
		}
		owner := &domain.Owner{ID: p.UserID}
		if u, ok := s.users[p.UserID]; ok {
			owner.Username = u.Username
			if withEmail {
				owner.Email = u.Email
			}
		}
		p.User = owner
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
