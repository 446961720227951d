package user

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"blog/pkg/common"
)

// MemoryRepo keeps users in process memory. It is not durable and
// serves a single process only.
type MemoryRepo struct {
	mu     sync.RWMutex
	lastId int64
	users  map[string]*User
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{users: map[string]*User{}}
}

func (r *MemoryRepo) Add(_ context.Context, u *User) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.existsLocked(u.Username, u.Email, "") {
		return ``, fmt.Errorf("user/memory: user wasn't added: %w", common.ErrConflict)
	}
	r.lastId++
	u.Id = strconv.FormatInt(r.lastId, 10)
	u.Created = time.Now()
	stored := *u
	r.users[u.Id] = &stored
	return u.Id, nil
}

func (r *MemoryRepo) Exists(_ context.Context, username, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.existsLocked(username, email, ""), nil
}

func (r *MemoryRepo) existsLocked(username, email, exceptId string) bool {
	for id, u := range r.users {
		if id == exceptId {
			continue
		}
		if u.Username == username || (email != "" && u.Email == email) {
			return true
		}
	}
	return false
}

func (r *MemoryRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	return r.find(func(u *User) bool { return u.Email == email })
}

func (r *MemoryRepo) GetByUsername(_ context.Context, username string) (*User, error) {
	return r.find(func(u *User) bool { return u.Username == username })
}

func (r *MemoryRepo) GetById(_ context.Context, uid string) (*User, error) {
	return r.find(func(u *User) bool { return u.Id == uid })
}

func (r *MemoryRepo) find(match func(*User) bool) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if match(u) {
			found := *u
			return &found, nil
		}
	}
	return nil, fmt.Errorf("user/memory: %w", common.ErrNotFound)
}

func (r *MemoryRepo) GetByIds(_ context.Context, ids []string) ([]*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := []*User{}
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			found := *u
			users = append(users, &found)
		}
	}
	return users, nil
}

func (r *MemoryRepo) UpdateProfile(_ context.Context, uid string, upd ProfileUpdate) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[uid]
	if !ok {
		return nil, fmt.Errorf("user/memory: %w", common.ErrNotFound)
	}
	if upd.Username != nil {
		if r.existsLocked(*upd.Username, "", uid) {
			return nil, fmt.Errorf("user/memory: profile wasn't updated: %w", common.ErrConflict)
		}
		u.Username = *upd.Username
	}
	if upd.Avatar != nil {
		u.Avatar = *upd.Avatar
	}
	updated := *u
	return &updated, nil
}

func (r *MemoryRepo) GetAll(_ context.Context) ([]*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := make([]*User, 0, len(r.users))
	for _, u := range r.users {
		found := *u
		users = append(users, &found)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Created.Before(users[j].Created) })
	return users, nil
}
