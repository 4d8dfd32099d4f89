package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/zenon0777/payever-backend-assessment/internal/cache"
	"github.com/zenon0777/payever-backend-assessment/internal/directory"
	"github.com/zenon0777/payever-backend-assessment/internal/domain"
	"github.com/zenon0777/payever-backend-assessment/internal/repository"
)

type fakeUserRepo struct {
	mu      sync.Mutex
	byEmail map[string]*domain.User
	err     error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byEmail: make(map[string]*domain.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if _, ok := r.byEmail[user.Email]; ok {
		return repository.ErrEmailExists
	}
	user.ID = uuid.New().String()
	user.CreatedAt = time.Now()
	r.byEmail[user.Email] = user
	return nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byEmail[email]; ok {
		return u, nil
	}
	return nil, repository.ErrUserNotFound
}

type fakeAvatarRepo struct {
	mu        sync.Mutex
	byUser    map[string]*domain.Avatar
	createErr error
	creates   atomic.Int32

	// racer, when set, is stored just before Create runs, as if another
	// instance won the insert.
	racer *domain.Avatar
}

func newFakeAvatarRepo() *fakeAvatarRepo {
	return &fakeAvatarRepo{byUser: make(map[string]*domain.Avatar)}
}

func (r *fakeAvatarRepo) Create(_ context.Context, avatar *domain.Avatar) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creates.Add(1)
	if r.createErr != nil {
		return r.createErr
	}
	if r.racer != nil {
		r.byUser[r.racer.UserID] = r.racer
	}
	if _, ok := r.byUser[avatar.UserID]; ok {
		return repository.ErrAvatarExists
	}
	avatar.ID = uuid.New().String()
	avatar.CreatedAt = time.Now()
	r.byUser[avatar.UserID] = avatar
	return nil
}

func (r *fakeAvatarRepo) GetByUserID(_ context.Context, userID string) (*domain.Avatar, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.byUser[userID]; ok {
		return a, nil
	}
	return nil, repository.ErrAvatarNotFound
}

func (r *fakeAvatarRepo) DeleteByUserID(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byUser[userID]; !ok {
		return repository.ErrAvatarNotFound
	}
	delete(r.byUser, userID)
	return nil
}

func (r *fakeAvatarRepo) put(avatar *domain.Avatar) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byUser[avatar.UserID] = avatar
}

func (r *fakeAvatarRepo) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byUser)
}

type fakeDirectory struct {
	users      map[string]string
	images     map[string][]byte
	userErr    error
	fetchErr   error
	gets       atomic.Int32
	fetches    atomic.Int32
	fetchDelay time.Duration
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		users:  make(map[string]string),
		images: make(map[string][]byte),
	}
}

func (d *fakeDirectory) addUser(id string, img []byte) {
	url := "https://img.example/" + id + ".jpg"
	d.users[id] = url
	d.images[url] = img
}

func (d *fakeDirectory) GetUser(_ context.Context, userID string) (*domain.DirectoryUser, error) {
	d.gets.Add(1)
	if d.userErr != nil {
		return nil, d.userErr
	}
	url, ok := d.users[userID]
	if !ok {
		return nil, directory.ErrUserNotFound
	}
	data := domain.DirectoryUserData{Email: userID + "@reqres.in", Avatar: url}
	raw, _ := json.Marshal(map[string]any{"data": data})
	return &domain.DirectoryUser{Raw: raw, Data: data}, nil
}

func (d *fakeDirectory) FetchAvatar(_ context.Context, url string) ([]byte, error) {
	d.fetches.Add(1)
	if d.fetchDelay > 0 {
		time.Sleep(d.fetchDelay)
	}
	if d.fetchErr != nil {
		return nil, d.fetchErr
	}
	img, ok := d.images[url]
	if !ok {
		return nil, &directory.StatusError{Code: 404, URL: url}
	}
	return img, nil
}

type fakeSender struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (s *fakeSender) SendWelcome(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, email)
	return nil
}

type fakePublisher struct {
	mu        sync.Mutex
	published []*domain.User
	err       error
}

func (p *fakePublisher) PublishUserCreated(_ context.Context, user *domain.User) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, user)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published)
}

type fakeCache struct {
	mu     sync.Mutex
	items  map[string]*domain.Avatar
	getErr error
}

func newFakeCache() *fakeCache {
	return &fakeCache{items: make(map[string]*domain.Avatar)}
}

func (c *fakeCache) Get(_ context.Context, userID string) (*domain.Avatar, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	if a, ok := c.items[userID]; ok {
		return a, nil
	}
	return nil, cache.ErrCacheMiss
}

func (c *fakeCache) Set(_ context.Context, avatar *domain.Avatar, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[avatar.UserID] = avatar
	return nil
}

func (c *fakeCache) Delete(_ context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, userID)
	return nil
}

func (c *fakeCache) Close() error { return nil }

var errBoom = errors.New("boom")

// pausingAvatarRepo blocks the first GetByUserID after it has read the
// record until resume is closed.
type pausingAvatarRepo struct {
	*fakeAvatarRepo
	once   sync.Once
	paused chan struct{}
	resume chan struct{}
}

func newPausingAvatarRepo(inner *fakeAvatarRepo) *pausingAvatarRepo {
	return &pausingAvatarRepo{
		fakeAvatarRepo: inner,
		paused:         make(chan struct{}),
		resume:         make(chan struct{}),
	}
}

func (r *pausingAvatarRepo) GetByUserID(ctx context.Context, userID string) (*domain.Avatar, error) {
	avatar, err := r.fakeAvatarRepo.GetByUserID(ctx, userID)
	r.once.Do(func() {
		close(r.paused)
		<-r.resume
	})
	return avatar, err
}
