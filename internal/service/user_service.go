package service

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/zenon0777/payever-backend-assessment/internal/audit"
	"github.com/zenon0777/payever-backend-assessment/internal/cache"
	"github.com/zenon0777/payever-backend-assessment/internal/domain"
	"github.com/zenon0777/payever-backend-assessment/internal/mq"
	"github.com/zenon0777/payever-backend-assessment/internal/notify"
	"github.com/zenon0777/payever-backend-assessment/internal/repository"
	"github.com/zenon0777/payever-backend-assessment/pkg/log"
	"github.com/zenon0777/payever-backend-assessment/pkg/storage"
)

var (
	ErrEmailExists    = errors.New("user with this email already exists")
	ErrUserNotFound   = errors.New("user not found")
	ErrAvatarNotFound = errors.New("avatar not found")
	ErrAvatarFetch    = errors.New("failed to fetch avatar")
	ErrEventPublish   = errors.New("failed to publish user event")
)

// Deps groups the collaborators of the user service.
type Deps struct {
	Users     repository.UserRepository
	Avatars   repository.AvatarRepository
	Directory DirectoryClient
	Storage   storage.Storage
	Notifier  notify.Sender
	Publisher mq.UserEventPublisher
	Cache     cache.AvatarCache
	CacheTTL  time.Duration
}

// userServiceImpl implements UserService interface.
type userServiceImpl struct {
	users     repository.UserRepository
	avatars   repository.AvatarRepository
	directory DirectoryClient
	storage   storage.Storage
	notifier  notify.Sender
	publisher mq.UserEventPublisher
	cache     cache.AvatarCache
	cacheTTL  time.Duration

	sf    singleflight.Group
	locks *keyLock
}

// NewUserService creates a new user service.
func NewUserService(d Deps) UserService {
	avatarCache := d.Cache
	if avatarCache == nil {
		avatarCache = cache.NoopAvatarCache{}
	}

	return &userServiceImpl{
		users:     d.Users,
		avatars:   d.Avatars,
		directory: d.Directory,
		storage:   d.Storage,
		notifier:  d.Notifier,
		publisher: d.Publisher,
		cache:     avatarCache,
		cacheTTL:  d.CacheTTL,
		locks:     newKeyLock(),
	}
}

// CreateUser registers a user, sends the welcome email and publishes
// user_created. A failed email is reported as an advisory.
func (s *userServiceImpl) CreateUser(ctx context.Context, req *domain.CreateUserRequest) (*domain.CreateUserResult, error) {
	l := log.Ctx(ctx)

	existing, err := s.users.GetByEmail(ctx, req.Email)
	if err == nil && existing != nil {
		return nil, ErrEmailExists
	}
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		l.Error().Err(err).Msg("failed to look up user by email")
		return nil, err
	}

	user := &domain.User{
		ExternalID: req.ID,
		Email:      req.Email,
		Name:       req.Name,
		Job:        req.Job,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, ErrEmailExists
		}
		l.Error().Err(err).Msg("failed to create user")
		return nil, err
	}

	result := &domain.CreateUserResult{User: user}

	if err := s.notifier.SendWelcome(ctx, user.Email); err != nil {
		l.Warn().Err(err).Str(log.FieldUserID, user.ID).Msg("welcome email not sent")
		result.Advisories = append(result.Advisories, domain.Advisory{
			Effect: domain.EffectWelcomeEmail,
			Err:    err,
		})
	}

	if err := s.publisher.PublishUserCreated(ctx, user); err != nil {
		l.Error().Err(err).Str(log.FieldUserID, user.ID).Msg("failed to publish user created event")
		return nil, fmt.Errorf("%w: %v", ErrEventPublish, err)
	}

	audit.Log(ctx, audit.ActionCreateUser, user.ID, "user created")

	return result, nil
}

// GetUser retrieves a user from the directory.
func (s *userServiceImpl) GetUser(ctx context.Context, userID string) (*domain.DirectoryUser, error) {
	user, err := s.directory.GetUser(ctx, userID)
	if err != nil {
		return nil, mapDirectoryError(ctx, userID, err)
	}
	return user, nil
}

// mapDirectoryError collapses every directory failure into ErrUserNotFound.
func mapDirectoryError(ctx context.Context, userID string, err error) error {
	l := log.Ctx(ctx)
	l.Debug().Err(err).Str(log.FieldUserID, userID).Msg("directory lookup failed")
	return ErrUserNotFound
}

// GetUserAvatar returns the stored avatar image, fetching it on a miss.
func (s *userServiceImpl) GetUserAvatar(ctx context.Context, userID string) (string, error) {
	l := log.Ctx(ctx)

	cached, err := s.cache.Get(ctx, userID)
	if err == nil {
		return cached.Image, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		l.Warn().Err(err).Str(log.FieldUserID, userID).Msg("avatar cache get error")
	}

	// Store read and cache fill are ordered against DeleteUserAvatar.
	unlock := s.locks.Lock(userID)
	avatar, err := s.avatars.GetByUserID(ctx, userID)
	if err == nil {
		s.setCache(ctx, avatar)
		unlock()
		return avatar.Image, nil
	}
	unlock()
	if !errors.Is(err, repository.ErrAvatarNotFound) {
		l.Error().Err(err).Str(log.FieldUserID, userID).Msg("failed to get avatar")
		return "", err
	}

	// Concurrent misses for one user share a single fetch. The flight must
	// not be cut short by whichever caller started it going away.
	flightCtx := context.WithoutCancel(ctx)
	result, err, _ := s.sf.Do(userID, func() (interface{}, error) {
		return s.fetchAndStoreAvatar(flightCtx, userID)
	})
	if err != nil {
		return "", err
	}

	avatar, ok := result.(*domain.Avatar)
	if !ok {
		return "", fmt.Errorf("unexpected result type from singleflight")
	}
	return avatar.Image, nil
}

func (s *userServiceImpl) fetchAndStoreAvatar(ctx context.Context, userID string) (*domain.Avatar, error) {
	l := log.Ctx(ctx)

	unlock := s.locks.Lock(userID)
	defer unlock()

	existing, err := s.avatars.GetByUserID(ctx, userID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrAvatarNotFound) {
		return nil, err
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	img, err := s.directory.FetchAvatar(ctx, user.Data.Avatar)
	if err != nil {
		l.Warn().Err(err).Str(log.FieldUserID, userID).Str(log.FieldUpstream, user.Data.Avatar).Msg("avatar download failed")
		return nil, fmt.Errorf("%w: %v", ErrAvatarFetch, err)
	}

	encoded := base64.StdEncoding.EncodeToString(img)
	avatar := &domain.Avatar{
		UserID: userID,
		Hash:   hashImage(encoded),
		Image:  encoded,
	}

	key := avatarFileKey(userID)
	if err := s.storage.Write(ctx, key, strings.NewReader(encoded), int64(len(encoded)), "text/plain"); err != nil {
		l.Error().Err(err).Str(log.FieldKey, key).Msg("failed to write avatar file")
		return nil, fmt.Errorf("failed to write avatar file: %w", err)
	}

	if err := s.avatars.Create(ctx, avatar); err != nil {
		if errors.Is(err, repository.ErrAvatarExists) {
			// Another instance stored it first; the file under key is theirs too.
			return s.avatars.GetByUserID(ctx, userID)
		}
		if delErr := s.storage.Delete(ctx, key); delErr != nil {
			l.Error().Err(delErr).Str(log.FieldKey, key).Msg("failed to remove orphaned avatar file")
		}
		l.Error().Err(err).Str(log.FieldUserID, userID).Msg("failed to store avatar")
		return nil, err
	}

	s.setCache(ctx, avatar)
	audit.LogWithDetail(ctx, audit.ActionCacheAvatar, userID, avatar.Hash, "avatar stored")

	return avatar, nil
}

// DeleteUserAvatar removes the stored avatar and its side-car file.
func (s *userServiceImpl) DeleteUserAvatar(ctx context.Context, userID string) error {
	l := log.Ctx(ctx)

	unlock := s.locks.Lock(userID)
	defer unlock()

	if _, err := s.avatars.GetByUserID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrAvatarNotFound) {
			return ErrAvatarNotFound
		}
		l.Error().Err(err).Str(log.FieldUserID, userID).Msg("failed to get avatar")
		return err
	}

	key := avatarFileKey(userID)
	if err := s.storage.Delete(ctx, key); err != nil {
		l.Error().Err(err).Str(log.FieldKey, key).Msg("failed to delete avatar file")
		return fmt.Errorf("failed to delete avatar file: %w", err)
	}

	if err := s.avatars.DeleteByUserID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrAvatarNotFound) {
			return ErrAvatarNotFound
		}
		l.Error().Err(err).Str(log.FieldUserID, userID).Msg("failed to delete avatar")
		return err
	}

	if err := s.cache.Delete(ctx, userID); err != nil {
		l.Warn().Err(err).Str(log.FieldUserID, userID).Msg("avatar cache delete error")
	}

	audit.Log(ctx, audit.ActionDeleteAvatar, userID, "avatar deleted")
	return nil
}

func (s *userServiceImpl) setCache(ctx context.Context, avatar *domain.Avatar) {
	if err := s.cache.Set(ctx, avatar, s.cacheTTL); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str(log.FieldUserID, avatar.UserID).Msg("avatar cache set error")
	}
}

// hashImage returns the hex SHA-256 of the base64 text.
func hashImage(encoded string) string {
	sum := sha256.Sum256([]byte(encoded))
	return hex.EncodeToString(sum[:])
}

func avatarFileKey(userID string) string {
	return userID + ".txt"
}
