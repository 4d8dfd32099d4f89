package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/zenon0777/payever-backend-assessment/internal/domain"
)

const (
	usersCollection   = "users"
	avatarsCollection = "avatars"
)

type userDocument struct {
	ID         string    `bson:"_id"`
	ExternalID *int64    `bson:"id,omitempty"`
	Email      string    `bson:"email"`
	Name       string    `bson:"name"`
	Job        string    `bson:"job"`
	CreatedAt  time.Time `bson:"createdAt"`
}

func (d *userDocument) toDomain() *domain.User {
	return &domain.User{
		ID:         d.ID,
		ExternalID: d.ExternalID,
		Email:      d.Email,
		Name:       d.Name,
		Job:        d.Job,
		CreatedAt:  d.CreatedAt,
	}
}

type avatarDocument struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"userId"`
	Hash      string    `bson:"hash"`
	Image     string    `bson:"image"`
	CreatedAt time.Time `bson:"createdAt"`
}

func (d *avatarDocument) toDomain() *domain.Avatar {
	return &domain.Avatar{
		ID:        d.ID,
		UserID:    d.UserID,
		Hash:      d.Hash,
		Image:     d.Image,
		CreatedAt: d.CreatedAt,
	}
}

// MongoStore owns the MongoDB client backing the Mongo repositories.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoStore connects to uri, verifies the connection and creates the
// unique indexes on users.email and avatars.userId.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	s := &MongoStore{client: client, db: client.Database(database)}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)

	if _, err := s.db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: unique,
	}); err != nil {
		return fmt.Errorf("failed to create users.email index: %w", err)
	}

	if _, err := s.db.Collection(avatarsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}},
		Options: unique,
	}); err != nil {
		return fmt.Errorf("failed to create avatars.userId index: %w", err)
	}
	return nil
}

// Users returns the user repository backed by this store.
func (s *MongoStore) Users() *MongoUserRepository {
	return &MongoUserRepository{coll: s.db.Collection(usersCollection)}
}

// Avatars returns the avatar repository backed by this store.
func (s *MongoStore) Avatars() *MongoAvatarRepository {
	return &MongoAvatarRepository{coll: s.db.Collection(avatarsCollection)}
}

// Close disconnects the client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// MongoUserRepository implements UserRepository on a MongoDB collection.
type MongoUserRepository struct {
	coll *mongo.Collection
}

// Create creates a new user.
func (r *MongoUserRepository) Create(ctx context.Context, user *domain.User) error {
	doc := userDocument{
		ID:         bson.NewObjectID().Hex(),
		ExternalID: user.ExternalID,
		Email:      user.Email,
		Name:       user.Name,
		Job:        user.Job,
		CreatedAt:  time.Now().UTC(),
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrEmailExists
		}
		return err
	}

	user.ID = doc.ID
	user.CreatedAt = doc.CreatedAt
	return nil
}

// GetByEmail retrieves a user by email.
func (r *MongoUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var doc userDocument
	if err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

// MongoAvatarRepository implements AvatarRepository on a MongoDB collection.
type MongoAvatarRepository struct {
	coll *mongo.Collection
}

// Create creates a new avatar.
func (r *MongoAvatarRepository) Create(ctx context.Context, avatar *domain.Avatar) error {
	doc := avatarDocument{
		ID:        bson.NewObjectID().Hex(),
		UserID:    avatar.UserID,
		Hash:      avatar.Hash,
		Image:     avatar.Image,
		CreatedAt: time.Now().UTC(),
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrAvatarExists
		}
		return err
	}

	avatar.ID = doc.ID
	avatar.CreatedAt = doc.CreatedAt
	return nil
}

// GetByUserID retrieves the avatar cached for userID.
func (r *MongoAvatarRepository) GetByUserID(ctx context.Context, userID string) (*domain.Avatar, error) {
	var doc avatarDocument
	if err := r.coll.FindOne(ctx, bson.M{"userId": userID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrAvatarNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

// DeleteByUserID deletes the avatar of userID.
func (r *MongoAvatarRepository) DeleteByUserID(ctx context.Context, userID string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"userId": userID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrAvatarNotFound
	}
	return nil
}
