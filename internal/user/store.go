package user

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"billify.site/pkg/billify/apperror"
	billifyMongo "billify.site/pkg/billify/datasource/mongo"
)

const (
	usersCollection  = "users"
	tokensCollection = "verifyresettokens"

	// TokenTTL is how long a verification token stays valid.
	TokenTTL = 15 * time.Minute

	tokenBytes = 32
)

type Store struct {
	db Datastore
}

func NewStore(db Datastore) *Store {
	return &Store{db: db}
}

// EnsureIndexes creates the unique user indexes and the TTL index that expires
// verification tokens.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.db.CreateIndexes(ctx, usersCollection, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return dbError(err, "creating user indexes")
	}

	_, err = s.db.CreateIndexes(ctx, tokensCollection, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "createdAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(TokenTTL.Seconds())),
		},
	})
	if err != nil {
		return dbError(err, "creating token indexes")
	}

	return nil
}

// FindUserByID returns nil, nil when no user has the id. Ids that are not valid
// object ids cannot match any user.
func (s *Store) FindUserByID(ctx context.Context, id string) (*User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil //nolint:nilnil // absent user
	}

	return s.findUser(ctx, bson.M{"_id": oid})
}

// FindUserByEmail returns nil, nil when no user has the email.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	return s.findUser(ctx, bson.M{"email": email})
}

func (s *Store) findUser(ctx context.Context, filter bson.M) (*User, error) {
	var u User

	err := s.db.FindOne(ctx, usersCollection, filter, &u)
	if errors.Is(err, billifyMongo.ErrNoDocuments) {
		return nil, nil //nolint:nilnil // absent user
	}

	if err != nil {
		return nil, dbError(err, "finding user")
	}

	return &u, nil
}

// CreateUser inserts u. A duplicate email or username is a conflict.
func (s *Store) CreateUser(ctx context.Context, u *User) error {
	_, err := s.db.InsertOne(ctx, usersCollection, u)
	if billifyMongo.IsDuplicateKey(err) {
		return apperror.NewConflict("Email or username already registered", nil, apperror.WithCause(err))
	}

	if err != nil {
		return dbError(err, "creating user")
	}

	return nil
}

func (s *Store) MarkEmailVerified(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.db.UpdateByID(ctx, usersCollection, id, bson.M{
		"$set": bson.M{"isEmailVerified": true, "updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return dbError(err, "verifying user")
	}

	return nil
}

// CreateVerificationToken stores a random hex token for userID.
func (s *Store) CreateVerificationToken(ctx context.Context, userID primitive.ObjectID) (*VerificationToken, error) {
	b := make([]byte, tokenBytes)

	if _, err := rand.Read(b); err != nil {
		return nil, pkgerrors.Wrap(err, "generating verification token")
	}

	t := &VerificationToken{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Token:     hex.EncodeToString(b),
		CreatedAt: time.Now().UTC(),
	}

	if _, err := s.db.InsertOne(ctx, tokensCollection, t); err != nil {
		return nil, dbError(err, "creating verification token")
	}

	return t, nil
}

// FindVerificationToken returns nil, nil when userID has no such token.
func (s *Store) FindVerificationToken(ctx context.Context, userID primitive.ObjectID,
	token string) (*VerificationToken, error) {
	var t VerificationToken

	err := s.db.FindOne(ctx, tokensCollection, bson.M{"_userId": userID, "token": token}, &t)
	if errors.Is(err, billifyMongo.ErrNoDocuments) {
		return nil, nil //nolint:nilnil // absent token
	}

	if err != nil {
		return nil, dbError(err, "finding verification token")
	}

	return &t, nil
}

func (s *Store) DeleteVerificationToken(ctx context.Context, id primitive.ObjectID) error {
	if _, err := s.db.DeleteOne(ctx, tokensCollection, bson.M{"_id": id}); err != nil {
		return dbError(err, "deleting verification token")
	}

	return nil
}

func dbError(err error, action string) error {
	if errors.Is(err, billifyMongo.ErrNotConnected) {
		return apperror.NewServiceUnavailable("Database unavailable", nil, apperror.WithCause(err))
	}

	return pkgerrors.Wrap(err, action)
}
