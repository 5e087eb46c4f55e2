package auth

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"billify.site/internal/user"
)

// UserStore is the persistence the auth handlers depend on. Find methods return nil, nil
// when nothing matches.
type UserStore interface {
	FindUserByID(ctx context.Context, id string) (*user.User, error)
	FindUserByEmail(ctx context.Context, email string) (*user.User, error)
	CreateUser(ctx context.Context, u *user.User) error
	MarkEmailVerified(ctx context.Context, id primitive.ObjectID) error
	CreateVerificationToken(ctx context.Context, userID primitive.ObjectID) (*user.VerificationToken, error)
	FindVerificationToken(ctx context.Context, userID primitive.ObjectID, token string) (*user.VerificationToken, error)
	DeleteVerificationToken(ctx context.Context, id primitive.ObjectID) error
}
