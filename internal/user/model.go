// Package user holds the account model and its MongoDB store.
package user

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

type Role string

const (
	RoleUser  Role = "User"
	RoleAdmin Role = "Admin"
)

const (
	ProviderEmail = "email"

	bcryptCost = 10
)

type User struct {
	ID              primitive.ObjectID `bson:"_id" json:"id"`
	Email           string             `bson:"email" json:"email"`
	Username        string             `bson:"username" json:"username"`
	FirstName       string             `bson:"firstName" json:"firstName"`
	LastName        string             `bson:"lastName" json:"lastName"`
	Password        string             `bson:"password,omitempty" json:"-"`
	IsEmailVerified bool               `bson:"isEmailVerified" json:"isEmailVerified"`
	Provider        string             `bson:"provider" json:"provider"`
	Roles           []Role             `bson:"roles" json:"roles"`
	Active          bool               `bson:"active" json:"active"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// NewUser builds an unverified email-provider account with the User role. The password
// is stored as a bcrypt hash.
func NewUser(email, username, firstName, lastName, password string) (*User, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	return &User{
		ID:        primitive.NewObjectID(),
		Email:     email,
		Username:  username,
		FirstName: firstName,
		LastName:  lastName,
		Password:  hash,
		Provider:  ProviderEmail,
		Roles:     []Role{RoleUser},
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}

	return string(b), nil
}

// ComparePassword reports whether password matches the stored hash.
func (u *User) ComparePassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
}

// HasRole reports whether the user holds any of roles.
func (u *User) HasRole(roles ...Role) bool {
	for _, have := range u.Roles {
		for _, want := range roles {
			if have == want {
				return true
			}
		}
	}

	return false
}

// RoleNames returns the roles as plain strings, the form they take in tokens and logs.
func (u *User) RoleNames() []string {
	names := make([]string, len(u.Roles))

	for i, r := range u.Roles {
		names[i] = string(r)
	}

	return names
}

// VerificationToken confirms ownership of an email address. MongoDB expires it
// through a TTL index on CreatedAt.
type VerificationToken struct {
	ID        primitive.ObjectID `bson:"_id"`
	UserID    primitive.ObjectID `bson:"_userId"`
	Token     string             `bson:"token"`
	CreatedAt time.Time          `bson:"createdAt"`
}
