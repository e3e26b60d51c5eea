package authcore

import "context"

// User is the directory's record of one account. Email is unique across
// the directory; PasswordHash is a PHC-encoded argon2id hash and never
// leaves the server.
type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
}

// UserDirectory is the external user storage the core authenticates
// against. Implementations must return [ErrUserNotFound] for missing
// records and [ErrEmailTaken] for unique-email violations, and must honor
// context deadlines — the Manager calls with bounded timeouts.
type UserDirectory interface {
	Create(ctx context.Context, u *User) error
	ByEmail(ctx context.Context, email string) (*User, error)
	ByID(ctx context.Context, id string) (*User, error)
	Update(ctx context.Context, u *User) error
}
