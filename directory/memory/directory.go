// Package memory provides an in-process UserDirectory for tests and
// development mode. Records live in a mutex-guarded map; all methods copy
// on the way in and out so callers never share memory with the store.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/MrEthical07/authcore"
)

// Directory implements authcore.UserDirectory in memory.
type Directory struct {
	mu      sync.RWMutex
	byID    map[string]authcore.User
	byEmail map[string]string
}

// New returns an empty directory.
func New() *Directory {
	return &Directory{
		byID:    make(map[string]authcore.User),
		byEmail: make(map[string]string),
	}
}

// Create stores a new user, enforcing email uniqueness.
func (d *Directory) Create(ctx context.Context, u *authcore.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	email := normalize(u.Email)

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.byEmail[email]; exists {
		return authcore.ErrEmailTaken
	}

	d.byID[u.ID] = *u
	d.byEmail[email] = u.ID
	return nil
}

// ByEmail looks a user up by normalized email.
func (d *Directory) ByEmail(ctx context.Context, email string) (*authcore.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	id, ok := d.byEmail[normalize(email)]
	if !ok {
		return nil, authcore.ErrUserNotFound
	}
	u := d.byID[id]
	return &u, nil
}

// ByID looks a user up by identifier.
func (d *Directory) ByID(ctx context.Context, id string) (*authcore.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	u, ok := d.byID[id]
	if !ok {
		return nil, authcore.ErrUserNotFound
	}
	return &u, nil
}

// Update replaces an existing record, keeping the email index consistent.
func (d *Directory) Update(ctx context.Context, u *authcore.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	current, ok := d.byID[u.ID]
	if !ok {
		return authcore.ErrUserNotFound
	}

	newEmail := normalize(u.Email)
	oldEmail := normalize(current.Email)
	if newEmail != oldEmail {
		if _, exists := d.byEmail[newEmail]; exists {
			return authcore.ErrEmailTaken
		}
		delete(d.byEmail, oldEmail)
		d.byEmail[newEmail] = u.ID
	}

	d.byID[u.ID] = *u
	return nil
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
