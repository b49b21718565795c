package persistence

import (
	"context"
	"fmt"

	"threadspire/internal/models"
)

// Dump is the full persisted document set.
type Dump struct {
	User            *models.User            `json:"user,omitempty"`
	Threads         []models.Thread         `json:"threads"`
	Collections     []models.Collection     `json:"collections"`
	RegisteredUsers []models.RegisteredUser `json:"registeredUsers"`
}

// Export reads every persisted key into a Dump.
func (m *Mirror) Export(ctx context.Context) (Dump, error) {
	d := Dump{
		Threads:         []models.Thread{},
		Collections:     []models.Collection{},
		RegisteredUsers: []models.RegisteredUser{},
	}

	var u models.User
	found, err := m.read(ctx, KeyUser, &u)
	if err != nil {
		return Dump{}, err
	}
	if found {
		d.User = &u
	}
	if _, err := m.read(ctx, KeyThreads, &d.Threads); err != nil {
		return Dump{}, err
	}
	if _, err := m.read(ctx, KeyCollections, &d.Collections); err != nil {
		return Dump{}, err
	}
	if _, err := m.read(ctx, KeyRegisteredUsers, &d.RegisteredUsers); err != nil {
		return Dump{}, err
	}
	return d, nil
}

// Import overwrites every persisted key with the contents of d. A nil user
// removes the stored session.
func (m *Mirror) Import(ctx context.Context, d Dump) error {
	if d.User != nil {
		if err := m.write(ctx, KeyUser, d.User); err != nil {
			return err
		}
	} else if err := m.backend.Delete(ctx, KeyUser); err != nil {
		return fmt.Errorf("delete %s: %w", KeyUser, err)
	}

	if d.Threads == nil {
		d.Threads = []models.Thread{}
	}
	if d.Collections == nil {
		d.Collections = []models.Collection{}
	}
	if d.RegisteredUsers == nil {
		d.RegisteredUsers = []models.RegisteredUser{}
	}

	if err := m.write(ctx, KeyThreads, d.Threads); err != nil {
		return err
	}
	if err := m.write(ctx, KeyCollections, d.Collections); err != nil {
		return err
	}
	return m.write(ctx, KeyRegisteredUsers, d.RegisteredUsers)
}
