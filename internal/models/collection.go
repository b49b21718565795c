package models

import "time"

// Collection is a user-owned named set of thread references.
type Collection struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	UserID    string    `json:"userId"`
	ThreadIDs []string  `json:"threadIds"`
	CreatedAt time.Time `json:"createdAt"`
	IsPrivate bool      `json:"isPrivate"`
}

// Contains reports whether the collection references threadID.
func (c Collection) Contains(threadID string) bool {
	for _, id := range c.ThreadIDs {
		if id == threadID {
			return true
		}
	}
	return false
}

// Without returns a copy of the collection that no longer references threadID.
func (c Collection) Without(threadID string) Collection {
	kept := make([]string, 0, len(c.ThreadIDs))
	for _, id := range c.ThreadIDs {
		if id != threadID {
			kept = append(kept, id)
		}
	}
	c.ThreadIDs = kept
	return c
}
