package domain

import (
	"time"

	"github.com/google/uuid"
)

// Fleet is a named group of drivers managed by exactly one owner.
// OwnerID is immutable after creation.
type Fleet struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// OwnedBy reports whether the given user owns this fleet.
// Only owners can own fleets, so a driver always gets false.
func (f Fleet) OwnedBy(u User) bool {
	return u.IsOwner() && f.OwnerID == u.ID
}
