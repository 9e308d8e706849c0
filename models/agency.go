package models

import (
	"time"

	"github.com/google/uuid"
)

// Agency is the tenant owning runs and listings. Read-only here: the
// backend creates and mutates agencies.
type Agency struct {
	ID          uuid.UUID `json:"id" db:"id"`
	OwnerUserID uuid.UUID `json:"owner_user_id" db:"owner_user_id"`
	Name        string    `json:"name" db:"name"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
