package models

import (
	"time"

	"github.com/google/uuid"
)

type Rider struct {
	ID             uuid.UUID   `json:"id"`
	Name           string      `json:"name"`
	Email          string      `json:"email"`
	Phone          string      `json:"phone,omitempty"`
	CompletedRides []uuid.UUID `json:"completed_rides"`
	CreatedAt      time.Time   `json:"created_at"`
}

func (r *Rider) Clone() *Rider {
	c := *r
	c.CompletedRides = append([]uuid.UUID(nil), r.CompletedRides...)
	return &c
}
