package domain

import (
	"time"

	"github.com/google/uuid"
)

type Category struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name" validate:"required,max=50"`
	Description string    `json:"description" validate:"max=500"`
	Image       string    `json:"image,omitempty"`
	BikeCount   int64     `json:"bikeCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type CategoryUpdate struct {
	Name        *string
	Description *string
	Image       *string
}
