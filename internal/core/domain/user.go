package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is the rental side of an account. Identity data lives in the user service.
type User struct {
	ID        uuid.UUID   `json:"id"`
	Favorites []uuid.UUID `json:"favorites"`
	Bookings  []uuid.UUID `json:"bookings"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

func (u *User) HasFavorite(bikeID uuid.UUID) bool {
	for _, id := range u.Favorites {
		if id == bikeID {
			return true
		}
	}
	return false
}

type Profile struct {
	User      *User
	Favorites []*Bike
	Bookings  []*Booking
}
