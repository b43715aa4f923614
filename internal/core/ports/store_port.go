package ports

import "context"

type StorePinger interface {
	Ping(ctx context.Context) error
}

// Store is one backend serving every repository.
type Store interface {
	StorePinger
	BikeRepository
	BookingRepository
	ReviewRepository
	CategoryRepository
	UserRepository
}
