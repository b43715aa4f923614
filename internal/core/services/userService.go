package services

import (
	"context"
	"fmt"

	"github.com/sm8ta/webike_rental_microservice_nikita/internal/core/domain"
	"github.com/sm8ta/webike_rental_microservice_nikita/internal/core/ports"
)

type UserService struct {
	userRepo    ports.UserRepository
	bikeRepo    ports.BikeRepository
	bookingRepo ports.BookingRepository
	logger      ports.LoggerPort
}

func NewUserService(
	userRepo ports.UserRepository,
	bikeRepo ports.BikeRepository,
	bookingRepo ports.BookingRepository,
	logger ports.LoggerPort,
) *UserService {
	return &UserService{
		userRepo:    userRepo,
		bikeRepo:    bikeRepo,
		bookingRepo: bookingRepo,
		logger:      logger,
	}
}

// GetProfile loads the caller's rental profile with favorites and bookings resolved to full records.
func (s *UserService) GetProfile(ctx context.Context, actor *domain.TokenPayload) (*domain.Profile, error) {
	user, err := s.userRepo.GetOrCreateUser(ctx, actor.UserID)
	if err != nil {
		s.logger.Error("Failed to get user profile", map[string]interface{}{
			"error":   err.Error(),
			"user_id": actor.UserID,
		})
		return nil, err
	}
	return s.populate(ctx, user)
}

func (s *UserService) AddFavorite(ctx context.Context, actor *domain.TokenPayload, bikeID string) (*domain.User, error) {
	bikeUUID, err := parseID(s.logger, "bike", bikeID)
	if err != nil {
		return nil, err
	}

	if _, err := s.bikeRepo.GetBikeByID(ctx, bikeUUID); err != nil {
		return nil, err
	}

	if _, err := s.userRepo.GetOrCreateUser(ctx, actor.UserID); err != nil {
		return nil, err
	}

	added, err := s.userRepo.AddFavorite(ctx, actor.UserID, bikeUUID)
	if err != nil {
		s.logger.Error("Failed to add favorite", map[string]interface{}{
			"error":   err.Error(),
			"user_id": actor.UserID,
			"bike_id": bikeID,
		})
		return nil, err
	}
	if !added {
		return nil, fmt.Errorf("bike %s already in favorites: %w", bikeID, domain.ErrConflict)
	}

	return s.userRepo.GetUserByID(ctx, actor.UserID)
}

func (s *UserService) RemoveFavorite(ctx context.Context, actor *domain.TokenPayload, bikeID string) (*domain.User, error) {
	bikeUUID, err := parseID(s.logger, "bike", bikeID)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.RemoveFavorite(ctx, actor.UserID, bikeUUID); err != nil {
		s.logger.Error("Failed to remove favorite", map[string]interface{}{
			"error":   err.Error(),
			"user_id": actor.UserID,
			"bike_id": bikeID,
		})
		return nil, err
	}

	return s.userRepo.GetUserByID(ctx, actor.UserID)
}

func (s *UserService) GetUserBookings(ctx context.Context, actor *domain.TokenPayload, page domain.Page) ([]*domain.Booking, domain.Pagination, error) {
	bookings, total, err := s.bookingRepo.ListBookings(ctx, domain.BookingFilter{UserID: &actor.UserID}, page)
	if err != nil {
		s.logger.Error("Failed to get user bookings", map[string]interface{}{
			"error":   err.Error(),
			"user_id": actor.UserID,
		})
		return nil, domain.Pagination{}, err
	}
	return bookings, page.Paginate(total), nil
}

func (s *UserService) ListUsers(ctx context.Context, page domain.Page) ([]*domain.User, domain.Pagination, error) {
	users, total, err := s.userRepo.ListUsers(ctx, page)
	if err != nil {
		s.logger.Error("Failed to list users", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, domain.Pagination{}, err
	}
	return users, page.Paginate(total), nil
}

func (s *UserService) GetUser(ctx context.Context, userID string) (*domain.Profile, error) {
	userUUID, err := parseID(s.logger, "user", userID)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetUserByID(ctx, userUUID)
	if err != nil {
		s.logger.Error("Failed to get user", map[string]interface{}{
			"error":   err.Error(),
			"user_id": userID,
		})
		return nil, err
	}
	return s.populate(ctx, user)
}

// DeleteUser drops the rental profile only. Bookings and reviews keep their user reference.
func (s *UserService) DeleteUser(ctx context.Context, userID string) error {
	userUUID, err := parseID(s.logger, "user", userID)
	if err != nil {
		return err
	}

	if err := s.userRepo.DeleteUser(ctx, userUUID); err != nil {
		s.logger.Error("Failed to delete user", map[string]interface{}{
			"error":   err.Error(),
			"user_id": userID,
		})
		return err
	}

	s.logger.Info("User deleted successfully", map[string]interface{}{
		"user_id": userID,
	})
	return nil
}

func (s *UserService) populate(ctx context.Context, user *domain.User) (*domain.Profile, error) {
	favorites, err := s.bikeRepo.GetBikesByIDs(ctx, user.Favorites)
	if err != nil {
		return nil, err
	}
	bookings, err := s.bookingRepo.GetBookingsByIDs(ctx, user.Bookings)
	if err != nil {
		return nil, err
	}
	return &domain.Profile{User: user, Favorites: favorites, Bookings: bookings}, nil
}
