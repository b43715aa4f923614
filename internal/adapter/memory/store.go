package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sm8ta/webike_rental_microservice_nikita/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Store keeps every collection in maps behind one mutex. Records are copied on the way in and out
// so callers never share memory with the store.
type Store struct {
	mu         sync.RWMutex
	bikes      map[uuid.UUID]domain.Bike
	bookings   map[uuid.UUID]domain.Booking
	reviews    map[uuid.UUID]domain.Review
	categories map[uuid.UUID]domain.Category
	users      map[uuid.UUID]domain.User
	now        func() time.Time
}

func NewStore() *Store {
	return &Store{
		bikes:      make(map[uuid.UUID]domain.Bike),
		bookings:   make(map[uuid.UUID]domain.Booking),
		reviews:    make(map[uuid.UUID]domain.Review),
		categories: make(map[uuid.UUID]domain.Category),
		users:      make(map[uuid.UUID]domain.User),
		now:        time.Now,
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) stamp(created, updated *time.Time) {
	now := s.now().UTC()
	if created.IsZero() {
		*created = now
	}
	*updated = now
}

func page[T any](items []T, p domain.Page) []T {
	offset := p.Offset()
	if offset < 0 || offset >= int64(len(items)) {
		return []T{}
	}
	start := int(offset)
	end := start + p.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// Bikes

func cloneBike(b domain.Bike) *domain.Bike {
	b.Images = append([]string(nil), b.Images...)
	return &b
}

func (s *Store) CreateBike(_ context.Context, bike *domain.Bike) (*domain.Bike, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if bike.ID == uuid.Nil {
		bike.ID = uuid.New()
	}
	s.stamp(&bike.CreatedAt, &bike.UpdatedAt)
	s.bikes[bike.ID] = *cloneBike(*bike)
	return cloneBike(*bike), nil
}

func (s *Store) GetBikeByID(_ context.Context, bikeID uuid.UUID) (*domain.Bike, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bike, ok := s.bikes[bikeID]
	if !ok {
		return nil, domain.NotFound("bike", bikeID)
	}
	return cloneBike(bike), nil
}

func (s *Store) GetBikesByIDs(_ context.Context, bikeIDs []uuid.UUID) ([]*domain.Bike, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bikes := make([]*domain.Bike, 0, len(bikeIDs))
	for _, id := range bikeIDs {
		if bike, ok := s.bikes[id]; ok {
			bikes = append(bikes, cloneBike(bike))
		}
	}
	return bikes, nil
}

func (s *Store) ListBikes(_ context.Context, filter domain.BikeFilter, p domain.Page) ([]*domain.Bike, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*domain.Bike
	for _, bike := range s.bikes {
		if matchBike(bike, filter) {
			matched = append(matched, cloneBike(bike))
		}
	}

	sortBikes(matched, filter.Sort)
	return page(matched, p), int64(len(matched)), nil
}

func matchBike(b domain.Bike, f domain.BikeFilter) bool {
	if f.Type != "" && b.Type != f.Type {
		return false
	}
	if f.CategoryID != nil && b.CategoryID != *f.CategoryID {
		return false
	}
	if f.City != "" && !strings.EqualFold(b.Location.City, f.City) {
		return false
	}
	if f.MinPrice != nil && b.PricePerDay.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && b.PricePerDay.GreaterThan(*f.MaxPrice) {
		return false
	}
	if f.Available != nil && b.Availability != *f.Available {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(b.Name), q) && !strings.Contains(strings.ToLower(b.Description), q) {
			return false
		}
	}
	return true
}

func sortBikes(bikes []*domain.Bike, fields []domain.SortField) {
	if len(fields) == 0 {
		fields = domain.ParseBikeSort("")
	}
	sort.SliceStable(bikes, func(i, j int) bool {
		for _, f := range fields {
			c := compareBikes(bikes[i], bikes[j], f.Field)
			if c == 0 {
				continue
			}
			if f.Desc {
				return c > 0
			}
			return c < 0
		}
		return bikes[i].ID.String() < bikes[j].ID.String()
	})
}

func compareBikes(a, b *domain.Bike, field string) int {
	switch field {
	case "name":
		return strings.Compare(a.Name, b.Name)
	case "pricePerDay":
		return a.PricePerDay.Cmp(b.PricePerDay)
	case "rating":
		return compareFloat(a.Rating, b.Rating)
	case "reviewCount":
		return a.ReviewCount - b.ReviewCount
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (s *Store) UpdateBike(_ context.Context, bike *domain.Bike) (*domain.Bike, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.bikes[bike.ID]
	if !ok {
		return nil, domain.NotFound("bike", bike.ID)
	}
	updated := *cloneBike(*bike)
	updated.Rating = current.Rating
	updated.ReviewCount = current.ReviewCount
	updated.CreatedAt = current.CreatedAt
	updated.CreatedBy = current.CreatedBy
	updated.UpdatedAt = s.now().UTC()
	s.bikes[bike.ID] = updated
	return cloneBike(updated), nil
}

func (s *Store) DeleteBike(_ context.Context, bikeID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bikes[bikeID]; !ok {
		return domain.NotFound("bike", bikeID)
	}
	delete(s.bikes, bikeID)
	return nil
}

func (s *Store) CountBikesByCategory(_ context.Context, categoryID uuid.UUID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, bike := range s.bikes {
		if bike.CategoryID == categoryID {
			n++
		}
	}
	return n, nil
}

func (s *Store) SetRatingStats(_ context.Context, bikeID uuid.UUID, rating float64, reviewCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bike, ok := s.bikes[bikeID]
	if !ok {
		return domain.NotFound("bike", bikeID)
	}
	bike.Rating = rating
	bike.ReviewCount = reviewCount
	s.bikes[bikeID] = bike
	return nil
}

func (s *Store) GetBikeStats(_ context.Context) ([]domain.BikeTypeStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type acc struct {
		count  int64
		price  decimal.Decimal
		rating float64
	}
	byType := make(map[domain.BikeType]*acc)
	for _, bike := range s.bikes {
		a, ok := byType[bike.Type]
		if !ok {
			a = &acc{}
			byType[bike.Type] = a
		}
		a.count++
		a.price = a.price.Add(bike.PricePerDay)
		a.rating += bike.Rating
	}

	stats := make([]domain.BikeTypeStats, 0, len(byType))
	for t, a := range byType {
		avgPrice, _ := a.price.Div(decimal.NewFromInt(a.count)).Round(2).Float64()
		stats = append(stats, domain.BikeTypeStats{
			Type:      t,
			Count:     a.count,
			AvgPrice:  avgPrice,
			AvgRating: a.rating / float64(a.count),
		})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].Type < stats[j].Type
	})
	return stats, nil
}

// Bookings

func cloneBooking(b domain.Booking) *domain.Booking {
	if b.CancelledAt != nil {
		t := *b.CancelledAt
		b.CancelledAt = &t
	}
	if b.CompletedAt != nil {
		t := *b.CompletedAt
		b.CompletedAt = &t
	}
	return &b
}

func (s *Store) CreateBooking(_ context.Context, booking *domain.Booking) (*domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	s.stamp(&booking.CreatedAt, &booking.UpdatedAt)
	s.bookings[booking.ID] = *cloneBooking(*booking)
	return cloneBooking(*booking), nil
}

func (s *Store) GetBookingByID(_ context.Context, bookingID uuid.UUID) (*domain.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	booking, ok := s.bookings[bookingID]
	if !ok {
		return nil, domain.NotFound("booking", bookingID)
	}
	return cloneBooking(booking), nil
}

func (s *Store) GetBookingsByIDs(_ context.Context, bookingIDs []uuid.UUID) ([]*domain.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bookings := make([]*domain.Booking, 0, len(bookingIDs))
	for _, id := range bookingIDs {
		if booking, ok := s.bookings[id]; ok {
			bookings = append(bookings, cloneBooking(booking))
		}
	}
	return bookings, nil
}

func (s *Store) ListBookings(_ context.Context, filter domain.BookingFilter, p domain.Page) ([]*domain.Booking, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*domain.Booking
	for _, booking := range s.bookings {
		if filter.UserID != nil && booking.UserID != *filter.UserID {
			continue
		}
		if filter.BikeID != nil && booking.BikeID != *filter.BikeID {
			continue
		}
		if filter.Status != "" && booking.Status != filter.Status {
			continue
		}
		matched = append(matched, cloneBooking(booking))
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return page(matched, p), int64(len(matched)), nil
}

func (s *Store) GetBookingsByBike(_ context.Context, bikeID uuid.UUID, statuses []domain.BookingStatus) ([]*domain.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var bookings []*domain.Booking
	for _, booking := range s.bookings {
		if booking.BikeID != bikeID {
			continue
		}
		if len(statuses) > 0 && !hasStatus(statuses, booking.Status) {
			continue
		}
		bookings = append(bookings, cloneBooking(booking))
	}
	return bookings, nil
}

func hasStatus(statuses []domain.BookingStatus, status domain.BookingStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

func (s *Store) UpdateBooking(_ context.Context, booking *domain.Booking) (*domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.bookings[booking.ID]
	if !ok {
		return nil, domain.NotFound("booking", booking.ID)
	}
	updated := *cloneBooking(*booking)
	updated.CreatedAt = current.CreatedAt
	updated.UpdatedAt = s.now().UTC()
	s.bookings[booking.ID] = updated
	return cloneBooking(updated), nil
}

func (s *Store) DeleteBookingsByBike(_ context.Context, bikeID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, booking := range s.bookings {
		if booking.BikeID == bikeID {
			delete(s.bookings, id)
			n++
		}
	}
	return n, nil
}

func (s *Store) GetBookingStats(_ context.Context) ([]domain.BookingStatusStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byStatus := make(map[domain.BookingStatus]*domain.BookingStatusStats)
	for _, booking := range s.bookings {
		st, ok := byStatus[booking.Status]
		if !ok {
			st = &domain.BookingStatusStats{Status: booking.Status}
			byStatus[booking.Status] = st
		}
		st.Count++
		st.TotalRevenue = st.TotalRevenue.Add(booking.TotalPrice)
	}

	stats := make([]domain.BookingStatusStats, 0, len(byStatus))
	for _, st := range byStatus {
		stats = append(stats, *st)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Status < stats[j].Status })
	return stats, nil
}

// Reviews

func cloneReview(r domain.Review) *domain.Review {
	r.Images = append([]string(nil), r.Images...)
	r.Helpful = append([]uuid.UUID{}, r.Helpful...)
	return &r
}

func (s *Store) CreateReview(_ context.Context, review *domain.Review) (*domain.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.reviews {
		if existing.BookingID == review.BookingID {
			return nil, domain.ErrDuplicateReview
		}
	}

	if review.ID == uuid.Nil {
		review.ID = uuid.New()
	}
	s.stamp(&review.CreatedAt, &review.UpdatedAt)
	s.reviews[review.ID] = *cloneReview(*review)
	return cloneReview(*review), nil
}

func (s *Store) GetReviewByID(_ context.Context, reviewID uuid.UUID) (*domain.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	review, ok := s.reviews[reviewID]
	if !ok {
		return nil, domain.NotFound("review", reviewID)
	}
	return cloneReview(review), nil
}

func (s *Store) GetReviewByBooking(_ context.Context, bookingID uuid.UUID) (*domain.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, review := range s.reviews {
		if review.BookingID == bookingID {
			return cloneReview(review), nil
		}
	}
	return nil, domain.NotFound("review of booking", bookingID)
}

func (s *Store) sortedReviews(keep func(domain.Review) bool) []*domain.Review {
	var reviews []*domain.Review
	for _, review := range s.reviews {
		if keep(review) {
			reviews = append(reviews, cloneReview(review))
		}
	}
	sort.SliceStable(reviews, func(i, j int) bool {
		return reviews[i].CreatedAt.After(reviews[j].CreatedAt)
	})
	return reviews
}

func (s *Store) ListReviews(_ context.Context, p domain.Page) ([]*domain.Review, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reviews := s.sortedReviews(func(domain.Review) bool { return true })
	return page(reviews, p), int64(len(reviews)), nil
}

func (s *Store) GetReviewsByBike(_ context.Context, bikeID uuid.UUID) ([]*domain.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sortedReviews(func(r domain.Review) bool { return r.BikeID == bikeID }), nil
}

func (s *Store) GetRatingsByBike(_ context.Context, bikeID uuid.UUID) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ratings []int
	for _, review := range s.reviews {
		if review.BikeID == bikeID {
			ratings = append(ratings, review.Rating)
		}
	}
	return ratings, nil
}

func (s *Store) UpdateReview(_ context.Context, review *domain.Review) (*domain.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.reviews[review.ID]
	if !ok {
		return nil, domain.NotFound("review", review.ID)
	}
	current.Rating = review.Rating
	current.Title = review.Title
	current.Comment = review.Comment
	current.Images = append([]string(nil), review.Images...)
	current.UpdatedAt = s.now().UTC()
	s.reviews[review.ID] = current
	return cloneReview(current), nil
}

func (s *Store) AddHelpful(_ context.Context, reviewID, userID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	review, ok := s.reviews[reviewID]
	if !ok {
		return false, domain.NotFound("review", reviewID)
	}
	if review.MarkedHelpfulBy(userID) {
		return false, nil
	}
	review.Helpful = append(append([]uuid.UUID{}, review.Helpful...), userID)
	s.reviews[reviewID] = review
	return true, nil
}

func (s *Store) DeleteReview(_ context.Context, reviewID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reviews[reviewID]; !ok {
		return domain.NotFound("review", reviewID)
	}
	delete(s.reviews, reviewID)
	return nil
}

func (s *Store) DeleteReviewsByBike(_ context.Context, bikeID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, review := range s.reviews {
		if review.BikeID == bikeID {
			delete(s.reviews, id)
			n++
		}
	}
	return n, nil
}

func (s *Store) CountReviewsByRating(_ context.Context) (map[int]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[int]int64)
	for _, review := range s.reviews {
		counts[review.Rating]++
	}
	return counts, nil
}

// Categories

func (s *Store) CreateCategory(_ context.Context, category *domain.Category) (*domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.categories {
		if strings.EqualFold(existing.Name, category.Name) {
			return nil, domain.ErrConflict
		}
	}
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	s.stamp(&category.CreatedAt, &category.UpdatedAt)
	stored := *category
	s.categories[category.ID] = stored
	return &stored, nil
}

func (s *Store) GetCategoryByID(_ context.Context, categoryID uuid.UUID) (*domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	category, ok := s.categories[categoryID]
	if !ok {
		return nil, domain.NotFound("category", categoryID)
	}
	return &category, nil
}

func (s *Store) ListCategories(_ context.Context) ([]*domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	categories := make([]*domain.Category, 0, len(s.categories))
	for _, category := range s.categories {
		c := category
		categories = append(categories, &c)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })
	return categories, nil
}

func (s *Store) UpdateCategory(_ context.Context, category *domain.Category) (*domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.categories[category.ID]
	if !ok {
		return nil, domain.NotFound("category", category.ID)
	}
	for id, existing := range s.categories {
		if id != category.ID && strings.EqualFold(existing.Name, category.Name) {
			return nil, domain.ErrConflict
		}
	}
	current.Name = category.Name
	current.Description = category.Description
	current.Image = category.Image
	current.UpdatedAt = s.now().UTC()
	s.categories[category.ID] = current
	return &current, nil
}

func (s *Store) DeleteCategory(_ context.Context, categoryID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[categoryID]; !ok {
		return domain.NotFound("category", categoryID)
	}
	delete(s.categories, categoryID)
	return nil
}

func (s *Store) SetBikeCount(_ context.Context, categoryID uuid.UUID, count int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	category, ok := s.categories[categoryID]
	if !ok {
		return domain.NotFound("category", categoryID)
	}
	category.BikeCount = count
	s.categories[categoryID] = category
	return nil
}

// Users

func cloneUser(u domain.User) *domain.User {
	u.Favorites = append([]uuid.UUID{}, u.Favorites...)
	u.Bookings = append([]uuid.UUID{}, u.Bookings...)
	return &u
}

func (s *Store) GetOrCreateUser(_ context.Context, userID uuid.UUID) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		user = domain.User{ID: userID}
		s.stamp(&user.CreatedAt, &user.UpdatedAt)
		s.users[userID] = user
	}
	return cloneUser(user), nil
}

func (s *Store) GetUserByID(_ context.Context, userID uuid.UUID) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[userID]
	if !ok {
		return nil, domain.NotFound("user", userID)
	}
	return cloneUser(user), nil
}

func (s *Store) ListUsers(_ context.Context, p domain.Page) ([]*domain.User, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*domain.User, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, cloneUser(user))
	}
	sort.SliceStable(users, func(i, j int) bool { return users[i].CreatedAt.After(users[j].CreatedAt) })
	return page(users, p), int64(len(users)), nil
}

func (s *Store) AddFavorite(_ context.Context, userID, bikeID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return false, domain.NotFound("user", userID)
	}
	if user.HasFavorite(bikeID) {
		return false, nil
	}
	user.Favorites = append(append([]uuid.UUID{}, user.Favorites...), bikeID)
	user.UpdatedAt = s.now().UTC()
	s.users[userID] = user
	return true, nil
}

func (s *Store) RemoveFavorite(_ context.Context, userID, bikeID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return domain.NotFound("user", userID)
	}
	user.Favorites = without(user.Favorites, map[uuid.UUID]bool{bikeID: true})
	user.UpdatedAt = s.now().UTC()
	s.users[userID] = user
	return nil
}

func (s *Store) AddBooking(_ context.Context, userID, bookingID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		user = domain.User{ID: userID}
		s.stamp(&user.CreatedAt, &user.UpdatedAt)
	}
	user.Bookings = append(append([]uuid.UUID{}, user.Bookings...), bookingID)
	user.UpdatedAt = s.now().UTC()
	s.users[userID] = user
	return nil
}

func (s *Store) RemoveBikeReferences(_ context.Context, bikeID uuid.UUID, bookingIDs []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	drop := make(map[uuid.UUID]bool, len(bookingIDs))
	for _, id := range bookingIDs {
		drop[id] = true
	}
	for id, user := range s.users {
		user.Favorites = without(user.Favorites, map[uuid.UUID]bool{bikeID: true})
		user.Bookings = without(user.Bookings, drop)
		s.users[id] = user
	}
	return nil
}

func (s *Store) DeleteUser(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return domain.NotFound("user", userID)
	}
	delete(s.users, userID)
	return nil
}

func without(ids []uuid.UUID, drop map[uuid.UUID]bool) []uuid.UUID {
	kept := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !drop[id] {
			kept = append(kept, id)
		}
	}
	return kept
}
