package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/sm8ta/webike_rental_microservice_nikita/internal/core/domain"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (s *Store) CreateBooking(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	now := s.timestamp()
	booking.CreatedAt = now
	booking.UpdatedAt = now

	if _, err := s.bookings.InsertOne(ctx, newBookingDocument(booking)); err != nil {
		return nil, fmt.Errorf("insert booking: %w", err)
	}
	return booking, nil
}

func (s *Store) GetBookingByID(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, error) {
	var doc bookingDocument
	err := s.bookings.FindOne(ctx, bson.M{"_id": bookingID.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.NotFound("booking", bookingID)
	}
	if err != nil {
		return nil, fmt.Errorf("find booking: %w", err)
	}
	return doc.toDomain(), nil
}

func (s *Store) findBookings(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]*domain.Booking, error) {
	cur, err := s.bookings.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("find bookings: %w", err)
	}
	docs, err := decodeAll[bookingDocument](ctx, cur)
	if err != nil {
		return nil, err
	}

	bookings := make([]*domain.Booking, len(docs))
	for i, d := range docs {
		bookings[i] = d.toDomain()
	}
	return bookings, nil
}

func (s *Store) GetBookingsByIDs(ctx context.Context, bookingIDs []uuid.UUID) ([]*domain.Booking, error) {
	if len(bookingIDs) == 0 {
		return []*domain.Booking{}, nil
	}
	return s.findBookings(ctx, bson.M{"_id": bson.M{"$in": idStrings(bookingIDs)}},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
}

func (s *Store) ListBookings(ctx context.Context, filter domain.BookingFilter, page domain.Page) ([]*domain.Booking, int64, error) {
	query := bookingFilter(filter)

	total, err := s.bookings.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("count bookings: %w", err)
	}

	bookings, err := s.findBookings(ctx, query,
		findOptions(page.Offset(), page.Limit, bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

func (s *Store) GetBookingsByBike(ctx context.Context, bikeID uuid.UUID, statuses []domain.BookingStatus) ([]*domain.Booking, error) {
	query := bson.M{"bike": bikeID.String()}
	if len(statuses) > 0 {
		query["status"] = bson.M{"$in": statusStrings(statuses)}
	}
	return s.findBookings(ctx, query)
}

// UpdateBooking rewrites the mutable lifecycle fields. Price, dates and parties are fixed at creation.
func (s *Store) UpdateBooking(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	doc := newBookingDocument(booking)
	set := bson.M{
		"status":             doc.Status,
		"paymentStatus":      doc.PaymentStatus,
		"paymentIntentId":    doc.PaymentIntentID,
		"specialRequests":    doc.SpecialRequests,
		"cancellationReason": doc.CancellationReason,
		"updatedAt":          s.timestamp(),
	}
	if doc.CancelledAt != nil {
		set["cancelledAt"] = doc.CancelledAt
	}
	if doc.CompletedAt != nil {
		set["completedAt"] = doc.CompletedAt
	}

	var updated bookingDocument
	err := s.bookings.FindOneAndUpdate(ctx, bson.M{"_id": doc.ID}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.NotFound("booking", booking.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("update booking: %w", err)
	}
	return updated.toDomain(), nil
}

func (s *Store) DeleteBookingsByBike(ctx context.Context, bikeID uuid.UUID) (int64, error) {
	res, err := s.bookings.DeleteMany(ctx, bson.M{"bike": bikeID.String()})
	if err != nil {
		return 0, fmt.Errorf("delete bookings of bike: %w", err)
	}
	return res.DeletedCount, nil
}

func (s *Store) GetBookingStats(ctx context.Context) ([]domain.BookingStatusStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":          "$status",
			"count":        bson.M{"$sum": 1},
			"totalRevenue": bson.M{"$sum": "$totalPrice"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}

	cur, err := s.bookings.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate booking stats: %w", err)
	}

	type row struct {
		Status       string               `bson:"_id"`
		Count        int64                `bson:"count"`
		TotalRevenue primitive.Decimal128 `bson:"totalRevenue"`
	}
	rows, err := decodeAll[row](ctx, cur)
	if err != nil {
		return nil, err
	}

	stats := make([]domain.BookingStatusStats, len(rows))
	for i, r := range rows {
		stats[i] = domain.BookingStatusStats{
			Status:       domain.BookingStatus(r.Status),
			Count:        r.Count,
			TotalRevenue: fromDecimal128(r.TotalRevenue),
		}
	}
	return stats, nil
}
