package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sm8ta/webike_rental_microservice_nikita/internal/core/domain"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const bookingColumns = `id, user_id, bike_id, start_date, end_date, total_days, total_price, status, payment_status,
	payment_intent_id, pickup_location, special_requests, cancellation_reason, cancelled_at, completed_at,
	created_at, updated_at`

type BookingRepository struct {
	db *sql.DB
}

func NewBookingRepository(db *sql.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var b domain.Booking
	var pickup []byte
	var cancelledAt, completedAt sql.NullTime
	err := row.Scan(
		&b.ID,
		&b.UserID,
		&b.BikeID,
		&b.StartDate,
		&b.EndDate,
		&b.TotalDays,
		&b.TotalPrice,
		&b.Status,
		&b.PaymentStatus,
		&b.PaymentIntentID,
		&pickup,
		&b.SpecialRequests,
		&b.CancellationReason,
		&cancelledAt,
		&completedAt,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(pickup, &b.PickupLocation); err != nil {
		return nil, fmt.Errorf("decode pickup location: %w", err)
	}
	if cancelledAt.Valid {
		b.CancelledAt = &cancelledAt.Time
	}
	if completedAt.Valid {
		b.CompletedAt = &completedAt.Time
	}
	return &b, nil
}

func (r *BookingRepository) CreateBooking(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	pickup, err := json.Marshal(booking.PickupLocation)
	if err != nil {
		return nil, err
	}

	query := `INSERT INTO bookings (id, user_id, bike_id, start_date, end_date, total_days, total_price, status,
		payment_status, payment_intent_id, pickup_location, special_requests)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	RETURNING created_at, updated_at`

	err = r.db.QueryRowContext(ctx, query,
		booking.ID,
		booking.UserID,
		booking.BikeID,
		booking.StartDate,
		booking.EndDate,
		booking.TotalDays,
		booking.TotalPrice,
		booking.Status,
		booking.PaymentStatus,
		booking.PaymentIntentID,
		pickup,
		booking.SpecialRequests,
	).Scan(
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, translate(err, "booking")
	}
	return booking, nil
}

func (r *BookingRepository) GetBookingByID(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, error) {
	booking, err := scanBooking(r.db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, bookingID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("booking", bookingID)
	}
	if err != nil {
		return nil, err
	}
	return booking, nil
}

func (r *BookingRepository) queryBookings(ctx context.Context, query string, args ...any) ([]*domain.Booking, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := []*domain.Booking{}
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}
	return bookings, rows.Err()
}

func (r *BookingRepository) GetBookingsByIDs(ctx context.Context, bookingIDs []uuid.UUID) ([]*domain.Booking, error) {
	if len(bookingIDs) == 0 {
		return []*domain.Booking{}, nil
	}
	return r.queryBookings(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = ANY($1) ORDER BY created_at DESC`,
		pq.Array(uuidStrings(bookingIDs)))
}

func (r *BookingRepository) ListBookings(ctx context.Context, filter domain.BookingFilter, page domain.Page) ([]*domain.Booking, int64, error) {
	var conds []string
	var args []any
	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		conds = append(conds, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if filter.BikeID != nil {
		args = append(args, *filter.BikeID)
		conds = append(conds, fmt.Sprintf("bike_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings` + where +
		fmt.Sprintf(" ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	bookings, err := r.queryBookings(ctx, query, append(args, page.Limit, page.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

func (r *BookingRepository) GetBookingsByBike(ctx context.Context, bikeID uuid.UUID, statuses []domain.BookingStatus) ([]*domain.Booking, error) {
	if len(statuses) == 0 {
		return r.queryBookings(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE bike_id = $1`, bikeID)
	}
	return r.queryBookings(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE bike_id = $1 AND status = ANY($2)`,
		bikeID, pq.Array(statusStrings(statuses)))
}

func (r *BookingRepository) UpdateBooking(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	query := `UPDATE bookings
		SET
			status = $1,
			payment_status = $2,
			payment_intent_id = $3,
			special_requests = $4,
			cancellation_reason = $5,
			cancelled_at = COALESCE($6, cancelled_at),
			completed_at = COALESCE($7, completed_at),
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $8
		RETURNING ` + bookingColumns

	updated, err := scanBooking(r.db.QueryRowContext(ctx, query,
		booking.Status,
		booking.PaymentStatus,
		booking.PaymentIntentID,
		booking.SpecialRequests,
		booking.CancellationReason,
		nullTime(booking.CancelledAt),
		nullTime(booking.CompletedAt),
		booking.ID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("booking", booking.ID)
	}
	if err != nil {
		return nil, translate(err, "booking")
	}
	return updated, nil
}

func (r *BookingRepository) DeleteBookingsByBike(ctx context.Context, bikeID uuid.UUID) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bookings WHERE bike_id = $1`, bikeID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *BookingRepository) GetBookingStats(ctx context.Context) ([]domain.BookingStatusStats, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT status, COUNT(*), COALESCE(SUM(total_price), 0) FROM bookings GROUP BY status ORDER BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := []domain.BookingStatusStats{}
	for rows.Next() {
		var st domain.BookingStatusStats
		if err := rows.Scan(&st.Status, &st.Count, &st.TotalRevenue); err != nil {
			return nil, err
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
