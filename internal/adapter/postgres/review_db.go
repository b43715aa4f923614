package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sm8ta/webike_rental_microservice_nikita/internal/core/domain"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const reviewColumns = `id, user_id, bike_id, booking_id, rating, title, comment, images, helpful, verified,
	created_at, updated_at`

type ReviewRepository struct {
	db *sql.DB
}

func NewReviewRepository(db *sql.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func scanReview(row rowScanner) (*domain.Review, error) {
	var review domain.Review
	var images, helpful pq.StringArray
	err := row.Scan(
		&review.ID,
		&review.UserID,
		&review.BikeID,
		&review.BookingID,
		&review.Rating,
		&review.Title,
		&review.Comment,
		&images,
		&helpful,
		&review.Verified,
		&review.CreatedAt,
		&review.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	review.Images = []string(images)
	if review.Helpful, err = parseUUIDs(helpful); err != nil {
		return nil, fmt.Errorf("decode helpful: %w", err)
	}
	return &review, nil
}

func (r *ReviewRepository) CreateReview(ctx context.Context, review *domain.Review) (*domain.Review, error) {
	query := `INSERT INTO reviews (id, user_id, bike_id, booking_id, rating, title, comment, images, helpful, verified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		review.ID,
		review.UserID,
		review.BikeID,
		review.BookingID,
		review.Rating,
		review.Title,
		review.Comment,
		pq.StringArray(review.Images),
		pq.StringArray(uuidStrings(review.Helpful)),
		review.Verified,
	).Scan(
		&review.CreatedAt,
		&review.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, fmt.Errorf("booking %s: %w", review.BookingID, domain.ErrDuplicateReview)
		}
		return nil, translate(err, "review")
	}
	return review, nil
}

func (r *ReviewRepository) getReview(ctx context.Context, column string, id uuid.UUID, entity string) (*domain.Review, error) {
	review, err := scanReview(r.db.QueryRowContext(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE `+column+` = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound(entity, id)
	}
	if err != nil {
		return nil, err
	}
	return review, nil
}

func (r *ReviewRepository) GetReviewByID(ctx context.Context, reviewID uuid.UUID) (*domain.Review, error) {
	return r.getReview(ctx, "id", reviewID, "review")
}

func (r *ReviewRepository) GetReviewByBooking(ctx context.Context, bookingID uuid.UUID) (*domain.Review, error) {
	return r.getReview(ctx, "booking_id", bookingID, "review of booking")
}

func (r *ReviewRepository) queryReviews(ctx context.Context, query string, args ...any) ([]*domain.Review, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := []*domain.Review{}
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}
	return reviews, rows.Err()
}

func (r *ReviewRepository) ListReviews(ctx context.Context, page domain.Page) ([]*domain.Review, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reviews`).Scan(&total); err != nil {
		return nil, 0, err
	}

	reviews, err := r.queryReviews(ctx,
		`SELECT `+reviewColumns+` FROM reviews ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`,
		page.Limit, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

func (r *ReviewRepository) GetReviewsByBike(ctx context.Context, bikeID uuid.UUID) ([]*domain.Review, error) {
	return r.queryReviews(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE bike_id = $1 ORDER BY created_at DESC, id`, bikeID)
}

func (r *ReviewRepository) GetRatingsByBike(ctx context.Context, bikeID uuid.UUID) ([]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT rating FROM reviews WHERE bike_id = $1`, bikeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ratings := []int{}
	for rows.Next() {
		var rating int
		if err := rows.Scan(&rating); err != nil {
			return nil, err
		}
		ratings = append(ratings, rating)
	}
	return ratings, rows.Err()
}

func (r *ReviewRepository) UpdateReview(ctx context.Context, review *domain.Review) (*domain.Review, error) {
	query := `UPDATE reviews
		SET
			rating = $1,
			title = $2,
			comment = $3,
			images = $4,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $5
		RETURNING ` + reviewColumns

	updated, err := scanReview(r.db.QueryRowContext(ctx, query,
		review.Rating,
		review.Title,
		review.Comment,
		pq.StringArray(review.Images),
		review.ID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("review", review.ID)
	}
	if err != nil {
		return nil, translate(err, "review")
	}
	return updated, nil
}

// AddHelpful appends the user only when absent; zero affected rows means either
// "already marked" or "no such review".
func (r *ReviewRepository) AddHelpful(ctx context.Context, reviewID, userID uuid.UUID) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE reviews SET helpful = array_append(helpful, $1::text)
		WHERE id = $2 AND NOT ($1::text = ANY(helpful))`,
		userID.String(), reviewID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 1 {
		return true, nil
	}

	if _, err := r.GetReviewByID(ctx, reviewID); err != nil {
		return false, err
	}
	return false, nil
}

func (r *ReviewRepository) DeleteReview(ctx context.Context, reviewID uuid.UUID) error {
	return execOne(ctx, r.db, `DELETE FROM reviews WHERE id = $1`, "review", reviewID)
}

func (r *ReviewRepository) DeleteReviewsByBike(ctx context.Context, bikeID uuid.UUID) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reviews WHERE bike_id = $1`, bikeID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *ReviewRepository) CountReviewsByRating(ctx context.Context) (map[int]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT rating, COUNT(*) FROM reviews GROUP BY rating`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[int]int64{}
	for rows.Next() {
		var rating int
		var n int64
		if err := rows.Scan(&rating, &n); err != nil {
			return nil, err
		}
		counts[rating] = n
	}
	return counts, rows.Err()
}
