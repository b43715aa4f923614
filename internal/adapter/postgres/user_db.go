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

const userColumns = `id, favorites, bookings, created_at, updated_at`

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row rowScanner) (*domain.User, error) {
	var user domain.User
	var favorites, bookings pq.StringArray
	if err := row.Scan(&user.ID, &favorites, &bookings, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return nil, err
	}

	var err error
	if user.Favorites, err = parseUUIDs(favorites); err != nil {
		return nil, fmt.Errorf("decode favorites: %w", err)
	}
	if user.Bookings, err = parseUUIDs(bookings); err != nil {
		return nil, fmt.Errorf("decode bookings: %w", err)
	}
	return &user, nil
}

// GetOrCreateUser touches the row on conflict so RETURNING always yields it.
func (r *UserRepository) GetOrCreateUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	query := `INSERT INTO users (id) VALUES ($1)
		ON CONFLICT (id) DO UPDATE SET id = EXCLUDED.id
		RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRowContext(ctx, query, userID))
	if err != nil {
		return nil, translate(err, "user")
	}
	return user, nil
}

func (r *UserRepository) GetUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("user", userID)
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) ListUsers(ctx context.Context, page domain.Page) ([]*domain.User, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`,
		page.Limit, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users := []*domain.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *UserRepository) AddFavorite(ctx context.Context, userID, bikeID uuid.UUID) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET favorites = array_append(favorites, $1::text), updated_at = CURRENT_TIMESTAMP
		WHERE id = $2 AND NOT ($1::text = ANY(favorites))`,
		bikeID.String(), userID)
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

	if _, err := r.GetUserByID(ctx, userID); err != nil {
		return false, err
	}
	return false, nil
}

func (r *UserRepository) RemoveFavorite(ctx context.Context, userID, bikeID uuid.UUID) error {
	return execOne(ctx, r.db,
		`UPDATE users SET favorites = array_remove(favorites, $1::text), updated_at = CURRENT_TIMESTAMP
		WHERE id = $2`,
		"user", userID, bikeID.String())
}

func (r *UserRepository) AddBooking(ctx context.Context, userID, bookingID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, bookings) VALUES ($1, ARRAY[$2::text])
		ON CONFLICT (id) DO UPDATE
		SET bookings = array_append(users.bookings, $2::text), updated_at = CURRENT_TIMESTAMP`,
		userID, bookingID.String())
	return translate(err, "user")
}

func (r *UserRepository) RemoveBikeReferences(ctx context.Context, bikeID uuid.UUID, bookingIDs []uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users
		SET
			favorites = array_remove(favorites, $1::text),
			bookings = ARRAY(SELECT b FROM unnest(bookings) AS b WHERE b <> ALL($2::text[])),
			updated_at = CURRENT_TIMESTAMP
		WHERE $1::text = ANY(favorites) OR bookings && $2::text[]`,
		bikeID.String(), pq.Array(uuidStrings(bookingIDs)))
	return err
}

func (r *UserRepository) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	return execOne(ctx, r.db, `DELETE FROM users WHERE id = $1`, "user", userID)
}
