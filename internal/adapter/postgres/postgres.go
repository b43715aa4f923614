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

// Store bundles the per-table repositories behind one value so it can be wired
// wherever the document stores are.
type Store struct {
	*BikeRepository
	*BookingRepository
	*ReviewRepository
	*CategoryRepository
	*UserRepository

	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		BikeRepository:     NewBikeRepository(db),
		BookingRepository:  NewBookingRepository(db),
		ReviewRepository:   NewReviewRepository(db),
		CategoryRepository: NewCategoryRepository(db),
		UserRepository:     NewUserRepository(db),
		db:                 db,
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// translate maps constraint violations onto domain errors.
func translate(err error, entity string) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case "23502":
		return fmt.Errorf("%s: required field %s is missing: %w", entity, pqErr.Column, domain.ErrValidation)
	case "23503":
		return fmt.Errorf("%s: referenced record does not exist: %w", entity, domain.ErrValidation)
	case "23505":
		return fmt.Errorf("%s: %s: %w", entity, pqErr.Constraint, domain.ErrConflict)
	default:
		return err
	}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// execOne runs a statement keyed by id and reports NotFound when no row was touched.
// id binds to the last placeholder, after args.
func execOne(ctx context.Context, db execer, query, entity string, id uuid.UUID, args ...any) error {
	res, err := db.ExecContext(ctx, query, append(args, id)...)
	if err != nil {
		return translate(err, entity)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NotFound(entity, id)
	}
	return nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func parseUUIDs(raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func statusStrings(statuses []domain.BookingStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
