package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sm8ta/webike_rental_microservice_nikita/internal/core/domain"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

const bikeColumns = `id, name, description, type, brand, price_per_day, images, specifications, location,
	availability, condition, rating, review_count, category_id, created_by, created_at, updated_at`

type BikeRepository struct {
	db *sql.DB
}

func NewBikeRepository(db *sql.DB) *BikeRepository {
	return &BikeRepository{
		db,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBike(row rowScanner) (*domain.Bike, error) {
	bike := &domain.Bike{}
	var images pq.StringArray
	var specs, location []byte
	err := row.Scan(
		&bike.ID,
		&bike.Name,
		&bike.Description,
		&bike.Type,
		&bike.Brand,
		&bike.PricePerDay,
		&images,
		&specs,
		&location,
		&bike.Availability,
		&bike.Condition,
		&bike.Rating,
		&bike.ReviewCount,
		&bike.CategoryID,
		&bike.CreatedBy,
		&bike.CreatedAt,
		&bike.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	bike.Images = []string(images)
	if err := json.Unmarshal(specs, &bike.Specifications); err != nil {
		return nil, fmt.Errorf("decode specifications: %w", err)
	}
	if err := json.Unmarshal(location, &bike.Location); err != nil {
		return nil, fmt.Errorf("decode location: %w", err)
	}
	return bike, nil
}

func (r *BikeRepository) CreateBike(ctx context.Context, bike *domain.Bike) (*domain.Bike, error) {
	specs, location, err := encodeBikeJSON(bike)
	if err != nil {
		return nil, err
	}

	query := `INSERT INTO bikes (id, name, description, type, brand, price_per_day, images, specifications, location,
		availability, condition, rating, review_count, category_id, created_by)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	RETURNING created_at, updated_at`

	err = r.db.QueryRowContext(ctx, query,
		bike.ID, bike.Name, bike.Description, bike.Type, bike.Brand, bike.PricePerDay,
		pq.StringArray(bike.Images), specs, location, bike.Availability, bike.Condition,
		bike.Rating, bike.ReviewCount, bike.CategoryID, bike.CreatedBy,
	).Scan(
		&bike.CreatedAt,
		&bike.UpdatedAt,
	)
	if err != nil {
		return nil, translate(err, "bike")
	}
	return bike, nil
}

func (r *BikeRepository) GetBikeByID(ctx context.Context, bikeID uuid.UUID) (*domain.Bike, error) {
	query := `SELECT ` + bikeColumns + ` FROM bikes WHERE id = $1`

	bike, err := scanBike(r.db.QueryRowContext(ctx, query, bikeID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("bike", bikeID)
	}
	if err != nil {
		return nil, err
	}
	return bike, nil
}

func (r *BikeRepository) GetBikesByIDs(ctx context.Context, bikeIDs []uuid.UUID) ([]*domain.Bike, error) {
	if len(bikeIDs) == 0 {
		return []*domain.Bike{}, nil
	}
	query := `SELECT ` + bikeColumns + ` FROM bikes WHERE id = ANY($1)`
	return r.queryBikes(ctx, query, pq.Array(uuidStrings(bikeIDs)))
}

func (r *BikeRepository) queryBikes(ctx context.Context, query string, args ...any) ([]*domain.Bike, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bikes := []*domain.Bike{}
	for rows.Next() {
		bike, err := scanBike(rows)
		if err != nil {
			return nil, err
		}
		bikes = append(bikes, bike)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return bikes, nil
}

var bikeSortColumns = map[string]string{
	"name":        "name",
	"pricePerDay": "price_per_day",
	"rating":      "rating",
	"reviewCount": "review_count",
	"createdAt":   "created_at",
}

func bikeWhere(f domain.BikeFilter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.Type != "" {
		add("type = $%d", string(f.Type))
	}
	if f.CategoryID != nil {
		add("category_id = $%d", *f.CategoryID)
	}
	if f.City != "" {
		add("lower(location->>'city') = lower($%d)", f.City)
	}
	if f.MinPrice != nil {
		add("price_per_day >= $%d", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		add("price_per_day <= $%d", *f.MaxPrice)
	}
	if f.Available != nil {
		add("availability = $%d", *f.Available)
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", n, n))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func bikeOrderBy(fields []domain.SortField) string {
	if len(fields) == 0 {
		fields = domain.ParseBikeSort("")
	}
	parts := make([]string, 0, len(fields)+1)
	for _, f := range fields {
		col, ok := bikeSortColumns[f.Field]
		if !ok {
			continue
		}
		if f.Desc {
			col += " DESC"
		}
		parts = append(parts, col)
	}
	parts = append(parts, "id")
	return " ORDER BY " + strings.Join(parts, ", ")
}

func (r *BikeRepository) ListBikes(ctx context.Context, filter domain.BikeFilter, page domain.Page) ([]*domain.Bike, int64, error) {
	where, args := bikeWhere(filter)

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bikes`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + bikeColumns + ` FROM bikes` + where + bikeOrderBy(filter.Sort) +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	bikes, err := r.queryBikes(ctx, query, append(args, page.Limit, page.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	return bikes, total, nil
}

func (r *BikeRepository) UpdateBike(ctx context.Context, bike *domain.Bike) (*domain.Bike, error) {
	specs, location, err := encodeBikeJSON(bike)
	if err != nil {
		return nil, err
	}

	query := `UPDATE bikes
		SET
			name = $1,
			description = $2,
			type = $3,
			brand = $4,
			price_per_day = $5,
			images = $6,
			specifications = $7,
			location = $8,
			availability = $9,
			condition = $10,
			category_id = $11,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $12
		RETURNING ` + bikeColumns

	updated, err := scanBike(r.db.QueryRowContext(ctx, query,
		bike.Name, bike.Description, bike.Type, bike.Brand, bike.PricePerDay,
		pq.StringArray(bike.Images), specs, location, bike.Availability, bike.Condition,
		bike.CategoryID, bike.ID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("bike", bike.ID)
	}
	if err != nil {
		return nil, translate(err, "bike")
	}
	return updated, nil
}

func (r *BikeRepository) DeleteBike(ctx context.Context, bikeID uuid.UUID) error {
	return execOne(ctx, r.db, `DELETE FROM bikes WHERE id = $1`, "bike", bikeID)
}

func (r *BikeRepository) CountBikesByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bikes WHERE category_id = $1`, categoryID).Scan(&n)
	return n, err
}

func (r *BikeRepository) SetRatingStats(ctx context.Context, bikeID uuid.UUID, rating float64, reviewCount int) error {
	return execOne(ctx, r.db, `UPDATE bikes SET rating = $1, review_count = $2 WHERE id = $3`,
		"bike", bikeID, rating, reviewCount)
}

func (r *BikeRepository) GetBikeStats(ctx context.Context) ([]domain.BikeTypeStats, error) {
	query := `SELECT type, COUNT(*), ROUND(AVG(price_per_day), 2), AVG(rating)
		FROM bikes GROUP BY type ORDER BY COUNT(*) DESC, type`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := []domain.BikeTypeStats{}
	for rows.Next() {
		var st domain.BikeTypeStats
		var avgPrice decimal.Decimal
		if err := rows.Scan(&st.Type, &st.Count, &avgPrice, &st.AvgRating); err != nil {
			return nil, err
		}
		st.AvgPrice, _ = avgPrice.Float64()
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

func encodeBikeJSON(bike *domain.Bike) ([]byte, []byte, error) {
	specs, err := json.Marshal(bike.Specifications)
	if err != nil {
		return nil, nil, err
	}
	location, err := json.Marshal(bike.Location)
	if err != nil {
		return nil, nil, err
	}
	return specs, location, nil
}
