package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/sm8ta/webike_rental_microservice_nikita/internal/core/domain"

	"github.com/google/uuid"
)

type CategoryRepository struct {
	db *sql.DB
}

func NewCategoryRepository(db *sql.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) CreateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	query := `INSERT INTO categories (id, name, description, image, bike_count)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		category.ID,
		category.Name,
		category.Description,
		category.Image,
		category.BikeCount,
	).Scan(
		&category.CreatedAt,
		&category.UpdatedAt,
	)
	if err != nil {
		return nil, translate(err, "category")
	}

	return category, nil
}

func scanCategory(row rowScanner) (*domain.Category, error) {
	var category domain.Category
	err := row.Scan(
		&category.ID,
		&category.Name,
		&category.Description,
		&category.Image,
		&category.BikeCount,
		&category.CreatedAt,
		&category.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *CategoryRepository) GetCategoryByID(ctx context.Context, categoryID uuid.UUID) (*domain.Category, error) {
	query := `
		SELECT id, name, description, image, bike_count, created_at, updated_at
		FROM categories
		WHERE id = $1
	`

	category, err := scanCategory(r.db.QueryRowContext(ctx, query, categoryID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("category", categoryID)
		}
		return nil, err
	}

	return category, nil
}

func (r *CategoryRepository) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	query := `
		SELECT id, name, description, image, bike_count, created_at, updated_at
		FROM categories
		ORDER BY name
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []*domain.Category{}
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}

	return categories, rows.Err()
}

func (r *CategoryRepository) UpdateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	query := `
		UPDATE categories
		SET
			name = $1,
			description = $2,
			image = $3,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $4
		RETURNING id, name, description, image, bike_count, created_at, updated_at
	`

	updated, err := scanCategory(r.db.QueryRowContext(ctx, query,
		category.Name,
		category.Description,
		category.Image,
		category.ID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("category", category.ID)
		}
		return nil, translate(err, "category")
	}

	return updated, nil
}

func (r *CategoryRepository) DeleteCategory(ctx context.Context, categoryID uuid.UUID) error {
	return execOne(ctx, r.db, `DELETE FROM categories WHERE id = $1`, "category", categoryID)
}

func (r *CategoryRepository) SetBikeCount(ctx context.Context, categoryID uuid.UUID, count int64) error {
	return execOne(ctx, r.db, `UPDATE categories SET bike_count = $1 WHERE id = $2`, "category", categoryID, count)
}
