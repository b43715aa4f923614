package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/sm8ta/webike_rental_microservice_nikita/internal/core/domain"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (s *Store) CreateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	now := s.timestamp()
	category.CreatedAt = now
	category.UpdatedAt = now

	if _, err := s.categories.InsertOne(ctx, newCategoryDocument(category)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("category %q exists: %w", category.Name, domain.ErrConflict)
		}
		return nil, fmt.Errorf("insert category: %w", err)
	}
	return category, nil
}

func (s *Store) GetCategoryByID(ctx context.Context, categoryID uuid.UUID) (*domain.Category, error) {
	var doc categoryDocument
	err := s.categories.FindOne(ctx, bson.M{"_id": categoryID.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.NotFound("category", categoryID)
	}
	if err != nil {
		return nil, fmt.Errorf("find category: %w", err)
	}
	return doc.toDomain(), nil
}

func (s *Store) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	cur, err := s.categories.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	docs, err := decodeAll[categoryDocument](ctx, cur)
	if err != nil {
		return nil, err
	}

	categories := make([]*domain.Category, len(docs))
	for i, d := range docs {
		categories[i] = d.toDomain()
	}
	return categories, nil
}

func (s *Store) UpdateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	update := bson.M{"$set": bson.M{
		"name":        category.Name,
		"description": category.Description,
		"image":       category.Image,
		"updatedAt":   s.timestamp(),
	}}

	var updated categoryDocument
	err := s.categories.FindOneAndUpdate(ctx, bson.M{"_id": category.ID.String()}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.NotFound("category", category.ID)
	}
	if mongo.IsDuplicateKeyError(err) {
		return nil, fmt.Errorf("category %q exists: %w", category.Name, domain.ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	return updated.toDomain(), nil
}

func (s *Store) DeleteCategory(ctx context.Context, categoryID uuid.UUID) error {
	res, err := s.categories.DeleteOne(ctx, bson.M{"_id": categoryID.String()})
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.NotFound("category", categoryID)
	}
	return nil
}

func (s *Store) SetBikeCount(ctx context.Context, categoryID uuid.UUID, count int64) error {
	res, err := s.categories.UpdateOne(ctx, bson.M{"_id": categoryID.String()},
		bson.M{"$set": bson.M{"bikeCount": count}})
	if err != nil {
		return fmt.Errorf("set category bike count: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.NotFound("category", categoryID)
	}
	return nil
}
