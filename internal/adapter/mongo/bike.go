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

func (s *Store) CreateBike(ctx context.Context, bike *domain.Bike) (*domain.Bike, error) {
	now := s.timestamp()
	bike.CreatedAt = now
	bike.UpdatedAt = now

	if _, err := s.bikes.InsertOne(ctx, newBikeDocument(bike)); err != nil {
		return nil, fmt.Errorf("insert bike: %w", err)
	}
	return bike, nil
}

func (s *Store) GetBikeByID(ctx context.Context, bikeID uuid.UUID) (*domain.Bike, error) {
	var doc bikeDocument
	err := s.bikes.FindOne(ctx, bson.M{"_id": bikeID.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.NotFound("bike", bikeID)
	}
	if err != nil {
		return nil, fmt.Errorf("find bike: %w", err)
	}
	return doc.toDomain(), nil
}

func (s *Store) GetBikesByIDs(ctx context.Context, bikeIDs []uuid.UUID) ([]*domain.Bike, error) {
	if len(bikeIDs) == 0 {
		return []*domain.Bike{}, nil
	}

	cur, err := s.bikes.Find(ctx, bson.M{"_id": bson.M{"$in": idStrings(bikeIDs)}})
	if err != nil {
		return nil, fmt.Errorf("find bikes: %w", err)
	}
	docs, err := decodeAll[bikeDocument](ctx, cur)
	if err != nil {
		return nil, err
	}

	bikes := make([]*domain.Bike, len(docs))
	for i, d := range docs {
		bikes[i] = d.toDomain()
	}
	return bikes, nil
}

func (s *Store) ListBikes(ctx context.Context, filter domain.BikeFilter, page domain.Page) ([]*domain.Bike, int64, error) {
	query := bikeFilter(filter)

	total, err := s.bikes.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("count bikes: %w", err)
	}

	cur, err := s.bikes.Find(ctx, query, findOptions(page.Offset(), page.Limit, bikeSort(filter.Sort)))
	if err != nil {
		return nil, 0, fmt.Errorf("list bikes: %w", err)
	}
	docs, err := decodeAll[bikeDocument](ctx, cur)
	if err != nil {
		return nil, 0, err
	}

	bikes := make([]*domain.Bike, len(docs))
	for i, d := range docs {
		bikes[i] = d.toDomain()
	}
	return bikes, total, nil
}

func (s *Store) UpdateBike(ctx context.Context, bike *domain.Bike) (*domain.Bike, error) {
	doc := newBikeDocument(bike)
	update := bson.M{"$set": bson.M{
		"name":           doc.Name,
		"description":    doc.Description,
		"type":           doc.Type,
		"brand":          doc.Brand,
		"pricePerDay":    doc.PricePerDay,
		"images":         doc.Images,
		"specifications": doc.Specifications,
		"location":       doc.Location,
		"availability":   doc.Availability,
		"condition":      doc.Condition,
		"category":       doc.Category,
		"updatedAt":      s.timestamp(),
	}}

	var updated bikeDocument
	err := s.bikes.FindOneAndUpdate(ctx, bson.M{"_id": doc.ID}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.NotFound("bike", bike.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("update bike: %w", err)
	}
	return updated.toDomain(), nil
}

func (s *Store) DeleteBike(ctx context.Context, bikeID uuid.UUID) error {
	res, err := s.bikes.DeleteOne(ctx, bson.M{"_id": bikeID.String()})
	if err != nil {
		return fmt.Errorf("delete bike: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.NotFound("bike", bikeID)
	}
	return nil
}

func (s *Store) CountBikesByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	n, err := s.bikes.CountDocuments(ctx, bson.M{"category": categoryID.String()})
	if err != nil {
		return 0, fmt.Errorf("count bikes of category: %w", err)
	}
	return n, nil
}

func (s *Store) SetRatingStats(ctx context.Context, bikeID uuid.UUID, rating float64, reviewCount int) error {
	res, err := s.bikes.UpdateOne(ctx, bson.M{"_id": bikeID.String()}, bson.M{"$set": bson.M{
		"rating":      rating,
		"reviewCount": reviewCount,
	}})
	if err != nil {
		return fmt.Errorf("set bike rating: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.NotFound("bike", bikeID)
	}
	return nil
}

func (s *Store) GetBikeStats(ctx context.Context) ([]domain.BikeTypeStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":       "$type",
			"count":     bson.M{"$sum": 1},
			"avgPrice":  bson.M{"$avg": "$pricePerDay"},
			"avgRating": bson.M{"$avg": "$rating"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
	}

	cur, err := s.bikes.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate bike stats: %w", err)
	}

	type row struct {
		Type      string               `bson:"_id"`
		Count     int64                `bson:"count"`
		AvgPrice  primitive.Decimal128 `bson:"avgPrice"`
		AvgRating float64              `bson:"avgRating"`
	}
	rows, err := decodeAll[row](ctx, cur)
	if err != nil {
		return nil, err
	}

	stats := make([]domain.BikeTypeStats, len(rows))
	for i, r := range rows {
		avgPrice, _ := fromDecimal128(r.AvgPrice).Round(2).Float64()
		stats[i] = domain.BikeTypeStats{
			Type:      domain.BikeType(r.Type),
			Count:     r.Count,
			AvgPrice:  avgPrice,
			AvgRating: r.AvgRating,
		}
	}
	return stats, nil
}
