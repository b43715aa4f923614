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

var newestFirst = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}}

func (s *Store) CreateReview(ctx context.Context, review *domain.Review) (*domain.Review, error) {
	now := s.timestamp()
	review.CreatedAt = now
	review.UpdatedAt = now

	if _, err := s.reviews.InsertOne(ctx, newReviewDocument(review)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("booking %s: %w", review.BookingID, domain.ErrDuplicateReview)
		}
		return nil, fmt.Errorf("insert review: %w", err)
	}
	return review, nil
}

func (s *Store) findReview(ctx context.Context, filter bson.M, what string, id uuid.UUID) (*domain.Review, error) {
	var doc reviewDocument
	err := s.reviews.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.NotFound(what, id)
	}
	if err != nil {
		return nil, fmt.Errorf("find review: %w", err)
	}
	return doc.toDomain(), nil
}

func (s *Store) GetReviewByID(ctx context.Context, reviewID uuid.UUID) (*domain.Review, error) {
	return s.findReview(ctx, bson.M{"_id": reviewID.String()}, "review", reviewID)
}

func (s *Store) GetReviewByBooking(ctx context.Context, bookingID uuid.UUID) (*domain.Review, error) {
	return s.findReview(ctx, bson.M{"booking": bookingID.String()}, "review of booking", bookingID)
}

func (s *Store) findReviews(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domain.Review, error) {
	cur, err := s.reviews.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find reviews: %w", err)
	}
	docs, err := decodeAll[reviewDocument](ctx, cur)
	if err != nil {
		return nil, err
	}

	reviews := make([]*domain.Review, len(docs))
	for i, d := range docs {
		reviews[i] = d.toDomain()
	}
	return reviews, nil
}

func (s *Store) ListReviews(ctx context.Context, page domain.Page) ([]*domain.Review, int64, error) {
	total, err := s.reviews.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, fmt.Errorf("count reviews: %w", err)
	}

	reviews, err := s.findReviews(ctx, bson.M{}, findOptions(page.Offset(), page.Limit, newestFirst))
	if err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

func (s *Store) GetReviewsByBike(ctx context.Context, bikeID uuid.UUID) ([]*domain.Review, error) {
	return s.findReviews(ctx, bson.M{"bike": bikeID.String()}, options.Find().SetSort(newestFirst))
}

func (s *Store) GetRatingsByBike(ctx context.Context, bikeID uuid.UUID) ([]int, error) {
	cur, err := s.reviews.Find(ctx, bson.M{"bike": bikeID.String()},
		options.Find().SetProjection(bson.M{"rating": 1}))
	if err != nil {
		return nil, fmt.Errorf("find ratings: %w", err)
	}

	type row struct {
		Rating int `bson:"rating"`
	}
	rows, err := decodeAll[row](ctx, cur)
	if err != nil {
		return nil, err
	}

	ratings := make([]int, len(rows))
	for i, r := range rows {
		ratings[i] = r.Rating
	}
	return ratings, nil
}

func (s *Store) UpdateReview(ctx context.Context, review *domain.Review) (*domain.Review, error) {
	update := bson.M{"$set": bson.M{
		"rating":    review.Rating,
		"title":     review.Title,
		"comment":   review.Comment,
		"images":    nonNil(review.Images),
		"updatedAt": s.timestamp(),
	}}

	var updated reviewDocument
	err := s.reviews.FindOneAndUpdate(ctx, bson.M{"_id": review.ID.String()}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.NotFound("review", review.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}
	return updated.toDomain(), nil
}

// AddHelpful relies on $addToSet: ModifiedCount is zero when the user was already in the set.
func (s *Store) AddHelpful(ctx context.Context, reviewID, userID uuid.UUID) (bool, error) {
	res, err := s.reviews.UpdateOne(ctx, bson.M{"_id": reviewID.String()},
		bson.M{"$addToSet": bson.M{"helpful": userID.String()}})
	if err != nil {
		return false, fmt.Errorf("mark review helpful: %w", err)
	}
	if res.MatchedCount == 0 {
		return false, domain.NotFound("review", reviewID)
	}
	return res.ModifiedCount == 1, nil
}

func (s *Store) DeleteReview(ctx context.Context, reviewID uuid.UUID) error {
	res, err := s.reviews.DeleteOne(ctx, bson.M{"_id": reviewID.String()})
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.NotFound("review", reviewID)
	}
	return nil
}

func (s *Store) DeleteReviewsByBike(ctx context.Context, bikeID uuid.UUID) (int64, error) {
	res, err := s.reviews.DeleteMany(ctx, bson.M{"bike": bikeID.String()})
	if err != nil {
		return 0, fmt.Errorf("delete reviews of bike: %w", err)
	}
	return res.DeletedCount, nil
}

func (s *Store) CountReviewsByRating(ctx context.Context) (map[int]int64, error) {
	cur, err := s.reviews.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$rating", "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, fmt.Errorf("aggregate review stats: %w", err)
	}

	type row struct {
		Rating int   `bson:"_id"`
		Count  int64 `bson:"count"`
	}
	rows, err := decodeAll[row](ctx, cur)
	if err != nil {
		return nil, err
	}

	counts := make(map[int]int64, len(rows))
	for _, r := range rows {
		counts[r.Rating] = r.Count
	}
	return counts, nil
}
