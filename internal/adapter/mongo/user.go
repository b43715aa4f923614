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

func (s *Store) GetOrCreateUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	now := s.timestamp()
	update := bson.M{"$setOnInsert": bson.M{
		"favorites": []string{},
		"bookings":  []string{},
		"createdAt": now,
		"updatedAt": now,
	}}

	var doc userDocument
	err := s.users.FindOneAndUpdate(ctx, bson.M{"_id": userID.String()}, update,
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)).Decode(&doc)
	if err != nil {
		return nil, fmt.Errorf("get or create user: %w", err)
	}
	return doc.toDomain(), nil
}

func (s *Store) GetUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	var doc userDocument
	err := s.users.FindOne(ctx, bson.M{"_id": userID.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.NotFound("user", userID)
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toDomain(), nil
}

func (s *Store) ListUsers(ctx context.Context, page domain.Page) ([]*domain.User, int64, error) {
	total, err := s.users.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	cur, err := s.users.Find(ctx, bson.M{}, findOptions(page.Offset(), page.Limit, newestFirst))
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	docs, err := decodeAll[userDocument](ctx, cur)
	if err != nil {
		return nil, 0, err
	}

	users := make([]*domain.User, len(docs))
	for i, d := range docs {
		users[i] = d.toDomain()
	}
	return users, total, nil
}

// AddFavorite only matches users that do not have the bike yet, so a miss means either
// "already a favorite" or "no such user".
func (s *Store) AddFavorite(ctx context.Context, userID, bikeID uuid.UUID) (bool, error) {
	res, err := s.users.UpdateOne(ctx,
		bson.M{"_id": userID.String(), "favorites": bson.M{"$ne": bikeID.String()}},
		bson.M{
			"$addToSet": bson.M{"favorites": bikeID.String()},
			"$set":      bson.M{"updatedAt": s.timestamp()},
		})
	if err != nil {
		return false, fmt.Errorf("add favorite: %w", err)
	}
	if res.MatchedCount == 1 {
		return true, nil
	}

	if _, err := s.GetUserByID(ctx, userID); err != nil {
		return false, err
	}
	return false, nil
}

func (s *Store) RemoveFavorite(ctx context.Context, userID, bikeID uuid.UUID) error {
	res, err := s.users.UpdateOne(ctx, bson.M{"_id": userID.String()}, bson.M{
		"$pull": bson.M{"favorites": bikeID.String()},
		"$set":  bson.M{"updatedAt": s.timestamp()},
	})
	if err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.NotFound("user", userID)
	}
	return nil
}

func (s *Store) AddBooking(ctx context.Context, userID, bookingID uuid.UUID) error {
	now := s.timestamp()
	_, err := s.users.UpdateOne(ctx, bson.M{"_id": userID.String()}, bson.M{
		"$push":        bson.M{"bookings": bookingID.String()},
		"$set":         bson.M{"updatedAt": now},
		"$setOnInsert": bson.M{"favorites": []string{}, "createdAt": now},
	}, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("add booking to user: %w", err)
	}
	return nil
}

func (s *Store) RemoveBikeReferences(ctx context.Context, bikeID uuid.UUID, bookingIDs []uuid.UUID) error {
	pull := bson.M{"favorites": bikeID.String()}
	if len(bookingIDs) > 0 {
		pull["bookings"] = bson.M{"$in": idStrings(bookingIDs)}
	}

	_, err := s.users.UpdateMany(ctx, bson.M{"$or": bson.A{
		bson.M{"favorites": bikeID.String()},
		bson.M{"bookings": bson.M{"$in": idStrings(bookingIDs)}},
	}}, bson.M{"$pull": pull})
	if err != nil {
		return fmt.Errorf("remove bike references: %w", err)
	}
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	res, err := s.users.DeleteOne(ctx, bson.M{"_id": userID.String()})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.NotFound("user", userID)
	}
	return nil
}
