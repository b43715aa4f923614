package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	bikesCollection      = "bikes"
	bookingsCollection   = "bookings"
	reviewsCollection    = "reviews"
	categoriesCollection = "categories"
	usersCollection      = "users"
)

// Store implements every repository port on one MongoDB database.
type Store struct {
	client     *mongo.Client
	bikes      *mongo.Collection
	bookings   *mongo.Collection
	reviews    *mongo.Collection
	categories *mongo.Collection
	users      *mongo.Collection
	now        func() time.Time
}

func Connect(ctx context.Context, uri, database string) (*Store, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return NewStore(client, database), nil
}

func NewStore(client *mongo.Client, database string) *Store {
	db := client.Database(database)
	return &Store{
		client:     client,
		bikes:      db.Collection(bikesCollection),
		bookings:   db.Collection(bookingsCollection),
		reviews:    db.Collection(reviewsCollection),
		categories: db.Collection(categoriesCollection),
		users:      db.Collection(usersCollection),
		now:        time.Now,
	}
}

// EnsureIndexes creates the lookup indexes and the uniqueness constraints on
// reviews.booking and categories.name.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := map[*mongo.Collection][]mongo.IndexModel{
		s.bikes: {
			{Keys: bson.D{{Key: "name", Value: "text"}, {Key: "description", Value: "text"}}},
			{Keys: bson.D{{Key: "category", Value: 1}}},
			{Keys: bson.D{{Key: "type", Value: 1}, {Key: "pricePerDay", Value: 1}}},
			{Keys: bson.D{{Key: "location.city", Value: 1}}},
		},
		s.bookings: {
			{Keys: bson.D{{Key: "bike", Value: 1}, {Key: "status", Value: 1}, {Key: "startDate", Value: 1}}},
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		s.reviews: {
			{Keys: bson.D{{Key: "booking", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "bike", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		s.categories: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}

	for coll, models := range indexes {
		if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll.Name(), err)
		}
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

func findOptions(skip int64, limit int, sort bson.D) *options.FindOptions {
	opts := options.Find().SetSort(sort)
	if limit > 0 {
		opts.SetSkip(skip).SetLimit(int64(limit))
	}
	return opts
}

func decodeAll[T any](ctx context.Context, cur *mongo.Cursor) ([]T, error) {
	defer cur.Close(ctx)

	var docs []T
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}
