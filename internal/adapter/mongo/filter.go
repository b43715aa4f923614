package mongo

import (
	"regexp"

	"github.com/sm8ta/webike_rental_microservice_nikita/internal/core/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func bikeFilter(f domain.BikeFilter) bson.M {
	filter := bson.M{}
	if f.Type != "" {
		filter["type"] = string(f.Type)
	}
	if f.CategoryID != nil {
		filter["category"] = f.CategoryID.String()
	}
	if f.City != "" {
		filter["location.city"] = primitive.Regex{Pattern: "^" + regexp.QuoteMeta(f.City) + "$", Options: "i"}
	}
	if f.MinPrice != nil || f.MaxPrice != nil {
		price := bson.M{}
		if f.MinPrice != nil {
			price["$gte"] = toDecimal128(*f.MinPrice)
		}
		if f.MaxPrice != nil {
			price["$lte"] = toDecimal128(*f.MaxPrice)
		}
		filter["pricePerDay"] = price
	}
	if f.Available != nil {
		filter["availability"] = *f.Available
	}
	if f.Search != "" {
		filter["$text"] = bson.M{"$search": f.Search}
	}
	return filter
}

func bikeSort(fields []domain.SortField) bson.D {
	if len(fields) == 0 {
		fields = domain.ParseBikeSort("")
	}
	sort := make(bson.D, 0, len(fields)+1)
	for _, f := range fields {
		dir := 1
		if f.Desc {
			dir = -1
		}
		sort = append(sort, bson.E{Key: f.Field, Value: dir})
	}
	return append(sort, bson.E{Key: "_id", Value: 1})
}

func bookingFilter(f domain.BookingFilter) bson.M {
	filter := bson.M{}
	if f.UserID != nil {
		filter["user"] = f.UserID.String()
	}
	if f.BikeID != nil {
		filter["bike"] = f.BikeID.String()
	}
	if f.Status != "" {
		filter["status"] = string(f.Status)
	}
	return filter
}

func statusStrings(statuses []domain.BookingStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
