package mongo

import (
	"time"

	"github.com/sm8ta/webike_rental_microservice_nikita/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Documents store ids as uuid strings and money as Decimal128.

type bikeDocument struct {
	ID             string                `bson:"_id"`
	Name           string                `bson:"name"`
	Description    string                `bson:"description"`
	Type           string                `bson:"type"`
	Brand          string                `bson:"brand"`
	PricePerDay    primitive.Decimal128  `bson:"pricePerDay"`
	Images         []string              `bson:"images"`
	Specifications domain.Specifications `bson:"specifications"`
	Location       domain.Location       `bson:"location"`
	Availability   bool                  `bson:"availability"`
	Condition      string                `bson:"condition"`
	Rating         float64               `bson:"rating"`
	ReviewCount    int                   `bson:"reviewCount"`
	Category       string                `bson:"category"`
	CreatedBy      string                `bson:"createdBy"`
	CreatedAt      time.Time             `bson:"createdAt"`
	UpdatedAt      time.Time             `bson:"updatedAt"`
}

type bookingDocument struct {
	ID                 string               `bson:"_id"`
	User               string               `bson:"user"`
	Bike               string               `bson:"bike"`
	StartDate          time.Time            `bson:"startDate"`
	EndDate            time.Time            `bson:"endDate"`
	TotalDays          int                  `bson:"totalDays"`
	TotalPrice         primitive.Decimal128 `bson:"totalPrice"`
	Status             string               `bson:"status"`
	PaymentStatus      string               `bson:"paymentStatus"`
	PaymentIntentID    string               `bson:"paymentIntentId,omitempty"`
	PickupLocation     domain.Location      `bson:"pickupLocation"`
	SpecialRequests    string               `bson:"specialRequests,omitempty"`
	CancellationReason string               `bson:"cancellationReason,omitempty"`
	CancelledAt        *time.Time           `bson:"cancelledAt,omitempty"`
	CompletedAt        *time.Time           `bson:"completedAt,omitempty"`
	CreatedAt          time.Time            `bson:"createdAt"`
	UpdatedAt          time.Time            `bson:"updatedAt"`
}

type reviewDocument struct {
	ID        string    `bson:"_id"`
	User      string    `bson:"user"`
	Bike      string    `bson:"bike"`
	Booking   string    `bson:"booking"`
	Rating    int       `bson:"rating"`
	Title     string    `bson:"title"`
	Comment   string    `bson:"comment"`
	Images    []string  `bson:"images"`
	Helpful   []string  `bson:"helpful"`
	Verified  bool      `bson:"verified"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

type categoryDocument struct {
	ID          string    `bson:"_id"`
	Name        string    `bson:"name"`
	Description string    `bson:"description"`
	Image       string    `bson:"image,omitempty"`
	BikeCount   int64     `bson:"bikeCount"`
	CreatedAt   time.Time `bson:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt"`
}

type userDocument struct {
	ID        string    `bson:"_id"`
	Favorites []string  `bson:"favorites"`
	Bookings  []string  `bson:"bookings"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

func toDecimal128(d decimal.Decimal) primitive.Decimal128 {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.NewDecimal128(0, 0)
	}
	return v
}

func fromDecimal128(v primitive.Decimal128) decimal.Decimal {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func parseIDs(raw []string) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		if id, err := uuid.Parse(s); err == nil {
			out = append(out, id)
		}
	}
	return out
}

func newBikeDocument(b *domain.Bike) bikeDocument {
	return bikeDocument{
		ID:             b.ID.String(),
		Name:           b.Name,
		Description:    b.Description,
		Type:           string(b.Type),
		Brand:          b.Brand,
		PricePerDay:    toDecimal128(b.PricePerDay),
		Images:         nonNil(b.Images),
		Specifications: b.Specifications,
		Location:       b.Location,
		Availability:   b.Availability,
		Condition:      string(b.Condition),
		Rating:         b.Rating,
		ReviewCount:    b.ReviewCount,
		Category:       b.CategoryID.String(),
		CreatedBy:      b.CreatedBy.String(),
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
	}
}

func (d bikeDocument) toDomain() *domain.Bike {
	return &domain.Bike{
		ID:             uuid.MustParse(d.ID),
		Name:           d.Name,
		Description:    d.Description,
		Type:           domain.BikeType(d.Type),
		Brand:          d.Brand,
		PricePerDay:    fromDecimal128(d.PricePerDay),
		Images:         d.Images,
		Specifications: d.Specifications,
		Location:       d.Location,
		Availability:   d.Availability,
		Condition:      domain.BikeCondition(d.Condition),
		Rating:         d.Rating,
		ReviewCount:    d.ReviewCount,
		CategoryID:     uuid.MustParse(d.Category),
		CreatedBy:      parseOrNil(d.CreatedBy),
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

func newBookingDocument(b *domain.Booking) bookingDocument {
	return bookingDocument{
		ID:                 b.ID.String(),
		User:               b.UserID.String(),
		Bike:               b.BikeID.String(),
		StartDate:          b.StartDate,
		EndDate:            b.EndDate,
		TotalDays:          b.TotalDays,
		TotalPrice:         toDecimal128(b.TotalPrice),
		Status:             string(b.Status),
		PaymentStatus:      string(b.PaymentStatus),
		PaymentIntentID:    b.PaymentIntentID,
		PickupLocation:     b.PickupLocation,
		SpecialRequests:    b.SpecialRequests,
		CancellationReason: b.CancellationReason,
		CancelledAt:        b.CancelledAt,
		CompletedAt:        b.CompletedAt,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}
}

func (d bookingDocument) toDomain() *domain.Booking {
	return &domain.Booking{
		ID:                 uuid.MustParse(d.ID),
		UserID:             uuid.MustParse(d.User),
		BikeID:             uuid.MustParse(d.Bike),
		StartDate:          d.StartDate,
		EndDate:            d.EndDate,
		TotalDays:          d.TotalDays,
		TotalPrice:         fromDecimal128(d.TotalPrice),
		Status:             domain.BookingStatus(d.Status),
		PaymentStatus:      domain.PaymentStatus(d.PaymentStatus),
		PaymentIntentID:    d.PaymentIntentID,
		PickupLocation:     d.PickupLocation,
		SpecialRequests:    d.SpecialRequests,
		CancellationReason: d.CancellationReason,
		CancelledAt:        d.CancelledAt,
		CompletedAt:        d.CompletedAt,
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
	}
}

func newReviewDocument(r *domain.Review) reviewDocument {
	return reviewDocument{
		ID:        r.ID.String(),
		User:      r.UserID.String(),
		Bike:      r.BikeID.String(),
		Booking:   r.BookingID.String(),
		Rating:    r.Rating,
		Title:     r.Title,
		Comment:   r.Comment,
		Images:    nonNil(r.Images),
		Helpful:   idStrings(r.Helpful),
		Verified:  r.Verified,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func (d reviewDocument) toDomain() *domain.Review {
	return &domain.Review{
		ID:        uuid.MustParse(d.ID),
		UserID:    uuid.MustParse(d.User),
		BikeID:    uuid.MustParse(d.Bike),
		BookingID: uuid.MustParse(d.Booking),
		Rating:    d.Rating,
		Title:     d.Title,
		Comment:   d.Comment,
		Images:    d.Images,
		Helpful:   parseIDs(d.Helpful),
		Verified:  d.Verified,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func newCategoryDocument(c *domain.Category) categoryDocument {
	return categoryDocument{
		ID:          c.ID.String(),
		Name:        c.Name,
		Description: c.Description,
		Image:       c.Image,
		BikeCount:   c.BikeCount,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func (d categoryDocument) toDomain() *domain.Category {
	return &domain.Category{
		ID:          uuid.MustParse(d.ID),
		Name:        d.Name,
		Description: d.Description,
		Image:       d.Image,
		BikeCount:   d.BikeCount,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func (d userDocument) toDomain() *domain.User {
	return &domain.User{
		ID:        uuid.MustParse(d.ID),
		Favorites: parseIDs(d.Favorites),
		Bookings:  parseIDs(d.Bookings),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func parseOrNil(s string) uuid.UUID {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil
	}
	return id
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
