package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// swagger:model domain.Bike
type Bike struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name" validate:"required,max=100"`
	Description    string          `json:"description" validate:"required,max=1000"`
	Type           BikeType        `json:"type" validate:"required,oneof=Mountain Road Electric Hybrid BMX Cruiser"`
	Brand          string          `json:"brand" validate:"required"`
	PricePerDay    decimal.Decimal `json:"pricePerDay"`
	Images         []string        `json:"images"`
	Specifications Specifications  `json:"specifications"`
	Location       Location        `json:"location"`
	Availability   bool            `json:"availability"`
	Condition      BikeCondition   `json:"condition" validate:"omitempty,oneof=Excellent Good Fair"`
	Rating         float64         `json:"rating"`
	ReviewCount    int             `json:"reviewCount"`
	CategoryID     uuid.UUID       `json:"category"`
	CreatedBy      uuid.UUID       `json:"createdBy"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

type BikeType string

const (
	Mountain BikeType = "Mountain"
	Road     BikeType = "Road"
	Electric BikeType = "Electric"
	Hybrid   BikeType = "Hybrid"
	BMX      BikeType = "BMX"
	Cruiser  BikeType = "Cruiser"
)

type BikeCondition string

const (
	Excellent BikeCondition = "Excellent"
	Good      BikeCondition = "Good"
	Fair      BikeCondition = "Fair"
)

type Specifications struct {
	FrameSize string  `json:"frameSize" bson:"frameSize" validate:"required"`
	Gears     int     `json:"gears" bson:"gears" validate:"required,min=1"`
	Weight    float64 `json:"weight" bson:"weight" validate:"required,min=1"`
	WheelSize string  `json:"wheelSize" bson:"wheelSize" validate:"required"`
	Material  string  `json:"material" bson:"material" validate:"required"`
	Brakes    string  `json:"brakes" bson:"brakes" validate:"required"`
}

type Location struct {
	Address     string      `json:"address" bson:"address"`
	City        string      `json:"city" bson:"city"`
	State       string      `json:"state" bson:"state"`
	ZipCode     string      `json:"zipCode" bson:"zipCode"`
	Coordinates Coordinates `json:"coordinates" bson:"coordinates"`
}

type Coordinates struct {
	Lat float64 `json:"lat" bson:"lat"`
	Lng float64 `json:"lng" bson:"lng"`
}

// BikeFilter narrows the catalog listing. Nil pointers mean "any".
type BikeFilter struct {
	Type       BikeType
	CategoryID *uuid.UUID
	City       string
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	Available  *bool
	Search     string
	Sort       []SortField
}

type SortField struct {
	Field string
	Desc  bool
}

var bikeSortFields = map[string]bool{
	"name":        true,
	"pricePerDay": true,
	"rating":      true,
	"reviewCount": true,
	"createdAt":   true,
}

// ParseBikeSort turns "-pricePerDay,rating" into sort fields, dropping unknown names.
// An empty result means newest first.
func ParseBikeSort(raw string) []SortField {
	var fields []SortField
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		desc := strings.HasPrefix(part, "-")
		name := strings.TrimPrefix(part, "-")
		if !bikeSortFields[name] {
			continue
		}
		fields = append(fields, SortField{Field: name, Desc: desc})
	}
	if len(fields) == 0 {
		return []SortField{{Field: "createdAt", Desc: true}}
	}
	return fields
}

type BikeTypeStats struct {
	Type      BikeType `json:"type"`
	Count     int64    `json:"count"`
	AvgPrice  float64  `json:"avgPrice"`
	AvgRating float64  `json:"avgRating"`
}

// BikeUpdate carries the fields a caller may change; nil leaves a field as is.
type BikeUpdate struct {
	Name           *string
	Description    *string
	Type           *BikeType
	Brand          *string
	PricePerDay    *decimal.Decimal
	Images         []string
	Specifications *Specifications
	Location       *Location
	Availability   *bool
	Condition      *BikeCondition
	CategoryID     *uuid.UUID
}

// Apply copies the set fields onto b and reports whether the category changed.
func (u BikeUpdate) Apply(b *Bike) (categoryChanged bool) {
	if u.Name != nil {
		b.Name = *u.Name
	}
	if u.Description != nil {
		b.Description = *u.Description
	}
	if u.Type != nil {
		b.Type = *u.Type
	}
	if u.Brand != nil {
		b.Brand = *u.Brand
	}
	if u.PricePerDay != nil {
		b.PricePerDay = *u.PricePerDay
	}
	if u.Images != nil {
		b.Images = u.Images
	}
	if u.Specifications != nil {
		b.Specifications = *u.Specifications
	}
	if u.Location != nil {
		b.Location = *u.Location
	}
	if u.Availability != nil {
		b.Availability = *u.Availability
	}
	if u.Condition != nil {
		b.Condition = *u.Condition
	}
	if u.CategoryID != nil && *u.CategoryID != b.CategoryID {
		b.CategoryID = *u.CategoryID
		return true
	}
	return false
}

var minPricePerDay = decimal.NewFromInt(1)

func (b *Bike) ValidPrice() bool {
	return b.PricePerDay.GreaterThanOrEqual(minPricePerDay)
}
