// Package room is the read-only room catalog supplied by the booking service.
package room

import (
	"net/http"
	"strings"

	"github.com/nekogravitycat/hostel-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound  = apperror.New(http.StatusNotFound, "room not found")
	ErrInvalidID = apperror.New(http.StatusBadRequest, "invalid room id")
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderMixed  Gender = "mixed"
)

// Room is a shared room with bookable beds.
type Room struct {
	ID           int64
	Name         string
	Description  string
	Capacity     int
	Price        float64 // nightly rate per bed
	Images       []string
	Amenities    []string
	BedsLabel    string
	RoomSize     float64
	CategoryID   int64
	CategoryName string
	Gender       Gender
}

// GenderFromCategory derives the room's gender policy from its category name.
// "female" contains "male", so it has to be checked first.
func GenderFromCategory(categoryName string) Gender {
	name := strings.ToLower(categoryName)
	switch {
	case strings.Contains(name, "женщин") || strings.Contains(name, "female"):
		return GenderFemale
	case strings.Contains(name, "мужчин") || strings.Contains(name, "male"):
		return GenderMale
	default:
		return GenderMixed
	}
}

// PricingCategory is the id the price calculation is keyed on.
// Rooms without a category fall back to their own id.
func (r *Room) PricingCategory() int64 {
	if r.CategoryID > 0 {
		return r.CategoryID
	}
	return r.ID
}
