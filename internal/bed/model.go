// Package bed models bookable bunks and the rules for selecting them.
package bed

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/hostel-booking-backend/internal/pkg/apperror"
)

var (
	ErrUnknownBed      = apperror.New(http.StatusNotFound, "bed is not part of the current availability")
	ErrBedUnavailable  = apperror.New(http.StatusConflict, "bed is not available for the selected dates")
	ErrCapacityReached = apperror.New(http.StatusConflict, "maximum number of guests for this room reached")
)

// Tier is the physical position of a bunk.
type Tier string

const (
	TierUpper Tier = "UPPER"
	TierLower Tier = "LOWER"
)

// Period is a booked interval reported by the booking service.
type Period struct {
	Start time.Time
	End   time.Time
}

// Bed is one sleeping slot in a shared room. Available is relative to the
// date range of the query that produced it.
type Bed struct {
	ID            int64
	Number        int
	Tier          Tier
	RoomID        int64
	Available     bool
	BookedPeriods []Period
}

// Tiers groups beds for display.
type Tiers struct {
	Upper []Bed
	Lower []Bed
}
