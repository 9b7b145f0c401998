// Package stay holds the check-in/check-out date range shared by availability,
// pricing and the booking session.
package stay

import (
	"fmt"
	"net/http"
	"time"

	"github.com/nekogravitycat/hostel-booking-backend/internal/pkg/apperror"
)

// DateLayout is the calendar date format used on the wire.
const DateLayout = "2006-01-02"

var ErrInvalidRange = apperror.New(http.StatusUnprocessableEntity, "check-out must be after check-in")

// Range is a stay from CheckIn to CheckOut, both calendar dates at UTC midnight.
type Range struct {
	CheckIn  time.Time
	CheckOut time.Time
}

// New truncates both ends to their calendar date.
func New(checkIn, checkOut time.Time) Range {
	return Range{CheckIn: truncate(checkIn), CheckOut: truncate(checkOut)}
}

// Parse reads two YYYY-MM-DD dates.
func Parse(checkIn, checkOut string) (Range, error) {
	in, err := time.Parse(DateLayout, checkIn)
	if err != nil {
		return Range{}, fmt.Errorf("invalid check-in date %q: %w", checkIn, err)
	}
	out, err := time.Parse(DateLayout, checkOut)
	if err != nil {
		return Range{}, fmt.Errorf("invalid check-out date %q: %w", checkOut, err)
	}
	return New(in, out), nil
}

func truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Nights is the whole-day difference, never negative.
func (r Range) Nights() int {
	if r.CheckIn.IsZero() || r.CheckOut.IsZero() {
		return 0
	}
	n := int(r.CheckOut.Sub(r.CheckIn).Hours() / 24)
	if n < 0 {
		return 0
	}
	return n
}

// Valid reports whether the range covers at least one night.
func (r Range) Valid() bool {
	return r.Nights() > 0
}

// Validate returns ErrInvalidRange unless the range is valid.
func (r Range) Validate() error {
	if !r.Valid() {
		return ErrInvalidRange
	}
	return nil
}

func (r Range) CheckInDate() string  { return r.CheckIn.Format(DateLayout) }
func (r Range) CheckOutDate() string { return r.CheckOut.Format(DateLayout) }

func (r Range) Equal(o Range) bool {
	return r.CheckIn.Equal(o.CheckIn) && r.CheckOut.Equal(o.CheckOut)
}

func (r Range) String() string {
	return r.CheckInDate() + ".." + r.CheckOutDate()
}
