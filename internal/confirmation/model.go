// Package confirmation records completed bookings and renders the guest's
// confirmation document.
package confirmation

import (
	"errors"
	"net/http"
	"time"

	"github.com/nekogravitycat/hostel-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound = apperror.New(http.StatusNotFound, "confirmation not found")
	// ErrDuplicateReference is reported by repositories when the reference is taken.
	ErrDuplicateReference = errors.New("booking reference already exists")
)

// Confirmation is the guest-facing record of a booking the remote service accepted.
type Confirmation struct {
	Reference          string
	RoomID             int64
	RoomName           string
	CheckIn            string
	CheckOut           string
	Nights             int
	Guests             int
	BedIDs             []int64
	TotalPrice         float64
	OriginalPrice      float64
	DiscountPercentage float64
	CustomerName       string
	Email              string
	Phone              string
	Language           string
	CreatedAt          time.Time
}

// FileName is the name the document is downloaded as.
func (c *Confirmation) FileName() string {
	return "booking-confirmation-" + c.Reference + ".json"
}

// documentPath is where the document lives in storage.
func documentPath(reference string) string {
	return "confirmations/" + reference + ".json"
}

// document is the downloadable JSON shape.
type document struct {
	BookingReference   string    `json:"bookingReference"`
	Room               string    `json:"room"`
	CheckIn            string    `json:"checkIn"`
	CheckOut           string    `json:"checkOut"`
	Nights             int       `json:"nights"`
	Guests             int       `json:"guests"`
	Beds               []int64   `json:"beds"`
	TotalPrice         float64   `json:"totalPrice"`
	OriginalPrice      float64   `json:"originalPrice"`
	DiscountPercentage float64   `json:"discountPercentage,omitempty"`
	CustomerName       string    `json:"customerName"`
	Email              string    `json:"email"`
	Phone              string    `json:"phone"`
	CreatedAt          time.Time `json:"createdAt"`
}

func newDocument(c *Confirmation) document {
	return document{
		BookingReference:   c.Reference,
		Room:               c.RoomName,
		CheckIn:            c.CheckIn,
		CheckOut:           c.CheckOut,
		Nights:             c.Nights,
		Guests:             c.Guests,
		Beds:               c.BedIDs,
		TotalPrice:         c.TotalPrice,
		OriginalPrice:      c.OriginalPrice,
		DiscountPercentage: c.DiscountPercentage,
		CustomerName:       c.CustomerName,
		Email:              c.Email,
		Phone:              c.Phone,
		CreatedAt:          c.CreatedAt,
	}
}
