package bookingapi

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/nekogravitycat/hostel-booking-backend/internal/bed"
	"github.com/nekogravitycat/hostel-booking-backend/internal/pricing"
	"github.com/nekogravitycat/hostel-booking-backend/internal/room"
)

type periodDTO struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type bedDTO struct {
	ID            int64       `json:"id"`
	Number        int         `json:"number"`
	Tier          string      `json:"tier"`
	RoomID        int64       `json:"roomId"`
	Available     bool        `json:"available"`
	BookedPeriods []periodDTO `json:"bookedPeriods"`
}

func parseTier(s string) (bed.Tier, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TOP", "UPPER":
		return bed.TierUpper, true
	case "BOTTOM", "LOWER":
		return bed.TierLower, true
	default:
		return "", false
	}
}

func (d bedDTO) toBed() (bed.Bed, error) {
	tier, ok := parseTier(d.Tier)
	if !ok {
		return bed.Bed{}, fmt.Errorf("bed %d has unknown tier %q: %w", d.ID, d.Tier, ErrMalformedResponse)
	}

	periods := make([]bed.Period, 0, len(d.BookedPeriods))
	for _, p := range d.BookedPeriods {
		periods = append(periods, bed.Period{Start: p.Start, End: p.End})
	}

	return bed.Bed{
		ID:            d.ID,
		Number:        d.Number,
		Tier:          tier,
		RoomID:        d.RoomID,
		Available:     d.Available,
		BookedPeriods: periods,
	}, nil
}

func toBeds(dtos []bedDTO) ([]bed.Bed, error) {
	beds := make([]bed.Bed, 0, len(dtos))
	seen := make(map[int64]struct{}, len(dtos))
	for _, d := range dtos {
		if _, dup := seen[d.ID]; dup {
			return nil, fmt.Errorf("duplicate bed id %d: %w", d.ID, ErrMalformedResponse)
		}
		seen[d.ID] = struct{}{}

		b, err := d.toBed()
		if err != nil {
			return nil, err
		}
		beds = append(beds, b)
	}
	return beds, nil
}

// quoteDTO mirrors the calculate-price answer. Every field is optional on the
// wire; normalizeQuote fills the gaps and rejects inconsistent payloads.
type quoteDTO struct {
	OriginalPrice      *float64 `json:"originalPrice"`
	DiscountedPrice    *float64 `json:"discountedPrice"`
	DiscountAmount     *float64 `json:"discountAmount"`
	DiscountPercentage *float64 `json:"discountPercentage"`
}

const centTolerance = 0.01

func normalizeQuote(d quoteDTO) (*pricing.Quote, error) {
	if d.OriginalPrice == nil {
		return nil, fmt.Errorf("quote without originalPrice: %w", ErrMalformedResponse)
	}

	q := pricing.Quote{OriginalPrice: *d.OriginalPrice}
	if d.DiscountPercentage != nil {
		q.DiscountPercentage = *d.DiscountPercentage
	}

	if q.OriginalPrice < 0 || math.IsNaN(q.OriginalPrice) || math.IsInf(q.OriginalPrice, 0) {
		return nil, fmt.Errorf("quote originalPrice %v: %w", q.OriginalPrice, ErrMalformedResponse)
	}
	if q.DiscountPercentage < 0 || q.DiscountPercentage > 100 {
		return nil, fmt.Errorf("quote discountPercentage %v: %w", q.DiscountPercentage, ErrMalformedResponse)
	}

	if !q.HasDiscount() {
		q.DiscountAmount = 0
		q.DiscountedPrice = q.OriginalPrice
		return &q, nil
	}

	switch {
	case d.DiscountAmount != nil:
		q.DiscountAmount = *d.DiscountAmount
	case d.DiscountedPrice != nil:
		q.DiscountAmount = q.OriginalPrice - *d.DiscountedPrice
	default:
		q.DiscountAmount = q.OriginalPrice * q.DiscountPercentage / 100
	}
	if q.DiscountAmount < 0 || q.DiscountAmount > q.OriginalPrice {
		return nil, fmt.Errorf("quote discountAmount %v: %w", q.DiscountAmount, ErrMalformedResponse)
	}

	q.DiscountedPrice = q.OriginalPrice - q.DiscountAmount
	if d.DiscountedPrice != nil && math.Abs(*d.DiscountedPrice-q.DiscountedPrice) > centTolerance {
		return nil, fmt.Errorf("quote discountedPrice %v does not match %v - %v: %w",
			*d.DiscountedPrice, q.OriginalPrice, q.DiscountAmount, ErrMalformedResponse)
	}

	return &q, nil
}

type roomDTO struct {
	ID           int64    `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Capacity     int      `json:"capacity"`
	Price        *float64 `json:"price"`
	Beds         string   `json:"beds"`
	RoomSize     float64  `json:"roomSize"`
	CategoryID   int64    `json:"categoryId"`
	CategoryName string   `json:"categoryName"`
	Amenities    []string `json:"amenities"`
	PictureURLs  []string `json:"pictureUrls"`
}

func (d roomDTO) toRoom() *room.Room {
	r := &room.Room{
		ID:           d.ID,
		Name:         d.Title,
		Description:  d.Description,
		Capacity:     d.Capacity,
		Images:       d.PictureURLs,
		Amenities:    d.Amenities,
		BedsLabel:    d.Beds,
		RoomSize:     d.RoomSize,
		CategoryID:   d.CategoryID,
		CategoryName: d.CategoryName,
		Gender:       room.GenderFromCategory(d.CategoryName),
	}
	if d.Price != nil {
		r.Price = *d.Price
	}
	return r
}

// createBookingBody is the create-booking payload.
type createBookingBody struct {
	FirstName     string  `json:"firstName"`
	LastName      string  `json:"lastName"`
	Email         string  `json:"email"`
	Phone         string  `json:"phone"`
	Guests        int     `json:"guests"`
	RoomID        int64   `json:"roomId"`
	StartTime     string  `json:"startTime"`
	EndTime       string  `json:"endTime"`
	Comments      string  `json:"comments"`
	BunkIDs       []int64 `json:"bunkIds"`
	BookingSource string  `json:"bookingSource"`
}
