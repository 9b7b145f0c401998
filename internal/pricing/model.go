// Package pricing requests and tracks server-computed price quotes.
package pricing

import (
	"errors"
	"fmt"
	"net/http"
	"sort"

	"github.com/nekogravitycat/hostel-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/hostel-booking-backend/internal/stay"
)

var (
	// ErrNotReady means there is nothing to quote yet: no beds or no valid range.
	ErrNotReady = apperror.New(http.StatusConflict, "select dates and at least one bed to get a price")
	// ErrSuperseded is returned for results whose inputs changed while in flight.
	ErrSuperseded = errors.New("quote superseded by newer inputs")
)

// Quote is the price the booking service computed for a stay.
// DiscountedPrice always equals OriginalPrice - DiscountAmount.
type Quote struct {
	OriginalPrice      float64
	DiscountedPrice    float64
	DiscountAmount     float64
	DiscountPercentage float64
}

func (q Quote) HasDiscount() bool {
	return q.DiscountPercentage > 0
}

// Total is the binding amount the guest pays.
func (q Quote) Total() float64 {
	if q.HasDiscount() {
		return q.DiscountedPrice
	}
	return q.OriginalPrice
}

// Request is what the booking service needs to compute a quote.
// GuestsCount always equals BedsCount: one guest per bed.
type Request struct {
	CategoryID   int64
	BedsCount    int
	GuestsCount  int
	CheckInDate  string
	CheckOutDate string
}

// Input is the state a quote depends on.
type Input struct {
	CategoryID int64
	BedIDs     []int64
	Range      stay.Range
}

func (in Input) Ready() bool {
	return len(in.BedIDs) > 0 && in.Range.Valid()
}

// Request maps the input to the remote call parameters.
func (in Input) Request() Request {
	n := len(in.BedIDs)
	return Request{
		CategoryID:   in.CategoryID,
		BedsCount:    n,
		GuestsCount:  n,
		CheckInDate:  in.Range.CheckInDate(),
		CheckOutDate: in.Range.CheckOutDate(),
	}
}

// key identifies inputs by value. The bed set is compared sorted, so any
// change in which beds are selected re-quotes even when the count is equal.
func (in Input) key() string {
	ids := append([]int64(nil), in.BedIDs...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return fmt.Sprintf("%d|%v|%s", in.CategoryID, ids, in.Range)
}
