package http

import (
	"github.com/nekogravitycat/hostel-booking-backend/internal/bed"
	"github.com/nekogravitycat/hostel-booking-backend/internal/booking"
	"github.com/nekogravitycat/hostel-booking-backend/internal/confirmation"
	"github.com/nekogravitycat/hostel-booking-backend/internal/pricing"
)

type OpenSessionRequest struct {
	RoomID   int64  `json:"room_id" binding:"required,min=1"`
	Language string `json:"language" binding:"omitempty,oneof=en ru kg"`
}

type SetDatesRequest struct {
	CheckIn  string `json:"check_in" binding:"required"`
	CheckOut string `json:"check_out" binding:"required"`
}

type BedURIRequest struct {
	ID    string `uri:"id" binding:"required,uuid"`
	BedID int64  `uri:"bed_id" binding:"required,min=1"`
}

// UpdateGuestRequest only touches the fields that are present.
type UpdateGuestRequest struct {
	FirstName       *string `json:"first_name"`
	LastName        *string `json:"last_name"`
	Email           *string `json:"email"`
	Phone           *string `json:"phone"`
	SpecialRequests *string `json:"special_requests"`
	ArrivalTime     *string `json:"arrival_time"`
}

func (r UpdateGuestRequest) toPatch() booking.GuestPatch {
	return booking.GuestPatch{
		FirstName:       r.FirstName,
		LastName:        r.LastName,
		Email:           r.Email,
		Phone:           r.Phone,
		SpecialRequests: r.SpecialRequests,
		ArrivalTime:     r.ArrivalTime,
	}
}

type SetTermsRequest struct {
	Agreed *bool `json:"agreed" binding:"required"`
}

type ShareRequest struct {
	NativeAvailable bool `json:"native_available"`
}

type BedResponse struct {
	ID        int64  `json:"id"`
	Number    int    `json:"number"`
	Tier      string `json:"tier"`
	Available bool   `json:"available"`
	Selected  bool   `json:"selected"`
}

type BedsResponse struct {
	Status string        `json:"status"`
	Error  string        `json:"error,omitempty"`
	Upper  []BedResponse `json:"upper"`
	Lower  []BedResponse `json:"lower"`
}

type QuoteResponse struct {
	OriginalPrice      float64 `json:"original_price"`
	DiscountedPrice    float64 `json:"discounted_price"`
	DiscountAmount     float64 `json:"discount_amount"`
	DiscountPercentage float64 `json:"discount_percentage"`
	Total              float64 `json:"total"`
}

type GuestResponse struct {
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	SpecialRequests string `json:"special_requests"`
	ArrivalTime     string `json:"arrival_time"`
}

type RoomTag struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
}

type SessionResponse struct {
	ID                string            `json:"id"`
	Room              RoomTag           `json:"room"`
	Language          string            `json:"language"`
	Stage             string            `json:"stage"`
	CheckIn           string            `json:"check_in,omitempty"`
	CheckOut          string            `json:"check_out,omitempty"`
	Nights            int               `json:"nights"`
	SelectedBedIDs    []int64           `json:"selected_bed_ids"`
	Availability      string            `json:"availability"`
	AvailabilityError string            `json:"availability_error,omitempty"`
	Quote             *QuoteResponse    `json:"quote"`
	QuoteStatus       string            `json:"quote_status"`
	QuoteError        string            `json:"quote_error,omitempty"`
	Guest             GuestResponse     `json:"guest"`
	AgreedToTerms     bool              `json:"agreed_to_terms"`
	Errors            map[string]string `json:"errors"`
	Warning           string            `json:"warning,omitempty"`
	Submitting        bool              `json:"submitting"`
	CanSubmit         bool              `json:"can_submit"`
	Reference         string            `json:"reference,omitempty"`
}

type OpenSessionResponse struct {
	Token   string          `json:"token"`
	Session SessionResponse `json:"session"`
}

func NewQuoteResponse(q *pricing.Quote) *QuoteResponse {
	if q == nil {
		return nil
	}
	return &QuoteResponse{
		OriginalPrice:      q.OriginalPrice,
		DiscountedPrice:    q.DiscountedPrice,
		DiscountAmount:     q.DiscountAmount,
		DiscountPercentage: q.DiscountPercentage,
		Total:              q.Total(),
	}
}

func NewSessionResponse(snap booking.Snapshot) SessionResponse {
	resp := SessionResponse{
		ID:                snap.ID,
		Room:              RoomTag{ID: snap.RoomID, Name: snap.RoomName, Capacity: snap.Capacity},
		Language:          string(snap.Language),
		Stage:             string(snap.Stage),
		Nights:            snap.Nights,
		SelectedBedIDs:    snap.SelectedSorted(),
		Availability:      string(snap.Availability),
		AvailabilityError: snap.AvailabilityError,
		Quote:             NewQuoteResponse(snap.Quote),
		QuoteStatus:       string(snap.QuoteStatus),
		QuoteError:        snap.QuoteError,
		Guest: GuestResponse{
			FirstName:       snap.Guest.FirstName,
			LastName:        snap.Guest.LastName,
			Email:           snap.Guest.Email,
			Phone:           snap.Guest.Phone,
			SpecialRequests: snap.Guest.SpecialRequests,
			ArrivalTime:     snap.Guest.ArrivalTime,
		},
		AgreedToTerms: snap.AgreedToTerms,
		Errors:        snap.Errors,
		Warning:       snap.Warning,
		Submitting:    snap.Submitting,
		CanSubmit:     snap.CanSubmit,
		Reference:     snap.Reference,
	}
	if !snap.Dates.CheckIn.IsZero() {
		resp.CheckIn = snap.Dates.CheckInDate()
	}
	if !snap.Dates.CheckOut.IsZero() {
		resp.CheckOut = snap.Dates.CheckOutDate()
	}
	return resp
}

func newBedResponses(beds []bed.Bed, selected bed.Selection) []BedResponse {
	out := make([]BedResponse, len(beds))
	for i, b := range beds {
		out[i] = BedResponse{
			ID:        b.ID,
			Number:    b.Number,
			Tier:      string(b.Tier),
			Available: b.Available,
			Selected:  selected.Contains(b.ID),
		}
	}
	return out
}

func NewBedsResponse(snap booking.Snapshot) BedsResponse {
	selected := bed.NewSelection(snap.SelectedBedIDs...)
	return BedsResponse{
		Status: string(snap.Availability),
		Error:  snap.AvailabilityError,
		Upper:  newBedResponses(snap.Beds.Upper, selected),
		Lower:  newBedResponses(snap.Beds.Lower, selected),
	}
}

type ConfirmationResponse struct {
	Reference          string  `json:"reference"`
	RoomName           string  `json:"room_name"`
	CheckIn            string  `json:"check_in"`
	CheckOut           string  `json:"check_out"`
	Nights             int     `json:"nights"`
	Guests             int     `json:"guests"`
	BedIDs             []int64 `json:"bed_ids"`
	TotalPrice         float64 `json:"total_price"`
	OriginalPrice      float64 `json:"original_price"`
	DiscountPercentage float64 `json:"discount_percentage,omitempty"`
	CustomerName       string  `json:"customer_name"`
	Email              string  `json:"email"`
}

type SubmitResponse struct {
	Confirmation ConfirmationResponse `json:"confirmation"`
	Session      SessionResponse      `json:"session"`
}

func NewConfirmationResponse(c *confirmation.Confirmation) ConfirmationResponse {
	return ConfirmationResponse{
		Reference:          c.Reference,
		RoomName:           c.RoomName,
		CheckIn:            c.CheckIn,
		CheckOut:           c.CheckOut,
		Nights:             c.Nights,
		Guests:             c.Guests,
		BedIDs:             c.BedIDs,
		TotalPrice:         c.TotalPrice,
		OriginalPrice:      c.OriginalPrice,
		DiscountPercentage: c.DiscountPercentage,
		CustomerName:       c.CustomerName,
		Email:              c.Email,
	}
}
