package booking

import (
	"github.com/nekogravitycat/hostel-booking-backend/internal/bed"
	"github.com/nekogravitycat/hostel-booking-backend/internal/pricing"
	"github.com/nekogravitycat/hostel-booking-backend/internal/stay"
)

// Snapshot is a read-only copy of a session's state.
type Snapshot struct {
	ID       string
	RoomID   int64
	RoomName string
	Capacity int
	Language Language

	Stage  Stage
	Dates  stay.Range
	Nights int

	SelectedBedIDs    []int64
	Beds              bed.Tiers
	Availability      Status
	AvailabilityError string

	Quote       *pricing.Quote
	QuoteStatus Status
	QuoteError  string

	Guest         Guest
	AgreedToTerms bool

	Errors     map[string]string
	Warning    string
	Submitting bool
	CanSubmit  bool
	Reference  string
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	errs := make(map[string]string, len(s.errors))
	for k, v := range s.errors {
		errs[k] = v
	}

	snap := Snapshot{
		ID:                s.id,
		RoomID:            s.room.ID,
		RoomName:          s.room.Name,
		Capacity:          s.room.Capacity,
		Language:          s.lang,
		Stage:             s.stage,
		Dates:             s.dates,
		Nights:            s.dates.Nights(),
		SelectedBedIDs:    s.selection.IDs(),
		Beds:              bed.Partition(s.beds),
		Availability:      s.availStatus,
		AvailabilityError: s.availErr,
		QuoteStatus:       s.quoteStatus,
		QuoteError:        s.quoteErr,
		Guest:             s.guest,
		AgreedToTerms:     s.agreed,
		Errors:            errs,
		Warning:           s.warning,
		Submitting:        s.submitting,
		CanSubmit: s.stage == StageConfirm && s.agreed && !s.submitting &&
			s.quote != nil && s.quoteStatus == StatusReady,
	}
	if s.quote != nil {
		q := *s.quote
		snap.Quote = &q
	}
	if s.confirmation != nil {
		snap.Reference = s.confirmation.Reference
	}
	return snap
}

// SelectedSorted returns the selected bed ids in ascending order for display.
func (snap Snapshot) SelectedSorted() []int64 {
	return bed.NewSelection(snap.SelectedBedIDs...).Sorted()
}
