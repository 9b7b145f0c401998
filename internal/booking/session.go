package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nekogravitycat/hostel-booking-backend/internal/availability"
	"github.com/nekogravitycat/hostel-booking-backend/internal/bed"
	"github.com/nekogravitycat/hostel-booking-backend/internal/bookingapi"
	"github.com/nekogravitycat/hostel-booking-backend/internal/confirmation"
	"github.com/nekogravitycat/hostel-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/hostel-booking-backend/internal/pricing"
	"github.com/nekogravitycat/hostel-booking-backend/internal/room"
	"github.com/nekogravitycat/hostel-booking-backend/internal/stay"
)

// Remote is the part of the booking service a session talks to.
type Remote interface {
	availability.Fetcher
	CalculatePrice(ctx context.Context, req pricing.Request) (*pricing.Quote, error)
	CreateBooking(ctx context.Context, req bookingapi.CreateBookingRequest, lang string) error
}

// Recorder persists the confirmation of a completed booking.
type Recorder interface {
	Record(ctx context.Context, c confirmation.Confirmation) (*confirmation.Confirmation, error)
}

// Metrics receives session events.
type Metrics interface {
	CacheLookup(result string)
	Submission(outcome string)
	SessionOpened()
	SessionClosed()
}

type noopMetrics struct{}

func (noopMetrics) CacheLookup(string) {}
func (noopMetrics) Submission(string)  {}
func (noopMetrics) SessionOpened()     {}
func (noopMetrics) SessionClosed()     {}

// deps are shared by every session of a Manager.
type deps struct {
	remote   Remote
	recorder Recorder
	metrics  Metrics
	logger   *slog.Logger
	source   string
}

// Session is one booking attempt for one room. All methods are safe for
// concurrent use. Remote calls never run under the session lock; their
// results are applied only if the inputs they were made for are still current.
type Session struct {
	id   string
	room *room.Room
	lang Language
	deps deps

	cache  *availability.Cache
	pricer *pricing.Engine

	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger

	mu           sync.Mutex
	stage        Stage
	dates        stay.Range
	selection    bed.Selection
	guest        Guest
	agreed       bool
	availKey     availability.Key
	availStatus  Status
	availErr     string
	beds         []bed.Bed
	quote        *pricing.Quote
	quoteStatus  Status
	quoteErr     string
	quoteGen     uint64
	errors       map[string]string
	warning      string
	submitting   bool
	confirmation *confirmation.Confirmation
}

func newSession(parent context.Context, id string, r *room.Room, lang Language, d deps) *Session {
	ctx, cancel := context.WithCancel(parent)
	return &Session{
		id:          id,
		room:        r,
		lang:        lang,
		deps:        d,
		cache:       availability.NewCache(d.remote, d.metrics),
		pricer:      pricing.NewEngine(d.remote),
		ctx:         ctx,
		cancel:      cancel,
		logger:      d.logger.With("session_id", id, "room_id", r.ID),
		stage:       StageDates,
		availStatus: StatusIdle,
		quoteStatus: StatusIdle,
		errors:      map[string]string{},
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) Room() *room.Room { return s.room }

func (s *Session) Language() Language { return s.lang }

// mutableLocked rejects changes while a submission is in flight or after the
// booking completed.
func (s *Session) mutableLocked() error {
	if s.submitting {
		return ErrSubmitInFlight
	}
	if s.stage == StageSuccess {
		return ErrWrongStage
	}
	return nil
}

// SetDates replaces the stay. The bed selection and the quote are cleared
// and availability is reloaded when the bed grid is already in use; a session
// past the bed stage returns to it.
func (s *Session) SetDates(r stay.Range) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.mutableLocked(); err != nil {
		return err
	}
	if s.stage.index() >= StageBeds.index() && !r.Valid() {
		s.errors[FieldDates] = msgInvalidDates
		return apperror.Validation(map[string]string{FieldDates: msgInvalidDates})
	}

	delete(s.errors, FieldDates)
	if r.Equal(s.dates) {
		// Picking the same dates again retries a failed bed fetch.
		if s.stage.index() >= StageBeds.index() && s.availStatus == StatusFailed {
			s.refreshAvailabilityLocked()
		}
		return nil
	}

	s.dates = r
	s.selection = bed.Selection{}
	s.warning = ""
	s.beds = nil
	s.availKey = availability.Key{}
	s.availStatus = StatusIdle
	s.availErr = ""
	s.cache.Invalidate()
	s.requoteLocked()

	// New dates need a new bed selection before the guest can go on.
	if s.stage.index() > StageBeds.index() {
		s.clearGuestErrorsLocked()
		delete(s.errors, FieldTerms)
		delete(s.errors, FieldSubmit)
		s.stage = StageBeds
	}
	if s.stage.index() >= StageBeds.index() {
		s.loadAvailabilityLocked()
	}
	return nil
}

// Next advances one stage if the current one is complete.
func (s *Session) Next() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.submitting {
		return ErrSubmitInFlight
	}

	switch s.stage {
	case StageDates:
		if !s.dates.Valid() {
			s.errors[FieldDates] = msgInvalidDates
			return apperror.Validation(map[string]string{FieldDates: msgInvalidDates})
		}
		delete(s.errors, FieldDates)
		s.stage = StageBeds
		s.loadAvailabilityLocked()

	case StageBeds:
		if s.selection.Len() == 0 {
			s.errors[FieldBeds] = msgSelectBed
			return apperror.Validation(map[string]string{FieldBeds: msgSelectBed})
		}
		delete(s.errors, FieldBeds)
		s.stage = StageGuestInfo

	case StageGuestInfo:
		s.clearGuestErrorsLocked()
		if errs := s.guest.validate(); len(errs) > 0 {
			for k, v := range errs {
				s.errors[k] = v
			}
			return apperror.Validation(errs)
		}
		s.stage = StageConfirm
		if s.quote == nil && s.quoteStatus != StatusLoading {
			s.requoteLocked()
		}

	case StageConfirm:
		return ErrSubmitRequired

	default:
		return ErrWrongStage
	}
	return nil
}

// Back returns to the previous stage. Only the errors of the stage being
// left are cleared; the draft is kept.
func (s *Session) Back() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.submitting {
		return ErrSubmitInFlight
	}

	switch s.stage {
	case StageBeds:
		delete(s.errors, FieldBeds)
		s.warning = ""
		s.stage = StageDates
	case StageGuestInfo:
		s.clearGuestErrorsLocked()
		s.stage = StageBeds
	case StageConfirm:
		delete(s.errors, FieldTerms)
		delete(s.errors, FieldSubmit)
		s.stage = StageGuestInfo
	default:
		return ErrCannotGoBack
	}
	return nil
}

// ToggleBed selects or deselects a bed from the current availability.
func (s *Session) ToggleBed(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.mutableLocked(); err != nil {
		return err
	}
	if s.stage != StageBeds {
		return ErrWrongStage
	}

	next, err := bed.Toggle(s.beds, s.selection, s.room.Capacity, id)
	if errors.Is(err, bed.ErrCapacityReached) {
		s.warning = fmt.Sprintf("maximum %d guests for this room", s.room.Capacity)
		return err
	}
	if err != nil {
		return err
	}

	s.selection = next
	s.warning = ""
	delete(s.errors, FieldBeds)
	s.requoteLocked()
	return nil
}

// UpdateGuest applies the patch and clears the errors of the patched fields.
func (s *Session) UpdateGuest(p GuestPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.mutableLocked(); err != nil {
		return err
	}
	for _, key := range s.guest.apply(p) {
		delete(s.errors, key)
	}
	return nil
}

func (s *Session) SetAgreedToTerms(agreed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.mutableLocked(); err != nil {
		return err
	}
	s.agreed = agreed
	delete(s.errors, FieldTerms)
	return nil
}

// RefreshAvailability refetches the bed list for the current dates.
func (s *Session) RefreshAvailability() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.mutableLocked(); err != nil {
		return err
	}
	if s.stage.index() < StageBeds.index() {
		return ErrWrongStage
	}
	if !s.dates.Valid() {
		return ErrNoDates
	}
	s.refreshAvailabilityLocked()
	return nil
}

// RefreshQuote re-requests the price for the current selection.
func (s *Session) RefreshQuote() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.mutableLocked(); err != nil {
		return err
	}
	if !s.pricingInputLocked().Ready() {
		return pricing.ErrNotReady
	}
	s.requoteLocked()
	return nil
}

// Submit books the selected beds. It is only allowed at the confirm stage,
// with the terms agreed and a current quote, and never runs twice at once.
// On failure the draft is left as it was so the guest can retry.
func (s *Session) Submit(ctx context.Context) (*confirmation.Confirmation, error) {
	s.mu.Lock()
	if s.submitting {
		s.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	if s.stage != StageConfirm {
		s.mu.Unlock()
		return nil, ErrWrongStage
	}

	errs := s.guest.validate()
	if !s.agreed {
		errs[FieldTerms] = msgAgreeToTerms
	}
	if len(errs) > 0 {
		for k, v := range errs {
			s.errors[k] = v
		}
		s.mu.Unlock()
		s.deps.metrics.Submission("rejected")
		return nil, apperror.Validation(errs)
	}
	if s.quote == nil || s.quoteStatus != StatusReady || s.pricer.Current() != s.quote {
		s.mu.Unlock()
		s.deps.metrics.Submission("rejected")
		return nil, ErrQuotePending
	}

	req := bookingapi.CreateBookingRequest{
		FirstName:     s.guest.FirstName,
		LastName:      s.guest.LastName,
		Email:         s.guest.Email,
		Phone:         s.guest.Phone,
		Guests:        s.selection.Len(),
		RoomID:        s.room.ID,
		StartTime:     s.dates.CheckIn,
		EndTime:       s.dates.CheckOut,
		Comments:      s.guest.comments(),
		BunkIDs:       s.selection.IDs(),
		BookingSource: s.deps.source,
	}
	draft := confirmation.Confirmation{
		RoomID:             s.room.ID,
		RoomName:           s.room.Name,
		CheckIn:            s.dates.CheckInDate(),
		CheckOut:           s.dates.CheckOutDate(),
		Nights:             s.dates.Nights(),
		Guests:             s.selection.Len(),
		BedIDs:             s.selection.IDs(),
		TotalPrice:         s.quote.Total(),
		OriginalPrice:      s.quote.OriginalPrice,
		DiscountPercentage: s.quote.DiscountPercentage,
		CustomerName:       s.guest.FullName(),
		Email:              s.guest.Email,
		Phone:              s.guest.Phone,
		Language:           string(s.lang),
	}
	s.submitting = true
	delete(s.errors, FieldSubmit)
	s.mu.Unlock()

	// The outcome of a booking must be observed even if the caller goes away.
	callCtx := context.WithoutCancel(ctx)

	if err := s.deps.remote.CreateBooking(callCtx, req, string(s.lang)); err != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.submitting = false

		if bookingapi.IsConflict(err) {
			s.errors[FieldSubmit] = ErrBookingConflict.Message
			s.deps.metrics.Submission("conflict")
			s.logger.Info("Booking rejected, beds taken meanwhile", "error", err)
			s.refreshAvailabilityLocked()
			return nil, fmt.Errorf("%w: %w", ErrBookingConflict, err)
		}

		s.errors[FieldSubmit] = ErrSubmitFailed.Message
		s.deps.metrics.Submission("failed")
		s.logger.Error("Booking submission failed", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrSubmitFailed, err)
	}

	conf, err := s.deps.recorder.Record(callCtx, draft)
	if err != nil {
		s.logger.Error("Failed to record confirmation", "reference", conf.Reference, "error", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitting = false
	s.stage = StageSuccess
	s.confirmation = conf
	s.deps.metrics.Submission("success")
	s.logger.Info("Booking confirmed", "reference", conf.Reference, "beds", len(draft.BedIDs))

	out := *conf
	return &out, nil
}

// Reset discards the draft and starts over at the dates stage.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.submitting {
		return ErrSubmitInFlight
	}
	s.resetLocked()
	return nil
}

// Confirmation returns the completed booking.
func (s *Session) Confirmation() (*confirmation.Confirmation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stage != StageSuccess || s.confirmation == nil {
		return nil, ErrWrongStage
	}
	out := *s.confirmation
	return &out, nil
}

func (s *Session) resetLocked() {
	s.stage = StageDates
	s.dates = stay.Range{}
	s.selection = bed.Selection{}
	s.guest = Guest{}
	s.agreed = false
	s.availKey = availability.Key{}
	s.availStatus = StatusIdle
	s.availErr = ""
	s.beds = nil
	s.cache.Invalidate()
	s.quoteGen++
	s.quote = nil
	s.quoteStatus = StatusIdle
	s.quoteErr = ""
	s.pricer.Reset()
	s.errors = map[string]string{}
	s.warning = ""
	s.confirmation = nil
}

func (s *Session) isSubmitting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitting
}

func (s *Session) close() {
	s.mu.Lock()
	s.resetLocked()
	s.mu.Unlock()
	s.cancel()
}

func (s *Session) clearGuestErrorsLocked() {
	for _, k := range []string{FieldFirstName, FieldLastName, FieldEmail, FieldPhone} {
		delete(s.errors, k)
	}
}

func (s *Session) refreshAvailabilityLocked() {
	s.cache.Invalidate()
	s.availKey = availability.Key{}
	s.loadAvailabilityLocked()
}

// loadAvailabilityLocked makes the current dates the availability key and
// loads beds for it, from the cache when possible.
func (s *Session) loadAvailabilityLocked() {
	key := availability.NewKey(s.room.ID, s.dates)
	if s.availKey == key && s.availStatus == StatusLoading {
		return
	}

	s.availKey = key
	s.availErr = ""
	if beds, ok := s.cache.Peek(key); ok {
		s.applyBedsLocked(beds)
		return
	}

	s.availStatus = StatusLoading
	go s.fetchAvailability(key)
}

func (s *Session) fetchAvailability(key availability.Key) {
	beds, err := s.cache.Get(s.ctx, key)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.availKey != key || errors.Is(err, availability.ErrSuperseded) {
		return
	}
	if err != nil {
		if s.ctx.Err() != nil {
			return
		}
		s.availStatus = StatusFailed
		s.availErr = "could not load beds, please try again"
		s.logger.Warn("Failed to load availability", "key", key.String(), "error", err)
		return
	}
	s.applyBedsLocked(beds)
}

// applyBedsLocked installs a fresh bed list and drops selected beds that are
// no longer part of it.
func (s *Session) applyBedsLocked(beds []bed.Bed) {
	s.beds = beds
	s.availStatus = StatusReady
	s.availErr = ""

	kept, dropped := bed.Reconcile(beds, s.selection)
	if dropped {
		s.logger.Debug("Dropped beds missing from refreshed availability",
			"before", s.selection.Len(), "after", kept.Len())
		s.selection = kept
		s.requoteLocked()
	}
}

func (s *Session) pricingInputLocked() pricing.Input {
	return pricing.Input{
		CategoryID: s.room.PricingCategory(),
		BedIDs:     s.selection.IDs(),
		Range:      s.dates,
	}
}

// requoteLocked drops the held quote and requests one for the current inputs.
func (s *Session) requoteLocked() {
	s.quoteGen++
	gen := s.quoteGen
	s.quote = nil
	s.quoteErr = ""

	in := s.pricingInputLocked()
	if !in.Ready() {
		s.quoteStatus = StatusIdle
		s.pricer.Reset()
		return
	}

	s.quoteStatus = StatusLoading
	go s.fetchQuote(gen, s.pricer.Begin(in), len(in.BedIDs))
}

func (s *Session) fetchQuote(gen uint64, p *pricing.Pending, beds int) {
	q, err := p.Fetch(s.ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.quoteGen || errors.Is(err, pricing.ErrSuperseded) {
		return
	}
	if err != nil {
		if s.ctx.Err() != nil {
			return
		}
		s.quoteStatus = StatusFailed
		s.quoteErr = "could not calculate the price, please try again"
		s.logger.Warn("Failed to calculate price", "beds", beds, "error", err)
		return
	}
	s.quote = q
	s.quoteStatus = StatusReady
}
