// Package booking drives one visitor's booking attempt through the five
// stages of the booking page.
package booking

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/nekogravitycat/hostel-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound        = apperror.New(http.StatusNotFound, "booking session not found")
	ErrWrongStage      = apperror.New(http.StatusConflict, "operation not allowed at the current stage")
	ErrCannotGoBack    = apperror.New(http.StatusConflict, "cannot go back from the current stage")
	ErrSubmitRequired  = apperror.New(http.StatusConflict, "submit the booking to complete it")
	ErrQuotePending    = apperror.New(http.StatusConflict, "price is not available yet")
	ErrSubmitInFlight  = apperror.New(http.StatusConflict, "booking submission already in progress")
	ErrBookingConflict = apperror.New(http.StatusConflict, "some of the selected beds are no longer available")
	ErrSubmitFailed    = apperror.New(http.StatusBadGateway, "booking could not be completed, please try again")
	ErrNoDates         = apperror.New(http.StatusConflict, "select your dates first")
)

// Field keys used in error maps.
const (
	FieldDates     = "dates"
	FieldBeds      = "beds"
	FieldFirstName = "firstName"
	FieldLastName  = "lastName"
	FieldEmail     = "email"
	FieldPhone     = "phone"
	FieldTerms     = "terms"
	FieldSubmit    = "submit"
)

const (
	msgInvalidDates = "please select valid dates"
	msgSelectBed    = "please select at least one bed"
	msgRequired     = "this field is required"
	msgInvalidEmail = "please enter a valid email address"
	msgAgreeToTerms = "please agree to the terms and conditions"
)

// Stage is a step of the booking flow.
type Stage string

const (
	StageDates     Stage = "DATES"
	StageBeds      Stage = "BEDS"
	StageGuestInfo Stage = "GUEST_INFO"
	StageConfirm   Stage = "CONFIRM"
	StageSuccess   Stage = "SUCCESS"
)

var stageOrder = []Stage{StageDates, StageBeds, StageGuestInfo, StageConfirm, StageSuccess}

func (s Stage) index() int {
	for i, v := range stageOrder {
		if v == s {
			return i
		}
	}
	return -1
}

// Status reports the state of an asynchronous fetch.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusFailed  Status = "failed"
)

// Language is the site language the booking is made in.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageRussian Language = "ru"
	LanguageKyrgyz  Language = "kg"
)

// ParseLanguage falls back to English for anything unknown.
func ParseLanguage(s string) Language {
	switch Language(strings.ToLower(strings.TrimSpace(s))) {
	case LanguageRussian:
		return LanguageRussian
	case LanguageKyrgyz:
		return LanguageKyrgyz
	default:
		return LanguageEnglish
	}
}

// Guest is the contact data entered at the guest info stage.
type Guest struct {
	FirstName       string
	LastName        string
	Email           string
	Phone           string
	SpecialRequests string
	ArrivalTime     string
}

func (g Guest) FullName() string {
	return strings.TrimSpace(g.FirstName + " " + g.LastName)
}

// GuestPatch carries the fields to change; nil fields are left alone.
type GuestPatch struct {
	FirstName       *string
	LastName        *string
	Email           *string
	Phone           *string
	SpecialRequests *string
	ArrivalTime     *string
}

var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

// validate returns a message per invalid field.
func (g Guest) validate() map[string]string {
	errs := map[string]string{}
	if strings.TrimSpace(g.FirstName) == "" {
		errs[FieldFirstName] = msgRequired
	}
	if strings.TrimSpace(g.LastName) == "" {
		errs[FieldLastName] = msgRequired
	}
	switch {
	case strings.TrimSpace(g.Email) == "":
		errs[FieldEmail] = msgRequired
	case !emailPattern.MatchString(g.Email):
		errs[FieldEmail] = msgInvalidEmail
	}
	if strings.TrimSpace(g.Phone) == "" {
		errs[FieldPhone] = msgRequired
	}
	return errs
}

// comments is the free-text note sent along with the booking.
func (g Guest) comments() string {
	parts := make([]string, 0, 2)
	if s := strings.TrimSpace(g.SpecialRequests); s != "" {
		parts = append(parts, s)
	}
	if s := strings.TrimSpace(g.ArrivalTime); s != "" {
		parts = append(parts, "Arrival time: "+s)
	}
	return strings.Join(parts, "\n")
}

// apply changes the patched fields and returns their error keys.
func (g *Guest) apply(p GuestPatch) []string {
	var touched []string
	set := func(dst *string, v *string, key string) {
		if v == nil {
			return
		}
		*dst = *v
		if key != "" {
			touched = append(touched, key)
		}
	}
	set(&g.FirstName, p.FirstName, FieldFirstName)
	set(&g.LastName, p.LastName, FieldLastName)
	set(&g.Email, p.Email, FieldEmail)
	set(&g.Phone, p.Phone, FieldPhone)
	set(&g.SpecialRequests, p.SpecialRequests, "")
	set(&g.ArrivalTime, p.ArrivalTime, "")
	return touched
}
