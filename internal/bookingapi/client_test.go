package bookingapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/hostel-booking-backend/internal/bed"
	"github.com/nekogravitycat/hostel-booking-backend/internal/pricing"
	"github.com/nekogravitycat/hostel-booking-backend/internal/room"
	"github.com/nekogravitycat/hostel-booking-backend/internal/stay"
)

func testRange(t *testing.T) stay.Range {
	t.Helper()
	r, err := stay.Parse("2024-08-01", "2024-08-04")
	require.NoError(t, err)
	return r
}

func newTestClient(srv *httptest.Server, opts ...Option) *HTTPClient {
	opts = append([]Option{WithRetryConfig(RetryConfig{MaxAttempts: 2, Backoff: time.Millisecond})}, opts...)
	return New(srv.URL, opts...)
}

type recordedCall struct {
	op      string
	outcome string
}

type fakeObserver struct {
	mu    sync.Mutex
	calls []recordedCall
}

func (f *fakeObserver) ObserveRemoteCall(op, outcome string, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, recordedCall{op: op, outcome: outcome})
}

func TestAvailableBeds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bunks/get-available-bunks", r.URL.Path)
		assert.Equal(t, "7", r.URL.Query().Get("roomId"))
		assert.Equal(t, "2024-08-01T00:00:00Z", r.URL.Query().Get("startTime"))
		assert.Equal(t, "2024-08-04T00:00:00Z", r.URL.Query().Get("endTime"))

		_, _ = io.WriteString(w, `[
			{"id": 1, "number": 1, "tier": "TOP", "roomId": 7, "available": true},
			{"id": 2, "number": 1, "tier": "BOTTOM", "roomId": 7, "available": false,
			 "bookedPeriods": [{"start": "2024-08-02T00:00:00Z", "end": "2024-08-03T00:00:00Z"}]}
		]`)
	}))
	defer srv.Close()

	beds, err := newTestClient(srv).AvailableBeds(context.Background(), 7, testRange(t))
	require.NoError(t, err)
	require.Len(t, beds, 2)

	assert.Equal(t, bed.TierUpper, beds[0].Tier)
	assert.True(t, beds[0].Available)
	assert.Equal(t, bed.TierLower, beds[1].Tier)
	assert.False(t, beds[1].Available)
	require.Len(t, beds[1].BookedPeriods, 1)
	assert.Equal(t, 2, beds[1].BookedPeriods[0].Start.Day())
}

func TestAvailableBeds_MalformedTier(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"id": 1, "number": 1, "tier": "MIDDLE", "roomId": 7, "available": true}]`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).AvailableBeds(context.Background(), 7, testRange(t))
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestAvailableBeds_DuplicateIDs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[
			{"id": 1, "number": 1, "tier": "TOP", "roomId": 7, "available": true},
			{"id": 1, "number": 2, "tier": "TOP", "roomId": 7, "available": true}
		]`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).AvailableBeds(context.Background(), 7, testRange(t))
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestGet_RetriesTransientOnce(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	obs := &fakeObserver{}
	beds, err := newTestClient(srv, WithMetrics(obs)).AvailableBeds(context.Background(), 7, testRange(t))
	require.NoError(t, err)
	assert.Empty(t, beds)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, []recordedCall{{op: OpAvailableBeds, outcome: "ok"}}, obs.calls)
}

func TestGet_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "upstream down")
	}))
	defer srv.Close()

	_, err := newTestClient(srv).AvailableBeds(context.Background(), 7, testRange(t))
	require.Error(t, err)
	assert.True(t, IsTransient(err))
	assert.Equal(t, int32(2), calls.Load())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "upstream down", apiErr.Body)
}

func TestGet_FatalIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).GetRoom(context.Background(), 99)
	require.Error(t, err)
	assert.False(t, IsTransient(err))
	assert.Equal(t, int32(1), calls.Load())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.NotFound())
}

func TestCalculatePrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/bookings/calculate-price", r.URL.Path)
		assert.Equal(t, "3", q.Get("categoryId"))
		assert.Equal(t, "2", q.Get("bedsCount"))
		assert.Equal(t, "2", q.Get("guestsCount"))
		assert.Equal(t, "2024-08-01", q.Get("checkInDate"))
		assert.Equal(t, "2024-08-04", q.Get("checkOutDate"))

		_, _ = io.WriteString(w, `{"originalPrice": 200, "discountPercentage": 10, "discountAmount": 20}`)
	}))
	defer srv.Close()

	q, err := newTestClient(srv).CalculatePrice(context.Background(), pricing.Request{
		CategoryID:   3,
		BedsCount:    2,
		GuestsCount:  2,
		CheckInDate:  "2024-08-01",
		CheckOutDate: "2024-08-04",
	})
	require.NoError(t, err)
	assert.Equal(t, &pricing.Quote{
		OriginalPrice:      200,
		DiscountedPrice:    180,
		DiscountAmount:     20,
		DiscountPercentage: 10,
	}, q)
	assert.Equal(t, 180.0, q.Total())
}

func TestNormalizeQuote(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	tests := []struct {
		name    string
		in      quoteDTO
		want    *pricing.Quote
		wantErr bool
	}{
		{
			name: "no discount forces zero amount",
			in:   quoteDTO{OriginalPrice: f(90), DiscountAmount: f(5), DiscountedPrice: f(85)},
			want: &pricing.Quote{OriginalPrice: 90, DiscountedPrice: 90},
		},
		{
			name: "amount derived from discounted price",
			in:   quoteDTO{OriginalPrice: f(100), DiscountedPrice: f(85), DiscountPercentage: f(15)},
			want: &pricing.Quote{OriginalPrice: 100, DiscountedPrice: 85, DiscountAmount: 15, DiscountPercentage: 15},
		},
		{
			name: "amount derived from percentage",
			in:   quoteDTO{OriginalPrice: f(50), DiscountPercentage: f(20)},
			want: &pricing.Quote{OriginalPrice: 50, DiscountedPrice: 40, DiscountAmount: 10, DiscountPercentage: 20},
		},
		{name: "missing original", in: quoteDTO{DiscountedPrice: f(10)}, wantErr: true},
		{name: "negative original", in: quoteDTO{OriginalPrice: f(-1)}, wantErr: true},
		{name: "percentage above 100", in: quoteDTO{OriginalPrice: f(10), DiscountPercentage: f(120)}, wantErr: true},
		{
			name:    "inconsistent discounted price",
			in:      quoteDTO{OriginalPrice: f(100), DiscountAmount: f(10), DiscountedPrice: f(80), DiscountPercentage: f(10)},
			wantErr: true,
		},
		{
			name:    "discount larger than price",
			in:      quoteDTO{OriginalPrice: f(10), DiscountAmount: f(20), DiscountPercentage: f(50)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizeQuote(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedResponse)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCreateBooking(t *testing.T) {
	var calls atomic.Int32
	var got createBookingBody
	var lang string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/bookings/create-booking", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		lang = r.Header.Get("Accept-Language")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	rng := testRange(t)
	err := newTestClient(srv).CreateBooking(context.Background(), CreateBookingRequest{
		FirstName:     "Aida",
		LastName:      "Bekova",
		Email:         "aida@example.com",
		Phone:         "+996555000111",
		Guests:        2,
		RoomID:        7,
		StartTime:     rng.CheckIn,
		EndTime:       rng.CheckOut,
		Comments:      "late arrival",
		BunkIDs:       []int64{12, 11},
		BookingSource: "WEBSITE",
	}, "ru")
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "ru-RU", lang)
	assert.Equal(t, createBookingBody{
		FirstName:     "Aida",
		LastName:      "Bekova",
		Email:         "aida@example.com",
		Phone:         "+996555000111",
		Guests:        2,
		RoomID:        7,
		StartTime:     "2024-08-01T00:00:00Z",
		EndTime:       "2024-08-04T00:00:00Z",
		Comments:      "late arrival",
		BunkIDs:       []int64{12, 11},
		BookingSource: "WEBSITE",
	}, got)
}

func TestCreateBooking_NeverRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := newTestClient(srv).CreateBooking(context.Background(), CreateBookingRequest{}, "en")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCreateBooking_Conflict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = io.WriteString(w, `{"message":"bunk already booked"}`)
	}))
	defer srv.Close()

	err := newTestClient(srv).CreateBooking(context.Background(), CreateBookingRequest{}, "kg")
	assert.True(t, IsConflict(err))
}

func TestAcceptLanguage(t *testing.T) {
	assert.Equal(t, "kg-KG", AcceptLanguage("kg"))
	assert.Equal(t, "ru-RU", AcceptLanguage("ru"))
	assert.Equal(t, "en-US", AcceptLanguage("en"))
	assert.Equal(t, "en-US", AcceptLanguage(""))
	assert.Equal(t, "en-US", AcceptLanguage("de"))
}

func TestRooms(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rooms":
			assert.Equal(t, "2024-08-01", r.URL.Query().Get("startDate"))
			assert.Equal(t, "2024-08-04", r.URL.Query().Get("endDate"))
			_, _ = io.WriteString(w, `[
				{"id": 7, "title": "Sunrise", "capacity": 6, "price": 12.5, "categoryId": 3, "categoryName": "Female dorm"},
				{"id": 8, "title": "Tash", "capacity": 4, "price": null, "categoryName": "Смешанный"}
			]`)
		case "/rooms/get-room/7":
			_, _ = io.WriteString(w, `{"id": 7, "title": "Sunrise", "capacity": 6, "categoryId": 3, "categoryName": "Male dorm",
				"pictureUrls": ["a.jpg"], "amenities": ["wifi"]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := newTestClient(srv)

	rooms, err := c.ListRooms(context.Background(), testRange(t))
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, room.GenderFemale, rooms[0].Gender)
	assert.Equal(t, 12.5, rooms[0].Price)
	assert.Equal(t, room.GenderMixed, rooms[1].Gender)
	assert.Zero(t, rooms[1].Price)
	assert.Equal(t, int64(8), rooms[1].PricingCategory())

	r, err := c.GetRoom(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "Sunrise", r.Name)
	assert.Equal(t, room.GenderMale, r.Gender)
	assert.Equal(t, []string{"a.jpg"}, r.Images)
}

func TestMalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{not json`)
	}))
	defer srv.Close()

	obs := &fakeObserver{}
	_, err := newTestClient(srv, WithMetrics(obs)).GetRoom(context.Background(), 1)
	assert.ErrorIs(t, err, ErrMalformedResponse)
	assert.Equal(t, []recordedCall{{op: OpGetRoom, outcome: "malformed"}}, obs.calls)
}

func TestGet_ContextCanceledDuringBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	c := New(srv.URL, WithRetryConfig(RetryConfig{MaxAttempts: 2, Backoff: time.Hour}))

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := c.AvailableBeds(ctx, 1, testRange(t))
	assert.ErrorIs(t, err, context.Canceled)
}
