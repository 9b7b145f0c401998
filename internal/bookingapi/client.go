// Package bookingapi is the HTTP client for the remote booking service that
// owns rooms, bunks, prices and bookings.
package bookingapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nekogravitycat/hostel-booking-backend/internal/bed"
	"github.com/nekogravitycat/hostel-booking-backend/internal/pricing"
	"github.com/nekogravitycat/hostel-booking-backend/internal/room"
	"github.com/nekogravitycat/hostel-booking-backend/internal/stay"
)

// maxResponseSize limits how much of a response body is read.
const maxResponseSize = 1 << 20

const (
	OpAvailableBeds  = "available_beds"
	OpCalculatePrice = "calculate_price"
	OpCreateBooking  = "create_booking"
	OpListRooms      = "list_rooms"
	OpGetRoom        = "get_room"
)

// Client is the booking service contract the booking flow depends on.
type Client interface {
	AvailableBeds(ctx context.Context, roomID int64, r stay.Range) ([]bed.Bed, error)
	CalculatePrice(ctx context.Context, req pricing.Request) (*pricing.Quote, error)
	CreateBooking(ctx context.Context, req CreateBookingRequest, lang string) error
	ListRooms(ctx context.Context, r stay.Range) ([]*room.Room, error)
	GetRoom(ctx context.Context, id int64) (*room.Room, error)
}

// CreateBookingRequest is everything the booking service needs to reserve beds.
type CreateBookingRequest struct {
	FirstName     string
	LastName      string
	Email         string
	Phone         string
	Guests        int
	RoomID        int64
	StartTime     time.Time
	EndTime       time.Time
	Comments      string
	BunkIDs       []int64
	BookingSource string
}

type observer interface {
	ObserveRemoteCall(operation, outcome string, d time.Duration)
}

// HTTPClient implements Client over HTTP/JSON.
type HTTPClient struct {
	baseURL     string
	httpClient  *http.Client
	retryConfig RetryConfig
	logger      *slog.Logger
	metrics     observer
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(client *HTTPClient) {
		client.httpClient = c
	}
}

// WithRetryConfig sets the retry configuration.
func WithRetryConfig(cfg RetryConfig) Option {
	return func(client *HTTPClient) {
		client.retryConfig = cfg
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(client *HTTPClient) {
		client.logger = logger
	}
}

// WithMetrics records call latency and outcome.
func WithMetrics(m observer) Option {
	return func(client *HTTPClient) {
		client.metrics = m
	}
}

// New creates a client for the booking service rooted at baseURL.
func New(baseURL string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		retryConfig: DefaultRetryConfig(),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}
	if c.retryConfig.MaxAttempts < 1 {
		c.retryConfig.MaxAttempts = 1
	}

	return c
}

// AvailableBeds lists the room's bunks with availability for the stay.
func (c *HTTPClient) AvailableBeds(ctx context.Context, roomID int64, r stay.Range) ([]bed.Bed, error) {
	q := url.Values{}
	q.Set("roomId", strconv.FormatInt(roomID, 10))
	q.Set("startTime", r.CheckIn.Format(time.RFC3339))
	q.Set("endTime", r.CheckOut.Format(time.RFC3339))

	var dtos []bedDTO
	if err := c.get(ctx, OpAvailableBeds, "/bunks/get-available-bunks", q, &dtos); err != nil {
		return nil, err
	}

	beds, err := toBeds(dtos)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", OpAvailableBeds, err)
	}
	return beds, nil
}

// CalculatePrice asks the booking service to price a stay.
func (c *HTTPClient) CalculatePrice(ctx context.Context, req pricing.Request) (*pricing.Quote, error) {
	q := url.Values{}
	q.Set("categoryId", strconv.FormatInt(req.CategoryID, 10))
	q.Set("bedsCount", strconv.Itoa(req.BedsCount))
	q.Set("guestsCount", strconv.Itoa(req.GuestsCount))
	q.Set("checkInDate", req.CheckInDate)
	q.Set("checkOutDate", req.CheckOutDate)

	var dto quoteDTO
	if err := c.get(ctx, OpCalculatePrice, "/bookings/calculate-price", q, &dto); err != nil {
		return nil, err
	}

	quote, err := normalizeQuote(dto)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", OpCalculatePrice, err)
	}
	return quote, nil
}

// CreateBooking submits a booking. It is never retried: a lost response must
// not turn into a second reservation.
func (c *HTTPClient) CreateBooking(ctx context.Context, req CreateBookingRequest, lang string) error {
	body := createBookingBody{
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Email:         req.Email,
		Phone:         req.Phone,
		Guests:        req.Guests,
		RoomID:        req.RoomID,
		StartTime:     req.StartTime.UTC().Format(time.RFC3339),
		EndTime:       req.EndTime.UTC().Format(time.RFC3339),
		Comments:      req.Comments,
		BunkIDs:       req.BunkIDs,
		BookingSource: req.BookingSource,
	}

	header := http.Header{}
	header.Set("Accept-Language", AcceptLanguage(lang))

	start := time.Now()
	err := c.doOnce(ctx, OpCreateBooking, http.MethodPost, "/bookings/create-booking", nil, body, header, nil)
	c.observe(OpCreateBooking, err, time.Since(start))
	return err
}

// ListRooms returns the rooms the booking service offers for the stay.
func (c *HTTPClient) ListRooms(ctx context.Context, r stay.Range) ([]*room.Room, error) {
	q := url.Values{}
	q.Set("startDate", r.CheckInDate())
	q.Set("endDate", r.CheckOutDate())

	var dtos []roomDTO
	if err := c.get(ctx, OpListRooms, "/rooms", q, &dtos); err != nil {
		return nil, err
	}

	rooms := make([]*room.Room, 0, len(dtos))
	for _, d := range dtos {
		rooms = append(rooms, d.toRoom())
	}
	return rooms, nil
}

// GetRoom fetches a single room.
func (c *HTTPClient) GetRoom(ctx context.Context, id int64) (*room.Room, error) {
	var dto roomDTO
	path := "/rooms/get-room/" + strconv.FormatInt(id, 10)
	if err := c.get(ctx, OpGetRoom, path, nil, &dto); err != nil {
		return nil, err
	}
	return dto.toRoom(), nil
}

// AcceptLanguage maps the site's short language codes to locale tags.
func AcceptLanguage(lang string) string {
	switch lang {
	case "kg":
		return "kg-KG"
	case "ru":
		return "ru-RU"
	default:
		return "en-US"
	}
}

// get performs an idempotent GET with retry on transient errors.
func (c *HTTPClient) get(ctx context.Context, op, path string, query url.Values, out any) error {
	start := time.Now()
	var lastErr error

	for attempt := 1; attempt <= c.retryConfig.MaxAttempts; attempt++ {
		lastErr = c.doOnce(ctx, op, http.MethodGet, path, query, nil, nil, out)
		if lastErr == nil || !IsTransient(lastErr) {
			break
		}

		if attempt < c.retryConfig.MaxAttempts {
			c.logger.Debug("Booking service request failed, retrying",
				"operation", op,
				"attempt", attempt,
				"max_attempts", c.retryConfig.MaxAttempts,
				"error", lastErr)

			select {
			case <-ctx.Done():
				lastErr = ctx.Err()
				c.observe(op, lastErr, time.Since(start))
				return lastErr
			case <-time.After(c.retryConfig.Backoff):
			}
		}
	}

	c.observe(op, lastErr, time.Since(start))
	return lastErr
}

// doOnce executes a single HTTP request and decodes a 2xx JSON body into out.
func (c *HTTPClient) doOnce(ctx context.Context, op, method, path string, query url.Values, body any, header http.Header, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request body: %w", op, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("%s: create HTTP request: %w", op, err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%s: %w", op, ctx.Err())
		}
		// Network errors are transient
		return NewTransientError(fmt.Errorf("%s: HTTP request failed: %w", op, err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return NewTransientError(fmt.Errorf("%s: read response body: %w", op, err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return classifyHTTPError(op, resp.StatusCode, respBody)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%s: decode response: %v: %w", op, err, ErrMalformedResponse)
	}
	return nil
}

func (c *HTTPClient) observe(op string, err error, d time.Duration) {
	if c.metrics == nil {
		return
	}

	outcome := "ok"
	var apiErr *APIError
	switch {
	case err == nil:
	case errors.Is(err, ErrMalformedResponse):
		outcome = "malformed"
	case errors.As(err, &apiErr):
		outcome = "status_" + strconv.Itoa(apiErr.StatusCode)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		outcome = "canceled"
	default:
		outcome = "transport_error"
	}
	c.metrics.ObserveRemoteCall(op, outcome, d)
}
