package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/hostel-booking-backend/internal/auth"
	"github.com/nekogravitycat/hostel-booking-backend/internal/booking"
	"github.com/nekogravitycat/hostel-booking-backend/internal/bookingapi"
	"github.com/nekogravitycat/hostel-booking-backend/internal/confirmation"
	"github.com/nekogravitycat/hostel-booking-backend/internal/pkg/storage"
	"github.com/nekogravitycat/hostel-booking-backend/internal/room"
)

const appURL = "https://hostel.example"

// fakeBookingService stands in for the remote booking API.
type fakeBookingService struct {
	bookings atomic.Int32
}

func (f *fakeBookingService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/rooms/get-room/2":
		_, _ = w.Write([]byte(`{"id":2,"title":"Sunrise dorm","capacity":4,"price":15,"categoryId":3,"categoryName":"Mixed"}`))
	case "/bunks/get-available-bunks":
		_, _ = w.Write([]byte(`[
			{"id":11,"number":1,"tier":"TOP","roomId":2,"available":true},
			{"id":12,"number":1,"tier":"BOTTOM","roomId":2,"available":true},
			{"id":13,"number":2,"tier":"BOTTOM","roomId":2,"available":false}
		]`))
	case "/bookings/calculate-price":
		_, _ = w.Write([]byte(`{"originalPrice":45,"discountPercentage":0}`))
	case "/bookings/create-booking":
		f.bookings.Add(1)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":1}`))
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"not found"}`))
	}
}

type testEnv struct {
	router *gin.Engine
	remote *fakeBookingService
	tokens *auth.JWTManager
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	remote := &fakeBookingService{}
	srv := httptest.NewServer(remote)
	t.Cleanup(srv.Close)

	client := bookingapi.New(srv.URL)
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	confirmations := confirmation.NewService(confirmation.NewMemoryRepository(), store, nil, nil)

	manager := booking.NewManager(booking.Config{
		Remote:        client,
		Rooms:         room.NewService(client),
		Recorder:      confirmations,
		BookingSource: "WEBSITE",
	})
	t.Cleanup(manager.Shutdown)

	tokens := auth.NewJWTManager("test-secret", time.Hour)
	h := NewHandler(manager, confirmations, tokens, appURL)

	r := gin.New()
	RegisterRoutes(r.Group("/v1"), h, auth.SessionRequired(tokens))
	return &testEnv{router: r, remote: remote, tokens: tokens}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (e *testEnv) open(t *testing.T) (string, string) {
	t.Helper()
	w := e.do(t, http.MethodPost, "/v1/sessions", "", gin.H{"room_id": 2, "language": "ru"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := decode[OpenSessionResponse](t, w)
	require.NotEmpty(t, resp.Token)
	return resp.Session.ID, resp.Token
}

func (e *testEnv) waitSession(t *testing.T, base, token string, cond func(SessionResponse) bool) {
	t.Helper()
	require.Eventually(t, func() bool {
		w := e.do(t, http.MethodGet, base, token, nil)
		return w.Code == http.StatusOK && cond(decode[SessionResponse](t, w))
	}, 2*time.Second, 10*time.Millisecond)
}

func TestOpenSession(t *testing.T) {
	e := setup(t)

	w := e.do(t, http.MethodPost, "/v1/sessions", "", gin.H{"room_id": 2, "language": "kg"})
	require.Equal(t, http.StatusCreated, w.Code)
	resp := decode[OpenSessionResponse](t, w)
	assert.Equal(t, "DATES", resp.Session.Stage)
	assert.Equal(t, "kg", resp.Session.Language)
	assert.Equal(t, RoomTag{ID: 2, Name: "Sunrise dorm", Capacity: 4}, resp.Session.Room)
	assert.Empty(t, resp.Session.Errors)

	w = e.do(t, http.MethodPost, "/v1/sessions", "", gin.H{"room_id": 99})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.do(t, http.MethodPost, "/v1/sessions", "", gin.H{"language": "en"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodPost, "/v1/sessions", "", gin.H{"room_id": 2, "language": "de"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionRoutesNeedToken(t *testing.T) {
	e := setup(t)
	id, token := e.open(t)
	otherID, _ := e.open(t)

	w := e.do(t, http.MethodGet, "/v1/sessions/"+id, "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(t, http.MethodGet, "/v1/sessions/"+otherID, token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(t, http.MethodGet, "/v1/sessions/"+id, token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	otherRoom, err := e.tokens.GenerateSessionToken(id, 7)
	require.NoError(t, err)
	w = e.do(t, http.MethodGet, "/v1/sessions/"+id, otherRoom, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = e.do(t, http.MethodPost, "/v1/sessions/"+id+"/next", otherRoom, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestBookingFlow(t *testing.T) {
	e := setup(t)
	id, token := e.open(t)
	base := "/v1/sessions/" + id

	w := e.do(t, http.MethodPut, base+"/dates", token, gin.H{"check_in": "2024-08-01", "check_out": "2024-08-04"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	snap := decode[SessionResponse](t, w)
	assert.Equal(t, 3, snap.Nights)
	assert.Equal(t, "2024-08-01", snap.CheckIn)

	w = e.do(t, http.MethodPost, base+"/next", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "BEDS", decode[SessionResponse](t, w).Stage)

	require.Eventually(t, func() bool {
		w := e.do(t, http.MethodGet, base+"/beds", token, nil)
		return decode[BedsResponse](t, w).Status == "ready"
	}, 2*time.Second, 10*time.Millisecond)

	w = e.do(t, http.MethodGet, base+"/beds", token, nil)
	beds := decode[BedsResponse](t, w)
	require.Len(t, beds.Upper, 1)
	require.Len(t, beds.Lower, 2)
	assert.False(t, beds.Lower[1].Available)

	w = e.do(t, http.MethodPost, base+"/beds/13/toggle", token, nil)
	assert.Equal(t, http.StatusConflict, w.Code, "unavailable bed")

	w = e.do(t, http.MethodPost, base+"/beds/11/toggle", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []int64{11}, decode[SessionResponse](t, w).SelectedBedIDs)

	w = e.do(t, http.MethodGet, base+"/beds", token, nil)
	assert.True(t, decode[BedsResponse](t, w).Upper[0].Selected)

	w = e.do(t, http.MethodPost, base+"/next", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodPost, base+"/next", token, nil)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var errBody struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errBody))
	assert.Contains(t, errBody.Fields, "firstName")
	assert.Contains(t, errBody.Fields, "email")

	w = e.do(t, http.MethodPatch, base+"/guest", token, gin.H{
		"first_name": "Aida",
		"last_name":  "Bekova",
		"email":      "aida@example.com",
		"phone":      "+996555000111",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[SessionResponse](t, w).Errors)

	w = e.do(t, http.MethodPost, base+"/next", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "CONFIRM", decode[SessionResponse](t, w).Stage)

	e.waitSession(t, base, token, func(s SessionResponse) bool { return s.QuoteStatus == "ready" })

	w = e.do(t, http.MethodPost, base+"/submit", token, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, "terms not agreed")

	w = e.do(t, http.MethodPut, base+"/terms", token, gin.H{"agreed": true})
	require.Equal(t, http.StatusOK, w.Code)
	snap = decode[SessionResponse](t, w)
	assert.True(t, snap.CanSubmit)
	require.NotNil(t, snap.Quote)
	assert.Equal(t, 45.0, snap.Quote.Total)

	w = e.do(t, http.MethodPost, base+"/submit", token, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	submitted := decode[SubmitResponse](t, w)
	ref := submitted.Confirmation.Reference
	assert.Regexp(t, `^BK\d{6}[0-9A-Z]{3}$`, ref)
	assert.Equal(t, "SUCCESS", submitted.Session.Stage)
	assert.Equal(t, ref, submitted.Session.Reference)
	assert.Equal(t, int32(1), e.remote.bookings.Load())

	w = e.do(t, http.MethodPost, base+"/submit", token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, int32(1), e.remote.bookings.Load())

	w = e.do(t, http.MethodGet, base+"/confirmation", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="booking-confirmation-`+ref+`.json"`, w.Header().Get("Content-Disposition"))
	var doc map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, ref, doc["bookingReference"])
	assert.Equal(t, "Aida Bekova", doc["customerName"])

	w = e.do(t, http.MethodPost, base+"/share", token, gin.H{"native_available": true})
	require.Equal(t, http.StatusOK, w.Code)
	share := decode[confirmation.ShareContent](t, w)
	assert.Equal(t, "native", share.Method)
	assert.Equal(t, appURL, share.URL)
	assert.Contains(t, share.Text, ref)

	w = e.do(t, http.MethodPost, base+"/share", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Booking Reference: "+ref, decode[confirmation.ShareContent](t, w).Text)

	w = e.do(t, http.MethodPost, base+"/reset", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	snap = decode[SessionResponse](t, w)
	assert.Equal(t, "DATES", snap.Stage)
	assert.Empty(t, snap.Reference)
}

func TestSetDatesRejectsBadInput(t *testing.T) {
	e := setup(t)
	id, token := e.open(t)
	base := "/v1/sessions/" + id

	w := e.do(t, http.MethodPut, base+"/dates", token, gin.H{"check_in": "01.08.2024", "check_out": "2024-08-04"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodPut, base+"/dates", token, gin.H{"check_in": "2024-08-01"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodPost, base+"/next", token, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, "no dates yet")
}

func TestConfirmationBeforeSuccess(t *testing.T) {
	e := setup(t)
	id, token := e.open(t)
	base := "/v1/sessions/" + id

	w := e.do(t, http.MethodGet, base+"/confirmation", token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = e.do(t, http.MethodPost, base+"/back", token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = e.do(t, http.MethodPost, base+"/quote/refresh", token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCloseSession(t *testing.T) {
	e := setup(t)
	id, token := e.open(t)
	base := "/v1/sessions/" + id

	w := e.do(t, http.MethodDelete, base, token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = e.do(t, http.MethodGet, base, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.do(t, http.MethodDelete, base, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
