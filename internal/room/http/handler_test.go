package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/hostel-booking-backend/internal/pkg/response"
	"github.com/nekogravitycat/hostel-booking-backend/internal/room"
	"github.com/nekogravitycat/hostel-booking-backend/internal/stay"
)

type fakeService struct {
	rooms   []*room.Room
	listErr error
	gotList stay.Range
}

func (f *fakeService) GetByID(ctx context.Context, id int64) (*room.Room, error) {
	for _, r := range f.rooms {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, room.ErrNotFound
}

func (f *fakeService) ListAvailable(ctx context.Context, r stay.Range) ([]*room.Room, error) {
	f.gotList = r
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.rooms, nil
}

func setup(svc room.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r.Group("/v1"), NewHandler(svc))
	return r
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func threeRooms() []*room.Room {
	return []*room.Room{
		{ID: 1, Name: "Sunrise dorm", Capacity: 4, Gender: room.GenderMixed},
		{ID: 2, Name: "Female dorm", Capacity: 6, Gender: room.GenderFemale, Images: []string{"a.jpg"}},
		{ID: 3, Name: "Male dorm", Capacity: 8, Gender: room.GenderMale},
	}
}

func TestList_Paginates(t *testing.T) {
	svc := &fakeService{rooms: threeRooms()}
	r := setup(svc)

	w := get(r, "/v1/rooms?start_date=2024-08-01&end_date=2024-08-04&page=2&page_size=2")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var page response.PageResponse[RoomResponse]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.Page)
	require.Len(t, page.Items, 1)
	assert.Equal(t, int64(3), page.Items[0].ID)
	assert.Equal(t, "male", page.Items[0].Gender)
	assert.NotNil(t, page.Items[0].Images)
	assert.Equal(t, "2024-08-01..2024-08-04", svc.gotList.String())
}

func TestList_BadQuery(t *testing.T) {
	r := setup(&fakeService{})

	w := get(r, "/v1/rooms?start_date=2024-08-01")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = get(r, "/v1/rooms?start_date=2024-08-01&end_date=tomorrow")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = get(r, "/v1/rooms?start_date=2024-08-01&end_date=2024-08-04&page_size=500")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestList_ServiceErrors(t *testing.T) {
	r := setup(&fakeService{listErr: stay.ErrInvalidRange})
	w := get(r, "/v1/rooms?start_date=2024-08-04&end_date=2024-08-01")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	r = setup(&fakeService{listErr: errors.New("boom")})
	w = get(r, "/v1/rooms?start_date=2024-08-01&end_date=2024-08-04")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGet(t *testing.T) {
	r := setup(&fakeService{rooms: threeRooms()})

	w := get(r, "/v1/rooms/2")
	require.Equal(t, http.StatusOK, w.Code)
	var resp RoomResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Female dorm", resp.Name)
	assert.Equal(t, []string{"a.jpg"}, resp.Images)

	w = get(r, "/v1/rooms/9")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = get(r, "/v1/rooms/abc")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = get(r, "/v1/rooms/0")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
