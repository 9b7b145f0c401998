package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nekogravitycat/hostel-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/hostel-booking-backend/internal/pkg/response"
	"github.com/nekogravitycat/hostel-booking-backend/internal/room"
	"github.com/nekogravitycat/hostel-booking-backend/internal/stay"
)

type Handler struct {
	service room.Service
}

func NewHandler(service room.Service) *Handler {
	return &Handler{service: service}
}

// List returns the rooms offered for a stay. The booking service has no
// paging, so the page is cut from the full list.
func (h *Handler) List(c *gin.Context) {
	var req ListRoomsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return
	}

	r, err := stay.Parse(req.StartDate, req.EndDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid dates", "details": err.Error()})
		return
	}

	rooms, err := h.service.ListAvailable(c.Request.Context(), r)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]RoomResponse, len(rooms))
	for i, rm := range rooms {
		items[i] = NewRoomResponse(rm)
	}

	c.JSON(http.StatusOK, response.Paginate(items, req.Page, req.PageSize))
}

func (h *Handler) Get(c *gin.Context) {
	var req request.ByIntIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id", "details": err.Error()})
		return
	}

	rm, err := h.service.GetByID(c.Request.Context(), req.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewRoomResponse(rm))
}
