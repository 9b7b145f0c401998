package http

import (
	"github.com/nekogravitycat/hostel-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/hostel-booking-backend/internal/room"
)

// ListRoomsRequest defines query parameters for listing rooms.
type ListRoomsRequest struct {
	request.ListParams
	StartDate string `form:"start_date" binding:"required"`
	EndDate   string `form:"end_date" binding:"required"`
}

type RoomResponse struct {
	ID           int64    `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Capacity     int      `json:"capacity"`
	Price        float64  `json:"price"`
	Images       []string `json:"images"`
	Amenities    []string `json:"amenities"`
	Beds         string   `json:"beds"`
	RoomSize     float64  `json:"room_size"`
	CategoryID   int64    `json:"category_id"`
	CategoryName string   `json:"category_name"`
	Gender       string   `json:"gender"`
}

func NewRoomResponse(r *room.Room) RoomResponse {
	images := r.Images
	if images == nil {
		images = []string{}
	}
	amenities := r.Amenities
	if amenities == nil {
		amenities = []string{}
	}
	return RoomResponse{
		ID:           r.ID,
		Name:         r.Name,
		Description:  r.Description,
		Capacity:     r.Capacity,
		Price:        r.Price,
		Images:       images,
		Amenities:    amenities,
		Beds:         r.BedsLabel,
		RoomSize:     r.RoomSize,
		CategoryID:   r.CategoryID,
		CategoryName: r.CategoryName,
		Gender:       string(r.Gender),
	}
}
