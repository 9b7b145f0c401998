package room

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/nekogravitycat/hostel-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/hostel-booking-backend/internal/stay"
)

var ErrCatalogUnavailable = apperror.New(http.StatusBadGateway, "room catalog is unavailable")

type catalog interface {
	ListRooms(ctx context.Context, r stay.Range) ([]*Room, error)
	GetRoom(ctx context.Context, id int64) (*Room, error)
}

// notFounder is implemented by remote errors that know their HTTP status.
type notFounder interface {
	NotFound() bool
}

type Service interface {
	GetByID(ctx context.Context, id int64) (*Room, error)
	ListAvailable(ctx context.Context, r stay.Range) ([]*Room, error)
}

type service struct {
	catalog catalog
}

func NewService(catalog catalog) Service {
	return &service{catalog: catalog}
}

func (s *service) GetByID(ctx context.Context, id int64) (*Room, error) {
	if id <= 0 {
		return nil, ErrInvalidID
	}

	r, err := s.catalog.GetRoom(ctx, id)
	if err != nil {
		var nf notFounder
		if errors.As(err, &nf) && nf.NotFound() {
			return nil, ErrNotFound
		}
		return nil, apperror.Wrap(fmt.Errorf("get room %d: %w", id, err), ErrCatalogUnavailable.Code, ErrCatalogUnavailable.Message)
	}
	if r.Capacity < 1 {
		return nil, apperror.Wrap(fmt.Errorf("room %d has capacity %d", id, r.Capacity), ErrCatalogUnavailable.Code, ErrCatalogUnavailable.Message)
	}
	return r, nil
}

func (s *service) ListAvailable(ctx context.Context, r stay.Range) ([]*Room, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	rooms, err := s.catalog.ListRooms(ctx, r)
	if err != nil {
		return nil, apperror.Wrap(fmt.Errorf("list rooms %s: %w", r, err), ErrCatalogUnavailable.Code, ErrCatalogUnavailable.Message)
	}
	return rooms, nil
}
