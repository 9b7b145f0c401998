package confirmation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/nekogravitycat/hostel-booking-backend/internal/pkg/storage"
)

// maxReferenceAttempts bounds reference regeneration on collisions.
const maxReferenceAttempts = 3

type recordCounter interface {
	ConfirmationRecorded()
}

type Service interface {
	// Record assigns a reference, writes the document and stores the ledger
	// entry. The returned confirmation carries its reference even when
	// persisting failed, because the booking itself already exists remotely.
	Record(ctx context.Context, c Confirmation) (*Confirmation, error)
	Get(ctx context.Context, reference string) (*Confirmation, error)
	// Download streams the stored document. The caller must close it.
	Download(ctx context.Context, reference string) (io.ReadCloser, *Confirmation, error)
}

type service struct {
	repo    Repository
	storage storage.Storage
	metrics recordCounter
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(repo Repository, store storage.Storage, metrics recordCounter, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &service{
		repo:    repo,
		storage: store,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *service) Record(ctx context.Context, c Confirmation) (*Confirmation, error) {
	c.CreatedAt = s.now().UTC()
	c.BedIDs = append([]int64(nil), c.BedIDs...)

	var err error
	for attempt := 1; attempt <= maxReferenceAttempts; attempt++ {
		c.Reference = NewReference(s.now())
		err = s.repo.Create(ctx, &c)
		if !errors.Is(err, ErrDuplicateReference) {
			break
		}
		s.logger.Warn("Booking reference collision, regenerating",
			"reference", c.Reference,
			"attempt", attempt)
	}
	if err != nil {
		return &c, fmt.Errorf("record confirmation: %w", err)
	}

	raw, err := json.MarshalIndent(newDocument(&c), "", "  ")
	if err != nil {
		return &c, fmt.Errorf("encode confirmation document: %w", err)
	}
	if err := s.storage.Save(ctx, documentPath(c.Reference), bytes.NewReader(raw)); err != nil {
		return &c, fmt.Errorf("save confirmation document: %w", err)
	}

	if s.metrics != nil {
		s.metrics.ConfirmationRecorded()
	}
	return &c, nil
}

func (s *service) Get(ctx context.Context, reference string) (*Confirmation, error) {
	return s.repo.GetByReference(ctx, reference)
}

func (s *service) Download(ctx context.Context, reference string) (io.ReadCloser, *Confirmation, error) {
	c, err := s.repo.GetByReference(ctx, reference)
	if err != nil {
		return nil, nil, err
	}

	stream, err := s.storage.Get(ctx, documentPath(c.Reference))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to retrieve confirmation from storage: %w", err)
	}
	return stream, c, nil
}
