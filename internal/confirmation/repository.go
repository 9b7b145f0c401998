package confirmation

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	// Create stores c. It returns ErrDuplicateReference when the reference is taken.
	Create(ctx context.Context, c *Confirmation) error
	GetByReference(ctx context.Context, reference string) (*Confirmation, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func (r *pgxRepository) Create(ctx context.Context, c *Confirmation) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.confirmations").
		Columns(
			"reference", "room_id", "room_name", "check_in", "check_out", "nights", "guests", "bed_ids",
			"total_price", "original_price", "discount_percentage",
			"customer_name", "email", "phone", "language",
		).
		Values(
			c.Reference, c.RoomID, c.RoomName, c.CheckIn, c.CheckOut, c.Nights, c.Guests, c.BedIDs,
			c.TotalPrice, c.OriginalPrice, c.DiscountPercentage,
			c.CustomerName, c.Email, c.Phone, c.Language,
		).
		Suffix("RETURNING created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create confirmation query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&c.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrDuplicateReference
		}
		return fmt.Errorf("create confirmation failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByReference(ctx context.Context, reference string) (*Confirmation, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(
		"reference", "room_id", "room_name", "check_in", "check_out", "nights", "guests", "bed_ids",
		"total_price", "original_price", "discount_percentage",
		"customer_name", "email", "phone", "language", "created_at",
	).
		From("public.confirmations").
		Where(squirrel.Eq{"reference": reference}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get confirmation query failed: %w", err)
	}

	var c Confirmation
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&c.Reference, &c.RoomID, &c.RoomName, &c.CheckIn, &c.CheckOut, &c.Nights, &c.Guests, &c.BedIDs,
		&c.TotalPrice, &c.OriginalPrice, &c.DiscountPercentage,
		&c.CustomerName, &c.Email, &c.Phone, &c.Language, &c.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get confirmation failed: %w", err)
	}
	return &c, nil
}

// memoryRepository keeps confirmations for the lifetime of the process.
// It is used when no database is configured.
type memoryRepository struct {
	mu    sync.RWMutex
	items map[string]Confirmation
}

func NewMemoryRepository() Repository {
	return &memoryRepository{items: make(map[string]Confirmation)}
}

func (r *memoryRepository) Create(ctx context.Context, c *Confirmation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[c.Reference]; ok {
		return ErrDuplicateReference
	}
	cp := *c
	cp.BedIDs = append([]int64(nil), c.BedIDs...)
	r.items[c.Reference] = cp
	return nil
}

func (r *memoryRepository) GetByReference(ctx context.Context, reference string) (*Confirmation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.items[reference]
	if !ok {
		return nil, ErrNotFound
	}
	c.BedIDs = append([]int64(nil), c.BedIDs...)
	return &c, nil
}
