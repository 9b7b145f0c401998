package confirmation

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/hostel-booking-backend/internal/db"
)

// testPool connects to TEST_DB_DSN. Tests against Postgres are skipped when
// it is not set.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	// Attempt to load .env from the module root
	if err := godotenv.Load("../../.env"); err != nil {
		log.Printf("No .env file found or failed to load: %v", err)
	}

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN environment variable is not set")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	schema, err := os.ReadFile("../../migrations/0001_create_confirmations.sql")
	require.NoError(t, err)
	_, err = pool.Exec(ctx, string(schema))
	require.NoError(t, err)

	_, err = pool.Exec(ctx, "TRUNCATE TABLE public.confirmations")
	require.NoError(t, err)
	return pool
}

func sampleConfirmation(ref string) *Confirmation {
	return &Confirmation{
		Reference:          ref,
		RoomID:             2,
		RoomName:           "Sunrise dorm",
		CheckIn:            "2024-08-01",
		CheckOut:           "2024-08-04",
		Nights:             3,
		Guests:             2,
		BedIDs:             []int64{11, 12},
		TotalPrice:         81,
		OriginalPrice:      90,
		DiscountPercentage: 10,
		CustomerName:       "Aida Bekova",
		Email:              "aida@example.com",
		Phone:              "+996555000111",
		Language:           "ru",
	}
}

func TestPgxRepository_CreateAndGet(t *testing.T) {
	repo := NewPgxRepository(testPool(t))
	ctx := context.Background()

	c := sampleConfirmation("BK123456ABC")
	require.NoError(t, repo.Create(ctx, c))
	assert.False(t, c.CreatedAt.IsZero())

	got, err := repo.GetByReference(ctx, "BK123456ABC")
	require.NoError(t, err)
	assert.Equal(t, c.BedIDs, got.BedIDs)
	assert.Equal(t, c.CheckOut, got.CheckOut)
	assert.Equal(t, c.DiscountPercentage, got.DiscountPercentage)
	assert.True(t, c.CreatedAt.Equal(got.CreatedAt))

	_, err = repo.GetByReference(ctx, "BK000000XYZ")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPgxRepository_DuplicateReference(t *testing.T) {
	repo := NewPgxRepository(testPool(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, sampleConfirmation("BK123456ABC")))
	err := repo.Create(ctx, sampleConfirmation("BK123456ABC"))
	assert.ErrorIs(t, err, ErrDuplicateReference)
}
