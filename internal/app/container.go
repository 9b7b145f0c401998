package app

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/nekogravitycat/hostel-booking-backend/internal/api"
	"github.com/nekogravitycat/hostel-booking-backend/internal/auth"
	"github.com/nekogravitycat/hostel-booking-backend/internal/booking"
	"github.com/nekogravitycat/hostel-booking-backend/internal/bookingapi"
	"github.com/nekogravitycat/hostel-booking-backend/internal/confirmation"
	"github.com/nekogravitycat/hostel-booking-backend/internal/metrics"
	"github.com/nekogravitycat/hostel-booking-backend/internal/pkg/storage"
	"github.com/nekogravitycat/hostel-booking-backend/internal/room"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction bool
	ProdOrigins  []string
	AppURL       string

	// DBPool is optional. Without it confirmations are kept in memory.
	DBPool      *pgxpool.Pool
	StoragePath string

	BookingAPIBaseURL     string
	BookingAPITimeout     time.Duration
	BookingAPIMaxAttempts int
	BookingSource         string

	SessionSecret string
	SessionTTL    time.Duration

	Logger *slog.Logger
	// Registry defaults to a fresh registry with the Go and process collectors.
	Registry *prometheus.Registry
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router     *gin.Engine
	Sessions   *booking.Manager
	JWTManager *auth.JWTManager
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) (*Container, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	// Init Components
	m := metrics.New(registry)
	jwtManager := auth.NewJWTManager(cfg.SessionSecret, cfg.SessionTTL)

	retry := bookingapi.DefaultRetryConfig()
	if cfg.BookingAPIMaxAttempts > 0 {
		retry.MaxAttempts = cfg.BookingAPIMaxAttempts
	}
	timeout := cfg.BookingAPITimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := bookingapi.New(cfg.BookingAPIBaseURL,
		bookingapi.WithHTTPClient(&http.Client{Timeout: timeout}),
		bookingapi.WithRetryConfig(retry),
		bookingapi.WithLogger(logger),
		bookingapi.WithMetrics(m),
	)

	// Room Module
	roomService := room.NewService(client)

	// Confirmation Module
	store, err := storage.NewLocalStorage(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("failed to init confirmation storage: %w", err)
	}
	var confRepo confirmation.Repository
	if cfg.DBPool != nil {
		confRepo = confirmation.NewPgxRepository(cfg.DBPool)
	} else {
		logger.Warn("No database configured, confirmations are kept in memory")
		confRepo = confirmation.NewMemoryRepository()
	}
	confService := confirmation.NewService(confRepo, store, m, logger)

	// Booking Module
	sessions := booking.NewManager(booking.Config{
		Remote:        client,
		Rooms:         roomService,
		Recorder:      confService,
		Metrics:       m,
		Logger:        logger,
		BookingSource: cfg.BookingSource,
		TTL:           cfg.SessionTTL,
	})

	// Router
	router := api.NewRouter(api.Config{
		IsProduction:  cfg.IsProduction,
		ProdOrigins:   cfg.ProdOrigins,
		AppURL:        cfg.AppURL,
		RoomService:   roomService,
		Sessions:      sessions,
		Confirmations: confService,
		JWTManager:    jwtManager,
		Gatherer:      registry,
	})

	return &Container{
		Router:     router,
		Sessions:   sessions,
		JWTManager: jwtManager,
	}, nil
}
