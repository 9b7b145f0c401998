package api

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nekogravitycat/hostel-booking-backend/internal/auth"
	"github.com/nekogravitycat/hostel-booking-backend/internal/booking"
	bookingHttp "github.com/nekogravitycat/hostel-booking-backend/internal/booking/http"
	"github.com/nekogravitycat/hostel-booking-backend/internal/confirmation"
	"github.com/nekogravitycat/hostel-booking-backend/internal/room"
	roomHttp "github.com/nekogravitycat/hostel-booking-backend/internal/room/http"
)

// Config holds the services the router exposes.
type Config struct {
	IsProduction  bool
	ProdOrigins   []string
	AppURL        string
	RoomService   room.Service
	Sessions      *booking.Manager
	Confirmations confirmation.Service
	JWTManager    *auth.JWTManager
	Gatherer      prometheus.Gatherer
}

// NewRouter initializes the HTTP router engine.
// It is responsible for assembling middleware (CORS, Logger, Auth) and registering routes for various modules.
func NewRouter(cfg Config) *gin.Engine {
	r := gin.New()

	// Global Middleware:
	// - Logger: Logs request information to the console.
	// - Recovery: Captures panics to prevent server crashes and returns a 500 error.
	r.Use(gin.Logger(), gin.Recovery())

	// Configure CORS (Cross-Origin Resource Sharing).
	config := cors.DefaultConfig()
	if cfg.IsProduction && len(cfg.ProdOrigins) > 0 {
		config.AllowOrigins = cfg.ProdOrigins
	} else {
		config.AllowOrigins = []string{
			"http://localhost:3000", // Booking page dev server
			"http://localhost:8081", // Swagger
		}
	}
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	config.ExposeHeaders = []string{"Content-Disposition", auth.RenewedTokenHeader}
	r.Use(cors.New(config))

	// sessionMiddleware: Validates the session token and that it belongs to the :id in the path.
	sessionMiddleware := auth.SessionRequired(cfg.JWTManager)

	// Initialize HTTP Handlers for each module (injecting Service dependencies).
	roomHandler := roomHttp.NewHandler(cfg.RoomService)
	bookingHandler := bookingHttp.NewHandler(cfg.Sessions, cfg.Confirmations, cfg.JWTManager, cfg.AppURL)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": cfg.Sessions.Len()})
	})
	if cfg.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	// Register API routes under /v1
	v1 := r.Group("/v1")
	{
		roomHttp.RegisterRoutes(v1, roomHandler)
		bookingHttp.RegisterRoutes(v1, bookingHandler, sessionMiddleware)
	}

	return r
}
