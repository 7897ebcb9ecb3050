package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"rentdeal/internal/infra/config"
	"rentdeal/internal/infra/obs"
)

type OfferHTTP interface {
	HostOffers(c *gin.Context)
	Get(c *gin.Context)
	Propose(c *gin.Context)
	Accept(c *gin.Context)
	Reject(c *gin.Context)
	Counter(c *gin.Context)
}

type BookingHTTP interface {
	Get(c *gin.Context)
	Create(c *gin.Context)
	Cancel(c *gin.Context)
}

type PaymentHTTP interface {
	Verify(c *gin.Context)
}

type Handlers struct {
	Offer   OfferHTTP
	Booking BookingHTTP
	Payment PaymentHTTP
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := NewRouter(obsMW, health, h)
	return &http.Server{Addr: cfg.HTTPAddr, Handler: router}
}

// NewRouter builds the engine without binding it to a listener; tests drive
// it through httptest.
func NewRouter(obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key", "X-Actor-ID"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	if h.Offer != nil {
		router.GET("/offers/host", h.Offer.HostOffers)
		router.POST("/offers", h.Offer.Propose)
		router.GET("/offers/:id", h.Offer.Get)
		router.POST("/offers/:id/accept", h.Offer.Accept)
		router.POST("/offers/:id/reject", h.Offer.Reject)
		router.POST("/offers/:id/counter", h.Offer.Counter)
	}
	if h.Booking != nil {
		router.POST("/bookings", h.Booking.Create)
		router.GET("/bookings/:id", h.Booking.Get)
		router.PUT("/bookings/:id/cancel", h.Booking.Cancel)
	}
	if h.Payment != nil {
		router.GET("/payments/verify", h.Payment.Verify)
	}
	return router
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}

var _ OfferHTTP = OfferHandler{}
var _ BookingHTTP = BookingHandler{}
var _ PaymentHTTP = PaymentHandler{}
