// README: HTTP router registration.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"swiftcab/internal/booking"
	"swiftcab/internal/http/handlers"
	"swiftcab/internal/http/middleware"
	"swiftcab/internal/quote"
)

func NewRouter(bookingService *booking.Service, quoteService *quote.Service, log *slog.Logger) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.Recovery(log), middleware.Logging(log))

	quoteHandler := handlers.NewQuoteHandler(quoteService)
	r.POST("/api/quotes", quoteHandler.Create)

	bookingHandler := handlers.NewBookingHandler(bookingService)
	r.POST("/api/bookings", bookingHandler.Create)
	r.GET("/api/bookings", bookingHandler.List)
	r.GET("/api/bookings/:id", bookingHandler.Get)
	r.PATCH("/api/bookings/:id", bookingHandler.Update)
	r.POST("/api/bookings/:id/status", bookingHandler.UpdateStatus)
	r.POST("/api/bookings/:id/cancel", bookingHandler.Cancel)
	r.POST("/api/bookings/:id/rating", bookingHandler.Rate)
	r.GET("/api/bookings/:id/history", bookingHandler.History)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	return r
}
