// README: Fare quote handler.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"swiftcab/internal/fare"
	"swiftcab/internal/quote"
	"swiftcab/internal/types"
)

type QuoteHandler struct {
	quotes *quote.Service
}

func NewQuoteHandler(svc *quote.Service) *QuoteHandler {
	return &QuoteHandler{quotes: svc}
}

type locationReq struct {
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	City      string  `json:"city"`
	State     string  `json:"state"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Landmark  string  `json:"landmark"`
}

func (l locationReq) point() types.LocationPoint {
	return types.LocationPoint{
		Name:     l.Name,
		Address:  l.Address,
		City:     l.City,
		State:    l.State,
		Coord:    types.Coordinate{Lat: l.Latitude, Lng: l.Longitude},
		Landmark: l.Landmark,
	}
}

type quoteReq struct {
	Pickup   locationReq `json:"pickup"`
	Drop     locationReq `json:"drop"`
	CabType  string      `json:"cab_type"`
	TripType string      `json:"trip_type"`
}

func (h *QuoteHandler) Create(c *gin.Context) {
	var req quoteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}

	q, err := h.quotes.Quote(c.Request.Context(), quote.Request{
		Pickup:   req.Pickup.point(),
		Drop:     req.Drop.point(),
		CabType:  fare.CabType(req.CabType),
		TripType: fare.TripType(req.TripType),
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"distance_km":              q.DistanceKm,
		"distance_routed":          q.DistanceRouted,
		"distance_source":          q.DistanceSource,
		"estimated_duration_hours": q.EstimatedDurationHours,
		"base_fare":                q.Fare.BaseFare,
		"distance_charge":          q.Fare.DistanceCharge,
		"subtotal":                 q.Fare.Subtotal,
		"taxes":                    q.Fare.Taxes,
		"total_fare":               q.Fare.TotalFare,
		"cab_type":                 q.CabType,
		"trip_type":                q.TripType,
	})
}
