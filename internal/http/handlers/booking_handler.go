// README: Booking handlers for create/get/list/update/status/cancel/rating.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"swiftcab/internal/booking"
	"swiftcab/internal/fare"
	"swiftcab/internal/types"
)

type BookingHandler struct {
	bookings *booking.Service
}

func NewBookingHandler(svc *booking.Service) *BookingHandler {
	return &BookingHandler{bookings: svc}
}

type createBookingReq struct {
	RequesterID     string      `json:"requester_id"`
	Pickup          locationReq `json:"pickup"`
	Drop            locationReq `json:"drop"`
	PickupDatetime  time.Time   `json:"pickup_datetime"`
	ReturnDatetime  *time.Time  `json:"return_datetime"`
	TripType        string      `json:"trip_type"`
	CabType         string      `json:"cab_type"`
	Passengers      int         `json:"passengers"`
	SpecialRequests string      `json:"special_requests"`
	PaymentMethod   string      `json:"payment_method"`
	DiscountCode    string      `json:"discount_code"`
}

func (h *BookingHandler) Create(c *gin.Context) {
	var req createBookingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}

	b, err := h.bookings.Create(c.Request.Context(), booking.CreateCommand{
		RequesterID:     types.ID(req.RequesterID),
		Pickup:          req.Pickup.point(),
		Drop:            req.Drop.point(),
		PickupTime:      req.PickupDatetime,
		ReturnTime:      req.ReturnDatetime,
		TripType:        fare.TripType(req.TripType),
		CabType:         fare.CabType(req.CabType),
		Passengers:      req.Passengers,
		SpecialRequests: req.SpecialRequests,
		PaymentMethod:   req.PaymentMethod,
		DiscountCode:    req.DiscountCode,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, bookingResponse(b))
}

func (h *BookingHandler) Get(c *gin.Context) {
	b, err := h.bookings.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookingResponse(b))
}

func (h *BookingHandler) List(c *gin.Context) {
	list, err := h.bookings.List(c.Request.Context(), booking.ListQuery{
		RequesterID: types.ID(c.Query("requester_id")),
		Status:      booking.Status(c.Query("status")),
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	out := make([]gin.H, len(list))
	for i, b := range list {
		out[i] = bookingResponse(b)
	}
	c.JSON(http.StatusOK, gin.H{"bookings": out, "count": len(out)})
}

type updateBookingReq struct {
	PickupDatetime  *time.Time `json:"pickup_datetime"`
	ReturnDatetime  *time.Time `json:"return_datetime"`
	SpecialRequests *string    `json:"special_requests"`
}

func (h *BookingHandler) Update(c *gin.Context) {
	var req updateBookingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	b, err := h.bookings.UpdateDetails(c.Request.Context(), booking.UpdateCommand{
		BookingID:       types.ID(c.Param("id")),
		PickupTime:      req.PickupDatetime,
		ReturnTime:      req.ReturnDatetime,
		SpecialRequests: req.SpecialRequests,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookingResponse(b))
}

type statusUpdateReq struct {
	Status           string `json:"status"`
	Notes            string `json:"notes"`
	DriverID         string `json:"driver_id"`
	VerificationCode string `json:"verification_code"`
	CancelledBy      string `json:"cancelled_by"`
}

func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	var req statusUpdateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}

	target := booking.Status(req.Status)
	if !target.Valid() || target == booking.StatusPending {
		writeError(c, http.StatusBadRequest, "status must be confirmed, driver_assigned, in_progress, completed, or cancelled")
		return
	}

	// cancellation routes through the cancel command so the reason rules hold
	if target == booking.StatusCancelled {
		by := booking.CancelActor(req.CancelledBy)
		if by == "" {
			by = booking.CancelledByRequester
		}
		b, err := h.bookings.Cancel(c.Request.Context(), booking.CancelCommand{
			BookingID: types.ID(c.Param("id")),
			Reason:    req.Notes,
			By:        by,
		})
		if err != nil {
			writeDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, bookingResponse(b))
		return
	}

	cmd := booking.TransitionCommand{
		BookingID:        types.ID(c.Param("id")),
		To:               target,
		VerificationCode: req.VerificationCode,
		Notes:            req.Notes,
	}
	if req.DriverID != "" {
		id := types.ID(req.DriverID)
		cmd.DriverID = &id
	}
	b, err := h.bookings.UpdateStatus(c.Request.Context(), cmd)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookingResponse(b))
}

type cancelReq struct {
	Reason      string `json:"reason"`
	CancelledBy string `json:"cancelled_by"`
}

func (h *BookingHandler) Cancel(c *gin.Context) {
	var req cancelReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	by := booking.CancelActor(req.CancelledBy)
	if by == "" {
		by = booking.CancelledByRequester
	}
	b, err := h.bookings.Cancel(c.Request.Context(), booking.CancelCommand{
		BookingID: types.ID(c.Param("id")),
		Reason:    req.Reason,
		By:        by,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookingResponse(b))
}

type ratingReq struct {
	Rating   int    `json:"rating"`
	Feedback string `json:"feedback"`
}

func (h *BookingHandler) Rate(c *gin.Context) {
	var req ratingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	b, err := h.bookings.Rate(c.Request.Context(), booking.RateCommand{
		BookingID: types.ID(c.Param("id")),
		Rating:    req.Rating,
		Feedback:  req.Feedback,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookingResponse(b))
}

func (h *BookingHandler) History(c *gin.Context) {
	events, err := h.bookings.History(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events, "count": len(events)})
}

func bookingResponse(b *booking.Booking) gin.H {
	resp := gin.H{
		"id":              b.ID,
		"booking_id":      b.BookingID,
		"requester_id":    b.RequesterID,
		"pickup":          b.Pickup,
		"drop":            b.Drop,
		"pickup_datetime": b.PickupTime,
		"trip_type":       b.TripType,
		"cab_type":        b.CabType,
		"passengers":      b.Passengers,
		"distance_km":     b.DistanceKm,
		"distance_routed": b.DistanceRouted,
		"fare":            b.Fare,
		"payment_method":  b.PaymentMethod,
		"payment_status":  b.PaymentStatus,
		"status":          b.Status,
		"created_at":      b.CreatedAt,
		"updated_at":      b.UpdatedAt,
	}
	if b.ReturnTime != nil {
		resp["return_datetime"] = b.ReturnTime
	}
	if b.DriverID != nil {
		resp["driver_id"] = b.DriverID
	}
	if b.SpecialRequests != "" {
		resp["special_requests"] = b.SpecialRequests
	}
	// present only between driver assignment and trip start; the notification
	// layer relays it to the rider
	if b.VerificationCode != "" {
		resp["verification_code"] = b.VerificationCode
	}
	if b.ConfirmedAt != nil {
		resp["confirmed_at"] = b.ConfirmedAt
	}
	if b.DriverAssignedAt != nil {
		resp["driver_assigned_at"] = b.DriverAssignedAt
	}
	if b.StartedAt != nil {
		resp["started_at"] = b.StartedAt
	}
	if b.CompletedAt != nil {
		resp["completed_at"] = b.CompletedAt
	}
	if b.CancelledAt != nil {
		resp["cancelled_at"] = b.CancelledAt
		resp["cancellation_reason"] = b.CancelReason
		resp["cancelled_by"] = b.CancelledBy
	}
	if b.Rating > 0 {
		resp["rating"] = b.Rating
		resp["feedback"] = b.Feedback
	}
	return resp
}
