package handler

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"parking/internal/domain"
	"parking/internal/service"
)

// BillingHandler handles HTTP requests for bills.
type BillingHandler struct {
	billingService *service.BillingService
}

// NewBillingHandler creates a new BillingHandler.
func NewBillingHandler(billingService *service.BillingService) *BillingHandler {
	return &BillingHandler{billingService: billingService}
}

// BillResponse is the HTTP response for bill data.
type BillResponse struct {
	BillID        string  `json:"bill_id"`
	OccupancyID   string  `json:"occupancy_id"`
	Amount        float64 `json:"amount"`
	PaymentStatus string  `json:"payment_status"`
	NeedsReview   bool    `json:"needs_review,omitempty"`
	CreatedAt     string  `json:"created_at"`
	PaymentTime   string  `json:"payment_time,omitempty"`
}

func toBillResponse(bill *domain.Bill) BillResponse {
	response := BillResponse{
		BillID:        bill.ID,
		OccupancyID:   bill.OccupancyID,
		Amount:        bill.Amount,
		PaymentStatus: string(bill.Status),
		NeedsReview:   bill.NeedsReview,
		CreatedAt:     bill.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}

	if !bill.PaymentTime.IsZero() {
		response.PaymentTime = bill.PaymentTime.Format("2006-01-02T15:04:05Z07:00")
	}

	return response
}

// PayRequest is the HTTP request body for paying a bill. PaymentTime is
// optional and defaults to now.
type PayRequest struct {
	PaymentTime string `json:"payment_time"`
}

// Pay handles POST /v1/bills/:id/pay
func (h *BillingHandler) Pay(c *gin.Context) {
	billID := c.Param("id")

	// The body is optional; an absent body means pay now.
	var req PayRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	var paymentTime time.Time
	if req.PaymentTime != "" {
		parsed, err := time.Parse(time.RFC3339, req.PaymentTime)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid payment_time, expected RFC3339"})
			return
		}
		paymentTime = parsed
	}

	bill, err := h.billingService.PayBill(c.Request.Context(), billID, paymentTime)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toBillResponse(bill))
}

// Get handles GET /v1/bills/:id
func (h *BillingHandler) Get(c *gin.Context) {
	billID := c.Param("id")

	bill, err := h.billingService.GetBill(c.Request.Context(), billID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toBillResponse(bill))
}
