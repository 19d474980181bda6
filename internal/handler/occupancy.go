package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"parking/internal/domain"
	"parking/internal/service"
)

// OccupancyHandler handles HTTP requests for the occupancy lifecycle.
type OccupancyHandler struct {
	ledgerService       *service.LedgerService
	verificationService *service.VerificationService
}

// NewOccupancyHandler creates a new OccupancyHandler.
func NewOccupancyHandler(ledgerService *service.LedgerService, verificationService *service.VerificationService) *OccupancyHandler {
	return &OccupancyHandler{
		ledgerService:       ledgerService,
		verificationService: verificationService,
	}
}

// OccupancyResponse is the HTTP response for occupancy operations.
type OccupancyResponse struct {
	OccupancyID string `json:"occupancy_id"`
	SpaceID     string `json:"space_id"`
	UserID      string `json:"user_id"`
	VehicleID   string `json:"vehicle_id,omitempty"`
	Status      string `json:"status"`
	EntryTime   string `json:"entry_time,omitempty"`
	ExitTime    string `json:"exit_time,omitempty"`
	CreatedAt   string `json:"created_at"`
}

func toOccupancyResponse(occ *domain.Occupancy) OccupancyResponse {
	response := OccupancyResponse{
		OccupancyID: occ.ID,
		SpaceID:     occ.SpaceID,
		UserID:      occ.UserID,
		VehicleID:   occ.VehicleID,
		Status:      string(occ.Status),
		CreatedAt:   occ.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}

	if !occ.EntryTime.IsZero() {
		response.EntryTime = occ.EntryTime.Format("2006-01-02T15:04:05Z07:00")
	}
	if !occ.ExitTime.IsZero() {
		response.ExitTime = occ.ExitTime.Format("2006-01-02T15:04:05Z07:00")
	}

	return response
}

// ReserveRequest is the HTTP request body for reserving a space.
type ReserveRequest struct {
	SpaceID string `json:"space_id"`
	UserID  string `json:"user_id"`
}

// Reserve handles POST /v1/occupancies/reserve
func (h *OccupancyHandler) Reserve(c *gin.Context) {
	var req ReserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	occ, err := h.ledgerService.Reserve(c.Request.Context(), req.SpaceID, req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toOccupancyResponse(occ))
}

// CheckInRequest is the HTTP request body for check-in.
type CheckInRequest struct {
	VehicleRegistration string `json:"vehicle_registration"`
}

// CheckIn handles POST /v1/occupancies/:id/check-in
func (h *OccupancyHandler) CheckIn(c *gin.Context) {
	occupancyID := c.Param("id")

	var req CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	occ, err := h.ledgerService.CheckIn(c.Request.Context(), service.CheckInRequest{
		OccupancyID:  occupancyID,
		Registration: req.VehicleRegistration,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toOccupancyResponse(occ))
}

// CheckOutResponse is the HTTP response for a checkout, combining the
// completed occupancy with its bill.
type CheckOutResponse struct {
	Occupancy OccupancyResponse `json:"occupancy"`
	Bill      BillResponse      `json:"bill"`
}

// CheckOut handles POST /v1/occupancies/:id/check-out
func (h *OccupancyHandler) CheckOut(c *gin.Context) {
	occupancyID := c.Param("id")

	result, err := h.ledgerService.CheckOut(c.Request.Context(), occupancyID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, CheckOutResponse{
		Occupancy: toOccupancyResponse(result.Occupancy),
		Bill:      toBillResponse(result.Bill),
	})
}

// Cancel handles POST /v1/occupancies/:id/cancel
func (h *OccupancyHandler) Cancel(c *gin.Context) {
	occupancyID := c.Param("id")

	occ, err := h.ledgerService.Cancel(c.Request.Context(), occupancyID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toOccupancyResponse(occ))
}

// VerificationRequest is the HTTP request body for recording an exit check.
type VerificationRequest struct {
	Check string `json:"check"`
	Value bool   `json:"value"`
}

// VerificationResponse reports whether the exit checklist is complete.
type VerificationResponse struct {
	OccupancyID string `json:"occupancy_id"`
	Check       string `json:"check"`
	Value       bool   `json:"value"`
	Complete    bool   `json:"complete"`
}

// RecordVerification handles PUT /v1/occupancies/:id/verification
func (h *OccupancyHandler) RecordVerification(c *gin.Context) {
	occupancyID := c.Param("id")

	var req VerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	complete, err := h.verificationService.RecordCheck(c.Request.Context(), occupancyID, req.Check, req.Value)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, VerificationResponse{
		OccupancyID: occupancyID,
		Check:       req.Check,
		Value:       req.Value,
		Complete:    complete,
	})
}

// Get handles GET /v1/occupancies/:id
func (h *OccupancyHandler) Get(c *gin.Context) {
	occupancyID := c.Param("id")

	occ, err := h.ledgerService.GetOccupancy(c.Request.Context(), occupancyID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toOccupancyResponse(occ))
}

// GetActive handles GET /v1/occupancies/active
func (h *OccupancyHandler) GetActive(c *gin.Context) {
	lotID := c.Query("lot_id")

	occupancies, err := h.ledgerService.GetActive(c.Request.Context(), lotID)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]OccupancyResponse, 0, len(occupancies))
	for _, occ := range occupancies {
		response = append(response, toOccupancyResponse(occ))
	}

	respondJSON(c, http.StatusOK, response)
}

// History handles GET /v1/occupancies/history
func (h *OccupancyHandler) History(c *gin.Context) {
	occupancies, err := h.ledgerService.History(c.Request.Context(), service.HistoryRequest{
		UserID:    c.Query("user_id"),
		VehicleID: c.Query("vehicle_id"),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]OccupancyResponse, 0, len(occupancies))
	for _, occ := range occupancies {
		response = append(response, toOccupancyResponse(occ))
	}

	respondJSON(c, http.StatusOK, response)
}
