package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"parking/internal/domain"
	"parking/internal/service"
)

// LotHandler handles HTTP requests for parking lots.
type LotHandler struct {
	lotService      *service.LotService
	registryService *service.RegistryService
}

// NewLotHandler creates a new LotHandler.
func NewLotHandler(lotService *service.LotService, registryService *service.RegistryService) *LotHandler {
	return &LotHandler{
		lotService:      lotService,
		registryService: registryService,
	}
}

// LotResponse is the HTTP response for lot data.
type LotResponse struct {
	LotID       string  `json:"lot_id"`
	Name        string  `json:"name"`
	Location    string  `json:"location"`
	Capacity    int     `json:"capacity"`
	BaseRate    float64 `json:"base_rate"`
	GeoLocation string  `json:"geo_location,omitempty"`
}

func toLotResponse(lot *domain.Lot) LotResponse {
	return LotResponse{
		LotID:       lot.ID,
		Name:        lot.Name,
		Location:    lot.Location,
		Capacity:    lot.Capacity,
		BaseRate:    lot.BaseRate,
		GeoLocation: lot.GeoLocation,
	}
}

// CreateLotRequest is the HTTP request body for creating a lot.
type CreateLotRequest struct {
	Name        string  `json:"name"`
	Location    string  `json:"location"`
	Capacity    int     `json:"capacity"`
	BaseRate    float64 `json:"base_rate"`
	GeoLocation string  `json:"geo_location"`
	Role        string  `json:"role"`
}

// Create handles POST /v1/lots
func (h *LotHandler) Create(c *gin.Context) {
	var req CreateLotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	lot, err := h.lotService.CreateLot(c.Request.Context(), service.CreateLotRequest{
		Name:        req.Name,
		Location:    req.Location,
		Capacity:    req.Capacity,
		BaseRate:    req.BaseRate,
		GeoLocation: req.GeoLocation,
	}, domain.UserRole(req.Role))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toLotResponse(lot))
}

// Get handles GET /v1/lots/:id
func (h *LotHandler) Get(c *gin.Context) {
	lotID := c.Param("id")

	lot, err := h.lotService.GetLot(c.Request.Context(), lotID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toLotResponse(lot))
}

// GetAll handles GET /v1/lots
func (h *LotHandler) GetAll(c *gin.Context) {
	lots, err := h.lotService.ListLots(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]LotResponse, 0, len(lots))
	for _, lot := range lots {
		response = append(response, toLotResponse(lot))
	}

	respondJSON(c, http.StatusOK, response)
}

// UpdateLotRequest is the HTTP request body for updating a lot. Absent
// fields are left unchanged.
type UpdateLotRequest struct {
	Name     *string  `json:"name"`
	Location *string  `json:"location"`
	Capacity *int     `json:"capacity"`
	BaseRate *float64 `json:"base_rate"`
	Role     string   `json:"role"`
}

// Update handles PUT /v1/lots/:id
func (h *LotHandler) Update(c *gin.Context) {
	lotID := c.Param("id")

	var req UpdateLotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	lot, err := h.lotService.UpdateLot(c.Request.Context(), lotID, service.UpdateLotRequest{
		Name:     req.Name,
		Location: req.Location,
		Capacity: req.Capacity,
		BaseRate: req.BaseRate,
	}, domain.UserRole(req.Role))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toLotResponse(lot))
}

// AvailabilityResponse reports unoccupied spaces per vehicle class.
type AvailabilityResponse struct {
	LotID     string         `json:"lot_id"`
	Available map[string]int `json:"available"`
}

// Availability handles GET /v1/lots/:id/availability
func (h *LotHandler) Availability(c *gin.Context) {
	lotID := c.Param("id")

	availability, err := h.registryService.Availability(c.Request.Context(), lotID)
	if err != nil {
		respondError(c, err)
		return
	}

	counts := make(map[string]int, len(availability.Available))
	for class, n := range availability.Available {
		counts[string(class)] = n
	}

	respondJSON(c, http.StatusOK, AvailabilityResponse{
		LotID:     availability.LotID,
		Available: counts,
	})
}
