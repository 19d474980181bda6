package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"parking/internal/domain"
	"parking/internal/service"
)

// SpaceHandler handles HTTP requests for parking spaces.
type SpaceHandler struct {
	registryService  *service.RegistryService
	allocatorService *service.AllocatorService
	ledgerService    *service.LedgerService
}

// NewSpaceHandler creates a new SpaceHandler.
func NewSpaceHandler(registryService *service.RegistryService, allocatorService *service.AllocatorService, ledgerService *service.LedgerService) *SpaceHandler {
	return &SpaceHandler{
		registryService:  registryService,
		allocatorService: allocatorService,
		ledgerService:    ledgerService,
	}
}

// SpaceResponse is the HTTP response for space data.
type SpaceResponse struct {
	SpaceID      string  `json:"space_id"`
	LotID        string  `json:"lot_id"`
	VehicleClass string  `json:"vehicle_class"`
	State        string  `json:"state"`
	ExtraCharge  float64 `json:"extra_charge"`
}

func toSpaceResponse(space *domain.Space) SpaceResponse {
	return SpaceResponse{
		SpaceID:      space.ID,
		LotID:        space.LotID,
		VehicleClass: string(space.VehicleClass),
		State:        string(space.State),
		ExtraCharge:  space.ExtraCharge,
	}
}

// ListAvailable handles GET /v1/spaces
func (h *SpaceHandler) ListAvailable(c *gin.Context) {
	lotID := c.Query("lot_id")
	class := domain.VehicleClass(c.Query("vehicle_class"))

	spaces, err := h.registryService.ListAvailable(c.Request.Context(), lotID, class)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]SpaceResponse, 0, len(spaces))
	for _, space := range spaces {
		response = append(response, toSpaceResponse(space))
	}

	respondJSON(c, http.StatusOK, response)
}

// AllocateRequest is the HTTP request body for automatic allocation.
type AllocateRequest struct {
	VehicleClass string `json:"vehicle_class"`
	LotID        string `json:"lot_id"`
	UserID       string `json:"user_id"`
}

// AllocateResponse combines the allocated space with its reservation.
type AllocateResponse struct {
	Space     SpaceResponse     `json:"space"`
	Occupancy OccupancyResponse `json:"occupancy"`
}

// Allocate handles POST /v1/spaces/allocate
func (h *SpaceHandler) Allocate(c *gin.Context) {
	var req AllocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	space, err := h.allocatorService.Allocate(c.Request.Context(), service.AllocateRequest{
		VehicleClass: domain.VehicleClass(req.VehicleClass),
		LotID:        req.LotID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	occ, err := h.ledgerService.ReserveAllocated(c.Request.Context(), space, req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, AllocateResponse{
		Space:     toSpaceResponse(space),
		Occupancy: toOccupancyResponse(occ),
	})
}

// CreateSpaceRequest is the HTTP request body for creating a space.
type CreateSpaceRequest struct {
	LotID        string  `json:"lot_id"`
	VehicleClass string  `json:"vehicle_class"`
	ExtraCharge  float64 `json:"extra_charge"`
	Role         string  `json:"role"`
}

// Create handles POST /v1/spaces
func (h *SpaceHandler) Create(c *gin.Context) {
	var req CreateSpaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	space, err := h.registryService.CreateSpace(c.Request.Context(),
		req.LotID, domain.VehicleClass(req.VehicleClass), req.ExtraCharge,
		domain.UserRole(req.Role))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toSpaceResponse(space))
}

// MaintenanceRequest is the HTTP request body for toggling maintenance.
type MaintenanceRequest struct {
	Enabled bool   `json:"enabled"`
	Role    string `json:"role"`
}

// SetMaintenance handles POST /v1/spaces/:id/maintenance
func (h *SpaceHandler) SetMaintenance(c *gin.Context) {
	spaceID := c.Param("id")

	var req MaintenanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	role := domain.UserRole(req.Role)

	var err error
	if req.Enabled {
		err = h.registryService.MarkMaintenance(c.Request.Context(), spaceID, role)
	} else {
		err = h.registryService.ClearMaintenance(c.Request.Context(), spaceID, role)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	state := domain.SpaceStateMaintenance
	if !req.Enabled {
		state = domain.SpaceStateUnoccupied
	}

	respondJSON(c, http.StatusOK, gin.H{
		"space_id": spaceID,
		"state":    string(state),
	})
}
