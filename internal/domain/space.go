package domain

// VehicleClass represents the class of vehicle a space can hold.
type VehicleClass string

const (
	VehicleClassTwoWheeler  VehicleClass = "2W"
	VehicleClassFourWheeler VehicleClass = "4W"
	VehicleClassEV          VehicleClass = "EV"
)

// SpaceState represents the current state of a parking space.
type SpaceState string

const (
	SpaceStateUnoccupied  SpaceState = "UNOCCUPIED"
	SpaceStateReserved    SpaceState = "RESERVED"
	SpaceStateOccupied    SpaceState = "OCCUPIED"
	SpaceStateMaintenance SpaceState = "MAINTENANCE"
)

// Space represents a single parkable stall in a lot.
type Space struct {
	ID           string
	LotID        string
	VehicleClass VehicleClass
	State        SpaceState
	ExtraCharge  float64 // Added to the lot's hourly base rate for this space.
}
