package domain

import "time"

// Lot represents a physical parking facility containing multiple spaces.
type Lot struct {
	ID          string
	Name        string
	Location    string
	Capacity    int     // Advisory; real availability is derived from space states.
	BaseRate    float64 // Currency per hour.
	GeoLocation string
	CreatedAt   time.Time
}

// LotAvailability summarizes unoccupied spaces in a lot per vehicle class.
type LotAvailability struct {
	LotID     string
	Available map[VehicleClass]int
}
