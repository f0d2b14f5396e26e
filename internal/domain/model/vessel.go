package model

import "time"

// Vessel is a ship in the fleet. IMO is unique across the fleet.
type Vessel struct {
	ID           int64
	Name         string
	IMO          string
	Flag         string
	ClassSociety string
	VesselType   string
	CreatedAt    time.Time
}
