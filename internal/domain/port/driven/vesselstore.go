package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/fleetcert/internal/domain/model"
)

// Sentinel errors returned by VesselStore implementations.
var (
	// ErrVesselNotFound indicates the requested vessel does not exist.
	ErrVesselNotFound = errors.New("vessel not found")

	// ErrVesselIMOTaken indicates another vessel is registered with the IMO number.
	ErrVesselIMOTaken = errors.New("vessel IMO already registered")
)

// VesselStore defines the driven port for vessel persistence.
type VesselStore interface {
	Add(ctx context.Context, vessel model.Vessel) (model.Vessel, error)
	GetByID(ctx context.Context, id int64) (*model.Vessel, error)
	ListAll(ctx context.Context) ([]model.Vessel, error)
	// Search returns vessels whose name, IMO, or class society contains term,
	// ignoring case. An empty term matches every vessel.
	Search(ctx context.Context, term string) ([]model.Vessel, error)
	// Delete removes the vessel and all of its certificates in one
	// transaction.
	Delete(ctx context.Context, id int64) error
}
