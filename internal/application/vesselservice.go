package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ericfisherdev/fleetcert/internal/authz"
	"github.com/ericfisherdev/fleetcert/internal/domain/model"
	"github.com/ericfisherdev/fleetcert/internal/domain/port/driven"
)

// NewVesselInput is the admin form for registering a vessel.
type NewVesselInput struct {
	Name         string `label:"Name" validate:"required,max=200"`
	IMO          string `label:"IMO" validate:"required,max=32"`
	Flag         string `label:"Flag" validate:"max=100"`
	ClassSociety string `label:"Class society" validate:"max=100"`
	VesselType   string `label:"Vessel type" validate:"max=100"`
}

// VesselService registers and removes vessels.
type VesselService struct {
	vessels driven.VesselStore
	certs   driven.CertificateStore
	files   driven.FileStore
	audit   *AuditService
	authz   Authorizer
	logger  *slog.Logger
}

// NewVesselService creates a VesselService.
func NewVesselService(
	vessels driven.VesselStore,
	certs driven.CertificateStore,
	files driven.FileStore,
	audit *AuditService,
	a Authorizer,
) *VesselService {
	return &VesselService{
		vessels: vessels,
		certs:   certs,
		files:   files,
		audit:   audit,
		authz:   a,
		logger:  slog.Default(),
	}
}

// List returns every vessel ordered by name.
func (s *VesselService) List(ctx context.Context, id model.Identity) ([]model.Vessel, error) {
	if err := authorize(s.authz, id, authz.ObjFleet, authz.ActRead); err != nil {
		return nil, err
	}
	return s.vessels.ListAll(ctx)
}

// Add registers a vessel. The IMO number must be unique.
func (s *VesselService) Add(ctx context.Context, id model.Identity, in NewVesselInput) (model.Vessel, error) {
	if err := authorize(s.authz, id, authz.ObjVessels, authz.ActWrite); err != nil {
		return model.Vessel{}, err
	}

	in.Name = strings.TrimSpace(in.Name)
	in.IMO = strings.TrimSpace(in.IMO)
	in.Flag = strings.TrimSpace(in.Flag)
	in.ClassSociety = strings.TrimSpace(in.ClassSociety)
	in.VesselType = strings.TrimSpace(in.VesselType)
	if err := validateInput(in); err != nil {
		return model.Vessel{}, err
	}

	v, err := s.vessels.Add(ctx, model.Vessel{
		Name:         in.Name,
		IMO:          in.IMO,
		Flag:         in.Flag,
		ClassSociety: in.ClassSociety,
		VesselType:   in.VesselType,
	})
	if errors.Is(err, driven.ErrVesselIMOTaken) {
		return model.Vessel{}, invalid("IMO", fmt.Sprintf("A vessel with IMO %s already exists", in.IMO))
	}
	if err != nil {
		return model.Vessel{}, fmt.Errorf("add vessel %s: %w", in.Name, err)
	}

	s.audit.Record(ctx, id.Username, fmt.Sprintf("Added vessel %s (%s)", v.Name, v.IMO))
	return v, nil
}

// Delete removes a vessel together with its certificates in one store
// transaction, then removes their uploaded files.
func (s *VesselService) Delete(ctx context.Context, id model.Identity, vesselID int64) error {
	if err := authorize(s.authz, id, authz.ObjVessels, authz.ActWrite); err != nil {
		return err
	}

	v, err := s.vessels.GetByID(ctx, vesselID)
	if err != nil {
		return fmt.Errorf("load vessel %d: %w", vesselID, err)
	}
	if v == nil {
		return driven.ErrVesselNotFound
	}

	certs, err := s.certs.ListByVessel(ctx, vesselID)
	if err != nil {
		return fmt.Errorf("list certificates of vessel %d: %w", vesselID, err)
	}

	if err := s.vessels.Delete(ctx, vesselID); err != nil {
		return fmt.Errorf("delete vessel %s: %w", v.Name, err)
	}

	for _, c := range certs {
		if !c.HasFile() {
			continue
		}
		if err := s.files.Delete(ctx, c.FilePath); err != nil {
			s.logger.Warn("failed to remove certificate file", "file", c.FilePath, "error", err)
		}
	}

	s.audit.Record(ctx, id.Username, fmt.Sprintf("Deleted vessel %s with %d certificate(s)", v.Name, len(certs)))
	return nil
}
