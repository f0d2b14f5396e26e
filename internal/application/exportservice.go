package application

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/ericfisherdev/fleetcert/internal/authz"
	"github.com/ericfisherdev/fleetcert/internal/domain/model"
	"github.com/ericfisherdev/fleetcert/internal/domain/port/driven"
)

// FleetExport is a prepared fleet status export.
type FleetExport struct {
	Date time.Time
	Rows []model.ExportRow
}

// Filename returns the download name, fleet_status_<YYYY-MM-DD>.xlsx.
func (e FleetExport) Filename() string {
	return fmt.Sprintf("fleet_status_%s.xlsx", e.Date.Format(model.DateLayout))
}

// ExportService produces the fleet status spreadsheet.
type ExportService struct {
	fleet  *FleetService
	writer driven.SpreadsheetWriter
	audit  *AuditService
	authz  Authorizer
}

// NewExportService creates an ExportService.
func NewExportService(fleet *FleetService, w driven.SpreadsheetWriter, audit *AuditService, a Authorizer) *ExportService {
	return &ExportService{fleet: fleet, writer: w, audit: audit, authz: a}
}

// Prepare snapshots the fleet and builds one row per certificate, in
// dashboard order. Status labels are computed against the export date.
func (s *ExportService) Prepare(ctx context.Context, id model.Identity) (FleetExport, error) {
	if err := authorize(s.authz, id, authz.ObjExport, authz.ActRead); err != nil {
		return FleetExport{}, err
	}

	status, err := s.fleet.Snapshot(ctx)
	if err != nil {
		return FleetExport{}, err
	}

	export := FleetExport{Date: s.fleet.Today()}
	for _, vs := range status.Vessels {
		for _, ac := range vs.Certificates {
			export.Rows = append(export.Rows, model.ExportRow{
				Vessel:             vs.Vessel.Name,
				IMO:                vs.Vessel.IMO,
				Flag:               vs.Vessel.Flag,
				ClassSociety:       vs.Vessel.ClassSociety,
				VesselType:         vs.Vessel.VesselType,
				Certificate:        ac.Certificate.Name,
				Category:           ac.Certificate.Category,
				IsConditionOfClass: ac.Certificate.IsConditionOfClass,
				ExpiryDate:         ac.Certificate.ExpiryDate,
				Status:             model.ComputeStatus(ac.Certificate.ExpiryDate, export.Date),
			})
		}
	}
	return export, nil
}

// Write serializes a prepared export to w.
func (s *ExportService) Write(ctx context.Context, id model.Identity, w io.Writer, export FleetExport) error {
	if err := s.writer.WriteFleetStatus(ctx, w, export.Rows); err != nil {
		return fmt.Errorf("write fleet export: %w", err)
	}
	s.audit.Record(ctx, id.Username, fmt.Sprintf("Exported fleet status (%d rows)", len(export.Rows)))
	return nil
}
