package application

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/ericfisherdev/fleetcert/internal/authz"
	"github.com/ericfisherdev/fleetcert/internal/domain/model"
	"github.com/ericfisherdev/fleetcert/internal/domain/port/driven"
)

// AggregateFleet annotates every certificate with its status on today and
// summarizes the fleet. Vessels are ordered by name then id, and each
// vessel's certificates by expiry date (undated last) then id, so alerts come
// out in a deterministic order. Certificates whose vessel is not in vessels
// are ignored.
func AggregateFleet(vessels []model.Vessel, certs []model.Certificate, today time.Time) model.FleetStatus {
	ordered := make([]model.Vessel, len(vessels))
	copy(ordered, vessels)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Name != ordered[j].Name {
			return ordered[i].Name < ordered[j].Name
		}
		return ordered[i].ID < ordered[j].ID
	})

	byVessel := make(map[int64][]model.Certificate, len(ordered))
	for _, c := range certs {
		byVessel[c.VesselID] = append(byVessel[c.VesselID], c)
	}

	status := model.FleetStatus{
		Vessels: make([]model.VesselStatus, 0, len(ordered)),
		Counts:  make(map[model.Bucket]int, len(model.Buckets)),
	}
	for _, b := range model.Buckets {
		status.Counts[b] = 0
	}

	for _, v := range ordered {
		vc := byVessel[v.ID]
		sortCertificates(vc)

		vs := model.VesselStatus{
			Vessel:       v,
			Certificates: make([]model.AnnotatedCertificate, 0, len(vc)),
		}
		for _, c := range vc {
			st := model.ComputeStatus(c.ExpiryDate, today)
			vs.Certificates = append(vs.Certificates, model.AnnotatedCertificate{Certificate: c, Status: st})
			status.Counts[st.Bucket]++
			status.Total++

			if st.Bucket.IsAlert() {
				status.Alerts = append(status.Alerts, model.Alert{
					VesselID:        v.ID,
					VesselName:      v.Name,
					CertificateID:   c.ID,
					CertificateName: c.Name,
					Bucket:          st.Bucket,
					Label:           st.Label,
					Days:            st.Days,
				})
			}
		}
		status.Vessels = append(status.Vessels, vs)
	}

	status.Health = FleetHealth(status.Counts[model.BucketValid], status.Total)
	return status
}

// FleetHealth returns the percentage of valid certificates rounded half to
// even, or 100 for an empty fleet.
func FleetHealth(valid, total int) int {
	if total == 0 {
		return 100
	}
	return int(math.RoundToEven(100 * float64(valid) / float64(total)))
}

func sortCertificates(certs []model.Certificate) {
	sort.SliceStable(certs, func(i, j int) bool {
		a, b := certs[i].ExpiryDate, certs[j].ExpiryDate
		switch {
		case a == nil && b == nil:
			return certs[i].ID < certs[j].ID
		case a == nil:
			return false
		case b == nil:
			return true
		case !a.Equal(*b):
			return a.Before(*b)
		default:
			return certs[i].ID < certs[j].ID
		}
	})
}

// FleetService builds the dashboard view.
type FleetService struct {
	vessels driven.VesselStore
	certs   driven.CertificateStore
	authz   Authorizer
	clock   Clock
}

// NewFleetService creates a FleetService.
func NewFleetService(vessels driven.VesselStore, certs driven.CertificateStore, a Authorizer, clock Clock) *FleetService {
	return &FleetService{vessels: vessels, certs: certs, authz: a, clock: clock}
}

// Dashboard computes the fleet status for today. A non-empty search narrows
// the listed vessels to those whose name, IMO or class society contains the
// term; alerts, health and counts always cover the whole fleet.
func (s *FleetService) Dashboard(ctx context.Context, id model.Identity, search string) (model.FleetStatus, error) {
	if err := authorize(s.authz, id, authz.ObjFleet, authz.ActRead); err != nil {
		return model.FleetStatus{}, err
	}

	status, err := s.Snapshot(ctx)
	if err != nil {
		return model.FleetStatus{}, err
	}

	search = strings.TrimSpace(search)
	if search == "" {
		return status, nil
	}

	matched, err := s.vessels.Search(ctx, search)
	if err != nil {
		return model.FleetStatus{}, fmt.Errorf("search vessels %q: %w", search, err)
	}
	keep := make(map[int64]bool, len(matched))
	for _, v := range matched {
		keep[v.ID] = true
	}

	filtered := make([]model.VesselStatus, 0, len(matched))
	for _, vs := range status.Vessels {
		if keep[vs.Vessel.ID] {
			filtered = append(filtered, vs)
		}
	}
	status.Vessels = filtered
	return status, nil
}

// Snapshot loads every vessel and certificate and aggregates them for today.
// It performs no authorization and is used by background jobs.
func (s *FleetService) Snapshot(ctx context.Context) (model.FleetStatus, error) {
	vessels, err := s.vessels.ListAll(ctx)
	if err != nil {
		return model.FleetStatus{}, fmt.Errorf("list vessels: %w", err)
	}
	certs, err := s.certs.ListAll(ctx)
	if err != nil {
		return model.FleetStatus{}, fmt.Errorf("list certificates: %w", err)
	}
	return AggregateFleet(vessels, certs, s.clock.Now()), nil
}

// Today reports the date statuses are computed against.
func (s *FleetService) Today() time.Time {
	return s.clock.Now()
}
