package httphandler

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/ericfisherdev/fleetcert/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// FleetResponse is the JSON representation of the fleet dashboard.
type FleetResponse struct {
	Date    string           `json:"date"`
	Health  int              `json:"health"`
	Total   int              `json:"total"`
	Counts  map[string]int   `json:"counts"`
	Alerts  []AlertResponse  `json:"alerts"`
	Vessels []VesselResponse `json:"vessels"`
}

// AlertResponse is an expired or expiring certificate.
type AlertResponse struct {
	VesselID      int64  `json:"vessel_id"`
	Vessel        string `json:"vessel"`
	CertificateID int64  `json:"certificate_id"`
	Certificate   string `json:"certificate"`
	Bucket        string `json:"bucket"`
	Label         string `json:"label"`
	Days          int    `json:"days"`
}

// VesselResponse is a vessel with its annotated certificates.
type VesselResponse struct {
	ID           int64                 `json:"id"`
	Name         string                `json:"name"`
	IMO          string                `json:"imo"`
	Flag         string                `json:"flag"`
	ClassSociety string                `json:"class_society"`
	VesselType   string                `json:"vessel_type"`
	Certificates []CertificateResponse `json:"certificates"`
}

// CertificateResponse is a certificate with its computed status.
type CertificateResponse struct {
	ID                 int64  `json:"id"`
	Name               string `json:"name"`
	Category           string `json:"category"`
	ExpiryDate         string `json:"expiry_date,omitempty"`
	IsConditionOfClass bool   `json:"is_condition_of_class"`
	HasFile            bool   `json:"has_file"`
	Bucket             string `json:"bucket"`
	Label              string `json:"label"`
	Days               int    `json:"days"`
}

// toFleetResponse converts a fleet snapshot to its JSON representation.
// Slices are never null.
func toFleetResponse(status model.FleetStatus, date string) FleetResponse {
	resp := FleetResponse{
		Date:    date,
		Health:  status.Health,
		Total:   status.Total,
		Counts:  make(map[string]int, len(status.Counts)),
		Alerts:  make([]AlertResponse, 0, len(status.Alerts)),
		Vessels: make([]VesselResponse, 0, len(status.Vessels)),
	}

	for b, n := range status.Counts {
		resp.Counts[string(b)] = n
	}

	for _, a := range status.Alerts {
		resp.Alerts = append(resp.Alerts, AlertResponse{
			VesselID:      a.VesselID,
			Vessel:        a.VesselName,
			CertificateID: a.CertificateID,
			Certificate:   a.CertificateName,
			Bucket:        string(a.Bucket),
			Label:         a.Label,
			Days:          a.Days,
		})
	}

	for _, vs := range status.Vessels {
		v := VesselResponse{
			ID:           vs.Vessel.ID,
			Name:         vs.Vessel.Name,
			IMO:          vs.Vessel.IMO,
			Flag:         vs.Vessel.Flag,
			ClassSociety: vs.Vessel.ClassSociety,
			VesselType:   vs.Vessel.VesselType,
			Certificates: make([]CertificateResponse, 0, len(vs.Certificates)),
		}
		for _, ac := range vs.Certificates {
			c := ac.Certificate
			v.Certificates = append(v.Certificates, CertificateResponse{
				ID:                 c.ID,
				Name:               c.Name,
				Category:           c.Category,
				ExpiryDate:         model.FormatDate(c.ExpiryDate),
				IsConditionOfClass: c.IsConditionOfClass,
				HasFile:            c.HasFile(),
				Bucket:             string(ac.Status.Bucket),
				Label:              ac.Status.Label,
				Days:               ac.Status.Days,
			})
		}
		resp.Vessels = append(resp.Vessels, v)
	}

	return resp
}
