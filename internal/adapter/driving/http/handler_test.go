package httphandler_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httphandler "github.com/ericfisherdev/fleetcert/internal/adapter/driving/http"
	"github.com/ericfisherdev/fleetcert/internal/application"
	"github.com/ericfisherdev/fleetcert/internal/domain/model"
)

// --- Mock implementations ---

type mockAuth struct {
	id  *model.Identity
	err error
}

func (m *mockAuth) Authenticate(_ *http.Request) (*model.Identity, error) {
	return m.id, m.err
}

type mockFleet struct {
	status     model.FleetStatus
	err        error
	lastSearch string
}

func (m *mockFleet) Dashboard(_ context.Context, _ model.Identity, search string) (model.FleetStatus, error) {
	m.lastSearch = search
	return m.status, m.err
}

func (m *mockFleet) Today() time.Time {
	return time.Date(2026, 6, 15, 9, 0, 0, 0, time.UTC)
}

type recordingObserver struct {
	method, route string
	status        int
}

func (r *recordingObserver) ObserveRequest(method, route string, status int, _ time.Duration) {
	r.method, r.route, r.status = method, route, status
}

func setupMux(auth *mockAuth, fleet *mockFleet, obs httphandler.RequestObserver) http.Handler {
	mux := http.NewServeMux()
	h := httphandler.NewHandler(auth, fleet, slog.Default())
	httphandler.RegisterAPIRoutes(mux, h)
	mux.HandleFunc("GET /boom", func(http.ResponseWriter, *http.Request) { panic("kaboom") })
	mux.HandleFunc("GET /api/v1/boom", func(http.ResponseWriter, *http.Request) { panic("kaboom") })
	return httphandler.ApplyMiddleware(mux, slog.Default(), obs)
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v))
}

func TestHealth(t *testing.T) {
	handler := setupMux(&mockAuth{}, &mockFleet{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))

	var resp httphandler.HealthResponse
	decodeJSON(t, rec, &resp)
	assert.Equal(t, "ok", resp.Status)
	_, err := time.Parse(time.RFC3339, resp.Time)
	assert.NoError(t, err)
}

func TestFleet(t *testing.T) {
	expiry := time.Date(2026, 6, 25, 0, 0, 0, 0, time.UTC)
	status := model.FleetStatus{
		Health: 0,
		Total:  1,
		Counts: map[model.Bucket]int{model.BucketExpiring: 1},
		Alerts: []model.Alert{{
			VesselID: 1, VesselName: "MV Test", CertificateID: 7, CertificateName: "Safety Cert",
			Bucket: model.BucketExpiring, Label: "Expiring (10d)", Days: 10,
		}},
		Vessels: []model.VesselStatus{{
			Vessel: model.Vessel{ID: 1, Name: "MV Test", IMO: "IMO1234567"},
			Certificates: []model.AnnotatedCertificate{{
				Certificate: model.Certificate{ID: 7, VesselID: 1, Name: "Safety Cert", ExpiryDate: &expiry, FilePath: "1_s.pdf"},
				Status:      model.CertificateStatus{Bucket: model.BucketExpiring, Label: "Expiring (10d)", Days: 10},
			}},
		}},
	}

	tests := []struct {
		name       string
		auth       *mockAuth
		fleet      *mockFleet
		wantStatus int
	}{
		{"signed in", &mockAuth{id: &model.Identity{UserID: 2, Username: "viewer", Role: model.RoleViewer}}, &mockFleet{status: status}, http.StatusOK},
		{"anonymous", &mockAuth{}, &mockFleet{status: status}, http.StatusUnauthorized},
		{"session error", &mockAuth{err: errors.New("bad token store")}, &mockFleet{}, http.StatusInternalServerError},
		{"forbidden role", &mockAuth{id: &model.Identity{Role: "guest"}}, &mockFleet{err: application.ErrForbidden}, http.StatusForbidden},
		{"store failure", &mockAuth{id: &model.Identity{Role: model.RoleViewer}}, &mockFleet{err: errors.New("disk")}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := setupMux(tt.auth, tt.fleet, nil)
			req := httptest.NewRequest(http.MethodGet, "/api/v1/fleet?search=test", nil)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus != http.StatusOK {
				var errResp map[string]string
				decodeJSON(t, rec, &errResp)
				assert.NotEmpty(t, errResp["error"])
				return
			}

			assert.Equal(t, "test", tt.fleet.lastSearch)
			var resp httphandler.FleetResponse
			decodeJSON(t, rec, &resp)
			assert.Equal(t, "2026-06-15", resp.Date)
			assert.Equal(t, 1, resp.Counts["expiring"])
			require.Len(t, resp.Alerts, 1)
			assert.Equal(t, "Expiring (10d)", resp.Alerts[0].Label)
			require.Len(t, resp.Vessels, 1)
			require.Len(t, resp.Vessels[0].Certificates, 1)
			cert := resp.Vessels[0].Certificates[0]
			assert.Equal(t, "2026-06-25", cert.ExpiryDate)
			assert.True(t, cert.HasFile)
			assert.Equal(t, "expiring", cert.Bucket)
		})
	}
}

func TestFleet_EmptySlicesNotNull(t *testing.T) {
	handler := setupMux(&mockAuth{id: &model.Identity{Role: model.RoleViewer}}, &mockFleet{}, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/fleet", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"alerts":[]`)
	assert.Contains(t, rec.Body.String(), `"vessels":[]`)
}

func TestMiddleware_RequestID(t *testing.T) {
	handler := setupMux(&mockAuth{}, &mockFleet{}, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	generated := rec.Header().Get(httphandler.RequestIDHeader)
	assert.Len(t, generated, 36)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set(httphandler.RequestIDHeader, "upstream-123")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "upstream-123", rec.Header().Get(httphandler.RequestIDHeader))
}

func TestMiddleware_Recovery(t *testing.T) {
	handler := setupMux(&mockAuth{}, &mockFleet{}, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal server error")
	assert.NotContains(t, rec.Body.String(), "kaboom")
}

func TestMiddleware_ObservesRoutePattern(t *testing.T) {
	obs := &recordingObserver{}
	handler := setupMux(&mockAuth{}, &mockFleet{}, obs)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/fleet?search=x", nil))

	assert.Equal(t, http.MethodGet, obs.method)
	assert.Equal(t, "GET /api/v1/fleet", obs.route)
	assert.Equal(t, http.StatusUnauthorized, obs.status)
}
