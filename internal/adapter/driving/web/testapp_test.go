package web

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ericfisherdev/fleetcert/internal/adapter/driven/filestore"
	"github.com/ericfisherdev/fleetcert/internal/adapter/driven/spreadsheet"
	"github.com/ericfisherdev/fleetcert/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/fleetcert/internal/application"
	"github.com/ericfisherdev/fleetcert/internal/authz"
	"github.com/ericfisherdev/fleetcert/internal/domain/model"
)

const (
	testCSRF          = "test-csrf-token"
	testSecret        = "0123456789abcdef0123456789abcdef"
	testAdminPassword = "admin-password"
	testViewerPass    = "viewer-password"
)

var testToday = time.Date(2026, 6, 15, 9, 0, 0, 0, time.UTC)

// countingLogins records login outcomes.
type countingLogins struct {
	mu     sync.Mutex
	counts map[string]int
}

func (c *countingLogins) ObserveLogin(result string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts == nil {
		c.counts = make(map[string]int)
	}
	c.counts[result]++
}

func (c *countingLogins) count(result string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[result]
}

// testApp wires the GUI to a real SQLite file and a temp upload directory.
type testApp struct {
	handler  http.Handler
	svc      Services
	sessions *Sessions
	logins   *countingLogins
	audit    *sqlite.AuditRepo
	admin    model.Identity
	viewer   model.Identity
}

func newTestApp(t *testing.T) *testApp {
	return newTestAppWithOptions(t, Options{MaxUploadBytes: 10 << 20, LoginRateLimit: 100})
}

func newTestAppWithOptions(t *testing.T, opts Options) *testApp {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.NewDB(ctx, filepath.Join(t.TempDir(), "fleet.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, sqlite.RunMigrations(db.Writer))

	files, err := filestore.NewLocal(t.TempDir())
	require.NoError(t, err)

	enforcer, err := authz.NewEnforcer()
	require.NoError(t, err)

	clock := application.FixedClock(testToday)
	userRepo := sqlite.NewUserRepo(db)
	vesselRepo := sqlite.NewVesselRepo(db)
	certRepo := sqlite.NewCertificateRepo(db)
	auditRepo := sqlite.NewAuditRepo(db)

	audit := application.NewAuditService(auditRepo, enforcer, clock, 50)
	auth, err := application.NewAuthService(userRepo, audit, bcrypt.MinCost)
	require.NoError(t, err)
	fleet := application.NewFleetService(vesselRepo, certRepo, enforcer, clock)

	svc := Services{
		Auth:         auth,
		Fleet:        fleet,
		Vessels:      application.NewVesselService(vesselRepo, certRepo, files, audit, enforcer),
		Certificates: application.NewCertificateService(vesselRepo, certRepo, files, audit, enforcer),
		Users:        application.NewUserService(userRepo, auth, audit, enforcer),
		Audit:        audit,
		Export:       application.NewExportService(fleet, spreadsheet.NewExcelWriter(), audit, enforcer),
		Maintenance:  application.NewMaintenanceService(sqlite.NewDatabaseRepo(db, t.TempDir()), audit, enforcer, clock),
	}

	_, err = auth.EnsureDefaultAdmin(ctx, "admin", testAdminPassword)
	require.NoError(t, err)
	admin, err := auth.Login(ctx, "admin", testAdminPassword)
	require.NoError(t, err)

	_, err = svc.Users.Add(ctx, admin, application.NewUserInput{
		Username: "viewer", Password: testViewerPass, Role: string(model.RoleViewer),
	})
	require.NoError(t, err)
	viewer, err := auth.Login(ctx, "viewer", testViewerPass)
	require.NoError(t, err)

	sessions := NewSessions([]byte(testSecret), time.Hour, false, auth)
	logins := &countingLogins{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	mux := http.NewServeMux()
	RegisterRoutes(mux, NewHandler(svc, sessions, enforcer, logins, opts, logger))

	return &testApp{
		handler:  mux,
		svc:      svc,
		sessions: sessions,
		logins:   logins,
		audit:    auditRepo,
		admin:    admin,
		viewer:   viewer,
	}
}

// sessionCookie issues a session for id and returns its cookie.
func (a *testApp) sessionCookie(t *testing.T, id model.Identity) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	require.NoError(t, a.sessions.Issue(rec, id))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

// serve sends req with the CSRF cookie and, when id is set, a session.
func (a *testApp) serve(t *testing.T, req *http.Request, id *model.Identity) *httptest.ResponseRecorder {
	t.Helper()
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: testCSRF})
	if id != nil {
		req.AddCookie(a.sessionCookie(t, *id))
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) get(t *testing.T, target string, id *model.Identity) *httptest.ResponseRecorder {
	t.Helper()
	return a.serve(t, httptest.NewRequest(http.MethodGet, target, nil), id)
}

// postForm posts a urlencoded form. The CSRF token is added unless the form
// already carries one.
func (a *testApp) postForm(t *testing.T, target string, form url.Values, id *model.Identity) *httptest.ResponseRecorder {
	t.Helper()
	if _, ok := form[csrfFormField]; !ok {
		form.Set(csrfFormField, testCSRF)
	}
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return a.serve(t, req, id)
}

// postMultipart posts fields plus one file part to /admin.
func (a *testApp) postMultipart(
	t *testing.T,
	fields map[string]string,
	fileField, fileName string,
	content []byte,
	id *model.Identity,
) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField(csrfFormField, testCSRF))
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileField != "" {
		part, err := mw.CreateFormFile(fileField, fileName)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/admin", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return a.serve(t, req, id)
}

func (a *testApp) addVessel(t *testing.T, name, imo string) model.Vessel {
	t.Helper()
	v, err := a.svc.Vessels.Add(context.Background(), a.admin, application.NewVesselInput{
		Name: name, IMO: imo, Flag: "Malta", ClassSociety: "DNV", VesselType: "Tanker",
	})
	require.NoError(t, err)
	return v
}

// addCert adds a certificate expiring offset days from testToday; nil means
// no expiry date.
func (a *testApp) addCert(t *testing.T, vesselID int64, name string, offset *int) model.Certificate {
	t.Helper()
	in := application.UploadInput{VesselID: vesselID, Name: name, Category: "Statutory"}
	if offset != nil {
		d := testToday.AddDate(0, 0, *offset)
		in.ExpiryDate = &d
	}
	c, err := a.svc.Certificates.Upload(context.Background(), a.admin, in)
	require.NoError(t, err)
	return c
}

func (a *testApp) auditActions(t *testing.T) []string {
	t.Helper()
	entries, err := a.audit.Recent(context.Background(), 100)
	require.NoError(t, err)
	actions := make([]string, 0, len(entries))
	for _, e := range entries {
		actions = append(actions, e.Action)
	}
	return actions
}

func offset(n int) *int { return &n }

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
