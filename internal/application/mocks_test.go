package application_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ericfisherdev/fleetcert/internal/application"
	"github.com/ericfisherdev/fleetcert/internal/authz"
	"github.com/ericfisherdev/fleetcert/internal/domain/model"
	"github.com/ericfisherdev/fleetcert/internal/domain/port/driven"
)

// --- In-memory port implementations ---

type memUsers struct {
	users  map[int64]model.User
	nextID int64
}

func newMemUsers() *memUsers {
	return &memUsers{users: map[int64]model.User{}}
}

func (m *memUsers) Create(_ context.Context, u model.User) (model.User, error) {
	for _, existing := range m.users {
		if existing.Username == u.Username {
			return model.User{}, driven.ErrUsernameTaken
		}
	}
	m.nextID++
	u.ID = m.nextID
	m.users[u.ID] = u
	return u, nil
}

func (m *memUsers) GetByID(_ context.Context, id int64) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, nil
}

func (m *memUsers) ListAll(_ context.Context) ([]model.User, error) {
	out := make([]model.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (m *memUsers) Delete(_ context.Context, id int64) error {
	u, ok := m.users[id]
	if !ok {
		return driven.ErrUserNotFound
	}
	if u.Protected {
		return driven.ErrUserProtected
	}
	delete(m.users, id)
	return nil
}

// memFleet backs both the vessel and certificate mocks so vessel deletion
// can cascade.
type memFleet struct {
	vessels  map[int64]model.Vessel
	certs    map[int64]model.Certificate
	nextV    int64
	nextC    int64
	addErr   error
	listErr  error
	searches []string
}

func newMemFleet() *memFleet {
	return &memFleet{vessels: map[int64]model.Vessel{}, certs: map[int64]model.Certificate{}}
}

type memVessels struct{ *memFleet }

func (m memVessels) Add(_ context.Context, v model.Vessel) (model.Vessel, error) {
	for _, existing := range m.vessels {
		if existing.IMO == v.IMO {
			return model.Vessel{}, driven.ErrVesselIMOTaken
		}
	}
	m.nextV++
	v.ID = m.nextV
	m.vessels[v.ID] = v
	return v, nil
}

func (m memVessels) GetByID(_ context.Context, id int64) (*model.Vessel, error) {
	v, ok := m.vessels[id]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (m memVessels) ListAll(ctx context.Context) ([]model.Vessel, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.Search(ctx, "")
}

func (m memVessels) Search(_ context.Context, term string) ([]model.Vessel, error) {
	if term != "" {
		m.searches = append(m.searches, term)
	}
	term = strings.ToLower(term)
	var out []model.Vessel
	for _, v := range m.vessels {
		if strings.Contains(strings.ToLower(v.Name), term) ||
			strings.Contains(strings.ToLower(v.IMO), term) ||
			strings.Contains(strings.ToLower(v.ClassSociety), term) {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m memVessels) Delete(_ context.Context, id int64) error {
	if _, ok := m.vessels[id]; !ok {
		return driven.ErrVesselNotFound
	}
	for cid, c := range m.certs {
		if c.VesselID == id {
			delete(m.certs, cid)
		}
	}
	delete(m.vessels, id)
	return nil
}

type memCerts struct{ *memFleet }

func (m memCerts) Add(_ context.Context, c model.Certificate) (model.Certificate, error) {
	if m.addErr != nil {
		return model.Certificate{}, m.addErr
	}
	if _, ok := m.vessels[c.VesselID]; !ok {
		return model.Certificate{}, driven.ErrVesselNotFound
	}
	m.nextC++
	c.ID = m.nextC
	m.certs[c.ID] = c
	return c, nil
}

func (m memCerts) GetByID(_ context.Context, id int64) (*model.Certificate, error) {
	c, ok := m.certs[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m memCerts) ListAll(_ context.Context) ([]model.Certificate, error) {
	out := make([]model.Certificate, 0, len(m.certs))
	for _, c := range m.certs {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m memCerts) ListByVessel(ctx context.Context, vesselID int64) ([]model.Certificate, error) {
	all, _ := m.ListAll(ctx)
	var out []model.Certificate
	for _, c := range all {
		if c.VesselID == vesselID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m memCerts) Update(_ context.Context, id int64, u model.CertificateUpdate) error {
	c, ok := m.certs[id]
	if !ok {
		return driven.ErrCertificateNotFound
	}
	c.Name = u.Name
	c.ExpiryDate = u.ExpiryDate
	m.certs[id] = c
	return nil
}

func (m memCerts) Delete(_ context.Context, id int64) error {
	if _, ok := m.certs[id]; !ok {
		return driven.ErrCertificateNotFound
	}
	delete(m.certs, id)
	return nil
}

type memFiles struct {
	files     map[string][]byte
	saves     []string
	deleteErr error
}

func newMemFiles() *memFiles {
	return &memFiles{files: map[string][]byte{}}
}

func (m *memFiles) Save(_ context.Context, name string, r io.Reader) error {
	m.saves = append(m.saves, name)
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if _, ok := m.files[name]; ok {
		return driven.ErrFileExists
	}
	m.files[name] = data
	return nil
}

func (m *memFiles) Open(_ context.Context, name string) (io.ReadCloser, error) {
	data, ok := m.files[name]
	if !ok {
		return nil, driven.ErrFileNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memFiles) Delete(_ context.Context, name string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.files, name)
	return nil
}

type memAudit struct {
	entries []model.AuditEntry
}

func (m *memAudit) Append(_ context.Context, e model.AuditEntry) error {
	m.entries = append(m.entries, e)
	return nil
}

func (m *memAudit) Recent(_ context.Context, limit int) ([]model.AuditEntry, error) {
	out := make([]model.AuditEntry, 0, limit)
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.entries[i])
	}
	return out, nil
}

func (m *memAudit) actions() []string {
	out := make([]string, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.Action
	}
	return out
}

type fakeDatabase struct {
	snapshot   string
	restored   []byte
	restoreErr error
}

func (f *fakeDatabase) Backup(_ context.Context, w io.Writer) error {
	_, err := io.WriteString(w, f.snapshot)
	return err
}

func (f *fakeDatabase) Restore(_ context.Context, r io.Reader) error {
	if f.restoreErr != nil {
		return f.restoreErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.restored = data
	return nil
}

type captureSpreadsheet struct {
	rows []model.ExportRow
}

func (c *captureSpreadsheet) WriteFleetStatus(_ context.Context, w io.Writer, rows []model.ExportRow) error {
	c.rows = rows
	_, err := io.WriteString(w, "xlsx")
	return err
}

type recordingObserver struct {
	snapshots []model.FleetStatus
}

func (r *recordingObserver) ObserveFleet(s model.FleetStatus) {
	r.snapshots = append(r.snapshots, s)
}

var errBoom = errors.New("boom")

// --- Fixture ---

var (
	adminID  = model.Identity{UserID: 1, Username: "admin", Role: model.RoleAdmin}
	viewerID = model.Identity{UserID: 2, Username: "viewer", Role: model.RoleViewer}
)

// fixedToday is mid-afternoon so date arithmetic never lands on midnight.
var fixedToday = time.Date(2026, 6, 15, 14, 30, 0, 0, time.UTC)

type fixture struct {
	users   *memUsers
	fleet   *memFleet
	files   *memFiles
	audit   *memAudit
	db      *fakeDatabase
	sheet   *captureSpreadsheet
	clock   application.Clock
	authz   *authz.Enforcer
	auditS  *application.AuditService
	authS   *application.AuthService
	usersS  *application.UserService
	vessels *application.VesselService
	certs   *application.CertificateService
	fleetS  *application.FleetService
	export  *application.ExportService
	maint   *application.MaintenanceService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	enforcer, err := authz.NewEnforcer()
	require.NoError(t, err)

	f := &fixture{
		users: newMemUsers(),
		fleet: newMemFleet(),
		files: newMemFiles(),
		audit: &memAudit{},
		db:    &fakeDatabase{snapshot: "SQLite format 3\x00"},
		sheet: &captureSpreadsheet{},
		clock: application.FixedClock(fixedToday),
		authz: enforcer,
	}

	vessels := memVessels{f.fleet}
	certs := memCerts{f.fleet}

	f.auditS = application.NewAuditService(f.audit, enforcer, f.clock, 50)
	f.authS, err = application.NewAuthService(f.users, f.auditS, bcrypt.MinCost)
	require.NoError(t, err)
	f.usersS = application.NewUserService(f.users, f.authS, f.auditS, enforcer)
	f.vessels = application.NewVesselService(vessels, certs, f.files, f.auditS, enforcer)
	f.certs = application.NewCertificateService(vessels, certs, f.files, f.auditS, enforcer)
	f.fleetS = application.NewFleetService(vessels, certs, enforcer, f.clock)
	f.export = application.NewExportService(f.fleetS, f.sheet, f.auditS, enforcer)
	f.maint = application.NewMaintenanceService(f.db, f.auditS, enforcer, f.clock)
	return f
}

func (f *fixture) addVessel(t *testing.T, name, imo string) model.Vessel {
	t.Helper()
	v, err := f.vessels.Add(context.Background(), adminID, application.NewVesselInput{
		Name: name, IMO: imo, Flag: "Panama", ClassSociety: "DNV", VesselType: "Bulk Carrier",
	})
	require.NoError(t, err)
	return v
}

func (f *fixture) addCert(t *testing.T, vesselID int64, name string, offsetDays *int) model.Certificate {
	t.Helper()
	in := application.UploadInput{VesselID: vesselID, Name: name, Category: "Statutory"}
	if offsetDays != nil {
		d := fixedToday.AddDate(0, 0, *offsetDays)
		in.ExpiryDate = &d
	}
	c, err := f.certs.Upload(context.Background(), adminID, in)
	require.NoError(t, err)
	return c
}

func days(n int) *int { return &n }
