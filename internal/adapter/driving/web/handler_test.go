package web

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ericfisherdev/fleetcert/internal/adapter/driven/spreadsheet"
	"github.com/ericfisherdev/fleetcert/internal/application"
	"github.com/ericfisherdev/fleetcert/internal/domain/model"
)

func TestProtectedRoutes_RedirectToLoginWithoutSession(t *testing.T) {
	app := newTestApp(t)

	for _, target := range []string{"/", "/admin", "/export_excel", "/backup", "/uploads/1_report.pdf", "/cert/1/delete"} {
		t.Run(target, func(t *testing.T) {
			rec := app.get(t, target, nil)
			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, "/login", rec.Header().Get("Location"))
		})
	}
}

func TestLoginPage_SetsCSRFCookie(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	rec := httptest.NewRecorder()
	app.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	cookie := cookieNamed(rec, csrfCookieName)
	require.NotNil(t, cookie)
	assert.Contains(t, rec.Body.String(), `value="`+cookie.Value+`"`)
}

func TestLoginPage_RedirectsSignedInUser(t *testing.T) {
	app := newTestApp(t)

	rec := app.get(t, "/login", &app.viewer)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestLogin_Success(t *testing.T) {
	app := newTestApp(t)

	rec := app.postForm(t, "/login", url.Values{"username": {"viewer"}, "password": {testViewerPass}}, nil)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	session := cookieNamed(rec, sessionCookieName)
	require.NotNil(t, session)
	assert.True(t, session.HttpOnly)
	assert.Equal(t, 1, app.logins.count(LoginSuccess))
	assert.Contains(t, app.auditActions(t), "Logged in")

	// The issued cookie opens the dashboard.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(session)
	dash := httptest.NewRecorder()
	app.handler.ServeHTTP(dash, req)
	assert.Equal(t, http.StatusOK, dash.Code)
}

func TestLogin_WrongPassword(t *testing.T) {
	app := newTestApp(t)

	rec := app.postForm(t, "/login", url.Values{"username": {"viewer"}, "password": {"nope-nope"}}, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), msgBadLogin)
	assert.Nil(t, cookieNamed(rec, sessionCookieName))
	assert.Equal(t, 1, app.logins.count(LoginFailure))
	assert.Contains(t, app.auditActions(t), "Failed login")
}

func TestLogin_RejectsMissingCSRF(t *testing.T) {
	app := newTestApp(t)

	rec := app.postForm(t, "/login", url.Values{
		"username":    {"viewer"},
		"password":    {testViewerPass},
		csrfFormField: {"forged"},
	}, nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Nil(t, cookieNamed(rec, sessionCookieName))
}

func TestLogin_RateLimitedPerIP(t *testing.T) {
	app := newTestAppWithOptions(t, Options{MaxUploadBytes: 1 << 20, LoginRateLimit: 2})

	form := func() url.Values { return url.Values{"username": {"viewer"}, "password": {"wrong-password"}} }
	assert.Equal(t, http.StatusUnauthorized, app.postForm(t, "/login", form(), nil).Code)
	assert.Equal(t, http.StatusUnauthorized, app.postForm(t, "/login", form(), nil).Code)

	rec := app.postForm(t, "/login", form(), nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), msgLoginLimited)
	assert.Equal(t, 1, app.logins.count(LoginLimited))
}

func TestLogout_ClearsSession(t *testing.T) {
	app := newTestApp(t)

	rec := app.get(t, "/logout", &app.viewer)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	session := cookieNamed(rec, sessionCookieName)
	require.NotNil(t, session)
	assert.Negative(t, session.MaxAge)
	assert.Contains(t, app.auditActions(t), "Logged out")
}

func TestDashboard_ShowsStatusesAndAlerts(t *testing.T) {
	app := newTestApp(t)
	v := app.addVessel(t, "MV Test", "9876543")
	app.addCert(t, v.ID, "Safety Equipment", offset(-5))
	app.addCert(t, v.ID, "Load Line", offset(30))
	app.addCert(t, v.ID, "Registry", offset(400))
	app.addCert(t, v.ID, "Crew List", nil)

	rec := app.get(t, "/", &app.viewer)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "MV Test")
	assert.Contains(t, body, "Overdue (5d)")
	assert.Contains(t, body, "Expiring (30d)")
	assert.Contains(t, body, "Valid (400d)")
	assert.Contains(t, body, "No Date")
	assert.Contains(t, body, "2 alerts")
	// 1 valid of 4 certificates.
	assert.Contains(t, body, "25%")
}

func TestDashboard_EditControlsOnlyForAdmins(t *testing.T) {
	app := newTestApp(t)
	v := app.addVessel(t, "MV Test", "9876543")
	c := app.addCert(t, v.ID, "Load Line", offset(30))
	updatePath := fmt.Sprintf("/cert/%d/update", c.ID)

	viewer := app.get(t, "/", &app.viewer)
	require.Equal(t, http.StatusOK, viewer.Code)
	assert.NotContains(t, viewer.Body.String(), updatePath)
	assert.NotContains(t, viewer.Body.String(), `href="/admin"`)

	admin := app.get(t, "/", &app.admin)
	require.Equal(t, http.StatusOK, admin.Code)
	assert.Contains(t, admin.Body.String(), updatePath)
	assert.Contains(t, admin.Body.String(), `href="/admin"`)
}

func TestDashboard_Search(t *testing.T) {
	app := newTestApp(t)
	app.addVessel(t, "Northern Star", "1111111")
	app.addVessel(t, "Southern Cross", "2222222")

	rec := app.get(t, "/?search=2222", &app.viewer)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Southern Cross")
	assert.NotContains(t, rec.Body.String(), "Northern Star")
	assert.Contains(t, rec.Body.String(), `placeholder="Vessel name, IMO or class society"`)
}

func TestDashboard_SearchMatchesClassSociety(t *testing.T) {
	app := newTestApp(t)
	_, err := app.svc.Vessels.Add(context.Background(), app.admin, application.NewVesselInput{
		Name: "Polar Dawn", IMO: "4444444", ClassSociety: "Lloyd's Register",
	})
	require.NoError(t, err)
	app.addVessel(t, "Northern Star", "1111111")

	rec := app.get(t, "/?search=lloyd", &app.viewer)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Polar Dawn")
	assert.Contains(t, rec.Body.String(), "IMO 4444444 · Lloyd&#39;s Register")
	assert.NotContains(t, rec.Body.String(), "Northern Star")
}

func TestDashboard_EscapesUserContent(t *testing.T) {
	app := newTestApp(t)
	app.addVessel(t, "<script>alert(1)</script>", "3333333")

	rec := app.get(t, "/", &app.viewer)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "<script>alert(1)</script>")
	assert.Contains(t, rec.Body.String(), "&lt;script&gt;")
}

func TestViewer_CannotReachAdminSurface(t *testing.T) {
	app := newTestApp(t)
	v := app.addVessel(t, "MV Test", "9876543")
	c := app.addCert(t, v.ID, "Load Line", offset(30))

	tests := []struct {
		name string
		do   func() *httptest.ResponseRecorder
	}{
		{"admin page", func() *httptest.ResponseRecorder { return app.get(t, "/admin", &app.viewer) }},
		{"backup", func() *httptest.ResponseRecorder { return app.get(t, "/backup", &app.viewer) }},
		{"add vessel", func() *httptest.ResponseRecorder {
			return app.postForm(t, "/admin", url.Values{"action": {"add_vessel"}, "name": {"Ghost"}, "imo": {"0000000"}}, &app.viewer)
		}},
		{"delete vessel", func() *httptest.ResponseRecorder {
			return app.postForm(t, "/admin", url.Values{"action": {"delete_vessel"}, "vessel_id": {fmt.Sprint(v.ID)}}, &app.viewer)
		}},
		{"delete certificate", func() *httptest.ResponseRecorder {
			return app.postForm(t, fmt.Sprintf("/cert/%d/delete", c.ID), url.Values{}, &app.viewer)
		}},
		{"update certificate", func() *httptest.ResponseRecorder {
			return app.postForm(t, fmt.Sprintf("/cert/%d/update", c.ID), url.Values{"name": {"Hijacked"}}, &app.viewer)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := tt.do()
			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, "/", rec.Header().Get("Location"))
		})
	}

	vessels, err := app.svc.Vessels.List(context.Background(), app.admin)
	require.NoError(t, err)
	require.Len(t, vessels, 1)
	got, err := app.svc.Certificates.Get(context.Background(), app.admin, c.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Load Line", got.Name)
}

func TestAdmin_PageListsUsersAndAudit(t *testing.T) {
	app := newTestApp(t)
	app.addVessel(t, "MV Test", "9876543")

	rec := app.get(t, "/admin", &app.admin)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "viewer")
	assert.Contains(t, body, "protected")
	assert.Contains(t, body, "Added vessel MV Test (9876543)")
	assert.Contains(t, body, `name="action" value="upload_cert"`)
}

func TestAdmin_AddVessel(t *testing.T) {
	app := newTestApp(t)

	rec := app.postForm(t, "/admin", url.Values{
		"action":        {"add_vessel"},
		"name":          {"MV Aurora"},
		"imo":           {"9400001"},
		"flag":          {"Liberia"},
		"class_society": {"ABS"},
		"vessel_type":   {"Container"},
	}, &app.admin)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin", rec.Header().Get("Location"))
	assert.NotNil(t, cookieNamed(rec, flashCookieName))

	vessels, err := app.svc.Vessels.List(context.Background(), app.admin)
	require.NoError(t, err)
	require.Len(t, vessels, 1)
	assert.Equal(t, "Liberia", vessels[0].Flag)
}

func TestAdmin_InvalidInputRerendersWith400(t *testing.T) {
	app := newTestApp(t)
	app.addVessel(t, "MV Aurora", "9400001")

	tests := []struct {
		name string
		form url.Values
		want string
	}{
		{"duplicate imo", url.Values{"action": {"add_vessel"}, "name": {"Copy"}, "imo": {"9400001"}}, "A vessel with IMO 9400001 already exists"},
		{"missing name", url.Values{"action": {"add_vessel"}, "imo": {"9400002"}}, "Name is required"},
		{"short password", url.Values{"action": {"add_user"}, "username": {"ops"}, "password": {"short"}, "role": {"viewer"}}, "Password must be at least 8 characters"},
		{"unknown role", url.Values{"action": {"add_user"}, "username": {"ops"}, "password": {"long-enough"}, "role": {"root"}}, "Role must be one of: admin, viewer"},
		{"bad expiry", url.Values{"action": {"upload_cert"}, "vessel_id": {"1"}, "cert_name": {"X"}, "expiry_date": {"15/06/2026"}}, "Expiry date must be a date"},
		{"unknown action", url.Values{"action": {"drop_tables"}}, "Unknown action."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.postForm(t, "/admin", tt.form, &app.admin)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
			assert.Contains(t, rec.Body.String(), "Admin console")
		})
	}

	vessels, err := app.svc.Vessels.List(context.Background(), app.admin)
	require.NoError(t, err)
	assert.Len(t, vessels, 1)
}

func TestAdmin_RejectsBadCSRF(t *testing.T) {
	app := newTestApp(t)

	rec := app.postForm(t, "/admin", url.Values{
		"action":      {"add_vessel"},
		"name":        {"MV Forged"},
		"imo":         {"9400009"},
		csrfFormField: {"forged"},
	}, &app.admin)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	vessels, err := app.svc.Vessels.List(context.Background(), app.admin)
	require.NoError(t, err)
	assert.Empty(t, vessels)
}

func TestAdmin_UserManagement(t *testing.T) {
	app := newTestApp(t)

	rec := app.postForm(t, "/admin", url.Values{
		"action": {"add_user"}, "username": {"ops"}, "password": {"ops-password"}, "role": {"admin"},
	}, &app.admin)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	ops, err := app.svc.Auth.Login(context.Background(), "ops", "ops-password")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, ops.Role)

	t.Run("protected admin cannot be deleted", func(t *testing.T) {
		rec := app.postForm(t, "/admin", url.Values{
			"action": {"delete_user"}, "user_id": {fmt.Sprint(app.admin.UserID)},
		}, &ops)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "bootstrap administrator cannot be deleted")
	})

	t.Run("cannot delete self", func(t *testing.T) {
		rec := app.postForm(t, "/admin", url.Values{
			"action": {"delete_user"}, "user_id": {fmt.Sprint(ops.UserID)},
		}, &ops)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "cannot delete your own account")
	})

	t.Run("delete viewer", func(t *testing.T) {
		rec := app.postForm(t, "/admin", url.Values{
			"action": {"delete_user"}, "user_id": {fmt.Sprint(app.viewer.UserID)},
		}, &ops)
		assert.Equal(t, http.StatusSeeOther, rec.Code)

		// The deleted user's existing session stops working at once.
		rec = app.get(t, "/", &app.viewer)
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
	})

	users, err := app.svc.Users.List(context.Background(), app.admin)
	require.NoError(t, err)
	names := make([]string, 0, len(users))
	for _, u := range users {
		names = append(names, u.Username)
	}
	assert.ElementsMatch(t, []string{"admin", "ops"}, names)
}

func TestAdmin_UploadCertificateAndServeFile(t *testing.T) {
	app := newTestApp(t)
	v := app.addVessel(t, "MV Test", "9876543")
	content := []byte("%PDF-1.4 survey")

	rec := app.postMultipart(t, map[string]string{
		"action":      "upload_cert",
		"vessel_id":   fmt.Sprint(v.ID),
		"cert_name":   "Safety Construction",
		"category":    "Statutory",
		"expiry_date": "2026-09-01",
		"is_coc":      "1",
		"remarks":     "Renewal **booked**",
	}, "file", "survey report.pdf", content, &app.admin)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	status, err := app.svc.Fleet.Snapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, status.Vessels, 1)
	require.Len(t, status.Vessels[0].Certificates, 1)
	cert := status.Vessels[0].Certificates[0].Certificate
	assert.Equal(t, fmt.Sprintf("%d_survey_report.pdf", v.ID), cert.FilePath)
	assert.True(t, cert.IsConditionOfClass)
	assert.Equal(t, "2026-09-01", model.FormatDate(cert.ExpiryDate))

	file := app.get(t, "/uploads/"+cert.FilePath, &app.viewer)
	require.Equal(t, http.StatusOK, file.Code)
	assert.Equal(t, content, file.Body.Bytes())
	assert.Equal(t, "application/pdf", file.Header().Get("Content-Type"))
	assert.Equal(t, "sandbox", file.Header().Get("Content-Security-Policy"))

	dash := app.get(t, "/", &app.viewer)
	assert.Contains(t, dash.Body.String(), "<strong>booked</strong>")
	assert.Contains(t, dash.Body.String(), "/uploads/"+cert.FilePath)
}

func TestAdmin_UploadTooLarge(t *testing.T) {
	app := newTestAppWithOptions(t, Options{MaxUploadBytes: 4 << 10, LoginRateLimit: 100})
	v := app.addVessel(t, "MV Test", "9876543")

	rec := app.postMultipart(t, map[string]string{
		"action": "upload_cert", "vessel_id": fmt.Sprint(v.ID), "cert_name": "Huge",
	}, "file", "huge.pdf", bytes.Repeat([]byte("x"), 64<<10), &app.admin)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	status, err := app.svc.Fleet.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Zero(t, status.Total)
}

func TestUploads_MissingFileIs404(t *testing.T) {
	app := newTestApp(t)

	for _, target := range []string{"/uploads/1_missing.pdf", "/uploads/..%2Fsecret", "/uploads/.staging-1234"} {
		t.Run(target, func(t *testing.T) {
			rec := app.get(t, target, &app.viewer)
			assert.Equal(t, http.StatusNotFound, rec.Code)
		})
	}
}

func TestUpload_ConcurrentSameNameKeepsEveryFile(t *testing.T) {
	app := newTestApp(t)
	v := app.addVessel(t, "MV Test", "9876543")
	ctx := context.Background()

	const uploads = 8
	certs := make([]model.Certificate, uploads)
	errs := make([]error, uploads)
	var wg sync.WaitGroup
	for i := range uploads {
		wg.Add(1)
		go func() {
			defer wg.Done()
			certs[i], errs[i] = app.svc.Certificates.Upload(ctx, app.admin, application.UploadInput{
				VesselID: v.ID,
				Name:     fmt.Sprintf("Survey %d", i),
				FileName: "survey.pdf",
				File:     strings.NewReader(fmt.Sprintf("report %d", i)),
			})
		}()
	}
	wg.Wait()

	seen := make(map[string]bool, uploads)
	for i := range uploads {
		require.NoError(t, errs[i])
		name := certs[i].FilePath
		assert.False(t, seen[name], "file %s stored twice", name)
		seen[name] = true

		rec := app.get(t, "/uploads/"+name, &app.viewer)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, fmt.Sprintf("report %d", i), rec.Body.String())
	}
	assert.True(t, seen[fmt.Sprintf("%d_survey.pdf", v.ID)])
}

func TestAdmin_DeleteVesselCascades(t *testing.T) {
	app := newTestApp(t)
	v := app.addVessel(t, "MV Test", "9876543")
	app.addCert(t, v.ID, "Load Line", offset(30))
	app.addCert(t, v.ID, "Registry", nil)

	rec := app.postForm(t, "/admin", url.Values{"action": {"delete_vessel"}, "vessel_id": {fmt.Sprint(v.ID)}}, &app.admin)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	status, err := app.svc.Fleet.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Empty(t, status.Vessels)
	assert.Zero(t, status.Total)
}

func TestCertificate_UpdateAndDelete(t *testing.T) {
	app := newTestApp(t)
	v := app.addVessel(t, "MV Test", "9876543")
	c := app.addCert(t, v.ID, "Load Line", offset(-3))
	ctx := context.Background()

	rec := app.postForm(t, fmt.Sprintf("/cert/%d/update", c.ID), url.Values{
		"name": {"Load Line (renewed)"}, "expiry_date": {"2027-06-15"},
	}, &app.admin)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	got, err := app.svc.Certificates.Get(ctx, app.admin, c.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Load Line (renewed)", got.Name)
	assert.Equal(t, model.BucketValid, model.ComputeStatus(got.ExpiryDate, testToday).Bucket)

	t.Run("clearing expiry", func(t *testing.T) {
		rec := app.postForm(t, fmt.Sprintf("/cert/%d/update", c.ID), url.Values{"name": {"Load Line"}}, &app.admin)
		require.Equal(t, http.StatusSeeOther, rec.Code)
		got, err := app.svc.Certificates.Get(ctx, app.admin, c.ID)
		require.NoError(t, err)
		assert.Nil(t, got.ExpiryDate)
	})

	t.Run("delete link only asks for confirmation", func(t *testing.T) {
		rec := app.get(t, fmt.Sprintf("/cert/%d/delete?%s=%s", c.ID, csrfFormField, testCSRF), &app.admin)
		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, "Delete certificate")
		assert.Contains(t, body, fmt.Sprintf(`action="/cert/%d/delete" method="post"`, c.ID))

		got, err := app.svc.Certificates.Get(ctx, app.admin, c.ID)
		require.NoError(t, err)
		assert.NotNil(t, got)
	})

	t.Run("token in query string is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/cert/%d/delete?%s=%s", c.ID, csrfFormField, testCSRF), nil)
		rec := app.serve(t, req, &app.admin)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		got, err := app.svc.Certificates.Get(ctx, app.admin, c.ID)
		require.NoError(t, err)
		assert.NotNil(t, got)
	})

	t.Run("confirmed delete", func(t *testing.T) {
		rec := app.postForm(t, fmt.Sprintf("/cert/%d/delete", c.ID), url.Values{}, &app.admin)
		require.Equal(t, http.StatusSeeOther, rec.Code)
		got, err := app.svc.Certificates.Get(ctx, app.admin, c.ID)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("delete link for a missing certificate", func(t *testing.T) {
		rec := app.get(t, fmt.Sprintf("/cert/%d/delete", c.ID), &app.admin)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("deleting again reports a flash", func(t *testing.T) {
		rec := app.postForm(t, fmt.Sprintf("/cert/%d/delete", c.ID), url.Values{}, &app.admin)
		require.Equal(t, http.StatusSeeOther, rec.Code)
		flash := cookieNamed(rec, flashCookieName)
		require.NotNil(t, flash)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(flash)
		follow := app.serve(t, req, &app.admin)
		assert.Contains(t, follow.Body.String(), "That certificate no longer exists.")
	})
}

func TestExportExcel(t *testing.T) {
	app := newTestApp(t)
	v := app.addVessel(t, "MV Test", "9876543")
	app.addCert(t, v.ID, "Load Line", offset(30))
	app.addCert(t, v.ID, "Registry", nil)

	rec := app.get(t, "/export_excel", &app.viewer)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "fleet_status_2026-06-15.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(spreadsheet.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, model.ExportHeader, rows[0])
	assert.Equal(t, "Load Line", rows[1][5])
	assert.Equal(t, "Expiring (30d)", rows[1][9])
	assert.Equal(t, "No Date", rows[2][9])
}

func TestBackup_DownloadsSnapshot(t *testing.T) {
	app := newTestApp(t)
	app.addVessel(t, "MV Test", "9876543")

	rec := app.get(t, "/backup", &app.admin)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, sqliteContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), application.BackupFilename(testToday))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "SQLite format 3\x00"))
	assert.Contains(t, app.auditActions(t), "Downloaded database backup")
}

func TestRestore_RoundTripAndRejection(t *testing.T) {
	app := newTestApp(t)
	app.addVessel(t, "MV Keep", "1000001")

	backup := app.get(t, "/backup", &app.admin)
	require.Equal(t, http.StatusOK, backup.Code)
	snapshot := backup.Body.Bytes()

	app.addVessel(t, "MV Later", "1000002")

	t.Run("garbage is rejected", func(t *testing.T) {
		rec := app.postMultipart(t, map[string]string{"action": "restore_db"}, "backup", "notes.db", []byte("not a database"), &app.admin)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "not a valid fleetcert backup")

		vessels, err := app.svc.Vessels.List(context.Background(), app.admin)
		require.NoError(t, err)
		assert.Len(t, vessels, 2)
	})

	t.Run("missing file", func(t *testing.T) {
		rec := app.postMultipart(t, map[string]string{"action": "restore_db"}, "", "", nil, &app.admin)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Choose a backup file to restore")
	})

	t.Run("snapshot restores", func(t *testing.T) {
		rec := app.postMultipart(t, map[string]string{"action": "restore_db"}, "backup", "fleet.db", snapshot, &app.admin)
		require.Equal(t, http.StatusSeeOther, rec.Code)

		vessels, err := app.svc.Vessels.List(context.Background(), app.admin)
		require.NoError(t, err)
		require.Len(t, vessels, 1)
		assert.Equal(t, "MV Keep", vessels[0].Name)
	})
}

func TestStaticAssets(t *testing.T) {
	app := newTestApp(t)

	rec := app.get(t, "/static/app.css", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), ".badge-danger")
}
