// Package viewmodel defines presentation-only types for the web GUI.
// These types decouple templ templates from domain model internals.
package viewmodel

// PageViewModel carries the data every page shares: the signed-in user, the
// CSRF token embedded in forms, and an optional one-shot flash message.
type PageViewModel struct {
	Title     string
	Username  string // empty on the login page
	IsAdmin   bool
	CSRFToken string
	Flash     *FlashViewModel
}

// FlashViewModel is a one-shot status message shown above the page content.
type FlashViewModel struct {
	Tone    string // success or danger
	Message string
}

// LoginViewModel holds the data for the sign-in form.
type LoginViewModel struct {
	Username string
	Error    string
}

// BucketCountViewModel is the number of certificates in one lifecycle bucket.
type BucketCountViewModel struct {
	Label string
	Tone  string
	Count int
}

// AlertViewModel is one expiring or overdue certificate in the alert list.
type AlertViewModel struct {
	Vessel      string
	Certificate string
	Label       string
	Tone        string
}

// CertificateViewModel holds presentation-ready data for one certificate row.
type CertificateViewModel struct {
	ID                 int64
	Name               string
	Category           string
	ExpiryDate         string // YYYY-MM-DD or empty
	StatusLabel        string
	Tone               string
	IsConditionOfClass bool
	FileURL            string // empty when no document is attached
	RemarksHTML        string // sanitized
	UpdatePath         string
	DeletePath         string
}

// ConfirmDeleteViewModel describes the certificate a delete link points at.
type ConfirmDeleteViewModel struct {
	Name       string
	Category   string
	ExpiryDate string
	DeletePath string
}

// VesselViewModel holds a vessel and its annotated certificates.
type VesselViewModel struct {
	ID           int64
	Name         string
	IMO          string
	Flag         string
	ClassSociety string
	VesselType   string
	AlertCount   int
	Certificates []CertificateViewModel
}

// DashboardViewModel holds all data needed to render the dashboard page.
type DashboardViewModel struct {
	Today   string
	Search  string
	Health  int
	Total   int
	Counts  []BucketCountViewModel
	Alerts  []AlertViewModel
	Vessels []VesselViewModel
	CanEdit bool
}

// VesselOptionViewModel is a vessel row on the admin console.
type VesselOptionViewModel struct {
	ID   int64
	Name string
	IMO  string
}

// UserViewModel is an account row on the admin console.
type UserViewModel struct {
	ID        int64
	Username  string
	Role      string
	Protected bool
	IsSelf    bool
}

// AuditViewModel is one audit log line.
type AuditViewModel struct {
	When     string
	Username string
	Action   string
}

// AdminViewModel holds all data needed to render the admin console.
type AdminViewModel struct {
	Vessels []VesselOptionViewModel
	Users   []UserViewModel
	Audit   []AuditViewModel
	Roles   []string
}
