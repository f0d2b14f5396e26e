package model

import "time"

// Certificate is a regulatory or class document attached to a vessel.
// ExpiryDate is nil when the certificate has no expiry. FilePath names the
// stored upload, empty when no file was attached.
type Certificate struct {
	ID                 int64
	VesselID           int64
	Name               string
	Category           string
	ExpiryDate         *time.Time
	FilePath           string
	IsConditionOfClass bool
	Remarks            string // markdown
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// HasFile reports whether an uploaded file is attached.
func (c Certificate) HasFile() bool {
	return c.FilePath != ""
}

// CertificateUpdate carries the mutable fields of a certificate.
type CertificateUpdate struct {
	Name       string
	ExpiryDate *time.Time
}
