package model

// FleetStatus is the transient dashboard view computed from every vessel and
// certificate on a given day. It is never persisted.
type FleetStatus struct {
	Vessels []VesselStatus
	Alerts  []Alert
	Health  int // percent of certificates in the valid bucket
	Counts  map[Bucket]int
	Total   int
}

// VesselStatus is a vessel together with its annotated certificates.
type VesselStatus struct {
	Vessel       Vessel
	Certificates []AnnotatedCertificate
}

// AlertCount returns how many of the vessel's certificates need attention.
func (v VesselStatus) AlertCount() int {
	n := 0
	for _, c := range v.Certificates {
		if c.Status.Bucket.IsAlert() {
			n++
		}
	}
	return n
}

// AnnotatedCertificate pairs a certificate with its computed status.
type AnnotatedCertificate struct {
	Certificate Certificate
	Status      CertificateStatus
}

// Alert is an expired or expiring certificate surfaced on the dashboard.
type Alert struct {
	VesselID        int64
	VesselName      string
	CertificateID   int64
	CertificateName string
	Bucket          Bucket
	Label           string
	Days            int
}
