package model

import (
	"fmt"
	"strings"
	"time"
)

// ExpiryWindowDays is how many days before expiry a certificate starts
// reporting as expiring. The boundary day itself counts as expiring.
const ExpiryWindowDays = 90

// DateLayout is the wire and storage format of expiry dates.
const DateLayout = "2006-01-02"

// CertificateStatus is the computed state of a certificate on a given day.
// It is never persisted.
type CertificateStatus struct {
	Bucket Bucket
	Label  string
	Days   int // days until expiry; negative when overdue, 0 when undated
}

// Tone returns the presentation tone of the status bucket.
func (s CertificateStatus) Tone() string {
	return s.Bucket.Tone()
}

// ComputeStatus derives the certificate status from its expiry date relative
// to today. Only the calendar dates matter: the time of day and location of
// both arguments are discarded. Expiry on the current day counts as expired.
func ComputeStatus(expiry *time.Time, today time.Time) CertificateStatus {
	if expiry == nil {
		return CertificateStatus{Bucket: BucketNoDate, Label: "No Date"}
	}

	days := DaysBetween(today, *expiry)

	switch {
	case days <= 0:
		return CertificateStatus{
			Bucket: BucketExpired,
			Label:  fmt.Sprintf("Overdue (%dd)", -days),
			Days:   days,
		}
	case days <= ExpiryWindowDays:
		return CertificateStatus{
			Bucket: BucketExpiring,
			Label:  fmt.Sprintf("Expiring (%dd)", days),
			Days:   days,
		}
	default:
		return CertificateStatus{
			Bucket: BucketValid,
			Label:  fmt.Sprintf("Valid (%dd)", days),
			Days:   days,
		}
	}
}

// DaysBetween returns the number of calendar days from a to b, each taken as
// the date in its own location.
func DaysBetween(a, b time.Time) int {
	return int(CivilDate(b).Sub(CivilDate(a)) / (24 * time.Hour))
}

// CivilDate returns midnight UTC of t's calendar date in t's location.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses an optional YYYY-MM-DD date. Blank input yields nil.
func ParseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("parse date %q: %w", s, err)
	}
	return &t, nil
}

// FormatDate formats an optional date, returning "" for nil.
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(DateLayout)
}
