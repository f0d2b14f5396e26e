package model

// Role is the access level of a user account.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleViewer Role = "viewer"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleViewer
}

// Bucket is the lifecycle state of a certificate derived from its expiry date.
type Bucket string

const (
	BucketNoDate   Bucket = "no-date"
	BucketValid    Bucket = "valid"
	BucketExpiring Bucket = "expiring"
	BucketExpired  Bucket = "expired"
)

// Buckets lists every bucket in display order.
var Buckets = []Bucket{BucketExpired, BucketExpiring, BucketValid, BucketNoDate}

// Tone maps a bucket to the presentation tone used by templates and exports.
func (b Bucket) Tone() string {
	switch b {
	case BucketExpired:
		return "danger"
	case BucketExpiring:
		return "warning"
	case BucketValid:
		return "success"
	default:
		return "secondary"
	}
}

// IsAlert reports whether certificates in this bucket need attention.
func (b Bucket) IsAlert() bool {
	return b == BucketExpired || b == BucketExpiring
}
