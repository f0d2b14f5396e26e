package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/ericfisherdev/fleetcert/internal/authz"
	"github.com/ericfisherdev/fleetcert/internal/domain/model"
	"github.com/ericfisherdev/fleetcert/internal/domain/port/driven"
)

// UploadInput is the admin form for adding a certificate. File is optional;
// when set, FileName is the client-supplied name.
type UploadInput struct {
	VesselID           int64  `label:"Vessel" validate:"gt=0"`
	Name               string `label:"Certificate name" validate:"required,max=200"`
	Category           string `label:"Category" validate:"max=100"`
	ExpiryDate         *time.Time
	IsConditionOfClass bool
	Remarks            string `label:"Remarks" validate:"max=10000"`
	FileName           string
	File               io.ReadSeeker
}

// maxNameAttempts bounds how many names storeFile tries for one upload.
const maxNameAttempts = 5

// UpdateInput carries the editable certificate fields.
type UpdateInput struct {
	Name       string `label:"Certificate name" validate:"required,max=200"`
	ExpiryDate *time.Time
}

// CertificateService manages certificates and their uploaded documents.
type CertificateService struct {
	vessels driven.VesselStore
	certs   driven.CertificateStore
	files   driven.FileStore
	audit   *AuditService
	authz   Authorizer
	logger  *slog.Logger
}

// NewCertificateService creates a CertificateService.
func NewCertificateService(
	vessels driven.VesselStore,
	certs driven.CertificateStore,
	files driven.FileStore,
	audit *AuditService,
	a Authorizer,
) *CertificateService {
	return &CertificateService{
		vessels: vessels,
		certs:   certs,
		files:   files,
		audit:   audit,
		authz:   a,
		logger:  slog.Default(),
	}
}

// Upload stores the optional file under a name derived from the vessel id and
// the sanitized original name, then inserts the certificate. If the insert
// fails the stored file is removed again.
func (s *CertificateService) Upload(ctx context.Context, id model.Identity, in UploadInput) (model.Certificate, error) {
	if err := authorize(s.authz, id, authz.ObjCertificates, authz.ActWrite); err != nil {
		return model.Certificate{}, err
	}

	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)
	if err := validateInput(in); err != nil {
		return model.Certificate{}, err
	}

	vessel, err := s.vessels.GetByID(ctx, in.VesselID)
	if err != nil {
		return model.Certificate{}, fmt.Errorf("load vessel %d: %w", in.VesselID, err)
	}
	if vessel == nil {
		return model.Certificate{}, invalid("Vessel", "Vessel does not exist")
	}

	var stored string
	if in.File != nil && strings.TrimSpace(in.FileName) != "" {
		stored, err = s.storeFile(ctx, in.VesselID, in.FileName, in.File)
		if err != nil {
			return model.Certificate{}, err
		}
	}

	cert, err := s.certs.Add(ctx, model.Certificate{
		VesselID:           in.VesselID,
		Name:               in.Name,
		Category:           in.Category,
		ExpiryDate:         in.ExpiryDate,
		FilePath:           stored,
		IsConditionOfClass: in.IsConditionOfClass,
		Remarks:            in.Remarks,
	})
	if err != nil {
		if stored != "" {
			if rmErr := s.files.Delete(ctx, stored); rmErr != nil {
				s.logger.Error("failed to remove orphaned upload", "file", stored, "error", rmErr)
			}
		}
		if errors.Is(err, driven.ErrVesselNotFound) {
			return model.Certificate{}, invalid("Vessel", "Vessel does not exist")
		}
		return model.Certificate{}, fmt.Errorf("add certificate %s: %w", in.Name, err)
	}

	s.audit.Record(ctx, id.Username, fmt.Sprintf("Uploaded certificate %s for %s", cert.Name, vessel.Name))
	return cert, nil
}

// storeFile saves the upload under <vessel>_<name>. The store never replaces
// an existing file; when the name is taken the upload is rewound and saved
// again with a random segment inserted.
func (s *CertificateService) storeFile(ctx context.Context, vesselID int64, original string, r io.ReadSeeker) (string, error) {
	base := SanitizeFilename(original)
	name := fmt.Sprintf("%d_%s", vesselID, base)

	for attempt := 1; ; attempt++ {
		err := s.files.Save(ctx, name, r)
		if err == nil {
			return name, nil
		}
		if !errors.Is(err, driven.ErrFileExists) || attempt == maxNameAttempts {
			return "", fmt.Errorf("save upload %s: %w", name, err)
		}
		if _, err := r.Seek(0, io.SeekStart); err != nil {
			return "", fmt.Errorf("rewind upload %s: %w", name, err)
		}
		name = fmt.Sprintf("%d_%s_%s", vesselID, uuid.NewString()[:8], base)
	}
}

// Get returns a certificate or nil when it does not exist.
func (s *CertificateService) Get(ctx context.Context, id model.Identity, certID int64) (*model.Certificate, error) {
	if err := authorize(s.authz, id, authz.ObjFleet, authz.ActRead); err != nil {
		return nil, err
	}
	return s.certs.GetByID(ctx, certID)
}

// Update changes the name and expiry date. Clearing the expiry is allowed.
func (s *CertificateService) Update(ctx context.Context, id model.Identity, certID int64, in UpdateInput) error {
	if err := authorize(s.authz, id, authz.ObjCertificates, authz.ActWrite); err != nil {
		return err
	}

	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(in); err != nil {
		return err
	}

	err := s.certs.Update(ctx, certID, model.CertificateUpdate{Name: in.Name, ExpiryDate: in.ExpiryDate})
	if err != nil {
		return fmt.Errorf("update certificate %d: %w", certID, err)
	}

	expiry := model.FormatDate(in.ExpiryDate)
	if expiry == "" {
		expiry = "none"
	}
	s.audit.Record(ctx, id.Username, fmt.Sprintf("Updated certificate %s (expiry %s)", in.Name, expiry))
	return nil
}

// Delete removes the certificate row, then its file. A file that cannot be
// removed is logged and left behind.
func (s *CertificateService) Delete(ctx context.Context, id model.Identity, certID int64) error {
	if err := authorize(s.authz, id, authz.ObjCertificates, authz.ActWrite); err != nil {
		return err
	}

	cert, err := s.certs.GetByID(ctx, certID)
	if err != nil {
		return fmt.Errorf("load certificate %d: %w", certID, err)
	}
	if cert == nil {
		return driven.ErrCertificateNotFound
	}

	if err := s.certs.Delete(ctx, certID); err != nil {
		return fmt.Errorf("delete certificate %d: %w", certID, err)
	}

	if cert.HasFile() {
		if err := s.files.Delete(ctx, cert.FilePath); err != nil {
			s.logger.Warn("failed to remove certificate file", "file", cert.FilePath, "error", err)
		}
	}

	s.audit.Record(ctx, id.Username, "Deleted certificate "+cert.Name)
	return nil
}

// OpenFile opens a stored upload by name.
func (s *CertificateService) OpenFile(ctx context.Context, id model.Identity, name string) (io.ReadCloser, error) {
	if err := authorize(s.authz, id, authz.ObjFiles, authz.ActRead); err != nil {
		return nil, err
	}
	return s.files.Open(ctx, name)
}

// SanitizeFilename reduces a client-supplied file name to a safe flat name of
// ASCII letters, digits, dot, dash and underscore. Directory components are
// dropped and whitespace becomes an underscore. An empty result becomes
// "upload".
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	name = path.Base(name)

	var b strings.Builder
	for _, r := range name {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune('_')
		}
	}

	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "upload"
	}
	return out
}
