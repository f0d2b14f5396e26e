package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/fleetcert/internal/domain/model"
)

// ErrCertificateNotFound indicates the requested certificate does not exist.
var ErrCertificateNotFound = errors.New("certificate not found")

// CertificateStore defines the driven port for certificate persistence.
// Add returns ErrVesselNotFound when the owning vessel does not exist.
type CertificateStore interface {
	Add(ctx context.Context, cert model.Certificate) (model.Certificate, error)
	GetByID(ctx context.Context, id int64) (*model.Certificate, error)
	ListAll(ctx context.Context) ([]model.Certificate, error)
	ListByVessel(ctx context.Context, vesselID int64) ([]model.Certificate, error)
	Update(ctx context.Context, id int64, update model.CertificateUpdate) error
	Delete(ctx context.Context, id int64) error
}
