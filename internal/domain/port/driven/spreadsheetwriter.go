package driven

import (
	"context"
	"io"

	"github.com/ericfisherdev/fleetcert/internal/domain/model"
)

// SpreadsheetWriter serializes fleet status rows as a workbook.
type SpreadsheetWriter interface {
	WriteFleetStatus(ctx context.Context, w io.Writer, rows []model.ExportRow) error
}
