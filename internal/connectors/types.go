package connectors

import (
	"context"
	"errors"

	"github.com/ElSrJuez/notare/internal/domain"
)

var ErrNotImplemented = errors.New("connector operation not implemented")
var ErrUnavailable = errors.New("connector unavailable")
var ErrUnauthorized = errors.New("connector unauthorized")
var ErrForbidden = errors.New("connector forbidden")
var ErrDocumentNotFound = errors.New("connector document not found")
var ErrInvalidURL = errors.New("connector url is invalid")

type ImportRequest struct {
	DocumentID string
	// SessionKey selects an OAuth session; empty uses static credentials.
	SessionKey string
}

// Connector imports documents from an external source as annotated HTML.
type Connector interface {
	Name() string
	ImportDocument(ctx context.Context, req ImportRequest) (domain.Document, error)
}
