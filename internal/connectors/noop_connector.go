package connectors

import (
	"context"

	"github.com/ElSrJuez/notare/internal/domain"
)

// NoopConnector is active when no document source is configured.
type NoopConnector struct{}

func NewNoopConnector() *NoopConnector {
	return &NoopConnector{}
}

func (n *NoopConnector) Name() string {
	return "none"
}

func (n *NoopConnector) ImportDocument(_ context.Context, _ ImportRequest) (domain.Document, error) {
	return domain.Document{}, ErrNotImplemented
}
