package server

import (
	"context"

	"github.com/zurustar/confsync/internal/transport"
)

// SIPTransport is the transport the daemon starts and drives
type SIPTransport interface {
	transport.Transport
	Start(ctx context.Context) error
	Stop() error
}

// Server defines the interface for the daemon
type Server interface {
	Start() error
	Stop() error
	LoadConfig(filename string) error
	RunWithSignalHandling() error
}
