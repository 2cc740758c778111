// Package transport declares the pub/sub and request/response endpoints an input
// buffer consumes. Implementations are in p2p.
package transport

import (
	"context"
	"fmt"
)

//go:generate mockgen -typed -package=mocks -destination=./mocks/mocks.go -source=./transport.go

// DefaultChannel is used when no channel is configured.
const DefaultChannel = "default"

// ListenerScope returns the scope of the subscription for a category on a channel.
func ListenerScope(channel, category string) string {
	if channel == "" {
		channel = DefaultChannel
	}
	return fmt.Sprintf("/ipaaca/channel/%s/category/%s", channel, category)
}

// Handler receives raw events delivered on a listener scope. Returned errors are logged
// by the transport and do not stop delivery.
type Handler func(ctx context.Context, data []byte) error

// Listener is a subscription to a single scope.
type Listener interface {
	Scope() string
	// AddHandler must be called before Activate. Handlers run in registration order.
	AddHandler(h Handler)
	Activate() error
	Deactivate() error
}

// RemoteServer is a connection to the methods served under a scope.
type RemoteServer interface {
	Scope() string
	Activate() error
	// Call blocks until a reply arrives or ctx is done.
	Call(ctx context.Context, method string, req []byte) ([]byte, error)
	Deactivate() error
}

// Method serves a single remote method.
type Method func(ctx context.Context, req []byte) ([]byte, error)

// LocalServer serves methods under a scope.
type LocalServer interface {
	Scope() string
	RegisterMethod(name string, method Method)
	Activate() error
	Deactivate() error
}

// Factory creates endpoints. Created endpoints are inactive.
type Factory interface {
	CreateListener(scope string) (Listener, error)
	CreateRemoteServer(scope string) (RemoteServer, error)
}

// Publisher sends an event to every listener of a scope.
type Publisher interface {
	Publish(ctx context.Context, scope string, data []byte) error
}
