// Package push coordinates device push notifications: permission checks,
// device-token issuance, backend registration, and delivery of received
// notifications.
package push

import (
	"context"
	"time"
)

// PermissionStatus is the platform's notification permission state.
type PermissionStatus string

const (
	PermissionGranted      PermissionStatus = "granted"
	PermissionDenied       PermissionStatus = "denied"
	PermissionUndetermined PermissionStatus = "undetermined"
)

// Notification is a push notification payload.
type Notification struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// EventKind distinguishes a notification arriving while the client is in the
// foreground from the user acting on one.
type EventKind string

const (
	EventReceived EventKind = "received"
	EventResponse EventKind = "response"
)

// Event is one notification event delivered by the provider.
type Event struct {
	Kind         EventKind
	Notification Notification
	At           time.Time
}

// Provider abstracts the platform push service. Implementations handle
// connection management, permission prompts, token issuance, and event
// delivery; none of the service's internals leak past this interface.
type Provider interface {
	// PhysicalDevice reports whether this runtime can receive push
	// notifications at all. Simulators cannot.
	PhysicalDevice() bool

	// Permissions returns the current permission status without prompting.
	Permissions(ctx context.Context) (PermissionStatus, error)

	// RequestPermissions prompts for permission and returns the outcome.
	RequestPermissions(ctx context.Context) (PermissionStatus, error)

	// DeviceToken obtains the device push token for the given project.
	DeviceToken(ctx context.Context, projectID string) (string, error)

	// Events returns a channel of notification events. The channel is closed
	// when ctx is cancelled or the provider is closed. Control calls
	// (Permissions, DeviceToken) must not be made after Events.
	Events(ctx context.Context) (<-chan Event, error)

	// Schedule displays a local notification after the given delay,
	// independent of the push service. Implementations block until the
	// notification has been shown or ctx is cancelled.
	Schedule(ctx context.Context, n Notification, delay time.Duration) error

	// Close releases the provider's resources.
	Close() error
}
