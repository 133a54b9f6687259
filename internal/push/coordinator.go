package push

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"
)

// localNotificationDelay is the fixed delay before a test notification fires.
const localNotificationDelay = 2 * time.Second

// State is the coordinator's position in the activation sequence.
type State string

const (
	StateIdle                 State = "idle"
	StateCheckingDevice       State = "checking-device"
	StateCheckingPermission   State = "checking-permission"
	StateRequestingPermission State = "requesting-permission"
	StateObtainingToken       State = "obtaining-token"
	StatePermissionDenied     State = "permission-denied"
	StateTokenError           State = "token-error"
	StateRegistering          State = "registering-with-backend"
	StateActive               State = "active"
)

// Registrar registers the device token with the coaching backend. Satisfied
// by the api client.
type Registrar interface {
	RegisterPushToken(ctx context.Context, token string) error
}

// Records persists notification and device state locally. May be nil; record
// failures are logged and never affect activation.
type Records interface {
	RecordNotification(title, body, data string) error
	SaveDevice(token string, physical, permissionGranted bool) error
}

// CoordinatorOpts holds parameters for creating a Coordinator.
type CoordinatorOpts struct {
	Provider  Provider
	Registrar Registrar
	Records   Records
	ProjectID string
}

// Coordinator runs the push activation sequence and owns the notification
// listeners for the lifetime of an authenticated session. Re-activating
// (for example when the authenticated flag flips) tears the previous
// listeners down and runs the whole sequence again; the device token is
// re-derived every time, never persisted as a credential.
type Coordinator struct {
	provider  Provider
	registrar Registrar
	records   Records
	projectID string

	mu         sync.Mutex
	state      State
	token      string
	last       *Notification
	onResponse func(Notification)
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(opts CoordinatorOpts) (*Coordinator, error) {
	if opts.Provider == nil {
		return nil, fmt.Errorf("push: coordinator: provider is required")
	}
	return &Coordinator{
		provider:  opts.Provider,
		registrar: opts.Registrar,
		records:   opts.Records,
		projectID: opts.ProjectID,
		state:     StateIdle,
	}, nil
}

// Activate runs the activation sequence and returns the terminal state.
// Listeners are installed regardless of the token outcome. When
// authenticated is false the token is still obtained (for display purposes)
// but never sent to the backend.
func (c *Coordinator) Activate(ctx context.Context, authenticated bool) State {
	c.teardownListeners()
	c.installListeners(ctx)

	c.setState(StateCheckingDevice)
	if !c.provider.PhysicalDevice() {
		// Simulators never produce a token.
		log.Printf("push: not a physical device, skipping registration")
		return c.setState(StateIdle)
	}

	c.setState(StateCheckingPermission)
	status, err := c.provider.Permissions(ctx)
	if err != nil {
		log.Printf("push: query permissions: %v", err)
		return c.setState(StateTokenError)
	}
	if status != PermissionGranted {
		c.setState(StateRequestingPermission)
		status, err = c.provider.RequestPermissions(ctx)
		if err != nil {
			log.Printf("push: request permissions: %v", err)
			return c.setState(StateTokenError)
		}
		if status != PermissionGranted {
			log.Printf("push: permission not granted (%s)", status)
			return c.setState(StatePermissionDenied)
		}
	}

	c.setState(StateObtainingToken)
	if c.projectID == "" {
		log.Printf("push: missing project id, cannot request a token")
		return c.setState(StateTokenError)
	}
	token, err := c.provider.DeviceToken(ctx, c.projectID)
	if err != nil {
		log.Printf("push: obtain device token: %v", err)
		return c.setState(StateTokenError)
	}

	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
	if c.records != nil {
		if err := c.records.SaveDevice(token, true, true); err != nil {
			log.Printf("push: save device record: %v", err)
		}
	}

	if authenticated && c.registrar != nil {
		c.setState(StateRegistering)
		// A registration failure does not unwind the already-obtained token.
		if err := c.registrar.RegisterPushToken(ctx, token); err != nil {
			log.Printf("push: register token with backend: %v", err)
		}
	}

	return c.setState(StateActive)
}

// installListeners subscribes to the provider's event stream. Failures are
// logged; activation continues without listeners.
func (c *Coordinator) installListeners(ctx context.Context) {
	listenCtx, cancel := context.WithCancel(ctx)
	events, err := c.provider.Events(listenCtx)
	if err != nil {
		cancel()
		log.Printf("push: subscribe to events: %v", err)
		return
	}

	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for ev := range events {
			switch ev.Kind {
			case EventReceived:
				c.handleReceived(ev.Notification)
			case EventResponse:
				c.handleResponse(ev.Notification)
			}
		}
	}()
}

// teardownListeners releases the current subscription, if any.
func (c *Coordinator) teardownListeners() {
	c.mu.Lock()
	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()
	if cancel != nil {
		cancel()
		c.wg.Wait()
	}
}

func (c *Coordinator) handleReceived(n Notification) {
	c.mu.Lock()
	copied := n
	c.last = &copied
	c.mu.Unlock()

	if c.records != nil {
		data := "{}"
		if b, err := json.Marshal(n.Data); err == nil {
			data = string(b)
		}
		if err := c.records.RecordNotification(n.Title, n.Body, data); err != nil {
			log.Printf("push: record notification: %v", err)
		}
	}
}

func (c *Coordinator) handleResponse(n Notification) {
	c.mu.Lock()
	fn := c.onResponse
	c.mu.Unlock()
	if fn != nil {
		fn(n)
	}
	// Hook point for navigation on tap; no default behavior.
}

// OnResponse registers a callback for notification tap events.
func (c *Coordinator) OnResponse(fn func(Notification)) {
	c.mu.Lock()
	c.onResponse = fn
	c.mu.Unlock()
}

// SendLocal delivers a local notification after a fixed short delay,
// independent of the activation state machine. It blocks until the
// notification has been shown. Used for diagnostics.
func (c *Coordinator) SendLocal(ctx context.Context, title, body string, data map[string]string) error {
	n := Notification{Title: title, Body: body, Data: data}
	if err := c.provider.Schedule(ctx, n, localNotificationDelay); err != nil {
		return fmt.Errorf("push: schedule local notification: %w", err)
	}
	return nil
}

// State returns the coordinator's current state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Token returns the device push token obtained by the last activation.
func (c *Coordinator) Token() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token, c.token != ""
}

// LastNotification returns the most recently received notification.
func (c *Coordinator) LastNotification() (*Notification, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil {
		return nil, false
	}
	copied := *c.last
	return &copied, true
}

// Close releases the listeners and the underlying provider.
func (c *Coordinator) Close() error {
	c.teardownListeners()
	return c.provider.Close()
}

func (c *Coordinator) setState(s State) State {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
	return s
}
