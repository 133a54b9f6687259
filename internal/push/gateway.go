package push

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// controlTimeout bounds each control-frame exchange with the gateway.
const controlTimeout = 10 * time.Second

// frame is the wire format exchanged with the push gateway. The gateway
// speaks a small JSON protocol over a single websocket: the first frame after
// connect is a status frame carrying the permission state, control exchanges
// (request_permission, token) are request/reply, and once the client starts
// listening the gateway streams notification frames.
type frame struct {
	Type       string            `json:"type"`
	Permission string            `json:"permission,omitempty"`
	ProjectID  string            `json:"project_id,omitempty"`
	Token      string            `json:"token,omitempty"`
	Event      string            `json:"event,omitempty"`
	Title      string            `json:"title,omitempty"`
	Body       string            `json:"body,omitempty"`
	Data       map[string]string `json:"data,omitempty"`
	Message    string            `json:"message,omitempty"`
}

// GatewayOpts holds parameters for creating a GatewayProvider.
type GatewayOpts struct {
	// URL is the websocket endpoint of the push gateway (ws:// or wss://).
	URL string
	// Physical reports whether this runtime counts as a physical device.
	Physical bool
	// Notifier displays notifications locally. May be nil.
	Notifier *Notifier
}

// GatewayProvider implements Provider against a websocket push gateway.
type GatewayProvider struct {
	url      string
	physical bool
	notifier *Notifier

	mu         sync.Mutex
	conn       *websocket.Conn
	permission PermissionStatus
	closed     bool
}

// NewGatewayProvider creates a GatewayProvider. The connection is
// established lazily on the first control call.
func NewGatewayProvider(opts GatewayOpts) (*GatewayProvider, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("push: gateway: url is required")
	}
	return &GatewayProvider{
		url:        opts.URL,
		physical:   opts.Physical,
		notifier:   opts.Notifier,
		permission: PermissionUndetermined,
	}, nil
}

// PhysicalDevice reports whether this runtime counts as a physical device.
func (g *GatewayProvider) PhysicalDevice() bool {
	return g.physical
}

// connect dials the gateway and reads the initial status frame. Callers must
// hold g.mu.
func (g *GatewayProvider) connect(ctx context.Context) error {
	if g.closed {
		return fmt.Errorf("push: gateway: provider closed")
	}
	if g.conn != nil {
		return nil
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, g.url, nil)
	if err != nil {
		return fmt.Errorf("push: gateway: dial %s: %w", g.url, err)
	}

	var hello frame
	conn.SetReadDeadline(time.Now().Add(controlTimeout))
	if err := conn.ReadJSON(&hello); err != nil {
		conn.Close()
		return fmt.Errorf("push: gateway: read status: %w", err)
	}
	if hello.Type != "status" {
		conn.Close()
		return fmt.Errorf("push: gateway: unexpected first frame %q", hello.Type)
	}

	g.conn = conn
	g.permission = PermissionStatus(hello.Permission)
	return nil
}

// Permissions returns the gateway-reported permission status without
// prompting.
func (g *GatewayProvider) Permissions(ctx context.Context) (PermissionStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.connect(ctx); err != nil {
		return "", err
	}
	return g.permission, nil
}

// RequestPermissions asks the gateway to prompt and returns the outcome.
func (g *GatewayProvider) RequestPermissions(ctx context.Context) (PermissionStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.connect(ctx); err != nil {
		return "", err
	}

	reply, err := g.roundTrip(frame{Type: "request_permission"})
	if err != nil {
		return "", err
	}
	g.permission = PermissionStatus(reply.Permission)
	return g.permission, nil
}

// DeviceToken requests the device push token for the given project.
func (g *GatewayProvider) DeviceToken(ctx context.Context, projectID string) (string, error) {
	if projectID == "" {
		return "", fmt.Errorf("push: gateway: project id is required")
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.connect(ctx); err != nil {
		return "", err
	}

	reply, err := g.roundTrip(frame{Type: "token", ProjectID: projectID})
	if err != nil {
		return "", err
	}
	if reply.Token == "" {
		return "", fmt.Errorf("push: gateway: empty token for project %s", projectID)
	}
	return reply.Token, nil
}

// roundTrip sends one control frame and reads the reply. Callers must hold
// g.mu and have connected.
func (g *GatewayProvider) roundTrip(req frame) (*frame, error) {
	g.conn.SetWriteDeadline(time.Now().Add(controlTimeout))
	if err := g.conn.WriteJSON(req); err != nil {
		return nil, fmt.Errorf("push: gateway: write %s: %w", req.Type, err)
	}
	var reply frame
	g.conn.SetReadDeadline(time.Now().Add(controlTimeout))
	if err := g.conn.ReadJSON(&reply); err != nil {
		return nil, fmt.Errorf("push: gateway: read %s reply: %w", req.Type, err)
	}
	if reply.Type == "error" {
		return nil, fmt.Errorf("push: gateway: %s", reply.Message)
	}
	return &reply, nil
}

// Events switches the connection to streaming mode and returns the event
// channel. Control calls must not be made afterwards.
func (g *GatewayProvider) Events(ctx context.Context) (<-chan Event, error) {
	g.mu.Lock()
	if err := g.connect(ctx); err != nil {
		g.mu.Unlock()
		return nil, err
	}
	conn := g.conn
	g.mu.Unlock()

	events := make(chan Event, 16)
	done := make(chan struct{})

	// Close the conn on ctx cancellation to unblock the read loop. The
	// provider itself stays usable: the next control call reconnects. The
	// watcher exits with the read loop so an uncancelled ctx leaks nothing.
	go func() {
		select {
		case <-ctx.Done():
			select {
			case <-done:
				// Read loop already finished; nothing to unblock.
			default:
				g.closeConn()
			}
		case <-done:
		}
	}()

	go func() {
		defer close(events)
		defer close(done)
		conn.SetReadDeadline(time.Time{})
		for {
			var f frame
			if err := conn.ReadJSON(&f); err != nil {
				return
			}
			if f.Type != "notification" {
				continue
			}
			kind := EventReceived
			if f.Event == string(EventResponse) {
				kind = EventResponse
			}
			n := Notification{Title: f.Title, Body: f.Body, Data: f.Data}
			if kind == EventReceived {
				g.notifier.Display(n)
			}
			select {
			case events <- Event{Kind: kind, Notification: n, At: time.Now()}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return events, nil
}

// Schedule displays a local notification after the given delay, blocking
// until it has been shown or ctx is cancelled. Blocking keeps the delivery
// alive in short-lived CLI processes.
func (g *GatewayProvider) Schedule(ctx context.Context, n Notification, delay time.Duration) error {
	if g.notifier == nil || g.notifier.Command == "" {
		return fmt.Errorf("push: gateway: no notify command configured")
	}
	select {
	case <-time.After(delay):
	case <-ctx.Done():
		return ctx.Err()
	}
	g.notifier.Display(n)
	return nil
}

// closeConn drops the current connection without closing the provider.
func (g *GatewayProvider) closeConn() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.conn != nil {
		g.conn.Close()
		g.conn = nil
	}
}

// Close closes the gateway connection and marks the provider unusable.
func (g *GatewayProvider) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	if g.conn != nil {
		err := g.conn.Close()
		g.conn = nil
		return err
	}
	return nil
}
