// Package api implements the typed HTTP client for the RunCoach coaching
// backend. Every operation attaches the caller's bearer token when one is
// available and propagates transport and HTTP errors unchanged — no retries,
// no backoff.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// TokenSource yields the auth token to attach to outgoing requests. The
// second return reports whether a token is currently held; requests made
// without one simply omit the Authorization header.
type TokenSource interface {
	Token() (string, bool)
}

// APIError is returned for non-2xx responses, carrying the HTTP status and
// the server's message so callers can map categories (401 to bad
// credentials, and so on).
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: server returned %d", e.StatusCode)
	}
	return fmt.Sprintf("api: server returned %d: %s", e.StatusCode, e.Message)
}

// Client is the typed HTTP client for the coaching backend.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
}

// New creates a Client for the given base URL. tokens may be nil for a
// client that never authenticates. A zero timeout means no timeout.
func New(baseURL string, tokens TokenSource, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		tokens:     tokens,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Login authenticates with email and password. The returned token is NOT
// stored anywhere by this client; the caller owns session persistence.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	body := map[string]string{"email": email, "password": password}
	var out LoginResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, name, email, password string) (*User, error) {
	body := map[string]string{"name": name, "email": email, "password": password}
	var out registerResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", body, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Profile fetches the authenticated user's profile.
func (c *Client) Profile(ctx context.Context) (*User, error) {
	var out User
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Messages lists the coach conversation.
func (c *Client) Messages(ctx context.Context) ([]Message, error) {
	var out messagesResponse
	if err := c.do(ctx, http.MethodGet, "/api/chat/messages", nil, &out); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

// SendMessage sends a user message and returns the coach's reply.
func (c *Client) SendMessage(ctx context.Context, text string) (*Message, error) {
	body := map[string]string{"message": text}
	var out sendMessageResponse
	if err := c.do(ctx, http.MethodPost, "/api/chat/messages", body, &out); err != nil {
		return nil, err
	}
	if out.AIMessage == nil {
		return nil, fmt.Errorf("api: send message: response carried no aiMessage")
	}
	return out.AIMessage, nil
}

// Workouts lists the scheduled workouts.
func (c *Client) Workouts(ctx context.Context) ([]Workout, error) {
	var out workoutsResponse
	if err := c.do(ctx, http.MethodGet, "/api/workouts", nil, &out); err != nil {
		return nil, err
	}
	return out.Workouts, nil
}

// TrainingPlan fetches the current training plan.
func (c *Client) TrainingPlan(ctx context.Context) (*TrainingPlan, error) {
	var out trainingPlanResponse
	if err := c.do(ctx, http.MethodGet, "/api/training-plan", nil, &out); err != nil {
		return nil, err
	}
	return out.TrainingPlan, nil
}

// CompleteWorkout marks a workout complete (or not).
func (c *Client) CompleteWorkout(ctx context.Context, id int64, isComplete bool) (*Workout, error) {
	body := map[string]bool{"isComplete": isComplete}
	var out workoutResponse
	path := fmt.Sprintf("/api/workouts/%d/complete", id)
	if err := c.do(ctx, http.MethodPatch, path, body, &out); err != nil {
		return nil, err
	}
	if out.Workout == nil {
		return nil, fmt.Errorf("api: complete workout: response carried no workout")
	}
	return out.Workout, nil
}

// RegisterPushToken registers this device's push token with the backend.
func (c *Client) RegisterPushToken(ctx context.Context, token string) error {
	body := map[string]string{"pushToken": token}
	return c.do(ctx, http.MethodPost, "/api/notifications/register", body, nil)
}

// do performs one JSON request/response round trip.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("api: %s %s: marshal body: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("api: %s %s: %w", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.tokens != nil {
		if tok, ok := c.tokens.Token(); ok {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("api: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Message: serverMessage(resp.Body)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("api: %s %s: decode response: %w", method, path, err)
		}
	}
	return nil
}

// serverMessage extracts an error message from a failure response body.
func serverMessage(r io.Reader) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(r).Decode(&body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}
