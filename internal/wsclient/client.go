// Package wsclient is a client for the murmur realtime endpoint. It trades a
// bearer token for a one-time ticket and reads notification events from
// /api/ws.
package wsclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"murmur/internal/notifications"

	"github.com/gorilla/websocket"
)

// ErrTicketRejected is returned when the server refuses the upgrade.
var ErrTicketRejected = errors.New("websocket upgrade rejected")

// Client talks to one murmur API base URL, e.g. "http://localhost:8375".
type Client struct {
	BaseURL string
	Token   string

	HTTP   *http.Client
	Dialer *websocket.Dialer
}

// New returns a Client with bounded HTTP and handshake timeouts.
func New(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: 5 * time.Second},
		Dialer:  &websocket.Dialer{HandshakeTimeout: 5 * time.Second},
	}
}

// Ticket requests a single-use websocket ticket.
func (c *Client) Ticket(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/ws/ticket", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("request ticket: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("request ticket: status %d", resp.StatusCode)
	}

	var out struct {
		Ticket string `json:"ticket"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode ticket: %w", err)
	}
	if out.Ticket == "" {
		return "", errors.New("empty ticket")
	}
	return out.Ticket, nil
}

// socketURL maps the API base URL onto the ws/wss endpoint for ticket.
func (c *Client) socketURL(ticket string) (string, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http", "":
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/api/ws"
	u.RawQuery = url.Values{"ticket": {ticket}}.Encode()
	return u.String(), nil
}

// DialTicket opens the socket with an already issued ticket.
func (c *Client) DialTicket(ctx context.Context, ticket string) (*websocket.Conn, error) {
	target, err := c.socketURL(ticket)
	if err != nil {
		return nil, err
	}
	conn, resp, err := c.Dialer.DialContext(ctx, target, nil)
	if resp != nil && resp.Body != nil {
		defer func() { _ = resp.Body.Close() }()
	}
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("%w: status %d", ErrTicketRejected, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", c.BaseURL, err)
	}
	return conn, nil
}

// Dial requests a ticket and opens the socket with it.
func (c *Client) Dial(ctx context.Context) (*websocket.Conn, error) {
	ticket, err := c.Ticket(ctx)
	if err != nil {
		return nil, err
	}
	return c.DialTicket(ctx, ticket)
}

// Listen reads events from conn and hands each to handle until ctx ends or
// the server closes the socket. A normal or going-away close returns nil.
func Listen(ctx context.Context, conn *websocket.Conn, handle func(notifications.Event)) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read event: %w", err)
		}

		var ev notifications.Event
		if err := json.Unmarshal(data, &ev); err != nil {
			continue
		}
		handle(ev)
	}
}
