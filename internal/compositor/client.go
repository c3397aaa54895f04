// drift - per-project workspace orchestration for the niri compositor
// Copyright 2026 0xPD33
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/0xPD33/drift

package compositor

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	json "github.com/goccy/go-json"
)

// ErrNoSocket means NIRI_SOCKET is not set; drift is not running under niri.
var ErrNoSocket = errors.New("NIRI_SOCKET is not set")

// Client is one connection to the niri IPC socket. The protocol is one JSON
// request line answered by one JSON reply line; after an EventStream request
// the same connection switches to a stream of JSON event lines.
type Client struct {
	conn   net.Conn
	reader *bufio.Reader
}

// Connect dials the socket named by NIRI_SOCKET.
func Connect() (*Client, error) {
	sockPath := os.Getenv("NIRI_SOCKET")
	if sockPath == "" {
		return nil, ErrNoSocket
	}
	return ConnectTo(sockPath)
}

// ConnectTo dials an explicit socket path. Used by tests against a fake
// compositor.
func ConnectTo(sockPath string) (*Client, error) {
	conn, err := net.DialTimeout("unix", sockPath, 2*time.Second)
	if err != nil {
		return nil, fmt.Errorf("connecting to compositor socket: %w", err)
	}
	return &Client{conn: conn, reader: bufio.NewReader(conn)}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// reply is the niri wire envelope: exactly one of Ok or Err is present.
type reply struct {
	Ok  *replyBody `json:"Ok,omitempty"`
	Err *string    `json:"Err,omitempty"`
}

type replyBody struct {
	Handled       *struct{}   `json:"Handled,omitempty"`
	Workspaces    []Workspace `json:"Workspaces,omitempty"`
	Windows       []Window    `json:"Windows,omitempty"`
	FocusedWindow *Window     `json:"FocusedWindow,omitempty"`
}

func (c *Client) roundTrip(request any) (*replyBody, error) {
	data, err := json.Marshal(request)
	if err != nil {
		return nil, err
	}
	if _, err := c.conn.Write(append(data, '\n')); err != nil {
		return nil, fmt.Errorf("writing request: %w", err)
	}

	line, err := c.reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("reading reply: %w", err)
	}
	var rep reply
	if err := json.Unmarshal(line, &rep); err != nil {
		return nil, fmt.Errorf("parsing reply: %w", err)
	}
	if rep.Err != nil {
		return nil, fmt.Errorf("compositor error: %s", *rep.Err)
	}
	if rep.Ok == nil {
		return nil, errors.New("compositor reply missing body")
	}
	return rep.Ok, nil
}

// Workspaces returns the current workspace list.
func (c *Client) Workspaces() ([]Workspace, error) {
	body, err := c.roundTrip("Workspaces")
	if err != nil {
		return nil, err
	}
	return body.Workspaces, nil
}

// Windows returns the current window list.
func (c *Client) Windows() ([]Window, error) {
	body, err := c.roundTrip("Windows")
	if err != nil {
		return nil, err
	}
	return body.Windows, nil
}

// FocusedWindow returns the focused window, or nil when none has focus.
func (c *Client) FocusedWindow() (*Window, error) {
	body, err := c.roundTrip("FocusedWindow")
	if err != nil {
		return nil, err
	}
	return body.FocusedWindow, nil
}

// action wraps a write action for the wire.
type action struct {
	Action map[string]any `json:"Action"`
}

func (c *Client) doAction(name string, args map[string]any) error {
	if args == nil {
		args = map[string]any{}
	}
	_, err := c.roundTrip(action{Action: map[string]any{name: args}})
	return err
}

// FocusWorkspace switches focus to the workspace with the given name.
func (c *Client) FocusWorkspace(name string) error {
	return c.doAction("FocusWorkspace", map[string]any{
		"reference": map[string]any{"Name": name},
	})
}

// Spawn launches a command inside the compositor session.
func (c *Client) Spawn(argv []string) error {
	return c.doAction("Spawn", map[string]any{"command": argv})
}

// CloseWindow asks the compositor to close the given window.
func (c *Client) CloseWindow(id uint64) error {
	return c.doAction("CloseWindow", map[string]any{"id": id})
}

// SetWorkspaceName names the focused workspace.
func (c *Client) SetWorkspaceName(name string) error {
	return c.doAction("SetWorkspaceName", map[string]any{"name": name})
}

// UnsetWorkspaceName removes the name from the named workspace.
func (c *Client) UnsetWorkspaceName(name string) error {
	return c.doAction("UnsetWorkspaceName", map[string]any{
		"reference": map[string]any{"Name": name},
	})
}

// Stream yields compositor events until the connection drops.
type Stream struct {
	client *Client
}

// EventStream switches the connection into streaming mode. The client must
// not be used for further requests afterwards.
func (c *Client) EventStream() (*Stream, error) {
	body, err := c.roundTrip("EventStream")
	if err != nil {
		return nil, err
	}
	if body.Handled == nil {
		return nil, errors.New("event stream request not handled")
	}
	return &Stream{client: c}, nil
}

// SetReadDeadline bounds the next Next call so readers can poll a shutdown
// flag between events.
func (s *Stream) SetReadDeadline(t time.Time) error {
	return s.client.conn.SetReadDeadline(t)
}

// Next reads one event from the stream.
func (s *Stream) Next() (*Event, error) {
	line, err := s.client.reader.ReadBytes('\n')
	if err != nil {
		return nil, err
	}
	var ev Event
	if err := json.Unmarshal(line, &ev); err != nil {
		return nil, fmt.Errorf("parsing event: %w", err)
	}
	return &ev, nil
}

// Close closes the stream's connection.
func (s *Stream) Close() error {
	return s.client.Close()
}
