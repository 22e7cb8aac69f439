// Package mcpclient implements the client side of the Mira MCP endpoint
// over streamable HTTP: a three-step exchange (initialize, initialized
// notification, tools/call) authenticated by a bearer token, with session
// continuity carried in the Mcp-Session-Id header and tool results framed
// as server-sent events.
package mcpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/oklog/ulid/v2"

	"github.com/ConaryLabs/Mira/internal/errors"
)

// protocolVersion is the MCP revision the Mira daemon speaks.
const protocolVersion = "2025-06-18"

// sessionHeader carries the MCP session id between handshake steps.
const sessionHeader = "Mcp-Session-Id"

// Timeouts bounds each step of the exchange.
type Timeouts struct {
	Probe  time.Duration
	Init   time.Duration
	Notify time.Duration
	Call   time.Duration
}

// DefaultTimeouts returns the standard per-step limits.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Probe:  2 * time.Second,
		Init:   5 * time.Second,
		Notify: 5 * time.Second,
		Call:   10 * time.Second,
	}
}

// Client talks to one Mira MCP endpoint.
type Client struct {
	url      string
	token    string
	timeouts Timeouts
	http     *http.Client
}

// New creates a client for the given endpoint. Timeouts are applied per
// step via request contexts, not on the underlying http.Client.
func New(url, token string, timeouts Timeouts) *Client {
	return &Client{
		url:      url,
		token:    token,
		timeouts: timeouts,
		http:     &http.Client{},
	}
}

// rpcRequest is a JSON-RPC 2.0 request or, when ID is empty, a notification.
type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id,omitempty"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// rpcError is a JSON-RPC 2.0 error object.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// rpcResponse is a JSON-RPC 2.0 response envelope.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
}

// initializeParams describes the protocol version and client identity sent
// in the initialize step.
type initializeParams struct {
	ProtocolVersion string                 `json:"protocolVersion"`
	Capabilities    mcp.ClientCapabilities `json:"capabilities"`
	ClientInfo      mcp.Implementation     `json:"clientInfo"`
}

// callParams names the target tool and its arguments for tools/call.
type callParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// Probe checks whether the endpoint is reachable at all. Any HTTP response,
// including an authentication rejection, counts as reachable; only a
// transport failure or timeout is an error.
func (c *Client) Probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.Probe)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return errors.NewNetwork("probe", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.NewNetwork("probe", err)
	}
	drain(resp)
	return nil
}

// CallTool invokes one named tool on the endpoint, running the full
// three-step exchange: initialize, notifications/initialized, tools/call.
// localSessionID is used as the session identifier if the server does not
// assign one in the initialize response. The returned payload is the
// JSON-RPC result of the tools/call response. No retries are attempted.
func (c *Client) CallTool(ctx context.Context, localSessionID, tool string, args map[string]any) (json.RawMessage, error) {
	session, err := c.initialize(ctx, localSessionID)
	if err != nil {
		return nil, err
	}

	if err := c.notifyInitialized(ctx, session); err != nil {
		return nil, err
	}

	return c.callTool(ctx, session, tool, args)
}

// initialize performs the first handshake step and returns the session id:
// the server-assigned one from the response header, or fallback if absent.
func (c *Client) initialize(ctx context.Context, fallback string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.Init)
	defer cancel()

	envelope := rpcRequest{
		JSONRPC: mcp.JSONRPC_VERSION,
		ID:      newRequestID(),
		Method:  "initialize",
		Params: initializeParams{
			ProtocolVersion: protocolVersion,
			Capabilities:    mcp.ClientCapabilities{},
			ClientInfo: mcp.Implementation{
				Name:    "mira-precompact-hook",
				Version: "1.0",
			},
		},
	}

	resp, err := c.post(ctx, envelope, "")
	if err != nil {
		return "", errors.NewNetwork("initialize", err)
	}
	defer drain(resp)

	if resp.StatusCode >= 400 {
		return "", errors.NewProtocol("initialize", fmt.Sprintf("unexpected status %d", resp.StatusCode))
	}

	session := resp.Header.Get(sessionHeader)
	if session == "" {
		session = fallback
	}
	return session, nil
}

// notifyInitialized sends the fire-and-forget initialized notification.
func (c *Client) notifyInitialized(ctx context.Context, session string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.Notify)
	defer cancel()

	envelope := rpcRequest{
		JSONRPC: mcp.JSONRPC_VERSION,
		Method:  "notifications/initialized",
	}

	resp, err := c.post(ctx, envelope, session)
	if err != nil {
		return errors.NewNetwork("notifications/initialized", err)
	}
	drain(resp)
	return nil
}

// callTool performs the tools/call step and extracts the result from the
// first SSE data line of the response body.
func (c *Client) callTool(ctx context.Context, session, tool string, args map[string]any) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.Call)
	defer cancel()

	envelope := rpcRequest{
		JSONRPC: mcp.JSONRPC_VERSION,
		ID:      newRequestID(),
		Method:  "tools/call",
		Params:  callParams{Name: tool, Arguments: args},
	}

	resp, err := c.post(ctx, envelope, session)
	if err != nil {
		return nil, errors.NewNetwork("tools/call", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, errors.NewProtocol("tools/call", fmt.Sprintf("unexpected status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewNetwork("tools/call", err)
	}

	payload, ok := firstDataLine(string(body))
	if !ok {
		return nil, errors.NewProtocol("tools/call", "no data frame in response")
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal([]byte(payload), &rpcResp); err != nil {
		return nil, errors.NewProtocol("tools/call", fmt.Sprintf("invalid data frame: %v", err))
	}
	if rpcResp.Error != nil {
		return nil, errors.NewProtocol("tools/call",
			fmt.Sprintf("rpc error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message))
	}

	return rpcResp.Result, nil
}

// post sends one JSON-RPC envelope. session, when non-empty, is attached
// via the session header.
func (c *Client) post(ctx context.Context, envelope rpcRequest, session string) (*http.Response, error) {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	req.Header.Set("Authorization", "Bearer "+c.token)
	if session != "" {
		req.Header.Set(sessionHeader, session)
	}

	return c.http.Do(req)
}

// firstDataLine returns the payload of the first "data: " framed line.
func firstDataLine(body string) (string, bool) {
	for _, line := range strings.Split(body, "\n") {
		if payload, ok := strings.CutPrefix(line, "data: "); ok {
			return strings.TrimRight(payload, "\r"), true
		}
	}
	return "", false
}

// newRequestID returns a unique JSON-RPC request id.
func newRequestID() string {
	return ulid.Make().String()
}

// drain consumes and closes a response body so the connection can be reused.
func drain(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
