package socket

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/corey/hscd/internal/domain/search"
	"github.com/corey/hscd/internal/ports"
)

const defaultTimeout = 5 * time.Second

// Client connects to the hscd daemon over a Unix socket.
type Client struct {
	sockPath string
}

var _ ports.Querier = (*Client)(nil)

// NewClient creates a client that will connect to the given socket path.
func NewClient(sockPath string) *Client {
	return &Client{sockPath: sockPath}
}

// ExecuteQuery sends a query. The context deadline, if any, bounds the whole
// round-trip.
func (c *Client) ExecuteQuery(ctx context.Context, req ports.QueryRequest) (*ports.QueryResponse, error) {
	var result QueryResult
	if err := c.do(ctx, MethodQuery, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Features lists the dataset's features.
func (c *Client) Features() (*FeaturesResult, error) {
	var result FeaturesResult
	if err := c.do(context.Background(), MethodFeatures, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Presets lists saved presets.
func (c *Client) Presets() (*PresetsResult, error) {
	var result PresetsResult
	if err := c.do(context.Background(), MethodPresets, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Learn saves features as a preset called name.
func (c *Client) Learn(name string, features search.QueryVector) (*ports.Preset, error) {
	var result ports.Preset
	if err := c.do(context.Background(), MethodLearn, LearnParams{Name: name, Features: features}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Forget deletes a preset.
func (c *Client) Forget(name string) error {
	return c.do(context.Background(), MethodForget, ForgetParams{Name: name}, nil)
}

// Reload asks the daemon to re-read its dataset, with an extended timeout.
func (c *Client) Reload() (*ReloadResult, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	var result ReloadResult
	if err := c.do(ctx, MethodReload, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Health sends a health check request.
func (c *Client) Health() (*HealthResult, error) {
	var result HealthResult
	if err := c.do(context.Background(), MethodHealth, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Shutdown sends a shutdown request to the daemon.
func (c *Client) Shutdown() error {
	return c.do(context.Background(), MethodShutdown, nil, nil)
}

// Ping checks if the daemon is reachable.
func (c *Client) Ping() bool {
	conn, err := net.DialTimeout("unix", c.sockPath, 500*time.Millisecond)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// do sends one request and decodes its result into target (if non-nil).
func (c *Client) do(ctx context.Context, method string, params interface{}, target interface{}) error {
	resp, err := c.call(ctx, Request{ID: uuid.NewString(), Method: method, Params: params})
	if err != nil {
		return err
	}
	if target == nil {
		return nil
	}

	resultJSON, err := json.Marshal(resp.Result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := json.Unmarshal(resultJSON, target); err != nil {
		return fmt.Errorf("unmarshal result: %w", err)
	}
	return nil
}

func (c *Client) call(ctx context.Context, req Request) (*Response, error) {
	var d net.Dialer
	dialCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	conn, err := d.DialContext(dialCtx, "unix", c.sockPath)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()

	// Set deadline for the whole request/response
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(defaultTimeout)
	}
	conn.SetDeadline(deadline)

	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	data = append(data, '\n')
	if _, err := conn.Write(data); err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read: %w", err)
		}
		return nil, fmt.Errorf("empty response")
	}

	var resp Response
	if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if resp.ID != req.ID {
		return nil, fmt.Errorf("response id %q does not match request %q", resp.ID, req.ID)
	}
	if resp.Error != "" {
		if resp.Code == CodeInvalidArgument {
			return nil, fmt.Errorf("server error: %s: %w", resp.Error, search.ErrInvalidArgument)
		}
		return nil, fmt.Errorf("server error: %s", resp.Error)
	}
	return &resp, nil
}
