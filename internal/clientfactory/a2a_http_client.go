package clientfactory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/agntcy/go-bridge-sdk/internal/a2a"
	"github.com/agntcy/go-bridge-sdk/internal/transport"
)

// httpJSONRPCClient is the jsonrpc-transport A2A client: a plain JSON-RPC
// request per call over HTTP POST, grounded on the teacher's
// internal/mcp/discovery.go makeSSERequest (same POST-a-JSON-RPC-envelope
// shape, generalized from MCP's initialize/tools handshake to A2A's
// message/send and tasks/* methods).
type httpJSONRPCClient struct {
	baseURL string
	url     string
	client  *http.Client
	logger  *logrus.Logger
}

func newHTTPJSONRPCClient(baseURL, url string, logger *logrus.Logger) *httpJSONRPCClient {
	endpoint := url
	if endpoint == "" {
		endpoint = baseURL
	}
	return &httpJSONRPCClient{baseURL: baseURL, url: endpoint, client: &http.Client{}, logger: logger}
}

func (c *httpJSONRPCClient) call(ctx context.Context, method string, params interface{}) (a2a.Task, error) {
	var task a2a.Task
	raw, err := json.Marshal(params)
	if err != nil {
		return task, err
	}
	req := a2a.JSONRPCRequest{JSONRPC: "2.0", ID: uuid.NewString(), Method: method, Params: raw}
	body, err := json.Marshal(req)
	if err != nil {
		return task, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return task, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return task, fmt.Errorf("%w: %v", transport.ErrConnect, err)
	}
	defer httpResp.Body.Close()

	var resp a2a.JSONRPCResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return task, fmt.Errorf("%w: decode %s response: %v", transport.ErrDecode, method, err)
	}
	if resp.Error != nil {
		return task, resp.Error
	}
	if err := json.Unmarshal(resp.Result, &task); err != nil {
		return task, fmt.Errorf("%w: decode %s result: %v", transport.ErrDecode, method, err)
	}
	return task, nil
}

func (c *httpJSONRPCClient) SendMessage(ctx context.Context, msg a2a.Message) (a2a.Task, error) {
	return c.call(ctx, "message/send", map[string]interface{}{"message": msg})
}

func (c *httpJSONRPCClient) GetTask(ctx context.Context, taskID string) (a2a.Task, error) {
	return c.call(ctx, "tasks/get", map[string]interface{}{"id": taskID})
}

func (c *httpJSONRPCClient) CancelTask(ctx context.Context, taskID string) (a2a.Task, error) {
	return c.call(ctx, "tasks/cancel", map[string]interface{}{"id": taskID})
}

func (c *httpJSONRPCClient) Close() error {
	return nil
}
