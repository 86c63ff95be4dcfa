package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Courier.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PauseAgent stops new delivery activations for one agent.
func (c *Client) PauseAgent(agent string) (*PauseAgentResponse, error) {
	var resp PauseAgentResponse
	if err := c.client.Call("Courier.PauseAgent", PauseAgentRequest{Agent: agent}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ResumeAgent restarts delivery activations for one agent.
func (c *Client) ResumeAgent(agent string) (*ResumeAgentResponse, error) {
	var resp ResumeAgentResponse
	if err := c.client.Call("Courier.ResumeAgent", ResumeAgentRequest{Agent: agent}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AgentLog returns recent activity lines for one agent.
func (c *Client) AgentLog(req AgentLogRequest) (*AgentLogResponse, error) {
	var resp AgentLogResponse
	if err := c.client.Call("Courier.AgentLog", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueList returns a page of queue items.
func (c *Client) QueueList(req QueueListRequest) (*QueueListResponse, error) {
	var resp QueueListResponse
	if err := c.client.Call("Courier.QueueList", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueRemove removes specific items from a queue.
func (c *Client) QueueRemove(req QueueRemoveRequest) (*QueueRemoveResponse, error) {
	var resp QueueRemoveResponse
	if err := c.client.Call("Courier.QueueRemove", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueRetry requeues parked items from the error queue.
func (c *Client) QueueRetry(req QueueRetryRequest) (*QueueRetryResponse, error) {
	var resp QueueRetryResponse
	if err := c.client.Call("Courier.QueueRetry", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueClear removes all items from one queue.
func (c *Client) QueueClear(req QueueClearRequest) (*QueueClearResponse, error) {
	var resp QueueClearResponse
	if err := c.client.Call("Courier.QueueClear", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Submit enqueues a new package on one agent.
func (c *Client) Submit(req SubmitRequest) (*SubmitResponse, error) {
	var resp SubmitResponse
	if err := c.client.Call("Courier.Submit", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TestNotification triggers a notification test via the daemon.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	var resp TestNotificationResponse
	if err := c.client.Call("Courier.TestNotification", TestNotificationRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
