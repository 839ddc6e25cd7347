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

// Start requests the daemon to start processing.
func (c *Client) Start() (*StartResponse, error) {
	var resp StartResponse
	if err := c.client.Call("Slidecast.Start", StartRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stop requests the daemon to stop processing.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.client.Call("Slidecast.Stop", StopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Slidecast.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeckCreate records a new deck with the given title.
func (c *Client) DeckCreate(title string) (*DeckCreateResponse, error) {
	var resp DeckCreateResponse
	req := DeckCreateRequest{Title: title}
	if err := c.client.Call("Slidecast.DeckCreate", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeckCreateWithAudio records a new deck and attaches the audio file at
// audioPath in the same call.
func (c *Client) DeckCreateWithAudio(title, audioPath string) (*DeckCreateResponse, error) {
	var resp DeckCreateResponse
	req := DeckCreateRequest{Title: title, AudioPath: audioPath}
	if err := c.client.Call("Slidecast.DeckCreate", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeckList returns decks optionally filtered by statuses.
func (c *Client) DeckList(statuses []string) (*DeckListResponse, error) {
	var resp DeckListResponse
	req := DeckListRequest{Statuses: statuses}
	if err := c.client.Call("Slidecast.DeckList", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeckDescribe returns details for a single deck including slides.
func (c *Client) DeckDescribe(id int64) (*DeckDescribeResponse, error) {
	var resp DeckDescribeResponse
	req := DeckDescribeRequest{ID: id}
	if err := c.client.Call("Slidecast.DeckDescribe", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeckDelete removes a deck and its slides.
func (c *Client) DeckDelete(id int64) (*DeckDeleteResponse, error) {
	var resp DeckDeleteResponse
	req := DeckDeleteRequest{ID: id}
	if err := c.client.Call("Slidecast.DeckDelete", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeckReprocess restarts processing for an errored deck.
func (c *Client) DeckReprocess(id int64) (*DeckReprocessResponse, error) {
	var resp DeckReprocessResponse
	req := DeckReprocessRequest{ID: id}
	if err := c.client.Call("Slidecast.DeckReprocess", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeckRun drives one deck through the pipeline synchronously.
func (c *Client) DeckRun(id int64) (*DeckRunResponse, error) {
	var resp DeckRunResponse
	req := DeckRunRequest{ID: id}
	if err := c.client.Call("Slidecast.DeckRun", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TestNotification triggers a notification test via the daemon.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	var resp TestNotificationResponse
	if err := c.client.Call("Slidecast.TestNotification", TestNotificationRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
