// Package sseclient implements a minimal Server-Sent-Events client: it
// connects to the controller's /events stream, decodes "event:"/"data:"
// frames, and hands decoded packet-progress events addressed to one
// node id to a callback. Reconnects with exponential backoff, mirroring
// the controller's own frame grammar rather than scraping raw lines.
package sseclient

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"sagsin/pkg/logger"
)

// PacketProgress is the payload of a "packet-progress" event, decoded
// for the subset of fields a node agent cares about.
type PacketProgress struct {
	Status              string  `json:"status"`
	SessionID           string  `json:"sessionId"`
	NodeID              int32   `json:"nodeId"`
	CumulativeLatencyMs float64 `json:"cumulativeLatencyMs"`
	Message             string  `json:"message,omitempty"`
}

const (
	initialBackoff = 1 * time.Second
	maxBackoff     = 30 * time.Second
)

// Client polls url for SSE frames and invokes onProgress for every
// packet-progress event addressed to nodeID.
type Client struct {
	URL        string
	NodeID     int32
	OnProgress func(PacketProgress)

	httpClient *http.Client
}

// New builds a Client. A zero-value OnProgress is replaced with a no-op.
func New(url string, nodeID int32, onProgress func(PacketProgress)) *Client {
	if onProgress == nil {
		onProgress = func(PacketProgress) {}
	}
	return &Client{URL: url, NodeID: nodeID, OnProgress: onProgress, httpClient: &http.Client{}}
}

// Run connects and reconnects to the stream until ctx is done,
// reconnecting with exponential backoff capped at maxBackoff whenever
// the connection drops or fails to establish.
func (c *Client) Run(ctx context.Context) {
	backoff := initialBackoff
	for {
		if ctx.Err() != nil {
			return
		}
		if err := c.connectOnce(ctx); err != nil {
			logger.Warn("sse connection lost", "nodeId", c.NodeID, "error", err)
		} else {
			backoff = initialBackoff
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

func (c *Client) connectOnce(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	logger.Info("sse connected", "nodeId", c.NodeID, "url", c.URL)

	var eventType string
	var dataLines []string
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := scanner.Text()

		switch {
		case line == "":
			c.dispatch(eventType, strings.Join(dataLines, "\n"))
			eventType, dataLines = "", nil
		case strings.HasPrefix(line, ":"):
			// comment/keepalive, ignore
		case strings.HasPrefix(line, "event:"):
			eventType = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			dataLines = append(dataLines, strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		}
	}
	return scanner.Err()
}

func (c *Client) dispatch(eventType, data string) {
	if eventType != "packet-progress" || data == "" {
		return
	}
	var evt PacketProgress
	if err := json.Unmarshal([]byte(data), &evt); err != nil {
		return
	}
	if evt.NodeID != c.NodeID {
		return
	}
	c.OnProgress(evt)
}
