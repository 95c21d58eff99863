package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/bryanwahyu/skillscope/internal/domain/ai"
	"github.com/bryanwahyu/skillscope/internal/domain/chat"
)

// Subscribe opens the live feed of a conversation. Turns arrive on the
// returned channel until ctx ends or the server closes the stream; the error
// channel then yields at most one error and both channels close.
func (c *Client) Subscribe(ctx context.Context, id chat.ConversationID) (<-chan chat.Turn, <-chan error, error) {
	if _, err := required("conversation id", string(id)); err != nil {
		return nil, nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/conversations/"+url.PathEscape(string(id))+"/events", nil)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	c.authorize(req)

	resp, err := c.stream.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("subscribe: %v: %w", err, ai.ErrUpstream)
	}
	if err := checkStatus(resp); err != nil {
		resp.Body.Close()
		return nil, nil, err
	}

	turns := make(chan chat.Turn, 16)
	errs := make(chan error, 1)
	go func() {
		defer close(errs)
		defer close(turns)
		defer resp.Body.Close()
		if err := readEvents(ctx, bufio.NewScanner(resp.Body), turns); err != nil && ctx.Err() == nil {
			errs <- err
		}
	}()
	return turns, errs, nil
}

// readEvents parses a text/event-stream body. Only "message" events carry turns.
func readEvents(ctx context.Context, sc *bufio.Scanner, out chan<- chat.Turn) error {
	sc.Buffer(make([]byte, 0, 64<<10), 1<<20)
	event, data := "", strings.Builder{}
	for sc.Scan() {
		line := sc.Text()
		switch {
		case line == "":
			if (event == "" || event == "message") && data.Len() > 0 {
				var t chat.Turn
				if err := json.Unmarshal([]byte(data.String()), &t); err != nil {
					return fmt.Errorf("decode feed event: %v: %w", err, ai.ErrUpstreamShape)
				}
				select {
				case out <- t:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			event = ""
			data.Reset()
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
	return sc.Err()
}
