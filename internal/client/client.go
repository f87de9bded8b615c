package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"chatdrop/internal/chat"
	"chatdrop/internal/config"
	"chatdrop/internal/protocol"
	"chatdrop/internal/protocol/frame"
)

var ErrConnectFailed = errors.New("client: connect failed")

var localUsage = []string{
	".file <path>    sends a local file for storing under files/",
	".image <path>   sends a local image for storing under images/",
	".info <text>    logs an info note on the server",
	".help           lists the server's commands",
	".quit           ends the session",
	"any other line is sent as a chat message",
}

// Client dials the server and runs a strictly alternating send/receive
// session: one outstanding request at a time, responses in request order.
type Client struct {
	cfg     config.ClientConfig
	backoff Backoff
	limits  frame.Limits
	log     zerolog.Logger
	rng     *rand.Rand
}

func New(cfg config.ClientConfig, logger zerolog.Logger) *Client {
	return &Client{
		cfg:     cfg,
		backoff: DefaultBackoff(),
		limits:  frame.DefaultLimits(),
		log:     logger,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Connect dials the configured address with bounded jittered-backoff retry.
func (c *Client) Connect(ctx context.Context) (net.Conn, error) {
	dialer := net.Dialer{Timeout: c.cfg.ConnectTimeout}
	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxConnectAttempts; attempt++ {
		conn, err := dialer.DialContext(ctx, "tcp", c.cfg.Addr())
		if err == nil {
			return conn, nil
		}
		lastErr = err
		c.log.Warn().Int("attempt", attempt).Str("addr", c.cfg.Addr()).Err(err).Msg("dial failed")
		if attempt == c.cfg.MaxConnectAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.backoff.Delay(attempt, c.rng)):
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrConnectFailed, lastErr)
}

// Session reads input lines from in, sends them as messages over conn and
// displays each response on out. It returns on end-of-input, a quit
// acknowledgement, a transport failure, or ctx cancellation.
func (c *Client) Session(ctx context.Context, conn net.Conn, in io.Reader, out io.Writer) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	fmt.Fprintf(out, "connected to %s\n", conn.RemoteAddr())
	for _, line := range localUsage {
		fmt.Fprintf(out, "  %s\n", line)
	}

	reader := bufio.NewReader(conn)
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		input := ParseLine(line)
		msg, err := BuildMessage(input)
		if err != nil {
			// Local failure: report and keep the session alive, nothing
			// goes over the wire.
			fmt.Fprintf(out, "error: %s\n", err)
			continue
		}

		if err := protocol.EncodeMessage(conn, msg, c.limits); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("send request: %w", err)
		}
		resp, err := protocol.ReadResponse(reader, c.limits)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("receive response: %w", err)
		}

		display(out, resp)
		if input.IsCommand && input.Name == chat.KeywordQuit && !resp.IsError() {
			return nil
		}
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("read input: %w", err)
	}
	return nil
}

func display(out io.Writer, resp protocol.Response) {
	if resp.IsError() {
		if resp.Code != "" {
			fmt.Fprintf(out, "error[%s]: %s\n", resp.Code, resp.Body)
			return
		}
		fmt.Fprintf(out, "error: %s\n", resp.Body)
		return
	}
	fmt.Fprintf(out, "ok: %s\n", resp.Body)
}
