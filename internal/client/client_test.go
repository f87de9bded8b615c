package client

import (
	"bufio"
	"bytes"
	"context"
	"net"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatdrop/internal/config"
	"chatdrop/internal/protocol"
	"chatdrop/internal/protocol/frame"
)

// echoPeer answers every incoming message with a canned response until its
// end of the pipe closes.
func echoPeer(t *testing.T, conn net.Conn, respond func(protocol.Message) protocol.Response) {
	t.Helper()
	go func() {
		defer conn.Close()
		r := bufio.NewReader(conn)
		limits := frame.DefaultLimits()
		for {
			msg, err := protocol.ReadMessage(r, limits)
			if err != nil {
				return
			}
			if err := protocol.EncodeResponse(conn, respond(msg), limits); err != nil {
				return
			}
		}
	}()
}

func testClient() *Client {
	return New(config.DefaultClientConfig(), zerolog.Nop())
}

func TestSessionDisplaysOkResponses(t *testing.T) {
	local, remote := net.Pipe()
	echoPeer(t, remote, func(msg protocol.Message) protocol.Response {
		return protocol.Response{Ref: msg.ID, Status: protocol.StatusOk, Body: "message received: " + msg.Body}
	})

	var out bytes.Buffer
	err := testClient().Session(context.Background(), local, strings.NewReader("hello there\n"), &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "ok: message received: hello there")
}

func TestSessionDisplaysErrorCode(t *testing.T) {
	local, remote := net.Pipe()
	echoPeer(t, remote, func(msg protocol.Message) protocol.Response {
		return protocol.Response{Ref: msg.ID, Status: protocol.StatusError, Code: "unknown_command", Body: "unknown command: dance"}
	})

	var out bytes.Buffer
	err := testClient().Session(context.Background(), local, strings.NewReader(".dance\n"), &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "error[unknown_command]: unknown command: dance")
}

func TestSessionEndsOnQuitAck(t *testing.T) {
	local, remote := net.Pipe()
	echoPeer(t, remote, func(msg protocol.Message) protocol.Response {
		return protocol.Response{Ref: msg.ID, Status: protocol.StatusOk, Body: "closing connection, goodbye"}
	})

	var out bytes.Buffer
	// The trailing line must never be sent: the session stops at the ack.
	in := strings.NewReader(".quit\nnever sent\n")
	err := testClient().Session(context.Background(), local, in, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "ok: closing connection, goodbye")
	assert.NotContains(t, out.String(), "never sent")
}

func TestSessionKeepsRunningAfterLocalError(t *testing.T) {
	local, remote := net.Pipe()
	echoPeer(t, remote, func(msg protocol.Message) protocol.Response {
		return protocol.Response{Ref: msg.ID, Status: protocol.StatusOk, Body: "message received: " + msg.Body}
	})

	var out bytes.Buffer
	in := strings.NewReader(".file /nonexistent/path.txt\nstill chatting\n")
	err := testClient().Session(context.Background(), local, in, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "error: ")
	assert.Contains(t, out.String(), "ok: message received: still chatting")
}

func TestSessionSkipsBlankLines(t *testing.T) {
	local, remote := net.Pipe()
	var seen atomic.Int32
	echoPeer(t, remote, func(msg protocol.Message) protocol.Response {
		seen.Add(1)
		return protocol.Response{Ref: msg.ID, Status: protocol.StatusOk, Body: "ack"}
	})

	var out bytes.Buffer
	err := testClient().Session(context.Background(), local, strings.NewReader("\n   \none\n"), &out)
	require.NoError(t, err)
	assert.Equal(t, int32(1), seen.Load())
}

func TestConnectRetriesThenFails(t *testing.T) {
	cfg := config.DefaultClientConfig()
	// A closed ephemeral port refuses immediately.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	cfg.Host, cfg.Port = splitAddr(t, ln.Addr().String())
	require.NoError(t, ln.Close())
	cfg.MaxConnectAttempts = 2

	c := New(cfg, zerolog.Nop())
	c.backoff = Backoff{InitialDelay: time.Millisecond, Multiplier: 1, MaxDelay: time.Millisecond}

	_, err = c.Connect(context.Background())
	assert.ErrorIs(t, err, ErrConnectFailed)
}

func TestConnectSucceeds(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			defer conn.Close()
		}
	}()

	cfg := config.DefaultClientConfig()
	cfg.Host, cfg.Port = splitAddr(t, ln.Addr().String())

	conn, err := New(cfg, zerolog.Nop()).Connect(context.Background())
	require.NoError(t, err)
	_ = conn.Close()
}

func splitAddr(t *testing.T, addr string) (string, int) {
	t.Helper()
	tcp, err := net.ResolveTCPAddr("tcp", addr)
	require.NoError(t, err)
	return tcp.IP.String(), tcp.Port
}
