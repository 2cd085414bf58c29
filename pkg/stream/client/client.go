// Package client reads the line-delimited JSON stream a viewer consumes:
// partial-line buffering across TCP segments and tolerance of malformed
// lines, plus a rolling display window.
package client

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net"

	"github.com/rs/zerolog"

	"github.com/Scruff-AI/PiEEG-16/pkg/stream/output"
)

// maxLineSize bounds one wire message: a 2 s batch of 16 channels runs to
// tens of kilobytes of JSON, well past bufio's default.
const maxLineSize = 4 * 1024 * 1024

type Client struct {
	conn    net.Conn
	scanner *bufio.Scanner
	logger  zerolog.Logger
}

func Dial(addr string, logger zerolog.Logger) (*Client, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("client: connecting to %s: %w", addr, err)
	}
	return NewClient(conn, logger), nil
}

// NewClient wraps an established connection; Dial is the usual entry point.
func NewClient(conn net.Conn, logger zerolog.Logger) *Client {
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Client{conn: conn, scanner: scanner, logger: logger}
}

// Next blocks for the next well-formed message, skipping malformed lines.
// It returns io.EOF when the server closes the stream.
func (c *Client) Next() (*output.Message, error) {
	for c.scanner.Scan() {
		line := c.scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var msg output.Message
		if err := json.Unmarshal(line, &msg); err != nil {
			c.logger.Debug().Err(err).Msg("skipping malformed line")
			continue
		}
		return &msg, nil
	}
	if err := c.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

func (c *Client) Close() error {
	return c.conn.Close()
}
