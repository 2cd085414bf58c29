// Package output fans sample batches out to visualization clients as
// newline-delimited JSON over TCP. The server only pushes; clients never
// send application data back.
package output

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Scruff-AI/PiEEG-16/pkg/eeg"
)

const (
	// acceptTimeout bounds each Accept call so the loop observes
	// cancellation promptly.
	acceptTimeout = time.Second
	// writeTimeout bounds each client write so a stalled client cannot
	// block the fixed-rate producer.
	writeTimeout = time.Second
)

// Message is one wire protocol line.
type Message struct {
	Timestamp    float64     `json:"timestamp"`
	Channels     int         `json:"channels"`
	SamplingRate int         `json:"sampling_rate"`
	Data         [][]float64 `json:"data"`
}

// TCPOutput owns the listening socket and the live client set. The set is
// the one resource shared between the accept path and the broadcast path, so
// every add, remove, and iteration goes through the mutex, and broadcast
// iterates a snapshot.
type TCPOutput struct {
	addr   string
	logger zerolog.Logger

	mu      sync.Mutex
	ln      *net.TCPListener
	clients map[net.Conn]string
	closed  bool
}

func NewTCPOutput(ip string, port int, logger zerolog.Logger) *TCPOutput {
	return &TCPOutput{
		addr:    net.JoinHostPort(ip, fmt.Sprintf("%d", port)),
		logger:  logger,
		clients: make(map[net.Conn]string),
	}
}

// Listen binds the configured address. A bind failure is fatal at startup.
func (o *TCPOutput) Listen() error {
	addr, err := net.ResolveTCPAddr("tcp", o.addr)
	if err != nil {
		return fmt.Errorf("output: resolving %s: %w", o.addr, err)
	}
	ln, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return fmt.Errorf("output: binding %s: %w", o.addr, err)
	}
	o.mu.Lock()
	o.ln = ln
	o.mu.Unlock()
	o.logger.Info().Str("addr", ln.Addr().String()).Msg("tcp server listening")
	return nil
}

// Addr is the bound address, nil before Listen.
func (o *TCPOutput) Addr() net.Addr {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.ln == nil {
		return nil
	}
	return o.ln.Addr()
}

// Start accepts clients until the context is cancelled or the listener is
// closed. Each accepted connection gets a supervisory goroutine that waits
// for the connection to err and then removes it.
func (o *TCPOutput) Start(ctx context.Context) error {
	o.mu.Lock()
	ln := o.ln
	o.mu.Unlock()
	if ln == nil {
		return fmt.Errorf("output: Start before Listen")
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := ln.SetDeadline(time.Now().Add(acceptTimeout)); err != nil {
			if errors.Is(err, net.ErrClosed) {
				return ctx.Err()
			}
			return err
		}
		conn, err := ln.Accept()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			if errors.Is(err, net.ErrClosed) {
				return ctx.Err()
			}
			return err
		}
		o.add(conn)
		go o.watch(conn)
	}
}

func (o *TCPOutput) add(conn net.Conn) {
	peer := conn.RemoteAddr().String()
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		conn.Close()
		return
	}
	o.clients[conn] = peer
	n := len(o.clients)
	o.mu.Unlock()
	o.logger.Info().Str("peer", peer).Int("clients", n).Msg("client connected")
}

// watch blocks until the connection errs. Inbound bytes are not part of the
// protocol and are discarded.
func (o *TCPOutput) watch(conn net.Conn) {
	buf := make([]byte, 64)
	for {
		if _, err := conn.Read(buf); err != nil {
			o.drop(conn, err)
			return
		}
	}
}

func (o *TCPOutput) drop(conn net.Conn, reason error) {
	o.mu.Lock()
	peer, ok := o.clients[conn]
	if ok {
		delete(o.clients, conn)
	}
	n := len(o.clients)
	o.mu.Unlock()
	conn.Close()
	if ok {
		o.logger.Info().Str("peer", peer).Int("clients", n).Err(reason).Msg("client disconnected")
	}
}

func (o *TCPOutput) ClientCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.clients)
}

func (o *TCPOutput) snapshot() []net.Conn {
	o.mu.Lock()
	defer o.mu.Unlock()
	conns := make([]net.Conn, 0, len(o.clients))
	for conn := range o.clients {
		conns = append(conns, conn)
	}
	return conns
}

// Broadcast serializes the batch once and writes it to every current client.
// A write failure drops that client and delivery to the rest continues.
// With no clients or a nil batch it does nothing.
func (o *TCPOutput) Broadcast(b *eeg.Batch) {
	if b == nil {
		return
	}
	conns := o.snapshot()
	if len(conns) == 0 {
		return
	}
	line, err := json.Marshal(Message{
		Timestamp:    float64(time.Now().UnixNano()) / 1e9,
		Channels:     b.Channels(),
		SamplingRate: b.Rate,
		Data:         b.Data,
	})
	if err != nil {
		o.logger.Error().Err(err).Msg("marshaling batch")
		return
	}
	line = append(line, '\n')
	for _, conn := range conns {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if _, err := conn.Write(line); err != nil {
			o.drop(conn, err)
		}
	}
}

// Close shuts the listener and every live client. Idempotent.
func (o *TCPOutput) Close() error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil
	}
	o.closed = true
	ln := o.ln
	conns := make([]net.Conn, 0, len(o.clients))
	for conn := range o.clients {
		conns = append(conns, conn)
	}
	o.clients = make(map[net.Conn]string)
	o.mu.Unlock()

	var err error
	if ln != nil {
		err = ln.Close()
	}
	for _, conn := range conns {
		conn.Close()
	}
	return err
}
