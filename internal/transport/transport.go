// Package transport implements BioGuard's TLS/TCP listener: one
// goroutine per connection, each framing requests and responses with a
// 16-bit big-endian length prefix over UTF-8 text, per SPEC_FULL.md §6's
// wire protocol. Grounded on original_source's SSLTCPServer (accept
// loop spawning one handler per client) and ClientHandler (one read,
// one dispatch, one write per connection); the listener's Start/Stop
// lifecycle is
// adapted from wisefido-data/internal/service.Server, the closest
// teacher-family analogue to a listening server, generalized from
// net/http.Server to a raw tls.Listener since BioGuard's wire protocol
// is not HTTP.
package transport

import (
	"context"
	"crypto/tls"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
)

// maxFrameLength bounds a single frame's body to the 16-bit length
// prefix's own range, guarding against a malicious or corrupted prefix
// causing an unbounded allocation.
const maxFrameLength = 1<<16 - 1

// Handler processes one decoded request frame and returns the response
// text to frame back to the client.
type Handler func(request string) string

// Server is BioGuard's TLS/TCP listener.
type Server struct {
	addr      string
	tlsConfig *tls.Config
	handler   Handler
	logger    *zap.Logger

	mu       sync.Mutex
	listener net.Listener
	conns    sync.WaitGroup
}

// New creates a Server listening on addr with tlsConfig, dispatching
// every decoded request frame to handler.
func New(addr string, tlsConfig *tls.Config, handler Handler, logger *zap.Logger) *Server {
	return &Server{addr: addr, tlsConfig: tlsConfig, handler: handler, logger: logger}
}

// Start opens the TLS listener and accepts connections until Stop
// closes it. It blocks, so callers run it in its own goroutine.
func (s *Server) Start() error {
	listener, err := tls.Listen("tcp", s.addr, s.tlsConfig)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	s.logger.Info("bioguard TLS listener started", zap.String("addr", s.addr))

	for {
		conn, acceptErr := listener.Accept()
		if acceptErr != nil {
			if errors.Is(acceptErr, net.ErrClosed) {
				return nil
			}
			s.logger.Warn("accept failed", zap.Error(acceptErr))
			continue
		}
		s.conns.Add(1)
		go s.handleConnection(conn)
	}
}

// Stop closes the listener and waits (bounded by ctx) for in-flight
// connections to finish their current request.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	listener := s.listener
	s.mu.Unlock()

	if listener == nil {
		return nil
	}
	if err := listener.Close(); err != nil {
		return err
	}

	done := make(chan struct{})
	go func() {
		s.conns.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer s.conns.Done()
	defer conn.Close()

	remote := conn.RemoteAddr().String()
	s.logger.Info("client connected", zap.String("remote", remote))

	request, err := readFrame(conn)
	if err != nil {
		if !errors.Is(err, io.EOF) {
			s.logger.Info("client connection closed", zap.String("remote", remote), zap.Error(err))
		}
		return
	}

	response := s.handler(request)

	if err := writeFrame(conn, response); err != nil {
		s.logger.Warn("failed to write response frame", zap.String("remote", remote), zap.Error(err))
	}
}

// readFrame reads one 2-byte big-endian length prefix followed by that
// many bytes of UTF-8 request text.
func readFrame(r io.Reader) (string, error) {
	var lengthPrefix [2]byte
	if _, err := io.ReadFull(r, lengthPrefix[:]); err != nil {
		return "", err
	}
	length := binary.BigEndian.Uint16(lengthPrefix[:])

	body := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, body); err != nil {
			return "", err
		}
	}
	return string(body), nil
}

// writeFrame writes text as a 2-byte big-endian length prefix followed
// by its UTF-8 bytes, truncating to maxFrameLength if text is longer.
func writeFrame(w io.Writer, text string) error {
	data := []byte(text)
	if len(data) > maxFrameLength {
		data = data[:maxFrameLength]
	}

	var lengthPrefix [2]byte
	binary.BigEndian.PutUint16(lengthPrefix[:], uint16(len(data)))

	if deadlineWriter, ok := w.(net.Conn); ok {
		_ = deadlineWriter.SetWriteDeadline(time.Now().Add(30 * time.Second))
	}

	if _, err := w.Write(lengthPrefix[:]); err != nil {
		return err
	}
	_, err := w.Write(data)
	return err
}
