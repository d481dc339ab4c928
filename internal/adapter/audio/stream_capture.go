package audio

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/seu-repo/agrovoz/internal/domain"
	"github.com/seu-repo/agrovoz/internal/ports"
)

// StreamCapture is an AudioCapture fed by a remote client, one per
// connection. Frames written between Start and Stop reach the session;
// frames outside a session are dropped.
type StreamCapture struct {
	mu      sync.Mutex
	current *streamSession
	closed  bool
}

func NewStreamCapture() *StreamCapture {
	return &StreamCapture{}
}

var _ ports.AudioCapture = (*StreamCapture)(nil)

// Start opens a new session, ending any previous one. After Close the
// remote device is gone and Start fails with domain.ErrDeviceUnavailable.
func (c *StreamCapture) Start(ctx context.Context, cfg ports.AudioConfig) (ports.AudioSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, domain.ErrDeviceUnavailable
	}
	if c.current != nil {
		_ = c.current.Stop()
	}
	pr, pw := io.Pipe()
	c.current = &streamSession{pr: pr, pw: pw}
	return c.current, nil
}

// Write forwards one audio frame to the active session.
func (c *StreamCapture) Write(frame []byte) (int, error) {
	c.mu.Lock()
	s := c.current
	c.mu.Unlock()
	if s == nil {
		return len(frame), nil
	}
	n, err := s.pw.Write(frame)
	if errors.Is(err, io.ErrClosedPipe) {
		return len(frame), nil
	}
	return n, err
}

// Fail ends the active session with err, as when the client reports that
// microphone access was refused.
func (c *StreamCapture) Fail(err error) {
	c.mu.Lock()
	s := c.current
	c.mu.Unlock()
	if s != nil {
		s.stopOnce.Do(func() { _ = s.pw.CloseWithError(err) })
	}
}

// Close ends the active session and disables further captures.
func (c *StreamCapture) Close() error {
	c.mu.Lock()
	s := c.current
	c.closed = true
	c.current = nil
	c.mu.Unlock()
	if s != nil {
		return s.Close()
	}
	return nil
}

type streamSession struct {
	pr *io.PipeReader
	pw *io.PipeWriter

	stopOnce sync.Once
}

func (s *streamSession) Read(p []byte) (int, error) {
	return s.pr.Read(p)
}

// Stop ends the stream; the reader sees io.EOF.
func (s *streamSession) Stop() error {
	s.stopOnce.Do(func() { _ = s.pw.Close() })
	return nil
}

func (s *streamSession) Close() error {
	_ = s.Stop()
	return s.pr.Close()
}
