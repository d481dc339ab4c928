package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/agrovoz/internal/domain"
	"github.com/seu-repo/agrovoz/internal/ports"
)

const (
	startupGrace = 250 * time.Millisecond
	stopGrace    = 1200 * time.Millisecond
	drainGrace   = 500 * time.Millisecond
)

// FFMPEGCapture streams microphone PCM audio (s16le) using ffmpeg.
type FFMPEGCapture struct {
	command string
	log     *zap.Logger
}

func NewFFMPEGCapture(command string, log *zap.Logger) *FFMPEGCapture {
	if command == "" {
		command = "ffmpeg"
	}
	return &FFMPEGCapture{command: command, log: log}
}

var _ ports.AudioCapture = (*FFMPEGCapture)(nil)

func (c *FFMPEGCapture) Start(ctx context.Context, cfg ports.AudioConfig) (ports.AudioSession, error) {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}
	if cfg.InputFormat == "" {
		cfg.InputFormat = "pulse"
	}
	if cfg.InputDevice == "" {
		cfg.InputDevice = "default"
	}

	args := []string{
		"-nostdin",
		"-hide_banner",
		"-loglevel", "warning",
		"-f", cfg.InputFormat,
		"-i", cfg.InputDevice,
		"-ac", strconv.Itoa(cfg.Channels),
		"-ar", strconv.Itoa(cfg.SampleRate),
		"-f", "s16le",
		"-",
	}

	cmd := exec.CommandContext(ctx, c.command, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	cmd.WaitDelay = stopGrace

	// The session owns the read end so Wait never closes it under a reader.
	stdout, pipeWriter, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create ffmpeg stdout pipe: %w", err)
	}
	cmd.Stdout = pipeWriter
	startErr := cmd.Start()
	_ = pipeWriter.Close()
	if startErr != nil {
		_ = stdout.Close()
		if errors.Is(startErr, exec.ErrNotFound) || errors.Is(startErr, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s not found", domain.ErrDeviceUnavailable, c.command)
		}
		return nil, fmt.Errorf("failed to start ffmpeg: %w", startErr)
	}

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- cmd.Wait()
		close(waitErr)
	}()

	select {
	case err := <-waitErr:
		_ = stdout.Close()
		msg := trimOutput(stderr.String())
		c.log.Warn("ffmpeg exited before capture started", zap.String("stderr", msg), zap.Error(err))
		return nil, classifyStartFailure(msg)
	case <-time.After(startupGrace):
	}

	c.log.Debug("Microphone capture started",
		zap.String("input_format", cfg.InputFormat),
		zap.String("input_device", cfg.InputDevice),
		zap.Int("sample_rate", cfg.SampleRate),
	)
	return &ffmpegSession{
		stdout:  stdout,
		stderr:  &stderr,
		process: cmd.Process,
		waitErr: waitErr,
	}, nil
}

// classifyStartFailure maps ffmpeg's complaint to the capture sentinels.
func classifyStartFailure(stderr string) error {
	lower := strings.ToLower(stderr)
	switch {
	case strings.Contains(lower, "permission denied"),
		strings.Contains(lower, "access denied"),
		strings.Contains(lower, "not authorized"):
		return fmt.Errorf("%w: %s", domain.ErrPermissionDenied, stderr)
	case stderr == "":
		return fmt.Errorf("%w: ffmpeg exited before capture started", domain.ErrDeviceUnavailable)
	default:
		return fmt.Errorf("%w: %s", domain.ErrDeviceUnavailable, stderr)
	}
}

type ffmpegSession struct {
	stdout *os.File
	stderr *bytes.Buffer

	process *os.Process
	waitErr <-chan error

	stopOnce sync.Once
	stopErr  error
}

// Read returns the audio ffmpeg wrote, including what it flushed while
// stopping. A closed pipe or an expired drain deadline ends the stream.
func (s *ffmpegSession) Read(p []byte) (int, error) {
	n, err := s.stdout.Read(p)
	if errors.Is(err, os.ErrClosed) || errors.Is(err, os.ErrDeadlineExceeded) {
		err = io.EOF
	}
	return n, err
}

// Close stops capture and releases the pipe. Unread audio is dropped.
func (s *ffmpegSession) Close() error {
	err := s.Stop()
	if closeErr := s.stdout.Close(); closeErr != nil && !errors.Is(closeErr, os.ErrClosed) && err == nil {
		err = closeErr
	}
	return err
}

// Stop interrupts ffmpeg so it flushes, and kills it if it does not exit in
// time. The pipe stays readable until drained or drainGrace elapses.
func (s *ffmpegSession) Stop() error {
	s.stopOnce.Do(func() {
		if s.process != nil {
			_ = s.process.Signal(os.Interrupt)
		}

		select {
		case err, ok := <-s.waitErr:
			if ok {
				s.stopErr = normalizeStopErr(err)
			}
		case <-time.After(stopGrace):
			if s.process != nil {
				_ = s.process.Kill()
			}
			if err, ok := <-s.waitErr; ok {
				s.stopErr = normalizeStopErr(err)
			}
		}

		_ = s.stdout.SetReadDeadline(time.Now().Add(drainGrace))
		if s.stopErr != nil && s.stderr.Len() > 0 {
			s.stopErr = fmt.Errorf("%w: %s", s.stopErr, trimOutput(s.stderr.String()))
		}
	})
	return s.stopErr
}

// normalizeStopErr ignores the non-zero exit ffmpeg reports when interrupted.
func normalizeStopErr(err error) error {
	var exitErr *exec.ExitError
	if err == nil || errors.As(err, &exitErr) {
		return nil
	}
	return err
}

func trimOutput(s string) string {
	return strings.TrimSpace(s)
}
