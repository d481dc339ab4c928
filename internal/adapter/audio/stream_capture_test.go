package audio

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/seu-repo/agrovoz/internal/domain"
	"github.com/seu-repo/agrovoz/internal/ports"
)

func TestStreamCapture_FramesReachSession(t *testing.T) {
	capture := NewStreamCapture()

	session, err := capture.Start(context.Background(), ports.AudioConfig{})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	done := make(chan []byte)
	go func() {
		data, _ := io.ReadAll(session)
		done <- data
	}()

	for _, frame := range [][]byte{{1, 2}, {3, 4}, {5}} {
		if _, err := capture.Write(frame); err != nil {
			t.Fatalf("write failed: %v", err)
		}
	}
	if err := session.Stop(); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if err := session.Stop(); err != nil {
		t.Fatalf("second stop failed: %v", err)
	}

	got := <-done
	if !bytes.Equal(got, []byte{1, 2, 3, 4, 5}) {
		t.Errorf("unexpected audio %v", got)
	}
}

func TestStreamCapture_DropsFramesOutsideSession(t *testing.T) {
	capture := NewStreamCapture()

	n, err := capture.Write([]byte{9, 9})
	if err != nil || n != 2 {
		t.Fatalf("expected frame dropped silently, got n=%d err=%v", n, err)
	}

	session, err := capture.Start(context.Background(), ports.AudioConfig{})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	_ = session.Stop()

	if _, err := capture.Write([]byte{1}); err != nil {
		t.Errorf("write after stop must be dropped, got %v", err)
	}
}

func TestStreamCapture_FailEndsSession(t *testing.T) {
	capture := NewStreamCapture()
	session, err := capture.Start(context.Background(), ports.AudioConfig{})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	capture.Fail(domain.ErrPermissionDenied)

	_, err = io.ReadAll(session)
	if !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
}

func TestStreamCapture_ClosedRejectsStart(t *testing.T) {
	capture := NewStreamCapture()
	session, err := capture.Start(context.Background(), ports.AudioConfig{})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	if err := capture.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if _, err := session.Read(make([]byte, 1)); err == nil {
		t.Error("expected read on closed session to fail")
	}
	if _, err := capture.Start(context.Background(), ports.AudioConfig{}); !errors.Is(err, domain.ErrDeviceUnavailable) {
		t.Fatalf("expected ErrDeviceUnavailable, got %v", err)
	}
}
