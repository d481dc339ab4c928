package voice

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/agrovoz/internal/domain"
	"github.com/seu-repo/agrovoz/internal/observability/telemetry"
	"github.com/seu-repo/agrovoz/internal/ports"
)

var (
	// ErrSessionBusy is returned when the requested transition is not allowed
	// while audio is being processed or operations executed.
	ErrSessionBusy = errors.New("voice session is busy")
	// ErrSessionFailed is returned by Start while the session is in the error
	// state. Reset clears it.
	ErrSessionFailed = errors.New("voice session failed, reset required")
	// ErrNoAudio is reported when a recording stops without any captured audio.
	ErrNoAudio = errors.New("no audio captured")
)

const (
	DefaultMaxRecordingTime  = 60 * time.Second
	DefaultProcessingTimeout = 90 * time.Second
	DefaultAudioFormat       = "audio/wav"
)

// SessionConfig carries the farm and user a session acts for, plus capture
// and pipeline settings.
type SessionConfig struct {
	FarmID string
	UserID string

	Audio             ports.AudioConfig
	AudioFormat       string
	MaxRecordingTime  time.Duration
	ProcessingTimeout time.Duration
	AutoExecute       bool
	ChunkSize         int
}

type stopper interface {
	Stop() bool
}

type stateEvent struct {
	state    domain.VoiceState
	reason   domain.VoiceStateReason
	snapshot domain.VoiceSnapshot
}

// Session is one voice-command lifecycle: idle → recording → processing →
// executing → done, with error reachable from recording, processing and
// executing. A Session is reusable: Start begins a fresh attempt from idle or
// done, Reset returns it to idle from done or error.
//
// State events are delivered in transition order. Sinks must not call back
// into the Session synchronously.
type Session struct {
	capture   ports.AudioCapture
	processor ports.VoiceProcessor
	executor  ports.OperationExecutor
	events    ports.VoiceEventSink
	cfg       SessionConfig
	log       *zap.Logger

	now       func() time.Time
	afterFunc func(d time.Duration, f func()) stopper

	mu            sync.Mutex
	state         domain.VoiceState
	gen           int
	rec           *recording
	startedAt     time.Time
	elapsed       time.Duration
	audio         []byte
	transcription string
	response      *domain.VoiceProcessingResponse
	results       []domain.ExecutionResult
	errMsg        string
	settled       chan struct{}
	pending       []stateEvent

	emitMu sync.Mutex
}

func NewSession(
	capture ports.AudioCapture,
	processor ports.VoiceProcessor,
	executor ports.OperationExecutor,
	events ports.VoiceEventSink,
	cfg SessionConfig,
	log *zap.Logger,
) *Session {
	if cfg.MaxRecordingTime <= 0 {
		cfg.MaxRecordingTime = DefaultMaxRecordingTime
	}
	if cfg.ProcessingTimeout <= 0 {
		cfg.ProcessingTimeout = DefaultProcessingTimeout
	}
	if cfg.AudioFormat == "" {
		cfg.AudioFormat = DefaultAudioFormat
	}
	if cfg.ChunkSize < 256 {
		cfg.ChunkSize = 4096
	}
	settled := make(chan struct{})
	close(settled)

	return &Session{
		capture:   capture,
		processor: processor,
		executor:  executor,
		events:    events,
		cfg:       cfg,
		log:       log.With(zap.String("farm_id", cfg.FarmID), zap.String("user_id", cfg.UserID)),
		now:       time.Now,
		afterFunc: func(d time.Duration, f func()) stopper { return time.AfterFunc(d, f) },
		state:     domain.VoiceStateIdle,
		settled:   settled,
	}
}

// Start acquires the microphone and begins recording. Allowed from idle and
// done; the previous attempt's artifacts are discarded.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case domain.VoiceStateIdle, domain.VoiceStateDone:
	case domain.VoiceStateError:
		s.mu.Unlock()
		return ErrSessionFailed
	default:
		s.mu.Unlock()
		return ErrSessionBusy
	}

	s.clearLocked()
	s.gen++
	gen := s.gen
	s.settled = make(chan struct{})

	captureCtx, cancel := context.WithCancel(ctx)
	audio, err := s.capture.Start(captureCtx, s.cfg.Audio)
	if err != nil {
		cancel()
		s.failLocked(domain.VoiceReasonCaptureFailed, err)
		s.mu.Unlock()
		s.flush()
		return err
	}

	rec := &recording{
		audio:  audio,
		cancel: cancel,
		ctx:    context.WithoutCancel(ctx),
		done:   make(chan struct{}),
	}
	s.rec = rec
	s.state = domain.VoiceStateRecording
	s.startedAt = s.now()
	rec.timer = s.afterFunc(s.cfg.MaxRecordingTime, func() {
		s.stopRecording(gen, domain.VoiceReasonMaxDurationReached)
	})
	s.queueLocked(domain.VoiceReasonRecordingStarted)
	s.mu.Unlock()

	go func() {
		rec.pump(s.cfg.ChunkSize)
		if rec.readErr != nil {
			s.captureFailed(gen, rec.readErr)
		}
	}()

	s.log.Info("Voice recording started", zap.Duration("max_duration", s.cfg.MaxRecordingTime))
	s.flush()
	return nil
}

// Stop finalizes the recording and hands the audio to processing. It is a
// no-op unless the session is recording.
func (s *Session) Stop() {
	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()
	s.stopRecording(gen, domain.VoiceReasonStoppedManually)
}

// Cancel releases the microphone and discards the recording without
// processing it. It is a no-op unless the session is recording.
func (s *Session) Cancel() {
	s.mu.Lock()
	if s.state != domain.VoiceStateRecording {
		s.mu.Unlock()
		return
	}
	rec := s.takeRecordingLocked()
	s.clearLocked()
	s.gen++
	s.state = domain.VoiceStateIdle
	s.queueLocked(domain.VoiceReasonRecordingCancelled)
	s.settleLocked(domain.VoiceReasonRecordingCancelled)
	s.mu.Unlock()

	rec.release()
	s.log.Info("Voice recording cancelled")
	s.flush()
}

// Reset discards every artifact of the last attempt and returns to idle.
// A recording in progress is cancelled first. Processing and executing
// cannot be interrupted.
func (s *Session) Reset() error {
	s.mu.Lock()
	switch s.state {
	case domain.VoiceStateProcessing, domain.VoiceStateExecuting:
		s.mu.Unlock()
		return ErrSessionBusy
	}

	var rec *recording
	if s.state == domain.VoiceStateRecording {
		rec = s.takeRecordingLocked()
	}
	s.clearLocked()
	s.gen++
	s.state = domain.VoiceStateIdle
	s.queueLocked(domain.VoiceReasonReset)
	s.settleLocked(domain.VoiceReasonReset)
	s.mu.Unlock()

	if rec != nil {
		rec.release()
	}
	s.flush()
	return nil
}

// Close releases the microphone if a recording is in progress.
func (s *Session) Close() {
	s.Cancel()
}

// Snapshot returns the client-visible view of the session.
func (s *Session) Snapshot() domain.VoiceSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Audio returns the encoded audio of the last recording, nil after a reset.
func (s *Session) Audio() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.audio
}

// State returns the current state.
func (s *Session) State() domain.VoiceState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Wait blocks until the current attempt settles in done, error or idle.
func (s *Session) Wait(ctx context.Context) (domain.VoiceSnapshot, error) {
	s.mu.Lock()
	settled := s.settled
	s.mu.Unlock()

	select {
	case <-settled:
		return s.Snapshot(), nil
	case <-ctx.Done():
		return s.Snapshot(), ctx.Err()
	}
}

func (s *Session) stopRecording(gen int, reason domain.VoiceStateReason) {
	s.mu.Lock()
	if s.state != domain.VoiceStateRecording || gen != s.gen {
		s.mu.Unlock()
		return
	}
	rec := s.takeRecordingLocked()
	s.elapsed = s.now().Sub(s.startedAt)
	if reason == domain.VoiceReasonMaxDurationReached && s.elapsed > s.cfg.MaxRecordingTime {
		s.elapsed = s.cfg.MaxRecordingTime
	}
	s.state = domain.VoiceStateProcessing
	s.queueLocked(reason)
	s.mu.Unlock()

	pcm := rec.release()
	s.log.Info("Voice recording stopped",
		zap.String("reason", string(reason)),
		zap.Int("bytes", len(pcm)),
	)
	s.flush()

	go s.process(gen, rec.ctx, pcm)
}

func (s *Session) captureFailed(gen int, err error) {
	s.mu.Lock()
	if s.state != domain.VoiceStateRecording || gen != s.gen {
		s.mu.Unlock()
		return
	}
	rec := s.takeRecordingLocked()
	s.failLocked(domain.VoiceReasonCaptureFailed, err)
	s.mu.Unlock()

	rec.release()
	s.log.Error("Voice capture failed", zap.Error(err))
	s.flush()
}

func (s *Session) process(gen int, base context.Context, pcm []byte) {
	if len(pcm) == 0 {
		s.fail(gen, domain.VoiceReasonCaptureFailed, ErrNoAudio)
		return
	}

	audio := pcm
	if s.cfg.AudioFormat == DefaultAudioFormat {
		audio = EncodeWAV(pcm, s.cfg.Audio.SampleRate, s.cfg.Audio.Channels)
	}

	s.mu.Lock()
	s.audio = audio
	s.mu.Unlock()

	req := domain.VoiceProcessingRequest{
		AudioData:   base64.StdEncoding.EncodeToString(audio),
		FarmUUID:    s.cfg.FarmID,
		UserUUID:    s.cfg.UserID,
		AudioFormat: s.cfg.AudioFormat,
		MaxDuration: int(s.cfg.MaxRecordingTime / time.Second),
	}

	ctx, cancel := context.WithTimeout(base, s.cfg.ProcessingTimeout)
	resp, err := s.processor.Process(ctx, req)
	cancel()
	if err != nil {
		if !errors.Is(err, domain.ErrTranscriptionService) {
			err = fmt.Errorf("%w: %v", domain.ErrTranscriptionService, err)
		}
		s.fail(gen, domain.VoiceReasonTranscriptionFailed, err)
		return
	}
	if resp == nil {
		s.fail(gen, domain.VoiceReasonTranscriptionFailed, fmt.Errorf("%w: empty response", domain.ErrTranscriptionService))
		return
	}
	if !resp.Success {
		msg := "voice processing failed"
		if len(resp.Errors) > 0 {
			msg = strings.Join(resp.Errors, "; ")
		}
		s.mu.Lock()
		s.response = resp
		s.transcription = resp.Transcription
		s.mu.Unlock()
		s.fail(gen, domain.VoiceReasonTranscriptionFailed, errors.New(msg))
		return
	}

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.response = resp
	s.transcription = resp.Transcription
	if !s.cfg.AutoExecute || !resp.HasOperations() {
		s.state = domain.VoiceStateDone
		s.queueLocked(domain.VoiceReasonTranscribed)
		s.settleLocked(domain.VoiceReasonTranscribed)
		s.mu.Unlock()
		s.flush()
		return
	}
	s.state = domain.VoiceStateExecuting
	s.queueLocked(domain.VoiceReasonExecuting)
	s.mu.Unlock()
	s.flush()

	results := s.executor.Execute(base, resp.Data, s.cfg.FarmID, s.cfg.UserID)

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.results = results
	s.state = domain.VoiceStateDone
	s.queueLocked(domain.VoiceReasonExecuted)
	s.settleLocked(domain.VoiceReasonExecuted)
	s.mu.Unlock()
	s.flush()
}

func (s *Session) fail(gen int, reason domain.VoiceStateReason, err error) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.failLocked(reason, err)
	s.mu.Unlock()

	s.log.Warn("Voice session failed", zap.String("reason", string(reason)), zap.Error(err))
	s.flush()
}

func (s *Session) failLocked(reason domain.VoiceStateReason, err error) {
	s.state = domain.VoiceStateError
	s.errMsg = err.Error()
	s.queueLocked(reason)
	s.settleLocked(reason)
}

func (s *Session) takeRecordingLocked() *recording {
	rec := s.rec
	s.rec = nil
	rec.timer.Stop()
	return rec
}

func (s *Session) clearLocked() {
	s.elapsed = 0
	s.startedAt = time.Time{}
	s.audio = nil
	s.transcription = ""
	s.response = nil
	s.results = nil
	s.errMsg = ""
}

func (s *Session) settleLocked(reason domain.VoiceStateReason) {
	select {
	case <-s.settled:
	default:
		close(s.settled)
	}
	telemetry.VoiceSessionsTotal.WithLabelValues(string(s.state), string(reason)).Inc()
}

func (s *Session) snapshotLocked() domain.VoiceSnapshot {
	elapsed := s.elapsed
	if s.state == domain.VoiceStateRecording {
		elapsed = s.now().Sub(s.startedAt)
	}
	snap := domain.VoiceSnapshot{
		State:         s.state,
		Elapsed:       elapsed,
		Transcription: s.transcription,
		Response:      s.response,
		Error:         s.errMsg,
	}
	if s.results != nil {
		snap.Results = append([]domain.ExecutionResult(nil), s.results...)
	}
	return snap
}

func (s *Session) queueLocked(reason domain.VoiceStateReason) {
	if s.events == nil {
		return
	}
	s.pending = append(s.pending, stateEvent{state: s.state, reason: reason, snapshot: s.snapshotLocked()})
}

// flush delivers queued state events in transition order, outside s.mu.
func (s *Session) flush() {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()
	for {
		s.mu.Lock()
		if len(s.pending) == 0 {
			s.mu.Unlock()
			return
		}
		ev := s.pending[0]
		s.pending = s.pending[1:]
		s.mu.Unlock()

		s.events.VoiceStateChanged(ev.state, ev.reason, ev.snapshot)
	}
}

// recording owns the microphone between Start and Stop/Cancel.
type recording struct {
	audio  ports.AudioSession
	cancel context.CancelFunc
	ctx    context.Context
	timer  stopper

	buf     bytes.Buffer
	readErr error
	done    chan struct{}
}

func (r *recording) pump(chunkSize int) {
	defer close(r.done)

	chunk := make([]byte, chunkSize)
	for {
		n, err := r.audio.Read(chunk)
		if n > 0 {
			r.buf.Write(chunk[:n])
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrClosedPipe) {
				r.readErr = err
			}
			return
		}
	}
}

// release stops the device, waits for buffered chunks and returns them.
func (r *recording) release() []byte {
	_ = r.audio.Stop()
	<-r.done
	_ = r.audio.Close()
	r.cancel()
	return r.buf.Bytes()
}
