package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/seu-repo/agrovoz/internal/adapter/audio"
	wsAdapter "github.com/seu-repo/agrovoz/internal/adapter/websocket"
	"github.com/seu-repo/agrovoz/internal/domain"
	"github.com/seu-repo/agrovoz/internal/ports"
)

// frameSize is 100ms of 16kHz mono s16le audio.
const frameSize = 3200

// ClientConfig holds the voice client configuration
type ClientConfig struct {
	ServerURL string
	Token     string
	FFmpeg    string
	Audio     ports.AudioConfig
}

// Client records from the local microphone and streams it to the server's
// voice websocket.
type Client struct {
	config  *ClientConfig
	conn    *websocket.Conn
	capture ports.AudioCapture
	log     *zap.Logger

	writeMu sync.Mutex

	mu       sync.Mutex
	session  ports.AudioSession
	pumpDone chan struct{}
	settled  chan wsAdapter.ServerMessage

	ctx       context.Context
	cancel    context.CancelFunc
	stopChan  chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

func NewClient(config *ClientConfig, log *zap.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		ctx:      ctx,
		cancel:   cancel,
		config:   config,
		capture:  audio.NewFFMPEGCapture(config.FFmpeg, log),
		log:      log,
		settled:  make(chan wsAdapter.ServerMessage, 1),
		stopChan: make(chan struct{}),
	}
}

// Connect opens the voice websocket.
func (c *Client) Connect() error {
	wsURL, err := voiceURL(c.config.ServerURL)
	if err != nil {
		return err
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.config.Token)

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("failed to connect (HTTP %d): %w", resp.StatusCode, err)
		}
		return fmt.Errorf("failed to connect: %w", err)
	}

	c.conn = conn
	c.log.Info("Connected to voice server", zap.String("url", wsURL))

	c.wg.Add(1)
	go c.readMessages()
	return nil
}

// Close stops any local capture and closes the connection.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.stopChan)
		c.stopCapture()
		c.cancel()
		if c.conn != nil {
			c.conn.Close()
		}
		c.wg.Wait()
	})
}

func voiceURL(server string) (string, error) {
	u, err := url.Parse(server)
	if err != nil {
		return "", fmt.Errorf("invalid server url: %w", err)
	}
	switch u.Scheme {
	case "https", "wss":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws/voice"
	return u.String(), nil
}

// Login exchanges credentials for an access token.
func Login(server, email, password string) (string, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return "", err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(strings.TrimRight(server, "/") + "/api/v1/auth/login")
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(body)

	if err := fasthttp.DoTimeout(req, resp, 15*time.Second); err != nil {
		return "", fmt.Errorf("login request failed: %w", err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return "", fmt.Errorf("login rejected: HTTP %d", resp.StatusCode())
	}

	var out struct {
		Tokens struct {
			AccessToken string `json:"accessToken"`
		} `json:"tokens"`
	}
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return "", fmt.Errorf("decode login response: %w", err)
	}
	if out.Tokens.AccessToken == "" {
		return "", errors.New("login response has no access token")
	}
	return out.Tokens.AccessToken, nil
}

// StartRecording opens the microphone and starts a server-side session.
func (c *Client) StartRecording() error {
	c.mu.Lock()
	if c.session != nil {
		c.mu.Unlock()
		return errors.New("already recording")
	}
	c.mu.Unlock()

	session, err := c.capture.Start(c.ctx, c.config.Audio)
	if err != nil {
		return err
	}
	if err := c.sendControl(wsAdapter.ControlStart, ""); err != nil {
		_ = session.Stop()
		return err
	}

	done := make(chan struct{})
	c.mu.Lock()
	c.session = session
	c.pumpDone = done
	c.mu.Unlock()

	go c.pump(session, done)
	return nil
}

// StopRecording flushes the microphone and asks the server to process.
func (c *Client) StopRecording() error {
	if !c.stopCapture() {
		return errors.New("not recording")
	}
	return c.sendControl(wsAdapter.ControlStop, "")
}

// CancelRecording discards the recording on both ends.
func (c *Client) CancelRecording() error {
	c.stopCapture()
	return c.sendControl(wsAdapter.ControlCancel, "")
}

// RecordOnce records for d, waits up to timeout for the outcome and prints it.
func (c *Client) RecordOnce(d, timeout time.Duration) error {
	if err := c.StartRecording(); err != nil {
		return err
	}
	fmt.Printf("Recording for %s...\n", d)

	select {
	case <-time.After(d):
		if err := c.StopRecording(); err != nil {
			c.log.Debug("Stop after auto-stop", zap.Error(err))
		}
	case msg := <-c.settled:
		return outcome(msg)
	}

	select {
	case msg := <-c.settled:
		return outcome(msg)
	case <-time.After(timeout):
		return errors.New("timed out waiting for the result")
	}
}

func outcome(msg wsAdapter.ServerMessage) error {
	if msg.State == domain.VoiceStateError {
		if msg.Snapshot != nil && msg.Snapshot.Error != "" {
			return errors.New(msg.Snapshot.Error)
		}
		return errors.New("voice session failed")
	}
	return nil
}

// stopCapture ends local capture and waits for the last frames to be sent.
// It reports whether a capture was running.
func (c *Client) stopCapture() bool {
	c.mu.Lock()
	session, done := c.session, c.pumpDone
	c.session, c.pumpDone = nil, nil
	c.mu.Unlock()

	if session == nil {
		return false
	}
	if err := session.Stop(); err != nil {
		c.log.Warn("Microphone stop failed", zap.Error(err))
	}
	<-done
	return true
}

func (c *Client) pump(session ports.AudioSession, done chan struct{}) {
	defer close(done)
	buf := make([]byte, frameSize)
	for {
		n, err := session.Read(buf)
		if n > 0 {
			if werr := c.write(websocket.BinaryMessage, buf[:n]); werr != nil {
				c.log.Error("Failed to send audio", zap.Error(werr))
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				c.log.Error("Microphone read failed", zap.Error(err))
				_ = c.sendControl(wsAdapter.ControlCaptureError, "device_unavailable")
			}
			return
		}
	}
}

func (c *Client) sendControl(kind, reason string) error {
	data, err := json.Marshal(wsAdapter.ControlMessage{Type: kind, Reason: reason})
	if err != nil {
		return err
	}
	return c.write(websocket.TextMessage, data)
}

func (c *Client) write(messageType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(messageType, data)
}

// readMessages prints server messages and stops local capture once the
// server leaves the recording state on its own (max duration reached).
func (c *Client) readMessages() {
	defer c.wg.Done()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.stopChan:
			default:
				c.log.Error("Read error", zap.Error(err))
			}
			return
		}

		var msg wsAdapter.ServerMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.log.Warn("Invalid server message", zap.Error(err))
			continue
		}
		printMessage(os.Stdout, msg)

		if msg.Type == "state" && msg.State != domain.VoiceStateRecording {
			go c.stopCapture()
		}
		if msg.Type == "state" && (msg.State == domain.VoiceStateDone || msg.State == domain.VoiceStateError) {
			select {
			case c.settled <- msg:
			default:
			}
		}
	}
}

// printMessage renders a server message for the terminal.
func printMessage(w io.Writer, msg wsAdapter.ServerMessage) {
	switch msg.Type {
	case "error":
		fmt.Fprintf(w, "error: %s\n", msg.Error)
		return
	case wsAdapter.ControlSnapshot:
		fmt.Fprintf(w, "session: %s\n", msg.State)
	case "state":
		fmt.Fprintf(w, "state: %s (%s)\n", msg.State, msg.Reason)
	}

	snap := msg.Snapshot
	if snap == nil {
		return
	}
	if snap.Transcription != "" && (msg.State == domain.VoiceStateDone || msg.Type == wsAdapter.ControlSnapshot) {
		fmt.Fprintf(w, "  transcription: %q\n", snap.Transcription)
	}
	if snap.Error != "" {
		fmt.Fprintf(w, "  error: %s\n", snap.Error)
	}
	for _, r := range snap.Results {
		if r.Success {
			fmt.Fprintf(w, "  [ok]   %s %s %s\n", r.Operation, r.Type, r.ID)
		} else {
			fmt.Fprintf(w, "  [fail] %s %s: %s\n", r.Operation, r.Type, r.Error)
		}
	}
}

// RunInteractive runs the client in interactive mode
func (c *Client) RunInteractive() {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")

	for scanner.Scan() {
		cmd := strings.TrimSpace(scanner.Text())

		var err error
		switch cmd {
		case "":
		case "rec", "start":
			err = c.StartRecording()
		case "stop":
			err = c.StopRecording()
		case "cancel":
			err = c.CancelRecording()
		case "reset":
			err = c.sendControl(wsAdapter.ControlReset, "")
		case "status":
			err = c.sendControl(wsAdapter.ControlSnapshot, "")
		case "quit", "exit":
			fmt.Println("Goodbye!")
			return
		default:
			fmt.Printf("Unknown command: %s\n", cmd)
		}
		if err != nil {
			fmt.Printf("error: %v\n", err)
		}

		fmt.Print("> ")
	}
}
