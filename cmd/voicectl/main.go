package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/agrovoz/internal/ports"
)

var (
	serverURL   = flag.String("server", "http://localhost:8080", "AgroVoz API base URL")
	token       = flag.String("token", os.Getenv("AGROVOZ_TOKEN"), "Access token (or use -email/-password)")
	email       = flag.String("email", "", "Login email")
	password    = flag.String("password", "", "Login password")
	ffmpeg      = flag.String("ffmpeg", "ffmpeg", "ffmpeg binary")
	inputFormat = flag.String("input-format", "pulse", "ffmpeg input format (pulse, alsa, avfoundation, dshow)")
	inputDevice = flag.String("input-device", "default", "ffmpeg input device")
	sampleRate  = flag.Int("rate", 16000, "Sample rate (Hz)")
	duration    = flag.Duration("duration", 0, "Record once for this long, print the result and exit")
	interactive = flag.Bool("interactive", false, "Enable interactive mode")
	verbose     = flag.Bool("verbose", false, "Enable verbose logging")
)

func main() {
	flag.Parse()

	// Setup logger
	var logger *zap.Logger
	var err error
	if *verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	accessToken := *token
	if accessToken == "" {
		if *email == "" || *password == "" {
			fmt.Fprintln(os.Stderr, "Provide -token or -email and -password")
			os.Exit(2)
		}
		accessToken, err = Login(*serverURL, *email, *password)
		if err != nil {
			logger.Fatal("Login failed", zap.Error(err))
		}
	}

	client := NewClient(&ClientConfig{
		ServerURL: *serverURL,
		Token:     accessToken,
		FFmpeg:    *ffmpeg,
		Audio: ports.AudioConfig{
			SampleRate:  *sampleRate,
			Channels:    1,
			InputFormat: *inputFormat,
			InputDevice: *inputDevice,
		},
	}, logger)

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")
		client.Close()
		os.Exit(0)
	}()

	if err := client.Connect(); err != nil {
		logger.Fatal("Failed to connect to server", zap.Error(err))
	}
	defer client.Close()

	switch {
	case *interactive:
		runInteractiveMode(client)
	case *duration > 0:
		if err := client.RecordOnce(*duration, *duration+2*time.Minute); err != nil {
			fmt.Fprintf(os.Stderr, "Voice command failed: %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintln(os.Stderr, "Use -interactive or -duration")
		os.Exit(2)
	}
}

func runInteractiveMode(client *Client) {
	fmt.Println("\nAgroVoz voice client - Interactive Mode")
	fmt.Println("=======================================")
	fmt.Println("Commands:")
	fmt.Println("  rec        - Start recording")
	fmt.Println("  stop       - Stop recording and process")
	fmt.Println("  cancel     - Discard the recording")
	fmt.Println("  reset      - Clear the last result or error")
	fmt.Println("  status     - Show the session snapshot")
	fmt.Println("  quit       - Exit")
	fmt.Println("")

	client.RunInteractive()
}
