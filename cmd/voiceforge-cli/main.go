// main package for the voiceforge command-line client.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

// Flag descriptions.
const (
	flagAPIDesc      = "Base URL of the voiceforge API"
	flagTokenDesc    = "Bearer token identifying the caller"
	flagVoiceDesc    = "Voice id to synthesize with"
	flagTextDesc     = "Text to convert to speech"
	flagLanguageDesc = "Language tag (auto, en, zh, ja, ko, es, fr, de, pt, ru, ar)"
	flagOutputDesc   = "Output file path (.mp3)"
	flagHealthDesc   = "Check API health and exit"
)

// Flag names.
const (
	flagAPI      = "api"
	flagToken    = "token"
	flagVoice    = "voice"
	flagText     = "text"
	flagLanguage = "language"
	flagOutput   = "output"
	flagHealth   = "health"
)

// Defaults.
const (
	defaultAPIBase    = "http://localhost:8787"
	defaultOutputFile = "output.mp3"
	requestTimeout    = 180 * time.Second
	filePermissions   = 0o600
)

// Static errors.
var (
	ErrTextRequired    = errors.New("--text is required")
	ErrVoiceRequired   = errors.New("--voice is required")
	ErrTokenRequired   = errors.New("--token is required")
	ErrServiceNotOK    = errors.New("service returned non-OK status")
	ErrQuotaExhausted  = errors.New("daily generation quota exhausted")
	ErrNoAudioURL      = errors.New("response carried no audio URL")
	ErrAudioFetchError = errors.New("failed to fetch audio")
)

// appFlags holds the parsed command-line flag values.
type appFlags struct {
	api      string
	token    string
	voice    string
	text     string
	language string
	output   string
	health   bool
}

func parseFlags() appFlags {
	var flags appFlags

	flag.StringVar(&flags.api, flagAPI, defaultAPIBase, flagAPIDesc)
	flag.StringVar(&flags.token, flagToken, "", flagTokenDesc)
	flag.StringVar(&flags.voice, flagVoice, "", flagVoiceDesc)
	flag.StringVar(&flags.text, flagText, "", flagTextDesc)
	flag.StringVar(&flags.language, flagLanguage, "auto", flagLanguageDesc)
	flag.StringVar(&flags.output, flagOutput, defaultOutputFile, flagOutputDesc)
	flag.BoolVar(&flags.health, flagHealth, false, flagHealthDesc)
	flag.Parse()

	flags.api = strings.TrimRight(flags.api, "/")

	return flags
}

// generateResponse is the success shape of the generation endpoint.
type generateResponse struct {
	Success      bool   `json:"success"`
	AudioURL     string `json:"audio_url"`
	GenerationID string `json:"generation_id"`
}

// apiError is the error shape shared by all endpoints.
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func checkHealth(ctx context.Context, client *http.Client, apiBase string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiBase+"/health", http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create health request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s", ErrServiceNotOK, resp.Status)
	}

	return nil
}

func generate(
	ctx context.Context,
	client *http.Client,
	flags appFlags,
) (*generateResponse, error) {
	payload := map[string]string{
		"voice_id": flags.voice,
		"text":     flags.text,
		"language": flags.language,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		flags.api+"/v1/generate",
		bytes.NewBuffer(body),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+flags.token)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("generation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(resp)
	}

	var result generateResponse

	err = json.NewDecoder(resp.Body).Decode(&result)
	if err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if result.AudioURL == "" {
		return nil, ErrNoAudioURL
	}

	return &result, nil
}

func decodeAPIError(resp *http.Response) error {
	var apiErr apiError

	err := json.NewDecoder(resp.Body).Decode(&apiErr)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrServiceNotOK, resp.Status)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %s", ErrQuotaExhausted, apiErr.Message)
	}

	return fmt.Errorf("%w: %s: %s", ErrServiceNotOK, resp.Status, apiErr.Error)
}

// fetchAudio downloads the signed audio URL. Relative links are resolved
// against the API base.
func fetchAudio(ctx context.Context, client *http.Client, apiBase, audioURL string) ([]byte, error) {
	if strings.HasPrefix(audioURL, "/") {
		audioURL = apiBase + audioURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, audioURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create audio request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAudioFetchError, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s", ErrAudioFetchError, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAudioFetchError, err)
	}

	return data, nil
}

func validateFlags(flags appFlags) error {
	if flags.text == "" {
		return ErrTextRequired
	}

	if flags.voice == "" {
		return ErrVoiceRequired
	}

	if flags.token == "" {
		return ErrTokenRequired
	}

	return nil
}

func run() error {
	flags := parseFlags()
	client := &http.Client{Timeout: requestTimeout}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	if flags.health {
		err := checkHealth(ctx, client, flags.api)
		if err != nil {
			return err
		}

		fmt.Println("voiceforge API is healthy")

		return nil
	}

	err := validateFlags(flags)
	if err != nil {
		return err
	}

	result, err := generate(ctx, client, flags)
	if err != nil {
		return err
	}

	audioData, err := fetchAudio(ctx, client, flags.api, result.AudioURL)
	if err != nil {
		return err
	}

	err = os.WriteFile(flags.output, audioData, filePermissions)
	if err != nil {
		return fmt.Errorf("failed to write audio file: %w", err)
	}

	fmt.Printf("Generated: %s (%d bytes)\n", flags.output, len(audioData))

	return nil
}

func main() {
	err := run()
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
}
