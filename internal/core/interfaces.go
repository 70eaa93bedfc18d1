package core

import (
	"context"
	"time"
)

// VoiceStore provides access to voice profiles.
type VoiceStore interface {
	GetVoice(ctx context.Context, voiceID string) (*Voice, error)
	PutVoice(ctx context.Context, voice *Voice) error
	DeleteVoice(ctx context.Context, voiceID string) error
	// ListVoices returns the voices accessible to the user: owned voices
	// plus globally shared defaults.
	ListVoices(ctx context.Context, userID string) ([]*Voice, error)
}

// GenerationStore provides access to the generation log.
type GenerationStore interface {
	InsertGeneration(ctx context.Context, generation *Generation) error
	// CountGenerationsSince counts the user's generations with
	// created_at >= since (lower bound inclusive).
	CountGenerationsSince(ctx context.Context, userID string, since time.Time) (int, error)
	ListGenerations(ctx context.Context, userID string) ([]*Generation, error)
}

// ProfileStore provides access to per-user plan and quota state.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (*Profile, error)
	UpsertProfile(ctx context.Context, profile *Profile) error
	// IncrementGenerationCount bumps the informational running counter.
	IncrementGenerationCount(ctx context.Context, userID string) error
}

// ObjectStore is a key-value blob store for audio artifacts.
type ObjectStore interface {
	Download(ctx context.Context, key string) ([]byte, error)
	Upload(ctx context.Context, key string, data []byte) error
}

// SynthesisRequest carries the validated, voice-resolved inputs the provider
// adapter needs to shape an outbound call.
type SynthesisRequest struct {
	Text              string
	Language          string
	TaskType          TaskType
	VoiceType         VoiceType
	ReferenceAudioURL string
	Speaker           string
	VoiceDescription  string
}

// Synthesizer turns a synthesis request into raw audio bytes by calling the
// external speech provider.
type Synthesizer interface {
	Synthesize(ctx context.Context, req SynthesisRequest) ([]byte, error)
}

// TokenVerifier resolves a bearer credential to a user identity via the
// external identity provider.
type TokenVerifier interface {
	Verify(ctx context.Context, bearerToken string) (userID string, err error)
}

// EventPublisher emits domain events. Publishing is best-effort; callers log
// and continue on failure.
type EventPublisher interface {
	PublishGenerationCreated(ctx context.Context, event *GenerationCreatedEvent) error
}

// GenerationCreatedEvent announces a completed synthesis.
type GenerationCreatedEvent struct {
	GenerationID string    `json:"generation_id"`
	UserID       string    `json:"user_id"`
	VoiceID      string    `json:"voice_id"`
	AudioKey     string    `json:"audio_key"`
	CreatedAt    time.Time `json:"created_at"`
}
