package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/book-expert/logger"
	"github.com/google/uuid"

	"github.com/voiceforge/voiceforge-api/internal/core"
	"github.com/voiceforge/voiceforge-api/internal/objectstore"
)

// URLSigner mints time-limited access paths for stored audio objects.
type URLSigner interface {
	Sign(key string, ttl time.Duration) string
}

// Service orchestrates the generation pipeline and the surrounding voice,
// quota, and plan operations. Each request is handled as an independent,
// stateless invocation.
type Service struct {
	voices       core.VoiceStore
	generations  core.GenerationStore
	profiles     core.ProfileStore
	objects      core.ObjectStore
	synthesizer  core.Synthesizer
	signer       URLSigner
	publisher    core.EventPublisher
	log          *logger.Logger
	publicURL    string
	signedURLTTL time.Duration
	now          func() time.Time
}

// Options carries the collaborators and settings for a Service.
type Options struct {
	Voices       core.VoiceStore
	Generations  core.GenerationStore
	Profiles     core.ProfileStore
	Objects      core.ObjectStore
	Synthesizer  core.Synthesizer
	Signer       URLSigner
	Publisher    core.EventPublisher
	Logger       *logger.Logger
	PublicURL    string
	SignedURLTTL time.Duration
}

// New creates a Service from its collaborators.
func New(opts Options) *Service {
	return &Service{
		voices:       opts.Voices,
		generations:  opts.Generations,
		profiles:     opts.Profiles,
		objects:      opts.Objects,
		synthesizer:  opts.Synthesizer,
		signer:       opts.Signer,
		publisher:    opts.Publisher,
		log:          opts.Logger,
		publicURL:    strings.TrimRight(opts.PublicURL, "/"),
		signedURLTTL: opts.SignedURLTTL,
		now:          time.Now,
	}
}

// GenerateResult is the successful outcome of a generation request. The
// generation id is nil when the best-effort history insert failed.
type GenerateResult struct {
	AudioURL     string
	AudioKey     string
	GenerationID *string
}

// Generate runs the full pipeline for one synthesis request. The quota check
// always happens strictly before the provider is invoked, so a rejected
// request never incurs provider cost. Once audio has been obtained, only
// artifact persistence can still fail the request; history and counter
// bookkeeping are best-effort.
func (s *Service) Generate(
	ctx context.Context,
	userID string,
	rawReq GenerateRequest,
) (*GenerateResult, error) {
	req, err := ValidateRequest(rawReq)
	if err != nil {
		return nil, err
	}

	quotaErr := s.checkQuota(ctx, userID)
	if quotaErr != nil {
		return nil, quotaErr
	}

	voice, err := s.voices.GetVoice(ctx, req.VoiceID)
	if err != nil {
		return nil, err
	}

	if !voice.AccessibleBy(userID) {
		return nil, core.ErrForbidden
	}

	audioData, err := s.synthesizer.Synthesize(ctx, s.buildSynthesisRequest(req, voice))
	if err != nil {
		return nil, err
	}

	audioKey, audioURL, err := s.persistArtifact(ctx, audioData)
	if err != nil {
		return nil, err
	}

	// Synthesis succeeded; everything from here on is bookkeeping and must
	// never fail the user-visible request.
	generationID := s.recordGeneration(ctx, userID, req, audioURL, audioKey, voice.ID)

	return &GenerateResult{
		AudioURL:     audioURL,
		AudioKey:     audioKey,
		GenerationID: generationID,
	}, nil
}

// buildSynthesisRequest flattens the validated request and resolved voice
// into the provider adapter's input.
func (s *Service) buildSynthesisRequest(
	req *ValidatedRequest,
	voice *core.Voice,
) core.SynthesisRequest {
	referenceAudioURL := ""
	if voice.ReferenceAudioURL != nil {
		referenceAudioURL = s.resolveReferenceAudioURL(*voice.ReferenceAudioURL)
	}

	return core.SynthesisRequest{
		Text:              req.Text,
		Language:          req.Language,
		TaskType:          voice.Params.TaskType,
		VoiceType:         voice.Type,
		ReferenceAudioURL: referenceAudioURL,
		Speaker:           voice.Params.Speaker,
		VoiceDescription:  voice.Params.VoiceDescription,
	}
}

// resolveReferenceAudioURL turns a stored reference-audio location into a
// URL the provider can fetch. Locations that are already absolute pass
// through; object keys get a fresh signed link so stored references never go
// stale.
func (s *Service) resolveReferenceAudioURL(location string) string {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return location
	}

	return s.publicURL + s.signer.Sign(location, s.signedURLTTL)
}

// persistArtifact writes the audio bytes under a fresh unique key and mints
// the time-limited access URL. Failure at either step is fatal to the
// request: no partial generation row is created.
func (s *Service) persistArtifact(ctx context.Context, audioData []byte) (string, string, error) {
	audioKey := objectstore.NewAudioKey()

	err := s.objects.Upload(ctx, audioKey, audioData)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", core.ErrStorage, err)
	}

	audioURL := s.publicURL + s.signer.Sign(audioKey, s.signedURLTTL)

	return audioKey, audioURL, nil
}

// recordGeneration performs the post-success bookkeeping: the generation row
// insert, the running-counter bump, and the domain event. Each step has its
// own error boundary and only logs on failure.
func (s *Service) recordGeneration(
	ctx context.Context,
	userID string,
	req *ValidatedRequest,
	audioURL, audioKey, voiceID string,
) *string {
	var generationID *string

	generation := &core.Generation{
		ID:        uuid.NewString(),
		UserID:    userID,
		VoiceID:   voiceID,
		Text:      req.Text,
		Language:  req.Language,
		AudioURL:  &audioURL,
		CreatedAt: s.now().UTC(),
	}

	insertErr := s.generations.InsertGeneration(ctx, generation)
	if insertErr != nil {
		s.log.Error("Failed to save generation for user %s: %v", userID, insertErr)
	} else {
		generationID = &generation.ID
	}

	countErr := s.profiles.IncrementGenerationCount(ctx, userID)
	if countErr != nil {
		s.log.Warn("Failed to update generation count for user %s: %v", userID, countErr)
	}

	if s.publisher != nil {
		publishErr := s.publisher.PublishGenerationCreated(ctx, &core.GenerationCreatedEvent{
			GenerationID: generation.ID,
			UserID:       userID,
			VoiceID:      voiceID,
			AudioKey:     audioKey,
			CreatedAt:    generation.CreatedAt,
		})
		if publishErr != nil {
			s.log.Warn("Failed to publish generation event for user %s: %v", userID, publishErr)
		}
	}

	return generationID
}

// History returns the user's generation history, newest first.
func (s *Service) History(ctx context.Context, userID string) ([]*core.Generation, error) {
	generations, err := s.generations.ListGenerations(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list generations: %w", err)
	}

	return generations, nil
}

// FetchAudio streams a stored audio object after the caller's signed link
// has been verified. A missing object passes through as ErrAudioNotFound;
// anything else is a storage failure.
func (s *Service) FetchAudio(ctx context.Context, key string) ([]byte, error) {
	data, err := s.objects.Download(ctx, key)
	if err != nil {
		if errors.Is(err, core.ErrAudioNotFound) {
			return nil, err
		}

		return nil, fmt.Errorf("%w: %w", core.ErrStorage, err)
	}

	return data, nil
}
