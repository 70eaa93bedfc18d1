package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/voiceforge/voiceforge-api/internal/audioutils"
	"github.com/voiceforge/voiceforge-api/internal/core"
)

// VoiceSourceModel is the provider model new voices are created against.
const VoiceSourceModel = "Qwen3-TTS-Base"

// Static errors for voice management.
var (
	// ErrVoiceNameEmpty indicates a missing voice name.
	ErrVoiceNameEmpty = errors.New("voice name cannot be empty")
	// ErrReferenceAudioEmpty indicates a clone request without audio data.
	ErrReferenceAudioEmpty = errors.New("reference audio cannot be empty")
	// ErrUnsupportedAudioFormat indicates the uploaded reference file does
	// not carry a recognized audio extension.
	ErrUnsupportedAudioFormat = errors.New("unsupported reference audio format")
)

// CloneVoiceParams are the inputs for cloning a voice from uploaded audio.
type CloneVoiceParams struct {
	Name        string
	Language    string
	Description string
	Filename    string
	AudioData   []byte
}

// CloneVoice stores the uploaded reference audio and creates a cloned voice
// owned by the user. The voice's provider parameters default to the Base
// task; the reference audio is stored by object key and resolved to a fresh
// signed URL at synthesis time.
func (s *Service) CloneVoice(
	ctx context.Context,
	userID string,
	params CloneVoiceParams,
) (*core.Voice, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: %w", core.ErrValidation, ErrVoiceNameEmpty)
	}

	if len(params.AudioData) == 0 {
		return nil, fmt.Errorf("%w: %w", core.ErrValidation, ErrReferenceAudioEmpty)
	}

	if !audioutils.IsValidAudioFile(params.Filename) {
		return nil, fmt.Errorf(
			"%w: %w: %q",
			core.ErrValidation,
			ErrUnsupportedAudioFormat,
			params.Filename,
		)
	}

	referenceKey := referenceAudioKey(params.Filename)

	err := s.objects.Upload(ctx, referenceKey, params.AudioData)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to store reference audio: %w", core.ErrStorage, err)
	}

	now := s.now().UTC()
	voice := &core.Voice{
		ID:                uuid.NewString(),
		UserID:            &userID,
		Name:              name,
		Type:              core.VoiceTypeCloned,
		SourceModel:       VoiceSourceModel,
		Description:       optionalString(params.Description),
		Language:          normalizeLanguage(params.Language),
		ReferenceAudioURL: &referenceKey,
		Params: core.TaskParams{
			TaskType:         core.TaskTypeBase,
			Speaker:          "",
			VoiceDescription: "",
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	putErr := s.voices.PutVoice(ctx, voice)
	if putErr != nil {
		return nil, fmt.Errorf("failed to create cloned voice: %w", putErr)
	}

	return voice, nil
}

// DesignVoiceParams are the inputs for designing a voice from a description.
type DesignVoiceParams struct {
	Name            string
	Language        string
	Gender          string
	AgeRange        string
	SpeakingStyle   string
	Emotion         string
	Speed           string
	AdditionalNotes string
}

// DesignVoice creates a designed voice whose style description is built from
// the selected attributes, owned by the user.
func (s *Service) DesignVoice(
	ctx context.Context,
	userID string,
	params DesignVoiceParams,
) (*core.Voice, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: %w", core.ErrValidation, ErrVoiceNameEmpty)
	}

	description := BuildVoiceDescription(params)

	now := s.now().UTC()
	voice := &core.Voice{
		ID:                uuid.NewString(),
		UserID:            &userID,
		Name:              name,
		Type:              core.VoiceTypeDesigned,
		SourceModel:       VoiceSourceModel,
		Description:       &description,
		Language:          normalizeLanguage(params.Language),
		ReferenceAudioURL: nil,
		Params: core.TaskParams{
			TaskType:         core.TaskTypeVoiceDesign,
			Speaker:          "",
			VoiceDescription: description,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.voices.PutVoice(ctx, voice)
	if err != nil {
		return nil, fmt.Errorf("failed to create designed voice: %w", err)
	}

	return voice, nil
}

// BuildVoiceDescription renders the designed-voice attributes into the
// free-text style instruction sent to the provider.
func BuildVoiceDescription(params DesignVoiceParams) string {
	gender := defaultString(params.Gender, "neutral")
	age := defaultString(params.AgeRange, "middle-aged")
	style := defaultString(params.SpeakingStyle, "conversational")
	emotion := defaultString(params.Emotion, "neutral")
	speed := defaultString(params.Speed, "normal")

	description := fmt.Sprintf(
		"A %s %s voice with a %s speaking style. The tone is %s and the speaking pace is %s.",
		age, gender, style, emotion, speed,
	)

	notes := strings.TrimSpace(params.AdditionalNotes)
	if notes != "" {
		description += " " + notes
	}

	return description
}

// ListVoices returns the voices the user can use: their own plus shared
// defaults.
func (s *Service) ListVoices(ctx context.Context, userID string) ([]*core.Voice, error) {
	voices, err := s.voices.ListVoices(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list voices: %w", err)
	}

	return voices, nil
}

// RenameVoice updates an owned voice's display name. Shared defaults and
// other users' voices cannot be renamed.
func (s *Service) RenameVoice(ctx context.Context, userID, voiceID, newName string) (*core.Voice, error) {
	name := strings.TrimSpace(newName)
	if name == "" {
		return nil, fmt.Errorf("%w: %w", core.ErrValidation, ErrVoiceNameEmpty)
	}

	voice, err := s.ownedVoice(ctx, userID, voiceID)
	if err != nil {
		return nil, err
	}

	voice.Name = name
	voice.UpdatedAt = s.now().UTC()

	putErr := s.voices.PutVoice(ctx, voice)
	if putErr != nil {
		return nil, fmt.Errorf("failed to rename voice: %w", putErr)
	}

	return voice, nil
}

// DeleteVoice removes an owned voice.
func (s *Service) DeleteVoice(ctx context.Context, userID, voiceID string) error {
	_, err := s.ownedVoice(ctx, userID, voiceID)
	if err != nil {
		return err
	}

	deleteErr := s.voices.DeleteVoice(ctx, voiceID)
	if deleteErr != nil {
		return fmt.Errorf("failed to delete voice: %w", deleteErr)
	}

	return nil
}

// ownedVoice fetches a voice and requires the user to be its owner. Shared
// voices (nil owner) are usable by everyone but owned by no one.
func (s *Service) ownedVoice(ctx context.Context, userID, voiceID string) (*core.Voice, error) {
	voice, err := s.voices.GetVoice(ctx, voiceID)
	if err != nil {
		return nil, err
	}

	if voice.UserID == nil || *voice.UserID != userID {
		return nil, core.ErrForbidden
	}

	return voice, nil
}

// referenceAudioKey mints a collision-free object key for uploaded reference
// audio, preserving the original extension when present.
func referenceAudioKey(filename string) string {
	ext := filepath.Ext(audioutils.SanitizeFilename(filename))
	if ext == "" {
		ext = ".wav"
	}

	return "ref-" + uuid.NewString() + ext
}

func normalizeLanguage(language string) string {
	if language == "" {
		return DefaultLanguage
	}

	return language
}

func optionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}

	return &trimmed
}

func defaultString(value, fallback string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}

	return trimmed
}
