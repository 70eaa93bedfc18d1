package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/voiceforge/voiceforge-api/internal/core"
)

// sourceModel is the provider model curated defaults are built for.
const sourceModel = "Qwen3-TTS-Base"

// defaultVoiceSeed describes one curated shared voice.
type defaultVoiceSeed struct {
	id          string
	name        string
	speaker     string
	language    string
	description string
}

// Fixed ids keep seeding idempotent across restarts.
var defaultVoiceSeeds = []defaultVoiceSeed{
	{
		id:          "6f1f2dfb-4c58-4a35-9a3a-4a1b4f2de101",
		name:        "Aiden",
		speaker:     "aiden",
		language:    "en",
		description: "Warm, conversational male voice for narration and podcasts.",
	},
	{
		id:          "8b9a41c0-73b5-4a77-9a3e-52f6f31de102",
		name:        "Serena",
		speaker:     "serena",
		language:    "en",
		description: "Clear, professional female voice suited to product demos.",
	},
	{
		id:          "2d4c83aa-90ef-4f11-8d25-6f0a92cde103",
		name:        "Xiaochen",
		speaker:     "xiaochen",
		language:    "zh",
		description: "Friendly Mandarin voice with a relaxed pace.",
	},
	{
		id:          "c57e19d4-2b6a-4f0e-b1c9-8e3d54fde104",
		name:        "Mateo",
		speaker:     "mateo",
		language:    "es",
		description: "Energetic Spanish voice for ads and announcements.",
	},
}

// SeedDefaultVoices inserts the curated shared voices when they are absent.
// Existing rows are left untouched so operator edits survive restarts.
func SeedDefaultVoices(ctx context.Context, voices core.VoiceStore) error {
	now := time.Now().UTC()

	for _, seed := range defaultVoiceSeeds {
		_, err := voices.GetVoice(ctx, seed.id)
		if err == nil {
			continue
		}

		if !errors.Is(err, core.ErrVoiceNotFound) {
			return fmt.Errorf("failed to check default voice '%s': %w", seed.name, err)
		}

		description := seed.description
		voice := &core.Voice{
			ID:                seed.id,
			UserID:            nil,
			Name:              seed.name,
			Type:              core.VoiceTypeDefault,
			SourceModel:       sourceModel,
			Description:       &description,
			Language:          seed.language,
			ReferenceAudioURL: nil,
			Params: core.TaskParams{
				TaskType:         core.TaskTypeCustomVoice,
				Speaker:          seed.speaker,
				VoiceDescription: "",
			},
			CreatedAt: now,
			UpdatedAt: now,
		}

		putErr := voices.PutVoice(ctx, voice)
		if putErr != nil {
			return fmt.Errorf("failed to seed default voice '%s': %w", seed.name, putErr)
		}
	}

	return nil
}
