// Package core defines the domain model and collaborator interfaces for the
// voiceforge API service.
package core

import (
	"encoding/json"
	"time"
)

// VoiceType identifies how a voice profile was produced.
type VoiceType string

// Supported voice types.
const (
	VoiceTypeCloned   VoiceType = "cloned"
	VoiceTypeDesigned VoiceType = "designed"
	VoiceTypeDefault  VoiceType = "default"
)

// TaskType is the provider-facing discriminator selecting how a voice's
// parameters are interpreted by the synthesis backend.
type TaskType string

// Supported provider task types.
const (
	TaskTypeBase        TaskType = "Base"
	TaskTypeCustomVoice TaskType = "CustomVoice"
	TaskTypeVoiceDesign TaskType = "VoiceDesign"
)

// TaskParams is the provider-parameter bundle attached to a voice. It always
// carries a task type; the optional fields are meaningful only for the task
// type they belong to (Speaker for CustomVoice, VoiceDescription for
// VoiceDesign).
type TaskParams struct {
	TaskType         TaskType `json:"task_type"`
	Speaker          string   `json:"speaker,omitempty"`
	VoiceDescription string   `json:"voice_description,omitempty"`
}

// UnmarshalJSON decodes and normalizes in one step, so every path that reads
// stored parameters (voice rows included) yields a known task type. Unknown
// or missing task types collapse to Base.
func (p *TaskParams) UnmarshalJSON(data []byte) error {
	type plain TaskParams

	var decoded plain

	err := json.Unmarshal(data, &decoded)
	if err != nil {
		return err
	}

	*p = TaskParams(decoded)

	switch p.TaskType {
	case TaskTypeBase, TaskTypeCustomVoice, TaskTypeVoiceDesign:
	default:
		p.TaskType = TaskTypeBase
	}

	return nil
}

// ParseTaskParams decodes a raw parameter blob into a TaskParams value.
// Unknown, missing, or malformed input yields the Base task with no extras,
// so the result is always usable as a dispatch key.
func ParseTaskParams(raw []byte) TaskParams {
	fallback := TaskParams{
		TaskType:         TaskTypeBase,
		Speaker:          "",
		VoiceDescription: "",
	}

	if len(raw) == 0 {
		return fallback
	}

	params := fallback

	err := json.Unmarshal(raw, &params)
	if err != nil {
		return fallback
	}

	return params
}

// Voice is a named synthesis profile. A nil UserID marks a globally shared
// default voice; the owner is immutable after creation.
type Voice struct {
	ID                string     `json:"id"`
	UserID            *string    `json:"user_id"`
	Name              string     `json:"name"`
	Type              VoiceType  `json:"type"`
	SourceModel       string     `json:"source_model"`
	Description       *string    `json:"description"`
	Language          string     `json:"language"`
	ReferenceAudioURL *string    `json:"reference_audio_url"`
	Params            TaskParams `json:"qwen_params"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// AccessibleBy reports whether the given user may use this voice: shared
// voices (nil owner) are open to everyone, owned voices only to their owner.
func (v *Voice) AccessibleBy(userID string) bool {
	return v.UserID == nil || *v.UserID == userID
}

// Generation records one synthesis event and its resulting audio artifact.
// Rows are immutable once written.
type Generation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	VoiceID   string    `json:"voice_id"`
	Text      string    `json:"text"`
	Language  string    `json:"language"`
	AudioURL  *string   `json:"audio_url"`
	CreatedAt time.Time `json:"created_at"`
}

// Plan is a subscription tier.
type Plan string

// Subscription tiers.
const (
	PlanFree    Plan = "free"
	PlanCreator Plan = "creator"
	PlanPro     Plan = "pro"
)

// Daily generation limits per tier. DefaultDailyLimit applies when no profile
// exists for a user yet.
const (
	DefaultDailyLimit = 20
	CreatorDailyLimit = 200
	ProDailyLimit     = 1000
)

// PlanDailyLimit returns the tier default daily generation limit. Unknown
// plans fall back to the free tier limit.
func PlanDailyLimit(plan Plan) int {
	switch plan {
	case PlanCreator:
		return CreatorDailyLimit
	case PlanPro:
		return ProDailyLimit
	case PlanFree:
		return DefaultDailyLimit
	default:
		return DefaultDailyLimit
	}
}

// ValidPlan reports whether the plan names a known tier.
func ValidPlan(plan Plan) bool {
	switch plan {
	case PlanFree, PlanCreator, PlanPro:
		return true
	default:
		return false
	}
}

// Profile holds a user's plan and quota state. DailyGenerationLimit is an
// explicit override that wins over the tier default when non-zero.
// GenerationCount is an informational running counter; the rolling 24-hour
// count over generation rows is the quota's source of truth.
type Profile struct {
	ID                   string    `json:"id"`
	UserID               string    `json:"user_id"`
	Plan                 Plan      `json:"plan"`
	DailyGenerationLimit int       `json:"daily_generation_limit"`
	GenerationCount      int       `json:"generation_count"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// DailyLimit resolves the effective daily generation limit for the profile.
func (p *Profile) DailyLimit() int {
	if p.DailyGenerationLimit > 0 {
		return p.DailyGenerationLimit
	}

	return PlanDailyLimit(p.Plan)
}
