// Package qwen provides the adapter for the Qwen3-TTS speech synthesis
// provider: request shaping, endpoint resolution, and HTTP dispatch.
package qwen

import (
	"strings"

	"github.com/voiceforge/voiceforge-api/internal/core"
)

// MaxNewTokens is the fixed maximum-output-size parameter sent with every
// synthesis request.
const MaxNewTokens = 4096

// responseFormat is the audio container requested from the provider.
const responseFormat = "mp3"

// Request is the JSON payload the provider accepts. Exactly one of Voice,
// RefAudio, or Instructions is populated depending on the task dispatch.
type Request struct {
	Input          string `json:"input"`
	ResponseFormat string `json:"response_format"`
	TaskType       string `json:"task_type"`
	Language       string `json:"language"`
	MaxNewTokens   int    `json:"max_new_tokens"`
	Voice          string `json:"voice,omitempty"`
	RefAudio       string `json:"ref_audio,omitempty"`
	Instructions   string `json:"instructions,omitempty"`
}

// languageMap translates the internal language tags to the provider's
// vocabulary. Tags the provider lacks native support for collapse to "auto";
// the fallback is lossy but intentional.
var languageMap = map[string]string{
	"auto": "auto",
	"en":   "english",
	"zh":   "chinese",
	"ja":   "japanese",
	"ko":   "korean",
	"es":   "spanish",
	"fr":   "french",
	"de":   "german",
	"pt":   "portuguese",
	"ru":   "russian",
	"ar":   "arabic",
}

// MapLanguage translates an internal language tag to the provider's
// vocabulary, falling back to "auto" for anything unmapped.
func MapLanguage(tag string) string {
	mapped, ok := languageMap[tag]
	if !ok {
		return "auto"
	}

	return mapped
}

// BuildRequest constructs the exact provider payload for a synthesis request.
// Dispatch is a total match over the voice type: cloned voices point at their
// reference audio, designed voices carry the style instructions, default
// voices select a named speaker. A cloned voice without reference audio
// simply omits the field; the provider's rejection of the resulting request
// surfaces later as a provider error, not a validation failure.
func BuildRequest(req core.SynthesisRequest) Request {
	out := Request{
		Input:          req.Text,
		ResponseFormat: responseFormat,
		TaskType:       string(req.TaskType),
		Language:       MapLanguage(req.Language),
		MaxNewTokens:   MaxNewTokens,
		Voice:          "",
		RefAudio:       "",
		Instructions:   "",
	}

	if out.TaskType == "" {
		out.TaskType = string(core.TaskTypeBase)
	}

	switch req.VoiceType {
	case core.VoiceTypeCloned:
		if req.ReferenceAudioURL != "" {
			out.RefAudio = req.ReferenceAudioURL
		}
	case core.VoiceTypeDesigned:
		if req.VoiceDescription != "" {
			out.Instructions = req.VoiceDescription
		}
	case core.VoiceTypeDefault:
		if req.Speaker != "" {
			out.Voice = req.Speaker
		}
	}

	return out
}

// Recognized endpoint suffixes, most specific first.
const (
	pathTTS            = "/tts"
	pathGenerateSpeech = "/generate/speech"
	versionedAPIRoot   = "/v1"
	defaultCallPath    = "/v1/tts"
)

// ResolveEndpoint derives the final synthesis call URL from the configured
// base. Operators may configure a full synthesis path, a versioned API root,
// or a bare host; the shapes are recognized in that order of specificity so
// the exact suffix never has to be known up front.
func ResolveEndpoint(baseURL string) string {
	trimmed := strings.TrimRight(baseURL, "/")

	if strings.HasSuffix(trimmed, pathTTS) || strings.HasSuffix(trimmed, pathGenerateSpeech) {
		return trimmed
	}

	if strings.HasSuffix(trimmed, versionedAPIRoot) {
		return trimmed + pathTTS
	}

	return trimmed + defaultCallPath
}
