// Package service implements the generation request pipeline: validation,
// quota enforcement, voice authorization, provider dispatch, artifact
// persistence, and best-effort bookkeeping.
package service

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/voiceforge/voiceforge-api/internal/core"
)

// MaxTextLength is the post-trim cap on input text, counted in characters so
// multibyte scripts get the full budget.
const MaxTextLength = 5000

// DefaultLanguage is used when the request omits a language tag.
const DefaultLanguage = "auto"

// Violation messages.
const (
	violationVoiceIDMissing = "voice_id is required"
	violationVoiceIDShape   = "voice_id must be a valid UUID"
	violationTextMissing    = "text is required and must be non-empty after trimming"
	violationTextTooLong    = "text must be at most 5000 characters after trimming"
)

// supportedLanguages is the fixed language tag set accepted on requests.
var supportedLanguages = map[string]struct{}{
	"auto": {},
	"en":   {},
	"zh":   {},
	"ja":   {},
	"ko":   {},
	"es":   {},
	"fr":   {},
	"de":   {},
	"pt":   {},
	"ru":   {},
	"ar":   {},
}

// GenerateRequest is the raw generation payload as received on the wire.
type GenerateRequest struct {
	VoiceID  string `json:"voice_id"`
	Text     string `json:"text"`
	Language string `json:"language"`
}

// ValidatedRequest is the typed, normalized form of a generation request.
type ValidatedRequest struct {
	VoiceID  string
	Text     string
	Language string
}

// ValidateRequest normalizes a raw request or fails with a ValidationError
// enumerating every violated rule. It is a pure function: no side effects,
// and validating an already-trimmed text yields the same decision as
// validating its untrimmed form.
func ValidateRequest(req GenerateRequest) (*ValidatedRequest, error) {
	var violations []string

	switch {
	case req.VoiceID == "":
		violations = append(violations, violationVoiceIDMissing)
	default:
		_, err := uuid.Parse(req.VoiceID)
		if err != nil {
			violations = append(violations, violationVoiceIDShape)
		}
	}

	text := strings.TrimSpace(req.Text)

	switch {
	case text == "":
		violations = append(violations, violationTextMissing)
	case utf8.RuneCountInString(text) > MaxTextLength:
		violations = append(violations, violationTextTooLong)
	}

	language := req.Language
	if language == "" {
		language = DefaultLanguage
	}

	_, supported := supportedLanguages[language]
	if !supported {
		violations = append(violations, fmt.Sprintf("language %q is not supported", req.Language))
	}

	if len(violations) > 0 {
		return nil, &core.ValidationError{Violations: violations}
	}

	return &ValidatedRequest{
		VoiceID:  req.VoiceID,
		Text:     text,
		Language: language,
	}, nil
}
