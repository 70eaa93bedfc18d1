package httpapi

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/voiceforge/voiceforge-api/internal/core"
	"github.com/voiceforge/voiceforge-api/internal/service"
	"github.com/voiceforge/voiceforge-api/internal/signer"
)

// contentTypeAudioMPEG is the media type served for fetched artifacts.
const contentTypeAudioMPEG = "audio/mpeg"

func (s *Server) handleHealth(ginCtx *gin.Context) {
	ginCtx.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// handleGenerate runs the generation pipeline and shapes the response per
// outcome: 200 with the signed URL on success, 429 with usage numbers on
// quota exhaustion, and the 4xx/5xx taxonomy otherwise.
func (s *Server) handleGenerate(ginCtx *gin.Context) {
	var req service.GenerateRequest

	bindErr := ginCtx.ShouldBindJSON(&req)
	if bindErr != nil {
		ginCtx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})

		return
	}

	userID := currentUser(ginCtx)

	result, err := s.svc.Generate(ginCtx.Request.Context(), userID, req)
	if err != nil {
		s.writeGenerateError(ginCtx, userID, err)

		return
	}

	var generationID any
	if result.GenerationID != nil {
		generationID = *result.GenerationID
	}

	ginCtx.JSON(http.StatusOK, gin.H{
		"success":       true,
		"audio_url":     result.AudioURL,
		"generation_id": generationID,
	})
}

// writeGenerateError maps pipeline failures onto wire statuses. The quota
// outcome keeps its structured shape so clients can branch on it for
// upgrade messaging.
func (s *Server) writeGenerateError(ginCtx *gin.Context, userID string, err error) {
	var quotaErr *core.QuotaExceededError
	if errors.As(err, &quotaErr) {
		ginCtx.JSON(http.StatusTooManyRequests, gin.H{
			"error":   "quota_exceeded",
			"message": quotaErr.Error(),
			"usage": gin.H{
				"used":  quotaErr.Used,
				"limit": quotaErr.Limit,
			},
		})

		return
	}

	switch {
	case errors.Is(err, core.ErrValidation):
		ginCtx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, core.ErrVoiceNotFound):
		ginCtx.JSON(http.StatusNotFound, gin.H{"error": "Voice not found"})
	case errors.Is(err, core.ErrForbidden):
		ginCtx.JSON(http.StatusForbidden, gin.H{"error": "Access denied to this voice"})
	default:
		s.log.Error("Generation failed for user %s: %v", userID, err)
		ginCtx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// handleFetchAudio serves a stored artifact once its signed link checks out.
func (s *Server) handleFetchAudio(ginCtx *gin.Context) {
	key := ginCtx.Param("key")
	expParam := ginCtx.Query("exp")
	sigParam := ginCtx.Query("sig")

	err := s.urls.Verify(key, expParam, sigParam)
	if err != nil {
		status := http.StatusForbidden
		if errors.Is(err, signer.ErrBadExpiry) {
			status = http.StatusBadRequest
		}

		ginCtx.JSON(status, gin.H{"error": err.Error()})

		return
	}

	data, err := s.svc.FetchAudio(ginCtx.Request.Context(), key)
	if err != nil {
		if errors.Is(err, core.ErrAudioNotFound) {
			ginCtx.JSON(http.StatusNotFound, gin.H{"error": "Audio not found"})

			return
		}

		s.writeInternalError(ginCtx, "Audio fetch failed", err)

		return
	}

	ginCtx.Data(http.StatusOK, contentTypeAudioMPEG, data)
}

func (s *Server) handleQuota(ginCtx *gin.Context) {
	status, err := s.svc.QuotaStatus(ginCtx.Request.Context(), currentUser(ginCtx))
	if err != nil {
		s.writeInternalError(ginCtx, "Failed to compute quota", err)

		return
	}

	ginCtx.JSON(http.StatusOK, status)
}

func (s *Server) handleGetPlan(ginCtx *gin.Context) {
	info, err := s.svc.PlanInfo(ginCtx.Request.Context(), currentUser(ginCtx))
	if err != nil {
		s.writeInternalError(ginCtx, "Failed to read plan", err)

		return
	}

	ginCtx.JSON(http.StatusOK, info)
}

type switchPlanRequest struct {
	Plan string `json:"plan"`
}

func (s *Server) handleSwitchPlan(ginCtx *gin.Context) {
	var req switchPlanRequest

	bindErr := ginCtx.ShouldBindJSON(&req)
	if bindErr != nil {
		ginCtx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})

		return
	}

	info, err := s.svc.SwitchPlan(ginCtx.Request.Context(), currentUser(ginCtx), core.Plan(req.Plan))
	if err != nil {
		if errors.Is(err, core.ErrValidation) {
			ginCtx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

			return
		}

		s.writeInternalError(ginCtx, "Failed to switch plan", err)

		return
	}

	ginCtx.JSON(http.StatusOK, info)
}

func (s *Server) handleListGenerations(ginCtx *gin.Context) {
	generations, err := s.svc.History(ginCtx.Request.Context(), currentUser(ginCtx))
	if err != nil {
		s.writeInternalError(ginCtx, "Failed to list generations", err)

		return
	}

	ginCtx.JSON(http.StatusOK, gin.H{"generations": generations})
}

func (s *Server) handleListVoices(ginCtx *gin.Context) {
	voices, err := s.svc.ListVoices(ginCtx.Request.Context(), currentUser(ginCtx))
	if err != nil {
		s.writeInternalError(ginCtx, "Failed to list voices", err)

		return
	}

	ginCtx.JSON(http.StatusOK, gin.H{"voices": voices})
}

// handleCloneVoice accepts a multipart form: name, language, description,
// and the reference audio file.
func (s *Server) handleCloneVoice(ginCtx *gin.Context) {
	fileHeader, err := ginCtx.FormFile("audio")
	if err != nil {
		ginCtx.JSON(http.StatusBadRequest, gin.H{"error": "Missing audio file"})

		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		ginCtx.JSON(http.StatusBadRequest, gin.H{"error": "Unreadable audio file"})

		return
	}
	defer file.Close()

	audioData := make([]byte, fileHeader.Size)

	_, err = io.ReadFull(file, audioData)
	if err != nil {
		ginCtx.JSON(http.StatusBadRequest, gin.H{"error": "Unreadable audio file"})

		return
	}

	voice, err := s.svc.CloneVoice(ginCtx.Request.Context(), currentUser(ginCtx), service.CloneVoiceParams{
		Name:        ginCtx.PostForm("name"),
		Language:    ginCtx.PostForm("language"),
		Description: ginCtx.PostForm("description"),
		Filename:    fileHeader.Filename,
		AudioData:   audioData,
	})
	if err != nil {
		s.writeVoiceError(ginCtx, err)

		return
	}

	ginCtx.JSON(http.StatusCreated, voice)
}

type designVoiceRequest struct {
	Name            string `json:"name"`
	Language        string `json:"language"`
	Gender          string `json:"gender"`
	AgeRange        string `json:"age_range"`
	SpeakingStyle   string `json:"speaking_style"`
	Emotion         string `json:"emotion"`
	Speed           string `json:"speed"`
	AdditionalNotes string `json:"additional_notes"`
}

func (s *Server) handleDesignVoice(ginCtx *gin.Context) {
	var req designVoiceRequest

	bindErr := ginCtx.ShouldBindJSON(&req)
	if bindErr != nil {
		ginCtx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})

		return
	}

	voice, err := s.svc.DesignVoice(ginCtx.Request.Context(), currentUser(ginCtx), service.DesignVoiceParams{
		Name:            req.Name,
		Language:        req.Language,
		Gender:          req.Gender,
		AgeRange:        req.AgeRange,
		SpeakingStyle:   req.SpeakingStyle,
		Emotion:         req.Emotion,
		Speed:           req.Speed,
		AdditionalNotes: req.AdditionalNotes,
	})
	if err != nil {
		s.writeVoiceError(ginCtx, err)

		return
	}

	ginCtx.JSON(http.StatusCreated, voice)
}

type renameVoiceRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleRenameVoice(ginCtx *gin.Context) {
	var req renameVoiceRequest

	bindErr := ginCtx.ShouldBindJSON(&req)
	if bindErr != nil {
		ginCtx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})

		return
	}

	voice, err := s.svc.RenameVoice(
		ginCtx.Request.Context(),
		currentUser(ginCtx),
		ginCtx.Param("id"),
		req.Name,
	)
	if err != nil {
		s.writeVoiceError(ginCtx, err)

		return
	}

	ginCtx.JSON(http.StatusOK, voice)
}

func (s *Server) handleDeleteVoice(ginCtx *gin.Context) {
	err := s.svc.DeleteVoice(ginCtx.Request.Context(), currentUser(ginCtx), ginCtx.Param("id"))
	if err != nil {
		s.writeVoiceError(ginCtx, err)

		return
	}

	ginCtx.JSON(http.StatusOK, gin.H{"success": true})
}

// writeVoiceError maps voice-management failures onto wire statuses.
func (s *Server) writeVoiceError(ginCtx *gin.Context, err error) {
	switch {
	case errors.Is(err, core.ErrValidation):
		ginCtx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, core.ErrVoiceNotFound):
		ginCtx.JSON(http.StatusNotFound, gin.H{"error": "Voice not found"})
	case errors.Is(err, core.ErrForbidden):
		ginCtx.JSON(http.StatusForbidden, gin.H{"error": "Access denied to this voice"})
	default:
		s.writeInternalError(ginCtx, "Voice operation failed", err)
	}
}

func (s *Server) writeInternalError(ginCtx *gin.Context, message string, err error) {
	s.log.Error("%s: %v", message, err)
	ginCtx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
