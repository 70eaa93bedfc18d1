// Package httpapi exposes the service over HTTP: the generation endpoint,
// voice management, quota and plan reads, history, and signed audio fetch.
package httpapi

import (
	"net/http"
	"strings"

	"github.com/book-expert/logger"
	"github.com/gin-gonic/gin"

	"github.com/voiceforge/voiceforge-api/internal/core"
	"github.com/voiceforge/voiceforge-api/internal/service"
)

// contextKeyUserID is the gin context key the auth middleware stores the
// caller's identity under.
const contextKeyUserID = "userID"

// CORS header values. The API is called directly from browsers, so
// preflights are answered permissively.
const (
	corsAllowOrigin  = "*"
	corsAllowHeaders = "authorization, x-client-info, apikey, content-type"
	corsAllowMethods = "GET, POST, PATCH, PUT, DELETE, OPTIONS"
)

// URLVerifier checks signed audio links.
type URLVerifier interface {
	Verify(key, expParam, sigParam string) error
}

// Server wires the service into a gin engine.
type Server struct {
	engine   *gin.Engine
	svc      *service.Service
	verifier core.TokenVerifier
	urls     URLVerifier
	log      *logger.Logger
}

// New builds the HTTP server with all routes registered.
func New(
	svc *service.Service,
	verifier core.TokenVerifier,
	urls URLVerifier,
	log *logger.Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	server := &Server{
		engine:   gin.New(),
		svc:      svc,
		verifier: verifier,
		urls:     urls,
		log:      log,
	}

	server.engine.Use(gin.Recovery())
	server.engine.Use(server.corsMiddleware())
	server.registerRoutes()

	return server
}

// Handler returns the http.Handler for serving or testing.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run starts the server on the given address.
func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

func (s *Server) registerRoutes() {
	s.engine.GET("/health", s.handleHealth)

	// Signed links carry their own authorization.
	s.engine.GET("/v1/audio/:key", s.handleFetchAudio)

	authed := s.engine.Group("/v1")
	authed.Use(s.authMiddleware())
	{
		authed.POST("/generate", s.handleGenerate)
		authed.GET("/quota", s.handleQuota)
		authed.GET("/plan", s.handleGetPlan)
		authed.PUT("/plan", s.handleSwitchPlan)
		authed.GET("/generations", s.handleListGenerations)
		authed.GET("/voices", s.handleListVoices)
		authed.POST("/voices/clone", s.handleCloneVoice)
		authed.POST("/voices/design", s.handleDesignVoice)
		authed.PATCH("/voices/:id", s.handleRenameVoice)
		authed.DELETE("/voices/:id", s.handleDeleteVoice)
	}
}

// corsMiddleware answers preflight requests permissively and stamps the CORS
// headers on every response.
func (s *Server) corsMiddleware() gin.HandlerFunc {
	return func(ginCtx *gin.Context) {
		ginCtx.Header("Access-Control-Allow-Origin", corsAllowOrigin)
		ginCtx.Header("Access-Control-Allow-Headers", corsAllowHeaders)
		ginCtx.Header("Access-Control-Allow-Methods", corsAllowMethods)

		if ginCtx.Request.Method == http.MethodOptions {
			ginCtx.AbortWithStatus(http.StatusNoContent)

			return
		}

		ginCtx.Next()
	}
}

// authMiddleware resolves the bearer credential to a user id or rejects the
// request with 401.
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(ginCtx *gin.Context) {
		header := ginCtx.GetHeader("Authorization")
		if header == "" {
			ginCtx.AbortWithStatusJSON(
				http.StatusUnauthorized,
				gin.H{"error": "No authorization header"},
			)

			return
		}

		token := strings.TrimPrefix(header, "Bearer ")

		userID, err := s.verifier.Verify(ginCtx.Request.Context(), token)
		if err != nil {
			ginCtx.AbortWithStatusJSON(
				http.StatusUnauthorized,
				gin.H{"error": "Unauthorized"},
			)

			return
		}

		ginCtx.Set(contextKeyUserID, userID)
		ginCtx.Next()
	}
}

// currentUser reads the identity stored by the auth middleware.
func currentUser(ginCtx *gin.Context) string {
	return ginCtx.GetString(contextKeyUserID)
}
