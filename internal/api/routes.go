package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/professorai/server/adapters/whatsapp"
	"github.com/professorai/server/domain"
	"github.com/professorai/server/domain/entities"
	"github.com/professorai/server/domain/repositories"
	"github.com/professorai/server/internal/audiostore"
	"github.com/professorai/server/internal/auth"
	"github.com/professorai/server/usecase"
)

// transcriptLimit bounds how many turns the admin transcript view returns.
const transcriptLimit = 200

// Server holds the dependencies the HTTP handlers need.
type Server struct {
	tutor         *usecase.TutorService
	users         repositories.UserRepository
	conversations repositories.ConversationRepository
	gateway       repositories.MessageGateway
	audioStore    repositories.AudioStore
	issuer        *auth.TokenIssuer
	verifyToken   string
	adminAPIKey   string
	tokenTTL      time.Duration
	logger        *zap.Logger
}

// NewServer creates the HTTP handler set.
func NewServer(
	tutor *usecase.TutorService,
	users repositories.UserRepository,
	conversations repositories.ConversationRepository,
	gateway repositories.MessageGateway,
	audioStore repositories.AudioStore,
	issuer *auth.TokenIssuer,
	verifyToken, adminAPIKey string,
	logger *zap.Logger,
) *Server {
	return &Server{
		tutor:         tutor,
		users:         users,
		conversations: conversations,
		gateway:       gateway,
		audioStore:    audioStore,
		issuer:        issuer,
		verifyToken:   verifyToken,
		adminAPIKey:   adminAPIKey,
		tokenTTL:      24 * time.Hour,
		logger:        logger,
	}
}

// InitRoutes initializes all API routes
func InitRoutes(e *echo.Echo, s *Server) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "professorai-server",
		})
	})

	wa := e.Group("/api/whatsapp")
	wa.GET("/webhook", s.verifyWebhook)
	wa.POST("/webhook", s.handleWebhook)
	wa.GET("/audio/:filename", s.serveAudio)

	e.POST("/api/admin/token", s.adminToken)

	admin := e.Group("/api/admin", s.requireAdmin)
	admin.GET("/conversations", s.listConversations)
	admin.GET("/conversations/:id/messages", s.conversationMessages)
	admin.POST("/conversations/:id/reset", s.resetConversation)
	admin.GET("/users/:phone/level", s.userLevel)
	admin.GET("/users/:phone/study-plan", s.userStudyPlan)
	admin.GET("/media/:id", s.downloadMedia)
}

// verifyWebhook answers the provider's challenge-response handshake.
func (s *Server) verifyWebhook(c echo.Context) error {
	challenge, ok := whatsapp.VerifyWebhook(
		s.verifyToken,
		c.QueryParam("hub.mode"),
		c.QueryParam("hub.verify_token"),
		c.QueryParam("hub.challenge"),
	)
	if !ok {
		s.logger.Warn("Webhook verification failed")
		return c.JSON(http.StatusForbidden, ErrorResponse{
			Error:   "verification_failed",
			Message: "Invalid verification token",
		})
	}
	s.logger.Info("Webhook verification successful")
	return c.String(http.StatusOK, challenge)
}

// handleWebhook receives provider deliveries. It acknowledges with 200 on
// every handled path, including malformed payloads, so the provider does
// not retry deliveries we can never process.
func (s *Server) handleWebhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "read_failed",
			Message: "Failed to read request body",
		})
	}

	msg, err := whatsapp.ParseWebhook(body)
	if err != nil {
		s.logger.Warn("Malformed webhook payload", zap.Error(err))
		return c.JSON(http.StatusOK, WebhookAck{Status: "error", Action: "invalid_payload"})
	}
	if msg == nil {
		// Status callback or payload without messages.
		return c.JSON(http.StatusOK, WebhookAck{Status: "success", Action: "no_content"})
	}

	if err := s.tutor.HandleInbound(c.Request().Context(), msg); err != nil {
		s.logger.Error("Failed to process inbound message",
			zap.String("from", msg.From),
			zap.Error(err))
		var persistence *domain.PersistenceError
		if errors.As(err, &persistence) {
			// No ack: the provider will redeliver and dedup will sort it out.
			return c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "processing_failed",
				Message: "Failed to process message",
			})
		}
		return c.JSON(http.StatusOK, WebhookAck{Status: "error", Action: "processing_failed"})
	}

	return c.JSON(http.StatusOK, WebhookAck{Status: "success", Action: "processed"})
}

// serveAudio streams a stored audio file.
func (s *Server) serveAudio(c echo.Context) error {
	filename := c.Param("filename")
	if !audiostore.ValidFilename(filename) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_filename",
			Message: "Invalid filename",
		})
	}

	data, err := s.audioStore.Read(filename)
	if errors.Is(err, audiostore.ErrNotFound) {
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Audio file not found",
		})
	}
	if err != nil {
		s.logger.Error("Failed to read audio file",
			zap.String("filename", filename),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "read_failed",
			Message: "Failed to read audio file",
		})
	}

	c.Response().Header().Set("Cache-Control", "public, max-age=3600")
	return c.Blob(http.StatusOK, audiostore.ContentTypeFor(filename), data)
}

// adminToken exchanges the static admin API key for a short-lived JWT.
func (s *Server) adminToken(c echo.Context) error {
	var req AdminTokenRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}
	if req.APIKey == "" || req.APIKey != s.adminAPIKey {
		s.logger.Warn("Admin token exchange rejected")
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "authentication_failed",
			Message: "Invalid API key",
		})
	}

	token, err := s.issuer.GenerateAdminToken("admin")
	if err != nil {
		s.logger.Error("Failed to generate admin token", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "token_generation_failed",
			Message: "Failed to generate authentication token",
		})
	}

	return c.JSON(http.StatusOK, AdminTokenResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(s.tokenTTL),
	})
}

// requireAdmin validates the bearer token on admin routes.
func (s *Server) requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		var token string
		authHeader := c.Request().Header.Get("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		}
		if token == "" {
			return c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "missing_token",
				Message: "JWT token is required in Authorization header",
			})
		}

		claims, err := s.issuer.ValidateToken(token)
		if err != nil {
			s.logger.Warn("Admin request rejected: invalid token", zap.Error(err))
			return c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "invalid_token",
				Message: "Invalid or expired JWT token",
			})
		}
		if claims.Role != "admin" {
			return c.JSON(http.StatusForbidden, ErrorResponse{
				Error:   "invalid_role",
				Message: "Admin token required",
			})
		}

		return next(c)
	}
}

func (s *Server) listConversations(c echo.Context) error {
	var status entities.ConversationStatus
	if raw := c.QueryParam("status"); raw != "" {
		switch entities.ConversationStatus(raw) {
		case entities.ConversationActive, entities.ConversationCompleted, entities.ConversationReset:
			status = entities.ConversationStatus(raw)
		default:
			return c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_status",
				Message: "Unknown conversation status",
			})
		}
	}

	summaries, err := s.conversations.List(c.Request().Context(), status)
	if err != nil {
		s.logger.Error("Failed to list conversations", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "list_failed",
			Message: "Failed to list conversations",
		})
	}

	out := make([]ConversationSummaryResponse, 0, len(summaries))
	for _, summary := range summaries {
		out = append(out, ConversationSummaryResponse{
			ID:            summary.Conversation.ID,
			UserPhone:     summary.UserPhone,
			UserName:      summary.UserName,
			UserLevel:     summary.UserLevel,
			Status:        summary.Conversation.Status,
			StartedAt:     summary.Conversation.StartedAt,
			LastMessageAt: summary.Conversation.LastMessageAt,
			MessageCount:  summary.TurnCount,
		})
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) conversationMessages(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Conversation id must be numeric",
		})
	}

	ctx := c.Request().Context()
	conversation, err := s.conversations.GetByID(ctx, uint(id))
	if err != nil {
		s.logger.Error("Failed to load conversation", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "load_failed",
			Message: "Failed to load conversation",
		})
	}
	if conversation == nil {
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Conversation not found",
		})
	}

	turns, err := s.conversations.History(ctx, conversation.ID, transcriptLimit)
	if err != nil {
		s.logger.Error("Failed to load transcript", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "load_failed",
			Message: "Failed to load transcript",
		})
	}

	out := make([]TurnResponse, 0, len(turns))
	for _, turn := range turns {
		resp := TurnResponse{
			ID:        turn.ID,
			Direction: turn.Direction,
			Content:   turn.Content,
			CreatedAt: turn.CreatedAt,
		}
		if turn.AudioAsset != nil {
			resp.AudioURL = s.audioStore.URL(turn.AudioAsset.Filename)
		}
		out = append(out, resp)
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) resetConversation(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Conversation id must be numeric",
		})
	}

	ctx := c.Request().Context()
	conversation, err := s.conversations.GetByID(ctx, uint(id))
	if err != nil {
		s.logger.Error("Failed to load conversation", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "load_failed",
			Message: "Failed to load conversation",
		})
	}
	if conversation == nil {
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Conversation not found",
		})
	}

	if err := s.conversations.Reset(ctx, conversation.ID); err != nil {
		s.logger.Error("Failed to reset conversation",
			zap.Uint("conversationID", conversation.ID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "reset_failed",
			Message: "Failed to reset conversation",
		})
	}

	s.logger.Info("Conversation reset", zap.Uint("conversationID", conversation.ID))
	return c.JSON(http.StatusOK, map[string]string{"status": "reset"})
}

// userLevel reports a user's assessed English level and whether the
// assessment has finished.
func (s *Server) userLevel(c echo.Context) error {
	user, err := s.users.GetByPhone(c.Request().Context(), c.Param("phone"))
	if err != nil {
		s.logger.Error("Failed to load user", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "load_failed",
			Message: "Failed to load user",
		})
	}
	if user == nil {
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "User not found",
		})
	}

	return c.JSON(http.StatusOK, UserLevelResponse{
		Phone:               user.Phone,
		Level:               user.Level,
		AssessmentCompleted: user.Level != "",
	})
}

// userStudyPlan returns the study plan generated after assessment.
func (s *Server) userStudyPlan(c echo.Context) error {
	user, err := s.users.GetByPhone(c.Request().Context(), c.Param("phone"))
	if err != nil {
		s.logger.Error("Failed to load user", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "load_failed",
			Message: "Failed to load user",
		})
	}
	if user == nil {
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "User not found",
		})
	}
	if user.StudyPlan == "" {
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Study plan not generated yet",
		})
	}

	// The plan is stored as the model emitted it; non-JSON output is
	// returned as a plain string.
	plan := json.RawMessage(user.StudyPlan)
	if !json.Valid(plan) {
		quoted, _ := json.Marshal(user.StudyPlan)
		plan = quoted
	}

	return c.JSON(http.StatusOK, StudyPlanResponse{
		Phone:     user.Phone,
		Level:     user.Level,
		StudyPlan: plan,
	})
}

// downloadMedia proxies a received media object from the provider, for
// inspecting voice notes that failed transcription.
func (s *Server) downloadMedia(c echo.Context) error {
	mediaID := c.Param("id")
	if mediaID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Media id is required",
		})
	}

	data, contentType, err := s.gateway.DownloadMedia(c.Request().Context(), mediaID)
	if err != nil {
		s.logger.Error("Failed to download media",
			zap.String("mediaID", mediaID),
			zap.Error(err))
		return c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "download_failed",
			Message: "Failed to download media",
		})
	}
	return c.Blob(http.StatusOK, contentType, data)
}
