package httpserver

import (
	"fmt"
	"net/http"
	"strings"

	appchat "github.com/bryanwahyu/skillscope/internal/application/chat"
	appmindmap "github.com/bryanwahyu/skillscope/internal/application/mindmap"
	"github.com/bryanwahyu/skillscope/internal/domain"
	"github.com/bryanwahyu/skillscope/internal/domain/chat"
	"github.com/bryanwahyu/skillscope/internal/domain/identity"
	"github.com/bryanwahyu/skillscope/internal/middleware"
)

// POST /analyze-topic
// Body: {"topic": "<text>"}
func (r *Router) handleAnalyzeTopic(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Topic string `json:"topic"`
	}
	if err := decode(w, req, &body); err != nil {
		return err
	}
	result, err := r.analysis.Analyze(req.Context(), middleware.SanitizeString(body.Topic))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{"analysis": result})
}

// POST /generate-mind-map
// Body: {"topic": "...", "interestArea": "...", "skillLevel": "..."}
func (r *Router) handleGenerateMindMap(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Topic        string `json:"topic"`
		InterestArea string `json:"interestArea"`
		SkillLevel   string `json:"skillLevel"`
	}
	if err := decode(w, req, &body); err != nil {
		return err
	}
	g, err := r.mindMaps.Generate(req.Context(), appmindmap.GenerateCommand{
		Topic:        middleware.SanitizeString(body.Topic),
		InterestArea: middleware.SanitizeString(body.InterestArea),
		SkillLevel:   body.SkillLevel,
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{"mindMap": g})
}

// POST /personalized-chat
// Body: {"message", "conversationId", "assistanceType", "userInterests", "userId"}
func (r *Router) handlePersonalizedChat(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Message        string   `json:"message"`
		ConversationID string   `json:"conversationId"`
		AssistanceType string   `json:"assistanceType"`
		UserInterests  []string `json:"userInterests"`
		UserID         string   `json:"userId"`
	}
	if err := decode(w, req, &body); err != nil {
		return err
	}
	if strings.TrimSpace(body.Message) == "" {
		return fmt.Errorf("message is required: %w", domain.ErrValidation)
	}

	ctx := req.Context()
	// without verified identity the caller may name its user
	if r.authMode == middleware.AuthNone && strings.TrimSpace(body.UserID) != "" {
		ctx = identity.WithSession(ctx, &identity.Session{UserID: strings.TrimSpace(body.UserID)})
	}
	if !identity.FromContext(ctx).Authenticated() {
		return domain.ErrUnauthenticated
	}

	res, err := r.chat.Send(ctx, appchat.SendCommand{
		ConversationID: chat.ConversationID(strings.TrimSpace(body.ConversationID)),
		Message:        middleware.SanitizeString(body.Message),
		AssistanceType: body.AssistanceType,
		Interests:      body.UserInterests,
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, res)
}
