package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/skillscope/internal/client"
	"github.com/bryanwahyu/skillscope/internal/domain/ai"
	"github.com/bryanwahyu/skillscope/internal/domain/chat"
)

func TestChatResendsKeptMessageOnEmptyLine(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/personalized-chat":
			calls++
			w.Header().Set("Content-Type", "application/json")
			if calls == 1 {
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "Rate limit exceeded. Please try again later."})
				return
			}
			now := time.Now().UTC()
			_ = json.NewEncoder(w).Encode(client.ChatResponse{
				Response:       "Start with a small project.",
				ConversationID: "c1",
				Turns: []chat.Turn{
					{ID: "t1", ConversationID: "c1", Role: ai.RoleUser, Content: "help me", CreatedAt: now},
					{ID: "t2", ConversationID: "c1", Role: ai.RoleAssistant, Content: "Start with a small project.", CreatedAt: now},
				},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	var out bytes.Buffer
	in := strings.NewReader("help me\n\n/quit\n")
	err := runChat(t.Context(), client.New(srv.URL), nil, in, &out)
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
	text := out.String()
	assert.Contains(t, text, "Rate limit")
	assert.Equal(t, 1, strings.Count(text, "Start with a small project."))
}

func TestRunAnalyzeRejectsEmptyTopicLocally(t *testing.T) {
	var out bytes.Buffer
	err := runAnalyze(t.Context(), client.New("http://127.0.0.1:1"), nil, &out)
	require.Error(t, err)
	assert.Empty(t, out.String())
}
