package supabase

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/supabase-community/postgrest-go"

	"github.com/bryanwahyu/skillscope/internal/domain"
	"github.com/bryanwahyu/skillscope/internal/domain/ai"
	"github.com/bryanwahyu/skillscope/internal/domain/chat"
)

type recorded struct {
	method string
	path   string
	query  string
	body   string
}

// fakeRest answers PostgREST calls from canned per-table responses.
type fakeRest struct {
	mu       sync.Mutex
	calls    []recorded
	get      map[string]string
	failPost map[string]bool
}

func (f *fakeRest) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	table := strings.TrimPrefix(r.URL.Path, "/")
	f.mu.Lock()
	f.calls = append(f.calls, recorded{method: r.Method, path: table, query: r.URL.RawQuery, body: string(body)})
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch r.Method {
	case http.MethodGet:
		if out, ok := f.get[table]; ok {
			_, _ = io.WriteString(w, out)
			return
		}
		_, _ = io.WriteString(w, "[]")
	case http.MethodPost:
		if f.failPost[table] {
			w.WriteHeader(http.StatusConflict)
			_, _ = io.WriteString(w, `{"message":"duplicate key","code":"23505"}`)
			return
		}
		w.WriteHeader(http.StatusCreated)
	default:
		_, _ = io.WriteString(w, "[]")
	}
}

func (f *fakeRest) posts(table string) []recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []recorded
	for _, c := range f.calls {
		if c.method == http.MethodPost && c.path == table {
			out = append(out, c)
		}
	}
	return out
}

func newStore(t *testing.T, f *fakeRest) *Store {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return New(postgrest.NewClient(srv.URL, "public", nil))
}

const conversationJSON = `[{"id":"c1","user_id":"u1","assistance_type":"general","created_at":"2025-01-01T00:00:00Z","updated_at":"2025-01-01T00:00:00Z"}]`

func TestAppendPairIsOneBulkInsert(t *testing.T) {
	f := &fakeRest{get: map[string]string{tableConversations: conversationJSON}}
	repo := newStore(t, f).Conversations()

	at := time.Date(2025, 1, 1, 0, 0, 1, 0, time.UTC)
	u := &chat.Turn{ID: "t1", ConversationID: "c1", Role: ai.RoleUser, Content: "hi", CreatedAt: at}
	a := &chat.Turn{ID: "t2", ConversationID: "c1", Role: ai.RoleAssistant, Content: "hello", CreatedAt: at.Add(time.Millisecond)}
	require.NoError(t, repo.AppendPair(context.Background(), u, a))

	posts := f.posts(tableMessages)
	require.Len(t, posts, 1)
	var rows []messageRow
	require.NoError(t, json.Unmarshal([]byte(posts[0].body), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "user", rows[0].Role)
	assert.Equal(t, "assistant", rows[1].Role)
}

func TestAppendPairRejectedInsert(t *testing.T) {
	f := &fakeRest{get: map[string]string{tableConversations: conversationJSON}, failPost: map[string]bool{tableMessages: true}}
	repo := newStore(t, f).Conversations()
	u := &chat.Turn{ID: "t1", ConversationID: "c1", Role: ai.RoleUser, Content: "hi"}
	a := &chat.Turn{ID: "t2", ConversationID: "c1", Role: ai.RoleAssistant, Content: "hello"}
	assert.Error(t, repo.AppendPair(context.Background(), u, a))
}

func TestGetConversationMissing(t *testing.T) {
	repo := newStore(t, &fakeRest{}).Conversations()
	_, err := repo.GetConversation(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestHistoryIsChronological(t *testing.T) {
	f := &fakeRest{get: map[string]string{tableMessages: `[
		{"id":"t4","conversation_id":"c1","role":"assistant","content":"b","created_at":"2025-01-01T00:00:02Z"},
		{"id":"t3","conversation_id":"c1","role":"user","content":"b?","created_at":"2025-01-01T00:00:02Z"},
		{"id":"t2","conversation_id":"c1","role":"assistant","content":"a","created_at":"2025-01-01T00:00:01Z"}
	]`}}
	repo := newStore(t, f).Conversations()
	turns, err := repo.History(context.Background(), "c1", 3)
	require.NoError(t, err)
	ids := []string{turns[0].ID, turns[1].ID, turns[2].ID}
	assert.Equal(t, []string{"t2", "t3", "t4"}, ids)

	f.mu.Lock()
	last := f.calls[len(f.calls)-1]
	f.mu.Unlock()
	assert.Contains(t, last.query, "conversation_id=eq.c1")
	assert.Contains(t, last.query, "limit=3")
}

func TestInterestRecordIncrements(t *testing.T) {
	f := &fakeRest{get: map[string]string{tableInterests: `[{"user_id":"u1","topic_key":"go","topic":"Go","search_count":2,"last_searched_at":"2025-01-01T00:00:00Z"}]`}}
	repo := newStore(t, f).Interests()
	require.NoError(t, repo.Record(context.Background(), "u1", " GO ", time.Now()))

	posts := f.posts(tableInterests)
	require.Len(t, posts, 1)
	var row interestRow
	require.NoError(t, json.Unmarshal([]byte(posts[0].body), &row))
	assert.Equal(t, 3, row.SearchCount)
	assert.Equal(t, "Go", row.Topic)
	assert.Contains(t, posts[0].query, "on_conflict=")
}
