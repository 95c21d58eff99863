package postgres

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/skillscope/internal/domain"
	"github.com/bryanwahyu/skillscope/internal/domain/ai"
	"github.com/bryanwahyu/skillscope/internal/domain/analysis"
	"github.com/bryanwahyu/skillscope/internal/domain/chat"
	"github.com/bryanwahyu/skillscope/internal/domain/mindmap"
)

// These tests run against a live database named by SKILLSCOPE_TEST_POSTGRES_DSN.
func connectForTest(t *testing.T) (context.Context, *sql.DB) {
	t.Helper()
	dsn := os.Getenv("SKILLSCOPE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("SKILLSCOPE_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	db, err := Connect(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, Migrate(ctx, db))
	return ctx, db
}

func TestConversationRepository(t *testing.T) {
	ctx, db := connectForTest(t)
	repo := NewConversationRepository(db)

	now := time.Now().UTC().Truncate(time.Millisecond)
	c := &chat.Conversation{ID: chat.ConversationID(uuid.NewString()), UserID: "pg-user", AssistanceType: chat.AssistGeneral, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, repo.CreateConversation(ctx, c))

	for i := 0; i < 3; i++ {
		at := now.Add(time.Duration(i) * time.Second)
		u := &chat.Turn{ID: uuid.NewString(), ConversationID: c.ID, Role: ai.RoleUser, Content: "q", CreatedAt: at}
		a := &chat.Turn{ID: uuid.NewString(), ConversationID: c.ID, Role: ai.RoleAssistant, Content: "a", CreatedAt: at}
		require.NoError(t, repo.AppendPair(ctx, u, a))
	}

	turns, err := repo.Turns(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, turns, 6)
	assert.Equal(t, ai.RoleUser, turns[0].Role)
	assert.Equal(t, ai.RoleAssistant, turns[1].Role)

	recent, err := repo.History(ctx, c.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, turns[2:], recent)

	dup := &chat.Turn{ID: turns[0].ID, ConversationID: c.ID, Role: ai.RoleUser, Content: "x", CreatedAt: now}
	fresh := &chat.Turn{ID: uuid.NewString(), ConversationID: c.ID, Role: ai.RoleAssistant, Content: "y", CreatedAt: now}
	require.Error(t, repo.AppendPair(ctx, dup, fresh))
	after, err := repo.Turns(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, after, 6, "failed pair leaves no partial write")

	require.NoError(t, repo.SetAssistanceType(ctx, c.ID, chat.AssistAcademic))
	_, err = repo.GetConversation(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInterestRepository(t *testing.T) {
	ctx, db := connectForTest(t)
	repo := NewInterestRepository(db)
	user := "pg-" + uuid.NewString()

	now := time.Now().UTC()
	require.NoError(t, repo.Record(ctx, user, "Go", now))
	require.NoError(t, repo.Record(ctx, user, "go ", now.Add(time.Second)))
	require.NoError(t, repo.Record(ctx, user, "Rust", now))

	top, err := repo.Top(ctx, user, 5)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "Go", top[0].Topic)
	assert.Equal(t, 2, top[0].SearchCount)
}

func TestDocumentRepositories(t *testing.T) {
	ctx, db := connectForTest(t)
	user := "pg-" + uuid.NewString()
	now := time.Now().UTC().Truncate(time.Millisecond)

	maps := NewMindMapRepository(db)
	m := &mindmap.Saved{
		ID: mindmap.ID(uuid.NewString()), UserID: user, Topic: "Go", InterestArea: "web", SkillLevel: mindmap.SkillBeginner,
		Graph:     mindmap.Graph{Nodes: []mindmap.Node{{ID: "root", Label: "Go", Category: mindmap.CategoryRoot}}, Edges: []mindmap.Edge{}},
		CreatedAt: now,
	}
	require.NoError(t, maps.Save(ctx, m))
	got, err := maps.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, m.Graph, got.Graph)
	require.NoError(t, maps.Delete(ctx, m.ID))
	assert.ErrorIs(t, maps.Delete(ctx, m.ID), domain.ErrNotFound)

	analyses := NewAnalysisRepository(db)
	rec := &analysis.Record{ID: analysis.RecordID(uuid.NewString()), UserID: user, Topic: "Go", CreatedAt: now,
		Result: analysis.Result{Relevance: analysis.Relevance{Status: analysis.StatusCurrent, Explanation: "x"}, Overview: []string{"a"}}}
	require.NoError(t, analyses.Save(ctx, rec))
	page, err := analyses.Paginate(ctx, user, 1, 10)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, rec.Result.Overview, page[0].Result.Overview)
}
