package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/skillscope/internal/domain"
	"github.com/bryanwahyu/skillscope/internal/domain/ai"
	"github.com/bryanwahyu/skillscope/internal/domain/analysis"
	"github.com/bryanwahyu/skillscope/internal/domain/chat"
	"github.com/bryanwahyu/skillscope/internal/domain/mindmap"
)

var t0 = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

func seedConversation(t *testing.T, s *Store) chat.ConversationID {
	t.Helper()
	c := &chat.Conversation{ID: "c1", UserID: "u1", AssistanceType: chat.AssistGeneral, CreatedAt: t0, UpdatedAt: t0}
	require.NoError(t, s.CreateConversation(context.Background(), c))
	return c.ID
}

func pair(id chat.ConversationID, n int, at time.Time) (*chat.Turn, *chat.Turn) {
	u := &chat.Turn{ID: "u" + string(rune('a'+n)), ConversationID: id, Role: ai.RoleUser, Content: "q", CreatedAt: at}
	a := &chat.Turn{ID: "a" + string(rune('a'+n)), ConversationID: id, Role: ai.RoleAssistant, Content: "a", CreatedAt: at}
	return u, a
}

func TestAppendPairAndOrdering(t *testing.T) {
	ctx := context.Background()
	s := New()
	id := seedConversation(t, s)

	for i := 0; i < 12; i++ {
		u, a := pair(id, i, t0.Add(time.Duration(i)*time.Minute))
		require.NoError(t, s.AppendPair(ctx, u, a))
	}

	all, err := s.Turns(ctx, id)
	require.NoError(t, err)
	require.Len(t, all, 24)
	for i := 0; i < len(all); i += 2 {
		assert.Equal(t, ai.RoleUser, all[i].Role, "user before assistant on equal timestamps")
		assert.Equal(t, ai.RoleAssistant, all[i+1].Role)
	}

	window, err := s.History(ctx, id, chat.HistoryWindow)
	require.NoError(t, err)
	require.Len(t, window, chat.HistoryWindow)
	assert.Equal(t, all[4:], window, "window keeps the most recent turns in order")
}

func TestAppendPairFailureStoresNothing(t *testing.T) {
	ctx := context.Background()
	s := New()
	id := seedConversation(t, s)
	s.FailAppend = errors.New("disk full")

	u, a := pair(id, 0, t0)
	require.Error(t, s.AppendPair(ctx, u, a))
	turns, err := s.Turns(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestAppendPairUnknownConversation(t *testing.T) {
	u, a := pair("nope", 0, t0)
	assert.ErrorIs(t, New().AppendPair(context.Background(), u, a), domain.ErrNotFound)
}

func TestInterestsRanking(t *testing.T) {
	ctx := context.Background()
	s := New()
	for i, topic := range []string{"Go", "rust", "go", "Kubernetes", "GO ", "Rust"} {
		require.NoError(t, s.Record(ctx, "u1", topic, t0.Add(time.Duration(i)*time.Second)))
	}
	top, err := s.Top(ctx, "u1", 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "Go", top[0].Topic)
	assert.Equal(t, 3, top[0].SearchCount)
	assert.Equal(t, 2, top[1].SearchCount)

	none, err := s.Top(ctx, "someone-else", 5)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMindMapRepository(t *testing.T) {
	ctx := context.Background()
	repo := New().MindMaps()
	for i, id := range []mindmap.ID{"m1", "m2"} {
		require.NoError(t, repo.Save(ctx, &mindmap.Saved{ID: id, UserID: "u1", Topic: string(id), CreatedAt: t0.Add(time.Duration(i) * time.Hour)}))
	}
	list, err := repo.ListByUser(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, mindmap.ID("m2"), list[0].ID)

	require.NoError(t, repo.Delete(ctx, "m1"))
	_, err = repo.Get(ctx, "m1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "m1"), domain.ErrNotFound)
}

func TestAnalysisPaginate(t *testing.T) {
	ctx := context.Background()
	repo := New().Analyses()
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Save(ctx, &analysis.Record{
			ID:        analysis.RecordID(string(rune('a' + i))),
			UserID:    "u1",
			CreatedAt: t0.Add(time.Duration(i) * time.Minute),
		}))
	}
	page1, err := repo.Paginate(ctx, "u1", 1, 2)
	require.NoError(t, err)
	require.Len(t, page1, 2)
	assert.Equal(t, analysis.RecordID("e"), page1[0].ID)

	page3, err := repo.Paginate(ctx, "u1", 3, 2)
	require.NoError(t, err)
	require.Len(t, page3, 1)
	assert.Equal(t, analysis.RecordID("a"), page3[0].ID)

	empty, err := repo.Paginate(ctx, "u1", 9, 2)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
