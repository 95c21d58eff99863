package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/skillscope/internal/domain/ai"
)

var t0 = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func durable(id string, role ai.Role, content string, at time.Time) Turn {
	return Turn{ID: id, ConversationID: "c1", Role: role, Content: content, CreatedAt: at}
}

func TestTranscriptConfirmReplacesEcho(t *testing.T) {
	tr := NewTranscript(0)
	tmp := tr.Echo(ai.RoleUser, "hello", t0)
	require.Equal(t, 1, tr.Len())
	assert.True(t, tr.Entries()[0].Pending)

	tr.Confirm(tmp, durable("u1", ai.RoleUser, "hello", t0.Add(time.Second)))
	entries := tr.Entries()
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Pending)
	assert.Equal(t, "u1", entries[0].ID)
}

func TestTranscriptFeedBeforeConfirm(t *testing.T) {
	tr := NewTranscript(time.Minute)
	tmp := tr.Echo(ai.RoleUser, "hello", t0)

	u := durable("u1", ai.RoleUser, "hello", t0.Add(2*time.Second))
	assert.True(t, tr.Apply(u))
	assert.True(t, tr.Apply(durable("a1", ai.RoleAssistant, "hi!", t0.Add(3*time.Second))))

	tr.Confirm(tmp, u)
	assert.False(t, tr.Apply(u), "duplicate durable turn")

	entries := tr.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "u1", entries[0].ID)
	assert.Equal(t, "a1", entries[1].ID)
	for _, e := range entries {
		assert.False(t, e.Pending)
	}
}

func TestTranscriptMatchWindow(t *testing.T) {
	tr := NewTranscript(time.Second)
	tr.Echo(ai.RoleUser, "same text", t0)

	tr.Apply(durable("u-old", ai.RoleUser, "same text", t0.Add(-time.Hour)))
	entries := tr.Entries()
	require.Len(t, entries, 2, "out-of-window turn must not consume the echo")
	assert.Equal(t, "u-old", entries[0].ID)
	assert.True(t, entries[1].Pending)
}

func TestTranscriptRoleMustMatch(t *testing.T) {
	tr := NewTranscript(0)
	tr.Echo(ai.RoleUser, "ok", t0)
	tr.Apply(durable("a1", ai.RoleAssistant, "ok", t0))
	assert.Equal(t, 2, tr.Len())
}

func TestTranscriptDiscard(t *testing.T) {
	tr := NewTranscript(0)
	tmp := tr.Echo(ai.RoleUser, "will fail", t0)
	tr.Discard(tmp)
	assert.Zero(t, tr.Len())
}

func TestTranscriptLoadOrdersByTime(t *testing.T) {
	tr := NewTranscript(0)
	tr.Load([]Turn{
		durable("a1", ai.RoleAssistant, "second", t0.Add(time.Second)),
		durable("u1", ai.RoleUser, "first", t0),
		durable("u1", ai.RoleUser, "first", t0),
	})
	entries := tr.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "u1", entries[0].ID)
	assert.Equal(t, "a1", entries[1].ID)
}

func TestParseAssistanceType(t *testing.T) {
	got, ok := ParseAssistanceType("")
	assert.True(t, ok)
	assert.Equal(t, AssistGeneral, got)

	got, ok = ParseAssistanceType("Projects")
	assert.True(t, ok)
	assert.Equal(t, AssistProjects, got)

	_, ok = ParseAssistanceType("therapy")
	assert.False(t, ok)
}
