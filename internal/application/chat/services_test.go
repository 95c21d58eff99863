package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/skillscope/internal/application"
	"github.com/bryanwahyu/skillscope/internal/domain"
	"github.com/bryanwahyu/skillscope/internal/domain/ai"
	"github.com/bryanwahyu/skillscope/internal/domain/chat"
	"github.com/bryanwahyu/skillscope/internal/domain/identity"
	"github.com/bryanwahyu/skillscope/internal/infra/ai/prompt"
	"github.com/bryanwahyu/skillscope/internal/infra/db/memory"
	"github.com/bryanwahyu/skillscope/internal/infra/feed"
	"github.com/bryanwahyu/skillscope/internal/logger"
)

type countingObserver struct{ ok, failed int }

func (o *countingObserver) ChatPairPersisted(ok bool) {
	if ok {
		o.ok++
	} else {
		o.failed++
	}
}

func newService(client ai.Client) (*Service, *memory.Store, *countingObserver) {
	store := memory.New()
	obs := &countingObserver{}
	svc := &Service{
		AI:            client,
		Conversations: store,
		Interests:     store,
		Feed:          feed.NewBroker(),
		Clock:         &application.StepClock{Start: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)},
		Log:           logger.Nop(),
		Observer:      obs,
	}
	return svc, store, obs
}

func signedIn(user string) context.Context {
	return identity.WithSession(context.Background(), &identity.Session{UserID: user})
}

func echo(answer string) ai.Client {
	return ai.ClientFunc(func(context.Context, ai.Request) (ai.Response, error) {
		return ai.Response{Content: answer}, nil
	})
}

func TestSendStoresBothTurnsInOrder(t *testing.T) {
	svc, store, obs := newService(echo("Start with the tour of Go."))
	ctx := signedIn("u1")

	res, err := svc.Send(ctx, SendCommand{Message: "  How do I learn Go?  "})
	require.NoError(t, err)
	assert.Empty(t, res.Warning)
	assert.Equal(t, "Start with the tour of Go.", res.Response)
	require.NotEmpty(t, res.ConversationID)

	turns, err := store.Turns(ctx, res.ConversationID)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, ai.RoleUser, turns[0].Role)
	assert.Equal(t, "How do I learn Go?", turns[0].Content)
	assert.Equal(t, ai.RoleAssistant, turns[1].Role)
	assert.True(t, turns[1].CreatedAt.After(turns[0].CreatedAt))
	assert.Equal(t, 1, obs.ok)
}

func TestSendModelFailureStoresNothing(t *testing.T) {
	failing := ai.ClientFunc(func(context.Context, ai.Request) (ai.Response, error) {
		return ai.Response{}, ai.ErrRateLimited
	})
	svc, store, _ := newService(failing)
	ctx := signedIn("u1")
	conv, err := svc.Start(ctx, "academic")
	require.NoError(t, err)

	_, err = svc.Send(ctx, SendCommand{ConversationID: conv.ID, Message: "hello"})
	require.ErrorIs(t, err, ai.ErrRateLimited)

	turns, err := store.Turns(ctx, conv.ID)
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestSendModelFailureLeavesNoConversation(t *testing.T) {
	failing := ai.ClientFunc(func(context.Context, ai.Request) (ai.Response, error) {
		return ai.Response{}, ai.ErrQuotaExhausted
	})
	svc, store, _ := newService(failing)
	ctx := signedIn("u1")

	_, err := svc.Send(ctx, SendCommand{Message: "hello", AssistanceType: "academic"})
	require.ErrorIs(t, err, ai.ErrQuotaExhausted)

	list, err := store.ListConversations(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSendModelFailureKeepsMode(t *testing.T) {
	failing := ai.ClientFunc(func(context.Context, ai.Request) (ai.Response, error) {
		return ai.Response{}, ai.ErrUpstream
	})
	svc, _, _ := newService(failing)
	ctx := signedIn("u1")
	conv, err := svc.Start(ctx, "academic")
	require.NoError(t, err)

	_, err = svc.Send(ctx, SendCommand{ConversationID: conv.ID, Message: "hello", AssistanceType: "projects"})
	require.ErrorIs(t, err, ai.ErrUpstream)

	got, err := svc.Get(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, chat.AssistAcademic, got.AssistanceType)
}

func TestSendUnknownAssistanceTypeUsesGeneral(t *testing.T) {
	var system string
	client := ai.ClientFunc(func(_ context.Context, req ai.Request) (ai.Response, error) {
		system = req.System
		return ai.Response{Content: "ok"}, nil
	})
	svc, _, _ := newService(client)
	ctx := signedIn("u1")

	res, err := svc.Send(ctx, SendCommand{Message: "hello", AssistanceType: "career"})
	require.NoError(t, err)
	assert.Equal(t, prompt.ChatSystemPrompt(chat.AssistGeneral, nil), system)

	conv, err := svc.Get(ctx, res.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, chat.AssistGeneral, conv.AssistanceType)

	_, err = svc.SetAssistanceType(ctx, conv.ID, "career")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestSendEmptyAnswerIsUpstreamShape(t *testing.T) {
	svc, store, _ := newService(echo("   "))
	ctx := signedIn("u1")
	conv, err := svc.Start(ctx, "")
	require.NoError(t, err)

	_, err = svc.Send(ctx, SendCommand{ConversationID: conv.ID, Message: "hello"})
	require.ErrorIs(t, err, ai.ErrUpstreamShape)
	turns, _ := store.Turns(ctx, conv.ID)
	assert.Empty(t, turns)
}

func TestSendLostWriteReturnsWarning(t *testing.T) {
	svc, store, obs := newService(echo("answer"))
	store.FailAppend = errors.New("connection reset")
	ctx := signedIn("u1")

	res, err := svc.Send(ctx, SendCommand{Message: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "answer", res.Response)
	assert.Equal(t, UnsavedWarning, res.Warning)
	assert.Empty(t, res.Turns)
	assert.Equal(t, 1, obs.failed)
}

func TestSendValidation(t *testing.T) {
	called := false
	client := ai.ClientFunc(func(context.Context, ai.Request) (ai.Response, error) {
		called = true
		return ai.Response{Content: "x"}, nil
	})
	svc, _, _ := newService(client)

	_, err := svc.Send(signedIn("u1"), SendCommand{Message: " \n "})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Send(context.Background(), SendCommand{Message: "hi"})
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	assert.False(t, called)
}

func TestSendPassesHistoryInterestsAndMode(t *testing.T) {
	var seen []ai.Request
	client := ai.ClientFunc(func(_ context.Context, req ai.Request) (ai.Response, error) {
		seen = append(seen, req)
		return ai.Response{Content: "ok"}, nil
	})
	svc, store, _ := newService(client)
	ctx := signedIn("u1")
	require.NoError(t, store.Record(ctx, "u1", "Rust", time.Now()))

	first, err := svc.Send(ctx, SendCommand{Message: "one"})
	require.NoError(t, err)
	_, err = svc.Send(ctx, SendCommand{ConversationID: first.ConversationID, Message: "two", AssistanceType: "projects"})
	require.NoError(t, err)

	require.Len(t, seen, 2)
	assert.Len(t, seen[0].Messages, 1)
	require.Len(t, seen[1].Messages, 3)
	assert.Equal(t, "one", seen[1].Messages[0].Content)
	assert.Equal(t, ai.RoleAssistant, seen[1].Messages[1].Role)
	assert.Equal(t, "two", seen[1].Messages[2].Content)
	assert.Contains(t, seen[1].System, "Rust")

	conv, err := svc.Get(ctx, first.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, chat.AssistProjects, conv.AssistanceType)
}

func TestSendPublishesToFeed(t *testing.T) {
	svc, _, _ := newService(echo("pong"))
	ctx := signedIn("u1")
	conv, err := svc.Start(ctx, "general")
	require.NoError(t, err)

	sub, cancel, err := svc.Subscribe(ctx, conv.ID)
	require.NoError(t, err)
	defer cancel()

	_, err = svc.Send(ctx, SendCommand{ConversationID: conv.ID, Message: "ping"})
	require.NoError(t, err)

	var roles []ai.Role
	for len(roles) < 2 {
		select {
		case turn := <-sub:
			roles = append(roles, turn.Role)
		case <-time.After(time.Second):
			t.Fatal("feed did not deliver both turns")
		}
	}
	assert.Equal(t, []ai.Role{ai.RoleUser, ai.RoleAssistant}, roles)
}

func TestConversationOwnership(t *testing.T) {
	svc, _, _ := newService(echo("x"))
	conv, err := svc.Start(signedIn("u1"), "general")
	require.NoError(t, err)

	_, err = svc.Get(signedIn("u2"), conv.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = svc.Turns(signedIn("u2"), conv.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = svc.Get(signedIn("u1"), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
