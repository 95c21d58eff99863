package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/bryanwahyu/skillscope/internal/client"
	"github.com/bryanwahyu/skillscope/internal/domain/ai"
	"github.com/bryanwahyu/skillscope/internal/domain/chat"
	"github.com/bryanwahyu/skillscope/internal/present"
)

// session is one interactive chat. Lines typed by the user are echoed at once
// and reconciled with the durable turns from the reply or the live feed.
type session struct {
	c          *client.Client
	out        io.Writer
	mu         sync.Mutex
	transcript *chat.Transcript
	printed    map[string]bool

	conversation   chat.ConversationID
	assistanceType string
	subscribed     bool
}

func runChat(ctx context.Context, c *client.Client, args []string, in io.Reader, out io.Writer) error {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	kind := fs.String("type", "general", "general, academic, opportunities or projects")
	conv := fs.String("conversation", "", "resume a conversation")
	_ = fs.Parse(args)

	s := &session{
		c:              c,
		out:            out,
		transcript:     chat.NewTranscript(0),
		printed:        make(map[string]bool),
		conversation:   chat.ConversationID(strings.TrimSpace(*conv)),
		assistanceType: *kind,
	}
	if s.conversation != "" {
		turns, err := c.Messages(ctx, s.conversation)
		if err != nil {
			return err
		}
		s.transcript.Load(turns)
		s.follow(ctx)
		s.render()
	}

	fmt.Fprintln(out, "type a message; /type <mode> switches mode, an empty line resends a failed message, /quit exits")
	lines := bufio.NewScanner(in)
	var kept string
	for {
		fmt.Fprint(out, "> ")
		if !lines.Scan() {
			return lines.Err()
		}
		line := strings.TrimSpace(lines.Text())
		switch {
		case line == "/quit":
			return nil
		case strings.HasPrefix(line, "/type "):
			s.assistanceType = strings.TrimSpace(strings.TrimPrefix(line, "/type "))
			fmt.Fprintf(out, "mode: %s\n", s.assistanceType)
			continue
		case line == "" && kept != "":
			line = kept
		case line == "":
			continue
		}

		if err := s.send(ctx, line); err != nil {
			n := present.NoticeFor(err)
			fmt.Fprintln(out, "! "+n.Message)
			if n.Keep {
				kept = line
			}
			continue
		}
		kept = ""
	}
}

func (s *session) send(ctx context.Context, msg string) error {
	tempID := s.transcript.Echo(ai.RoleUser, msg, time.Now().UTC())
	s.render()

	res, err := s.c.Chat(ctx, client.ChatRequest{
		Message:        msg,
		ConversationID: string(s.conversation),
		AssistanceType: s.assistanceType,
	})
	if err != nil {
		s.transcript.Discard(tempID)
		return err
	}
	if s.conversation == "" {
		s.conversation = res.ConversationID
		s.follow(ctx)
	}

	switch {
	case len(res.Turns) == 2:
		s.markPrinted(res.Turns[0])
		s.transcript.Confirm(tempID, res.Turns[0])
		s.transcript.Apply(res.Turns[1])
	default:
		// not stored; keep showing what the model said
		s.transcript.Discard(tempID)
		user := chat.Turn{Role: ai.RoleUser, Content: msg, CreatedAt: time.Now().UTC()}
		s.markPrinted(user)
		s.transcript.Apply(user)
		s.transcript.Apply(chat.Turn{Role: ai.RoleAssistant, Content: res.Response, CreatedAt: time.Now().UTC()})
	}
	s.render()
	if res.Warning != "" {
		fmt.Fprintln(s.out, "! "+res.Warning)
	}
	return nil
}

// follow applies turns written by other clients of the same conversation.
func (s *session) follow(ctx context.Context) {
	if s.subscribed || s.conversation == "" {
		return
	}
	turns, errs, err := s.c.Subscribe(ctx, s.conversation)
	if err != nil {
		fmt.Fprintln(s.out, "! live updates unavailable: "+present.NoticeFor(err).Message)
		return
	}
	s.subscribed = true
	go func() {
		for t := range turns {
			if s.transcript.Apply(t) {
				s.render()
			}
		}
		if err := <-errs; err != nil {
			fmt.Fprintln(s.out, "! live updates stopped: "+present.NoticeFor(err).Message)
		}
	}()
}

// render prints entries not printed yet. An echo is printed once; its
// confirmed turn is marked printed by send.
func (s *session) render() {
	s.mu.Lock()
	defer s.mu.Unlock()
	var fresh []chat.Entry
	for _, e := range s.transcript.Entries() {
		k := entryKey(e)
		if s.printed[k] {
			continue
		}
		s.printed[k] = true
		fresh = append(fresh, e)
	}
	_ = present.WriteTranscript(s.out, fresh)
}

func (s *session) markPrinted(t chat.Turn) {
	s.mu.Lock()
	s.printed[entryKey(chat.Entry{Turn: t})] = true
	s.mu.Unlock()
}

func entryKey(e chat.Entry) string {
	switch {
	case e.ID != "":
		return "id:" + string(e.ID)
	case e.TempID != "":
		return "tmp:" + e.TempID
	default:
		return fmt.Sprintf("%s:%d:%s", e.Role, e.CreatedAt.UnixNano(), e.Content)
	}
}
