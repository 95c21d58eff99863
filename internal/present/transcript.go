package present

import (
	"io"

	"github.com/bryanwahyu/skillscope/internal/domain/ai"
	"github.com/bryanwahyu/skillscope/internal/domain/chat"
)

// WriteTranscript prints entries in order. Unconfirmed echoes are marked.
func WriteTranscript(w io.Writer, entries []chat.Entry) error {
	p := &printer{w: w}
	for _, e := range entries {
		who := "you"
		if e.Role == ai.RoleAssistant {
			who = "assistant"
		}
		mark := ""
		if e.Pending {
			mark = " (sending)"
		}
		p.linef("%s %s%s: %s", e.CreatedAt.Local().Format("15:04"), who, mark, e.Content)
	}
	return p.err
}
