package chat

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bryanwahyu/skillscope/internal/domain/ai"
)

// DefaultMatchWindow bounds how far apart an echo and its durable turn may be
// when they are matched by content.
const DefaultMatchWindow = 2 * time.Minute

// Entry is a transcript line. Pending entries are optimistic echoes not yet
// confirmed by the store.
type Entry struct {
	Turn
	TempID  string `json:"tempId,omitempty"`
	Pending bool   `json:"pending"`
}

// Transcript is a client-side view of one conversation that merges optimistic
// echoes with durable turns arriving from the call result or the live feed.
// A durable turn never appears twice.
type Transcript struct {
	mu      sync.Mutex
	entries []Entry
	window  time.Duration
}

func NewTranscript(window time.Duration) *Transcript {
	if window <= 0 {
		window = DefaultMatchWindow
	}
	return &Transcript{window: window}
}

// Load merges a fetched history into the transcript.
func (t *Transcript) Load(turns []Turn) {
	for _, tr := range turns {
		t.Apply(tr)
	}
}

// Echo shows a message before it is durable and returns its temporary id.
func (t *Transcript) Echo(role ai.Role, content string, at time.Time) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := "tmp-" + uuid.NewString()
	t.insert(Entry{
		Turn:    Turn{Role: role, Content: content, CreatedAt: at},
		TempID:  id,
		Pending: true,
	})
	return id
}

// Confirm replaces the echo tempID with its durable turn.
func (t *Transcript) Confirm(tempID string, durable Turn) {
	t.mu.Lock()
	defer t.mu.Unlock()
	i := t.indexTemp(tempID)
	if t.indexID(durable.ID) >= 0 {
		// the feed delivered it first
		if i >= 0 {
			t.remove(i)
		}
		return
	}
	if i >= 0 {
		t.remove(i)
	}
	t.insert(Entry{Turn: durable})
}

// Apply merges a durable turn. It reports whether the transcript changed.
func (t *Transcript) Apply(durable Turn) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if durable.ID != "" && t.indexID(durable.ID) >= 0 {
		return false
	}
	if i := t.matchPending(durable); i >= 0 {
		t.remove(i)
	}
	t.insert(Entry{Turn: durable})
	return true
}

// Discard drops an echo whose send failed.
func (t *Transcript) Discard(tempID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if i := t.indexTemp(tempID); i >= 0 {
		t.remove(i)
	}
}

// Entries returns a copy in display order.
func (t *Transcript) Entries() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

func (t *Transcript) indexID(id string) int {
	for i, e := range t.entries {
		if !e.Pending && e.ID == id {
			return i
		}
	}
	return -1
}

func (t *Transcript) indexTemp(tempID string) int {
	for i, e := range t.entries {
		if e.Pending && e.TempID == tempID {
			return i
		}
	}
	return -1
}

// matchPending finds the oldest echo with the same role and content within the window.
func (t *Transcript) matchPending(d Turn) int {
	for i, e := range t.entries {
		if !e.Pending || e.Role != d.Role || e.Content != d.Content {
			continue
		}
		delta := d.CreatedAt.Sub(e.CreatedAt)
		if delta < 0 {
			delta = -delta
		}
		if delta <= t.window {
			return i
		}
	}
	return -1
}

func (t *Transcript) remove(i int) {
	t.entries = append(t.entries[:i], t.entries[i+1:]...)
}

// insert keeps entries ordered by CreatedAt; equal timestamps keep arrival order.
func (t *Transcript) insert(e Entry) {
	i := sort.Search(len(t.entries), func(i int) bool {
		return t.entries[i].CreatedAt.After(e.CreatedAt)
	})
	t.entries = append(t.entries, Entry{})
	copy(t.entries[i+1:], t.entries[i:])
	t.entries[i] = e
}
