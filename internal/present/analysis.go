// Package present turns API results into terminal text. Everything here is
// derived from its input; nothing is fetched or stored.
package present

import (
	"fmt"
	"io"
	"strings"

	"github.com/bryanwahyu/skillscope/internal/domain/analysis"
)

type Tone string

const (
	TonePositive Tone = "positive"
	ToneWarning  Tone = "warning"
	ToneDanger   Tone = "danger"
	ToneMuted    Tone = "muted"
)

// Badge is the relevance verdict label and how strongly to style it.
type Badge struct {
	Text string
	Tone Tone
}

func BadgeFor(s analysis.Status) Badge {
	switch s {
	case analysis.StatusCurrent:
		return Badge{Text: "Currently Relevant", Tone: TonePositive}
	case analysis.StatusDeclining:
		return Badge{Text: "Declining Usage", Tone: ToneWarning}
	case analysis.StatusOutdated:
		return Badge{Text: "Outdated Technology", Tone: ToneDanger}
	default:
		return Badge{Text: "Unknown", Tone: ToneMuted}
	}
}

var toneMarks = map[Tone]string{
	TonePositive: "+",
	ToneWarning:  "~",
	ToneDanger:   "!",
	ToneMuted:    "?",
}

// WriteAnalysis prints the relevance verdict first, then the six sections.
func WriteAnalysis(w io.Writer, topic string, r *analysis.Result) error {
	p := &printer{w: w}
	badge := BadgeFor(r.Relevance.Status)
	p.linef("%s", strings.ToUpper(topic))
	p.linef("[%s] %s", toneMarks[badge.Tone], badge.Text)
	if r.Relevance.Explanation != "" {
		p.linef("  %s", r.Relevance.Explanation)
	}
	if r.Relevance.AdoptionRate != "" {
		p.linef("  Adoption: %s", r.Relevance.AdoptionRate)
	}
	if r.Relevance.PracticalUsage != "" {
		p.linef("  Usage: %s", r.Relevance.PracticalUsage)
	}
	if len(r.Relevance.CompaniesUsingIt) > 0 {
		p.linef("  Used by: %s", strings.Join(r.Relevance.CompaniesUsingIt, ", "))
	}
	if len(r.Relevance.ReplacementTechnologies) > 0 {
		p.linef("  Consider instead:")
		for _, t := range r.Relevance.ReplacementTechnologies {
			if t.Reason != "" {
				p.linef("    - %s: %s", t.Name, t.Reason)
			} else {
				p.linef("    - %s", t.Name)
			}
		}
	}
	for _, s := range r.Sections() {
		p.linef("")
		p.linef("%s", s.Title)
		for _, b := range s.Bullets {
			p.linef("  - %s", b)
		}
	}
	return p.err
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) linef(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format+"\n", args...)
}
