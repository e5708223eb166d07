package models

import "time"

// Script is the narration source for one video: an ordered set of
// named sections.
type Script struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Topic      string    `json:"topic"`
	Hook       string    `json:"hook"`
	Fact1      string    `json:"fact1"`
	Fact2      string    `json:"fact2"`
	Fact3      string    `json:"fact3"`
	Fact4      string    `json:"fact4"`
	Payoff     string    `json:"payoff"`
	ViralScore float64   `json:"viral_score"`
	CreatedAt  time.Time `json:"created_at"`
}

// Section names in their fixed narration order. This order is the single
// source of truth for audio and video sequencing; no stage reorders it.
const (
	SectionHook   = "hook"
	SectionFact1  = "fact1"
	SectionFact2  = "fact2"
	SectionFact3  = "fact3"
	SectionFact4  = "fact4"
	SectionPayoff = "payoff"
)

// SectionOrder lists all section names in narration order.
var SectionOrder = []string{
	SectionHook,
	SectionFact1,
	SectionFact2,
	SectionFact3,
	SectionFact4,
	SectionPayoff,
}

// Section is one non-empty narration unit of a script.
type Section struct {
	Name  string
	Index int
	Text  string
}

// Sections returns the script's non-empty sections in narration order.
// The index is the position within the full section order, so artifact
// names stay stable even when sections are skipped.
func (s *Script) Sections() []Section {
	texts := map[string]string{
		SectionHook:   s.Hook,
		SectionFact1:  s.Fact1,
		SectionFact2:  s.Fact2,
		SectionFact3:  s.Fact3,
		SectionFact4:  s.Fact4,
		SectionPayoff: s.Payoff,
	}

	var sections []Section
	for i, name := range SectionOrder {
		if texts[name] == "" {
			continue
		}
		sections = append(sections, Section{Name: name, Index: i, Text: texts[name]})
	}
	return sections
}
