// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package document owns the working lecture outline: applying generated
// outlines, expansions, and follow-up selections, and persisting
// documents to a local SQLite store. All mutation goes through the
// functions here; generation packages only ever return values.
package document

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rkaplan/lecture-composer/pkg/types"
)

// New creates an empty lecture plan in the planning state.
func New(topic string, audience types.Audience, durationMinutes int) *types.OutlineDocument {
	now := time.Now().UTC()
	return &types.OutlineDocument{
		ID:              uuid.NewString(),
		Topic:           topic,
		TargetAudience:  audience,
		DurationMinutes: durationMinutes,
		Status:          types.DocumentPlanning,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Token identifies one admitted generation request for a slot. A slot is
// a unit of contention: the outline as a whole, or one section's
// expansion or question batch.
type Token struct {
	Slot string
	Seq  uint64
}

// Tokens hands out generation tokens and admits only the newest one per
// slot. Starting a new generation for a slot invalidates every earlier
// token for that slot, so a slow response from a superseded request can
// never overwrite a newer one.
type Tokens struct {
	mu     sync.Mutex
	seq    uint64
	latest map[string]uint64
}

// Begin registers a new generation request for slot and returns its token.
func (t *Tokens) Begin(slot string) Token {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.latest == nil {
		t.latest = make(map[string]uint64)
	}
	t.seq++
	t.latest[slot] = t.seq
	return Token{Slot: slot, Seq: t.seq}
}

// Admit reports whether tok is still the newest request for its slot.
func (t *Tokens) Admit(tok Token) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.latest != nil && t.latest[tok.Slot] == tok.Seq
}

// Slot names for Begin/Admit.
const SlotOutline = "outline"

// SlotExpand names the expansion slot for one section.
func SlotExpand(sectionID string) string { return "expand:" + sectionID }

// SlotQuestions names the follow-up question slot for one section.
func SlotQuestions(sectionID string) string { return "questions:" + sectionID }

// ErrStale reports a generation result that arrived after a newer request
// for the same slot started. The result is discarded.
var ErrStale = fmt.Errorf("generation result superseded by a newer request")

// ApplyOutline replaces the document's sections wholesale with a freshly
// generated outline and moves the document into drafting.
func ApplyOutline(doc *types.OutlineDocument, sections []types.Section) error {
	if len(sections) == 0 {
		return fmt.Errorf("refusing to apply an empty outline")
	}
	doc.Sections = sections
	doc.Status = types.DocumentDrafting
	doc.UpdatedAt = time.Now().UTC()
	return nil
}

// ApplyExpansion writes an expansion's content, research, and follow-up
// questions into the identified section. The previous question batch and
// selection are superseded.
func ApplyExpansion(doc *types.OutlineDocument, sectionID string, content string, research types.ResearchResult, questions []types.SocraticQuestion) error {
	section, err := SectionByID(doc, sectionID)
	if err != nil {
		return err
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return fmt.Errorf("refusing to apply an empty expansion to section %q", section.Title)
	}

	section.Content = content
	section.Research = append(section.Research, research)
	section.Status = types.SectionDraft
	section.FollowUpQuestions = questions
	section.SelectedQuestionID = ""
	doc.UpdatedAt = time.Now().UTC()
	return nil
}

// SetFollowUps replaces a section's follow-up questions. Any previous
// selection referred to the old batch and is cleared.
func SetFollowUps(doc *types.OutlineDocument, sectionID string, questions []types.SocraticQuestion) error {
	section, err := SectionByID(doc, sectionID)
	if err != nil {
		return err
	}
	if len(questions) == 0 {
		return fmt.Errorf("refusing to apply an empty question batch to section %q", section.Title)
	}
	section.FollowUpQuestions = questions
	section.SelectedQuestionID = ""
	doc.UpdatedAt = time.Now().UTC()
	return nil
}

// SelectFollowUp records the chosen follow-up question on the section and
// steers the lecture accordingly: the next section is retitled to the
// question's suggested title and reset to empty, since whatever it held
// was planned for a different direction. Selecting on the last section
// appends a new empty section instead.
func SelectFollowUp(doc *types.OutlineDocument, sectionID, questionID string) error {
	idx := -1
	for i := range doc.Sections {
		if doc.Sections[i].ID == sectionID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("no section with ID %s", sectionID)
	}
	section := &doc.Sections[idx]

	var chosen *types.SocraticQuestion
	for i := range section.FollowUpQuestions {
		if section.FollowUpQuestions[i].ID == questionID {
			chosen = &section.FollowUpQuestions[i]
			break
		}
	}
	if chosen == nil {
		return fmt.Errorf("section %q has no follow-up question with ID %s", section.Title, questionID)
	}

	section.SelectedQuestionID = questionID

	if idx == len(doc.Sections)-1 {
		doc.Sections = append(doc.Sections, types.Section{
			ID:         uuid.NewString(),
			Title:      chosen.NextTitle,
			Type:       types.SectionConcept,
			SlideCount: section.SlideCount,
			Status:     types.SectionEmpty,
		})
	} else {
		next := &doc.Sections[idx+1]
		next.Title = chosen.NextTitle
		next.Content = ""
		next.KeyPoints = nil
		next.Research = nil
		next.Status = types.SectionEmpty
		next.FollowUpQuestions = nil
		next.SelectedQuestionID = ""
	}

	doc.UpdatedAt = time.Now().UTC()
	return nil
}

// MoveSection moves the identified section to position newIndex,
// preserving the relative order of the others.
func MoveSection(doc *types.OutlineDocument, sectionID string, newIndex int) error {
	if newIndex < 0 || newIndex >= len(doc.Sections) {
		return fmt.Errorf("position %d out of range (document has %d sections)", newIndex, len(doc.Sections))
	}

	oldIndex := -1
	for i := range doc.Sections {
		if doc.Sections[i].ID == sectionID {
			oldIndex = i
			break
		}
	}
	if oldIndex < 0 {
		return fmt.Errorf("no section with ID %s", sectionID)
	}
	if oldIndex == newIndex {
		return nil
	}

	moved := doc.Sections[oldIndex]
	rest := append(doc.Sections[:oldIndex:oldIndex], doc.Sections[oldIndex+1:]...)
	doc.Sections = append(rest[:newIndex:newIndex], append([]types.Section{moved}, rest[newIndex:]...)...)
	doc.UpdatedAt = time.Now().UTC()
	return nil
}

// SectionByID returns a pointer to the identified section for in-place
// mutation.
func SectionByID(doc *types.OutlineDocument, sectionID string) (*types.Section, error) {
	for i := range doc.Sections {
		if doc.Sections[i].ID == sectionID {
			return &doc.Sections[i], nil
		}
	}
	return nil, fmt.Errorf("no section with ID %s", sectionID)
}

// UpcomingTitles returns the titles of the sections after the identified
// one, in order. Empty for the last section.
func UpcomingTitles(doc *types.OutlineDocument, sectionID string) ([]string, error) {
	for i := range doc.Sections {
		if doc.Sections[i].ID == sectionID {
			var titles []string
			for _, s := range doc.Sections[i+1:] {
				titles = append(titles, s.Title)
			}
			return titles, nil
		}
	}
	return nil, fmt.Errorf("no section with ID %s", sectionID)
}

// SetStatus sets the document's advisory status.
func SetStatus(doc *types.OutlineDocument, status types.DocumentStatus) {
	doc.Status = status
	doc.UpdatedAt = time.Now().UTC()
}

// SetSectionStatus sets one section's advisory status.
func SetSectionStatus(doc *types.OutlineDocument, sectionID string, status types.SectionStatus) error {
	section, err := SectionByID(doc, sectionID)
	if err != nil {
		return err
	}
	section.Status = status
	doc.UpdatedAt = time.Now().UTC()
	return nil
}
