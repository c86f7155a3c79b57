// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package document

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/rkaplan/lecture-composer/pkg/types"
)

func newTestDoc() *types.OutlineDocument {
	doc := New("hypertensive emergency", types.AudienceResidents, 45)
	doc.Sections = []types.Section{
		{
			ID: "sec-1", Title: "Recognition", Type: types.SectionIntro,
			SlideCount: 3, Status: types.SectionDraft,
			Content: "Recognition prose.",
			FollowUpQuestions: []types.SocraticQuestion{
				{ID: "q-1", Question: "Why minutes matter?", Type: types.QuestionWhy, NextTitle: "Time Is Tissue"},
				{ID: "q-2", Question: "How does autoregulation fail?", Type: types.QuestionHow, NextTitle: "Autoregulation Failure"},
			},
		},
		{
			ID: "sec-2", Title: "Management", Type: types.SectionClinical,
			SlideCount: 4, Status: types.SectionDraft,
			Content:   "Management prose.",
			KeyPoints: []string{"Agent choice"},
			Research:  []types.ResearchResult{{Source: types.SourceEvidence, Content: "stale"}},
			FollowUpQuestions: []types.SocraticQuestion{
				{ID: "q-3", Question: "q3", Type: types.QuestionApply, NextTitle: "Applied"},
			},
			SelectedQuestionID: "q-3",
		},
	}
	return doc
}

func TestNew(t *testing.T) {
	doc := New("sepsis", types.AudienceStudents, 30)
	if doc.ID == "" {
		t.Error("document has no ID")
	}
	if doc.Status != types.DocumentPlanning {
		t.Errorf("status = %q, want planning", doc.Status)
	}
	if len(doc.Sections) != 0 {
		t.Errorf("new document has %d sections", len(doc.Sections))
	}
}

func TestApplyOutline(t *testing.T) {
	doc := New("sepsis", types.AudienceResidents, 30)
	sections := []types.Section{{ID: "s1", Title: "A"}, {ID: "s2", Title: "B"}}

	if err := ApplyOutline(doc, sections); err != nil {
		t.Fatalf("ApplyOutline: %v", err)
	}
	if doc.Status != types.DocumentDrafting {
		t.Errorf("status = %q, want drafting", doc.Status)
	}
	if len(doc.Sections) != 2 {
		t.Errorf("got %d sections, want 2", len(doc.Sections))
	}

	if err := ApplyOutline(doc, nil); err == nil {
		t.Error("empty outline should be rejected")
	}
	if len(doc.Sections) != 2 {
		t.Error("rejected outline still mutated the document")
	}
}

func TestApplyExpansion(t *testing.T) {
	doc := newTestDoc()
	research := types.ResearchResult{Source: types.SourceEvidence, Content: "fresh evidence"}
	questions := []types.SocraticQuestion{{ID: "q-new", Question: "new q", Type: types.QuestionWhy, NextTitle: "Next"}}

	if err := ApplyExpansion(doc, "sec-2", "  New prose.  ", research, questions); err != nil {
		t.Fatalf("ApplyExpansion: %v", err)
	}

	section := doc.Sections[1]
	if section.Content != "New prose." {
		t.Errorf("content = %q", section.Content)
	}
	if section.Status != types.SectionDraft {
		t.Errorf("status = %q, want draft", section.Status)
	}
	if len(section.Research) != 2 || section.Research[1].Content != "fresh evidence" {
		t.Errorf("research not appended: %+v", section.Research)
	}
	if len(section.FollowUpQuestions) != 1 || section.FollowUpQuestions[0].ID != "q-new" {
		t.Errorf("old question batch not superseded: %+v", section.FollowUpQuestions)
	}
	if section.SelectedQuestionID != "" {
		t.Error("stale selection survived expansion")
	}

	if err := ApplyExpansion(doc, "sec-2", "   ", research, questions); err == nil {
		t.Error("empty content should be rejected")
	}
	if err := ApplyExpansion(doc, "missing", "x", research, questions); err == nil {
		t.Error("unknown section should be rejected")
	}
}

func TestSetFollowUps(t *testing.T) {
	doc := newTestDoc()
	batch := []types.SocraticQuestion{{ID: "q-9", Question: "q9", Type: types.QuestionChallenge, NextTitle: "T"}}

	if err := SetFollowUps(doc, "sec-2", batch); err != nil {
		t.Fatalf("SetFollowUps: %v", err)
	}
	if doc.Sections[1].SelectedQuestionID != "" {
		t.Error("selection should clear when the batch is replaced")
	}
	if len(doc.Sections[1].FollowUpQuestions) != 1 || doc.Sections[1].FollowUpQuestions[0].ID != "q-9" {
		t.Errorf("batch not replaced: %+v", doc.Sections[1].FollowUpQuestions)
	}

	if err := SetFollowUps(doc, "sec-2", nil); err == nil {
		t.Error("empty batch should be rejected")
	}
	if len(doc.Sections[1].FollowUpQuestions) != 1 {
		t.Error("rejected batch still mutated the section")
	}
}

func TestSelectFollowUp(t *testing.T) {
	t.Run("mid-document selection retitles and resets the next section", func(t *testing.T) {
		doc := newTestDoc()
		if err := SelectFollowUp(doc, "sec-1", "q-2"); err != nil {
			t.Fatalf("SelectFollowUp: %v", err)
		}

		if doc.Sections[0].SelectedQuestionID != "q-2" {
			t.Errorf("selection = %q, want q-2", doc.Sections[0].SelectedQuestionID)
		}

		want := types.Section{
			ID:         "sec-2",
			Title:      "Autoregulation Failure",
			Type:       types.SectionClinical,
			SlideCount: 4,
			Status:     types.SectionEmpty,
		}
		if diff := cmp.Diff(want, doc.Sections[1]); diff != "" {
			t.Errorf("next section mismatch (-want +got):\n%s", diff)
		}
		if len(doc.Sections) != 2 {
			t.Errorf("section count changed: %d", len(doc.Sections))
		}
	})

	t.Run("last-section selection appends a new empty section", func(t *testing.T) {
		doc := newTestDoc()
		if err := SelectFollowUp(doc, "sec-2", "q-3"); err != nil {
			t.Fatalf("SelectFollowUp: %v", err)
		}
		if len(doc.Sections) != 3 {
			t.Fatalf("got %d sections, want 3", len(doc.Sections))
		}

		added := doc.Sections[2]
		want := types.Section{
			Title:      "Applied",
			Type:       types.SectionConcept,
			SlideCount: 4,
			Status:     types.SectionEmpty,
		}
		if added.ID == "" {
			t.Error("appended section has no ID")
		}
		if diff := cmp.Diff(want, added, cmpopts.IgnoreFields(types.Section{}, "ID")); diff != "" {
			t.Errorf("appended section mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("unknown question is rejected without mutation", func(t *testing.T) {
		doc := newTestDoc()
		before := doc.Sections[0]
		if err := SelectFollowUp(doc, "sec-1", "q-missing"); err == nil {
			t.Fatal("want error for unknown question ID")
		}
		if diff := cmp.Diff(before, doc.Sections[0]); diff != "" {
			t.Errorf("section mutated on rejected selection:\n%s", diff)
		}
	})
}

func TestMoveSection(t *testing.T) {
	mkDoc := func() *types.OutlineDocument {
		doc := New("t", types.AudienceResidents, 30)
		doc.Sections = []types.Section{
			{ID: "a", Title: "A"}, {ID: "b", Title: "B"}, {ID: "c", Title: "C"},
		}
		return doc
	}

	order := func(doc *types.OutlineDocument) []string {
		var ids []string
		for _, s := range doc.Sections {
			ids = append(ids, s.ID)
		}
		return ids
	}

	tests := []struct {
		name      string
		sectionID string
		newIndex  int
		want      []string
		wantErr   bool
	}{
		{name: "forward", sectionID: "a", newIndex: 2, want: []string{"b", "c", "a"}},
		{name: "backward", sectionID: "c", newIndex: 0, want: []string{"c", "a", "b"}},
		{name: "no-op", sectionID: "b", newIndex: 1, want: []string{"a", "b", "c"}},
		{name: "out of range", sectionID: "a", newIndex: 3, wantErr: true},
		{name: "unknown section", sectionID: "z", newIndex: 0, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mkDoc()
			err := MoveSection(doc, tt.sectionID, tt.newIndex)
			if tt.wantErr {
				if err == nil {
					t.Fatal("want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("MoveSection: %v", err)
			}
			if diff := cmp.Diff(tt.want, order(doc)); diff != "" {
				t.Errorf("order mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestUpcomingTitles(t *testing.T) {
	doc := newTestDoc()

	titles, err := UpcomingTitles(doc, "sec-1")
	if err != nil {
		t.Fatalf("UpcomingTitles: %v", err)
	}
	if diff := cmp.Diff([]string{"Management"}, titles); diff != "" {
		t.Errorf("titles mismatch:\n%s", diff)
	}

	titles, err = UpcomingTitles(doc, "sec-2")
	if err != nil {
		t.Fatalf("UpcomingTitles: %v", err)
	}
	if len(titles) != 0 {
		t.Errorf("last section has upcoming titles: %v", titles)
	}

	if _, err := UpcomingTitles(doc, "missing"); err == nil {
		t.Error("want error for unknown section")
	}
}

func TestTokens(t *testing.T) {
	var tokens Tokens

	first := tokens.Begin(SlotOutline)
	if !tokens.Admit(first) {
		t.Error("sole token should be admitted")
	}

	second := tokens.Begin(SlotOutline)
	if tokens.Admit(first) {
		t.Error("superseded token admitted")
	}
	if !tokens.Admit(second) {
		t.Error("newest token rejected")
	}

	// Slots are independent: a new expand request does not invalidate the
	// outline token, and per-section slots do not collide.
	expandA := tokens.Begin(SlotExpand("sec-a"))
	expandB := tokens.Begin(SlotExpand("sec-b"))
	if !tokens.Admit(second) {
		t.Error("outline token invalidated by expand request")
	}
	if !tokens.Admit(expandA) || !tokens.Admit(expandB) {
		t.Error("per-section expand tokens should not collide")
	}

	questions := tokens.Begin(SlotQuestions("sec-a"))
	if !tokens.Admit(expandA) {
		t.Error("question request invalidated the expand token for the same section")
	}
	if !tokens.Admit(questions) {
		t.Error("question token rejected")
	}
}
