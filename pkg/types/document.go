// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Audience classifies the lecture's target learners.
type Audience string

const (
	AudienceStudents   Audience = "students"
	AudienceResidents  Audience = "residents"
	AudienceFellows    Audience = "fellows"
	AudienceAttendings Audience = "attendings"
)

// ValidAudience reports whether a is a known audience level.
func ValidAudience(a Audience) bool {
	switch a {
	case AudienceStudents, AudienceResidents, AudienceFellows, AudienceAttendings:
		return true
	}
	return false
}

// SectionType classifies an outline section.
type SectionType string

const (
	SectionIntro     SectionType = "intro"
	SectionConcept   SectionType = "concept"
	SectionCase      SectionType = "case"
	SectionMechanism SectionType = "mechanism"
	SectionClinical  SectionType = "clinical"
	SectionSummary   SectionType = "summary"
)

// ValidSectionType reports whether t is a known section type.
func ValidSectionType(t SectionType) bool {
	switch t {
	case SectionIntro, SectionConcept, SectionCase, SectionMechanism,
		SectionClinical, SectionSummary:
		return true
	}
	return false
}

// SectionStatus tracks a section's editing progress. Statuses are advisory:
// they drive display and filtering, not which operations are legal.
type SectionStatus string

const (
	SectionEmpty    SectionStatus = "empty"
	SectionDraft    SectionStatus = "draft"
	SectionComplete SectionStatus = "complete"
)

// DocumentStatus tracks the lecture plan's overall progress. Like section
// statuses these are advisory; any status may follow any other.
type DocumentStatus string

const (
	DocumentPlanning  DocumentStatus = "planning"
	DocumentDrafting  DocumentStatus = "drafting"
	DocumentReviewing DocumentStatus = "reviewing"
	DocumentComplete  DocumentStatus = "complete"
)

// QuestionType classifies a Socratic follow-up question.
type QuestionType string

const (
	QuestionWhy       QuestionType = "why"
	QuestionHow       QuestionType = "how"
	QuestionWhatIf    QuestionType = "what-if"
	QuestionCompare   QuestionType = "compare"
	QuestionApply     QuestionType = "apply"
	QuestionChallenge QuestionType = "challenge"
)

// ValidQuestionType reports whether t is a known question type.
func ValidQuestionType(t QuestionType) bool {
	switch t {
	case QuestionWhy, QuestionHow, QuestionWhatIf, QuestionCompare,
		QuestionApply, QuestionChallenge:
		return true
	}
	return false
}

// SocraticQuestion is one generated follow-up question for a section.
// Questions are generated in batches and superseded wholesale; they are
// never individually mutated.
type SocraticQuestion struct {
	// ID is a stable opaque identifier.
	ID string `json:"id" yaml:"id"`

	// Question is the question text.
	Question string `json:"question" yaml:"question"`

	// Type classifies the question's pedagogical angle.
	Type QuestionType `json:"type" yaml:"type"`

	// Insight is a one-sentence rationale for asking this question here.
	Insight string `json:"insight,omitempty" yaml:"insight,omitempty"`

	// NextTitle is the suggested title for the section this question
	// would lead the lecture into.
	NextTitle string `json:"next_title" yaml:"next_title"`
}

// Section is one entry in the lecture outline.
type Section struct {
	// ID is an opaque identifier, stable for the section's lifetime.
	ID string `json:"id" yaml:"id"`

	// Title is the section heading. It may be rewritten by the user, by
	// outline generation, or by follow-up selection on the prior section.
	Title string `json:"title" yaml:"title"`

	// Type classifies the section.
	Type SectionType `json:"type" yaml:"type"`

	// Content is the section prose; empty until expanded.
	Content string `json:"content,omitempty" yaml:"content,omitempty"`

	// KeyPoints are the teaching points to cover, in order.
	KeyPoints []string `json:"key_points,omitempty" yaml:"key_points,omitempty"`

	// Research holds the results attached when the section was expanded,
	// or outline-generation provenance on the first section.
	Research []ResearchResult `json:"research,omitempty" yaml:"research,omitempty"`

	// SlideCount estimates how many slides the section needs. It is an
	// estimate only; nothing ties it to Content length.
	SlideCount int `json:"slide_count" yaml:"slide_count"`

	// Collapsed is display state carried through persistence.
	Collapsed bool `json:"collapsed,omitempty" yaml:"collapsed,omitempty"`

	// Status is the section's advisory editing status.
	Status SectionStatus `json:"status" yaml:"status"`

	// FollowUpQuestions are the current Socratic follow-ups, in model
	// order. Regenerating Content supersedes them.
	FollowUpQuestions []SocraticQuestion `json:"follow_up_questions,omitempty" yaml:"follow_up_questions,omitempty"`

	// SelectedQuestionID records which follow-up branch the user chose,
	// referencing FollowUpQuestions. At most one per section.
	SelectedQuestionID string `json:"selected_question_id,omitempty" yaml:"selected_question_id,omitempty"`
}

// OutlineDocument is the working lecture plan. Section order is the sole
// source of truth for presentation sequence; there is no per-section
// position field.
type OutlineDocument struct {
	// ID is an opaque identifier for persistence.
	ID string `json:"id" yaml:"id"`

	// Topic is the user-supplied lecture topic.
	Topic string `json:"topic" yaml:"topic"`

	// TargetAudience is the intended learner level.
	TargetAudience Audience `json:"target_audience" yaml:"target_audience"`

	// DurationMinutes is the planned lecture length.
	DurationMinutes int `json:"duration_minutes" yaml:"duration_minutes"`

	// Status is the document's advisory progress status.
	Status DocumentStatus `json:"status" yaml:"status"`

	// Sections is the ordered outline.
	Sections []Section `json:"sections" yaml:"sections"`

	// CreatedAt and UpdatedAt are persistence timestamps.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}
