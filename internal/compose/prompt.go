// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package compose

import (
	"bytes"
	"text/template"
)

// outlinePromptTmpl asks the model for a complete lecture outline as a
// JSON array. Section types mirror the closed SectionType set.
var outlinePromptTmpl = template.Must(template.New("outline").Parse(`You are a medical education curriculum designer. Plan a lecture outline for the topic below.

Topic: {{.Topic}}
Audience: {{.Audience}}
Duration: {{.Duration}} minutes

{{if .Corpus}}Use the following research as grounding. Prefer its guidelines and evidence over general knowledge:

{{.Corpus}}

{{end}}Produce an ordered outline of sections. For each section provide:
- title: the section heading
- type: one of "intro", "concept", "case", "mechanism", "clinical", "summary"
- key_points: 2-4 short teaching points to cover
- slide_count: estimated number of slides (a small positive integer)

Respond with a JSON array only. Do not include any text outside the JSON array.

Example response:
[{"title": "Recognizing the Emergency", "type": "intro", "key_points": ["Definition and thresholds", "Why minutes matter"], "slide_count": 3}]
`))

// socraticPromptTmpl asks the model for follow-up questions that deepen
// one section and bridge toward the rest of the lecture.
var socraticPromptTmpl = template.Must(template.New("socratic").Parse(`You are a Socratic medical educator. Generate {{.Count}} probing follow-up questions for the lecture section below. Each question should deepen understanding or branch the discussion, and should suggest where the lecture could go next.

Section: {{.Title}}
{{if .KeyPoints}}Key points:
{{range .KeyPoints}}- {{.}}
{{end}}{{end}}{{if .ContentPrefix}}Section content (excerpt):
{{.ContentPrefix}}

{{end}}{{if .Upcoming}}Upcoming sections, in order:
{{range .Upcoming}}- {{.}}
{{end}}Frame at least one question as a bridge into the upcoming material.
{{else}}This is the final section of the lecture. Frame questions that consolidate or extend beyond it.
{{end}}
For each question provide:
- question: the question text
- type: one of "why", "how", "what-if", "compare", "apply", "challenge"
- insight: one sentence on why this question matters here
- next_title: a section title the lecture would grow into if this question were pursued

Respond with a JSON array only. Do not include any text outside the JSON array.

Example response:
[{"question": "Why does rapid correction cause harm?", "type": "why", "insight": "Connects treatment pace to end-organ physiology.", "next_title": "Autoregulation and the Limits of Lowering"}]
`))

// expansionPromptTmpl asks the model to write section prose from research
// and key points. Prose, not bullets: the slide editor downstream handles
// bulleting.
var expansionPromptTmpl = template.Must(template.New("expansion").Parse(`You are a medical education writer. Write the content for one lecture section.

Lecture topic: {{.Topic}}
Audience: {{.Audience}}
Section: {{.Title}}
{{if .KeyPoints}}Key points to cover:
{{range .KeyPoints}}- {{.}}
{{end}}{{end}}
{{if .Research}}Ground the content in this research:

{{.Research}}

{{end}}Write 2-3 paragraphs of flowing prose suitable for a presenter's notes. Do not use bullet lists or headings. Cite guidelines or landmark evidence inline where the research supports it. Respond with the prose only.
`))

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
