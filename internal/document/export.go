// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package document

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/rkaplan/lecture-composer/pkg/types"
)

// ExportSnapshot wraps a document with export metadata.
type ExportSnapshot struct {
	ExportedAt time.Time             `json:"exported_at" yaml:"exported_at"`
	Document   types.OutlineDocument `json:"document" yaml:"document"`
}

// ExportYAML writes the document as a YAML snapshot to w.
func ExportYAML(w io.Writer, doc *types.OutlineDocument) error {
	snapshot := ExportSnapshot{ExportedAt: time.Now().UTC(), Document: *doc}
	data, err := yaml.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// ExportJSON writes the document as an indented JSON snapshot to w.
func ExportJSON(w io.Writer, doc *types.OutlineDocument) error {
	snapshot := ExportSnapshot{ExportedAt: time.Now().UTC(), Document: *doc}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snapshot)
}

// ExportMarkdown renders the document as a presenter-ready Markdown
// outline to w.
func ExportMarkdown(w io.Writer, doc *types.OutlineDocument) error {
	fmt.Fprintf(w, "# %s\n\n", doc.Topic)
	fmt.Fprintf(w, "Audience: %s | Duration: %d minutes | Status: %s\n",
		doc.TargetAudience, doc.DurationMinutes, doc.Status)

	for i, section := range doc.Sections {
		fmt.Fprintf(w, "\n## %d. %s (%s, %d slides)\n", i+1, section.Title, section.Type, section.SlideCount)
		for _, p := range section.KeyPoints {
			fmt.Fprintf(w, "- %s\n", p)
		}
		if section.Content != "" {
			fmt.Fprintf(w, "\n%s\n", section.Content)
		}
		if citations := sectionCitations(section); len(citations) > 0 {
			fmt.Fprintf(w, "\nReferences:\n")
			for _, c := range citations {
				if c.URL != "" {
					fmt.Fprintf(w, "- [%s](%s)\n", c.Title, c.URL)
				} else {
					fmt.Fprintf(w, "- %s\n", c.Title)
				}
			}
		}
	}
	return nil
}

func sectionCitations(section types.Section) []types.Citation {
	var all []types.Citation
	for _, r := range section.Research {
		all = append(all, r.Citations...)
	}
	return all
}
