package chat

import (
	"fmt"
	"strings"

	"github.com/uiaudit/lenny/internal/domain"
)

// NoContext is sent to the model when neither corpus produced a result.
const NoContext = "No relevant documentation found."

// Section headers of the grounding context.
const (
	actionsHeader    = "=== UI ACTIONS (where users can do things) ==="
	componentsHeader = "\n=== UI COMPONENTS (modals, drawers, panels) ==="
	pagesHeader      = "\n=== PAGES (main screens) ==="
	kbHeader         = "\n=== Related KB Context ==="
)

// ContextLimits caps how many entries of each kind, and how much of their text,
// go into the grounding context.
type ContextLimits struct {
	Actions    int
	Components int
	Pages      int
	KB         int

	ActionDescChars    int
	ComponentDescChars int
	PageDescChars      int
	KBContentChars     int
}

// DefaultContextLimits returns the limits used for chat answers.
func DefaultContextLimits() ContextLimits {
	return ContextLimits{
		Actions:            20,
		Components:         8,
		Pages:              5,
		KB:                 2,
		ActionDescChars:    400,
		ComponentDescChars: 300,
		PageDescChars:      200,
		KBContentChars:     400,
	}
}

// BuildContext renders search results into the grounding context with the default limits.
func BuildContext(app, kb []domain.SearchResult) string {
	return DefaultContextLimits().Build(app, kb)
}

// Build renders search results into sections for actions, components, pages
// and KB articles, in that order. Empty sections are omitted.
func (l ContextLimits) Build(app, kb []domain.SearchResult) string {
	var actions, components, pages []domain.SearchResult
	for _, r := range app {
		switch r.Category {
		case domain.CategoryAction:
			actions = append(actions, r)
		case domain.CategoryComponent:
			components = append(components, r)
		case domain.CategoryPage:
			pages = append(pages, r)
		}
	}

	var parts []string

	if len(actions) > 0 {
		parts = append(parts, actionsHeader)
		for _, r := range head(actions, l.Actions) {
			parts = append(parts, formatAction(r, l.ActionDescChars))
		}
	}

	if len(components) > 0 {
		parts = append(parts, componentsHeader)
		for _, r := range head(components, l.Components) {
			parts = append(parts, formatComponent(r, l.ComponentDescChars))
		}
	}

	if len(pages) > 0 {
		parts = append(parts, pagesHeader)
		for _, r := range head(pages, l.Pages) {
			parts = append(parts, fmt.Sprintf("• Page '%s' at %s\n  %s",
				r.Title, r.URL, truncate(r.Description, l.PageDescChars)))
		}
	}

	if len(kb) > 0 {
		parts = append(parts, kbHeader)
		for _, r := range head(kb, l.KB) {
			parts = append(parts, fmt.Sprintf("• %s: %s",
				orDefault(r.Title, "Help Article"), truncate(r.Content, l.KBContentChars)))
		}
	}

	if len(parts) == 0 {
		return NoContext
	}
	return strings.Join(parts, "\n\n")
}

func formatAction(r domain.SearchResult, descChars int) string {
	location := "at " + r.URL
	if r.Metadata.PageTitle != "" {
		location = fmt.Sprintf("on page '%s'", r.Metadata.PageTitle)
	}

	var outcome string
	switch {
	case r.Metadata.OpensComponent != "":
		outcome = " → Opens: " + r.Metadata.OpensComponent
	case r.Metadata.NavigatesTo != "":
		outcome = " → Navigates to: " + r.Metadata.NavigatesTo
	}

	return fmt.Sprintf("• %s '%s' %s%s\n  %s",
		orDefault(r.Metadata.ElementType, "button"), r.Title, location, outcome,
		truncate(r.Description, descChars))
}

func formatComponent(r domain.SearchResult, descChars int) string {
	var location string
	if r.Metadata.PageTitle != "" {
		location = fmt.Sprintf("on '%s'", r.Metadata.PageTitle)
	}
	return fmt.Sprintf("• %s '%s' %s\n  %s",
		orDefault(r.Metadata.ComponentType, "component"), r.Title, location,
		truncate(r.Description, descChars))
}

func head(rs []domain.SearchResult, n int) []domain.SearchResult {
	if n >= 0 && len(rs) > n {
		return rs[:n]
	}
	return rs
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// truncate keeps at most n characters of s.
func truncate(s string, n int) string {
	if n < 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
