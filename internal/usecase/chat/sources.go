package chat

import (
	"sort"

	"github.com/uiaudit/lenny/internal/domain"
)

// Source citation limits.
const (
	MaxAppSources          = 8
	MaxKBSources           = 2
	MaxSources             = 8
	SourceDescriptionChars = 150
)

// FormatSources projects search results into at most MaxSources citations,
// ordered by descending similarity. Ties keep app results before KB results.
func FormatSources(app, kb []domain.SearchResult) []domain.SourceCitation {
	sources := make([]domain.SourceCitation, 0, MaxAppSources+MaxKBSources)

	for _, r := range head(app, MaxAppSources) {
		sources = append(sources, domain.SourceCitation{
			ID:            r.ID,
			Category:      r.Category,
			Title:         r.Title,
			Description:   truncate(r.Description, SourceDescriptionChars),
			URL:           r.URL,
			ScreenshotURL: r.ScreenshotURL,
			Similarity:    r.Similarity,
		})
	}

	for _, r := range head(kb, MaxKBSources) {
		sources = append(sources, domain.SourceCitation{
			ID:          orDefault(r.ChunkID, r.ID),
			Category:    domain.CategoryArticle,
			Title:       orDefault(r.Title, "Knowledge Base Article"),
			Description: truncate(r.Content, SourceDescriptionChars),
			URL:         r.URL,
			Similarity:  r.Similarity,
		})
	}

	sort.SliceStable(sources, func(i, j int) bool {
		return sources[i].Similarity > sources[j].Similarity
	})

	if len(sources) > MaxSources {
		sources = sources[:MaxSources]
	}
	return sources
}
