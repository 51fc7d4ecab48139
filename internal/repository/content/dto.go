package content

import (
	"github.com/uiaudit/lenny/internal/db"
	"github.com/uiaudit/lenny/internal/domain"
)

// Hash field names shared by both content indexes.
const (
	fieldID             = "id"
	fieldChunkID        = "chunk_id"
	fieldCategory       = "content_type"
	fieldTitle          = "title"
	fieldDescription    = "description"
	fieldContent        = "content"
	fieldURL            = "url_or_path"
	fieldSourceURL      = "source_url"
	fieldScreenshotURL  = "screenshot_url"
	fieldElementType    = "element_type"
	fieldComponentType  = "component_type"
	fieldPageTitle      = "page_title"
	fieldOpensComponent = "opens_component"
	fieldNavigatesTo    = "navigates_to"
	fieldVector         = "vector"
)

var appReturnFields = []string{
	fieldID, fieldCategory, fieldTitle, fieldDescription, fieldURL, fieldScreenshotURL,
	fieldElementType, fieldComponentType, fieldPageTitle, fieldOpensComponent, fieldNavigatesTo,
}

var kbReturnFields = []string{
	fieldID, fieldChunkID, fieldTitle, fieldContent, fieldSourceURL,
}

// appToHash flattens an app-UI record into HSET fields. Empty values are omitted.
func appToHash(rec *domain.Record, vec []float32) map[string]string {
	m := make(map[string]string, 12)
	putNonEmpty(m, fieldID, rec.ID)
	putNonEmpty(m, fieldCategory, string(rec.Category))
	putNonEmpty(m, fieldTitle, rec.Title)
	putNonEmpty(m, fieldDescription, rec.Description)
	putNonEmpty(m, fieldURL, rec.URL)
	putNonEmpty(m, fieldScreenshotURL, rec.ScreenshotURL)
	putNonEmpty(m, fieldElementType, rec.Metadata.ElementType)
	putNonEmpty(m, fieldComponentType, rec.Metadata.ComponentType)
	putNonEmpty(m, fieldPageTitle, rec.Metadata.PageTitle)
	putNonEmpty(m, fieldOpensComponent, rec.Metadata.OpensComponent)
	putNonEmpty(m, fieldNavigatesTo, rec.Metadata.NavigatesTo)
	m[fieldVector] = string(db.EncodeVector(vec))
	return m
}

// kbToHash flattens a knowledge-base chunk into HSET fields.
func kbToHash(rec *domain.Record, vec []float32) map[string]string {
	m := make(map[string]string, 7)
	putNonEmpty(m, fieldID, rec.ID)
	putNonEmpty(m, fieldChunkID, rec.ChunkID)
	m[fieldCategory] = string(domain.CategoryArticle)
	putNonEmpty(m, fieldTitle, rec.Title)
	putNonEmpty(m, fieldContent, rec.Content)
	putNonEmpty(m, fieldSourceURL, rec.URL)
	m[fieldVector] = string(db.EncodeVector(vec))
	return m
}

// appFromHash rebuilds an app-UI record. Missing fields read as empty strings.
func appFromHash(id string, f map[string]string) domain.Record {
	if v := f[fieldID]; v != "" {
		id = v
	}
	return domain.Record{
		ID:            id,
		Category:      domain.Category(f[fieldCategory]),
		Title:         f[fieldTitle],
		Description:   f[fieldDescription],
		URL:           f[fieldURL],
		ScreenshotURL: f[fieldScreenshotURL],
		Metadata: domain.Metadata{
			ElementType:    f[fieldElementType],
			ComponentType:  f[fieldComponentType],
			PageTitle:      f[fieldPageTitle],
			OpensComponent: f[fieldOpensComponent],
			NavigatesTo:    f[fieldNavigatesTo],
		},
	}
}

// kbFromHash rebuilds a knowledge-base chunk.
func kbFromHash(id string, f map[string]string) domain.Record {
	if v := f[fieldID]; v != "" {
		id = v
	}
	return domain.Record{
		ID:       id,
		ChunkID:  f[fieldChunkID],
		Category: domain.CategoryArticle,
		Title:    f[fieldTitle],
		Content:  f[fieldContent],
		URL:      f[fieldSourceURL],
	}
}

func putNonEmpty(m map[string]string, k, v string) {
	if v != "" {
		m[k] = v
	}
}
