package domain

// Category is the closed classification of a searchable record.
type Category string

// Content categories.
const (
	CategoryPage      Category = "page"
	CategoryComponent Category = "component"
	CategoryAction    Category = "action"
	// CategoryArticle marks knowledge-base chunks.
	CategoryArticle Category = "article"
)

// IsValid checks if the category is one of the supported values.
func (c Category) IsValid() bool {
	return c == CategoryPage || c == CategoryComponent || c == CategoryAction || c == CategoryArticle
}

// AppCategories returns the categories searched in the app-UI store by default.
func AppCategories() []Category {
	return []Category{CategoryAction, CategoryComponent, CategoryPage}
}

// Metadata holds the optional structural hints scraped alongside app-UI content.
// A missing value is the empty string.
type Metadata struct {
	ElementType    string `json:"element_type,omitempty"`
	ComponentType  string `json:"component_type,omitempty"`
	PageTitle      string `json:"page_title,omitempty"`
	OpensComponent string `json:"opens_component,omitempty"`
	NavigatesTo    string `json:"navigates_to,omitempty"`
}

// Record is a piece of searchable content as stored in a content index.
type Record struct {
	ID            string   `json:"id"`
	ChunkID       string   `json:"chunk_id,omitempty"` // KB chunks only
	Category      Category `json:"content_type"`
	Title         string   `json:"title"`
	Description   string   `json:"description,omitempty"`
	Content       string   `json:"content,omitempty"`
	URL           string   `json:"url_or_path,omitempty"`
	ScreenshotURL string   `json:"screenshot_url,omitempty"`
	Metadata      Metadata `json:"metadata"`
}

// SearchResult is a record returned by similarity search.
type SearchResult struct {
	Record
	Similarity float64
}

// Corpus names one of the two content indexes.
type Corpus string

// Content corpora.
const (
	CorpusApp Corpus = "app" // scraped application UI
	CorpusKB  Corpus = "kb"  // knowledge-base article chunks
)

// IsValid checks if the corpus is known.
func (c Corpus) IsValid() bool {
	return c == CorpusApp || c == CorpusKB
}
