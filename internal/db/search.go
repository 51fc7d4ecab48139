package db

// TagFilter restricts a search to documents whose TAG field holds any of Values.
type TagFilter struct {
	Field  string
	Values []string
}

// IsEmpty reports whether the filter matches everything.
func (f TagFilter) IsEmpty() bool {
	return f.Field == "" || len(f.Values) == 0
}

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName    string
	VectorField  string // defaults to "vector"
	Filter       TagFilter
	Vector       []float32
	K            int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
// Score is cosine similarity clamped to [0,1].
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
