package ingest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/uiaudit/lenny/internal/domain"
)

// maxLineBytes bounds one JSONL record.
const maxLineBytes = 4 << 20

// line is one JSONL record. KB exports carry the article link as source_url.
type line struct {
	domain.Record
	SourceURL string `json:"source_url"`
}

// LoadJSONL reads one record per line. Blank lines are skipped.
func LoadJSONL(r io.Reader) ([]domain.Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var records []domain.Record
	n := 0
	for scanner.Scan() {
		n++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		var l line
		if err := json.Unmarshal([]byte(raw), &l); err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		rec := l.Record
		if rec.URL == "" {
			rec.URL = l.SourceURL
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read jsonl: %w", err)
	}
	return records, nil
}
