package domain

import "time"

// CandidateFile is a filesystem entry discovered under a source, not yet known to be parseable.
type CandidateFile struct {
	Path      string
	Extension string
}

// Article is the durable record derived from one successfully parsed file.
type Article struct {
	ID           int64
	SourceID     *int64
	Title        string
	ContentText  string
	OriginalURL  string
	SourceFormat string
	Attributes   map[string]any
	ExtractedAt  time.Time
}
