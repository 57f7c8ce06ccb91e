package domain

import (
	"fmt"
	"strings"
	"time"
)

// SourceKind enumerates the origins a source can point at.
type SourceKind string

const (
	SourceKindWebsite      SourceKind = "website"
	SourceKindRSS          SourceKind = "rss"
	SourceKindLocal        SourceKind = "local"
	SourceKindCloudStorage SourceKind = "cloud-storage"
)

// SourceKinds lists every accepted kind in display order.
var SourceKinds = []SourceKind{SourceKindWebsite, SourceKindRSS, SourceKindLocal, SourceKindCloudStorage}

// ParseSourceKind normalizes user input into a known kind.
func ParseSourceKind(value string) (SourceKind, error) {
	kind := SourceKind(strings.ToLower(strings.TrimSpace(value)))
	if kind == "s3" {
		return SourceKindCloudStorage, nil
	}
	for _, known := range SourceKinds {
		if kind == known {
			return kind, nil
		}
	}
	return "", fmt.Errorf("unknown source kind %q", value)
}

// Source is a configured origin of ingestible files.
type Source struct {
	ID        int64
	Name      string
	Kind      SourceKind
	Location  string
	Config    map[string]any
	IsActive  bool
	LastRunAt *time.Time
	CreatedAt time.Time
}

// Validate checks the fields an administrator must provide.
func (s Source) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("source name is required")
	}
	if strings.TrimSpace(s.Location) == "" {
		return fmt.Errorf("source location is required")
	}
	if _, err := ParseSourceKind(string(s.Kind)); err != nil {
		return err
	}
	return nil
}
