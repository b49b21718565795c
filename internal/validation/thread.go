package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	maxTitleLen    = 200
	maxSegments    = 50
	maxSegmentLen  = 5000
	maxTags        = 10
	maxTagLen      = 32
	maxCollNameLen = 100
)

// ValidateThreadTitle checks a trimmed thread title.
func ValidateThreadTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("please add a title")
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return fmt.Errorf("title must not exceed %d characters", maxTitleLen)
	}
	return nil
}

// ValidateSegments checks that there is at least one segment and none is blank.
func ValidateSegments(contents []string) error {
	if len(contents) == 0 {
		return fmt.Errorf("a thread needs at least one segment")
	}
	if len(contents) > maxSegments {
		return fmt.Errorf("a thread can have at most %d segments", maxSegments)
	}
	for i, c := range contents {
		if strings.TrimSpace(c) == "" {
			return fmt.Errorf("please fill in all segments (segment %d is empty)", i+1)
		}
		if utf8.RuneCountInString(c) > maxSegmentLen {
			return fmt.Errorf("segment %d must not exceed %d characters", i+1, maxSegmentLen)
		}
	}
	return nil
}

// NormalizeTags trims tags, drops empty ones and duplicates, keeping first-seen order.
func NormalizeTags(tags []string) ([]string, error) {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		if utf8.RuneCountInString(t) > maxTagLen {
			return nil, fmt.Errorf("tag %q must not exceed %d characters", t, maxTagLen)
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	if len(out) > maxTags {
		return nil, fmt.Errorf("a thread can have at most %d tags", maxTags)
	}
	return out, nil
}

// ValidateCollectionName checks a collection name.
func ValidateCollectionName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("collection name is required")
	}
	if utf8.RuneCountInString(name) > maxCollNameLen {
		return fmt.Errorf("collection name must not exceed %d characters", maxCollNameLen)
	}
	return nil
}
