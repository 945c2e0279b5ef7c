package chat

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/mgersbach/studymate/internal/models"
)

// Tag markers emitted by the completion collaborator.
const (
	rememberMarker = "[REMEMBER:"
	forgetMarker   = "[FORGET:"
)

// MemoryDirective is one memory-insert instruction extracted from a reply.
type MemoryDirective struct {
	Content    string
	Importance int
	Category   string
}

// ParsedReply is the result of extracting tags from raw completion text.
type ParsedReply struct {
	// Clean is the user-visible text with every tag line removed.
	Clean string
	// Remember holds memory-insert directives in order of appearance.
	Remember []MemoryDirective
	// Forget holds memory IDs to delete, already validated as UUIDs.
	Forget []string
}

// ParseTags extracts REMEMBER/FORGET directives from raw completion text and
// strips their lines from the user-visible reply. Malformed lines are
// dropped silently; they never abort processing of subsequent lines.
func ParseTags(raw string) ParsedReply {
	var parsed ParsedReply
	var cleanLines []string

	for _, line := range strings.Split(raw, "\n") {
		switch {
		case strings.Contains(line, rememberMarker):
			if d, ok := parseRememberLine(line); ok {
				parsed.Remember = append(parsed.Remember, d)
			}
		case strings.Contains(line, forgetMarker):
			if id, ok := parseForgetLine(line); ok {
				parsed.Forget = append(parsed.Forget, id)
			}
		default:
			cleanLines = append(cleanLines, line)
		}
	}

	parsed.Clean = strings.TrimSpace(strings.Join(cleanLines, "\n"))
	return parsed
}

// parseRememberLine extracts content, importance and category from one
// REMEMBER line. Lines with empty content are rejected; a mangled importance
// defaults to 5 and a missing category to "general".
func parseRememberLine(line string) (MemoryDirective, bool) {
	content := substringBetween(line, rememberMarker, "|")
	if content == nil {
		// No field separator: content runs to the closing bracket.
		content = substringBetween(line, rememberMarker, "]")
	}
	if content == nil || strings.TrimSpace(*content) == "" {
		return MemoryDirective{}, false
	}

	d := MemoryDirective{
		Content:    strings.TrimSpace(*content),
		Importance: models.DefaultImportance,
		Category:   models.DefaultCategory,
	}

	if imp := substringBetween(line, "IMPORTANCE:", "|"); imp != nil {
		if n, err := strconv.Atoi(strings.TrimSpace(*imp)); err == nil {
			d.Importance = n
		}
	} else if imp := substringBetween(line, "IMPORTANCE:", "]"); imp != nil {
		if n, err := strconv.Atoi(strings.TrimSpace(*imp)); err == nil {
			d.Importance = n
		}
	}

	if cat := substringBetween(line, "CATEGORY:", "]"); cat != nil && strings.TrimSpace(*cat) != "" {
		d.Category = strings.TrimSpace(*cat)
	}

	return d, true
}

// parseForgetLine extracts the memory ID from one FORGET line. IDs that are
// not valid UUIDs are dropped.
func parseForgetLine(line string) (string, bool) {
	raw := substringBetween(line, forgetMarker, "]")
	if raw == nil {
		return "", false
	}
	id, err := uuid.Parse(strings.TrimSpace(*raw))
	if err != nil {
		return "", false
	}
	return id.String(), true
}

// substringBetween returns the text between the first occurrence of start
// and the next occurrence of end after it. Returns nil when either
// delimiter is absent, so callers can distinguish "missing" from "empty".
func substringBetween(s, start, end string) *string {
	i := strings.Index(s, start)
	if i < 0 {
		return nil
	}
	rest := s[i+len(start):]
	j := strings.Index(rest, end)
	if j < 0 {
		return nil
	}
	out := rest[:j]
	return &out
}
