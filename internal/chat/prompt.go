// Package chat implements the memory-augmented message pipeline: prompt
// construction, tag extraction from model replies, and orchestration.
package chat

import (
	"fmt"
	"strings"

	"github.com/mgersbach/studymate/internal/models"
)

const (
	// promptFraming establishes the assistant persona and memory awareness.
	promptFraming = "You are StudyMate, a friendly study companion who remembers facts about the student across conversations."

	// promptInstructions teaches the model the memory tag protocol.
	promptInstructions = `To update your memory you may append special lines to your reply:
[REMEMBER: <content> | IMPORTANCE: <1-10> | CATEGORY: <personal|academic|preferences|goals>]
[FORGET: <memory-id>]
Tag lines must appear at the end of the reply, each on its own line. Never mention the tags to the student.`
)

// BuildPrompt renders the full prompt sent to the completion collaborator.
// It is a pure function: identical inputs always yield byte-identical output.
// The memory and materials sections are omitted when empty, and turns beyond
// the recent window are dropped by the caller (see models.WindowTurns).
func BuildPrompt(message string, memories []models.Memory, courseMaterials string, turns []models.Turn) string {
	var b strings.Builder

	b.WriteString(promptFraming)
	b.WriteString("\n\n")

	if len(memories) > 0 {
		b.WriteString("What you remember about this student:\n")
		for _, m := range memories {
			fmt.Fprintf(&b, "- [%s] %s (importance: %d, category: %s)\n",
				models.MustRecordIDString(m.ID), m.Content, m.Importance, m.Category)
		}
		b.WriteString("\n")
	}

	if courseMaterials != "" {
		b.WriteString("Relevant course materials:\n")
		b.WriteString(courseMaterials)
		b.WriteString("\n\n")
	}

	b.WriteString(promptInstructions)
	b.WriteString("\n\n")

	if len(turns) > 0 {
		b.WriteString("Recent conversation:\n")
		for _, t := range turns {
			if t.Role == models.RoleAI {
				b.WriteString("AI: ")
			} else {
				b.WriteString("User: ")
			}
			b.WriteString(t.Content)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("User: ")
	b.WriteString(message)
	b.WriteString("\nAI:")

	return b.String()
}
