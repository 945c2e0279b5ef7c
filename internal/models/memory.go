package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// Memory is a durable, ranked fact about a student.
type Memory struct {
	ID         surrealmodels.RecordID `json:"id"`
	UserID     string                 `json:"user_id"`
	Content    string                 `json:"content"`
	Importance int                    `json:"importance"`
	Category   string                 `json:"category"`
	IsSummary  bool                   `json:"is_summary"`
	Created    time.Time              `json:"created"`
	Accessed   *time.Time             `json:"accessed,omitempty"`
}

// RankedAt returns the timestamp used as the pruning tiebreaker:
// last access when present, creation time otherwise.
func (m Memory) RankedAt() time.Time {
	if m.Accessed != nil {
		return *m.Accessed
	}
	return m.Created
}

// DefaultImportance is assigned when the model omits or mangles the
// importance field of a REMEMBER tag.
const DefaultImportance = 5

// DefaultCategory is assigned when the model omits the category field.
const DefaultCategory = "general"
