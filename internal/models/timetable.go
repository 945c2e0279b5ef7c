package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// TimetableEntry is one occupied (day, time slot, room) cell of the
// imported timetable.
type TimetableEntry struct {
	ID         surrealmodels.RecordID `json:"id,omitempty"`
	Day        string                 `json:"day"`
	Room       string                 `json:"room"`
	TimeSlot   string                 `json:"time_slot"`
	Course     string                 `json:"course"`
	Section    string                 `json:"section"`
	Instructor string                 `json:"instructor"`
	Created    time.Time              `json:"created,omitempty"`
}
