// Package timetable imports class timetables from spreadsheet workbooks.
package timetable

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/mgersbach/studymate/internal/models"
)

var (
	// timeSlotRe matches header labels like "08:30-10:00".
	timeSlotRe = regexp.MustCompile(`^\d{2}:\d{2}-\d{2}:\d{2}$`)
	// entryRe splits "Course (Section): Instructor" cells.
	entryRe = regexp.MustCompile(`^(.*?) \((.*?)\): (.*)$`)
)

const (
	// headerScanRows is how many leading rows are searched for time-slot labels.
	headerScanRows = 10
	// fallbackHeaderRow is used when no row carries a time-slot label (1-based).
	fallbackHeaderRow = 4

	dayColumn  = 1
	roomColumn = 2
)

// cellRef addresses one cell by 1-based row and column.
type cellRef struct {
	row, col int
}

// Parse scans a timetable workbook into entries. The worksheet is chosen by
// case-insensitive name-substring match against sheetHint, falling back to
// the first sheet. Day labels are carried forward across vertically merged
// or blank day cells; rows with a blank room are skipped entirely.
func Parse(r io.Reader, sheetHint string) ([]models.TimetableEntry, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := pickSheet(f, sheetHint)
	if sheet == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	merges, err := mergeMap(f, sheet)
	if err != nil {
		return nil, fmt.Errorf("resolve merged cells in %q: %w", sheet, err)
	}

	grid := gridReader{rows: rows, merges: merges}

	headerRow := findHeaderRow(grid, len(rows))
	slots := slotColumns(rows, headerRow)

	var entries []models.TimetableEntry
	currentDay := ""
	for row := headerRow + 1; row <= len(rows); row++ {
		if day := strings.TrimSpace(grid.value(row, dayColumn)); day != "" {
			currentDay = day
		}
		room := strings.TrimSpace(grid.value(row, roomColumn))
		if room == "" || currentDay == "" {
			continue
		}

		for _, slot := range slots {
			text := strings.TrimSpace(grid.value(row, slot.col))
			if text == "" {
				continue
			}

			entry := models.TimetableEntry{
				Day:      currentDay,
				Room:     room,
				TimeSlot: slot.label,
			}
			if m := entryRe.FindStringSubmatch(text); m != nil {
				entry.Course = m[1]
				entry.Section = m[2]
				entry.Instructor = m[3]
			} else {
				// Free-form cells ("Open Lab") become course-only entries.
				entry.Course = text
			}
			entries = append(entries, entry)
		}
	}

	return entries, nil
}

// pickSheet selects the first sheet whose name contains hint, else the first.
func pickSheet(f *excelize.File, hint string) string {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return ""
	}
	hint = strings.ToLower(hint)
	if hint != "" {
		for _, name := range sheets {
			if strings.Contains(strings.ToLower(name), hint) {
				return name
			}
		}
	}
	return sheets[0]
}

// mergeMap maps every cell covered by a merge range to the range's top-left
// value, so reads anywhere inside a merge resolve consistently.
func mergeMap(f *excelize.File, sheet string) (map[cellRef]string, error) {
	cells, err := f.GetMergeCells(sheet)
	if err != nil {
		return nil, err
	}

	merges := make(map[cellRef]string)
	for _, mc := range cells {
		startCol, startRow, err := excelize.CellNameToCoordinates(mc.GetStartAxis())
		if err != nil {
			return nil, err
		}
		endCol, endRow, err := excelize.CellNameToCoordinates(mc.GetEndAxis())
		if err != nil {
			return nil, err
		}
		value := mc.GetCellValue()
		for row := startRow; row <= endRow; row++ {
			for col := startCol; col <= endCol; col++ {
				merges[cellRef{row, col}] = value
			}
		}
	}
	return merges, nil
}

// gridReader reads cells with merge resolution over the raw row data.
type gridReader struct {
	rows   [][]string
	merges map[cellRef]string
}

func (g gridReader) value(row, col int) string {
	if v, ok := g.merges[cellRef{row, col}]; ok {
		return v
	}
	if row < 1 || row > len(g.rows) {
		return ""
	}
	cells := g.rows[row-1]
	if col < 1 || col > len(cells) {
		return ""
	}
	return cells[col-1]
}

// findHeaderRow returns the first of the leading rows containing a time-slot
// label, or fallbackHeaderRow if none does.
func findHeaderRow(grid gridReader, totalRows int) int {
	limit := min(headerScanRows, totalRows)
	for row := 1; row <= limit; row++ {
		for col := 1; col <= len(grid.rows[row-1]); col++ {
			if timeSlotRe.MatchString(strings.TrimSpace(grid.value(row, col))) {
				return row
			}
		}
	}
	return fallbackHeaderRow
}

type slotColumn struct {
	col   int
	label string
}

// slotColumns records (column, label) for every time-slot cell in the header
// row. Raw row data carries a merged cell's value only in its leftmost
// column, which is exactly the column wanted here.
func slotColumns(rows [][]string, headerRow int) []slotColumn {
	if headerRow < 1 || headerRow > len(rows) {
		return nil
	}
	var slots []slotColumn
	for col, raw := range rows[headerRow-1] {
		label := strings.TrimSpace(raw)
		if timeSlotRe.MatchString(label) {
			slots = append(slots, slotColumn{col: col + 1, label: label})
		}
	}
	return slots
}
