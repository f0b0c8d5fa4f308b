package period

import "time"

// =============================================================================
// MONTH GRID
// =============================================================================

// Cell is one day of a month grid.
type Cell struct {
	Day     int    `json:"day"`
	InMonth bool   `json:"in_month"`
	Date    string `json:"date"`
	IsToday bool   `json:"is_today"`
}

// BuildMonthGrid returns exactly 42 cells (6 rows x 7 columns) starting on
// the calendar's first weekday on or before the 1st of the month.
// Leading and trailing cells carry real dates of the adjacent months.
func (c *Calendar) BuildMonthGrid(yearMonth string) ([]Cell, error) {
	first, err := ParseYearMonth(yearMonth)
	if err != nil {
		return nil, err
	}

	leading := (int(first.Weekday()) - int(c.FirstWeekday) + 7) % 7
	start := first.AddDate(0, 0, -leading)
	today := c.Today()

	cells := make([]Cell, GridCells)
	for i := range cells {
		d := start.AddDate(0, 0, i)
		iso := d.Format(DateLayout)
		inMonth := d.Month() == first.Month() && d.Year() == first.Year()
		cells[i] = Cell{
			Day:     d.Day(),
			InMonth: inMonth,
			Date:    iso,
			IsToday: inMonth && iso == today,
		}
	}
	return cells, nil
}

// BuildMonthGrid builds a grid with the Default calendar.
func BuildMonthGrid(yearMonth string) ([]Cell, error) {
	return Default.BuildMonthGrid(yearMonth)
}

// Rows splits a grid into weeks.
func Rows(cells []Cell) [][]Cell {
	var rows [][]Cell
	for i := 0; i < len(cells); i += 7 {
		end := i + 7
		if end > len(cells) {
			end = len(cells)
		}
		rows = append(rows, cells[i:end])
	}
	return rows
}

// WeekdayHeaders returns short weekday names in grid column order.
func (c *Calendar) WeekdayHeaders() []string {
	headers := make([]string, 7)
	for i := range headers {
		headers[i] = time.Weekday((int(c.FirstWeekday) + i) % 7).String()[:3]
	}
	return headers
}
