package scheduler

// Placement is one entry of one facility shown in a calendar cell.
type Placement struct {
	FacilityID int64
	Entry      Entry
}

// GridCell is the intersection of a weekday and a clock cell.
type GridCell struct {
	Day        WeekDay
	Start      TimeSlot
	End        TimeSlot
	Placements []Placement
}

// Conflict reports whether more than one entry covers the cell.
func (c GridCell) Conflict() bool {
	return len(c.Placements) > 1
}

// GridRow holds the cells of one clock period for every weekday.
type GridRow struct {
	Start TimeSlot
	End   TimeSlot
	Cells []GridCell
}

// WeeklyGrid is the calendar view of an assignment: rows are clock cells,
// columns are weekdays in Monday-first order.
type WeeklyGrid struct {
	Days []WeekDay
	Rows []GridRow
}

// DeriveWeeklyGrid computes, for every (day, cell) pair, the entries covering
// the cell start across all selected facilities. It is read-only and fully
// recomputed on every call.
func DeriveWeeklyGrid(a *Assignment) WeeklyGrid {
	days := WeekDays()
	cells := a.grid.Cells()
	grid := WeeklyGrid{Days: days, Rows: make([]GridRow, 0, len(cells))}

	for _, cell := range cells {
		row := GridRow{Start: cell.Start, End: cell.End, Cells: make([]GridCell, 0, len(days))}
		for _, day := range days {
			gc := GridCell{Day: day, Start: cell.Start, End: cell.End}
			for _, facilityID := range a.selected {
				schedule := a.schedules[facilityID]
				if schedule == nil {
					continue
				}
				for _, entry := range schedule.Entries {
					if entry.Day == day && entry.Interval().Covers(cell.Start) {
						gc.Placements = append(gc.Placements, Placement{FacilityID: facilityID, Entry: entry})
					}
				}
			}
			row.Cells = append(row.Cells, gc)
		}
		grid.Rows = append(grid.Rows, row)
	}

	return grid
}

// Conflicts lists every cell covered by more than one entry.
func (g WeeklyGrid) Conflicts() []GridCell {
	var out []GridCell
	for _, row := range g.Rows {
		for _, cell := range row.Cells {
			if cell.Conflict() {
				out = append(out, cell)
			}
		}
	}
	return out
}

// Cell returns the cell for day starting at start.
func (g WeeklyGrid) Cell(day WeekDay, start TimeSlot) (GridCell, bool) {
	idx := day.Index()
	if idx < 0 {
		return GridCell{}, false
	}
	for _, row := range g.Rows {
		if row.Start == start && idx < len(row.Cells) {
			return row.Cells[idx], true
		}
	}
	return GridCell{}, false
}
