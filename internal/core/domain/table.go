package domain

// RawTable is a decoded upload. Column identity is positional and rows may
// have different widths; no row is treated as a header.
type RawTable struct {
	Rows [][]string `json:"rows"`
}

// Width returns the widest row length.
func (t RawTable) Width() int {
	width := 0
	for _, row := range t.Rows {
		if len(row) > width {
			width = len(row)
		}
	}
	return width
}

// Cell returns the cell at (row, col) and false when the row is too short.
func (t RawTable) Cell(row, col int) (string, bool) {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return "", false
	}
	return t.Rows[row][col], true
}

type ColumnScore struct {
	Column int     `json:"column"`
	Score  float64 `json:"score"`
}

// ColumnRanking holds both role rankings, each sorted by descending score
// with ties kept in column order.
type ColumnRanking struct {
	Width   int           `json:"width"`
	Subject []ColumnScore `json:"subject"`
	Amount  []ColumnScore `json:"amount"`
}

func (r ColumnRanking) DefaultSubject() int {
	if len(r.Subject) == 0 {
		return 0
	}
	return r.Subject[0].Column
}

func (r ColumnRanking) DefaultAmount() int {
	if len(r.Amount) == 0 {
		if r.Width == 0 {
			return 0
		}
		return r.Width - 1
	}
	return r.Amount[0].Column
}

func (r ColumnRanking) TopSubject(n int) []ColumnScore {
	return topScores(r.Subject, n)
}

func (r ColumnRanking) TopAmount(n int) []ColumnScore {
	return topScores(r.Amount, n)
}

func topScores(scores []ColumnScore, n int) []ColumnScore {
	if n < 0 {
		n = 0
	}
	if n > len(scores) {
		n = len(scores)
	}
	out := make([]ColumnScore, n)
	copy(out, scores[:n])
	return out
}

type NormalizedRow struct {
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
}

// NormalizedTable is the clean (label, amount) dataset. RowsIn counts the raw
// rows that were considered, so dropped rows stay observable.
type NormalizedTable struct {
	Rows   []NormalizedRow `json:"rows"`
	RowsIn int             `json:"rows_in"`
}

func (t NormalizedTable) RowsOut() int {
	return len(t.Rows)
}

func (t NormalizedTable) Dropped() int {
	return t.RowsIn - len(t.Rows)
}

// Head returns at most n leading rows.
func (t NormalizedTable) Head(n int) []NormalizedRow {
	if n < 0 {
		n = 0
	}
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	out := make([]NormalizedRow, n)
	copy(out, t.Rows[:n])
	return out
}
