package chunker

import (
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/akolanti/driveqa/internal/domain/docModel"
)

//tabular (csv/sheet) documents are chunked by whole rows, never by
//characters: a row's fields must never be split across two chunks, and a
//naive character window would do exactly that.

// ParseCSV materializes raw CSV content into a header row plus data rows.
// Ragged rows are an extraction failure, reported to the caller.
func ParseCSV(raw string) (docModel.Table, error) {
	reader := csv.NewReader(strings.NewReader(raw))
	records, err := reader.ReadAll()
	if err != nil {
		return docModel.Table{}, fmt.Errorf("malformed table: %w", err)
	}
	if len(records) == 0 {
		return docModel.Table{}, nil
	}
	return docModel.Table{
		Header: records[0],
		Rows:   records[1:],
	}, nil
}

// SplitTable groups whole rows into chunks whose row data stays within limit
// bytes. Every chunk is prefixed with a reconstructible header block (column
// headers, total row count, this chunk's row range) and closed with a range
// footer, so the merged reconstruction can be verified independently of the
// stored metadata. A single row larger than the limit still becomes its own
// chunk - the limit is a hard bound across rows, best effort per row.
func SplitTable(table docModel.Table, docName string, limit int) []string {
	if len(table.Rows) == 0 {
		return nil
	}

	lines := make([]string, len(table.Rows))
	for i, row := range table.Rows {
		lines[i] = strings.Join(row, ",")
	}

	type rowRange struct{ start, end int } //inclusive
	var ranges []rowRange

	start := 0
	size := 0
	for i, line := range lines {
		lineSize := len(line) + 1 //newline
		if size > 0 && size+lineSize > limit {
			ranges = append(ranges, rowRange{start, i - 1})
			start = i
			size = 0
		}
		size += lineSize
	}
	ranges = append(ranges, rowRange{start, len(lines) - 1})

	total := len(table.Rows)
	header := strings.Join(table.Header, ",")

	chunks := make([]string, 0, len(ranges))
	for _, r := range ranges {
		var b strings.Builder
		fmt.Fprintf(&b, "=== TABULAR DATA: %s ===\n", docName)
		fmt.Fprintf(&b, "Columns: %s\n", header)
		fmt.Fprintf(&b, "Total rows: %d\n", total)
		fmt.Fprintf(&b, "Rows %d-%d of %d\n", r.start, r.end, total)
		for _, line := range lines[r.start : r.end+1] {
			b.WriteString(line)
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "=== END ROWS %d-%d ===", r.start, r.end)
		chunks = append(chunks, b.String())
	}

	return chunks
}
