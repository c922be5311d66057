package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/akolanti/driveqa/internal/domain/docModel"
)

func makeTable(rowCount int) docModel.Table {
	rows := make([][]string, rowCount)
	for i := range rows {
		// fixed-width rows: "month-000,0000.00" is 17 chars
		rows[i] = []string{fmt.Sprintf("month-%03d", i), fmt.Sprintf("%07.2f", float64(i)+0.5)}
	}
	return docModel.Table{
		Header: []string{"month", "amount"},
		Rows:   rows,
	}
}

// dataRows strips the header block and footer marker off a tabular chunk and
// returns just its data rows.
func dataRows(t *testing.T, chunk string) []string {
	t.Helper()
	lines := strings.Split(chunk, "\n")
	if len(lines) < 6 {
		t.Fatalf("chunk too short to hold header block + rows:\n%s", chunk)
	}
	if !strings.HasPrefix(lines[0], "=== TABULAR DATA:") {
		t.Fatalf("chunk missing header marker: %q", lines[0])
	}
	if !strings.HasPrefix(lines[len(lines)-1], "=== END ROWS") {
		t.Fatalf("chunk missing footer marker: %q", lines[len(lines)-1])
	}
	return lines[4 : len(lines)-1]
}

func TestSplitTable_RowCoverage(t *testing.T) {
	table := makeTable(137)
	chunks := SplitTable(table, "spend.csv", 300)

	if len(chunks) < 2 {
		t.Fatalf("Expected the table to need multiple chunks, got %d", len(chunks))
	}

	var got []string
	for _, c := range chunks {
		got = append(got, dataRows(t, c)...)
	}

	if len(got) != len(table.Rows) {
		t.Fatalf("Row count changed through chunking: got %d, want %d", len(got), len(table.Rows))
	}
	for i, row := range table.Rows {
		want := strings.Join(row, ",")
		if got[i] != want {
			t.Errorf("Row %d mismatch: got %q want %q", i, got[i], want)
		}
	}
}

func TestSplitTable_NeverSplitsRows(t *testing.T) {
	table := makeTable(40)
	chunks := SplitTable(table, "spend.csv", 100)

	for i, c := range chunks {
		if len(c) == 0 {
			t.Fatalf("chunk %d is empty", i)
		}
		for _, row := range dataRows(t, c) {
			if strings.Count(row, ",") != 1 {
				t.Errorf("chunk %d carries a partial row: %q", i, row)
			}
		}
	}
}

func TestSplitTable_HeaderBlock(t *testing.T) {
	table := makeTable(414)
	// 47 rows of 18 bytes (17 chars + newline) per chunk: 414 rows -> 9 chunks
	chunks := SplitTable(table, "monthly totals", 47*18)

	if len(chunks) != 9 {
		t.Fatalf("Expected 9 chunks, got %d", len(chunks))
	}

	for i, c := range chunks {
		rows := dataRows(t, c)
		if len(rows) > 50 {
			t.Errorf("chunk %d holds %d rows, want <= 50", i, len(rows))
		}
		if !strings.Contains(c, "Total rows: 414") {
			t.Errorf("chunk %d missing total row count header", i)
		}
		if !strings.Contains(c, "Columns: month,amount") {
			t.Errorf("chunk %d missing column header line", i)
		}
	}

	if !strings.Contains(chunks[0], "Rows 0-46 of 414") {
		t.Errorf("first chunk range header wrong:\n%s", strings.SplitN(chunks[0], "\n", 5)[3])
	}
	if !strings.Contains(chunks[8], "Rows 376-413 of 414") {
		t.Errorf("last chunk range header wrong")
	}
}

func TestSplitTable_Empty(t *testing.T) {
	table := docModel.Table{Header: []string{"a", "b"}}
	if chunks := SplitTable(table, "empty.csv", 100); chunks != nil {
		t.Errorf("Table with no data rows should produce zero chunks, got %d", len(chunks))
	}
}

func TestSplitTable_SingleChunk(t *testing.T) {
	table := makeTable(3)
	chunks := SplitTable(table, "tiny.csv", 10_000)
	if len(chunks) != 1 {
		t.Fatalf("Expected exactly 1 chunk, got %d", len(chunks))
	}
	if !strings.Contains(chunks[0], "Rows 0-2 of 3") {
		t.Errorf("single chunk range header wrong:\n%s", chunks[0])
	}
}

func TestSplitTable_OversizedRow(t *testing.T) {
	table := docModel.Table{
		Header: []string{"id", "blob"},
		Rows: [][]string{
			{"1", "small"},
			{"2", strings.Repeat("x", 500)},
			{"3", "small"},
		},
	}
	chunks := SplitTable(table, "blobs.csv", 100)

	var got []string
	for _, c := range chunks {
		got = append(got, dataRows(t, c)...)
	}
	if len(got) != 3 {
		t.Fatalf("Oversized row was dropped or split: got %d rows, want 3", len(got))
	}
}

func TestParseCSV(t *testing.T) {
	table, err := ParseCSV("month,amount\njan,100\nfeb,200\n")
	if err != nil {
		t.Fatalf("ParseCSV failed: %v", err)
	}
	if len(table.Header) != 2 || table.Header[0] != "month" {
		t.Errorf("Header mismatch: %v", table.Header)
	}
	if len(table.Rows) != 2 || table.Rows[1][1] != "200" {
		t.Errorf("Rows mismatch: %v", table.Rows)
	}
}

func TestParseCSV_Ragged(t *testing.T) {
	if _, err := ParseCSV("a,b\n1,2,3\n"); err == nil {
		t.Error("Expected error for ragged rows, got nil")
	}
}

func TestParseCSV_Empty(t *testing.T) {
	table, err := ParseCSV("")
	if err != nil {
		t.Fatalf("Empty input should not error: %v", err)
	}
	if len(table.Rows) != 0 {
		t.Errorf("Empty input should have no rows, got %d", len(table.Rows))
	}
}
