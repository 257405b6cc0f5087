package story

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// CSVToText writes the last column of every CSV record to w, one per line,
// and returns the number of lines written. Blank cells are skipped.
func CSVToText(r io.Reader, w io.Writer) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	written := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return written, nil
		}
		if err != nil {
			return written, fmt.Errorf("read csv: %w", err)
		}
		if len(record) == 0 {
			continue
		}
		cell := strings.TrimSpace(record[len(record)-1])
		if cell == "" {
			continue
		}
		cell = strings.Join(strings.Fields(cell), " ")
		if _, err := io.WriteString(w, cell+"\n"); err != nil {
			return written, fmt.Errorf("write text: %w", err)
		}
		written++
	}
}
