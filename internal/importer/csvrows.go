package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

func trimHeader(h string) string { return strings.TrimSpace(h) }

func snakeHeader(h string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(h)), "_")
}

// readRows decodes header-aware CSV. Decode problems are reported as "csv"
// errors on res; rows with the wrong field count are still returned. Row
// numbers count records from 1 with the header as row 1.
func readRows(data []byte, header func(string) string, res *ParseResult) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var cols []string
	for n := 1; ; n++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		row := n
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				res.fail(row, "csv", "", perr.Err.Error())
				continue
			}
			res.fail(row, "csv", "", err.Error())
			break
		}
		if cols == nil {
			cols = make([]string, len(rec))
			for i, h := range rec {
				cols[i] = header(h)
			}
			continue
		}
		if len(rec) != len(cols) {
			res.fail(row, "csv", "", fmt.Sprintf("row has %d fields, expected %d", len(rec), len(cols)))
		}
		fields := make(map[string]string, len(cols))
		for i, c := range cols {
			if i < len(rec) {
				fields[c] = rec[i]
			}
		}
		res.Rows = append(res.Rows, Row{Line: row, Fields: fields})
	}
}
