package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/salmonumbrella/csvprep/internal/table"
)

const utf8BOM = "\ufeff"

// ReadCSV decodes a CSV document with a header row into a table. Repeated
// header fields are renamed as in table.UniqueNames; opts are passed to
// table.FromRecords.
func ReadCSV(r io.Reader, opts ...table.RecordOption) (*table.Table, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, MalformedError{Message: "no header row"}
	}
	if err != nil {
		return nil, MalformedError{Message: fmt.Sprintf("read header: %v", err)}
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, MalformedError{Message: fmt.Sprintf("read rows: %v", err)}
	}

	t, err := table.FromRecords(header, rows, opts...)
	if err != nil {
		return nil, MalformedError{Message: err.Error()}
	}
	return t, nil
}
