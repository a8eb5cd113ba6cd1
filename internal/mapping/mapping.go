// Package mapping reads the operator-supplied source to destination identity
// list used by the ownership transfer.
package mapping

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrMalformedRow is returned when a row does not carry two non-empty
// addresses.
var ErrMalformedRow = errors.New("malformed mapping row")

// Pair maps a departing identity to the identity inheriting its ownership.
type Pair struct {
	Source string
	Dest   string
}

// ReadFile reads pairs from the CSV file at path.
func ReadFile(path string) ([]Pair, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening mapping file: %w", err)
	}
	defer f.Close()

	pairs, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return pairs, nil
}

// Read parses "source,destination" rows. Blank lines are ignored, columns
// after the second are ignored, and a first row without any address is
// treated as a header. A leading UTF-8 byte order mark is dropped.
func Read(r io.Reader) ([]Pair, error) {
	br := bufio.NewReader(r)
	if prefix, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(prefix, utf8BOM) {
		if _, err := br.Discard(len(utf8BOM)); err != nil {
			return nil, err
		}
	}
	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	var pairs []Pair
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := reader.FieldPos(0)

		if first {
			first = false
			if isHeader(record) {
				continue
			}
		}
		if len(record) < 2 {
			return nil, fmt.Errorf("line %d: %w: expected 2 columns, got %d", line, ErrMalformedRow, len(record))
		}
		src := strings.TrimSpace(record[0])
		dst := strings.TrimSpace(record[1])
		if src == "" || dst == "" {
			return nil, fmt.Errorf("line %d: %w: empty address", line, ErrMalformedRow)
		}
		pairs = append(pairs, Pair{Source: src, Dest: dst})
	}
	return pairs, nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func isHeader(record []string) bool {
	for _, field := range record {
		if strings.Contains(field, "@") {
			return false
		}
	}
	return true
}
