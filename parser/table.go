package parser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// ErrNotFound is returned by LoadTable when the input file does not exist or
// cannot be opened.
var ErrNotFound = errors.New("file not found")

// LoadTable reads a dense comma-separated numeric matrix with no header.
// Row i of the result is line i of the file.
func LoadTable(filename string) (*mat.Dense, error) {
	file, err := os.Open(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, filename)
		}
		return nil, fmt.Errorf("parser: opening %s: %w", filename, err)
	}
	defer file.Close()

	data, err := ReadTable(file)
	if err != nil {
		return nil, fmt.Errorf("parser: %s: %w", filename, err)
	}
	return data, nil
}

// ReadTable parses a numeric table from r. Every row must have the same
// number of columns and every field must parse as a finite float or NaN.
// Blank lines are skipped.
func ReadTable(r io.Reader) (*mat.Dense, error) {
	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true
	// Column counts are checked here so that blank lines can be skipped first.
	reader.FieldsPerRecord = -1

	var (
		values []float64
		rows   int
		cols   int
	)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if blank(record) {
			continue
		}
		if rows == 0 {
			cols = len(record)
		}
		if len(record) != cols {
			line, _ := reader.FieldPos(0)
			return nil, fmt.Errorf("line %d: %w: got %d, want %d", line, csv.ErrFieldCount, len(record), cols)
		}
		for j, field := range record {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("row %d, column %d: invalid number %q", rows+1, j+1, field)
			}
			if math.IsInf(v, 0) {
				return nil, fmt.Errorf("row %d, column %d: non-finite value %q", rows+1, j+1, field)
			}
			values = append(values, v)
		}
		rows++
	}

	if rows == 0 || cols == 0 {
		return nil, errors.New("empty table")
	}
	return mat.NewDense(rows, cols, values), nil
}

func blank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
