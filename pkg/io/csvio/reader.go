package csvio

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/wdm0006/blobetl/pkg/frame"
	iox "github.com/wdm0006/blobetl/pkg/io/ioutils"
)

type ReaderOptions struct {
	HasHeader  bool
	Delimiter  rune // 0 = sniff
	SampleRows int  // rows used for inference; default 100, negative scans the whole input
	Strict     bool // if true, error on records longer than the header
}

type Reader struct {
	r   *csv.Reader
	opt ReaderOptions
	buf [][]string
}

// nullTokens are cell values read as null, matching the defaults of common
// dataframe libraries.
var nullTokens = map[string]bool{
	"": true, "#N/A": true, "#N/A N/A": true, "#NA": true, "-1.#IND": true, "-1.#QNAN": true,
	"-NaN": true, "-nan": true, "1.#IND": true, "1.#QNAN": true, "<NA>": true, "N/A": true,
	"NA": true, "NULL": true, "NaN": true, "None": true, "n/a": true, "nan": true, "null": true,
}

var (
	intRe   = regexp.MustCompile(`^[-+]?[0-9]+$`)
	// infinities are not numbers here; they read as text
	floatRe = regexp.MustCompile(`^[-+]?([0-9]+\.?[0-9]*|\.[0-9]+)([eE][-+]?[0-9]+)?$`)
)

// NewReader wraps r, inflating gzip input and sniffing the delimiter when
// none is given.
func NewReader(r io.Reader, opt ReaderOptions) (*Reader, error) {
	in, err := iox.MaybeDecompress(r)
	if err != nil {
		return nil, err
	}
	br := bufio.NewReader(in)
	rr := csv.NewReader(br)
	rr.FieldsPerRecord = -1
	if opt.Delimiter == 0 {
		d, lazy := sniffDelimiterAndQuotes(br)
		rr.Comma = d
		rr.LazyQuotes = lazy
	} else {
		rr.Comma = opt.Delimiter
	}
	return &Reader{r: rr, opt: opt}, nil
}

// ReadFrame reads the whole input into a Frame, inferring the schema from
// every row.
func ReadFrame(r io.Reader, opt ReaderOptions) (*frame.Frame, error) {
	opt.SampleRows = -1
	rd, err := NewReader(r, opt)
	if err != nil {
		return nil, err
	}
	schema, _, err := rd.InferSchema()
	if err != nil {
		return nil, err
	}
	return rd.ReadAll(schema)
}

// InferSchema reads header (if present) and samples rows to determine column kinds.
func (r *Reader) InferSchema() (frame.Schema, []string, error) {
	rec, err := r.r.Read()
	if err == io.EOF {
		return frame.Schema{}, nil, fmt.Errorf("csv: no columns to parse")
	}
	if err != nil {
		return frame.Schema{}, nil, err
	}
	var names []string
	headerOnly := false
	if r.opt.HasHeader {
		names = headerNames(rec)
		rec, err = r.r.Read()
		if err == io.EOF {
			headerOnly = true
		} else if err != nil {
			return frame.Schema{}, nil, err
		}
	} else {
		names = make([]string, len(rec))
		for i := range names {
			names[i] = "col_" + strconv.Itoa(i)
		}
	}

	var sample [][]string
	if !headerOnly {
		sample = append(sample, copyRecord(rec))
		max := r.opt.SampleRows
		if max == 0 {
			max = 100
		}
		for i := 1; max < 0 || i < max; i++ {
			rr, err := r.r.Read()
			if err == io.EOF {
				break
			}
			if err != nil {
				return frame.Schema{}, nil, err
			}
			sample = append(sample, copyRecord(rr))
		}
	}

	kinds := inferKinds(len(names), sample)
	schema := frame.Schema{Columns: make([]frame.ColumnSchema, len(names))}
	for i := range names {
		schema.Columns[i] = frame.ColumnSchema{Name: names[i], Type: kinds[i], Nullable: true}
	}
	// retain sampled rows for subsequent ReadAll
	r.buf = append(r.buf, sample...)
	return schema, names, nil
}

// ReadAll loads the buffered sample and the rest of the input into a Frame.
// Short records are padded with nulls. A cell that does not parse as its
// column kind is an error.
func (r *Reader) ReadAll(schema frame.Schema) (*frame.Frame, error) {
	f, err := frame.Build(schema)
	if err != nil {
		return nil, err
	}
	line := 0
	next := func() ([]string, error) {
		if len(r.buf) > 0 {
			rec := r.buf[0]
			r.buf = r.buf[1:]
			return rec, nil
		}
		return r.r.Read()
	}
	for {
		rec, err := next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if len(rec) > len(schema.Columns) && r.opt.Strict {
			return nil, fmt.Errorf("csv row %d: expected %d fields, saw %d", line, len(schema.Columns), len(rec))
		}
		f.AppendNullRow()
		row := f.Rows() - 1
		for i, cs := range schema.Columns {
			if i >= len(rec) {
				continue
			}
			val := strings.TrimSpace(rec[i])
			if nullTokens[val] {
				continue
			}
			v, err := parseCell(cs.Type, val)
			if err != nil {
				return nil, fmt.Errorf("csv row %d column %s: %w", line, cs.Name, err)
			}
			if err := f.SetCell(row, cs.Name, v); err != nil {
				return nil, err
			}
		}
	}
	return f, nil
}

func parseCell(k frame.Kind, val string) (any, error) {
	switch k {
	case frame.KindFloat:
		v, err := strconv.ParseFloat(val, 64)
		if err == nil && math.IsInf(v, 0) {
			return nil, fmt.Errorf("%q is not a finite number", val)
		}
		return v, err
	case frame.KindInt:
		return strconv.ParseInt(val, 10, 64)
	case frame.KindBool:
		return strconv.ParseBool(strings.ToLower(val))
	default:
		return strings.ToValidUTF8(val, "?"), nil
	}
}

// headerNames cleans header cells and suffixes duplicates as name.1, name.2.
func headerNames(rec []string) []string {
	names := make([]string, len(rec))
	seen := map[string]int{}
	for i := range rec {
		n := strings.ToValidUTF8(rec[i], "?")
		if i == 0 {
			n = strings.TrimPrefix(n, "\ufeff")
		}
		if n == "" {
			n = "Unnamed: " + strconv.Itoa(i)
		}
		base := n
		for seen[n] > 0 {
			n = base + "." + strconv.Itoa(seen[base])
			seen[base]++
		}
		seen[n]++
		names[i] = n
	}
	return names
}

func copyRecord(rec []string) []string {
	out := make([]string, len(rec))
	copy(out, rec)
	return out
}

// inferKinds picks a kind per column:
//   - int64 when every non-null value is an integer and none is null
//   - float64 for numbers, integers with nulls, and columns with no values
//   - bool when every value is true/false and none is null
//   - object for anything else, and for every column of a header-only input
func inferKinds(ncol int, rows [][]string) []frame.Kind {
	kinds := make([]frame.Kind, ncol)
	if len(rows) == 0 {
		for c := range kinds {
			kinds[c] = frame.KindString
		}
		return kinds
	}
	for c := 0; c < ncol; c++ {
		values, nulls, ints, floats, bools := 0, 0, 0, 0, 0
		for _, row := range rows {
			v := ""
			if c < len(row) {
				v = strings.TrimSpace(row[c])
			}
			if nullTokens[v] {
				nulls++
				continue
			}
			values++
			switch {
			case intRe.MatchString(v):
				if _, err := strconv.ParseInt(v, 10, 64); err == nil {
					ints++
				} else {
					floats++
				}
			case floatRe.MatchString(v):
				floats++
			case isBool(v):
				bools++
			}
		}
		switch {
		case values == 0:
			kinds[c] = frame.KindFloat
		case ints == values && nulls == 0:
			kinds[c] = frame.KindInt
		case ints+floats == values:
			kinds[c] = frame.KindFloat
		case bools == values && nulls == 0:
			kinds[c] = frame.KindBool
		default:
			kinds[c] = frame.KindString
		}
	}
	return kinds
}

func isBool(v string) bool {
	switch v {
	case "true", "false", "True", "False", "TRUE", "FALSE":
		return true
	}
	return false
}

func sniffDelimiterAndQuotes(br *bufio.Reader) (rune, bool) {
	sample, _ := br.Peek(4096)
	if len(sample) == 0 {
		return ',', false
	}
	// the header line is the most reliable signal
	if i := strings.IndexByte(string(sample), '\n'); i > 0 {
		sample = sample[:i]
	}
	candidates := []byte{',', '\t', ';', '|'}
	best := byte(',')
	bestCount := 0
	for _, c := range candidates {
		cnt := 0
		for _, b := range sample {
			if b == c {
				cnt++
			}
		}
		if cnt > bestCount {
			bestCount = cnt
			best = c
		}
	}
	quoteCount := 0
	for _, b := range sample {
		if b == '"' {
			quoteCount++
		}
	}
	return rune(best), quoteCount%2 != 0
}
