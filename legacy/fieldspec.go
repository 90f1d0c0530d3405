/*
Package legacy decodes fixed-width text reports produced by the retiring
mainframe ("READY") system.

PURPOSE:
  Reconciliation compares the new system's computed snapshots against the
  legacy system's own report output. That output is column-positioned
  ASCII: right-aligned currency fields with trailing-minus negatives,
  comma thousands separators, two-digit years, and label-prefixed totals
  lines at the end.

PARSING CONTRACT:
  - Header, blank, and page-break lines are skipped (expected noise).
  - A data row is any line meeting the layout's minimum length whose first
    non-space character is a digit.
  - The totals section is mandatory: after parsing, detail sums are
    recomputed and compared against the report's own totals. A missing or
    self-inconsistent totals section is a hard failure - wrong column
    offsets must never silently truncate financial data.

KEY CONCEPTS IN THIS FILE (fieldspec.go):
  - FieldSpec: (name, start offset, length) for one column
  - Layout: a named list of FieldSpecs plus the minimum data-row length

SEE ALSO:
  - numeric.go: Trailing-minus currency parsing
  - parser.go: The line state machine
  - termination.go: The QPAY066 termination report format
*/
package legacy

import (
	"fmt"
	"strings"

	"github.com/ledgerline/plan-engine/plan"
)

// FieldSpec describes one fixed-position column.
type FieldSpec struct {
	Name  string
	Start int

	// Len is the column width. LenToEnd takes everything from Start to the
	// end of the line (for trailing space-delimited token groups).
	Len int
}

// LenToEnd marks a variable-length field running to the end of the line.
const LenToEnd = -1

// Layout is the column table for one report format.
type Layout struct {
	Name string

	// MinLineLength is the shortest line that can be a data row. Shorter
	// lines are headers, page markers, or totals.
	MinLineLength int

	Fields []FieldSpec
}

// Extract slices every field out of a data row, trimming surrounding
// spaces. Fields that begin past the end of the line yield empty strings:
// legacy reports right-trim lines, so optional trailing columns are often
// physically absent. A field that begins before the minimum line length
// but is misconfigured beyond it is a layout defect.
func (l Layout) Extract(line string) (map[string]string, error) {
	out := make(map[string]string, len(l.Fields))
	for _, f := range l.Fields {
		if f.Start < 0 || (f.Len != LenToEnd && f.Len <= 0) {
			return nil, fmt.Errorf("%w: field %s of layout %s", plan.ErrBadFieldSpec, f.Name, l.Name)
		}
		if f.Start >= len(line) {
			out[f.Name] = ""
			continue
		}
		end := len(line)
		if f.Len != LenToEnd && f.Start+f.Len < end {
			end = f.Start + f.Len
		}
		out[f.Name] = strings.TrimSpace(line[f.Start:end])
	}
	return out, nil
}

// IsDataRow reports whether a line is a detail row for this layout: long
// enough, and starting (after leading spaces) with a digit. This excludes
// header and label lines without needing a full grammar.
func (l Layout) IsDataRow(line string) bool {
	if len(line) < l.MinLineLength {
		return false
	}
	trimmed := strings.TrimLeft(line, " ")
	return len(trimmed) > 0 && trimmed[0] >= '0' && trimmed[0] <= '9'
}
