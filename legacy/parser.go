/*
parser.go - Line state machine shared by all report formats

PURPOSE:
  Every legacy report follows the same gross structure: noise lines
  (headers, page breaks, blanks), fixed-width detail rows, and a trailing
  label-prefixed totals section. The scanner walks lines through the
  states {Skip, DataRow, TotalsLine, Done} and dispatches to per-format
  callbacks; formats differ only in their Layout and totals labels.
*/
package legacy

import (
	"strings"
)

// RowKind classifies one report line.
type RowKind int

const (
	RowSkip RowKind = iota
	RowData
	RowTotal
)

// Callbacks receive classified lines during a scan. A DataRow error aborts
// the scan: a row that matched the layout but fails to decode means the
// offsets are wrong for this file, which is fatal for reconciliation.
type Callbacks struct {
	DataRow   func(line string) error
	TotalLine func(label, rest string) error
}

// Scanner walks report lines through the parse states.
type Scanner struct {
	Layout      Layout
	TotalLabels []string
}

// Classify determines what a single line is. Totals labels win over the
// data-row test; they never collide in practice because totals lines lead
// with letters.
func (s *Scanner) Classify(line string) (RowKind, string) {
	trimmed := strings.TrimSpace(line)
	for _, label := range s.TotalLabels {
		if strings.HasPrefix(trimmed, label) {
			return RowTotal, label
		}
	}
	if s.Layout.IsDataRow(line) {
		return RowData, ""
	}
	return RowSkip, ""
}

// SplitLines handles the CR/LF soup legacy transfers produce.
func SplitLines(text string) []string {
	var lines []string
	for _, line := range strings.FieldsFunc(text, func(r rune) bool { return r == '\r' || r == '\n' }) {
		lines = append(lines, line)
	}
	return lines
}

// Scan runs the state machine over the whole report. Once the totals
// section starts, subsequent data-shaped lines would indicate a corrupt
// file; none of the known formats interleave them, so data rows after
// totals are treated as noise.
func (s *Scanner) Scan(text string, cb Callbacks) error {
	inTotals := false
	for _, line := range SplitLines(text) {
		kind, label := s.Classify(line)
		switch kind {
		case RowTotal:
			inTotals = true
			if cb.TotalLine != nil {
				rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), label))
				if err := cb.TotalLine(label, rest); err != nil {
					return err
				}
			}
		case RowData:
			if inTotals || cb.DataRow == nil {
				continue
			}
			if err := cb.DataRow(line); err != nil {
				return err
			}
		}
	}
	return nil
}
