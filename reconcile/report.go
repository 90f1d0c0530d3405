/*
Human review rendering for reconciliation reports.

PURPOSE:
  The sign-off meeting reads this output directly, so it leads with the
  verdict, groups divergences by participant, and marks the changed part
  of each value inline. Accepted differences print in their own section
  so reviewers can audit what the predicates waved through.
*/
package reconcile

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Render produces the review text. Deterministic for a given report
// apart from the run ID heading.
func (r *Report) Render() string {
	var b strings.Builder

	fmt.Fprintf(&b, "RECONCILIATION RUN %s\n", r.RunID)
	fmt.Fprintf(&b, "current records: %d   legacy records: %d\n", r.TotalCurrent, r.TotalLegacy)
	fmt.Fprintf(&b, "exact matches:   %d\n", r.ExactMatches)
	fmt.Fprintf(&b, "accepted diffs:  %d\n", len(r.AcceptedDiffs))
	fmt.Fprintf(&b, "mismatches:      %d\n", len(r.Mismatches))
	fmt.Fprintf(&b, "only in current: %d   only in legacy: %d\n", len(r.OnlyInCurrent), len(r.OnlyInLegacy))

	if r.Clean() {
		b.WriteString("\nRESULT: CLEAN\n")
		return b.String()
	}
	b.WriteString("\nRESULT: REVIEW REQUIRED\n")

	dmp := diffmatchpatch.New()

	if len(r.Mismatches) > 0 {
		b.WriteString("\nMISMATCHES\n")
		renderDiffs(&b, dmp, r.Mismatches)
	}
	if len(r.AcceptedDiffs) > 0 {
		b.WriteString("\nACCEPTED DIFFERENCES\n")
		renderDiffs(&b, dmp, r.AcceptedDiffs)
	}
	if len(r.OnlyInCurrent) > 0 {
		b.WriteString("\nONLY IN CURRENT\n")
		for _, psn := range r.OnlyInCurrent {
			fmt.Fprintf(&b, "  %s\n", psn)
		}
	}
	if len(r.OnlyInLegacy) > 0 {
		b.WriteString("\nONLY IN LEGACY\n")
		for _, psn := range r.OnlyInLegacy {
			fmt.Fprintf(&b, "  %s\n", psn)
		}
	}
	return b.String()
}

func renderDiffs(b *strings.Builder, dmp *diffmatchpatch.DiffMatchPatch, diffs []FieldDiff) {
	lastKey := int64(-1)
	for _, d := range diffs {
		if d.PSN.Key() != lastKey {
			fmt.Fprintf(b, "  %s  %s\n", d.PSN, d.Name)
			lastKey = d.PSN.Key()
		}
		fmt.Fprintf(b, "    %-16s %s\n", d.Field, inline(dmp, d.Legacy, d.Current))
		if d.Accepted {
			fmt.Fprintf(b, "    %-16s accepted by %s\n", "", d.AcceptedBy)
		}
	}
}

// inline renders legacy -> current with the changed characters bracketed:
// deletions as [-x-], insertions as [+y+].
func inline(dmp *diffmatchpatch.DiffMatchPatch, legacy, current string) string {
	diffs := dmp.DiffMain(legacy, current, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	var b strings.Builder
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			fmt.Fprintf(&b, "[-%s-]", d.Text)
		case diffmatchpatch.DiffInsert:
			fmt.Fprintf(&b, "[+%s+]", d.Text)
		default:
			b.WriteString(d.Text)
		}
	}
	return b.String()
}
