// Package baseline selects the prior filing a current filing should be
// compared against. Selection is a pure function over an in-memory candidate
// list; callers supply candidates from storage.
//
// "No baseline exists" is a normal terminal outcome (an issuer's first filing
// of a form type has nothing to diff against) and is signaled by a nil
// result, never an error.
package baseline

import (
	"time"

	"stockdelta/pkg/models"
)

// Month tolerance windows for the comparison-basis resolver. A quarter back
// is accepted at 2-4 whole months, a year back at 11-13, absorbing fiscal
// calendar drift. Tuned constants carried from production; not derived.
const (
	QoQMinMonths = 2
	QoQMaxMonths = 4
	YoYMinMonths = 11
	YoYMaxMonths = 13
)

// ResolvePrevious returns the best prior filing for current: among candidates
// with the same CIK and form, the one whose period-end is latest while still
// strictly before the current filing's period-end. When the current filing
// has no period-end, the candidate with the latest filed-at strictly before
// the current filed-at is chosen instead, ignoring period-ends entirely.
func ResolvePrevious(current models.Filing, candidates []models.Filing) *models.Filing {
	if current.PeriodEnd == nil {
		return latestFiledBefore(current, candidates)
	}

	var best *models.Filing
	for i := range candidates {
		c := &candidates[i]
		if !comparable(current, *c) || c.PeriodEnd == nil {
			continue
		}
		if !c.PeriodEnd.Before(*current.PeriodEnd) {
			continue
		}
		if best == nil || c.PeriodEnd.After(*best.PeriodEnd) {
			best = c
		}
	}
	return best
}

// ResolveForComparison returns the candidate whose period-end precedes the
// current filing's by a number of whole months inside [minMonths, maxMonths],
// inclusive. When several qualify, the one with period-end closest to (but
// still before) the current period-end wins. Used by the metrics pipeline for
// QoQ and YoY bases.
func ResolveForComparison(current models.Filing, candidates []models.Filing, minMonths, maxMonths int) *models.Filing {
	if current.PeriodEnd == nil {
		return nil
	}

	var best *models.Filing
	for i := range candidates {
		c := &candidates[i]
		if !comparable(current, *c) || c.PeriodEnd == nil {
			continue
		}
		if !c.PeriodEnd.Before(*current.PeriodEnd) {
			continue
		}
		months := wholeMonthsBetween(*c.PeriodEnd, *current.PeriodEnd)
		if months < minMonths || months > maxMonths {
			continue
		}
		if best == nil || c.PeriodEnd.After(*best.PeriodEnd) {
			best = c
		}
	}
	return best
}

// ResolveQuarterOverQuarter applies the QoQ tolerance window.
func ResolveQuarterOverQuarter(current models.Filing, candidates []models.Filing) *models.Filing {
	return ResolveForComparison(current, candidates, QoQMinMonths, QoQMaxMonths)
}

// ResolveYearOverYear applies the YoY tolerance window.
func ResolveYearOverYear(current models.Filing, candidates []models.Filing) *models.Filing {
	return ResolveForComparison(current, candidates, YoYMinMonths, YoYMaxMonths)
}

func comparable(current, candidate models.Filing) bool {
	return candidate.CIK == current.CIK &&
		candidate.Form == current.Form &&
		candidate.AccessionNo != current.AccessionNo
}

func latestFiledBefore(current models.Filing, candidates []models.Filing) *models.Filing {
	var best *models.Filing
	for i := range candidates {
		c := &candidates[i]
		if !comparable(current, *c) {
			continue
		}
		if !c.FiledAt.Before(current.FiledAt) {
			continue
		}
		if best == nil || c.FiledAt.After(best.FiledAt) {
			best = c
		}
	}
	return best
}

// wholeMonthsBetween counts complete months from the earlier date to the
// later one: 2024-06-30 to 2024-09-30 is 3; 2024-06-30 to 2024-09-29 is 2.
func wholeMonthsBetween(from, to time.Time) int {
	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	if to.Day() < from.Day() {
		months--
	}
	return months
}
