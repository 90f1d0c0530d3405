package plan

import "fmt"

// ZeroContributionReason records why a participant received no contribution
// (or a non-standard one) for a profit year. It is a closed enumeration
// kept for audit and report parity; the values are the legacy codes. The
// reason gates whether a contribution posts for the year but does not
// change the vesting formula itself.
type ZeroContributionReason byte

const (
	ReasonNormal ZeroContributionReason = 0

	// ReasonUnder21WithHours: under 21 with >= 1000 hours. Earns a vesting
	// year (V-only record) but no contribution.
	ReasonUnder21WithHours ZeroContributionReason = 1

	// ReasonTerminatedVestOnly: terminated with >= 1000 hours; the year
	// still vests.
	ReasonTerminatedVestOnly ZeroContributionReason = 2

	// Reasons 3-5 are retired codes kept only so pre-2002 history rows
	// classify identically to the legacy system.
	ReasonOver64LowHours1Year  ZeroContributionReason = 3
	ReasonOver64LowHours2Years ZeroContributionReason = 4
	ReasonOver64HighHours      ZeroContributionReason = 5

	// ReasonAge65FullyVested: 65 or older with a first contribution more
	// than 5 years ago. Carries a 100% vesting override.
	ReasonAge65FullyVested ZeroContributionReason = 6

	// ReasonAge64BirthdayVested: fully vested on the 64th birthday.
	ReasonAge64BirthdayVested ZeroContributionReason = 7
)

// Valid reports whether the code is one of the defined reasons. Legacy
// imports occasionally carry junk; the classifier treats anything invalid
// as ReasonNormal, matching the mainframe behavior.
func (z ZeroContributionReason) Valid() bool {
	return z <= ReasonAge64BirthdayVested
}

// Normalize maps out-of-range codes to ReasonNormal.
func (z ZeroContributionReason) Normalize() ZeroContributionReason {
	if !z.Valid() {
		return ReasonNormal
	}
	return z
}

func (z ZeroContributionReason) String() string {
	switch z {
	case ReasonNormal:
		return "normal"
	case ReasonUnder21WithHours:
		return "under-21-with-hours"
	case ReasonTerminatedVestOnly:
		return "terminated-vest-only"
	case ReasonOver64LowHours1Year:
		return "over-64-low-hours-1yr"
	case ReasonOver64LowHours2Years:
		return "over-64-low-hours-2yr"
	case ReasonOver64HighHours:
		return "over-64-high-hours"
	case ReasonAge65FullyVested:
		return "age-65-fully-vested"
	case ReasonAge64BirthdayVested:
		return "age-64-birthday-vested"
	default:
		return fmt.Sprintf("reason(%d)", byte(z))
	}
}
