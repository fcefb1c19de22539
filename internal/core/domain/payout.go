package domain

import "fmt"

const (
	// TakeRateScale is the denominator of the protocol take rate (per mille).
	TakeRateScale uint32 = 1000
	// PercentageScale is the denominator of the reviewer percentage.
	PercentageScale uint8 = 100
)

type Payout struct {
	Protocol uint64
	Reviewer uint64
	Worker   uint64
}

func (p Payout) Total() uint64 {
	return p.Protocol + p.Reviewer + p.Worker
}

// SplitPayout divides total between the protocol, the reviewer and the
// worker. The protocol takes total*takeRate/1000, the reviewer takes
// reviewerPct percent of what is left and the worker receives the rest,
// including every unit lost to truncation.
func SplitPayout(total uint64, takeRate uint32, reviewerPct uint8) (Payout, error) {
	if takeRate > TakeRateScale {
		return Payout{}, fmt.Errorf(
			"%w: take rate %d exceeds %d", ErrInvalidArgument, takeRate, TakeRateScale,
		)
	}
	if reviewerPct > PercentageScale {
		return Payout{}, fmt.Errorf(
			"%w: reviewer percentage %d exceeds %d", ErrInvalidArgument, reviewerPct, PercentageScale,
		)
	}

	protocol := mulDiv(total, uint64(takeRate), uint64(TakeRateScale))
	remainder := total - protocol
	reviewer := mulDiv(remainder, uint64(reviewerPct), uint64(PercentageScale))

	return Payout{
		Protocol: protocol,
		Reviewer: reviewer,
		Worker:   remainder - reviewer,
	}, nil
}
