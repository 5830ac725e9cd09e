package composer

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyPool     = errors.New("clip pool is empty")
	ErrInvalidTarget = errors.New("target duration must be positive")
)

const durationEpsilon = 1e-6

// Pack cycles through the pool until the accumulated duration reaches target.
// The last segment is trimmed to the remaining time so the sum equals target,
// and no segment is longer than maxClipDuration.
func Pack(pool []ClipSegment, target, maxClipDuration float64) ([]ClipSegment, error) {
	if len(pool) == 0 {
		return nil, ErrEmptyPool
	}
	if target <= 0 {
		return nil, ErrInvalidTarget
	}
	var total float64
	for _, seg := range pool {
		total += seg.Duration()
	}
	if total <= 0 {
		return nil, fmt.Errorf("%w: pool has no playable duration", ErrEmptyPool)
	}

	var (
		packed []ClipSegment
		acc    float64
	)
	for target-acc > durationEpsilon {
		for _, seg := range pool {
			remaining := target - acc
			if remaining <= durationEpsilon {
				break
			}
			if remaining < seg.Duration() {
				seg = seg.Trim(remaining)
			}
			if maxClipDuration > 0 && seg.Duration() > maxClipDuration {
				seg = seg.Trim(maxClipDuration)
			}
			if seg.Duration() <= 0 {
				continue
			}
			packed = append(packed, seg)
			acc += seg.Duration()
		}
	}
	return packed, nil
}

func TotalDuration(segments []ClipSegment) float64 {
	var total float64
	for _, seg := range segments {
		total += seg.Duration()
	}
	return total
}
