package calculations

import (
	"sort"

	sdkerrors "cosmossdk.io/errors"
	"cosmossdk.io/math"

	"github.com/0xDevNinja/neuro-mesh/x/consensus/types"
)

// RawScore is one unnormalized entry of an incoming submission. Scores are
// arbitrary non-negative magnitudes; only their ratios matter.
type RawScore struct {
	Uid   uint32
	Score math.LegacyDec
}

// NormalizeL1 converts raw scores into a stored weight vector: scores are
// divided by their sum (L1) and quantized to the fixed-point scale with
// largest-remainder rounding, so the entries of the result sum to exactly
// types.WeightScale. Entries that quantize to zero are dropped.
//
// The same raw scores always produce the same vector: input is sorted by
// UID and remainder ties break toward the lower UID.
func NormalizeL1(raw []RawScore) (types.WeightVector, error) {
	if len(raw) == 0 {
		return types.WeightVector{}, sdkerrors.Wrap(types.ErrDegenerateWeights, "empty submission")
	}
	if len(raw) > types.MaxVectorEntries {
		return types.WeightVector{}, sdkerrors.Wrapf(types.ErrInvalidVector, "entry count %d exceeds %d", len(raw), types.MaxVectorEntries)
	}

	scores := make([]RawScore, len(raw))
	copy(scores, raw)
	sort.Slice(scores, func(i, j int) bool { return scores[i].Uid < scores[j].Uid })

	total := math.LegacyZeroDec()
	for i, s := range scores {
		if i > 0 && s.Uid == scores[i-1].Uid {
			return types.WeightVector{}, sdkerrors.Wrapf(types.ErrInvalidVector, "duplicate uid %d", s.Uid)
		}
		if s.Score.IsNil() || s.Score.IsNegative() {
			return types.WeightVector{}, sdkerrors.Wrapf(types.ErrDegenerateWeights, "negative weight for uid %d", s.Uid)
		}
		total = total.Add(s.Score)
	}
	if total.IsZero() {
		return types.WeightVector{}, sdkerrors.Wrap(types.ErrDegenerateWeights, "weights sum to zero")
	}

	uids := make([]uint32, len(scores))
	fractions := make(map[uint32]math.LegacyDec, len(scores))
	for i, s := range scores {
		uids[i] = s.Uid
		fractions[s.Uid] = s.Score
	}
	return quantizeToScale(uids, fractions, total), nil
}

// quantizeToScale distributes types.WeightScale units across uids in
// proportion to fractions (which need not be normalized; total is their
// sum). Floor first, then hand out the shortfall one unit at a time in
// descending fractional-remainder order, ties to the lower UID. uids must
// be ascending and total positive.
func quantizeToScale(uids []uint32, fractions map[uint32]math.LegacyDec, total math.LegacyDec) types.WeightVector {
	type quantized struct {
		uid       uint32
		base      int64
		remainder math.LegacyDec
	}

	parts := make([]quantized, len(uids))
	var assigned int64
	for i, uid := range uids {
		scaled := fractions[uid].MulInt64(types.WeightScale).Quo(total)
		base := scaled.TruncateInt64()
		parts[i] = quantized{
			uid:       uid,
			base:      base,
			remainder: scaled.Sub(math.LegacyNewDec(base)),
		}
		assigned += base
	}

	shortfall := int64(types.WeightScale) - assigned
	if shortfall > 0 {
		order := make([]int, len(parts))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool {
			ra, rb := parts[order[a]].remainder, parts[order[b]].remainder
			if !ra.Equal(rb) {
				return ra.GT(rb)
			}
			return parts[order[a]].uid < parts[order[b]].uid
		})
		for i := 0; shortfall > 0 && i < len(order); i++ {
			parts[order[i]].base++
			shortfall--
		}
	}

	entries := make([]types.WeightEntry, 0, len(parts))
	for _, p := range parts {
		if p.base <= 0 {
			continue
		}
		entries = append(entries, types.WeightEntry{Uid: p.uid, Weight: uint16(p.base)})
	}
	return types.WeightVector{Entries: entries}
}
