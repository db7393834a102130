package types

import (
	"sort"

	sdkerrors "cosmossdk.io/errors"
	"cosmossdk.io/math"
)

// WeightEntry is one sparse vector entry. Weight is a fixed-point fraction
// scaled by WeightScale; UIDs absent from a vector carry an implicit zero.
type WeightEntry struct {
	Uid    uint32
	Weight uint16
}

// WeightVector is a validator's sparse per-miner weight distribution.
// Entries are kept strictly ascending by UID.
type WeightVector struct {
	Entries []WeightEntry
}

// Validate checks structural invariants: ascending UIDs (which rules out
// duplicates) and the hard entry-count ceiling.
func (v WeightVector) Validate() error {
	if len(v.Entries) > MaxVectorEntries {
		return sdkerrors.Wrapf(ErrInvalidVector, "entry count %d exceeds %d", len(v.Entries), MaxVectorEntries)
	}
	for i := 1; i < len(v.Entries); i++ {
		if v.Entries[i].Uid <= v.Entries[i-1].Uid {
			return sdkerrors.Wrapf(ErrInvalidVector, "entries not strictly ascending at index %d (uid %d after %d)",
				i, v.Entries[i].Uid, v.Entries[i-1].Uid)
		}
	}
	return nil
}

// Sum returns the total stored weight of the vector.
func (v WeightVector) Sum() uint64 {
	var total uint64
	for _, e := range v.Entries {
		total += uint64(e.Weight)
	}
	return total
}

// Weight returns the stored weight for uid, zero if absent.
func (v WeightVector) Weight(uid uint32) uint16 {
	i := sort.Search(len(v.Entries), func(i int) bool { return v.Entries[i].Uid >= uid })
	if i < len(v.Entries) && v.Entries[i].Uid == uid {
		return v.Entries[i].Weight
	}
	return 0
}

// Uids returns the ascending list of UIDs with non-zero weight.
func (v WeightVector) Uids() []uint32 {
	uids := make([]uint32, len(v.Entries))
	for i, e := range v.Entries {
		uids[i] = e.Uid
	}
	return uids
}

// IsZero reports whether the vector has no entries.
func (v WeightVector) IsZero() bool {
	return len(v.Entries) == 0
}

// Equal reports entry-wise equality.
func (v WeightVector) Equal(o WeightVector) bool {
	if len(v.Entries) != len(o.Entries) {
		return false
	}
	for i := range v.Entries {
		if v.Entries[i] != o.Entries[i] {
			return false
		}
	}
	return true
}

// Clone returns an independent copy. Submissions never share entry slices
// with stored vectors, so concurrent subnet pipelines cannot alias.
func (v WeightVector) Clone() WeightVector {
	if v.Entries == nil {
		return WeightVector{}
	}
	entries := make([]WeightEntry, len(v.Entries))
	copy(entries, v.Entries)
	return WeightVector{Entries: entries}
}

// ValidatorSubmission pairs a validator with its stored vector for one
// subnet epoch.
type ValidatorSubmission struct {
	ValidatorId uint32
	Vector      WeightVector
}

// RewardAmount is one payout line of a reward record.
type RewardAmount struct {
	Uid    uint32
	Amount math.Int
}

// RewardRecord is the terminal, immutable output of one subnet epoch.
// Burned holds the part of the emission that could not be distributed
// (empty epochs, rounding that cannot be assigned).
type RewardRecord struct {
	SubnetId         uint32
	Epoch            uint64
	MinerRewards     []RewardAmount
	ValidatorRewards []RewardAmount
	Burned           math.Int
}

// TotalDistributed sums all miner and validator payouts.
func (r RewardRecord) TotalDistributed() math.Int {
	total := math.ZeroInt()
	for _, m := range r.MinerRewards {
		total = total.Add(m.Amount)
	}
	for _, v := range r.ValidatorRewards {
		total = total.Add(v.Amount)
	}
	return total
}

// CollusionFlag is an advisory record naming a set of validators whose
// submissions correlated above the configured threshold. Validators are
// sorted ascending; Correlation is the pair correlation for pair flags and
// the mean pairwise correlation for cartel flags.
type CollusionFlag struct {
	SubnetId    uint32
	Epoch       uint64
	Validators  []uint32
	Correlation math.LegacyDec
}
