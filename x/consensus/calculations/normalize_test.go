package calculations

import (
	"testing"

	sdkerrors "cosmossdk.io/errors"
	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/0xDevNinja/neuro-mesh/x/consensus/types"
)

func dec(s string) math.LegacyDec {
	return math.LegacyMustNewDecFromStr(s)
}

func TestNormalizeL1ExactSplit(t *testing.T) {
	got, err := NormalizeL1([]RawScore{
		{Uid: 1, Score: dec("0.6")},
		{Uid: 2, Score: dec("0.4")},
	})
	require.NoError(t, err)
	require.Equal(t, []types.WeightEntry{
		{Uid: 1, Weight: 39321},
		{Uid: 2, Weight: 26214},
	}, got.Entries)
	require.Equal(t, uint64(types.WeightScale), got.Sum())
}

func TestNormalizeL1RemainderTieBreaksToLowerUid(t *testing.T) {
	got, err := NormalizeL1([]RawScore{
		{Uid: 4, Score: dec("1")},
		{Uid: 9, Score: dec("1")},
	})
	require.NoError(t, err)
	// 65535 is odd: the extra unit lands on the lower uid
	require.Equal(t, []types.WeightEntry{
		{Uid: 4, Weight: 32768},
		{Uid: 9, Weight: 32767},
	}, got.Entries)
}

func TestNormalizeL1ScaleInvariant(t *testing.T) {
	small, err := NormalizeL1([]RawScore{
		{Uid: 1, Score: dec("3")},
		{Uid: 2, Score: dec("1")},
	})
	require.NoError(t, err)
	large, err := NormalizeL1([]RawScore{
		{Uid: 1, Score: dec("3000")},
		{Uid: 2, Score: dec("1000")},
	})
	require.NoError(t, err)
	require.True(t, small.Equal(large))
}

func TestNormalizeL1SortsInput(t *testing.T) {
	got, err := NormalizeL1([]RawScore{
		{Uid: 9, Score: dec("1")},
		{Uid: 2, Score: dec("1")},
		{Uid: 5, Score: dec("1")},
	})
	require.NoError(t, err)
	require.Equal(t, []uint32{2, 5, 9}, got.Uids())
}

func TestNormalizeL1DropsZeroQuantizedEntries(t *testing.T) {
	// The tiny score quantizes below one unit and is dropped; the sum is
	// still exact.
	got, err := NormalizeL1([]RawScore{
		{Uid: 1, Score: dec("1000000")},
		{Uid: 2, Score: dec("0.000001")},
	})
	require.NoError(t, err)
	require.Equal(t, []uint32{1}, got.Uids())
	require.Equal(t, uint64(types.WeightScale), got.Sum())
}

func TestNormalizeL1Idempotent(t *testing.T) {
	first, err := NormalizeL1([]RawScore{
		{Uid: 1, Score: dec("7")},
		{Uid: 2, Score: dec("2")},
		{Uid: 3, Score: dec("1")},
	})
	require.NoError(t, err)

	scores := make([]RawScore, len(first.Entries))
	for i, e := range first.Entries {
		scores[i] = RawScore{Uid: e.Uid, Score: math.LegacyNewDec(int64(e.Weight))}
	}
	second, err := NormalizeL1(scores)
	require.NoError(t, err)
	require.True(t, first.Equal(second))
}

func TestNormalizeL1Rejections(t *testing.T) {
	tests := []struct {
		name    string
		raw     []RawScore
		wantErr *sdkerrors.Error
	}{
		{
			name:    "empty input",
			raw:     nil,
			wantErr: types.ErrDegenerateWeights,
		},
		{
			name: "all zero scores",
			raw: []RawScore{
				{Uid: 1, Score: math.LegacyZeroDec()},
				{Uid: 2, Score: math.LegacyZeroDec()},
			},
			wantErr: types.ErrDegenerateWeights,
		},
		{
			name: "negative score",
			raw: []RawScore{
				{Uid: 1, Score: dec("0.5")},
				{Uid: 2, Score: dec("-0.1")},
			},
			wantErr: types.ErrDegenerateWeights,
		},
		{
			name: "duplicate uid",
			raw: []RawScore{
				{Uid: 1, Score: dec("0.5")},
				{Uid: 1, Score: dec("0.5")},
			},
			wantErr: types.ErrInvalidVector,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NormalizeL1(tt.raw)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNormalizeL1SumAlwaysExact(t *testing.T) {
	// Awkward ratios whose quantization needs remainder distribution.
	inputs := [][]RawScore{
		{{Uid: 1, Score: dec("1")}, {Uid: 2, Score: dec("1")}, {Uid: 3, Score: dec("1")}},
		{{Uid: 1, Score: dec("1")}, {Uid: 2, Score: dec("2")}, {Uid: 3, Score: dec("4")}},
		{{Uid: 1, Score: dec("0.123")}, {Uid: 2, Score: dec("0.456")}, {Uid: 3, Score: dec("0.789")}, {Uid: 7, Score: dec("0.011")}},
	}
	for _, raw := range inputs {
		got, err := NormalizeL1(raw)
		require.NoError(t, err)
		require.Equal(t, uint64(types.WeightScale), got.Sum())
	}
}
