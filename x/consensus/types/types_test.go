package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWeightVectorValidate(t *testing.T) {
	tests := []struct {
		name    string
		entries []WeightEntry
		wantErr bool
	}{
		{
			name:    "empty is valid",
			entries: nil,
			wantErr: false,
		},
		{
			name:    "strictly ascending",
			entries: []WeightEntry{{Uid: 1, Weight: 10}, {Uid: 5, Weight: 20}, {Uid: 9, Weight: 30}},
			wantErr: false,
		},
		{
			name:    "descending",
			entries: []WeightEntry{{Uid: 5, Weight: 10}, {Uid: 1, Weight: 20}},
			wantErr: true,
		},
		{
			name:    "duplicate uid",
			entries: []WeightEntry{{Uid: 5, Weight: 10}, {Uid: 5, Weight: 20}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := WeightVector{Entries: tt.entries}.Validate()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestWeightVectorLookup(t *testing.T) {
	v := WeightVector{Entries: []WeightEntry{
		{Uid: 2, Weight: 100},
		{Uid: 7, Weight: 200},
		{Uid: 30, Weight: 65235},
	}}

	require.Equal(t, uint16(100), v.Weight(2))
	require.Equal(t, uint16(200), v.Weight(7))
	require.Equal(t, uint16(65235), v.Weight(30))
	require.Equal(t, uint16(0), v.Weight(1))
	require.Equal(t, uint16(0), v.Weight(31))
	require.Equal(t, uint64(65535), v.Sum())
	require.Equal(t, []uint32{2, 7, 30}, v.Uids())
	require.False(t, v.IsZero())
	require.True(t, WeightVector{}.IsZero())
}

func TestWeightVectorCloneIsDeep(t *testing.T) {
	v := WeightVector{Entries: []WeightEntry{{Uid: 1, Weight: 10}}}
	clone := v.Clone()
	clone.Entries[0].Weight = 99
	require.Equal(t, uint16(10), v.Entries[0].Weight)
	require.Equal(t, uint16(99), clone.Entries[0].Weight)
}

func TestParamsValidate(t *testing.T) {
	require.NoError(t, DefaultParams().Validate())

	bad := DefaultParams()
	bad.MinCartelSize = 1
	require.Error(t, bad.Validate())
}
