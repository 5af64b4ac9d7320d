package entry

import (
	"testing"
	"time"

	"github.com/LeJamon/goFST/internal/core/types"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountRootCodec(t *testing.T) {
	in := AccountRoot{
		Address:   types.AddressFromName("holder"),
		Reflected: *uint256.MustFromDecimal("123456789012345678901234567890123456789012345678901234567890"),
		Real:      *uint256.NewInt(42),
		Excluded:  true,
	}

	data, err := Encode(&in)
	require.NoError(t, err)

	var out AccountRoot
	require.NoError(t, Decode(data, &out))
	assert.Equal(t, in, out)
}

func TestDecodeGarbage(t *testing.T) {
	var out Supply
	assert.Error(t, Decode([]byte{0xff, 0x00, 0x13}, &out))
}

func TestStakePositionTimes(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	p := StakePosition{
		Duration: StakeThirtyDay,
		Start:    start.Unix(),
		Unlock:   start.Add(StakeThirtyDay.Period()).Unix(),
	}

	assert.Equal(t, start, p.StartTime())
	assert.False(t, p.Matured(start.Add(29*24*time.Hour)))
	assert.True(t, p.Matured(start.Add(30*24*time.Hour)))
}

func TestStakeDuration(t *testing.T) {
	tests := []struct {
		days   int
		want   StakeDuration
		ok     bool
		period time.Duration
	}{
		{days: 30, want: StakeThirtyDay, ok: true, period: 720 * time.Hour},
		{days: 180, want: StakeOneEightyDay, ok: true, period: 4320 * time.Hour},
		{days: 90, ok: false},
	}
	for _, tt := range tests {
		got, ok := ParseStakeDuration(tt.days)
		assert.Equal(t, tt.ok, ok)
		if !ok {
			assert.False(t, got.Valid())
			continue
		}
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.period, got.Period())
	}
}

func TestSupplyIncludedReal(t *testing.T) {
	s := Supply{TotalReal: *uint256.NewInt(100), ExcludedReal: *uint256.NewInt(30)}
	assert.Equal(t, uint256.NewInt(70), s.IncludedReal())
}
