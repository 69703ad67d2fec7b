package compactid

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calibrator.backend/internal/apperr"
)

func TestPack_Bijection(t *testing.T) {
	cases := []Fields{
		{IsMultichain: true, ResetPeriod: 0, AllocatorID: big.NewInt(0), InputToken: common.Address{}},
		{IsMultichain: false, ResetPeriod: 7, AllocatorID: big.NewInt(123), InputToken: common.HexToAddress("0x1234567890123456789012345678901234567890")},
		{IsMultichain: true, ResetPeriod: 4, AllocatorID: new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 92), big.NewInt(1)), InputToken: common.HexToAddress("0xffffffffffffffffffffffffffffffffffffffff")},
	}
	for _, f := range cases {
		id, err := Pack(f)
		require.NoError(t, err)

		got, err := Unpack(id)
		require.NoError(t, err)
		assert.Equal(t, f.IsMultichain, got.IsMultichain)
		assert.Equal(t, f.ResetPeriod, got.ResetPeriod)
		assert.Equal(t, f.AllocatorID, got.AllocatorID)
		assert.Equal(t, f.InputToken, got.InputToken)
	}
}

func TestPack_InvertedMultichainBit(t *testing.T) {
	id, err := Pack(Fields{IsMultichain: true, ResetPeriod: 0, AllocatorID: big.NewInt(0), InputToken: common.Address{}})
	require.NoError(t, err)
	assert.Equal(t, uint(0), id.Bit(255), "isMultichain=true must clear the high bit")

	id, err = Pack(Fields{IsMultichain: false, ResetPeriod: 0, AllocatorID: big.NewInt(0), InputToken: common.Address{}})
	require.NoError(t, err)
	assert.Equal(t, uint(1), id.Bit(255), "isMultichain=false must set the high bit")
}

func TestPack_ResetPeriodOverflow(t *testing.T) {
	_, err := Pack(Fields{ResetPeriod: 8, AllocatorID: big.NewInt(0)})
	require.Error(t, err)
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindCompactIdFieldOverflow, appErr.Kind)
}

func TestPack_AllocatorIDOverflow(t *testing.T) {
	tooLarge := new(big.Int).Lsh(big.NewInt(1), 92)
	_, err := Pack(Fields{ResetPeriod: 0, AllocatorID: tooLarge})
	require.Error(t, err)
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindCompactIdFieldOverflow, appErr.Kind)
}

func TestPack_ResetPeriodFieldOccupiesExpectedBits(t *testing.T) {
	id, err := Pack(Fields{IsMultichain: true, ResetPeriod: 5, AllocatorID: big.NewInt(0), InputToken: common.Address{}})
	require.NoError(t, err)
	shifted := new(big.Int).Rsh(id, 252)
	shifted.And(shifted, big.NewInt(0b111))
	assert.Equal(t, uint64(5), shifted.Uint64())
}
