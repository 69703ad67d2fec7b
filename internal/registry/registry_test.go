package registry

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calibrator.backend/internal/apperr"
	"calibrator.backend/internal/chains"
)

func TestLookup_AllTwelvePairsPopulated(t *testing.T) {
	ids := []uint64{chains.Mainnet, chains.Optimism, chains.Base, chains.Unichain}
	count := 0
	for _, src := range ids {
		for _, dst := range ids {
			if src == dst {
				continue
			}
			entry, err := Lookup(src, dst)
			require.NoError(t, err)
			assert.Equal(t, mandateWitnessTypeString, entry.WitnessTypeString)
			assert.NotEqual(t, common.Address{}, entry.Arbiter)
			assert.NotEqual(t, common.Address{}, entry.Tribunal)
			count++
		}
	}
	assert.Equal(t, 12, count)
}

func TestLookup_OptimismToBase_MatchesReferenceExample(t *testing.T) {
	entry, err := Lookup(chains.Optimism, chains.Base)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0x260200000000000000000000000000000000F626"), entry.Arbiter)
	assert.Equal(t, common.HexToAddress("0xfaBE000000000000000000000000000000006c1F"), entry.Tribunal)
}

func TestLookup_UnknownPair_FailsNoArbiterForChainPair(t *testing.T) {
	_, err := Lookup(chains.Mainnet, 42161)
	require.Error(t, err)
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindNoArbiterForChainPair, appErr.Kind)
}

func TestMandateBuilder_PopulatesFromInputs(t *testing.T) {
	entry, err := Lookup(chains.Optimism, chains.Base)
	require.NoError(t, err)

	salt := [32]byte{1, 2, 3}
	inputs := MandateInputs{
		DestChainID:         chains.Base,
		Recipient:           common.HexToAddress("0x1111111111111111111111111111111111111111"),
		Token:               common.HexToAddress("0x2222222222222222222222222222222222222222"),
		MinimumAmount:       big.NewInt(990_000),
		BaselinePriorityFee: big.NewInt(0),
		ScalingFactor:       big.NewInt(1_000_000_000_100_000_000),
		Expires:             big.NewInt(1_700_003_600),
		Salt:                salt,
	}
	mandate := entry.MandateBuilder(inputs, entry.Tribunal)

	assert.Equal(t, new(big.Int).SetUint64(chains.Base), mandate.ChainId)
	assert.Equal(t, entry.Tribunal, mandate.Tribunal)
	assert.Equal(t, inputs.Recipient, mandate.Recipient)
	assert.Equal(t, inputs.Token, mandate.Token)
	assert.Equal(t, inputs.MinimumAmount, mandate.MinimumAmount)
	assert.Equal(t, inputs.Expires, mandate.Expires)
	assert.Equal(t, salt, mandate.Salt)
}
