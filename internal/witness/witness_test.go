package witness

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calibrator.backend/internal/apperr"
)

const mandateTypeString = "Mandate mandate)Mandate(uint256 chainId,address tribunal,address recipient,uint256 expires,address token,uint256 minimumAmount,uint256 baselinePriorityFee,uint256 scalingFactor,bytes32 salt)"

func mandateValues() map[string]any {
	return map[string]any{
		"chainId":             big.NewInt(8453),
		"tribunal":            common.HexToAddress("0xfaBE000000000000000000000000000000006c1F"),
		"recipient":           common.HexToAddress("0x1111111111111111111111111111111111111111"),
		"expires":             big.NewInt(1_700_003_600),
		"token":               common.HexToAddress("0x2222222222222222222222222222222222222222"),
		"minimumAmount":       big.NewInt(990_000),
		"baselinePriorityFee": big.NewInt(0),
		"scalingFactor":       big.NewInt(1_000_000_000_100_000_000),
		"salt":                [32]byte{1, 2, 3},
	}
}

func TestParse_MandateType(t *testing.T) {
	parsed, err := Parse(mandateTypeString)
	require.NoError(t, err)
	assert.Equal(t, "Mandate", parsed.StructName)
	assert.Equal(t, "mandate", parsed.VariableName)
	require.Len(t, parsed.Params, 9)
	assert.Equal(t, Param{SolidityType: "uint256", FieldName: "chainId"}, parsed.Params[0])
	assert.Equal(t, Param{SolidityType: "bytes32", FieldName: "salt"}, parsed.Params[8])
}

func TestCanonical_MatchesDeclarationOrder(t *testing.T) {
	parsed, err := Parse(mandateTypeString)
	require.NoError(t, err)
	assert.Equal(t,
		"Mandate(uint256,address,address,uint256,address,uint256,uint256,uint256,bytes32)",
		parsed.Canonical())
}

func TestParse_StructNameMismatch(t *testing.T) {
	_, err := Parse("Mandate mandate)Other(uint256 chainId)")
	require.Error(t, err)
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindWitnessTypeParseError, appErr.Kind)
}

func TestParse_WrongPieceCount(t *testing.T) {
	_, err := Parse("Mandate mandate)Mandate(uint256 chainId)extra)")
	require.Error(t, err)
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindWitnessTypeParseError, appErr.Kind)
}

func TestParse_MalformedDeclaration(t *testing.T) {
	_, err := Parse("MandateOnlyOneToken)Mandate(uint256 chainId)")
	require.Error(t, err)
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindWitnessTypeParseError, appErr.Kind)
}

func TestHash_Deterministic(t *testing.T) {
	h1, variableName, err := Hash(mandateTypeString, mandateValues())
	require.NoError(t, err)
	h2, _, err := Hash(mandateTypeString, mandateValues())
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	assert.Equal(t, "mandate", variableName)
}

func TestHash_SaltChangesHash(t *testing.T) {
	values := mandateValues()
	h1, _, err := Hash(mandateTypeString, values)
	require.NoError(t, err)

	values["salt"] = [32]byte{9, 9, 9}
	h2, _, err := Hash(mandateTypeString, values)
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
}

func TestHash_MissingField(t *testing.T) {
	values := mandateValues()
	delete(values, "scalingFactor")
	_, _, err := Hash(mandateTypeString, values)
	require.Error(t, err)
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindMissingWitnessField, appErr.Kind)
}

func TestHash_AcceptsArbitraryValidSolidityType(t *testing.T) {
	_, _, err := Hash("Simple s)Simple(uint8 count)", map[string]any{"count": uint8(5)})
	require.NoError(t, err)
}
