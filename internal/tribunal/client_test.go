package tribunal

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calibrator.backend/internal/apperr"
	"calibrator.backend/internal/chains"
	"calibrator.backend/internal/rpcclient"
)

func TestSimulateDispensation_UnsupportedChain(t *testing.T) {
	c := New(rpcclient.NewFactory(), func(uint64) (string, bool) { return "", false })
	_, err := c.SimulateDispensation(context.Background(), 42161, Claim{}, Mandate{Tribunal: common.Address{}}, common.Address{})
	require.Error(t, err)
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindUnsupportedTribunalChain, appErr.Kind)
}

func TestSimulateDispensation_NoRPCConfigured(t *testing.T) {
	c := New(rpcclient.NewFactory(), func(uint64) (string, bool) { return "", false })
	_, err := c.SimulateDispensation(context.Background(), chains.Mainnet, Claim{}, Mandate{}, common.Address{})
	require.Error(t, err)
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindUnsupportedTribunalChain, appErr.Kind)
}

func TestSimulateDispensation_DecodesDispensation(t *testing.T) {
	parsed, err := abi.JSON(strings.NewReader(tribunalABI))
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")

		if req.Method != "eth_call" {
			_ = json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": "0x1"})
			return
		}
		packed, perr := parsed.Methods["quote"].Outputs.Pack(big.NewInt(50_000_000_000_000_000))
		require.NoError(t, perr)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0", "id": req.ID, "result": "0x" + common.Bytes2Hex(packed),
		})
	}))
	defer srv.Close()

	// Optimism (not Base) so the call skips the elevated-gas override, which
	// would otherwise require stubbing eth_getBlockByNumber too.
	c := New(rpcclient.NewFactory(), func(uint64) (string, bool) { return srv.URL, true })
	mandate := Mandate{
		ChainId: big.NewInt(int64(chains.Optimism)), Tribunal: common.HexToAddress("0xfabe000000000000000000000000000000000000"),
		Recipient: common.HexToAddress("0x1111111111111111111111111111111111111111"),
		Expires:   big.NewInt(1_700_000_000), Token: common.Address{},
		MinimumAmount: big.NewInt(1), BaselinePriorityFee: big.NewInt(0), ScalingFactor: big.NewInt(1),
	}
	claim := Claim{Arbiter: common.Address{}, Sponsor: common.Address{}, Nonce: big.NewInt(0), Expires: big.NewInt(1), Id: big.NewInt(1), Amount: big.NewInt(1)}

	dispensation, err := c.SimulateDispensation(context.Background(), chains.Optimism, claim, mandate, common.Address{})
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(50_000_000_000_000_000), dispensation)
}
