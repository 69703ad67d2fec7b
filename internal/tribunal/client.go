// Package tribunal implements TribunalClient (C3): per-chain RPC view
// calls into the destination-chain tribunal contract to simulate
// dispensation and, for test/debug use, cross-check the locally computed
// mandate hash (§4.3).
package tribunal

import (
	"context"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"calibrator.backend/internal/apperr"
	"calibrator.backend/internal/chains"
	"calibrator.backend/internal/rpcclient"
	"calibrator.backend/pkg/metrics"
)

// Claim mirrors ITribunal.Claim for ABI packing.
type Claim struct {
	Arbiter common.Address
	Sponsor common.Address
	Nonce   *big.Int
	Expires *big.Int
	Id      *big.Int
	Amount  *big.Int
}

// Mandate mirrors ITribunal.Mandate (and the data-model Mandate of §3) for
// ABI packing.
type Mandate struct {
	ChainId             *big.Int
	Tribunal            common.Address
	Recipient           common.Address
	Expires             *big.Int
	Token               common.Address
	MinimumAmount       *big.Int
	BaselinePriorityFee *big.Int
	ScalingFactor       *big.Int
	Salt                [32]byte
}

// RPCResolver resolves a chain id to its configured RPC URL.
type RPCResolver func(chainID uint64) (string, bool)

// Client is the TribunalClient implementation.
type Client struct {
	factory  *rpcclient.Factory
	rpcURLOf RPCResolver
	abi      abi.ABI
}

// New builds a Client sharing the RPC client factory with RouteQuoter.
func New(factory *rpcclient.Factory, rpcURLOf RPCResolver) *Client {
	parsed, err := abi.JSON(strings.NewReader(tribunalABI))
	if err != nil {
		panic(fmt.Sprintf("tribunal: invalid embedded ABI: %v", err))
	}
	return &Client{factory: factory, rpcURLOf: rpcURLOf, abi: parsed}
}

// SimulateDispensation calls `quote(claim, mandate, claimant)` as an
// eth_call against the mandate's tribunal contract on destChainID, applying
// the Base-chain elevated-gas override from §4.3.
func (c *Client) SimulateDispensation(ctx context.Context, destChainID uint64, claim Claim, mandate Mandate, claimant common.Address) (*big.Int, error) {
	dispensation, err := c.simulateDispensation(ctx, destChainID, claim, mandate, claimant)
	chainLabel := strconv.FormatUint(destChainID, 10)
	if err != nil {
		metrics.RecordTribunalCall(chainLabel, "error")
		return nil, err
	}
	metrics.RecordTribunalCall(chainLabel, "ok")
	return dispensation, nil
}

func (c *Client) simulateDispensation(ctx context.Context, destChainID uint64, claim Claim, mandate Mandate, claimant common.Address) (*big.Int, error) {
	client, err := c.dial(destChainID)
	if err != nil {
		return nil, err
	}

	calldata, err := c.abi.Pack("quote", claim, mandate, claimant)
	if err != nil {
		return nil, fmt.Errorf("tribunal: encode quote: %w", err)
	}

	opts, err := c.callOptsFor(ctx, destChainID, client)
	if err != nil {
		return nil, err
	}

	result, err := client.CallView(ctx, mandate.Tribunal, calldata, opts)
	if err != nil {
		return nil, tribunalRPCError("quote call", err)
	}

	outputs, err := c.abi.Unpack("quote", result)
	if err != nil || len(outputs) == 0 {
		return nil, tribunalRPCError("decode quote result", err)
	}
	dispensation, ok := outputs[0].(*big.Int)
	if !ok {
		return nil, tribunalRPCError("unexpected quote result type", nil)
	}
	return dispensation, nil
}

// DeriveMandateHash calls `deriveMandateHash(mandate)`, used only by the
// test/debug cross-check path (§8: "witness-hash agreement").
func (c *Client) DeriveMandateHash(ctx context.Context, destChainID uint64, mandate Mandate) ([32]byte, error) {
	var zero [32]byte
	client, err := c.dial(destChainID)
	if err != nil {
		return zero, err
	}

	calldata, err := c.abi.Pack("deriveMandateHash", mandate)
	if err != nil {
		return zero, fmt.Errorf("tribunal: encode deriveMandateHash: %w", err)
	}

	result, err := client.CallView(ctx, mandate.Tribunal, calldata, nil)
	if err != nil {
		return zero, tribunalRPCError("deriveMandateHash call", err)
	}

	outputs, err := c.abi.Unpack("deriveMandateHash", result)
	if err != nil || len(outputs) == 0 {
		return zero, tribunalRPCError("decode deriveMandateHash result", err)
	}
	hash, ok := outputs[0].([32]byte)
	if !ok {
		return zero, tribunalRPCError("unexpected deriveMandateHash result type", nil)
	}
	return hash, nil
}

func (c *Client) dial(chainID uint64) (*rpcclient.Client, error) {
	if _, ok := chains.Lookup(chainID); !ok {
		return nil, unsupportedTribunalChain(chainID)
	}
	rpcURL, ok := c.rpcURLOf(chainID)
	if !ok || rpcURL == "" {
		return nil, unsupportedTribunalChain(chainID)
	}
	client, err := c.factory.Get(rpcURL)
	if err != nil {
		return nil, tribunalRPCError("dial RPC", err)
	}
	return client, nil
}

// callOptsFor applies the Base-chain elevated gas budget (§4.3): gas =
// 10_000_000, gasPrice = 2 * baseFeePerGas of the latest block.
func (c *Client) callOptsFor(ctx context.Context, chainID uint64, client *rpcclient.Client) (*rpcclient.CallOpts, error) {
	if chainID != chains.Base {
		return nil, nil
	}
	baseFee, err := client.BaseFee(ctx)
	if err != nil {
		return nil, tribunalRPCError("fetch base fee", err)
	}
	return &rpcclient.CallOpts{
		Gas:      10_000_000,
		GasPrice: new(big.Int).Mul(baseFee, big.NewInt(2)),
	}, nil
}

func tribunalRPCError(op string, cause error) *apperr.AppError {
	msg := op
	if cause != nil {
		msg = fmt.Sprintf("%s: %v", op, cause)
	}
	return apperr.NewKindError(apperr.KindTribunalRpcError, "tribunal rpc error: "+msg, cause)
}

func unsupportedTribunalChain(chainID uint64) *apperr.AppError {
	return apperr.NewKindError(apperr.KindUnsupportedTribunalChain,
		fmt.Sprintf("unsupported tribunal chain %d", chainID), nil)
}
