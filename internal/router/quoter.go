// Package router implements RouteQuoter (C2): an indicative routing quote
// across same-chain and cross-chain (native-token-intermediate) legs,
// backed by a Uniswap-style QuoterV2 view call per leg.
package router

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"calibrator.backend/internal/apperr"
	"calibrator.backend/internal/chains"
	"calibrator.backend/internal/rpcclient"
)

// Quote is the (tokenIn, tokenOut) pair the pipeline asks the router about.
type Quote struct {
	TokenIn     TokenRef
	TokenOut    TokenRef
	AmountIn    *big.Int
	Dispensation *big.Int // nil on phase 1
}

// TokenRef identifies a token by chain and address.
type TokenRef struct {
	ChainID uint64
	Address common.Address
}

// RouteQuote is C2's result: direct and net-after-dispensation amounts of
// the output token, in base units.
type RouteQuote struct {
	Direct *big.Int
	Net    *big.Int
}

// quoterAddresses is the fixed, per-chain QuoterV2 deployment table for the
// reference deployment's four chains (mainnet, Optimism, Base, Unichain).
// Mainnet and Optimism share one QuoterV2 address; Base and Unichain each
// have their own.
var quoterAddresses = map[uint64]common.Address{
	chains.Mainnet:  common.HexToAddress("0x61fFE014bA17989E743c5F6cB21bF9697530B21e"),
	chains.Optimism: common.HexToAddress("0x61fFE014bA17989E743c5F6cB21bF9697530B21e"),
	chains.Base:     common.HexToAddress("0x3d4e44Eb1374240CE5F1B871ab261CD16335B76a"),
	chains.Unichain:  common.HexToAddress("0x385A5cf5F83e99f7BB2852b6A19C3538b9FA7658"),
}

// RPCResolver resolves a chain id to its configured RPC URL, matching
// config.ChainsConfig.RPCURLFor's shape without importing internal/config.
type RPCResolver func(chainID uint64) (string, bool)

// Quoter is the RouteQuoter implementation.
type Quoter struct {
	factory  *rpcclient.Factory
	rpcURLOf RPCResolver
	abi      abi.ABI
}

// New builds a Quoter sharing the RPC client factory with TribunalClient.
func New(factory *rpcclient.Factory, rpcURLOf RPCResolver) *Quoter {
	parsed, err := abi.JSON(strings.NewReader(quoterV2ABI))
	if err != nil {
		panic(fmt.Sprintf("router: invalid embedded QuoterV2 ABI: %v", err))
	}
	return &Quoter{factory: factory, rpcURLOf: rpcURLOf, abi: parsed}
}

// Quote implements the six routing cases of §4.2. On the
// dispensation-exceeds-intermediate edge case it returns a non-nil
// RouteQuote with Direct populated and Net nil, alongside a
// DispensationExceedsIntermediate error — callers (QuotePipeline) are
// expected to treat that specific error as "net = 0, direct preserved"
// rather than a hard failure.
func (q *Quoter) Quote(ctx context.Context, quote Quote) (*RouteQuote, error) {
	sameChain := quote.TokenIn.ChainID == quote.TokenOut.ChainID
	inNative := chains.IsNative(quote.TokenIn.Address)
	outNative := chains.IsNative(quote.TokenOut.Address)

	if sameChain {
		out, err := q.leg(ctx, quote.TokenIn.ChainID, quote.TokenIn.Address, quote.TokenOut.Address, quote.AmountIn)
		if err != nil {
			return nil, err
		}
		return &RouteQuote{Direct: out, Net: out}, nil
	}

	switch {
	case !inNative && !outNative:
		return q.crossBothTokens(ctx, quote)
	case inNative && !outNative:
		return q.crossNativeIn(ctx, quote)
	case !inNative && outNative:
		return q.crossNativeOut(ctx, quote)
	default:
		return q.crossBothNative(quote)
	}
}

// crossBothTokens implements case 3: three router calls via the native
// intermediate leg on each side.
func (q *Quoter) crossBothTokens(ctx context.Context, quote Quote) (*RouteQuote, error) {
	intermediate, err := q.leg(ctx, quote.TokenIn.ChainID, quote.TokenIn.Address, chains.ZeroAddress, quote.AmountIn)
	if err != nil {
		return nil, err
	}

	direct, err := q.leg(ctx, quote.TokenOut.ChainID, chains.ZeroAddress, quote.TokenOut.Address, intermediate)
	if err != nil {
		return nil, err
	}

	net, netSize, exceeded := netSizeAfterDispensation(intermediate, quote.Dispensation)
	if exceeded {
		return &RouteQuote{Direct: direct, Net: nil}, dispensationExceeds(intermediate, quote.Dispensation)
	}
	if netSize == nil {
		return &RouteQuote{Direct: direct, Net: direct}, nil
	}
	net, err = q.leg(ctx, quote.TokenOut.ChainID, chains.ZeroAddress, quote.TokenOut.Address, netSize)
	if err != nil {
		return nil, err
	}
	return &RouteQuote{Direct: direct, Net: net}, nil
}

// crossNativeIn implements case 4: input side is already native, so the
// intermediate amount is amountIn itself.
func (q *Quoter) crossNativeIn(ctx context.Context, quote Quote) (*RouteQuote, error) {
	direct, err := q.leg(ctx, quote.TokenOut.ChainID, chains.ZeroAddress, quote.TokenOut.Address, quote.AmountIn)
	if err != nil {
		return nil, err
	}

	_, netSize, exceeded := netSizeAfterDispensation(quote.AmountIn, quote.Dispensation)
	if exceeded {
		return &RouteQuote{Direct: direct, Net: nil}, dispensationExceeds(quote.AmountIn, quote.Dispensation)
	}
	if netSize == nil {
		return &RouteQuote{Direct: direct, Net: direct}, nil
	}
	net, err := q.leg(ctx, quote.TokenOut.ChainID, chains.ZeroAddress, quote.TokenOut.Address, netSize)
	if err != nil {
		return nil, err
	}
	return &RouteQuote{Direct: direct, Net: net}, nil
}

// crossNativeOut implements case 5: output side is native, so net is a
// plain subtraction with no second router call.
func (q *Quoter) crossNativeOut(ctx context.Context, quote Quote) (*RouteQuote, error) {
	intermediate, err := q.leg(ctx, quote.TokenIn.ChainID, quote.TokenIn.Address, chains.ZeroAddress, quote.AmountIn)
	if err != nil {
		return nil, err
	}

	net, _, exceeded := netSizeAfterDispensation(intermediate, quote.Dispensation)
	if exceeded {
		return &RouteQuote{Direct: intermediate, Net: nil}, dispensationExceeds(intermediate, quote.Dispensation)
	}
	return &RouteQuote{Direct: intermediate, Net: net}, nil
}

// crossBothNative implements case 6: no router calls at all.
func (q *Quoter) crossBothNative(quote Quote) (*RouteQuote, error) {
	net, _, exceeded := netSizeAfterDispensation(quote.AmountIn, quote.Dispensation)
	if exceeded {
		return &RouteQuote{Direct: quote.AmountIn, Net: nil}, dispensationExceeds(quote.AmountIn, quote.Dispensation)
	}
	return &RouteQuote{Direct: quote.AmountIn, Net: net}, nil
}

// netSizeAfterDispensation returns the net value directly when no further
// router call is needed (dispensation nil/zero, net==intermediate), the size
// to re-query the router with when a second leg is required, or exceeded if
// dispensation >= intermediate.
func netSizeAfterDispensation(intermediate, dispensation *big.Int) (net *big.Int, size *big.Int, exceeded bool) {
	if dispensation == nil || dispensation.Sign() == 0 {
		return new(big.Int).Set(intermediate), nil, false
	}
	if dispensation.Cmp(intermediate) >= 0 {
		return nil, nil, true
	}
	return nil, new(big.Int).Sub(intermediate, dispensation), false
}

func dispensationExceeds(intermediate, dispensation *big.Int) *apperr.AppError {
	return apperr.NewKindError(apperr.KindDispensationExceedsIntermediate,
		fmt.Sprintf("dispensation %s >= intermediate %s", dispensation.String(), intermediate.String()), nil)
}

// leg calls quoteExactInputSingle against every configured fee tier and
// returns the tier with the highest amountOut, failing RouteUnavailable
// only if every tier errors or returns zero output.
func (q *Quoter) leg(ctx context.Context, chainID uint64, tokenIn, tokenOut common.Address, amountIn *big.Int) (*big.Int, error) {
	rpcURL, ok := q.rpcURLOf(chainID)
	if !ok {
		return nil, routeUnavailable(fmt.Sprintf("no RPC configured for chain %d", chainID), nil)
	}
	client, err := q.factory.Get(rpcURL)
	if err != nil {
		return nil, routeUnavailable("dial RPC", err)
	}

	quoterAddr, ok := quoterAddresses[chainID]
	if !ok {
		return nil, routeUnavailable(fmt.Sprintf("no quoter configured for chain %d", chainID), nil)
	}

	var best *big.Int
	var lastErr error
	for _, fee := range feeTiers {
		out, err := q.callQuoterTier(ctx, client, quoterAddr, tokenIn, tokenOut, amountIn, fee)
		if err != nil {
			lastErr = err
			continue
		}
		if out.Sign() == 0 {
			continue
		}
		if best == nil || out.Cmp(best) > 0 {
			best = out
		}
	}

	if best == nil {
		return nil, routeUnavailable("every fee tier failed or returned zero output", lastErr)
	}
	return best, nil
}

func (q *Quoter) callQuoterTier(ctx context.Context, client *rpcclient.Client, quoterAddr, tokenIn, tokenOut common.Address, amountIn *big.Int, fee uint32) (*big.Int, error) {
	params := quoteParams{
		TokenIn:           tokenIn,
		TokenOut:          tokenOut,
		AmountIn:          amountIn,
		Fee:               new(big.Int).SetUint64(uint64(fee)),
		SqrtPriceLimitX96: big.NewInt(0),
	}

	calldata, err := q.abi.Pack("quoteExactInputSingle", params)
	if err != nil {
		return nil, fmt.Errorf("router: encode quoteExactInputSingle: %w", err)
	}

	result, err := client.CallView(ctx, quoterAddr, calldata, nil)
	if err != nil {
		return nil, fmt.Errorf("router: quoter call: %w", err)
	}

	outputs, err := q.abi.Unpack("quoteExactInputSingle", result)
	if err != nil {
		return nil, fmt.Errorf("router: decode quoteExactInputSingle: %w", err)
	}
	if len(outputs) == 0 {
		return nil, fmt.Errorf("router: empty quoter output")
	}
	amountOut, ok := outputs[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("router: unexpected amountOut type %T", outputs[0])
	}
	return amountOut, nil
}

func routeUnavailable(op string, cause error) *apperr.AppError {
	msg := op
	if cause != nil {
		msg = fmt.Sprintf("%s: %v", op, cause)
	}
	return apperr.NewKindError(apperr.KindRouteUnavailable, "route unavailable: "+msg, cause)
}
