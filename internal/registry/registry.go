// Package registry implements ArbiterRegistry (C4): an immutable, process-
// global lookup from a directed chain pair to the arbiter configuration that
// serves it, populated at package init from a literal Go table ("fixed per
// build", never loaded from a database or file).
package registry

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"calibrator.backend/internal/apperr"
	"calibrator.backend/internal/chains"
	"calibrator.backend/internal/tribunal"
)

// mandateWitnessTypeString is the single witness-type-string shared by every
// entry in the reference deployment (§4.4). WitnessCodec never hard-codes
// this value; it is carried as data on each ArbiterEntry and parsed fresh.
const mandateWitnessTypeString = "Mandate mandate)Mandate(uint256 chainId,address tribunal,address recipient,uint256 expires,address token,uint256 minimumAmount,uint256 baselinePriorityFee,uint256 scalingFactor,bytes32 salt)"

// MandateInputs carries the request-scoped values a MandateBuilder closes
// over: everything it needs besides the entry's own tribunal address.
type MandateInputs struct {
	DestChainID         uint64
	Recipient           common.Address
	Token               common.Address
	MinimumAmount       *big.Int
	BaselinePriorityFee *big.Int
	ScalingFactor       *big.Int
	Expires             *big.Int
	Salt                [32]byte
}

// MandateBuilder is a pure function over (inputs, tribunal) producing a
// Mandate record, per the "tagged-variant ArbiterEntry" redesign note: every
// entry in this build shares one builder shape, but the registry stores it
// per-entry so a future deployment could vary it per chain pair without
// touching QuotePipeline.
type MandateBuilder func(inputs MandateInputs, tribunalAddr common.Address) tribunal.Mandate

// ArbiterEntry is the immutable per-chain-pair configuration C7 reads.
type ArbiterEntry struct {
	Arbiter           common.Address
	Tribunal          common.Address
	WitnessTypeString string
	MandateBuilder    MandateBuilder
}

func buildMandate(in MandateInputs, tribunalAddr common.Address) tribunal.Mandate {
	return tribunal.Mandate{
		ChainId:             new(big.Int).SetUint64(in.DestChainID),
		Tribunal:            tribunalAddr,
		Recipient:           in.Recipient,
		Expires:             in.Expires,
		Token:               in.Token,
		MinimumAmount:       in.MinimumAmount,
		BaselinePriorityFee: in.BaselinePriorityFee,
		ScalingFactor:       in.ScalingFactor,
		Salt:                in.Salt,
	}
}

func entry(arbiter, tribunalAddr string) ArbiterEntry {
	return ArbiterEntry{
		Arbiter:           common.HexToAddress(arbiter),
		Tribunal:          common.HexToAddress(tribunalAddr),
		WitnessTypeString: mandateWitnessTypeString,
		MandateBuilder:    buildMandate,
	}
}

// table holds one row per directed pair among {mainnet, Optimism, Base,
// Unichain}, all 12 populated in the reference deployment (§4.4).
var table = map[string]ArbiterEntry{
	key(chains.Mainnet, chains.Optimism): entry(
		"0x00001000000000000000000000000000100010B1", "0x00001000000000000000000000000000100010D3"),
	key(chains.Mainnet, chains.Base): entry(
		"0x00001084000000000000000000000000108453B1", "0x00001084000000000000000000000000108453D3"),
	key(chains.Mainnet, chains.Unichain): entry(
		"0x00001001000000000000000000000000100130B1", "0x00001001000000000000000000000000100130D3"),
	key(chains.Optimism, chains.Mainnet): entry(
		"0x00010000000000000000000000000000000001B1", "0x00010000000000000000000000000000000001D3"),
	// Optimism -> Base: the reference-deployment example pair (§8 scenario 1).
	key(chains.Optimism, chains.Base): entry(
		"0x260200000000000000000000000000000000F626", "0xfaBE000000000000000000000000000000006c1F"),
	key(chains.Optimism, chains.Unichain): entry(
		"0x00010001000000000000000000000000000130B1", "0x00010001000000000000000000000000000130D3"),
	key(chains.Base, chains.Mainnet): entry(
		"0x08453000000000000000000000000000300001B1", "0x08453000000000000000000000000000300001D3"),
	key(chains.Base, chains.Optimism): entry(
		"0x08453000000000000000000000000000300010B1", "0x08453000000000000000000000000000300010D3"),
	key(chains.Base, chains.Unichain): entry(
		"0x08453001000000000000000000000000300130B1", "0x08453001000000000000000000000000300130D3"),
	key(chains.Unichain, chains.Mainnet): entry(
		"0x00130000000000000000000000000000000001B1", "0x00130000000000000000000000000000000001D3"),
	key(chains.Unichain, chains.Optimism): entry(
		"0x00130000000000000000000000000000000010B1", "0x00130000000000000000000000000000000010D3"),
	key(chains.Unichain, chains.Base): entry(
		"0x00130084000000000000000000000000008453B1", "0x00130084000000000000000000000000008453D3"),
}

func key(src, dst uint64) string {
	return fmt.Sprintf("%d-%d", src, dst)
}

// Lookup implements ArbiterRegistry.lookup, failing NoArbiterForChainPair
// for any pair outside the fixed reference-deployment set.
func Lookup(srcChainID, dstChainID uint64) (ArbiterEntry, error) {
	entry, ok := table[key(srcChainID, dstChainID)]
	if !ok {
		return ArbiterEntry{}, apperr.NewKindError(apperr.KindNoArbiterForChainPair,
			fmt.Sprintf("No arbiter found for chain pair %d-%d", srcChainID, dstChainID), nil)
	}
	return entry, nil
}
