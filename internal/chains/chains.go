// Package chains holds the static, process-global table of chains the
// calibrator knows how to quote and settle against (D5). The table is a
// literal built at init, mirroring the teacher's CAIP-2 conventions
// (entities.Chain.GetCAIP2ID) without the database-entity indirection: the
// spec calls this registry "fixed per build".
package chains

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Spec describes one chain's identity and native-token metadata, shared by
// the oracle, router and tribunal client.
type Spec struct {
	ChainID        uint64
	Name           string
	CAIP2          string
	NativeSymbol   string
	NativeDecimals uint8
	RPCEnvVar      string
}

// Well-known chain ids for the reference deployment.
const (
	Mainnet  uint64 = 1
	Optimism uint64 = 10
	Base     uint64 = 8453
	Unichain uint64 = 130
)

// ZeroAddress is the sentinel used for the native token of a chain.
var ZeroAddress = common.Address{}

var table = map[uint64]Spec{
	Mainnet: {
		ChainID: Mainnet, Name: "mainnet", CAIP2: "eip155:1",
		NativeSymbol: "ETH", NativeDecimals: 18, RPCEnvVar: "ETHEREUM_RPC_URL",
	},
	Optimism: {
		ChainID: Optimism, Name: "optimism", CAIP2: "eip155:10",
		NativeSymbol: "ETH", NativeDecimals: 18, RPCEnvVar: "OPTIMISM_RPC_URL",
	},
	Base: {
		ChainID: Base, Name: "base", CAIP2: "eip155:8453",
		NativeSymbol: "ETH", NativeDecimals: 18, RPCEnvVar: "BASE_RPC_URL",
	},
	Unichain: {
		ChainID: Unichain, Name: "unichain", CAIP2: "eip155:130",
		NativeSymbol: "ETH", NativeDecimals: 18, RPCEnvVar: "UNICHAIN_RPC_URL",
	},
}

// Lookup returns the Spec for a chain id, or false if the chain is not one
// of the four the reference deployment supports.
func Lookup(chainID uint64) (Spec, bool) {
	spec, ok := table[chainID]
	return spec, ok
}

// MustLookup is Lookup but panics on an unknown chain id; only safe to use
// where the chain id has already been validated against Lookup.
func MustLookup(chainID uint64) Spec {
	spec, ok := Lookup(chainID)
	if !ok {
		panic(fmt.Sprintf("chains: unknown chain id %d", chainID))
	}
	return spec
}

// IsNative reports whether addr is the native-token sentinel for a chain.
func IsNative(addr common.Address) bool {
	return addr == ZeroAddress
}

// All returns every supported chain id, in ascending order.
func All() []uint64 {
	return []uint64{Mainnet, Optimism, Unichain, Base}
}
