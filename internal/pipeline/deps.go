package pipeline

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"calibrator.backend/internal/oracle"
	"calibrator.backend/internal/router"
	"calibrator.backend/internal/tribunal"
)

// PriceOracle is the slice of UsdOracle (C1) QuotePipeline depends on.
// *oracle.Oracle satisfies it; tests inject fakes.
type PriceOracle interface {
	UsdPrice(ctx context.Context, token oracle.TokenRef) (*big.Int, error)
	TokenInfo(ctx context.Context, token oracle.TokenRef) (oracle.TokenInfo, error)
}

// RouteQuoter is the slice of RouteQuoter (C2) QuotePipeline depends on.
type RouteQuoter interface {
	Quote(ctx context.Context, quote router.Quote) (*router.RouteQuote, error)
}

// DispensationSimulator is the slice of TribunalClient (C3) QuotePipeline
// depends on.
type DispensationSimulator interface {
	SimulateDispensation(ctx context.Context, destChainID uint64, claim tribunal.Claim, mandate tribunal.Mandate, claimant common.Address) (*big.Int, error)
}
