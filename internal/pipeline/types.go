package pipeline

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"calibrator.backend/internal/tribunal"
)

// TokenLocator identifies a token by chain and address, the request-facing
// shape of a token reference (§3 "Token reference").
type TokenLocator struct {
	ChainID uint64
	Address common.Address
}

// LockParameters carries the Compact-protocol lock configuration (§3).
type LockParameters struct {
	AllocatorID  *big.Int
	ResetPeriod  uint8
	IsMultichain bool
}

// QuoteContext is the optional per-request tuning knobs (§3), all pointers
// so "not provided" is distinguishable from the zero value.
type QuoteContext struct {
	SlippageBips        *uint16
	Recipient           *common.Address
	BaselinePriorityFee *big.Int
	ScalingFactor       *big.Int
	FillExpires         *int64
	ClaimExpires        *int64
}

// QuoteRequest is C8's parsed, validated input to the pipeline.
type QuoteRequest struct {
	Sponsor        common.Address
	InputToken     TokenLocator
	InputAmount    *big.Int
	OutputToken    TokenLocator
	LockParameters LockParameters
	Context        QuoteContext
}

// Compact is the signable claim payload (§3). Nonce is always carried as
// null on the wire; QuoteApi's JSON translation owns that, not this type.
type Compact struct {
	Arbiter       common.Address
	Tribunal      common.Address
	Sponsor       common.Address
	Expires       *big.Int
	ID            *big.Int
	Amount        *big.Int
	MaximumAmount *big.Int
	Mandate       tribunal.Mandate
}

// QuoteResponse is C7's full result (§3 "QuoteResponse"). Every *big.Int
// field is nil when the corresponding value could not be computed — the
// state machine's SpotFailed/RouteFailed/TribunalFailed branches leave
// their outputs nil rather than failing the request.
type QuoteResponse struct {
	Sponsor     common.Address
	InputToken  TokenLocator
	InputAmount *big.Int
	OutputToken TokenLocator

	SpotOutputAmount        *big.Int
	QuoteOutputAmountDirect *big.Int
	QuoteOutputAmountNet    *big.Int
	DeltaAmount             *big.Int
	TribunalQuote           *big.Int // dispensation, wei
	TribunalQuoteUSDWei     *big.Int // dispensation * ethUsdWei / 1e18, 18-decimal fixed point

	ArbiterData Compact
	WitnessHash [32]byte
}
