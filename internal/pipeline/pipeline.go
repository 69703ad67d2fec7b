// Package pipeline implements QuotePipeline (C7): orchestrates C1-C6 to
// answer one quote request per the nine-step algorithm of §4.7.
package pipeline

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"calibrator.backend/internal/apperr"
	"calibrator.backend/internal/chains"
	"calibrator.backend/internal/compactid"
	"calibrator.backend/internal/oracle"
	"calibrator.backend/internal/registry"
	"calibrator.backend/internal/router"
	"calibrator.backend/internal/tribunal"
	"calibrator.backend/internal/witness"
)

const (
	defaultSlippageBips = uint16(100)
	defaultFillWindow   = 1 * time.Hour
	defaultClaimWindow  = 2 * time.Hour
	bipsDenominator     = 10000
)

var defaultScalingFactor = big.NewInt(1_000_000_000_100_000_000)

// RegistryLookup matches registry.Lookup's signature, injected so tests can
// substitute a smaller table without depending on the package-level one.
type RegistryLookup func(srcChainID, dstChainID uint64) (registry.ArbiterEntry, error)

// Clock returns the current time; tests substitute a fixed value since
// QuotePipeline must otherwise call time.Now() for expiry defaults.
type Clock func() time.Time

// Pipeline is the QuotePipeline implementation. It carries no per-request
// state: every field is immutable after New, so one Pipeline safely serves
// any number of concurrent requests (§5).
type Pipeline struct {
	oracle   PriceOracle
	router   RouteQuoter
	tribunal DispensationSimulator
	lookup   RegistryLookup
	now      Clock
}

// New builds a Pipeline wired to the production C1/C2/C3/C4 implementations.
func New(priceOracle PriceOracle, routeQuoter RouteQuoter, dispensationSimulator DispensationSimulator) *Pipeline {
	return &Pipeline{
		oracle:   priceOracle,
		router:   routeQuoter,
		tribunal: dispensationSimulator,
		lookup:   registry.Lookup,
		now:      time.Now,
	}
}

// WithRegistryLookup overrides the arbiter lookup function (tests only).
func (p *Pipeline) WithRegistryLookup(lookup RegistryLookup) *Pipeline {
	p.lookup = lookup
	return p
}

// WithClock overrides the pipeline's clock (tests only).
func (p *Pipeline) WithClock(clock Clock) *Pipeline {
	p.now = clock
	return p
}

// routedResult bundles step 3-6's outputs so routedQuote can return them
// together without stashing per-request state on the Pipeline.
type routedResult struct {
	direct       *big.Int
	net          *big.Int
	dispensation *big.Int
	mandate      tribunal.Mandate
}

// Quote runs the full nine-step algorithm of §4.7.
func (p *Pipeline) Quote(ctx context.Context, req QuoteRequest) (*QuoteResponse, error) {
	if err := validateLockParameters(req.LockParameters); err != nil {
		return nil, err
	}
	rc, err := p.resolveContext(req.Sponsor, req.Context)
	if err != nil {
		return nil, err
	}

	entry, err := p.lookup(req.InputToken.ChainID, req.OutputToken.ChainID)
	if err != nil {
		return nil, err
	}

	compactID, err := compactid.Pack(compactid.Fields{
		IsMultichain: req.LockParameters.IsMultichain,
		ResetPeriod:  req.LockParameters.ResetPeriod,
		AllocatorID:  req.LockParameters.AllocatorID,
		InputToken:   req.InputToken.Address,
	})
	if err != nil {
		return nil, err
	}

	spot := p.trySpot(ctx, req)
	routed := p.routedQuote(ctx, req, rc, entry, compactID)

	netOrDirect := routed.net
	if netOrDirect == nil {
		netOrDirect = routed.direct
	}
	var delta *big.Int
	if spot != nil && netOrDirect != nil {
		delta = new(big.Int).Sub(netOrDirect, spot)
	}

	witnessHash, _, err := witness.Hash(entry.WitnessTypeString, mandateValues(routed.mandate))
	if err != nil {
		return nil, err
	}

	compact := Compact{
		Arbiter:       entry.Arbiter,
		Tribunal:      entry.Tribunal,
		Sponsor:       req.Sponsor,
		Expires:       rc.claimExpires,
		ID:            compactID,
		Amount:        req.InputAmount,
		MaximumAmount: routed.net,
		Mandate:       routed.mandate,
	}

	return &QuoteResponse{
		Sponsor:                 req.Sponsor,
		InputToken:              req.InputToken,
		InputAmount:             req.InputAmount,
		OutputToken:             req.OutputToken,
		SpotOutputAmount:        spot,
		QuoteOutputAmountDirect: routed.direct,
		QuoteOutputAmountNet:    routed.net,
		DeltaAmount:             delta,
		TribunalQuote:           routed.dispensation,
		TribunalQuoteUSDWei:     p.dispensationUSD(ctx, routed.dispensation),
		ArbiterData:             compact,
		WitnessHash:             witnessHash,
	}, nil
}

// trySpot implements step 2: two independent C1 calls fanned out
// concurrently. Either failing leaves spot nil without failing the request.
func (p *Pipeline) trySpot(ctx context.Context, req QuoteRequest) *big.Int {
	var inInfo, outInfo oracle.TokenInfo
	var priceIn, priceOut *big.Int
	var errInInfo, errOutInfo, errInPrice, errOutPrice error

	var g errgroup.Group
	g.Go(func() error {
		inRef := oracle.TokenRef{ChainID: req.InputToken.ChainID, Address: req.InputToken.Address}
		inInfo, errInInfo = p.oracle.TokenInfo(ctx, inRef)
		priceIn, errInPrice = p.oracle.UsdPrice(ctx, inRef)
		return nil
	})
	g.Go(func() error {
		outRef := oracle.TokenRef{ChainID: req.OutputToken.ChainID, Address: req.OutputToken.Address}
		outInfo, errOutInfo = p.oracle.TokenInfo(ctx, outRef)
		priceOut, errOutPrice = p.oracle.UsdPrice(ctx, outRef)
		return nil
	})
	_ = g.Wait()

	if errInInfo != nil || errOutInfo != nil || errInPrice != nil || errOutPrice != nil {
		return nil
	}
	return spotAmount(req.InputAmount, priceIn, priceOut, inInfo.Decimals, outInfo.Decimals)
}

// spotAmount implements the formula of §4.7 step 2:
// floor(amountIn * priceIn_wei * 10^dOut / (10^dIn * priceOut_wei)).
func spotAmount(amountIn, priceIn, priceOut *big.Int, decIn, decOut uint8) *big.Int {
	if priceOut == nil || priceOut.Sign() == 0 {
		return nil
	}
	numerator := new(big.Int).Mul(amountIn, priceIn)
	numerator.Mul(numerator, pow10(decOut))
	denominator := new(big.Int).Mul(pow10(decIn), priceOut)
	return new(big.Int).Quo(numerator, denominator)
}

func pow10(n uint8) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

// routedQuote implements steps 3-6: direct route, phase-1 dispensation,
// phase-2 net route, phase-2 dispensation refinement. Any stage failing
// leaves the remaining outputs nil without failing the request, except
// DispensationExceedsIntermediate which zeroes net per §4.2's fixed edge
// case ("dispensation is the fee the tribunal charges and does not
// disappear when the net output happens to round to zero").
//
// The mandate's minimumAmount is fixed once in phase 1 from `direct` and
// never recomputed from `net` — only the simulated claim amount changes
// between phase 1 (direct) and phase 2 (net), which is how phase 2 "captures
// tribunals whose cost depends on the claim amount" (§4.7 step 6) without
// moving the filler's minimum-output guarantee.
func (p *Pipeline) routedQuote(ctx context.Context, req QuoteRequest, rc resolvedContext, entry registry.ArbiterEntry, compactID *big.Int) routedResult {
	claimant := rc.recipient

	mandateAt := func(minimum *big.Int) tribunal.Mandate {
		return entry.MandateBuilder(registry.MandateInputs{
			DestChainID:         req.OutputToken.ChainID,
			Recipient:           rc.recipient,
			Token:               req.OutputToken.Address,
			MinimumAmount:       minimum,
			BaselinePriorityFee: rc.baselinePriorityFee,
			ScalingFactor:       rc.scalingFactor,
			Expires:             rc.fillExpires,
			Salt:                rc.salt,
		}, entry.Tribunal)
	}
	claimAt := func(amount *big.Int) tribunal.Claim {
		return tribunal.Claim{
			Arbiter: entry.Arbiter,
			Sponsor: req.Sponsor,
			Nonce:   big.NewInt(0),
			Expires: rc.claimExpires,
			Id:      compactID,
			Amount:  amount,
		}
	}

	result := routedResult{mandate: mandateAt(big.NewInt(0))}

	routeResult, err := p.router.Quote(ctx, router.Quote{
		TokenIn:  router.TokenRef{ChainID: req.InputToken.ChainID, Address: req.InputToken.Address},
		TokenOut: router.TokenRef{ChainID: req.OutputToken.ChainID, Address: req.OutputToken.Address},
		AmountIn: req.InputAmount,
	})
	if err != nil {
		return result
	}
	result.direct = routeResult.Direct
	result.mandate = mandateAt(minimumAmount(result.direct, rc.slippageBips))

	dispensation1, err := p.tribunal.SimulateDispensation(ctx, req.OutputToken.ChainID,
		claimAt(result.direct), result.mandate, claimant)
	if err != nil {
		return result
	}

	netResult, err := p.router.Quote(ctx, router.Quote{
		TokenIn:      router.TokenRef{ChainID: req.InputToken.ChainID, Address: req.InputToken.Address},
		TokenOut:     router.TokenRef{ChainID: req.OutputToken.ChainID, Address: req.OutputToken.Address},
		AmountIn:     req.InputAmount,
		Dispensation: dispensation1,
	})
	if err != nil {
		if appErr, ok := apperr.As(err); ok && appErr.Kind == apperr.KindDispensationExceedsIntermediate {
			result.net = big.NewInt(0)
			result.dispensation = dispensation1
		} else {
			result.dispensation = dispensation1
		}
		return result
	}
	result.net = netResult.Net

	dispensation2, err := p.tribunal.SimulateDispensation(ctx, req.OutputToken.ChainID,
		claimAt(result.net), result.mandate, claimant)
	if err != nil {
		result.dispensation = dispensation1
		return result
	}
	result.dispensation = dispensation2
	return result
}

func minimumAmount(amount *big.Int, slippageBips uint16) *big.Int {
	if amount == nil {
		return big.NewInt(0)
	}
	num := new(big.Int).Mul(amount, big.NewInt(int64(bipsDenominator-int(slippageBips))))
	return num.Quo(num, big.NewInt(bipsDenominator))
}

// dispensationUSD computes tribunalQuoteUsd (§4.7 step 8): the dispensation
// converted to USD via C1's mainnet ETH price, a display value never fed
// back into the mandate.
func (p *Pipeline) dispensationUSD(ctx context.Context, dispensation *big.Int) *big.Int {
	if dispensation == nil || dispensation.Sign() == 0 {
		return nil
	}
	ethUsdWei, err := p.oracle.UsdPrice(ctx, oracle.TokenRef{ChainID: chains.Mainnet, Address: chains.ZeroAddress})
	if err != nil || ethUsdWei == nil {
		return nil
	}
	usd := new(big.Int).Mul(dispensation, ethUsdWei)
	return usd.Quo(usd, pow10(18))
}

func mandateValues(m tribunal.Mandate) map[string]any {
	return map[string]any{
		"chainId":             m.ChainId,
		"tribunal":            m.Tribunal,
		"recipient":           m.Recipient,
		"expires":             m.Expires,
		"token":               m.Token,
		"minimumAmount":       m.MinimumAmount,
		"baselinePriorityFee": m.BaselinePriorityFee,
		"scalingFactor":       m.ScalingFactor,
		"salt":                m.Salt,
	}
}

func validateLockParameters(lp LockParameters) error {
	if lp.ResetPeriod > 7 {
		return apperr.NewKindError(apperr.KindInvalidLockParameters,
			"Reset period must be between 0 and 7", nil)
	}
	if lp.AllocatorID == nil || lp.AllocatorID.Sign() < 0 {
		return apperr.NewKindError(apperr.KindInvalidLockParameters, "allocatorId must be non-negative", nil)
	}
	return nil
}

// resolvedContext is QuoteContext with every default applied (§4.7 step 4).
type resolvedContext struct {
	slippageBips        uint16
	recipient           common.Address
	baselinePriorityFee *big.Int
	scalingFactor       *big.Int
	fillExpires         *big.Int
	claimExpires        *big.Int
	salt                [32]byte
}

// resolveContext applies QuoteContext defaults: slippageBips=100,
// recipient=sponsor, baselinePriorityFee=0, scalingFactor as given in §3,
// fillExpires/claimExpires defaulting to now+1h/now+2h so the
// fillExpires<claimExpires invariant holds by construction when both are
// defaulted; an explicit fillExpires >= claimExpires still fails
// ExpiresOrderViolation.
func (p *Pipeline) resolveContext(sponsor common.Address, c QuoteContext) (resolvedContext, error) {
	rc := resolvedContext{
		slippageBips:        defaultSlippageBips,
		recipient:           sponsor,
		baselinePriorityFee: big.NewInt(0),
		scalingFactor:       new(big.Int).Set(defaultScalingFactor),
		salt:                randomSalt(),
	}
	if c.SlippageBips != nil {
		rc.slippageBips = *c.SlippageBips
	}
	if c.Recipient != nil {
		rc.recipient = *c.Recipient
	}
	if c.BaselinePriorityFee != nil {
		rc.baselinePriorityFee = c.BaselinePriorityFee
	}
	if c.ScalingFactor != nil {
		rc.scalingFactor = c.ScalingFactor
	}

	now := p.now().Unix()
	if c.FillExpires != nil {
		rc.fillExpires = big.NewInt(*c.FillExpires)
	} else {
		rc.fillExpires = big.NewInt(now + int64(defaultFillWindow.Seconds()))
	}
	if c.ClaimExpires != nil {
		rc.claimExpires = big.NewInt(*c.ClaimExpires)
	} else {
		rc.claimExpires = big.NewInt(now + int64(defaultClaimWindow.Seconds()))
	}
	if rc.fillExpires.Cmp(rc.claimExpires) >= 0 {
		return resolvedContext{}, apperr.NewKindError(apperr.KindExpiresOrderViolation,
			"fillExpires must be before claimExpires", nil)
	}
	return rc, nil
}

// randomSalt builds the per-request cryptographically random 32-byte salt
// (§3 "Mandate") out of two uuid.New() draws, both backed by crypto/rand.
func randomSalt() [32]byte {
	var salt [32]byte
	a, b := uuid.New(), uuid.New()
	copy(salt[:16], a[:])
	copy(salt[16:], b[:])
	return salt
}
