// Package api implements QuoteApi (C8): JSON request/response translation
// for the HTTP-facing POST /quote endpoint (§4.8, §6). GET /health is
// registered by cmd/server, not here.
package api

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"calibrator.backend/internal/apperr"
	"calibrator.backend/internal/pipeline"
)

// DecodeQuoteRequest parses and validates a POST /quote-shaped JSON body
// from r, for reuse by non-HTTP callers (cmd/calibrate, D6).
func DecodeQuoteRequest(r io.Reader) (pipeline.QuoteRequest, error) {
	var dto quoteRequestDTO
	if err := json.NewDecoder(r).Decode(&dto); err != nil {
		return pipeline.QuoteRequest{}, schemaViolation(err.Error())
	}
	return dto.toPipelineRequest()
}

// EncodeQuoteResponse renders a pipeline.QuoteResponse as the §6 wire JSON
// shape, for reuse by non-HTTP callers (cmd/calibrate, D6).
func EncodeQuoteResponse(r *pipeline.QuoteResponse) ([]byte, error) {
	return json.MarshalIndent(fromPipelineResponse(r), "", "  ")
}

// quoteRequestDTO is the wire shape of POST /quote's body (§6). The amount,
// allocator id, fee and scaling-factor strings are parsed by parseBigDecimal,
// which accepts only non-negative base-10 integers; the two expiry strings
// are parsed by parseInt64Decimal, which accepts any base-10 int64.
type quoteRequestDTO struct {
	Sponsor            string        `json:"sponsor" binding:"required"`
	InputTokenChainID  uint64        `json:"inputTokenChainId" binding:"required"`
	InputTokenAddress  string        `json:"inputTokenAddress" binding:"required"`
	InputTokenAmount   string        `json:"inputTokenAmount" binding:"required"`
	OutputTokenChainID uint64        `json:"outputTokenChainId" binding:"required"`
	OutputTokenAddress string        `json:"outputTokenAddress" binding:"required"`
	LockParameters     lockParamsDTO `json:"lockParameters" binding:"required"`
	Context            quoteCtxDTO   `json:"context"`
}

type lockParamsDTO struct {
	AllocatorID  string `json:"allocatorId" binding:"required"`
	ResetPeriod  uint8  `json:"resetPeriod"`
	IsMultichain bool   `json:"isMultichain"`
}

type quoteCtxDTO struct {
	SlippageBips        *uint16 `json:"slippageBips"`
	Recipient           *string `json:"recipient"`
	BaselinePriorityFee *string `json:"baselinePriorityFee"`
	ScalingFactor       *string `json:"scalingFactor"`
	FillExpires         *string `json:"fillExpires"`
	ClaimExpires        *string `json:"claimExpires"`
}

// toPipelineRequest translates the wire DTO into pipeline.QuoteRequest,
// failing SchemaViolation on any malformed address/decimal field.
func (d quoteRequestDTO) toPipelineRequest() (pipeline.QuoteRequest, error) {
	if !common.IsHexAddress(d.Sponsor) {
		return pipeline.QuoteRequest{}, schemaViolation("sponsor is not a valid address")
	}
	if !common.IsHexAddress(d.InputTokenAddress) {
		return pipeline.QuoteRequest{}, schemaViolation("inputTokenAddress is not a valid address")
	}
	if !common.IsHexAddress(d.OutputTokenAddress) {
		return pipeline.QuoteRequest{}, schemaViolation("outputTokenAddress is not a valid address")
	}

	inputAmount, err := parseBigDecimal(d.InputTokenAmount)
	if err != nil {
		return pipeline.QuoteRequest{}, schemaViolation("inputTokenAmount: " + err.Error())
	}
	allocatorID, err := parseBigDecimal(d.LockParameters.AllocatorID)
	if err != nil {
		return pipeline.QuoteRequest{}, schemaViolation("lockParameters.allocatorId: " + err.Error())
	}

	req := pipeline.QuoteRequest{
		Sponsor:     common.HexToAddress(d.Sponsor),
		InputToken:  pipeline.TokenLocator{ChainID: d.InputTokenChainID, Address: common.HexToAddress(d.InputTokenAddress)},
		InputAmount: inputAmount,
		OutputToken: pipeline.TokenLocator{ChainID: d.OutputTokenChainID, Address: common.HexToAddress(d.OutputTokenAddress)},
		LockParameters: pipeline.LockParameters{
			AllocatorID:  allocatorID,
			ResetPeriod:  d.LockParameters.ResetPeriod,
			IsMultichain: d.LockParameters.IsMultichain,
		},
	}

	ctx, err := d.Context.toPipelineContext()
	if err != nil {
		return pipeline.QuoteRequest{}, err
	}
	req.Context = ctx
	return req, nil
}

func (d quoteCtxDTO) toPipelineContext() (pipeline.QuoteContext, error) {
	var ctx pipeline.QuoteContext
	ctx.SlippageBips = d.SlippageBips

	if d.Recipient != nil {
		if !common.IsHexAddress(*d.Recipient) {
			return ctx, schemaViolation("context.recipient is not a valid address")
		}
		addr := common.HexToAddress(*d.Recipient)
		ctx.Recipient = &addr
	}
	if d.BaselinePriorityFee != nil {
		v, err := parseBigDecimal(*d.BaselinePriorityFee)
		if err != nil {
			return ctx, schemaViolation("context.baselinePriorityFee: " + err.Error())
		}
		ctx.BaselinePriorityFee = v
	}
	if d.ScalingFactor != nil {
		v, err := parseBigDecimal(*d.ScalingFactor)
		if err != nil {
			return ctx, schemaViolation("context.scalingFactor: " + err.Error())
		}
		ctx.ScalingFactor = v
	}
	if d.FillExpires != nil {
		v, err := parseInt64Decimal(*d.FillExpires)
		if err != nil {
			return ctx, schemaViolation("context.fillExpires: " + err.Error())
		}
		ctx.FillExpires = &v
	}
	if d.ClaimExpires != nil {
		v, err := parseInt64Decimal(*d.ClaimExpires)
		if err != nil {
			return ctx, schemaViolation("context.claimExpires: " + err.Error())
		}
		ctx.ClaimExpires = &v
	}
	return ctx, nil
}

// quoteResponseDTO mirrors §6's response shape exactly: a `data` compact
// payload and a `context` block of computed quantities.
type quoteResponseDTO struct {
	Data    compactDTO `json:"data"`
	Context contextDTO `json:"context"`
}

type compactDTO struct {
	Arbiter       string     `json:"arbiter"`
	Tribunal      string     `json:"tribunal"`
	Sponsor       string     `json:"sponsor"`
	Nonce         *string    `json:"nonce"`
	Expires       string     `json:"expires"`
	ID            string     `json:"id"`
	Amount        string     `json:"amount"`
	MaximumAmount *string    `json:"maximumAmount"`
	Mandate       mandateDTO `json:"mandate"`
}

type mandateDTO struct {
	ChainID             string `json:"chainId"`
	Tribunal            string `json:"tribunal"`
	Recipient           string `json:"recipient"`
	Expires             string `json:"expires"`
	Token               string `json:"token"`
	MinimumAmount       string `json:"minimumAmount"`
	BaselinePriorityFee string `json:"baselinePriorityFee"`
	ScalingFactor       string `json:"scalingFactor"`
	Salt                string `json:"salt"`
}

type contextDTO struct {
	Dispensation            *string `json:"dispensation"`
	DispensationUSD         *string `json:"dispensationUSD"`
	SpotOutputAmount        *string `json:"spotOutputAmount"`
	QuoteOutputAmountDirect *string `json:"quoteOutputAmountDirect"`
	QuoteOutputAmountNet    *string `json:"quoteOutputAmountNet"`
	DeltaAmount             *string `json:"deltaAmount"`
	WitnessHash             string  `json:"witnessHash"`
}

// fromPipelineResponse translates a pipeline.QuoteResponse into the wire
// DTO, rendering every big.Int as a base-10 string and every nil as JSON
// null per §6 ("All numeric fields in both directions are decimal strings").
func fromPipelineResponse(r *pipeline.QuoteResponse) quoteResponseDTO {
	m := r.ArbiterData.Mandate
	return quoteResponseDTO{
		Data: compactDTO{
			Arbiter:       r.ArbiterData.Arbiter.Hex(),
			Tribunal:      r.ArbiterData.Tribunal.Hex(),
			Sponsor:       r.ArbiterData.Sponsor.Hex(),
			Nonce:         nil,
			Expires:       bigString(r.ArbiterData.Expires),
			ID:            bigString(r.ArbiterData.ID),
			Amount:        bigString(r.ArbiterData.Amount),
			MaximumAmount: bigStringPtr(r.ArbiterData.MaximumAmount),
			Mandate: mandateDTO{
				ChainID:             bigString(m.ChainId),
				Tribunal:            m.Tribunal.Hex(),
				Recipient:           m.Recipient.Hex(),
				Expires:             bigString(m.Expires),
				Token:               m.Token.Hex(),
				MinimumAmount:       bigString(m.MinimumAmount),
				BaselinePriorityFee: bigString(m.BaselinePriorityFee),
				ScalingFactor:       bigString(m.ScalingFactor),
				Salt:                "0x" + common.Bytes2Hex(m.Salt[:]),
			},
		},
		Context: contextDTO{
			Dispensation:            bigStringPtr(r.TribunalQuote),
			DispensationUSD:         dispensationUSDString(r.TribunalQuoteUSDWei),
			SpotOutputAmount:        bigStringPtr(r.SpotOutputAmount),
			QuoteOutputAmountDirect: bigStringPtr(r.QuoteOutputAmountDirect),
			QuoteOutputAmountNet:    bigStringPtr(r.QuoteOutputAmountNet),
			DeltaAmount:             bigStringPtr(r.DeltaAmount),
			WitnessHash:             "0x" + common.Bytes2Hex(r.WitnessHash[:]),
		},
	}
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func bigStringPtr(v *big.Int) *string {
	if v == nil {
		return nil
	}
	s := v.String()
	return &s
}

// dispensationUSDString formats tribunalQuoteUsdWei (18-decimal fixed
// point) as "$X.XXXX" per §6, or nil when unavailable.
func dispensationUSDString(usdWei *big.Int) *string {
	if usdWei == nil {
		return nil
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(14), nil) // 1e18 / 1e4
	rounded := new(big.Int).Quo(usdWei, scale)
	whole := new(big.Int).Quo(rounded, big.NewInt(10000))
	frac := new(big.Int).Mod(rounded, big.NewInt(10000))
	s := fmt.Sprintf("$%s.%04d", whole.String(), frac.Int64())
	return &s
}

func parseBigDecimal(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("%q is not a base-10 integer", s)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("%q must be non-negative", s)
	}
	return v, nil
}

func parseInt64Decimal(s string) (int64, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || !v.IsInt64() {
		return 0, fmt.Errorf("%q is not a valid unix-seconds integer", s)
	}
	return v.Int64(), nil
}

func schemaViolation(msg string) error {
	return apperr.NewKindError(apperr.KindSchemaViolation, msg, nil)
}
