// Package oracle implements UsdOracle (C1): USD price discovery for a
// (chainId, address) token pair via a CoinGecko-style HTTP API, with
// process-global TTL caches for the platform table, token metadata, and
// prices (§4.1, §5).
package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"calibrator.backend/internal/apperr"
	"calibrator.backend/internal/cache"
	"calibrator.backend/internal/chains"
	"calibrator.backend/pkg/metrics"
)

const metricsSource = "coingecko"

const defaultBaseURL = "https://api.coingecko.com/api/v3"

// usdScale is the 10^18 fixed-point scale every price_wei value is expressed
// in (§3: "Prices are always represented in base-10⁻¹⁸ fixed point").
var usdScale = new(big.Float).SetFloat64(1e18)

// TokenRef identifies a token by chain and address, the zero address
// meaning the chain's native token.
type TokenRef struct {
	ChainID uint64
	Address common.Address
}

// TokenInfo is the looked-up decimals/symbol pair for a TokenRef.
type TokenInfo struct {
	Decimals uint8
	Symbol   string
}

// Oracle is the UsdOracle implementation.
type Oracle struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client

	platforms *cache.TTLCache[map[string]struct{}]
	tokenInfo *cache.TTLCache[TokenInfo]
	prices    *cache.TTLCache[*big.Int]
}

// New builds an Oracle. priceTTL/tokenInfoTTL come from config (D1); the
// platform-enumeration cache never expires per the C1 contract.
func New(apiKey string, priceTTL, tokenInfoTTL time.Duration) *Oracle {
	return &Oracle{
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		platforms: cache.New[map[string]struct{}](0),
		tokenInfo: cache.New[TokenInfo](tokenInfoTTL),
		prices:    cache.New[*big.Int](priceTTL),
	}
}

// chainToPlatformTable maps the reference deployment's chain ids to their
// CoinGecko asset-platform id.
var chainToPlatformTable = map[uint64]string{
	chains.Mainnet:  "ethereum",
	chains.Optimism: "optimistic-ethereum",
	chains.Base:     "base",
	chains.Unichain: "unichain",
}

// ChainToPlatform maps a known chainId to its CoinGecko platform id, failing
// UnsupportedChain if absent.
func (o *Oracle) ChainToPlatform(chainID uint64) (string, error) {
	platform, ok := chainToPlatformTable[chainID]
	if !ok {
		return "", apperr.NewKindError(apperr.KindUnsupportedChain,
			fmt.Sprintf("unsupported chain %d", chainID), nil)
	}
	return platform, nil
}

// Platforms fetches the CoinGecko asset-platform set once per process and
// caches it indefinitely.
func (o *Oracle) Platforms(ctx context.Context) (map[string]struct{}, error) {
	return o.platforms.GetOrFetch(ctx, "platforms", o.fetchPlatforms)
}

func (o *Oracle) fetchPlatforms(ctx context.Context) (map[string]struct{}, error) {
	u := o.baseURL + "/asset_platforms" + o.authQuery("?")

	var raw []struct {
		ID string `json:"id"`
	}
	if err := o.getJSON(ctx, u, &raw); err != nil {
		return nil, oracleUnavailable("fetch platforms", err)
	}

	set := make(map[string]struct{}, len(raw))
	for _, p := range raw {
		set[p.ID] = struct{}{}
	}
	return set, nil
}

// TokenInfo returns decimals/symbol for a token, TTL 24h. The zero address
// is the chain's native token and is answered {18, "ETH"} without a
// network round trip.
func (o *Oracle) TokenInfo(ctx context.Context, token TokenRef) (TokenInfo, error) {
	if chains.IsNative(token.Address) {
		return TokenInfo{Decimals: 18, Symbol: "ETH"}, nil
	}

	key := tokenKey(token)
	info, err := o.tokenInfo.GetOrFetch(ctx, key, func(ctx context.Context) (TokenInfo, error) {
		platform, err := o.ChainToPlatform(token.ChainID)
		if err != nil {
			return TokenInfo{}, err
		}

		var raw struct {
			Symbol          string `json:"symbol"`
			DetailPlatforms map[string]struct {
				DecimalPlace *int `json:"decimal_place"`
			} `json:"detail_platforms"`
		}
		u := fmt.Sprintf("%s/coins/%s/contract/%s%s", o.baseURL, platform,
			strings.ToLower(token.Address.Hex()), o.authQuery("?"))
		if err := o.getJSON(ctx, u, &raw); err != nil {
			return TokenInfo{}, oracleUnavailable("fetch token info", err)
		}

		decimals := uint8(18)
		if dp, ok := raw.DetailPlatforms[platform]; ok && dp.DecimalPlace != nil {
			decimals = uint8(*dp.DecimalPlace)
		}
		return TokenInfo{Decimals: decimals, Symbol: strings.ToUpper(raw.Symbol)}, nil
	})
	if err != nil {
		metrics.RecordOracleCall(metricsSource, "error")
		return TokenInfo{}, err
	}
	metrics.RecordOracleCall(metricsSource, "ok")
	return info, nil
}

// UsdPrice returns the token's USD price as an 18-decimal fixed-point
// integer (price_wei), TTL from config.Cache.PriceTTL.
func (o *Oracle) UsdPrice(ctx context.Context, token TokenRef) (*big.Int, error) {
	key := tokenKey(token)
	price, err := o.prices.GetOrFetch(ctx, key, func(ctx context.Context) (*big.Int, error) {
		platform, err := o.ChainToPlatform(token.ChainID)
		if err != nil {
			return nil, err
		}

		address := strings.ToLower(token.Address.Hex())
		var usd float64
		if chains.IsNative(token.Address) {
			usd, err = o.nativeUsdPrice(ctx, platform)
		} else {
			var raw struct {
				MarketData struct {
					CurrentPrice struct {
						USD float64 `json:"usd"`
					} `json:"current_price"`
				} `json:"market_data"`
			}
			u := fmt.Sprintf("%s/coins/%s/contract/%s%s", o.baseURL, platform, address, o.authQuery("?"))
			if jerr := o.getJSON(ctx, u, &raw); jerr != nil {
				return nil, oracleUnavailable("fetch usd price", jerr)
			}
			usd = raw.MarketData.CurrentPrice.USD
		}
		if err != nil {
			return nil, oracleUnavailable("fetch usd price", err)
		}

		priceFloat := new(big.Float).Mul(new(big.Float).SetFloat64(usd), usdScale)
		priceWei, _ := priceFloat.Int(nil)
		return priceWei, nil
	})
	if err != nil {
		metrics.RecordOracleCall(metricsSource, "error")
		return nil, err
	}
	metrics.RecordOracleCall(metricsSource, "ok")
	return price, nil
}

// nativeUsdPrice resolves the USD price of a chain's native coin via the
// `/coins/{id}` endpoint. The coin id is "ethereum" for every platform, since
// every chain in the reference deployment uses ETH as its native coin.
func (o *Oracle) nativeUsdPrice(ctx context.Context, platform string) (float64, error) {
	coinID := "ethereum"
	if platform == "unichain" {
		coinID = "ethereum"
	}
	var raw struct {
		MarketData struct {
			CurrentPrice struct {
				USD float64 `json:"usd"`
			} `json:"current_price"`
		} `json:"market_data"`
	}
	u := fmt.Sprintf("%s/coins/%s%s", o.baseURL, coinID, o.authQuery("?"))
	if err := o.getJSON(ctx, u, &raw); err != nil {
		return 0, err
	}
	return raw.MarketData.CurrentPrice.USD, nil
}

func (o *Oracle) authQuery(sep string) string {
	if o.apiKey == "" {
		return ""
	}
	return sep + "x_cg_demo_api_key=" + url.QueryEscape(o.apiKey)
}

func (o *Oracle) getJSON(ctx context.Context, u string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("coingecko: HTTP %d for %s", resp.StatusCode, u)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func tokenKey(token TokenRef) string {
	return fmt.Sprintf("%d:%s", token.ChainID, strings.ToLower(token.Address.Hex()))
}

func oracleUnavailable(op string, err error) *apperr.AppError {
	return apperr.NewKindError(apperr.KindOracleUnavailable, fmt.Sprintf("oracle: %s: %v", op, err), err)
}
