package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"calibrator.backend/internal/config"
	"calibrator.backend/internal/oracle"
	"calibrator.backend/internal/pipeline"
	"calibrator.backend/internal/router"
	"calibrator.backend/internal/tribunal"
)

type fakePriceOracle struct{}

func (fakePriceOracle) UsdPrice(context.Context, oracle.TokenRef) (*big.Int, error) {
	return big.NewInt(1_000_000_000_000_000_000), nil
}
func (fakePriceOracle) TokenInfo(context.Context, oracle.TokenRef) (oracle.TokenInfo, error) {
	return oracle.TokenInfo{Decimals: 18, Symbol: "X"}, nil
}

type fakeRouteQuoter struct{}

func (fakeRouteQuoter) Quote(_ context.Context, q router.Quote) (*router.RouteQuote, error) {
	if q.Dispensation == nil {
		return &router.RouteQuote{Direct: big.NewInt(1_000_000_000_000_000_000), Net: big.NewInt(1_000_000_000_000_000_000)}, nil
	}
	return &router.RouteQuote{Direct: big.NewInt(1_000_000_000_000_000_000), Net: new(big.Int).Sub(big.NewInt(1_000_000_000_000_000_000), q.Dispensation)}, nil
}

type fakeDispensationSimulator struct{}

func (fakeDispensationSimulator) SimulateDispensation(context.Context, uint64, tribunal.Claim, tribunal.Mandate, common.Address) (*big.Int, error) {
	return big.NewInt(50_000_000_000_000_000), nil
}

// Same-chain input/output: not one of the 12 directed pairs ArbiterRegistry
// populates, so this always hits NoArbiterForChainPair.
const validRequestJSON = `{
	"sponsor": "0x1100000000000000000000000000000000000011",
	"inputTokenChainId": 10,
	"inputTokenAddress": "0x4400000000000000000000000000000000000044",
	"inputTokenAmount": "1000000000000000000",
	"outputTokenChainId": 10,
	"outputTokenAddress": "0x5500000000000000000000000000000000000055",
	"lockParameters": {
		"allocatorId": "123",
		"resetPeriod": 4,
		"isMultichain": true
	}
}`

func testDeps(t *testing.T, input string) (calibrateDeps, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	return calibrateDeps{
		loadEnv: func() error { return nil },
		loadCfg: func() *config.Config { return &config.Config{} },
		prepare: func(*config.Config) *pipeline.Pipeline {
			return pipeline.New(
				fakePriceOracle{},
				fakeRouteQuoter{},
				fakeDispensationSimulator{},
			)
		},
		openInput: func(path string) (io.ReadCloser, error) {
			if path != "req.json" {
				return nil, errors.New("unexpected path")
			}
			return io.NopCloser(strings.NewReader(input)), nil
		},
		out: out,
	}, out
}

func TestRunCalibrate_MissingArbiterIsFatal(t *testing.T) {
	deps, _ := testDeps(t, validRequestJSON)
	err := runCalibrate([]string{"-request", "req.json"}, deps)
	if err == nil {
		t.Fatal("expected an error: no registry entry fixed for this fake pipeline's chain pair")
	}
}

func TestRunCalibrate_BadRequestFile(t *testing.T) {
	deps, _ := testDeps(t, "not json")
	err := runCalibrate([]string{"-request", "req.json"}, deps)
	if err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestRunCalibrate_OpenInputError(t *testing.T) {
	deps, _ := testDeps(t, validRequestJSON)
	deps.openInput = func(string) (io.ReadCloser, error) { return nil, errors.New("no such file") }
	err := runCalibrate([]string{"-request", "missing.json"}, deps)
	if err == nil {
		t.Fatal("expected an open error")
	}
}
