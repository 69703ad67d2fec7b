// cmd/calibrate is a one-shot debug CLI (D6): it runs a single quote
// through the same pipeline POST /quote uses, without standing up the
// HTTP server, for calibrating a new arbiter deployment.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/joho/godotenv"

	"calibrator.backend/internal/api"
	"calibrator.backend/internal/config"
	"calibrator.backend/internal/oracle"
	"calibrator.backend/internal/pipeline"
	"calibrator.backend/internal/router"
	"calibrator.backend/internal/rpcclient"
	"calibrator.backend/internal/tribunal"
)

type calibrateDeps struct {
	loadEnv   func() error
	loadCfg   func() *config.Config
	prepare   func(cfg *config.Config) *pipeline.Pipeline
	openInput func(path string) (io.ReadCloser, error)
	out       io.Writer
}

func defaultCalibrateDeps() calibrateDeps {
	return calibrateDeps{
		loadEnv: func() error { return godotenv.Load() },
		loadCfg: config.Load,
		prepare: func(cfg *config.Config) *pipeline.Pipeline {
			oracleClient := oracle.New(cfg.Oracle.CoingeckoAPIKey, cfg.Cache.PriceTTL, cfg.Cache.TokenInfoTTL)
			factory := rpcclient.NewFactory()
			routeQuoter := router.New(factory, cfg.Chains.RPCURLFor)
			tribunalClient := tribunal.New(factory, cfg.Chains.RPCURLFor)
			return pipeline.New(oracleClient, routeQuoter, tribunalClient)
		},
		openInput: func(path string) (io.ReadCloser, error) { return os.Open(path) },
		out:       os.Stdout,
	}
}

func runCalibrate(args []string, deps calibrateDeps) error {
	if deps.loadEnv == nil {
		deps.loadEnv = func() error { return godotenv.Load() }
	}
	if deps.loadCfg == nil {
		deps.loadCfg = config.Load
	}
	if deps.prepare == nil {
		deps.prepare = defaultCalibrateDeps().prepare
	}
	if deps.openInput == nil {
		deps.openInput = defaultCalibrateDeps().openInput
	}
	if deps.out == nil {
		deps.out = os.Stdout
	}

	fs := flag.NewFlagSet("calibrate", flag.ContinueOnError)
	requestPath := fs.String("request", "", "path to a JSON request file matching POST /quote's body; reads stdin if omitted")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := deps.loadEnv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	cfg := deps.loadCfg()

	var input io.ReadCloser
	if *requestPath == "" {
		input = io.NopCloser(os.Stdin)
	} else {
		f, err := deps.openInput(*requestPath)
		if err != nil {
			return fmt.Errorf("open request file: %w", err)
		}
		input = f
	}
	defer input.Close()

	req, err := api.DecodeQuoteRequest(input)
	if err != nil {
		return fmt.Errorf("parse quote request: %w", err)
	}

	p := deps.prepare(cfg)
	resp, err := p.Quote(context.Background(), req)
	if err != nil {
		return fmt.Errorf("quote: %w", err)
	}

	out, err := api.EncodeQuoteResponse(resp)
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}

	_, err = fmt.Fprintln(deps.out, string(out))
	return err
}

func main() {
	if err := runCalibrate(os.Args[1:], defaultCalibrateDeps()); err != nil {
		log.Fatal(err)
	}
}
