package exchange

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/gooddeedstech/crypt2p-main-service-sub000/pkg/errors"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"
)

// RateSource resolves the current NGN rate for an asset.
type RateSource interface {
	RateNGN(asset string) (decimal.Decimal, error)
}

// RateConfig is one entry of the rates file.
type RateConfig struct {
	Symbol  string `yaml:"symbol"`
	Network string `yaml:"network"`
	RateNGN string `yaml:"rate_ngn"`
}

// RatesConfig is the rates file layout.
type RatesConfig struct {
	Rates []RateConfig `yaml:"rates"`
}

// FileRateSource serves rates from a yaml file loaded at startup.
type FileRateSource struct {
	rates map[string]decimal.Decimal
}

func LoadRateSource(ratesFile string) (*FileRateSource, error) {
	var ratesPath string
	if filepath.IsAbs(ratesFile) {
		ratesPath = ratesFile
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		ratesPath = filepath.Join(wd, ratesFile)
	}

	data, err := os.ReadFile(ratesPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", ratesFile, err)
	}

	var config RatesConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", ratesFile, err)
	}

	rates := make(map[string]decimal.Decimal, len(config.Rates))
	for i, entry := range config.Rates {
		if entry.Symbol == "" {
			return nil, fmt.Errorf("rate at index %d missing symbol", i)
		}
		rate, err := decimal.NewFromString(entry.RateNGN)
		if err != nil {
			return nil, fmt.Errorf("rate at index %d has invalid rate_ngn %q: %w", i, entry.RateNGN, err)
		}
		if rate.LessThanOrEqual(decimal.Zero) {
			return nil, fmt.Errorf("rate at index %d must be positive, got %s", i, entry.RateNGN)
		}
		rates[strings.ToUpper(entry.Symbol)] = rate
	}

	return &FileRateSource{rates: rates}, nil
}

// RateNGN returns the NGN rate for one unit of the asset.
func (s *FileRateSource) RateNGN(asset string) (decimal.Decimal, error) {
	rate, ok := s.rates[strings.ToUpper(asset)]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", apperrors.ErrRateUnavailable, asset)
	}
	return rate, nil
}

// StaticRateSource serves a fixed rate table; used by tests.
type StaticRateSource map[string]decimal.Decimal

func (s StaticRateSource) RateNGN(asset string) (decimal.Decimal, error) {
	rate, ok := s[strings.ToUpper(asset)]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", apperrors.ErrRateUnavailable, asset)
	}
	return rate, nil
}
