package exchange

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	apperrors "github.com/gooddeedstech/crypt2p-main-service-sub000/pkg/errors"

	"github.com/shopspring/decimal"
)

func writeRatesFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "rates.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write rates file: %v", err)
	}
	return path
}

func TestLoadRateSource(t *testing.T) {
	path := writeRatesFile(t, `
rates:
  - symbol: usdt
    network: ethereum
    rate_ngn: "1500"
  - symbol: BTC
    network: bitcoin
    rate_ngn: "98500000"
`)

	source, err := LoadRateSource(path)
	if err != nil {
		t.Fatalf("LoadRateSource failed: %v", err)
	}

	// Lookups are case-insensitive; symbols are stored uppercase.
	rate, err := source.RateNGN("USDT")
	if err != nil {
		t.Fatalf("RateNGN failed: %v", err)
	}
	if !rate.Equal(decimal.NewFromInt(1500)) {
		t.Errorf("Expected 1500, got %s", rate.String())
	}

	if _, err := source.RateNGN("btc"); err != nil {
		t.Errorf("Expected lowercase lookup to work: %v", err)
	}

	_, err = source.RateNGN("DOGE")
	if !errors.Is(err, apperrors.ErrRateUnavailable) {
		t.Errorf("Expected rate unavailable error, got: %v", err)
	}
}

func TestLoadRateSource_InvalidEntries(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"missing symbol", "rates:\n  - network: ethereum\n    rate_ngn: \"1500\"\n"},
		{"bad rate", "rates:\n  - symbol: USDT\n    rate_ngn: \"abc\"\n"},
		{"zero rate", "rates:\n  - symbol: USDT\n    rate_ngn: \"0\"\n"},
		{"negative rate", "rates:\n  - symbol: USDT\n    rate_ngn: \"-3\"\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeRatesFile(t, tc.content)
			if _, err := LoadRateSource(path); err == nil {
				t.Error("Expected load to fail")
			}
		})
	}
}

func TestLoadRateSource_MissingFile(t *testing.T) {
	if _, err := LoadRateSource(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}
