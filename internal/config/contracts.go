package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"frizo/binary_futures/internal/contract"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// ContractEntry is one contract definition in the contracts file.
// target_price_decimal is written in decimal notation ("120.5") and scaled by the
// price scale on load; the API and snapshots carry the fixed-point target_price.
type ContractEntry struct {
	ID                      string `yaml:"id"`
	OracleReference         string `yaml:"oracle_reference"`
	DurationSeconds         int64  `yaml:"duration_seconds"`
	ExpirationBufferSeconds int64  `yaml:"expiration_buffer_seconds"`
	TargetPrice             string `yaml:"target_price_decimal"`
	RequiredCollateral      string `yaml:"required_collateral"`
	EnforceSettlementWindow bool   `yaml:"enforce_settlement_window"`
	TiePolicy               string `yaml:"tie_policy"`
}

type contractsFile struct {
	Contracts []ContractEntry `yaml:"contracts"`
}

// ContractDefinition is a parsed ContractEntry, ready for contract.Manager.Create.
type ContractDefinition struct {
	ID     string
	Config contract.Config
}

// LoadContracts reads the contracts file at path.
func LoadContracts(path string, priceScale int32) ([]ContractDefinition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read contracts file: %w", err)
	}
	return ParseContracts(raw, priceScale)
}

// ParseContracts decodes YAML contract definitions and validates each of them.
// Unknown keys are rejected.
func ParseContracts(raw []byte, priceScale int32) ([]ContractDefinition, error) {
	var file contractsFile
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode contracts: %w", err)
	}

	defs := make([]ContractDefinition, 0, len(file.Contracts))
	seen := make(map[string]bool)
	for i, entry := range file.Contracts {
		cfg, err := entry.toConfig(priceScale)
		if err != nil {
			return nil, fmt.Errorf("contract #%d: %w", i, err)
		}
		if entry.ID != "" {
			if seen[entry.ID] {
				return nil, fmt.Errorf("contract #%d: duplicate id %s", i, entry.ID)
			}
			seen[entry.ID] = true
		}
		defs = append(defs, ContractDefinition{ID: entry.ID, Config: cfg})
	}
	return defs, nil
}

func (e ContractEntry) toConfig(priceScale int32) (contract.Config, error) {
	target, err := decimal.NewFromString(e.TargetPrice)
	if err != nil {
		return contract.Config{}, fmt.Errorf("target_price_decimal %q: %w", e.TargetPrice, err)
	}
	collateral, err := decimal.NewFromString(e.RequiredCollateral)
	if err != nil {
		return contract.Config{}, fmt.Errorf("required_collateral %q: %w", e.RequiredCollateral, err)
	}
	tie, err := contract.ParseTiePolicy(e.TiePolicy)
	if err != nil {
		return contract.Config{}, err
	}

	cfg := contract.NewConfig(e.OracleReference, e.DurationSeconds, e.ExpirationBufferSeconds,
		target.Shift(priceScale), collateral)
	cfg.EnforceSettlementWindow = e.EnforceSettlementWindow
	cfg.TiePolicy = tie

	if err := cfg.Validate(); err != nil {
		return contract.Config{}, err
	}
	return cfg, nil
}
