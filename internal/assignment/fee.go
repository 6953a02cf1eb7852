package assignment

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/shopsphere/shopsphere-backend/pkg/config"
)

// FeePolicy prices a delivery based on whether the agent operates in
// the destination city.
type FeePolicy struct {
	baseFee      decimal.Decimal
	outOfCityFee decimal.Decimal
}

// NewFeePolicy parses the configured fee amounts.
func NewFeePolicy(cfg config.DeliveryConfig) (*FeePolicy, error) {
	base, err := decimal.NewFromString(cfg.BaseFee)
	if err != nil {
		return nil, fmt.Errorf("parsing base fee %q: %w", cfg.BaseFee, err)
	}
	outOfCity, err := decimal.NewFromString(cfg.OutOfCityFee)
	if err != nil {
		return nil, fmt.Errorf("parsing out-of-city fee %q: %w", cfg.OutOfCityFee, err)
	}
	return &FeePolicy{baseFee: base, outOfCityFee: outOfCity}, nil
}

// Fee returns the delivery fee for an agent homed in agentCity
// delivering to deliveryCity.
func (p *FeePolicy) Fee(agentCity, deliveryCity string) decimal.Decimal {
	if strings.EqualFold(strings.TrimSpace(agentCity), strings.TrimSpace(deliveryCity)) {
		return p.baseFee
	}
	return p.outOfCityFee
}
