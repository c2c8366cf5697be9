package services

import (
	"strings"

	"parcellocker/internal/core/domain/model/locker"
)

const (
	DefaultBasePrice        int64 = 100
	DefaultCentralSurcharge int64 = 50
)

// PriceCalculator computes the pickup charge in MNT. Containers whose location
// mentions "central" carry a surcharge.
type PriceCalculator struct {
	basePrice        int64
	centralSurcharge int64
}

func NewPriceCalculator(basePrice, centralSurcharge int64) PriceCalculator {
	if basePrice <= 0 {
		basePrice = DefaultBasePrice
	}
	if centralSurcharge < 0 {
		centralSurcharge = 0
	}
	return PriceCalculator{basePrice: basePrice, centralSurcharge: centralSurcharge}
}

func (c PriceCalculator) Calculate(container *locker.Container) int64 {
	price := c.basePrice
	if container != nil && strings.Contains(strings.ToLower(container.Location()), "central") {
		price += c.centralSurcharge
	}
	return price
}
