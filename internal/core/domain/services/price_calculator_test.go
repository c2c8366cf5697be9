package services_test

import (
	"testing"

	"parcellocker/internal/core/domain/model/kernel"
	"parcellocker/internal/core/domain/model/locker"
	"parcellocker/internal/core/domain/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceCalculator_Calculate(t *testing.T) {
	calc := services.NewPriceCalculator(services.DefaultBasePrice, services.DefaultCentralSurcharge)

	tests := []struct {
		location string
		expected int64
	}{
		{location: "Central Tower, lobby", expected: 150},
		{location: "SUKHBAATAR CENTRAL", expected: 150},
		{location: "Zaisan", expected: 100},
		{location: "", expected: 100},
	}

	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			c, err := locker.NewContainer(kernel.NewUUID(), "BOARD_001", tt.location)
			require.NoError(t, err)

			assert.Equal(t, tt.expected, calc.Calculate(c))
		})
	}

	assert.Equal(t, int64(100), calc.Calculate(nil))
}

func TestNewPriceCalculator_Defaults(t *testing.T) {
	calc := services.NewPriceCalculator(0, -5)
	c, _ := locker.NewContainer(kernel.NewUUID(), "BOARD_001", "central")

	assert.Equal(t, services.DefaultBasePrice, calc.Calculate(c))
}
