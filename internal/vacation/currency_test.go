package vacation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/vacation-planner/internal/vacation"
)

func TestNewCurrencyDisplay_MissingRateOmitsAnnotationOnly(t *testing.T) {
	country := vacation.CountryInfo{
		CurrencyNames: []string{"Swiss franc", "Euro", "Ghost coin"},
		CurrencyCodes: []string{"CHF", "EUR", "XGC"},
	}
	rates := []vacation.ExchangeRate{
		{Code: "CHF", Rate: "0.89", Found: true},
		{Code: "EUR", Rate: "0.92", Found: true},
		{Code: "XGC"},
	}

	d := vacation.NewCurrencyDisplay(country, rates)

	require.Len(t, d.Lines, 3)
	assert.Equal(t, "Swiss franc (1 USD = 0.89 CHF)", d.Lines[0].String())
	assert.Equal(t, "Euro (1 USD = 0.92 EUR)", d.Lines[1].String())
	assert.Equal(t, "Ghost coin", d.Lines[2].String())
	assert.False(t, d.Lines[2].HasRate)
	assert.Equal(t, "Swiss franc (1 USD = 0.89 CHF), Euro (1 USD = 0.92 EUR), Ghost coin", d.String())
}

func TestNewCurrencyDisplay_DoesNotMutateCountry(t *testing.T) {
	country := vacation.CountryInfo{
		CurrencyNames: []string{"Euro"},
		CurrencyCodes: []string{"EUR"},
	}
	_ = vacation.NewCurrencyDisplay(country, []vacation.ExchangeRate{{Code: "EUR", Rate: "0.92", Found: true}})

	assert.Equal(t, []string{"Euro"}, country.CurrencyNames)
}

func TestNewCurrencyDisplay_FewerRatesThanCurrencies(t *testing.T) {
	country := vacation.CountryInfo{
		CurrencyNames: []string{"Euro", "Pound"},
		CurrencyCodes: []string{"EUR", "GBP"},
	}
	d := vacation.NewCurrencyDisplay(country, nil)

	require.Len(t, d.Lines, 2)
	assert.Equal(t, "Euro, Pound", d.String())
}
