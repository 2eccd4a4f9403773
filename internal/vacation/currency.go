package vacation

import (
	"fmt"
	"strings"
)

// CurrencyLine is one destination currency with its BaseCurrency rate, if published.
type CurrencyLine struct {
	Name    string `json:"name"`
	Code    string `json:"code"`
	Rate    string `json:"rate,omitempty"`
	HasRate bool   `json:"has_rate"`
}

// String renders "Euro (1 USD = 0.92 EUR)", or just the name without a rate.
func (l CurrencyLine) String() string {
	if !l.HasRate {
		return l.Name
	}
	return fmt.Sprintf("%s (1 %s = %s %s)", l.Name, BaseCurrency, l.Rate, l.Code)
}

// CurrencyDisplay is the presentation of a country's currencies.
type CurrencyDisplay struct {
	Lines []CurrencyLine `json:"lines"`
}

// NewCurrencyDisplay pairs country currencies with rates by position.
// One line per currency name, in the country's order; missing rates yield no annotation.
func NewCurrencyDisplay(country CountryInfo, rates []ExchangeRate) CurrencyDisplay {
	lines := make([]CurrencyLine, len(country.CurrencyNames))
	for i, name := range country.CurrencyNames {
		lines[i].Name = name
		if i < len(country.CurrencyCodes) {
			lines[i].Code = country.CurrencyCodes[i]
		}
		if i < len(rates) && rates[i].Found {
			lines[i].Rate = rates[i].Rate
			lines[i].HasRate = true
		}
	}
	return CurrencyDisplay{Lines: lines}
}

func (d CurrencyDisplay) String() string {
	parts := make([]string, len(d.Lines))
	for i, l := range d.Lines {
		parts[i] = l.String()
	}
	return strings.Join(parts, ", ")
}
