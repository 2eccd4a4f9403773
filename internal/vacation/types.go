package vacation

import "time"

// Coordinates is a latitude/longitude pair as returned by the geocoder.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Location is the normalized first geocoding match for a city.
type Location struct {
	City        string      `json:"city"`
	Coordinates Coordinates `json:"coordinates"`
	CountryCode string      `json:"country_code"`
	CountryName string      `json:"country_name"`
}

// VacationRequest is the form submitted by the traveler.
type VacationRequest struct {
	City         string    `json:"city"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	ActivityType string    `json:"activity_type"`
	VacationType string    `json:"vacation_type"`
}

// WeatherDay is the daily summary for one vacation day.
type WeatherDay struct {
	Date           string  `json:"date"`
	Summary        string  `json:"summary"`
	TemperatureAvg int     `json:"temperature_avg"`
	PrecipType     *string `json:"precip_type,omitempty"`
	IconRef        string  `json:"icon_ref"`
}

// CountryInfo holds destination country metadata.
// CurrencyNames and CurrencyCodes are parallel slices.
type CountryInfo struct {
	Name          string   `json:"name"`
	Capital       string   `json:"capital"`
	Population    int64    `json:"population"`
	Borders       []string `json:"borders"`
	CurrencyNames []string `json:"currency_names"`
	CurrencyCodes []string `json:"currency_codes"`
	Languages     []string `json:"languages"`
	FlagURL       string   `json:"flag_url"`
}

// ExchangeRate is the BaseCurrency rate for one currency code.
// Found is false when the rates table has no entry for Code.
type ExchangeRate struct {
	Code  string `json:"code"`
	Rate  string `json:"rate,omitempty"`
	Found bool   `json:"found"`
}

// Caller is the signed-in traveler, if any.
type Caller struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Itinerary is the view model rendered on the result page.
type Itinerary struct {
	City        string          `json:"city"`
	Country     string          `json:"country"`
	Weather     []WeatherDay    `json:"weather"`
	CountryData CountryInfo     `json:"country_data"`
	Currencies  CurrencyDisplay `json:"currencies"`
	Request     VacationRequest `json:"request"`
	Items       []string        `json:"items"`
	Caller      *Caller         `json:"caller,omitempty"`
	// TripID is always nil: planned itineraries are not saved.
	TripID *int64 `json:"trip_id"`
}
