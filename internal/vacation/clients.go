package vacation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/neexbeast/vacation-planner/internal/observability"
)

const (
	// UpstreamTimeout bounds every outbound HTTP call.
	UpstreamTimeout = 10 * time.Second

	// BaseCurrency is the currency every exchange rate is quoted against.
	BaseCurrency = "USD"
)

// upstream is one external JSON API behind its own circuit breaker.
// Errors never carry the request URL, which holds API keys.
type upstream struct {
	service string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

func newUpstream(service string) *upstream {
	return &upstream{
		service: service,
		client:  &http.Client{Timeout: UpstreamTimeout},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:     service,
			Interval: time.Minute,
			Timeout:  30 * time.Second,
			// Calls canceled mid-flight count as successes, so trip on the failure ratio.
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.Requests >= 5 && counts.TotalFailures*2 >= counts.Requests
			},
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, context.Canceled)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				slog.Warn("circuit breaker state changed", "service", name, "from", from.String(), "to", to.String())
			},
		}),
	}
}

// getJSON performs a GET through the breaker and decodes the JSON response into dst.
// A call whose context is already done never reaches the breaker.
func (u *upstream) getJSON(ctx context.Context, rawURL string, dst any) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %s request: %w", ErrUpstream, u.service, err)
	}

	_, err := u.breaker.Execute(func() (any, error) {
		return nil, u.doGet(ctx, rawURL, dst)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %s: %w", ErrUpstream, u.service, err)
	}
	return err
}

func (u *upstream) doGet(ctx context.Context, rawURL string, dst any) error {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("%w: creating %s request: %w", ErrUpstream, u.service, unwrapURLError(err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := u.client.Do(req)
	if err != nil {
		observability.ObserveUpstream(u.service, "error", time.Since(start))
		return fmt.Errorf("%w: %s request: %w", ErrUpstream, u.service, unwrapURLError(err))
	}
	defer resp.Body.Close()

	observability.ObserveUpstream(u.service, observability.StatusLabel(resp.StatusCode), time.Since(start))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s returned status %d", ErrUpstream, u.service, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: decoding %s response: %w", ErrMalformedResponse, u.service, err)
	}

	return nil
}

// unwrapURLError drops the *url.Error wrapper so the URL (and its key) is not echoed.
func unwrapURLError(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return ue.Err
	}
	return err
}

// ---- Google Geocoding ----

// GeocoderClient resolves free-text city names through the Google Geocoding API.
type GeocoderClient struct {
	apiKey  string
	baseURL string
	up      *upstream
}

const geocodeDefaultURL = "https://maps.googleapis.com/maps/api/geocode/json"

// NewGeocoderClient constructs a GeocoderClient with the given API key.
func NewGeocoderClient(apiKey string) *GeocoderClient {
	return NewGeocoderClientWithURL(geocodeDefaultURL, apiKey)
}

// NewGeocoderClientWithURL constructs a GeocoderClient pointing at a custom base URL.
func NewGeocoderClientWithURL(baseURL, apiKey string) *GeocoderClient {
	return &GeocoderClient{apiKey: apiKey, baseURL: baseURL, up: newUpstream("geocode")}
}

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location Coordinates `json:"location"`
		} `json:"geometry"`
		AddressComponents []struct {
			LongName  string   `json:"long_name"`
			ShortName string   `json:"short_name"`
			Types     []string `json:"types"`
		} `json:"address_components"`
	} `json:"results"`
}

// Geocode returns the first match for city.
func (c *GeocoderClient) Geocode(ctx context.Context, city string) (*Location, error) {
	endpoint := c.baseURL + "?address=" + url.QueryEscape(city) + "&key=" + url.QueryEscape(c.apiKey)

	var raw geocodeResponse
	if err := c.up.getJSON(ctx, endpoint, &raw); err != nil {
		return nil, fmt.Errorf("geocoding %s: %w", city, err)
	}

	switch raw.Status {
	case "", "OK":
	case "ZERO_RESULTS":
		return nil, fmt.Errorf("geocoding %s: %w", city, ErrNotFound)
	default:
		return nil, fmt.Errorf("geocoding %s: %w: status %s", city, ErrUpstream, raw.Status)
	}

	if len(raw.Results) == 0 {
		return nil, fmt.Errorf("geocoding %s: %w", city, ErrNotFound)
	}
	first := raw.Results[0]

	loc := &Location{
		City:        strings.TrimSpace(strings.SplitN(first.FormattedAddress, ",", 2)[0]),
		Coordinates: first.Geometry.Location,
	}
	for _, comp := range first.AddressComponents {
		if slices.Contains(comp.Types, "country") {
			loc.CountryCode = comp.ShortName
			loc.CountryName = comp.LongName
			break
		}
	}
	if loc.CountryCode == "" {
		return nil, fmt.Errorf("geocoding %s: %w: no country component", city, ErrMalformedResponse)
	}

	return loc, nil
}

// ---- Dark Sky compatible forecast (Pirate Weather) ----

// WeatherClient fetches daily aggregates from a Dark Sky compatible API.
type WeatherClient struct {
	apiKey  string
	baseURL string
	up      *upstream
}

const weatherDefaultURL = "https://api.pirateweather.net/forecast"

// NewWeatherClient constructs a WeatherClient with the given API key.
func NewWeatherClient(apiKey string) *WeatherClient {
	return NewWeatherClientWithURL(weatherDefaultURL, apiKey)
}

// NewWeatherClientWithURL constructs a WeatherClient pointing at a custom base URL.
func NewWeatherClientWithURL(baseURL, apiKey string) *WeatherClient {
	return &WeatherClient{apiKey: apiKey, baseURL: baseURL, up: newUpstream("weather")}
}

type darkSkyDay struct {
	Time            int64   `json:"time"`
	Summary         string  `json:"summary"`
	TemperatureHigh float64 `json:"temperatureHigh"`
	TemperatureLow  float64 `json:"temperatureLow"`
	PrecipType      *string `json:"precipType"`
	Icon            string  `json:"icon"`
}

type darkSkyResponse struct {
	// Offset is the destination's UTC offset in hours; daily times are local midnights.
	Offset float64 `json:"offset"`
	Daily  struct {
		Data []darkSkyDay `json:"data"`
	} `json:"daily"`
}

// Fetch returns the weather for the day starting at the unix timestamp day.
// A zero day asks for the current forecast instead of a time-machine request.
func (c *WeatherClient) Fetch(ctx context.Context, at Coordinates, day int64) (*WeatherDay, error) {
	endpoint := fmt.Sprintf("%s/%s/%s,%s", c.baseURL, url.PathEscape(c.apiKey),
		strconv.FormatFloat(at.Lat, 'f', -1, 64), strconv.FormatFloat(at.Lng, 'f', -1, 64))
	if day != 0 {
		endpoint += "," + strconv.FormatInt(day, 10)
	}

	var raw darkSkyResponse
	if err := c.up.getJSON(ctx, endpoint, &raw); err != nil {
		return nil, fmt.Errorf("weather fetch for %d: %w", day, err)
	}
	if len(raw.Daily.Data) == 0 {
		return nil, fmt.Errorf("weather fetch for %d: %w: no daily data", day, ErrMalformedResponse)
	}

	wd := toWeatherDay(raw.Daily.Data[0], raw.Offset)
	return &wd, nil
}

// toWeatherDay labels the day in the destination's zone so the label matches its local date.
func toWeatherDay(d darkSkyDay, offsetHours float64) WeatherDay {
	zone := time.FixedZone("", int(math.Round(offsetHours*3600)))

	icon := d.Icon
	if icon == "" {
		icon = "undefined"
	}
	return WeatherDay{
		Date:           time.Unix(d.Time, 0).In(zone).Format("Mon Jan 02"),
		Summary:        d.Summary,
		TemperatureAvg: int(math.Round((d.TemperatureHigh + d.TemperatureLow) / 2)),
		PrecipType:     d.PrecipType,
		IconRef:        "/static/img/icons/" + icon + ".png",
	}
}

// ---- RestCountries ----

// CountriesClient fetches country metadata from RestCountries v2 (no API key required).
type CountriesClient struct {
	baseURL string
	up      *upstream
}

const countriesDefaultURL = "https://restcountries.com/v2/alpha"

// NewCountriesClient constructs a CountriesClient.
func NewCountriesClient() *CountriesClient {
	return NewCountriesClientWithURL(countriesDefaultURL)
}

// NewCountriesClientWithURL constructs a CountriesClient pointing at a custom base URL.
func NewCountriesClientWithURL(baseURL string) *CountriesClient {
	return &CountriesClient{baseURL: baseURL, up: newUpstream("countries")}
}

type restCountry struct {
	Name       string   `json:"name"`
	Capital    string   `json:"capital"`
	Population int64    `json:"population"`
	Borders    []string `json:"borders"`
	Currencies []struct {
		Code string `json:"code"`
		Name string `json:"name"`
	} `json:"currencies"`
	Languages []struct {
		Name string `json:"name"`
	} `json:"languages"`
	Flag string `json:"flag"`
}

// Fetch retrieves the country with the given ISO alpha-2 or alpha-3 code.
func (c *CountriesClient) Fetch(ctx context.Context, code string) (*CountryInfo, error) {
	endpoint := c.baseURL + "/" + url.PathEscape(code) + "?fullText=true"

	var raw restCountry
	if err := c.up.getJSON(ctx, endpoint, &raw); err != nil {
		return nil, fmt.Errorf("restcountries fetch for %s: %w", code, err)
	}
	if raw.Currencies == nil {
		return nil, fmt.Errorf("restcountries fetch for %s: %w: no currencies", code, ErrMalformedResponse)
	}

	info := &CountryInfo{
		Name:          raw.Name,
		Capital:       raw.Capital,
		Population:    raw.Population,
		Borders:       append([]string{}, raw.Borders...),
		CurrencyNames: make([]string, 0, len(raw.Currencies)),
		CurrencyCodes: make([]string, 0, len(raw.Currencies)),
		Languages:     make([]string, 0, len(raw.Languages)),
		FlagURL:       raw.Flag,
	}
	for _, cur := range raw.Currencies {
		info.CurrencyNames = append(info.CurrencyNames, cur.Name)
		info.CurrencyCodes = append(info.CurrencyCodes, cur.Code)
	}
	for _, lang := range raw.Languages {
		info.Languages = append(info.Languages, lang.Name)
	}

	return info, nil
}

// ---- Open Exchange Rates ----

// RatesClient fetches BaseCurrency exchange rates from Open Exchange Rates.
type RatesClient struct {
	appID   string
	baseURL string
	up      *upstream
}

const ratesDefaultURL = "https://openexchangerates.org/api/latest.json"

// NewRatesClient constructs a RatesClient with the given app id.
func NewRatesClient(appID string) *RatesClient {
	return NewRatesClientWithURL(ratesDefaultURL, appID)
}

// NewRatesClientWithURL constructs a RatesClient pointing at a custom base URL.
func NewRatesClientWithURL(baseURL, appID string) *RatesClient {
	return &RatesClient{appID: appID, baseURL: baseURL, up: newUpstream("rates")}
}

type ratesResponse struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
}

// Rates returns one ExchangeRate per code, in the order given.
// The whole rate table is fetched in a single call.
func (c *RatesClient) Rates(ctx context.Context, codes []string) ([]ExchangeRate, error) {
	if len(codes) == 0 {
		return []ExchangeRate{}, nil
	}

	endpoint := c.baseURL + "?app_id=" + url.QueryEscape(c.appID) + "&base=" + BaseCurrency

	var raw ratesResponse
	if err := c.up.getJSON(ctx, endpoint, &raw); err != nil {
		return nil, fmt.Errorf("exchange rates fetch: %w", err)
	}
	if raw.Rates == nil {
		return nil, fmt.Errorf("exchange rates fetch: %w: no rates", ErrMalformedResponse)
	}

	rates := make([]ExchangeRate, len(codes))
	for i, code := range codes {
		rates[i] = ExchangeRate{Code: code}
		if v, ok := raw.Rates[code]; ok {
			rates[i].Rate = strconv.FormatFloat(v, 'f', 2, 64)
			rates[i].Found = true
		}
	}

	return rates, nil
}
