package vacation

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// geocoder is the interface satisfied by GeocoderClient.
type geocoder interface {
	Geocode(ctx context.Context, city string) (*Location, error)
}

// weatherFetcher is the interface satisfied by WeatherClient.
type weatherFetcher interface {
	Fetch(ctx context.Context, at Coordinates, day int64) (*WeatherDay, error)
}

// countriesFetcher is the interface satisfied by CountriesClient.
type countriesFetcher interface {
	Fetch(ctx context.Context, code string) (*CountryInfo, error)
}

// ratesFetcher is the interface satisfied by RatesClient.
type ratesFetcher interface {
	Rates(ctx context.Context, codes []string) ([]ExchangeRate, error)
}

// ItemSuggester looks up standard packing items; satisfied by storage.PackingRepository.
type ItemSuggester interface {
	SuggestItems(ctx context.Context, activityType, vacationType string) ([]string, error)
}

// Keys holds the upstream API credentials and optional base URL overrides.
type Keys struct {
	GeocodeKey  string
	WeatherKey  string
	CurrencyKey string

	GeocodeURL   string
	WeatherURL   string
	CountriesURL string
	RatesURL     string
}

// Planner builds an Itinerary for one vacation request.
type Planner struct {
	geocoder  geocoder
	weather   weatherFetcher
	countries countriesFetcher
	rates     ratesFetcher
	items     ItemSuggester
	log       *slog.Logger
}

// NewPlanner constructs a Planner with production clients; empty URLs use the public endpoints.
func NewPlanner(keys Keys, items ItemSuggester, log *slog.Logger) *Planner {
	return &Planner{
		geocoder:  NewGeocoderClientWithURL(orDefault(keys.GeocodeURL, geocodeDefaultURL), keys.GeocodeKey),
		weather:   NewWeatherClientWithURL(orDefault(keys.WeatherURL, weatherDefaultURL), keys.WeatherKey),
		countries: NewCountriesClientWithURL(orDefault(keys.CountriesURL, countriesDefaultURL)),
		rates:     NewRatesClientWithURL(orDefault(keys.RatesURL, ratesDefaultURL), keys.CurrencyKey),
		items:     items,
		log:       log,
	}
}

// NewPlannerWithClients constructs a Planner with injectable clients (used in tests).
func NewPlannerWithClients(g geocoder, w weatherFetcher, c countriesFetcher, r ratesFetcher, items ItemSuggester, log *slog.Logger) *Planner {
	return &Planner{geocoder: g, weather: w, countries: c, rates: r, items: items, log: log}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// Plan geocodes the city, then gathers country data, exchange rates and per-day weather
// concurrently, then suggests packing items. Any failure aborts the whole plan.
func (p *Planner) Plan(ctx context.Context, req VacationRequest, caller *Caller) (*Itinerary, error) {
	loc, err := p.geocoder.Geocode(ctx, req.City)
	if err != nil {
		return nil, err
	}
	p.log.Debug("geocoded", "city", req.City, "location", loc.City, "country", loc.CountryCode)

	days := Days(req.StartDate, req.EndDate)

	g, gCtx := errgroup.WithContext(ctx)

	var country *CountryInfo
	var rates []ExchangeRate
	var weather []WeatherDay

	g.Go(func() error {
		ci, err := p.countries.Fetch(gCtx, loc.CountryCode)
		if err != nil {
			return err
		}
		r, err := p.rates.Rates(gCtx, ci.CurrencyCodes)
		if err != nil {
			return err
		}
		country, rates = ci, r
		return nil
	})

	g.Go(func() error {
		wd, err := p.forecast(gCtx, loc.Coordinates, days)
		if err != nil {
			return err
		}
		weather = wd
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("planning trip to %s: %w", loc.City, err)
	}

	items, err := p.items.SuggestItems(ctx, req.ActivityType, req.VacationType)
	if err != nil {
		return nil, fmt.Errorf("%w: suggesting packing items: %w", ErrDataAccess, err)
	}

	return &Itinerary{
		City:        loc.City,
		Country:     loc.CountryName,
		Weather:     weather,
		CountryData: *country,
		Currencies:  NewCurrencyDisplay(*country, rates),
		Request:     req,
		Items:       items,
		Caller:      caller,
	}, nil
}

// forecast fetches every day concurrently. The first failure cancels the
// remaining fetches and no weather is returned at all.
func (p *Planner) forecast(ctx context.Context, at Coordinates, days []int64) ([]WeatherDay, error) {
	g, gCtx := errgroup.WithContext(ctx)
	out := make([]WeatherDay, len(days))

	for i, day := range days {
		i, day := i, day
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					p.log.Error("weather fetch panicked", "day", day, "recover", r)
					err = fmt.Errorf("weather fetch for %d panicked: %v", day, r)
				}
			}()
			wd, err := p.weather.Fetch(gCtx, at, day)
			if err != nil {
				return err
			}
			out[i] = *wd
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
