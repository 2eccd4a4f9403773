package api_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/vacation-planner/internal/api"
	"github.com/neexbeast/vacation-planner/internal/session"
	"github.com/neexbeast/vacation-planner/internal/vacation"
)

// ---- mock implementations ----

type mockPlanner struct {
	planFn func(ctx context.Context, req vacation.VacationRequest, caller *vacation.Caller) (*vacation.Itinerary, error)
}

func (m *mockPlanner) Plan(ctx context.Context, req vacation.VacationRequest, caller *vacation.Caller) (*vacation.Itinerary, error) {
	return m.planFn(ctx, req, caller)
}

type mockOptions struct {
	activitiesFn func(ctx context.Context) ([]string, error)
	vacationsFn  func(ctx context.Context) ([]string, error)
}

func (m *mockOptions) ListActivityTypes(ctx context.Context) ([]string, error) {
	return m.activitiesFn(ctx)
}
func (m *mockOptions) ListVacationTypes(ctx context.Context) ([]string, error) {
	return m.vacationsFn(ctx)
}

type mockSessions struct {
	callerFn func(ctx context.Context, sessionID string) (*vacation.Caller, error)
}

func (m *mockSessions) Caller(ctx context.Context, sessionID string) (*vacation.Caller, error) {
	return m.callerFn(ctx, sessionID)
}

type mockPinger struct{ err error }

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

// ---- helpers ----

func staticOptions() *mockOptions {
	return &mockOptions{
		activitiesFn: func(_ context.Context) ([]string, error) { return []string{"Hiking", "Skiing"}, nil },
		vacationsFn:  func(_ context.Context) ([]string, error) { return []string{"Beach", "City"}, nil },
	}
}

func anonymous() *mockSessions {
	return &mockSessions{
		callerFn: func(_ context.Context, _ string) (*vacation.Caller, error) { return nil, nil },
	}
}

func unusedPlanner(t *testing.T) *mockPlanner {
	return &mockPlanner{
		planFn: func(_ context.Context, _ vacation.VacationRequest, _ *vacation.Caller) (*vacation.Itinerary, error) {
			t.Fatal("planner should not be called")
			return nil, nil
		},
	}
}

type routerOpts struct {
	planner  api.TripPlanner
	options  api.FormOptions
	sessions api.CallerResolver
	db       *mockPinger
	redis    *mockPinger
	limit    int
}

func buildRouter(t *testing.T, o routerOpts) http.Handler {
	t.Helper()
	if o.options == nil {
		o.options = staticOptions()
	}
	if o.sessions == nil {
		o.sessions = anonymous()
	}
	if o.db == nil {
		o.db = &mockPinger{}
	}
	if o.redis == nil {
		o.redis = &mockPinger{}
	}
	if o.limit == 0 {
		o.limit = 60
	}

	views, err := api.NewViews()
	require.NoError(t, err)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	handlers := api.NewHandlers(o.planner, o.options, views, log)
	return api.NewRouter(handlers, api.RouterDeps{
		Sessions:           o.sessions,
		DB:                 o.db,
		Redis:              o.redis,
		RateLimitPerMinute: o.limit,
		Log:                log,
	})
}

func do(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func planForm(city, start, end string) *http.Request {
	form := url.Values{
		"city":          {city},
		"start_date":    {start},
		"end_date":      {end},
		"activity_type": {"hiking"},
		"vacation_type": {"Beach"},
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func sampleItinerary() *vacation.Itinerary {
	rain := "rain"
	portugal := vacation.CountryInfo{
		Name:          "Portugal",
		Capital:       "Lisbon",
		Population:    10305564,
		Borders:       []string{"ESP"},
		CurrencyNames: []string{"Euro"},
		CurrencyCodes: []string{"EUR"},
		Languages:     []string{"Portuguese"},
	}
	return &vacation.Itinerary{
		City:    "Lisbon",
		Country: "Portugal",
		Weather: []vacation.WeatherDay{
			{Date: "Sat Jun 01", Summary: "Light rain", TemperatureAvg: 70, PrecipType: &rain, IconRef: "/static/img/icons/rain.png"},
		},
		CountryData: portugal,
		Currencies: vacation.NewCurrencyDisplay(portugal, []vacation.ExchangeRate{
			{Code: "EUR", Rate: "0.92", Found: true},
		}),
		Request: vacation.VacationRequest{
			City:         "Lisbon",
			StartDate:    time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
			EndDate:      time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
			ActivityType: "hiking",
			VacationType: "Beach",
		},
		Items: []string{"Sunscreen", "Hat"},
	}
}

// ---- GET / ----

func TestIndex_RendersFormOptions(t *testing.T) {
	router := buildRouter(t, routerOpts{planner: unusedPlanner(t)})

	w := do(router, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	body := w.Body.String()
	assert.Contains(t, body, `<option value="Hiking">Hiking</option>`)
	assert.Contains(t, body, `<option value="City">City</option>`)
}

func TestIndex_OptionsFailureStillRendersForm(t *testing.T) {
	options := &mockOptions{
		activitiesFn: func(_ context.Context) ([]string, error) { return nil, fmt.Errorf("db down") },
		vacationsFn:  func(_ context.Context) ([]string, error) { return nil, fmt.Errorf("db down") },
	}
	router := buildRouter(t, routerOpts{planner: unusedPlanner(t), options: options})

	w := do(router, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `name="city"`)
	assert.NotContains(t, w.Body.String(), "<option")
}

func TestResult_GetRendersIndex(t *testing.T) {
	router := buildRouter(t, routerOpts{planner: unusedPlanner(t)})

	w := do(router, httptest.NewRequest(http.MethodGet, "/result", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `<form method="post" action="/"`)
}

func TestAbout(t *testing.T) {
	router := buildRouter(t, routerOpts{planner: unusedPlanner(t)})

	w := do(router, httptest.NewRequest(http.MethodGet, "/about", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<h1>About</h1>")
}

// ---- POST / ----

func TestPlan_Success(t *testing.T) {
	var got vacation.VacationRequest
	planner := &mockPlanner{
		planFn: func(_ context.Context, req vacation.VacationRequest, caller *vacation.Caller) (*vacation.Itinerary, error) {
			got = req
			assert.Nil(t, caller)
			return sampleItinerary(), nil
		},
	}
	router := buildRouter(t, routerOpts{planner: planner})

	w := do(router, planForm("  Lisbon ", "2024-06-01", "2024-06-03"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Lisbon", got.City)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), got.StartDate)
	assert.Equal(t, time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), got.EndDate)
	assert.Equal(t, "hiking", got.ActivityType, "activity type is passed through as submitted")
	assert.Equal(t, "Beach", got.VacationType)

	body := w.Body.String()
	assert.Contains(t, body, "<h1>Lisbon, Portugal</h1>")
	assert.Contains(t, body, "Sat Jun 01")
	assert.Contains(t, body, "70&deg;F, precipitation: rain")
	assert.Contains(t, body, "Euro (1 USD = 0.92 EUR)")
	assert.Contains(t, body, "<li>Sunscreen</li>")
	assert.Contains(t, body, "Portuguese")
}

func TestPlan_WeatherIconOnlyWhenBundled(t *testing.T) {
	cases := []struct {
		name    string
		iconRef string
		wantImg bool
	}{
		{"missing icon", "/static/img/icons/rain.png", false},
		{"bundled asset", "/static/css/style.css", true},
		{"outside static", "/etc/passwd", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			planner := &mockPlanner{
				planFn: func(_ context.Context, _ vacation.VacationRequest, _ *vacation.Caller) (*vacation.Itinerary, error) {
					it := sampleItinerary()
					it.Weather[0].IconRef = tc.iconRef
					return it, nil
				},
			}
			router := buildRouter(t, routerOpts{planner: planner})

			w := do(router, planForm("Lisbon", "2024-06-01", "2024-06-01"))

			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tc.wantImg, strings.Contains(w.Body.String(), `<img src="`+tc.iconRef+`"`))
			assert.Contains(t, w.Body.String(), "Sat Jun 01")
		})
	}
}

func TestPlan_BadStartDate(t *testing.T) {
	router := buildRouter(t, routerOpts{planner: unusedPlanner(t)})

	w := do(router, planForm("Lisbon", "06/01/2024", "2024-06-03"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "start_date must be YYYY-MM-DD")
}

func TestPlan_BadEndDate(t *testing.T) {
	router := buildRouter(t, routerOpts{planner: unusedPlanner(t)})

	w := do(router, planForm("Lisbon", "2024-06-01", ""))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "end_date must be YYYY-MM-DD")
}

func TestPlan_PlannerErrorRendersErrorPage(t *testing.T) {
	planner := &mockPlanner{
		planFn: func(_ context.Context, _ vacation.VacationRequest, _ *vacation.Caller) (*vacation.Itinerary, error) {
			return nil, fmt.Errorf("geocoding Atlantis: %w", vacation.ErrNotFound)
		},
	}
	router := buildRouter(t, routerOpts{planner: planner})

	w := do(router, planForm("Atlantis", "2024-06-01", "2024-06-03"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "geocoding Atlantis: location not found")
}

func TestPlan_SignedInCallerIsPassedThrough(t *testing.T) {
	ana := &vacation.Caller{ID: "u1", Name: "Ana", Email: "ana@example.com"}
	sessions := &mockSessions{
		callerFn: func(_ context.Context, sessionID string) (*vacation.Caller, error) {
			if sessionID == "abc" {
				return ana, nil
			}
			return nil, nil
		},
	}
	var gotCaller *vacation.Caller
	planner := &mockPlanner{
		planFn: func(_ context.Context, _ vacation.VacationRequest, caller *vacation.Caller) (*vacation.Itinerary, error) {
			gotCaller = caller
			it := sampleItinerary()
			it.Caller = caller
			return it, nil
		},
	}
	router := buildRouter(t, routerOpts{planner: planner, sessions: sessions})

	req := planForm("Lisbon", "2024-06-01", "2024-06-01")
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: "abc"})
	w := do(router, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, ana, gotCaller)
	assert.Contains(t, w.Body.String(), "Signed in as Ana")
}

func TestPlan_SessionLookupFailureIsAnonymous(t *testing.T) {
	sessions := &mockSessions{
		callerFn: func(_ context.Context, _ string) (*vacation.Caller, error) {
			return nil, fmt.Errorf("redis down")
		},
	}
	planner := &mockPlanner{
		planFn: func(_ context.Context, _ vacation.VacationRequest, caller *vacation.Caller) (*vacation.Itinerary, error) {
			assert.Nil(t, caller)
			return sampleItinerary(), nil
		},
	}
	router := buildRouter(t, routerOpts{planner: planner, sessions: sessions})

	req := planForm("Lisbon", "2024-06-01", "2024-06-01")
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: "abc"})
	w := do(router, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "Signed in as")
}

// ---- unmatched routes ----

func TestNotFound(t *testing.T) {
	router := buildRouter(t, routerOpts{planner: unusedPlanner(t)})

	w := do(router, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "404", w.Body.String())
}

func TestMethodNotAllowedIsNotFound(t *testing.T) {
	router := buildRouter(t, routerOpts{planner: unusedPlanner(t)})

	w := do(router, httptest.NewRequest(http.MethodDelete, "/about", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "404", w.Body.String())
}

// ---- GET /health ----

func TestHealth_OK(t *testing.T) {
	router := buildRouter(t, routerOpts{planner: unusedPlanner(t)})

	w := do(router, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","db":"ok","redis":"ok"}`, w.Body.String())
}

func TestHealth_DBDown(t *testing.T) {
	router := buildRouter(t, routerOpts{planner: unusedPlanner(t), db: &mockPinger{err: fmt.Errorf("down")}})

	w := do(router, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"degraded","db":"error","redis":"ok"}`, w.Body.String())
}

func TestHealth_RedisDown(t *testing.T) {
	router := buildRouter(t, routerOpts{planner: unusedPlanner(t), redis: &mockPinger{err: fmt.Errorf("down")}})

	w := do(router, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"degraded","db":"ok","redis":"error"}`, w.Body.String())
}

// ---- metrics, static, rate limit ----

func TestMetrics_RecordsRoutePattern(t *testing.T) {
	router := buildRouter(t, routerOpts{planner: unusedPlanner(t)})
	do(router, httptest.NewRequest(http.MethodGet, "/about", nil))

	w := do(router, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `vacation_http_requests_total{method="GET",route="/about",status="200"}`)
}

func TestStatic_ServesStylesheet(t *testing.T) {
	router := buildRouter(t, routerOpts{planner: unusedPlanner(t)})

	w := do(router, httptest.NewRequest(http.MethodGet, "/static/css/style.css", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), ".plan-form")
}

func TestRateLimit_PerIP(t *testing.T) {
	router := buildRouter(t, routerOpts{planner: unusedPlanner(t), limit: 1})

	first := do(router, httptest.NewRequest(http.MethodGet, "/about", nil))
	second := do(router, httptest.NewRequest(http.MethodGet, "/about", nil))
	health := do(router, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, http.StatusOK, health.Code, "health is not rate limited")
}
