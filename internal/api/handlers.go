package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/neexbeast/vacation-planner/internal/observability"
	"github.com/neexbeast/vacation-planner/internal/vacation"
)

// dateLayout is the format of the form's date inputs.
const dateLayout = "2006-01-02"

// Handlers holds the dependencies for all HTTP handlers.
type Handlers struct {
	planner TripPlanner
	options FormOptions
	views   *Views
	log     *slog.Logger
}

// NewHandlers constructs Handlers with all required dependencies.
func NewHandlers(planner TripPlanner, options FormOptions, views *Views, log *slog.Logger) *Handlers {
	return &Handlers{
		planner: planner,
		options: options,
		views:   views,
		log:     log,
	}
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handlers) render(w http.ResponseWriter, status int, page string, data pageData) {
	if err := h.views.execute(w, status, page, data); err != nil {
		h.log.Error("render failed", "page", page, "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func (h *Handlers) renderError(w http.ResponseWriter, r *http.Request, status int, err error) {
	h.render(w, status, "error", pageData{Caller: CallerFrom(r.Context()), Error: err.Error()})
}

// Index handles GET / and GET /result: the planning form.
// A failed options lookup still renders the form, with empty selects.
func (h *Handlers) Index(w http.ResponseWriter, r *http.Request) {
	data := pageData{Caller: CallerFrom(r.Context())}

	activities, err := h.options.ListActivityTypes(r.Context())
	if err != nil {
		h.log.Warn("listing activity types failed", "err", err)
	}
	vacations, err := h.options.ListVacationTypes(r.Context())
	if err != nil {
		h.log.Warn("listing vacation types failed", "err", err)
	}
	data.ActivityTypes = activities
	data.VacationTypes = vacations

	h.render(w, http.StatusOK, "index", data)
}

// About handles GET /about.
func (h *Handlers) About(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "about", pageData{Caller: CallerFrom(r.Context())})
}

// Plan handles POST /: parse the form, plan the trip, render the result.
// Unparsable dates are a 400; any planning failure renders the error page with 500.
func (h *Handlers) Plan(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, http.StatusBadRequest, fmt.Errorf("reading form: %w", err))
		return
	}

	req, err := parseRequest(r)
	if err != nil {
		h.renderError(w, r, http.StatusBadRequest, err)
		return
	}

	caller := CallerFrom(r.Context())
	itinerary, err := h.planner.Plan(r.Context(), req, caller)
	outcome := vacation.Outcome(err)
	observability.ObservePlan(outcome)
	if err != nil {
		h.log.Error("planning failed", "city", req.City, "outcome", outcome, "err", err)
		h.renderError(w, r, http.StatusInternalServerError, err)
		return
	}

	h.log.Info("trip planned", "city", itinerary.City, "country", itinerary.Country, "days", len(itinerary.Weather))
	h.render(w, http.StatusOK, "result", pageData{Caller: caller, Itinerary: itinerary})
}

func parseRequest(r *http.Request) (vacation.VacationRequest, error) {
	start, err := time.Parse(dateLayout, r.PostFormValue("start_date"))
	if err != nil {
		return vacation.VacationRequest{}, fmt.Errorf("start_date must be YYYY-MM-DD")
	}
	end, err := time.Parse(dateLayout, r.PostFormValue("end_date"))
	if err != nil {
		return vacation.VacationRequest{}, fmt.Errorf("end_date must be YYYY-MM-DD")
	}

	return vacation.VacationRequest{
		City:         strings.TrimSpace(r.PostFormValue("city")),
		StartDate:    start,
		EndDate:      end,
		ActivityType: r.PostFormValue("activity_type"),
		VacationType: r.PostFormValue("vacation_type"),
	}, nil
}

// NotFound answers every unmatched path with a plain 404.
func NotFound(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write([]byte("404"))
}

// HealthHandlerFunc returns an http.HandlerFunc that checks db and redis connectivity.
// Returns 200 if both are reachable, 503 otherwise.
func HealthHandlerFunc(db, redis pinger, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status := http.StatusOK
		overall := "ok"
		dbStatus := "ok"
		redisStatus := "ok"

		if err := db.Ping(ctx); err != nil {
			log.Error("health check: db ping failed", "err", err)
			dbStatus = "error"
			status = http.StatusServiceUnavailable
		}

		if err := redis.Ping(ctx); err != nil {
			log.Error("health check: redis ping failed", "err", err)
			redisStatus = "error"
			status = http.StatusServiceUnavailable
		}

		if status != http.StatusOK {
			overall = "degraded"
		}

		writeJSON(w, status, map[string]string{
			"status": overall,
			"db":     dbStatus,
			"redis":  redisStatus,
		})
	}
}
