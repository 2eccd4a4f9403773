package api

import (
	"context"

	"github.com/neexbeast/vacation-planner/internal/vacation"
)

// TripPlanner builds an itinerary for a submitted vacation form.
type TripPlanner interface {
	Plan(ctx context.Context, req vacation.VacationRequest, caller *vacation.Caller) (*vacation.Itinerary, error)
}

// FormOptions lists the choices offered by the planning form.
type FormOptions interface {
	ListActivityTypes(ctx context.Context) ([]string, error)
	ListVacationTypes(ctx context.Context) ([]string, error)
}

// CallerResolver maps a session id to the signed-in caller.
// A nil caller with a nil error means anonymous.
type CallerResolver interface {
	Caller(ctx context.Context, sessionID string) (*vacation.Caller, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}
