package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/facility-coordinator/internal/application"
	"github.com/example/facility-coordinator/internal/recurrence"
	"github.com/example/facility-coordinator/internal/scheduler"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Grid        scheduler.Grid
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("session"),
		Grid:        scheduler.DefaultGrid(),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("session")
	}
	if factory.Grid.IsZero() {
		factory.Grid = scheduler.DefaultGrid()
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// WithGrid overrides the clock grid.
func WithGrid(grid scheduler.Grid) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Grid = grid
	}
}

// AssignmentServiceDeps captures the ports of an assignment service.
type AssignmentServiceDeps struct {
	Sessions     application.SessionStore
	Facilities   application.FacilityCatalog
	Coordinators application.CoordinatorDirectory
	Sink         application.AssignmentSink
	Events       application.EventPublisher
	SessionTTL   time.Duration
	Logger       *slog.Logger
}

// NewAssignmentService builds an assignment service on the factory clock,
// identifiers and grid.
func (f *ServiceFactory) NewAssignmentService(deps AssignmentServiceDeps) *application.AssignmentService {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return application.NewAssignmentService(application.AssignmentServiceDeps{
		Sessions:     deps.Sessions,
		Facilities:   deps.Facilities,
		Coordinators: deps.Coordinators,
		Sink:         deps.Sink,
		Events:       deps.Events,
		Grid:         f.Grid,
		SessionTTL:   deps.SessionTTL,
		IDGenerator:  f.IDGenerator.NextFunc(),
		Now:          f.Clock.NowFunc(),
		Logger:       logger,
	})
}

// FacilityServiceDeps captures the ports of a facility service.
type FacilityServiceDeps struct {
	Facilities  application.FacilityCatalog
	Statuses    application.FacilityStatusSource
	Assignments application.AssignmentReader
	Logger      *slog.Logger
}

// NewFacilityService builds a facility service evaluating recurrences in UTC
// against the factory clock.
func (f *ServiceFactory) NewFacilityService(deps FacilityServiceDeps) *application.FacilityService {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return application.NewFacilityService(application.FacilityServiceDeps{
		Facilities:  deps.Facilities,
		Statuses:    deps.Statuses,
		Assignments: deps.Assignments,
		Recurrence:  recurrence.NewEngine(time.UTC),
		Now:         f.Clock.NowFunc(),
		Logger:      logger,
	})
}
