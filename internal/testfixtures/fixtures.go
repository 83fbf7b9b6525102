package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/facility-coordinator/internal/application"
	"github.com/example/facility-coordinator/internal/persistence"
)

var (
	facilityCounter    int64 = 1000
	coordinatorCounter int64 = 1000
)

// Saturday, inside the default clock grid.
var referenceTime = time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ----------------------------- Facility fixtures -----------------------------

// FacilityFixture is a deterministic catalog facility.
type FacilityFixture struct {
	ID        int64
	Name      string
	Location  string
	CreatedAt time.Time
}

// FacilityOption configures the generated facility fixture.
type FacilityOption func(*FacilityFixture)

// NewFacilityFixture returns a facility with a fresh id unless overridden.
func NewFacilityFixture(opts ...FacilityOption) FacilityFixture {
	idx := atomic.AddInt64(&facilityCounter, 1)
	fixture := FacilityFixture{
		ID:        idx,
		Name:      fmt.Sprintf("Instalación %d", idx),
		Location:  fmt.Sprintf("Calle %d", idx),
		CreatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithFacilityID overrides the generated id.
func WithFacilityID(id int64) FacilityOption {
	return func(f *FacilityFixture) {
		f.ID = id
	}
}

// WithFacilityName overrides the generated name.
func WithFacilityName(name string) FacilityOption {
	return func(f *FacilityFixture) {
		f.Name = name
	}
}

// WithFacilityLocation overrides the generated location.
func WithFacilityLocation(location string) FacilityOption {
	return func(f *FacilityFixture) {
		f.Location = location
	}
}

// Persistence converts the fixture into a persistence.Facility.
func (f FacilityFixture) Persistence() persistence.Facility {
	return persistence.Facility{
		ID:        f.ID,
		Name:      f.Name,
		Location:  f.Location,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.CreatedAt,
	}
}

// Application converts the fixture into an application.Facility.
func (f FacilityFixture) Application() application.Facility {
	return application.Facility{ID: f.ID, Name: f.Name, Location: f.Location}
}

// ---------------------------- Coordinator fixtures ----------------------------

// CoordinatorFixture is a deterministic coordinator.
type CoordinatorFixture struct {
	ID        int64
	Name      string
	Email     string
	Phone     string
	CreatedAt time.Time
}

// CoordinatorOption configures the generated coordinator fixture.
type CoordinatorOption func(*CoordinatorFixture)

// NewCoordinatorFixture returns a coordinator with a fresh id and unique email.
func NewCoordinatorFixture(opts ...CoordinatorOption) CoordinatorFixture {
	idx := atomic.AddInt64(&coordinatorCounter, 1)
	fixture := CoordinatorFixture{
		ID:        idx,
		Name:      fmt.Sprintf("Coordinador %d", idx),
		Email:     fmt.Sprintf("coordinador-%d@example.com", idx),
		Phone:     fmt.Sprintf("+51 900 %06d", idx),
		CreatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithCoordinatorID overrides the generated id. The email keeps the counter
// suffix so it stays unique.
func WithCoordinatorID(id int64) CoordinatorOption {
	return func(f *CoordinatorFixture) {
		f.ID = id
	}
}

// WithCoordinatorName overrides the generated name.
func WithCoordinatorName(name string) CoordinatorOption {
	return func(f *CoordinatorFixture) {
		f.Name = name
	}
}

// Persistence converts the fixture into a persistence.Coordinator.
func (f CoordinatorFixture) Persistence() persistence.Coordinator {
	return persistence.Coordinator{
		ID:        f.ID,
		Name:      f.Name,
		Email:     f.Email,
		Phone:     f.Phone,
		CreatedAt: f.CreatedAt,
	}
}

// Application converts the fixture into an application.Coordinator.
func (f CoordinatorFixture) Application() application.Coordinator {
	return application.Coordinator{ID: f.ID, Name: f.Name, Email: f.Email, Phone: f.Phone}
}
