package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/example/facility-coordinator/internal/persistence"
)

type catalogStub struct {
	facilities []Facility
	listErr    error
}

func (c *catalogStub) ListFacilities(ctx context.Context) ([]Facility, error) {
	if c.listErr != nil {
		return nil, c.listErr
	}
	out := make([]Facility, len(c.facilities))
	copy(out, c.facilities)
	return out, nil
}

func (c *catalogStub) GetFacility(ctx context.Context, id int64) (Facility, error) {
	if c.listErr != nil {
		return Facility{}, c.listErr
	}
	for _, facility := range c.facilities {
		if facility.ID == id {
			return facility, nil
		}
	}
	return Facility{}, persistence.ErrNotFound
}

type directoryStub struct {
	coordinators []Coordinator
	assigned     map[int64]bool
}

func (d *directoryStub) GetCoordinator(ctx context.Context, id int64) (Coordinator, error) {
	for _, coordinator := range d.coordinators {
		if coordinator.ID == id {
			return coordinator, nil
		}
	}
	return Coordinator{}, persistence.ErrNotFound
}

func (d *directoryStub) ListUnassignedCoordinators(ctx context.Context) ([]Coordinator, error) {
	var out []Coordinator
	for _, coordinator := range d.coordinators {
		if !d.assigned[coordinator.ID] {
			out = append(out, coordinator)
		}
	}
	return out, nil
}

type sessionStoreStub struct {
	mu       sync.Mutex
	sessions map[string]AssignmentSession
	saves    int
	saveErr  error
}

func newSessionStoreStub() *sessionStoreStub {
	return &sessionStoreStub{sessions: make(map[string]AssignmentSession)}
}

func (s *sessionStoreStub) Save(ctx context.Context, session AssignmentSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	s.sessions[session.ID] = session
	return nil
}

func (s *sessionStoreStub) Load(ctx context.Context, id string) (AssignmentSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return AssignmentSession{}, persistence.ErrNotFound
	}
	return session, nil
}

func (s *sessionStoreStub) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.sessions, id)
	return nil
}

type sinkStub struct {
	records []AssignmentRecord
	err     error
}

func (s *sinkStub) SaveAssignment(ctx context.Context, record AssignmentRecord) error {
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, record)
	return nil
}

type readerStub struct {
	records map[int64]AssignmentRecord
	err     error
}

func (r *readerStub) GetAssignmentByCoordinator(ctx context.Context, coordinatorID int64) (AssignmentRecord, error) {
	if r.err != nil {
		return AssignmentRecord{}, r.err
	}
	record, ok := r.records[coordinatorID]
	if !ok {
		return AssignmentRecord{}, persistence.ErrNotFound
	}
	return record, nil
}

type statusStub struct {
	statuses map[int64]FacilityStatusRecord
}

func (s *statusStub) GetFacilityStatus(ctx context.Context, facilityID int64) (FacilityStatusRecord, error) {
	status, ok := s.statuses[facilityID]
	if !ok {
		return FacilityStatusRecord{}, persistence.ErrNotFound
	}
	return status, nil
}

type publisherStub struct {
	events    []AssignmentCreatedEvent
	err       error
	onPublish func(ctx context.Context, event AssignmentCreatedEvent)
}

func (p *publisherStub) PublishAssignmentCreated(ctx context.Context, event AssignmentCreatedEvent) error {
	if p.onPublish != nil {
		p.onPublish(ctx, event)
	}
	p.events = append(p.events, event)
	return p.err
}

func sequenceIDs(prefix string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func sampleCatalog() *catalogStub {
	return &catalogStub{facilities: []Facility{
		{ID: 1, Name: "Cancha de Fútbol Central", Location: "Av. Principal 123"},
		{ID: 2, Name: "Piscina Municipal", Location: "Calle Deportes 456"},
		{ID: 3, Name: "Gimnasio Polideportivo", Location: "Av. Atletas 789"},
		{ID: 4, Name: "Cancha de Básquetbol", Location: "Parque Central"},
	}}
}

func sampleDirectory() *directoryStub {
	return &directoryStub{
		coordinators: []Coordinator{
			{ID: 1, Name: "Carlos Mendoza", Email: "carlos@example.com"},
			{ID: 4, Name: "Ana Martínez", Email: "ana@example.com"},
			{ID: 5, Name: "Pedro Sánchez", Email: "pedro@example.com"},
		},
		assigned: map[int64]bool{1: true},
	}
}
