package triage

import (
	"context"
	"errors"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mishmanage/mishmanage/internal/platform/websocket"
	"github.com/mishmanage/mishmanage/pkg/pagination"
)

// ErrNotFound is returned by lookups for an id that is not on the board.
var ErrNotFound = errors.New("treatment not found")

// ValidationError is a rejected creation form. Message is shown to the user.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string { return e.Message }

// BoardTopic is the websocket topic board changes are published on.
const BoardTopic = "board"

// Service owns the board. Every operation is one atomic transition over the
// store.
type Service struct {
	mu        sync.Mutex
	store     Store
	roster    []Nurse
	calendar  Calendar
	publisher websocket.EventPublisher
	logger    zerolog.Logger
}

func NewService(store Store, roster []Nurse, calendar Calendar) *Service {
	return &Service{
		store:    store,
		roster:   roster,
		calendar: calendar,
		logger:   zerolog.Nop(),
	}
}

// SetPublisher attaches an optional sink for board-change events.
func (s *Service) SetPublisher(p websocket.EventPublisher) {
	s.publisher = p
}

// SetLogger replaces the default no-op logger.
func (s *Service) SetLogger(l zerolog.Logger) {
	s.logger = l
}

func (s *Service) Calendar() Calendar { return s.calendar }

func (s *Service) Nurses() []Nurse {
	out := make([]Nurse, len(s.roster))
	copy(out, s.roster)
	return out
}

func (s *Service) validNurse(id int) bool {
	return id >= 0 && id < len(s.roster)
}

// CreateTreatment validates the form and adds an unassigned, full-width
// treatment to the pool.
func (s *Service) CreateTreatment(ctx context.Context, form CreateTreatmentForm) (*Treatment, error) {
	if form.PatientName == "" {
		return nil, &ValidationError{Field: "patient_name", Message: "Please enter a valid patient name."}
	}
	if form.ArrivedAt == "" {
		return nil, &ValidationError{Field: "arrived_at", Message: "Please enter a valid arrival time."}
	}
	if !TreatmentType(form.TreatmentType).Valid() {
		return nil, &ValidationError{Field: "treatment_type", Message: "Please enter a valid treatment type."}
	}
	if form.CompleteBy == "" {
		return nil, &ValidationError{Field: "complete_by", Message: "Please enter a valid estimated completion time."}
	}
	// NaN compares false, so malformed times pass this check.
	if Minutes(form.ArrivedAt) >= Minutes(form.CompleteBy) {
		return nil, &ValidationError{Field: "complete_by", Message: "Patient's Arrival Time cannot be later than their Completion Time"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := &Treatment{
		ID:            s.store.NextID(),
		PatientName:   form.PatientName,
		ArrivedAt:     form.ArrivedAt,
		CompleteBy:    form.CompleteBy,
		TreatmentType: TreatmentType(form.TreatmentType),
		X:             0,
		Y:             Coord(s.calendar.VerticalOffset(form.ArrivedAt)),
		Width:         100,
		Height:        Coord(s.calendar.DurationHeightPercent(form.ArrivedAt, form.CompleteBy)),
	}
	if math.IsNaN(float64(t.Y)) {
		s.logger.Warn().Int("treatment_id", t.ID).Str("arrived_at", t.ArrivedAt).Msg("malformed arrival time")
	}
	s.store.Add(t)
	s.publish(ctx, "create", t.ID)
	return t.clone(), nil
}

// ParseDropTarget resolves a drop surface identifier to a nurse id.
func ParseDropTarget(target string) (int, bool) {
	id, err := strconv.Atoi(target)
	if err != nil {
		return 0, false
	}
	return id, true
}

// Drop handles a card dropped onto a column. Targets that are not a nurse
// column are ignored.
func (s *Service) Drop(ctx context.Context, msg DropMessage) bool {
	nurseID, ok := ParseDropTarget(msg.Target)
	if !ok {
		s.logger.Debug().Str("target", msg.Target).Msg("drop on non-nurse target ignored")
		return false
	}
	return s.Assign(ctx, msg.TreatmentID, nurseID)
}

// Assign places a treatment on a nurse's column and re-tiles the treatments
// it overlaps there. A treatment already on another column is released from
// it first.
func (s *Service) Assign(ctx context.Context, treatmentID, nurseID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.validNurse(nurseID) {
		s.logger.Debug().Int("nurse_id", nurseID).Msg("assign to unknown nurse ignored")
		return false
	}
	ts := s.store.All()
	cand := find(ts, treatmentID)
	if cand == nil {
		s.logger.Debug().Int("treatment_id", treatmentID).Msg("assign of unknown treatment ignored")
		return false
	}
	if cand.Assigned() && !cand.AssignedToNurse(nurseID) {
		release(ts, cand)
	}

	overlaps := overlapping(ts, cand, nurseID)
	cand.AssignedTo = &nurseID
	tile(ts, len(overlaps)+1, func(t *Treatment) bool {
		return t.ID == cand.ID || overlaps[t.ID]
	})

	s.store.Replace(ts)
	s.publish(ctx, "assign", treatmentID)
	return true
}

// Unassign returns a treatment to the unassigned pool and re-tiles what it
// overlapped on its old column.
func (s *Service) Unassign(ctx context.Context, treatmentID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.store.All()
	cand := find(ts, treatmentID)
	if cand == nil || !cand.Assigned() {
		s.logger.Debug().Int("treatment_id", treatmentID).Msg("unassign of unknown or unassigned treatment ignored")
		return false
	}
	release(ts, cand)

	s.store.Replace(ts)
	s.publish(ctx, "unassign", treatmentID)
	return true
}

// Delete removes an unassigned treatment permanently.
func (s *Service) Delete(ctx context.Context, treatmentID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.store.Get(treatmentID)
	if !ok || t.Assigned() {
		s.logger.Debug().Int("treatment_id", treatmentID).Msg("delete of unknown or assigned treatment ignored")
		return false
	}
	s.store.Remove(treatmentID)
	s.publish(ctx, "delete", treatmentID)
	return true
}

// release takes cand off its column at full width and re-tiles the members
// of its old overlap cluster into the remaining slots.
func release(ts []*Treatment, cand *Treatment) {
	overlaps := overlapping(ts, cand, *cand.AssignedTo)
	cand.AssignedTo = nil
	cand.X = 0
	cand.Width = 100
	tile(ts, len(overlaps), func(t *Treatment) bool { return overlaps[t.ID] })
}

func find(ts []*Treatment, id int) *Treatment {
	for _, t := range ts {
		if t.ID == id {
			return t
		}
	}
	return nil
}

func (s *Service) GetTreatment(_ context.Context, id int) (*Treatment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.store.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return t, nil
}

// ListTreatments returns one page of treatments in insertion order and the
// total count.
func (s *Service) ListTreatments(_ context.Context, page pagination.Params) ([]*Treatment, int) {
	s.mu.Lock()
	ts := s.store.All()
	s.mu.Unlock()

	start, end := page.Window(len(ts))
	return ts[start:end], len(ts)
}

// Unassigned returns the cards in the pool.
func (s *Service) Unassigned(_ context.Context) []*Card {
	s.mu.Lock()
	ts := s.store.All()
	s.mu.Unlock()
	return unassignedCards(ts)
}

// Schedules returns one column per nurse with its treatments in store order.
func (s *Service) Schedules(_ context.Context) []*NurseSchedule {
	s.mu.Lock()
	ts := s.store.All()
	s.mu.Unlock()
	return s.schedules(ts)
}

// Board returns the pool and every column from a single snapshot.
func (s *Service) Board(_ context.Context) *Board {
	s.mu.Lock()
	ts := s.store.All()
	s.mu.Unlock()
	return &Board{
		Unassigned: unassignedCards(ts),
		Schedules:  s.schedules(ts),
	}
}

func unassignedCards(ts []*Treatment) []*Card {
	cards := make([]*Card, 0)
	for _, t := range ts {
		if !t.Assigned() {
			cards = append(cards, NewCard(t))
		}
	}
	return cards
}

func (s *Service) schedules(ts []*Treatment) []*NurseSchedule {
	out := make([]*NurseSchedule, len(s.roster))
	for i, n := range s.roster {
		sched := &NurseSchedule{ID: n.ID, Name: n.Name, Treatments: make([]*Card, 0)}
		for _, t := range ts {
			if t.AssignedToNurse(n.ID) {
				sched.Treatments = append(sched.Treatments, NewCard(t))
			}
		}
		out[i] = sched
	}
	return out
}

func (s *Service) publish(ctx context.Context, op string, treatmentID int) {
	if s.publisher == nil {
		return
	}
	evt := websocket.Event{
		Type:        "board.changed",
		Topic:       BoardTopic,
		Operation:   op,
		TreatmentID: treatmentID,
		Timestamp:   time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.Error().Err(err).Str("operation", op).Msg("publish board change")
	}
}
