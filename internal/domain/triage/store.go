package triage

// Store holds the authoritative treatment list in insertion order and the
// id counter.
type Store interface {
	// NextID reserves and returns a fresh id. Ids are never reused.
	NextID() int
	Add(t *Treatment)
	Get(id int) (*Treatment, bool)
	// All returns copies of every treatment in insertion order.
	All() []*Treatment
	// Replace swaps in a complete new list.
	Replace(ts []*Treatment)
	Remove(id int) bool
}

// MemoryStore keeps treatments in process memory. It is not safe for
// concurrent use; Service serializes access.
type MemoryStore struct {
	treatments []*Treatment
	nextID     int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) NextID() int {
	id := s.nextID
	s.nextID++
	return id
}

func (s *MemoryStore) Add(t *Treatment) {
	s.treatments = append(s.treatments, t.clone())
}

func (s *MemoryStore) Get(id int) (*Treatment, bool) {
	for _, t := range s.treatments {
		if t.ID == id {
			return t.clone(), true
		}
	}
	return nil, false
}

func (s *MemoryStore) All() []*Treatment {
	out := make([]*Treatment, len(s.treatments))
	for i, t := range s.treatments {
		out[i] = t.clone()
	}
	return out
}

func (s *MemoryStore) Replace(ts []*Treatment) {
	next := make([]*Treatment, len(ts))
	for i, t := range ts {
		next[i] = t.clone()
	}
	s.treatments = next
}

func (s *MemoryStore) Remove(id int) bool {
	for i, t := range s.treatments {
		if t.ID == id {
			s.treatments = append(s.treatments[:i:i], s.treatments[i+1:]...)
			return true
		}
	}
	return false
}
