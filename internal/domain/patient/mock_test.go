package patient

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// memStore backs every repository of the package in memory. fakeTx takes a
// snapshot before running a transaction body and restores it on error.
type memStore struct {
	mu sync.Mutex

	patients  map[uuid.UUID]*Patient
	relations []*Relation
	visits    []*Visit
	details   map[uuid.UUID]*Details
	staff     map[uuid.UUID]string // id -> role
	names     map[uuid.UUID]string
	lastToken int

	tokenCalls int
	txCount    int
	now        time.Time

	// failOn names an operation ("patient", "relation", "visit", "details",
	// "token") that returns failErr.
	failOn  string
	failErr error
}

func newMemStore() *memStore {
	return &memStore{
		patients: make(map[uuid.UUID]*Patient),
		details:  make(map[uuid.UUID]*Details),
		staff:    make(map[uuid.UUID]string),
		names:    make(map[uuid.UUID]string),
		now:      time.Date(2024, 3, 10, 10, 0, 0, 0, testLoc),
	}
}

var testLoc = time.FixedZone("PKT", 5*60*60)

func (m *memStore) addStaff(role, name string) uuid.UUID {
	id := uuid.New()
	m.staff[id] = role
	m.names[id] = name
	return id
}

func (m *memStore) fail(op string) error {
	if m.failOn == op {
		return m.failErr
	}
	return nil
}

type memSnapshot struct {
	patients  map[uuid.UUID]Patient
	relations []Relation
	visits    []Visit
	details   map[uuid.UUID]Details
	lastToken int
}

func (m *memStore) snapshot() memSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := memSnapshot{
		patients:  make(map[uuid.UUID]Patient, len(m.patients)),
		details:   make(map[uuid.UUID]Details, len(m.details)),
		lastToken: m.lastToken,
	}
	for k, v := range m.patients {
		s.patients[k] = *v
	}
	for k, v := range m.details {
		s.details[k] = *v
	}
	for _, r := range m.relations {
		s.relations = append(s.relations, *r)
	}
	for _, v := range m.visits {
		s.visits = append(s.visits, *v)
	}
	return s
}

func (m *memStore) restore(s memSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.patients = make(map[uuid.UUID]*Patient, len(s.patients))
	for k, v := range s.patients {
		v := v
		m.patients[k] = &v
	}
	m.details = make(map[uuid.UUID]*Details, len(s.details))
	for k, v := range s.details {
		v := v
		m.details[k] = &v
	}
	m.relations = nil
	for _, r := range s.relations {
		r := r
		m.relations = append(m.relations, &r)
	}
	m.visits = nil
	for _, v := range s.visits {
		v := v
		m.visits = append(m.visits, &v)
	}
	m.lastToken = s.lastToken
}

// -- tx, tokens, doctors --

type fakeTx struct{ store *memStore }

func (f fakeTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	snap := f.store.snapshot()
	f.store.txCount++
	if err := fn(ctx); err != nil {
		f.store.restore(snap)
		return err
	}
	return nil
}

type memTokens struct{ *memStore }

func (m memTokens) Next(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokenCalls++
	if err := m.fail("token"); err != nil {
		return 0, err
	}
	m.lastToken++
	return m.lastToken, nil
}

type memDoctors struct{ *memStore }

func (m memDoctors) IsDoctor(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.staff[id] == "doctor", nil
}

// -- patients --

type memPatients struct{ *memStore }

func (m memPatients) expand(p *Patient) *Patient {
	cp := *p
	if role, ok := m.staff[p.AttendedByDoctorID]; ok && role == "doctor" {
		cp.AttendedByDoctor = &Doctor{ID: p.AttendedByDoctorID, Name: m.names[p.AttendedByDoctorID]}
	}
	for _, v := range m.visits {
		if v.PatientID == p.ID && (cp.LastVisit == nil || v.Date.After(*cp.LastVisit)) {
			d := v.Date
			cp.LastVisit = &d
		}
	}
	return &cp
}

func (m memPatients) Create(_ context.Context, p *Patient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("patient"); err != nil {
		return err
	}
	p.ID = uuid.New()
	p.CreatedAt, p.UpdatedAt = m.now, m.now
	cp := *p
	m.patients[p.ID] = &cp
	return nil
}

func (m memPatients) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.patients[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return m.expand(p), nil
}

func (m memPatients) LockByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.patients[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *p
	return &cp, nil
}

func (m memPatients) FindByCNIC(_ context.Context, cnic string) (*Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.patients {
		if p.CNIC != nil && *p.CNIC == cnic {
			cp := *p
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m memPatients) Update(_ context.Context, p *Patient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("patient"); err != nil {
		return err
	}
	if _, ok := m.patients[p.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *p
	m.patients[p.ID] = &cp
	return nil
}

func (m memPatients) SetTokenNumber(_ context.Context, id uuid.UUID, token int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.patients[id]
	if !ok {
		return pgx.ErrNoRows
	}
	p.TokenNumber = &token
	return nil
}

func (m memPatients) SearchByCNIC(_ context.Context, query string) ([]*Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Patient
	for _, p := range m.patients {
		match := p.CNIC != nil && strings.Contains(*p.CNIC, query)
		for _, r := range m.relations {
			if r.PatientID == p.ID && strings.Contains(r.RelationCNIC, query) {
				match = true
			}
		}
		if match {
			out = append(out, m.expand(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// -- relations --

type memRelations struct{ *memStore }

func (m memRelations) CreateBatch(_ context.Context, relations []*Relation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(relations) > 0 {
		if err := m.fail("relation"); err != nil {
			return err
		}
	}
	for _, r := range relations {
		r.ID = uuid.New()
		cp := *r
		m.relations = append(m.relations, &cp)
	}
	return nil
}

func (m memRelations) ListByPatients(_ context.Context, ids []uuid.UUID) (map[uuid.UUID][]*Relation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	out := make(map[uuid.UUID][]*Relation)
	for _, r := range m.relations {
		if want[r.PatientID] {
			cp := *r
			out[r.PatientID] = append(out[r.PatientID], &cp)
		}
	}
	return out, nil
}

func (m *memStore) relationsOf(id uuid.UUID) []*Relation {
	var out []*Relation
	for _, r := range m.relations {
		if r.PatientID == id {
			out = append(out, r)
		}
	}
	return out
}

func (m *memStore) visitsOf(id uuid.UUID) []*Visit {
	var out []*Visit
	for _, v := range m.visits {
		if v.PatientID == id {
			out = append(out, v)
		}
	}
	return out
}

// -- visits --

type memVisits struct{ *memStore }

func (m memVisits) Create(_ context.Context, v *Visit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("visit"); err != nil {
		return err
	}
	v.ID = uuid.New()
	if v.Date.IsZero() {
		v.Date = m.now
	}
	cp := *v
	m.visits = append(m.visits, &cp)
	return nil
}

func (m memVisits) ListBetween(_ context.Context, from, to time.Time) ([]*DailyVisit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*DailyVisit
	for _, v := range m.visits {
		if v.Date.Before(from) || !v.Date.Before(to) {
			continue
		}
		p := memPatients{m.memStore}.expand(m.patients[v.PatientID])
		out = append(out, &DailyVisit{ID: v.ID, VisitedAt: v.Date, TokenNumber: v.TokenNumber, Patient: p})
	}
	sort.SliceStable(out, func(i, j int) bool {
		ti, tj := out[i].TokenNumber, out[j].TokenNumber
		if ti != nil && tj != nil && *ti != *tj {
			return *ti < *tj
		}
		return out[i].VisitedAt.Before(out[j].VisitedAt)
	})
	return out, nil
}

// -- details --

type memDetails struct{ *memStore }

func (m memDetails) Upsert(_ context.Context, d *Details) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("details"); err != nil {
		return err
	}
	existing, ok := m.details[d.PatientID]
	if !ok {
		d.ID = uuid.New()
		d.CreatedAt, d.UpdatedAt = m.now, m.now
		cp := *d
		m.details[d.PatientID] = &cp
		return nil
	}
	if d.Weight == nil {
		d.Weight = existing.Weight
	}
	if d.SugarLevel == nil {
		d.SugarLevel = existing.SugarLevel
	}
	if d.Temperature == nil {
		d.Temperature = existing.Temperature
	}
	if d.Height == nil {
		d.Height = existing.Height
	}
	if d.BloodPressure == nil {
		d.BloodPressure = existing.BloodPressure
	}
	d.ID, d.CreatedAt, d.UpdatedAt = existing.ID, existing.CreatedAt, m.now
	cp := *d
	m.details[d.PatientID] = &cp
	return nil
}

func (m memDetails) GetByPatient(_ context.Context, id uuid.UUID) (*Details, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.details[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *d
	return &cp, nil
}
