package patient

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PatientRepository persists patient rows. Reads that expand the attending
// doctor and last visit do so in SQL.
type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	// GetByID returns the patient with its attending doctor and last visit.
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	// LockByID reads the bare patient row with a row lock held until the
	// surrounding transaction ends.
	LockByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	// FindByCNIC returns the patient whose CNIC equals cnic exactly.
	FindByCNIC(ctx context.Context, cnic string) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	SetTokenNumber(ctx context.Context, id uuid.UUID, token int) error
	// SearchByCNIC matches patients whose own CNIC, or any relation's CNIC,
	// contains query.
	SearchByCNIC(ctx context.Context, query string) ([]*Patient, error)
}

type RelationRepository interface {
	CreateBatch(ctx context.Context, relations []*Relation) error
	ListByPatients(ctx context.Context, patientIDs []uuid.UUID) (map[uuid.UUID][]*Relation, error)
}

type VisitRepository interface {
	Create(ctx context.Context, v *Visit) error
	// ListBetween returns visits with from <= date < to, each with its patient
	// and attending doctor, ordered by token then date.
	ListBetween(ctx context.Context, from, to time.Time) ([]*DailyVisit, error)
}

type DetailsRepository interface {
	// Upsert creates the patient's details or overwrites the fields set in d.
	Upsert(ctx context.Context, d *Details) error
	GetByPatient(ctx context.Context, patientID uuid.UUID) (*Details, error)
}
