package patient

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Ruhamakhan123/nhs-ibrahim-backend/internal/platform/db"
)

const patientColumns = `p.id, p.name, p.father_name, p.email, p.identity, p.cnic, p.crc, p.crc_number,
	p.contact_number, p.education, p.age, p.marriage_years, p.occupation, p.address,
	p.catchment_area, p.amount_payed, p.token_number, p.attended_by_doctor_id,
	p.created_at, p.updated_at`

// expandedColumns follows patientColumns in queries that join the attending
// doctor and the latest visit.
const expandedColumns = `d.id, d.name, d.email, d.specialization, d.qualification, lv.date`

const expandedJoins = `
	LEFT JOIN app_user d ON d.id = p.attended_by_doctor_id
	LEFT JOIN LATERAL (
		SELECT v.date FROM visit v WHERE v.patient_id = p.id ORDER BY v.date DESC LIMIT 1
	) lv ON TRUE`

func patientDest(p *Patient) []interface{} {
	return []interface{}{
		&p.ID, &p.Name, &p.FatherName, &p.Email, &p.Identity, &p.CNIC, &p.CRC, &p.CRCNumber,
		&p.ContactNumber, &p.Education, &p.Age, &p.MarriageYears, &p.Occupation, &p.Address,
		&p.CatchmentArea, &p.AmountPayed, &p.TokenNumber, &p.AttendedByDoctorID,
		&p.CreatedAt, &p.UpdatedAt,
	}
}

type doctorCols struct {
	id             *uuid.UUID
	name, email    *string
	specialization *string
	qualification  *string
	lastVisit      *time.Time
}

func (d *doctorCols) dest() []interface{} {
	return []interface{}{&d.id, &d.name, &d.email, &d.specialization, &d.qualification, &d.lastVisit}
}

func (d *doctorCols) apply(p *Patient) {
	p.LastVisit = d.lastVisit
	if d.id == nil {
		return
	}
	doc := &Doctor{ID: *d.id, Specialization: d.specialization, Qualification: d.qualification}
	if d.name != nil {
		doc.Name = *d.name
	}
	if d.email != nil {
		doc.Email = *d.email
	}
	p.AttendedByDoctor = doc
}

func scanExpanded(row pgx.Row) (*Patient, error) {
	var p Patient
	var extra doctorCols
	if err := row.Scan(append(patientDest(&p), extra.dest()...)...); err != nil {
		return nil, err
	}
	extra.apply(&p)
	return &p, nil
}

// likeContains builds a LIKE pattern matching s anywhere, with s taken literally.
func likeContains(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

// -- Patient Repository --

type patientRepoPG struct {
	pool *pgxpool.Pool
}

func NewPatientRepo(pool *pgxpool.Pool) PatientRepository {
	return &patientRepoPG{pool: pool}
}

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	return db.Pick(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO patient (
			id, name, father_name, email, identity, cnic, crc, crc_number,
			contact_number, education, age, marriage_years, occupation, address,
			catchment_area, amount_payed, token_number, attended_by_doctor_id
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8,
			$9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18
		)
		RETURNING created_at, updated_at`,
		p.ID, p.Name, p.FatherName, p.Email, p.Identity, p.CNIC, p.CRC, p.CRCNumber,
		p.ContactNumber, p.Education, p.Age, p.MarriageYears, p.Occupation, p.Address,
		p.CatchmentArea, p.AmountPayed, p.TokenNumber, p.AttendedByDoctorID,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *patientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return scanExpanded(db.Pick(ctx, r.pool).QueryRow(ctx,
		`SELECT `+patientColumns+`, `+expandedColumns+` FROM patient p`+expandedJoins+` WHERE p.id = $1`, id))
}

func (r *patientRepoPG) LockByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	var p Patient
	err := db.Pick(ctx, r.pool).QueryRow(ctx,
		`SELECT `+patientColumns+` FROM patient p WHERE p.id = $1 FOR UPDATE`, id,
	).Scan(patientDest(&p)...)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *patientRepoPG) FindByCNIC(ctx context.Context, cnic string) (*Patient, error) {
	var p Patient
	err := db.Pick(ctx, r.pool).QueryRow(ctx,
		`SELECT `+patientColumns+` FROM patient p WHERE p.cnic = $1`, cnic,
	).Scan(patientDest(&p)...)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *patientRepoPG) Update(ctx context.Context, p *Patient) error {
	return db.Pick(ctx, r.pool).QueryRow(ctx, `
		UPDATE patient SET
			name = $2, father_name = $3, email = $4, identity = $5, cnic = $6,
			crc = $7, crc_number = $8, contact_number = $9, education = $10,
			age = $11, marriage_years = $12, occupation = $13, address = $14,
			catchment_area = $15, amount_payed = $16, attended_by_doctor_id = $17,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		p.ID, p.Name, p.FatherName, p.Email, p.Identity, p.CNIC,
		p.CRC, p.CRCNumber, p.ContactNumber, p.Education,
		p.Age, p.MarriageYears, p.Occupation, p.Address,
		p.CatchmentArea, p.AmountPayed, p.AttendedByDoctorID,
	).Scan(&p.UpdatedAt)
}

func (r *patientRepoPG) SetTokenNumber(ctx context.Context, id uuid.UUID, token int) error {
	tag, err := db.Pick(ctx, r.pool).Exec(ctx,
		`UPDATE patient SET token_number = $2, updated_at = NOW() WHERE id = $1`, id, token)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *patientRepoPG) SearchByCNIC(ctx context.Context, query string) ([]*Patient, error) {
	rows, err := db.Pick(ctx, r.pool).Query(ctx, `
		SELECT `+patientColumns+`, `+expandedColumns+`
		FROM patient p`+expandedJoins+`
		WHERE p.cnic LIKE $1
		   OR EXISTS (
			SELECT 1 FROM patient_relation r
			WHERE r.patient_id = p.id AND r.relation_cnic LIKE $1
		   )
		ORDER BY p.created_at DESC`, likeContains(query))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Patient
	for rows.Next() {
		p, err := scanExpanded(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// -- Relation Repository --

type relationRepoPG struct {
	pool *pgxpool.Pool
}

func NewRelationRepo(pool *pgxpool.Pool) RelationRepository {
	return &relationRepoPG{pool: pool}
}

func (r *relationRepoPG) CreateBatch(ctx context.Context, relations []*Relation) error {
	q := db.Pick(ctx, r.pool)
	for _, rel := range relations {
		rel.ID = uuid.New()
		if _, err := q.Exec(ctx, `
			INSERT INTO patient_relation (id, patient_id, relation, relation_name, relation_cnic)
			VALUES ($1, $2, $3, $4, $5)`,
			rel.ID, rel.PatientID, rel.Relation, rel.RelationName, rel.RelationCNIC,
		); err != nil {
			return err
		}
	}
	return nil
}

func (r *relationRepoPG) ListByPatients(ctx context.Context, patientIDs []uuid.UUID) (map[uuid.UUID][]*Relation, error) {
	out := make(map[uuid.UUID][]*Relation, len(patientIDs))
	if len(patientIDs) == 0 {
		return out, nil
	}

	rows, err := db.Pick(ctx, r.pool).Query(ctx, `
		SELECT id, patient_id, relation, relation_name, relation_cnic
		FROM patient_relation
		WHERE patient_id = ANY($1)
		ORDER BY created_at, id`, patientIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var rel Relation
		if err := rows.Scan(&rel.ID, &rel.PatientID, &rel.Relation, &rel.RelationName, &rel.RelationCNIC); err != nil {
			return nil, err
		}
		out[rel.PatientID] = append(out[rel.PatientID], &rel)
	}
	return out, rows.Err()
}

// -- Visit Repository --

type visitRepoPG struct {
	pool *pgxpool.Pool
}

func NewVisitRepo(pool *pgxpool.Pool) VisitRepository {
	return &visitRepoPG{pool: pool}
}

func (r *visitRepoPG) Create(ctx context.Context, v *Visit) error {
	v.ID = uuid.New()
	if v.Date.IsZero() {
		return db.Pick(ctx, r.pool).QueryRow(ctx, `
			INSERT INTO visit (id, patient_id, token_number) VALUES ($1, $2, $3)
			RETURNING date`,
			v.ID, v.PatientID, v.TokenNumber,
		).Scan(&v.Date)
	}
	_, err := db.Pick(ctx, r.pool).Exec(ctx, `
		INSERT INTO visit (id, patient_id, date, token_number) VALUES ($1, $2, $3, $4)`,
		v.ID, v.PatientID, v.Date, v.TokenNumber,
	)
	return err
}

func (r *visitRepoPG) ListBetween(ctx context.Context, from, to time.Time) ([]*DailyVisit, error) {
	rows, err := db.Pick(ctx, r.pool).Query(ctx, `
		SELECT v.id, v.date, v.token_number, `+patientColumns+`, `+expandedColumns+`
		FROM visit v
		JOIN patient p ON p.id = v.patient_id`+expandedJoins+`
		WHERE v.date >= $1 AND v.date < $2
		ORDER BY v.token_number NULLS LAST, v.date, v.id`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*DailyVisit
	for rows.Next() {
		var dv DailyVisit
		var p Patient
		var extra doctorCols
		dest := append([]interface{}{&dv.ID, &dv.VisitedAt, &dv.TokenNumber}, patientDest(&p)...)
		if err := rows.Scan(append(dest, extra.dest()...)...); err != nil {
			return nil, err
		}
		extra.apply(&p)
		dv.Patient = &p
		out = append(out, &dv)
	}
	return out, rows.Err()
}

// -- Details Repository --

type detailsRepoPG struct {
	pool *pgxpool.Pool
}

func NewDetailsRepo(pool *pgxpool.Pool) DetailsRepository {
	return &detailsRepoPG{pool: pool}
}

func (r *detailsRepoPG) Upsert(ctx context.Context, d *Details) error {
	return db.Pick(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO patient_details (
			id, patient_id, weight, sugar_level, temperature, height, blood_pressure
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (patient_id) DO UPDATE SET
			weight = COALESCE(EXCLUDED.weight, patient_details.weight),
			sugar_level = COALESCE(EXCLUDED.sugar_level, patient_details.sugar_level),
			temperature = COALESCE(EXCLUDED.temperature, patient_details.temperature),
			height = COALESCE(EXCLUDED.height, patient_details.height),
			blood_pressure = COALESCE(EXCLUDED.blood_pressure, patient_details.blood_pressure),
			updated_at = NOW()
		RETURNING id, weight, sugar_level, temperature, height, blood_pressure, created_at, updated_at`,
		uuid.New(), d.PatientID, d.Weight, d.SugarLevel, d.Temperature, d.Height, d.BloodPressure,
	).Scan(&d.ID, &d.Weight, &d.SugarLevel, &d.Temperature, &d.Height, &d.BloodPressure, &d.CreatedAt, &d.UpdatedAt)
}

func (r *detailsRepoPG) GetByPatient(ctx context.Context, patientID uuid.UUID) (*Details, error) {
	var d Details
	err := db.Pick(ctx, r.pool).QueryRow(ctx, `
		SELECT id, patient_id, weight, sugar_level, temperature, height, blood_pressure, created_at, updated_at
		FROM patient_details WHERE patient_id = $1`, patientID,
	).Scan(&d.ID, &d.PatientID, &d.Weight, &d.SugarLevel, &d.Temperature, &d.Height, &d.BloodPressure, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
