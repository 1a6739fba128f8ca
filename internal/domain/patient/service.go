package patient

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Ruhamakhan123/nhs-ibrahim-backend/internal/platform/apperror"
	"github.com/Ruhamakhan123/nhs-ibrahim-backend/internal/platform/db"
)

// DayLayout is the format of the date query parameter of the daily visit list.
const DayLayout = "2006-01-02"

const cnicConstraint = "patient_cnic_key"

// TokenSource allocates daily token numbers; see token.Sequencer.
type TokenSource interface {
	Next(ctx context.Context) (int, error)
}

// DoctorLookup reports whether id belongs to a staff user with the doctor role.
type DoctorLookup interface {
	IsDoctor(ctx context.Context, id uuid.UUID) (bool, error)
}

type Service struct {
	tx        db.TxRunner
	patients  PatientRepository
	relations RelationRepository
	visits    VisitRepository
	details   DetailsRepository
	tokens    TokenSource
	doctors   DoctorLookup
	log       zerolog.Logger
	now       func() time.Time
	loc       *time.Location
}

func NewService(
	tx db.TxRunner,
	patients PatientRepository,
	relations RelationRepository,
	visits VisitRepository,
	details DetailsRepository,
	tokens TokenSource,
	doctors DoctorLookup,
	log zerolog.Logger,
) *Service {
	return &Service{
		tx:        tx,
		patients:  patients,
		relations: relations,
		visits:    visits,
		details:   details,
		tokens:    tokens,
		doctors:   doctors,
		log:       log,
		now:       time.Now,
		loc:       time.Local,
	}
}

// SetClock replaces the clock and the time zone that defines "today".
func (s *Service) SetClock(now func() time.Time, loc *time.Location) {
	if now != nil {
		s.now = now
	}
	if loc != nil {
		s.loc = loc
	}
}

// -- Registration --

// RegisterPatient creates a patient with its optional relations, initial
// visits and details in one transaction. Initial visits share a single newly
// allocated token, which also becomes the patient's token.
func (s *Service) RegisterPatient(ctx context.Context, in CreatePatientInput) (*Patient, error) {
	if strings.TrimSpace(in.AttendedByDoctorID) == "" {
		return nil, apperror.Validation("doctor ID is required to create a patient")
	}
	doctorID, err := parseID(in.AttendedByDoctorID, "attendedByDoctorId")
	if err != nil {
		return nil, err
	}
	if err := validateIdentityFields(in.Name, in.FatherName, in.ContactNumber, in.Email); err != nil {
		return nil, err
	}
	if err := validateEnums(in.Identity, in.CRC, in.CatchmentArea); err != nil {
		return nil, err
	}
	relations, err := relationsToPersist(in.Relations)
	if err != nil {
		return nil, err
	}
	if err := s.requireDoctor(ctx, doctorID); err != nil {
		return nil, err
	}

	p := &Patient{
		Name:               strings.TrimSpace(in.Name),
		FatherName:         strings.TrimSpace(in.FatherName),
		Email:              strings.TrimSpace(in.Email),
		Identity:           in.Identity,
		CNIC:               normalizeCNIC(in.CNIC),
		CRC:                in.CRC,
		CRCNumber:          in.CRCNumber,
		ContactNumber:      strings.TrimSpace(in.ContactNumber),
		Education:          in.Education,
		Age:                in.Age,
		MarriageYears:      in.MarriageYears,
		Occupation:         in.Occupation,
		Address:            in.Address,
		CatchmentArea:      in.CatchmentArea,
		AmountPayed:        in.AmountPayed,
		AttendedByDoctorID: doctorID,
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.ensureCNICFree(ctx, p.CNIC, uuid.Nil); err != nil {
			return err
		}

		if len(in.Visits) > 0 {
			tok, err := s.tokens.Next(ctx)
			if err != nil {
				return s.storeErr("allocate token", err)
			}
			p.TokenNumber = &tok
		}

		if err := s.patients.Create(ctx, p); err != nil {
			return s.storeErr("create patient", err)
		}

		for _, r := range relations {
			r.PatientID = p.ID
		}
		if err := s.relations.CreateBatch(ctx, relations); err != nil {
			return s.storeErr("create relations", err)
		}
		p.Relations = relations

		for _, vi := range in.Visits {
			v := &Visit{PatientID: p.ID, TokenNumber: p.TokenNumber}
			if vi.Date != nil {
				v.Date = *vi.Date
			}
			if err := s.visits.Create(ctx, v); err != nil {
				return s.storeErr("create visit", err)
			}
			p.Visits = append(p.Visits, v)
		}

		if in.Details != nil {
			d := detailsFromInput(p.ID, *in.Details)
			if err := s.details.Upsert(ctx, d); err != nil {
				return s.storeErr("create details", err)
			}
			p.Details = d
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ev := s.log.Info().Str("patient_id", p.ID.String()).Int("visits", len(p.Visits))
	if p.TokenNumber != nil {
		ev = ev.Int("token", *p.TokenNumber)
	}
	ev.Msg("patient registered")
	return p, nil
}

// -- Visits --

// RecordVisit adds one visit for an existing patient. A patient without a
// token gets one allocated and stored; otherwise the stored token is reused.
func (s *Service) RecordVisit(ctx context.Context, patientID uuid.UUID) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		p, err := s.patients.LockByID(ctx, patientID)
		if db.IsNotFound(err) {
			return apperror.NotFound("patient not found")
		}
		if err != nil {
			return s.storeErr("load patient", err)
		}

		tok := p.TokenNumber
		if tok == nil {
			n, err := s.tokens.Next(ctx)
			if err != nil {
				return s.storeErr("allocate token", err)
			}
			if err := s.patients.SetTokenNumber(ctx, p.ID, n); err != nil {
				return s.storeErr("store token", err)
			}
			tok = &n
		}

		if err := s.visits.Create(ctx, &Visit{PatientID: p.ID, TokenNumber: tok}); err != nil {
			return s.storeErr("create visit", err)
		}
		return nil
	})
}

// ParseDay parses a YYYY-MM-DD day in the service's time zone. An empty
// string means today.
func (s *Service) ParseDay(value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return s.now().In(s.loc), nil
	}
	day, err := time.ParseInLocation(DayLayout, strings.TrimSpace(value), s.loc)
	if err != nil {
		return time.Time{}, apperror.Validation("date must be formatted as YYYY-MM-DD")
	}
	return day, nil
}

// GetVisitsByDate lists the visits whose timestamp falls on day's calendar
// date: from local midnight up to, not including, the next local midnight.
func (s *Service) GetVisitsByDate(ctx context.Context, day time.Time) ([]*DailyVisit, error) {
	from, to := dayBounds(day, s.loc)

	visits, err := s.visits.ListBetween(ctx, from, to)
	if err != nil {
		return nil, s.storeErr("list visits", err)
	}

	patients := make([]*Patient, 0, len(visits))
	for _, v := range visits {
		patients = append(patients, v.Patient)
	}
	if err := s.attachRelations(ctx, patients); err != nil {
		return nil, err
	}
	if visits == nil {
		visits = []*DailyVisit{}
	}
	return visits, nil
}

func dayBounds(day time.Time, loc *time.Location) (time.Time, time.Time) {
	y, m, d := day.In(loc).Date()
	from := time.Date(y, m, d, 0, 0, 0, 0, loc)
	return from, from.AddDate(0, 0, 1)
}

// -- Queries --

// SearchPatients finds patients by a CNIC fragment matched against their own
// CNIC and their relations' CNICs.
func (s *Service) SearchPatients(ctx context.Context, cnic string) ([]*Patient, error) {
	cnic = strings.TrimSpace(cnic)
	if cnic == "" {
		return nil, apperror.Validation("cnic is required for searching patients")
	}
	patients, err := s.patients.SearchByCNIC(ctx, cnic)
	if err != nil {
		return nil, s.storeErr("search patients", err)
	}
	if err := s.attachRelations(ctx, patients); err != nil {
		return nil, err
	}
	if patients == nil {
		patients = []*Patient{}
	}
	return patients, nil
}

// SearchVisits is SearchPatients for the visit desk; an empty result is an error.
func (s *Service) SearchVisits(ctx context.Context, cnic string) ([]*Patient, error) {
	if strings.TrimSpace(cnic) == "" {
		return nil, apperror.Validation("cnic is required for searching visits")
	}
	patients, err := s.SearchPatients(ctx, cnic)
	if err != nil {
		return nil, err
	}
	if len(patients) == 0 {
		return nil, apperror.NotFound("no patients found with the provided CNIC")
	}
	return patients, nil
}

// GetPatient returns the patient with relations, attending doctor, details
// and last visit date.
func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := s.patients.GetByID(ctx, id)
	if db.IsNotFound(err) {
		return nil, apperror.NotFound("patient not found")
	}
	if err != nil {
		return nil, s.storeErr("load patient", err)
	}
	if err := s.attachRelations(ctx, []*Patient{p}); err != nil {
		return nil, err
	}

	d, err := s.details.GetByPatient(ctx, id)
	switch {
	case err == nil:
		p.Details = d
	case !db.IsNotFound(err):
		return nil, s.storeErr("load details", err)
	}
	return p, nil
}

// -- Updates --

// UpdatePatient applies the non-nil fields of in and appends any relations.
func (s *Service) UpdatePatient(ctx context.Context, id uuid.UUID, in UpdatePatientInput) (*Patient, error) {
	relations, err := relationsToPersist(in.Relations)
	if err != nil {
		return nil, err
	}

	var doctorID *uuid.UUID
	if in.AttendedByDoctorID != nil {
		if strings.TrimSpace(*in.AttendedByDoctorID) == "" {
			return nil, apperror.Validation("doctor ID cannot be empty")
		}
		parsed, err := parseID(*in.AttendedByDoctorID, "attendedByDoctorId")
		if err != nil {
			return nil, err
		}
		doctorID = &parsed
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		p, err := s.patients.LockByID(ctx, id)
		if db.IsNotFound(err) {
			return apperror.NotFound("patient not found")
		}
		if err != nil {
			return s.storeErr("load patient", err)
		}

		if err := applyUpdate(p, in); err != nil {
			return err
		}
		if doctorID != nil && *doctorID != p.AttendedByDoctorID {
			if err := s.requireDoctor(ctx, *doctorID); err != nil {
				return err
			}
			p.AttendedByDoctorID = *doctorID
		}
		if in.CNIC != nil {
			p.CNIC = normalizeCNIC(in.CNIC)
			if err := s.ensureCNICFree(ctx, p.CNIC, p.ID); err != nil {
				return err
			}
		}

		if err := s.patients.Update(ctx, p); err != nil {
			return s.storeErr("update patient", err)
		}

		for _, r := range relations {
			r.PatientID = p.ID
		}
		if err := s.relations.CreateBatch(ctx, relations); err != nil {
			return s.storeErr("create relations", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetPatient(ctx, id)
}

func applyUpdate(p *Patient, in UpdatePatientInput) error {
	name, father, contact, email := p.Name, p.FatherName, p.ContactNumber, p.Email
	if in.Name != nil {
		name = strings.TrimSpace(*in.Name)
	}
	if in.FatherName != nil {
		father = strings.TrimSpace(*in.FatherName)
	}
	if in.ContactNumber != nil {
		contact = strings.TrimSpace(*in.ContactNumber)
	}
	if in.Email != nil {
		email = strings.TrimSpace(*in.Email)
	}
	if err := validateIdentityFields(name, father, contact, email); err != nil {
		return err
	}
	p.Name, p.FatherName, p.ContactNumber, p.Email = name, father, contact, email

	identity, crc, area := p.Identity, p.CRC, p.CatchmentArea
	if in.Identity != nil {
		identity = *in.Identity
	}
	if in.CRC != nil {
		crc = *in.CRC
	}
	if in.CatchmentArea != nil {
		area = *in.CatchmentArea
	}
	if err := validateEnums(identity, crc, area); err != nil {
		return err
	}
	p.Identity, p.CRC, p.CatchmentArea = identity, crc, area

	setString(&p.CRCNumber, in.CRCNumber)
	setString(&p.Education, in.Education)
	setString(&p.Age, in.Age)
	setString(&p.MarriageYears, in.MarriageYears)
	setString(&p.Occupation, in.Occupation)
	setString(&p.Address, in.Address)
	if in.AmountPayed != nil {
		p.AmountPayed = in.AmountPayed
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// AddPatientDetails records the patient's vitals, creating the details row on
// first use and overwriting only the supplied fields afterwards.
func (s *Service) AddPatientDetails(ctx context.Context, patientID uuid.UUID, in DetailsInput) (*Details, error) {
	if err := validateDetails(in); err != nil {
		return nil, err
	}

	d := detailsFromInput(patientID, in)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.patients.LockByID(ctx, patientID); err != nil {
			if db.IsNotFound(err) {
				return apperror.NotFound("patient not found")
			}
			return s.storeErr("load patient", err)
		}
		if err := s.details.Upsert(ctx, d); err != nil {
			return s.storeErr("save details", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// -- helpers --

func (s *Service) requireDoctor(ctx context.Context, id uuid.UUID) error {
	ok, err := s.doctors.IsDoctor(ctx, id)
	if err != nil {
		return s.storeErr("look up doctor", err)
	}
	if !ok {
		return apperror.Validation("attending doctor not found")
	}
	return nil
}

// ensureCNICFree fails with a conflict when another patient than self already
// holds cnic. The unique index remains the final guard.
func (s *Service) ensureCNICFree(ctx context.Context, cnic *string, self uuid.UUID) error {
	if cnic == nil {
		return nil
	}
	existing, err := s.patients.FindByCNIC(ctx, *cnic)
	if db.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return s.storeErr("check cnic", err)
	}
	if existing.ID != self {
		return apperror.Conflict("a patient with the same CNIC already exists")
	}
	return nil
}

func (s *Service) attachRelations(ctx context.Context, patients []*Patient) error {
	if len(patients) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(patients))
	for _, p := range patients {
		ids = append(ids, p.ID)
	}
	byPatient, err := s.relations.ListByPatients(ctx, ids)
	if err != nil {
		return s.storeErr("load relations", err)
	}
	for _, p := range patients {
		p.Relations = byPatient[p.ID]
		if p.Relations == nil {
			p.Relations = []*Relation{}
		}
	}
	return nil
}

// storeErr turns a repository failure into an apperror. Classified errors
// pass through; unexpected causes are logged and hidden from callers.
func (s *Service) storeErr(op string, err error) error {
	if apperror.KindOf(err) != apperror.KindUnknown {
		return err
	}
	if db.IsUniqueViolation(err, cnicConstraint) {
		return apperror.Conflict("a patient with the same CNIC already exists")
	}
	if db.IsForeignKeyViolation(err) {
		return apperror.Validation("referenced record does not exist")
	}
	s.log.Error().Err(err).Str("op", op).Msg("patient store failure")
	return apperror.Persistence(op+" failed", err)
}

func parseID(raw, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, apperror.Validation(field + " is not a valid id")
	}
	return id, nil
}

func normalizeCNIC(cnic *string) *string {
	if cnic == nil {
		return nil
	}
	v := strings.TrimSpace(*cnic)
	if v == "" {
		return nil
	}
	return &v
}

func validateIdentityFields(name, fatherName, contact, email string) error {
	if strings.TrimSpace(name) == "" {
		return apperror.Validation("name is required")
	}
	if strings.TrimSpace(fatherName) == "" {
		return apperror.Validation("fatherName is required")
	}
	if strings.TrimSpace(contact) == "" {
		return apperror.Validation("contactNumber is required")
	}
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return apperror.Validation("email is not a valid address")
		}
	}
	return nil
}

func validateEnums(identity Identity, crc CRC, area CatchmentArea) error {
	if !identity.Valid() {
		return apperror.Validation("identity must be one of CNIC, B_FORM, PASSPORT, OTHER")
	}
	if !crc.Valid() {
		return apperror.Validation("crc must be one of NEW, EXISTING")
	}
	if !area.Valid() {
		return apperror.Validation("catchmentArea must be one of INSIDE, OUTSIDE")
	}
	return nil
}

// relationsToPersist applies the relation rule: a leading NONE entry, or no
// entries, means no relation rows. Otherwise every entry is kept and each
// entry other than NONE needs a name and CNIC.
func relationsToPersist(in []RelationInput) ([]*Relation, error) {
	if len(in) == 0 || in[0].Relation == RelationshipNone {
		return nil, nil
	}
	out := make([]*Relation, 0, len(in))
	for _, r := range in {
		if !r.Relation.Valid() {
			return nil, apperror.Validation("relation has an unknown kind")
		}
		name, cnic := strings.TrimSpace(r.RelationName), strings.TrimSpace(r.RelationCNIC)
		if r.Relation != RelationshipNone && (name == "" || cnic == "") {
			return nil, apperror.Validation("relation information is incomplete")
		}
		out = append(out, &Relation{Relation: r.Relation, RelationName: name, RelationCNIC: cnic})
	}
	return out, nil
}

func validateDetails(in DetailsInput) error {
	for name, v := range map[string]*float64{
		"weight": in.Weight, "sugarLevel": in.SugarLevel,
		"temperature": in.Temperature, "height": in.Height,
	} {
		if v != nil && *v < 0 {
			return apperror.Validation(name + " cannot be negative")
		}
	}
	return nil
}

func detailsFromInput(patientID uuid.UUID, in DetailsInput) *Details {
	return &Details{
		PatientID:     patientID,
		Weight:        in.Weight,
		SugarLevel:    in.SugarLevel,
		Temperature:   in.Temperature,
		Height:        in.Height,
		BloodPressure: in.BloodPressure,
	}
}
