package patient

import (
	"time"

	"github.com/google/uuid"
)

// Relationship is the kind of a patient's family or guardian contact.
type Relationship string

const (
	RelationshipNone     Relationship = "NONE"
	RelationshipFather   Relationship = "FATHER"
	RelationshipMother   Relationship = "MOTHER"
	RelationshipHusband  Relationship = "HUSBAND"
	RelationshipWife     Relationship = "WIFE"
	RelationshipSon      Relationship = "SON"
	RelationshipDaughter Relationship = "DAUGHTER"
	RelationshipBrother  Relationship = "BROTHER"
	RelationshipSister   Relationship = "SISTER"
	RelationshipGuardian Relationship = "GUARDIAN"
	RelationshipOther    Relationship = "OTHER"
)

func (r Relationship) Valid() bool {
	switch r {
	case RelationshipNone, RelationshipFather, RelationshipMother, RelationshipHusband,
		RelationshipWife, RelationshipSon, RelationshipDaughter, RelationshipBrother,
		RelationshipSister, RelationshipGuardian, RelationshipOther:
		return true
	}
	return false
}

// Identity is the kind of identity document the patient presented.
type Identity string

const (
	IdentityCNIC     Identity = "CNIC"
	IdentityBForm    Identity = "B_FORM"
	IdentityPassport Identity = "PASSPORT"
	IdentityOther    Identity = "OTHER"
)

func (i Identity) Valid() bool {
	switch i {
	case IdentityCNIC, IdentityBForm, IdentityPassport, IdentityOther:
		return true
	}
	return false
}

// CRC is the clinic registration card status.
type CRC string

const (
	CRCNew      CRC = "NEW"
	CRCExisting CRC = "EXISTING"
)

func (c CRC) Valid() bool {
	return c == CRCNew || c == CRCExisting
}

// CatchmentArea says whether the patient lives inside the clinic's service area.
type CatchmentArea string

const (
	CatchmentInside  CatchmentArea = "INSIDE"
	CatchmentOutside CatchmentArea = "OUTSIDE"
)

func (a CatchmentArea) Valid() bool {
	return a == CatchmentInside || a == CatchmentOutside
}

// Patient is the aggregate root for relations, visits and details.
type Patient struct {
	ID                 uuid.UUID     `json:"id"`
	Name               string        `json:"name"`
	FatherName         string        `json:"fatherName"`
	Email              string        `json:"email"`
	Identity           Identity      `json:"identity"`
	CNIC               *string       `json:"cnic"`
	CRC                CRC           `json:"crc"`
	CRCNumber          string        `json:"crcNumber"`
	ContactNumber      string        `json:"contactNumber"`
	Education          string        `json:"education"`
	Age                string        `json:"age"`
	MarriageYears      string        `json:"marriageYears"`
	Occupation         string        `json:"occupation"`
	Address            string        `json:"address"`
	CatchmentArea      CatchmentArea `json:"catchmentArea"`
	AmountPayed        *string       `json:"amountPayed"`
	TokenNumber        *int          `json:"tokenNumber"`
	AttendedByDoctorID uuid.UUID     `json:"attendedByDoctorId"`
	CreatedAt          time.Time     `json:"createdAt"`
	UpdatedAt          time.Time     `json:"updatedAt"`

	Relations        []*Relation `json:"relation,omitempty"`
	Visits           []*Visit    `json:"visit,omitempty"`
	Details          *Details    `json:"details,omitempty"`
	AttendedByDoctor *Doctor     `json:"attendedByDoctor,omitempty"`
	LastVisit        *time.Time  `json:"lastVisit"`
}

type Relation struct {
	ID           uuid.UUID    `json:"id"`
	PatientID    uuid.UUID    `json:"patientId"`
	Relation     Relationship `json:"relation"`
	RelationName string       `json:"relationName"`
	RelationCNIC string       `json:"relationCNIC"`
}

type Visit struct {
	ID          uuid.UUID `json:"id"`
	PatientID   uuid.UUID `json:"patientId"`
	Date        time.Time `json:"date"`
	TokenNumber *int      `json:"tokenNumber"`
}

// Details holds the vitals recorded by a nurse. A patient has at most one row.
type Details struct {
	ID            uuid.UUID `json:"id"`
	PatientID     uuid.UUID `json:"patientId"`
	Weight        *float64  `json:"weight"`
	SugarLevel    *float64  `json:"sugarLevel"`
	Temperature   *float64  `json:"temperature"`
	Height        *float64  `json:"height"`
	BloodPressure *string   `json:"bloodPressure"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Doctor is the attending doctor as shown alongside a patient.
type Doctor struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Specialization *string   `json:"specialization"`
	Qualification  *string   `json:"qualification"`
}

// DailyVisit is one row of the front desk's visit list for a day.
type DailyVisit struct {
	ID          uuid.UUID `json:"id"`
	VisitedAt   time.Time `json:"visitedAt"`
	TokenNumber *int      `json:"tokenNumber"`
	Patient     *Patient  `json:"patient"`
}

// CreatePatientInput is the registration payload. Relations, Visits and
// Details are optional sub-records; a nil or empty value means absent.
type CreatePatientInput struct {
	AttendedByDoctorID string        `json:"attendedByDoctorId"`
	Name               string        `json:"name"`
	FatherName         string        `json:"fatherName"`
	Email              string        `json:"email"`
	Identity           Identity      `json:"identity"`
	CNIC               *string       `json:"cnic"`
	CRC                CRC           `json:"crc"`
	CRCNumber          string        `json:"crcNumber"`
	ContactNumber      string        `json:"contactNumber"`
	Education          string        `json:"education"`
	Age                string        `json:"age"`
	MarriageYears      string        `json:"marriageYears"`
	Occupation         string        `json:"occupation"`
	Address            string        `json:"address"`
	CatchmentArea      CatchmentArea `json:"catchmentArea"`
	AmountPayed        *string       `json:"amountPayed"`

	Relations []RelationInput `json:"relation"`
	Visits    []VisitInput    `json:"visit"`
	Details   *DetailsInput   `json:"details"`
}

type RelationInput struct {
	Relation     Relationship `json:"relation"`
	RelationName string       `json:"relationName"`
	RelationCNIC string       `json:"relationCNIC"`
}

// VisitInput is an initial visit. The token number is always assigned by the
// server; a nil Date means now.
type VisitInput struct {
	Date *time.Time `json:"date"`
}

type DetailsInput struct {
	Weight        *float64 `json:"weight"`
	SugarLevel    *float64 `json:"sugarLevel"`
	Temperature   *float64 `json:"temperature"`
	Height        *float64 `json:"height"`
	BloodPressure *string  `json:"bloodPressure"`
}

// UpdatePatientInput carries a partial update; nil fields are left unchanged.
// Relations are appended to the existing ones.
type UpdatePatientInput struct {
	AttendedByDoctorID *string        `json:"attendedByDoctorId"`
	Name               *string        `json:"name"`
	FatherName         *string        `json:"fatherName"`
	Email              *string        `json:"email"`
	Identity           *Identity      `json:"identity"`
	CNIC               *string        `json:"cnic"`
	CRC                *CRC           `json:"crc"`
	CRCNumber          *string        `json:"crcNumber"`
	ContactNumber      *string        `json:"contactNumber"`
	Education          *string        `json:"education"`
	Age                *string        `json:"age"`
	MarriageYears      *string        `json:"marriageYears"`
	Occupation         *string        `json:"occupation"`
	Address            *string        `json:"address"`
	CatchmentArea      *CatchmentArea `json:"catchmentArea"`
	AmountPayed        *string        `json:"amountPayed"`

	Relations []RelationInput `json:"relation"`
}

// RecordVisitInput is the body of POST /frontdesk/visits.
type RecordVisitInput struct {
	PatientID string `json:"patientId"`
}
