package application

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/swaaagray/saoms/core"
)

// Application kinds and statuses
const (
	KindOrganization = "organization"
	KindCouncil      = "council"

	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// EmailVerification is a short-lived 6-digit code issued to verify an
// application submission; one row per email.
type EmailVerification struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Code      string    `json:"-"`
	FormData  []byte    `json:"-"` // serialized pending NewApplication
	ExpiresAt time.Time `json:"expires_at"` // UTC
	SentAt    time.Time `json:"sent_at"`    // UTC
}

func (v EmailVerification) Expired(now time.Time) bool { return now.After(v.ExpiresAt) }

// CooldownError reports how long a requester must wait before a new code.
type CooldownError struct {
	Remaining int // seconds
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("please wait %d seconds before requesting another code", e.Remaining)
}

// OrganizationApplication is a staged application awaiting OSAS review,
// created only after OTP verification succeeds.
type OrganizationApplication struct {
	ID           string    `json:"id"`
	Kind         string    `json:"kind"` // organization | council
	OrgCode      string    `json:"org_code"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	FormData     []byte    `json:"-"` // denormalized form JSON until approved
	Status       string    `json:"status"`
	SubmittedAt  time.Time `json:"submitted_at"` // UTC
	ReviewedAt   time.Time `json:"reviewed_at,omitempty"`
	ReviewedBy   string    `json:"reviewed_by,omitempty"`
	RejectReason string    `json:"reject_reason,omitempty"`
}

// NewApplication is the organization/council application form.
type NewApplication struct {
	Kind          string `json:"kind" validate:"required,oneof=organization council"`
	OrgCode       string `json:"org_code" validate:"required,min=2,orgcode"`
	Name          string `json:"name" validate:"required"`
	Email         string `json:"email" validate:"required,email"`
	CourseID      string `json:"course_id" validate:"required_if=Kind organization"`
	CollegeID     string `json:"college_id" validate:"required_if=Kind council"`
	PresidentName string `json:"president_name" validate:"required"`
	AdviserName   string `json:"adviser_name" validate:"required"`
}

func (na *NewApplication) Validate(validate *validator.Validate) error {
	na.Kind = core.CleanString(na.Kind, true /* lower */)
	na.OrgCode = core.CleanString(na.OrgCode, true /* lower */)
	na.Name = core.CleanString(na.Name)
	na.Email = core.CleanString(na.Email, true /* lower */)
	na.PresidentName = core.CleanString(na.PresidentName)
	na.AdviserName = core.CleanString(na.AdviserName)
	return validate.Struct(na)
}

func (na NewApplication) Marshal() ([]byte, error) { return json.Marshal(na) }

func UnmarshalForm(data []byte) (NewApplication, error) {
	var na NewApplication
	err := json.Unmarshal(data, &na)
	return na, err
}
