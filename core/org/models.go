package org

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/swaaagray/saoms/core"
)

// Recognition statuses
const (
	RecognitionRecognized   = "recognized"
	RecognitionUnrecognized = "unrecognized" // needs re-registration after rollover
)

type College struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Course struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CollegeID string `json:"college_id"`
}

type Organization struct {
	ID                string    `json:"id"`
	Code              string    `json:"code"`
	Name              string    `json:"name"`
	CourseID          string    `json:"course_id"`
	RecognitionStatus string    `json:"recognition_status"`
	PresidentName     string    `json:"president_name,omitempty"` // cleared on rollover, re-collected on next login
	AdviserName       string    `json:"adviser_name,omitempty"`
	TermID            string    `json:"term_id"`
	CreatedAt         time.Time `json:"created_at"` // UTC
	UpdatedAt         time.Time `json:"updated_at"` // UTC
}

type Council struct {
	ID                string    `json:"id"`
	Code              string    `json:"code"`
	Name              string    `json:"name"`
	CollegeID         string    `json:"college_id"` // one council per college
	RecognitionStatus string    `json:"recognition_status"`
	PresidentName     string    `json:"president_name,omitempty"`
	AdviserName       string    `json:"adviser_name,omitempty"`
	TermID            string    `json:"term_id"`
	CreatedAt         time.Time `json:"created_at"` // UTC
	UpdatedAt         time.Time `json:"updated_at"` // UTC
}

// NeedsInfoRefresh reports the evidence of a prior rollover: cleared name
// fields force a mandatory "update your info" step on next login.
func (o Organization) NeedsInfoRefresh() bool { return o.PresidentName == "" || o.AdviserName == "" }
func (c Council) NeedsInfoRefresh() bool      { return c.PresidentName == "" || c.AdviserName == "" }

// Officer positions, in deterministic listing order.
var PositionRanks = map[string]int{
	"President":                  1,
	"Vice President Internal":    2,
	"Vice President External":    3,
	"Secretary":                  4,
	"Assistant Secretary":        5,
	"Treasurer":                  6,
	"Assistant Treasurer":        7,
	"Auditor":                    8,
	"Business Manager":           9,
	"Public Information Officer": 10,
	"Sergeant at Arms":           11,
	"Representative":             12,
}

func PositionRank(position string) int {
	if rank, ok := PositionRanks[position]; ok {
		return rank
	}
	return len(PositionRanks) + 1 // unknown positions list last
}

type StudentOfficial struct {
	ID            string         `json:"id"`
	OwnerKind     core.OwnerKind `json:"owner_kind"` // organization XOR council
	OwnerID       string         `json:"owner_id"`
	TermID        string         `json:"term_id"`
	StudentNumber string         `json:"student_number"`
	Name          string         `json:"name"`
	Position      string         `json:"position"`
	PicturePath   string         `json:"picture_path,omitempty"`
	CreatedAt     time.Time      `json:"created_at"` // UTC
}

// NewOfficial contains information needed to add an officer record.
type NewOfficial struct {
	StudentNumber string `json:"student_number" validate:"required"`
	Name          string `json:"name" validate:"required"`
	Position      string `json:"position" validate:"required"`
	PicturePath   string `json:"picture_path"`
}

func (no *NewOfficial) Validate(validate *validator.Validate) error {
	no.StudentNumber = core.CleanString(no.StudentNumber)
	no.Name = core.CleanString(no.Name)
	no.Position = core.CleanString(no.Position)
	return validate.Struct(no)
}

// OwnerInfoUpdate is the mandatory post-rollover info refresh payload.
type OwnerInfoUpdate struct {
	PresidentName string `json:"president_name" validate:"required"`
	AdviserName   string `json:"adviser_name" validate:"required"`
}

func (up *OwnerInfoUpdate) Validate(validate *validator.Validate) error {
	up.PresidentName = core.CleanString(up.PresidentName)
	up.AdviserName = core.CleanString(up.AdviserName)
	return validate.Struct(up)
}
