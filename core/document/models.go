package document

import (
	"time"

	"github.com/swaaagray/saoms/core"
)

// Document statuses; explicit tagged states rather than timestamp inference.
const (
	StatusPending         = "pending"
	StatusAdviserApproved = "adviser_approved"
	StatusApproved        = "approved" // OSAS approved
	StatusRejected        = "rejected"
)

// DocumentType is one entry of the required/optional document catalog.
type DocumentType struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Required  bool           `json:"required"`
	AppliesTo core.OwnerKind `json:"applies_to"`
}

type Document struct {
	ID        string         `json:"id"`
	OwnerKind core.OwnerKind `json:"owner_kind"` // organization | council | event
	OwnerID   string         `json:"owner_id"`
	TermID    string         `json:"term_id"`
	TypeID    string         `json:"type_id"`
	FilePath  string         `json:"file_path"`
	Status    string         `json:"status"`

	// audit fields; data only, never used to derive Status
	AdviserApprovedAt time.Time `json:"adviser_approved_at,omitempty"`
	AdviserApprovedBy string    `json:"adviser_approved_by,omitempty"`
	OsasApprovedAt    time.Time `json:"osas_approved_at,omitempty"`
	OsasApprovedBy    string    `json:"osas_approved_by,omitempty"`
	RejectedAt        time.Time `json:"rejected_at,omitempty"`
	RejectedBy        string    `json:"rejected_by,omitempty"`
	RejectReason      string    `json:"reject_reason,omitempty"`

	// resubmission deadline, set by whichever role rejected
	ResubmitDeadline time.Time `json:"resubmit_deadline,omitempty"`
	DeadlineSetBy    string    `json:"deadline_set_by,omitempty"`
	DeadlineSetAt    time.Time `json:"deadline_set_at,omitempty"`

	SubmittedAt time.Time `json:"submitted_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"`   // UTC
}

// Transition is one append-only audit row per state change.
type Transition struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	ActorID    string    `json:"actor_id"`
	ActorRole  string    `json:"actor_role"`
	Reason     string    `json:"reason,omitempty"`
	At         time.Time `json:"at"` // UTC
}

// ListedDocument is a document joined to its type catalog entry for the
// approver-facing listing.
type ListedDocument struct {
	Document
	TypeName string `json:"type_name"`
	Required bool   `json:"required"`
}
