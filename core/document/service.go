package document

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/swaaagray/saoms/core"
)

var (
	// errors
	ErrNotFound        = errors.New("document not found") // also covers unowned and malformed ids
	ErrNotPending      = errors.New("document is not awaiting this approval stage")
	ErrNotRejected     = errors.New("only rejected documents can be resubmitted")
	ErrDeadlinePassed  = errors.New("resubmission deadline has passed")
	errReasonRequired  = errors.New("a rejection reason is required")

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		QueryTypes(ctx context.Context, appliesTo core.OwnerKind) ([]DocumentType, error)
		CreateDocument(ctx context.Context, doc Document) (Document, error)
		// GetDocumentOwned re-verifies ownership by joining back to the
		// principal's owned organization/council (through the event for
		// event documents); unowned and malformed ids yield ErrNotFound.
		// OSAS principals see every document.
		GetDocumentOwned(ctx context.Context, p core.Principal, id string) (Document, error)
		QueryDocuments(ctx context.Context, ownerKind core.OwnerKind, ownerID, termID string) ([]ListedDocument, error)
		QueryPendingForOsas(ctx context.Context, termID string) ([]ListedDocument, error)
		// UpdateDocument persists the document and appends the transition in one
		// transaction.
		UpdateDocument(ctx context.Context, doc Document, tr Transition) (Document, error)
		QueryTransitions(ctx context.Context, documentID string) ([]Transition, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Submit files a document into a type slot for the principal's owned entity.
func (svc *Service) Submit(ctx context.Context, p core.Principal, ownerKind core.OwnerKind, ownerID, termID, typeID, filePath string) (Document, error) {
	if !p.IsPresident() {
		return Document{}, core.ErrPermissionDenied
	}
	now := nowFunc().UTC()
	doc := Document{
		OwnerKind:   ownerKind,
		OwnerID:     ownerID,
		TermID:      termID,
		TypeID:      typeID,
		FilePath:    filePath,
		Status:      StatusPending,
		SubmittedAt: now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateDocument(ctx, doc)
}

// Approve moves a document through its next approval stage. Advisers take the
// first stage on their own entity's documents; OSAS takes the second, or the
// first directly when a document was routed straight to OSAS review.
func (svc *Service) Approve(ctx context.Context, p core.Principal, docID string) (Document, error) {
	doc, err := svc.repo.GetDocumentOwned(ctx, p, docID)
	if err != nil {
		return Document{}, err
	}
	now := nowFunc().UTC()
	from := doc.Status

	switch p.Role {
	case core.RoleOrgAdviser, core.RoleCouncilAdviser:
		if doc.Status != StatusPending {
			return Document{}, ErrNotPending
		}
		doc.Status = StatusAdviserApproved
		doc.AdviserApprovedAt = now
		doc.AdviserApprovedBy = p.UserID
	case core.RoleOsas:
		if doc.Status != StatusAdviserApproved && doc.Status != StatusPending {
			return Document{}, ErrNotPending
		}
		doc.Status = StatusApproved
		doc.OsasApprovedAt = now
		doc.OsasApprovedBy = p.UserID
	default:
		return Document{}, core.ErrPermissionDenied
	}

	doc.UpdatedAt = now
	return svc.repo.UpdateDocument(ctx, doc, Transition{
		DocumentID: doc.ID,
		From:       from,
		To:         doc.Status,
		ActorID:    p.UserID,
		ActorRole:  p.Role,
		At:         now,
	})
}

// Reject fails a document with a mandatory reason and an optional
// resubmission deadline. Nothing is written when the reason is missing.
func (svc *Service) Reject(ctx context.Context, p core.Principal, docID, reason string, deadline time.Time) (Document, error) {
	reason = core.CleanString(reason)
	if reason == "" {
		return Document{}, core.NewValidationError(errReasonRequired,
			core.FieldError{Field: "reason", Error: errReasonRequired.Error()})
	}

	doc, err := svc.repo.GetDocumentOwned(ctx, p, docID)
	if err != nil {
		return Document{}, err
	}

	switch p.Role {
	case core.RoleOrgAdviser, core.RoleCouncilAdviser:
		if doc.Status != StatusPending {
			return Document{}, ErrNotPending
		}
	case core.RoleOsas:
		if doc.Status != StatusAdviserApproved && doc.Status != StatusPending {
			return Document{}, ErrNotPending
		}
	default:
		return Document{}, core.ErrPermissionDenied
	}

	now := nowFunc().UTC()
	from := doc.Status
	doc.Status = StatusRejected
	doc.RejectedAt = now
	doc.RejectedBy = p.UserID
	doc.RejectReason = reason
	if !deadline.IsZero() {
		doc.ResubmitDeadline = deadline
		doc.DeadlineSetBy = p.UserID
		doc.DeadlineSetAt = now
	}
	doc.UpdatedAt = now

	return svc.repo.UpdateDocument(ctx, doc, Transition{
		DocumentID: doc.ID,
		From:       from,
		To:         StatusRejected,
		ActorID:    p.UserID,
		ActorRole:  p.Role,
		Reason:     reason,
		At:         now,
	})
}

// Resubmit replaces a rejected document's file and resets its slot to
// pending, only while any resubmission deadline has not passed.
func (svc *Service) Resubmit(ctx context.Context, p core.Principal, docID, newFilePath string) (Document, error) {
	if !p.IsPresident() {
		return Document{}, core.ErrPermissionDenied
	}
	doc, err := svc.repo.GetDocumentOwned(ctx, p, docID)
	if err != nil {
		return Document{}, err
	}
	if doc.Status != StatusRejected {
		return Document{}, ErrNotRejected
	}
	now := nowFunc().UTC()
	if !doc.ResubmitDeadline.IsZero() && now.After(doc.ResubmitDeadline) {
		return Document{}, ErrDeadlinePassed
	}

	doc.Status = StatusPending
	doc.FilePath = newFilePath
	doc.RejectedAt = time.Time{}
	doc.RejectedBy = ""
	doc.RejectReason = ""
	doc.AdviserApprovedAt = time.Time{}
	doc.AdviserApprovedBy = ""
	doc.SubmittedAt = now
	doc.UpdatedAt = now

	return svc.repo.UpdateDocument(ctx, doc, Transition{
		DocumentID: doc.ID,
		From:       StatusRejected,
		To:         StatusPending,
		ActorID:    p.UserID,
		ActorRole:  p.Role,
		At:         now,
	})
}

// ListForOwner returns an owner's documents joined to the type catalog,
// ordered required-first then by type name.
func (svc *Service) ListForOwner(ctx context.Context, ownerKind core.OwnerKind, ownerID, termID string) ([]ListedDocument, error) {
	docs, err := svc.repo.QueryDocuments(ctx, ownerKind, ownerID, termID)
	if err != nil {
		return nil, err
	}
	sortListed(docs)
	return docs, nil
}

// ListPendingForOsas returns every document awaiting OSAS review this term.
func (svc *Service) ListPendingForOsas(ctx context.Context, p core.Principal, termID string) ([]ListedDocument, error) {
	if !p.HasAnyRole(core.RoleOsas) {
		return nil, core.ErrPermissionDenied
	}
	docs, err := svc.repo.QueryPendingForOsas(ctx, termID)
	if err != nil {
		return nil, err
	}
	sortListed(docs)
	return docs, nil
}

func (svc *Service) Transitions(ctx context.Context, p core.Principal, docID string) ([]Transition, error) {
	if _, err := svc.repo.GetDocumentOwned(ctx, p, docID); err != nil {
		return nil, err
	}
	return svc.repo.QueryTransitions(ctx, docID)
}

func (svc *Service) QueryTypes(ctx context.Context, appliesTo core.OwnerKind) ([]DocumentType, error) {
	return svc.repo.QueryTypes(ctx, appliesTo)
}

func sortListed(docs []ListedDocument) {
	sort.SliceStable(docs, func(i, j int) bool {
		if docs[i].Required != docs[j].Required {
			return docs[i].Required
		}
		return docs[i].TypeName < docs[j].TypeName
	})
}
