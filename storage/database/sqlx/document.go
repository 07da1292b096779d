package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/swaaagray/saoms/core"
	"github.com/swaaagray/saoms/core/document"
)

var documentColumns = []string{
	"id", "owner_kind", "owner_id", "term_id", "type_id", "file_path", "status",
	"adviser_approved_at", "adviser_approved_by", "osas_approved_at", "osas_approved_by",
	"rejected_at", "rejected_by", "reject_reason",
	"resubmit_deadline", "deadline_set_by", "deadline_set_at",
	"submitted_at", "updated_at",
}

type documentRow struct {
	ID                string      `db:"id"`
	OwnerKind         string      `db:"owner_kind"`
	OwnerID           string      `db:"owner_id"`
	TermID            string      `db:"term_id"`
	TypeID            string      `db:"type_id"`
	FilePath          string      `db:"file_path"`
	Status            string      `db:"status"`
	AdviserApprovedAt null.Time   `db:"adviser_approved_at"`
	AdviserApprovedBy null.String `db:"adviser_approved_by"`
	OsasApprovedAt    null.Time   `db:"osas_approved_at"`
	OsasApprovedBy    null.String `db:"osas_approved_by"`
	RejectedAt        null.Time   `db:"rejected_at"`
	RejectedBy        null.String `db:"rejected_by"`
	RejectReason      null.String `db:"reject_reason"`
	ResubmitDeadline  null.Time   `db:"resubmit_deadline"`
	DeadlineSetBy     null.String `db:"deadline_set_by"`
	DeadlineSetAt     null.Time   `db:"deadline_set_at"`
	SubmittedAt       time.Time   `db:"submitted_at"`
	UpdatedAt         time.Time   `db:"updated_at"`
}

func (r documentRow) model() document.Document {
	return document.Document{
		ID:                r.ID,
		OwnerKind:         core.OwnerKind(r.OwnerKind),
		OwnerID:           r.OwnerID,
		TermID:            r.TermID,
		TypeID:            r.TypeID,
		FilePath:          r.FilePath,
		Status:            r.Status,
		AdviserApprovedAt: r.AdviserApprovedAt.Time,
		AdviserApprovedBy: r.AdviserApprovedBy.String,
		OsasApprovedAt:    r.OsasApprovedAt.Time,
		OsasApprovedBy:    r.OsasApprovedBy.String,
		RejectedAt:        r.RejectedAt.Time,
		RejectedBy:        r.RejectedBy.String,
		RejectReason:      r.RejectReason.String,
		ResubmitDeadline:  r.ResubmitDeadline.Time,
		DeadlineSetBy:     r.DeadlineSetBy.String,
		DeadlineSetAt:     r.DeadlineSetAt.Time,
		SubmittedAt:       r.SubmittedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

type listedDocumentRow struct {
	documentRow
	TypeName string `db:"type_name"`
	Required bool   `db:"required"`
}

func (r listedDocumentRow) model() document.ListedDocument {
	return document.ListedDocument{
		Document: r.documentRow.model(),
		TypeName: r.TypeName,
		Required: r.Required,
	}
}

type documentRepository struct {
	db *sqlx.DB
}

var _ document.Repository = (*documentRepository)(nil) // interface compliance check

func NewDocumentRepository(db *sqlx.DB) *documentRepository {
	return &documentRepository{db: db}
}

func (repo *documentRepository) QueryTypes(ctx context.Context, appliesTo core.OwnerKind) ([]document.DocumentType, error) {
	qry, args, err := psql.Select("id", "name", "required", "applies_to").From("document_type").
		Where(sq.Eq{"applies_to": string(appliesTo)}).OrderBy("name").ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var rows []struct {
		ID        string `db:"id"`
		Name      string `db:"name"`
		Required  bool   `db:"required"`
		AppliesTo string `db:"applies_to"`
	}
	if err = repo.db.SelectContext(ctx, &rows, qry, args...); err != nil {
		return nil, errors.Wrap(err, "querying document types")
	}
	types := make([]document.DocumentType, 0, len(rows))
	for _, r := range rows {
		types = append(types, document.DocumentType{
			ID: r.ID, Name: r.Name, Required: r.Required, AppliesTo: core.OwnerKind(r.AppliesTo),
		})
	}
	return types, nil
}

func (repo *documentRepository) values(doc document.Document) []interface{} {
	return []interface{}{
		doc.ID, string(doc.OwnerKind), doc.OwnerID, doc.TermID, doc.TypeID, doc.FilePath, doc.Status,
		null.NewTime(doc.AdviserApprovedAt.UTC(), !doc.AdviserApprovedAt.IsZero()),
		null.NewString(doc.AdviserApprovedBy, doc.AdviserApprovedBy != ""),
		null.NewTime(doc.OsasApprovedAt.UTC(), !doc.OsasApprovedAt.IsZero()),
		null.NewString(doc.OsasApprovedBy, doc.OsasApprovedBy != ""),
		null.NewTime(doc.RejectedAt.UTC(), !doc.RejectedAt.IsZero()),
		null.NewString(doc.RejectedBy, doc.RejectedBy != ""),
		null.NewString(doc.RejectReason, doc.RejectReason != ""),
		null.NewTime(doc.ResubmitDeadline.UTC(), !doc.ResubmitDeadline.IsZero()),
		null.NewString(doc.DeadlineSetBy, doc.DeadlineSetBy != ""),
		null.NewTime(doc.DeadlineSetAt.UTC(), !doc.DeadlineSetAt.IsZero()),
		doc.SubmittedAt.UTC(), doc.UpdatedAt.UTC(),
	}
}

func (repo *documentRepository) CreateDocument(ctx context.Context, doc document.Document) (document.Document, error) {
	doc.ID = uuid.New().String()
	qry, args, err := psql.Insert("document").Columns(documentColumns...).Values(repo.values(doc)...).ToSql()
	if err != nil {
		return document.Document{}, errors.Wrap(err, "building query")
	}
	if _, err = repo.db.ExecContext(ctx, qry, args...); err != nil {
		return document.Document{}, errors.Wrap(err, "inserting document")
	}
	return doc, nil
}

// ownershipPred limits a document query to what the principal may see.
// Event documents are owned through the event's owner.
func ownershipPred(p core.Principal) (sq.Sqlizer, error) {
	if p.IsOsas() {
		return nil, nil
	}

	var kind core.OwnerKind
	var ownerID string
	switch {
	case p.OrganizationID != "":
		kind, ownerID = core.OwnerOrganization, p.OrganizationID
	case p.CouncilID != "":
		kind, ownerID = core.OwnerCouncil, p.CouncilID
	default:
		return nil, core.ErrPermissionDenied
	}

	return sq.Or{
		sq.Eq{"d.owner_kind": string(kind), "d.owner_id": ownerID},
		sq.And{
			sq.Eq{"d.owner_kind": string(core.OwnerEvent)},
			sq.Expr("d.owner_id IN (SELECT id FROM event WHERE owner_kind = ? AND owner_id = ?)", string(kind), ownerID),
		},
	}, nil
}

func (repo *documentRepository) GetDocumentOwned(ctx context.Context, p core.Principal, id string) (document.Document, error) {
	if !validUUID(id) {
		return document.Document{}, document.ErrNotFound
	}

	pred, err := ownershipPred(p)
	if err != nil {
		return document.Document{}, err
	}

	b := psql.Select(prefixColumns("d", documentColumns)...).From("document d").Where(sq.Eq{"d.id": id})
	if pred != nil {
		b = b.Where(pred)
	}
	qry, args, err := b.ToSql()
	if err != nil {
		return document.Document{}, errors.Wrap(err, "building query")
	}
	var row documentRow
	if err = repo.db.GetContext(ctx, &row, qry, args...); err != nil {
		return document.Document{}, trapNoRowsErr(err, document.ErrNotFound, "finding document")
	}
	return row.model(), nil
}

func (repo *documentRepository) queryListed(ctx context.Context, pred interface{}) ([]document.ListedDocument, error) {
	cols := append(prefixColumns("d", documentColumns), "dt.name AS type_name", "dt.required")
	qry, args, err := psql.Select(cols...).
		From("document d").
		Join("document_type dt ON dt.id = d.type_id").
		Where(pred).ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var rows []listedDocumentRow
	if err = repo.db.SelectContext(ctx, &rows, qry, args...); err != nil {
		return nil, errors.Wrap(err, "querying documents")
	}
	docs := make([]document.ListedDocument, 0, len(rows))
	for _, r := range rows {
		docs = append(docs, r.model())
	}
	return docs, nil
}

func (repo *documentRepository) QueryDocuments(ctx context.Context, ownerKind core.OwnerKind, ownerID, termID string) ([]document.ListedDocument, error) {
	return repo.queryListed(ctx, sq.Eq{"d.owner_kind": string(ownerKind), "d.owner_id": ownerID, "d.term_id": termID})
}

func (repo *documentRepository) QueryPendingForOsas(ctx context.Context, termID string) ([]document.ListedDocument, error) {
	return repo.queryListed(ctx, sq.And{
		sq.Eq{"d.term_id": termID},
		sq.Eq{"d.status": []string{document.StatusPending, document.StatusAdviserApproved}},
	})
}

func (repo *documentRepository) UpdateDocument(ctx context.Context, doc document.Document, tr document.Transition) (document.Document, error) {
	err := inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		qry, args, err := psql.Update("document").
			Set("file_path", doc.FilePath).
			Set("status", doc.Status).
			Set("adviser_approved_at", null.NewTime(doc.AdviserApprovedAt.UTC(), !doc.AdviserApprovedAt.IsZero())).
			Set("adviser_approved_by", null.NewString(doc.AdviserApprovedBy, doc.AdviserApprovedBy != "")).
			Set("osas_approved_at", null.NewTime(doc.OsasApprovedAt.UTC(), !doc.OsasApprovedAt.IsZero())).
			Set("osas_approved_by", null.NewString(doc.OsasApprovedBy, doc.OsasApprovedBy != "")).
			Set("rejected_at", null.NewTime(doc.RejectedAt.UTC(), !doc.RejectedAt.IsZero())).
			Set("rejected_by", null.NewString(doc.RejectedBy, doc.RejectedBy != "")).
			Set("reject_reason", null.NewString(doc.RejectReason, doc.RejectReason != "")).
			Set("resubmit_deadline", null.NewTime(doc.ResubmitDeadline.UTC(), !doc.ResubmitDeadline.IsZero())).
			Set("deadline_set_by", null.NewString(doc.DeadlineSetBy, doc.DeadlineSetBy != "")).
			Set("deadline_set_at", null.NewTime(doc.DeadlineSetAt.UTC(), !doc.DeadlineSetAt.IsZero())).
			Set("submitted_at", doc.SubmittedAt.UTC()).
			Set("updated_at", doc.UpdatedAt.UTC()).
			Where(sq.Eq{"id": doc.ID}).ToSql()
		if err != nil {
			return errors.Wrap(err, "building query")
		}
		res, err := tx.ExecContext(ctx, qry, args...)
		if err != nil {
			return errors.Wrap(err, "updating document")
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return document.ErrNotFound
		}

		qry, args, err = psql.Insert("document_transition").
			Columns("id", "document_id", "from_status", "to_status", "actor_id", "actor_role", "reason", "at").
			Values(uuid.New().String(), doc.ID, tr.From, tr.To, tr.ActorID, tr.ActorRole,
				null.NewString(tr.Reason, tr.Reason != ""), tr.At.UTC()).ToSql()
		if err != nil {
			return errors.Wrap(err, "building query")
		}
		if _, err = tx.ExecContext(ctx, qry, args...); err != nil {
			return errors.Wrap(err, "inserting transition")
		}
		return nil
	})
	if err != nil {
		return document.Document{}, err
	}
	return doc, nil
}

func (repo *documentRepository) QueryTransitions(ctx context.Context, documentID string) ([]document.Transition, error) {
	if !validUUID(documentID) {
		return nil, document.ErrNotFound
	}
	qry, args, err := psql.Select("id", "document_id", "from_status", "to_status", "actor_id", "actor_role", "reason", "at").
		From("document_transition").
		Where(sq.Eq{"document_id": documentID}).
		OrderBy("at").ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var rows []struct {
		ID         string      `db:"id"`
		DocumentID string      `db:"document_id"`
		FromStatus string      `db:"from_status"`
		ToStatus   string      `db:"to_status"`
		ActorID    string      `db:"actor_id"`
		ActorRole  string      `db:"actor_role"`
		Reason     null.String `db:"reason"`
		At         time.Time   `db:"at"`
	}
	if err = repo.db.SelectContext(ctx, &rows, qry, args...); err != nil {
		return nil, errors.Wrap(err, "querying transitions")
	}
	trs := make([]document.Transition, 0, len(rows))
	for _, r := range rows {
		trs = append(trs, document.Transition{
			ID:         r.ID,
			DocumentID: r.DocumentID,
			From:       r.FromStatus,
			To:         r.ToStatus,
			ActorID:    r.ActorID,
			ActorRole:  r.ActorRole,
			Reason:     r.Reason.String,
			At:         r.At,
		})
	}
	return trs, nil
}
