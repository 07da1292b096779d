package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/swaaagray/saoms/core"
	"github.com/swaaagray/saoms/core/document"
)

// documentRepository reads the event table too: ownership of event documents
// follows the event's owner.
type documentRepository struct {
	db *DB
}

var _ document.Repository = (*documentRepository)(nil) // interface compliance check

func NewDocumentRepository(db *DB) *documentRepository {
	return &documentRepository{db: db}
}

// AddType seeds a catalog entry; the real catalog lives in migrations.
func (repo *documentRepository) AddType(dt document.DocumentType) document.DocumentType {
	repo.db.document.Lock()
	defer repo.db.document.Unlock()

	dt.ID = uuid.New().String()
	repo.db.document.types[dt.ID] = &dt
	return dt
}

func (repo *documentRepository) QueryTypes(ctx context.Context, appliesTo core.OwnerKind) ([]document.DocumentType, error) {
	repo.db.document.RLock()
	defer repo.db.document.RUnlock()

	var types []document.DocumentType
	for _, dt := range repo.db.document.types {
		if dt.AppliesTo == appliesTo {
			types = append(types, *dt)
		}
	}
	sort.Slice(types, func(i, j int) bool { return types[i].Name < types[j].Name })
	return types, nil
}

func (repo *documentRepository) CreateDocument(ctx context.Context, doc document.Document) (document.Document, error) {
	repo.db.document.Lock()
	defer repo.db.document.Unlock()

	doc.ID = uuid.New().String()
	repo.db.document.documents[doc.ID] = &doc
	return doc, nil
}

func (repo *documentRepository) owns(p core.Principal, doc *document.Document) bool {
	if p.IsOsas() {
		return true
	}

	var kind core.OwnerKind
	var ownerID string
	switch {
	case p.OrganizationID != "":
		kind, ownerID = core.OwnerOrganization, p.OrganizationID
	case p.CouncilID != "":
		kind, ownerID = core.OwnerCouncil, p.CouncilID
	default:
		return false
	}

	if doc.OwnerKind == kind && doc.OwnerID == ownerID {
		return true
	}
	if doc.OwnerKind == core.OwnerEvent {
		repo.db.event.RLock()
		defer repo.db.event.RUnlock()
		if ev, ok := repo.db.event.events[doc.OwnerID]; ok {
			return ev.OwnerKind == kind && ev.OwnerID == ownerID
		}
	}
	return false
}

func (repo *documentRepository) GetDocumentOwned(ctx context.Context, p core.Principal, id string) (document.Document, error) {
	repo.db.document.RLock()
	defer repo.db.document.RUnlock()

	doc, ok := repo.db.document.documents[id]
	if !ok || !repo.owns(p, doc) {
		return document.Document{}, document.ErrNotFound
	}
	return *doc, nil
}

func (repo *documentRepository) listed(doc document.Document) document.ListedDocument {
	ld := document.ListedDocument{Document: doc}
	if dt, ok := repo.db.document.types[doc.TypeID]; ok {
		ld.TypeName = dt.Name
		ld.Required = dt.Required
	}
	return ld
}

func (repo *documentRepository) QueryDocuments(ctx context.Context, ownerKind core.OwnerKind, ownerID, termID string) ([]document.ListedDocument, error) {
	repo.db.document.RLock()
	defer repo.db.document.RUnlock()

	var docs []document.ListedDocument
	for _, doc := range repo.db.document.documents {
		if doc.OwnerKind == ownerKind && doc.OwnerID == ownerID && doc.TermID == termID {
			docs = append(docs, repo.listed(*doc))
		}
	}
	return docs, nil
}

func (repo *documentRepository) QueryPendingForOsas(ctx context.Context, termID string) ([]document.ListedDocument, error) {
	repo.db.document.RLock()
	defer repo.db.document.RUnlock()

	var docs []document.ListedDocument
	for _, doc := range repo.db.document.documents {
		if doc.TermID != termID {
			continue
		}
		if doc.Status == document.StatusPending || doc.Status == document.StatusAdviserApproved {
			docs = append(docs, repo.listed(*doc))
		}
	}
	return docs, nil
}

func (repo *documentRepository) UpdateDocument(ctx context.Context, doc document.Document, tr document.Transition) (document.Document, error) {
	repo.db.document.Lock()
	defer repo.db.document.Unlock()

	if _, ok := repo.db.document.documents[doc.ID]; !ok {
		return document.Document{}, document.ErrNotFound
	}
	repo.db.document.documents[doc.ID] = &doc

	tr.ID = uuid.New().String()
	tr.DocumentID = doc.ID
	repo.db.document.transitions[tr.ID] = &tr
	return doc, nil
}

func (repo *documentRepository) QueryTransitions(ctx context.Context, documentID string) ([]document.Transition, error) {
	repo.db.document.RLock()
	defer repo.db.document.RUnlock()

	var trs []document.Transition
	for _, tr := range repo.db.document.transitions {
		if tr.DocumentID == documentID {
			trs = append(trs, *tr)
		}
	}
	sort.Slice(trs, func(i, j int) bool { return trs[i].At.Before(trs[j].At) })
	return trs, nil
}
