package document_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swaaagray/saoms/core"
	"github.com/swaaagray/saoms/core/document"
	dummydb "github.com/swaaagray/saoms/storage/database/dummy"
)

var (
	president = core.Principal{UserID: "u-pres", Role: core.RoleOrgPresident, OrganizationID: "org1"}
	adviser   = core.Principal{UserID: "u-adv", Role: core.RoleOrgAdviser, OrganizationID: "org1"}
	intruder  = core.Principal{UserID: "u-other", Role: core.RoleOrgAdviser, OrganizationID: "org2"}
	osas      = core.Principal{UserID: "u-osas", Role: core.RoleOsas}
)

func setup(t *testing.T) (*document.Service, *dummydb.DB) {
	t.Helper()
	db, err := dummydb.Open()
	require.NoError(t, err)
	return document.NewService(dummydb.NewDocumentRepository(db)), db
}

func submit(t *testing.T, svc *document.Service) document.Document {
	t.Helper()
	doc, err := svc.Submit(context.Background(), president,
		core.OwnerOrganization, "org1", "term1", "type1", "uploads/cbl.pdf")
	require.NoError(t, err)
	return doc
}

func TestService_Submit(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	if _, err := svc.Submit(ctx, adviser, core.OwnerOrganization, "org1", "term1", "type1", "f.pdf"); err != core.ErrPermissionDenied {
		t.Errorf("Submit() error = %v, want %v", err, core.ErrPermissionDenied)
	}

	doc := submit(t, svc)
	assert.Equal(t, document.StatusPending, doc.Status)
	assert.NotEmpty(t, doc.ID)
	assert.False(t, doc.SubmittedAt.IsZero())
}

func TestService_Approve_twoStage(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	doc := submit(t, svc)

	// presidents do not approve
	if _, err := svc.Approve(ctx, president, doc.ID); err != core.ErrPermissionDenied {
		t.Errorf("Approve() error = %v, want %v", err, core.ErrPermissionDenied)
	}
	// another organization's adviser cannot even see the document
	if _, err := svc.Approve(ctx, intruder, doc.ID); err != document.ErrNotFound {
		t.Errorf("Approve() error = %v, want %v", err, document.ErrNotFound)
	}

	doc, err := svc.Approve(ctx, adviser, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, document.StatusAdviserApproved, doc.Status)
	assert.Equal(t, adviser.UserID, doc.AdviserApprovedBy)

	// the adviser stage only happens once
	if _, err = svc.Approve(ctx, adviser, doc.ID); err != document.ErrNotPending {
		t.Errorf("Approve() error = %v, want %v", err, document.ErrNotPending)
	}

	doc, err = svc.Approve(ctx, osas, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, document.StatusApproved, doc.Status)
	assert.Equal(t, osas.UserID, doc.OsasApprovedBy)

	transitions, err := svc.Transitions(ctx, osas, doc.ID)
	require.NoError(t, err)
	require.Len(t, transitions, 2)
	assert.Equal(t, document.StatusPending, transitions[0].From)
	assert.Equal(t, document.StatusAdviserApproved, transitions[0].To)
	assert.Equal(t, document.StatusAdviserApproved, transitions[1].From)
	assert.Equal(t, document.StatusApproved, transitions[1].To)
}

func TestService_Approve_osasTakesPendingDirectly(t *testing.T) {
	svc, _ := setup(t)
	doc := submit(t, svc)

	doc, err := svc.Approve(context.Background(), osas, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, document.StatusApproved, doc.Status)
	assert.True(t, doc.AdviserApprovedAt.IsZero())
}

func TestService_Reject(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	doc := submit(t, svc)

	_, err := svc.Reject(ctx, adviser, doc.ID, "  ", time.Time{})
	var vErr *core.ValidationError
	require.ErrorAs(t, err, &vErr)

	deadline := time.Now().UTC().Add(72 * time.Hour)
	doc, err = svc.Reject(ctx, adviser, doc.ID, "missing signatures", deadline)
	require.NoError(t, err)
	assert.Equal(t, document.StatusRejected, doc.Status)
	assert.Equal(t, "missing signatures", doc.RejectReason)
	assert.Equal(t, adviser.UserID, doc.RejectedBy)
	assert.Equal(t, deadline, doc.ResubmitDeadline)
	assert.Equal(t, adviser.UserID, doc.DeadlineSetBy)

	// once rejected there is nothing left to reject
	if _, err = svc.Reject(ctx, osas, doc.ID, "again", time.Time{}); err != document.ErrNotPending {
		t.Errorf("Reject() error = %v, want %v", err, document.ErrNotPending)
	}
}

func TestService_Resubmit(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	doc := submit(t, svc)

	// only rejected documents can come back
	if _, err := svc.Resubmit(ctx, president, doc.ID, "uploads/cbl-v2.pdf"); err != document.ErrNotRejected {
		t.Errorf("Resubmit() error = %v, want %v", err, document.ErrNotRejected)
	}

	doc, err := svc.Reject(ctx, adviser, doc.ID, "wrong form", time.Now().UTC().Add(time.Hour))
	require.NoError(t, err)

	if _, err = svc.Resubmit(ctx, adviser, doc.ID, "uploads/cbl-v2.pdf"); err != core.ErrPermissionDenied {
		t.Errorf("Resubmit() error = %v, want %v", err, core.ErrPermissionDenied)
	}

	doc, err = svc.Resubmit(ctx, president, doc.ID, "uploads/cbl-v2.pdf")
	require.NoError(t, err)
	assert.Equal(t, document.StatusPending, doc.Status)
	assert.Equal(t, "uploads/cbl-v2.pdf", doc.FilePath)
	assert.Empty(t, doc.RejectReason)
	assert.True(t, doc.RejectedAt.IsZero())
	assert.True(t, doc.AdviserApprovedAt.IsZero())
}

func TestService_Resubmit_deadlinePassed(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	doc := submit(t, svc)

	_, err := svc.Reject(ctx, adviser, doc.ID, "late", time.Now().UTC().Add(-time.Minute))
	require.NoError(t, err)

	if _, err = svc.Resubmit(ctx, president, doc.ID, "uploads/late.pdf"); err != document.ErrDeadlinePassed {
		t.Errorf("Resubmit() error = %v, want %v", err, document.ErrDeadlinePassed)
	}
}

func TestService_ListPendingForOsas(t *testing.T) {
	svc, db := setup(t)
	ctx := context.Background()
	repo := dummydb.NewDocumentRepository(db)
	tRequired := repo.AddType(document.DocumentType{Name: "Constitution and By-Laws", Required: true, AppliesTo: core.OwnerOrganization})
	tOptional := repo.AddType(document.DocumentType{Name: "Activity Proposal", Required: false, AppliesTo: core.OwnerOrganization})

	doc1, err := svc.Submit(ctx, president, core.OwnerOrganization, "org1", "term1", tOptional.ID, "a.pdf")
	require.NoError(t, err)
	doc2, err := svc.Submit(ctx, president, core.OwnerOrganization, "org1", "term1", tRequired.ID, "b.pdf")
	require.NoError(t, err)
	_, err = svc.Approve(ctx, adviser, doc1.ID) // adviser_approved still awaits OSAS
	require.NoError(t, err)

	if _, err = svc.ListPendingForOsas(ctx, adviser, "term1"); err != core.ErrPermissionDenied {
		t.Errorf("ListPendingForOsas() error = %v, want %v", err, core.ErrPermissionDenied)
	}

	docs, err := svc.ListPendingForOsas(ctx, osas, "term1")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	// required types list first
	assert.Equal(t, doc2.ID, docs[0].ID)
	assert.Equal(t, doc1.ID, docs[1].ID)

	// approved documents drop off the queue
	_, err = svc.Approve(ctx, osas, doc1.ID)
	require.NoError(t, err)
	docs, err = svc.ListPendingForOsas(ctx, osas, "term1")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, doc2.ID, docs[0].ID)
}
