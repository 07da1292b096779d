package tests

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swaaagray/saoms/core/document"
)

// Exercises the full two-stage approval over HTTP: the president submits,
// the adviser clears the first stage, OSAS the second.
func Test_documentApi_approvalFlow(t *testing.T) {
	submitBody := marshallObj(t, echo.Map{
		"type_id":   fixtureDocType.ID,
		"file_path": "uploads/itsc/cbl.pdf",
	})

	t.Run("adviser cannot submit", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/documents", getToken(t, adviserUser), submitBody)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())
	})

	var docID string
	t.Run("president submits", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/documents", getToken(t, presidentUser), submitBody)
		app.ServeHTTP(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		doc := decodeDocument(t, decodeBody(t, rec))
		assert.Equal(t, document.StatusPending, doc["status"])
		assert.Equal(t, fixtureOrg.ID, doc["owner_id"])
		docID, _ = doc["id"].(string)
		require.NotEmpty(t, docID)
	})

	t.Run("president cannot approve", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, approvePath(docID), getToken(t, presidentUser))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())
	})

	t.Run("adviser approves first stage", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, approvePath(docID), getToken(t, adviserUser))
		app.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		doc := decodeDocument(t, decodeBody(t, rec))
		assert.Equal(t, document.StatusAdviserApproved, doc["status"])
		assert.Equal(t, adviserUser.ID, doc["adviser_approved_by"])
	})

	t.Run("shows on the pending queue", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/documents/pending", getToken(t, osasUser))
		app.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		docs, ok := decodeBody(t, rec)["documents"].([]interface{})
		require.True(t, ok, rec.Body.String())
		assert.NotEmpty(t, docs)
	})

	t.Run("osas approves second stage", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, approvePath(docID), getToken(t, osasUser))
		app.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		doc := decodeDocument(t, decodeBody(t, rec))
		assert.Equal(t, document.StatusApproved, doc["status"])
	})

	t.Run("approving twice conflicts with state", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, approvePath(docID), getToken(t, osasUser))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	})

	t.Run("both stages audited", func(t *testing.T) {
		path := fmt.Sprintf("/v1/documents/%s/transitions", docID)
		req, rec := newAuthRequest(http.MethodGet, path, getToken(t, presidentUser))
		app.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		transitions, ok := decodeBody(t, rec)["transitions"].([]interface{})
		require.True(t, ok, rec.Body.String())
		require.Len(t, transitions, 2)
		first := transitions[0].(map[string]interface{})
		last := transitions[1].(map[string]interface{})
		assert.Equal(t, document.StatusPending, first["from"])
		assert.Equal(t, document.StatusAdviserApproved, first["to"])
		assert.Equal(t, document.StatusAdviserApproved, last["from"])
		assert.Equal(t, document.StatusApproved, last["to"])
	})
}

func Test_documentApi_rejectWithoutDeadline(t *testing.T) {
	req, rec := newAuthRequest(http.MethodPost, "/v1/documents", getToken(t, presidentUser), marshallObj(t, echo.Map{
		"type_id":   fixtureDocType.ID,
		"file_path": "uploads/itsc/financial-report.pdf",
	}))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	docID, _ := decodeDocument(t, decodeBody(t, rec))["id"].(string)
	require.NotEmpty(t, docID)

	// a reason alone is a valid rejection; the deadline stays open
	path := fmt.Sprintf("/v1/documents/%s/reject", docID)
	req, rec = newAuthRequest(http.MethodPost, path, getToken(t, adviserUser), marshallObj(t, echo.Map{
		"reason": "missing signatures",
	}))
	app.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	doc := decodeDocument(t, decodeBody(t, rec))
	assert.Equal(t, document.StatusRejected, doc["status"])
	assert.Equal(t, "missing signatures", doc["reject_reason"])

	// resubmission is open with no deadline set
	path = fmt.Sprintf("/v1/documents/%s/resubmit", docID)
	req, rec = newAuthRequest(http.MethodPost, path, getToken(t, presidentUser), marshallObj(t, echo.Map{
		"file_path": "uploads/itsc/financial-report-v2.pdf",
	}))
	app.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	doc = decodeDocument(t, decodeBody(t, rec))
	assert.Equal(t, document.StatusPending, doc["status"])
}

func approvePath(docID string) string {
	return fmt.Sprintf("/v1/documents/%s/approve", docID)
}

func decodeDocument(t *testing.T, body map[string]interface{}) map[string]interface{} {
	t.Helper()
	doc, ok := body["document"].(map[string]interface{})
	if !ok {
		t.Fatalf("response has no document: %v", body)
	}
	return doc
}
