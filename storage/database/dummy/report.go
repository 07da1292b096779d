package dummydb

import (
	"context"
	"sort"

	"github.com/swaaagray/saoms/core"
	"github.com/swaaagray/saoms/core/membership"
	"github.com/swaaagray/saoms/core/report"
)

type reportRepository struct {
	db *DB
}

var _ report.Repository = (*reportRepository)(nil) // interface compliance check

func NewReportRepository(db *DB) *reportRepository {
	return &reportRepository{db: db}
}

func (repo *reportRepository) orgInCollege(organizationID, collegeID string) bool {
	if collegeID == "" {
		return true
	}
	o, ok := repo.db.org.orgs[organizationID]
	if !ok {
		return false
	}
	c, ok := repo.db.org.courses[o.CourseID]
	return ok && c.CollegeID == collegeID
}

func (repo *reportRepository) MembershipSummary(ctx context.Context, collegeID, semesterID string) ([]report.MembershipRow, error) {
	repo.db.membership.RLock()
	defer repo.db.membership.RUnlock()
	repo.db.org.RLock()
	defer repo.db.org.RUnlock()

	type bucket struct{ members, nonMembers int }
	buckets := make(map[[2]string]*bucket)
	for _, s := range repo.db.membership.students {
		if s.SemesterID != semesterID || !repo.orgInCollege(s.OrganizationID, collegeID) {
			continue
		}
		key := [2]string{s.Course, s.Section}
		b, ok := buckets[key]
		if !ok {
			b = &bucket{}
			buckets[key] = b
		}
		if s.OrgStatus == membership.StatusMember {
			b.members++
		} else {
			b.nonMembers++
		}
	}

	rows := make([]report.MembershipRow, 0, len(buckets))
	for key, b := range buckets {
		rows = append(rows, report.MembershipRow{
			Course:     key[0],
			Section:    key[1],
			Members:    b.members,
			NonMembers: b.nonMembers,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Course != rows[j].Course {
			return rows[i].Course < rows[j].Course
		}
		return rows[i].Section < rows[j].Section
	})
	return rows, nil
}

func (repo *reportRepository) ownerName(kind core.OwnerKind, ownerID string) string {
	switch kind {
	case core.OwnerOrganization:
		if o, ok := repo.db.org.orgs[ownerID]; ok {
			return o.Name
		}
	case core.OwnerCouncil:
		if c, ok := repo.db.org.councils[ownerID]; ok {
			return c.Name
		}
	case core.OwnerEvent:
		if ev, ok := repo.db.event.events[ownerID]; ok {
			return ev.Title
		}
	}
	return ""
}

func (repo *reportRepository) DocumentStatuses(ctx context.Context, collegeID, termID string) ([]report.DocumentStatusRow, error) {
	repo.db.document.RLock()
	defer repo.db.document.RUnlock()
	repo.db.org.RLock()
	defer repo.db.org.RUnlock()
	repo.db.event.RLock()
	defer repo.db.event.RUnlock()

	inCollege := func(kind core.OwnerKind, ownerID string) bool {
		if collegeID == "" {
			return true
		}
		switch kind {
		case core.OwnerOrganization:
			return repo.orgInCollege(ownerID, collegeID)
		case core.OwnerCouncil:
			c, ok := repo.db.org.councils[ownerID]
			return ok && c.CollegeID == collegeID
		}
		return false
	}

	var rows []report.DocumentStatusRow
	for _, doc := range repo.db.document.documents {
		if doc.TermID != termID || !inCollege(doc.OwnerKind, doc.OwnerID) {
			continue
		}
		name := repo.ownerName(doc.OwnerKind, doc.OwnerID)
		row := report.DocumentStatusRow{
			OwnerName: name,
			OwnerKind: string(doc.OwnerKind),
			Status:    doc.Status,
		}
		if dt, ok := repo.db.document.types[doc.TypeID]; ok {
			row.TypeName = dt.Name
			row.Required = dt.Required
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].OwnerName != rows[j].OwnerName {
			return rows[i].OwnerName < rows[j].OwnerName
		}
		return rows[i].TypeName < rows[j].TypeName
	})
	return rows, nil
}

func (repo *reportRepository) EventSummaries(ctx context.Context, collegeID, termID string) ([]report.EventSummaryRow, error) {
	repo.db.event.RLock()
	defer repo.db.event.RUnlock()
	repo.db.org.RLock()
	defer repo.db.org.RUnlock()

	inCollege := func(kind core.OwnerKind, ownerID string) bool {
		if collegeID == "" {
			return true
		}
		switch kind {
		case core.OwnerOrganization:
			return repo.orgInCollege(ownerID, collegeID)
		case core.OwnerCouncil:
			c, ok := repo.db.org.councils[ownerID]
			return ok && c.CollegeID == collegeID
		}
		return false
	}

	var rows []report.EventSummaryRow
	for _, ev := range repo.db.event.events {
		if ev.TermID != termID || !inCollege(ev.OwnerKind, ev.OwnerID) {
			continue
		}
		name := repo.ownerName(ev.OwnerKind, ev.OwnerID)
		rows = append(rows, report.EventSummaryRow{
			OwnerName:        name,
			Title:            ev.Title,
			Date:             ev.Date.Format("2006-01-02"),
			Venue:            ev.Venue,
			ParticipantCount: len(ev.Participants),
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date < rows[j].Date })
	return rows, nil
}
