package report

// Fully-resolved, read-only row sets handed to the renderers. No renderer
// issues its own queries.

// MembershipRow summarizes one course/section bucket of the current roster.
type MembershipRow struct {
	Course     string `json:"course"`
	Section    string `json:"section"`
	Members    int    `json:"members"`
	NonMembers int    `json:"non_members"`
}

// DocumentStatusRow is one owner's document slot with its derived standing.
type DocumentStatusRow struct {
	OwnerName string `json:"owner_name"`
	OwnerKind string `json:"owner_kind"`
	TypeName  string `json:"type_name"`
	Required  bool   `json:"required"`
	Status    string `json:"status"`
}

// EventSummaryRow is one event with its participant count.
type EventSummaryRow struct {
	OwnerName        string `json:"owner_name"`
	Title            string `json:"title"`
	Date             string `json:"date"`
	Venue            string `json:"venue"`
	ParticipantCount int    `json:"participant_count"`
}
