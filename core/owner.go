package core

// OwnerKind tags the two parallel owner types for events, awards, documents
// and officer rosters. Documents may additionally belong to an event.
type OwnerKind string

const (
	OwnerOrganization OwnerKind = "organization"
	OwnerCouncil      OwnerKind = "council"
	OwnerEvent        OwnerKind = "event"
)

func (k OwnerKind) Valid() bool {
	switch k {
	case OwnerOrganization, OwnerCouncil, OwnerEvent:
		return true
	}
	return false
}
