// Package dummydb provides in-memory repository implementations for tests.
package dummydb

import (
	"sync"

	"github.com/swaaagray/saoms/core/academic"
	"github.com/swaaagray/saoms/core/application"
	"github.com/swaaagray/saoms/core/document"
	"github.com/swaaagray/saoms/core/event"
	"github.com/swaaagray/saoms/core/membership"
	"github.com/swaaagray/saoms/core/org"
	"github.com/swaaagray/saoms/core/user"
)

type (
	DB struct {
		user        *userTable
		academic    *academicTable
		org         *orgTable
		document    *documentTable
		membership  *membershipTable
		application *applicationTable
		event       *eventTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	academicTable struct {
		sync.RWMutex
		terms     map[string]*academic.Term
		semesters map[string]*academic.Semester
	}

	orgTable struct {
		sync.RWMutex
		colleges  map[string]*org.College
		courses   map[string]*org.Course
		orgs      map[string]*org.Organization
		councils  map[string]*org.Council
		officials map[string]*org.StudentOfficial
	}

	documentTable struct {
		sync.RWMutex
		types       map[string]*document.DocumentType
		documents   map[string]*document.Document
		transitions map[string]*document.Transition
	}

	membershipTable struct {
		sync.RWMutex
		students map[string]*membership.StudentData
	}

	applicationTable struct {
		sync.RWMutex
		verifications map[string]*application.EmailVerification // keyed by email
		applications  map[string]*application.OrganizationApplication
	}

	eventTable struct {
		sync.RWMutex
		events map[string]*event.Event
		awards map[string]*event.Award
	}
)

func Open() (*DB, error) {
	db := &DB{
		user: &userTable{table: make(map[string]*user.User)},
		academic: &academicTable{
			terms:     make(map[string]*academic.Term),
			semesters: make(map[string]*academic.Semester),
		},
		org: &orgTable{
			colleges:  make(map[string]*org.College),
			courses:   make(map[string]*org.Course),
			orgs:      make(map[string]*org.Organization),
			councils:  make(map[string]*org.Council),
			officials: make(map[string]*org.StudentOfficial),
		},
		document: &documentTable{
			types:       make(map[string]*document.DocumentType),
			documents:   make(map[string]*document.Document),
			transitions: make(map[string]*document.Transition),
		},
		membership:  &membershipTable{students: make(map[string]*membership.StudentData)},
		application: &applicationTable{
			verifications: make(map[string]*application.EmailVerification),
			applications:  make(map[string]*application.OrganizationApplication),
		},
		event: &eventTable{
			events: make(map[string]*event.Event),
			awards: make(map[string]*event.Award),
		},
	}
	return db, nil
}
