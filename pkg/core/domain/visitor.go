package domain

import "time"

// MaxVisitorIDLength bounds the client-generated visitor id.
const MaxVisitorIDLength = 128

// Visitor is a unique reader, keyed by the id the browser keeps in local storage
type Visitor struct {
	ID         string    `json:"id"`
	FirstVisit time.Time `json:"firstVisit"`
	LastVisit  time.Time `json:"lastVisit"`
}

// Snapshot holds every record set, used for export and import
type Snapshot struct {
	Pending  []PendingLetter  `json:"pending"`
	Approved []ApprovedLetter `json:"approved"`
	Visitors []Visitor        `json:"visitors"`
}
