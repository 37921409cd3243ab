package domain

import "time"

const (
	// StatusPending is the only status a row in the pending set can carry.
	StatusPending = "pending"

	// DefaultNickname is stored when a writer leaves the nickname blank.
	DefaultNickname = "Anonymous"

	MaxLetterLength   = 5000
	MaxNicknameLength = 50

	// DefaultApprovedLimit caps how many approved letters a reader gets per fetch.
	DefaultApprovedLimit = 100
)

// PendingLetter is a submitted letter waiting for a moderator
type PendingLetter struct {
	ID         string    `json:"id"`
	LetterText string    `json:"letterText"`
	Nickname   string    `json:"nickname"`
	CreatedAt  time.Time `json:"createdAt"`
	Status     string    `json:"status"`
}

// ApprovedLetter is a letter visible to readers. It keeps the id and
// createdAt of the pending letter it came from.
type ApprovedLetter struct {
	ID         string    `json:"id"`
	LetterText string    `json:"letterText"`
	Nickname   string    `json:"nickname"`
	CreatedAt  time.Time `json:"createdAt"`
	ApprovedAt time.Time `json:"approvedAt"`
}

// Stats represents the moderator dashboard counters
type Stats struct {
	UniqueVisitors  int64 `json:"uniqueVisitors"`
	PendingLetters  int64 `json:"pendingLetters"`
	ApprovedLetters int64 `json:"approvedLetters"`
}
