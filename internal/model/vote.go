package model

// VoteType is the direction of a vote.
type VoteType string

const (
	VoteUp   VoteType = "up"
	VoteDown VoteType = "down"
)

// Valid reports whether v is up or down.
func (v VoteType) Valid() bool {
	return v == VoteUp || v == VoteDown
}

// VoteTally counts votes on one question.
type VoteTally struct {
	Up   int `json:"up"`
	Down int `json:"down"`
}

// VoteAction is the ledger transition applied by a vote submission.
type VoteAction string

const (
	VoteAdded   VoteAction = "added"
	VoteRemoved VoteAction = "removed"
	VoteChanged VoteAction = "changed"
)

// VoteRequest is the vote payload. The type is validated by the service so
// that a bad value yields INVALID_VOTE_TYPE rather than a field error.
type VoteRequest struct {
	VoteType string `json:"voteType"`
}

// VoteOutcome is returned after a vote; UserVote is nil after a toggle-off.
type VoteOutcome struct {
	Votes    VoteTally `json:"votes"`
	UserVote *VoteType `json:"userVote"`
}
