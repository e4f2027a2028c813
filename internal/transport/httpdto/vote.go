package httpdto

type VoteRequest struct {
	Credential string `json:"credential" binding:"required"`
	Choice     string `json:"choice" binding:"required"`
}

type VoteResponse struct {
	Recorded bool `json:"recorded"`
}

// SelfStatusRequest is a POST body rather than a query parameter so the
// credential never lands in access logs.
type SelfStatusRequest struct {
	Credential string `json:"credential" binding:"required"`
}

type SelfStatusResponse struct {
	CheckedIn bool               `json:"checked_in"`
	Votes     map[string]*string `json:"votes"` // pollID -> choice, null when not voted
}
