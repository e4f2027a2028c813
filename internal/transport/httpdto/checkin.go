package httpdto

// CheckinRequest is the typed form of a check-in submission. Credential is
// optional: presenting a previously issued one re-confirms it instead of
// minting a new credential.
type CheckinRequest struct {
	Code       string `json:"code" binding:"required"`
	Credential string `json:"credential,omitempty"`
}

type CheckinResponse struct {
	Credential string `json:"credential"`
	Reused     bool   `json:"reused"`
}
