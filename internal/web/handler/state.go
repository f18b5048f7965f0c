package handler

import (
	"github.com/alexandrevcalmon/authcore/internal/auth"
)

// StateResponse is the JSON shape of an auth state snapshot.
type StateResponse struct {
	Authenticated       bool                  `json:"authenticated"`
	UserID              string                `json:"userId,omitempty"`
	Email               string                `json:"email,omitempty"`
	Role                string                `json:"role,omitempty"`
	CompanyData         *auth.CompanyUserData `json:"companyUserData,omitempty"`
	NeedsPasswordChange bool                  `json:"needsPasswordChange"`
	Initialized         bool                  `json:"initialized"`
	Loading             bool                  `json:"loading"`
	Phase               string                `json:"phase"`
	ExpiresAt           int64                 `json:"expiresAt,omitempty"`
}

// StateFromSnapshot converts an engine snapshot to the wire shape. Token
// material is deliberately not exposed.
func StateFromSnapshot(s auth.Snapshot) StateResponse {
	resp := StateResponse{
		Authenticated:       s.Authenticated(),
		Role:                string(s.Role),
		CompanyData:         s.CompanyData,
		NeedsPasswordChange: s.NeedsPasswordChange,
		Initialized:         s.Initialized,
		Loading:             s.Loading,
		Phase:               string(s.Phase),
	}

	if s.User != nil {
		resp.UserID = s.User.ID
		resp.Email = s.User.Email
	}

	if s.Session != nil {
		resp.ExpiresAt = s.Session.ExpiresAt.Unix()
	}

	return resp
}
