package auth

import "strings"

// CallerIdentity is the authenticated principal resolved by the edge layer.
// The zero value represents an anonymous caller.
type CallerIdentity struct {
	userID string
}

func NewCallerIdentity(userID string) CallerIdentity {
	return CallerIdentity{userID: strings.TrimSpace(userID)}
}

func Anonymous() CallerIdentity {
	return CallerIdentity{}
}

func (c CallerIdentity) UserID() string {
	return c.userID
}

func (c CallerIdentity) Authenticated() bool {
	return c.userID != ""
}
