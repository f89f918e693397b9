package firebaseauth

import (
	"context"

	"course-enrollment/internal/domain/auth"
	"course-enrollment/internal/pkg/errs"
	"course-enrollment/internal/usecase"

	fbauth "firebase.google.com/go/v4/auth"
)

var ErrEmptyUID = errs.New("id token carries no uid")

// IDTokenVerifier is satisfied by *auth.Client from the Admin SDK.
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// Validator resolves the caller from a Firebase ID token.
type Validator struct {
	verifier IDTokenVerifier
}

func NewValidator(verifier IDTokenVerifier) *Validator {
	return &Validator{verifier: verifier}
}

var _ usecase.TokenValidator = (*Validator)(nil)

func (v *Validator) ValidateToken(ctx context.Context, tokenString string) (auth.CallerIdentity, error) {
	token, err := v.verifier.VerifyIDToken(ctx, tokenString)
	if err != nil {
		return auth.Anonymous(), errs.Wrap(err, "invalid id token")
	}

	caller := auth.NewCallerIdentity(token.UID)
	if !caller.Authenticated() {
		return auth.Anonymous(), ErrEmptyUID
	}
	return caller, nil
}
