package http

import "net/http"

// Authenticator resolves the ledger owner for an incoming request.
type Authenticator interface {
	UserID(r *http.Request) (string, error)
}

// SingleUser attributes every request to one fixed owner. The deployment
// model is one ledger behind a private network; session handling lives in
// front of this service.
type SingleUser struct {
	ID string
}

func (a SingleUser) UserID(r *http.Request) (string, error) {
	return a.ID, nil
}
