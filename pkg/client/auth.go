package client

import "net/http"

// BearerAuth decorates outgoing requests with a fixed bearer credential.
// The token is validated at client construction and immutable afterwards.
type BearerAuth struct {
	Token string
}

// Apply sets the Authorization header on req, overwriting any prior value.
func (a BearerAuth) Apply(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+a.Token)
}
