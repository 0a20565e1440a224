package token

// Response is the body issued by /auth/login and /auth/refresh-token.
type Response struct {
	Token        string `json:"token"`
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token"`
}

// Pair returns the issued pair. "token" wins over "access_token" when both are present.
func (r Response) Pair() Pair {
	access := r.Token
	if access == "" {
		access = r.AccessToken
	}
	return Pair{AccessToken: access, RefreshToken: r.RefreshToken}
}
