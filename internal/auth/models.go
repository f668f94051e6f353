package auth

// PINRequest is the body of setup and login.
type PINRequest struct {
	PIN string `json:"pin"`
}

type ChangePINRequest struct {
	CurrentPIN string `json:"current_pin"`
	NewPIN     string `json:"new_pin"`
}

// LoginResponse carries the session token. The same token is set as the
// session cookie.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	UserID      string `json:"user_id"`
}

type StatusResponse struct {
	AuthMode      string `json:"auth_mode"`
	PINConfigured bool   `json:"pin_configured"`
	Authenticated bool   `json:"authenticated"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
