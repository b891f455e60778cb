package types

// ErrorEnvelope is the public error body: a user-safe message, the stable
// error code and optional field details.
type ErrorEnvelope struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}
