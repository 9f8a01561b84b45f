package dto

// SetModeRequest is the body of PUT .../attention/mode. Pointers make a
// missing flag a binding error instead of a silent false.
type SetModeRequest struct {
	Enabled   *bool `json:"enabled" binding:"required"`
	AllowLoud *bool `json:"allow_loud" binding:"required"`
}

// SendRequest is the body of POST .../attention/requests
type SendRequest struct {
	TargetUID   string  `json:"target_uid" binding:"required"`
	Intensity   string  `json:"intensity" binding:"required"`
	DurationSec int     `json:"duration_sec" binding:"required"`
	Message     *string `json:"message,omitempty"`
}

// ErrorResponse is returned for every failed attention call
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
