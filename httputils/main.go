package httputils

// RequestError structure returned on any failed request
type RequestError struct {
	Error string `json:"error"`
	Tip   string `json:"error_tip,omitempty"`
}
