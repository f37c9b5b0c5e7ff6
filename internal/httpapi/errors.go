package httpapi

import "net/http"

// APIError is the envelope every non-2xx JSON response carries, so the
// popup and options page can switch on a stable code and echo the request
// id when reporting problems.
type APIError struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id,omitempty"`
	} `json:"error"`
}

func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	var e APIError
	e.Error.Code = code
	e.Error.Message = message
	e.Error.RequestID = RequestIDFrom(r.Context())
	writeJSONStatus(w, status, e)
}
