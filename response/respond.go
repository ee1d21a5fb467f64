package response

import (
	"encoding/json"
	"net/http"
)

// failureBody is the error envelope every API consumer expects:
// { "success": false, "error": "..." }
type failureBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// WriteError terminates the request with the failure envelope. Internal
// details stay in the logs; only Error.Message reaches the client.
func WriteError(w http.ResponseWriter, r *http.Request, e *Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	json.NewEncoder(w).Encode(failureBody{
		Success: false,
		Error:   e.Message,
	})
}

// WriteResponse writes result as the JSON body with a 200 status.
func WriteResponse(w http.ResponseWriter, r *http.Request, result interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(result)
}
