package httphandler

import (
	"encoding/json"
	"net/http"

	"github.com/ericfisherdev/vaultpanel/internal/application"
	"github.com/ericfisherdev/vaultpanel/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status           string `json:"status"`
	Time             string `json:"time"`
	View             string `json:"view,omitempty"`
	SessionPersisted bool   `json:"session_persisted"`
}

// StateResponse is the JSON representation of the page state.
type StateResponse struct {
	View       string         `json:"view"`
	Email      string         `json:"email,omitempty"`
	Loaded     bool           `json:"loaded"`
	EntryCount int            `json:"entry_count"`
	Services   []string       `json:"services"`
	Toast      *ToastResponse `json:"toast"`
}

// ToastResponse is the JSON representation of the visible toast.
type ToastResponse struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	Message     string `json:"message"`
	Phase       string `json:"phase"`
	RemainingMS int64  `json:"remaining_ms"`
}

// toStateResponse converts the page state to its JSON representation. Only
// service names leave the process; secrets stay in the vault view.
func toStateResponse(st application.PageState) StateResponse {
	resp := StateResponse{
		View:     string(st.View),
		Services: []string{},
	}

	if st.View == model.ViewApp {
		resp.Email = st.Vault.Email
		resp.Loaded = st.Vault.Loaded
		resp.EntryCount = len(st.Vault.Rows)
		for _, row := range st.Vault.Rows {
			resp.Services = append(resp.Services, row.ServiceName)
		}
	}

	if st.Toast != nil {
		resp.Toast = &ToastResponse{
			ID:          st.Toast.ID,
			Kind:        string(st.Toast.Kind),
			Message:     st.Toast.Message,
			Phase:       string(st.Toast.Phase),
			RemainingMS: st.Toast.Remaining.Milliseconds(),
		}
	}
	return resp
}
