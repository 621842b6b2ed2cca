package response

import (
	"encoding/json"
	"net/http"
)

// Envelope is the body of every JSON response.
type Envelope struct {
	Errors   map[string][]string `json:"errors,omitempty"`
	Message  string              `json:"message,omitempty"`
	Messages []string            `json:"messages,omitempty"`
	Data     any                 `json:"data,omitempty"`
}

// Response is a status code and the envelope sent with it. A nil Body writes
// no content.
type Response struct {
	StatusCode int
	Body       *Envelope
}

func OK(data any) Response {
	return Response{StatusCode: http.StatusOK, Body: &Envelope{Data: data}}
}

func Created(message string, data any) Response {
	return Response{StatusCode: http.StatusCreated, Body: &Envelope{Message: message, Data: data}}
}

func Updated(message string, data any) Response {
	return Response{StatusCode: http.StatusOK, Body: &Envelope{Message: message, Data: data}}
}

func NoContent() Response {
	return Response{StatusCode: http.StatusNoContent}
}

// Write sends res as JSON.
func Write(w http.ResponseWriter, res Response) error {
	if res.Body == nil {
		w.WriteHeader(res.StatusCode)
		return nil
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(res.StatusCode)

	return json.NewEncoder(w).Encode(res.Body)
}
