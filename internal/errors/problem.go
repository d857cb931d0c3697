package errors

import (
	"encoding/json"
	"net/http"
)

// ProblemDetails implements RFC 7807 problem details for HTTP APIs.
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`

	// Extension members
	TraceID    string                 `json:"trace_id,omitempty"`
	Timestamp  string                 `json:"timestamp,omitempty"`
	Extensions map[string]interface{} `json:"-"`
}

// MarshalJSON implements custom JSON marshaling to include extensions
func (p *ProblemDetails) MarshalJSON() ([]byte, error) {
	type alias ProblemDetails
	base, err := json.Marshal((*alias)(p))
	if err != nil {
		return nil, err
	}

	if len(p.Extensions) == 0 {
		return base, nil
	}

	var m map[string]interface{}
	if err := json.Unmarshal(base, &m); err != nil {
		return nil, err
	}
	for k, v := range p.Extensions {
		m[k] = v
	}
	return json.Marshal(m)
}

// Render writes the problem response. The body is encoded directly so
// the application/problem+json content type survives.
func (p *ProblemDetails) Render(w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	return json.NewEncoder(w).Encode(p)
}

// NewProblemDetails creates a new RFC 7807 problem details response
func NewProblemDetails(status int, problemType, title, detail string) *ProblemDetails {
	return &ProblemDetails{
		Type:   problemType,
		Title:  title,
		Status: status,
		Detail: detail,
	}
}

// WithExtension adds an extension member to the problem details
func (p *ProblemDetails) WithExtension(key string, value interface{}) *ProblemDetails {
	if p.Extensions == nil {
		p.Extensions = make(map[string]interface{})
	}
	p.Extensions[key] = value
	return p
}

// WithInstance sets the instance URI
func (p *ProblemDetails) WithInstance(instance string) *ProblemDetails {
	p.Instance = instance
	return p
}

// WithTraceID sets the trace ID for correlation
func (p *ProblemDetails) WithTraceID(traceID string) *ProblemDetails {
	p.TraceID = traceID
	return p
}

// Common problem types for the API
const (
	ProblemTypeValidation         = "/errors/validation"
	ProblemTypeNotFound           = "/errors/not-found"
	ProblemTypeDatasetNotFound    = "/errors/dataset/not-found"
	ProblemTypeDatasetInvalid     = "/errors/dataset/invalid"
	ProblemTypeSimulationInvalid  = "/errors/simulation/invalid"
	ProblemTypeRateLimit          = "/errors/rate-limit"
	ProblemTypeInternal           = "/errors/internal"
	ProblemTypeServiceUnavailable = "/errors/service-unavailable"
	ProblemTypeMethodNotAllowed   = "/errors/method-not-allowed"
)
