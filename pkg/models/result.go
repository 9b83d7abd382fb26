package models

import "time"

// Context is the syntactic position a payload landed in.
type Context string

const (
	ContextTag       Context = "tag"
	ContextAttribute Context = "attribute"
	ContextScript    Context = "script"
	ContextComment   Context = "comment"
	ContextUnknown   Context = "unknown"
)

// XSSType classifies a confirmed finding.
type XSSType string

const (
	XSSReflectedGET  XSSType = "Reflected XSS (GET)"
	XSSReflectedPOST XSSType = "Reflected XSS (POST)"
	XSSStored        XSSType = "Stored XSS"
	XSSPotential     XSSType = "Potential XSS"
)

// FindingKey is the identity of a Finding. Two findings with the same key
// are duplicates regardless of payload or context.
type FindingKey struct {
	URL       string
	Method    HTTPMethod
	Parameter string
}

// Finding represents a confirmed XSS vulnerability on one input.
type Finding struct {
	URL       string     `json:"url"`
	Method    HTTPMethod `json:"method"`
	Parameter string     `json:"parameter"`
	Payload   string     `json:"payload"`
	Type      XSSType    `json:"xss_type"`
	Context   Context    `json:"context"`
	Snippet   string     `json:"snippet,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// Key returns the deduplication identity of the finding.
func (f Finding) Key() FindingKey {
	return FindingKey{URL: f.URL, Method: f.Method, Parameter: f.Parameter}
}

// Stats is the running summary of a scan.
type Stats struct {
	URLsTested           int      `json:"urls_tested"`
	ParamsTested         int      `json:"params_tested"`
	VulnerabilitiesFound int      `json:"vulnerabilities_found"`
	Requests             int      `json:"requests"`
	Errors               int      `json:"errors"`
	Timeouts             int      `json:"timeouts"`
	WAFs                 []string `json:"wafs,omitempty"`
}
