package models

// ErrorResponse is the JSON body of every non-2xx API response.
type ErrorResponse struct {
	Message string       `json:"message"`
	Error   string       `json:"error,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// FieldError describes one failed field of a request body.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// GenerateResponse is returned by the generate endpoint.
type GenerateResponse struct {
	GeneratedContent string `json:"generatedContent"`
	ID               int64  `json:"id"`
	Source           string `json:"source"`
}

// TagResponse is returned by the tagging endpoint.
type TagResponse struct {
	Content   string         `json:"content"`
	WordCount int            `json:"wordCount"`
	Changed   bool           `json:"changed"`
	Matches   map[string]int `json:"matches"`
}
