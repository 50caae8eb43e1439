package chessdto

// Error codes carried in DomainError.Code.
const (
	CodeInvalidRequest    = "invalid_request"
	CodeMalformedEncoding = "malformed_encoding"
	CodeMalformedNotation = "malformed_move_notation"
	CodeInvalidPosition   = "invalid_position"
	CodeEngineUnavailable = "engine_unavailable"
	CodeUnknownOp         = "unknown_op"
)

type DomainError struct {
	Code      string `json:"code"`
	Message   string `json:"message,omitempty"`
	Retryable bool   `json:"retryable"`
}

func (e DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "chess engine error"
}
