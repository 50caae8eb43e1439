// Package chessdto holds the wire types shared by engine clients and servers.
package chessdto

type AdvanceRequest struct {
	Encoding string   `json:"encoding" validate:"required,max=128"`
	History  []string `json:"history" validate:"max=12000,dive,len=5"`
}

// Websocket operations.
const (
	OpInitial = "initial"
	OpAdvance = "advance"
)

// Frame is one websocket request. Encoding and History are used by OpAdvance.
type Frame struct {
	Op       string   `json:"op"`
	ID       uint64   `json:"id"`
	Encoding string   `json:"encoding,omitempty"`
	History  []string `json:"history,omitempty"`
}

func (f Frame) Advance() AdvanceRequest {
	return AdvanceRequest{Encoding: f.Encoding, History: f.History}
}

// Reply answers the Frame with the same ID. Exactly one of Result and Error is set.
type Reply[T any] struct {
	ID     uint64       `json:"id"`
	Result *T           `json:"result,omitempty"`
	Error  *DomainError `json:"error,omitempty"`
}
