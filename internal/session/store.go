package session

import (
	"context"
	"errors"
	"time"
)

var ErrSessionNotFound = errors.New("session not found")

// Record is what a store keeps per session: enough to ask the engine for the
// position again.
type Record struct {
	ID            string    `json:"id"`
	StartEncoding string    `json:"start_encoding"`
	Encoding      string    `json:"encoding"`
	History       []string  `json:"history"`
	Outcome       string    `json:"outcome"`
	StartedAt     time.Time `json:"started_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type Store interface {
	Save(ctx context.Context, rec *Record) error
	Load(ctx context.Context, id string) (*Record, error)
	Delete(ctx context.Context, id string) error
}
