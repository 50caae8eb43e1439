package engine

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/park285/chessfront/internal/moves"
)

func TestStateJSONUsesTriples(t *testing.T) {
	st := State{
		Encoding: "8/8/8/8/8/8/8/K6k w",
		Moves:    []moves.Entry{{Notation: "a1 a2", Result: "8/8/8/8/8/8/K7/7k b", Outcome: "NoEnd"}},
		Turn:     "White",
		Outcome:  "NoEnd",
	}
	raw, err := json.Marshal(st)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	const want = `{"encoding":"8/8/8/8/8/8/8/K6k w","moves":[["a1 a2","8/8/8/8/8/8/K7/7k b","NoEnd"]],"turn":"White","outcome":"NoEnd"}`
	if string(raw) != want {
		t.Fatalf("unexpected json:\n got %s\nwant %s", raw, want)
	}

	var back State
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if diff := cmp.Diff(st, back); diff != "" {
		t.Fatalf("state mismatch (-want +got):\n%s", diff)
	}
}

func TestStateJSONCarriesReply(t *testing.T) {
	st := State{Encoding: "8/8/8/8/8/8/8/K6k w", Moves: []moves.Entry{}, Turn: "White", Outcome: "NoEnd", Reply: "h2 h1"}
	raw, err := json.Marshal(st)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back State
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if diff := cmp.Diff(st, back); diff != "" {
		t.Fatalf("state mismatch (-want +got):\n%s", diff)
	}
}

func TestStateJSONRejectsWideTriple(t *testing.T) {
	var st State
	err := json.Unmarshal([]byte(`{"encoding":"x","moves":[["a","b","c","d"]]}`), &st)
	if !errors.Is(err, moves.ErrMalformedMoveNotation) {
		t.Fatalf("expected ErrMalformedMoveNotation, got %v", err)
	}
}

func TestWithTimeoutMapsErrors(t *testing.T) {
	boom := errors.New("boom")
	e := WithTimeout(Func{
		Initial: func(context.Context) (State, error) { return State{}, boom },
		Next: func(context.Context, string, []string) (State, error) {
			return State{Encoding: "ok"}, nil
		},
	}, time.Second)

	if _, err := e.InitialState(context.Background()); !errors.Is(err, ErrEngineUnavailable) || !errors.Is(err, boom) {
		t.Fatalf("expected wrapped ErrEngineUnavailable, got %v", err)
	}
	st, err := e.Advance(context.Background(), "x", nil)
	if err != nil || st.Encoding != "ok" {
		t.Fatalf("Advance = %+v, %v", st, err)
	}
}

func TestWithTimeoutExpires(t *testing.T) {
	e := WithTimeout(Func{
		Next: func(ctx context.Context, _ string, _ []string) (State, error) {
			<-ctx.Done()
			return State{}, ctx.Err()
		},
	}, 20*time.Millisecond)

	start := time.Now()
	_, err := e.Advance(context.Background(), "x", nil)
	if !errors.Is(err, ErrEngineUnavailable) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline as ErrEngineUnavailable, got %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatalf("timeout not applied")
	}
}
