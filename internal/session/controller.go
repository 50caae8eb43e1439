// Package session drives one game: clicks go through the selection machine, moves
// go to the engine, and confirmed positions replace the game model.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/park285/chessfront/internal/archive"
	"github.com/park285/chessfront/internal/board"
	"github.com/park285/chessfront/internal/engine"
	"github.com/park285/chessfront/internal/game"
	"github.com/park285/chessfront/internal/moves"
	"github.com/park285/chessfront/internal/obslog"
	"github.com/park285/chessfront/internal/selection"
)

var ErrNotStarted = errors.New("session not started")

type EventKind uint8

const (
	EventIgnored EventKind = iota
	EventSelected
	EventDeselected
	EventStay
	EventMoved
	EventRejected
	EventRolledBack
)

func (k EventKind) String() string {
	switch k {
	case EventSelected:
		return "selected"
	case EventDeselected:
		return "deselected"
	case EventStay:
		return "stay"
	case EventMoved:
		return "moved"
	case EventRejected:
		return "rejected"
	case EventRolledBack:
		return "rolled_back"
	default:
		return "ignored"
	}
}

// Event describes what a click did. Snapshot is the live snapshot afterwards.
type Event struct {
	Kind         EventKind
	Square       board.Square
	Destinations []board.Square
	Resolution   *selection.Resolution
	Snapshot     *game.Snapshot
}

type Controller struct {
	eng     engine.Engine
	chooser selection.Chooser
	store   Store
	archive archive.Repository
	logger  *zap.Logger
	now     func() time.Time

	// mu is only ever try-locked by clicks; a click arriving mid-request is dropped.
	mu      sync.Mutex
	machine selection.Machine

	// view guards id and model for readers that do not hold mu.
	view     sync.RWMutex
	id       string
	model    *game.Model
	selected atomic.Pointer[board.Square]

	startEncoding string
	startedAt     time.Time
	archived      bool
}

type Option func(*Controller)

func WithChooser(ch selection.Chooser) Option { return func(c *Controller) { c.chooser = ch } }
func WithStore(s Store) Option                { return func(c *Controller) { c.store = s } }
func WithArchive(r archive.Repository) Option { return func(c *Controller) { c.archive = r } }
func WithLogger(l *zap.Logger) Option         { return func(c *Controller) { c.logger = l } }
func WithClock(now func() time.Time) Option   { return func(c *Controller) { c.now = now } }

// WithTimeout bounds every engine call. Without it the engine's own deadlines apply.
func WithTimeout(d time.Duration) Option {
	return func(c *Controller) { c.eng = engine.WithTimeout(c.eng, d) }
}

func New(eng engine.Engine, opts ...Option) *Controller {
	c := &Controller{eng: eng, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = obslog.OrNop(c.logger)
	return c
}

func (c *Controller) ID() string {
	c.view.RLock()
	defer c.view.RUnlock()
	return c.id
}

// Snapshot returns the live snapshot, or nil before Start/Resume.
func (c *Controller) Snapshot() *game.Snapshot {
	c.view.RLock()
	m := c.model
	c.view.RUnlock()
	if m == nil {
		return nil
	}
	return m.Current()
}

// Selected reports the origin chosen by the last completed click.
func (c *Controller) Selected() (board.Square, bool) {
	if sq := c.selected.Load(); sq != nil {
		return *sq, true
	}
	return board.Square{}, false
}

// publishSelection must be called with mu held after the machine changed.
func (c *Controller) publishSelection() {
	if sq, ok := c.machine.Selected(); ok {
		c.selected.Store(&sq)
		return
	}
	c.selected.Store(nil)
}

// open installs a fresh model; mu must be held.
func (c *Controller) open(id string, snap *game.Snapshot) {
	c.view.Lock()
	c.id = id
	c.model = game.New(snap)
	c.view.Unlock()
	c.machine.Reset()
	c.publishSelection()
}

// replyEntries returns the engine's own move as a history entry, if any.
func replyEntries(resp engine.State) ([]string, error) {
	if resp.Reply == "" {
		return nil, nil
	}
	if _, _, err := moves.ParseNotation(resp.Reply); err != nil {
		return nil, err
	}
	return []string{resp.Reply}, nil
}

// Start asks the engine for the initial position and opens a new session.
func (c *Controller) Start(ctx context.Context) (*game.Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	resp, err := c.eng.InitialState(ctx)
	if err != nil {
		c.logger.Warn("engine_initial_failed", zap.Error(err))
		return nil, asUnavailable(err)
	}
	history, err := replyEntries(resp)
	if err != nil {
		c.logger.Error("engine_initial_malformed", zap.Error(err))
		return nil, err
	}
	snap, err := game.FromState(resp, history)
	if err != nil {
		c.logger.Error("engine_initial_malformed", zap.Error(err))
		return nil, err
	}
	c.open(uuid.NewString(), snap)
	c.startEncoding = snap.Encoding
	c.startedAt = c.now()
	c.archived = false
	c.logger.Info("session_started", zap.String("session", c.id), zap.String("turn", snap.Turn.String()))
	c.persist(ctx)
	return snap, nil
}

// Resume reloads a stored session and asks the engine for its position again.
func (c *Controller) Resume(ctx context.Context, id string) (*game.Snapshot, error) {
	if c.store == nil {
		return nil, errors.New("session store not configured")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, err := c.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	resp, err := c.eng.Advance(ctx, rec.Encoding, rec.History)
	if err != nil {
		c.logger.Warn("engine_resume_failed", zap.String("session", id), zap.Error(err))
		return nil, asUnavailable(err)
	}
	reply, err := replyEntries(resp)
	if err != nil {
		return nil, err
	}
	snap, err := game.FromState(resp, append(append([]string(nil), rec.History...), reply...))
	if err != nil {
		return nil, err
	}
	c.open(rec.ID, snap)
	c.startEncoding = rec.StartEncoding
	c.startedAt = rec.StartedAt
	c.archived = false
	c.logger.Info("session_resumed", zap.String("session", c.id), zap.Int("plies", snap.Plies()))
	return snap, nil
}

// Click feeds one square to the selection machine. Clicks while a request is in
// flight return EventIgnored immediately.
func (c *Controller) Click(ctx context.Context, sq board.Square) (Event, error) {
	if !c.mu.TryLock() {
		return Event{Kind: EventIgnored, Square: sq, Snapshot: c.Snapshot()}, nil
	}
	defer c.mu.Unlock()
	defer c.publishSelection()
	return c.click(ctx, sq)
}

// Move plays "e2 e4"-style text as two clicks.
func (c *Controller) Move(ctx context.Context, notation string) (Event, error) {
	from, to, err := moves.ParseNotation(notation)
	if err != nil {
		return Event{}, err
	}
	if !c.mu.TryLock() {
		return Event{Kind: EventIgnored, Square: from, Snapshot: c.Snapshot()}, nil
	}
	defer c.mu.Unlock()
	defer c.publishSelection()

	c.machine.Reset()
	ev, err := c.click(ctx, from)
	if err != nil || ev.Kind == EventIgnored {
		return ev, err
	}
	if ev.Kind != EventSelected {
		c.machine.Reset()
		return ev, fmt.Errorf("%w: %s", selection.ErrNoSuchMove, notation)
	}
	ev, err = c.click(ctx, to)
	if err != nil {
		return ev, err
	}
	if ev.Kind != EventMoved {
		c.machine.Reset()
		return Event{Kind: EventDeselected, Square: to, Snapshot: c.Snapshot()}, fmt.Errorf("%w: %s", selection.ErrNoSuchMove, notation)
	}
	return ev, nil
}

func (c *Controller) click(ctx context.Context, sq board.Square) (Event, error) {
	if c.model == nil {
		return Event{}, ErrNotStarted
	}
	snap := c.model.Current()
	tr := c.machine.Click(sq, snap)
	switch tr.Kind {
	case selection.Select:
		dests, _ := snap.Index.Destinations(tr.From)
		return Event{Kind: EventSelected, Square: tr.From, Destinations: dests, Snapshot: snap}, nil
	case selection.Deselect:
		return Event{Kind: EventDeselected, Square: sq, Snapshot: snap}, nil
	case selection.Stay:
		return Event{Kind: EventStay, Square: sq, Snapshot: snap}, nil
	case selection.Submit:
		return c.submit(ctx, snap, tr.From, tr.To)
	default:
		return Event{Kind: EventIgnored, Square: sq, Snapshot: snap}, nil
	}
}

func (c *Controller) submit(ctx context.Context, snap *game.Snapshot, from, to board.Square) (Event, error) {
	res, err := selection.Resolve(ctx, snap.Index, from, to, snap.Turn, c.chooser)
	switch {
	case err == nil:
	case errors.Is(err, selection.ErrNoSuchMove), errors.Is(err, board.ErrCoordinateOutOfRange):
		return Event{Kind: EventDeselected, Square: to, Snapshot: snap}, nil
	case errors.Is(err, selection.ErrInvalidPromotionSet):
		c.logger.Error("promotion_set_invalid",
			zap.String("session", c.id),
			zap.String("move", moves.FormatNotation(from, to)),
			zap.String("encoding", snap.Encoding),
			zap.Error(err),
		)
		c.machine.Reset()
		return Event{Kind: EventRejected, Square: to, Snapshot: snap}, err
	default:
		c.logger.Warn("promotion_choice_failed", zap.String("session", c.id), zap.Error(err))
		c.machine.Reset()
		return Event{Kind: EventRejected, Square: to, Snapshot: snap}, err
	}

	base, err := c.model.BeginRequest()
	if err != nil {
		return Event{Kind: EventIgnored, Square: to, Snapshot: c.model.Current()}, nil
	}

	history := append(base.History(), res.Notation)
	started := c.now()
	resp, err := c.eng.Advance(ctx, res.Result, history)
	if err != nil {
		c.model.Rollback()
		c.logger.Warn("engine_advance_failed",
			zap.String("session", c.id),
			zap.String("move", res.Notation),
			zap.Duration("elapsed", c.now().Sub(started)),
			zap.Error(err),
		)
		return Event{Kind: EventRolledBack, Square: to, Resolution: &res, Snapshot: c.model.Current()}, asUnavailable(err)
	}
	if err := c.model.Replace(resp, res.Notation, resp.Reply); err != nil {
		c.model.Rollback()
		c.logger.Error("engine_response_malformed", zap.String("session", c.id), zap.String("move", res.Notation), zap.Error(err))
		return Event{Kind: EventRolledBack, Square: to, Resolution: &res, Snapshot: c.model.Current()}, err
	}

	next := c.model.Current()
	c.logger.Debug("engine_advance",
		zap.String("session", c.id),
		zap.String("move", res.Notation),
		zap.String("turn", next.Turn.String()),
		zap.String("outcome", next.Outcome.Label()),
		zap.Duration("elapsed", c.now().Sub(started)),
	)
	c.persist(ctx)
	if next.Outcome.Terminal() {
		c.finish(ctx, next)
	}
	return Event{Kind: EventMoved, Square: to, Resolution: &res, Snapshot: next}, nil
}

func (c *Controller) persist(ctx context.Context) {
	if c.store == nil || c.model == nil {
		return
	}
	snap := c.model.Current()
	rec := &Record{
		ID:            c.id,
		StartEncoding: c.startEncoding,
		Encoding:      snap.Encoding,
		History:       snap.History(),
		Outcome:       snap.Outcome.Label(),
		StartedAt:     c.startedAt,
		UpdatedAt:     c.now(),
	}
	if err := c.store.Save(ctx, rec); err != nil {
		c.logger.Warn("session_save_failed", zap.String("session", c.id), zap.Error(err))
	}
}

func (c *Controller) finish(ctx context.Context, snap *game.Snapshot) {
	c.logger.Info("session_finished", zap.String("session", c.id), zap.String("outcome", snap.Outcome.Label()), zap.Int("plies", snap.Plies()))
	if c.archive == nil || c.archived {
		return
	}
	_, err := c.archive.Insert(ctx, &archive.Game{
		SessionID:     c.id,
		StartEncoding: c.startEncoding,
		FinalEncoding: snap.Encoding,
		Moves:         snap.History(),
		Outcome:       snap.Outcome.Label(),
		StartedAt:     c.startedAt,
		EndedAt:       c.now(),
	})
	switch {
	case err == nil, errors.Is(err, archive.ErrDuplicateGame):
		c.archived = true
	default:
		c.logger.Warn("archive_insert_failed", zap.String("session", c.id), zap.Error(err))
		return
	}
	// an archived game cannot be resumed
	if c.store == nil {
		return
	}
	if err := c.store.Delete(ctx, c.id); err != nil {
		c.logger.Warn("session_delete_failed", zap.String("session", c.id), zap.Error(err))
	}
}

func asUnavailable(err error) error {
	if errors.Is(err, engine.ErrEngineUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", engine.ErrEngineUnavailable, err)
}
