// Package engine runs turns: it parses player input, applies it to a copy of
// the conversation's world, asks the narrator for a response when needed, and
// commits the turn log entry and the new world state together.
package engine

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tatianab/grave-master/internal/catalog"
	"github.com/tatianab/grave-master/internal/config"
	"github.com/tatianab/grave-master/internal/dice"
	apperrors "github.com/tatianab/grave-master/internal/errors"
	"github.com/tatianab/grave-master/internal/models"
	"github.com/tatianab/grave-master/internal/progression"
	"github.com/tatianab/grave-master/internal/retrieval"
	"github.com/tatianab/grave-master/internal/rooms"
	"github.com/tatianab/grave-master/internal/world"
)

// TurnLog persists turns and world state.
type TurnLog interface {
	Commit(ctx context.Context, entry models.TurnLogEntry, state []byte) (models.TurnLogEntry, error)
	QueryAll(ctx context.Context, id string) ([]models.TurnLogEntry, error)
	SaveState(ctx context.Context, id string, state []byte) error
	LoadState(ctx context.Context, id string) ([]byte, error)
}

type Engine struct {
	gen     Generator
	log     TurnLog
	cfg     config.Config
	catalog *catalog.Catalog
	rooms   *rooms.Manager
	logger  *zap.Logger

	loadMu   sync.Mutex
	sessions sync.Map // conversation id -> *session
}

// session is one conversation's live state. mu serialises its turns.
type session struct {
	mu    sync.Mutex
	state *models.GameSession
	rng   *rand.Rand
	index *retrieval.Index
}

func New(gen Generator, log TurnLog, cfg config.Config, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	cat := catalog.Default()
	tracker := progression.NewTracker(cat, logger.Named("progression"))
	roomCfg := rooms.Config{
		InventoryCap:   cfg.InventoryCap,
		MonsterChance:  cfg.MonsterChance,
		DiscoveryXPMin: cfg.DiscoveryXPMin,
		DiscoveryXPMax: cfg.DiscoveryXPMax,
	}
	return &Engine{
		gen:     gen,
		log:     log,
		cfg:     cfg,
		catalog: cat,
		rooms:   rooms.NewManager(roomCfg, cat, tracker, logger.Named("rooms")),
		logger:  logger,
	}
}

func (e *Engine) retrievalConfig() retrieval.Config {
	return retrieval.Config{
		WordBudget:        e.cfg.WordBudget,
		RecentWindow:      e.cfg.RecentWindow,
		Ranking:           retrieval.Ranking(e.cfg.Ranking),
		ExcludeStructural: e.cfg.ExcludeStructural,
	}
}

func (e *Engine) newSession(state *models.GameSession, rng *rand.Rand) *session {
	return &session{
		state: state,
		rng:   rng,
		index: retrieval.NewIndex(e.retrievalConfig(), e.logger.Named("retrieval")),
	}
}

func (e *Engine) mapper(s *models.GameSession, rng dice.Rand) *world.Mapper {
	return world.NewMapper(s.Graph, rng, e.cfg.MaxExits)
}

// NewGameOptions selects the starting character.
type NewGameOptions struct {
	Preset string
	Party  bool
	// Seed fixes the world when non-zero.
	Seed int64
}

// View is a read-only copy of a conversation after a turn.
type View struct {
	ID       string
	Response string
	Snapshot string
	State    *models.GameSession
	// Rejected is set when the input failed validation. Response holds the
	// reason and nothing was recorded.
	Rejected bool
}

// NewConversation creates a world at the origin and stores its initial state.
func (e *Engine) NewConversation(ctx context.Context, opts NewGameOptions) (View, error) {
	seed := opts.Seed
	if seed == 0 {
		seed = e.cfg.Seed
	}
	if seed == 0 {
		var err error
		if seed, err = dice.NewSeed(); err != nil {
			return View{}, err
		}
	}
	rng := dice.NewRand(seed)

	player, err := PresetCharacter(rng, opts.Preset)
	if err != nil {
		return View{}, apperrors.Validation(err.Error())
	}

	state := models.NewGameSession(uuid.NewString(), seed)
	state.Player = player
	if opts.Party {
		state.Party = StartingParty(rng, e.catalog, player)
	}

	e.mapper(state, rng).Enter(models.Origin, nil)
	state.CurrentRoom().BaseDescription = e.catalog.OriginDescription
	e.rooms.Discover(rng, state)

	data, err := state.Encode()
	if err != nil {
		return View{}, fmt.Errorf("failed to encode session: %w", err)
	}
	if err := e.log.SaveState(ctx, state.ID, data); err != nil {
		return View{}, err
	}

	e.sessions.Store(state.ID, e.newSession(state, rng))
	e.logger.Info("conversation started",
		zap.String("conversation", state.ID),
		zap.String("player", player.Name),
		zap.Int64("seed", seed),
		zap.Int("party", len(state.Party)))

	return View{
		ID:       state.ID,
		Response: state.CurrentRoom().Description(),
		Snapshot: RenderSnapshot(state),
		State:    state.Clone(),
	}, nil
}

// session returns the live session for id, loading it from the turn log on
// first use.
func (e *Engine) session(ctx context.Context, id string) (*session, error) {
	if v, ok := e.sessions.Load(id); ok {
		return v.(*session), nil
	}

	e.loadMu.Lock()
	defer e.loadMu.Unlock()
	if v, ok := e.sessions.Load(id); ok {
		return v.(*session), nil
	}

	data, err := e.log.LoadState(ctx, id)
	if err != nil {
		return nil, err
	}
	state, err := models.DecodeSession(data)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorage, "decode session", err)
	}
	entries, err := e.log.QueryAll(ctx, id)
	if err != nil {
		return nil, err
	}

	sess := e.newSession(state, dice.NewRand(state.Seed^int64(state.Turns)))
	sess.index.Rebuild(entries)
	e.sessions.Store(id, sess)
	e.logger.Info("conversation resumed", zap.String("conversation", id), zap.Int("turns", len(entries)))
	return sess, nil
}

// Resume loads a stored conversation.
func (e *Engine) Resume(ctx context.Context, id string) (View, error) {
	sess, err := e.session(ctx, id)
	if err != nil {
		return View{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return View{
		ID:       id,
		Response: sess.state.CurrentRoom().Description(),
		Snapshot: RenderSnapshot(sess.state),
		State:    sess.state.Clone(),
	}, nil
}

// ProcessTurn applies one line of player input to a conversation.
//
// Input that fails validation returns a View with Rejected set and changes
// nothing. A failed generation or storage write returns an error and leaves
// the conversation exactly as it was.
func (e *Engine) ProcessTurn(ctx context.Context, id, input string) (View, error) {
	sess, err := e.session(ctx, id)
	if err != nil {
		return View{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	cmd := ParseCommand(input)
	if cmd.Raw == "" {
		return View{ID: id, Response: "What do you do?", Rejected: true}, nil
	}
	work := sess.state.Clone()

	response, err := e.apply(sess.rng, work, cmd)
	if apperrors.IsCode(err, apperrors.CodeValidation) {
		return View{ID: id, Response: apperrors.Message(err), Rejected: true}, nil
	}
	if err != nil {
		return View{}, err
	}

	snapshot := RenderSnapshot(work)
	if cmd.Kind.Narrated() {
		req := GenerationRequest{
			NarrativeContext: sess.index.Retrieve(cmd.Raw+"\n"+work.CurrentRoom().Description(), e.cfg.WordBudget),
			StateSnapshot:    snapshot,
			UserInput:        cmd.Raw,
		}
		response, err = e.generate(ctx, req)
		if err != nil {
			e.logger.Warn("generation failed", zap.String("conversation", id), zap.Error(err))
			return View{}, err
		}
		room := work.CurrentRoom()
		if room.BaseDescription == "" {
			room.BaseDescription = response
		}
		room.LastNarrative = response
	}

	work.Turns++
	data, err := work.Encode()
	if err != nil {
		return View{}, fmt.Errorf("failed to encode session: %w", err)
	}
	entry, err := e.log.Commit(ctx, models.TurnLogEntry{
		ConversationID: id,
		Prompt:         cmd.Raw,
		Response:       response,
		StateSnapshot:  snapshot,
	}, data)
	if err != nil {
		e.logger.Error("turn not recorded", zap.String("conversation", id), zap.Error(err))
		return View{}, err
	}

	sess.state = work
	sess.index.Add(entry)
	e.logger.Info("turn committed",
		zap.String("conversation", id),
		zap.Int("index", entry.SequenceIndex),
		zap.Stringer("command", cmd.Kind))

	return View{
		ID:       id,
		Response: response,
		Snapshot: RenderSnapshot(work),
		State:    work.Clone(),
	}, nil
}

// apply mutates s for cmd. Fixed responses are returned for commands that
// are not narrated.
func (e *Engine) apply(rng dice.Rand, s *models.GameSession, cmd Command) (string, error) {
	switch cmd.Kind {
	case CommandMove:
		m := e.mapper(s, rng)
		prev := s.Position
		next, err := m.Move(prev, cmd.Direction)
		if err != nil {
			return "", err
		}
		s.Position = next
		if m.Enter(next, &prev) {
			e.rooms.Discover(rng, s)
		}
		return "", nil
	case CommandSearch:
		_, err := e.rooms.Search(s)
		return "", err
	case CommandTake:
		return e.rooms.Take(s, cmd.Items)
	case CommandDrop:
		return e.rooms.Drop(s, cmd.Items)
	case CommandEquip:
		return e.rooms.Equip(s, cmd.Name)
	case CommandAddToParty:
		return e.rooms.AddToParty(s, cmd.Name)
	case CommandRemoveFromParty:
		return e.rooms.RemoveFromParty(s, cmd.Name)
	}
	return "", nil
}

// generate calls the narrator, retrying retryable failures.
func (e *Engine) generate(ctx context.Context, req GenerationRequest) (string, error) {
	attempts := max(e.cfg.GenerationAttempts, 1)
	var err error
	for i := 0; i < attempts; i++ {
		var out string
		out, err = e.gen.Generate(ctx, req)
		if err == nil {
			return out, nil
		}
		if !apperrors.IsRetryable(err) || ctx.Err() != nil {
			break
		}
		e.logger.Debug("retrying generation", zap.Int("attempt", i+1), zap.Error(err))
	}
	if apperrors.GetCode(err) == apperrors.CodeUnknown {
		err = apperrors.Wrap(apperrors.CodeBackend, "generation failed", err)
	}
	return "", err
}

// Context returns the turns retrieval would select for query, oldest first.
func (e *Engine) Context(ctx context.Context, id, query string) ([]retrieval.Scored, error) {
	sess, err := e.session(ctx, id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.index.Select(query, e.cfg.WordBudget), nil
}

// Export writes the conversation's world as YAML files under root/id.
func (e *Engine) Export(ctx context.Context, id, root string) error {
	sess, err := e.session(ctx, id)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	state := sess.state.Clone()
	sess.mu.Unlock()
	return state.Export(root, id)
}

// Import starts a new conversation from a YAML export under root/name. The
// imported world keeps its state but begins with an empty turn log.
func (e *Engine) Import(ctx context.Context, root, name string) (View, error) {
	state, err := models.ImportSession(root, name)
	if err != nil {
		return View{}, apperrors.Wrap(apperrors.CodeNotFound, "import "+name, err)
	}
	state.ID = uuid.NewString()

	data, err := state.Encode()
	if err != nil {
		return View{}, fmt.Errorf("failed to encode session: %w", err)
	}
	if err := e.log.SaveState(ctx, state.ID, data); err != nil {
		return View{}, err
	}

	rng := dice.NewRand(state.Seed ^ int64(state.Turns))
	e.sessions.Store(state.ID, e.newSession(state, rng))
	e.logger.Info("conversation imported", zap.String("conversation", state.ID), zap.String("from", name))

	return View{
		ID:       state.ID,
		Response: state.CurrentRoom().Description(),
		Snapshot: RenderSnapshot(state),
		State:    state.Clone(),
	}, nil
}
