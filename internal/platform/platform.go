// Package platform ties the query engine to sessions.
//
// A Platform is built from a metamodel. Sessions hold a loaded model, and
// the query actions run against it. Each query is appended to the session's
// query log in the store.
package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/roach88/modelq/internal/config"
	"github.com/roach88/modelq/internal/engine"
	"github.com/roach88/modelq/internal/ir"
	"github.com/roach88/modelq/internal/loader"
	"github.com/roach88/modelq/internal/queryir"
	"github.com/roach88/modelq/internal/store"
)

// SessionStore persists sessions and their query logs. *store.Store
// implements it.
type SessionStore interface {
	CreateSession(ctx context.Context, id string, seq int64) (bool, error)
	ReadSession(ctx context.Context, id string) (store.Session, error)
	PutValue(ctx context.Context, sessionID, key, value string) error
	GetValue(ctx context.Context, sessionID, key string) (string, bool, error)
	AppendQuery(ctx context.Context, rec store.QueryRecord) (store.QueryRecord, error)
	ReadQueryLog(ctx context.Context, sessionID string) ([]store.QueryRecord, error)
	GetLastSeq(ctx context.Context) (int64, error)
}

// Option configures a Platform.
type Option func(*Platform)

// WithClock replaces the logical clock. By default the platform resumes
// from the store's last seq.
func WithClock(c Sequencer) Option {
	return func(p *Platform) { p.clock = c }
}

// WithIDGenerator replaces the session id generator (UUIDv7 by default).
func WithIDGenerator(g SessionIDGenerator) Option {
	return func(p *Platform) { p.ids = g }
}

// Platform loads models into sessions and answers type queries over them.
type Platform struct {
	metamodel *loader.Metamodel
	models    *loader.ModelLoader
	executor  *engine.Executor
	store     SessionStore
	clock     Sequencer
	ids       SessionIDGenerator
	logger    *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// QueryResult is the outcome of a query action.
type QueryResult struct {
	Nodes  []*ir.Node
	Stats  engine.Stats
	Record store.QueryRecord
}

// New builds a platform from cfg.Metamodel, which must name an existing
// metamodel file or directory. A nil logger falls back to slog.Default().
func New(ctx context.Context, cfg *config.Config, st SessionStore, logger *slog.Logger, opts ...Option) (*Platform, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil || strings.TrimSpace(cfg.Metamodel) == "" {
		return nil, fmt.Errorf("%w: cannot find a valid metamodel location in the configuration (key: metamodel)", ErrInvalidArgument)
	}
	if st == nil {
		return nil, fmt.Errorf("%w: no session store", ErrInvalidArgument)
	}

	mm, err := loader.LoadMetamodel(cfg.Metamodel)
	if err != nil {
		return nil, err
	}

	p := &Platform{
		metamodel: mm,
		models:    loader.NewModelLoader(mm.Schema, cfg.SearchPaths, logger),
		executor:  engine.NewExecutor(logger),
		store:     st,
		ids:       UUIDv7Generator{},
		logger:    logger,
		sessions:  make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.clock == nil {
		last, err := st.GetLastSeq(ctx)
		if err != nil {
			return nil, fmt.Errorf("resume clock: %w", err)
		}
		p.clock = NewClockAt(last)
	}

	logger.Debug("platform ready",
		"metamodel", mm.Path,
		"schema", mm.Schema.Name,
		"types", len(mm.Schema.Types),
	)
	return p, nil
}

// Schema returns the platform's compiled metamodel.
func (p *Platform) Schema() *ir.Schema {
	return p.metamodel.Schema
}

// Metamodel returns the loaded metamodel.
func (p *Platform) Metamodel() *loader.Metamodel {
	return p.metamodel
}

// NewSession creates and persists a session with a fresh id.
func (p *Platform) NewSession(ctx context.Context) (*Session, error) {
	sess, _, err := p.OpenSession(ctx, p.ids.Generate())
	return sess, err
}

// OpenSession returns session id, creating it if it does not exist yet.
// created reports whether it was created by this call.
func (p *Platform) OpenSession(ctx context.Context, id string) (sess *Session, created bool, err error) {
	if id == "" {
		return nil, false, fmt.Errorf("%w: empty session id", ErrInvalidArgument)
	}

	// Existing sessions do not take a seq, so the log has no gaps.
	if _, err := p.store.ReadSession(ctx, id); err == nil {
		sess, err = p.Session(ctx, id)
		return sess, false, err
	} else if !errors.Is(err, store.ErrSessionNotFound) {
		return nil, false, err
	}

	seq := p.clock.Next()
	created, err = p.store.CreateSession(ctx, id, seq)
	if err != nil {
		return nil, false, err
	}
	if created {
		p.logger.Debug("session created", "session", id, "seq", seq)
	}

	sess, err = p.Session(ctx, id)
	return sess, created, err
}

// Session returns an existing session. A session opened for the first
// time in this process gets its model reloaded from the persisted path.
// If that model can no longer be loaded the session comes back without a
// model: queries fail with ErrNoModel until LoadModel replaces it.
func (p *Platform) Session(ctx context.Context, id string) (*Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if sess, ok := p.sessions[id]; ok {
		return sess, nil
	}

	row, err := p.store.ReadSession(ctx, id)
	if err != nil {
		return nil, err
	}
	sess := newSession(row.ID, row.CreatedSeq)

	path, ok, err := p.store.GetValue(ctx, id, KeyModel)
	if err != nil {
		return nil, err
	}
	if ok {
		if graph, err := p.models.Load(path); err != nil {
			p.logger.Warn("cannot restore session model",
				"session", id,
				"path", path,
				"error", err,
			)
		} else {
			sess.Store(keyGraph, graph)
			sess.Store(KeyModel, graph.Source)
		}
	}

	p.sessions[id] = sess
	return sess, nil
}

// LoadModel loads the model at path into the session, replacing any model
// loaded before, and persists its resolved path.
func (p *Platform) LoadModel(ctx context.Context, sess *Session, path string) (*ir.Graph, error) {
	if sess == nil {
		return nil, fmt.Errorf("%w: nil session", ErrInvalidArgument)
	}
	if path == "" {
		return nil, fmt.Errorf("%w: empty model path", ErrInvalidArgument)
	}

	graph, err := p.models.Load(path)
	if err != nil {
		return nil, err
	}

	// The persisted path must not depend on the working directory.
	abs, err := filepath.Abs(graph.Source)
	if err != nil {
		return nil, fmt.Errorf("resolve model path: %w", err)
	}
	if err := p.store.PutValue(ctx, sess.ID, KeyModel, abs); err != nil {
		return nil, err
	}
	sess.Store(keyGraph, graph)
	sess.Store(KeyModel, abs)

	p.logger.Info("model loaded",
		"session", sess.ID,
		"path", graph.Source,
		"nodes", graph.Size(),
	)
	return graph, nil
}

// GetAllInstances returns every instance of typeName (and its subtypes)
// in the session's model, in document order.
func (p *Platform) GetAllInstances(ctx context.Context, sess *Session, typeName string) ([]*ir.Node, error) {
	res, err := p.query(ctx, sess, typeName, &queryir.ConditionSpec{})
	if err != nil {
		return nil, err
	}
	return res.Nodes, nil
}

// GetAllInstancesSelect returns the instances of typeName that satisfy spec.
func (p *Platform) GetAllInstancesSelect(ctx context.Context, sess *Session, typeName string, spec *queryir.ConditionSpec) ([]*ir.Node, error) {
	res, err := p.Query(ctx, sess, typeName, spec)
	if err != nil {
		return nil, err
	}
	return res.Nodes, nil
}

// Query is GetAllInstancesSelect that also returns execution stats and the
// query log record written.
func (p *Platform) Query(ctx context.Context, sess *Session, typeName string, spec *queryir.ConditionSpec) (*QueryResult, error) {
	if spec == nil {
		return nil, fmt.Errorf("%w: nil query", ErrInvalidArgument)
	}
	return p.query(ctx, sess, typeName, spec)
}

func (p *Platform) query(ctx context.Context, sess *Session, typeName string, spec *queryir.ConditionSpec) (*QueryResult, error) {
	if sess == nil {
		return nil, fmt.Errorf("%w: nil session", ErrInvalidArgument)
	}
	if typeName == "" {
		return nil, fmt.Errorf("%w: the provided type name is not valid (name=%q)", ErrInvalidArgument, typeName)
	}

	graph, ok := sess.Model()
	if !ok {
		return nil, fmt.Errorf("%w (session %s, key %s)", ErrNoModel, sess.ID, KeyModel)
	}

	nodes, stats, err := p.executor.ExecuteWithStats(graph, p.Schema(), typeName, spec)
	if err != nil {
		return nil, err
	}
	p.logger.Info(fmt.Sprintf("found %d instances of %s", len(nodes), typeName),
		"session", sess.ID,
	)

	specJSON, err := queryir.Canonical(spec)
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}
	rec, err := p.store.AppendQuery(ctx, store.QueryRecord{
		SessionID:   sess.ID,
		TypeName:    typeName,
		SpecJSON:    specJSON,
		ResultCount: len(nodes),
		Seq:         p.clock.Next(),
	})
	if err != nil {
		return nil, err
	}

	return &QueryResult{Nodes: nodes, Stats: stats, Record: rec}, nil
}

// History returns the session's query log, oldest first.
func (p *Platform) History(ctx context.Context, sess *Session) ([]store.QueryRecord, error) {
	if sess == nil {
		return nil, fmt.Errorf("%w: nil session", ErrInvalidArgument)
	}
	return p.store.ReadQueryLog(ctx, sess.ID)
}

// IsSessionNotFound reports whether err means the session does not exist.
func IsSessionNotFound(err error) bool {
	return errors.Is(err, store.ErrSessionNotFound)
}
