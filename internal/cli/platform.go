package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/roach88/modelq/internal/platform"
	"github.com/roach88/modelq/internal/store"
)

// env is what a session command runs against: the platform over the
// configured database.
type env struct {
	platform *platform.Platform
	store    *store.Store
}

func (e *env) Close() error {
	return e.store.Close()
}

// openEnv opens the configured database, creating its directory if
// needed, and builds the platform from the configured metamodel. Failures
// are command errors.
func openEnv(ctx context.Context, opts *RootOptions, formatter *OutputFormatter) (*env, error) {
	cfg := opts.Config
	if cfg.Metamodel == "" {
		return nil, formatter.Fail(ExitCommandError, platform.CodeInvalidArgument,
			fmt.Errorf("no metamodel configured (use --metamodel, MODELQ_METAMODEL or modelq.yaml)"))
	}

	if cfg.Database != store.MemoryPath {
		if err := os.MkdirAll(filepath.Dir(cfg.Database), 0755); err != nil {
			return nil, formatter.Fail(ExitCommandError, platform.CodeGeneric, fmt.Errorf("create database directory: %w", err))
		}
	}
	st, err := store.Open(cfg.Database)
	if err != nil {
		return nil, formatter.Fail(ExitCommandError, platform.CodeGeneric, err)
	}

	p, err := platform.New(ctx, cfg, st, opts.Logger)
	if err != nil {
		st.Close()
		return nil, formatter.Fail(ExitCommandError, platform.ErrorCode(err), err)
	}

	formatter.VerboseLog("metamodel %s (%d types), database %s", cfg.Metamodel, len(p.Schema().Types), cfg.Database)
	return &env{platform: p, store: st}, nil
}

// session returns an existing session; an unknown id is a command error.
func (e *env) session(ctx context.Context, id string, formatter *OutputFormatter) (*platform.Session, error) {
	sess, err := e.platform.Session(ctx, id)
	if err != nil {
		return nil, formatter.Fail(ExitCommandError, platform.ErrorCode(err), err)
	}
	return sess, nil
}
