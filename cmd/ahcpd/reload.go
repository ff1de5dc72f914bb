package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/ahcp-project/ahcpd/internal/aghos"
	"github.com/ahcp-project/ahcpd/internal/ahcpopts"
)

// newReloadWatcher returns a started [aghos.FSWatcher] tracking the
// authority file for writes; a write to that file triggers a reload
// (SIGHUP shuts the daemon down instead). Daemons run without an authority file
// get a no-op watcher, since there is nothing local to reload.
func newReloadWatcher(ctx context.Context, opts ahcpopts.Options) (w aghos.FSWatcher, err error) {
	if opts.AuthorityFile == "" {
		return aghos.EmptyFSWatcher{}, nil
	}

	w, err = aghos.NewOSWritesWatcher(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	if err != nil {
		return nil, err
	}

	if err = w.Start(ctx); err != nil {
		return nil, err
	}

	if err = w.Add(opts.AuthorityFile); err != nil {
		return nil, err
	}

	return w, nil
}
