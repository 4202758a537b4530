// Package main is the ndcsqlite command line.
//
// Commands:
//   - query: compile and execute a request, print the response
//   - explain: print the SQL and parameters a request compiles to
//   - schema, capabilities: print the protocol documents
//   - validate: check a catalog without a database
//   - introspect: generate a catalog from a live SQLite database
//   - test: run scenario files
//
// Usage:
//
//	ndcsqlite [--schema path] [--db dsn] <command>
//
// Settings come from flags, NDCSQLITE_* environment variables (a .env file
// is read too) and ndcsqlite.yaml, in that order of precedence.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/roach88/ndcsqlite/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.NewRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(cli.GetExitCode(err))
	}
}
