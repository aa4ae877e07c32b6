// Copyright (c) Kortix Gateway Authors.
// Licensed under the MIT License.

/*
Package main provides the gateway's executable entry point.

# Overview

cmd/gateway is the gateway's CLI entry point: it loads configuration
(config.Load), wires every C1-C9 component together, and starts the HTTP
surface plus a separate metrics listener. A `migrate` subcommand applies
the direct ledger/credential schema (internal/migration) independently of
the running server.

# Core types

  - Server      — owns both HTTP listeners (API and metrics) and every
    wired component; Start/Shutdown manage their lifecycle together.
  - Middleware  — the chain signature func(http.Handler) http.Handler.

# Capabilities

  - Subcommands: serve (start the gateway), migrate (schema up/down/status/
    version), version, health (probe a running instance).
  - Middleware chain: Recovery, RequestID, SecurityHeaders, RequestLogger,
    CORS (go-chi/cors), OTel tracing, Prometheus request metrics, then the
    C8 bearer-auth middleware ahead of every protected route.
  - Routing: go-chi/chi/v5, matching §6.1's route table exactly.
  - Graceful shutdown: signal handling via internal/server.Manager.
  - Build metadata: Version/BuildTime/GitCommit injected via ldflags.
*/
package main
