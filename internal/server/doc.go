// Copyright (c) Kortix Gateway Authors.
// Licensed under the MIT License.

/*
Package server provides HTTP/HTTPS server lifecycle management: a
non-blocking Start, graceful Shutdown, and SIGINT/SIGTERM handling — the
C9 transport's process lifecycle, shared by the gateway's main HTTP
listener and its separate metrics listener (cmd/gateway/server.go).

# Overview

Manager wraps net/http.Server, unifying listen, serve, shutdown, and
error propagation. Both plain HTTP and TLS startup are supported; either
mode installs the same signal handling so a production deployment gets
graceful draining on shutdown without the caller writing it twice.

# Core types

  - Manager: holds the http.Server, its net.Listener, and an async error
    channel; exposes Start/StartTLS/Shutdown/WaitForShutdown.
  - Config: listener configuration — address, read/write/idle timeouts,
    max header bytes, graceful shutdown timeout.

# Capabilities

  - Non-blocking start: Start/StartTLS run the server in a background
    goroutine; the caller thread is never blocked.
  - Graceful shutdown: Shutdown drains in-flight requests within the
    configured timeout before releasing the listener.
  - Signal handling: WaitForShutdown blocks on SIGINT/SIGTERM (or an
    async server error) and triggers Shutdown automatically.
  - Error propagation: Errors() exposes the async error channel for a
    caller that wants to react to the server exiting unexpectedly.
*/
package server
