// Copyright (c) Kortix Gateway Authors.
// Licensed under the MIT License.

/*
Package metrics provides Prometheus instrumentation for the gateway's
request, billing, and search surfaces.

# Overview

Collector registers every metric once via promauto and exposes a narrow
Record* method per concern, so callers never touch a *prometheus.CounterVec
directly. Labels are kept low-cardinality (HTTP status is bucketed into
2xx/3xx/4xx/5xx; path is normalized for dynamic segments, see
cmd/gateway's MetricsMiddleware).

# Core types

  - Collector: holds every registered metric, grouped by the spec
    component that produces it (HTTP surface, LLM proxy, billing, search,
    credential throttle, relational stores).

# Capabilities

  - HTTP (C9): request counts, duration, request/response sizes by
    method/path/status.
  - LLM proxy (C7): request counts and duration by provider/model/status,
    tokens billed by kind (prompt/completion), cumulative cost.
  - Billing (C4) / search (C6): credits deducted by debit kind, search
    calls by tool/status.
  - Credential throttle (C3): hits vs. skips of the last-used-at update.
  - Relational stores (C2/C3): connection pool gauges, query duration.
*/
package metrics
