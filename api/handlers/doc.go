/*
Package handlers implements the gateway's HTTP request handlers: chat
completions, web/image search, the model catalog, and health.

# Overview

Every handler follows the same shape: decode and validate the request,
attach the caller's account id from the auth middleware (internal/auth),
gate on Billing.CheckCredits, dispatch to the matching adapter or proxy,
and deduct credits on success — never failing the response for a failing
debit (§4.4, §7).

# Core types

  - ChatHandler        — §6.4, streaming and non-streaming chat completions
  - WebSearchHandler    — §6.2
  - ImageSearchHandler  — §6.3
  - HealthHandler       — §6.1, unauthenticated liveness
  - ModelsHandler       — §6.1, the static model catalog

# Shared helpers

  - WriteJSON / WriteSuccess / WriteError — the §6.6 response envelope
  - DecodeJSONBody / ValidateContentType  — request validation (1 MiB cap,
    strict JSON, unknown fields rejected)
  - ResponseWriter                        — captures the status code
    written, for middleware that needs it after the handler returns
*/
package handlers
