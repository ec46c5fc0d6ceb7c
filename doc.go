// Package apiclient is a client runtime that mediates every outbound HTTP
// call an application makes to a backend speaking the uniform
// {code, message, data} envelope contract.
//
// Request pipeline:
//   - Client is the single request primitive. Before transport it runs an
//     ordered list of request stages (bearer credential injection from the
//     CredentialStore, cache busting on reads); after transport it classifies
//     the result into a structured failure taxonomy and performs the
//     per-failure side effects (user notification, forced re-authentication)
//     so individual call sites never have to.
//
// Session lifecycle:
//   - SessionStore owns the in-memory view of the current identity: tokens,
//     profile, permission set, role set, and menu grants. It is the sole
//     writer of the CredentialStore identity fields. Login tolerates both
//     observed backend response schemas (identity embedded in the login
//     payload or fetched separately) and logout clears local state even when
//     the server-side revoke call fails.
//
// Navigation:
//   - Guard evaluates every client-side route transition against the route's
//     RequiresAuth metadata and the current session, redirecting to the login
//     view (preserving the intended target) or away from it as needed. Router
//     is a small registry that resolves paths and runs the guard, driving the
//     progress and title sinks on every transition.
package apiclient
