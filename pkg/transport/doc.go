// Package transport defines the chat handler contract and the middleware
// chain that wraps it.
//
// The HTTP adapter in pkg/transport/http decodes requests into pkg/api
// types and hands chat turns to a ChatHandler. Middleware adds panic
// recovery, request id assignment (X-Request-ID) and structured logging
// around every turn. HTTP-level concerns such as CORS, authentication and
// metrics live in the adapter.
package transport
