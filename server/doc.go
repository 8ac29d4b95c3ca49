// Package server is the HTTP edge of the gateway.
//
// One operation matters: POST /query. The handler validates and sanitizes
// the request, borrows a dispatch worker, and relays the staged results to
// the client as a delimited text stream. Static UI assets and the root
// redirect are conveniences, not part of the protocol.
package server
