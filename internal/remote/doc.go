// Package remote provides clients for a running graph server. Both clients
// speak the same serialized request/response messages: HTTPClient posts them
// to the HTTP endpoint, SocketClient emits them over a persistent socket.io
// connection and matches responses to requests by id.
package remote
