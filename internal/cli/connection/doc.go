// Package connection provides the HTTP client assetgw-cli uses to reach
// assetgw-server.
//
// Error responses are decoded into *APIError so commands can report the
// server's error code and request ID.
package connection
