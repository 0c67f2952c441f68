package handler

import "errors"

// errNoHandlersAreCreated is returned by NewHandlers when neither an HTTP
// nor a gRPC address is configured, leaving the server with no transport to
// serve. Fatal misconfiguration; the application fails at startup.
var errNoHandlersAreCreated = errors.New("no handlers are created")
