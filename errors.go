package querycore

import "errors"

// ErrUnknownEndpoint is returned by Refetch, Invalidate, and Subscribe when
// called with a key that has not been passed to DefineEndpoint. GetState
// deliberately does not return this error — it returns the zero
// EndpointState instead, since it is the read path callers poll
// defensively and an error there would just be re-wrapped at every call
// site.
var ErrUnknownEndpoint = errors.New("querycore: unknown endpoint")

// ErrTypeMismatch is returned when DefineEndpoint or Subscribe is called
// with a type parameter that does not match the type the endpoint was
// originally defined with. GetState returns the zero EndpointState instead.
var ErrTypeMismatch = errors.New("querycore: endpoint defined with a different type")

// ErrClosed is returned by DefineEndpoint, Subscribe, Refetch and
// Invalidate once Close has been called on the Core.
var ErrClosed = errors.New("querycore: core is closed")

// ErrUnknownCacheProvider is returned when an endpoint names a cache
// provider that was not registered on the Core.
var ErrUnknownCacheProvider = errors.New("querycore: unknown cache provider")
