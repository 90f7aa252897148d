// Package lookup decides where a template variable's value comes from.
//
// An Interceptor checks the extractor registry first and only falls back to
// ordinary scope lookup when no extractor serves the name. Whatever the origin,
// raw collections are wrapped in a DecoratedCollection so templates always see
// one collection shape with index and first/last metadata.
package lookup
