// Package source locates raw template source by logical name.
//
// A Resolver searches, in order, a template root on the local filesystem, the
// bundled assets by exact name, and the bundled assets under a folder prefix.
// The first match wins and the caller owns the returned stream.
package source
