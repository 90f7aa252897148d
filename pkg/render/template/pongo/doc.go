// Package pongo compiles and executes templates with pongo2.
//
// Includes and extends are loaded through the same source resolver the render
// pipeline uses, and every top-level variable is bound to a lazy function so
// pongo2 asks the Scope for it only when the template reads it.
package pongo
