// Package template defines the seam between the render pipeline and the
// template-syntax engine. A Compiler turns raw source into an immutable
// Template; executing a Template pulls every top-level variable through a
// Scope, so the pipeline decides where values come from while the engine only
// decides how they are printed.
package template
