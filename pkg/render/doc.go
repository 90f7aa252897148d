// Package render runs the render pipeline: fetch or compile the named
// template, push the model as the current render context, execute with every
// top-level variable routed through the extractor-aware lookup, normalize line
// endings and write the result to the caller's sink.
//
// Every failure comes back as a *RenderingError whose Kind names the stage
// that failed. Engines are safe for concurrent use; the compiled-template
// cache is the only state renders share.
package render
