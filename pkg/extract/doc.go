// Package extract maps variable names to extractor functions that compute a
// template value from the content repository and the model of the render in
// progress. The render engine consults the registry before ordinary lookup, so
// a registered name always wins over a model key of the same name.
package extract
