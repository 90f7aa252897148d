// Package model defines the data handed to a render. A Model is a plain
// string-keyed mapping borrowed by the engine for the duration of one render;
// the engine never mutates it.
package model
