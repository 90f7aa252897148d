// Package content defines the content repository extractors query while a
// template renders, and ships an in-memory implementation. The render engine
// never inspects the repository; it only hands it to extractors.
package content
