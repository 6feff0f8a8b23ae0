// Package llm defines the common provider contract, the registry of
// constructible provider kinds, and the dispatch manager that walks a
// primary-then-fallbacks chain until one provider succeeds.
//
// Concrete adapters live in llm/providers/*; the llm/factory package wires
// the built-in adapters into a Registry.
package llm
