// Package workflow implements the definition store and the execution
// engine for multi-step workflows with human-in-the-loop suspension.
//
// A Definition is an immutable graph of typed steps gated by dependency
// edges. The Engine drives one instance at a time through the graph with a
// greedy in-declaration-order scheduler, pausing when a human step
// requests input and resuming when ProvideHumanInput delivers the answer.
// Lifecycle events fan out over an internal broker to any number of
// listeners, including the hitl gateway dispatcher.
package workflow
