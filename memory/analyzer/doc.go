// Package analyzer decides which exchanges teach the agent something.
//
// Rules is deterministic and needs no backend. Model asks a language model
// the same questions a text-analysis agent would, through a Completer.
// Chain tries several analyzers in order.
package analyzer
