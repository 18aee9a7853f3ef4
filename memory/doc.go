// Package memory provides persistent, similarity-based recall of facts an
// agent learned in earlier conversations.
//
// A memo is a (topic, content) pair plus the embedding of its content. Memos
// are appended to a Store and never edited; the only way to forget is a full
// reset.
//
// Architecture:
//   - Store: durable memo storage (SQLite for local use)
//   - Index: optional nearest-neighbour index kept next to the Store (chromem-go)
//   - Embedder: text-to-vector conversion (lexical hashing, Ollama, OpenAI, ONNX)
//   - Analyzer: decides whether an exchange holds something worth remembering
//   - Recaller: scores memos against an incoming message and formats the hits
//
// Integration happens in two places of a turn:
//   - before reasoning: Recaller output is prepended to the user message
//   - after the reply: Analyzer output is embedded and written to the Store
//
// The teachability package wires these pieces into agent hooks.
package memory
