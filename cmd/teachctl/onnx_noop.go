//go:build !onnx

package main

import "github.com/becomeliminal/teachable-go/memory"

func newONNXEmbedder(cfg embedderConfig) (memory.Embedder, func(), error) {
	return nil, nil, &memory.ConfigurationError{Field: "embedder", Reason: "onnx support not compiled in; rebuild with -tags onnx"}
}
