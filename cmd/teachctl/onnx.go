//go:build onnx

package main

import (
	"github.com/becomeliminal/teachable-go/memory"
	"github.com/becomeliminal/teachable-go/memory/embedder/onnx"
)

func newONNXEmbedder(cfg embedderConfig) (memory.Embedder, func(), error) {
	e, err := onnx.New(onnx.Config{
		ModelPath:         cfg.ModelPath,
		TokenizerPath:     cfg.TokenizerPath,
		SharedLibraryPath: cfg.SharedLibraryPath,
		Dimensions:        cfg.Dimensions,
	})
	if err != nil {
		return nil, nil, err
	}
	return e, func() { e.Close() }, nil
}
