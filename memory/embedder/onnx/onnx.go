//go:build onnx

// Package onnx embeds text locally with a sentence-transformer ONNX model
// such as all-MiniLM-L6-v2. Build with -tags onnx.
package onnx

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/felixgeelhaar/bolt/v3"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/becomeliminal/teachable-go/memory"
	"github.com/becomeliminal/teachable-go/observe"
)

// Config configures the ONNX embedder.
type Config struct {
	// ModelPath is the path to the ONNX model file.
	ModelPath string

	// TokenizerPath is the path to the tokenizer.json file.
	TokenizerPath string

	// SharedLibraryPath locates libonnxruntime. Empty uses the runtime's default search.
	SharedLibraryPath string

	// Dimensions is the embedding vector size (default: 384 for all-MiniLM-L6-v2).
	Dimensions int

	// MaxTokens is the model's sequence length (default: 128).
	MaxTokens int

	Logger *bolt.Logger
}

// Embedder generates embeddings using ONNX Runtime.
type Embedder struct {
	mu        sync.Mutex
	session   *ort.DynamicAdvancedSession
	tokenizer *Tokenizer
	dims      int
	maxTokens int
	log       *bolt.Logger
}

var initOnce struct {
	sync.Once
	err error
}

// New creates a new ONNX embedder.
func New(cfg Config) (*Embedder, error) {
	if cfg.ModelPath == "" {
		return nil, &memory.ConfigurationError{Field: "onnx model path", Reason: "required"}
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = 384
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 128
	}
	if cfg.Logger == nil {
		cfg.Logger = observe.Discard()
	}

	initOnce.Do(func() {
		if cfg.SharedLibraryPath != "" {
			ort.SetSharedLibraryPath(cfg.SharedLibraryPath)
		}
		initOnce.err = ort.InitializeEnvironment()
	})
	if initOnce.err != nil {
		return nil, fmt.Errorf("initialize onnx runtime: %w", initOnce.err)
	}

	tokenizer, err := LoadTokenizer(cfg.TokenizerPath)
	if err != nil {
		return nil, err
	}

	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{"last_hidden_state"},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("create onnx session: %w", err)
	}

	cfg.Logger.Info().
		Str("model", cfg.ModelPath).
		Int("dims", cfg.Dimensions).
		Msg("onnx embedder ready")

	return &Embedder{
		session:   session,
		tokenizer: tokenizer,
		dims:      cfg.Dimensions,
		maxTokens: cfg.MaxTokens,
		log:       cfg.Logger,
	}, nil
}

// Embed converts text to a unit-length embedding by mean pooling the
// model's hidden states over attended tokens.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &memory.EmbeddingError{Err: memory.ErrEmptyText}
	}

	ids := e.tokenizer.Encode(text, e.maxTokens)
	inputIDs := make([]int64, e.maxTokens)
	mask := make([]int64, e.maxTokens)
	typeIDs := make([]int64, e.maxTokens)
	copy(inputIDs, ids)
	for i := range ids {
		mask[i] = 1
	}

	shape := ort.NewShape(1, int64(e.maxTokens))
	var inputs []ort.Value
	defer func() {
		for _, v := range inputs {
			v.Destroy()
		}
	}()
	for _, data := range [][]int64{inputIDs, mask, typeIDs} {
		tensor, err := ort.NewTensor(shape, data)
		if err != nil {
			return nil, &memory.EmbeddingError{Err: fmt.Errorf("create input tensor: %w", err)}
		}
		inputs = append(inputs, tensor)
	}

	outputs := []ort.Value{nil}
	e.mu.Lock()
	err := e.session.Run(inputs, outputs)
	e.mu.Unlock()
	if err != nil {
		return nil, &memory.EmbeddingError{Err: fmt.Errorf("onnx inference: %w", err)}
	}
	defer func() {
		if outputs[0] != nil {
			outputs[0].Destroy()
		}
	}()

	out, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, &memory.EmbeddingError{Err: fmt.Errorf("unexpected output tensor type %T", outputs[0])}
	}

	vec, err := pool(out.GetData(), out.GetShape(), mask, e.dims)
	if err != nil {
		return nil, &memory.EmbeddingError{Err: err}
	}
	return memory.Normalize(vec), nil
}

// pool extracts a [dims] vector from a [1, dims] or [1, seq, dims] output.
func pool(data []float32, shape ort.Shape, mask []int64, dims int) ([]float32, error) {
	vec := make([]float32, dims)
	switch len(shape) {
	case 2:
		if len(data) < dims {
			return nil, fmt.Errorf("%w: got %d, want %d", memory.ErrDimensionMismatch, len(data), dims)
		}
		copy(vec, data[:dims])
	case 3:
		if shape[0] != 1 || shape[2] != int64(dims) {
			return nil, fmt.Errorf("%w: output shape %v", memory.ErrDimensionMismatch, shape)
		}
		var attended float32
		for i := 0; i < int(shape[1]) && i < len(mask); i++ {
			if mask[i] == 0 {
				continue
			}
			attended++
			row := data[i*dims : (i+1)*dims]
			for j, v := range row {
				vec[j] += v
			}
		}
		for j := range vec {
			vec[j] /= attended
		}
	default:
		return nil, fmt.Errorf("unexpected output shape %v", shape)
	}
	return vec, nil
}

// Dimensions returns the embedding vector size.
func (e *Embedder) Dimensions() int {
	return e.dims
}

// Close releases ONNX resources.
func (e *Embedder) Close() error {
	if e.session != nil {
		return e.session.Destroy()
	}
	return nil
}
