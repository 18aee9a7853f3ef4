package main

import (
	"context"
	"fmt"
	"os"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/felixgeelhaar/bolt/v3"

	"github.com/becomeliminal/teachable-go/memory"
	"github.com/becomeliminal/teachable-go/memory/analyzer"
	"github.com/becomeliminal/teachable-go/memory/embedder/cached"
	"github.com/becomeliminal/teachable-go/memory/embedder/lexical"
	"github.com/becomeliminal/teachable-go/memory/embedder/ollama"
	"github.com/becomeliminal/teachable-go/memory/embedder/openai"
	"github.com/becomeliminal/teachable-go/memory/store/postgres"
	"github.com/becomeliminal/teachable-go/observe"
	"github.com/becomeliminal/teachable-go/teachability"
)

// openCapability builds a Teachability from cfg. The returned cleanup closes
// everything that was opened.
func openCapability(cfg fileConfig, log *bolt.Logger) (*teachability.Teachability, func(), error) {
	emb, closeEmb, err := buildEmbedder(cfg.Embedder)
	if err != nil {
		return nil, nil, err
	}
	an, err := buildAnalyzer(cfg.Analyzer, analyzerLogger(cfg.Verbosity, log))
	if err != nil {
		closeEmb()
		return nil, nil, err
	}

	opts := []teachability.Option{
		teachability.WithEmbedder(emb),
		teachability.WithAnalyzer(an),
		teachability.WithLogger(log),
	}
	if cfg.Index {
		opts = append(opts, teachability.WithIndex())
	}

	closeStore := func() {}
	switch cfg.Store.Kind {
	case "", "sqlite":
	case "postgres":
		dsn := cfg.Store.DSN
		if dsn == "" {
			dsn = os.Getenv("TEACHABLE_POSTGRES_DSN")
		}
		s, err := postgres.Open(context.Background(), postgres.Config{DSN: dsn, Table: cfg.Store.Table})
		if err != nil {
			closeEmb()
			return nil, nil, err
		}
		opts = append(opts, teachability.WithStore(s))
		closeStore = func() { s.Close() }
	default:
		closeEmb()
		return nil, nil, &memory.ConfigurationError{Field: "store", Reason: fmt.Sprintf("unknown kind %q", cfg.Store.Kind)}
	}

	t, err := teachability.New(cfg.Config, opts...)
	if err != nil {
		closeStore()
		closeEmb()
		return nil, nil, err
	}
	return t, func() {
		t.Close()
		closeStore()
		closeEmb()
	}, nil
}

// analyzerLogger returns log when verbosity shows analyzer decisions and a
// discarding logger otherwise.
func analyzerLogger(verbosity int, log *bolt.Logger) *bolt.Logger {
	if verbosity < teachability.VerbosityAnalyzer {
		return observe.Discard()
	}
	return log
}

func buildEmbedder(cfg embedderConfig) (memory.Embedder, func(), error) {
	noop := func() {}

	var emb memory.Embedder
	switch cfg.Kind {
	case "", "lexical":
		return lexical.New(cfg.Dimensions), noop, nil
	case "ollama":
		e, err := ollama.New(ollama.Config{
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
		})
		if err != nil {
			return nil, nil, err
		}
		emb = e
	case "openai":
		key := cfg.APIKey
		if key == "" {
			key = os.Getenv("OPENAI_API_KEY")
		}
		emb = openai.New(openai.Config{
			APIKey:     key,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
		})
	case "onnx":
		e, closeFn, err := newONNXEmbedder(cfg)
		if err != nil {
			return nil, nil, err
		}
		emb, noop = e, closeFn
	default:
		return nil, nil, &memory.ConfigurationError{Field: "embedder", Reason: fmt.Sprintf("unknown kind %q", cfg.Kind)}
	}

	if !cfg.Cache {
		return emb, noop, nil
	}
	c, err := cached.New(emb, cached.Config{})
	if err != nil {
		noop()
		return nil, nil, err
	}
	return c, func() {
		c.Close()
		noop()
	}, nil
}

func buildAnalyzer(cfg analyzerConfig, log *bolt.Logger) (memory.Analyzer, error) {
	switch cfg.Kind {
	case "", "rules":
		return analyzer.NewRules(), nil
	case "model", "hybrid":
		key := os.Getenv("ANTHROPIC_API_KEY")
		if key == "" {
			return nil, &memory.ConfigurationError{Field: "analyzer", Reason: "ANTHROPIC_API_KEY is required for the model analyzer"}
		}
		client := anthropic.NewClient(option.WithAPIKey(key))
		model := analyzer.NewModel(
			analyzer.NewAnthropicCompleter(&client, cfg.Model),
			analyzer.WithLogger(log),
		)
		if cfg.Kind == "model" {
			return model, nil
		}
		return analyzer.Chain{analyzer.NewRules(), model}, nil
	default:
		return nil, &memory.ConfigurationError{Field: "analyzer", Reason: fmt.Sprintf("unknown kind %q", cfg.Kind)}
	}
}
