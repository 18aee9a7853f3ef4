package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/becomeliminal/teachable-go/core"
	"github.com/becomeliminal/teachable-go/memory"
	"github.com/becomeliminal/teachable-go/observe"
	"github.com/becomeliminal/teachable-go/teachability"
)

type rootOptions struct {
	configPath string
	dir        string
	threshold  float64
	scale      string
	verbosity  int
	embedder   string
	index      bool
	logFormat  string
	jsonOut    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:          "teachctl",
		Short:        "Inspect and maintain a teachable agent's memos",
		Long:         "teachctl lists, recalls, seeds and resets the memos a teachable agent has learned.",
		SilenceUsage: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "YAML config file")
	pf.StringVarP(&opts.dir, "dir", "d", teachability.DefaultDir, "Memo directory")
	pf.Float64VarP(&opts.threshold, "threshold", "t", teachability.DefaultRecallThreshold, "Recall threshold")
	pf.StringVar(&opts.scale, "scale", "similarity", "Threshold scale: similarity or distance")
	pf.IntVarP(&opts.verbosity, "verbosity", "v", 0, "Diagnostic verbosity 0..3")
	pf.StringVarP(&opts.embedder, "embedder", "e", "lexical", "Embedder: lexical, ollama, openai or onnx")
	pf.BoolVar(&opts.index, "index", false, "Use the chromem-go index")
	pf.StringVar(&opts.logFormat, "log-format", "console", "Log format: console or json")
	pf.BoolVar(&opts.jsonOut, "json", false, "Output as JSON")

	cmd.AddCommand(
		listCmd(opts),
		recallCmd(opts),
		teachCmd(opts),
		resetCmd(opts),
		analyzeCmd(opts),
	)
	return cmd
}

// withCapability loads configuration, opens the capability and runs fn.
func withCapability(cmd *cobra.Command, opts *rootOptions, reset bool, fn func(*teachability.Teachability) error) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	cfg.ResetDB = cfg.ResetDB || reset

	log := observe.NewLogger(cmd.ErrOrStderr(), cfg.LogFormat)
	t, cleanup, err := openCapability(cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()
	return fn(t)
}

func listCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all memos in insertion order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCapability(cmd, opts, false, func(t *teachability.Teachability) error {
				memos, err := t.ListMemos(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if opts.jsonOut {
					return writeJSON(out, memoViews(memos))
				}
				if len(memos) == 0 {
					fmt.Fprintln(out, "No memos.")
					return nil
				}
				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tCREATED\tTOPIC\tCONTENT")
				for _, m := range memos {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", m.ID, m.CreatedAt.Format("2006-01-02 15:04"), m.Topic, m.Content)
				}
				return w.Flush()
			})
		},
	}
}

func recallCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "recall [query]",
		Short: "Show the memos that would be recalled for a message",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return withCapability(cmd, opts, false, func(t *teachability.Teachability) error {
				results, err := t.Recall(cmd.Context(), query)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if opts.jsonOut {
					views := make([]scoredView, len(results))
					for i, r := range results {
						views[i] = scoredView{memoView: toView(r.Memo), Score: r.Score}
					}
					return writeJSON(out, views)
				}
				if len(results) == 0 {
					fmt.Fprintln(out, "No memos recalled.")
					return nil
				}
				for _, r := range results {
					fmt.Fprintf(out, "%.3f  %s: %s\n", r.Score, r.Memo.Topic, r.Memo.Content)
				}
				return nil
			})
		},
	}
}

func teachCmd(opts *rootOptions) *cobra.Command {
	var topic, content string
	cmd := &cobra.Command{
		Use:   "teach",
		Short: "Store a memo directly",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCapability(cmd, opts, false, func(t *teachability.Teachability) error {
				id, err := t.Teach(cmd.Context(), memory.Candidate{Topic: topic, Content: content})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Stored memo %s\n", id)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&topic, "topic", "", "Memo topic")
	cmd.Flags().StringVar(&content, "content", "", "Memo content")
	cmd.MarkFlagRequired("topic")
	cmd.MarkFlagRequired("content")
	return cmd
}

func resetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Delete every memo",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCapability(cmd, opts, true, func(t *teachability.Teachability) error {
				fmt.Fprintln(cmd.OutOrStdout(), "Memo store reset.")
				return nil
			})
		},
	}
}

func analyzeCmd(opts *rootOptions) *cobra.Command {
	var store bool
	cmd := &cobra.Command{
		Use:   "analyze [user message] [reply]",
		Short: "Run the analyzer on one exchange",
		Long:  "Run the analyzer on one exchange and print the memo it would store. With --store the memo is kept.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			an, err := buildAnalyzer(cfg.Analyzer, observe.NewLogger(cmd.ErrOrStderr(), cfg.LogFormat))
			if err != nil {
				return err
			}

			reply := ""
			if len(args) == 2 {
				reply = args[1]
			}
			ex := core.NewExchange(args[0], reply)
			candidate, ok := an.Analyze(cmd.Context(), ex)
			out := cmd.OutOrStdout()
			if !ok {
				fmt.Fprintln(out, "Nothing to remember.")
				return nil
			}
			if opts.jsonOut {
				if err := writeJSON(out, candidate); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(out, "%s: %s\n", candidate.Topic, candidate.Content)
			}
			if !store {
				return nil
			}
			return withCapability(cmd, opts, false, func(t *teachability.Teachability) error {
				id, err := t.Teach(cmd.Context(), candidate)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Stored memo %s\n", id)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&store, "store", false, "Store the memo")
	return cmd
}

type memoView struct {
	ID        string `json:"id"`
	Topic     string `json:"topic"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

type scoredView struct {
	memoView
	Score float64 `json:"score"`
}

func toView(m memory.Memo) memoView {
	return memoView{ID: m.ID, Topic: m.Topic, Content: m.Content, CreatedAt: m.CreatedAt.Format(time.RFC3339)}
}

func memoViews(memos []memory.Memo) []memoView {
	views := make([]memoView, len(memos))
	for i, m := range memos {
		views[i] = toView(m)
	}
	return views
}

func writeJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
