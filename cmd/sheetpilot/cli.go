package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/sheetpilot/sheetpilot/internal/action"
	"github.com/sheetpilot/sheetpilot/internal/classify"
	"github.com/sheetpilot/sheetpilot/internal/config"
	"github.com/sheetpilot/sheetpilot/internal/errors"
	"github.com/sheetpilot/sheetpilot/internal/formula"
	"github.com/sheetpilot/sheetpilot/internal/llm"
	"github.com/sheetpilot/sheetpilot/internal/plan"
	"github.com/sheetpilot/sheetpilot/internal/rag"
	"github.com/sheetpilot/sheetpilot/internal/session"
	"github.com/sheetpilot/sheetpilot/internal/sheet"
	"github.com/sheetpilot/sheetpilot/internal/verify"
	"github.com/sheetpilot/sheetpilot/internal/web"
	"github.com/sheetpilot/sheetpilot/internal/xlsx"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(db *sql.DB, cfg *config.Config) *cli.App {
	app := &cli.App{
		Name:    "sheetpilot",
		Usage:   "Natural-language spreadsheet mutation planner",
		Version: Version,
		Commands: []*cli.Command{
			analyzeCmd(cfg),
			validateCmd(),
			fixCmd(cfg),
			lookupCmd(),
			planCmd(cfg),
			indexCmd(db, cfg),
			searchCmd(db, cfg),
			contextCmd(db, cfg),
			serveWebCmd(cfg),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// fileFlags are shared by every command that reads a workbook.
func fileFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Required: true, Usage: "Path to an .xlsx workbook"},
		&cli.StringFlag{Name: "sheet", Aliases: []string{"s"}, Usage: "Sheet name (defaults to the active sheet)"},
	}
}

// loadSheet reads one sheet from the workbook named by the --file flag.
func loadSheet(c *cli.Context) (sheet.CellMap, string, error) {
	return xlsx.LoadSheet(c.String("file"), c.String("sheet"))
}

// analyzeCmd creates the analyze command.
func analyzeCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "Analyze a sheet's columns, types and statistics",
		Flags: append(fileFlags(),
			&cli.BoolFlag{Name: "prompt", Usage: "Print the prompt-ready text form instead of JSON"},
		),
		Action: func(c *cli.Context) error {
			cells, name, err := loadSheet(c)
			if err != nil {
				return outputError(err)
			}

			meta := sheet.NewAnalyzer(cfg).Analyze(cells, name)
			if c.Bool("prompt") {
				fmt.Println(sheet.FormatForPrompt(meta))
				return nil
			}
			return outputJSON(meta)
		},
	}
}

// validateCmd creates the validate command.
func validateCmd() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Check a formula for syntax, arity and style problems",
		ArgsUsage: "<formula>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("formula argument is required"))
			}
			return outputJSON(formula.Validate(c.Args().First()))
		},
	}
}

// fixCmd creates the fix command.
func fixCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "fix",
		Usage:     "Rewrite unbounded ranges in a formula against a sheet's last row",
		ArgsUsage: "<formula>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "Workbook to take the last data row from"},
			&cli.StringFlag{Name: "sheet", Aliases: []string{"s"}, Usage: "Sheet name (defaults to the active sheet)"},
			&cli.IntFlag{Name: "last-row", Value: 100, Usage: "Last data row when no workbook is given"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("formula argument is required"))
			}

			lastRow := c.Int("last-row")
			if c.String("file") != "" {
				cells, name, err := loadSheet(c)
				if err != nil {
					return outputError(err)
				}
				lastRow = sheet.NewAnalyzer(cfg).Analyze(cells, name).LastRow
			}

			fixed, warnings := formula.AutoFix(c.Args().First(), lastRow)
			return outputJSON(map[string]any{
				"formula":  fixed,
				"changed":  fixed != c.Args().First(),
				"lastRow":  lastRow,
				"warnings": warnings,
			})
		},
	}
}

// lookupCmd creates the lookup command.
func lookupCmd() *cli.Command {
	return &cli.Command{
		Name:      "lookup",
		Usage:     "Recommend a formula pattern for an intent described in plain language",
		ArgsUsage: "<intent>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "sheet", Aliases: []string{"s"}, Value: "Sheet1", Usage: "Sheet name used in examples"},
			&cli.IntFlag{Name: "last-row", Value: 100, Usage: "Last data row used in examples"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("intent argument is required"))
			}
			rec := formula.ForIntent(c.Args().First(), c.String("sheet"), c.Int("last-row"))
			return outputJSON(rec)
		},
	}
}

// planCmd creates the plan command.
func planCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "plan",
		Usage:     "Turn a natural-language request into a queue of sheet actions",
		ArgsUsage: "<request>",
		Flags: append(fileFlags(),
			&cli.BoolFlag{Name: "verify", Usage: "Run the verifier over the planned actions"},
		),
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("request argument is required"))
			}

			cells, name, err := loadSheet(c)
			if err != nil {
				return outputError(err)
			}
			meta := sheet.NewAnalyzer(cfg).Analyze(cells, name)

			executor := plan.NewExecutor(classify.New(llm.NewOpenAIFromEnv(chatModel(cfg))), cfg)
			res := executor.Execute(c.Context, c.Args().First(), meta, cells)

			out := map[string]any{
				"response":    res.Response,
				"requestType": res.RequestType,
				"llmCalls":    res.LLMCalls,
			}
			if c.Bool("verify") && len(res.Actions) > 0 {
				report := verify.Verify(res.Actions, meta)
				out["verification"] = report
			}
			if len(res.Actions) > 0 {
				wire, err := action.MarshalAll(res.Actions)
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
				out["actions"] = json.RawMessage(wire)
			}
			if len(res.RawActions) > 0 {
				out["plan"] = res.RawActions
			}
			if res.Chart != nil {
				out["chart"] = res.Chart
			}
			return outputJSON(out)
		},
	}
}

// indexCmd creates the index command.
func indexCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "index",
		Usage: "Embed a sheet's rows and persist the vectors for retrieval",
		Flags: fileFlags(),
		Action: func(c *cli.Context) error {
			cells, name, err := loadSheet(c)
			if err != nil {
				return outputError(err)
			}

			store, err := openStore(db, cfg)
			if err != nil {
				return outputError(err)
			}
			status, err := store.Index(c.Context, cells, name)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(status)
		},
	}
}

// searchCmd creates the search command.
func searchCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Find the rows most similar to a query",
		ArgsUsage: "<query>",
		Flags: append(fileFlags(),
			&cli.IntFlag{Name: "k", Value: 0, Usage: "Number of rows to return (0 = configured default)"},
		),
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("query argument is required"))
			}

			cells, name, err := loadSheet(c)
			if err != nil {
				return outputError(err)
			}

			store, err := openStore(db, cfg)
			if err != nil {
				return outputError(err)
			}
			results, err := store.Search(c.Context, c.Args().First(), name, cells, c.Int("k"))
			if err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{"results": results, "count": len(results)})
		},
	}
}

// contextCmd creates the context command.
func contextCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "context",
		Usage:     "Build the data context block a query would receive",
		ArgsUsage: "<query>",
		Flags:     fileFlags(),
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("query argument is required"))
			}

			cells, name, err := loadSheet(c)
			if err != nil {
				return outputError(err)
			}

			store, err := openStore(db, cfg)
			if err != nil {
				return outputError(err)
			}
			block, rows, usedRAG := store.ContextForQuery(c.Context, c.Args().First(), cells, name)
			return outputJSON(map[string]any{
				"context": block,
				"rows":    rows,
				"usedRag": usedRAG,
			})
		},
	}
}

// serveWebCmd creates the serve-web command.
func serveWebCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "serve-web",
		Usage: "Serve the session inspection UI, optionally preloading a workbook",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "Workbook to open one session per sheet"},
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Address to bind"},
			&cli.IntFlag{Name: "port", Value: 8787, Usage: "Port to listen on"},
		},
		Action: func(c *cli.Context) error {
			sessions := session.NewManager()

			if path := c.String("file"); path != "" {
				book, err := xlsx.Load(path)
				if err != nil {
					return outputError(err)
				}
				analyzer := sheet.NewAnalyzer(cfg)
				for name, cells := range book {
					if _, err := sessions.Open(name, cells, analyzer); err != nil {
						return outputError(err)
					}
				}
			}

			srv := web.NewServer(sessions, cfg, Version, c.String("bind"), c.Int("port"))
			return web.Run(srv)
		},
	}
}

// Helper functions

// openStore wires a retrieval store against the configured embedding provider.
func openStore(db *sql.DB, cfg *config.Config) (*rag.Store, error) {
	embedder, err := rag.SelectEmbedder(cfg)
	if err != nil {
		return nil, err
	}
	return rag.NewStore(db, embedder, cfg), nil
}

// chatModel returns the configured classification model name.
func chatModel(cfg *config.Config) string {
	if cfg != nil && cfg.ChatModel != "" {
		return cfg.ChatModel
	}
	return config.DefaultConfig().ChatModel
}

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if perr, ok := err.(*errors.PilotError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", perr.Code, perr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}
