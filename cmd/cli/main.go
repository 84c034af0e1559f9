package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopress/adapters/excel"
	"gopress/adapters/simulate"
	"gopress/domain/ensemble"
	"gopress/domain/network"
	"gopress/domain/run"
	"gopress/internal/config"
	"gopress/internal/container"
	"gopress/internal/report"
	"gopress/ports"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "gopress-cli",
		Short: "Press perturbation outcome tallies for signed digraph models",
	}

	rootCmd.AddCommand(
		newParseCmd(),
		newSimulateCmd(),
		newTallyCmd(),
		newExportCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newParseCmd() *cobra.Command {
	var limitation bool

	cmd := &cobra.Command{
		Use:   "parse [model-file]",
		Short: "Parse a model and print its nodes and edges",
		Long: `Parse a signed digraph from arrow notation (.txt) or an edge list (.csv, .xlsx).

Example: gopress-cli parse foodweb.txt --limitation`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			model, err := loadModel(args[0], limitation)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Nodes (%d): %s\n", len(model.Nodes()), strings.Join(model.Nodes(), ", "))
			fmt.Fprintf(out, "Edges (%d):\n", len(model.Edges))
			return network.FormatDigraph(out, model)
		},
	}

	cmd.Flags().BoolVar(&limitation, "limitation", false, "Add a negative self-loop to every node lacking one")
	return cmd
}

func newSimulateCmd() *cobra.Command {
	var (
		cfg        simulate.Config
		limitation bool
		output     string
		sel        selectionFlags
	)

	cmd := &cobra.Command{
		Use:   "simulate [model-file]",
		Short: "Simulate an ensemble of stable press matrices",
		Long: `Draw community matrices for a model, keep the stable ones and save their press
matrices as JSON. --press and --monitor add a validation criterion that every
accepted simulation must reproduce.

Example: gopress-cli simulate foodweb.txt --samples 1000 --press Kelp=+ --monitor Urchin=- -o ensemble.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sel.parsed(cmd)
			model, err := loadModel(args[0], limitation)
			if err != nil {
				return err
			}
			if sel.active() {
				v, err := sel.validator(model.Nodes())
				if err != nil {
					return err
				}
				cfg.Validators = append(cfg.Validators, v)
			}

			sim, err := simulate.NewSimulator(model, cfg)
			if err != nil {
				return err
			}
			ens, err := sim.Run(cmd.Context())
			if err != nil {
				return err
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", output, err)
			}
			defer f.Close()
			if err := ensemble.Save(f, ens); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Accepted %d of %d simulations, saved to %s\n", ens.Accepted, ens.Attempts, output)
			return nil
		},
	}

	defaults := simulate.DefaultConfig()
	cmd.Flags().IntVar(&cfg.Samples, "samples", defaults.Samples, "Accepted simulations to generate")
	cmd.Flags().IntVar(&cfg.MaxAttempts, "max-attempts", 0, "Cap on drawn matrices (0 means 1000 per sample)")
	cmd.Flags().Uint64Var(&cfg.Seed, "seed", defaults.Seed, "Random seed for deterministic simulation")
	cmd.Flags().IntVar(&cfg.Workers, "workers", defaults.Workers, "Parallel samplers")
	cmd.Flags().BoolVar(&limitation, "limitation", true, "Add a negative self-loop to every node lacking one")
	cmd.Flags().StringVarP(&output, "output", "o", "ensemble.json", "Ensemble output file")
	sel.register(cmd)
	return cmd
}

func newTallyCmd() *cobra.Command {
	var (
		sel      selectionFlags
		width    int
		markdown bool
	)

	cmd := &cobra.Command{
		Use:   "tally [ensemble-file]",
		Short: "Tally predicted outcomes of a press perturbation",
		Long: `Evaluate a press perturbation against a saved ensemble, keeping the simulations
consistent with the monitored outcomes, and print one stacked bar per node.

Example: gopress-cli tally ensemble.json --press Kelp=+ --monitor Urchin=- --epsilon 1e-5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sel.parsed(cmd)
			tr, err := runTally(cmd.Context(), args[0], sel)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if markdown {
				fmt.Fprint(out, report.Markdown(tr))
				return nil
			}
			fmt.Fprintf(out, "%d of %d simulations consistent (run %s)\n", tr.Consistent, tr.Total, tr.ID)
			return report.TextBarplot{Width: width}.RenderBarplot(out, tr.Table, tr.Nodes, ports.DefaultBarColors)
		},
	}

	sel.register(cmd)
	cmd.Flags().IntVar(&width, "width", 40, "Bar width in characters")
	cmd.Flags().BoolVar(&markdown, "markdown", false, "Print a markdown report instead of bars")
	return cmd
}

func newExportCmd() *cobra.Command {
	var (
		sel    selectionFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "export [ensemble-file]",
		Short: "Tally a press perturbation and export it as an Excel chart",
		Long: `Like tally, but writes the counts and a stacked bar chart to an .xlsx workbook.
Nothing is written when no simulation is consistent.

Example: gopress-cli export ensemble.json --press Kelp=+ -o tally.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sel.parsed(cmd)
			tr, err := runTally(cmd.Context(), args[0], sel)
			if err != nil {
				return err
			}
			if tr.Empty() {
				fmt.Fprintln(cmd.OutOrStdout(), "No simulation was consistent, nothing exported")
				return nil
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", output, err)
			}
			defer f.Close()
			title := fmt.Sprintf("Outcomes of %d consistent simulations", tr.Consistent)
			if err := excel.NewBarplotWorkbook(title).RenderBarplot(f, tr.Table, tr.Nodes, ports.DefaultBarColors); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported run %s to %s\n", tr.ID, output)
			return nil
		},
	}

	sel.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "tally.xlsx", "Workbook output file")
	return cmd
}

func loadModel(path string, limitation bool) (*network.Model, error) {
	model, err := container.LoadModel(path)
	if err != nil {
		return nil, err
	}
	if limitation {
		model = model.EnforceLimitation()
	}
	return model, nil
}

// runTally evaluates sel against the ensemble file. Runs are kept in
// Postgres when DATABASE_URL is set.
func runTally(ctx context.Context, ensembleFile string, sel selectionFlags) (*run.TallyRun, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	cfg.Paths.EnsembleFile = ensembleFile
	sel.epsilon = sel.tolerance(cfg.Tally.Epsilon)

	c, err := container.New(cfg)
	if err != nil {
		return nil, err
	}
	defer c.Shutdown(ctx)

	if cfg.Database.URL != "" {
		db, err := sqlx.Connect("postgres", cfg.Database.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := c.InitWithDatabase(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
	} else {
		c.InitInMemory()
	}
	if err := c.InitServices(); err != nil {
		return nil, err
	}

	ens, err := c.Source.Ensemble(ctx)
	if err != nil {
		return nil, err
	}
	selection, err := sel.selection(ens)
	if err != nil {
		return nil, err
	}
	return c.TallyService.Run(ctx, selection)
}
