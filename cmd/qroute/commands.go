package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"qroute/internal/interp"
	"qroute/internal/logging"
	"qroute/internal/report"
	"qroute/internal/sampler"
	"qroute/internal/store"
	"qroute/internal/topology"
	"qroute/internal/trace"
	"qroute/internal/tui"
)

func (a *app) runCmd() *cobra.Command {
	var seed uint64
	cmd := &cobra.Command{
		Use:   "run FILE",
		Short: "Execute a program once and print its registers and qubit mapping",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, err := compileFile(args[0])
			if err != nil {
				return err
			}
			topo, err := a.graph()
			if err != nil {
				return err
			}
			in, err := sampler.Shot(prog, topo, a.seed(cmd, seed), a.interpOptions()...)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, headingStyle.Render("Classical registers"))
			for _, r := range in.Classical().Snapshot() {
				fmt.Fprintf(w, "  %s = %s (%d)\n", r.Name, r.Bits(), r.Value)
			}
			fmt.Fprintln(w, headingStyle.Render("Qubit mapping"))
			printMapping(w, in.Quantum())
			fmt.Fprintf(w, "%s %d\n", dimStyle.Render("routing swaps:"), in.Swaps())
			return nil
		},
	}
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Measurement seed (0 picks one)")
	return cmd
}

func printMapping(w io.Writer, q *interp.QuantumRegisters) {
	for _, name := range q.Names() {
		size, _ := q.Size(name)
		for i := range size {
			v, _ := q.VirtualIndex(name, i)
			fmt.Fprintf(w, "  %s[%d] -> %s\n", name, i, hwStyle.Render(fmt.Sprintf("hw[%d]", q.HardwareOf(v))))
		}
	}
}

func (a *app) sampleCmd() *cobra.Command {
	var (
		shots, workers int
		seed           uint64
		useTUI         bool
		storePath      string
		htmlPath       string
	)
	cmd := &cobra.Command{
		Use:   "sample FILE",
		Short: "Run a program for many shots and print the outcome histogram",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, err := compileFile(args[0])
			if err != nil {
				return err
			}
			topo, err := a.graph()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("shots") {
				a.cfg.Shots = shots
			}
			if flags.Changed("workers") {
				a.cfg.Workers = workers
			}
			if flags.Changed("store") {
				a.cfg.Store = storePath
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			opts := sampler.Options{
				Topology: topo,
				Shots:    a.cfg.Shots,
				Workers:  a.cfg.Workers,
				Seed:     a.seed(cmd, seed),
				MaxDepth: a.cfg.MaxDepth,
			}

			var res *sampler.Result
			if useTUI && logging.IsTerminal(os.Stdout) {
				in, rec, err := sampler.Trace(prog, topo, sampler.ShotSeed(opts.Seed, 0), a.interpOptions()...)
				if err != nil {
					return err
				}
				// records would tear the alternate screen
				opts.Logger = log.NewLogger(log.DiscardHandler())
				res, err = tui.Run(cmd.Context(), prog, opts, tui.Input{Circuit: rec, Quantum: in.Quantum()})
				if err != nil {
					return err
				}
			} else {
				res, err = sampler.Run(cmd.Context(), prog, opts)
				if err != nil {
					return err
				}
				printHistogram(cmd.OutOrStdout(), res)
			}

			if a.cfg.Store != "" {
				st, err := store.Open(a.cfg.Store)
				if err != nil {
					return err
				}
				defer st.Close()
				if err := st.SaveRun(cmd.Context(), res); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "saved run %s to %s\n", res.ID, a.cfg.Store)
			}
			if htmlPath != "" {
				if err := writeReport(htmlPath, res, topo); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote report to %s\n", htmlPath)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.IntVar(&shots, "shots", 0, "Number of shots (default from config)")
	f.IntVar(&workers, "workers", 0, "Concurrent shots (0 uses every CPU)")
	f.Uint64Var(&seed, "seed", 0, "Base seed (0 picks one)")
	f.BoolVar(&useTUI, "tui", false, "Show the interactive dashboard when stdout is a terminal")
	f.StringVar(&storePath, "store", "", "SQLite database to save the run in")
	f.StringVar(&htmlPath, "html", "", "Write an HTML report with charts to this file")
	return cmd
}

func writeReport(path string, res *sampler.Result, topo *topology.Graph) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := report.WriteHTML(f, res, topo); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printHistogram(w io.Writer, res *sampler.Result) {
	fmt.Fprintf(w, "%s %s on %s, %d shots, seed %d\n",
		headingStyle.Render("Run"), res.Program, res.Topology, res.Shots, res.Seed)
	fmt.Fprintf(w, "%s %s\n", dimStyle.Render("registers:"), strings.Join(res.Registers, " "))
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "OUTCOME\tCOUNT\tPROBABILITY")
	for _, o := range res.Outcomes() {
		fmt.Fprintf(tw, "%s\t%d\t%.4f\n", o.Key, o.Count, res.Probability(o.Key))
	}
	tw.Flush()
	fmt.Fprintf(w, "%s %d  %s %v\n", dimStyle.Render("routing swaps:"), res.Swaps, dimStyle.Render("elapsed:"), res.Elapsed)
}

func (a *app) compileCmd() *cobra.Command {
	var seed uint64
	cmd := &cobra.Command{
		Use:   "compile FILE",
		Short: "Print the routed physical circuit as OpenQASM",
		Long: `compile executes the program once and prints the operations the device
received on a single hardware register, routing swaps included. Measurement
outcomes steer conditionals, so --seed selects which branch is traced.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, err := compileFile(args[0])
			if err != nil {
				return err
			}
			topo, err := a.graph()
			if err != nil {
				return err
			}
			_, rec, err := sampler.Trace(prog, topo, a.seed(cmd, seed), a.interpOptions()...)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprint(w, rec.QASM())
			counts := rec.Counts()
			fmt.Fprintf(w, "// depth %d, %d ops: %d U, %d CX, %d swap, %d measure, %d reset\n",
				rec.Depth(), rec.Len(), counts[trace.OpU], counts[trace.OpCX], counts[trace.OpSwap],
				counts[trace.OpMeasure], counts[trace.OpReset])
			return nil
		},
	}
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Measurement seed (0 picks one)")
	return cmd
}

func (a *app) gatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gates FILE [NAME...]",
		Short: "Print how gates expand down to U and CX",
		Long: `gates prints the expansion tree of the named gates, or of every gate the
program calls when no name is given. Gates from included files count.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, err := compileFile(args[0])
			if err != nil {
				return err
			}
			tree, err := report.GateTree(prog.Statements, args[1:]...)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), tree.String())
			return nil
		},
	}
}

func (a *app) topologyCmd() *cobra.Command {
	var asYAML bool
	cmd := &cobra.Command{
		Use:   "topology",
		Short: "Describe the selected topology",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			topo, err := a.graph()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if asYAML {
				data, err := topo.Marshal()
				if err != nil {
					return err
				}
				_, err = w.Write(data)
				return err
			}
			fmt.Fprintf(w, "%s %s\n", headingStyle.Render("Topology"), topo.Name())
			fmt.Fprintf(w, "  qubits:    %d\n", topo.QubitCount())
			fmt.Fprintf(w, "  links:     %d\n", topo.LinkCount())
			fmt.Fprintf(w, "  connected: %t\n", topo.Connected())
			for q := range topo.QubitCount() {
				fmt.Fprintf(w, "  %s: %v\n", hwStyle.Render(fmt.Sprintf("hw[%d]", q)), topo.Neighbors(q))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "Print as a loadable topology file")
	return cmd
}

func (a *app) runsCmd() *cobra.Command {
	var storePath string
	openStore := func() (*store.Store, error) {
		if storePath == "" {
			storePath = a.cfg.Store
		}
		if storePath == "" {
			return nil, fmt.Errorf("no store configured; pass --store")
		}
		return store.Open(storePath)
	}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect sampling runs saved in a store",
	}
	cmd.PersistentFlags().StringVar(&storePath, "store", "", "SQLite database (default from config)")

	var limit int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the most recent runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			runs, err := st.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tPROGRAM\tTOPOLOGY\tSHOTS\tSWAPS\tCREATED")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n", r.ID, r.Program, r.Topology, r.Shots, r.Swaps, r.CreatedAt.Format("2006-01-02 15:04:05"))
			}
			return tw.Flush()
		},
	}
	listCmd.Flags().IntVar(&limit, "limit", 20, "Maximum runs to list")

	var htmlPath string
	showCmd := &cobra.Command{
		Use:   "show ID",
		Short: "Print the histogram of a saved run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return err
			}
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			res, err := st.LoadRun(cmd.Context(), id)
			if err != nil {
				return err
			}
			printHistogram(cmd.OutOrStdout(), res)
			if htmlPath == "" {
				return nil
			}
			// the placement chart is only meaningful on the device the run used
			var topo *topology.Graph
			if g, err := a.graph(); err == nil && g.Name() == res.Topology {
				topo = g
			}
			return writeReport(htmlPath, res, topo)
		},
	}
	showCmd.Flags().StringVar(&htmlPath, "html", "", "Write an HTML report with charts to this file")

	deleteCmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Remove a saved run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return err
			}
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			return st.DeleteRun(cmd.Context(), id)
		},
	}

	cmd.AddCommand(listCmd, showCmd, deleteCmd)
	return cmd
}
