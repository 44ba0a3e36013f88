package main

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/ethereum/go-ethereum/log"
	"github.com/spf13/cobra"

	"qroute/internal/config"
	"qroute/internal/interp"
	"qroute/internal/logging"
	"qroute/internal/qasm"
	"qroute/internal/sampler"
	"qroute/internal/topology"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff9e64"))
	hwStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#7dcfff"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#565f89"))
)

// app holds the state shared by every subcommand once flags are parsed.
type app struct {
	configPath string
	topoName   string
	qubits     int
	rows       int
	cols       int
	maxDepth   int
	logLevel   string

	cfg  *config.Config
	topo *topology.Graph
}

func newRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:   "qroute",
		Short: "OpenQASM 2.0 interpreter with swap routing on constrained topologies",
		Long: `qroute executes OpenQASM 2.0 programs on a simulated device whose
two-qubit gates only act on linked hardware qubits. Operands that are not
linked are brought together by swaps along a shortest path.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "Run configuration file (default ./"+config.DefaultFile+" if present)")
	pf.StringVar(&a.topoName, "topology", "", "Topology: ibmq53, chain, ring, grid, alltoall or a topology YAML file")
	pf.IntVar(&a.qubits, "qubits", 0, "Qubits of a chain, ring or alltoall topology")
	pf.IntVar(&a.rows, "rows", 0, "Rows of a grid topology")
	pf.IntVar(&a.cols, "cols", 0, "Columns of a grid topology")
	pf.IntVar(&a.maxDepth, "max-depth", 0, "Maximum gate expansion depth")
	pf.StringVar(&a.logLevel, "log-level", "", "Log level: trace, debug, info, warn, error, crit")

	rootCmd.AddCommand(
		a.runCmd(),
		a.sampleCmd(),
		a.compileCmd(),
		a.gatesCmd(),
		a.topologyCmd(),
		a.runsCmd(),
		versionCmd(),
	)
	return rootCmd
}

// setup loads the configuration, applies flag overrides and installs the
// logger.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("topology") {
		cfg.Topology = a.topoName
	}
	if flags.Changed("qubits") {
		cfg.Qubits = a.qubits
	}
	if flags.Changed("rows") {
		cfg.Rows = a.rows
	}
	if flags.Changed("cols") {
		cfg.Cols = a.cols
	}
	if flags.Changed("max-depth") {
		cfg.MaxDepth = a.maxDepth
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := logging.Setup(cmd.ErrOrStderr(), cfg.LogLevel); err != nil {
		return err
	}
	a.cfg = cfg
	log.Debug("Configuration loaded", "topology", cfg.Topology, "shots", cfg.Shots, "store", cfg.Store)
	return nil
}

func (a *app) graph() (*topology.Graph, error) {
	if a.topo != nil {
		return a.topo, nil
	}
	g, err := a.cfg.BuildTopology()
	if err != nil {
		return nil, err
	}
	a.topo = g
	return g, nil
}

func (a *app) interpOptions() []interp.Option {
	var opts []interp.Option
	if a.cfg.MaxDepth > 0 {
		opts = append(opts, interp.WithMaxDepth(a.cfg.MaxDepth))
	}
	return opts
}

// seed returns the configured base seed, or a fresh one when it is zero, so
// a preview shot and the sampled shots agree.
func (a *app) seed(cmd *cobra.Command, flag uint64) uint64 {
	seed := a.cfg.Seed
	if cmd.Flags().Changed("seed") {
		seed = flag
	}
	if seed == 0 {
		seed = rand.Uint64() | 1
	}
	return seed
}

func compileFile(path string) (*sampler.Program, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return sampler.Compile(filepath.Base(path), string(src), qasm.WithFile(path))
}

// describeError renders err for the terminal, with the source position and
// gate expansion chain of interpreter errors.
func describeError(err error) string {
	var ie *interp.Error
	if !errors.As(err, &ie) {
		return "error: " + err.Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "error[%s]", ie.Kind)
	if ie.Pos.Line > 0 {
		fmt.Fprintf(&sb, " at %s", ie.Pos)
	}
	fmt.Fprintf(&sb, ": %v", err)
	if gates := interp.GateTrace(err); len(gates) > 0 {
		fmt.Fprintf(&sb, "\n  expanding: %s", strings.Join(gates, " → "))
	}
	return sb.String()
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "qroute %s (commit %s, built %s)\n", Version, Commit, BuildTime)
		},
	}
}
