// Package sampler runs a program many times, each on a fresh interpreter and
// engine, and collects a histogram of the classical outcomes.
package sampler

import (
	"cmp"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/rand/v2"
	"runtime"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"qroute/internal/engine"
	"qroute/internal/interp"
	"qroute/internal/qasm"
	"qroute/internal/topology"
	"qroute/internal/trace"
)

// Program is a parsed source ready to be sampled.
type Program struct {
	Name       string
	Source     string
	Statements []qasm.Statement
}

// Compile parses source once so every shot can share the statement tree.
func Compile(name, source string, opts ...qasm.Option) (*Program, error) {
	stmts, err := interp.Parse(source, opts...)
	if err != nil {
		return nil, err
	}
	return &Program{Name: name, Source: source, Statements: stmts}, nil
}

// Hash identifies the program text.
func (p *Program) Hash() string {
	sum := sha256.Sum256([]byte(p.Source))
	return hex.EncodeToString(sum[:])
}

// Progress reports how many shots have finished.
type Progress struct {
	Done  int
	Total int
}

// Options configures Run.
type Options struct {
	Topology *topology.Graph
	Shots    int
	Workers  int    // defaults to GOMAXPROCS
	Seed     uint64 // 0 picks a random base seed
	MaxDepth int

	// Logger receives run-level records. Shots are interpreted with a
	// discarding logger unless ShotLogger is set.
	Logger     log.Logger
	ShotLogger log.Logger

	// Progress, when set, receives one value per finished shot. Run never
	// closes it.
	Progress chan<- Progress
}

// Result is the histogram of one sampling run.
type Result struct {
	ID         uuid.UUID
	Program    string
	SourceHash string
	Topology   string
	Shots      int
	Seed       uint64
	Registers  []string       // classical registers in declaration order
	Counts     map[string]int // outcome key -> occurrences
	Mapping    []int          // virtual to hardware mapping after the first shot
	Swaps      int            // routing swaps inserted by the first shot
	CreatedAt  time.Time
	Elapsed    time.Duration
}

// Outcome is one histogram bin.
type Outcome struct {
	Key   string
	Count int
}

// Outcomes returns the bins ordered by descending count, ties by key.
func (r *Result) Outcomes() []Outcome {
	out := make([]Outcome, 0, len(r.Counts))
	for k, c := range r.Counts {
		out = append(out, Outcome{Key: k, Count: c})
	}
	slices.SortFunc(out, func(a, b Outcome) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return strings.Compare(a.Key, b.Key)
	})
	return out
}

// Probability returns the observed frequency of key.
func (r *Result) Probability(key string) float64 {
	if r.Shots == 0 {
		return 0
	}
	return float64(r.Counts[key]) / float64(r.Shots)
}

// OutcomeKey joins register values, each most significant bit first, in
// declaration order.
func OutcomeKey(regs []interp.RegisterValue) string {
	parts := make([]string, len(regs))
	for i, r := range regs {
		parts[i] = r.Bits()
	}
	return strings.Join(parts, " ")
}

// ShotSeed derives the seed of one shot from the base seed.
func ShotSeed(base uint64, shot int) uint64 {
	// splitmix64
	z := base + uint64(shot+1)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// Shot executes prog once with the given engine seed.
func Shot(prog *Program, topo *topology.Graph, seed uint64, opts ...interp.Option) (*interp.Interpreter, error) {
	eng, err := engine.New(topo, engine.WithSeed(seed))
	if err != nil {
		return nil, err
	}
	in := interp.NewFromStatements(prog.Statements, topo, eng, opts...)
	return in, in.Execute()
}

// Trace executes prog once like Shot while recording the physical circuit
// the engine receives.
func Trace(prog *Program, topo *topology.Graph, seed uint64, opts ...interp.Option) (*interp.Interpreter, *trace.Recorder, error) {
	eng, err := engine.New(topo, engine.WithSeed(seed))
	if err != nil {
		return nil, nil, err
	}
	rec := trace.NewRecorder(eng, topo.QubitCount())
	in := interp.NewFromStatements(prog.Statements, topo, rec, opts...)
	return in, rec, in.Execute()
}

// Run executes opts.Shots independent shots of prog on a bounded pool of
// workers. It stops at the first failing shot or when ctx is done.
func Run(ctx context.Context, prog *Program, opts Options) (*Result, error) {
	if opts.Topology == nil {
		return nil, fmt.Errorf("sampler: no topology")
	}
	if opts.Shots <= 0 {
		return nil, fmt.Errorf("sampler: shots must be positive, got %d", opts.Shots)
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	seed := opts.Seed
	if seed == 0 {
		seed = rand.Uint64() | 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Root()
	}
	shotLogger := opts.ShotLogger
	if shotLogger == nil {
		shotLogger = log.NewLogger(log.DiscardHandler())
	}
	interpOpts := []interp.Option{interp.WithLogger(shotLogger)}
	if opts.MaxDepth > 0 {
		interpOpts = append(interpOpts, interp.WithMaxDepth(opts.MaxDepth))
	}

	res := &Result{
		ID:         uuid.New(),
		Program:    prog.Name,
		SourceHash: prog.Hash(),
		Topology:   opts.Topology.Name(),
		Shots:      opts.Shots,
		Seed:       seed,
		Counts:     make(map[string]int),
		CreatedAt:  time.Now().UTC(),
	}
	logger.Info("Sampling started", "id", res.ID, "program", prog.Name, "topology", res.Topology, "shots", opts.Shots, "workers", workers, "seed", seed)

	var (
		mu   sync.Mutex
		done int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range opts.Shots {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			in, err := Shot(prog, opts.Topology, ShotSeed(seed, i), interpOpts...)
			if err != nil {
				return fmt.Errorf("shot %d: %w", i, err)
			}
			snap := in.Classical().Snapshot()

			mu.Lock()
			defer mu.Unlock()
			res.Counts[OutcomeKey(snap)]++
			if i == 0 {
				res.Mapping = in.Quantum().Mapping()
				res.Swaps = in.Swaps()
				res.Registers = in.Classical().Names()
			}
			done++
			if opts.Progress != nil {
				select {
				case opts.Progress <- Progress{Done: done, Total: opts.Shots}:
				case <-gctx.Done():
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res.Elapsed = time.Since(res.CreatedAt)
	logger.Info("Sampling finished", "id", res.ID, "outcomes", len(res.Counts), "swaps", res.Swaps, "elapsed", res.Elapsed)
	return res, nil
}
