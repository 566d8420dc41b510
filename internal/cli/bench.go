package cli

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/andreygs/gocsp/internal/resilience"
	"github.com/andreygs/gocsp/internal/ui"
	"github.com/andreygs/gocsp/pkg/csp"
	"github.com/andreygs/gocsp/pkg/csp/message"
	"github.com/andreygs/gocsp/pkg/csp/processing"
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Round-trip sample messages through the built-in dispatcher",
	Long: `Encode sample structs, send them through the in-process dispatcher, decode
the replies and report throughput. Defaults come from the bench config
section. Replies carrying no_memory are resent up to bench.retries times.

Examples:
  gocsp bench
  gocsp bench --count 100000 --workers 8
  gocsp bench --flags allow_unmanaged_pointers,check_recursive_pointers
  gocsp bench --retries 0`,
	Args: cobra.NoArgs,
	RunE: runBench,
}

func init() {
	rootCmd.AddCommand(benchCmd)

	benchCmd.Flags().Int("count", 0, "Number of round trips (default: bench.count)")
	benchCmd.Flags().Int("workers", 0, "Concurrent workers (default: bench.workers)")
	benchCmd.Flags().String("flags", "", "Comma-separated data flags (default: serialization.data_flags)")
	benchCmd.Flags().Int("retries", 0, "Resends of a transiently failed exchange (default: bench.retries)")
}

// benchParams describes one benchmark run.
type benchParams struct {
	Count      int
	Workers    int
	Builder    *message.DataMessageBuilder
	Dispatcher *message.Dispatcher
	Context    []processing.ContextOption
	Retry      resilience.RetryPolicy
}

type benchResult struct {
	Count   int
	Bytes   int64
	Resends int64
	Elapsed time.Duration
}

func (r benchResult) perSecond() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Count) / r.Elapsed.Seconds()
}

func runBench(cmd *cobra.Command, _ []string) error {
	cfg := deps.Config.Get()

	count, workers := cfg.Bench.Count, cfg.Bench.Workers
	if cmd.Flags().Changed("count") {
		count = getIntFlag(cmd, "count")
	}
	if cmd.Flags().Changed("workers") {
		workers = getIntFlag(cmd, "workers")
	}
	if count <= 0 || workers <= 0 {
		return fmt.Errorf("count and workers must be positive, got %d and %d", count, workers)
	}
	retries := cfg.Bench.Retries
	if cmd.Flags().Changed("retries") {
		retries = getIntFlag(cmd, "retries")
	}
	if retries < 0 {
		return fmt.Errorf("retries must not be negative, got %d", retries)
	}

	opts, err := cfg.Serialization.BuilderOptions()
	if err != nil {
		return err
	}
	if names := getStringFlag(cmd, "flags"); names != "" {
		flags, err := parseMask(strings.Split(names, ","), csp.ParseDataFlags)
		if err != nil {
			return err
		}
		opts = append(opts, message.WithDataFlags(flags))
	}

	p := benchParams{
		Count:      count,
		Workers:    workers,
		Builder:    message.NewDataMessageBuilder(append(opts, message.WithRegistry(deps.Registry))...),
		Dispatcher: deps.Dispatcher,
		Context:    deps.ContextOptions,
		Retry:      resilience.RetryPolicy{MaxRetries: retries, UseJitter: true},
	}

	bar := ui.NewProgress(deps.Theme, deps.Headless, cmd.ErrOrStderr()).Start("round trips", count)
	res, err := runBenchLoop(commandContext(cmd), p, bar.Increment)
	bar.Done()
	if err != nil {
		return fmt.Errorf("bench: %w", err)
	}
	deps.Logger.Debug("bench finished", "count", res.Count, "workers", workers, "elapsed", res.Elapsed)

	rows := []ui.KV{
		{Key: "Round trips", Value: humanize.Comma(int64(res.Count))},
		{Key: "Workers", Value: fmt.Sprintf("%d", workers)},
		{Key: "Resends", Value: humanize.Comma(res.Resends)},
		{Key: "Elapsed", Value: res.Elapsed.Round(time.Microsecond).String()},
		{Key: "Throughput", Value: fmt.Sprintf("%s msg/s", humanize.Commaf(float64(int64(res.perSecond()))))},
		{Key: "Traffic", Value: humanize.Bytes(uint64(res.Bytes))},
		{Key: "Per message", Value: humanize.Bytes(uint64(res.Bytes / int64(2*res.Count)))},
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), ui.Card(deps.Theme, "Benchmark", ui.KeyValues(deps.Theme, rows)))
	return nil
}

// runBenchLoop performs p.Count round trips on p.Workers goroutines. Each
// completed round trip is reported to progress. The first failure cancels
// the remaining work.
func runBenchLoop(ctx context.Context, p benchParams, progress func(int)) (benchResult, error) {
	var (
		next    atomic.Int64
		bytes   atomic.Int64
		resends atomic.Int64
	)
	g, ctx := errgroup.WithContext(ctx)
	start := time.Now()

	for range p.Workers {
		g.Go(func() error {
			for {
				i := int(next.Add(1) - 1)
				if i >= p.Count {
					return nil
				}
				n, sent, err := roundTrip(ctx, p, i)
				resends.Add(int64(sent - 1))
				if err != nil {
					return err
				}
				bytes.Add(int64(n))
				progress(1)
			}
		})
	}

	err := g.Wait()
	return benchResult{Count: p.Count, Bytes: bytes.Load(), Resends: resends.Load(), Elapsed: time.Since(start)}, err
}

// roundTrip sends sample i through the dispatcher and checks the echo. The
// exchange is repeated under p.Retry while the reply reports a transient
// status. It returns the octets moved in both directions and the number of
// requests sent.
func roundTrip(ctx context.Context, p benchParams, i int) (int, int, error) {
	in := newSample(i)
	req, err := p.Builder.Serialize(in)
	if err != nil {
		return 0, 1, fmt.Errorf("encode sample %d: %w", i, err)
	}

	var (
		out  Sample
		n    int
		sent int
	)
	err = resilience.Retry(ctx, p.Retry, func() error {
		sent++
		resp, err := p.Dispatcher.Handle(ctx, req)
		if err != nil {
			return err
		}
		n += len(req) + len(resp)
		out = Sample{}
		if err := message.Unmarshal(resp, &out, p.Context...); err != nil {
			return fmt.Errorf("decode reply %d: %w", i, err)
		}
		return nil
	})
	if err != nil {
		return n, max(sent, 1), err
	}
	if out.ID != in.ID+1 || out.Name != in.Name || out.Attrs["index"] != in.Attrs["index"] {
		return n, sent, csp.Errorf(csp.DataCorrupted, "sample %d came back as %d/%q", i, out.ID, out.Name)
	}
	return n, sent, nil
}
