package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/loupedev/loupe/internal/config"
	"github.com/loupedev/loupe/internal/export"
	"github.com/loupedev/loupe/internal/logger"
	"github.com/loupedev/loupe/internal/remote"
	"github.com/loupedev/loupe/internal/session"
	"github.com/loupedev/loupe/internal/source"
	"github.com/loupedev/loupe/internal/store"
)

// Output modes for Run.
const (
	ModeLines     = "lines"
	ModeTemplates = "templates"
	ModeFields    = "fields"
	ModeAnomaly   = "anomaly"
)

const livePrintInterval = 200 * time.Millisecond

// Options configure one Loupe run.
type Options struct {
	ConfigPath string
	Paths      []string // input files; empty reads stdin
	Follow     bool     // keep watching a single file for appended lines
	Remote     string   // poll an HTTP log API instead of local files
	Baseline   string   // reference file for anomaly comparison
	Parser     string   // force a named parser instead of auto-detection
	Mode       string   // lines | templates | fields | anomaly
	Session    string   // named filter session to load
	ExportPath string   // write the filtered view to this file instead of stdout
	LogLevel   string
}

// Run ingests the requested sources, applies any saved filter session, and
// writes the selected analysis to stdout. It returns when the input is
// exhausted or the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.Parser != "" {
		cfg.Parser = opts.Parser
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}
	if err := logger.Init(cfg.LogLevel, os.Stderr); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	log := logger.WithComponent("app")

	core := New(cfg, log)

	if opts.Session != "" {
		sessions, err := session.NewStore("")
		if err != nil {
			return err
		}
		rules, err := sessions.Load(opts.Session)
		if err != nil {
			return err
		}
		core.Filters().SetRules(rules)
		for _, r := range core.Filters().FailedRules() {
			log.Warn().Err(r.Err()).Msg("filter rule disabled")
		}
	}

	if opts.Baseline != "" {
		if err := loadBaseline(ctx, core, cfg, opts.Baseline); err != nil {
			return err
		}
	}

	mode := opts.Mode
	if mode == "" {
		mode = ModeLines
	}
	if mode == ModeAnomaly && opts.Baseline == "" {
		return fmt.Errorf("anomaly mode needs a baseline file")
	}

	live := opts.Follow || opts.Remote != ""
	if err := ingest(ctx, core, opts); err != nil {
		return err
	}

	core.Rescore()

	if opts.ExportPath != "" {
		return export.ToFile(opts.ExportPath, core.Snapshot(), core.ApplyFilters())
	}
	if live && mode == ModeLines {
		// Already streamed while following.
		return nil
	}
	return printResult(core, mode)
}

// ingest drains the requested sources into the core's store. Follow and
// remote modes additionally print passing lines live until cancellation.
func ingest(ctx context.Context, core *Core, opts Options) error {
	reader := core.Reader()

	switch {
	case opts.Remote != "":
		client, err := remote.NewClient(opts.Remote)
		if err != nil {
			return err
		}
		src := &remote.Source{Client: client}
		return followLive(ctx, core, func() error {
			return reader.Follow(ctx, src)
		})

	case opts.Follow:
		if len(opts.Paths) != 1 {
			return fmt.Errorf("follow mode takes exactly one file")
		}
		if err := reader.TailFile(ctx, opts.Paths[0]); err != nil {
			return err
		}
		return followLive(ctx, core, func() error {
			reader.Wait()
			return nil
		})

	case len(opts.Paths) == 0:
		src := &source.StdinSource{MaxLineBytes: core.cfg.MaxLineBytes}
		return reader.Follow(ctx, src)

	default:
		if err := reader.LoadFiles(ctx, opts.Paths); err != nil {
			return err
		}
		reader.Wait()
		return nil
	}
}

// followLive prints lines passing the active filters as they arrive, while
// the source function runs. It returns once the source ends or the context
// is cancelled.
func followLive(ctx context.Context, core *Core, run func() error) error {
	done := make(chan error, 1)
	go func() { done <- run() }()

	ticker := time.NewTicker(livePrintInterval)
	defer ticker.Stop()

	printed := 0
	flush := func() {
		snapshot := core.Snapshot()
		for ; printed < len(snapshot); printed++ {
			if core.CheckLine(snapshot[printed]) {
				fmt.Println(snapshot[printed].Raw)
			}
		}
	}

	for {
		select {
		case err := <-done:
			flush()
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		case <-ctx.Done():
			core.Reader().Stop()
			<-done
			flush()
			return nil
		case <-ticker.C:
			flush()
		}
	}
}

// loadBaseline drains the reference file through its own reader so its
// detection and parsing match the main ingestion path.
func loadBaseline(ctx context.Context, core *Core, cfg config.Config, path string) error {
	st := &store.Store{}
	reader := source.NewReader(st, core.registry, cfg, core.log)
	if err := reader.LoadFiles(ctx, []string{path}); err != nil {
		return fmt.Errorf("load baseline: %w", err)
	}
	reader.Wait()
	core.SetBaseline(st.Snapshot())
	return nil
}

func printResult(core *Core, mode string) error {
	switch mode {
	case ModeTemplates:
		for _, group := range core.Templates() {
			level := group.Level.String()
			if level == "" {
				level = "-"
			}
			fmt.Printf("%6d  %-5s  %s\n", group.Count, level, group.Display)
		}
		return nil

	case ModeFields:
		for _, fg := range core.Fields() {
			fmt.Printf("%6d  %s\n", fg.Count, fg.Display)
		}
		return nil

	case ModeAnomaly:
		result := core.AnomalyResult()
		if result == nil {
			return fmt.Errorf("no anomaly result")
		}
		fmt.Printf("anomalous lines: %d\n", result.AnomalyCount)
		for _, group := range result.Novel {
			fmt.Printf("novel   %6d  %s\n", group.Count, group.Display)
		}
		for _, spike := range result.Spikes {
			fmt.Printf("spike   %6d  (baseline %d)  %s\n",
				spike.CurrentCount, spike.BaselineCount, spike.Group.Display)
		}
		for _, tpl := range result.Disappeared {
			fmt.Printf("gone            %s\n", tpl)
		}
		return nil

	default:
		return export.Write(os.Stdout, core.Snapshot(), core.ApplyFilters())
	}
}
