// Command taskflow boots the scheduler, its HTTP control surface, and
// (optionally) runs as a one-shot process worker when invoked by the
// scheduler's own ProcessExecutor.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ashgrove-labs/taskflow/pkg/audit"
	"github.com/ashgrove-labs/taskflow/pkg/audit/memory"
	"github.com/ashgrove-labs/taskflow/pkg/audit/postgres"
	"github.com/ashgrove-labs/taskflow/pkg/config"
	"github.com/ashgrove-labs/taskflow/pkg/logging"
	"github.com/ashgrove-labs/taskflow/pkg/pipeline"
	"github.com/ashgrove-labs/taskflow/pkg/scheduler"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == scheduler.WorkerExecArg {
		runWorkerExec()
		return
	}

	configPath := flag.String("config", "", "path to a JSON config file")
	preset := flag.String("preset", "", "named config preset (default, quickstart, performance)")
	demoPipeline := flag.Bool("demo-pipeline", false, "run a sample lazy pipeline and print its result instead of starting the server")
	flag.Parse()

	if *demoPipeline {
		runPipelineDemo()
		return
	}

	cfg, err := loadConfig(*configPath, *preset)
	if err != nil {
		fmt.Fprintln(os.Stderr, "taskflow:", err)
		os.Exit(1)
	}

	if err := logging.InitFromConfig(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.File); err != nil {
		fmt.Fprintln(os.Stderr, "taskflow: init logging:", err)
		os.Exit(1)
	}
	logger := logging.GetGlobalLogger()

	sink, err := buildAuditSink(cfg.Audit)
	if err != nil {
		logger.Errorf("init audit sink: %v", err)
		os.Exit(1)
	}
	defer sink.Close()

	sched := scheduler.New(toSchedulerConfig(cfg.Scheduler), prometheus.DefaultRegisterer, logger, sink)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := sched.Start(ctx); err != nil {
		logger.Errorf("start scheduler: %v", err)
		os.Exit(1)
	}

	router := scheduler.NewRouter(sched)
	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	srv := &http.Server{Addr: addr, Handler: router}

	go func() {
		logger.Infof("listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)

	if err := sched.Stop(); err != nil {
		logger.Errorf("scheduler shutdown: %v", err)
	}
}

func loadConfig(configPath, preset string) (*config.Config, error) {
	if preset != "" {
		return config.GetPresetConfig(preset)
	}
	return config.LoadConfig(configPath)
}

func toSchedulerConfig(c config.SchedulerConfig) scheduler.Config {
	return scheduler.Config{
		QueueCapacity:     c.QueueCapacity,
		ProcessWorkers:    c.ProcessWorkers,
		ThreadWorkers:     c.ThreadWorkers,
		ThreadBuffer:      c.ThreadBuffer,
		DispatchInterval:  time.Duration(c.DispatchIntervalMS) * time.Millisecond,
		ShutdownGrace:     time.Duration(c.ShutdownGraceSeconds) * time.Second,
		DefaultMaxRetries: c.DefaultMaxRetries,
	}
}

func buildAuditSink(c config.AuditConfig) (audit.Sink, error) {
	switch c.Driver {
	case "postgres":
		if c.MigrationsPath != "" {
			if err := postgres.Migrate(c.DSN, c.MigrationsPath); err != nil {
				return nil, err
			}
		}
		return postgres.New(context.Background(), c.DSN)
	default:
		return memory.New(), nil
	}
}

// runPipelineDemo exercises the lazy pipeline engine end to end:
// range(1..=20).map(×2).filter(>10).skip(2).take(5).to_list(), the
// composable-streaming scenario the package's tests assert against.
func runPipelineDemo() {
	result := pipeline.New(pipeline.NewRange(1, 21, 1)).
		Map(func(x pipeline.Item) pipeline.Item { return x.(int64) * 2 }).
		Filter(func(x pipeline.Item) bool { return x.(int64) > 10 }).
		Skip(2).
		Take(5).
		ToList()
	fmt.Println(result)
}

// runWorkerExec is the subprocess entrypoint: read one invocation from
// stdin, execute it, write the JSON result to stdout.
func runWorkerExec() {
	stdin, err := io.ReadAll(os.Stdin)
	if err != nil {
		fmt.Fprintln(os.Stderr, "taskflow worker-exec: read stdin:", err)
		os.Exit(1)
	}
	os.Stdout.Write(scheduler.RunWorkerExec(stdin))
}
