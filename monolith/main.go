package main

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/mycok/uRoute/adaptive"
	"github.com/mycok/uRoute/history"
	badgerstore "github.com/mycok/uRoute/history/store/badger"
	"github.com/mycok/uRoute/history/store/cdb"
	"github.com/mycok/uRoute/history/store/file"
	memhistory "github.com/mycok/uRoute/history/store/memory"
	"github.com/mycok/uRoute/monolith/service"
	"github.com/mycok/uRoute/monolith/service/metrics"
	"github.com/mycok/uRoute/monolith/service/routing"
	"github.com/mycok/uRoute/roadgraph/graph"
	"github.com/mycok/uRoute/roadgraph/store/memory"
)

var (
	appName = "uroute"
	appSHA  = "latest-app-git-sha" // Populated by the compiler at the linking stage.
	logger  *logrus.Entry
)

func main() {
	host, _ := os.Hostname()
	rootLogger := logrus.New()
	rootLogger.SetFormatter(new(logrus.JSONFormatter))
	logger = rootLogger.WithFields(logrus.Fields{
		"app":  appName,
		"sha":  appSHA,
		"host": host,
	})

	if err := configureApp().Run(os.Args); err != nil {
		logger.WithField("err", err).Error("shutting down due to an error")
		_ = os.Stderr.Sync()

		os.Exit(1)
	}
}

func configureApp() *cli.App {
	app := cli.NewApp()
	app.Name = appName
	app.Usage = "adaptive route planner for two and three-wheeler road networks"
	app.Version = appSHA
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:     "graph-file",
			EnvVars:  []string{"GRAPH_FILE"},
			Required: true,
			Usage:    "Path to the JSON road network document",
		},
		&cli.StringFlag{
			Name:    "history-uri",
			Value:   "in-memory://",
			EnvVars: []string{"HISTORY_URI"},
			Usage: "URI of the edge history store (supported URI's: in-memory://, file:///path/history.json, " +
				"badger:///path/dir, postgresql://user@host:26257/uroute?sslmode=disable)",
		},
		&cli.StringFlag{
			Name:    "vehicle",
			Value:   string(adaptive.VehicleBoda),
			EnvVars: []string{"VEHICLE"},
			Usage:   "Default vehicle class (boda or bajaji)",
		},
		&cli.StringFlag{
			Name:    "policy-file",
			EnvVars: []string{"POLICY_FILE"},
			Usage:   "Optional YAML file overriding the cost policy constants",
		},
		&cli.BoolFlag{
			Name:    "discard-corrupt-history",
			EnvVars: []string{"DISCARD_CORRUPT_HISTORY"},
			Usage:   "Start with an empty history if the stored snapshot cannot be decoded",
		},
		&cli.StringFlag{
			Name:    "log-level",
			Value:   "info",
			EnvVars: []string{"LOG_LEVEL"},
			Usage:   "Logging verbosity (debug, info, warn, error)",
		},
	}

	app.Before = func(appCtx *cli.Context) error {
		level, err := logrus.ParseLevel(appCtx.String("log-level"))
		if err != nil {
			return err
		}
		logger.Logger.SetLevel(level)

		return nil
	}

	app.Commands = []*cli.Command{
		{
			Name:  "serve",
			Usage: "Serve the routing HTTP API and prometheus metrics",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "listen-addr",
					Value:   ":8080",
					EnvVars: []string{"LISTEN_ADDR"},
					Usage:   "Address to listen on for routing API requests",
				},
				&cli.StringFlag{
					Name:    "metrics-listen-addr",
					Value:   ":9090",
					EnvVars: []string{"METRICS_LISTEN_ADDR"},
					Usage:   "Address to listen on for prometheus scrapes",
				},
			},
			Action: serve,
		},
		{
			Name:  "route",
			Usage: "Find the optimal route between two nodes",
			Flags: []cli.Flag{
				&cli.Int64Flag{Name: "from", Required: true, Usage: "Start node ID"},
				&cli.Int64Flag{Name: "to", Required: true, Usage: "Destination node ID"},
			},
			Action: findRoute,
		},
		{
			Name:  "feedback",
			Usage: "Record the outcome of a completed trip",
			Flags: []cli.Flag{
				&cli.Int64SliceFlag{Name: "path", Required: true, Usage: "Node IDs of the travelled route, in order"},
				&cli.Float64Flag{Name: "actual-time", Required: true, Usage: "Observed trip time"},
				&cli.Float64Flag{Name: "expected-time", Required: true, Usage: "Predicted trip time"},
				&cli.BoolFlag{Name: "failed", Usage: "Mark the trip as not completed"},
			},
			Action: recordFeedback,
		},
		{
			Name:   "summary",
			Usage:  "Print a summary of the learned edge history",
			Action: printSummary,
		},
	}

	return app
}

func serve(appCtx *cli.Context) error {
	engine, err := newEngine(appCtx)
	if err != nil {
		return err
	}
	defer func() { _ = engine.Close() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.NewRecorder(reg)
	recorder.SetEdgesTracked(engine.EdgeHistorySummary().TotalEdgesTracked)

	var svcGroup service.Group

	routingSvc, err := routing.New(routing.Config{
		Engine:     engine,
		ListenAddr: appCtx.String("listen-addr"),
		Metrics:    recorder,
		Logger:     logger.WithField("service", "routing"),
	})
	if err != nil {
		return err
	}
	svcGroup = append(svcGroup, routingSvc)

	metricsSvc, err := metrics.New(metrics.Config{
		Gatherer:   reg,
		ListenAddr: appCtx.String("metrics-listen-addr"),
		Logger:     logger.WithField("service", "metrics"),
	})
	if err != nil {
		return err
	}
	svcGroup = append(svcGroup, metricsSvc)

	ctx, cancelFn := context.WithCancel(appCtx.Context)
	defer cancelFn()

	// Cancelling the shared context signals all services to return.
	go func() {
		signalChan := make(chan os.Signal, 1)
		signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

		select {
		case s := <-signalChan:
			logger.WithField("signal", s.String()).Info("shutting down due to signal")
			cancelFn()
		case <-ctx.Done():
		}
	}()

	if err := svcGroup.Execute(ctx); err != nil {
		return err
	}

	logger.Info("shutdown complete")

	return nil
}

func findRoute(appCtx *cli.Context) error {
	engine, err := newEngine(appCtx)
	if err != nil {
		return err
	}
	defer func() { _ = engine.Close() }()

	res, err := engine.FindOptimalPath(graph.NodeID(appCtx.Int64("from")), graph.NodeID(appCtx.Int64("to")))
	if err != nil {
		return err
	}

	printRoute(appCtx.App.Writer, res)

	return nil
}

func printRoute(w io.Writer, res adaptive.Result) {
	if !res.Found() {
		_, _ = fmt.Fprintln(w, "no route found")
	} else {
		hops := make([]string, len(res.Path))
		for i, id := range res.Path {
			hops[i] = fmt.Sprint(id)
		}

		_, _ = fmt.Fprintf(w, "route: %s\n", strings.Join(hops, " -> "))
		_, _ = fmt.Fprintf(w, "cost:  %.2f\n", res.TotalCost)
	}

	_, _ = fmt.Fprintf(w, "nodes explored: %d, edges examined: %d, history influenced: %d\n",
		res.Stats.NodesExplored, res.Stats.EdgesExamined, res.Stats.HistoryInfluenced)
}

func recordFeedback(appCtx *cli.Context) error {
	engine, err := newEngine(appCtx)
	if err != nil {
		return err
	}
	defer func() { _ = engine.Close() }()

	ids := appCtx.Int64Slice("path")
	path := make([]graph.NodeID, len(ids))
	for i, id := range ids {
		path[i] = graph.NodeID(id)
	}

	if err := engine.RecordRouteFeedback(
		path, appCtx.Float64("actual-time"), appCtx.Float64("expected-time"), !appCtx.Bool("failed"),
	); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(appCtx.App.Writer, "recorded feedback for %d edges\n", max(len(path)-1, 0))

	return nil
}

func printSummary(appCtx *cli.Context) error {
	engine, err := newEngine(appCtx)
	if err != nil {
		return err
	}
	defer func() { _ = engine.Close() }()

	sum := engine.EdgeHistorySummary()
	w := appCtx.App.Writer

	_, _ = fmt.Fprintf(w, "edges tracked: %d\n", sum.TotalEdgesTracked)
	if sum.TotalEdgesTracked == 0 {
		return nil
	}

	_, _ = fmt.Fprintf(w, "average delay: %.4f\n", sum.AverageDelayAcrossAllEdges)
	for _, entry := range []struct {
		label string
		stat  *history.EdgeStat
	}{
		{"most reliable", sum.MostReliable},
		{"least reliable", sum.LeastReliable},
	} {
		_, _ = fmt.Fprintf(w, "%s: %s (uses: %d, avg delay: %.4f, failure rate: %.2f)\n",
			entry.label, entry.stat.Key, entry.stat.Record.UsageCount,
			entry.stat.Record.AverageDelay, entry.stat.Record.FailureRate)
	}

	return nil
}

func newEngine(appCtx *cli.Context) (*adaptive.Engine, error) {
	roadGraph, err := memory.LoadFile(appCtx.String("graph-file"))
	if err != nil {
		return nil, err
	}
	logger.WithFields(logrus.Fields{
		"nodes": len(roadGraph.NodeIDs()),
		"edges": roadGraph.NumEdges(),
	}).Info("loaded road network")

	vehicle, err := adaptive.ParseVehicleClass(appCtx.String("vehicle"))
	if err != nil {
		return nil, err
	}

	policy, err := getPolicy(appCtx.String("policy-file"))
	if err != nil {
		return nil, err
	}

	persister, err := getHistoryPersister(appCtx.String("history-uri"))
	if err != nil {
		return nil, err
	}

	engine, err := adaptive.NewEngine(adaptive.Config{
		Graph:                 roadGraph,
		Persister:             persister,
		Vehicle:               vehicle,
		Policy:                policy,
		DiscardCorruptHistory: appCtx.Bool("discard-corrupt-history"),
		Logger:                logger.WithField("component", "adaptive-engine"),
	})
	if err != nil {
		_ = persister.Close()

		return nil, err
	}

	return engine, nil
}

func getPolicy(path string) (*adaptive.Policy, error) {
	if path == "" {
		return nil, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open policy file: %w", err)
	}
	defer func() { _ = f.Close() }()

	policy, err := adaptive.LoadPolicy(f)
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"historical_weight": policy.HistoricalWeight,
		"decay_factor":      policy.DecayFactor,
		"min_samples":       policy.MinSamples,
	}).Info("loaded cost policy")

	return &policy, nil
}

func getHistoryPersister(historyURI string) (history.Persister, error) {
	if historyURI == "" {
		return nil, fmt.Errorf("history URI must be specified with --history-uri")
	}

	url, err := url.Parse(historyURI)
	if err != nil {
		return nil, fmt.Errorf("failed to parse history URI: %w", err)
	}

	// Relative paths such as file://./history.json end up split across the
	// host and path components.
	path := url.Host + url.Path

	switch url.Scheme {
	case "in-memory":
		logger.Info("using in-memory edge history store")

		return memhistory.NewInMemoryPersister(), nil
	case "file":
		logger.WithField("path", path).Info("using file edge history store")

		return file.NewFilePersister(path)
	case "badger":
		logger.WithField("path", path).Info("using badger edge history store")

		return badgerstore.NewBadgerPersister(badgerstore.Config{
			Path:       path,
			SyncWrites: true,
			Logger:     logger.WithField("component", "badger"),
		})
	case "postgresql":
		logger.Info("using CDB edge history store")

		return cdb.NewCockroachDBPersister(historyURI)
	default:
		return nil, fmt.Errorf("unsupported history URI scheme: %q", url.Scheme)
	}
}
