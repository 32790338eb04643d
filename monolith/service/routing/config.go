package routing

import (
	"fmt"
	"io"

	"github.com/hashicorp/go-multierror"
	"github.com/juju/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/mycok/uRoute/adaptive"
	"github.com/mycok/uRoute/history"
	"github.com/mycok/uRoute/monolith/service/metrics"
	"github.com/mycok/uRoute/roadgraph/graph"
)

//go:generate mockgen -package mocks -destination mocks/mock.go github.com/mycok/uRoute/monolith/service/routing RouteEngine

// RouteEngine defines the set of engine methods used by the routing service.
type RouteEngine interface {
	// FindPath finds the minimum cost route between two nodes for the
	// specified vehicle class.
	FindPath(start, end graph.NodeID, vehicle adaptive.VehicleClass) (adaptive.Result, error)

	// RecordRouteFeedback folds the outcome of a trip into the edge history.
	RecordRouteFeedback(path []graph.NodeID, actualTime, expectedTime float64, success bool) error

	// Statistics returns the stats of the most recent search.
	Statistics() adaptive.Stats

	// EdgeHistorySummary summarizes the learned edge history.
	EdgeHistorySummary() history.Summary

	// Vehicle returns the vehicle class used when a request omits one.
	Vehicle() adaptive.VehicleClass
}

// Config defines configurations for the routing API service.
type Config struct {
	// Engine that serves route and feedback requests.
	Engine RouteEngine

	// Address to listen for incoming requests.
	ListenAddr string

	// A clock instance used for measuring request latency. If not specified,
	// the default wall-clock will be used instead.
	Clock clock.Clock

	// Metrics recorder. If not specified, metrics are recorded to a
	// private registry that is never exposed.
	Metrics *metrics.Recorder

	// The logger to use. If not defined an output-discarding logger will
	// be used instead.
	Logger *logrus.Entry
}

func (config *Config) validate() error {
	var err error

	if config.Engine == nil {
		err = multierror.Append(err, fmt.Errorf("route engine not provided"))
	}

	if config.ListenAddr == "" {
		err = multierror.Append(err, fmt.Errorf("listen address not provided"))
	}

	if config.Clock == nil {
		config.Clock = clock.WallClock
	}

	if config.Metrics == nil {
		config.Metrics = metrics.NewRecorder(prometheus.NewRegistry())
	}

	if config.Logger == nil {
		config.Logger = logrus.NewEntry(&logrus.Logger{Out: io.Discard})
	}

	return err
}
