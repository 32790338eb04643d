package adaptive

import (
	"fmt"
	"io"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/mycok/uRoute/history"
	"github.com/mycok/uRoute/roadgraph/graph"
)

// Config defines configurations for the adaptive routing engine.
type Config struct {
	// Road graph to search.
	Graph graph.Graph

	// Durable storage for the edge history. The history is loaded once
	// when the engine is created and saved after every feedback call.
	Persister history.Persister

	// Vehicle class used by FindOptimalPath. If not specified, VehicleBoda
	// will be used instead.
	Vehicle VehicleClass

	// Cost and ingestion constants. If not specified, DefaultPolicy will
	// be used instead.
	Policy *Policy

	// When set, a history snapshot that fails to load with
	// history.ErrHistoryLoad is discarded (and a warning logged) instead of
	// failing engine construction.
	DiscardCorruptHistory bool

	// The logger to use. If not defined an output-discarding logger will
	// be used instead.
	Logger *logrus.Entry
}

func (config *Config) validate() error {
	var err error

	if config.Graph == nil {
		err = multierror.Append(err, fmt.Errorf("road graph not provided"))
	}

	if config.Persister == nil {
		err = multierror.Append(err, fmt.Errorf("history persister not provided"))
	}

	if config.Vehicle == "" {
		config.Vehicle = VehicleBoda
	} else if !config.Vehicle.valid() {
		err = multierror.Append(err, fmt.Errorf("%w: %q", ErrUnknownVehicle, config.Vehicle))
	}

	if config.Policy == nil {
		p := DefaultPolicy()
		config.Policy = &p
	} else if pErr := config.Policy.validate(); pErr != nil {
		err = multierror.Append(err, pErr)
	}

	if config.Logger == nil {
		config.Logger = logrus.NewEntry(&logrus.Logger{Out: io.Discard})
	}

	return err
}
