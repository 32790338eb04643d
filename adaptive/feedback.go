package adaptive

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/mycok/uRoute/history"
	"github.com/mycok/uRoute/roadgraph/graph"
)

// RecordRouteFeedback folds the outcome of a completed (or abandoned) trip
// along path into the history of every edge on it and persists the whole
// history.
//
// The trip delay is (actualTime - expectedTime) / expectedTime clamped to be
// non-negative: early arrivals never earn an edge a bonus. A non-positive
// expectedTime yields zero delay. Non-finite times, or times whose delay
// overflows, are rejected with ErrInvalidFeedback before any state changes.
//
// If persisting fails the learned state is kept in memory and the returned
// error wraps history.ErrHistoryPersist.
func (e *Engine) RecordRouteFeedback(path []graph.NodeID, actualTime, expectedTime float64, success bool) error {
	if !finite(actualTime) || !finite(expectedTime) {
		return fmt.Errorf("%w: trip times must be finite", ErrInvalidFeedback)
	}

	delay := tripDelay(actualTime, expectedTime)
	if !finite(delay) {
		return fmt.Errorf("%w: trip delay overflows", ErrInvalidFeedback)
	}

	e.feedbackMu.Lock()
	defer e.feedbackMu.Unlock()

	var updated int
	e.store.Update(func(w history.Writer) {
		for i := 0; i+1 < len(path); i++ {
			w.Observe(history.EdgeKey{From: path[i], To: path[i+1]}, delay, success, e.policy.DecayFactor)
			updated++
		}
	})

	logger := e.config.Logger.WithFields(logrus.Fields{
		"edges_updated": updated,
		"delay":         delay,
		"success":       success,
	})

	if err := e.config.Persister.Save(e.store.Records()); err != nil {
		logger.WithField("err", err).Error("failed to persist edge history")

		return fmt.Errorf("record route feedback: %w", err)
	}

	logger.Debug("recorded route feedback")

	return nil
}

func tripDelay(actualTime, expectedTime float64) float64 {
	if expectedTime <= 0 {
		return 0
	}

	return math.Max(0, (actualTime-expectedTime)/expectedTime)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
