package routing

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mycok/uRoute/adaptive"
	"github.com/mycok/uRoute/history"
	"github.com/mycok/uRoute/monolith/service/metrics"
	"github.com/mycok/uRoute/roadgraph/graph"
)

const (
	healthEndpoint   = "/health"
	routeEndpoint    = "/api/v1/route"
	feedbackEndpoint = "/api/v1/feedback"
	statsEndpoint    = "/api/v1/stats"
	summaryEndpoint  = "/api/v1/history/summary"
)

// Service exposes the adaptive routing engine over HTTP. It satisfies the
// service.Service interface.
type Service struct {
	config Config
	router *gin.Engine
}

// New creates and returns a fully configured routing service instance.
func New(config Config) (*Service, error) {
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("routing service: config validation failed: %w", err)
	}

	svc := &Service{
		config: config,
		router: gin.New(),
	}

	svc.router.Use(gin.Recovery(), svc.logRequests)

	svc.router.GET(healthEndpoint, svc.health)
	svc.router.GET(routeEndpoint, svc.findRoute)
	svc.router.POST(feedbackEndpoint, svc.recordFeedback)
	svc.router.GET(statsEndpoint, svc.statistics)
	svc.router.GET(summaryEndpoint, svc.historySummary)

	return svc, nil
}

// Name returns the name of the service.
func (svc *Service) Name() string { return "routing" }

// Run executes the service and blocks until the context gets cancelled
// or an error occurs.
func (svc *Service) Run(ctx context.Context) error {
	l, err := net.Listen("tcp", svc.config.ListenAddr)
	if err != nil {
		return err
	}
	defer func() { _ = l.Close() }()

	srv := &http.Server{
		Addr:    svc.config.ListenAddr,
		Handler: svc.router,
	}

	go func() {
		<-ctx.Done()

		_ = srv.Close()
	}()

	svc.config.Logger.WithField("addr", svc.config.ListenAddr).Info("started service")

	if err = srv.Serve(l); err == http.ErrServerClosed {
		// Server closed gracefully.
		err = nil
	}

	return err
}

func (svc *Service) logRequests(c *gin.Context) {
	startedAt := svc.config.Clock.Now()
	c.Next()

	svc.config.Logger.WithFields(logrus.Fields{
		"method":  c.Request.Method,
		"path":    c.FullPath(),
		"status":  c.Writer.Status(),
		"latency": svc.config.Clock.Now().Sub(startedAt),
	}).Debug("served request")
}

func (svc *Service) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (svc *Service) findRoute(c *gin.Context) {
	from, err := strconv.ParseInt(c.Query("from"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid or missing 'from' node"})

		return
	}

	to, err := strconv.ParseInt(c.Query("to"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid or missing 'to' node"})

		return
	}

	var vehicle adaptive.VehicleClass
	if name := c.Query("vehicle"); name == "" {
		vehicle = svc.config.Engine.Vehicle()
	} else if vehicle, err = adaptive.ParseVehicleClass(name); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})

		return
	}

	startedAt := svc.config.Clock.Now()
	res, err := svc.config.Engine.FindPath(graph.NodeID(from), graph.NodeID(to), vehicle)
	elapsed := svc.config.Clock.Now().Sub(startedAt)

	if err != nil {
		svc.config.Metrics.ObserveSearch(string(vehicle), metrics.OutcomeError, elapsed, 0, 0)

		switch {
		case errors.Is(err, adaptive.ErrInvalidNode):
			c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
		case errors.Is(err, adaptive.ErrUnknownVehicle):
			c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		default:
			svc.config.Logger.WithField("err", err).Error("route search failed")
			c.JSON(http.StatusInternalServerError, errorResponse{Error: "route search failed"})
		}

		return
	}

	outcome := metrics.OutcomeNoRoute
	if res.Found() {
		outcome = metrics.OutcomeFound
	}
	svc.config.Metrics.ObserveSearch(string(vehicle), outcome, elapsed, res.Stats.NodesExplored, res.Stats.HistoryInfluenced)

	c.JSON(http.StatusOK, newRouteResponse(res, vehicle))
}

func (svc *Service) recordFeedback(c *gin.Context) {
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		svc.config.Metrics.ObserveFeedback(metrics.OutcomeRejected)
		c.JSON(http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("malformed feedback: %v", err)})

		return
	}

	tripID := uuid.New()
	logger := svc.config.Logger.WithField("trip_id", tripID)

	err := svc.config.Engine.RecordRouteFeedback(req.Path, *req.ActualTime, *req.ExpectedTime, *req.Success)
	switch {
	case errors.Is(err, adaptive.ErrInvalidFeedback):
		svc.config.Metrics.ObserveFeedback(metrics.OutcomeRejected)
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})

		return
	case errors.Is(err, history.ErrHistoryPersist):
		svc.config.Metrics.ObserveFeedback(metrics.OutcomePersistFailed)
		logger.WithField("err", err).Error("feedback applied but not persisted")
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "feedback applied but could not be persisted"})

		return
	case err != nil:
		svc.config.Metrics.ObserveFeedback(metrics.OutcomePersistFailed)
		logger.WithField("err", err).Error("could not record feedback")
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "could not record feedback"})

		return
	}

	svc.config.Metrics.ObserveFeedback(metrics.OutcomeRecorded)
	svc.config.Metrics.SetEdgesTracked(svc.config.Engine.EdgeHistorySummary().TotalEdgesTracked)

	edgesUpdated := max(len(req.Path)-1, 0)
	logger.WithFields(logrus.Fields{
		"edges_updated": edgesUpdated,
		"success":       *req.Success,
	}).Info("recorded route feedback")

	c.JSON(http.StatusAccepted, feedbackResponse{TripID: tripID.String(), EdgesUpdated: edgesUpdated})
}

func (svc *Service) statistics(c *gin.Context) {
	c.JSON(http.StatusOK, newStatsResponse(svc.config.Engine.Statistics()))
}

func (svc *Service) historySummary(c *gin.Context) {
	sum := svc.config.Engine.EdgeHistorySummary()
	svc.config.Metrics.SetEdgesTracked(sum.TotalEdgesTracked)

	c.JSON(http.StatusOK, summaryResponse{
		TotalEdgesTracked:          sum.TotalEdgesTracked,
		MostReliableEdge:           newEdgeStatResponse(sum.MostReliable),
		LeastReliableEdge:          newEdgeStatResponse(sum.LeastReliable),
		AverageDelayAcrossAllEdges: sum.AverageDelayAcrossAllEdges,
	})
}
