package routing

import (
	"github.com/mycok/uRoute/adaptive"
	"github.com/mycok/uRoute/history"
	"github.com/mycok/uRoute/roadgraph/graph"
)

type errorResponse struct {
	Error string `json:"error"`
}

type statsResponse struct {
	NodesExplored     int `json:"nodes_explored"`
	EdgesExamined     int `json:"edges_examined"`
	PathLength        int `json:"path_length"`
	HistoryInfluenced int `json:"history_influenced"`
}

func newStatsResponse(stats adaptive.Stats) statsResponse {
	return statsResponse{
		NodesExplored:     stats.NodesExplored,
		EdgesExamined:     stats.EdgesExamined,
		PathLength:        stats.PathLength,
		HistoryInfluenced: stats.HistoryInfluenced,
	}
}

type routeResponse struct {
	Path    []graph.NodeID `json:"path"`
	Found   bool           `json:"found"`
	Vehicle string         `json:"vehicle"`
	// Null when no route exists; JSON cannot encode +Inf.
	TotalCost *float64      `json:"total_cost"`
	Stats     statsResponse `json:"stats"`
}

func newRouteResponse(res adaptive.Result, vehicle adaptive.VehicleClass) routeResponse {
	resp := routeResponse{
		Path:    res.Path,
		Found:   res.Found(),
		Vehicle: string(vehicle),
		Stats:   newStatsResponse(res.Stats),
	}

	if resp.Found {
		cost := res.TotalCost
		resp.TotalCost = &cost
	} else {
		resp.Path = []graph.NodeID{}
	}

	return resp
}

// feedbackRequest uses pointers so that missing fields can be told apart
// from zero values.
type feedbackRequest struct {
	Path         []graph.NodeID `json:"path"`
	ActualTime   *float64       `json:"actual_time" binding:"required"`
	ExpectedTime *float64       `json:"expected_time" binding:"required"`
	Success      *bool          `json:"success" binding:"required"`
}

type feedbackResponse struct {
	TripID       string `json:"trip_id"`
	EdgesUpdated int    `json:"edges_updated"`
}

type edgeStatResponse struct {
	Edge string `json:"edge"`
	history.Record
}

func newEdgeStatResponse(stat *history.EdgeStat) *edgeStatResponse {
	if stat == nil {
		return nil
	}

	return &edgeStatResponse{Edge: stat.Key.String(), Record: stat.Record}
}

type summaryResponse struct {
	TotalEdgesTracked          int               `json:"total_edges_tracked"`
	MostReliableEdge           *edgeStatResponse `json:"most_reliable_edge"`
	LeastReliableEdge          *edgeStatResponse `json:"least_reliable_edge"`
	AverageDelayAcrossAllEdges float64           `json:"average_delay_across_all_edges"`
}
