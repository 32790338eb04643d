// Package mocks provides a gomock implementation of routing.RouteEngine.
package mocks

import (
	reflect "reflect"

	gomock "github.com/golang/mock/gomock"
	adaptive "github.com/mycok/uRoute/adaptive"
	history "github.com/mycok/uRoute/history"
	graph "github.com/mycok/uRoute/roadgraph/graph"
)

// MockRouteEngine is a mock of RouteEngine interface.
type MockRouteEngine struct {
	ctrl     *gomock.Controller
	recorder *MockRouteEngineMockRecorder
}

// MockRouteEngineMockRecorder is the mock recorder for MockRouteEngine.
type MockRouteEngineMockRecorder struct {
	mock *MockRouteEngine
}

// NewMockRouteEngine creates a new mock instance.
func NewMockRouteEngine(ctrl *gomock.Controller) *MockRouteEngine {
	mock := &MockRouteEngine{ctrl: ctrl}
	mock.recorder = &MockRouteEngineMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockRouteEngine) EXPECT() *MockRouteEngineMockRecorder {
	return m.recorder
}

// EdgeHistorySummary mocks base method.
func (m *MockRouteEngine) EdgeHistorySummary() history.Summary {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "EdgeHistorySummary")
	ret0, _ := ret[0].(history.Summary)
	return ret0
}

// EdgeHistorySummary indicates an expected call of EdgeHistorySummary.
func (mr *MockRouteEngineMockRecorder) EdgeHistorySummary() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "EdgeHistorySummary", reflect.TypeOf((*MockRouteEngine)(nil).EdgeHistorySummary))
}

// FindPath mocks base method.
func (m *MockRouteEngine) FindPath(arg0, arg1 graph.NodeID, arg2 adaptive.VehicleClass) (adaptive.Result, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "FindPath", arg0, arg1, arg2)
	ret0, _ := ret[0].(adaptive.Result)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// FindPath indicates an expected call of FindPath.
func (mr *MockRouteEngineMockRecorder) FindPath(arg0, arg1, arg2 interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "FindPath", reflect.TypeOf((*MockRouteEngine)(nil).FindPath), arg0, arg1, arg2)
}

// RecordRouteFeedback mocks base method.
func (m *MockRouteEngine) RecordRouteFeedback(arg0 []graph.NodeID, arg1, arg2 float64, arg3 bool) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "RecordRouteFeedback", arg0, arg1, arg2, arg3)
	ret0, _ := ret[0].(error)
	return ret0
}

// RecordRouteFeedback indicates an expected call of RecordRouteFeedback.
func (mr *MockRouteEngineMockRecorder) RecordRouteFeedback(arg0, arg1, arg2, arg3 interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "RecordRouteFeedback", reflect.TypeOf((*MockRouteEngine)(nil).RecordRouteFeedback), arg0, arg1, arg2, arg3)
}

// Statistics mocks base method.
func (m *MockRouteEngine) Statistics() adaptive.Stats {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Statistics")
	ret0, _ := ret[0].(adaptive.Stats)
	return ret0
}

// Statistics indicates an expected call of Statistics.
func (mr *MockRouteEngineMockRecorder) Statistics() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Statistics", reflect.TypeOf((*MockRouteEngine)(nil).Statistics))
}

// Vehicle mocks base method.
func (m *MockRouteEngine) Vehicle() adaptive.VehicleClass {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Vehicle")
	ret0, _ := ret[0].(adaptive.VehicleClass)
	return ret0
}

// Vehicle indicates an expected call of Vehicle.
func (mr *MockRouteEngineMockRecorder) Vehicle() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Vehicle", reflect.TypeOf((*MockRouteEngine)(nil).Vehicle))
}
