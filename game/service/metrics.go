package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors updated by the game service
type Metrics struct {
	MatchesCreated  *prometheus.CounterVec
	MatchesFinished *prometheus.CounterVec
	Shots           *prometheus.CounterVec
	Rejected        *prometheus.CounterVec
}

// NewMetrics registers the game collectors with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		MatchesCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "seabattle_matches_created_total",
			Help: "Total number of matches created by match type",
		}, []string{"type"}),
		MatchesFinished: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "seabattle_matches_finished_total",
			Help: "Total number of finished matches by finish reason",
		}, []string{"reason"}),
		Shots: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "seabattle_shots_total",
			Help: "Total number of resolved shots by outcome",
		}, []string{"outcome"}),
		Rejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "seabattle_commands_rejected_total",
			Help: "Total number of commands rejected by the engine by operation",
		}, []string{"operation"}),
	}
}
