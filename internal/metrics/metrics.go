package metrics

import "github.com/prometheus/client_golang/prometheus"

const Namespace = "storage_harness"

var ErrorsMetric = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: Namespace,
	Subsystem: "logging",
	Name:      "errors",
	Help:      "Warnings and errors logged by the harness.",
})

var OrchestratorQueriesMetric = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: Namespace,
	Subsystem: "containers",
	Name:      "queries",
	Help:      "Container list queries sent to the orchestrator.",
}, []string{"runtime"})

var HandlesOpenedMetric = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: Namespace,
	Subsystem: "handles",
	Name:      "opened",
	Help:      "Management API handles opened.",
})

var ScratchFilesMetric = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: Namespace,
	Subsystem: "scratch",
	Name:      "files_created",
	Help:      "Scratch files created.",
})

func init() {
	prometheus.MustRegister(ErrorsMetric, OrchestratorQueriesMetric, HandlesOpenedMetric, ScratchFilesMetric)
}
