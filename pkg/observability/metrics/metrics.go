package metrics

import (
    "sync"

    "github.com/prometheus/client_golang/prometheus"
)

var (
    once sync.Once

    ActiveZone = prometheus.NewGauge(prometheus.GaugeOpts{
        Namespace: "zonecoord",
        Name:      "active_zone",
        Help:      "1 if this process currently considers its zone active, else 0",
    })

    Unsampled = prometheus.NewGauge(prometheus.GaugeOpts{
        Namespace: "zonecoord",
        Name:      "unsampled",
        Help:      "1 until the first successful sample has populated the cache",
    })

    Samples = prometheus.NewCounter(prometheus.CounterOpts{
        Namespace: "zonecoord",
        Name:      "samples_total",
        Help:      "Total number of probe invocations",
    })

    SampleErrors = prometheus.NewCounter(prometheus.CounterOpts{
        Namespace: "zonecoord",
        Name:      "sample_errors_total",
        Help:      "Total number of probe invocations that returned an error",
    })

    Transitions = prometheus.NewCounterVec(prometheus.CounterOpts{
        Namespace: "zonecoord",
        Name:      "transitions_total",
        Help:      "Total number of cached-state transitions by direction",
    }, []string{"direction"})

    HookErrors = prometheus.NewCounter(prometheus.CounterOpts{
        Namespace: "zonecoord",
        Name:      "hook_errors_total",
        Help:      "Total number of transition hooks that panicked during dispatch",
    })

    MonitorRunning = prometheus.NewGauge(prometheus.GaugeOpts{
        Namespace: "zonecoord",
        Name:      "monitor_running",
        Help:      "1 while the periodic sampler is scheduled, else 0",
    })

    GRPCConnDials = prometheus.NewCounter(prometheus.CounterOpts{
        Namespace: "zonecoord",
        Subsystem: "grpc_conn",
        Name:      "dials_total",
        Help:      "Total number of new gRPC connections dialed",
    })
    GRPCConnReuse = prometheus.NewCounter(prometheus.CounterOpts{
        Namespace: "zonecoord",
        Subsystem: "grpc_conn",
        Name:      "reuse_total",
        Help:      "Total number of gRPC connection reuses from cache",
    })
    GRPCConnEvictions = prometheus.NewCounter(prometheus.CounterOpts{
        Namespace: "zonecoord",
        Subsystem: "grpc_conn",
        Name:      "evictions_total",
        Help:      "Total number of cached gRPC connections evicted",
    })
    GRPCConnActive = prometheus.NewGauge(prometheus.GaugeOpts{
        Namespace: "zonecoord",
        Subsystem: "grpc_conn",
        Name:      "active",
        Help:      "Number of active cached gRPC connections",
    })
)

// Register registers metrics into the default Prometheus registry (idempotent).
func Register() {
    once.Do(func() {
        prometheus.MustRegister(ActiveZone)
        prometheus.MustRegister(Unsampled)
        prometheus.MustRegister(Samples)
        prometheus.MustRegister(SampleErrors)
        prometheus.MustRegister(Transitions)
        prometheus.MustRegister(HookErrors)
        prometheus.MustRegister(MonitorRunning)
        prometheus.MustRegister(GRPCConnDials)
        prometheus.MustRegister(GRPCConnReuse)
        prometheus.MustRegister(GRPCConnEvictions)
        prometheus.MustRegister(GRPCConnActive)
    })
}
