package backup

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var restoreTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "digitalnexus",
	Subsystem: "backup",
	Name:      "restore_total",
	Help:      "Backup restore attempts by payload type and outcome.",
}, []string{"type", "outcome"})
