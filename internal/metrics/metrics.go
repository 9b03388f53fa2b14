// Package metrics exposes the ledger progress as prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BlocksProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "utxodump_blocks_processed_total",
		Help: "Number of blocks applied to the ledger",
	})
	TxsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "utxodump_transactions_processed_total",
		Help: "Number of transactions applied to the ledger",
	})
	InputsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "utxodump_inputs_processed_total",
		Help: "Number of inputs applied to the ledger",
	})
	OutputsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "utxodump_outputs_processed_total",
		Help: "Number of outputs inserted into the ledger",
	})
	KeysDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "utxodump_keys_deleted_total",
		Help: "Number of ledger entries removed by spending inputs",
	})
	CommitFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "utxodump_commit_failures_total",
		Help: "Number of block commits the store rejected",
	})
	LastHeight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "utxodump_last_height",
		Help: "Height of the last applied block",
	})
	SnapshotRows = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "utxodump_snapshot_rows",
		Help: "Rows written to the last published snapshot",
	})
)
