// Package config centralizes tunable defaults so they are not
// scattered as magic numbers across handlers.
package config

import "time"

// Server defaults
const (
	DefaultPort        = "8080"
	DefaultDataDir     = "./data/solmeter"
	DefaultMaxMemoryMB = 48
)

// Request timeouts
const (
	IngestTimeout = 5 * time.Second
	QueryTimeout  = 10 * time.Second
	StatsTimeout  = 10 * time.Second
	ExportTimeout = 30 * time.Second
)

// Listing limits
const (
	DefaultListLimit = 1000
	MaxListLimit     = 10000
)

// Default tariff and goal settings, overridable per deployment via
// SOLMETER_* environment variables.
const (
	DefaultCostPerKWh     = 0.15
	DefaultCO2Factor      = 0.85
	DefaultYearlyGoal     = 12000.0
	DefaultSystemCapacity = 5.0
	DefaultCurrencySymbol = "$"
)

// TreeCO2PerYearKg is the CO2 an average tree absorbs per year, used
// for the trees-equivalent figure on the dashboard.
const TreeCO2PerYearKg = 21.0

// WebSocket configuration
const (
	WSReadBufferSize  = 1024
	WSWriteBufferSize = 1024
	WSBroadcastBuffer = 256
	WSChannelBuffer   = 10
	WSWriteDeadline   = 10 * time.Second
	WSReadDeadline    = 60 * time.Second
	WSPingInterval    = 30 * time.Second
)

// BadgerGCInterval is how often the value log garbage collector runs.
const BadgerGCInterval = 10 * time.Minute
