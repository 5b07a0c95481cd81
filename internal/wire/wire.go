// Package wire provides dependency injection for the climseir application.
// It creates singleton services with lazy initialization.
package wire

import (
	"io"
	"os"
	"sync"

	"go.uber.org/zap"

	cliadapter "github.com/example/climseir/internal/adapters/cli"
	"github.com/example/climseir/internal/adapters/filesystem"
	"github.com/example/climseir/internal/adapters/metrics"
	"github.com/example/climseir/internal/adapters/sqlite"
	"github.com/example/climseir/internal/app"
	"github.com/example/climseir/internal/db"
	"github.com/example/climseir/internal/ports/primary"
	"github.com/example/climseir/internal/ports/secondary"
)

var (
	simulationService primary.SimulationService
	solverMetrics     *metrics.SolverMetrics
	logger            = zap.NewNop()
	once              sync.Once
)

// SetLogger sets the fallback logger handed to services when they are
// built. Later calls do not reach services that already exist; callers pass
// the current logger per call with ctxutil.WithLogger, which takes precedence.
func SetLogger(l *zap.Logger) {
	if l != nil {
		logger = l
	}
}

// SetDBPath overrides the result store location. It must be called before
// the first service is requested.
func SetDBPath(path string) {
	if path != "" {
		db.SetPath(path)
	}
}

// SimulationService returns the singleton SimulationService instance.
func SimulationService() primary.SimulationService {
	once.Do(initServices)
	return simulationService
}

// Metrics returns the solver metrics shared by every run in this process.
func Metrics() *metrics.SolverMetrics {
	once.Do(initServices)
	return solverMetrics
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	// An unavailable result store only disables persistence; runs that do
	// not persist still work.
	var runRepo secondary.RunRepository
	database, err := db.GetDB()
	if err != nil {
		logger.Warn("result store unavailable", zap.Error(err))
	} else {
		runRepo = sqlite.NewRunRepository(database)
	}

	solverMetrics = metrics.NewSolverMetrics()
	simulationService = app.NewSimulationService(runRepo, filesystem.NewTableWriter(), solverMetrics, logger)
}

// SimulationAdapter returns a new SimulationAdapter writing to stdout.
// Each call creates a new adapter (adapters are stateless translators).
func SimulationAdapter() *cliadapter.SimulationAdapter {
	return SimulationAdapterWithOutput(os.Stdout)
}

// SimulationAdapterWithOutput returns a new SimulationAdapter writing to the given output.
func SimulationAdapterWithOutput(out io.Writer) *cliadapter.SimulationAdapter {
	once.Do(initServices)
	return cliadapter.NewSimulationAdapter(simulationService, out)
}
