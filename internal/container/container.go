package container

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopress/adapters/excel"
	"gopress/adapters/memory"
	"gopress/adapters/postgres"
	"gopress/adapters/simulate"
	"gopress/app"
	"gopress/domain/network"
	"gopress/internal"
	"gopress/internal/config"
	"gopress/internal/engine"
	"gopress/internal/migration"
	"gopress/ports"

	"github.com/jmoiron/sqlx"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	DB *sqlx.DB

	// Repositories (data access layer)
	RunRepo ports.TallyRunRepository

	// Tally components
	Source       ports.EnsembleSource
	Engine       *engine.Engine
	TallyService *app.TallyService
}

// New creates a new dependency injection container
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	logger := internal.DefaultLogger
	logger.SetLevel(internal.ParseLogLevel(cfg.LogLevel, internal.LogLevelInfo))

	return &Container{
		Config: cfg,
		Logger: logger,
		Engine: engine.New(engine.Config{Workers: cfg.Tally.Workers, ChunkSize: cfg.Tally.ChunkSize}),
	}, nil
}

// InitWithDatabase connects tally run storage to Postgres and migrates it
func (c *Container) InitWithDatabase(ctx context.Context, db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database connection test failed: %w", err)
	}
	if err := migration.NewRunner().Run(ctx, db); err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}

	c.DB = db
	c.RunRepo = postgres.NewTallyRunRepository(db)
	c.Logger.Info("[Container] tally runs stored in Postgres")
	return nil
}

// InitInMemory keeps tally runs in process memory
func (c *Container) InitInMemory() {
	c.RunRepo = memory.NewTallyRunRepository()
	c.Logger.Info("[Container] tally runs stored in memory")
}

// InitServices builds the ensemble source from the configured paths and
// the tally service on top of it. A saved ensemble takes precedence over a
// model to simulate.
func (c *Container) InitServices() error {
	if c.RunRepo == nil {
		return fmt.Errorf("run repository must be initialised first")
	}
	if err := c.Config.RequireModelSource(); err != nil {
		return err
	}

	switch {
	case c.Config.Paths.EnsembleFile != "":
		c.Source = app.NewFileEnsembleSource(c.Config.Paths.EnsembleFile)
		c.Logger.Info("[Container] ensemble from %s", c.Config.Paths.EnsembleFile)
	default:
		model, err := LoadModel(c.Config.Paths.ModelFile)
		if err != nil {
			return err
		}
		if c.Config.Simulation.Limitation {
			model = model.EnforceLimitation()
		}
		c.Source = app.NewSimulatedEnsembleSource(model, SimulationConfig(c.Config))
		c.Logger.Info("[Container] simulating %d samples of %s", c.Config.Simulation.Samples, c.Config.Paths.ModelFile)
	}

	c.TallyService = app.NewTallyService(c.Source, c.Engine, c.RunRepo)
	return nil
}

// Shutdown releases the database connection
func (c *Container) Shutdown(ctx context.Context) error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// SimulationConfig maps the environment settings onto the simulator
func SimulationConfig(cfg *config.Config) simulate.Config {
	return simulate.Config{
		Samples:     cfg.Simulation.Samples,
		MaxAttempts: cfg.Simulation.MaxAttempts,
		Seed:        cfg.Simulation.Seed,
		Workers:     cfg.Simulation.Workers,
	}
}

// LoadModel reads a model from a .csv or .xlsx edge list or from a text
// file in arrow notation
func LoadModel(path string) (*network.Model, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".xlsx":
		return excel.NewDataReader(path).ReadModel()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open model: %w", err)
	}
	defer f.Close()
	return network.ParseDigraph(f)
}
