// Package container wires the application's components together.
package container

import (
	"context"

	"bedesign/adapters/llm"
	"bedesign/adapters/postgres"
	"bedesign/adapters/pubmed"
	"bedesign/adapters/report"
	"bedesign/domain/design"
	"bedesign/domain/regulatory"
	"bedesign/internal"
	"bedesign/internal/api"
	"bedesign/internal/config"
	"bedesign/internal/errors"
	"bedesign/internal/migration"
	"bedesign/internal/pipeline"
	"bedesign/ports"

	"github.com/jmoiron/sqlx"
)

// Container holds all wired application components
type Container struct {
	Config *config.Config
	Logger *internal.Logger
	DB     *sqlx.DB

	Projects   ports.ProjectRepository
	Parameters ports.ParameterRepository
	Literature ports.LiteratureSearchPort
	Extractor  ports.ParameterExtractorPort
	Renderer   ports.ReportRendererPort

	Calculator *design.Calculator
	Evaluator  *regulatory.Evaluator
	Runner     *pipeline.Runner
	Handlers   *api.Handlers
}

// New builds the container: connects the database, runs migrations and
// wires every component
func New(ctx context.Context, cfg *config.Config, logger *internal.Logger) (*Container, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.Database.URL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	runner := migration.NewRunner()
	if err := runner.Run(ctx, db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "database migration failed")
	}
	logger.Info("database migrated (schema %s)", runner.Version())

	policy := design.DefaultPolicy()
	calculator := design.NewCalculator(policy)
	evaluator := regulatory.NewEvaluator(policy)

	projects := postgres.NewProjectRepository(db)
	parameters := postgres.NewParameterRepository(db)
	literature := pubmed.NewClient(cfg.Literature)
	extractor := llm.NewExtractor(cfg.Extraction)
	renderer := report.NewRenderer(cfg.Reports)

	pipelineRunner := pipeline.NewRunner(
		projects, parameters, literature, extractor, renderer,
		calculator, evaluator, logger,
		cfg.Literature.MaxArticles, cfg.Pipeline,
	)

	handlers := api.NewHandlers(projects, parameters, renderer, pipelineRunner, logger)

	return &Container{
		Config:     cfg,
		Logger:     logger,
		DB:         db,
		Projects:   projects,
		Parameters: parameters,
		Literature: literature,
		Extractor:  extractor,
		Renderer:   renderer,
		Calculator: calculator,
		Evaluator:  evaluator,
		Runner:     pipelineRunner,
		Handlers:   handlers,
	}, nil
}

// Close releases held resources after in-flight runs drain
func (c *Container) Close() error {
	c.Runner.Wait()
	return c.DB.Close()
}
