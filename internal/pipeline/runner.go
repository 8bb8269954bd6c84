// Package pipeline orchestrates the project lifecycle: literature search
// and extraction, design computation, and regulatory evaluation, each
// committed atomically against the project's status.
package pipeline

import (
	"context"
	"fmt"
	"sync"

	"bedesign/domain/core"
	"bedesign/domain/design"
	"bedesign/domain/pk"
	"bedesign/domain/project"
	"bedesign/domain/regulatory"
	"bedesign/internal"
	"bedesign/internal/config"
	"bedesign/ports"

	"golang.org/x/sync/errgroup"
)

// Overrides are caller-supplied design inputs. Zero values fall through to
// policy defaults; CV_intra and half-life always come from the literature.
type Overrides struct {
	Delta          float64 `json:"delta,omitempty"`
	Power          float64 `json:"power,omitempty"`
	Alpha          float64 `json:"alpha,omitempty"`
	DropoutRate    float64 `json:"dropout_rate,omitempty"`
	ScreenFailRate float64 `json:"screen_fail_rate,omitempty"`
}

// Runner drives projects through the pipeline. One background run per
// project at a time; the in-process guard and the repository's status
// guard together enforce that.
type Runner struct {
	projects   ports.ProjectRepository
	parameters ports.ParameterRepository
	literature ports.LiteratureSearchPort
	extractor  ports.ParameterExtractorPort
	renderer   ports.ReportRendererPort
	calculator *design.Calculator
	evaluator  *regulatory.Evaluator
	logger     *internal.Logger

	maxArticles int
	cfg         config.PipelineConfig

	mu     sync.Mutex
	active map[core.ProjectID]struct{}
	wg     sync.WaitGroup
}

// NewRunner wires a pipeline runner from its collaborators
func NewRunner(
	projects ports.ProjectRepository,
	parameters ports.ParameterRepository,
	literature ports.LiteratureSearchPort,
	extractor ports.ParameterExtractorPort,
	renderer ports.ReportRendererPort,
	calculator *design.Calculator,
	evaluator *regulatory.Evaluator,
	logger *internal.Logger,
	maxArticles int,
	pipelineCfg config.PipelineConfig,
) *Runner {
	return &Runner{
		projects:     projects,
		parameters:   parameters,
		literature:   literature,
		extractor:    extractor,
		renderer:     renderer,
		calculator:   calculator,
		evaluator:    evaluator,
		logger:       logger,
		maxArticles: maxArticles,
		cfg:         pipelineCfg,
		active:      make(map[core.ProjectID]struct{}),
	}
}

// Start creates a project and launches its pipeline run in the background.
// The returned project is in the searching state.
func (r *Runner) Start(ctx context.Context, drug project.Drug, overrides Overrides) (*project.Project, error) {
	p := project.New(drug)
	if err := r.projects.Create(ctx, p); err != nil {
		return nil, err
	}

	if !r.acquire(p.ID) {
		// Fresh UUID, so this means an ID collision; treat as conflict
		return nil, fmt.Errorf("%w: project %s", core.ErrPipelineActive, p.ID)
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.release(p.ID)
		r.run(p.ID, drug, overrides)
	}()

	return p, nil
}

// Wait blocks until all in-flight runs finish. Used on shutdown.
func (r *Runner) Wait() { r.wg.Wait() }

// IsActive reports whether a run is currently in flight for the project
func (r *Runner) IsActive(id core.ProjectID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.active[id]
	return ok
}

func (r *Runner) acquire(id core.ProjectID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.active[id]; ok {
		return false
	}
	r.active[id] = struct{}{}
	return true
}

func (r *Runner) release(id core.ProjectID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, id)
}

// run executes the three stages. Each stage gets its own timeout and
// commits its outcome before the next stage starts; a failed commit stops
// the run because another writer owns the project.
func (r *Runner) run(id core.ProjectID, drug project.Drug, overrides Overrides) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("pipeline panic for project %s: %v", id, rec)
			r.commitFailure(id, project.StatusSearching, project.StatusFailed,
				fmt.Sprintf("internal pipeline fault: %v", rec))
			r.commitFailure(id, project.StatusSearchingCompleted, project.StatusFailed,
				fmt.Sprintf("internal pipeline fault: %v", rec))
		}
	}()

	params, summary, err := r.runSearchStage(id, drug)
	if err != nil {
		r.logger.Warn("search stage failed for project %s: %v", id, err)
		r.commitFailure(id, project.StatusSearching, project.StatusSearchFailed, err.Error())
		return
	}

	ctx, cancel := r.stageContext()
	err = r.projects.CommitStage(ctx, id, project.StatusSearching, project.StageCommit{
		NewStatus:     project.StatusSearchingCompleted,
		Message:       fmt.Sprintf("processed %d articles, stored %d observations", summary.ArticlesProcessed, len(params)),
		SearchSummary: summary,
	})
	cancel()
	if err != nil {
		r.logger.Error("search commit failed for project %s: %v", id, err)
		return
	}

	result, err := r.runDesignStage(id, overrides)
	if err != nil {
		r.logger.Warn("design stage failed for project %s: %v", id, err)
		r.commitFailure(id, project.StatusSearchingCompleted, project.StatusDesignFailed, err.Error())
		return
	}

	verdict, err := r.runRegulatoryStage(id, *result)
	if err != nil {
		r.logger.Warn("regulatory stage failed for project %s: %v", id, err)
		r.commitFailure(id, project.StatusSearchingCompleted, project.StatusRegulatoryCheckFailed, err.Error())
		return
	}

	message := "study design completed; regulatory assessment: compliant"
	if !verdict.Compliant {
		message = "study design completed; regulatory assessment: not compliant"
	}

	ctx, cancel = r.stageContext()
	err = r.projects.CommitStage(ctx, id, project.StatusSearchingCompleted, project.StageCommit{
		NewStatus: project.StatusCompleted,
		Message:   message,
		Verdict:   verdict,
	})
	cancel()
	if err != nil {
		r.logger.Error("completion commit failed for project %s: %v", id, err)
		return
	}

	r.generateReport(id)
}

// runSearchStage searches the literature and extracts PK observations
// from the abstracts, bounded by the configured concurrency.
func (r *Runner) runSearchStage(id core.ProjectID, drug project.Drug) ([]pk.DrugParameter, *project.SearchSummary, error) {
	ctx, cancel := r.stageContext()
	defer cancel()

	pmids, err := r.literature.Search(ctx, drug.INNEn, r.maxArticles)
	if err != nil {
		return nil, nil, err
	}
	r.logger.Info("project %s: found %d articles for %s", id, len(pmids), drug.INNEn)

	articles, err := r.literature.FetchAbstracts(ctx, pmids)
	if err != nil {
		return nil, nil, err
	}
	if len(articles) == 0 {
		return nil, nil, fmt.Errorf("no relevant literature with abstracts found for %s", drug.INNEn)
	}

	var (
		paramsMu sync.Mutex
		params   []pk.DrugParameter
		failures int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.ExtractionConcurrency)
	for _, article := range articles {
		article := article
		g.Go(func() error {
			extracted, err := r.extractor.Extract(gctx, article.Abstract, drug.INNEn)
			if err != nil {
				// One bad abstract should not sink the stage; total
				// collaborator failure is detected below
				r.logger.Warn("project %s: extraction failed for PMID %s: %v", id, article.PMID, err)
				paramsMu.Lock()
				failures++
				paramsMu.Unlock()
				return nil
			}

			accepted := buildParameters(id, article, extracted, r.logger)
			if len(accepted) == 0 {
				return nil
			}
			paramsMu.Lock()
			params = append(params, accepted...)
			paramsMu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if len(articles) > 0 && failures == len(articles) {
		return nil, nil, fmt.Errorf("parameter extraction failed for all %d articles", len(articles))
	}

	if len(params) > 0 {
		if err := r.parameters.SaveBatch(ctx, params); err != nil {
			return nil, nil, err
		}
	}

	found := make(map[string]int)
	for _, p := range params {
		found[string(p.Kind)]++
	}
	summary := &project.SearchSummary{
		ArticlesProcessed: len(articles),
		ParametersFound:   found,
		DistinctSources:   pk.DistinctSources(params),
		CompletedAt:       core.Now(),
	}
	return params, summary, nil
}

// buildParameters canonicalizes and validates one article's extractions.
// Implausible values are kept but flagged unreliable so they remain
// visible to reviewers; unrecognized names are dropped.
func buildParameters(id core.ProjectID, article ports.Article, extracted []ports.ExtractedParameter, logger *internal.Logger) []pk.DrugParameter {
	accepted := make([]pk.DrugParameter, 0, len(extracted))
	for _, e := range extracted {
		kind, ok := pk.CanonicalKind(e.Name)
		if !ok {
			logger.Debug("dropping unrecognized parameter %q from PMID %s", e.Name, article.PMID)
			continue
		}
		param := pk.DrugParameter{
			ID:        core.ParameterID(core.NewID()),
			ProjectID: id,
			Kind:      kind,
			Value:     e.Value,
			Unit:      e.Unit,
			Provenance: pk.Provenance{
				PMID:  article.PMID,
				Title: article.Title,
			},
			IsReliable: true,
			CreatedAt:  core.Now(),
		}
		if err := param.Validate(); err != nil {
			logger.Warn("implausible %s value %.4g from PMID %s: %v", kind, e.Value, article.PMID, err)
			param.IsReliable = false
		}
		accepted = append(accepted, param)
	}
	return accepted
}

// runDesignStage selects conservative PK values and computes the design,
// persisting the result while the project stays in searching_completed.
func (r *Runner) runDesignStage(id core.ProjectID, overrides Overrides) (*design.Result, error) {
	ctx, cancel := r.stageContext()
	defer cancel()

	params, err := r.parameters.ListByProject(ctx, id)
	if err != nil {
		return nil, err
	}

	cv, ok := pk.SelectConservative(params, pk.KindCVIntra)
	if !ok {
		return nil, fmt.Errorf("%w: no reliable CV_intra observation in the literature", core.ErrMissingCVIntra)
	}

	inputs := design.Inputs{
		CVIntra:        cv.Value,
		Delta:          overrides.Delta,
		Power:          overrides.Power,
		Alpha:          overrides.Alpha,
		DropoutRate:    overrides.DropoutRate,
		ScreenFailRate: overrides.ScreenFailRate,
	}
	if halfLife, ok := pk.SelectConservative(params, pk.KindHalfLife); ok {
		hl := halfLife.Value
		inputs.HalfLifeHours = &hl
	}

	result, err := r.calculator.Compute(inputs)
	if err != nil {
		return nil, err
	}

	err = r.projects.CommitStage(ctx, id, project.StatusSearchingCompleted, project.StageCommit{
		NewStatus: project.StatusSearchingCompleted,
		Message:   fmt.Sprintf("design computed: %s, %d subjects total", result.DesignType, result.TotalSubjects),
		Design:    &result,
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// runRegulatoryStage evaluates the rule table. Rule evaluation itself
// never errors; only infrastructure faults can fail this stage.
func (r *Runner) runRegulatoryStage(id core.ProjectID, result design.Result) (*regulatory.Verdict, error) {
	ctx, cancel := r.stageContext()
	defer cancel()

	params, err := r.parameters.ListByProject(ctx, id)
	if err != nil {
		return nil, err
	}
	verdict := r.evaluator.Evaluate(result, params)
	return &verdict, nil
}

// generateReport renders artifacts for a completed project. Best effort:
// a rendering failure is logged and the project stays completed, the
// report endpoint can retry on demand.
func (r *Runner) generateReport(id core.ProjectID) {
	ctx, cancel := r.stageContext()
	defer cancel()

	p, err := r.projects.GetByID(ctx, id)
	if err != nil {
		r.logger.Error("report lookup failed for project %s: %v", id, err)
		return
	}
	artifact, err := r.renderer.Render(ctx, p)
	if err != nil {
		r.logger.Error("report rendering failed for project %s: %v", id, err)
		return
	}
	if err := r.projects.SetReport(ctx, id, artifact); err != nil {
		r.logger.Error("report persistence failed for project %s: %v", id, err)
		return
	}
	r.logger.Info("project %s: report rendered at %s", id, artifact.SynopsisPath)
}

func (r *Runner) commitFailure(id core.ProjectID, expected project.Status, failure project.Status, message string) {
	ctx, cancel := r.stageContext()
	defer cancel()
	err := r.projects.CommitStage(ctx, id, expected, project.StageCommit{
		NewStatus: failure,
		Message:   message,
	})
	if err != nil {
		r.logger.Debug("failure commit skipped for project %s (%s -> %s): %v", id, expected, failure, err)
	}
}

func (r *Runner) stageContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), r.cfg.StageTimeout)
}
