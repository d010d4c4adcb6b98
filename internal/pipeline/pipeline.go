// Package pipeline chains the six analysis stages over one canonical
// dataset. Each stage is pure; the chain is deterministic for identical
// inputs apart from the generated run identifier.
package pipeline

import (
	"studio/domain/canon"
	"studio/domain/core"
	"studio/domain/insight"
	"studio/domain/profile"
	"studio/domain/template"
	"studio/internal/errors"
	"studio/internal/executor"
	"studio/internal/orchestrator"
	"studio/internal/profiling"
	"studio/internal/scene"
	"studio/internal/semantics"
)

// RunOptions configures one analysis run
type RunOptions struct {
	TemplateID     string
	Overrides      *insight.Overrides
	MaxProfileRows int
	MaxComputeRows int
}

// Result carries every derived artifact of one run
type Result struct {
	RunID   core.RunID             `json:"run_id"`
	Profile profile.DatasetProfile `json:"profile"`
	Graph   insight.SemanticGraph  `json:"graph"`
	Plan    insight.AnalysisPlan   `json:"plan"`
	Blocks  []insight.Block        `json:"blocks"`
	Scene   insight.SceneGraph     `json:"scene"`
}

// Run profiles the dataset, builds the semantic graph and plan, executes
// every block and arranges the scene. Data-quality problems never fail
// the run; they surface as block statuses.
func Run(ds *canon.CanonicalDataset, opts RunOptions) (*Result, error) {
	if ds == nil {
		return nil, errors.InvalidInput("nil dataset")
	}
	if err := ds.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid canonical dataset")
	}

	tmpl := template.Builtin().Lookup(opts.TemplateID)

	prof := profiling.ProfileDataset(ds, profiling.Options{
		MaxProfileRows: opts.MaxProfileRows,
	})

	graph := semantics.BuildGraph(&prof, ds, semantics.Options{
		Template:  tmpl,
		Overrides: opts.Overrides,
	})

	plan := orchestrator.Plan(&prof, &graph, ds, orchestrator.Options{
		Template:  tmpl,
		Overrides: opts.Overrides,
	})

	blocks := executor.ExecutePlan(ds, &graph, &plan, executor.Options{
		MaxComputeRows: opts.MaxComputeRows,
		Template:       tmpl,
	})

	sg := scene.Build(scene.Input{
		Blocks:    blocks,
		Profile:   &prof,
		Template:  tmpl,
		Overrides: opts.Overrides,
	})

	return &Result{
		RunID:   core.RunID(core.NewID()),
		Profile: prof,
		Graph:   graph,
		Plan:    plan,
		Blocks:  blocks,
		Scene:   sg,
	}, nil
}
