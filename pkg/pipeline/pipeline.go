package pipeline

import (
	"github.com/Misael10x/Random-Forest-Codigo/pkg/core"
	"github.com/Misael10x/Random-Forest-Codigo/pkg/dataprep"
	"github.com/Misael10x/Random-Forest-Codigo/pkg/stats"
	"github.com/juju/errors"
)

// Transformer interface for fit/transform pattern.
type Transformer interface {
	Fit(m *core.Matrix) error
	Transform(m *core.Matrix) (*core.Matrix, error)
}

// Pipeline chains multiple transformers.
type Pipeline struct {
	names []string
	steps []Transformer
}

func NewPipeline(steps ...Transformer) *Pipeline {
	return &Pipeline{steps: steps}
}

// Build creates a pipeline from step names: clip, log, robust, standard, minmax.
// clipLower and clipUpper are the percentiles used by clip.
func Build(names []string, clipLower, clipUpper float64) (*Pipeline, error) {
	p := &Pipeline{}
	for _, name := range names {
		var step Transformer
		switch name {
		case "clip":
			clipper, err := stats.NewOutlierClipper(clipLower, clipUpper)
			if err != nil {
				return nil, errors.Trace(err)
			}
			step = clipper
		case "log":
			step = logStep{}
		case "robust":
			step = stats.NewRobustScaler()
		case "standard":
			step = stats.NewStandardScaler()
		case "minmax":
			step = stats.NewMinMaxScaler()
		default:
			return nil, core.Invalidf("pipeline: unknown step %q", name)
		}
		p.names = append(p.names, name)
		p.steps = append(p.steps, step)
	}
	return p, nil
}

// Names returns the step names given to Build.
func (p *Pipeline) Names() []string { return p.names }

// Len returns the number of steps.
func (p *Pipeline) Len() int { return len(p.steps) }

func (p *Pipeline) Fit(m *core.Matrix) error {
	_, err := p.FitTransform(m)
	return err
}

func (p *Pipeline) Transform(m *core.Matrix) (*core.Matrix, error) {
	for i, step := range p.steps {
		var err error
		if m, err = step.Transform(m); err != nil {
			return nil, errors.Annotatef(err, "pipeline step %d", i)
		}
	}
	return m, nil
}

// FitTransform fits every step on the output of the previous one.
func (p *Pipeline) FitTransform(m *core.Matrix) (*core.Matrix, error) {
	for i, step := range p.steps {
		if err := step.Fit(m); err != nil {
			return nil, errors.Annotatef(err, "pipeline step %d", i)
		}
		var err error
		if m, err = step.Transform(m); err != nil {
			return nil, errors.Annotatef(err, "pipeline step %d", i)
		}
	}
	return m, nil
}

type logStep struct{}

func (logStep) Fit(*core.Matrix) error { return nil }

func (logStep) Transform(m *core.Matrix) (*core.Matrix, error) {
	return dataprep.LogTransform(m), nil
}
