package generate

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/tmc/langchaingo/llms"

	"github.com/cunhaax/dev-gpt/internal/logging"
)

// Options configures one end-to-end generation run.
type Options struct {
	Root                string
	NumApproaches       int
	MaxDebugIterations  int
	MaxRefineRounds     int
	CodeErrorMarkers    []string
	ProblematicPackages []string
	UnnecessaryPackages []string
}

// Orchestrator owns the whole pipeline: refine the specification, enumerate
// package-set approaches, and run generate → debug → playground for each
// approach until one succeeds.
type Orchestrator struct {
	model        llms.Model
	builder      Builder
	extractError func(string) string
	input        UserInputFunc
	opts         Options
}

// NewOrchestrator wires a run. extractError maps a raw hub build log to
// error text ("" = clean build).
func NewOrchestrator(
	model llms.Model,
	builder Builder,
	extractError func(string) string,
	input UserInputFunc,
	opts Options,
) *Orchestrator {
	return &Orchestrator{
		model:        model,
		builder:      builder,
		extractError: extractError,
		input:        input,
		opts:         opts,
	}
}

// Run executes the pipeline. Individual approach exhaustion is recoverable
// (next approach is tried); running out of approaches is a soft failure
// reported to the operator, not an error. Anything else aborts the run.
func (o *Orchestrator) Run(ctx context.Context, taskDraft string) error {
	spec := Specification{Task: taskDraft}
	refiner := NewRefiner(o.model, o.input, o.opts.MaxRefineRounds)
	if err := refiner.Refine(ctx, &spec); err != nil {
		return err
	}

	generator := NewGenerator(o.model, spec)

	baseName, err := generator.GenerateName(ctx, spec.Task)
	if err != nil {
		return err
	}
	// The registry is shared; a random suffix keeps repeated runs from
	// colliding on the same executor name.
	name := fmt.Sprintf("%s%d", baseName, rand.Intn(10_000_000))
	logging.GetCurrentLogger().Log("Microservice name: %s", name)

	packageSets, err := generator.PossiblePackages(ctx, o.opts.NumApproaches)
	if err != nil {
		return err
	}
	packageSets = FilterPackageSets(packageSets, o.opts.ProblematicPackages, o.opts.UnnecessaryPackages)
	if len(packageSets) == 0 {
		printFailure("All proposed package sets contained problematic packages; nothing to try.")
		return nil
	}

	classifier := NewClassifier(o.model, o.opts.CodeErrorMarkers)
	debugLoop := NewDebugLoop(o.model, o.builder, o.extractError, classifier, spec, o.opts.MaxDebugIterations)
	playground := NewPlaygroundGenerator(o.model, o.builder)

	for approach, packages := range packageSets {
		err := o.runApproach(ctx, generator, debugLoop, playground, name, approach, packages)
		if err == nil {
			printSuccess(`
You can now run or deploy your microservice:
dev-gpt run --path %s
dev-gpt deploy --path %s
`, o.opts.Root, o.opts.Root)
			return nil
		}
		if errors.Is(err, ErrMaxDebugIterations) {
			printFailure("Could not debug the microservice with the approach: %v", packages)
			if approach == len(packageSets)-1 {
				printFailure("Could not debug the microservice with any of the approaches: %v — giving up.", packages)
			}
			continue
		}
		return err
	}
	return nil
}

func (o *Orchestrator) runApproach(
	ctx context.Context,
	generator *Generator,
	debugLoop *DebugLoop,
	playground *PlaygroundGenerator,
	name string,
	approach int,
	packages []string,
) error {
	if err := generator.GenerateMicroservice(ctx, o.opts.Root, name, packages, approach); err != nil {
		return err
	}
	finalVersionPath, err := debugLoop.Debug(ctx, o.opts.Root, name, approach, packages)
	if err != nil {
		return err
	}
	return playground.Generate(ctx, name, finalVersionPath)
}

// FilterPackageSets drops every set containing a problematic package and
// strips unnecessary packages from the survivors, preserving order.
func FilterPackageSets(sets [][]string, problematic, unnecessary []string) [][]string {
	problematicSet := toSet(problematic)
	unnecessarySet := toSet(unnecessary)

	var out [][]string
	for _, packages := range sets {
		if anyIn(packages, problematicSet) {
			continue
		}
		filtered := make([]string, 0, len(packages))
		for _, pkg := range packages {
			if !unnecessarySet[pkg] {
				filtered = append(filtered, pkg)
			}
		}
		out = append(out, filtered)
	}
	return out
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}

func anyIn(items []string, set map[string]bool) bool {
	for _, item := range items {
		if set[item] {
			return true
		}
	}
	return false
}
