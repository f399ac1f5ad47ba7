package snowcam

// The Director implementation is split across several files:
//
// - stage_types.go: Stage, Sequence, Group, results and configuration
// - director.go: the Run loop and observer interfaces
// - stage_director_methods.go: construction and fluent configuration
// - stage_error_handling.go: trip recording, fail-fast handling and results
// - pacing.go: frame pacing strategies
// - interactions.go, stage_interactions.go: the mutation vocabulary
// - timing.go, script.go: sequences loaded from YAML timing tables
//
// Observers and tooling around a run:
//
// - operator.go, rendering.go: filming frames to PNG stills
// - quality.go: comparing a film against a baseline
// - report.go, dashboard.go, ansi.go: HTML take reports
// - config.go, watch.go: configuration files and live reload
