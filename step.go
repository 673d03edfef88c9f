package mcpagent

import "context"

// StepInfo identifies the agent step on whose behalf a call is made.
type StepInfo struct {
	RunID string
	Step  int
}

type stepInfoKey struct{}

// WithStepInfo returns a context carrying info. Models and sessions read it
// back with StepInfoFrom to tag their logs and events.
func WithStepInfo(ctx context.Context, info StepInfo) context.Context {
	return context.WithValue(ctx, stepInfoKey{}, info)
}

// StepInfoFrom returns the step carried by ctx, if any.
func StepInfoFrom(ctx context.Context) (StepInfo, bool) {
	info, ok := ctx.Value(stepInfoKey{}).(StepInfo)
	return info, ok
}
