package chat

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"q/completion"
	"q/config"
	"q/mcp"
	"q/metrics"
	"q/model"
)

// maxParallelTools bounds concurrent tool invocations within one hop.
const maxParallelTools = 4

type toolResult struct {
	call   completion.ToolCallRecord
	output string
	err    *ToolError
}

// message is the tool message sent back to the model. A failed call
// reports its error text in place of the output.
func (r toolResult) message() model.Message {
	content := r.output
	if r.err != nil {
		content = fmt.Sprintf("Error executing %s: %v", r.call.Name, r.err.Err)
	}
	return model.Message{Role: model.RoleTool, Content: content, ToolCallID: r.call.ID}
}

// dispatch invokes every call and returns the results in call order. Calls
// run concurrently; a failing call never cancels the others.
func (c *Controller) dispatch(ctx context.Context, calls []completion.ToolCallRecord) []toolResult {
	results := make([]toolResult, len(calls))

	var g errgroup.Group
	g.SetLimit(maxParallelTools)

	for i, call := range calls {
		g.Go(func() error {
			results[i] = c.invoke(ctx, call)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (c *Controller) invoke(ctx context.Context, call completion.ToolCallRecord) toolResult {
	res := toolResult{call: call}

	if c.Tools == nil {
		res.err = &ToolError{CallID: call.ID, Name: call.Name, Err: fmt.Errorf("%w: %s", mcp.ErrToolNotFound, call.Name)}
		metrics.ToolCalls.WithLabelValues(metrics.OutcomeNotFound).Inc()
		return res
	}

	config.DebugLog.Debugf("[Turn] Calling tool %s (%s) with %s", call.Name, call.ID, call.RawArguments())

	output, err := c.Tools.CallTool(ctx, call.Name, call.Arguments)
	if err != nil {
		res.err = &ToolError{CallID: call.ID, Name: call.Name, Err: err}
		outcome := metrics.OutcomeError
		if errors.Is(err, mcp.ErrToolNotFound) {
			outcome = metrics.OutcomeNotFound
		}
		metrics.ToolCalls.WithLabelValues(outcome).Inc()
		config.DebugLog.Debugf("[Turn] Tool %s failed: %v", call.Name, err)
		return res
	}

	metrics.ToolCalls.WithLabelValues(metrics.OutcomeOK).Inc()
	res.output = output
	return res
}
