package checkers

import (
	"context"

	"github.com/ingeniar/bizgen/pkg/llm"
)

// ModelChecker pings the configured language-model endpoint.
type ModelChecker struct {
	name   string
	pinger llm.Pinger
}

func NewModelChecker(name string, pinger llm.Pinger) *ModelChecker {
	return &ModelChecker{name: name, pinger: pinger}
}

func (c *ModelChecker) Name() string { return c.name }

func (c *ModelChecker) Check(ctx context.Context) error {
	return c.pinger.Ping(ctx)
}
