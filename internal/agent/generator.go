package agent

import (
	"context"
	"time"

	"github.com/austiecodes/curator/internal/client"
	"github.com/austiecodes/curator/internal/consts"
	"github.com/austiecodes/curator/internal/types"
)

// Generator makes single completion calls for the agents.
type Generator struct {
	client      client.CompletionClient
	model       types.Model
	temperature float64
	timeout     time.Duration
}

// NewGenerator wraps c with a fixed model, temperature and per-call timeout.
func NewGenerator(c client.CompletionClient, model types.Model, temperature float64, timeout time.Duration) *Generator {
	if temperature < 0 {
		temperature = consts.DefaultTemperature
	}
	return &Generator{client: c, model: model, temperature: temperature, timeout: timeout}
}

func (g *Generator) Model() types.Model { return g.model }

// Generate asks for a JSON reply and returns the raw text with the call
// duration.
func (g *Generator) Generate(ctx context.Context, system, prompt string) (string, time.Duration, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := g.client.Complete(ctx, g.model, client.CompletionRequest{
		System:      system,
		Prompt:      prompt,
		Temperature: g.temperature,
		JSON:        true,
	})
	return out, time.Since(start), err
}
