package triage

import (
	"context"
	"fmt"

	"github.com/JaimeStill/go-agents/pkg/agent"
	gaconfig "github.com/JaimeStill/go-agents/pkg/config"
)

// ModelClient is the language model dependency of the pipeline. Tests
// substitute a fake; production wires a go-agents chat agent.
type ModelClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type agentClient struct {
	cfg *gaconfig.AgentConfig
}

// NewAgentClient creates a ModelClient backed by a go-agents chat agent.
func NewAgentClient(cfg *gaconfig.AgentConfig) ModelClient {
	return &agentClient{cfg: cfg}
}

func (c *agentClient) Complete(ctx context.Context, prompt string) (string, error) {
	a, err := agent.New(c.cfg)
	if err != nil {
		return "", fmt.Errorf("create agent: %w", err)
	}

	resp, err := a.Chat(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("chat call: %w", err)
	}

	return resp.Content(), nil
}
