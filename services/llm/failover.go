package llm

import (
	"context"
	"fmt"
	"log/slog"
)

// FailoverClient presents a primary/secondary provider pair as a single
// LLMClient. Every Generate call tries the primary first and falls back to
// the secondary when the primary errors; callers never see which provider
// answered. Either slot may be nil as long as one is set.
type FailoverClient struct {
	primary       LLMClient
	secondary     LLMClient
	primaryName   string
	secondaryName string
}

func NewFailoverClient(primary LLMClient, primaryName string, secondary LLMClient, secondaryName string) (*FailoverClient, error) {
	if primary == nil && secondary == nil {
		return nil, fmt.Errorf("failover client needs at least one backend")
	}
	return &FailoverClient{
		primary:       primary,
		secondary:     secondary,
		primaryName:   primaryName,
		secondaryName: secondaryName,
	}, nil
}

// Generate implements the LLMClient interface
func (f *FailoverClient) Generate(ctx context.Context, system, prompt string, params GenerationParams) (string, error) {
	if f.primary != nil {
		out, err := f.primary.Generate(ctx, system, prompt, params)
		if err == nil {
			return out, nil
		}
		if ctx.Err() != nil {
			// No point retrying a dead context on the secondary.
			return "", err
		}
		if f.secondary == nil {
			return "", err
		}
		slog.Warn("Primary LLM provider failed, falling back",
			"primary", f.primaryName, "secondary", f.secondaryName, "error", err)
		out, secErr := f.secondary.Generate(ctx, system, prompt, params)
		if secErr != nil {
			return "", fmt.Errorf("both providers failed: %s=[%v], %s=[%v]",
				f.primaryName, err, f.secondaryName, secErr)
		}
		return out, nil
	}
	return f.secondary.Generate(ctx, system, prompt, params)
}
