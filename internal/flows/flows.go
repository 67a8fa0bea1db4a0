// internal/flows/flows.go
package flows

import (
	"coincoach-backend/internal/common/genai"
	"coincoach-backend/internal/flow"
	"coincoach-backend/internal/flows/breakout"
	"coincoach-backend/internal/flows/coachchat"
	"coincoach-backend/internal/flows/coinpicks"
	"coincoach-backend/internal/flows/exitplan"
	"coincoach-backend/internal/flows/memeflip"
	"coincoach-backend/internal/flows/portfolio"
	"coincoach-backend/internal/flows/profitgoal"
	"coincoach-backend/internal/flows/riskprofile"
	"coincoach-backend/internal/flows/sentiment"
)

// BuildRegistry assembles every flow contract the service exposes. The
// price tool is injected here because coach chat is the only tool-enabled
// flow.
func BuildRegistry(priceTool genai.Tool) *flow.Registry {
	registry := flow.NewRegistry()
	registry.Register(coinpicks.New())
	registry.Register(profitgoal.New())
	registry.Register(memeflip.New())
	registry.Register(breakout.New())
	registry.Register(coachchat.New(priceTool))
	registry.Register(riskprofile.New())
	registry.Register(sentiment.New())
	registry.Register(exitplan.New())
	registry.Register(portfolio.New())
	return registry
}
