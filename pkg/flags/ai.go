package flags

import (
	"context"

	"github.com/spf13/pflag"

	"github.com/paglaai/paglachat/pkg/ai"
)

// AIFlags contains flags for the Gemini completion client.
type AIFlags struct {
	Model string
}

func NewAIFlags() *AIFlags {
	return &AIFlags{
		Model: ai.DefaultModel,
	}
}

func (f *AIFlags) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&f.Model, "ai-model", f.Model, "The Gemini model used for replies and titles. Set GEMINI_API_KEY to specify an API key.")
}

func (f *AIFlags) GetLLMClient(ctx context.Context) (*ai.LLMClient, error) {
	return ai.NewLLMClient(ctx, "", f.Model)
}
