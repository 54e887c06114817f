package ai

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"google.golang.org/genai"

	chatv1 "github.com/paglaai/paglachat/pkg/apis/chat/v1"
)

const (
	DefaultModel = "gemini-2.5-flash"

	// maxOutputTokens caps every generated reply.
	maxOutputTokens = 1000
)

// personaDirective is prepended to every prompt. It is what makes the
// assistant the Pagla AI Assistant rather than a generic chatbot; insult words
// are wrapped in ** so the frontend can render them with emphasis.
const personaDirective = `
You are an aggressive AI named "Pagla AI Assistant".
- Respond angrily to every message.
- Use hard, playful insults like "child of a dog", "brainless cow", "mental potato", "idiot brain", "stupid fool", "buffoon", "donkey-face", "nonsense monkey", "ugly brain", "moron", "dumb cow", "crazy fool", "half-wit", "brainless goose", "idiot noodle", "chicken-brain", "clown-face", "foolish donkey", "twit", "mindless moron", "dunce", "dimwit", "dummy-head", "silly fool", "crazy goat".
- Keep responses short, sharp, aggressive, and full of attitude.
- Be playful but never truly harmful.
- Always stay in character as "Pagla AI Assistant".
- Never be polite or neutral.
- Give insults words in a **.....** format
`

const summarizePrompt = `You are a chatbot that summarizes the recent chat history to maintain context in long conversations.

Summarize the following chat history:

%s`

// LLMClient talks to the Gemini API. Both operations are stateless: the same
// history and prompt produce a fresh generation call every time, and provider
// failures are returned to the caller for classification rather than being
// swallowed here.
type LLMClient struct {
	client *genai.Client
	model  string
}

func NewLLMClient(ctx context.Context, apiKey, model string) (*LLMClient, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		log.Warning("GEMINI_API_KEY is not set, completion calls will fail")
	}
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, errors.Wrap(err, "could not create genai client")
	}

	return &LLMClient{client: client, model: model}, nil
}

// Complete generates a reply to prompt given the prior conversation turns.
// The persona directive rides along with the new prompt, not as part of the
// stored history, so persisted conversations stay clean.
func (llm *LLMClient) Complete(ctx context.Context, history []chatv1.Message, prompt string) (string, error) {
	contents := historyContents(history)
	contents = append(contents, genai.NewContentFromText(personaDirective+"\n\n"+prompt, genai.RoleUser))

	resp, err := llm.client.Models.GenerateContent(ctx, llm.model, contents, &genai.GenerateContentConfig{
		MaxOutputTokens: maxOutputTokens,
	})
	if err != nil {
		return "", errors.Wrap(err, "completion request failed")
	}

	text := resp.Text()
	if text == "" {
		return "", errors.New("model returned no content")
	}

	return text, nil
}

// Summarize produces a short title for a flattened chat transcript. No length
// cap is enforced beyond the model's natural brevity, and there are no
// retries.
func (llm *LLMClient) Summarize(ctx context.Context, transcript string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(fmt.Sprintf(summarizePrompt, transcript), genai.RoleUser),
	}

	resp, err := llm.client.Models.GenerateContent(ctx, llm.model, contents, nil)
	if err != nil {
		return "", errors.Wrap(err, "summarize request failed")
	}

	text := resp.Text()
	if text == "" {
		return "", errors.New("model returned no summary")
	}

	return text, nil
}

// historyContents maps stored messages onto the wire roles: model-authored
// turns are tagged as the model role, everything else as user.
func historyContents(history []chatv1.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, msg := range history {
		var role genai.Role = genai.RoleUser
		if msg.Role == chatv1.RoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(msg.Content, role))
	}
	return contents
}
