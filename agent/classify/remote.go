package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openaisdk "github.com/openai/openai-go"
	contractx "github.com/tanpawarit/servicedesk/agent/contract"
	promptx "github.com/tanpawarit/servicedesk/agent/prompt"
	"github.com/tanpawarit/servicedesk/agent/tool"
)

var classifySystemPrompt = promptx.LoadPromptSet().Classifier

// RemoteClassifier delegates classification to the generative backend.
// Every failure mode — transport errors, timeouts, auth rejections, and
// output that does not parse into an allowed intent — is normalized to
// ErrBackendUnavailable so the router can fall back deterministically.
type RemoteClassifier struct {
	client *openaisdk.Client
	model  string
}

var _ contractx.Classifier = (*RemoteClassifier)(nil)

func NewRemoteClassifier(client *openaisdk.Client, model string) (*RemoteClassifier, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: backend client is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("%w: model name is required", contractx.ErrValidation)
	}
	return &RemoteClassifier{client: client, model: model}, nil
}

type remoteOutput struct {
	Intent string            `json:"intent"`
	Slots  map[string]string `json:"slots"`
}

func (c *RemoteClassifier) Classify(ctx context.Context, req contractx.ClassifyRequest) (contractx.ClassifyResult, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return contractx.ClassifyResult{}, fmt.Errorf("%w: message is empty", contractx.ErrValidation)
	}

	completion, err := c.client.Chat.Completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Model: openaisdk.ChatModel(c.model),
		Messages: []openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.SystemMessage(classifySystemPrompt),
			openaisdk.UserMessage(buildClassifyPrompt(message, req.AllowedIntents)),
		},
		Temperature: openaisdk.Float(0),
		MaxTokens:   openaisdk.Int(256),
	})
	if err != nil {
		return contractx.ClassifyResult{}, fmt.Errorf("%w: %v", contractx.ErrBackendUnavailable, err)
	}
	if len(completion.Choices) == 0 {
		return contractx.ClassifyResult{}, fmt.Errorf("%w: empty completion", contractx.ErrBackendUnavailable)
	}

	return parseRemoteOutput(completion.Choices[0].Message.Content, req.AllowedIntents)
}

func buildClassifyPrompt(message string, allowed []contractx.Intent) string {
	labels := make([]string, 0, len(allowed))
	for _, in := range allowed {
		labels = append(labels, string(in))
	}

	var b strings.Builder
	b.WriteString("Allowed intents: ")
	b.WriteString(strings.Join(labels, ", "))
	b.WriteString("\nTools behind these intents:\n")
	for _, info := range tool.Infos() {
		fmt.Fprintf(&b, "- %s: %s\n", info.Name, info.Desc)
	}
	b.WriteString("User message: ")
	b.WriteString(message)
	return b.String()
}

func parseRemoteOutput(content string, allowed []contractx.Intent) (contractx.ClassifyResult, error) {
	raw := extractJSONObject(content)
	if raw == "" {
		return contractx.ClassifyResult{}, fmt.Errorf("%w: backend returned no JSON object", contractx.ErrBackendUnavailable)
	}

	var out remoteOutput
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return contractx.ClassifyResult{}, fmt.Errorf("%w: malformed backend output: %v", contractx.ErrBackendUnavailable, err)
	}

	intent, ok := contractx.ParseIntent(out.Intent)
	if !ok {
		return contractx.ClassifyResult{}, fmt.Errorf("%w: backend produced unknown intent %q", contractx.ErrBackendUnavailable, out.Intent)
	}
	if intent != contractx.IntentUnknown && !allowedSet(allowed)[intent] {
		return contractx.ClassifyResult{}, fmt.Errorf("%w: backend produced disallowed intent %q", contractx.ErrBackendUnavailable, intent)
	}

	slots := make(map[string]string, len(out.Slots))
	for k, v := range out.Slots {
		k = strings.TrimSpace(strings.ToLower(k))
		v = strings.TrimSpace(v)
		if k != "" && v != "" {
			slots[k] = v
		}
	}
	if len(slots) == 0 {
		slots = nil
	}
	return contractx.ClassifyResult{Intent: intent, Slots: slots}, nil
}

// extractJSONObject tolerates models that wrap the object in prose or a
// code fence by slicing from the first '{' to the matching '}'.
func extractJSONObject(content string) string {
	start := strings.IndexByte(content, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	for i := start; i < len(content); i++ {
		switch content[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return content[start : i+1]
			}
		}
	}
	return ""
}
