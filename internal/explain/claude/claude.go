package claude

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/liushuangls/go-anthropic/v2"

	"github.com/vbonduro/explainui/internal/explain"
)

// maxTokens leaves room for a title and a few sentences of note.
const maxTokens = 512

type Drafter struct {
	client *anthropic.Client
	model  string
}

// New returns a Drafter for the Anthropic Messages API. baseURL may be empty
// to use the public endpoint.
func New(apiKey, model, baseURL string) *Drafter {
	var opts []anthropic.ClientOption
	if baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(baseURL))
	}
	return &Drafter{
		client: anthropic.NewClient(apiKey, opts...),
		model:  model,
	}
}

func (d *Drafter) Draft(ctx context.Context, req explain.Request) (*explain.Draft, error) {
	if len(req.Image) == 0 {
		return nil, fmt.Errorf("failed to draft note: empty image")
	}

	source := anthropic.NewMessageContentSource(
		anthropic.MessagesContentSourceTypeBase64,
		req.MimeType,
		base64.StdEncoding.EncodeToString(req.Image),
	)

	resp, err := d.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(d.model),
		MaxTokens: maxTokens,
		Messages: []anthropic.Message{{
			Role: anthropic.RoleUser,
			Content: []anthropic.MessageContent{
				anthropic.NewImageMessageContent(source),
				anthropic.NewTextMessageContent(explain.Prompt(req)),
			},
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to call claude: %w", err)
	}

	return explain.ParseResponse(resp.GetFirstContentText()), nil
}
