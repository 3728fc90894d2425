package generate

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/persistorai/mindmap/internal/models"
)

const systemPrompt = `You build study concept maps from lecture transcripts.
Return the key concepts as nodes and the relations between them as links.
Each node gets a numeric id, a short label, a weight from 1 to 5 for its
importance, a one or two sentence summary and up to three multiple-choice
questions with the index of the correct option. Each link names its source
and target node ids, a weight between 0 and 1 and a short relation phrase
read as "source relation target".`

type generatedGraph struct {
	Nodes []generatedNode `json:"nodes" jsonschema:"description=Key concepts"`
	Links []generatedLink `json:"links" jsonschema:"description=Relations between concepts"`
}

type generatedNode struct {
	ID      int64               `json:"id"`
	Label   string              `json:"label"`
	Weight  int                 `json:"weight" jsonschema:"minimum=1,maximum=5"`
	Summary string              `json:"summary"`
	Quiz    []generatedQuestion `json:"quiz"`
}

type generatedQuestion struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	AnswerIndex int      `json:"answer_index"`
}

type generatedLink struct {
	Source   int64   `json:"source"`
	Target   int64   `json:"target"`
	Weight   float64 `json:"weight"`
	Relation string  `json:"relation"`
}

func (g *generatedGraph) toModel() *models.Graph {
	out := &models.Graph{
		Nodes: make([]*models.Node, 0, len(g.Nodes)),
		Links: make([]*models.Link, 0, len(g.Links)),
	}

	for _, n := range g.Nodes {
		node := &models.Node{
			ID:      models.NumberID(n.ID),
			Label:   n.Label,
			Weight:  float64(n.Weight),
			Summary: n.Summary,
		}

		for _, q := range n.Quiz {
			node.Quiz = append(node.Quiz, models.Question(q))
		}

		out.Nodes = append(out.Nodes, node)
	}

	for _, l := range g.Links {
		out.Links = append(out.Links, &models.Link{
			Source:   models.NumberID(l.Source),
			Target:   models.NumberID(l.Target),
			Weight:   l.Weight,
			Relation: l.Relation,
		})
	}

	return out
}

// OpenAIConfig configures an OpenAIGenerator.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// OpenAIGenerator asks an OpenAI-compatible chat endpoint for a graph using
// structured JSON schema output.
type OpenAIGenerator struct {
	client openai.Client
	model  string
}

// NewOpenAIGenerator creates an OpenAIGenerator.
func NewOpenAIGenerator(cfg OpenAIConfig) *OpenAIGenerator {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIGenerator{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
	}
}

// Name implements Generator.
func (o *OpenAIGenerator) Name() string { return "openai" }

// Generate implements Generator.
func (o *OpenAIGenerator) Generate(ctx context.Context, transcript string) (*models.Graph, error) {
	body := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        "concept_graph",
					Description: openai.String("Concept map extracted from a transcript"),
					Schema:      schemaFor(&generatedGraph{}),
					Strict:      openai.Bool(true),
				},
			},
		},
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(transcript),
		},
		Temperature: openai.Float(0.2),
	}

	resp, err := o.client.Chat.Completions.New(ctx, body)
	if err != nil {
		return nil, fmt.Errorf("requesting completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, errors.New("no choices in model response")
	}

	content := resp.Choices[0].Message.Content
	if content == "" {
		return nil, fmt.Errorf("empty model response (finish_reason: %s)", resp.Choices[0].FinishReason)
	}

	var out generatedGraph
	if err := unmarshalFlexible(content, &out); err != nil {
		return nil, err
	}

	return out.toModel(), nil
}
