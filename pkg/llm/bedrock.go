package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/hashicorp/go-hclog"

	"github.com/hashicorp-forge/hermes-connectors/internal/logging"
)

// DefaultBedrockRegion is used when no region is configured.
const DefaultBedrockRegion = "us-east-1"

// BedrockConverseAPI defines the interface for Bedrock Converse operations.
// This allows for testing with mocks.
type BedrockConverseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// BedrockClient generates completions with the Bedrock Converse API.
type BedrockClient struct {
	client BedrockConverseAPI
	model  string
	logger hclog.Logger
}

// BedrockConfig holds configuration for the Bedrock client.
type BedrockConfig struct {
	Region string // Default: us-east-1
	Model  string // Model used when a call names none
	Logger hclog.Logger

	// Static credentials. When unset the default AWS chain is used.
	AccessKey string
	SecretKey string

	// Client replaces the SDK client, mainly for tests.
	Client BedrockConverseAPI
}

// NewBedrockClient creates a new Bedrock client.
func NewBedrockClient(ctx context.Context, cfg BedrockConfig) (*BedrockClient, error) {
	if cfg.Region == "" {
		cfg.Region = DefaultBedrockRegion
	}

	api := cfg.Client
	if api == nil {
		opts := []func(*config.LoadOptions) error{
			config.WithRegion(cfg.Region),
		}
		if cfg.AccessKey != "" && cfg.SecretKey != "" {
			opts = append(opts, config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
			))
		}

		awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		api = bedrockruntime.NewFromConfig(awsCfg)
	}

	return &BedrockClient{
		client: api,
		model:  cfg.Model,
		logger: logging.Named(cfg.Logger, "bedrock-client", ""),
	}, nil
}

func (c *BedrockClient) Name() string {
	return "bedrock"
}

// Generate returns the completion for messages. System messages become the
// Converse system prompt.
func (c *BedrockClient) Generate(ctx context.Context, messages []Message, opts ...Option) (string, error) {
	o := NewOptions(opts...)
	model := o.Model
	if model == "" {
		model = c.model
	}

	system, conversation := splitSystem(Normalize(messages))
	if o.JSONMode {
		system = strings.TrimSpace(system + "\n\nRespond with a single JSON object and nothing else.")
	}

	input := &bedrockruntime.ConverseInput{
		ModelId:  aws.String(model),
		Messages: make([]types.Message, 0, len(conversation)),
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens:   aws.Int32(int32(o.MaxTokens)),
			Temperature: aws.Float32(float32(o.Temperature)),
		},
	}
	for _, m := range conversation {
		role := types.ConversationRoleUser
		if strings.EqualFold(m.Role, "assistant") {
			role = types.ConversationRoleAssistant
		}
		input.Messages = append(input.Messages, types.Message{
			Role:    role,
			Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: m.Content}},
		})
	}
	if system != "" {
		input.System = []types.SystemContentBlock{
			&types.SystemContentBlockMemberText{Value: system},
		}
	}

	c.logger.Debug("sending request to Bedrock", "model", model, "messages", len(input.Messages))

	resp, err := c.client.Converse(ctx, input)
	if err != nil {
		return "", &Error{Provider: c.Name(), Err: fmt.Errorf("failed to call Bedrock Converse API: %w", err)}
	}

	message, ok := resp.Output.(*types.ConverseOutputMemberMessage)
	if !ok || message == nil || len(message.Value.Content) == 0 {
		return "", &Error{Provider: c.Name(), Err: fmt.Errorf("no message content in Bedrock response")}
	}

	var text strings.Builder
	for _, block := range message.Value.Content {
		if textBlock, ok := block.(*types.ContentBlockMemberText); ok {
			text.WriteString(textBlock.Value)
		}
	}
	if text.Len() == 0 {
		return "", &Error{Provider: c.Name(), Err: fmt.Errorf("empty response from Bedrock")}
	}
	return text.String(), nil
}

// Stream delivers the full completion as a single chunk.
func (c *BedrockClient) Stream(ctx context.Context, messages []Message, onChunk func(string), opts ...Option) (string, error) {
	return streamOnce(ctx, c, messages, onChunk, opts...)
}
