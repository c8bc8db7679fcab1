package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// DefaultModel is used when no Gemini model is configured.
const DefaultModel = "gemini-2.0-flash-001"

const systemPrompt = `You help a B2B dealer fill their cart and place orders.
Use add_to_cart for every product the dealer asks for, one call per SKU.
Use place_order only when the dealer clearly asks to submit the order.
You cannot change prices, discounts or document statuses. Say so if asked.`

var tools = []*genai.Tool{{
	FunctionDeclarations: []*genai.FunctionDeclaration{
		{
			Name:        string(CommandAddToCart),
			Description: "Add a catalog product to the dealer's cart by SKU.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"sku":      {Type: genai.TypeString, Description: "Product SKU"},
					"quantity": {Type: genai.TypeInteger, Description: "Units to add"},
				},
				Required: []string{"sku", "quantity"},
			},
		},
		{
			Name:        string(CommandPlaceOrder),
			Description: "Check out the dealer's current cart as a purchase order.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"dealer_reference": {Type: genai.TypeString, Description: "Dealer's own PO reference"},
					"shipping_address": {Type: genai.TypeString, Description: "Delivery address if it differs from the default"},
					"notes":            {Type: genai.TypeString, Description: "Free text for the sales team"},
				},
			},
		},
	},
}}

// Translation is what a translator extracted from one chat message.
type Translation struct {
	Reply    string
	Commands []Command
}

// GeminiTranslator maps chat messages to commands with Gemini function calling.
type GeminiTranslator struct {
	client *genai.Client
	model  string
}

func NewGeminiTranslator(ctx context.Context, apiKey, model string) (*GeminiTranslator, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &GeminiTranslator{client: client, model: model}, nil
}

func (g *GeminiTranslator) Close() error {
	return g.client.Close()
}

// Translate asks the model for function calls. The calls are returned as
// commands and never executed here.
func (g *GeminiTranslator) Translate(ctx context.Context, dealerID int64, message string) (*Translation, error) {
	model := g.client.GenerativeModel(g.model)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt)}}
	model.Tools = tools

	resp, err := model.GenerateContent(ctx, genai.Text(message))
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}
	var parts []genai.Part
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		parts = resp.Candidates[0].Content.Parts
	}
	return translateParts(dealerID, parts)
}

func translateParts(dealerID int64, parts []genai.Part) (*Translation, error) {
	out := &Translation{}
	var text []string
	for _, part := range parts {
		switch p := part.(type) {
		case genai.Text:
			text = append(text, string(p))
		case genai.FunctionCall:
			cmd, err := commandFromCall(dealerID, p)
			if err != nil {
				return nil, err
			}
			out.Commands = append(out.Commands, cmd)
		}
	}
	out.Reply = strings.TrimSpace(strings.Join(text, "\n"))
	return out, nil
}

func commandFromCall(dealerID int64, call genai.FunctionCall) (Command, error) {
	cmd := Command{Type: CommandType(call.Name), DealerID: dealerID}
	var payload any
	switch cmd.Type {
	case CommandAddToCart:
		sku, _ := call.Args["sku"].(string)
		qty, _ := call.Args["quantity"].(float64)
		payload = AddToCartPayload{SKU: sku, Quantity: int(qty)}
	case CommandPlaceOrder:
		payload = PlaceOrderPayload{
			DealerReference: stringArg(call.Args, "dealer_reference"),
			ShippingAddress: stringArg(call.Args, "shipping_address"),
			Notes:           stringArg(call.Args, "notes"),
		}
	default:
		return Command{}, fmt.Errorf("model requested unknown function %q", call.Name)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Command{}, err
	}
	cmd.Payload = raw
	return cmd, nil
}

func stringArg(args map[string]any, name string) *string {
	v, ok := args[name].(string)
	if !ok || strings.TrimSpace(v) == "" {
		return nil
	}
	return &v
}
