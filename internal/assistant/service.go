package assistant

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-b2b/internal/shared"
)

// ErrChatDisabled is returned when no translator is configured.
var ErrChatDisabled = fmt.Errorf("%w: assistant chat is not configured", shared.ErrInvalidState)

// Translator extracts commands from a chat message.
type Translator interface {
	Translate(ctx context.Context, dealerID int64, message string) (*Translation, error)
}

// ChatReply is the response to one chat message.
type ChatReply struct {
	Reply   string   `json:"reply"`
	Results []Result `json:"results"`
}

type Service struct {
	dispatcher *Dispatcher
	translator Translator
	logger     *slog.Logger
}

func NewService(dispatcher *Dispatcher, translator Translator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{dispatcher: dispatcher, translator: translator, logger: logger}
}

// Execute runs a structured command.
func (s *Service) Execute(ctx context.Context, cmd Command) (*Result, error) {
	return s.dispatcher.Execute(ctx, cmd)
}

// Chat translates message and runs the resulting commands in order. It stops
// at the first failing command; earlier results are kept.
func (s *Service) Chat(ctx context.Context, dealerID int64, message string) (*ChatReply, error) {
	if s.translator == nil {
		return nil, ErrChatDisabled
	}
	tr, err := s.translator.Translate(ctx, dealerID, message)
	if err != nil {
		return nil, err
	}
	reply := &ChatReply{Reply: tr.Reply, Results: []Result{}}
	// One key per message so a retried place_order within it reuses the order.
	key := "chat:" + uuid.NewString()
	for _, cmd := range tr.Commands {
		cmd.DealerID = dealerID
		if cmd.Type == CommandPlaceOrder && cmd.IdempotencyKey == "" {
			cmd.IdempotencyKey = key
		}
		res, err := s.dispatcher.Execute(ctx, cmd)
		if err != nil {
			s.logger.Warn("assistant command failed",
				slog.String("type", string(cmd.Type)),
				slog.Int64("dealer_id", dealerID),
				slog.Any("error", err))
			return reply, err
		}
		reply.Results = append(reply.Results, *res)
	}
	return reply, nil
}
