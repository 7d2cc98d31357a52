package announce

import (
	"context"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Handlers process Discord interactions.
type Handlers struct {
	source Board
	logger *slog.Logger
	tracer trace.Tracer
}

// NewHandlers creates new command handlers.
func NewHandlers(source Board, logger *slog.Logger, tp trace.TracerProvider) *Handlers {
	return &Handlers{
		source: source,
		logger: logger,
		tracer: tp.Tracer(instrumentationName),
	}
}

// SlashCommands returns the slash command definitions.
func SlashCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "lot",
			Description: "Show the player under the hammer and the standing bid",
		},
		{
			Name:        "purses",
			Description: "Show every team's remaining purse",
		},
	}
}

// Reply returns the response text for a command name.
func (h *Handlers) Reply(ctx context.Context, name string) string {
	_, span := h.tracer.Start(ctx, "Handlers.Reply",
		trace.WithAttributes(attribute.String("command", name)),
	)
	defer span.End()

	switch name {
	case "lot":
		return FormatLot(h.source.Snapshot())
	case "purses":
		return FormatPurses(h.source.Snapshot())
	default:
		return "Unknown command"
	}
}

// InteractionCreate handles incoming slash command interactions.
func (h *Handlers) InteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	ctx := context.Background()
	name := i.ApplicationCommandData().Name
	msg := h.Reply(ctx, name)

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: msg,
		},
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to respond to interaction",
			slog.String("command", name),
			slog.Any("error", err),
		)
	}
}
