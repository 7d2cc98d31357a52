// Package announce posts auction outcomes to a Discord channel and answers
// slash commands about the running auction.
package announce

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jensholdgaard/auctiondesk/internal/auction"
	"github.com/jensholdgaard/auctiondesk/internal/team"
)

const instrumentationName = "github.com/jensholdgaard/auctiondesk/internal/announce"

// Board reads the current auction state.
type Board interface {
	Snapshot() auction.Snapshot
}

// Source is the read side of auction.Manager.
type Source interface {
	Board
	Follow() *auction.Feed
}

// Sender posts embeds to a channel. *discordgo.Session satisfies it.
type Sender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Announcer posts every lot closed after Run starts, once and in order.
type Announcer struct {
	source    Source
	sender    Sender
	channelID string
	logger    *slog.Logger
	tracer    trace.Tracer
}

// NewAnnouncer creates an Announcer posting to channelID.
func NewAnnouncer(source Source, sender Sender, channelID string, logger *slog.Logger, tp trace.TracerProvider) *Announcer {
	return &Announcer{
		source:    source,
		sender:    sender,
		channelID: channelID,
		logger:    logger,
		tracer:    tp.Tracer(instrumentationName),
	}
}

// Run posts announcements until ctx is done. Lots closed while a post is in
// flight queue up behind it.
func (a *Announcer) Run(ctx context.Context) {
	feed := a.source.Follow()
	defer feed.Close()

	for {
		action, err := feed.Next(ctx)
		if err != nil {
			return
		}
		a.post(ctx, action)
	}
}

func (a *Announcer) post(ctx context.Context, action auction.Action) {
	ctx, span := a.tracer.Start(ctx, "Announcer.post",
		trace.WithAttributes(
			attribute.String("kind", string(action.Kind)),
			attribute.String("title", action.Title),
		),
	)
	defer span.End()

	if _, err := a.sender.ChannelMessageSendEmbed(a.channelID, Embed(action)); err != nil {
		a.logger.ErrorContext(ctx, "failed to post announcement",
			slog.String("title", action.Title),
			slog.Any("error", err),
		)
		return
	}
	a.logger.InfoContext(ctx, "announcement posted", slog.String("title", action.Title))
}

// Embed renders a closed lot as a Discord embed.
func Embed(action auction.Action) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       action.Title,
		Description: action.Subtitle,
		Color:       hexColor(action.Color),
	}
}

// hexColor parses "#RRGGBB"; anything else yields 0 (Discord's default).
func hexColor(s string) int {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return 0
	}
	v, err := strconv.ParseInt(s, 16, 32)
	if err != nil {
		return 0
	}
	return int(v)
}

// FormatLot describes the lot under the hammer.
func FormatLot(snap auction.Snapshot) string {
	if snap.Complete() {
		return "The auction is complete."
	}
	p := snap.Player
	var b strings.Builder
	fmt.Fprintf(&b, "**Lot %d of %d: %s**\n", snap.Lot+1, snap.Total, p.Name)
	fmt.Fprintf(&b, "%s, %s (%s)\n", p.Role, p.Country, p.Set)
	fmt.Fprintf(&b, "Base price ₹%s Cr\n", team.FormatCrores(p.BasePrice))
	if snap.Holder != nil && *snap.Holder < len(snap.Teams) {
		fmt.Fprintf(&b, "Current bid ₹%s Cr by **%s**", team.FormatCrores(snap.Bid), snap.Teams[*snap.Holder].Name)
	} else {
		b.WriteString("No bids yet")
	}
	return b.String()
}

// FormatPurses lists every team's remaining purse.
func FormatPurses(snap auction.Snapshot) string {
	var b strings.Builder
	b.WriteString("**Purses:**\n")
	for _, t := range snap.Teams {
		fmt.Fprintf(&b, "%s: ₹%s Cr (%d players, %d overseas)\n",
			t.Name, t.Budget.StringFixed(2), t.SlotsFilled, t.Overseas)
	}
	return b.String()
}
