package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"

	"github.com/aj98-official/Nova/internal/schedule"
)

// Deliver sends a text payload to a channel, splitting it across messages
// when it exceeds Discord's limit. Permanent failures (missing channel or
// permissions) are wrapped as schedule.ErrDeliveryRejected so the scheduler
// does not retry them; everything else is reported as transient.
func (b *Bot) Deliver(ctx context.Context, channelID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	for _, chunk := range SplitMessage(text, maxMessageLength) {
		if _, err := b.session.ChannelMessageSend(channelID, chunk); err != nil {
			if isPermanentSendError(err) {
				return fmt.Errorf("%w: %v", schedule.ErrDeliveryRejected, err)
			}
			return fmt.Errorf("failed to send message: %w", err)
		}
	}
	return nil
}

// isPermanentSendError reports whether a send failure cannot succeed on
// retry: the channel does not exist or the bot lacks access/permissions.
func isPermanentSendError(err error) bool {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return false
	}
	if restErr.Message != nil {
		switch restErr.Message.Code {
		case discordgo.ErrCodeUnknownChannel,
			discordgo.ErrCodeMissingAccess,
			discordgo.ErrCodeMissingPermissions:
			return true
		}
	}
	if restErr.Response != nil {
		code := restErr.Response.StatusCode
		return code == http.StatusForbidden || code == http.StatusNotFound
	}
	return false
}
