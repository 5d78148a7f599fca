package push

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"barterly/internal/domain/storage"

	"github.com/9ssi7/exponent"
)

// Event names a barter happening worth pushing to a phone. Delivery is
// always best-effort: callers run these in a goroutine and only log errors.
type Event string

const (
	OfferReceived     Event = "OFFER_RECEIVED"
	OfferAccepted     Event = "OFFER_ACCEPTED"
	OfferDeclined     Event = "OFFER_DECLINED"
	TransactionUpdate Event = "TRANSACTION_UPDATE"
	MessageReceived   Event = "MESSAGE_RECEIVED"
)

// SendOfferNotification pushes an offer event to the given user.
func SendOfferNotification(ctx context.Context, sender Sender, store *storage.Container, userID int64, event Event, offerID int64) error {
	var title, body string
	switch event {
	case OfferReceived:
		title = "New Offer"
		body = "Someone made an offer on one of your items"
	case OfferAccepted:
		title = "Offer Accepted"
		body = fmt.Sprintf("Your offer #%d was accepted! 🎉", offerID)
	case OfferDeclined:
		title = "Offer Declined"
		body = fmt.Sprintf("Your offer #%d was declined", offerID)
	default:
		title = "Offer Update"
		body = fmt.Sprintf("Your offer #%d has an update", offerID)
	}

	return publish(ctx, sender, store, userID, title, body, map[string]string{
		"type":    "offer",
		"event":   string(event),
		"offerId": strconv.FormatInt(offerID, 10),
		"screen":  "offers-screen",
	})
}

// SendTransactionNotification pushes a status-change event, quoting the
// human-readable reference code.
func SendTransactionNotification(ctx context.Context, sender Sender, store *storage.Container, userID int64, reference, status string) error {
	title := "Transaction Update"
	body := fmt.Sprintf("Transaction %s is now %s", reference, status)

	return publish(ctx, sender, store, userID, title, body, map[string]string{
		"type":      "transaction",
		"event":     string(TransactionUpdate),
		"reference": reference,
		"status":    status,
		"screen":    "transactions-screen",
	})
}

// SendCustomNotification pushes an arbitrary announcement, used by the
// admin broadcast endpoint.
func SendCustomNotification(ctx context.Context, sender Sender, store *storage.Container, userID int64, title, body string) error {
	return publish(ctx, sender, store, userID, title, body, map[string]string{
		"type":   "announcement",
		"screen": "notifications-screen",
	})
}

// SendMessageNotification pushes a new-message event to the counterparty.
func SendMessageNotification(ctx context.Context, sender Sender, store *storage.Container, userID int64, conversationID int64, fromUsername string) error {
	title := "New Message"
	body := fmt.Sprintf("%s sent you a message", fromUsername)

	return publish(ctx, sender, store, userID, title, body, map[string]string{
		"type":           "message",
		"event":          string(MessageReceived),
		"conversationId": strconv.FormatInt(conversationID, 10),
		"screen":         "chat-screen",
	})
}

func publish(ctx context.Context, sender Sender, store *storage.Container, userID int64, title, body string, data map[string]string) error {
	tokensMap, err := store.PushTokens.GetTokensByUserIDs(ctx, []int64{userID})
	if err != nil {
		return err
	}
	tokens := tokensMap[userID]
	if len(tokens) == 0 {
		return errors.New("no push tokens")
	}

	msgs := make([]*exponent.Message, 0, len(tokens))
	for _, t := range tokens {
		token := exponent.Token(t)
		msgs = append(msgs, &exponent.Message{
			To:    []*exponent.Token{&token},
			Title: title,
			Body:  body,
			Data:  data,
		})
	}

	_, err = sender.Publish(ctx, msgs)
	return err
}
