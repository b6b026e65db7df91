package market

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Offers travel as ordinary chat messages whose content is
// "$$OFFER::<amount>::<status>$$". The status inside a stored message is
// never rewritten; responses are separate reply messages.
const (
	offerPrefix = "$$OFFER::"
	offerSuffix = "$$"
	offerSep    = "::"

	// OfferPreview replaces the sentinel in a chat's last_message.
	OfferPreview = "Mengirim penawaran harga"
)

type OfferStatus string

const (
	OfferPending  OfferStatus = "PENDING"
	OfferAccepted OfferStatus = "ACCEPTED"
	OfferRejected OfferStatus = "REJECTED"
)

var (
	ErrNotOffer      = errors.New("message is not an offer")
	ErrInvalidAmount = errors.New("offer amount must be a non-negative whole number")
	ErrInvalidStatus = errors.New("offer response must be ACCEPTED or REJECTED")
)

// Offer is a decoded offer message.
type Offer struct {
	Amount string      `json:"amount"`
	Status OfferStatus `json:"status"`
}

// ParseAmount accepts the amount as typed by the buyer.
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0, ErrInvalidAmount
	}
	return n, nil
}

// EncodeOffer renders a new offer message body.
func EncodeOffer(amount int64, status OfferStatus) string {
	return fmt.Sprintf("%s%d%s%s%s", offerPrefix, amount, offerSep, status, offerSuffix)
}

// IsOffer reports whether content carries an offer sentinel.
func IsOffer(content string) bool {
	return strings.HasPrefix(content, offerPrefix)
}

// ParseOffer decodes an offer message. The amount is kept verbatim; a
// missing status reads as pending.
func ParseOffer(content string) (Offer, error) {
	if !IsOffer(content) {
		return Offer{}, ErrNotOffer
	}
	body := strings.TrimSuffix(strings.TrimPrefix(content, offerPrefix), offerSuffix)
	parts := strings.Split(body, offerSep)

	o := Offer{Amount: parts[0], Status: OfferPending}
	if len(parts) > 1 && parts[1] != "" {
		o.Status = OfferStatus(parts[1])
	}
	return o, nil
}

// ParseResponse validates a seller's response to an offer.
func ParseResponse(s string) (OfferStatus, error) {
	switch st := OfferStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case OfferAccepted, OfferRejected:
		return st, nil
	}
	return "", ErrInvalidStatus
}

// ReplyTo is the chat message sent when an offer is answered.
func ReplyTo(o Offer, status OfferStatus) string {
	if status == OfferAccepted {
		return "✅ Saya menerima penawaran Rp " + o.Amount
	}
	return "❌ Maaf, saya menolak penawaran Rp " + o.Amount
}

// Preview is what a chat list shows for its latest message.
func Preview(content string) string {
	if strings.HasPrefix(content, "$$OFFER") {
		return OfferPreview
	}
	return content
}
