package chat

import (
	"net/url"
	"strings"
)

// LinkBuilder emits deep links into the web front end. The query
// parameter names are part of the contract with the web client.
type LinkBuilder struct {
	base string
}

// NewLinkBuilder creates a builder rooted at the front end's base URL.
func NewLinkBuilder(base string) *LinkBuilder {
	return &LinkBuilder{base: strings.TrimRight(base, "/")}
}

// ApplicationLink builds the continue-on-web URL for a loan application.
func (l *LinkBuilder) ApplicationLink(intent, currency, paymentMethod, categoryID, subcategoryID string) string {
	q := url.Values{}
	if intent != "" {
		q.Set("intent", intent)
	}
	if currency != "" {
		q.Set("currency", currency)
	}
	if paymentMethod != "" {
		q.Set("payment_method", paymentMethod)
	}
	if categoryID != "" {
		q.Set("category", categoryID)
	}
	if subcategoryID != "" {
		q.Set("subcategory", subcategoryID)
	}
	return l.base + "/application?" + q.Encode()
}

// CashPurchaseLink builds the cash-purchase URL.
func (l *LinkBuilder) CashPurchaseLink(currency, purchaseType string) string {
	q := url.Values{}
	if currency != "" {
		q.Set("currency", currency)
	}
	if purchaseType != "" {
		q.Set("type", purchaseType)
	}
	return l.base + "/cash-purchase?" + q.Encode()
}
