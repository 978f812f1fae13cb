package cart

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	models "storefront/model"
)

// SchemaVersion is the version written by Encode.
const SchemaVersion = 1

type envelope struct {
	Version         int                    `json:"version"`
	CartItems       []models.CartItem      `json:"cartItems"`
	ShippingAddress models.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod"`
}

// Encode serialises s into a cookie-safe string.
func Encode(s State) (string, error) {
	items := s.Items
	if items == nil {
		items = []models.CartItem{}
	}
	raw, err := json.Marshal(envelope{
		Version:         SchemaVersion,
		CartItems:       items,
		ShippingAddress: s.ShippingAddress,
		PaymentMethod:   s.PaymentMethod,
	})
	if err != nil {
		return "", fmt.Errorf("encode cart: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// Decode restores a State written by Encode. Anything it cannot read,
// including a newer schema version, decodes to Initial(). Unversioned JSON,
// as older clients wrote it URL-escaped into the cookie, is read as version 1.
func Decode(value string) State {
	s, err := decode(value)
	if err != nil {
		return Initial()
	}
	return s
}

func decode(value string) (State, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return State{}, fmt.Errorf("empty value")
	}

	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		// legacy cookies hold the JSON directly, possibly URL-escaped
		unescaped, uerr := url.QueryUnescape(value)
		if uerr != nil {
			return State{}, fmt.Errorf("decode cart: %w", err)
		}
		raw = []byte(unescaped)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return State{}, fmt.Errorf("decode cart: %w", err)
	}
	if env.Version == 0 {
		env.Version = 1
	}
	if env.Version > SchemaVersion {
		return State{}, fmt.Errorf("decode cart: unsupported version %d", env.Version)
	}

	return State{
		Items:           normalizeItems(env.CartItems),
		ShippingAddress: env.ShippingAddress,
		PaymentMethod:   env.PaymentMethod,
	}, nil
}

// normalizeItems drops unusable lines and collapses duplicate slugs, keeping
// the first position and the last entry.
func normalizeItems(in []models.CartItem) []models.CartItem {
	out := make([]models.CartItem, 0, len(in))
	index := make(map[string]int, len(in))
	for _, it := range in {
		if it.Slug == "" || it.Quantity < 1 || it.Price < 0 {
			continue
		}
		if i, ok := index[it.Slug]; ok {
			out[i] = it
			continue
		}
		index[it.Slug] = len(out)
		out = append(out, it)
	}
	return out
}
