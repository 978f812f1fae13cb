package cart

import (
	"encoding/base64"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	models "storefront/model"
)

func TestEncodeDecode(t *testing.T) {
	s := Reduce(Initial(), AddItem(item("a", 50000, 2)))
	s = Reduce(s, AddItem(item("b", 30000, 1)))
	s = Reduce(s, SaveShippingAddress(models.ShippingAddress{FullName: "Sari", Address: "Jl. Sudirman 5", City: "Jakarta", PostalCode: "10220", Country: "Indonesia"}))
	s = Reduce(s, SavePaymentMethod("Stripe"))

	value, err := Encode(s)
	require.NoError(t, err)
	assert.NotContains(t, value, ";")
	assert.NotContains(t, value, ",")
	assert.NotContains(t, value, "\"")

	assert.Equal(t, s, Decode(value))
}

func TestEncode_WritesVersionedSchema(t *testing.T) {
	value, err := Encode(Initial())
	require.NoError(t, err)

	raw, err := base64.RawURLEncoding.DecodeString(value)
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":1,"cartItems":[],"shippingAddress":{"fullName":"","address":"","city":"","postalCode":"","country":""},"paymentMethod":""}`, string(raw))
}

func TestDecode_FallsBackToInitial(t *testing.T) {
	cases := map[string]string{
		"empty":           "",
		"garbage":         "not-a-cookie",
		"truncated":       "eyJ2ZXJzaW9uIjox",
		"not json":        base64.RawURLEncoding.EncodeToString([]byte("cart=1")),
		"future version":  base64.RawURLEncoding.EncodeToString([]byte(`{"version":99,"cartItems":[{"slug":"a","quantity":1}]}`)),
		"bad escape":      "%zz",
		"wrong item type": base64.RawURLEncoding.EncodeToString([]byte(`{"cartItems":"oops"}`)),
	}
	for name, value := range cases {
		t.Run(name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				assert.Equal(t, Initial(), Decode(value))
			})
		})
	}
}

func TestDecode_AcceptsLegacyJSON(t *testing.T) {
	legacy := `{"cartItems":[{"slug":"kaos","name":"Kaos","price":75000,"countInStock":4,"quantity":2}],"shippingAddress":{"fullName":"Ani"},"paymentMethod":"PayPal"}`

	for name, value := range map[string]string{
		"raw":     legacy,
		"escaped": url.QueryEscape(legacy),
	} {
		t.Run(name, func(t *testing.T) {
			s := Decode(value)
			require.Len(t, s.Items, 1)
			assert.Equal(t, "kaos", s.Items[0].Slug)
			assert.Equal(t, 2, s.Items[0].Quantity)
			assert.Equal(t, "Ani", s.ShippingAddress.FullName)
			assert.Equal(t, "PayPal", s.PaymentMethod)
		})
	}
}

func TestDecode_NormalizesItems(t *testing.T) {
	raw := `{"version":1,"cartItems":[
		{"slug":"a","price":1,"quantity":1},
		{"slug":"","price":1,"quantity":1},
		{"slug":"b","price":1,"quantity":0},
		{"slug":"c","price":1,"quantity":2},
		{"slug":"a","price":1,"quantity":4}
	]}`
	s := Decode(base64.RawURLEncoding.EncodeToString([]byte(raw)))

	require.Len(t, s.Items, 2)
	assert.Equal(t, "a", s.Items[0].Slug)
	assert.Equal(t, 4, s.Items[0].Quantity)
	assert.Equal(t, "c", s.Items[1].Slug)
}
