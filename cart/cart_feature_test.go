package cart_test

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"github.com/cucumber/godog"
	"github.com/shopspring/decimal"

	"storefront/cart"
	models "storefront/model"
)

type cartTestContext struct {
	state    cart.State
	previous cart.State
	pricing  cart.Pricing
}

func (c *cartTestContext) reset() {
	c.state = cart.Initial()
	c.previous = cart.Initial()
	c.pricing = cart.DefaultPricing()
}

func (c *cartTestContext) dispatch(a cart.Action) {
	c.previous = c.state
	c.state = cart.Reduce(c.state, a)
}

func (c *cartTestContext) anEmptyCart() error {
	c.state = cart.Initial()
	return nil
}

func (c *cartTestContext) pricingRules(threshold, fee int, rate string) error {
	r, err := decimal.NewFromString(rate)
	if err != nil {
		return err
	}
	c.pricing = cart.Pricing{FreeShippingThreshold: int64(threshold), FlatShippingFee: int64(fee), TaxRate: r}
	return nil
}

func (c *cartTestContext) iAdd(slug string, price, qty int) error {
	c.dispatch(cart.AddItem(models.CartItem{Slug: slug, Name: slug, Price: int64(price), CountInStock: 100, Quantity: qty}))
	return nil
}

func (c *cartTestContext) iRemove(slug string) error {
	c.dispatch(cart.RemoveItem(slug))
	return nil
}

func (c *cartTestContext) iSavePaymentMethod(method string) error {
	c.dispatch(cart.SavePaymentMethod(method))
	return nil
}

func (c *cartTestContext) iResetTheCart() error {
	c.dispatch(cart.Reset())
	return nil
}

func (c *cartTestContext) theCartIsRestoredFrom(value string) error {
	c.state = cart.Decode(value)
	return nil
}

func (c *cartTestContext) theCartHasLineItems(n int) error {
	if len(c.state.Items) != n {
		return fmt.Errorf("expected %d line items, got %d", n, len(c.state.Items))
	}
	return nil
}

func (c *cartTestContext) hasQuantity(slug string, qty int) error {
	it, ok := c.state.Find(slug)
	if !ok {
		return fmt.Errorf("%q not in cart", slug)
	}
	if it.Quantity != qty {
		return fmt.Errorf("expected quantity %d for %q, got %d", qty, slug, it.Quantity)
	}
	return nil
}

func (c *cartTestContext) theCartIsUnchanged() error {
	if !reflect.DeepEqual(c.previous, c.state) {
		return fmt.Errorf("expected %+v, got %+v", c.previous, c.state)
	}
	return nil
}

func (c *cartTestContext) theCartIsInitial() error {
	if !reflect.DeepEqual(cart.Initial(), c.state) {
		return fmt.Errorf("expected initial cart, got %+v", c.state)
	}
	return nil
}

func (c *cartTestContext) totalsField(name string, get func(cart.Totals) int64) func(int) error {
	return func(want int) error {
		got := get(cart.Calculate(c.state.Items, c.pricing))
		if got != int64(want) {
			return fmt.Errorf("expected %s %d, got %d", name, want, got)
		}
		return nil
	}
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &cartTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^an empty cart$`, tc.anEmptyCart)
	ctx.Step(`^free shipping above (\d+) with a flat fee of (\d+) and tax rate ([0-9.]+)$`, tc.pricingRules)

	// When steps
	ctx.Step(`^I add "([^"]*)" priced (\d+) with quantity (\d+)$`, tc.iAdd)
	ctx.Step(`^I remove "([^"]*)"$`, tc.iRemove)
	ctx.Step(`^I save payment method "([^"]*)"$`, tc.iSavePaymentMethod)
	ctx.Step(`^I reset the cart$`, tc.iResetTheCart)
	ctx.Step(`^the cart is restored from "([^"]*)"$`, tc.theCartIsRestoredFrom)

	// Then steps
	ctx.Step(`^the cart has (\d+) line items$`, tc.theCartHasLineItems)
	ctx.Step(`^"([^"]*)" has quantity (\d+)$`, tc.hasQuantity)
	ctx.Step(`^the cart is unchanged by the last action$`, tc.theCartIsUnchanged)
	ctx.Step(`^the cart is the initial cart$`, tc.theCartIsInitial)
	ctx.Step(`^the subtotal is (\d+)$`, tc.totalsField("subtotal", func(t cart.Totals) int64 { return t.Subtotal }))
	ctx.Step(`^the shipping fee is (\d+)$`, tc.totalsField("shipping fee", func(t cart.Totals) int64 { return t.ShippingFee }))
	ctx.Step(`^the tax is (\d+)$`, tc.totalsField("tax", func(t cart.Totals) int64 { return t.Tax }))
	ctx.Step(`^the total is (\d+)$`, tc.totalsField("total", func(t cart.Totals) int64 { return t.Total }))
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features/cart.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
