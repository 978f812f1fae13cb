package cart

import (
	"context"

	"go.uber.org/zap"
)

// Storage keeps the encoded cart of one session. Load returns "" when
// nothing has been stored yet.
type Storage interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, value string) error
	Clear(ctx context.Context) error
}

// Container is the single owner of a session's cart. All changes go through
// Dispatch; readers get copies from State.
type Container struct {
	state   State
	storage Storage
	log     *zap.Logger
}

// Hydrate restores the cart kept in storage. A missing or unreadable cart
// starts the session empty.
func Hydrate(ctx context.Context, storage Storage, log *zap.Logger) *Container {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Container{state: Initial(), storage: storage, log: log}

	value, err := storage.Load(ctx)
	if err != nil {
		log.Warn("cart load failed, starting empty", zap.Error(err))
		return c
	}
	if value == "" {
		return c
	}
	c.state = Decode(value)
	return c
}

// State returns a copy of the current cart.
func (c *Container) State() State {
	return c.state.Clone()
}

// Dispatch applies a and persists the result. A failed write is logged and
// otherwise ignored; the in-memory state keeps the change.
func (c *Container) Dispatch(ctx context.Context, a Action) State {
	c.state = Reduce(c.state, a)
	c.persist(ctx)
	return c.State()
}

// Logout empties the cart and removes it from storage.
func (c *Container) Logout(ctx context.Context) {
	c.state = Reduce(c.state, Reset())
	if err := c.storage.Clear(ctx); err != nil {
		c.log.Warn("cart clear failed", zap.Error(err))
	}
}

func (c *Container) persist(ctx context.Context) {
	value, err := Encode(c.state)
	if err != nil {
		c.log.Warn("cart encode failed", zap.Error(err))
		return
	}
	if err := c.storage.Save(ctx, value); err != nil {
		c.log.Warn("cart save failed", zap.Error(err), zap.Int("size", len(value)))
	}
}
