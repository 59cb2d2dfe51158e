package sync

import (
	"context"
	"fmt"
	"sync"

	"github.com/almahra/cart-engine/internal/cart/domain"
	"github.com/almahra/cart-engine/internal/cart/store"
	"github.com/almahra/cart-engine/pkg/logger"
)

// FoldPolicy selects how a login-time remote fetch is folded into local state
type FoldPolicy int

const (
	// FoldMerge folds remote items into the existing local cart with ordinary
	// AddItem transitions, then pushes the merged result back to the remote
	// side. A guest cart built before login survives.
	FoldMerge FoldPolicy = iota

	// FoldReplace clears local state and replays the remote items, discarding
	// any guest cart. This is the storefront's historical behavior.
	FoldReplace
)

const defaultQueueSize = 64

type remoteOp struct {
	name string
	call func(ctx context.Context) error
}

// Synchronizer mirrors local cart transitions to the remote cart service for
// authenticated sessions. Mirroring is best effort by policy: ops are issued
// in transition order by a single dispatcher, failures are logged and
// dropped, and nothing is ever rolled back locally. Divergence is corrected
// at the next login fold.
type Synchronizer struct {
	client RemoteCart
	policy FoldPolicy

	mu            sync.Mutex
	authenticated bool
	closed        bool

	ops       chan remoteOp
	done      chan struct{}
	closeOnce sync.Once
}

// NewSynchronizer creates a synchronizer in the Unauthenticated state and
// starts its dispatcher.
func NewSynchronizer(client RemoteCart, policy FoldPolicy) *Synchronizer {
	s := &Synchronizer{
		client: client,
		policy: policy,
		ops:    make(chan remoteOp, defaultQueueSize),
		done:   make(chan struct{}),
	}
	go s.dispatch()
	return s
}

// dispatch drains the op queue one op at a time, preserving issue order.
// Each call carries its own timeout, so a slow remote cannot stall the queue
// beyond that bound. Remote ops are self-describing (absolute quantities,
// additive adds), so a reordering-tolerant dispatcher would remain correct.
func (s *Synchronizer) dispatch() {
	defer close(s.done)

	for op := range s.ops {
		ctx := context.Background()
		if err := op.call(ctx); err != nil {
			logger.Warn(ctx).
				Err(err).
				Str("op", op.name).
				Msg("Remote cart sync failed, dropping op")
		}
	}
}

// enqueue queues an op for the dispatcher. The lock is held across the send
// so a concurrent Close cannot close the channel mid-send.
func (s *Synchronizer) enqueue(ctx context.Context, op remoteOp) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		logger.Warn(ctx).
			Str("op", op.name).
			Msg("Remote cart sync closed, dropping op")
		return
	}

	select {
	case s.ops <- op:
	default:
		// never block a local transition on a full queue
		logger.Warn(ctx).
			Str("op", op.name).
			Msg("Remote cart sync queue full, dropping op")
	}
}

// Authenticated reports whether remote mirroring is active
func (s *Synchronizer) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

func (s *Synchronizer) setAuthenticated(v bool) {
	s.mu.Lock()
	s.authenticated = v
	s.mu.Unlock()
}

// Mirror translates an applied transition into a remote cart op and queues
// it. Unauthenticated sessions are a no-op. Mirror never blocks.
func (s *Synchronizer) Mirror(ctx context.Context, t domain.Transition) {
	if !s.Authenticated() {
		return
	}

	switch tr := t.(type) {
	case domain.AddItem:
		productID := tr.Product.ID
		variantID := variantIDPtr(tr.Variant)
		quantity := tr.Quantity
		s.enqueue(ctx, remoteOp{name: "add_item", call: func(ctx context.Context) error {
			return s.client.AddItem(ctx, productID, variantID, quantity)
		}})

	case domain.RemoveItem:
		productID, variantID, ok := s.decompose(ctx, tr.Identity)
		if !ok {
			return
		}
		s.enqueue(ctx, remoteOp{name: "remove_item", call: func(ctx context.Context) error {
			return s.client.RemoveItem(ctx, productID, variantID)
		}})

	case domain.UpdateQuantity:
		productID, variantID, ok := s.decompose(ctx, tr.Identity)
		if !ok {
			return
		}
		if tr.Quantity <= 0 {
			// the store treats this as a removal; mirror the same
			s.enqueue(ctx, remoteOp{name: "remove_item", call: func(ctx context.Context) error {
				return s.client.RemoveItem(ctx, productID, variantID)
			}})
			return
		}
		quantity := tr.Quantity
		s.enqueue(ctx, remoteOp{name: "update_item", call: func(ctx context.Context) error {
			return s.client.UpdateItem(ctx, productID, variantID, quantity)
		}})

	case domain.ClearCart:
		s.enqueue(ctx, remoteOp{name: "clear_cart", call: func(ctx context.Context) error {
			return s.client.Clear(ctx)
		}})

	case domain.ToggleVisibility:
		// UI-only, nothing to mirror
	}
}

// Login transitions the session to Authenticated: the remote cart is fetched
// and folded into the store per the fold policy. Fold transitions are
// dispatched before mirroring turns on, so they are not echoed back to the
// remote service.
func (s *Synchronizer) Login(ctx context.Context, st *store.Store) error {
	items, err := s.client.GetCart(ctx)
	if err != nil {
		// mirroring still turns on: local mutations flow to the remote side
		// even though this fold was lost
		s.setAuthenticated(true)
		return fmt.Errorf("failed to fetch remote cart at login: %w", err)
	}

	switch s.policy {
	case FoldReplace:
		st.Dispatch(ctx, domain.ClearCart{})
		for _, item := range items {
			st.Dispatch(ctx, addFromRemote(item))
		}
		s.setAuthenticated(true)

	case FoldMerge:
		remoteIdentities := make(map[string]bool, len(items))
		for _, item := range items {
			remoteIdentities[domain.NewIdentity(item.Product.ID, item.Variant)] = true
			st.Dispatch(ctx, addFromRemote(item))
		}
		s.setAuthenticated(true)

		// push the merged result so both sides converge
		for _, item := range st.Items() {
			productID, variantID, ok := s.decompose(ctx, item.ID)
			if !ok {
				continue
			}
			quantity := item.Quantity
			if remoteIdentities[item.ID] {
				s.enqueue(ctx, remoteOp{name: "update_item", call: func(ctx context.Context) error {
					return s.client.UpdateItem(ctx, productID, variantID, quantity)
				}})
			} else {
				s.enqueue(ctx, remoteOp{name: "add_item", call: func(ctx context.Context) error {
					return s.client.AddItem(ctx, productID, variantID, quantity)
				}})
			}
		}
	}

	logger.Info(ctx).
		Int("remote_items", len(items)).
		Int("local_items", len(st.Items())).
		Msg("Remote cart folded at login")

	return nil
}

// Logout returns the session to Unauthenticated. Local cart state is left
// untouched.
func (s *Synchronizer) Logout() {
	s.setAuthenticated(false)
}

// Close stops the dispatcher after draining queued ops. Transitions
// mirrored after Close are dropped rather than sent.
func (s *Synchronizer) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.ops)
	})
	<-s.done
}

func (s *Synchronizer) decompose(ctx context.Context, identity string) (uint, *uint, bool) {
	productID, variantID, hasVariant, err := domain.DecomposeIdentity(identity)
	if err != nil {
		logger.Error(ctx).
			Err(err).
			Str("identity", identity).
			Msg("Cannot mirror transition with malformed identity")
		return 0, nil, false
	}
	if !hasVariant {
		return productID, nil, true
	}
	return productID, &variantID, true
}

func variantIDPtr(v *domain.Variant) *uint {
	if v == nil {
		return nil
	}
	id := v.ID
	return &id
}

func addFromRemote(item RemoteItem) domain.AddItem {
	product := item.Product
	if item.Price > 0 {
		// the remote line price is the captured unit price, not the current
		// catalog price
		product.Price = item.Price
	}
	return domain.AddItem{Product: product, Variant: item.Variant, Quantity: item.Quantity}
}
