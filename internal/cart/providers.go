package cart

import (
	"github.com/google/wire"

	"github.com/almahra/cart-engine/internal/cart/cache"
	httpDelivery "github.com/almahra/cart-engine/internal/cart/delivery/http"
	cartsync "github.com/almahra/cart-engine/internal/cart/sync"
)

// RemoteURL is the base URL of the remote cart service; empty disables
// remote synchronization
type RemoteURL string

// ProvideSessionManager provides the per-session store manager
func ProvideSessionManager(snap cache.Snapshotter, remoteURL RemoteURL, policy cartsync.FoldPolicy) *httpDelivery.SessionManager {
	return httpDelivery.NewSessionManager(snap, string(remoteURL), policy)
}

// Wire sets
var SessionSet = wire.NewSet(
	ProvideSessionManager,
)
