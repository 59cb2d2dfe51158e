//go:build wireinject
// +build wireinject

package cart

import (
	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/almahra/cart-engine/internal/cart/cache"
	httpDelivery "github.com/almahra/cart-engine/internal/cart/delivery/http"
	cartsync "github.com/almahra/cart-engine/internal/cart/sync"
	"github.com/almahra/cart-engine/kafka"
)

// InitializeCartHandler initializes the HTTP handler with all dependencies
func InitializeCartHandler(
	snap cache.Snapshotter,
	remoteURL RemoteURL,
	policy cartsync.FoldPolicy,
	publisher *kafka.Publisher,
	reg prometheus.Registerer,
) (*httpDelivery.CartHandler, error) {
	wire.Build(
		SessionSet,
		httpDelivery.NewCartHandler,
	)
	return nil, nil
}
