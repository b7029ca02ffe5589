package http

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/minevox/minevox-server/internal/config"
	"github.com/minevox/minevox-server/internal/core"
	"github.com/minevox/minevox-server/internal/store/sqlite"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.ConnectsPerMinute = 0
	return cfg
}

// startTestServer wires a broker, an in-memory catalog and the router into
// an httptest server.
func startTestServer(t *testing.T, cfg config.Config) (*httptest.Server, *core.Broker) {
	t.Helper()

	logger := zerolog.Nop()
	broker := core.NewBroker(&logger, nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go broker.Run(ctx)

	catalog, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("open catalog: %v", err)
	}
	t.Cleanup(func() { catalog.Close() })

	server := NewServer(broker, catalog, nil, nil, cfg, &logger)
	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return ts, broker
}
