package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/Lejla94/lxp2p/config"
	"github.com/Lejla94/lxp2p/pkg/types"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.ConnectionOpened(DirectionInbound)
	m.ConnectionOpened(DirectionOutbound)
	m.ConnectionClosed()
	m.MessageReceived(types.DeliveryUni, false)
	m.MessageReceived(types.DeliveryUni, true)
	m.MessageReceived(types.DeliveryDatagram, false)
	m.MessageSent(types.DeliveryBi)
	m.HandlerFailed(types.DeliveryBi)
	m.DatagramDropped()
	m.DatagramDropped()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.connsActive))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.connsTotal.WithLabelValues("inbound")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.msgsReceived.WithLabelValues("uni")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.msgsTruncated.WithLabelValues("uni")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.msgsReceived.WithLabelValues("datagram")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.msgsSent.WithLabelValues("bi")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.handlerErrors.WithLabelValues("bi")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.datagramsDropped))
}

func TestMetrics_Exposition(t *testing.T) {
	m := New()
	m.DatagramDropped()

	expected := `
# HELP lxp2p_datagrams_dropped_total Inbound datagrams dropped because the per-connection queue was full.
# TYPE lxp2p_datagrams_dropped_total counter
lxp2p_datagrams_dropped_total 1
`
	err := testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "lxp2p_datagrams_dropped_total")
	require.NoError(t, err)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ConnectionOpened(DirectionInbound)
		m.ConnectionClosed()
		m.MessageReceived(types.DeliveryUni, true)
		m.MessageSent(types.DeliveryUni)
		m.HandlerFailed(types.DeliveryUni)
		m.DatagramDropped()
	})
	assert.Nil(t, m.Registry())
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.MessageSent(types.DeliveryUni)
	assert.Equal(t, 0.0, testutil.ToFloat64(b.msgsSent.WithLabelValues("uni")))
}

func TestModule(t *testing.T) {
	t.Run("启用", func(t *testing.T) {
		var m *Metrics
		app := fxtest.New(t,
			fx.Supply(config.NewConfig()),
			Module(),
			fx.Populate(&m),
		)
		app.RequireStart()
		defer app.RequireStop()
		assert.NotNil(t, m)
	})

	t.Run("禁用", func(t *testing.T) {
		cfg := config.NewConfig()
		cfg.Metrics.Enabled = false

		var m *Metrics
		app := fxtest.New(t,
			fx.Supply(cfg),
			Module(),
			fx.Populate(&m),
		)
		app.RequireStart()
		defer app.RequireStop()
		assert.Nil(t, m)
	})
}
