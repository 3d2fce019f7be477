package inventory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
)

func TestLedgerTelemetry(t *testing.T) {
	prevTP, prevMP := otel.GetTracerProvider(), otel.GetMeterProvider()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetMeterProvider(prevMP)
	})

	spans := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans)))
	reader := sdkmetric.NewManualReader()
	otel.SetMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))

	f := newFixture(t)
	ctx := context.Background()
	itemID := f.item(t, "Aceite")
	batchID := f.receive(t, itemID, "AC-1", 3).Batch.ID
	_, err := f.ledger.Issue(ctx, inventory.IssueInput{BatchID: batchID, Quantity: 4})
	require.Error(t, err)

	ended := spans.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, "StockLedger.Receive", ended[0].Name())
	assert.Equal(t, "StockLedger.Issue", ended[1].Name())
	assert.Equal(t, codes.Error, ended[1].Status().Code)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	got := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				mt, _ := dp.Attributes.Value(attribute.Key("movement.type"))
				key := m.Name + "/" + mt.AsString()
				if reason, ok := dp.Attributes.Value(attribute.Key("reason")); ok {
					key += "/" + reason.AsString()
				}
				got[key] += dp.Value
			}
		}
	}
	assert.Equal(t, int64(1), got["stock_ledger.movements/receive"])
	assert.Equal(t, int64(1), got["stock_ledger.rejections/issue/insufficient_stock"])
}
