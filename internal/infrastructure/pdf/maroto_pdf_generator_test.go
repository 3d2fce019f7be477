package pdf

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

func TestGenerateExpiryReport(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	soon := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)
	past := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	batches := []repository.BatchView{
		{StockBatch: entity.StockBatch{ID: "b1", BatchNumber: "L-001", ExpiryDate: &past, CurrentQuantity: 12}, ItemName: "Leche", ItemSKU: "LEC-1"},
		{StockBatch: entity.StockBatch{ID: "b2", BatchNumber: "L-002", ExpiryDate: &soon, CurrentQuantity: 2500}, ItemName: "Yogur", ItemSKU: "YOG-1"},
	}

	g := NewMarotoPDFGenerator("Bodega Central")
	out, err := g.GenerateExpiryReport(context.Background(), now, 30, batches)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestGenerateExpiryReport_Empty(t *testing.T) {
	g := NewMarotoPDFGenerator("")
	out, err := g.GenerateExpiryReport(context.Background(), time.Now(), 0, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestFormatThousands(t *testing.T) {
	cases := map[int64]string{
		0:        "0",
		999:      "999",
		1000:     "1.000",
		25000:    "25.000",
		1000000:  "1.000.000",
		-1234567: "-1.234.567",
	}
	for in, want := range cases {
		assert.Equal(t, want, formatThousands(in))
	}
}
