package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/application/usecase"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/stock-ledger/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/stock-ledger/pkg/jwt"
)

type fakeReport struct{}

func (fakeReport) GenerateExpiryReport(context.Context, time.Time, int, []repository.BatchView) ([]byte, error) {
	return []byte("%PDF-1.4"), nil
}

type testServer struct {
	app    *fiber.App
	itemID string
}

func newTestServer(t *testing.T, secret string) *testServer {
	t.Helper()
	s := memory.NewStore()
	itemRepo := memory.NewItemRepository(s)
	query := inventory.NewStockQueryUseCase(memory.NewBatchRepository(s), memory.NewMovementRepository(s))
	itemUC := usecase.NewItemUseCase(itemRepo)

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		AppName:      "stock-ledger-test",
		ItemUC:       itemUC,
		Ledger:       inventory.NewStockLedgerUseCase(memory.NewTxRunner(s), itemRepo, zerolog.Nop()),
		Query:        query,
		ExpiryReport: inventory.NewExpiryReportUseCase(query, fakeReport{}),
		JWTSecret:    secret,
		Log:          zerolog.Nop(),
	})

	item, err := itemUC.Create(context.Background(), dto.CreateItemRequest{Name: "Arroz 1kg", SKU: "ARZ-1"})
	require.NoError(t, err)
	return &testServer{app: app, itemID: item.ID}
}

func (ts *testServer) do(t *testing.T, method, path string, body any, headers ...string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (ts *testServer) receive(t *testing.T, batch string, qty int64, expiry string) dto.LedgerResponse {
	t.Helper()
	body := map[string]any{"itemId": ts.itemID, "batchNumber": batch, "quantity": qty}
	if expiry != "" {
		body["expiryDate"] = expiry
	}
	resp := ts.do(t, http.MethodPost, "/api/stock/receive", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[dto.LedgerResponse](t, resp)
}

func TestStockHandler_ReceiveIssueAdjust(t *testing.T) {
	ts := newTestServer(t, "")

	res := ts.receive(t, "L-001", 100, "2030-12-31")
	assert.Equal(t, int64(100), res.Batch.CurrentQuantity)
	assert.Equal(t, "receive", res.Movement.MovementType)
	require.NotNil(t, res.Batch.ExpiryDate)
	assert.Equal(t, "2030-12-31", res.Batch.ExpiryDate.Format(dto.DateLayout))
	batchID := res.Batch.ID

	resp := ts.do(t, http.MethodPost, "/api/stock/issue", map[string]any{"batchId": batchID, "quantity": 30, "reference": "OV-9"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	issued := decode[dto.LedgerResponse](t, resp)
	assert.Equal(t, int64(70), issued.Batch.CurrentQuantity)
	assert.Equal(t, int64(-30), issued.Movement.Quantity)

	resp = ts.do(t, http.MethodPost, "/api/stock/adjust", map[string]any{"batchId": batchID, "adjustmentQuantity": -5})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	adjusted := decode[dto.LedgerResponse](t, resp)
	assert.Equal(t, "write_off", adjusted.Movement.MovementType)
	assert.Equal(t, int64(65), adjusted.Batch.CurrentQuantity)

	resp = ts.do(t, http.MethodGet, "/api/stock/movements?batchId="+batchID+"&sortDirection=asc", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	movs := decode[[]dto.MovementResponse](t, resp)
	require.Len(t, movs, 3)
	assert.Equal(t, "receive", movs[0].MovementType)
	assert.Equal(t, "Arroz 1kg", movs[0].ItemName)

	resp = ts.do(t, http.MethodGet, "/api/stock/movements?reference=OV", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]dto.MovementResponse](t, resp), 1)
}

func TestStockHandler_ErrorMapping(t *testing.T) {
	ts := newTestServer(t, "")
	batchID := ts.receive(t, "L-1", 10, "").Batch.ID

	cases := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{"cantidad cero", http.MethodPost, "/api/stock/receive", map[string]any{"itemId": ts.itemID, "batchNumber": "X", "quantity": 0}, http.StatusBadRequest, "VALIDATION"},
		{"artículo inexistente", http.MethodPost, "/api/stock/receive", map[string]any{"itemId": "nope", "batchNumber": "X", "quantity": 1}, http.StatusNotFound, "NOT_FOUND"},
		{"stock insuficiente", http.MethodPost, "/api/stock/issue", map[string]any{"batchId": batchID, "quantity": 11}, http.StatusConflict, "INSUFFICIENT_STOCK"},
		{"ajuste negativo excesivo", http.MethodPost, "/api/stock/adjust", map[string]any{"batchId": batchID, "adjustmentQuantity": -11}, http.StatusConflict, "NEGATIVE_STOCK"},
		{"ajuste cero", http.MethodPost, "/api/stock/adjust", map[string]any{"batchId": batchID, "adjustmentQuantity": 0}, http.StatusBadRequest, "VALIDATION"},
		{"lote inexistente", http.MethodGet, "/api/stock/batches/nope", nil, http.StatusNotFound, "NOT_FOUND"},
		{"hasStock inválido", http.MethodGet, "/api/stock/batches?hasStock=maybe", nil, http.StatusBadRequest, "VALIDATION"},
		{"sortBy inválido", http.MethodGet, "/api/stock/batches?sortBy=price", nil, http.StatusBadRequest, "VALIDATION"},
		{"days negativo", http.MethodGet, "/api/stock/expiring?days=-1", nil, http.StatusBadRequest, "VALIDATION"},
		{"fecha inválida", http.MethodGet, "/api/stock/movements?startDate=10/03/2026", nil, http.StatusBadRequest, "VALIDATION"},
		{"rango invertido", http.MethodGet, "/api/stock/movements?startDate=2026-03-10&endDate=2026-03-01", nil, http.StatusBadRequest, "VALIDATION"},
		{"periodo inválido", http.MethodGet, "/api/stock/movements/summary?period=year", nil, http.StatusBadRequest, "VALIDATION"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := ts.do(t, tc.method, tc.path, tc.body)
			assert.Equal(t, tc.status, resp.StatusCode)
			assert.Equal(t, tc.code, decode[dto.ErrorResponse](t, resp).Code)
		})
	}

	// Los rechazos no tocan el lote.
	resp := ts.do(t, http.MethodGet, "/api/stock/batches/"+batchID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(10), decode[dto.BatchResponse](t, resp).CurrentQuantity)
}

func TestStockHandler_BatchesAndExpiring(t *testing.T) {
	ts := newTestServer(t, "")
	soon := time.Now().UTC().AddDate(0, 0, 5).Format(dto.DateLayout)
	later := time.Now().UTC().AddDate(0, 0, 90).Format(dto.DateLayout)
	ts.receive(t, "A", 5, later)
	soonID := ts.receive(t, "B", 5, soon).Batch.ID
	emptyID := ts.receive(t, "C", 5, soon).Batch.ID
	resp := ts.do(t, http.MethodPost, "/api/stock/issue", map[string]any{"batchId": emptyID, "quantity": 5})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = ts.do(t, http.MethodGet, "/api/stock/batches?hasStock=true", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	batches := decode[[]dto.BatchResponse](t, resp)
	require.Len(t, batches, 2)
	assert.Equal(t, "B", batches[0].BatchNumber, "orden por vencimiento ascendente")

	resp = ts.do(t, http.MethodGet, "/api/stock/expiring", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	expiring := decode[[]dto.BatchResponse](t, resp)
	require.Len(t, expiring, 1)
	assert.Equal(t, soonID, expiring[0].ID)

	resp = ts.do(t, http.MethodGet, "/api/stock/expiring?days=120", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]dto.BatchResponse](t, resp), 2)

	resp = ts.do(t, http.MethodGet, "/api/stock/expiring/report.pdf?days=7", nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "_7d.pdf")
}

func TestStockHandler_SummaryAndMovementByID(t *testing.T) {
	ts := newTestServer(t, "")
	res := ts.receive(t, "S-1", 40, "")
	resp := ts.do(t, http.MethodPost, "/api/stock/issue", map[string]any{"batchId": res.Batch.ID, "quantity": 15})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = ts.do(t, http.MethodGet, "/api/stock/movements/summary?period=month", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rows := decode[[]dto.SummaryResponse](t, resp)
	require.Len(t, rows, 2)
	assert.Equal(t, time.Now().UTC().Format("2006-01"), rows[0].Period)
	assert.Equal(t, "issue", rows[0].MovementType)
	assert.Equal(t, int64(-15), rows[0].TotalQuantity)
	assert.Equal(t, "receive", rows[1].MovementType)

	resp = ts.do(t, http.MethodGet, "/api/stock/movements/"+res.Movement.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	m := decode[dto.MovementResponse](t, resp)
	assert.Equal(t, "S-1", m.BatchNumber)
	assert.Equal(t, int64(40), m.Quantity)
}

func TestStockHandler_WriteRoutesRequireToken(t *testing.T) {
	ts := newTestServer(t, testJWTSecret)
	body := map[string]any{"itemId": ts.itemID, "batchNumber": "P-1", "quantity": 3}

	resp := ts.do(t, http.MethodPost, "/api/stock/receive", body)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = ts.do(t, http.MethodPost, "/api/stock/receive", body, "Authorization", tokenForRole(t, pkgjwt.RoleViewer))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = ts.do(t, http.MethodPost, "/api/stock/receive", body, "Authorization", tokenForRole(t, pkgjwt.RoleOperator))
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// Lecturas públicas.
	resp = ts.do(t, http.MethodGet, "/api/stock/batches", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestItemHandler_CRUD(t *testing.T) {
	ts := newTestServer(t, "")

	resp := ts.do(t, http.MethodPost, "/api/items", map[string]any{"name": "Yogurt", "sku": "YOG"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[dto.ItemResponse](t, resp)
	assert.True(t, created.Active)

	resp = ts.do(t, http.MethodPut, "/api/items/"+created.ID, map[string]any{"name": "Yogurt griego"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Yogurt griego", decode[dto.ItemResponse](t, resp).Name)

	resp = ts.do(t, http.MethodGet, "/api/items", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]dto.ItemResponse](t, resp), 2)

	resp = ts.do(t, http.MethodDelete, "/api/items/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp = ts.do(t, http.MethodGet, "/api/items", nil)
	assert.Len(t, decode[[]dto.ItemResponse](t, resp), 1)

	resp = ts.do(t, http.MethodGet, "/api/items/"+created.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, decode[dto.ItemResponse](t, resp).Active)

	resp = ts.do(t, http.MethodPost, "/api/items", map[string]any{"name": "  "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = ts.do(t, http.MethodDelete, fmt.Sprintf("/api/items/%s", "missing"), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, "")
	resp := ts.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]string](t, resp)
	assert.Equal(t, "ok", body["status"])
}
