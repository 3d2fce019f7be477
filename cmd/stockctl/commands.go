package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/pkg/jwt"
)

// env contexto de ejecución de un comando.
type env struct {
	client *apiClient
	out    io.Writer
	getenv func(string) string
}

type command struct {
	name  string
	usage string
	run   func(e *env, args []string) error
}

var errUsage = errors.New("uso inválido")

func commands() []command {
	return []command{
		{"list-items", "lista los artículos activos", listItems},
		{"add-item", "crea un artículo (--name, --sku, --desc)", addItem},
		{"update-item", "actualiza un artículo (--id y campos a cambiar)", updateItem},
		{"delete-item", "desactiva un artículo (--id)", deleteItem},
		{"receive", "recibe stock (--item-id, --batch-number, --quantity, --expiry-date)", receive},
		{"issue", "da salida de un lote (--batch-id, --quantity)", issue},
		{"adjust", "ajusta un lote (--batch-id, --quantity con signo)", adjust},
		{"batches", "lista lotes (--item-id, --batch-number, --has-stock, --sort-by, --sort-dir)", listBatches},
		{"batch", "muestra un lote (--id)", getBatch},
		{"expiring", "lotes por vencer (--days)", expiring},
		{"report", "descarga el reporte PDF de vencimientos (--days, --out)", report},
		{"movements", "consulta el ledger (--batch-id, --item-id, --type, --reference, --start-date, --end-date)", listMovements},
		{"summary", "resumen por periodo (--period, --start-date, --end-date)", summary},
		{"token", "genera un JWT local (--secret o JWT_SECRET, --role, --subject)", token},
	}
}

func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SortFlags = false
	return fs
}

func required(fs *pflag.FlagSet, names ...string) error {
	var missing []string
	for _, n := range names {
		if !fs.Changed(n) {
			missing = append(missing, "--"+n)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: faltan %s", errUsage, strings.Join(missing, ", "))
	}
	return nil
}

func table(w io.Writer, header string, rows [][]string) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, header)
	for _, r := range rows {
		fmt.Fprintln(tw, strings.Join(r, "\t"))
	}
	tw.Flush()
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func dateOrNA(d *dto.Date) string {
	if d == nil {
		return "N/A"
	}
	return d.Format(dto.DateLayout)
}

// ── Artículos ────────────────────────────────────────────────────────────────

func listItems(e *env, args []string) error {
	if err := newFlagSet("list-items").Parse(args); err != nil {
		return err
	}
	var items []dto.ItemResponse
	if err := e.client.get("/items", nil, &items); err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintln(e.out, "No hay artículos.")
		return nil
	}
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		rows = append(rows, []string{it.ID, it.Name, orNA(it.SKU), orNA(it.Description)})
	}
	table(e.out, "ID\tNOMBRE\tSKU\tDESCRIPCIÓN", rows)
	return nil
}

func printItem(w io.Writer, it *dto.ItemResponse) {
	table(w, "ID\tNOMBRE\tSKU\tACTIVO", [][]string{{it.ID, it.Name, orNA(it.SKU), strconv.FormatBool(it.Active)}})
}

func addItem(e *env, args []string) error {
	fs := newFlagSet("add-item")
	name := fs.String("name", "", "nombre del artículo")
	sku := fs.String("sku", "", "SKU")
	desc := fs.String("desc", "", "descripción")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(fs, "name"); err != nil {
		return err
	}
	var out dto.ItemResponse
	if err := e.client.post("/items", dto.CreateItemRequest{Name: *name, SKU: *sku, Description: *desc}, &out); err != nil {
		return err
	}
	fmt.Fprintln(e.out, "Artículo creado:")
	printItem(e.out, &out)
	return nil
}

func updateItem(e *env, args []string) error {
	fs := newFlagSet("update-item")
	id := fs.String("id", "", "ID del artículo")
	name := fs.String("name", "", "nuevo nombre")
	sku := fs.String("sku", "", "nuevo SKU")
	desc := fs.String("desc", "", "nueva descripción")
	active := fs.Bool("active", true, "activo")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(fs, "id"); err != nil {
		return err
	}
	var in dto.UpdateItemRequest
	if fs.Changed("name") {
		in.Name = name
	}
	if fs.Changed("sku") {
		in.SKU = sku
	}
	if fs.Changed("desc") {
		in.Description = desc
	}
	if fs.Changed("active") {
		in.Active = active
	}
	var out dto.ItemResponse
	if err := e.client.do(http.MethodPut, "/items/"+*id, nil, in, &out); err != nil {
		return err
	}
	fmt.Fprintln(e.out, "Artículo actualizado:")
	printItem(e.out, &out)
	return nil
}

func deleteItem(e *env, args []string) error {
	fs := newFlagSet("delete-item")
	id := fs.String("id", "", "ID del artículo")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(fs, "id"); err != nil {
		return err
	}
	if err := e.client.do(http.MethodDelete, "/items/"+*id, nil, nil, nil); err != nil {
		return err
	}
	fmt.Fprintf(e.out, "Artículo %s desactivado.\n", *id)
	return nil
}

// ── Ledger ───────────────────────────────────────────────────────────────────

func printLedger(w io.Writer, res *dto.LedgerResponse) {
	fmt.Fprintln(w, "Lote:")
	table(w, "ID\tLOTE\tVENCE\tINICIAL\tACTUAL", [][]string{{
		res.Batch.ID, res.Batch.BatchNumber, dateOrNA(res.Batch.ExpiryDate),
		strconv.FormatInt(res.Batch.InitialQuantity, 10), strconv.FormatInt(res.Batch.CurrentQuantity, 10),
	}})
	fmt.Fprintln(w, "Movimiento:")
	table(w, "ID\tTIPO\tCANTIDAD\tREFERENCIA", [][]string{{
		res.Movement.ID, res.Movement.MovementType, strconv.FormatInt(res.Movement.Quantity, 10), orNA(res.Movement.Reference),
	}})
}

func receive(e *env, args []string) error {
	fs := newFlagSet("receive")
	itemID := fs.String("item-id", "", "ID del artículo")
	batch := fs.String("batch-number", "", "número de lote")
	qty := fs.Int64("quantity", 0, "cantidad (> 0)")
	expiry := fs.String("expiry-date", "", "vencimiento YYYY-MM-DD")
	ref := fs.String("reference", "", "referencia")
	notes := fs.String("notes", "", "notas")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(fs, "item-id", "batch-number", "quantity"); err != nil {
		return err
	}
	in := dto.ReceiveRequest{ItemID: *itemID, BatchNumber: *batch, Quantity: *qty, Reference: *ref, Notes: *notes}
	if *expiry != "" {
		d, err := dto.ParseDate(*expiry)
		if err != nil {
			return fmt.Errorf("%w: --expiry-date debe ser YYYY-MM-DD", errUsage)
		}
		in.ExpiryDate = &d
	}
	var out dto.LedgerResponse
	if err := e.client.post("/stock/receive", in, &out); err != nil {
		return err
	}
	printLedger(e.out, &out)
	return nil
}

func issue(e *env, args []string) error {
	fs := newFlagSet("issue")
	batchID := fs.String("batch-id", "", "ID del lote")
	qty := fs.Int64("quantity", 0, "cantidad (> 0)")
	ref := fs.String("reference", "", "referencia")
	notes := fs.String("notes", "", "notas")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(fs, "batch-id", "quantity"); err != nil {
		return err
	}
	var out dto.LedgerResponse
	if err := e.client.post("/stock/issue", dto.IssueRequest{BatchID: *batchID, Quantity: *qty, Reference: *ref, Notes: *notes}, &out); err != nil {
		return err
	}
	printLedger(e.out, &out)
	return nil
}

func adjust(e *env, args []string) error {
	fs := newFlagSet("adjust")
	batchID := fs.String("batch-id", "", "ID del lote")
	qty := fs.Int64("quantity", 0, "ajuste con signo (negativo = baja)")
	ref := fs.String("reference", "", "referencia")
	notes := fs.String("notes", "", "notas")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(fs, "batch-id", "quantity"); err != nil {
		return err
	}
	var out dto.LedgerResponse
	in := dto.AdjustRequest{BatchID: *batchID, AdjustmentQuantity: *qty, Reference: *ref, Notes: *notes}
	if err := e.client.post("/stock/adjust", in, &out); err != nil {
		return err
	}
	printLedger(e.out, &out)
	return nil
}

// ── Consultas ────────────────────────────────────────────────────────────────

func printBatches(w io.Writer, list []dto.BatchResponse, empty string) {
	if len(list) == 0 {
		fmt.Fprintln(w, empty)
		return
	}
	rows := make([][]string, 0, len(list))
	for _, b := range list {
		rows = append(rows, []string{
			b.ID, orNA(b.ItemName), b.BatchNumber, dateOrNA(b.ExpiryDate),
			strconv.FormatInt(b.InitialQuantity, 10), strconv.FormatInt(b.CurrentQuantity, 10),
		})
	}
	table(w, "ID\tARTÍCULO\tLOTE\tVENCE\tINICIAL\tACTUAL", rows)
}

func listBatches(e *env, args []string) error {
	fs := newFlagSet("batches")
	itemID := fs.String("item-id", "", "filtrar por artículo")
	batch := fs.String("batch-number", "", "coincidencia parcial de lote")
	hasStock := fs.Bool("has-stock", false, "solo lotes con stock")
	sortBy := fs.String("sort-by", "", "expiry_date | created_at | batch_number | current_quantity")
	sortDir := fs.String("sort-dir", "", "asc | desc")
	if err := fs.Parse(args); err != nil {
		return err
	}
	q := map[string]string{}
	setIf(q, "itemId", *itemID)
	setIf(q, "batchNumber", *batch)
	setIf(q, "sortBy", *sortBy)
	setIf(q, "sortDirection", *sortDir)
	if fs.Changed("has-stock") {
		q["hasStock"] = strconv.FormatBool(*hasStock)
	}
	var list []dto.BatchResponse
	if err := e.client.get("/stock/batches", q, &list); err != nil {
		return err
	}
	printBatches(e.out, list, "No hay lotes.")
	return nil
}

func getBatch(e *env, args []string) error {
	fs := newFlagSet("batch")
	id := fs.String("id", "", "ID del lote")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(fs, "id"); err != nil {
		return err
	}
	var b dto.BatchResponse
	if err := e.client.get("/stock/batches/"+*id, nil, &b); err != nil {
		return err
	}
	printBatches(e.out, []dto.BatchResponse{b}, "")
	return nil
}

func expiring(e *env, args []string) error {
	fs := newFlagSet("expiring")
	days := fs.Int("days", 30, "ventana en días")
	if err := fs.Parse(args); err != nil {
		return err
	}
	var list []dto.BatchResponse
	if err := e.client.get("/stock/expiring", map[string]string{"days": strconv.Itoa(*days)}, &list); err != nil {
		return err
	}
	printBatches(e.out, list, "No hay lotes por vencer.")
	return nil
}

func report(e *env, args []string) error {
	fs := newFlagSet("report")
	days := fs.Int("days", 30, "ventana en días")
	out := fs.String("out", "", "archivo destino (default vencimientos_<days>d.pdf)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	path := *out
	if path == "" {
		path = fmt.Sprintf("vencimientos_%dd.pdf", *days)
	}
	pdf, err := e.client.download("/stock/expiring/report.pdf", map[string]string{"days": strconv.Itoa(*days)})
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, pdf, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(e.out, "Reporte guardado en %s (%d bytes).\n", path, len(pdf))
	return nil
}

func listMovements(e *env, args []string) error {
	fs := newFlagSet("movements")
	batchID := fs.String("batch-id", "", "filtrar por lote")
	itemID := fs.String("item-id", "", "filtrar por artículo")
	mt := fs.String("type", "", "receive | issue | adjust | write_off")
	ref := fs.String("reference", "", "coincidencia parcial de referencia")
	start := fs.String("start-date", "", "YYYY-MM-DD")
	end := fs.String("end-date", "", "YYYY-MM-DD (inclusivo)")
	sortBy := fs.String("sort-by", "", "created_at | movement_type | quantity")
	sortDir := fs.String("sort-dir", "", "asc | desc")
	if err := fs.Parse(args); err != nil {
		return err
	}
	q := map[string]string{}
	setIf(q, "batchId", *batchID)
	setIf(q, "itemId", *itemID)
	setIf(q, "movementType", *mt)
	setIf(q, "reference", *ref)
	setIf(q, "startDate", *start)
	setIf(q, "endDate", *end)
	setIf(q, "sortBy", *sortBy)
	setIf(q, "sortDirection", *sortDir)
	var list []dto.MovementResponse
	if err := e.client.get("/stock/movements", q, &list); err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(e.out, "No hay movimientos.")
		return nil
	}
	rows := make([][]string, 0, len(list))
	for _, m := range list {
		rows = append(rows, []string{
			m.ID, orNA(m.ItemName), orNA(m.BatchNumber), m.MovementType,
			strconv.FormatInt(m.Quantity, 10), orNA(m.Reference), m.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	table(e.out, "ID\tARTÍCULO\tLOTE\tTIPO\tCANTIDAD\tREFERENCIA\tFECHA", rows)
	return nil
}

func summary(e *env, args []string) error {
	fs := newFlagSet("summary")
	period := fs.String("period", "day", "day | week | month")
	start := fs.String("start-date", "", "YYYY-MM-DD")
	end := fs.String("end-date", "", "YYYY-MM-DD (inclusivo)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	q := map[string]string{"period": *period}
	setIf(q, "startDate", *start)
	setIf(q, "endDate", *end)
	var rows []dto.SummaryResponse
	if err := e.client.get("/stock/movements/summary", q, &rows); err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Fprintln(e.out, "Sin movimientos en el rango.")
		return nil
	}
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{r.Period, r.MovementType, strconv.FormatInt(r.TotalQuantity, 10), strconv.FormatInt(r.Count, 10)})
	}
	table(e.out, "PERIODO\tTIPO\tTOTAL\tMOVIMIENTOS", out)
	return nil
}

// ── Utilidades ───────────────────────────────────────────────────────────────

func token(e *env, args []string) error {
	fs := newFlagSet("token")
	secret := fs.String("secret", "", "secreto HS256 (default JWT_SECRET)")
	subject := fs.String("subject", "stockctl", "subject del token")
	role := fs.String("role", jwt.RoleOperator, "admin | operator | viewer")
	issuer := fs.String("issuer", "stock-ledger", "issuer")
	exp := fs.Int("exp", 60, "expiración en minutos")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *secret == "" {
		*secret = e.getenv("JWT_SECRET")
	}
	switch *role {
	case jwt.RoleAdmin, jwt.RoleOperator, jwt.RoleViewer:
	default:
		return fmt.Errorf("%w: rol desconocido %q", errUsage, *role)
	}
	tok, err := jwt.Generate(*secret, *subject, *role, *issuer, *exp)
	if err != nil {
		return err
	}
	fmt.Fprintln(e.out, tok)
	return nil
}

func setIf(q map[string]string, key, value string) {
	if value != "" {
		q[key] = value
	}
}
