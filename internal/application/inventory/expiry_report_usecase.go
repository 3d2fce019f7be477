package inventory

import (
	"context"
	"fmt"
)

// ExpiryReportUseCase genera el reporte PDF de lotes por vencer.
type ExpiryReportUseCase struct {
	query     *StockQueryUseCase
	generator ExpiryReportGenerator
}

// NewExpiryReportUseCase construye el caso de uso inyectando la consulta y el generador.
func NewExpiryReportUseCase(query *StockQueryUseCase, generator ExpiryReportGenerator) *ExpiryReportUseCase {
	return &ExpiryReportUseCase{query: query, generator: generator}
}

// Download devuelve el PDF y un nombre de archivo sugerido.
// Retorna domain.ErrInvalidInput si days < 0.
func (uc *ExpiryReportUseCase) Download(ctx context.Context, days int) (pdfBytes []byte, filename string, err error) {
	list, err := uc.query.expiring(ctx, days)
	if err != nil {
		return nil, "", err
	}
	now := uc.query.now().UTC()
	pdfBytes, err = uc.generator.GenerateExpiryReport(ctx, now, days, list)
	if err != nil {
		return nil, "", fmt.Errorf("reporte de vencimientos: %w", err)
	}
	return pdfBytes, fmt.Sprintf("vencimientos_%s_%dd.pdf", now.Format("20060102"), days), nil
}
