package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
)

// apiError respuesta no-2xx de la API.
type apiError struct {
	Status  int
	Code    string
	Message string
}

func (e *apiError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("HTTP %d", e.Status)
	}
	return fmt.Sprintf("HTTP %d %s: %s", e.Status, e.Code, e.Message)
}

// apiClient cliente HTTP de la API del ledger.
type apiClient struct {
	r *resty.Client
}

func newAPIClient(baseURL, token string, timeout time.Duration) *apiClient {
	r := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if token != "" {
		r.SetAuthToken(token)
	}
	return &apiClient{r: r}
}

// do ejecuta la petición y decodifica el cuerpo en out (si no es nil).
func (c *apiClient) do(method, path string, query map[string]string, body, out any) error {
	req := c.r.R().SetError(&dto.ErrorResponse{})
	if len(query) > 0 {
		req.SetQueryParams(query)
	}
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	if out != nil {
		req.SetResult(out)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.IsError() {
		ae := &apiError{Status: resp.StatusCode()}
		if e, ok := resp.Error().(*dto.ErrorResponse); ok && e != nil {
			ae.Code, ae.Message = e.Code, e.Message
		}
		return ae
	}
	return nil
}

func (c *apiClient) get(path string, query map[string]string, out any) error {
	return c.do(http.MethodGet, path, query, nil, out)
}

func (c *apiClient) post(path string, body, out any) error {
	return c.do(http.MethodPost, path, nil, body, out)
}

// download devuelve el cuerpo crudo (reporte PDF).
func (c *apiClient) download(path string, query map[string]string) ([]byte, error) {
	resp, err := c.r.R().
		SetError(&dto.ErrorResponse{}).
		SetQueryParams(query).
		SetHeader("Accept", "application/pdf").
		Get(path)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	if resp.IsError() {
		ae := &apiError{Status: resp.StatusCode()}
		if e, ok := resp.Error().(*dto.ErrorResponse); ok && e != nil {
			ae.Code, ae.Message = e.Code, e.Message
		}
		return nil, ae
	}
	return resp.Body(), nil
}
