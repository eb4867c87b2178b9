package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	inventory "ventasWs/internal/modules/inventory/domain"
	"ventasWs/internal/shared/normalization"
)

var ErrLoadFailed = errors.New("list load failed")

// RESTLoader fetches the initial rows of a list from the collaborator REST API
// (GET /api/{entity}/Lista).
type RESTLoader struct {
	client *resty.Client
}

// NewRESTLoader crea el cliente resty contra baseURL con el timeout indicado.
func NewRESTLoader(baseURL string, timeout time.Duration) *RESTLoader {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(strings.TrimSpace(baseURL), "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &RESTLoader{client: client}
}

// Load returns the rows for entityType and the total reported by the server.
// The total falls back to the number of rows when the header is missing.
func (l *RESTLoader) Load(ctx context.Context, entityType string, query inventory.PagedQuery) ([]map[string]any, int, error) {
	slug := normalization.RouteSlug(entityType)
	if slug == "" {
		return nil, 0, fmt.Errorf("%w: empty entity type", ErrLoadFailed)
	}

	var rows []map[string]any
	resp, err := l.client.R().
		SetContext(ctx).
		SetQueryParamsFromValues(query.ToURLValues()).
		SetResult(&rows).
		Get("/api/" + slug + "/Lista")
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %s: %v", ErrLoadFailed, slug, err)
	}
	if resp.IsError() {
		return nil, 0, fmt.Errorf("%w: %s: status %d", ErrLoadFailed, slug, resp.StatusCode())
	}

	total := len(rows)
	if raw := resp.Header().Get("X-Total-Count"); raw != "" {
		if n, convErr := strconv.Atoi(raw); convErr == nil {
			total = n
		}
	}
	return rows, total, nil
}
