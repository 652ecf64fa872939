package sync

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ozonms/fbosync/internal/infra/httpx"
)

// Outcome determines how the engine reacts to a failed ERP write.
type Outcome int

const (
	// OutcomeUnclassified propagates the failure; the order is retried on a
	// later pass.
	OutcomeUnclassified Outcome = iota
	// OutcomeConflict means a document with this name already exists; the
	// order is treated as synced elsewhere and forgotten locally.
	OutcomeConflict
	// OutcomeStock means the source store lacks stock for the positions; the
	// transfer is retried once as non-binding.
	OutcomeStock
)

// Marker lists are a best-effort heuristic over the ERP's error text, which
// is not a documented contract. Checked against the lowercased body.
var stockMarkers = []string{
	"недостаточ",
	"не хватает",
	"insufficient",
	"not enough",
}

var conflictMarkers = []string{
	"не уникал",
	"уже существует",
	"already exists",
	"not unique",
	"duplicate",
}

// Classify determines the outcome for a failed document write. The API
// error is found through wrapping, so an exhausted retry is classified by
// its final response; transport failures carrying no API error stay
// unclassified so they propagate.
func Classify(err error) Outcome {
	if err == nil {
		return OutcomeUnclassified
	}

	var apiErr *httpx.APIError
	if !errors.As(err, &apiErr) {
		return OutcomeUnclassified
	}

	body := strings.ToLower(apiErr.Body)

	// Stock errors come first: the ERP reports them with the same status
	// codes it uses for validation conflicts.
	for _, marker := range stockMarkers {
		if strings.Contains(body, marker) {
			return OutcomeStock
		}
	}

	if apiErr.Status == http.StatusConflict || apiErr.Status == http.StatusPreconditionFailed {
		return OutcomeConflict
	}
	for _, marker := range conflictMarkers {
		if strings.Contains(body, marker) {
			return OutcomeConflict
		}
	}

	return OutcomeUnclassified
}
