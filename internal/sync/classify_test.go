package sync

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ozonms/fbosync/internal/infra/httpx"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		err    error
		expect Outcome
	}{
		{nil, OutcomeUnclassified},
		{errors.New("dial tcp: connection refused"), OutcomeUnclassified},
		{&httpx.APIError{Status: 409, Body: ""}, OutcomeConflict},
		{&httpx.APIError{Status: 412, Body: "Ошибка сохранения: поле name не уникально"}, OutcomeConflict},
		{&httpx.APIError{Status: 400, Body: "document already exists"}, OutcomeConflict},
		{&httpx.APIError{Status: 400, Body: "duplicate name"}, OutcomeConflict},
		{&httpx.APIError{Status: 412, Body: "Недостаточно товара на складе"}, OutcomeStock},
		{&httpx.APIError{Status: 412, Body: "Не хватает товаров для перемещения"}, OutcomeStock},
		{&httpx.APIError{Status: 400, Body: "insufficient stock at source store"}, OutcomeStock},
		{&httpx.APIError{Status: 500, Body: "internal error"}, OutcomeUnclassified},
		{&httpx.APIError{Status: 429, Body: "too many requests"}, OutcomeUnclassified},
	}

	for _, tt := range tests {
		if got := Classify(tt.err); got != tt.expect {
			t.Errorf("Classify(%v) = %v, want %v", tt.err, got, tt.expect)
		}
	}
}

func TestClassify_WrappedErrors(t *testing.T) {
	// Clients wrap API errors with call context; classification must see
	// through the wrapping.
	err := fmt.Errorf("create move %q: %w", "OZN-1", &httpx.APIError{
		Status: 412,
		Body:   "поле name не уникально",
	})
	if got := Classify(err); got != OutcomeConflict {
		t.Errorf("Classify(wrapped conflict) = %v, want %v", got, OutcomeConflict)
	}

	exhausted := fmt.Errorf("moysklad: giving up after 6 attempts: %w", &httpx.APIError{
		Status: 429,
		Body:   "too many requests",
	})
	if got := Classify(exhausted); got != OutcomeUnclassified {
		t.Errorf("Classify(exhausted retries) = %v, want %v", got, OutcomeUnclassified)
	}
}
