package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"go.trai.ch/strata/internal/app"
)

func TestRun_ProviderFailure(t *testing.T) {
	var stderr bytes.Buffer
	code := run(context.Background(), nil, &stderr, func(context.Context) (*app.Components, error) {
		return nil, errors.New("wiring exploded")
	})

	if code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	if !strings.Contains(stderr.String(), "wiring exploded") {
		t.Errorf("stderr should name the failure, got %q", stderr.String())
	}
}
