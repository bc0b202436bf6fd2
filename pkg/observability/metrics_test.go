package observability_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tendril"
	"github.com/aretw0/tendril/internal/logging"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/mapper"
	"github.com/aretw0/tendril/pkg/observability"
)

var countKey = domain.NewKey[int]("count")

func register(t *testing.T, d *tendril.Dispatcher) {
	t.Helper()
	require.NoError(t, d.Register(
		&domain.Command{
			Route:     "user add|create",
			Arguments: []domain.Argument{domain.Positional("count", countKey, mapper.IntKey)},
			Handler:   func(*domain.CommandContext) error { return nil },
		},
		&domain.Command{Route: "fail", Handler: func(*domain.CommandContext) error { return errors.New("boom") }},
	))
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	d := tendril.New(tendril.WithLifecycleHooks(m.Hooks()))
	register(t, d)
	_ = d.Register(&domain.Command{Route: "user add", Handler: func(*domain.CommandContext) error { return nil }})

	_ = d.Dispatch(nil, "user create 1")
	_ = d.Dispatch(nil, "user add 2")
	_ = d.Dispatch(nil, "user add two")
	_ = d.Dispatch(nil, "fail")
	_ = d.Dispatch(nil, "nope")
	_ = d.Suggest(nil, "user ")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Registrations.WithLabelValues("register", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Registrations.WithLabelValues("register", "error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Dispatches.WithLabelValues("user add", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Dispatches.WithLabelValues("user add", "mapping")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Dispatches.WithLabelValues("fail", "handler")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Dispatches.WithLabelValues("unmatched", "routing")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Suggestions))
	assert.Equal(t, 3, testutil.CollectAndCount(m.DispatchDuration), "one series per command plus unmatched")

	expected := `
# HELP tendril_suggestions_total Completion requests
# TYPE tendril_suggestions_total counter
tendril_suggestions_total 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "tendril_suggestions_total"))
}

func TestNewMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := observability.NewMetrics(reg)
	require.NoError(t, err)
	_, err = observability.NewMetrics(reg)
	assert.Error(t, err)

	m, err := observability.NewMetrics(nil)
	require.NoError(t, err)
	assert.NotNil(t, m.Hooks().OnDispatch)
}

func TestAuditLog(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(&buf, slog.LevelInfo, "json")
	d := tendril.New(tendril.WithLifecycleHooks(observability.AuditLog(logger)))
	register(t, d)
	buf.Reset()

	_ = d.Dispatch(nil, "fail")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "dispatch", rec["msg"])
	assert.Equal(t, "WARN", rec["level"])
	assert.Equal(t, "fail", rec["route"])
	assert.Equal(t, "handler", rec["outcome"])
	assert.Equal(t, "boom", rec["err"])
}
