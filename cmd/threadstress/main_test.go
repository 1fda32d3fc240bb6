package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig_defaults(t *testing.T) {
	cfg, err := parseConfig(nil, new(bytes.Buffer))
	require.NoError(t, err)
	if diff := cmp.Diff(defaultConfig(), *cfg); diff != `` {
		t.Errorf(`unexpected config (-want +got):\n%s`, diff)
	}
}

func TestParseConfig_fileAndFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), `stress.toml`)
	require.NoError(t, os.WriteFile(path, []byte(strings.Join([]string{
		`scenarios = ["mutex", "barrier"]`,
		`log_level = "debug"`,
		`duration = "5s"`,
		`workers = 3`,
		`iterations = 100`,
		`memory_ratio = 0.5`,
	}, "\n")), 0o600))

	cfg, err := parseConfig([]string{`-config`, path, `-workers`, `7`}, new(bytes.Buffer))
	require.NoError(t, err)
	want := config{
		Scenarios:   []string{`mutex`, `barrier`},
		LogLevel:    `debug`,
		Duration:    duration{time.Second * 5},
		Workers:     7,
		Iterations:  100,
		MemoryRatio: 0.5,
	}
	if diff := cmp.Diff(want, *cfg); diff != `` {
		t.Errorf(`unexpected config (-want +got):\n%s`, diff)
	}
}

func TestParseConfig_errors(t *testing.T) {
	dir := t.TempDir()
	unknownKey := filepath.Join(dir, `unknown.toml`)
	require.NoError(t, os.WriteFile(unknownKey, []byte(`nope = 1`), 0o600))
	badDuration := filepath.Join(dir, `duration.toml`)
	require.NoError(t, os.WriteFile(badDuration, []byte(`duration = "soon"`), 0o600))

	for _, tc := range [...]struct {
		name  string
		args  []string
		usage bool
	}{
		{`unknown scenario`, []string{`-scenarios`, `mutex,nope`}, true},
		{`empty scenarios`, []string{`-scenarios`, ` , `}, true},
		{`log level`, []string{`-log-level`, `loud`}, true},
		{`duration`, []string{`-duration`, `0s`}, true},
		{`workers`, []string{`-workers`, `-1`}, true},
		{`iterations`, []string{`-iterations`, `0`}, true},
		{`memory ratio`, []string{`-memory-ratio`, `1.5`}, true},
		{`positional`, []string{`extra`}, true},
		{`unknown flag`, []string{`-nope`}, false},
		{`missing file`, []string{`-config`, filepath.Join(dir, `missing.toml`)}, false},
		{`unknown key`, []string{`-config`, unknownKey}, true},
		{`bad duration`, []string{`-config`, badDuration}, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := parseConfig(tc.args, new(bytes.Buffer))
			assert.Nil(t, cfg)
			require.Error(t, err)
			if tc.usage {
				assert.ErrorIs(t, err, errUsage)
			}
		})
	}
}

func TestScenarioNames(t *testing.T) {
	names := scenarioNames()
	assert.Len(t, names, len(scenarios))
	assert.IsNonDecreasing(t, names)
}

func TestScenarios(t *testing.T) {
	for _, name := range scenarioNames() {
		t.Run(name, func(t *testing.T) {
			for _, workers := range [...]int{1, 4, 16} {
				ops, err := scenarios[name](context.Background(), params{
					workers:    workers,
					iterations: 2000,
				})
				require.NoError(t, err, workers)
				assert.Positive(t, ops, workers)
			}
		})
	}
}

// syncBuffer accepts log writes from many goroutines.
type syncBuffer struct {
	buf bytes.Buffer
	mu  sync.Mutex
}

func (x *syncBuffer) Write(p []byte) (int, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.buf.Write(p)
}

func TestRun(t *testing.T) {
	var output syncBuffer
	code := run(context.Background(), []string{
		`-iterations`, `500`,
		`-workers`, `4`,
		`-memory-ratio`, `0`,
		`-log-level`, `debug`,
	}, &output)
	require.Equal(t, 0, code, output.buf.String())

	var msgs []string
	for _, line := range bytes.Split(bytes.TrimSpace(output.buf.Bytes()), []byte("\n")) {
		var m map[string]any
		require.NoError(t, json.Unmarshal(line, &m), string(line))
		if msg, _ := m[`msg`].(string); msg != `` {
			msgs = append(msgs, msg)
		}
	}
	assert.Contains(t, msgs, `starting`)
	assert.Contains(t, msgs, `passed`)
	assert.Contains(t, msgs, `thread started`)
}

func TestRun_usage(t *testing.T) {
	var output bytes.Buffer
	assert.Equal(t, 2, run(context.Background(), []string{`-workers`, `-2`}, &output))
	assert.Contains(t, output.String(), `workers must not be negative`)
	output.Reset()
	assert.Equal(t, 0, run(context.Background(), []string{`-h`}, &output))
	assert.Contains(t, output.String(), `-scenarios`)
}

func TestRun_canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var output bytes.Buffer
	assert.Equal(t, 1, run(ctx, []string{`-memory-ratio`, `0`}, &output))
}
