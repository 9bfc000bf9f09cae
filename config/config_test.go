package config

import (
	"encoding/json"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipelineConfigDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "orderflow", cfg.Pipeline.Name)
	assert.Equal(t, 64, cfg.Pipeline.QueueCapacity)
	assert.Greater(t, cfg.Pipeline.ReserveWorkers, 0)
	assert.Greater(t, cfg.Pipeline.DispatchWorkers, cfg.Pipeline.ReserveWorkers,
		"blocking stage should get more workers than the compute stage")
	assert.Equal(t, Duration(5*time.Second), cfg.Pipeline.AwaitTimeout,
		"await timeout must default to a bound, never zero")
	assert.Equal(t, AdmissionFIFO, cfg.Pipeline.Admission)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestPipelineConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*PipelineConfig)
		wantErr string
	}{
		{
			name:   "zero config normalizes",
			mutate: func(*PipelineConfig) {},
		},
		{
			name:    "negative queue capacity",
			mutate:  func(pc *PipelineConfig) { pc.QueueCapacity = -1 },
			wantErr: "queue_capacity",
		},
		{
			name:    "negative await timeout",
			mutate:  func(pc *PipelineConfig) { pc.AwaitTimeout = Duration(-time.Second) },
			wantErr: "await_timeout",
		},
		{
			name:    "unknown admission policy",
			mutate:  func(pc *PipelineConfig) { pc.Admission = "lifo" },
			wantErr: "admission",
		},
		{
			name:   "admission normalizes case",
			mutate: func(pc *PipelineConfig) { pc.Admission = "PRIORITY" },
		},
		{
			name: "retry max delay below initial",
			mutate: func(pc *PipelineConfig) {
				pc.ReserveRetry = RetryConfig{
					Enabled:      true,
					InitialDelay: Duration(time.Second),
					MaxDelay:     Duration(time.Millisecond),
				}
			},
			wantErr: "max_delay",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pc := PipelineConfig{}
			tt.mutate(&pc)

			err := pc.Validate()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestConfigValidateResources(t *testing.T) {
	cfg := Default()
	cfg.Resources = map[string]int64{"sku-1": 100, "sku-2": 0}
	require.NoError(t, cfg.Validate())

	cfg.Resources["sku-3"] = -5
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sku-3")
}

func TestDurationUnmarshal(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Duration
		wantErr bool
	}{
		{name: "string form", input: `"1m30s"`, want: 90 * time.Second},
		{name: "nanosecond number", input: `5000000000`, want: 5 * time.Second},
		{name: "garbage string", input: `"soon"`, wantErr: true},
		{name: "wrong type", input: `true`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration
			err := json.Unmarshal([]byte(tt.input), &d)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, time.Duration(d))
		})
	}
}

func TestDurationRoundTrip(t *testing.T) {
	d := Duration(1500 * time.Millisecond)

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"1.5s"`, string(data))

	var back Duration
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, d, back)
}

func TestLoaderLoad(t *testing.T) {
	doc := []byte(`{
		"pipeline": {
			"queue_capacity": 32,
			"await_timeout": "2s",
			"admission": "priority"
		},
		"resources": {"sku-1": 500}
	}`)

	cfg, err := NewLoader().Load(doc)
	require.NoError(t, err)

	assert.Equal(t, 32, cfg.Pipeline.QueueCapacity)
	assert.Equal(t, Duration(2*time.Second), cfg.Pipeline.AwaitTimeout)
	assert.Equal(t, AdmissionPriority, cfg.Pipeline.Admission)
	assert.Equal(t, int64(500), cfg.Resources["sku-1"])
	// Unset fields pick up defaults
	assert.Equal(t, Duration(30*time.Second), cfg.Pipeline.DrainTimeout)
}

func TestLoaderRejectsInvalidDocument(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "unknown top-level key", doc: `{"pipelines": {}}`},
		{name: "wrong admission enum", doc: `{"pipeline": {"admission": "random"}}`},
		{name: "negative resource", doc: `{"resources": {"sku-1": -1}}`},
		{name: "malformed duration", doc: `{"pipeline": {"await_timeout": "later"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoader().Load([]byte(tt.doc))
			require.Error(t, err)
		})
	}
}

func TestLoaderEnvOverrides(t *testing.T) {
	t.Setenv("ORDERFLOW_QUEUE_CAPACITY", "128")
	t.Setenv("ORDERFLOW_AWAIT_TIMEOUT", "250ms")
	t.Setenv("ORDERFLOW_LOG_LEVEL", "debug")

	cfg, err := NewLoader().Load([]byte(`{"pipeline": {"queue_capacity": 8}}`))
	require.NoError(t, err)

	assert.Equal(t, 128, cfg.Pipeline.QueueCapacity, "env must win over file")
	assert.Equal(t, Duration(250*time.Millisecond), cfg.Pipeline.AwaitTimeout)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoaderLoadFile(t *testing.T) {
	path := t.TempDir() + "/config.json"
	err := os.WriteFile(path, []byte(`{"pipeline": {"name": "test-pipe"}, "resources": {"a": 1}}`), 0o600)
	require.NoError(t, err)

	cfg, err := NewLoader().LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "test-pipe", cfg.Pipeline.Name)

	_, err = NewLoader().LoadFile(path + ".missing")
	require.Error(t, err)
}

func TestSafeConfigConcurrentAccess(t *testing.T) {
	sc := NewSafeConfig(Default())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			cfg := sc.Get()
			cfg.Pipeline.QueueCapacity = -999 // mutating the copy must not leak back
		}()
		go func() {
			defer wg.Done()
			next := Default()
			next.Pipeline.QueueCapacity = 16
			_ = sc.Update(next)
		}()
	}
	wg.Wait()

	got := sc.Get()
	assert.NotEqual(t, -999, got.Pipeline.QueueCapacity)
}

func TestSafeConfigUpdateValidates(t *testing.T) {
	sc := NewSafeConfig(Default())

	bad := Default()
	bad.Pipeline.Admission = "lifo"
	require.Error(t, sc.Update(bad))

	require.Error(t, sc.Update(nil))
}

func TestCloneIndependence(t *testing.T) {
	cfg := Default()
	cfg.Resources = map[string]int64{"sku-1": 10}

	clone := cfg.Clone()
	clone.Resources["sku-1"] = 99

	assert.Equal(t, int64(10), cfg.Resources["sku-1"])
}
