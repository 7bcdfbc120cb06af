package state

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	input_config "github.com/temoto/keypump/hardware/input/config"
	"github.com/temoto/keypump/internal/types"
	"github.com/temoto/keypump/log2"
)

func TestReadConfig(t *testing.T) {
	t.Parallel()

	type Case struct {
		name      string
		input     string
		check     func(testing.TB, *Config)
		expectErr string
	}
	cases := []Case{
		{"empty", "", func(t testing.TB, c *Config) {
			assert.Equal(t, DefaultTick, c.Tick())
			assert.Equal(t, input_config.DefaultDevice, c.Input.DevicePath())
			assert.Equal(t, time.Duration(0), c.Input.PollTimeout())
			codes, err := c.QuitCodes()
			require.NoError(t, err)
			assert.Equal(t, []types.KeyCode{types.KeyEsc}, codes)
		}, ""},

		{"input", `input { device = "/dev/input/event7" grab = true poll_timeout_ms = 100 }`,
			func(t testing.TB, c *Config) {
				assert.Equal(t, "/dev/input/event7", c.Input.DevicePath())
				assert.True(t, c.Input.Grab)
				assert.Equal(t, 100*time.Millisecond, c.Input.PollTimeout())
			}, ""},

		{"screen", `screen { width = 20 height = 10 status = true } tick_ms = 33`,
			func(t testing.TB, c *Config) {
				assert.Equal(t, 20, c.Screen.Width)
				assert.Equal(t, 10, c.Screen.Height)
				assert.True(t, c.Screen.Status)
				assert.Equal(t, 33*time.Millisecond, c.Tick())
			}, ""},

		{"quit-keys", `quit_keys = ["KEY_Q", "57"]`,
			func(t testing.TB, c *Config) {
				codes, err := c.QuitCodes()
				require.NoError(t, err)
				assert.Equal(t, []types.KeyCode{types.KeyQ, types.KeySpace}, codes)
			}, ""},

		{"quit-keys-any-name", `quit_keys = ["KEY_F1", "KEY_PAUSE"]`,
			func(t testing.TB, c *Config) {
				codes, err := c.QuitCodes()
				require.NoError(t, err)
				assert.Equal(t, []types.KeyCode{59, 119}, codes)
			}, ""},

		{"quit-keys-invalid", `quit_keys = ["KEY_NOPE"]`, nil, "quit_keys item=KEY_NOPE"},
		{"tick-negative", `tick_ms = -1`, nil, "tick_ms=-1"},
		{"poll-negative", `input { poll_timeout_ms = -5 }`, nil, "poll_timeout_ms=-5"},

		{"include-normalize", `
tick_ms = 5
include "./empty" {}`,
			func(t testing.TB, c *Config) {
				assert.Equal(t, 5*time.Millisecond, c.Tick())
			}, ""},

		{"include-optional", `
include "tick-20" {}
include "non-exist" { optional = true }`,
			func(t testing.TB, c *Config) {
				assert.Equal(t, 20*time.Millisecond, c.Tick())
			}, ""},

		{"include-overwrites", `
tick_ms = 5
include "tick-20" {}`,
			func(t testing.TB, c *Config) {
				assert.Equal(t, 20*time.Millisecond, c.Tick())
			}, ""},

		{"include-required", `include "non-exist" {}`, nil, "config required name=non-exist"},
		{"include-loop", `include "loop-a" {}`, nil, "config include loop"},
		{"error-syntax", `input {`, nil, "config unmarshal source=test-inline"},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			log := log2.NewTest(t, log2.LDebug)
			fs := NewMockFullReader(map[string]string{
				"test-inline": c.input,
				"empty":       "",
				"tick-20":     "tick_ms = 20",
				"loop-a":      `include "loop-b" {}`,
				"loop-b":      `include "loop-a" {}`,
			})
			cfg, err := ReadConfig(log, fs, "test-inline")
			if c.expectErr == "" {
				require.NoError(t, err)
				if c.check != nil {
					c.check(t, cfg)
				}
			} else {
				require.Error(t, err)
				if !strings.Contains(err.Error(), c.expectErr) {
					t.Fatalf("error expected='%s' actual='%v'", c.expectErr, err)
				}
			}
		})
	}
}

func TestReadConfigNoNames(t *testing.T) {
	t.Parallel()

	_, err := ReadConfig(log2.NewTest(t, log2.LDebug), NewMockFullReader(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "code error")
}
