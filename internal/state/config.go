package state

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/hashicorp/hcl"
	"github.com/juju/errors"
	input_config "github.com/temoto/keypump/hardware/input/config"
	"github.com/temoto/keypump/helpers"
	"github.com/temoto/keypump/internal/screen"
	"github.com/temoto/keypump/internal/types"
	"github.com/temoto/keypump/log2"
)

const DefaultTick = 10 * time.Millisecond

type Config struct {
	// includeSeen contains absolute paths to prevent include loops
	includeSeen map[string]struct{}
	// only used for Unmarshal, do not access
	XXX_Include []ConfigSource `hcl:"include"`

	Input  input_config.Config `hcl:"input"`
	Screen screen.Config       `hcl:"screen"`
	// render and pump period
	TickMs int `hcl:"tick_ms"`
	// KEY_* names or decimal codes, press stops the program
	QuitKeys []string `hcl:"quit_keys"`
	LogDebug bool     `hcl:"log_debug"`

	_copy_guard sync.Mutex //nolint:unused
}

type ConfigSource struct {
	Name     string `hcl:"name,key"`
	Optional bool   `hcl:"optional"`
}

func (c *Config) Tick() time.Duration {
	return helpers.IntMillisecondDefault(c.TickMs, DefaultTick)
}

// QuitCodes parses QuitKeys, default is Esc.
func (c *Config) QuitCodes() ([]types.KeyCode, error) {
	if len(c.QuitKeys) == 0 {
		return []types.KeyCode{types.KeyEsc}, nil
	}
	codes := make([]types.KeyCode, 0, len(c.QuitKeys))
	for _, s := range c.QuitKeys {
		k, ok := types.ParseKeyCode(s)
		if !ok {
			return nil, errors.NotValidf("config quit_keys item=%s", s)
		}
		codes = append(codes, k)
	}
	return codes, nil
}

func (c *Config) Validate() error {
	errs := make([]error, 0, 4)
	if c.TickMs < 0 {
		errs = append(errs, errors.NotValidf("config tick_ms=%d", c.TickMs))
	}
	if c.Input.PollTimeoutMs < 0 {
		errs = append(errs, errors.NotValidf("config input.poll_timeout_ms=%d", c.Input.PollTimeoutMs))
	}
	if c.Screen.Width < 0 || c.Screen.Height < 0 {
		errs = append(errs, errors.NotValidf("config screen size=%dx%d", c.Screen.Width, c.Screen.Height))
	}
	if _, err := c.QuitCodes(); err != nil {
		errs = append(errs, err)
	}
	return helpers.FoldErrors(errs)
}

func (c *Config) read(log *log2.Log, fs FullReader, source ConfigSource, errs *[]error) {
	norm := fs.Normalize(source.Name)
	if _, ok := c.includeSeen[norm]; ok {
		*errs = append(*errs, errors.Errorf("config duplicate source=%s", source.Name))
		return
	}
	log.Debugf("config reading source='%s' path=%s", source.Name, norm)
	c.includeSeen[source.Name] = struct{}{}
	c.includeSeen[norm] = struct{}{}

	bs, err := fs.ReadAll(norm)
	if bs == nil && err == nil {
		if !source.Optional {
			err = errors.NotFoundf("config required name=%s path=%s", source.Name, norm)
			*errs = append(*errs, err)
		}
		return
	}
	if err != nil {
		*errs = append(*errs, errors.Annotatef(err, "config source=%s", source.Name))
		return
	}

	err = hcl.Unmarshal(bs, c)
	if err != nil {
		err = errors.Annotatef(err, "config unmarshal source=%s content='%s'", source.Name, string(bs))
		*errs = append(*errs, err)
		return
	}

	var includes []ConfigSource
	includes, c.XXX_Include = c.XXX_Include, nil
	for _, include := range includes {
		includeNorm := fs.Normalize(include.Name)
		if _, ok := c.includeSeen[includeNorm]; ok {
			err = errors.Errorf("config include loop: from=%s include=%s", source.Name, include.Name)
			*errs = append(*errs, err)
			continue
		}
		c.read(log, fs, include, errs)
	}
}

// ReadConfig reads names in order, later values overwrite earlier.
// Relative includes resolve against directory of first name.
func ReadConfig(log *log2.Log, fs FullReader, names ...string) (*Config, error) {
	if len(names) == 0 {
		return nil, errors.Errorf("code error ReadConfig() without names")
	}

	if osfs, ok := fs.(*OsFullReader); ok {
		dir, name := filepath.Split(names[0])
		if err := osfs.SetBase(dir); err != nil {
			return nil, err
		}
		names[0] = name
	}
	c := &Config{
		includeSeen: make(map[string]struct{}),
	}
	errs := make([]error, 0, 8)
	for _, name := range names {
		c.read(log, fs, ConfigSource{Name: name}, &errs)
	}
	if len(errs) == 0 {
		errs = append(errs, c.Validate())
	}
	return c, helpers.FoldErrors(errs)
}

func MustReadConfig(log *log2.Log, fs FullReader, names ...string) *Config {
	c, err := ReadConfig(log, fs, names...)
	if err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	return c
}
