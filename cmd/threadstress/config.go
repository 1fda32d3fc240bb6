package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joeycumines/logiface"
)

// config is the stress run configuration, loaded from an optional TOML
// file, then overridden by any explicitly set flags.
type config struct {
	Scenarios   []string `toml:"scenarios"`
	LogLevel    string   `toml:"log_level"`
	Duration    duration `toml:"duration"`
	Workers     int      `toml:"workers"`
	Iterations  int      `toml:"iterations"`
	MemoryRatio float64  `toml:"memory_ratio"`
}

// duration decodes from TOML strings such as "1.5s".
type duration struct {
	time.Duration
}

func (x *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	x.Duration = v
	return nil
}

func (x duration) MarshalText() ([]byte, error) {
	return []byte(x.String()), nil
}

var errUsage = errors.New(`threadstress: invalid usage`)

func defaultConfig() config {
	return config{
		Scenarios:   scenarioNames(),
		LogLevel:    `info`,
		Duration:    duration{time.Second * 30},
		Iterations:  10000,
		MemoryRatio: 0.9,
	}
}

// parseConfig resolves the configuration for the given command line.
func parseConfig(args []string, output io.Writer) (*config, error) {
	cfg := defaultConfig()

	fs := flag.NewFlagSet(`threadstress`, flag.ContinueOnError)
	fs.SetOutput(output)

	var (
		path         string
		scenarioList string
		flagCfg      config
	)
	fs.StringVar(&path, `config`, ``, `path to a TOML config file`)
	fs.StringVar(&scenarioList, `scenarios`, strings.Join(cfg.Scenarios, `,`), `comma separated scenarios to run`)
	fs.StringVar(&flagCfg.LogLevel, `log-level`, cfg.LogLevel, `log level (trace, debug, info, notice, warning, err, crit)`)
	fs.DurationVar(&flagCfg.Duration.Duration, `duration`, cfg.Duration.Duration, `overall time limit`)
	fs.IntVar(&flagCfg.Workers, `workers`, cfg.Workers, `goroutines per scenario (0 is processors x 4)`)
	fs.IntVar(&flagCfg.Iterations, `iterations`, cfg.Iterations, `iterations per worker`)
	fs.Float64Var(&flagCfg.MemoryRatio, `memory-ratio`, cfg.MemoryRatio, `ratio of available memory used as the GOMEMLIMIT (0 disables)`)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 0 {
		return nil, fmt.Errorf(`%w: unexpected arguments: %q`, errUsage, fs.Args())
	}

	if path != `` {
		md, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return nil, fmt.Errorf(`threadstress: config %s: %w`, path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) != 0 {
			return nil, fmt.Errorf(`%w: config %s: unknown keys: %v`, errUsage, path, undecoded)
		}
	}

	// explicit flags take precedence over the file
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case `scenarios`:
			cfg.Scenarios = splitList(scenarioList)
		case `log-level`:
			cfg.LogLevel = flagCfg.LogLevel
		case `duration`:
			cfg.Duration = flagCfg.Duration
		case `workers`:
			cfg.Workers = flagCfg.Workers
		case `iterations`:
			cfg.Iterations = flagCfg.Iterations
		case `memory-ratio`:
			cfg.MemoryRatio = flagCfg.MemoryRatio
		}
	})

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (x *config) validate() error {
	if len(x.Scenarios) == 0 {
		return fmt.Errorf(`%w: no scenarios`, errUsage)
	}
	for _, name := range x.Scenarios {
		if _, ok := scenarios[name]; !ok {
			return fmt.Errorf(`%w: unknown scenario %q`, errUsage, name)
		}
	}
	if _, err := parseLevel(x.LogLevel); err != nil {
		return err
	}
	if x.Duration.Duration <= 0 {
		return fmt.Errorf(`%w: duration must be positive`, errUsage)
	}
	if x.Workers < 0 {
		return fmt.Errorf(`%w: workers must not be negative`, errUsage)
	}
	if x.Iterations < 1 {
		return fmt.Errorf(`%w: iterations must be positive`, errUsage)
	}
	if x.MemoryRatio < 0 || x.MemoryRatio > 1 {
		return fmt.Errorf(`%w: memory ratio must be within [0, 1]`, errUsage)
	}
	return nil
}

func parseLevel(s string) (logiface.Level, error) {
	for _, level := range [...]logiface.Level{
		logiface.LevelTrace,
		logiface.LevelDebug,
		logiface.LevelInformational,
		logiface.LevelNotice,
		logiface.LevelWarning,
		logiface.LevelError,
		logiface.LevelCritical,
	} {
		if level.String() == s {
			return level, nil
		}
	}
	return logiface.LevelDisabled, fmt.Errorf(`%w: unknown log level %q`, errUsage, s)
}

func splitList(s string) (result []string) {
	for _, v := range strings.Split(s, `,`) {
		if v = strings.TrimSpace(v); v != `` {
			result = append(result, v)
		}
	}
	return result
}
