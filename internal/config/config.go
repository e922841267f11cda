package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/DoyleJ11/wordbomb-backend/internal/dictionary"
	"github.com/DoyleJ11/wordbomb-backend/internal/engine"
)

const EnvPrefix = "WORDBOMB"

type Config struct {
	Bind           string
	Port           int
	Teams          []string
	StartingLives  int
	TimerLength    time.Duration
	TickInterval   time.Duration
	SequenceMin    int
	SequenceMax    int
	SkipEliminated bool
	WordsPath      string
	SequencesPath  string
	LogLevel       string
	Dev            bool
	Origins        []string
	HistoryLimit   int
}

// LoadDotEnv reads path into the process environment. A missing file is fine.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// BindFlags registers every setting on flags and seeds them from WORDBOMB_*
// environment variables. Flags given on the command line still win.
func BindFlags(flags *pflag.FlagSet, cfg *Config) error {
	flags.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	flags.StringVarP(&cfg.Bind, "bind", "b", "0.0.0.0", "address to bind to (env: WORDBOMB_BIND)")
	flags.IntVarP(&cfg.Port, "port", "p", 8080, "port to listen on (env: WORDBOMB_PORT)")
	flags.StringSliceVar(&cfg.Teams, "teams", []string{"Lato", "Biny"}, "team names, in turn order (env: WORDBOMB_TEAMS)")
	flags.IntVar(&cfg.StartingLives, "starting-lives", 3, "lives each team starts with (env: WORDBOMB_STARTING_LIVES)")
	flags.DurationVar(&cfg.TimerLength, "timer-length", 10*time.Second, "time a team has to submit a word (env: WORDBOMB_TIMER_LENGTH)")
	flags.DurationVar(&cfg.TickInterval, "tick-interval", 200*time.Millisecond, "timer polling granularity (env: WORDBOMB_TICK_INTERVAL)")
	flags.IntVar(&cfg.SequenceMin, "sequence-min", 2, "shortest sequence drawn (env: WORDBOMB_SEQUENCE_MIN)")
	flags.IntVar(&cfg.SequenceMax, "sequence-max", 4, "longest sequence drawn (env: WORDBOMB_SEQUENCE_MAX)")
	flags.BoolVar(&cfg.SkipEliminated, "skip-eliminated", false, "skip eliminated teams in the turn order (env: WORDBOMB_SKIP_ELIMINATED)")
	flags.StringVar(&cfg.WordsPath, "words", "resources/valid_words.txt", "newline-delimited word list (env: WORDBOMB_WORDS)")
	flags.StringVar(&cfg.SequencesPath, "sequences", "resources/sequences_300.txt", "newline-delimited sequence list (env: WORDBOMB_SEQUENCES)")
	flags.StringVar(&cfg.LogLevel, "log-level", "info", "debug, info, warn or error (env: WORDBOMB_LOG_LEVEL)")
	flags.BoolVar(&cfg.Dev, "dev", false, "colored console logs (env: WORDBOMB_DEV)")
	flags.StringSliceVar(&cfg.Origins, "origins", nil, "origin host patterns allowed for CORS and websockets; --dev allows any when unset (env: WORDBOMB_ORIGINS)")
	flags.IntVar(&cfg.HistoryLimit, "history-limit", 20, "default number of games listed by /history (env: WORDBOMB_HISTORY_LIMIT)")

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var errs []error
	flags.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if f.Changed || !v.IsSet(f.Name) {
			return
		}
		raw := fmt.Sprintf("%v", v.Get(f.Name))

		var err error
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			// Replace keeps a later command-line value from appending to the env one.
			err = sv.Replace(strings.Split(raw, ","))
		} else {
			err = flags.Set(f.Name, raw)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f.Name, err))
		}
	})
	return errors.Join(errs...)
}

func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}
	if len(c.Teams) < 2 {
		return fmt.Errorf("at least two teams are required, got %d", len(c.Teams))
	}
	seen := make(map[string]bool, len(c.Teams))
	for _, name := range c.Teams {
		if strings.TrimSpace(name) == "" {
			return errors.New("team names must not be empty")
		}
		if seen[name] {
			return fmt.Errorf("duplicate team name %q", name)
		}
		seen[name] = true
	}
	if c.StartingLives < 1 {
		return fmt.Errorf("starting lives must be at least 1, got %d", c.StartingLives)
	}
	if c.TimerLength <= 0 || c.TickInterval <= 0 {
		return errors.New("timer length and tick interval must be positive")
	}
	if c.TickInterval > c.TimerLength {
		return fmt.Errorf("tick interval %s exceeds timer length %s", c.TickInterval, c.TimerLength)
	}
	if c.SequenceMin < 1 || c.SequenceMin > c.SequenceMax {
		return fmt.Errorf("invalid sequence length range [%d, %d]", c.SequenceMin, c.SequenceMax)
	}
	if c.HistoryLimit < 1 {
		return fmt.Errorf("history limit must be at least 1, got %d", c.HistoryLimit)
	}
	return nil
}

func (c *Config) Addr() string { return net.JoinHostPort(c.Bind, strconv.Itoa(c.Port)) }

// AllowedOrigins is the origin pattern list handed to the router. Without
// explicit patterns, development mode accepts any origin and production
// accepts same-origin requests only.
func (c *Config) AllowedOrigins() []string {
	if len(c.Origins) == 0 && c.Dev {
		return []string{"*"}
	}
	return c.Origins
}

func (c *Config) Rules() engine.Rules {
	return engine.Rules{
		StartingLives:  c.StartingLives,
		TimerLength:    c.TimerLength,
		TickInterval:   c.TickInterval,
		SequenceMin:    c.SequenceMin,
		SequenceMax:    c.SequenceMax,
		SkipEliminated: c.SkipEliminated,
	}
}

func (c *Config) DictionaryOptions() dictionary.Options {
	return dictionary.Options{MinSequence: c.SequenceMin, MaxSequence: c.SequenceMax}
}
