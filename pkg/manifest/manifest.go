package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/BurntSushi/toml"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/tendril/internal/dto"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/mapper"
	"github.com/aretw0/tendril/pkg/registry"
)

// Format selects the decoder for manifest bytes.
type Format string

const (
	YAML Format = "yaml"
	JSON Format = "json"
	TOML Format = "toml"
)

// FormatFromPath picks the format from a file extension. Unknown extensions read as YAML.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSON
	case ".toml":
		return TOML
	default:
		return YAML
	}
}

// Loader turns manifests into commands.
type Loader struct {
	handlers *registry.Registry
	mappers  *mapper.Registry
}

// NewLoader creates a loader resolving handler names in handlers and
// registering argument mappers into mappers.
func NewLoader(handlers *registry.Registry, mappers *mapper.Registry) *Loader {
	return &Loader{handlers: handlers, mappers: mappers}
}

// LoadFile reads and builds the manifest at path.
func (l *Loader) LoadFile(path string) ([]*domain.Command, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return l.Load(data, FormatFromPath(path))
}

// Load decodes data and builds every command in it. Commands that fail are
// reported together in a *domain.AggregateError; the others are returned.
func (l *Loader) Load(data []byte, format Format) ([]*domain.Command, error) {
	m, err := Decode(data, format)
	if err != nil {
		return nil, err
	}

	var (
		cmds []*domain.Command
		errs []error
	)
	for i, spec := range m.Commands {
		cmd, err := l.build(spec)
		if err != nil {
			errs = append(errs, fmt.Errorf("command %d (%q): %w", i, spec.Route, err))
			continue
		}
		cmds = append(cmds, cmd)
	}
	if len(errs) > 0 {
		return cmds, &domain.AggregateError{Errors: errs}
	}
	return cmds, nil
}

// Decode parses data into a manifest tree. The document is first decoded
// into a generic map and then mapped onto dto.Manifest, so all three
// formats share the same field names and unknown keys are rejected.
func Decode(data []byte, format Format) (*dto.Manifest, error) {
	raw := make(map[string]any)
	var err error
	switch format {
	case JSON:
		err = json.Unmarshal(data, &raw)
	case TOML:
		err = toml.Unmarshal(data, &raw)
	default:
		err = yaml.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s manifest: %w", format, err)
	}

	var m dto.Manifest
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &m,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	return &m, nil
}

func (l *Loader) build(spec dto.CommandSpec) (*domain.Command, error) {
	if _, err := domain.ParseRoute(spec.Route); err != nil {
		return nil, err
	}
	if spec.Handler == "" {
		return nil, errors.New("missing handler")
	}
	h, err := l.handlers.Lookup(spec.Handler)
	if err != nil {
		return nil, err
	}

	cmd := &domain.Command{
		Route:       spec.Route,
		Description: spec.Description,
		Permission:  spec.Permission,
		Async:       spec.Async,
		Handler:     h,
	}
	for _, as := range spec.Arguments {
		arg, err := l.argument(spec.Route, as)
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", as.Name, err)
		}
		cmd.Arguments = append(cmd.Arguments, arg.WithDescription(as.Description))
	}
	return cmd, nil
}

func (l *Loader) argument(route string, as dto.ArgumentSpec) (domain.Argument, error) {
	if as.Name == "" {
		return domain.Argument{}, errors.New("missing name")
	}
	short, err := shorthand(as.Shorthand)
	if err != nil {
		return domain.Argument{}, err
	}

	kind := strings.ToLower(as.Kind)
	switch kind {
	case "", "positional", "flag":
	case "switch":
		return domain.PresenceFlag(as.Name, short, ArgKey[bool](as.Name)), nil
	default:
		return domain.Argument{}, fmt.Errorf("unknown kind %q", as.Kind)
	}

	b := binder{loader: l, route: route, spec: as, flag: kind == "flag", short: short}
	switch strings.ToLower(as.Type) {
	case "", "string", "word":
		return bindString(b, mapper.String())
	case "quotable":
		return bindString(b, mapper.Quotable())
	case "greedy":
		return bindString(b, mapper.Greedy())
	case "choice":
		if len(as.Options) == 0 {
			return domain.Argument{}, errors.New("choice needs options")
		}
		return bind(b, mapper.Choice(as.Options...)), nil
	case "int":
		lo, hi, err := bounds(as, math.MinInt, math.MaxInt)
		if err != nil {
			return domain.Argument{}, err
		}
		return bind(b, mapper.Range(mapper.Int(), lo, hi)), nil
	case "int64":
		lo, hi, err := bounds(as, int64(math.MinInt64), int64(math.MaxInt64))
		if err != nil {
			return domain.Argument{}, err
		}
		return bind(b, mapper.Range(mapper.Int64(), lo, hi)), nil
	case "float", "float64":
		lo, hi, err := bounds(as, math.Inf(-1), math.Inf(1))
		if err != nil {
			return domain.Argument{}, err
		}
		return bind(b, mapper.Range(mapper.Float64(), lo, hi)), nil
	case "bool":
		return bind(b, mapper.Bool()), nil
	case "duration":
		return bind(b, mapper.Duration()), nil
	default:
		return domain.Argument{}, fmt.Errorf("unknown type %q", as.Type)
	}
}

type binder struct {
	loader *Loader
	route  string
	spec   dto.ArgumentSpec
	flag   bool
	short  rune
}

// ArgKey is the context key a manifest argument named name is stored
// under. The prefix keeps manifest values apart from host keys such as
// domain.SubjectKey.
func ArgKey[T any](name string) domain.Key[T] {
	return domain.NewKey[T]("arg:" + name)
}

// bind registers m under a key private to this route and argument and
// returns the argument definition reading it.
func bind[T any](b binder, m mapper.Mapper[T]) domain.Argument {
	if len(b.spec.Options) > 0 && strings.ToLower(b.spec.Type) != "choice" {
		m = mapper.WithSuggestions(m, b.spec.Options...)
	}

	key := ArgKey[T](b.spec.Name)
	mapperKey := domain.NewKey[T]("manifest:" + b.route + ":" + b.spec.Name)
	mapper.Register(b.loader.mappers, mapperKey, m)

	if b.flag {
		return domain.ValueFlag(b.spec.Name, b.short, key, mapperKey)
	}
	return domain.Positional(b.spec.Name, key, mapperKey)
}

func bindString(b binder, m mapper.Mapper[string]) (domain.Argument, error) {
	if b.spec.Pattern != "" {
		re, err := regexp.Compile(b.spec.Pattern)
		if err != nil {
			return domain.Argument{}, fmt.Errorf("bad pattern: %w", err)
		}
		m = mapper.Regex(m, re)
	}
	if b.spec.Lower {
		m = mapper.Lower(m)
	}
	return bind(b, m), nil
}

// bounds converts the optional min/max of as, falling back to lo and hi.
// Values beyond the type's range are clamped to it; integer bounds are
// rounded inwards.
func bounds[T int | int64 | float64](as dto.ArgumentSpec, lo, hi T) (T, T, error) {
	half := 0.5
	integer := T(half) == 0
	convert := func(f float64, round func(float64) float64) (T, error) {
		switch {
		case math.IsNaN(f):
			return 0, errors.New("bound is not a number")
		case f <= float64(lo):
			return lo, nil
		case f >= float64(hi):
			return hi, nil
		case integer:
			f = round(f)
		}
		return T(f), nil
	}

	from, to := lo, hi
	var err error
	if as.Min != nil {
		if from, err = convert(*as.Min, math.Ceil); err != nil {
			return 0, 0, fmt.Errorf("min: %w", err)
		}
	}
	if as.Max != nil {
		if to, err = convert(*as.Max, math.Floor); err != nil {
			return 0, 0, fmt.Errorf("max: %w", err)
		}
	}
	if from > to {
		return 0, 0, fmt.Errorf("min %v exceeds max %v", from, to)
	}
	return from, to, nil
}

func shorthand(s string) (rune, error) {
	switch utf8.RuneCountInString(s) {
	case 0:
		return 0, nil
	case 1:
		r, _ := utf8.DecodeRuneInString(s)
		return r, nil
	default:
		return 0, fmt.Errorf("shorthand %q must be a single character", s)
	}
}
