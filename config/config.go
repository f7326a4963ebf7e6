// Package config loads engine configuration and scheduling documents from
// yaml or json files, with optional environment overrides.
package config

import (
	stdjson "encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	goyaml "gopkg.in/yaml.v3"

	"github.com/rosterkit/rosterkit/core/model"
	"github.com/rosterkit/rosterkit/core/policy"
)

// Config tunes the engine without touching the scheduling document itself.
type Config struct {
	Policy policy.Policy        `json:"policy"`
	Solver model.SolverSettings `json:"solver"`
}

// Load reads engine configuration from path. RK_-prefixed environment
// variables override file values, with "__" as the key separator
// (e.g. RK_POLICY__COST_SCALE). The loaded policy is normalized.
func Load(path string) (*Config, error) {
	k, err := loadFile(path)
	if err != nil {
		return nil, err
	}
	if err := k.Load(env.Provider("RK_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "rk_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Policy = cfg.Policy.Normalize()
	return &cfg, nil
}

// Document is the on-disk form of a complete scheduling problem: the input
// and its demand forecast. Weekdays are spelled out ("Monday") so documents
// stay readable; Resolve converts them to the engine's model types.
type Document struct {
	Roles     []model.Role                        `json:"roles" yaml:"roles"`
	Employees []EmployeeDoc                       `json:"employees" yaml:"employees"`
	Chains    []model.ProductionChain             `json:"chains" yaml:"chains"`
	Config    model.SchedulerConfig               `json:"config" yaml:"config"`
	Demand    map[string]map[int]model.HourDemand `json:"demand" yaml:"demand"`
}

// EmployeeDoc mirrors model.Employee with weekday names as map keys.
type EmployeeDoc struct {
	ID    string   `json:"id" yaml:"id"`
	Roles []string `json:"roles" yaml:"roles"`

	AvailableDays []string `json:"available_days" yaml:"available_days"`
	PreferredDays []string `json:"preferred_days" yaml:"preferred_days"`

	AvailableHours map[string]model.MinuteRange `json:"available_hours" yaml:"available_hours"`
	PreferredHours map[string]model.MinuteRange `json:"preferred_hours" yaml:"preferred_hours"`

	HourlyWage      float64 `json:"hourly_wage" yaml:"hourly_wage"`
	MaxHoursPerWeek float64 `json:"max_hours_per_week" yaml:"max_hours_per_week"`
	MaxConsecSlots  int     `json:"max_consec_slots" yaml:"max_consec_slots"`
	PrefHours       float64 `json:"pref_hours" yaml:"pref_hours"`
}

// Resolve converts the document into validated engine inputs.
func (d Document) Resolve() (model.SchedulerInput, model.DemandForecast, error) {
	in := model.SchedulerInput{
		Roles:  d.Roles,
		Chains: d.Chains,
		Config: d.Config,
	}
	for _, ed := range d.Employees {
		e, err := ed.resolve()
		if err != nil {
			return model.SchedulerInput{}, nil, err
		}
		in.Employees = append(in.Employees, e)
	}

	forecast := model.DemandForecast{}
	for name, hours := range d.Demand {
		day, err := parseWeekday(name)
		if err != nil {
			return model.SchedulerInput{}, nil, err
		}
		dst := make(map[int]model.HourDemand, len(hours))
		for h, v := range hours {
			dst[h] = v
		}
		forecast[day] = dst
	}

	if err := in.Validate(); err != nil {
		return model.SchedulerInput{}, nil, err
	}
	if err := forecast.Validate(); err != nil {
		return model.SchedulerInput{}, nil, err
	}
	return in, forecast, nil
}

func (d EmployeeDoc) resolve() (model.Employee, error) {
	e := model.Employee{
		ID:              d.ID,
		Roles:           d.Roles,
		HourlyWage:      d.HourlyWage,
		MaxHoursPerWeek: d.MaxHoursPerWeek,
		MaxConsecSlots:  d.MaxConsecSlots,
		PrefHours:       d.PrefHours,
	}
	for _, name := range d.AvailableDays {
		day, err := parseWeekday(name)
		if err != nil {
			return model.Employee{}, err
		}
		e.AvailableDays = append(e.AvailableDays, day)
	}
	for _, name := range d.PreferredDays {
		day, err := parseWeekday(name)
		if err != nil {
			return model.Employee{}, err
		}
		e.PreferredDays = append(e.PreferredDays, day)
	}
	if len(d.AvailableHours) > 0 {
		e.AvailableHours = map[time.Weekday]model.MinuteRange{}
		for name, r := range d.AvailableHours {
			day, err := parseWeekday(name)
			if err != nil {
				return model.Employee{}, err
			}
			e.AvailableHours[day] = r
		}
	}
	if len(d.PreferredHours) > 0 {
		e.PreferredHours = map[time.Weekday]model.MinuteRange{}
		for name, r := range d.PreferredHours {
			day, err := parseWeekday(name)
			if err != nil {
				return model.Employee{}, err
			}
			e.PreferredHours[day] = r
		}
	}
	return e, nil
}

// LoadDocument reads and resolves a scheduling document from path.
func LoadDocument(path string) (model.SchedulerInput, model.DemandForecast, error) {
	k, err := loadFile(path)
	if err != nil {
		return model.SchedulerInput{}, nil, err
	}
	var doc Document
	if err := k.UnmarshalWithConf("", &doc, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return model.SchedulerInput{}, nil, err
	}
	return doc.Resolve()
}

// DecodeDocument decodes a scheduling document from r. Format is "yaml",
// "yml" or "json". Unlike LoadDocument it does not touch the filesystem,
// which makes it suitable for documents arriving over the wire or stdin.
func DecodeDocument(r io.Reader, format string) (Document, error) {
	var doc Document
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := goyaml.NewDecoder(r).Decode(&doc); err != nil {
			return Document{}, fmt.Errorf("decoding yaml document: %w", err)
		}
	case "json":
		if err := stdjson.NewDecoder(r).Decode(&doc); err != nil {
			return Document{}, fmt.Errorf("decoding json document: %w", err)
		}
	default:
		return Document{}, fmt.Errorf("unsupported document format: %s", format)
	}
	return doc, nil
}

func loadFile(path string) (*koanf.Koanf, error) {
	k := koanf.New(".")
	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", filepath.Ext(path))
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	return k, nil
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func parseWeekday(name string) (time.Weekday, error) {
	if d, ok := weekdays[strings.ToLower(name)]; ok {
		return d, nil
	}
	return 0, fmt.Errorf("unknown weekday %q", name)
}
