package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const docYAML = `roles:
  - id: chef
    producing: true
    items_per_hour: 10
    min_present: 1
    independent: true
employees:
  - id: alice
    roles: [chef]
    available_days: [Monday, Tuesday]
    preferred_days: [Monday]
    available_hours:
      Monday: {start: 540, end: 1020}
    hourly_wage: 12.5
    max_hours_per_week: 40
    max_consec_slots: 4
    pref_hours: 20
chains:
  - id: kitchen
    roles: [chef]
    contrib_factor: 0.8
config:
  slot_len_hour: 1
  min_shift_length_slots: 1
  operating_hours: {start: 540, end: 1020}
demand:
  Monday:
    9: {items: 12, orders: 4}
    10: {items: 3}
`

func writeFile(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	return path
}

func TestLoadDocument(t *testing.T) {
	in, demand, err := LoadDocument(writeFile(t, "doc.yaml", docYAML))
	require.NoError(t, err)

	require.Len(t, in.Roles, 1)
	require.Equal(t, "chef", in.Roles[0].ID)
	require.Len(t, in.Employees, 1)

	e := in.Employees[0]
	require.Equal(t, []time.Weekday{time.Monday, time.Tuesday}, e.AvailableDays)
	require.Contains(t, e.AvailableHours, time.Monday)
	require.Equal(t, 540, e.AvailableHours[time.Monday].Start)
	require.Equal(t, 1020, e.AvailableHours[time.Monday].End)

	require.Equal(t, 12, demand.ItemsAt(time.Monday, 9))
	require.Equal(t, 3, demand.ItemsAt(time.Monday, 10))

	require.NotNil(t, in.Config.OperatingHours)
	require.Equal(t, 540, in.Config.OperatingHours.Start)
}

func TestDecodeDocument(t *testing.T) {
	doc, err := DecodeDocument(strings.NewReader(docYAML), "yaml")
	require.NoError(t, err)
	require.Len(t, doc.Employees, 1)
	require.Equal(t, []string{"Monday", "Tuesday"}, doc.Employees[0].AvailableDays)

	in, demand, err := doc.Resolve()
	require.NoError(t, err)
	require.Len(t, in.Employees, 1)
	require.Equal(t, 12, demand.ItemsAt(time.Monday, 9))
}

func TestDecodeDocumentJSON(t *testing.T) {
	src := `{
  "roles": [{"id": "chef", "producing": true, "items_per_hour": 10}],
  "employees": [],
  "config": {"slot_len_hour": 1, "min_shift_length_slots": 1}
}`
	doc, err := DecodeDocument(strings.NewReader(src), "json")
	require.NoError(t, err)
	require.Len(t, doc.Roles, 1)
	require.Equal(t, 10.0, doc.Roles[0].ItemsPerHour)
}

func TestDecodeDocumentRejectsUnknownFormat(t *testing.T) {
	_, err := DecodeDocument(strings.NewReader("{}"), "toml")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported document format")
}

func TestLoadDocumentRejectsUnknownWeekday(t *testing.T) {
	doc := `roles:
  - id: chef
    producing: true
    items_per_hour: 10
employees: []
config:
  slot_len_hour: 1
  min_shift_length_slots: 1
demand:
  Funday:
    9: {items: 1}
`
	_, _, err := LoadDocument(writeFile(t, "doc.yaml", doc))
	require.ErrorContains(t, err, "unknown weekday")
}

func TestLoadDocumentRejectsInvalidInput(t *testing.T) {
	doc := `roles:
  - id: chef
    producing: true
config:
  slot_len_hour: 1
  min_shift_length_slots: 1
`
	_, _, err := LoadDocument(writeFile(t, "doc.yaml", doc))
	require.Error(t, err, "producing role without a rate must be rejected")
}

func TestLoadConfig(t *testing.T) {
	cfg, err := Load(writeFile(t, "engine.yaml", "policy:\n  cost_scale: 1000\nsolver:\n  workers: 4\n"))
	require.NoError(t, err)
	require.Equal(t, 1000, cfg.Policy.CostScale)
	require.NotZero(t, cfg.Policy.UnmetDemandPenalty, "unset policy fields take normalized defaults")
	require.Equal(t, 4, cfg.Solver.Workers)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("RK_POLICY__COST_SCALE", "250")
	cfg, err := Load(writeFile(t, "engine.yaml", "policy:\n  cost_scale: 1000\n"))
	require.NoError(t, err)
	require.Equal(t, 250, cfg.Policy.CostScale)
}

func TestLoadRejectsUnknownFormat(t *testing.T) {
	_, err := Load(writeFile(t, "engine.toml", "x = 1"))
	require.Error(t, err)
}
