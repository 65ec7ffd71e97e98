package database

import "testing"

func TestSettings(t *testing.T) {
	m := newTestManager(t)

	value, err := m.GetSetting("maintenance.schedule")
	if err != nil || value != "" {
		t.Fatalf("GetSetting before defaults = %q, %v; want empty, nil", value, err)
	}

	if err := m.SetSetting("maintenance.schedule", "@hourly"); err != nil {
		t.Fatalf("SetSetting returned error: %v", err)
	}
	if err := m.InitializeDefaults(); err != nil {
		t.Fatalf("InitializeDefaults returned error: %v", err)
	}

	value, err = m.GetSetting("maintenance.schedule")
	if err != nil || value != "@hourly" {
		t.Fatalf("expected existing setting to be kept, got %q, %v", value, err)
	}

	value, err = m.GetSetting("log.compress")
	if err != nil || value != "true" {
		t.Fatalf("expected default log.compress=true, got %q, %v", value, err)
	}

	if got := countRows(t, m, "settings"); got != len(DefaultSettings) {
		t.Fatalf("expected %d settings, got %d", len(DefaultSettings), got)
	}
}

func TestMaintenance(t *testing.T) {
	m := newTestManager(t)

	if err := m.Optimize(); err != nil {
		t.Fatalf("Optimize returned error: %v", err)
	}
	if err := m.Vacuum(); err != nil {
		t.Fatalf("Vacuum returned error: %v", err)
	}
}
