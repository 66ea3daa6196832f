package tui_test

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"go.trai.ch/strata/internal/adapters/tui"
)

func apply(m tui.Model, msgs ...tea.Msg) tui.Model {
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(tui.Model)
	}
	return m
}

func TestModel_InitPackages(t *testing.T) {
	m := apply(tui.NewModel(), tui.MsgInitPackages{Packages: []string{"zlib", "openssl", "app"}})

	if len(m.Packages) != 3 {
		t.Fatalf("expected 3 packages, got %d", len(m.Packages))
	}
	for _, pkg := range m.Packages {
		if pkg.Status != tui.StatusPending {
			t.Errorf("package %s should start pending, got %s", pkg.Name, pkg.Status)
		}
	}
	if m.Packages[0].Name != "zlib" {
		t.Errorf("announce order must be preserved, got %s first", m.Packages[0].Name)
	}
}

func TestModel_Lifecycle(t *testing.T) {
	m := apply(tui.NewModel(),
		tui.MsgInitPackages{Packages: []string{"zlib", "app"}},
		tui.MsgPackageStart{Name: "zlib"},
		tui.MsgPackageLog{Name: "zlib", Data: []byte("configuring...\n")},
		tui.MsgPackageComplete{Name: "zlib"},
		tui.MsgPackageStart{Name: "app"},
		tui.MsgPackageComplete{Name: "app", Err: errors.New("link failed")},
	)

	zlib := m.PackageMap["zlib"]
	if zlib.Status != tui.StatusDone {
		t.Errorf("expected zlib done, got %s", zlib.Status)
	}
	if got := zlib.Logs.String(); got != "configuring...\n" {
		t.Errorf("unexpected logs: %q", got)
	}

	app := m.PackageMap["app"]
	if app.Status != tui.StatusError {
		t.Errorf("expected app error, got %s", app.Status)
	}
	if m.ActivePackage != "app" {
		t.Errorf("focus should follow the last started package, got %q", m.ActivePackage)
	}
}

func TestModel_CachedPackage(t *testing.T) {
	m := apply(tui.NewModel(),
		tui.MsgInitPackages{Packages: []string{"zlib"}},
		tui.MsgPackageStart{Name: "zlib"},
		tui.MsgPackageCached{Name: "zlib"},
		tui.MsgPackageComplete{Name: "zlib"},
	)

	zlib := m.PackageMap["zlib"]
	if !zlib.Cached {
		t.Error("expected cached flag")
	}
	if zlib.Status != tui.StatusDone {
		t.Errorf("cached package should read done, got %s", zlib.Status)
	}
}

func TestModel_UnknownPackageIgnored(t *testing.T) {
	m := apply(tui.NewModel(),
		tui.MsgInitPackages{Packages: []string{"zlib"}},
		tui.MsgPackageLog{Name: "ghost", Data: []byte("noise")},
		tui.MsgPackageComplete{Name: "ghost"},
	)

	if len(m.Packages) != 1 {
		t.Fatalf("unexpected package count %d", len(m.Packages))
	}
}

func TestModel_QuitKeys(t *testing.T) {
	m := tui.NewModel()
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("ctrl+c should quit")
	}
}
