package tui

import (
	"bytes"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	packageListWidthRatio = 0.3
	logPaneBorderWidth    = 4
)

// PackageStatus represents the current state of a package build.
type PackageStatus string

const (
	// StatusPending indicates the package is waiting on dependencies or a slot.
	StatusPending PackageStatus = "Pending"
	// StatusBuilding indicates the package is currently building.
	StatusBuilding PackageStatus = "Building"
	// StatusDone indicates the package built successfully.
	StatusDone PackageStatus = "Done"
	// StatusError indicates the package build failed.
	StatusError PackageStatus = "Error"
)

// PackageNode represents a single package in the UI list.
type PackageNode struct {
	Name   string
	Status PackageStatus
	Logs   bytes.Buffer
	Cached bool
}

// Model represents the main TUI state.
type Model struct {
	Packages      []*PackageNode
	PackageMap    map[string]*PackageNode
	Viewport      viewport.Model
	AutoScroll    bool
	ActivePackage string
}

// NewModel creates a new TUI model with default settings.
func NewModel() Model {
	return Model{
		Packages:   make([]*PackageNode, 0),
		PackageMap: make(map[string]*PackageNode),
		Viewport:   viewport.New(0, 0),
		AutoScroll: true,
	}
}

// Init initializes the model.
//
//nolint:gocritic // hugeParam ignored
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles incoming messages and updates the model state.
//
//nolint:cyclop,gocritic // hugeParam ignored, cyclop ignored
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		listWidth := int(float64(msg.Width) * packageListWidthRatio)
		logWidth := msg.Width - listWidth - logPaneBorderWidth

		m.Viewport.Width = logWidth
		m.Viewport.Height = msg.Height - 2

	case MsgInitPackages:
		m.Packages = make([]*PackageNode, 0, len(msg.Packages))
		m.PackageMap = make(map[string]*PackageNode, len(msg.Packages))
		for _, name := range msg.Packages {
			node := &PackageNode{Name: name, Status: StatusPending}
			m.Packages = append(m.Packages, node)
			m.PackageMap[name] = node
		}

	case MsgPackageStart:
		if node, ok := m.PackageMap[msg.Name]; ok {
			node.Status = StatusBuilding

			// Focus follows activity
			m.ActivePackage = msg.Name
			m.Viewport.SetContent(node.Logs.String())
			if m.AutoScroll {
				m.Viewport.GotoBottom()
			}
		}

	case MsgPackageLog:
		if node, ok := m.PackageMap[msg.Name]; ok {
			node.Logs.Write(msg.Data)

			if node.Name == m.ActivePackage {
				m.Viewport.SetContent(node.Logs.String())
				if m.AutoScroll {
					m.Viewport.GotoBottom()
				}
			}
		}

	case MsgPackageCached:
		if node, ok := m.PackageMap[msg.Name]; ok {
			node.Cached = true
			node.Status = StatusDone
		}

	case MsgPackageComplete:
		if node, ok := m.PackageMap[msg.Name]; ok {
			if msg.Err != nil {
				node.Status = StatusError
			} else if !node.Cached {
				node.Status = StatusDone
			}
		}
	}

	return m, nil
}
