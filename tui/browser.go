package tui

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/samaelod/anycan/testcase"
)

// FileBrowser walks directories to pick a test case folder. Files are
// listed for orientation; supported test case files are highlighted.
type FileBrowser struct {
	List       list.Model
	CurrentDir string
	Chosen     string // set when the operator picks CurrentDir
	Height     int
	Width      int
	Err        error
}

type fileItem struct {
	name  string
	path  string
	isDir bool
	size  int64
}

func (i fileItem) Title() string {
	if i.isDir {
		return i.name + "/"
	}
	return i.name
}

func (i fileItem) Description() string {
	if i.isDir {
		return "Directory"
	}
	return fmt.Sprintf("File • %d bytes", i.size)
}

func (i fileItem) FilterValue() string { return i.name }

type browserDelegate struct{}

func (d browserDelegate) Height() int                               { return 1 }
func (d browserDelegate) Spacing() int                              { return 0 }
func (d browserDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d browserDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(fileItem)
	if !ok {
		return
	}

	str := i.Title()
	var style lipgloss.Style
	switch {
	case index == m.Index():
		style = styleSelected
		str = "> " + str
	case i.isDir:
		style = lipgloss.NewStyle().Foreground(colorText).Bold(true)
		str = "  " + str
	case testcase.Supported(i.name):
		style = lipgloss.NewStyle().Foreground(colorPrimary)
		str = "  " + str
	default:
		style = styleDisabled
		str = "  " + str
	}

	fmt.Fprint(w, style.Render(str))
}

func NewFileBrowser(dir string) FileBrowser {
	if dir == "" {
		dir, _ = os.Getwd()
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}

	l := list.New([]list.Item{}, browserDelegate{}, 0, 0)
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)

	fb := FileBrowser{List: l, CurrentDir: dir}
	fb.refreshDir()
	return fb
}

func (fb *FileBrowser) refreshDir() {
	entries, err := os.ReadDir(fb.CurrentDir)
	if err != nil {
		fb.Err = err
		fb.List.SetItems(nil)
		return
	}
	fb.Err = nil

	var items []list.Item
	if filepath.Dir(fb.CurrentDir) != fb.CurrentDir {
		items = append(items, fileItem{name: "..", path: filepath.Dir(fb.CurrentDir), isDir: true})
	}

	// directories first
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].IsDir() != entries[j].IsDir() {
			return entries[i].IsDir()
		}
		return entries[i].Name() < entries[j].Name()
	})

	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		var size int64
		if info, err := e.Info(); err == nil {
			size = info.Size()
		}
		items = append(items, fileItem{
			name:  e.Name(),
			path:  filepath.Join(fb.CurrentDir, e.Name()),
			isDir: e.IsDir(),
			size:  size,
		})
	}

	fb.List.SetItems(items)
}

// CaseCount reports how many supported test case files dir holds.
func (fb *FileBrowser) CaseCount(dir string) int {
	paths, err := testcase.List(dir)
	if err != nil {
		return 0
	}
	return len(paths)
}

func (fb *FileBrowser) enter(dir string) {
	fb.CurrentDir = dir
	fb.refreshDir()
	fb.List.ResetSelected()
}

func (fb FileBrowser) Update(msg tea.Msg) (FileBrowser, tea.Cmd) {
	fb.Chosen = ""

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "enter", "right":
			if fi, ok := fb.List.SelectedItem().(fileItem); ok && fi.isDir {
				fb.enter(fi.path)
			}
			return fb, nil
		case "backspace", "left":
			if parent := filepath.Dir(fb.CurrentDir); parent != fb.CurrentDir {
				fb.enter(parent)
			}
			return fb, nil
		case "s", " ":
			fb.Chosen = fb.CurrentDir
			return fb, nil
		}
	}

	var cmd tea.Cmd
	fb.List, cmd = fb.List.Update(msg)
	return fb, cmd
}

func (fb *FileBrowser) SetSize(width, height int) {
	fb.Width = width
	fb.Height = height
	fb.List.SetSize(width, height)
}

func (fb FileBrowser) View() string {
	if fb.Err != nil {
		return styleErr.Render(fb.Err.Error())
	}
	return fb.List.View()
}
