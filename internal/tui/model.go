// Package tui provides the BubbleTea-based terminal user interface.
package tui

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/archcrafter/loom/internal/adapter/output"
	"github.com/archcrafter/loom/internal/config"
	"github.com/archcrafter/loom/internal/core"
	"github.com/archcrafter/loom/internal/model"
	"github.com/archcrafter/loom/internal/wallpaper"
	"github.com/archcrafter/loom/internal/watch"
)

const (
	loadTimeout  = 30 * time.Second
	applyTimeout = 60 * time.Second
)

// Backend is what the TUI needs from the appearance services.
type Backend interface {
	Items(ctx context.Context, kind string) ([]model.Item, error)
	Apply(ctx context.Context, kind, value string) (model.Result, error)
	Undo(ctx context.Context) (model.Result, error)
	Palette(path string, count int) []string
}

// Mode represents the current UI mode.
type Mode int

const (
	ModeList Mode = iota
	ModeDetail
	ModeSearch
	ModeHelp
)

var tabLabels = map[string]string{
	model.KindWallpaper:   "Wallpapers",
	model.KindGtkTheme:    "GTK",
	model.KindWindowTheme: "Openbox",
	model.KindIconTheme:   "Icons",
	model.KindCursorTheme: "Cursors",
	model.KindPreset:      "Presets",
}

// Model is the main TUI model.
type Model struct {
	// Configuration
	cfg     *config.Config
	backend Backend

	// Current mode
	mode Mode

	// Components
	list        list.Model
	viewport    viewport.Model
	searchInput textinput.Model
	help        help.Model

	// State
	tabs        []string
	tab         int
	items       []model.Item
	selected    *model.Item
	searchQuery string
	loading     bool
	busy        bool
	width       int
	height      int
	ready       bool

	// Key bindings
	keys KeyMap

	// Status message
	statusMsg string
	statusErr bool
}

// listItem wraps a model.Item for the list component.
type listItem struct {
	item model.Item
}

func (i listItem) Title() string {
	return i.item.Title()
}

func (i listItem) Description() string {
	var parts []string
	if i.item.Title() != i.item.Name && i.item.Kind != model.KindWallpaper {
		parts = append(parts, i.item.Name)
	}
	if i.item.Comment != "" {
		parts = append(parts, i.item.Comment)
	}
	if i.item.Size > 0 {
		parts = append(parts, humanize.Bytes(uint64(i.item.Size)))
	}
	if i.item.ModTime > 0 {
		parts = append(parts, i.item.RelativeTime())
	}
	if i.item.Dark {
		parts = append(parts, "dark")
	}
	if i.item.Colorized {
		parts = append(parts, "colorized")
	}
	return strings.Join(parts, " · ")
}

func (i listItem) FilterValue() string {
	return i.item.Name + " " + i.item.Display + " " + i.item.Comment
}

// itemDelegate renders rows with a current-item marker and palette swatches.
type itemDelegate struct {
	list.DefaultDelegate
}

func newItemDelegate() itemDelegate {
	return itemDelegate{DefaultDelegate: list.NewDefaultDelegate()}
}

// Render renders a list item.
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	li, ok := item.(listItem)
	if !ok {
		d.DefaultDelegate.Render(w, m, index, item)
		return
	}

	isSelected := index == m.Index()
	itemWidth := m.Width() - d.Styles.NormalTitle.GetHorizontalPadding()

	titleStyle := d.Styles.NormalTitle
	descStyle := d.Styles.NormalDesc
	if isSelected {
		titleStyle = d.Styles.SelectedTitle
		descStyle = d.Styles.SelectedDesc
	}
	if li.item.Current {
		titleStyle = titleStyle.Foreground(lipgloss.Color("10"))
	}

	title := li.Title()
	if li.item.Current {
		title = "● " + title
	}
	title = truncateWidth(title, itemWidth)

	desc := li.Description()
	swatches := renderSwatches(li.item.Colors)
	if swatches != "" {
		desc = truncateWidth(desc, itemWidth-lipgloss.Width(swatches)-1)
	} else {
		desc = truncateWidth(desc, itemWidth)
	}

	fmt.Fprint(w, titleStyle.Render(title))
	fmt.Fprint(w, "\n")
	fmt.Fprint(w, descStyle.Render(desc))
	if swatches != "" {
		fmt.Fprint(w, " "+swatches)
	}
}

// renderSwatches draws each colour as a two-cell block.
func renderSwatches(colors []string) string {
	var b strings.Builder
	for _, c := range colors {
		b.WriteString(lipgloss.NewStyle().Background(lipgloss.Color(c)).Render("  "))
	}
	return b.String()
}

func truncateWidth(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(runes[:width-1]) + "…"
}

// New creates a new TUI model.
func New(cfg *config.Config, backend Backend) Model {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	l := list.New(nil, newItemDelegate(), 0, 0)
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()

	searchInput := textinput.New()
	searchInput.Placeholder = "Search or filter (name~arc,dark=true)..."
	searchInput.CharLimit = 200

	m := Model{
		cfg:         cfg,
		backend:     backend,
		mode:        ModeList,
		list:        l,
		searchInput: searchInput,
		help:        help.New(),
		tabs:        append([]string(nil), model.Kinds...),
		keys:        DefaultKeyMap(),
	}
	m.list.Title = m.tabTitle()
	return m
}

// Init initializes the TUI.
func (m Model) Init() tea.Cmd {
	return m.loadItems(m.currentKind())
}

func (m Model) currentKind() string {
	return m.tabs[m.tab]
}

func (m Model) tabTitle() string {
	return tabLabels[m.currentKind()]
}

func (m Model) swatchCount() int {
	if m.cfg.TUI.SwatchCount > 0 {
		return m.cfg.TUI.SwatchCount
	}
	return config.DefaultSwatchCount
}

type itemsLoadedMsg struct {
	kind  string
	items []model.Item
	err   error
}

type appliedMsg struct {
	result model.Result
	err    error
	undo   bool
}

type paletteMsg struct {
	path   string
	colors []string
}

// refreshMsg asks for the items of kind to be reloaded.
type refreshMsg struct {
	kind string
}

type statusMsg struct {
	text  string
	isErr bool
}

type clearStatusMsg struct{}

type copyResultMsg struct {
	err error
}

// loadItems fetches the rows of kind off the update loop.
func (m Model) loadItems(kind string) tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		if backend == nil {
			return itemsLoadedMsg{kind: kind}
		}
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		items, err := backend.Items(ctx, kind)
		return itemsLoadedMsg{kind: kind, items: items, err: err}
	}
}

func (m Model) applyItem(item model.Item) tea.Cmd {
	backend := m.backend
	value := item.Name
	if item.Kind == model.KindWallpaper {
		value = item.Path
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), applyTimeout)
		defer cancel()
		res, err := backend.Apply(ctx, item.Kind, value)
		return appliedMsg{result: res, err: err}
	}
}

func (m Model) undo() tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), applyTimeout)
		defer cancel()
		res, err := backend.Undo(ctx)
		return appliedMsg{result: res, err: err, undo: true}
	}
}

func (m Model) loadPalette(path string) tea.Cmd {
	backend := m.backend
	count := m.swatchCount()
	return func() tea.Msg {
		return paletteMsg{path: path, colors: backend.Palette(path, count)}
	}
}

func status(text string, isErr bool) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: text, isErr: isErr}
	}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

		m.list.SetSize(msg.Width, msg.Height-3)
		m.viewport = viewport.New(msg.Width, msg.Height-4)
		m.viewport.YPosition = 2
		if m.selected != nil {
			m.viewport.SetContent(m.renderDetail(*m.selected))
		}
		return m, nil

	case itemsLoadedMsg:
		if msg.kind != m.currentKind() {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			return m, status("Failed to load "+tabLabels[msg.kind]+": "+msg.err.Error(), true)
		}
		m.items = msg.items
		m.list.SetItems(m.buildListItems())
		return m, nil

	case refreshMsg:
		if msg.kind != "" && msg.kind != m.currentKind() {
			return m, nil
		}
		return m, m.loadItems(m.currentKind())

	case appliedMsg:
		m.busy = false
		if msg.err != nil {
			prefix := "Apply failed: "
			if msg.undo {
				prefix = "Undo failed: "
			}
			return m, status(prefix+msg.err.Error(), true)
		}
		return m, tea.Batch(
			status(msg.result.Message, false),
			m.loadItems(m.currentKind()),
		)

	case paletteMsg:
		for i := range m.items {
			if m.items[i].Path == msg.path {
				m.items[i].Colors = msg.colors
			}
		}
		if m.selected != nil && m.selected.Path == msg.path {
			m.selected.Colors = msg.colors
			m.viewport.SetContent(m.renderDetail(*m.selected))
		}
		m.list.SetItems(m.buildListItems())
		return m, nil

	case statusMsg:
		m.statusMsg = msg.text
		m.statusErr = msg.isErr
		return m, tea.Tick(3*time.Second, func(t time.Time) tea.Msg {
			return clearStatusMsg{}
		})

	case clearStatusMsg:
		m.statusMsg = ""
		m.statusErr = false
		return m, nil

	case copyResultMsg:
		if msg.err != nil {
			return m, status("Copy failed: "+msg.err.Error(), true)
		}
		return m, status("Copied to clipboard", false)
	}

	switch m.mode {
	case ModeList:
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		cmds = append(cmds, cmd)
	case ModeDetail:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	case ModeSearch:
		var cmd tea.Cmd
		m.searchInput, cmd = m.searchInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// handleKey handles key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Search mode owns every printable key.
	if m.mode == ModeSearch {
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		return m.handleSearchKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		if m.mode == ModeHelp {
			m.mode = ModeList
		} else {
			m.mode = ModeHelp
		}
		return m, nil
	}

	switch m.mode {
	case ModeList:
		return m.handleListKey(msg)
	case ModeDetail:
		return m.handleDetailKey(msg)
	case ModeHelp:
		if key.Matches(msg, m.keys.Back) {
			m.mode = ModeList
		}
		return m, nil
	}

	return m, nil
}

func (m Model) selectedItem() (model.Item, bool) {
	li, ok := m.list.SelectedItem().(listItem)
	if !ok {
		return model.Item{}, false
	}
	return li.item, true
}

// switchTab moves by delta tabs, wrapping around, and reloads.
func (m Model) switchTab(delta int) (Model, tea.Cmd) {
	m.tab = (m.tab + delta + len(m.tabs)) % len(m.tabs)
	m.list.Title = m.tabTitle()
	m.items = nil
	m.searchQuery = ""
	m.searchInput.SetValue("")
	m.list.SetItems(nil)
	m.list.ResetSelected()
	m.loading = true
	return m, m.loadItems(m.currentKind())
}

// handleListKey handles keys in list mode.
func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.NextTab):
		return m.switchTab(1)

	case key.Matches(msg, m.keys.PrevTab):
		return m.switchTab(-1)

	case key.Matches(msg, m.keys.Apply):
		item, ok := m.selectedItem()
		if !ok || m.backend == nil {
			return m, nil
		}
		if m.busy {
			return m, status("Still applying the previous change", true)
		}
		m.busy = true
		return m, tea.Batch(status("Applying "+item.Title()+"...", false), m.applyItem(item))

	case key.Matches(msg, m.keys.Info):
		return m.openDetail()

	case key.Matches(msg, m.keys.Undo):
		if m.backend == nil {
			return m, nil
		}
		if m.busy {
			return m, status("Still applying the previous change", true)
		}
		m.busy = true
		return m, m.undo()

	case key.Matches(msg, m.keys.Copy):
		if item, ok := m.selectedItem(); ok {
			return m, m.copyToClipboard(copyValue(item))
		}
		return m, nil

	case key.Matches(msg, m.keys.CopyAllJSON):
		return m, m.copyVisible(output.FormatJSON)

	case key.Matches(msg, m.keys.CopyAllYAML):
		return m, m.copyVisible(output.FormatYAML)

	case key.Matches(msg, m.keys.Search):
		m.searchInput.SetValue("")
		m.searchQuery = ""
		m.list.SetItems(m.buildListItems())
		m.mode = ModeSearch
		m.searchInput.Focus()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Refresh):
		m.loading = true
		return m, m.loadItems(m.currentKind())
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) openDetail() (tea.Model, tea.Cmd) {
	item, ok := m.selectedItem()
	if !ok {
		return m, nil
	}
	m.selected = &item
	m.mode = ModeDetail
	m.searchInput.Blur()
	m.viewport.SetContent(m.renderDetail(item))
	m.viewport.GotoTop()

	if item.Kind == model.KindWallpaper && len(item.Colors) == 0 && m.backend != nil {
		return m, m.loadPalette(item.Path)
	}
	return m, nil
}

// handleDetailKey handles keys in detail mode.
func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.mode = ModeList
		m.selected = nil
		return m, nil

	case key.Matches(msg, m.keys.Apply):
		if m.selected == nil || m.backend == nil || m.busy {
			return m, nil
		}
		m.busy = true
		return m, m.applyItem(*m.selected)

	case key.Matches(msg, m.keys.Copy):
		if m.selected != nil {
			return m, m.copyToClipboard(copyValue(*m.selected))
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// handleSearchKey handles keys in search mode.
func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = ModeList
		m.searchInput.Blur()
		m.searchInput.SetValue("")
		m.searchQuery = ""
		m.list.SetItems(m.buildListItems())
		return m, nil

	case tea.KeyEnter:
		// Keep the filtered list and return to it.
		m.mode = ModeList
		m.searchInput.Blur()
		return m, nil

	case tea.KeyUp, tea.KeyDown:
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)

	m.searchQuery = m.searchInput.Value()
	m.list.SetItems(m.buildListItems())

	return m, cmd
}

// buildListItems creates list items from the loaded rows, applying the
// search query as a filter expression when it looks like one.
func (m Model) buildListItems() []list.Item {
	items := m.items

	if query := strings.TrimSpace(m.searchQuery); query != "" {
		filtered := false
		if isFilterExpression(query) {
			if expr, err := core.ParseFilter(query); err == nil {
				items = core.FilterWithExpr(items, expr)
				filtered = true
			}
		}
		if !filtered {
			items = core.Search(items, query)
		}
	}

	out := make([]list.Item, len(items))
	for i, it := range items {
		out[i] = listItem{item: it}
	}
	return out
}

// filterFields are the field names accepted by core.ParseFilter.
var filterFields = map[string]bool{
	"name": true, "id": true,
	"title": true, "display": true,
	"path": true, "file": true,
	"kind": true, "type": true,
	"comment": true, "description": true,
	"color": true, "colour": true,
	"current": true, "active": true,
	"dark": true,
	"colorized": true, "colourised": true,
	"modified": true, "mtime": true, "time": true,
	"size": true,
}

// isFilterExpression reports whether every comma-separated part of query
// starts with a known field followed by an operator.
func isFilterExpression(query string) bool {
	if query == "" {
		return false
	}
	for part := range strings.SplitSeq(query, ",") {
		part = strings.TrimSpace(part)
		idx := strings.IndexAny(part, "=!~<>")
		if idx <= 0 {
			return false
		}
		if !filterFields[strings.ToLower(strings.TrimSpace(part[:idx]))] {
			return false
		}
	}
	return true
}

func copyValue(item model.Item) string {
	if item.Path != "" {
		return item.Path
	}
	return item.Name
}

// copyVisible copies the rows currently shown in the list.
func (m Model) copyVisible(format output.FormatType) tea.Cmd {
	visible := m.list.Items()
	items := make([]model.Item, 0, len(visible))
	for _, it := range visible {
		if li, ok := it.(listItem); ok {
			items = append(items, li.item)
		}
	}

	var buf bytes.Buffer
	if err := output.NewFormatter(format, output.DefaultFormatterOptions()).Format(&buf, items); err != nil {
		return status(fmt.Sprintf("Failed to encode %s: %v", format, err), true)
	}
	return m.copyToClipboard(buf.String())
}

// copyToClipboard copies text to the system clipboard.
func (m Model) copyToClipboard(text string) tea.Cmd {
	return func() tea.Msg {
		return copyResultMsg{err: copyText(text)}
	}
}

// renderDetail renders the detail view for an item.
func (m Model) renderDetail(item model.Item) string {
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12"))

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("8"))

	var b strings.Builder
	b.WriteString(headerStyle.Render(item.Title()) + "\n\n")

	b.WriteString(labelStyle.Render("Kind: ") + item.Kind + "\n")
	b.WriteString(labelStyle.Render("Name: ") + item.Name + "\n")
	if item.Path != "" {
		b.WriteString(labelStyle.Render("Path: ") + item.Path + "\n")
	}
	if item.Comment != "" {
		b.WriteString(labelStyle.Render("Comment: ") + item.Comment + "\n")
	}
	if item.Size > 0 {
		b.WriteString(labelStyle.Render("Size: ") + humanize.Bytes(uint64(item.Size)) + "\n")
	}
	if item.ModTime > 0 {
		b.WriteString(labelStyle.Render("Modified: ") + item.RelativeTime() + "\n")
	}

	var flags []string
	if item.Current {
		flags = append(flags, "in use")
	}
	if item.Dark {
		flags = append(flags, "dark")
	}
	if item.Colorized {
		flags = append(flags, "colorized")
	}
	if len(flags) > 0 {
		b.WriteString(labelStyle.Render("Flags: ") + strings.Join(flags, ", ") + "\n")
	}

	if len(item.Colors) > 0 {
		b.WriteString("\n" + labelStyle.Render("Palette:") + "\n")
		for _, c := range item.Colors {
			b.WriteString("  " + renderSwatches([]string{c}) + " " + c + "\n")
		}
	} else if item.Kind == model.KindWallpaper {
		b.WriteString("\n" + labelStyle.Render("Palette: extracting...") + "\n")
	}

	return b.String()
}

// View renders the TUI.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	switch m.mode {
	case ModeList:
		return m.viewList()
	case ModeDetail:
		return m.viewDetail()
	case ModeSearch:
		return m.viewSearch()
	case ModeHelp:
		return m.viewHelp()
	default:
		return ""
	}
}

// viewTabs renders the kind tabs with the active one highlighted.
func (m Model) viewTabs() string {
	active := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	inactive := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Padding(0, 1)

	tabs := make([]string, len(m.tabs))
	for i, kind := range m.tabs {
		if i == m.tab {
			tabs[i] = active.Render(tabLabels[kind])
		} else {
			tabs[i] = inactive.Render(tabLabels[kind])
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) viewList() string {
	s := m.viewTabs() + "\n"
	if m.loading && len(m.items) == 0 {
		s += lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render("Loading...") + "\n"
	}
	s += m.list.View()
	s += "\n" + m.statusLine("list")
	return s
}

func (m Model) statusLine(mode string) string {
	if m.statusMsg != "" {
		statusStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("7"))
		if m.statusErr {
			statusStyle = statusStyle.Foreground(lipgloss.Color("9"))
		}
		return statusStyle.Render(m.statusMsg)
	}
	return m.buildKeybindBar(m.width, mode)
}

func (m Model) viewDetail() string {
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Padding(0, 1)

	header := headerStyle.Render(tabLabels[m.currentKind()] + " Detail")

	return header + "\n" + m.viewport.View() + "\n" + m.statusLine("detail")
}

func (m Model) viewSearch() string {
	countStr := fmt.Sprintf("(%d matches)", len(m.list.Items()))

	searchBar := "Search: " + m.searchInput.View() + " " +
		lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(countStr)

	return searchBar + "\n" + m.list.View() + "\n" + m.buildKeybindBar(m.width, "search")
}

func (m Model) viewHelp() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		MarginBottom(1)

	sectionStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("8"))

	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	s := titleStyle.Render("Keyboard Shortcuts") + "\n\n"

	s += sectionStyle.Render("Navigation") + "\n"
	s += keyStyle.Render("  j/k, ↑/↓") + "     Move up/down\n"
	s += keyStyle.Render("  g/G") + "          Go to top/bottom\n"
	s += keyStyle.Render("  pgup/pgdn") + "    Page up/down\n"
	s += keyStyle.Render("  tab/l") + "        Next tab\n"
	s += keyStyle.Render("  shift+tab/h") + "  Previous tab\n"
	s += "\n"

	s += sectionStyle.Render("Actions") + "\n"
	s += keyStyle.Render("  enter") + "        Apply selection\n"
	s += keyStyle.Render("  i") + "            Show details and palette\n"
	s += keyStyle.Render("  u") + "            Undo last change\n"
	s += keyStyle.Render("  c") + "            Copy path to clipboard\n"
	s += keyStyle.Render("  C") + "            Copy all visible as JSON\n"
	s += keyStyle.Render("  alt+c") + "        Copy all visible as YAML\n"
	s += keyStyle.Render("  /") + "            Search or filter (name~arc,dark=true)\n"
	s += keyStyle.Render("  r") + "            Refresh\n"
	s += "\n"

	s += sectionStyle.Render("General") + "\n"
	s += keyStyle.Render("  ?") + "            Toggle this help\n"
	s += keyStyle.Render("  esc") + "          Back / Cancel\n"
	s += keyStyle.Render("  q") + "            Quit\n"

	s += "\n" + lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(
		"Press ? or esc to return")

	return s
}

// keybind represents a single keybind with priority for the status bar.
type keybind struct {
	key      string
	desc     string
	priority int // lower = more important (shown first)
}

// buildKeybindBar builds a keybind bar that fits within the given width.
// mode determines which keybinds are shown: "list", "detail", "search"
func (m Model) buildKeybindBar(width int, mode string) string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	keyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10"))

	var binds []keybind

	switch mode {
	case "list":
		binds = []keybind{
			{"q", "quit", 1},
			{"enter", "apply", 2},
			{"tab", "next", 3},
			{"?", "help", 4},
			{"/", "search", 5},
			{"i", "details", 6},
			{"u", "undo", 7},
			{"c", "copy", 8},
			{"r", "refresh", 9},
		}
	case "detail":
		binds = []keybind{
			{"q", "quit", 1},
			{"esc", "back", 2},
			{"enter", "apply", 3},
			{"c", "copy", 4},
			{"j/k", "scroll", 5},
		}
	case "search":
		binds = []keybind{
			{"enter", "keep", 1},
			{"esc", "close", 2},
			{"↑/↓", "navigate", 3},
		}
	}

	const separator = "  "
	result := ""
	for _, b := range binds {
		item := keyStyle.Render(b.key) + " " + b.desc
		plainItem := b.key + " " + b.desc
		testLen := len(plainItem)
		if result != "" {
			testLen = lipgloss.Width(result) + len(separator) + len(plainItem)
		}

		if width > 0 && testLen > width {
			break
		}
		if result != "" {
			result += separator
		}
		result += item
	}

	return style.Render(result)
}

// RunOptions configures the TUI.
type RunOptions struct {
	Config    *config.Config
	Backend   Backend
	WatchDirs []string // Wallpaper directories to watch (empty = no watching)
	Logger    *slog.Logger
}

// Run starts the TUI with the given options.
func Run(opts RunOptions) error {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	m := New(opts.Config, opts.Backend)
	p := tea.NewProgram(m, tea.WithAltScreen())

	var watcher *watch.Watcher
	if len(opts.WatchDirs) > 0 {
		var err error
		watcher, err = watch.New(watch.Options{
			Dirs:   opts.WatchDirs,
			Accept: wallpaper.IsSupported,
			OnChange: func([]string) {
				p.Send(refreshMsg{kind: model.KindWallpaper})
			},
			Logger: opts.Logger,
		})
		if err != nil {
			opts.Logger.Warn("failed to create wallpaper watcher", "error", err)
		} else if err := watcher.Start(); err != nil {
			opts.Logger.Warn("failed to start wallpaper watcher", "error", err)
		}
	}

	_, err := p.Run()

	if watcher != nil {
		_ = watcher.Stop()
	}

	return err
}
