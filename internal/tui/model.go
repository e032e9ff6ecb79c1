package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/haesinais/aisdash/internal/dashboard"
)

// intentTimeout bounds how long a key press waits on the dashboard loop
const intentTimeout = 5 * time.Second

// Dashboard is the part of dashboard.Home the terminal UI drives
type Dashboard interface {
	View() dashboard.ViewState
	Search(ctx context.Context, term string) (dashboard.ViewState, error)
	ChangePage(ctx context.Context, direction string) (dashboard.ViewState, error)
	Select(ctx context.Context, mmsi int64, source string) (dashboard.ViewState, error)
}

// viewMsg carries a snapshot pushed by the dashboard subscription
type viewMsg struct {
	view dashboard.ViewState
}

// closedMsg is sent once the subscription channel is closed
type closedMsg struct{}

// intentResultMsg is sent when an intent call returns
type intentResultMsg struct {
	view dashboard.ViewState
	err  error
}

// Model is the bubbletea model of the terminal dashboard
type Model struct {
	dash    Dashboard
	updates <-chan dashboard.ViewState
	keys    KeyMap
	help    help.Model

	view   dashboard.ViewState
	table  table.Model
	search textinput.Model

	searching bool
	stopped   bool
	status    string
}

var columns = []table.Column{
	{Title: "", Width: 1},
	{Title: "MMSI", Width: 10},
	{Title: "Name", Width: 20},
	{Title: "Lat", Width: 9},
	{Title: "Lon", Width: 10},
	{Title: "SOG", Width: 5},
	{Title: "COG", Width: 5},
	{Title: "HDG(M)", Width: 6},
	{Title: "Office", Width: 14},
}

// NewModel creates a model driving dash. updates is usually the channel
// returned by dashboard.Home.Subscribe. rowsPerPage sizes the table and
// falls back to dashboard.DefaultRowsPerPage when not positive.
func NewModel(dash Dashboard, updates <-chan dashboard.ViewState, rowsPerPage int) Model {
	if rowsPerPage <= 0 {
		rowsPerPage = dashboard.DefaultRowsPerPage
	}

	search := textinput.New()
	search.Prompt = "Search: "
	search.Placeholder = "MMSI"
	search.CharLimit = 64

	tbl := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(rowsPerPage+1),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(colorMuted).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("230")).
		Background(colorAccent).
		Bold(false)
	tbl.SetStyles(styles)

	model := Model{
		dash:    dash,
		updates: updates,
		keys:    DefaultKeyMap,
		help:    help.New(),
		table:   tbl,
		search:  search,
	}
	model.apply(dash.View())
	return model
}

// Init implements tea.Model
func (model Model) Init() tea.Cmd {
	if model.updates == nil {
		return nil
	}
	return listenForView(model.updates)
}

// listenForView blocks until the dashboard publishes a snapshot
func listenForView(updates <-chan dashboard.ViewState) tea.Cmd {
	return func() tea.Msg {
		v, ok := <-updates
		if !ok {
			return closedMsg{}
		}
		return viewMsg{view: v}
	}
}

// intent runs call against the dashboard off the UI goroutine
func intent(call func(ctx context.Context) (dashboard.ViewState, error)) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), intentTimeout)
		defer cancel()
		v, err := call(ctx)
		return intentResultMsg{view: v, err: err}
	}
}

// Update implements tea.Model
func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.WindowSizeMsg:
		model.help.Width = message.Width
		return model, nil

	case viewMsg:
		model.apply(message.view)
		return model, listenForView(model.updates)

	case closedMsg:
		model.stopped = true
		model.status = "dashboard stopped"
		return model, nil

	case intentResultMsg:
		if message.err != nil {
			model.status = message.err.Error()
			return model, nil
		}
		model.status = ""
		model.apply(message.view)
		return model, nil

	case tea.KeyMsg:
		if model.searching {
			return model.handleSearchKeys(message)
		}
		return model.handleKeys(message)
	}

	return model, nil
}

func (model Model) handleKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(message, model.keys.Quit):
		return model, tea.Quit

	case key.Matches(message, model.keys.SearchActivate):
		model.searching = true
		model.search.Focus()
		return model, nil

	case key.Matches(message, model.keys.SearchClear):
		if model.search.Value() == "" {
			return model, nil
		}
		model.search.SetValue("")
		return model, model.searchCmd("")

	case key.Matches(message, model.keys.PrevPage):
		if !model.view.HasPrev || model.stopped {
			return model, nil
		}
		return model, model.pageCmd(dashboard.DirectionPrev)

	case key.Matches(message, model.keys.NextPage):
		if !model.view.HasNext || model.stopped {
			return model, nil
		}
		return model, model.pageCmd(dashboard.DirectionNext)

	case key.Matches(message, model.keys.Select):
		mmsi, ok := model.cursorMMSI()
		if !ok || model.stopped {
			return model, nil
		}
		dash := model.dash
		return model, intent(func(ctx context.Context) (dashboard.ViewState, error) {
			return dash.Select(ctx, mmsi, dashboard.SourceTable)
		})
	}

	var cmd tea.Cmd
	model.table, cmd = model.table.Update(message)
	return model, cmd
}

// handleSearchKeys routes input to the search box. Every edit is sent to
// the dashboard so the table filters as the user types.
func (model Model) handleSearchKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case message.Type == tea.KeyCtrlC:
		return model, tea.Quit

	case key.Matches(message, model.keys.SearchConfirm):
		model.searching = false
		model.search.Blur()
		return model, nil

	case key.Matches(message, model.keys.SearchClear):
		model.searching = false
		model.search.Blur()
		if model.search.Value() == "" {
			return model, nil
		}
		model.search.SetValue("")
		return model, model.searchCmd("")
	}

	before := model.search.Value()
	// The cursor blink command is dropped; the cursor stays solid.
	model.search, _ = model.search.Update(message)
	if term := model.search.Value(); term != before {
		return model, model.searchCmd(term)
	}
	return model, nil
}

func (model Model) searchCmd(term string) tea.Cmd {
	if model.stopped {
		return nil
	}
	dash := model.dash
	return intent(func(ctx context.Context) (dashboard.ViewState, error) {
		return dash.Search(ctx, term)
	})
}

func (model Model) pageCmd(direction string) tea.Cmd {
	dash := model.dash
	return intent(func(ctx context.Context) (dashboard.ViewState, error) {
		return dash.ChangePage(ctx, direction)
	})
}

// apply renders v into the table. Snapshots older than the one shown are
// ignored, since subscription pushes and intent replies can interleave.
func (model *Model) apply(v dashboard.ViewState) {
	if v.Version < model.view.Version {
		return
	}
	prev := model.view
	model.view = v

	rows := make([]table.Row, 0, len(v.Rows))
	selectedIndex := -1
	for i, r := range v.Rows {
		marker := ""
		if r.Selected {
			marker = "●"
			selectedIndex = i
		}
		rows = append(rows, table.Row{
			marker,
			r.MMSIText(),
			r.ShipName,
			fmt.Sprintf("%.4f", r.Latitude),
			fmt.Sprintf("%.4f", r.Longitude),
			fmt.Sprintf("%.1f", r.Speed),
			fmt.Sprintf("%.0f", r.Course),
			fmt.Sprintf("%.0f", r.MagneticHeading),
			r.MMAFName,
		})
	}
	model.table.SetRows(rows)

	// Follow the selection when it or the page changes, otherwise leave
	// the cursor where the user put it.
	moved := prev.SelectedMMSI != v.SelectedMMSI || prev.Page.CurrentPage != v.Page.CurrentPage || prev.SearchTerm != v.SearchTerm
	switch {
	case moved && selectedIndex >= 0:
		model.table.SetCursor(selectedIndex)
	case moved:
		model.table.SetCursor(0)
	case model.table.Cursor() >= len(rows):
		model.table.SetCursor(max(len(rows)-1, 0))
	}

	if !model.searching && v.SearchTerm != model.search.Value() {
		model.search.SetValue(v.SearchTerm)
	}
}

// cursorMMSI returns the MMSI of the row under the table cursor
func (model Model) cursorMMSI() (int64, bool) {
	row := model.table.SelectedRow()
	if len(row) < 2 {
		return 0, false
	}
	mmsi, err := strconv.ParseInt(row[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return mmsi, true
}

// View implements tea.Model
func (model Model) View() string {
	v := model.view

	header := titleStyle.Render("AIS Vessels")
	counts := fmt.Sprintf("%d of %d vessels", v.FilteredCount, v.TotalVessels)
	switch {
	case v.Loading:
		counts = "loading..."
	case !v.LastPoll.IsZero() && !v.LastPollOK:
		counts += "  " + errorStyle.Render("last poll failed")
	}
	header = lipgloss.JoinHorizontal(lipgloss.Top, header, "  ", mutedStyle.Render(counts))

	pager := mutedStyle.Render(pageLabel(v))

	left := lipgloss.JoinVertical(lipgloss.Left,
		model.search.View(),
		model.table.View(),
		pager,
	)
	right := lipgloss.JoinVertical(lipgloss.Left,
		renderSelection(v),
		"",
		renderChart("Last report", v.Charts.ReportAge, chartBarWidth),
		"",
		renderChart("Speed (kn)", v.Charts.Speed, chartBarWidth),
	)
	if v.Charts.Undated > 0 {
		right = lipgloss.JoinVertical(lipgloss.Left, right, mutedStyle.Render(fmt.Sprintf("%d without timestamp", v.Charts.Undated)))
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", panelStyle.Render(right))

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n\n")
	b.WriteString(body)
	b.WriteString("\n")
	if model.status != "" {
		b.WriteString(errorStyle.Render(model.status))
		b.WriteString("\n")
	}
	b.WriteString(model.help.View(model.keys))
	return b.String()
}

func pageLabel(v dashboard.ViewState) string {
	prev, next := "‹", "›"
	if !v.HasPrev {
		prev = " "
	}
	if !v.HasNext {
		next = " "
	}
	return fmt.Sprintf("%s %s %s", prev, v.PageLabel, next)
}
