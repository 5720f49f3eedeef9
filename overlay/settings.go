package overlay

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
	"github.com/dasdy/keyoverlay/config"
	kblayout "github.com/dasdy/keyoverlay/layout"
	"github.com/dasdy/keyoverlay/render"
)

var rowNames = [config.RowCount]string{"Numbers", "Top letters", "Home row", "Bottom row"}

var errNoTheme = errors.New("no theme selected")

// slider is a bound slider with its value label.
type slider struct {
	value  binding.Float
	widget *widget.Slider
	label  *widget.Label
}

func newSlider(lo, hi, step float64, format string) *slider {
	v := binding.NewFloat()

	s := widget.NewSliderWithData(lo, hi, v)
	s.Step = step

	return &slider{
		value:  v,
		widget: s,
		label:  widget.NewLabelWithData(binding.FloatToStringWithFormat(v, format)),
	}
}

func (s *slider) get() float64 {
	v, err := s.value.Get()
	if err != nil {
		slog.DebugContext(ctx, "slider value unavailable", "error", err)
	}

	return v
}

func (s *slider) set(v float64) {
	if err := s.value.Set(v); err != nil {
		slog.DebugContext(ctx, "slider value rejected", "error", err)
	}
}

func (s *slider) row() fyne.CanvasObject {
	return container.NewBorder(nil, nil, nil, s.label, s.widget)
}

type keyCheck struct {
	base  rune
	check *widget.Check
}

// Settings is the settings window. Widgets hold the edited values until
// Apply or Save copies them into the live config.
type Settings struct {
	app    *App
	window fyne.Window
	shown  bool

	position *widget.Select
	width    *widget.Entry
	height   *widget.Entry
	scale    *slider
	maxAlpha *slider
	minAlpha *slider
	idle     *slider
	keyFade  *slider
	drag     *widget.Button

	style   *widget.Select
	radius  *slider
	shadow  *slider
	glow    *slider
	border  *slider
	padding *slider

	theme  *widget.Select
	colors map[string]*widget.Entry

	rows [config.RowCount]*widget.Check
	keys [config.RowCount][]keyCheck
}

func newSettings(a *App) *Settings {
	s := &Settings{
		app:    a,
		window: a.fyne.NewWindow("Keyboard Overlay Settings"),
		colors: map[string]*widget.Entry{},
	}

	tabs := container.NewAppTabs(
		container.NewTabItem("Main", s.mainTab()),
		container.NewTabItem("Style", s.styleTab()),
		container.NewTabItem("Colors", s.colorsTab()),
		container.NewTabItem("Keys", s.keysTab()),
	)

	buttons := container.NewHBox(
		widget.NewButton("Hide to tray", s.close),
		layout.NewSpacer(),
		widget.NewButton("Apply", func() { s.report(s.Apply()) }),
		widget.NewButton("Save", func() { s.report(s.Save()) }),
	)

	s.window.SetContent(container.NewBorder(widget.NewLabelWithData(a.status), buttons, nil, nil, tabs))
	s.window.Resize(fyne.NewSize(560, 640))
	s.window.SetCloseIntercept(s.close)

	s.load()

	return s
}

func (s *Settings) Show() {
	s.load()
	s.window.Show()
	s.window.RequestFocus()
	s.shown = true
}

// close applies and saves the edits, then hides the window. On error the
// window stays up with the error in front.
func (s *Settings) close() {
	if err := s.Save(); err != nil {
		s.report(err)

		return
	}

	s.window.Hide()
	s.shown = false
}

// reportBlocking brings the window forward with err and calls then once the
// error is dismissed.
func (s *Settings) reportBlocking(err error, then func()) {
	s.window.Show()
	s.window.RequestFocus()
	s.shown = true

	d := dialog.NewError(err, s.window)
	d.SetOnClosed(then)
	d.Show()
}

func (s *Settings) report(err error) {
	if err == nil {
		return
	}

	slog.WarnContext(ctx, "settings not applied", "error", err)
	dialog.ShowError(err, s.window)
}

func (s *Settings) mainTab() fyne.CanvasObject {
	positions := make([]string, len(config.Positions))
	for i, p := range config.Positions {
		positions[i] = string(p)
	}

	s.position = widget.NewSelect(positions, nil)
	s.width = widget.NewEntry()
	s.height = widget.NewEntry()
	s.scale = newSlider(0.3, 2, 0.05, "%.2f")
	s.maxAlpha = newSlider(0.2, 1, 0.01, "%.2f")
	s.minAlpha = newSlider(0.05, 1, 0.01, "%.2f")
	s.idle = newSlider(0, 30, 0.5, "%.1f s")
	s.keyFade = newSlider(0.05, 3, 0.05, "%.2f s")

	s.drag = widget.NewButton("", s.toggleDrag)
	reset := widget.NewButton("Reset", s.resetPosition)

	return container.NewVScroll(container.NewVBox(
		widget.NewCard("Screen position", "", container.NewVBox(
			widget.NewForm(widget.NewFormItem("Position", s.position)),
			container.NewHBox(s.drag, reset),
		)),
		widget.NewCard("Size", "", widget.NewForm(
			widget.NewFormItem("Width", s.width),
			widget.NewFormItem("Height", s.height),
			widget.NewFormItem("Key scale", s.scale.row()),
		)),
		widget.NewCard("Opacity", "", widget.NewForm(
			widget.NewFormItem("Active", s.maxAlpha.row()),
			widget.NewFormItem("Idle", s.minAlpha.row()),
		)),
		widget.NewCard("Timing", "", widget.NewForm(
			widget.NewFormItem("Idle after", s.idle.row()),
			widget.NewFormItem("Key fade", s.keyFade.row()),
		)),
	))
}

func (s *Settings) styleTab() fyne.CanvasObject {
	styles := make([]string, len(config.Styles))
	for i, st := range config.Styles {
		styles[i] = string(st)
	}

	s.style = widget.NewSelect(styles, nil)
	s.radius = newSlider(0, 25, 1, "%.0f")
	s.shadow = newSlider(0, 15, 1, "%.0f")
	s.glow = newSlider(0, 3, 0.1, "%.1f")
	s.border = newSlider(0, 8, 1, "%.0f")
	s.padding = newSlider(0, 20, 1, "%.0f")

	return container.NewVScroll(container.NewVBox(
		widget.NewCard("Key style", "", s.style),
		widget.NewCard("Appearance", "", widget.NewForm(
			widget.NewFormItem("Corner radius", s.radius.row()),
			widget.NewFormItem("Shadow size", s.shadow.row()),
			widget.NewFormItem("Glow intensity", s.glow.row()),
			widget.NewFormItem("Border width", s.border.row()),
			widget.NewFormItem("Key spacing", s.padding.row()),
		)),
	))
}

func (s *Settings) colorsTab() fyne.CanvasObject {
	var themes fyne.CanvasObject

	if ids := s.app.themes.IDs(); len(ids) > 0 {
		s.theme = widget.NewSelect(ids, nil)
		s.theme.SetSelected(ids[0])

		themes = container.NewBorder(nil, nil, widget.NewLabel("Theme"),
			widget.NewButton("Apply theme", func() { s.report(s.ApplyTheme()) }), s.theme)
	} else {
		themes = widget.NewLabel("Add themes to " + s.app.opts.ThemesPath)
	}

	form := widget.NewForm()

	for _, role := range config.ColorRoles {
		e := widget.NewEntry()
		e.SetPlaceHolder("#RRGGBB or #AARRGGBB")
		e.Validator = func(v string) error {
			if _, ok := render.ParseColor(strings.TrimSpace(v)); !ok {
				return fmt.Errorf("%q is not #RRGGBB or #AARRGGBB", v)
			}

			return nil
		}

		s.colors[role] = e
		form.Append(role, e)
	}

	return container.NewVScroll(container.NewVBox(
		widget.NewCard("Themes", "", themes),
		widget.NewCard("Colors", "", form),
	))
}

func (s *Settings) keysTab() fyne.CanvasObject {
	rows := container.NewVBox()

	for i := range config.RowCount {
		s.rows[i] = widget.NewCheck(rowNames[i], nil)
		rows.Add(s.rows[i])
	}

	tables := kblayout.DefaultTables()
	perRow := container.NewAppTabs()

	for r, row := range tables.English {
		if r >= config.RowCount {
			break
		}

		grid := container.NewGridWithColumns(6)

		for _, base := range row {
			label := string(unicode.ToUpper(base))
			if ru, ok := tables.Mapping.Counterpart(base, kblayout.English); ok {
				label += " " + string(unicode.ToUpper(ru))
			}

			c := widget.NewCheck(label, nil)
			s.keys[r] = append(s.keys[r], keyCheck{base: base, check: c})
			grid.Add(c)
		}

		all := widget.NewButton("Select all", func() { s.checkRow(r, true) })
		none := widget.NewButton("Deselect all", func() { s.checkRow(r, false) })

		perRow.Append(container.NewTabItem(fmt.Sprintf("Row %d", r+1),
			container.NewBorder(nil, container.NewHBox(all, none), nil, nil, grid)))
	}

	return container.NewVScroll(container.NewVBox(
		widget.NewCard("Visible rows", "", rows),
		widget.NewCard("Shown keys", "Uncheck keys you don't want to see", perRow),
	))
}

func (s *Settings) checkRow(row int, on bool) {
	for _, k := range s.keys[row] {
		k.check.SetChecked(on)
	}
}

// load copies the live config into the widgets.
func (s *Settings) load() {
	cfg := s.app.ctrl.Config()

	s.position.SetSelected(string(cfg.Position))
	s.width.SetText(strconv.Itoa(cfg.Width))
	s.height.SetText(strconv.Itoa(cfg.Height))
	s.scale.set(cfg.Scale)
	s.maxAlpha.set(cfg.MaxAlpha)
	s.minAlpha.set(cfg.MinAlpha)
	s.idle.set(cfg.IdleTimeout)
	s.keyFade.set(cfg.KeyFadeDuration)
	s.updateDragButton()

	s.style.SetSelected(string(cfg.KeyStyle))
	s.radius.set(float64(cfg.BorderRadius))
	s.shadow.set(float64(cfg.ShadowSize))
	s.glow.set(cfg.GlowIntensity)
	s.border.set(float64(cfg.BorderWidth))
	s.padding.set(float64(cfg.KeyPadding))

	for role, e := range s.colors {
		e.SetText(cfg.Color(role))
	}

	for i, c := range s.rows {
		c.SetChecked(cfg.RowVisible(i))
	}

	for r, row := range s.keys {
		for _, k := range row {
			k.check.SetChecked(!cfg.KeyDisabled(r, k.base))
		}
	}
}

// Draft builds a new config from the current widget values. The live config
// is left untouched.
func (s *Settings) Draft() (*config.Config, error) {
	cfg := s.app.ctrl.Config().Clone()

	width, err := parseLength("width", s.width.Text)
	if err != nil {
		return nil, err
	}

	height, err := parseLength("height", s.height.Text)
	if err != nil {
		return nil, err
	}

	cfg.Width, cfg.Height = width, height

	if pos := config.Position(s.position.Selected); pos == config.PositionCustom {
		cfg.Position = pos
	} else {
		cfg.SetPosition(pos)
	}

	cfg.Scale = s.scale.get()
	cfg.MaxAlpha = s.maxAlpha.get()
	cfg.MinAlpha = s.minAlpha.get()
	cfg.IdleTimeout = s.idle.get()
	cfg.KeyFadeDuration = s.keyFade.get()

	cfg.KeyStyle = config.Style(s.style.Selected)
	cfg.BorderRadius = int(s.radius.get())
	cfg.ShadowSize = int(s.shadow.get())
	cfg.GlowIntensity = s.glow.get()
	cfg.BorderWidth = int(s.border.get())
	cfg.KeyPadding = int(s.padding.get())

	for _, role := range config.ColorRoles {
		v := strings.TrimSpace(s.colors[role].Text)
		if _, ok := render.ParseColor(v); !ok {
			return nil, fmt.Errorf("colour %s: %q is not #RRGGBB or #AARRGGBB", role, v)
		}

		cfg.Colors[role] = v
	}

	cfg.VisibleRows = make([]bool, config.RowCount)
	for i, c := range s.rows {
		cfg.VisibleRows[i] = c.Checked
	}

	for r, row := range s.keys {
		for _, k := range row {
			cfg.SetKeyDisabled(r, k.base, !k.check.Checked)
		}
	}

	return cfg, nil
}

func parseLength(name, text string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, fmt.Errorf("%s %q is not a whole number: %w", name, text, err)
	}

	return v, nil
}

// Apply makes the edited values live and reloads the widgets with the
// sanitized result.
func (s *Settings) Apply() error {
	cfg, err := s.Draft()
	if err != nil {
		return err
	}

	s.app.applyConfig(cfg)
	s.load()

	return nil
}

// Save applies the edits and writes the settings file.
func (s *Settings) Save() error {
	if err := s.Apply(); err != nil {
		return err
	}

	return s.app.saveConfig()
}

// ApplyTheme fills the colour entries from the selected theme.
func (s *Settings) ApplyTheme() error {
	if s.theme == nil || s.theme.Selected == "" {
		return errNoTheme
	}

	th, ok := s.app.themes[s.theme.Selected]
	if !ok {
		return fmt.Errorf("theme %q: %w", s.theme.Selected, errNoTheme)
	}

	edited := &config.Config{Colors: map[string]string{}}
	for role, e := range s.colors {
		edited.Colors[role] = e.Text
	}

	changed := edited.ApplyTheme(th)

	for role, e := range s.colors {
		e.SetText(edited.Colors[role])
	}

	slog.InfoContext(ctx, "theme applied", "theme", s.theme.Selected, "changed", changed)

	return nil
}

func (s *Settings) toggleDrag() {
	on := !s.app.ctrl.DragMode()
	s.app.ctrl.SetDragMode(on)

	if on {
		dialog.ShowInformation("Move mode", "Drag the keyboard with the mouse, then press Finish moving.", s.window)
	} else {
		s.position.SetSelected(string(s.app.ctrl.Config().Position))
	}

	s.updateDragButton()
}

func (s *Settings) updateDragButton() {
	if s.app.ctrl.DragMode() {
		s.drag.SetText("Finish moving")
	} else {
		s.drag.SetText("Move keyboard")
	}
}

func (s *Settings) resetPosition() {
	s.app.ctrl.ResetPosition(config.Position(s.position.Selected))
	s.position.SetSelected(string(s.app.ctrl.Config().Position))
}
