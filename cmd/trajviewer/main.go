// Command trajviewer is the desktop version of the trajectory dashboard: six
// country pickers, a day range and the log-scale chart, redrawn on every change.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	png "image/png"
	"os"
	"path/filepath"

	fyne "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"github.com/iafilius/DeathTrajectories/src/dataset"
	"github.com/iafilius/DeathTrajectories/src/logging"
	"github.com/iafilius/DeathTrajectories/src/render"
	"github.com/iafilius/DeathTrajectories/src/trajectory"
)

const noneOption = "(none)"

type uiState struct {
	app      fyne.App
	window   fyne.Window
	filePath string
	ds       *dataset.Dataset

	countries [trajectory.MaxCountries]string
	rng       trajectory.DayRange

	// widgets
	pickers    [trajectory.MaxCountries]*widget.Select
	lowSlider  *widget.Slider
	highSlider *widget.Slider
	rangeLabel *widget.Label
	fileLabel  *widget.Label
	statsLabel *widget.Label
	chartImg   *canvas.Image

	// set while sliders are moved programmatically
	syncing bool

	// file watcher for filePath, restarted when the file changes
	watchedPath string
	stopWatch   context.CancelFunc
}

func newState() *uiState {
	st := &uiState{rng: trajectory.DefaultRange}
	copy(st.countries[:], trajectory.DefaultCountries)
	return st
}

func main() {
	var fileFlag string
	var logLevel string
	var screenshot string
	flag.StringVar(&fileFlag, "file", "", "Path to deaths CSV")
	flag.StringVar(&screenshot, "screenshot", "", "Render the default selection to this PNG and exit (no window)")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug|info|warn|error)")
	flag.Parse()
	logging.SetLogLevel(logLevel)
	defer logging.Sync()

	if screenshot != "" {
		path := fileFlag
		if path == "" {
			path = dataset.DefaultPath
		}
		if err := runScreenshot(path, screenshot); err != nil {
			fmt.Fprintln(os.Stderr, "screenshot:", err)
			os.Exit(1)
		}
		return
	}

	a := app.NewWithID("com.trajectories.viewer")
	w := a.NewWindow("Death Trajectories")
	w.Resize(fyne.NewSize(1400, 820))

	state := newState()
	state.app = a
	state.window = w
	loadPrefs(state)
	if fileFlag != "" {
		state.filePath = fileFlag
	}

	state.fileLabel = widget.NewLabel(truncatePath(state.filePath, 60))
	state.statsLabel = widget.NewLabel("")
	state.rangeLabel = widget.NewLabel(rangeText(state.rng))

	pickerBox := container.NewVBox(widget.NewLabelWithStyle("Choose Up to 6 Countries to Compare:", fyne.TextAlignCenter, fyne.TextStyle{Bold: true}))
	for i := range state.pickers {
		i := i
		sel := widget.NewSelect(nil, func(v string) {
			if state.syncing {
				return
			}
			setCountry(state, i, v)
			savePrefs(state)
			redrawChart(state)
		})
		sel.PlaceHolder = "Choose Country..."
		state.pickers[i] = sel
		pickerBox.Add(sel)
	}

	state.lowSlider = widget.NewSlider(trajectory.MinDay, trajectory.MaxDay)
	state.lowSlider.Step = 1
	state.highSlider = widget.NewSlider(trajectory.MinDay, trajectory.MaxDay)
	state.highSlider.Step = 1
	state.lowSlider.OnChanged = func(v float64) { moveHandle(state, trajectory.LowHandle, int(v)) }
	state.highSlider.OnChanged = func(v float64) { moveHandle(state, trajectory.HighHandle, int(v)) }
	// only redraw once the handle is released
	state.lowSlider.OnChangeEnded = func(float64) { savePrefs(state); redrawChart(state) }
	state.highSlider.OnChangeEnded = func(float64) { savePrefs(state); redrawChart(state) }
	syncSliders(state)

	state.chartImg = canvas.NewImageFromImage(image.NewRGBA(image.Rect(0, 0, 100, 60)))
	state.chartImg.FillMode = canvas.ImageFillContain
	state.chartImg.SetMinSize(fyne.NewSize(900, float32(trajectory.ChartHeight)))

	rangeBox := container.NewVBox(
		widget.NewLabelWithStyle("Choose range of days since 10th total confirmed death:", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		state.rangeLabel,
		container.NewBorder(nil, nil, widget.NewLabel("From"), nil, state.lowSlider),
		container.NewBorder(nil, nil, widget.NewLabel("To"), nil, state.highSlider),
		widget.NewLabel(marksText()),
	)
	top := container.NewHBox(
		widget.NewButton("Open…", func() { openFileDialog(state) }),
		widget.NewButton("Reload", func() { loadAll(state) }),
		widget.NewLabel("File:"), state.fileLabel,
		state.statsLabel,
	)
	body := container.NewBorder(nil, rangeBox, nil, pickerBox, state.chartImg)
	w.SetContent(container.NewBorder(top, nil, nil, nil, body))
	buildMenus(state)

	w.SetOnClosed(func() {
		savePrefs(state)
		stopWatching(state)
	})
	loadAll(state)
	w.ShowAndRun()
}

// selection is the filter input for the current widget state.
func selection(state *uiState) trajectory.Selection {
	return trajectory.NewSelection(state.countries[:], state.rng.Low, state.rng.High)
}

func setCountry(state *uiState, i int, v string) {
	if i < 0 || i >= len(state.countries) {
		return
	}
	if v == noneOption {
		v = ""
	}
	state.countries[i] = v
}

// moveHandle applies a slider change, pushing the other handle when they would
// come closer than trajectory.HandleGap.
func moveHandle(state *uiState, h trajectory.Handle, v int) {
	if state.syncing {
		return
	}
	r := state.rng
	if h == trajectory.LowHandle {
		r.Low = v
	} else {
		r.High = v
	}
	state.rng = trajectory.PushHandles(r, h, trajectory.HandleGap)
	syncSliders(state)
}

func syncSliders(state *uiState) {
	state.syncing = true
	defer func() { state.syncing = false }()
	if state.lowSlider != nil && int(state.lowSlider.Value) != state.rng.Low {
		state.lowSlider.SetValue(float64(state.rng.Low))
	}
	if state.highSlider != nil && int(state.highSlider.Value) != state.rng.High {
		state.highSlider.SetValue(float64(state.rng.High))
	}
	if state.rangeLabel != nil {
		state.rangeLabel.SetText(rangeText(state.rng))
	}
}

func rangeText(r trajectory.DayRange) string {
	return fmt.Sprintf("Days %d - %d", r.Low, r.High)
}

func marksText() string {
	s := ""
	for i, m := range trajectory.SliderMarks() {
		if i > 0 {
			s += "  "
		}
		if m.Highlight {
			s += "[" + m.Label + "]"
		} else {
			s += m.Label
		}
	}
	return s
}

func buildMenus(state *uiState) {
	if state == nil || state.window == nil {
		return
	}
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open…", func() { openFileDialog(state) }),
		fyne.NewMenuItem("Reload", func() { loadAll(state) }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Export Chart…", func() { exportChartPNG(state, "trajectories.png") }),
	)
	quit := fyne.NewMenuItem("Quit", func() { state.window.Close() })
	quit.IsQuit = true
	fileMenu.Items = append(fileMenu.Items, fyne.NewMenuItemSeparator(), quit)
	state.window.SetMainMenu(fyne.NewMainMenu(fileMenu))

	if canv := state.window.Canvas(); canv != nil {
		for _, mod := range []fyne.KeyModifier{fyne.KeyModifierSuper, fyne.KeyModifierControl} {
			canv.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyO, Modifier: mod}, func(fyne.Shortcut) { openFileDialog(state) })
			canv.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyR, Modifier: mod}, func(fyne.Shortcut) { loadAll(state) })
			canv.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyW, Modifier: mod}, func(fyne.Shortcut) { state.window.Close() })
		}
	}
}

func openFileDialog(state *uiState) {
	d := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil || rc == nil {
			return
		}
		defer rc.Close()
		state.filePath = rc.URI().Path()
		savePrefs(state)
		loadAll(state)
	}, state.window)
	d.Show()
}

// loadAll (re)reads the dataset, refreshes picker options and redraws.
func loadAll(state *uiState) {
	if state.filePath == "" {
		if _, err := os.Stat(dataset.DefaultPath); err != nil {
			return
		}
		state.filePath = dataset.DefaultPath
	}
	if state.fileLabel != nil {
		state.fileLabel.SetText(truncatePath(state.filePath, 60))
	}
	ds, err := dataset.Load(state.filePath)
	if err != nil {
		if state.window != nil {
			dialog.ShowError(err, state.window)
		}
		logging.Errorf("load %s: %v", state.filePath, err)
		return
	}
	applyDataset(state, ds)
	if state.watchedPath != state.filePath {
		watchFile(state)
	}
}

func applyDataset(state *uiState, ds *dataset.Dataset) {
	state.ds = ds
	if state.statsLabel != nil {
		state.statsLabel.SetText(fmt.Sprintf("%d rows, %d countries", ds.Len(), len(ds.Countries())))
	}
	refreshPickers(state)
	redrawChart(state)
}

// watchFile reloads the dataset whenever the open file is saved again.
func watchFile(state *uiState) {
	stopWatching(state)
	w, err := dataset.NewWatcher(state.filePath, dataset.DefaultDebounce, func(ds *dataset.Dataset) {
		fyne.Do(func() { applyDataset(state, ds) })
	})
	if err != nil {
		logging.Warnf("[viewer] auto reload disabled: %v", err)
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	go w.Run(ctx)
	state.watchedPath = state.filePath
	state.stopWatch = cancel
}

func stopWatching(state *uiState) {
	if state.stopWatch != nil {
		state.stopWatch()
	}
	state.stopWatch = nil
	state.watchedPath = ""
}

func pickerOptions(ds *dataset.Dataset, first bool) []string {
	countries := ds.Countries()
	opts := make([]string, 0, len(countries)+1)
	if first {
		opts = append(opts, noneOption)
	}
	return append(opts, countries...)
}

func refreshPickers(state *uiState) {
	state.syncing = true
	defer func() { state.syncing = false }()
	for i, p := range state.pickers {
		if p == nil {
			continue
		}
		p.Options = pickerOptions(state.ds, i == 0)
		if state.countries[i] == "" {
			p.ClearSelected()
		} else {
			p.SetSelected(state.countries[i])
		}
		p.Refresh()
	}
}

func chartWidth(state *uiState) int {
	if state == nil || state.window == nil || state.window.Canvas() == nil {
		return render.DefaultWidth
	}
	w, _ := render.ComputeDimensions(int(state.window.Canvas().Size().Width*0.75), trajectory.ChartHeight)
	return w
}

func redrawChart(state *uiState) {
	sel := selection(state)
	fs := trajectory.Filter(state.ds, sel)
	logging.Debugf("[viewer] countries=%v days=%v series=%d points=%d", sel.Countries, sel.Range, fs.NonEmpty(), fs.Total())
	img, _ := render.Chart(trajectory.BuildChart(fs, sel), render.Options{Width: chartWidth(state)})
	if state.chartImg == nil {
		return
	}
	state.chartImg.Image = img
	state.chartImg.Refresh()
}

func exportChartPNG(state *uiState, defaultName string) {
	if state == nil || state.window == nil || state.chartImg == nil || state.chartImg.Image == nil {
		return
	}
	fs := dialog.NewFileSave(func(wc fyne.URIWriteCloser, err error) {
		if err != nil || wc == nil {
			return
		}
		defer wc.Close()
		if err := png.Encode(wc, state.chartImg.Image); err != nil {
			dialog.ShowError(err, state.window)
		}
	}, state.window)
	fs.SetFileName(defaultName)
	fs.Show()
}

func prefCountryKey(i int) string { return fmt.Sprintf("country%d", i+1) }

func savePrefs(state *uiState) {
	if state == nil || state.app == nil {
		return
	}
	prefs := state.app.Preferences()
	prefs.SetString("lastFile", state.filePath)
	for i, c := range state.countries {
		prefs.SetString(prefCountryKey(i), c)
	}
	prefs.SetInt("rangeLow", state.rng.Low)
	prefs.SetInt("rangeHigh", state.rng.High)
}

func loadPrefs(state *uiState) {
	if state == nil || state.app == nil {
		return
	}
	applyPrefs(state, state.app.Preferences())
}

// prefReader is the subset of fyne.Preferences read at startup.
type prefReader interface {
	StringWithFallback(key, fallback string) string
	IntWithFallback(key string, fallback int) int
}

func applyPrefs(state *uiState, prefs prefReader) {
	state.filePath = prefs.StringWithFallback("lastFile", state.filePath)
	for i := range state.countries {
		state.countries[i] = prefs.StringWithFallback(prefCountryKey(i), state.countries[i])
	}
	r := trajectory.DayRange{
		Low:  prefs.IntWithFallback("rangeLow", state.rng.Low),
		High: prefs.IntWithFallback("rangeHigh", state.rng.High),
	}
	state.rng = trajectory.PushHandles(r, trajectory.LowHandle, trajectory.HandleGap)
}

func truncatePath(p string, n int) string {
	if len(p) <= n {
		return p
	}
	base := filepath.Base(p)
	if len(base)+4 >= n {
		return "..." + base
	}
	dir := filepath.Dir(p)
	left := n - len(base) - 4
	if len(dir) > left {
		dir = dir[:left]
	}
	return dir + "/..." + base
}

// runScreenshot renders the default selection of the dataset at path without
// opening a window.
func runScreenshot(path, out string) error {
	ds, err := dataset.Load(path)
	if err != nil {
		return err
	}
	state := newState()
	state.ds = ds
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create %s: %w", out, err)
	}
	sel := selection(state)
	if err := render.PNG(f, trajectory.BuildChart(trajectory.Filter(ds, sel), sel), render.Options{}); err != nil {
		f.Close()
		return fmt.Errorf("render %s: %w", out, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	logging.Infof("[viewer] wrote %s", out)
	return nil
}
