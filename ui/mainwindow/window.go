// Package mainwindow provides the main application window.
package mainwindow

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"dentalceph/internal/annotation"
	"dentalceph/internal/app"
	"dentalceph/internal/config"
	"dentalceph/internal/export"
	"dentalceph/internal/image"
	"dentalceph/internal/interaction"
	"dentalceph/internal/render"
	"dentalceph/internal/version"
	"dentalceph/pkg/colorutil"
	"dentalceph/pkg/geometry"
	"dentalceph/ui/canvas"
)

const (
	appTitle       = "DentalCeph"
	prefKeyLastDir = "lastDirectory"
)

var (
	thicknessChoices = []string{"2", "4", "7"}
	fontSizeChoices  = []string{"14", "18", "24", "32"}
)

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app       fyne.App
	state     *app.State
	settings  config.Settings
	configDir string
	logger    *slog.Logger

	canvas    *canvas.AnnotationCanvas
	statusBar *widget.Label
	zoomLabel *widget.Label

	toolSelect *widget.Select
}

// New creates a new main window.
func New(fyneApp fyne.App, state *app.State, settings config.Settings, configDir string, logger *slog.Logger) *MainWindow {
	win := fyneApp.NewWindow(appTitle)

	mw := &MainWindow{
		Window:    win,
		app:       fyneApp,
		state:     state,
		settings:  settings,
		configDir: configDir,
		logger:    logger,
	}

	mw.setupUI()
	mw.setupMenus()
	mw.setupShortcuts()
	mw.setupEventHandlers()

	return mw
}

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI() {
	mw.canvas = canvas.NewAnnotationCanvas(mw.state, mw.logger)
	mw.statusBar = widget.NewLabel("Open a radiograph to begin")

	toolbar := mw.createToolbar()

	content := container.NewBorder(
		toolbar,                           // top
		container.NewPadded(mw.statusBar), // bottom
		nil,                               // left
		nil,                               // right
		mw.canvas,                         // center
	)

	mw.SetContent(content)
	mw.Resize(fyne.NewSize(1200, 800))
}

// createToolbar creates the annotation toolbar.
func (mw *MainWindow) createToolbar() fyne.CanvasObject {
	cfg := mw.state.Config()

	toolNames := make([]string, len(interaction.Tools))
	for i, t := range interaction.Tools {
		toolNames[i] = t.String()
	}
	mw.toolSelect = widget.NewSelect(toolNames, func(name string) {
		if t, err := interaction.ParseTool(name); err == nil {
			mw.state.SetTool(t)
		}
	})
	mw.toolSelect.SetSelected(cfg.Tool.String())

	colorSelect := widget.NewSelect(colorutil.Palette, func(hex string) {
		if c, err := colorutil.ParseHex(hex); err == nil {
			mw.state.SetColor(c)
		}
	})
	colorSelect.SetSelected(colorutil.Hex(cfg.Color))

	thicknessSelect := widget.NewSelect(thicknessChoices, func(s string) {
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			mw.state.SetThickness(v)
		}
	})
	thicknessSelect.SetSelected(strconv.FormatFloat(cfg.Thickness, 'f', -1, 64))

	fontSelect := widget.NewSelect(render.Families, mw.state.SetFontFamily)
	fontSelect.SetSelected(cfg.FontFamily)

	sizeSelect := widget.NewSelect(fontSizeChoices, func(s string) {
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			mw.state.SetFontSize(v)
		}
	})
	sizeSelect.SetSelected(strconv.FormatFloat(cfg.FontSize, 'f', -1, 64))

	mw.zoomLabel = widget.NewLabel(formatZoom(cfg.Zoom))

	return container.NewHBox(
		widget.NewButton("Open", mw.onOpenImage),
		widget.NewSeparator(),
		widget.NewLabel("Tool:"), mw.toolSelect,
		widget.NewLabel("Color:"), colorSelect,
		widget.NewLabel("Width:"), thicknessSelect,
		widget.NewLabel("Font:"), fontSelect, sizeSelect,
		widget.NewSeparator(),
		widget.NewButton("-", mw.canvas.ZoomOut),
		mw.zoomLabel,
		widget.NewButton("+", mw.canvas.ZoomIn),
		widget.NewButton("Rotate", mw.state.Rotate),
		widget.NewSeparator(),
		widget.NewButton("Undo", mw.state.Undo),
		widget.NewButton("Redo", mw.state.Redo),
		widget.NewButton("Backup", mw.state.Freeze),
		widget.NewButton("Clear", mw.state.Clear),
		widget.NewButton("Export", mw.onExport),
	)
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Image...", mw.onOpenImage),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Export PNG...", func() { mw.exportAs("png") }),
		fyne.NewMenuItem("Export JPEG...", func() { mw.exportAs("jpeg") }),
		fyne.NewMenuItem("Export PDF...", func() { mw.exportAs("pdf") }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() { mw.app.Quit() }),
	)

	editMenu := fyne.NewMenu("Edit",
		fyne.NewMenuItem("Undo", mw.state.Undo),
		fyne.NewMenuItem("Redo", mw.state.Redo),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Backup Annotations", mw.state.Freeze),
		fyne.NewMenuItem("Clear Annotations", mw.state.Clear),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Save Toolbar as Default", mw.onSaveDefaults),
	)

	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Zoom In", mw.canvas.ZoomIn),
		fyne.NewMenuItem("Zoom Out", mw.canvas.ZoomOut),
		fyne.NewMenuItem("Actual Size", func() { mw.state.SetZoom(100) }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Rotate 90°", mw.state.Rotate),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mw.SetMainMenu(fyne.NewMainMenu(fileMenu, editMenu, viewMenu, helpMenu))
}

// setupShortcuts binds the usual undo/redo keys.
func (mw *MainWindow) setupShortcuts() {
	c := mw.Canvas()
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierShortcutDefault},
		func(fyne.Shortcut) { mw.state.Undo() })
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyY, Modifier: fyne.KeyModifierShortcutDefault},
		func(fyne.Shortcut) { mw.state.Redo() })
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyO, Modifier: fyne.KeyModifierShortcutDefault},
		func(fyne.Shortcut) { mw.onOpenImage() })
}

// setupEventHandlers registers for application events.
func (mw *MainWindow) setupEventHandlers() {
	mw.state.On(app.EventImageLoaded, func(data interface{}) {
		if layer, ok := data.(*image.Layer); ok && layer != nil {
			mw.SetTitle(appTitle + " - " + layer.Name())
			mw.updateStatus(fmt.Sprintf("Loaded %s (%d×%d)", layer.Name(), layer.Width(), layer.Height()))
		}
	})

	mw.state.On(app.EventConfigChanged, func(data interface{}) {
		if cfg, ok := data.(interaction.Config); ok {
			mw.zoomLabel.SetText(formatZoom(cfg.Zoom))
			if mw.toolSelect.Selected != cfg.Tool.String() {
				mw.toolSelect.SetSelected(cfg.Tool.String())
			}
		}
	})

	mw.state.On(app.EventTextRequested, func(data interface{}) {
		if anchor, ok := data.(geometry.Point2D); ok {
			mw.showTextEntry(anchor)
		}
	})

	mw.state.On(app.EventRatioComputed, func(data interface{}) {
		if r, ok := data.(interaction.RatioResult); ok {
			mw.showRatio(r)
		}
	})

	mw.state.On(app.EventAngleMeasured, func(data interface{}) {
		if a, ok := data.(annotation.Angle); ok {
			mw.updateStatus(fmt.Sprintf("Angle: %.1f°", a.Degrees))
		}
	})

	mw.state.On(app.EventExported, func(data interface{}) {
		if name, ok := data.(string); ok {
			mw.updateStatus("Exported " + name)
		}
	})
}

// updateStatus updates the status bar text.
func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

func formatZoom(zoom float64) string {
	return fmt.Sprintf("%.0f%%", zoom)
}

// showTextEntry asks for the content of a new text annotation.
func (mw *MainWindow) showTextEntry(anchor geometry.Point2D) {
	entry := widget.NewEntry()
	entry.SetPlaceHolder("Label")
	form := dialog.NewForm(
		fmt.Sprintf("Text at (%.0f, %.0f)", anchor.X, anchor.Y),
		"Add", "Cancel",
		[]*widget.FormItem{widget.NewFormItem("Text", entry)},
		func(ok bool) {
			if ok {
				mw.state.ConfirmText(entry.Text)
			} else {
				mw.state.CancelText()
			}
		},
		mw.Window,
	)
	form.Show()
	mw.Canvas().Focus(entry)
}

// showRatio displays a Jarabak result; annotation resumes once it is closed.
func (mw *MainWindow) showRatio(r interaction.RatioResult) {
	d := dialog.NewInformation("Jarabak ratio",
		fmt.Sprintf("Ratio: %.3f", r.Value), mw.Window)
	d.SetOnClosed(mw.state.DismissRatio)
	d.Show()
	mw.updateStatus(fmt.Sprintf("Ratio: %.3f", r.Value))
}

// getLastDir returns the last used directory as a ListableURI, or nil.
func (mw *MainWindow) getLastDir() fyne.ListableURI {
	path := mw.app.Preferences().String(prefKeyLastDir)
	if path == "" {
		return nil
	}
	uri := storage.NewFileURI(path)
	listable, err := storage.ListerForURI(uri)
	if err != nil {
		return nil
	}
	return listable
}

// saveLastDir saves the directory of the given file path.
func (mw *MainWindow) saveLastDir(filePath string) {
	mw.app.Preferences().SetString(prefKeyLastDir, filepath.Dir(filePath))
}

func (mw *MainWindow) onOpenImage() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		mw.saveLastDir(path)
		mw.loadImage(path)
	}, mw.Window)

	fd.SetFilter(storage.NewExtensionFileFilter(image.SupportedFormats()))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

// loadImage decodes path in the background and installs it when ready.
func (mw *MainWindow) loadImage(path string) {
	mw.updateStatus("Loading " + filepath.Base(path) + "...")
	layer := image.LoadAsync(path)
	go func() {
		if err := layer.Wait(context.Background()); err != nil {
			mw.logger.Warn("Image load failed", "path", path, "error", err)
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.state.SetLayer(layer)
	}()
}

// onExport prompts for a format, then for a destination.
func (mw *MainWindow) onExport() {
	formatEntry := widget.NewSelectEntry(export.Formats)
	formatEntry.SetText(mw.settings.Export.DefaultFormat)
	dialog.ShowForm("Export", "Next", "Cancel",
		[]*widget.FormItem{widget.NewFormItem("Format", formatEntry)},
		func(ok bool) {
			if ok {
				mw.exportAs(formatEntry.Text)
			}
		},
		mw.Window,
	)
}

// exportAs runs an export in the background. The destination is chosen
// with a save dialog once the file name is known.
func (mw *MainWindow) exportAs(format string) {
	go mw.state.ExportAs(context.Background(), format, mw.saveDialogDestination())
}

// saveDialogDestination adapts the fyne save dialog to export.Destination.
// Dismissing the dialog yields export.ErrCancelled.
func (mw *MainWindow) saveDialogDestination() export.Destination {
	return export.DestinationFunc(func(ctx context.Context, name, _ string) (io.WriteCloser, error) {
		type choice struct {
			w   fyne.URIWriteCloser
			err error
		}
		picked := make(chan choice, 1)

		fd := dialog.NewFileSave(func(w fyne.URIWriteCloser, err error) {
			picked <- choice{w: w, err: err}
		}, mw.Window)
		fd.SetFileName(name)
		if loc := mw.getLastDir(); loc != nil {
			fd.SetLocation(loc)
		}
		fd.Show()

		select {
		case c := <-picked:
			if c.err != nil {
				return nil, c.err
			}
			if c.w == nil {
				return nil, export.ErrCancelled
			}
			mw.saveLastDir(c.w.URI().Path())
			return c.w, nil
		case <-ctx.Done():
			fd.Hide()
			return nil, ctx.Err()
		}
	})
}

func (mw *MainWindow) onSaveDefaults() {
	cfg := mw.state.Config()
	err := config.SaveTool(mw.configDir, config.ToolSettings{
		Default:    cfg.Tool.String(),
		Color:      colorutil.Hex(cfg.Color),
		Thickness:  cfg.Thickness,
		FontSize:   cfg.FontSize,
		FontFamily: cfg.FontFamily,
	})
	if err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}
	mw.updateStatus("Toolbar saved as default")
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About "+appTitle,
		fmt.Sprintf("%s v%s\n\n"+
			"Cephalometric annotation for dental radiographs.\n\n"+
			"Built: %s\n"+
			"Commit: %s",
			appTitle, version.Version, version.BuildTime, version.GitCommit),
		mw.Window)
}
