package main

import (
	"embed"
	"log/slog"

	"github.com/wailsapp/wails/v3/pkg/application"
	"github.com/wailsapp/wails/v3/pkg/events"

	"github.com/whispermate/whispermate/internal/app"
)

//go:embed all:frontend/dist
var assets embed.FS

//go:embed build/trayicon.png
var trayIconBytes []byte

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	slog.Info("starting app", "version", version, "commit", commit, "date", date)
	service := app.New()

	wapp := application.New(application.Options{
		Name:        "WhisperMate",
		Description: "Push-to-talk voice dictation",
		Services: []application.Service{
			application.NewService(service),
		},
		Assets: application.AssetOptions{
			Handler: application.BundledAssetFileServer(assets),
		},
		Mac: application.MacOptions{
			// Don't quit when all windows are closed (we have a system tray)
			ApplicationShouldTerminateAfterLastWindowClosed: false,
		},
	})

	mainWindow := wapp.Window.NewWithOptions(application.WebviewWindowOptions{
		Title:  "WhisperMate",
		Width:  420,
		Height: 640,
		URL:    "/",
		Mac: application.MacWindow{
			TitleBar:                application.MacTitleBarHiddenInsetUnified,
			InvisibleTitleBarHeight: 38,
		},
	})

	// Intercept window close: hide instead of destroy so tray can reopen
	mainWindow.RegisterHook(events.Common.WindowClosing, func(e *application.WindowEvent) {
		e.Cancel()
		mainWindow.Hide()
	})

	service.Init(wapp, mainWindow)

	systemTray := wapp.SystemTray.New()
	systemTray.SetIcon(trayIconBytes)

	trayMenu := wapp.NewMenu()
	trayMenu.Add("Show Window").OnClick(func(ctx *application.Context) {
		service.ShowWindow()
	})
	trayMenu.Add("Start Dictation").OnClick(func(ctx *application.Context) {
		if err := service.StartDictation(); err != nil {
			slog.Error("start dictation from tray", "error", err)
		}
	})
	trayMenu.Add("Stop Dictation").OnClick(func(ctx *application.Context) {
		if err := service.StopDictation(); err != nil {
			slog.Error("stop dictation from tray", "error", err)
		}
	})
	trayMenu.AddSeparator()
	trayMenu.Add("Quit").
		SetAccelerator("CmdOrCtrl+Q").
		OnClick(func(ctx *application.Context) {
			service.Shutdown()
			wapp.Quit()
		})

	systemTray.SetMenu(trayMenu)

	if err := wapp.Run(); err != nil {
		slog.Error("run app", "error", err)
	}
}
