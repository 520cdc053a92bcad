package main

import (
	"flag"
	"log"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/vabhinavrao/cortexkey/pkg/config"
	"github.com/vabhinavrao/cortexkey/pkg/cortex"
	"github.com/vabhinavrao/cortexkey/pkg/scope"
	"github.com/vabhinavrao/cortexkey/pkg/trace"
)

func main() {
	var (
		portFlag   = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyACM0)")
		configFlag = flag.String("config", "config.yaml", "Configuration file path")
		mockFlag   = flag.Bool("mock", false, "Use the in-process simulated device instead of a serial port")
	)
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Override serial port if provided via command line
	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}
	// Fall back to port auto-detection when nothing is configured
	if cfg.Serial.Port == "" {
		if found := cortex.FindPort(); found != "" {
			cfg.Serial.Port = found
		}
	}

	// Create Fyne application
	application := app.NewWithID("com.vabhinavrao.cortexkey")

	// Create main window
	window := application.NewWindow("CortexKey Monitor")
	window.Resize(fyne.NewSize(1200, 800))
	window.CenterOnScreen()

	// Create the trace buffer
	tr := trace.New(cfg)

	// Create application state
	appState := &appState{
		cfg:     cfg,
		device:  nil,
		tr:      tr,
		window:  window,
		useMock: *mockFlag,
	}

	// Create toolbar
	toolbar := createToolbar(appState)

	// Create scope widget for the trace display
	scopeWidget := scope.New(cfg)
	appState.scopeWidget = scopeWidget

	// Status strip along the bottom shows the device's latest non-data line
	statusLabel := widget.NewLabel("Not connected")
	appState.statusLabel = statusLabel

	content := container.NewBorder(
		toolbar,
		statusLabel,
		nil,
		nil,
		scopeWidget,
	)

	window.SetContent(content)
	window.ShowAndRun()
}

// monitorChain tracks the components of the monitoring chain for graceful
// shutdown.
type monitorChain struct {
	device          cortex.Device
	traceGoroutine  chan struct{} // closed when the trace goroutine exits
	eventsGoroutine chan struct{} // closed when the event goroutine exits
	statusPollStop  chan struct{} // closed to stop the STATUS poller
}

// appState holds the application state.
type appState struct {
	cfg         *config.Config
	device      cortex.Device
	mock        *cortex.Mock // non-nil while a mock device is connected
	tr          *trace.Trace
	scopeWidget *scope.ScopeWidget
	window      fyne.Window
	statusLabel *widget.Label

	connectBtn    *widget.Button
	startBtn      *widget.Button
	stopBtn       *widget.Button
	profileBtn    *widget.Button
	tapValidBtn   *widget.Button
	tapInvalidBtn *widget.Button

	useMock     bool
	adversarial bool          // current profile toggle state
	chain       *monitorChain // current monitoring chain (nil if not connected)

	// Throttling for scope updates
	lastUpdateTime time.Time
	updateMu       sync.Mutex
}

// createToolbar creates the application toolbar: connection and settings on
// the left, device controls on the right.
func createToolbar(state *appState) fyne.CanvasObject {
	connectBtn := widget.NewButtonWithIcon("", theme.LoginIcon(), func() {
		handleConnect(state)
	})
	state.connectBtn = connectBtn

	settingsBtn := widget.NewButtonWithIcon("", theme.SettingsIcon(), func() {
		showSettingsDialog(state)
	})

	startBtn := widget.NewButtonWithIcon("Start", theme.MediaPlayIcon(), func() {
		sendCommand(state, cortex.CmdStart)
	})
	startBtn.Disable()
	state.startBtn = startBtn

	stopBtn := widget.NewButtonWithIcon("Stop", theme.MediaStopIcon(), func() {
		sendCommand(state, cortex.CmdStop)
	})
	stopBtn.Disable()
	state.stopBtn = stopBtn

	profileBtn := widget.NewButton("Profile: cooperative", func() {
		handleProfileToggle(state)
	})
	profileBtn.Disable()
	state.profileBtn = profileBtn

	// Button-press simulation, only meaningful against the mock device
	tapValidBtn := widget.NewButton("Tap valid", func() {
		if state.mock != nil {
			state.mock.TapValid()
		}
	})
	tapValidBtn.Disable()
	state.tapValidBtn = tapValidBtn

	tapInvalidBtn := widget.NewButton("Tap invalid", func() {
		if state.mock != nil {
			state.mock.TapInvalid()
		}
	})
	tapInvalidBtn.Disable()
	state.tapInvalidBtn = tapInvalidBtn

	return container.NewBorder(
		nil,
		nil,
		container.NewHBox(connectBtn, settingsBtn),
		container.NewHBox(startBtn, stopBtn, profileBtn, tapValidBtn, tapInvalidBtn),
		nil,
	)
}
