package main

import (
	"fmt"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/vabhinavrao/cortexkey/pkg/cortex"
	"github.com/vabhinavrao/cortexkey/pkg/trace"
)

// showSettingsDialog displays a settings dialog with tabs for all
// configuration options.
func showSettingsDialog(state *appState) {
	tabs := container.NewAppTabs(
		createSerialTab(state),
		createAcquisitionTab(state),
		createSimulatorTab(state),
		createDisplayTab(state),
	)

	content := container.NewBorder(nil, nil, nil, nil, tabs)
	content.Resize(fyne.NewSize(600, 500))

	d := dialog.NewCustom("Settings", "Close", content, state.window)
	d.Resize(fyne.NewSize(600, 500))
	d.Show()
}

// createSerialTab creates the Serial configuration tab.
func createSerialTab(state *appState) *container.TabItem {
	// Get available serial ports
	ports, err := cortex.Ports()
	portOptions := []string{}
	portMap := make(map[string]string) // Map display name to actual port name

	if err == nil {
		for _, port := range ports {
			displayName := port.Name
			if port.Description != "" && port.Description != port.Name {
				displayName = fmt.Sprintf("%s (%s)", port.Name, port.Description)
			}
			portOptions = append(portOptions, displayName)
			portMap[displayName] = port.Name
		}
	}

	// Add current port if not in list
	currentPort := state.cfg.Serial.Port
	currentDisplay := currentPort
	found := false
	for _, opt := range portOptions {
		if portMap[opt] == currentPort {
			currentDisplay = opt
			found = true
			break
		}
	}
	if !found && currentPort != "" {
		portOptions = append(portOptions, currentPort)
		portMap[currentPort] = currentPort
		currentDisplay = currentPort
	}

	portSelect := widget.NewSelect(portOptions, func(selected string) {
		// Selection handler - applied on submit
	})
	if currentDisplay != "" {
		portSelect.SetSelected(currentDisplay)
	}

	baudEntry := widget.NewEntry()
	baudEntry.SetText(strconv.Itoa(state.cfg.Serial.BaudRate))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Serial Port", Widget: portSelect},
			{Text: "Baud Rate", Widget: baudEntry},
		},
		OnSubmit: func() {
			portChanged := false
			if portSelect.Selected != "" {
				selectedPort := portMap[portSelect.Selected]
				if selectedPort == "" {
					selectedPort = portSelect.Selected
				}
				portChanged = state.cfg.Serial.Port != selectedPort
				state.cfg.Serial.Port = selectedPort
			}
			if baud, err := strconv.Atoi(baudEntry.Text); err == nil && baud > 0 {
				state.cfg.Serial.BaudRate = baud
			}
			if err := state.cfg.Save("config.yaml"); err != nil {
				dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
				return
			}

			// If the port changed while connected, restart the chain
			wasConnected := state.device != nil && state.device.IsConnected()
			if portChanged && wasConnected && !state.useMock {
				closeMonitorChain(state.chain)
				state.chain = nil
				state.device = nil
				handleConnect(state)
			}
		},
	}

	return container.NewTabItem("Serial", form)
}

// createAcquisitionTab creates the Acquisition timing tab. These values only
// affect the simulated device; real firmware timings are fixed.
func createAcquisitionTab(state *appState) *container.TabItem {
	sampleIntervalEntry := widget.NewEntry()
	sampleIntervalEntry.SetText(state.cfg.Acquisition.SampleInterval.String())

	debounceEntry := widget.NewEntry()
	debounceEntry.SetText(state.cfg.Acquisition.Debounce.String())

	longPressEntry := widget.NewEntry()
	longPressEntry.SetText(state.cfg.Acquisition.LongPress.String())

	testDurationEntry := widget.NewEntry()
	testDurationEntry.SetText(state.cfg.Acquisition.TestDuration.String())

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Sample Interval", Widget: sampleIntervalEntry},
			{Text: "Button Debounce", Widget: debounceEntry},
			{Text: "Long Press Threshold", Widget: longPressEntry},
			{Text: "Button Test Duration", Widget: testDurationEntry},
		},
		OnSubmit: func() {
			if si, err := time.ParseDuration(sampleIntervalEntry.Text); err == nil {
				state.cfg.Acquisition.SampleInterval = si
			}
			if db, err := time.ParseDuration(debounceEntry.Text); err == nil {
				state.cfg.Acquisition.Debounce = db
			}
			if lp, err := time.ParseDuration(longPressEntry.Text); err == nil {
				state.cfg.Acquisition.LongPress = lp
			}
			if td, err := time.ParseDuration(testDurationEntry.Text); err == nil {
				state.cfg.Acquisition.TestDuration = td
			}
			if err := state.cfg.Save("config.yaml"); err != nil {
				dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
			}
		},
	}

	return container.NewTabItem("Acquisition", form)
}

// createSimulatorTab creates the simulated-signal configuration tab.
func createSimulatorTab(state *appState) *container.TabItem {
	seedEntry := widget.NewEntry()
	seedEntry.SetText(strconv.FormatInt(state.cfg.Signal.Seed, 10))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Random Seed (0 = clock)", Widget: seedEntry},
		},
		OnSubmit: func() {
			if seed, err := strconv.ParseInt(seedEntry.Text, 10, 64); err == nil {
				state.cfg.Signal.Seed = seed
			}
			if err := state.cfg.Save("config.yaml"); err != nil {
				dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
			}
		},
	}

	return container.NewTabItem("Simulator", form)
}

// createDisplayTab creates the Display configuration tab.
func createDisplayTab(state *appState) *container.TabItem {
	windowSecondsEntry := widget.NewEntry()
	windowSecondsEntry.SetText(fmt.Sprintf("%.1f", state.cfg.Display.WindowSeconds))

	maxPointsEntry := widget.NewEntry()
	maxPointsEntry.SetText(strconv.Itoa(state.cfg.Display.MaxPoints))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Window (seconds)", Widget: windowSecondsEntry},
			{Text: "Max Display Points", Widget: maxPointsEntry},
		},
		OnSubmit: func() {
			if ws, err := strconv.ParseFloat(windowSecondsEntry.Text, 64); err == nil && ws > 0 {
				state.cfg.Display.WindowSeconds = ws
			}
			if mp, err := strconv.Atoi(maxPointsEntry.Text); err == nil && mp > 0 {
				state.cfg.Display.MaxPoints = mp
			}
			if err := state.cfg.Save("config.yaml"); err != nil {
				dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
			}
			// Recreate the trace with the new window
			state.tr = trace.New(state.cfg)
		},
	}

	return container.NewTabItem("Display", form)
}
