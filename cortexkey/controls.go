package main

import (
	"fmt"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"

	"github.com/vabhinavrao/cortexkey/pkg/cortex"
	"github.com/vabhinavrao/cortexkey/pkg/trace"
)

// closeMonitorChain gracefully closes the monitoring chain. Waits for all
// goroutines to finish and channels to drain.
func closeMonitorChain(chain *monitorChain) {
	if chain == nil {
		return
	}

	// Stop the STATUS poller first so it cannot write to a closing device
	if chain.statusPollStop != nil {
		close(chain.statusPollStop)
	}

	// Close device - this closes the sample and event channels
	if chain.device != nil {
		chain.device.Close()
	}

	if chain.traceGoroutine != nil {
		<-chain.traceGoroutine
	}
	if chain.eventsGoroutine != nil {
		<-chain.eventsGoroutine
	}
}

// handleConnect handles the connect/disconnect button click.
func handleConnect(state *appState) {
	if state.device != nil && state.device.IsConnected() {
		// Disconnect - gracefully close the monitoring chain
		closeMonitorChain(state.chain)
		state.chain = nil
		state.device = nil
		state.mock = nil
		setControlsEnabled(state, false)
		state.statusLabel.SetText("Not connected")
		state.scopeWidget.SetAnnotation("")
		if state.useMock {
			fmt.Println("Disconnected from simulated device")
		} else {
			fmt.Println("Disconnected from serial port")
		}
		return
	}

	// Connect
	var device cortex.Device
	if state.useMock {
		mock := cortex.NewMock(state.cfg)
		state.mock = mock
		device = mock
		fmt.Println("Using simulated device")
	} else {
		device = cortex.New(state.cfg.Serial.Port, state.cfg.Serial.BaudRate, cortex.DefaultBufferSize)
	}

	if err := device.Connect(); err != nil {
		state.mock = nil
		if state.useMock {
			dialog.ShowError(fmt.Errorf("failed to connect to simulated device: %w", err), state.window)
		} else {
			dialog.ShowError(fmt.Errorf("failed to connect to %s: %w", state.cfg.Serial.Port, err), state.window)
		}
		return
	}
	state.device = device
	if state.useMock {
		fmt.Println("Connected to simulated device")
	} else {
		fmt.Printf("Connected to serial port: %s\n", state.cfg.Serial.Port)
	}

	setControlsEnabled(state, true)

	// Reset the trace for the new chain
	state.tr.Reset()
	state.tr.ResetShutdown()

	// Register callback with the trace to update the scope widget. Throttle
	// updates to ~60 FPS so the 250 Hz stream does not overwhelm the UI.
	const updateInterval = 16 * time.Millisecond
	state.tr.OnUpdate(func(samples []cortex.Sample, stats trace.Stats) {
		state.updateMu.Lock()
		now := time.Now()
		tooSoon := now.Sub(state.lastUpdateTime) < updateInterval
		if !tooSoon {
			state.lastUpdateTime = now
		}
		state.updateMu.Unlock()

		if tooSoon {
			return
		}

		// Update scope widget on the main thread; it downsamples internally
		fyne.Do(func() {
			state.scopeWidget.UpdateData(samples, stats)
		})
	})

	traceDone := make(chan struct{})
	eventsDone := make(chan struct{})
	pollStop := make(chan struct{})

	// Feed the sample stream into the trace buffer
	go func() {
		defer close(traceDone)
		state.tr.ProcessSamples(device.Samples())
	}()

	// Surface device events in the status strip and annotation
	go func() {
		defer close(eventsDone)
		for ev := range device.Events() {
			handleEvent(state, ev)
		}
	}()

	// Poll STATUS once a second to keep the mode annotation fresh
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-pollStop:
				return
			case <-ticker.C:
				if err := device.Send(cortex.CmdStatus); err != nil {
					return
				}
			}
		}
	}()

	state.chain = &monitorChain{
		device:          device,
		traceGoroutine:  traceDone,
		eventsGoroutine: eventsDone,
		statusPollStop:  pollStop,
	}
}

// handleEvent routes one non-data line from the device to the UI.
// Runs on the event goroutine; all widget updates go through fyne.Do.
func handleEvent(state *appState, ev cortex.Event) {
	switch ev.Kind {
	case cortex.EventStatus:
		if st, err := cortex.ParseStatus(ev.Text); err == nil {
			// Periodic status report: update the annotation, keep the strip
			annotation := fmt.Sprintf("%s / %s", st.Mode, st.Profile)
			fyne.Do(func() {
				state.scopeWidget.SetAnnotation(annotation)
			})
			return
		}
		text := ev.Text
		fyne.Do(func() {
			state.statusLabel.SetText(text)
		})
	case cortex.EventError:
		text := "Device error: " + ev.Text
		fyne.Do(func() {
			state.statusLabel.SetText(text)
		})
	case cortex.EventReady:
		fyne.Do(func() {
			state.statusLabel.SetText("Device ready")
		})
	case cortex.EventBanner:
		text := ev.Text
		fyne.Do(func() {
			state.statusLabel.SetText(text)
		})
	}
}

// sendCommand sends one protocol command, surfacing failures in a dialog.
func sendCommand(state *appState, cmd string) {
	if state.device == nil || !state.device.IsConnected() {
		return
	}
	if err := state.device.Send(cmd); err != nil {
		dialog.ShowError(fmt.Errorf("failed to send %s: %w", cmd, err), state.window)
	}
}

// handleProfileToggle flips between the cooperative and adversarial signal
// profiles.
func handleProfileToggle(state *appState) {
	if state.device == nil || !state.device.IsConnected() {
		return
	}

	state.adversarial = !state.adversarial
	cmd := cortex.CmdProfileAuth
	label := "Profile: cooperative"
	if state.adversarial {
		cmd = cortex.CmdProfileImp
		label = "Profile: adversarial"
	}

	if err := state.device.Send(cmd); err != nil {
		// Revert on error
		state.adversarial = !state.adversarial
		dialog.ShowError(fmt.Errorf("failed to switch profile: %w", err), state.window)
		return
	}
	state.profileBtn.SetText(label)
}

// setControlsEnabled toggles the device control buttons with connection
// state. The tap buttons only work against the simulated device.
func setControlsEnabled(state *appState, connected bool) {
	if connected {
		state.startBtn.Enable()
		state.stopBtn.Enable()
		state.profileBtn.Enable()
		if state.mock != nil {
			state.tapValidBtn.Enable()
			state.tapInvalidBtn.Enable()
		}
		return
	}
	state.startBtn.Disable()
	state.stopBtn.Disable()
	state.profileBtn.Disable()
	state.tapValidBtn.Disable()
	state.tapInvalidBtn.Disable()
	state.adversarial = false
	state.profileBtn.SetText("Profile: cooperative")
}
