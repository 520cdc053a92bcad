//go:generate tinygo flash -target=esp32-coreboard-v2

package main

import (
	"context"
	"machine"
	"time"

	"github.com/vabhinavrao/cortexkey/pkg/device"
	"github.com/vabhinavrao/cortexkey/pkg/signal"
)

// useElectrode selects the real analog front end instead of the synthesized
// profiles. Requires the electrode harness on PIN_SIGNAL.
const useElectrode = false

var (
	adcSignal machine.ADC
	uart      = machine.UART0

	// Serial buffer for reading command lines
	serialBuffer [32]byte
	serialPos    int
)

func main() {
	// Buttons idle high, pulled low while pressed
	PIN_BTN_VALID.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	PIN_BTN_INVALID.Configure(machine.PinConfig{Mode: machine.PinInputPullup})

	PIN_LED.Configure(machine.PinConfig{Mode: machine.PinOutput})
	PIN_LED.Low()

	// Configure the electrode ADC with highest resolution
	PIN_SIGNAL.Configure(machine.PinConfig{Mode: machine.PinInput})
	adcSignal = machine.ADC{Pin: PIN_SIGNAL}
	adcSignal.Configure(machine.ADCConfig{
		Reference:  ADC_REFERENCE_MV,
		Resolution: ADC_RESOLUTION,
	})

	uart.Configure(machine.UARTConfig{
		BaudRate: UART_BAUD_RATE,
	})

	gen := signal.New(nil)

	dev := device.New(device.Config{
		Hardware: boardHardware{},
		Commands: &uartLines{},
		Output:   uart,
		Source: func(p device.Profile, elapsed float32) float32 {
			if useElectrode {
				return readElectrode()
			}
			if p == device.ProfileAdversarial {
				return gen.Adversarial(elapsed)
			}
			return gen.Cooperative(elapsed)
		},
		SampleInterval: SAMPLE_INTERVAL_MS * time.Millisecond,
		Debounce:       DEBOUNCE_MS * time.Millisecond,
		LongPress:      LONG_PRESS_MS * time.Millisecond,
		TestDuration:   TEST_DURATION_MS * time.Millisecond,
	})

	printBanner()

	dev.Run(context.Background())
}

func printBanner() {
	print("========================================\r\n")
	print("  CortexKey bio-signal authenticator\r\n")
	print("========================================\r\n")
	print("Commands: START STOP MOCK_AUTH MOCK_IMP STATUS\r\n")
	print("CORTEXKEY_READY\r\n")
}

// readElectrode converts one raw ADC count to microvolts around the mid-rail
// electrode bias.
func readElectrode() float32 {
	raw := adcSignal.Get()
	return float32(raw)/ADC_MAX_COUNT*float32(ADC_REFERENCE_MV) - ADC_MIDRAIL_UV
}

// boardHardware wires the control loop to the physical pins.
type boardHardware struct{}

func (boardHardware) ButtonValid() bool   { return PIN_BTN_VALID.Get() }
func (boardHardware) ButtonInvalid() bool { return PIN_BTN_INVALID.Get() }

func (boardHardware) SetIndicator(on bool) {
	if on {
		PIN_LED.High()
	} else {
		PIN_LED.Low()
	}
}

// uartLines assembles command lines from buffered UART bytes without
// blocking the control loop.
type uartLines struct{}

func (u *uartLines) ReadLine() (string, bool) {
	for uart.Buffered() > 0 {
		data, err := uart.ReadByte()
		if err != nil {
			break
		}

		// Newline terminates the pending line
		if data == '\n' || data == '\r' {
			if serialPos == 0 {
				continue
			}
			line := string(serialBuffer[:serialPos])
			serialPos = 0
			return line, true
		}

		if serialPos < len(serialBuffer) {
			serialBuffer[serialPos] = data
			serialPos++
		}
		// Overlong lines are truncated until the next newline
	}
	return "", false
}
