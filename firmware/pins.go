package main

import "machine"

const (
	// Control-loop timing, mirrored in pkg/device defaults
	SAMPLE_INTERVAL_MS = 4     // 250 Hz acquisition rate
	DEBOUNCE_MS        = 50    // minimum release-to-press gap
	LONG_PRESS_MS      = 2000  // hold duration for the stop gesture
	TEST_DURATION_MS   = 10000 // auto-stop cap on button tests

	// ADC configuration
	ADC_REFERENCE_MV = 3300 // Reference voltage in millivolts (3.3V)
	ADC_RESOLUTION   = 12   // ADC resolution in bits (12-bit = 0-4095)
	ADC_MAX_COUNT    = 4095
	ADC_MIDRAIL_UV   = 1650 // mid-rail electrode bias removed from raw readings

	// Electrode input (ADC1 channel, usable while WiFi is off)
	PIN_SIGNAL = machine.Pin(34)

	// Buttons, active low with internal pull-ups
	PIN_BTN_VALID   = machine.Pin(18)
	PIN_BTN_INVALID = machine.Pin(19)

	// Activity indicator
	PIN_LED = machine.Pin(2)

	// Serial configuration
	// Baud rate calculation: format "DATA,<elapsed_ms>,<value>\n"
	// Example: "DATA,1234567,-123.456\n" = ~22 bytes max per line
	// 250 lines/sec * 22 bytes/line = 5,500 bytes/sec
	// UART 8N1: 10 bits/byte = 55,000 baud minimum
	// 115200 provides ~2x headroom (11,520 bytes/sec max)
	UART_BAUD_RATE = 115200
)
