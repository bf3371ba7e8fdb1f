package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/trainspeed/pkg/config"
	"github.com/itohio/trainspeed/pkg/device"
	"github.com/itohio/trainspeed/pkg/topology"
)

// showSettingsDialog displays a settings dialog with tabs for all configuration options.
func showSettingsDialog(state *appState) {
	tabs := container.NewAppTabs(
		createSerialTab(state),
		createMeasurementTab(state),
		createDisplayTab(state),
		createMockTab(state),
	)

	content := container.NewBorder(nil, nil, nil, nil, tabs)
	content.Resize(fyne.NewSize(600, 500))

	d := dialog.NewCustom("Settings", "Close", content, state.window)
	d.Resize(fyne.NewSize(600, 500))
	d.Show()
}

// saveConfig validates and persists the configuration.
func saveConfig(state *appState) {
	if err := state.cfg.Validate(); err != nil {
		dialog.ShowError(fmt.Errorf("invalid configuration: %w", err), state.window)
		return
	}
	if err := state.cfg.Save(state.configPath); err != nil {
		dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
	}
}

// reconnect restarts the device if it is connected so new settings apply.
func reconnect(state *appState) {
	if state.device == nil || !state.device.IsConnected() {
		return
	}
	handleConnect(state) // disconnect
	handleConnect(state) // connect with new settings
}

// createSerialTab creates the Serial configuration tab.
func createSerialTab(state *appState) *container.TabItem {
	ports, err := device.Ports()
	portOptions := []string{}
	if err == nil {
		for _, port := range ports {
			portOptions = append(portOptions, port.Name)
		}
	}

	currentPort := state.cfg.Serial.Port
	found := false
	for _, opt := range portOptions {
		if opt == currentPort {
			found = true
			break
		}
	}
	if !found && currentPort != "" {
		portOptions = append(portOptions, currentPort)
	}

	portSelect := widget.NewSelect(portOptions, nil)
	if currentPort != "" {
		portSelect.SetSelected(currentPort)
	}

	baudEntry := widget.NewEntry()
	baudEntry.SetText(strconv.Itoa(state.cfg.Serial.BaudRate))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Serial Port", Widget: portSelect},
			{Text: "Baud Rate", Widget: baudEntry},
		},
		OnSubmit: func() {
			changed := false
			if portSelect.Selected != "" && portSelect.Selected != state.cfg.Serial.Port {
				state.cfg.Serial.Port = portSelect.Selected
				changed = true
			}
			if baud, err := strconv.Atoi(baudEntry.Text); err == nil && baud != state.cfg.Serial.BaudRate {
				state.cfg.Serial.BaudRate = baud
				changed = true
			}
			saveConfig(state)
			if changed && !state.useMock {
				reconnect(state)
			}
		},
	}

	return container.NewTabItem("Serial", form)
}

// createMeasurementTab creates the Measurement tab. The firmware has its
// installation built in; these values drive the simulation and the host runner.
func createMeasurementTab(state *appState) *container.TabItem {
	m := &state.cfg.Measurement

	var names []string
	for _, t := range topology.All() {
		names = append(names, t.String())
	}
	topologySelect := widget.NewSelect(names, nil)
	topologySelect.SetSelected(m.Topology.String())

	scaleEntry := widget.NewEntry()
	scaleEntry.SetText(strconv.Itoa(m.Scale))

	distancesEntry := widget.NewEntry()
	distancesEntry.SetText(formatDistances(m.Distances))

	delayEntry := widget.NewEntry()
	delayEntry.SetText(m.InterTrainDelay.String())

	timeoutEntry := widget.NewEntry()
	timeoutEntry.SetText(m.PassageTimeout.String())

	testMode := widget.NewCheck("", nil)
	testMode.SetChecked(m.TestMode)

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Topology", Widget: topologySelect},
			{Text: "Scale (1:N)", Widget: scaleEntry},
			{Text: "Distances (mm)", Widget: distancesEntry},
			{Text: "Inter-train Delay", Widget: delayEntry},
			{Text: "Passage Timeout (0=off)", Widget: timeoutEntry},
			{Text: "Test Mode", Widget: testMode},
		},
		OnSubmit: func() {
			if t, err := topology.Parse(topologySelect.Selected); err == nil {
				m.Topology = t
			}
			if scale, err := strconv.Atoi(scaleEntry.Text); err == nil {
				m.Scale = scale
			}
			if d, err := parseDistances(distancesEntry.Text); err == nil {
				m.Distances = d
			}
			if d, err := time.ParseDuration(delayEntry.Text); err == nil {
				m.InterTrainDelay = d
			}
			if d, err := time.ParseDuration(timeoutEntry.Text); err == nil {
				m.PassageTimeout = d
			}
			m.TestMode = testMode.Checked
			saveConfig(state)
			if state.useMock {
				reconnect(state)
			}
		},
	}

	return container.NewTabItem("Measurement", form)
}

// createDisplayTab creates the Display configuration tab.
func createDisplayTab(state *appState) *container.TabItem {
	windowEntry := widget.NewEntry()
	windowEntry.SetText(state.cfg.Display.Window.String())

	averageEntry := widget.NewEntry()
	averageEntry.SetText(strconv.Itoa(state.cfg.Display.Average))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "History Window", Widget: windowEntry},
			{Text: "Average Readings (0=disabled)", Widget: averageEntry},
		},
		OnSubmit: func() {
			if w, err := time.ParseDuration(windowEntry.Text); err == nil {
				state.cfg.Display.Window = w
			}
			if n, err := strconv.Atoi(averageEntry.Text); err == nil {
				state.cfg.Display.Average = n
			}
			saveConfig(state)
			dialog.ShowInformation("Display", "Window and average apply after restart.", state.window)
		},
	}

	return container.NewTabItem("Display", form)
}

// createMockTab creates the simulated train configuration tab.
func createMockTab(state *appState) *container.TabItem {
	mock := &state.cfg.Mock

	velocityEntry := widget.NewEntry()
	velocityEntry.SetText(fmt.Sprintf("%.2f", mock.Velocity))

	accelerationEntry := widget.NewEntry()
	accelerationEntry.SetText(fmt.Sprintf("%.3f", mock.Acceleration))

	lengthEntry := widget.NewEntry()
	lengthEntry.SetText(strconv.Itoa(mock.TrainLength))

	approachEntry := widget.NewEntry()
	approachEntry.SetText(strconv.Itoa(mock.Approach))

	endBlockEntry := widget.NewEntry()
	endBlockEntry.SetText(strconv.Itoa(mock.EndBlockLength))

	periodEntry := widget.NewEntry()
	periodEntry.SetText(mock.Period.String())

	reverse := widget.NewCheck("", nil)
	reverse.SetChecked(mock.Reverse)

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Velocity (m/s)", Widget: velocityEntry},
			{Text: "Acceleration (m/s²)", Widget: accelerationEntry},
			{Text: "Train Length (mm)", Widget: lengthEntry},
			{Text: "Approach (mm)", Widget: approachEntry},
			{Text: "End Block Length (mm)", Widget: endBlockEntry},
			{Text: "Period", Widget: periodEntry},
			{Text: "Alternate Direction", Widget: reverse},
		},
		OnSubmit: func() {
			applyMock(mock, velocityEntry.Text, accelerationEntry.Text, lengthEntry.Text, approachEntry.Text, endBlockEntry.Text, periodEntry.Text)
			mock.Reverse = reverse.Checked
			saveConfig(state)
			if state.useMock {
				reconnect(state)
			}
		},
	}

	return container.NewTabItem("Mock", form)
}

func applyMock(mock *config.MockConfig, velocity, acceleration, length, approach, endBlock, period string) {
	if v, err := strconv.ParseFloat(velocity, 64); err == nil && v > 0 {
		mock.Velocity = v
	}
	if a, err := strconv.ParseFloat(acceleration, 64); err == nil {
		mock.Acceleration = a
	}
	if n, err := strconv.Atoi(length); err == nil && n > 0 {
		mock.TrainLength = n
	}
	if n, err := strconv.Atoi(approach); err == nil && n > 0 {
		mock.Approach = n
	}
	if n, err := strconv.Atoi(endBlock); err == nil && n > 0 {
		mock.EndBlockLength = n
	}
	if d, err := time.ParseDuration(period); err == nil && d > 0 {
		mock.Period = d
	}
}

func formatDistances(d []int) string {
	parts := make([]string, len(d))
	for i, v := range d {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ", ")
}

func parseDistances(s string) ([]int, error) {
	var out []int
	for _, field := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' }) {
		v, err := strconv.Atoi(field)
		if err != nil {
			return nil, fmt.Errorf("invalid distance %q: %w", field, err)
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no distances")
	}
	return out, nil
}
