package main

import (
	"flag"
	"fmt"
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/trainspeed/pkg/config"
	"github.com/itohio/trainspeed/pkg/device"
	"github.com/itohio/trainspeed/pkg/gauge"
	"github.com/itohio/trainspeed/pkg/history"
)

func main() {
	var (
		portFlag   = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyACM0)")
		configFlag = flag.String("config", "config.yaml", "Configuration file path")
		mockFlag   = flag.Bool("mock", false, "Use simulated trains instead of serial port")
		kmhFlag    = flag.Bool("kmh", false, "Show km/h instead of mph (overrides config)")
	)
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}
	if *kmhFlag {
		cfg.Display.Mph = false
	}

	application := app.NewWithID("com.itohio.trainspeed")

	window := application.NewWindow("Train Speed")
	window.Resize(fyne.NewSize(900, 600))
	window.CenterOnScreen()

	state := &appState{
		cfg:        cfg,
		configPath: *configFlag,
		history:    history.New(cfg.Display),
		window:     window,
		useMock:    *mockFlag,
	}

	state.gauge = gauge.New(&cfg.Display)
	state.history.OnUpdate(state.onUpdate)

	content := container.NewBorder(
		createToolbar(state),
		nil,
		nil,
		nil,
		state.gauge,
	)

	window.SetContent(content)
	window.SetOnClosed(func() {
		closeChain(state.chain)
	})
	window.ShowAndRun()
}

// chain tracks the device and the goroutine draining it.
type chain struct {
	device  device.Device
	drained chan struct{} // Closed when history stops consuming events
}

// appState holds the application state.
type appState struct {
	cfg        *config.Config
	configPath string
	device     device.Device
	history    *history.History
	gauge      *gauge.Gauge
	window     fyne.Window
	connectBtn *widget.Button
	useMock    bool
	chain      *chain
}

// createToolbar creates the toolbar with Connect, Settings and Clear buttons.
func createToolbar(state *appState) fyne.CanvasObject {
	connectBtn := widget.NewButtonWithIcon("", theme.LoginIcon(), func() {
		handleConnect(state)
	})
	state.connectBtn = connectBtn

	settingsBtn := widget.NewButtonWithIcon("", theme.SettingsIcon(), func() {
		showSettingsDialog(state)
	})

	clearBtn := widget.NewButtonWithIcon("", theme.DeleteIcon(), func() {
		state.history.Clear()
	})

	units := widget.NewCheck("mph", func(on bool) {
		state.cfg.Display.Mph = on
		state.history.SetMph(on)
	})
	units.SetChecked(state.cfg.Display.Mph)

	return container.NewBorder(
		nil,
		nil,
		container.NewHBox(connectBtn, settingsBtn, clearBtn),
		units,
		nil,
	)
}

// onUpdate forwards history updates to the gauge on the main thread. Events
// arrive a few per passage, so no throttling is needed.
func (state *appState) onUpdate(snap history.Snapshot) {
	fyne.Do(func() {
		state.gauge.UpdateData(snap)
	})
}

// closeChain closes the device and waits for the history to drain its events.
func closeChain(c *chain) {
	if c == nil {
		return
	}
	if c.device != nil {
		if err := c.device.Close(); err != nil {
			log.Printf("Error closing device: %v", err)
		}
	}
	if c.drained != nil {
		<-c.drained
	}
}

// handleConnect handles the connect/disconnect button click.
func handleConnect(state *appState) {
	if state.device != nil && state.device.IsConnected() {
		closeChain(state.chain)
		state.chain = nil
		state.device = nil
		state.connectBtn.Importance = widget.MediumImportance
		state.connectBtn.Refresh()
		log.Printf("Disconnected")
		return
	}

	var dev device.Device
	if state.useMock {
		dev = device.NewMock(state.cfg)
		log.Printf("Using simulated trains")
	} else {
		dev = device.New(state.cfg.Serial.Port, state.cfg.Serial.BaudRate, device.DefaultBufferSize)
	}

	if err := dev.Connect(); err != nil {
		if state.useMock {
			dialog.ShowError(fmt.Errorf("failed to start simulation: %w", err), state.window)
		} else {
			dialog.ShowError(fmt.Errorf("failed to connect to %s: %w", state.cfg.Serial.Port, err), state.window)
		}
		return
	}
	state.device = dev
	if !state.useMock {
		log.Printf("Connected to serial port: %s", state.cfg.Serial.Port)
	}
	state.connectBtn.Importance = widget.HighImportance
	state.connectBtn.Refresh()

	state.history.ResetShutdown()

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		state.history.ProcessEvents(dev.Events())
	}()

	state.chain = &chain{
		device:  dev,
		drained: drained,
	}
}
