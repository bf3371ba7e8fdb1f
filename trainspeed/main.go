// Command trainspeed times trains on a host with GPIO, e.g. a Raspberry Pi,
// and prints the same lines the firmware sends over its UART.
package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/itohio/trainspeed/pkg/config"
	"github.com/itohio/trainspeed/pkg/detector"
	"github.com/itohio/trainspeed/pkg/device"
	"github.com/itohio/trainspeed/pkg/report"
	"github.com/itohio/trainspeed/pkg/timing"
	"golang.org/x/sync/errgroup"
)

// 100µs resolves 1mm at 10 m/s, well past any model train.
const gpioPollInterval = 100 * time.Microsecond

func main() {
	var (
		configFlag = flag.String("config", "config.yaml", "Configuration file path")
		portFlag   = flag.String("p", "", "Also write report lines to this serial port (e.g., /dev/ttyGS0)")
		mockFlag   = flag.Bool("mock", false, "Use simulated trains instead of GPIO detectors")
		testFlag   = flag.Bool("test", false, "Report detector changes instead of timing trains")
		verbose    = flag.Bool("v", false, "Log status, countdown and passage progress")
	)
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *testFlag {
		cfg.Measurement.TestMode = true
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	array, err := openDetectors(cfg, *mockFlag)
	if err != nil {
		log.Fatalf("Failed to open detectors: %v", err)
	}

	var out io.Writer = os.Stdout
	if *portFlag != "" {
		port, err := device.Open(*portFlag, cfg.Serial.BaudRate)
		if err != nil {
			log.Fatalf("Failed to open %s: %v", *portFlag, err)
		}
		defer port.Close()
		out = io.MultiWriter(os.Stdout, port)
		log.Printf("Mirroring reports to %s", *portFlag)
	}

	reporter := timing.Multi{
		report.NewSerial(out),
		&timing.LogReporter{Verbose: *verbose},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	poll := gpioPollInterval
	if *mockFlag {
		poll = cfg.Mock.PollRate
	}

	g, ctx := errgroup.WithContext(ctx)
	if cfg.Measurement.TestMode {
		test := timing.NewSelfTest(array, reporter, poll)
		g.Go(func() error {
			return test.Run(ctx)
		})
	} else {
		m, err := timing.New(cfg.Measurement, array, timing.SystemClock{}, reporter)
		if err != nil {
			log.Fatalf("Failed to create timing machine: %v", err)
		}
		m.SetPollInterval(poll)
		if *verbose {
			m.OnTransition(func(from, to timing.State) {
				log.Printf("State: %s -> %s", from, to)
			})
		}
		g.Go(func() error {
			return m.Run(ctx)
		})
		defer func() {
			log.Printf("Timed %d trains, abandoned %d passages", m.Results(), m.Abandoned())
		}()
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("Stopped: %v", err)
	}
}

// openDetectors returns the GPIO detectors from the configuration, or a
// simulated train when mock is set.
func openDetectors(cfg *config.Config, mock bool) (detector.Array, error) {
	if mock {
		log.Printf("Using simulated trains")
		return detector.NewSim(cfg.Measurement, cfg.Mock, time.Now().Add(cfg.Measurement.InterTrainDelay), nil), nil
	}
	if len(cfg.Detectors.Pins) == 0 {
		return nil, errors.New("no detector pins configured")
	}
	return detector.OpenGPIO(cfg.Detectors.Pins, cfg.Detectors.ActiveLow)
}
