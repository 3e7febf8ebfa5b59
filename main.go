package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/nickysemenza/gola"
	"k8s.io/utils/clock"

	"github.com/robmorgan/glow/config"
	"github.com/robmorgan/glow/connection"
	"github.com/robmorgan/glow/fixture"
	"github.com/robmorgan/glow/logger"
	"github.com/robmorgan/glow/pca9685"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "glow.yaml", "path to the configuration file")
	flag.StringVar(&configPath, "c", "glow.yaml", "path to the configuration file (shorthand)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := Run(ctx, cfg); err != nil {
		logger.GetProjectLogger().Fatalf("glow stopped: %v", err)
	}
}

// Run wires the outputs, connections and fixtures of cfg together and blocks
// until ctx is cancelled.
func Run(ctx context.Context, cfg *config.Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger.SetLevel(cfg.Log.Level)
	log := logger.GetProjectLogger()

	wg := sync.WaitGroup{}

	log.Info("Initializing outputs...")
	outputs, err := openOutputs(ctx, cfg, &wg)
	defer func() {
		for name, out := range outputs {
			if err := out.Close(); err != nil {
				log.WithField("output", name).Errorf("closing output failed: %v", err)
			}
		}
	}()
	if err != nil {
		return err
	}

	log.Info("Initializing connections...")
	conns := openConnections(cfg)
	defer func() {
		for _, conn := range conns {
			if err := conn.Close(); err != nil {
				log.WithField("connection", conn.Name()).Errorf("closing connection failed: %v", err)
			}
		}
	}()

	log.Info("Patching fixtures...")
	fixtures, err := PatchFixtures(cfg, outputs, conns, clock.RealClock{})
	if err != nil {
		return err
	}
	defer func() {
		if err := fixtures.Stop(); err != nil {
			log.Errorf("stopping fixtures failed: %v", err)
		}
	}()

	for _, conn := range conns {
		if err := conn.Start(ctx); err != nil {
			return err
		}
	}
	log.Infof("glow running with %d fixture(s)", fixtures.Count())

	<-ctx.Done()
	log.Println("shutting down glow")
	cancel()
	wg.Wait()
	return nil
}

// openOutputs opens every configured output. Outputs opened before an error
// are returned so they can be closed.
func openOutputs(ctx context.Context, cfg *config.Config, wg *sync.WaitGroup) (map[string]fixture.Output, error) {
	log := logger.GetProjectLogger()
	outputs := make(map[string]fixture.Output, len(cfg.Outputs))
	universes := make(map[string]*fixture.DMXState)

	for name, oc := range cfg.Outputs {
		switch oc.Type {
		case config.OutputPCA9685:
			bus, err := pca9685.OpenBus(oc.Bus)
			if err != nil {
				return outputs, err
			}
			dev, err := pca9685.New(bus, oc.Stack)
			if err == nil {
				err = dev.Configure(oc.Frequency)
			}
			if err != nil {
				_ = bus.Close()
				return outputs, fmt.Errorf("output %s: %w", name, err)
			}
			log.WithField("output", name).Infof("PCA9685 at 0x%02x on %s, %d Hz", dev.Address, oc.Bus, oc.Frequency)
			outputs[name] = fixture.NewPWMOutput(name, dev, bus)

		case config.OutputOLA:
			// one sender per OLA daemon covers all of its universes
			state, ok := universes[oc.URL]
			if !ok {
				log.Infof("Connecting to OLA at %s...", oc.URL)
				client, err := gola.New(oc.URL)
				if err != nil {
					return outputs, fmt.Errorf("output %s: could not connect to OLA: %w", name, err)
				}
				state = fixture.NewDMXState()
				universes[oc.URL] = state
				wg.Add(1)
				go fixture.SendDMXWorker(ctx, client, oc.Tick.Duration(), clock.RealClock{}, state, wg)
			}
			outputs[name] = fixture.NewDMXOutput(name, oc.Universe, state)

		case config.OutputLog:
			outputs[name] = fixture.NewLogOutput(name)
		}
	}
	return outputs, nil
}

func openConnections(cfg *config.Config) []connection.Connection {
	var conns []connection.Connection
	if local := cfg.Connections.Local; local != nil {
		conns = append(conns, connection.NewLocal(local.Name))
	}
	if osc := cfg.Connections.OSC; osc != nil {
		conns = append(conns, connection.NewOSC(osc.Name, osc.Listen, osc.PublishHost, osc.PublishPort))
	}
	return conns
}
