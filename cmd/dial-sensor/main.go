// Command dial-sensor reads a multi-position analog dial through an MCP3008
// and publishes position changes to MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/sweeney/dial-sensor/internal/adc"
	"github.com/sweeney/dial-sensor/internal/dial"
	"github.com/sweeney/dial-sensor/internal/metrics"
	"github.com/sweeney/dial-sensor/internal/mqtt"
	"github.com/sweeney/dial-sensor/internal/status"
	"github.com/sweeney/dial-sensor/internal/web"
)

func main() {
	// Optional .env beside the binary; flags still win.
	_ = godotenv.Load()

	poll := flag.Duration("poll", 50*time.Millisecond, "ADC polling interval")
	positions := flag.Int("positions", 4, "Number of dial positions")
	deadzone := flag.Float64("deadzone", 0.2, "Deadzone fraction between positions (0 - 1.0)")
	labels := flag.String("labels", envOr("DIAL_LABELS", ""), "Comma-separated position names (optional)")
	broker := flag.String("broker", envOr("DIAL_BROKER", "tcp://192.168.1.200:1883"), "MQTT broker address")
	heartbeat := flag.Duration("heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	channel := flag.Int("channel", adc.DefaultChannel, "MCP3008 input channel (0-7)")
	pinCLK := flag.Int("pin-clk", adc.DefaultPinCLK, "BCM pin number for SPI clock")
	pinMOSI := flag.Int("pin-mosi", adc.DefaultPinMOSI, "BCM pin number for MCP3008 DIN")
	pinMISO := flag.Int("pin-miso", adc.DefaultPinMISO, "BCM pin number for MCP3008 DOUT")
	pinCS := flag.Int("pin-cs", adc.DefaultPinCS, "BCM pin number for chip select")
	printPosition := flag.Bool("print-position", false, "Print current position and exit")
	httpAddr := flag.String("http", envOr("DIAL_HTTP", ":80"), "HTTP status address (empty to disable)")
	wsBroker := flag.String("ws-broker", "=broker", `MQTT websocket URL for live UI ("=broker" derives from --broker, "off" disables)`)

	flag.Parse()

	ws := resolveWSBroker(*wsBroker, *broker)
	cfg := daemonConfig{
		poll:      *poll,
		positions: *positions,
		deadzone:  *deadzone,
		labels:    parseLabels(*labels),
		broker:    *broker,
		heartbeat: *heartbeat,
		channel:   *channel,
		pins:      [4]int{*pinCLK, *pinMOSI, *pinMISO, *pinCS},
		httpAddr:  *httpAddr,
		wsBroker:  ws,
	}

	if err := run(cfg, *printPosition); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

type daemonConfig struct {
	poll      time.Duration
	positions int
	deadzone  float64
	labels    []string
	broker    string
	heartbeat time.Duration
	channel   int
	pins      [4]int // CLK, MOSI, MISO, CS
	httpAddr  string
	wsBroker  string
}

func run(cfg daemonConfig, printPosition bool) error {
	// Initialize the converter
	reader, err := adc.NewRealReader(cfg.pins[0], cfg.pins[1], cfg.pins[2], cfg.pins[3], cfg.channel)
	if err != nil {
		return fmt.Errorf("init adc: %w", err)
	}
	defer reader.Close()

	d := dial.New(reader, cfg.positions)
	d.SetDeadzone(cfg.deadzone)

	// Print position mode
	if printPosition {
		if err := d.Init(); err != nil {
			return fmt.Errorf("read dial: %w", err)
		}
		pos := d.Current()
		if label := positionLabel(cfg.labels, pos); label != "" {
			fmt.Printf("position: %d (%s)\n", pos, label)
		} else {
			fmt.Printf("position: %d\n", pos)
		}
		return nil
	}

	// Initialize MQTT
	publisher, err := mqtt.NewRealPublisher(cfg.broker)
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:      cfg.poll.Milliseconds(),
		HeartbeatMs: cfg.heartbeat.Milliseconds(),
		Positions:   d.Positions(),
		Deadzone:    cfg.deadzone,
		Labels:      cfg.labels,
		Broker:      cfg.broker,
		HTTPAddr:    cfg.httpAddr,
		WSBroker:    cfg.wsBroker,
	})
	tracker.SetZones(d.Zones())
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	// Start HTTP status server
	if cfg.httpAddr != "" {
		srv := web.New(cfg.httpAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.httpAddr)
	}

	log.Printf("started: poll=%v positions=%d deadzone=%.2f broker=%s heartbeat=%v",
		cfg.poll, d.Positions(), cfg.deadzone, cfg.broker, cfg.heartbeat)

	ticker := time.NewTicker(cfg.poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(d, publisher, publisher, tracker, cfg.heartbeat, time.Now, ticker.C, sigCh)
}

func runLoop(d *dial.Dial, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	// Prime the filter so the first tick compares against the physical
	// dial, not the bottom of the range.
	primed, err := d.Sample()
	if err != nil {
		return fmt.Errorf("prime dial: %w", err)
	}
	last := primed.Position
	cfg := tracker.Snapshot().Config

	tracker.SetReady(true)
	tracker.Update(primed.Position, primed.Reading)
	log.Printf("primed: position=%d (reading=%d)", primed.Position, primed.Reading)

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if mqttStatus != nil {
				tracker.SetMQTTConnected(mqttStatus.IsConnected())
			}
			event.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), "SHUTDOWN", signalName)
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case <-tick:
			t := now()
			sample, err := d.Sample()
			if err != nil {
				log.Printf("adc read error: %v", err)
				metrics.RecordReadError()
				continue
			}

			if sample.Position != last {
				up := sample.Position > last
				event := dial.Event{
					Timestamp: t,
					Position:  sample.Position,
					Previous:  last,
					Label:     cfg.Label(sample.Position),
					Reading:   sample.Reading,
				}
				log.Printf("position: %d -> %d (reading=%d)", last, sample.Position, sample.Reading)
				if err := publisher.Publish(event); err != nil {
					log.Printf("publish error: %v", err)
					metrics.RecordPublishError()
					// Don't crash on publish failure
				}
				tracker.RecordChange(up)
				metrics.RecordChange(up)
				last = sample.Position
			}

			tracker.Update(sample.Position, sample.Reading)
			metrics.ObserveSample(sample.Position, sample.Reading)
			if mqttStatus != nil {
				connected := mqttStatus.IsConnected()
				tracker.SetMQTTConnected(connected)
				metrics.SetMQTTConnected(connected)
			}

			// Check for heartbeat
			if hbData := tracker.CheckHeartbeat(t, heartbeat); hbData != nil {
				log.Printf("heartbeat: uptime=%v up=%d down=%d",
					hbData.Uptime, hbData.Counts.Up, hbData.Counts.Down)

				// Refresh network info for heartbeat
				if net := readNetworkInfo(); net != nil {
					tracker.SetNetwork(net)
				}

				hbEvent := mqtt.SystemEvent{
					Timestamp:  hbData.Timestamp,
					Event:      "HEARTBEAT",
					RawPayload: status.FormatStatusEvent(tracker.Snapshot(), "HEARTBEAT", ""),
				}
				if err := publisher.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}
		}
	}
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}

// envOr returns the environment value for key, or fallback when unset.
// Used for flag defaults so a .env file can carry site config.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// parseLabels splits a comma-separated label list, trimming whitespace.
func parseLabels(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func positionLabel(labels []string, pos int) string {
	if pos < 0 || pos >= len(labels) {
		return ""
	}
	return labels[pos]
}

// resolveWSBroker converts the --ws-broker flag value into a concrete URL.
// "=broker" derives ws://host:9001 from the TCP broker address; "off" disables.
func resolveWSBroker(ws, broker string) string {
	if ws == "off" {
		return ""
	}
	if ws != "=broker" {
		return ws
	}
	u, err := url.Parse(broker)
	if err != nil {
		log.Printf("ws-broker: cannot parse --broker %q: %v", broker, err)
		return ""
	}
	u.Scheme = "ws"
	u.Host = u.Hostname() + ":9001"
	return u.String()
}
