package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-ble/ble"
	"github.com/go-ble/ble/linux"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/version"

	"github.com/alepar/airthings2mqtt/airthings"
	"github.com/alepar/airthings2mqtt/airthings/waveplus"
	"github.com/alepar/airthings2mqtt/bridge"
	"github.com/alepar/airthings2mqtt/config"
	"github.com/alepar/airthings2mqtt/gateway"
)

const appName = "airthings2mqtt"

// CLI args
var (
	configPath = flag.String("config", "", "path to the YAML config file")
	listenAddr = flag.String("listen-address", "", "the address to expose /metrics on, overrides the config file")
	logLevel   = flag.String("log-level", "", "log level (debug, info, warn, error), overrides the config file")
	serialNr   = flag.Uint("serial", 0, "serial number of the Wave Plus, overrides the config file")
	deviceAddr = flag.String("addr", "", "known BLE address of the Wave Plus, skips discovery")
)

// metrics to expose to Prometheus
var (
	gaugeHumidity    = newGauge("air_humidity", "Humidity (units: % of relative Humidity)")
	gaugeRadonShort  = newGauge("air_radon_short", "Radon Short Term estimate (units: Bq/m3)")
	gaugeRadonLong   = newGauge("air_radon_long", "Radon Long Term estimate (units: Bq/m3)")
	gaugeTemperature = newGauge("air_temperature", "Air Temperature (units: degrees Celsius)")
	gaugeAtmPressure = newGauge("air_atm_pressure", "Atmospheric Pressure (units: hPa)")
	gaugeCo2Level    = newGauge("air_co2_level", "Air Carbon Dioxide level (units: ppm)")
	gaugeVocLevel    = newGauge("air_voc_level", "Air Volatile Organic Compounds level (units: ppb)")
)

func newGauge(name string, help string) *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: name,
			Help: help,
		},
		[]string{"serial_number"},
	)
}

func init() {
	prometheus.MustRegister(gaugeHumidity)
	prometheus.MustRegister(gaugeRadonShort)
	prometheus.MustRegister(gaugeRadonLong)
	prometheus.MustRegister(gaugeTemperature)
	prometheus.MustRegister(gaugeAtmPressure)
	prometheus.MustRegister(gaugeCo2Level)
	prometheus.MustRegister(gaugeVocLevel)
	prometheus.MustRegister(gateway.Collectors()...)
	prometheus.MustRegister(version.NewCollector(appName))

	//logging
	formatter := &log.TextFormatter{
		FullTimestamp: true,
	}
	log.SetFormatter(formatter)
	log.SetOutput(os.Stderr)
}

func main() {
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("config error: %s", err)
	}

	level, err := log.ParseLevel(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("config error: %s", err)
	}
	log.SetLevel(level)
	log.Infof("starting %s %s", appName, version.Info())

	// open BLE
	d, err := linux.NewDevice(ble.OptDeviceID(cfg.Device.HCI))
	if err != nil {
		log.Fatalf("failed to open ble: %s", err)
	}
	ble.SetDefaultDevice(d)
	defer ble.Stop()

	if cfg.Metrics.ListenAddress != "" {
		go func() {
			// Expose the registered metrics via HTTP.
			http.Handle("/metrics", promhttp.HandlerFor(
				prometheus.DefaultGatherer,
				promhttp.HandlerOpts{
					// Opt into OpenMetrics to support exemplars.
					EnableOpenMetrics: true,
				},
			))
			log.Panic(http.ListenAndServe(cfg.Metrics.ListenAddress, nil))
		}()
	}

	identity := &airthings.DeviceIdentity{
		SerialNumber: cfg.Device.SerialNumber,
		Address:      cfg.Device.Address,
	}
	radio := &waveplus.GoBleRadio{ConnectTimeout: cfg.Device.ConnectTimeout()}
	sensor := &waveplus.BleSensor{
		Radio: radio,
		Locator: &waveplus.BleScanner{
			Radio:      radio,
			ScanWindow: cfg.Device.ScanWindow(),
			Rounds:     cfg.Device.ScanRounds,
		},
		Identity:   identity,
		Retries:    cfg.Device.ReadRetries,
		RetryDelay: cfg.Device.ConnectTimeout(),
	}

	gw := gateway.New(gateway.Config{
		Options: gateway.Options{
			Host:     cfg.MQTT.Host,
			Port:     cfg.MQTT.Port,
			ClientID: cfg.MQTT.ClientID,
			Username: cfg.MQTT.Username,
			Password: cfg.MQTT.Password,
		},
		Topic:         cfg.MQTT.Topic,
		RetryInterval: cfg.MQTT.RetryInterval(),
	}, gateway.PahoTransport{})
	defer gw.Close()

	loop := &bridge.Loop{
		Sensor:    sensor,
		Publisher: gw,
		Interval:  cfg.Poll.Interval(),
		OnReading: func(values airthings.SensorValues) {
			updateGauges(identity, values)
		},
	}
	if cfg.Poll.Stdout {
		loop.Echo = os.Stdout
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Errorf("%s, terminating", err)
		gw.Close()
		_ = ble.Stop()
		os.Exit(1)
	}
	log.Infof("shutting down")
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return config.Config{}, err
	}
	if *listenAddr != "" {
		cfg.Metrics.ListenAddress = *listenAddr
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *serialNr != 0 {
		cfg.Device.SerialNumber = uint32(*serialNr)
	}
	if *deviceAddr != "" {
		cfg.Device.Address = *deviceAddr
	}
	return cfg, cfg.Validate()
}

func updateGauges(identity *airthings.DeviceIdentity, values airthings.SensorValues) {
	serialNr := identity.Label()
	gaugeHumidity.WithLabelValues(serialNr).Set(values.Humidity)
	gaugeTemperature.WithLabelValues(serialNr).Set(values.Temperature)
	gaugeAtmPressure.WithLabelValues(serialNr).Set(values.AtmPressure)
	gaugeCo2Level.WithLabelValues(serialNr).Set(values.Co2Level)
	gaugeVocLevel.WithLabelValues(serialNr).Set(values.VocLevel)

	// leave radon gauges stale rather than report the device's placeholder
	if airthings.RadonValid(values.RadonShort) {
		gaugeRadonShort.WithLabelValues(serialNr).Set(float64(values.RadonShort))
	}
	if airthings.RadonValid(values.RadonLong) {
		gaugeRadonLong.WithLabelValues(serialNr).Set(float64(values.RadonLong))
	}
}
