// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/efficientgo/core/errors"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/usbip-tools/usbip-inspect/driver"
	"github.com/usbip-tools/usbip-inspect/usbip"
)

const (
	logLevelAll   = "all"
	logLevelDebug = "debug"
	logLevelInfo  = "info"
	logLevelWarn  = "warn"
	logLevelError = "error"
	logLevelNone  = "none"
)

var (
	availableLogLevels = strings.Join([]string{
		logLevelAll,
		logLevelDebug,
		logLevelInfo,
		logLevelWarn,
		logLevelError,
		logLevelNone,
	}, ", ")
)

// Main is the principal function for the binary, wrapped only by `main` for convenience.
func Main() error {
	if err := initConfig(); err != nil {
		return err
	}

	deviceSpecs, err := getConfiguredDevices()
	if err != nil {
		return err
	}
	if len(deviceSpecs) == 0 {
		return fmt.Errorf("at least one device must be specified")
	}

	var logWriter io.Writer = os.Stdout
	if logFile := viper.GetString("log-file"); logFile != "" {
		logWriter = &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    50, // megabytes
			MaxBackups: 3,
		}
	}
	logger := log.NewJSONLogger(log.NewSyncWriter(logWriter))
	logLevel := viper.GetString("log-level")
	switch logLevel {
	case logLevelAll:
		logger = level.NewFilter(logger, level.AllowAll())
	case logLevelDebug:
		logger = level.NewFilter(logger, level.AllowDebug())
	case logLevelInfo:
		logger = level.NewFilter(logger, level.AllowInfo())
	case logLevelWarn:
		logger = level.NewFilter(logger, level.AllowWarn())
	case logLevelError:
		logger = level.NewFilter(logger, level.AllowError())
	case logLevelNone:
		logger = level.NewFilter(logger, level.AllowNone())
	default:
		return fmt.Errorf("log level %v unknown; possible values are: %s", logLevel, availableLogLevels)
	}
	logger = log.With(logger, "ts", log.DefaultTimestampUTC)
	logger = log.With(logger, "caller", log.DefaultCaller)

	r := prometheus.NewRegistry()
	r.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	var g run.Group
	{
		// Run the HTTP server.
		mux := http.NewServeMux()
		mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		mux.Handle("/metrics", promhttp.HandlerFor(r, promhttp.HandlerOpts{}))
		listen := viper.GetString("listen")
		l, err := net.Listen("tcp", listen)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %v", listen, err)
		}

		g.Add(func() error {
			if err := http.Serve(l, mux); err != nil && err != http.ErrServerClosed {
				return fmt.Errorf("server exited unexpectedly: %v", err)
			}
			return nil
		}, func(error) {
			_ = l.Close()
		})
	}

	{
		// Exit gracefully on SIGINT and SIGTERM.
		term := make(chan os.Signal, 1)
		signal.Notify(term, syscall.SIGINT, syscall.SIGTERM)
		cancel := make(chan struct{})
		g.Add(func() error {
			for {
				select {
				case <-term:
					_ = logger.Log("msg", "caught interrupt; gracefully cleaning up; see you next time!")
					return nil
				case <-cancel:
					return nil
				}
			}
		}, func(error) {
			close(cancel)
		})
	}

	vhci, err := driver.NewSysfsVHCIDriver(os.DirFS(driver.Sys), logger)
	if err != nil {
		return errors.Wrap(err, "failed to set up VHCI driver")
	}

	readTimeout := viper.GetDuration("read-timeout")
	for _, spec := range deviceSpecs {
		speed, err := driver.ParseSpeed(spec.Speed)
		if err != nil {
			return errors.Wrapf(err, "invalid device spec %d-%d", spec.BusNum, spec.DevNum)
		}
		deviceId := spec.BusNum<<16 | spec.DevNum

		local, kernel, err := usbip.Socketpair()
		if err != nil {
			return errors.Wrapf(err, "failed to create transport for device %d", deviceId)
		}
		port, err := vhci.AttachDevice(kernel, deviceId, speed)
		_ = kernel.Close()
		if err != nil {
			_ = local.Close()
			return errors.Wrapf(err, "failed to attach device %d", deviceId)
		}

		source := usbip.NewDatagramSource(local, readTimeout)
		deviceLogger := log.With(logger, "devid", deviceId, "port", port)
		m := newMonitor(
			source, os.Stderr, deviceLogger,
			prometheus.WrapRegistererWith(prometheus.Labels{"port": fmt.Sprintf("%d", port)}, r),
		)

		ctx, cancel := context.WithCancel(context.Background())
		g.Add(func() error {
			_ = deviceLogger.Log("msg", "monitoring USB/IP traffic")
			return m.Run(ctx)
		}, func(error) {
			cancel()
			_ = source.Close()
			if err := vhci.DetachDevice(port); err != nil {
				_ = level.Warn(deviceLogger).Log("msg", "failed to detach device", "err", err)
			}
		})
	}

	return g.Run()
}

func main() {
	if err := Main(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Execution failed: %v\n", err)
		os.Exit(1)
	}
}
