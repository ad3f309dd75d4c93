// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// DeviceSpec describes one device whose traffic should be inspected.
// The vhci device id is busnum<<16|devnum.
type DeviceSpec struct {
	BusNum uint32 `json:"bus_num"`
	DevNum uint32 `json:"dev_num"`
	Speed  string `json:"speed"`
}

// initConfig defines config flags, config file, and envs
func initConfig() error {
	cfgFile := flag.String("config", "", "Path to the config file.")
	flag.String("log-level", logLevelInfo, fmt.Sprintf("Log level to use. Possible values: %s", availableLogLevels))
	flag.String("log-file", "", "Write logs to this rotating file instead of stdout.")
	flag.String("listen", ":8080", "The address at which to listen for health and metrics.")
	flag.Duration("read-timeout", 0, "Per-frame read deadline; 0 blocks indefinitely.")

	flag.Parse()
	if err := viper.BindPFlags(flag.CommandLine); err != nil {
		return fmt.Errorf("failed to bind config: %w", err)
	}

	if *cfgFile != "" {
		viper.SetConfigFile(*cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath("/etc/usbip-inspect/")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; ignore error
		} else {
			// Config file was found but another error was produced
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return nil
}

func getConfiguredDevices() ([]*DeviceSpec, error) {
	raw, ok := viper.Get("devices").([]interface{})
	if !ok {
		if viper.Get("devices") == nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to decode devices: unexpected type: %T", viper.Get("devices"))
	}

	deviceSpecs := make([]*DeviceSpec, len(raw))
	for i, def := range raw {
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:  &deviceSpecs[i],
			TagName: "json",
		})
		if err != nil {
			return nil, err
		}

		if err := decoder.Decode(def); err != nil {
			return nil, fmt.Errorf("failed to decode device data %q: %w", def, err)
		}
	}
	return deviceSpecs, nil
}
