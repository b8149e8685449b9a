//go:build !tinygo

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"quill/app"
	"quill/firmware/config"
	"quill/hal"
)

func main() {
	var hcfg hal.HeadlessConfig
	var policyPath, keymapPath string
	flag.BoolVar(&hcfg.Enabled, "headless", false, "Run without a window.")
	flag.IntVar(&hcfg.Hz, "hz", 1000, "Tick rate in headless mode.")
	flag.Uint64Var(&hcfg.Ticks, "ticks", 0, "Stop after N ticks in headless mode (0 = run forever).")
	flag.StringVar(&policyPath, "policy", "", "Timing policy YAML file.")
	flag.StringVar(&keymapPath, "keymap", "", "Keymap YAML file.")
	flag.Parse()

	cfg, err := loadConfig(policyPath, keymapPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if hcfg.Enabled {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		if err := hal.RunHeadless(ctx, func(h hal.HAL) func() error {
			return app.NewWithConfig(h, cfg)
		}, hcfg); err != nil {
			if err == context.Canceled {
				return
			}
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	if err := hal.RunWindow(func(h hal.HAL) func() error {
		return app.NewWithConfig(h, cfg)
	}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(policyPath, keymapPath string) (app.Config, error) {
	var cfg app.Config
	if policyPath != "" {
		data, err := os.ReadFile(policyPath)
		if err != nil {
			return cfg, fmt.Errorf("policy: %w", err)
		}
		cfg.Policy, err = config.ParsePolicy(data)
		if err != nil {
			return cfg, fmt.Errorf("policy %s: %w", policyPath, err)
		}
	}
	if keymapPath != "" {
		data, err := os.ReadFile(keymapPath)
		if err != nil {
			return cfg, fmt.Errorf("keymap: %w", err)
		}
		cfg.Keymap, cfg.Macros, err = config.ParseKeymap(data)
		if err != nil {
			return cfg, fmt.Errorf("keymap %s: %w", keymapPath, err)
		}
	}
	return cfg, nil
}
