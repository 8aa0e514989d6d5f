package main

import (
	"errors"
	"os"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/pthm/sqlprovision/internal/cli"
)

// promptRun asks for the run settings that neither flags nor configuration
// provided.
func promptRun(c *cli.Config) error {
	if !isTerminal(os.Stdin) {
		return cli.ConfigError("--interactive needs a terminal", nil)
	}

	var fields []huh.Field
	if c.Client == "" {
		fields = append(fields, huh.NewInput().
			Title("Client short name").
			Value(&c.Client).
			Validate(required("client")))
	}
	if c.Server == "" {
		fields = append(fields, huh.NewSelect[string]().
			Title("Target server").
			Options(huh.NewOptions("PRD", "TST", "STG")...).
			Value(&c.Server))
	}
	if c.Metadata.Source == cli.SourceDatabase && c.Metadata.WarehouseURL == "" {
		fields = append(fields, huh.NewInput().
			Title("Warehouse database URL").
			Value(&c.Metadata.WarehouseURL).
			Validate(required("warehouse URL")))
	}
	fields = append(fields, huh.NewSelect[string]().
		Title("Warehouse").
		Options(huh.NewOptions("both", "1", "2")...).
		Value(&c.Warehouse))

	err := huh.NewForm(huh.NewGroup(fields...)).Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return cli.GeneralError("aborted", nil)
	}
	return err
}

func required(what string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New(what + " is required")
		}
		return nil
	}
}
