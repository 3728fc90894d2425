package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/persistorai/mindmap/client"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose configuration and connectivity",
		Long:  "Run diagnostic checks against the config file, the server and its dependencies",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd.Context())
		},
	}
}

type checkResult struct {
	Name   string
	Passed bool
	Detail string
	Hint   string
}

func runDoctor(ctx context.Context) error {
	fmt.Println()
	fmt.Println(brand.Sprint("mindmap doctor"))
	fmt.Println(subtle.Sprint("=============="))

	results := doctorChecks(ctx)

	fmt.Println()
	allPassed := true
	for _, r := range results {
		mark := good.Sprint("✓")
		if !r.Passed {
			mark = bad.Sprint("✗")
			allPassed = false
		}
		if r.Detail != "" {
			fmt.Printf("%s %s: %s\n", mark, r.Name, r.Detail)
		} else {
			fmt.Printf("%s %s\n", mark, r.Name)
		}
		if !r.Passed && r.Hint != "" {
			fmt.Printf("   Hint: %s\n", r.Hint)
		}
	}

	fmt.Println()
	if !allPassed {
		fmt.Println(bad.Sprint("Some checks failed."))
		return fmt.Errorf("doctor found issues")
	}
	fmt.Println(good.Sprint("All checks passed!"))

	return nil
}

func doctorChecks(ctx context.Context) []checkResult {
	var results []checkResult

	// 1. Config file (optional).
	cfgPath, _, cfgErr := loadConfig()
	switch {
	case cfgErr == nil:
		results = append(results, checkResult{Name: "Config file", Passed: true, Detail: cfgPath})
	case os.IsNotExist(cfgErr):
		results = append(results, checkResult{Name: "Config file", Passed: true, Detail: "not present, using flags and env"})
	default:
		results = append(results, checkResult{Name: "Config file", Passed: false, Detail: cfgPath, Hint: fmt.Sprintf("Fix or recreate it with: mindmap init\n   Error: %v", cfgErr)})
	}

	// 2. Server reachable.
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	c := client.New(flagURL)

	health, err := c.Health(ctx)
	if err != nil {
		results = append(results, checkResult{
			Name: "Server reachable", Passed: false, Detail: flagURL,
			Hint: fmt.Sprintf("Is mindmap-server running? Set --url or MINDMAP_URL.\n   Error: %v", err),
		})
		return results
	}
	results = append(results, checkResult{
		Name: "Server reachable", Passed: true,
		Detail: fmt.Sprintf("v%s, schema %d, up %s", health.Version, health.SchemaVersion, uptime(health.UptimeSeconds)),
	})

	// 3. Generator and its circuit breaker.
	results = append(results, checkResult{
		Name:   "Generator",
		Passed: health.Breaker != "open",
		Detail: fmt.Sprintf("%s (breaker %s)", health.Generator, orDash(health.Breaker)),
		Hint:   "Recent generation calls failed; the server retries the backend after 30s",
	})

	// 4. Readiness of each dependency.
	ready, err := c.Ready(ctx)
	if ready == nil {
		results = append(results, checkResult{Name: "Readiness", Passed: false, Hint: fmt.Sprintf("Error: %v", err)})
		return results
	}

	names := make([]string, 0, len(ready.Checks))
	for name := range ready.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		state := ready.Checks[name]
		results = append(results, checkResult{
			Name:   "Ready: " + name,
			Passed: state == "ok" || state == "degraded" || state == "not_configured",
			Detail: state,
		})
	}

	return results
}

func uptime(seconds float64) string {
	return humanize.RelTime(time.Now().Add(-time.Duration(seconds*float64(time.Second))), time.Now(), "", "")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
