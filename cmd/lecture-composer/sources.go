// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rkaplan/lecture-composer/internal/research"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Inspect and authenticate research sources",
}

var sourcesHealthCmd = &cobra.Command{
	Use:   "health",
	Short: "Report source configuration and sidecar session state",
	Long: `Health reports which API keys are configured and probes the institutional
scraper sidecar for reachability, browser availability, and per-target
login state.`,
	RunE: runSourcesHealth,
}

func runSourcesHealth(cmd *cobra.Command, args []string) error {
	cfg := researchConfig()

	configured := func(v string) string {
		if v != "" {
			return "configured"
		}
		return "missing"
	}
	fmt.Printf("evidence  (perplexity): api key %s\n", configured(cfg.PerplexityAPIKey))
	fmt.Printf("guideline (tavily):     api key %s\n", configured(cfg.TavilyAPIKey))
	fmt.Printf("pubmed    (ncbi):       no key required\n")

	scraper := research.NewScraperClient(cfg)
	status := scraper.Health(context.Background())
	fmt.Printf("scraper sidecar %s: reachable=%v browser=%v\n",
		scraper.BaseURL, status.Reachable, status.BrowserAvailable)
	for _, target := range []research.Target{research.TargetUpToDate, research.TargetMKSAP} {
		fmt.Printf("  %-8s logged_in=%v\n", target, status.LoggedIn[target])
	}
	return nil
}

var sourcesLoginCmd = &cobra.Command{
	Use:   "login [target]",
	Short: "Log in to an institutional source through the sidecar",
	Long: `Login exchanges credentials for a sidecar browser session on uptodate or
mksap. Credentials come from flags, falling back to .secrets/ files and
config. Bad credentials are reported without an error exit.`,
	Args: cobra.ExactArgs(1),
	RunE: runSourcesLogin,
}

func runSourcesLogin(cmd *cobra.Command, args []string) error {
	target := research.Target(args[0])
	if target != research.TargetUpToDate && target != research.TargetMKSAP {
		return fmt.Errorf("unknown target %q (known: uptodate, mksap)", args[0])
	}

	username, _ := cmd.Flags().GetString("username")
	password, _ := cmd.Flags().GetString("password")
	userKey := string(target) + "-username"
	passKey := string(target) + "-password"
	username = secretDefault(userKey, firstOf(username, viper.GetString("research."+userKey)))
	password = secretDefault(passKey, firstOf(password, viper.GetString("research."+passKey)))
	if username == "" || password == "" {
		return fmt.Errorf("no credentials for %s: pass --username/--password or add %s and %s to .secrets/", target, userKey, passKey)
	}

	scraper := research.NewScraperClient(researchConfig())
	ok, err := scraper.Login(context.Background(), target, username, password)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Printf("%s: credentials rejected\n", target)
		return nil
	}
	fmt.Printf("%s: logged in\n", target)
	return nil
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func init() {
	sourcesLoginCmd.Flags().String("username", "", "institutional account username")
	sourcesLoginCmd.Flags().String("password", "", "institutional account password")

	sourcesCmd.AddCommand(sourcesHealthCmd)
	sourcesCmd.AddCommand(sourcesLoginCmd)
	rootCmd.AddCommand(sourcesCmd)
}
