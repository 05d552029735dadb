/*
 * Copyright 2024-2025 Raamsri Kumar <raam@tinkershack.in>
 * Copyright 2024-2025 The StrataSTOR Authors and Contributors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package scan implements the "shareaudit scan" one-shot CLI command: run
// a single scan against a domain without standing up the HTTP control
// surface.
package scan

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/stratastor/logger"
	"github.com/stratastor/shareaudit/config"
	"github.com/stratastor/shareaudit/pkg/directory"
	"github.com/stratastor/shareaudit/pkg/notify"
	"github.com/stratastor/shareaudit/pkg/patterns"
	"github.com/stratastor/shareaudit/pkg/scan"
	"github.com/stratastor/shareaudit/pkg/store"
	"golang.org/x/term"
)

var (
	domain   string
	ou       string
	username string
)

func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run a one-shot share scan against a domain",
		RunE:  runScan,
	}

	cmd.Flags().StringVar(&domain, "domain", "", "directory domain to scan (required)")
	cmd.Flags().StringVar(&ou, "ou", "", "organizational unit to scope the computer search to")
	cmd.Flags().StringVar(&username, "username", "", "SMB fallback username; its password is prompted for (omit for anonymous-only SMB)")
	cmd.MarkFlagRequired("domain")

	return cmd
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg := config.GetConfig()
	l, err := logger.NewTag(config.NewLoggerConfig(cfg), "scan")
	if err != nil {
		return err
	}

	password := promptPassword(username)

	ctx := context.Background()

	dirClient, err := directory.Dial(directory.Config{
		Server:        cfg.Directory.LDAPServer,
		Port:          cfg.Directory.LDAPPort,
		Domain:        domain,
		BaseDN:        cfg.Directory.BaseDN,
		BindUser:      cfg.Directory.BindUser,
		BindPass:      cfg.Directory.BindPass,
		UseSimpleBind: cfg.Directory.UseSimpleBind,
	}, l)
	if err != nil {
		return fmt.Errorf("directory bind failed: %w", err)
	}
	defer dirClient.Close()

	hosts, err := dirClient.SearchComputers(ctx, directory.SearchOptions{
		OU:           ou,
		PageSize:     cfg.Directory.PageSize,
		MaxComputers: cfg.Scan.MaxComputers,
		Timeout:      cfg.Scan.SearchTimeout,
	})
	if err != nil {
		return fmt.Errorf("computer enumeration failed: %w", err)
	}
	fmt.Printf("discovered %d computer(s) in %s\n", len(hosts), domain)

	resultStore, err := store.Open(ctx, store.Config{
		Host:           cfg.DB.Host,
		Port:           cfg.DB.Port,
		Name:           cfg.DB.Name,
		User:           cfg.DB.User,
		Password:       cfg.DB.Password,
		MinConnections: cfg.DB.MinConnections,
		MaxConnections: cfg.DB.MaxConnections,
	}, l)
	if err != nil {
		return fmt.Errorf("result store connection failed: %w", err)
	}
	defer resultStore.Close()

	if err := resultStore.SeedDefaults(ctx); err != nil {
		return fmt.Errorf("pattern seeding failed: %w", err)
	}

	reg, err := patterns.Load(ctx, resultStore, l)
	if err != nil {
		return fmt.Errorf("pattern load failed: %w", err)
	}

	sink := &cliProgressSink{}
	orch := scan.New(resultStore, reg, sink, l)
	orch.SetWebhook(notify.NewWebhook(cfg.Webhook.URL, cfg.Webhook.Timeout, l))

	res := orch.Run(ctx, scan.Config{
		Domain:           domain,
		Hosts:            hosts,
		Threads:          cfg.Scan.DefaultThreads,
		BatchSize:        cfg.Scan.BatchSize,
		StorageBatch:     cfg.Scan.StorageBatch,
		MaxScanDepth:     cfg.Scan.MaxScanDepth,
		ScanTimeout:      cfg.Scan.ScanTimeout,
		HostScanTimeout:  cfg.Scan.HostScanTimeout,
		ExcludedShares:   cfg.Scan.ExcludedShares,
		ScanForSensitive: cfg.Scan.ScanForSensitive,
		Username:         username,
		Password:         password,
	})

	if res.Err != nil {
		fmt.Printf("scan finished with errors: %v\n", res.Err)
		os.Exit(1)
	}

	fmt.Printf("scan complete: session=%d hosts=%d shares=%d sensitive=%d\n",
		res.Session.ID, res.Session.TotalHosts, res.Session.TotalShares, res.Session.TotalSensitive)
	return nil
}

// promptPassword reads the SMB fallback password from the controlling
// terminal without echoing it, unless username is empty (anonymous-only
// run).
func promptPassword(username string) string {
	if username == "" {
		return ""
	}
	fmt.Printf("Password for %s: ", username)
	if term.IsTerminal(int(os.Stdin.Fd())) {
		pw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return ""
		}
		return string(pw)
	}

	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

// cliProgressSink prints one line per completed host.
type cliProgressSink struct{}

func (cliProgressSink) Notify(_ context.Context, ev scan.ProgressEvent) {
	switch ev.Kind {
	case "host_complete":
		fmt.Printf("  %s: %d share(s) scanned, %d host(s) remaining\n", ev.Host, ev.SharesScanned, ev.HostsRemaining)
	case "scan_error":
		fmt.Printf("scan error: %v\n", ev.Err)
	}
}
