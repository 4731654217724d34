// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"flag"
	"iter"
	"log/slog"
	"os"
	"slices"

	"github.com/poiesic/kbsearch"
	"github.com/poiesic/kbsearch/config"
	"github.com/poiesic/kbsearch/core"
	"github.com/poiesic/kbsearch/ingestion"
)

// demoArticles is a small VPN help center.
var demoArticles = []core.Article{
	{
		Title:     "VPN Setup on Windows",
		Category:  "Getting Started",
		Published: true,
		Tags:      []string{"setup", "windows"},
		Content: "Download the installer from your account page and run it as administrator. " +
			"Sign in with your account email, pick the nearest server and press Connect. " +
			"The shield icon in the system tray turns green once the VPN tunnel is up.",
	},
	{
		Title:     "VPN Setup on macOS",
		Category:  "Getting Started",
		Published: true,
		Tags:      []string{"setup", "macos"},
		Content: "Install the app from the App Store and allow the VPN configuration when prompted. " +
			"Open System Settings, then Network, to confirm the profile was added. " +
			"Use the menu bar icon to connect and disconnect.",
	},
	{
		Title:     "Setting Up the VPN on a Router",
		Category:  "Getting Started",
		Published: true,
		Tags:      []string{"setup", "router"},
		Content: "Routers running OpenVPN or WireGuard firmware can protect every device at home. " +
			"Download a configuration file for your chosen server, upload it in the router admin page " +
			"and enable the client. Devices behind the router do not need the app.",
	},
	{
		Title:     "Choosing a Server Location",
		Category:  "Using the VPN",
		Published: true,
		Tags:      []string{"servers", "speed"},
		Content: "Servers closer to you usually give the best speed. " +
			"Pick a location in another country to reach region-locked content. " +
			"The server list shows current load as a percentage; lower is faster.",
	},
	{
		Title:     "Split Tunneling",
		Category:  "Using the VPN",
		Published: true,
		Tags:      []string{"split-tunneling", "advanced"},
		Content: "Split tunneling lets selected apps bypass the VPN. " +
			"Open Settings, choose Split Tunneling and add the apps that should use your regular connection. " +
			"Banking apps that block VPN traffic are common candidates.",
	},
	{
		Title:     "Kill Switch",
		Category:  "Security",
		Published: true,
		Tags:      []string{"kill-switch", "security"},
		Content: "The kill switch blocks all traffic if the VPN connection drops unexpectedly. " +
			"Enable it under Settings, then Security. While it is active, nothing leaves your device " +
			"outside the encrypted tunnel.",
	},
	{
		Title:     "Which Protocol Should I Use",
		Category:  "Security",
		Published: true,
		Tags:      []string{"protocols", "wireguard", "openvpn"},
		Content: "WireGuard is the default and offers the best balance of speed and security. " +
			"OpenVPN over TCP is slower but gets through restrictive firewalls. " +
			"Switch protocols under Settings, then Connection.",
	},
	{
		Title:     "Troubleshooting Connection Failures",
		Category:  "Troubleshooting",
		Published: true,
		Tags:      []string{"connection", "errors"},
		Content: "If the VPN will not connect, first try another server. " +
			"Next switch protocol, then restart the app. Antivirus software and public Wi-Fi portals " +
			"often block VPN traffic; sign in to the portal before connecting.",
	},
	{
		Title:     "Slow Speeds While Connected",
		Category:  "Troubleshooting",
		Published: true,
		Tags:      []string{"speed", "servers"},
		Content: "Some slowdown is expected because traffic is encrypted and routed through a server. " +
			"Connect to a nearby server with low load and prefer WireGuard. " +
			"Run a speed test with the VPN off to compare against your baseline.",
	},
	{
		Title:     "Billing and Refunds",
		Category:  "Billing",
		Published: true,
		Tags:      []string{"payments", "refunds"},
		Content: "Subscriptions renew automatically at the end of each billing period. " +
			"You can request a full refund within 30 days of purchase from the account page. " +
			"Refunds go back to the original payment method.",
	},
	{
		Title:     "Managing Devices",
		Category:  "Account",
		Published: true,
		Tags:      []string{"devices", "account"},
		Content: "Each plan covers up to ten simultaneous connections. " +
			"Sign out of an old device from the account page to free a slot. " +
			"Router connections count as a single device.",
	},
	{
		Title:     "Resetting Your Password",
		Category:  "Account",
		Published: true,
		Tags:      []string{"account", "password"},
		Content: "Use the Forgot Password link on the sign-in screen to receive a reset email. " +
			"The link expires after one hour. Existing sessions stay signed in until you sign out.",
	},
	{
		Title:     "Upcoming Dedicated IP Feature",
		Category:  "Announcements",
		Tags:      []string{"roadmap"},
		Content:   "Dedicated IP addresses are coming soon. This draft is not published yet.",
		Published: false,
	},
}

var (
	configPath = flag.String("config", "", "path to a YAML or TOML config file")
	sourceDir  = flag.String("src", "", "directory of markdown articles to seed instead of the demo set")
	batchSize  = flag.Int("batch", 5, "articles ingested per batch")
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
}

// articlesFromDir returns an iterator over the markdown articles in dir.
func articlesFromDir(dir string) (iter.Seq[*core.Article], error) {
	articles, err := ingestion.LoadDirectory(dir)
	if err != nil {
		return nil, err
	}
	return slices.Values(articles), nil
}

// demoSet returns an iterator over fresh copies of the demo articles.
func demoSet() iter.Seq[*core.Article] {
	return func(yield func(*core.Article) bool) {
		for _, demo := range demoArticles {
			article := demo
			article.Tags = slices.Clone(demo.Tags)
			if !yield(&article) {
				return
			}
		}
	}
}

// ingestBatched reads from a source iterator and ingests articles in batches.
func ingestBatched(ctx context.Context, pipeline *ingestion.Pipeline, source iter.Seq[*core.Article], batchSize int) (int, error) {
	if batchSize < 1 {
		batchSize = 1
	}
	batch := make([]*core.Article, 0, batchSize)
	total := 0

	for article := range source {
		batch = append(batch, article)
		if len(batch) == batchSize {
			if _, err := pipeline.Ingest(ctx, batch...); err != nil {
				return total, err
			}
			total += len(batch)
			batch = batch[:0]
		}
	}

	// Process any remaining articles
	if len(batch) > 0 {
		if _, err := pipeline.Ingest(ctx, batch...); err != nil {
			return total, err
		}
		total += len(batch)
	}

	return total, nil
}

func main() {
	flag.Parse()
	ctx := context.Background()

	cfg, err := config.Resolve(*configPath)
	if err != nil {
		panic(err)
	}

	svc, err := kbsearch.Open(ctx, cfg)
	if err != nil {
		panic(err)
	}
	defer svc.Close()

	ingester, err := svc.NewPipeline()
	if err != nil {
		panic(err)
	}
	defer ingester.Release()

	source := demoSet()
	if *sourceDir != "" {
		source, err = articlesFromDir(*sourceDir)
		if err != nil {
			panic(err)
		}
	}

	count, err := ingestBatched(ctx, ingester, source, *batchSize)
	if err != nil {
		panic(err)
	}
	slog.Info("seeded knowledge base", "articles", count, "index_entries", svc.Index().Len())
}
