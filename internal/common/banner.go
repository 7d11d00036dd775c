package common

import (
	"fmt"
	"os"
	"strings"

	"github.com/ternarybob/banner"
)

// PrintBanner displays the startup banner to stderr and logs the same facts.
func PrintBanner(config *Config, logger *Logger) {
	serviceURL := fmt.Sprintf("http://%s:%d", config.Server.Host, config.Server.Port)
	aiModel := config.Clients.Gemini.Model
	if config.AI.Provider == ProviderOpenAI {
		aiModel = config.Clients.OpenAI.Model
	}

	lineColor := banner.ColorCyan
	textColor := banner.ColorBold + banner.ColorWhite
	hr := lineColor + strings.Repeat("═", 64) + banner.ColorReset

	art := []string{
		` __     ___   _ ____ _____ ___   ____ _  __`,
		` \ \   / / \ | / ___|_   _/ _ \ / ___| |/ /`,
		`  \ \ / /|  \| \___ \ | || | | | |   | ' / `,
		`   \ V / | |\  |___) || || |_| | |___| . \ `,
		`    \_/  |_| \_|____/ |_| \___/ \____|_|\_\`,
	}

	fmt.Fprintf(os.Stderr, "\n%s\n\n", hr)
	for _, line := range art {
		fmt.Fprintf(os.Stderr, "%s%s%s\n", textColor, line, banner.ColorReset)
	}
	fmt.Fprintf(os.Stderr, "\n%s  Trợ lý AI chứng khoán Việt Nam%s\n\n", textColor, banner.ColorReset)
	fmt.Fprintf(os.Stderr, "%s\n\n", hr)

	kvLines := [][2]string{
		{"Version", GetVersion()},
		{"Build", GetBuild()},
		{"Commit", GetGitCommit()},
		{"Environment", config.Environment},
		{"Service URL", serviceURL},
		{"Data source", config.Data.Source},
		{"AI provider", config.AI.Provider + " (" + aiModel + ")"},
		{"Max history", fmt.Sprintf("%d", config.Chat.MaxHistory)},
	}
	for _, kv := range kvLines {
		fmt.Fprintf(os.Stderr, "%s  %-16s %s%s\n", textColor, kv[0], kv[1], banner.ColorReset)
	}
	fmt.Fprintf(os.Stderr, "\n%s\n\n", hr)

	logger.Info().
		Str("version", GetVersion()).
		Str("environment", config.Environment).
		Str("service_url", serviceURL).
		Str("data_source", config.Data.Source).
		Str("ai_provider", config.AI.Provider).
		Msg("Application started")
}

// PrintShutdownBanner displays the shutdown banner to stderr.
func PrintShutdownBanner(logger *Logger) {
	hr := banner.ColorCyan + strings.Repeat("═", 42) + banner.ColorReset

	fmt.Fprintf(os.Stderr, "\n%s\n", hr)
	fmt.Fprintf(os.Stderr, "%s  VNSTOCK CHAT - SHUTTING DOWN%s\n", banner.ColorBold+banner.ColorWhite, banner.ColorReset)
	fmt.Fprintf(os.Stderr, "%s\n\n", hr)

	logger.Info().Msg("Application shutting down")
}
