package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/bobmcallan/vnstock-chat/internal/app"
	"github.com/bobmcallan/vnstock-chat/internal/common"
	"github.com/bobmcallan/vnstock-chat/internal/interfaces"
	"github.com/bobmcallan/vnstock-chat/internal/models"
	"github.com/bobmcallan/vnstock-chat/internal/server"
	"github.com/bobmcallan/vnstock-chat/internal/services/chat"
	"github.com/bobmcallan/vnstock-chat/internal/services/history"
)

var (
	boldGreen = color.New(color.FgGreen, color.Bold).SprintFunc()
	boldCyan  = color.New(color.FgCyan, color.Bold).SprintFunc()
	red       = color.New(color.FgRed).SprintFunc()
	faint     = color.New(color.Faint).SprintFunc()
)

// globalFlags are shared by every subcommand
type globalFlags struct {
	configPath string
	debug      bool
}

// newRootCmd creates the root command. With no subcommand it starts an
// interactive chat.
func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "vnstock",
		Short: "vnstock - Vietnamese stock market AI assistant",
		Long: `vnstock answers questions about Vietnamese listed stocks using live
market data from TCBS/VNDirect, news from IQX and an AI analysis model.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(flags)
			if err != nil {
				return err
			}
			return runInteractive(cmd.Context(), a, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "Configuration file path")
	rootCmd.PersistentFlags().BoolVar(&flags.debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(newAskCmd(flags))
	rootCmd.AddCommand(newServeCmd(flags))
	rootCmd.AddCommand(newSuggestCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(flags))

	return rootCmd
}

func loadConfig(flags *globalFlags) (*common.Config, error) {
	common.LoadVersionFromFile()
	cfg, err := app.LoadConfig(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.debug {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

func loadApp(flags *globalFlags) (*app.App, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}
	// keep the terminal clean for answers; log to file only unless debugging
	if !flags.debug {
		cfg.Logging.Outputs = []string{"file"}
	}
	logger := common.NewLoggerFromConfig(cfg.Logging)
	return app.NewFromConfig(context.Background(), cfg, logger)
}

// newAskCmd creates the one-shot ask command
func newAskCmd(flags *globalFlags) *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "ask [MESSAGE...]",
		Short: "Ask a single question",
		Long: `Ask a single question and print the analysis.
Example: vnstock ask "Phân tích VCB hiện tại"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(flags)
			if err != nil {
				return err
			}
			return ask(cmd.Context(), a.ChatService, sessionID, strings.Join(args, " "), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", history.DefaultSessionID, "Conversation session id")
	return cmd
}

// newServeCmd starts the HTTP API
func newServeCmd(flags *globalFlags) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Server.Port = port
			}

			logger := common.NewLoggerFromConfig(cfg.Logging)
			a, err := app.NewFromConfig(context.Background(), cfg, logger)
			if err != nil {
				return err
			}

			common.PrintBanner(cfg, logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := server.NewServer(a).Run(ctx); err != nil {
				return err
			}
			common.PrintShutdownBanner(logger)
			return nil
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "Override the listen port")
	return cmd
}

// newSuggestCmd prints example questions
func newSuggestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "suggest [SYMBOL]",
		Short: "Show example questions",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			symbol := ""
			if len(args) == 1 {
				s, ok := common.ValidateSymbol(args[0])
				if !ok {
					return fmt.Errorf("invalid stock symbol: %s", args[0])
				}
				symbol = s
			}
			for _, s := range chat.Suggestions(symbol) {
				fmt.Fprintf(cmd.OutOrStdout(), "  • %s\n", s)
			}
			return nil
		},
	}
}

// newVersionCmd creates the version command
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			common.LoadVersionFromFile()
			fmt.Fprintf(cmd.OutOrStdout(), "vnstock %s\n", common.GetFullVersion())
		},
	}
}

// newConfigCmd creates the config command
func newConfigCmd(flags *globalFlags) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			showConfig(cmd.OutOrStdout(), cfg)
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Check required settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if missing := cfg.ValidateRequired(); len(missing) > 0 {
				return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
			}
			fmt.Fprintln(cmd.OutOrStdout(), boldGreen("Configuration OK"))
			return nil
		},
	})

	return configCmd
}

// errReported marks errors already printed to the user
var errReported = errors.New("reported")

// ask handles one message and prints the answer or the user-facing error.
func ask(ctx context.Context, svc interfaces.ChatService, sessionID, message string, out io.Writer) error {
	resp, err := svc.Handle(ctx, sessionID, message)
	if err != nil {
		var ce *models.ChatError
		if errors.As(err, &ce) {
			fmt.Fprintln(out, red(ce.UserMessage()))
		} else {
			fmt.Fprintln(out, red(err.Error()))
		}
		return fmt.Errorf("%w: %v", errReported, err)
	}

	fmt.Fprintln(out, resp.Response)
	if len(resp.DataSources) > 0 {
		fmt.Fprintln(out, faint("Nguồn: "+strings.Join(resp.DataSources, ", ")))
	}
	return nil
}

// runInteractive starts the chat loop against the app's services.
func runInteractive(ctx context.Context, a *app.App, in io.Reader, out io.Writer) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return runInteractiveWith(ctx, a.ChatService, a.PrimaryData.Name(), a.AIClient.Name(), in, out)
}

// runInteractiveWith reads questions until EOF or "exit". Each run gets its own session.
func runInteractiveWith(ctx context.Context, svc interfaces.ChatService, dataSource, aiName string, in io.Reader, out io.Writer) error {
	sessionID := uuid.New().String()

	fmt.Fprintln(out, boldGreen("vnstock - Trợ lý AI chứng khoán Việt Nam"))
	fmt.Fprintf(out, "Dữ liệu: %s  AI: %s\n", boldCyan(dataSource), boldCyan(aiName))
	fmt.Fprintln(out, "Nhập câu hỏi và nhấn Enter. Gõ 'exit' để thoát, 'clear' để xóa lịch sử.")
	fmt.Fprintln(out)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, boldGreen("Bạn: "))
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())

		switch strings.ToLower(input) {
		case "":
			continue
		case "exit", "quit", "thoát":
			return nil
		case "clear":
			svc.Clear(sessionID)
			fmt.Fprintln(out, faint("Đã xóa lịch sử hội thoại"))
			continue
		}

		fmt.Fprintln(out, boldCyan("vnstock:"))
		// errors are printed and the loop continues
		_ = ask(ctx, svc, sessionID, input, out)
		fmt.Fprintln(out)

		if ctx.Err() != nil {
			return nil
		}
	}
	return scanner.Err()
}

func showConfig(out io.Writer, cfg *common.Config) {
	configured := func(key string) string {
		if key == "" {
			return red("not configured")
		}
		return boldGreen("configured")
	}

	fmt.Fprintln(out, boldCyan("Current vnstock configuration"))
	fmt.Fprintln(out, strings.Repeat("═", 40))
	fmt.Fprintf(out, "Environment:       %s\n", cfg.Environment)
	fmt.Fprintf(out, "Server:            %s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Fprintf(out, "Log level:         %s\n", cfg.Logging.Level)
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Data source:       %s (fallback %t)\n", cfg.Data.Source, cfg.Data.Fallback)
	fmt.Fprintf(out, "Max history:       %d\n", cfg.Chat.MaxHistory)
	fmt.Fprintf(out, "Context turns:     %d\n", cfg.Chat.ContextTurns)
	fmt.Fprintf(out, "Retry count:       %d\n", cfg.Retry.Attempts())
	fmt.Fprintln(out)
	fmt.Fprintf(out, "AI provider:       %s\n", cfg.AI.Provider)
	fmt.Fprintf(out, "Gemini model:      %s (%s)\n", cfg.Clients.Gemini.Model, configured(cfg.Clients.Gemini.APIKey))
	fmt.Fprintf(out, "OpenAI model:      %s @ %s (%s)\n", cfg.Clients.OpenAI.Model, cfg.Clients.OpenAI.BaseURL, configured(cfg.Clients.OpenAI.APIKey))
}
