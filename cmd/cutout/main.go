package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/cutout/internal/client"
	"github.com/mmcdole/cutout/internal/config"
	"github.com/mmcdole/cutout/internal/log"
	"github.com/mmcdole/cutout/internal/service"
	"github.com/mmcdole/cutout/internal/tui"
	"github.com/mmcdole/cutout/internal/tui/styles"
	"golang.org/x/term"
)

// Version is set at build time via -ldflags
var Version = "dev"

// clearSpinnerLine clears the spinner line from the terminal
const clearSpinnerLine = "\r                                                            \r"

type options struct {
	setup     bool
	outputDir string
	serverURL string
	files     []string
}

func main() {
	var opts options
	var showVersion bool
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.BoolVar(&opts.setup, "setup", false, "configure the removal service and exit")
	flag.StringVar(&opts.outputDir, "o", "", "directory to save results in")
	flag.StringVar(&opts.serverURL, "url", "", "removal service URL, e.g. http://localhost:8000")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: cutout [flags] [image ...]\n\n")
		fmt.Fprintf(os.Stderr, "Without images, cutout opens the interactive file browser.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if showVersion {
		fmt.Printf("cutout %s\n", Version)
		return
	}

	opts.files = flag.Args()
	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "%s Error: %v\n", styles.ErrorMarker, err)
		os.Exit(1)
	}
}

func run(opts options) error {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if opts.serverURL != "" {
		cfg.Server.URL = opts.serverURL
	}
	if opts.outputDir != "" {
		cfg.Output.Dir = opts.outputDir
	}

	// Setup logger
	logger, err := log.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = log.NullLogger()
	}
	slog.SetDefault(logger)

	logger.Info("starting cutout", "version", Version)

	if opts.setup || !cfg.IsConfigured() {
		return runSetupFlow(cfg, logger)
	}

	outDir, err := config.ExpandPath(cfg.Output.Dir)
	if err != nil {
		return err
	}

	// Create removal client and services
	removalClient := client.NewClient(cfg.BaseURL(), cfg.Server.Timeout, logger)
	downloader := service.NewDownloader(outDir, cfg.Output.Overwrite, logger)
	removalSvc := service.NewRemovalService(removalClient, downloader, logger)

	if len(opts.files) > 0 {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		h := &headless{
			svc:         removalSvc,
			health:      removalClient,
			healthURL:   cfg.Endpoint(client.PathHealth),
			stdout:      os.Stdout,
			stderr:      os.Stderr,
			interactive: term.IsTerminal(int(os.Stderr.Fd())),
		}
		return h.run(ctx, opts.files)
	}

	model := tui.NewModel(removalSvc, downloader, removalClient, tui.Options{
		ServerURL:   cfg.Server.URL,
		ShowHidden:  cfg.UI.ShowHidden,
		ShowPreview: cfg.UI.ShowPreview,
		Timeout:     cfg.Server.Timeout,
	})

	// Run the TUI
	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)

	logger.Info("starting TUI")

	if _, err := p.Run(); err != nil {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	logger.Info("shutting down")
	return nil
}

// runSetupFlow prompts for the service URL and output directory and saves them
func runSetupFlow(cfg *config.Config, logger *slog.Logger) error {
	fmt.Println()
	fmt.Println("Welcome to cutout!")
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)

	// Loop until we get a usable server URL
	for {
		serverURL, err := prompt(reader, "Removal service URL", cfg.Server.URL)
		if err != nil {
			return err
		}
		cfg.Server.URL = strings.TrimRight(serverURL, "/")

		if !cfg.IsConfigured() {
			fmt.Println("The URL must start with http:// or https://. Please try again.")
			continue
		}

		fmt.Println()
		if err := checkServerWithSpinner(cfg, logger); err != nil {
			fmt.Printf("%s Service not reachable at %s: %v\n", styles.ErrorMarker, cfg.Endpoint(client.PathHealth), err)
			answer, err := prompt(reader, "Save anyway? [y/N]", "n")
			if err != nil {
				return err
			}
			if !strings.EqualFold(answer, "y") {
				fmt.Println()
				continue
			}
		}
		break
	}

	outDir, err := prompt(reader, "Save results in", cfg.Output.Dir)
	if err != nil {
		return err
	}
	cfg.Output.Dir = outDir

	if err := config.SaveConfig(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println()
	fmt.Printf("%s Configuration saved!\n", styles.SuccessMarker)
	fmt.Println()
	fmt.Println("Run cutout again to start the application.")

	return nil
}

// prompt reads one line, returning def when the line is empty
func prompt(reader *bufio.Reader, label, def string) (string, error) {
	if def != "" {
		fmt.Printf("%s [%s]: ", label, def)
	} else {
		fmt.Printf("%s: ", label)
	}

	input, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	input = strings.TrimSpace(input)
	if input == "" {
		return def, nil
	}
	return input, nil
}

// checkServerWithSpinner probes the health endpoint with a visual spinner
func checkServerWithSpinner(cfg *config.Config, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	hc := client.NewClient(cfg.BaseURL(), 15*time.Second, logger)

	// Start the check in background
	resultCh := make(chan error, 1)
	go func() {
		resultCh <- hc.Health(ctx)
	}()

	// Spinner animation
	frame := 0

	// Print initial spinner
	fmt.Printf("\r%s Checking removal service...", styles.SpinnerFrames[frame])

	ticker := time.NewTicker(80 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case err := <-resultCh:
			// Clear spinner line
			fmt.Print(clearSpinnerLine)

			if err != nil {
				return err
			}
			fmt.Printf("%s Connected to %s\n", styles.SuccessMarker, cfg.BaseURL())
			return nil

		case <-ticker.C:
			frame++
			fmt.Printf("\r%s Checking removal service...", styles.SpinnerFrames[frame%len(styles.SpinnerFrames)])

		case <-ctx.Done():
			fmt.Print(clearSpinnerLine)
			return fmt.Errorf("health check timed out")
		}
	}
}
