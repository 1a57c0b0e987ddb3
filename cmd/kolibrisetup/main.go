// cmd/kolibrisetup/main.go

package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"golang.org/x/sys/windows"
	"gopkg.in/yaml.v3"

	"github.com/learningequality/kolibri-setup/pkg/command"
	"github.com/learningequality/kolibri-setup/pkg/config"
	"github.com/learningequality/kolibri-setup/pkg/decision"
	"github.com/learningequality/kolibri-setup/pkg/dialog"
	"github.com/learningequality/kolibri-setup/pkg/logging"
	"github.com/learningequality/kolibri-setup/pkg/preflight"
	"github.com/learningequality/kolibri-setup/pkg/service"
	"github.com/learningequality/kolibri-setup/pkg/store"
	"github.com/learningequality/kolibri-setup/pkg/uninstall"
	"github.com/learningequality/kolibri-setup/pkg/version"
	"github.com/learningequality/kolibri-setup/pkg/webview2"
)

// enableANSIConsole enables ANSI colors in the console.
func enableANSIConsole() {
	for _, stream := range []*os.File{os.Stdout, os.Stderr} {
		handle := windows.Handle(stream.Fd())
		var mode uint32
		if err := windows.GetConsoleMode(handle, &mode); err == nil {
			mode |= windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING
			_ = windows.SetConsoleMode(handle, mode)
		}
	}
}

func main() {
	enableANSIConsole()
	// Define command-line flags. The host installer invokes one phase per run.
	check := pflag.Bool("check", false, "Decide whether installation may proceed for --incoming-version.")
	runPreflight := pflag.Bool("preflight", false, "Stop running Kolibri instances before file staging.")
	configure := pflag.Bool("configure", false, "Create or update the Kolibri service after file staging.")
	needsWebview2 := pflag.Bool("needs-webview2", false, "Exit 0 if the WebView2 runtime should be installed, 1 otherwise.")
	uninstallFlag := pflag.Bool("uninstall", false, "Tear down the service and optionally delete user data.")
	showConfig := pflag.Bool("show-config", false, "Display the current configuration and exit.")
	versionFlag := pflag.Bool("version", false, "Print the version and exit.")

	incomingVersion := pflag.String("incoming-version", "", "Version of the package being installed.")
	enableService := pflag.Bool("enable-service", true, "Run Kolibri as a background service started at boot.")
	unattended := pflag.Bool("unattended", false, "Suppress all prompts and apply defaults.")
	consolePrompts := pflag.Bool("console-prompts", false, "Ask on the console instead of showing message boxes.")

	// Count the number of -v flags.
	var verbosity int
	pflag.CountVarP(&verbosity, "verbose", "v", "Increase verbosity (e.g. -v, -vv, -vvv)")
	pflag.Parse()

	// Load configuration (only once)
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Dynamically override LogLevel based on the number of -v flags.
	switch verbosity {
	case 0:
		// keep configured level
	case 1:
		cfg.LogLevel = "INFO"
	default:
		cfg.LogLevel = "DEBUG"
	}

	if err := logging.Init(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer logging.CloseLogger()

	// Handle --version flag.
	if *versionFlag {
		version.Print()
		os.Exit(0)
	}

	if *showConfig {
		data, err := yaml.Marshal(cfg)
		if err != nil {
			logging.Error("Failed to render configuration", "error", err)
			os.Exit(1)
		}
		fmt.Print(string(data))
		os.Exit(0)
	}

	var prompter dialog.Prompter = dialog.MessageBoxPrompter{}
	if *consolePrompts {
		prompter = dialog.ConsolePrompter{}
	}

	runner := command.ExecRunner{}
	setupStore := store.NewMachineStore(config.SetupRegistryPath)
	autostartStore := store.NewMachineStore(config.RunRegistryPath)

	switch {
	case *check:
		runCheck(setupStore, prompter, *unattended, *incomingVersion)

	case *runPreflight:
		cleanup := &preflight.Cleanup{
			Runner:      runner,
			ServiceName: cfg.ServiceName,
			UIImageName: cfg.UIExecutable,
		}
		if err := cleanup.Run(); err != nil {
			fatal(prompter, *unattended, "Failed to stop running Kolibri instances", err)
		}

	case *configure:
		runConfigure(cfg, runner, setupStore, autostartStore, prompter, *unattended, *enableService, *incomingVersion)

	case *needsWebview2:
		if !webview2.IsPresent() && webview2.ShouldInstall() {
			logging.Info("WebView2 runtime installation required")
			os.Exit(0)
		}
		logging.Info("WebView2 runtime installation not required")
		os.Exit(1)

	case *uninstallFlag:
		runUninstall(cfg, runner, setupStore, autostartStore, prompter, *unattended)

	default:
		pflag.Usage()
		os.Exit(2)
	}
}

// runCheck is the single gate controlling whether any further mutation
// happens. Exit 0 means the host installer may proceed.
func runCheck(setupStore store.Store, prompter dialog.Prompter, unattended bool, incoming string) {
	if incoming == "" {
		logging.Fatal("--check requires --incoming-version")
	}

	engine := &decision.Engine{Store: setupStore, Prompter: prompter, Unattended: unattended}
	d, err := engine.Decide(incoming)
	if err != nil {
		if errors.Is(err, decision.ErrDeclined) {
			logging.Info("Installation declined by user")
			os.Exit(1)
		}
		if errors.Is(err, decision.ErrDowngrade) {
			os.Exit(1)
		}
		fatal(prompter, unattended, "Could not determine whether installation may proceed", err)
	}
	logging.Info("Installation may proceed", "action", d.Action.String())
}

// runConfigure converges the service definition and autostart registration,
// then records the installed version.
func runConfigure(cfg *config.Configuration, runner command.Runner, setupStore, autostartStore store.Store, prompter dialog.Prompter, unattended, enableService bool, incoming string) {
	if incoming == "" {
		logging.Fatal("--configure requires --incoming-version")
	}

	spec := service.Spec{
		Name:             cfg.ServiceName,
		ExecutablePath:   cfg.UIExecutablePath(),
		Arguments:        strings.Fields(cfg.ServerArguments),
		WorkingDirectory: cfg.InstallPath,
		Account:          cfg.ServiceAccount,
		Description:      cfg.ServiceDescription,
		DataDir:          cfg.DataPath,
	}

	mgr := &service.Manager{
		Runner:      runner,
		Autostart:   autostartStore,
		NssmPath:    cfg.NssmPath,
		TrayCommand: cfg.TrayCommand(),
	}

	if err := mgr.Apply(spec, enableService); err != nil {
		fatal(prompter, unattended, "Failed to configure the Kolibri service", err)
	}

	if err := setupStore.Set(config.VersionValueName, incoming); err != nil {
		fatal(prompter, unattended, "Failed to record the installed version", err)
	}
	logging.Info("Service configured", "service", cfg.ServiceName, "enabled", enableService, "version", incoming)
}

// runUninstall captures the retention choice once, tears down the service,
// and performs the final data cleanup with that same choice.
func runUninstall(cfg *config.Configuration, runner command.Runner, setupStore, autostartStore store.Store, prompter dialog.Prompter, unattended bool) {
	orch := &uninstall.Orchestrator{
		Runner:      runner,
		Prompter:    prompter,
		Setup:       setupStore,
		Autostart:   autostartStore,
		Unattended:  unattended,
		ServiceName: cfg.ServiceName,
		UIImageName: cfg.UIExecutable,
		DataDir:     cfg.DataPath,
	}

	choice := orch.PromptRetention()
	if err := orch.Run(); err != nil {
		fatal(prompter, unattended, "Failed to remove the Kolibri service", err)
	}
	orch.CleanupData(choice)
	logging.Info("Uninstall complete")
}

// fatal logs the failure with full context, surfaces it to the user in
// interactive mode, and aborts. No partial state is rolled back.
func fatal(prompter dialog.Prompter, unattended bool, message string, err error) {
	logging.Error(message, "error", err)
	if !unattended {
		prompter.Alert("Kolibri Setup", fmt.Sprintf("%s.\n\n%v", message, err))
	}
	logging.CloseLogger()
	os.Exit(1)
}
