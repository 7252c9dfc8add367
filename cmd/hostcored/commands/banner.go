package commands

import (
	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"

	"github.com/vireo-stream/hostcore/config"
	"github.com/vireo-stream/hostcore/logger"
	"github.com/vireo-stream/hostcore/version"
)

// printStartupBanner prints the daemon's startup banner and bootstrap
// configuration summary.
func printStartupBanner(boot *config.Bootstrap, verbosity int) {
	pterm.DefaultBigText.WithLetters(
		putils.LettersFromStringWithStyle("host", pterm.NewStyle(pterm.FgCyan)),
		putils.LettersFromStringWithStyle("cored", pterm.NewStyle(pterm.FgLightMagenta)),
	).Render()

	info := version.Get()
	pterm.DefaultSection.Println("hostcored Info")
	pterm.Info.Printf("Version:   %s (commit %s)\n", info.Version, info.Short())
	pterm.Info.Printf("Built:     %s\n", info.BuildTime)
	pterm.Info.Printf("Data dir:  %s\n", boot.DataDir)
	pterm.Info.Printf("API port:  %d\n", boot.ControlAPIPort)
	if boot.WatchdogProcess != "" {
		pterm.Info.Printf("Watchdog:  %s\n", boot.WatchdogProcess)
	}
	if verbosity > 0 {
		pterm.Info.Printf("Logging:   %s\n", logger.DescribeVerbosity(verbosity))
	}

	pterm.Println()
	pterm.Success.Println("Press Ctrl+C to stop")
	pterm.Println()
}
