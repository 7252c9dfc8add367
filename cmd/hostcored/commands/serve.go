package commands

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/vireo-stream/hostcore/boxart"
	"github.com/vireo-stream/hostcore/config"
	"github.com/vireo-stream/hostcore/db"
	"github.com/vireo-stream/hostcore/errors"
	"github.com/vireo-stream/hostcore/hostrecord"
	"github.com/vireo-stream/hostcore/httpapi"
	"github.com/vireo-stream/hostcore/identity"
	"github.com/vireo-stream/hostcore/logger"
	"github.com/vireo-stream/hostcore/registry"
	"github.com/vireo-stream/hostcore/session"
	"github.com/vireo-stream/hostcore/tasks"
	"github.com/vireo-stream/hostcore/version"
	"github.com/vireo-stream/hostcore/watchdog"
)

// ServeCmd runs the daemon: loads bootstrap config, wires every
// collaborator, and blocks until an interrupt or /exit requests shutdown.
var ServeCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"run"},
	Short:   "Run the hostcored daemon",
	Long:    `Start host discovery, polling, pairing, and the local HTTP control API, and block until interrupted.`,
	RunE:    runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	verbosity, _ := cmd.Flags().GetCount("verbose")

	boot, err := config.LoadBootstrap(configPath)
	if err != nil {
		return errors.Wrap(err, "load bootstrap config")
	}

	if err := logger.Initialize(boot.LogJSON, verbosity); err != nil {
		return errors.Wrap(err, "initialize logger")
	}
	defer logger.Cleanup()

	log := logger.Logger

	if err := os.MkdirAll(boot.DataDir, 0o755); err != nil {
		return errors.Wrapf(err, "create data directory %s", boot.DataDir)
	}

	printStartupBanner(boot, verbosity)

	id, err := identity.New(identity.NewFilePersistence(boot.DataDir), log)
	if err != nil {
		return errors.Wrap(err, "load or generate identity")
	}

	settings, err := config.NewStore(filepath.Join(boot.DataDir, "general.json"), log)
	if err != nil {
		return errors.Wrap(err, "load settings store")
	}
	watcher, err := settings.Watch()
	if err != nil {
		log.Warnw("settings file watch unavailable", "error", err)
	} else {
		watcher.OnReload(func(map[string]interface{}) {
			log.Infow("settings reloaded after external edit")
		})
		defer watcher.Close()
	}

	database, err := db.OpenWithMigrations(filepath.Join(boot.DataDir, "audit.db"), log)
	if err != nil {
		return errors.Wrap(err, "open audit database")
	}
	defer database.Close()
	auditLog := tasks.NewAuditLog(database, log)

	art := boxart.New(filepath.Join(boot.DataDir, "boxart"), log)
	defer art.Close()

	sessionMgr := session.New(nil)
	taskMgr := tasks.NewManager(auditLog)
	federatedTokens := tasks.NewFederatedTokenStore()

	shuttingDown := make(chan struct{})
	closeOnce := func() {
		select {
		case <-shuttingDown:
		default:
			close(shuttingDown)
		}
	}

	onHostChanged := func(rec *hostrecord.Record) { sessionMgr.NotifyHostChanged(rec.UUID()) }
	reg, err := registry.New(filepath.Join(boot.DataDir, "hosts.ini"), id, onHostChanged, log)
	if err != nil {
		return errors.Wrap(err, "load host registry")
	}

	api := httpapi.New(httpapi.Deps{
		Registry:        reg,
		Tasks:           taskMgr,
		Identity:        id,
		Settings:        settings,
		Session:         sessionMgr,
		BoxArt:          art,
		FederatedTokens: federatedTokens,
		DeviceName:      localDeviceName(),
		VersionString:   version.Get().String(),
		PollingActive:   true,
		OnExit:          closeOnce,
	}, log)
	sessionMgr.SetSink(api)

	wd := watchdog.New(boot.WatchdogProcess, closeOnce, log)
	go wd.Run()

	for _, rec := range reg.All() {
		reg.StartPolling(rec.UUID())
	}
	reg.SetDiscoveryInterval(time.Duration(boot.DiscoveryInterval) * time.Second)
	reg.StartDiscovery()

	// The UI owns the control port via settings; the bootstrap value is
	// only the fallback for a fresh or hand-stripped general.json.
	addr := fmt.Sprintf(":%d", settings.IntValue("uihttpport", boot.ControlAPIPort))
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- api.ListenAndServe(addr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return errors.Wrap(err, "control API server failed")
	case <-sigCh:
		pterm.Info.Println("shutting down...")
	case <-shuttingDown:
		pterm.Info.Println("shutdown requested via control API")
	}

	wd.Stop()
	wd.Wait()
	reg.Shutdown()
	if err := api.Shutdown(); err != nil {
		log.Warnw("control API shutdown error", "error", err)
	}
	pterm.Success.Println("stopped cleanly")
	return nil
}

func localDeviceName() string {
	name, err := os.Hostname()
	if err != nil || name == "" {
		return "hostcored"
	}
	return name
}
