package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/mercanto/cartsync/internal/client/api"
	"github.com/mercanto/cartsync/internal/client/cli"
	"github.com/mercanto/cartsync/internal/client/coordinator"
	"github.com/mercanto/cartsync/internal/client/iocli"
	"github.com/mercanto/cartsync/internal/client/platform"
	"github.com/mercanto/cartsync/internal/client/registry"
	"github.com/mercanto/cartsync/internal/client/resolver"
	"github.com/mercanto/cartsync/internal/client/storage"
	"github.com/mercanto/cartsync/internal/client/storage/boltdb"
	"github.com/mercanto/cartsync/internal/client/storage/memory"
	"github.com/mercanto/cartsync/internal/clock"
	"github.com/mercanto/cartsync/internal/models"
	"github.com/mercanto/cartsync/pkg/logging"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// clientStorage is what one durable backend provides to the engine.
type clientStorage interface {
	storage.EventLog
	storage.DeviceStorage
	storage.MetadataStorage
}

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	serverURL := flag.String("server", "http://localhost:8090", "Cart store URL")
	dbPath := flag.String("db", "cartsync-client.db", "Path to local database")
	cartID := flag.String("cart", "default", "Cart identity to operate on")
	deviceName := flag.String("device-name", "", "Display name for this device")
	deviceClass := flag.String("device-class", models.DeviceClassDesktop, "Device class: desktop, mobile or web")
	logLevel := flag.String("log-level", "warn", "Log level: debug, info, warn, error")
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	logger := logging.New("cart-client", *logLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Durable bolt storage with an in-memory fallback: the cart must stay
	// usable even when the local database cannot be opened, at the cost of
	// the degraded status.
	var store clientStorage
	memoryOnly := false
	boltStore, err := boltdb.New(ctx, *dbPath)
	if err != nil {
		logger.Warn("durable storage unavailable, falling back to memory",
			"db_path", *dbPath, "error", err)
		store = memory.New()
		memoryOnly = true
	} else {
		store = boltStore
		defer func() {
			_ = boltStore.Close()
		}()
	}

	deviceID, err := store.GetDeviceID(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load device identity: %v\n", err)
		os.Exit(1)
	}
	if deviceID == "" {
		deviceID = uuid.NewString()
		if err := store.SaveDeviceID(ctx, deviceID); err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to save device identity: %v\n", err)
			os.Exit(1)
		}
	}

	name := *deviceName
	if name == "" {
		if host, err := os.Hostname(); err == nil {
			name = host
		} else {
			name = "unknown-device"
		}
	}

	device := models.DeviceRecord{
		DeviceID:    deviceID,
		DisplayName: name,
		DeviceClass: *deviceClass,
		Online:      true,
	}

	reg := registry.NewService(store, logger)

	coord, err := coordinator.New(ctx, *cartID, device,
		coordinator.Config{MemoryOnly: memoryOnly},
		coordinator.Deps{
			Log:          store,
			Meta:         store,
			Transport:    api.NewClient(*serverURL),
			Resolver:     resolver.New(logger),
			Clock:        clock.NewWithDeviceID(deviceID),
			Connectivity: platform.NewMonitor(true),
			Channel:      platform.NewLocalBus(),
			Registry:     reg,
			Logger:       logger,
		})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize sync engine: %v\n", err)
		os.Exit(1)
	}
	defer coord.Close()

	c := cli.New(coord, reg, store, *cartID, iocli.NewStdio())

	args := flag.Args()
	if len(args) == 0 {
		c.PrintUsage()
		os.Exit(1)
	}

	c.Run(ctx, args[0], args[1:])
}

func printVersion() {
	fmt.Printf("cartsync client\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
