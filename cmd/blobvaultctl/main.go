package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/relaychain/blobvault/blob"
	"github.com/relaychain/blobvault/config"
	"github.com/relaychain/blobvault/manager"
	"github.com/relaychain/blobvault/storage"
	"github.com/relaychain/blobvault/telemetry"
	"github.com/urfave/cli/v2"
)

var logFlags = []cli.Flag{
	&cli.BoolFlag{Name: "log-json", Value: false, Usage: "log in JSON format"},
	&cli.BoolFlag{Name: "log-debug", Value: false, Usage: "log debug messages"},
	&cli.BoolFlag{Name: "log-uid", Value: false, Usage: "generate a uuid and add to all log messages"},
	&cli.StringFlag{Name: "log-service", Value: "blobvault", Usage: "add 'service' tag to logs"},
}

func buildManager(cCtx *cli.Context) (*manager.Manager, func(), error) {
	logger := telemetry.NewLogger(telemetry.Options{
		JSON:    cCtx.Bool("log-json"),
		Debug:   cCtx.Bool("log-debug"),
		UID:     cCtx.Bool("log-uid"),
		Service: cCtx.String("log-service"),
	})

	cfg, err := config.Load(config.Getenv)
	if err != nil {
		return nil, nil, err
	}

	factory := storage.NewBackendFactory(logger)
	backends, err := factory.BuildManager(context.Background(), cfg.SpecMap())
	if err != nil {
		return nil, nil, err
	}

	reg := prometheus.NewRegistry()
	metrics := telemetry.NewMetrics(reg)

	metricsAddr := cCtx.String("metrics-addr")
	var stopMetrics func()
	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: metricsAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server failed", "err", err)
			}
		}()
		stopMetrics = func() { srv.Close() }
	} else {
		stopMetrics = func() {}
	}

	m, err := manager.New(backends, cfg.ChainID, manager.WithLogger(logger), manager.WithMetrics(metrics))
	if err != nil {
		stopMetrics()
		return nil, nil, err
	}
	return m, stopMetrics, nil
}

func main() {
	app := &cli.App{
		Name:  "blobvaultctl",
		Usage: "put, get and inspect blobs across the configured storage backends",
		Commands: []*cli.Command{
			{
				Name:  "put",
				Usage: "store a blob read from stdin or --file",
				Flags: append(logFlags,
					&cli.StringFlag{Name: "hash", Required: true, Usage: "versioned hash identifying the blob"},
					&cli.StringFlag{Name: "file", Usage: "path to read blob data from, defaults to stdin"},
					&cli.StringSliceFlag{Name: "backend", Usage: "restrict the write to these backend names, default is all"},
					&cli.StringFlag{Name: "metrics-addr", Usage: "address to serve Prometheus metrics on, empty disables"},
				),
				Action: runPut,
			},
			{
				Name:  "get",
				Usage: "fetch a blob by reference from one or more backends",
				Flags: append(logFlags,
					&cli.StringSliceFlag{Name: "ref", Required: true, Usage: "backend=reference pairs to race, e.g. POSTGRES=abc123"},
					&cli.StringFlag{Name: "out", Usage: "path to write the fetched blob to, defaults to stdout"},
					&cli.StringFlag{Name: "metrics-addr", Usage: "address to serve Prometheus metrics on, empty disables"},
				),
				Action: runGet,
			},
			{
				Name:  "backends",
				Usage: "list the backends configured via BLOBVAULT_BACKENDS",
				Flags: append(logFlags,
					&cli.StringFlag{Name: "metrics-addr", Usage: "address to serve Prometheus metrics on, empty disables"},
				),
				Action: runBackends,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runPut(cCtx *cli.Context) error {
	m, stop, err := buildManager(cCtx)
	if err != nil {
		return err
	}
	defer stop()

	var data []byte
	if path := cCtx.String("file"); path != "" {
		data, err = os.ReadFile(path)
	} else {
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return fmt.Errorf("reading blob data: %w", err)
	}

	var opts []manager.StoreOption
	if names := cCtx.StringSlice("backend"); len(names) > 0 {
		selected := make([]blob.BackendName, len(names))
		for i, n := range names {
			selected[i] = blob.BackendName(n)
		}
		opts = append(opts, manager.WithSelectedStorages(selected...))
	}

	result, err := m.StoreBlob(cCtx.Context, blob.Blob{VersionedHash: cCtx.String("hash"), Data: data}, opts...)
	if err != nil {
		return err
	}
	for _, ref := range result.References {
		fmt.Printf("%s=%s\n", ref.Storage, ref.Reference)
	}
	for _, e := range result.Errors {
		fmt.Fprintf(os.Stderr, "%s: %v\n", e.Storage, e.Cause)
	}
	return nil
}

func runGet(cCtx *cli.Context) error {
	m, stop, err := buildManager(cCtx)
	if err != nil {
		return err
	}
	defer stop()

	var descriptors []blob.ReadDescriptor
	for _, pair := range cCtx.StringSlice("ref") {
		name, ref, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("invalid --ref %q, expected backend=reference", pair)
		}
		descriptors = append(descriptors, blob.ReadDescriptor{Storage: blob.BackendName(name), Reference: ref})
	}

	result, err := m.GetBlob(cCtx.Context, descriptors...)
	if err != nil {
		return err
	}

	out := os.Stdout
	if path := cCtx.String("out"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	_, err = out.Write(result.Data)
	return err
}

func runBackends(cCtx *cli.Context) error {
	m, stop, err := buildManager(cCtx)
	if err != nil {
		return err
	}
	defer stop()

	for _, name := range []blob.BackendName{blob.Postgres, blob.Google, blob.Swarm, blob.File, blob.Vault} {
		if _, ok := m.GetStorage(name); ok {
			fmt.Println(name)
		}
	}
	return nil
}

