// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package main contains the certificate authority main function to start the service.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/url"
	"os"
	"time"

	"github.com/absmach/cloudca"
	"github.com/absmach/cloudca/certs"
	"github.com/absmach/cloudca/certs/api"
	"github.com/absmach/cloudca/certs/bolt"
	"github.com/absmach/cloudca/certs/cache"
	"github.com/absmach/cloudca/certs/middleware"
	"github.com/absmach/cloudca/certs/pki"
	certspg "github.com/absmach/cloudca/certs/postgres"
	"github.com/absmach/cloudca/internal/env"
	mglog "github.com/absmach/cloudca/logger"
	jaegerclient "github.com/absmach/cloudca/pkg/jaeger"
	pgclient "github.com/absmach/cloudca/pkg/postgres"
	"github.com/absmach/cloudca/pkg/prometheus"
	redisclient "github.com/absmach/cloudca/pkg/redis"
	"github.com/absmach/cloudca/pkg/server"
	"github.com/absmach/cloudca/pkg/server/http"
	"github.com/absmach/cloudca/pkg/uuid"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const (
	svcName        = "certificate_authority"
	envPrefixCA    = "MG_CA_"
	envPrefixDB    = "MG_CA_DB_"
	envPrefixHTTP  = "MG_CA_HTTP_"
	defDB          = "certificate_authority"
	defSvcHTTPPort = "8448"

	storePostgres = "postgres"
	storeBolt     = "bolt"
)

type config struct {
	LogLevel       string        `env:"MG_CA_LOG_LEVEL"                        envDefault:"info"`
	NegOffsetMin   int           `env:"MG_CA_CERT_VALIDITY_NEG_OFFSET_MINUTES" envDefault:"1"`
	PosOffsetMin   int           `env:"MG_CA_CERT_VALIDITY_POS_OFFSET_MINUTES" envDefault:"525600"`
	ProtectedNames []string      `env:"MG_CA_PROTECTED_NAMES"                  envDefault:"sysop"          envSeparator:","`
	StoreTimeout   time.Duration `env:"MG_CA_STORE_TIMEOUT"                    envDefault:"5s"`
	Store          string        `env:"MG_CA_STORE"                            envDefault:"postgres"`
	BoltPath       string        `env:"MG_CA_BOLT_PATH"                        envDefault:"cloudca.db"`
	CacheURL       string        `env:"MG_CA_CACHE_URL"                        envDefault:""`
	CacheTTL       time.Duration `env:"MG_CA_CACHE_TTL"                        envDefault:"1m"`
	TrustHeader    bool          `env:"MG_CA_TRUST_REQUESTER_HEADER"           envDefault:"false"`
	InstanceID     string        `env:"MG_CA_INSTANCE_ID"                      envDefault:""`
	JaegerURL      url.URL       `env:"MG_JAEGER_URL"                          envDefault:"http://localhost:4318/v1/traces"`
	TraceRatio     float64       `env:"MG_JAEGER_TRACE_RATIO"                  envDefault:"1.0"`
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)

	if err := cloudca.LoadEnvFile(os.Getenv("MG_CA_ENV_FILE")); err != nil {
		log.Fatalf("failed to load %s env file : %s", svcName, err)
	}

	cfg := config{}
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("failed to load %s configuration : %s", svcName, err)
	}

	logger, err := mglog.New(os.Stdout, cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to init logger: %s", err)
	}

	var exitCode int
	defer mglog.ExitWithError(&exitCode)

	if cfg.InstanceID == "" {
		if cfg.InstanceID, err = uuid.New().ID(); err != nil {
			logger.Error(fmt.Sprintf("failed to generate instanceID: %s", err))
			exitCode = 1
			return
		}
	}

	pkiConfig := pki.Config{}
	if err := env.Parse(&pkiConfig, env.Options{Prefix: envPrefixCA}); err != nil {
		logger.Error(fmt.Sprintf("failed to load key store configuration : %s", err))
		exitCode = 1
		return
	}
	authority, err := pki.Load(ctx, pkiConfig)
	if err != nil {
		logger.Error(fmt.Sprintf("failed to load certificate authority key material: %s", err))
		exitCode = 1
		return
	}
	logger.Info("Loaded certificate authority",
		slog.String("cloud_common_name", authority.CloudCommonName()),
		slog.Any("protected_names", certs.NewPolicy(cfg.ProtectedNames, authority.CloudCommonName()).ProtectedNames()),
	)

	tp, err := jaegerclient.NewProvider(ctx, svcName, &cfg.JaegerURL, cfg.InstanceID, cfg.TraceRatio)
	if err != nil {
		logger.Error(fmt.Sprintf("failed to init Jaeger: %s", err))
		exitCode = 1
		return
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("error shutting down tracer provider: %s", err))
		}
	}()
	tracer := tp.Tracer(svcName)

	repo, keys, closeStore, err := newStores(cfg, tracer)
	if err != nil {
		logger.Error(err.Error())
		exitCode = 1
		return
	}
	defer closeStore()

	if cfg.CacheURL != "" {
		client, err := redisclient.Connect(cfg.CacheURL)
		if err != nil {
			logger.Error(fmt.Sprintf("failed to connect to status cache: %s", err))
			exitCode = 1
			return
		}
		defer client.Close()
		repo = cache.NewRepository(repo, client, cfg.CacheTTL)
		logger.Info("Status cache enabled", slog.String("ttl", cfg.CacheTTL.String()))
	}

	svc := newService(authority, repo, keys, cfg, logger, tracer)

	httpServerConfig := server.Config{Port: defSvcHTTPPort}
	if err := env.Parse(&httpServerConfig, env.Options{Prefix: envPrefixHTTP}); err != nil {
		logger.Error(fmt.Sprintf("failed to load %s HTTP server configuration : %s", svcName, err))
		exitCode = 1
		return
	}

	hs := http.NewServer(ctx, cancel, svcName, httpServerConfig, api.MakeHandler(svc, logger, cfg.InstanceID, cfg.TrustHeader), logger)

	g.Go(func() error {
		return hs.Start()
	})

	g.Go(func() error {
		return server.StopSignalHandler(ctx, cancel, logger, svcName, hs)
	})

	if err := g.Wait(); err != nil {
		logger.Error(fmt.Sprintf("%s service terminated: %s", svcName, err))
	}
}

func newStores(cfg config, tracer trace.Tracer) (certs.Repository, certs.KeyRepository, func(), error) {
	switch cfg.Store {
	case storePostgres:
		dbConfig := pgclient.Config{Name: defDB}
		if err := env.Parse(&dbConfig, env.Options{Prefix: envPrefixDB}); err != nil {
			return nil, nil, nil, fmt.Errorf("failed to load database configuration : %w", err)
		}
		db, err := pgclient.Setup(dbConfig, *certspg.Migration())
		if err != nil {
			return nil, nil, nil, err
		}
		database := pgclient.NewDatabase(db, dbConfig, tracer)

		return certspg.NewRepository(database), certspg.NewKeyRepository(database), func() { db.Close() }, nil
	case storeBolt:
		db, err := bolt.Open(cfg.BoltPath, cfg.StoreTimeout)
		if err != nil {
			return nil, nil, nil, err
		}

		return bolt.NewRepository(db), bolt.NewKeyRepository(db), func() { db.Close() }, nil
	default:
		return nil, nil, nil, fmt.Errorf("unsupported store %q", cfg.Store)
	}
}

func newService(authority *certs.Authority, repo certs.Repository, keys certs.KeyRepository, cfg config, logger *slog.Logger, tracer trace.Tracer) certs.Service {
	svc := certs.New(authority, repo, keys, certs.Config{
		NegativeOffset: time.Duration(cfg.NegOffsetMin) * time.Minute,
		PositiveOffset: time.Duration(cfg.PosOffsetMin) * time.Minute,
		ProtectedNames: cfg.ProtectedNames,
		StoreTimeout:   cfg.StoreTimeout,
	})
	svc = middleware.LoggingMiddleware(svc, logger)
	counter, latency := prometheus.MakeMetrics("certificate_authority", "api")
	outcomes := prometheus.MakeOutcomeCounter("certificate_authority", "api")
	svc = middleware.MetricsMiddleware(svc, counter, latency, outcomes)
	svc = middleware.TracingMiddleware(svc, tracer)

	return svc
}
