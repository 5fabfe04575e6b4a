package app

import (
	"context"
	"crypto/tls"
	"expvar"
	"flag"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	grpc_middleware "github.com/grpc-ecosystem/go-grpc-middleware"
	grpc_recovery "github.com/grpc-ecosystem/go-grpc-middleware/recovery"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthgrpc "google.golang.org/grpc/health/grpc_health_v1"

	metrics_util "github.com/code-payments/payflow-server/pkg/metrics"
	"github.com/code-payments/payflow-server/pkg/osutil"
)

// App is a long lived application that services HTTP requests.
//
// The lifecycle of the App is tied to the process. The app gets initialized
// before the HTTP server runs, and gets stopped after the HTTP server has
// stopped serving.
type App interface {
	// Init initializes the application in a blocking fashion. When Init returns, it
	// is expected that the application is ready to start receiving requests.
	Init(config Config, metricsProvider *newrelic.Application) error

	// RegisterWithHTTP provides a mechanism for the application to register
	// handlers with the HTTP server.
	RegisterWithHTTP(mux *http.ServeMux)

	// ShutdownChan returns a channel that is closed when the application is shutdown.
	//
	// If the channel is closed, the HTTP server will initiate a shutdown if it has
	// not already done so.
	ShutdownChan() <-chan struct{}

	// Stop stops the service, allowing for it to clean up any resources. When Stop()
	// returns, the process exits.
	//
	// Stop should be idempotent.
	Stop()
}

var (
	configPath = flag.String("config", "config.yaml", "configuration file path")

	osSigCh = make(chan os.Signal, 1)
)

func init() {
	signal.Notify(osSigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)
}

func Run(app App, options ...Option) error {
	flag.Parse()

	logger := logrus.StandardLogger().WithField("type", "http/app")

	// A missing default config file is fine, everything can come from the
	// environment. An explicitly set file that cannot be read is not.
	path := *configPath
	if _, err := os.Stat(path); os.IsNotExist(err) {
		path = ""
	} else if err != nil {
		logger.WithError(err).Errorf("failed to check if config exists")
		os.Exit(1)
	}

	config, err := loadConfig(viper.GetViper(), path)
	if err != nil {
		logger.WithError(err).Error("failed to load config")
		os.Exit(1)
	}

	if len(config.AppName) == 0 {
		logger.Error("must specify an application name")
		os.Exit(1)
	}

	var metricsProvider *newrelic.Application
	if len(config.NewRelicLicenseKey) > 0 {
		nr, err := newrelic.NewApplication(
			newrelic.ConfigFromEnvironment(),
			newrelic.ConfigAppName(config.AppName),
			newrelic.ConfigLicense(config.NewRelicLicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			logrus.WithError(err).Error("error connecting to new relic")
			os.Exit(1)
		}

		metricsProvider = nr
	}

	configureLogger(config, metricsProvider)

	// We don't want to expose pprof/expvar publically, so we reset the default
	// http ServeMux, which will have those installed due to the init() function
	// in those packages.
	http.DefaultServeMux = http.NewServeMux()

	debugHTTPMux := http.NewServeMux()
	if config.EnableExpvar {
		debugHTTPMux.Handle("/debug/vars", expvar.Handler())
	}
	if config.EnablePprof {
		debugHTTPMux.HandleFunc("/debug/pprof/", pprof.Index)
		debugHTTPMux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		debugHTTPMux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		debugHTTPMux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		debugHTTPMux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}

	if config.EnableExpvar || config.EnablePprof {
		go func() {
			for {
				if err := http.ListenAndServe(config.DebugListenAddress, debugHTTPMux); err != nil {
					logger.WithError(err).Warn("Debug HTTP server failed. Retrying in 5s...")
				}
				time.Sleep(5 * time.Second)
			}
		}()
	}

	var ballast []byte
	if config.EnableBallast {
		ballast = make([]byte, ballastSize(osutil.GetTotalMemory(), config.BallastCapacity))
	}

	memoryLeakShutdownCh := make(chan struct{})
	if config.EnableMemoryLeakCron {
		cronJob := cron.New(cron.WithLocation(time.Local))
		_, err = cronJob.AddFunc(config.MemoryLeakCronSchedule, func() {
			close(memoryLeakShutdownCh)
		})
		if err != nil {
			logger.WithError(err).Error("failed to initialize memory leak cron")
			os.Exit(1)
		}
		cronJob.Start()
		defer cronJob.Stop()
	}

	var tlsConfig *tls.Config
	if config.TLSCertificate != "" {
		tlsConfig, err = loadTLSConfig(config.TLSCertificate, config.TLSKey)
		if err != nil {
			logger.WithError(err).Error("failed to load tls configuration")
			os.Exit(1)
		}
	}

	lis, err := net.Listen("tcp", config.ListenAddress)
	if err != nil {
		logger.WithError(err).Errorf("failed to listen on %s", config.ListenAddress)
		os.Exit(1)
	}
	if tlsConfig != nil {
		lis = tls.NewListener(lis, tlsConfig)
	}

	var healthLis net.Listener
	if len(config.HealthListenAddress) > 0 {
		healthLis, err = net.Listen("tcp", config.HealthListenAddress)
		if err != nil {
			logger.WithError(err).Errorf("failed to listen on %s", config.HealthListenAddress)
			os.Exit(1)
		}
	}

	opts := opts{
		httpMiddleware: []Middleware{
			recoveryMiddleware(logger),
			newRelicMiddleware(metricsProvider),
			requestIdMiddleware(),
		},
		unaryServerInterceptors: []grpc.UnaryServerInterceptor{
			grpc_recovery.UnaryServerInterceptor(),
		},
		streamServerInterceptors: []grpc.StreamServerInterceptor{
			grpc_recovery.StreamServerInterceptor(),
		},
	}
	for _, o := range options {
		o(&opts)
	}

	if err := app.Init(config.AppConfig, metricsProvider); err != nil {
		logger.WithError(err).Error("failed to initialize application")
		os.Exit(1)
	}

	mux := http.NewServeMux()
	app.RegisterWithHTTP(mux)

	httpServ := &http.Server{
		Handler:           chain(mux, opts.httpMiddleware...),
		ReadHeaderTimeout: 10 * time.Second,
	}

	healthServ := grpc.NewServer(
		grpc_middleware.WithUnaryServerChain(opts.unaryServerInterceptors...),
		grpc_middleware.WithStreamServerChain(opts.streamServerInterceptors...),
	)
	healthStatus := health.NewServer()
	healthgrpc.RegisterHealthServer(healthServ, healthStatus)

	httpServShutdownCh := make(chan struct{})
	healthServShutdownCh := make(chan struct{})

	go func() {
		if err := httpServ.Serve(lis); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("http serve stopped")
		} else {
			logger.Info("http server stopped")
		}

		close(httpServShutdownCh)
	}()

	if healthLis != nil {
		go func() {
			if err := healthServ.Serve(healthLis); err != nil {
				logger.WithError(err).Error("grpc health serve stopped")
			} else {
				logger.Info("grpc health server stopped")
			}

			close(healthServShutdownCh)
		}()
	}

	logger.WithFields(logrus.Fields{
		"listen_address":        config.ListenAddress,
		"health_listen_address": config.HealthListenAddress,
		"tls":                   tlsConfig != nil,
	}).Info("serving")

	// Wait for the following shutdown conditions:
	//    1. OS Signal telling us to shutdown
	//    2. A server has shutdown (for whatever reason)
	//    3. The application has shutdown (for whatever reason)
	select {
	case <-osSigCh:
		logger.Info("interrupt received, shutting down")
	case <-httpServShutdownCh:
		logger.Info("http server shutdown")
	case <-healthServShutdownCh:
		logger.Info("grpc health server shutdown")
	case <-memoryLeakShutdownCh:
		logger.Info("shutdown to deal with memory leak")
	case <-app.ShutdownChan():
		logger.Info("app shutdown")
	}

	healthStatus.Shutdown()

	shutdownCh := make(chan struct{})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownGracePeriod)
		defer cancel()

		// Both servers and the application have idempotent shutdown methods, so
		// it's fine call them all, regardless of the shutdown condition.
		if err := httpServ.Shutdown(ctx); err != nil {
			logger.WithError(err).Warn("http server did not shutdown cleanly")
		}
		healthServ.GracefulStop()
		app.Stop()

		close(shutdownCh)
	}()

	select {
	case <-shutdownCh:
		// Ensure the ballast is used to avoid any possible compiler optimizations
		// around unused variable.
		if len(ballast) > 0 {
			ballast[0] = 1
		}

		if metricsProvider != nil {
			metricsProvider.Shutdown(5 * time.Second)
		}

		return nil
	case <-time.After(config.ShutdownGracePeriod):
		return errors.Errorf("failed to stop the application within %v", config.ShutdownGracePeriod)
	}
}

// ballastSize returns the ballast allocation for capacity, capped at half of
// totalMemory.
func ballastSize(totalMemory uint64, capacity float32) uint64 {
	if capacity > 0.5 {
		capacity = 0.5
	}
	if capacity < 0 {
		capacity = 0
	}
	return uint64(float64(capacity) * float64(totalMemory))
}

func loadTLSConfig(certificateURL, keyURL string) (*tls.Config, error) {
	if keyURL == "" {
		return nil, errors.New("tls key must be provided if certificate is specified")
	}

	certBytes, err := LoadFile(certificateURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load tls certificate")
	}

	keyBytes, err := LoadFile(keyURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load tls key")
	}

	cert, err := tls.X509KeyPair(certBytes, keyBytes)
	if err != nil {
		return nil, errors.Wrap(err, "invalid certificate/private key")
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}

func configureLogger(config BaseConfig, metricsProvider *newrelic.Application) {
	if metricsProvider != nil {
		logrus.SetFormatter(metrics_util.NewCustomNewRelicLogFormatter(metricsProvider, &logrus.JSONFormatter{}))
	} else {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(strings.ToLower(config.LogLevel))
	if err != nil {
		logrus.StandardLogger().WithField("log_level", config.LogLevel).Warn("unknown log level, ignoring")
	} else {
		logrus.SetLevel(level)
	}

	logrus.SetOutput(os.Stdout)
}
