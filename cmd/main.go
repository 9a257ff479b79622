package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/pprof"
	"net/url"
	"os"
	"reflect"
	"strings"
	"syscall"
	"time"

	"github.com/aukilabs/go-tooling/pkg/cli"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/events"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/go-tooling/pkg/metrics"
	"github.com/aukilabs/pointquad/featureflag"
	pqhttp "github.com/aukilabs/pointquad/http"
	"github.com/aukilabs/pointquad/models"
	"github.com/aukilabs/pointquad/smoketest"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/encoding/json"
	"golang.org/x/net/websocket"
)

var (
	// The pointquad version number. Set at build.
	version = "v0.1.0"

	infoGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name:        "pointquad_info",
		Help:        "Pointquad information.",
		ConstLabels: prometheus.Labels{"version": version},
	})
)

// This will effectively disable obfuscation of the config struct. Without it, the keys would get obfuscated causing the cli package to generate garbled command-line options.
// https://github.com/burrowers/garble/issues/403
var _ = reflect.TypeOf(config{})

type config struct {
	Addr                string        `cli:""        env:"POINTQUAD_ADDR"                   help:"Listening address for client connections."`
	AdminAddr           string        `cli:""        env:"POINTQUAD_ADMIN_ADDR"             help:"Admin listening address."`
	PublicEndpoint      string        `cli:""        env:"POINTQUAD_PUBLIC_ENDPOINT"        help:"The public endpoint where this server is reachable."`
	ServerID            string        `cli:",hidden" env:"POINTQUAD_SERVER_ID"              help:"The server id used as a prefix of global index ids."`
	Token               string        `cli:""        env:"POINTQUAD_TOKEN"                  help:"The bearer token required by the index API. Empty disables authorization."`
	TokenFile           string        `cli:""        env:"POINTQUAD_TOKEN_FILE"             help:"The file that contains the bearer token required by the index API."`
	MaxPointsPerRequest int           `cli:",hidden" env:"POINTQUAD_MAX_POINTS_PER_REQUEST" help:"The maximum number of points accepted by an insertion request."`
	ShutdownTimeout     time.Duration `cli:",hidden" env:"POINTQUAD_SHUTDOWN_TIMEOUT"       help:"The time given to servers to drain requests on shutdown."`
	LogLevel            string        `cli:""        env:"POINTQUAD_LOG_LEVEL"              help:"Log level (debug|info|warning|error)."`
	LogIndent           bool          `cli:""        env:"POINTQUAD_LOG_INDENT"             help:"Indent logs."`
	Events              eventsConfig  `cli:",hidden" env:"-"                                help:"Event pusher configuration."`
	FeatureFlags        []string      `cli:",hidden" env:"POINTQUAD_FEATURE_FLAGS"          help:"Comma separated feature flags"`
	Version             bool          `cli:""        env:"-"                                help:"Show version."`
	Help                bool          `cli:""        env:"-"                                help:"Show help."`
}

type eventsConfig struct {
	Endpoint      string        `cli:",hidden" env:"POINTQUAD_EVENTS_ENDPOINT"       help:"Endpoint to where events are pushed."`
	FlushInterval time.Duration `cli:",hidden" env:"POINTQUAD_EVENTS_FLUSH_INTERVAL" help:"The duration between each event flush."`
	BatchSize     int           `cli:",hidden" env:"POINTQUAD_EVENTS_BATCH_SIZE"     help:"The maximum number of events sent at once."`
	QueueSize     int           `cli:",hidden" env:"POINTQUAD_EVENTS_QUEUE_SIZE"     help:"The size of the queue where events are stored."`
}

func main() {
	conf := config{
		Addr:                ":4000",
		AdminAddr:           ":18190",
		PublicEndpoint:      "http://localhost:4000",
		ServerID:            "ted",
		MaxPointsPerRequest: 10000,
		ShutdownTimeout:     10 * time.Second,
		LogLevel:            logs.InfoLevel.String(),
		Events: eventsConfig{
			FlushInterval: events.DefaultFlushInterval,
			BatchSize:     events.DefaultBatchSize,
			QueueSize:     events.DefaultQueueSize,
		},
	}

	// set the information gauge to 1, useful for SUM query
	infoGauge.Set(1)

	ctx, cancel := cli.ContextWithSignals(context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	cli.Register().
		Help("Starts a point quadtree server.").
		Options(&conf)
	cli.Load()

	if conf.Version {
		fmt.Println(version)
		os.Exit(0)
	}

	if err := validateConfig(conf); err != nil {
		logs.Fatal(err)
	}

	token, err := loadToken(conf)
	if err != nil {
		logs.Fatal(errors.New("error loading token").Wrap(err))
	}

	logs.SetLevel(logs.ParseLevel(conf.LogLevel))
	logs.Encoder = json.Marshal
	if conf.LogIndent {
		logs.Encoder = func(v any) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		}
	}

	errors.Encoder = json.Marshal

	transport := metrics.HTTPTransport(http.DefaultTransport)

	if conf.Events.Endpoint != "" {
		eventsPusher := events.Pusher{
			Endpoint:      conf.Events.Endpoint,
			FlushInterval: conf.Events.FlushInterval,
			BatchSize:     conf.Events.BatchSize,
			QueueSize:     conf.Events.QueueSize,
			Transport:     transport,
		}
		go eventsPusher.Start()
		defer eventsPusher.Close()

		eventsLogger := events.Logger{
			Pusher:           &eventsPusher,
			SDKType:          "pointquad",
			SDKVersionFamily: version,
		}
		logs.SetLogger(eventsLogger.Log)
	}

	featureFlags := featureflag.New(conf.FeatureFlags)
	indexes := models.IndexStore{
		ServerID: conf.ServerID,
	}

	var api http.ServeMux
	indexHandler := pqhttp.IndexHandler{
		Indexes:             &indexes,
		FeatureFlags:        featureFlags,
		MaxPointsPerRequest: conf.MaxPointsPerRequest,
	}
	indexHandler.Register(&api)

	readinessCheck := func() error {
		return ctx.Err()
	}

	var service http.ServeMux
	service.Handle("/indexes", pqhttp.VerifyToken(token, &api))
	service.Handle("/indexes/", pqhttp.VerifyToken(token, &api))
	service.HandleFunc("/health", pqhttp.HandleHealthCheck)
	service.HandleFunc("/ready", pqhttp.HandleReadyCheck(&indexes, readinessCheck))
	service.HandleFunc("/version", pqhttp.HandleVersion(version))

	service.Handle("POST /smoke-test", pqhttp.VerifyToken(token, smoketest.HandleSmokeTest(ctx, smoketest.Options{
		Endpoint:  conf.PublicEndpoint,
		UserAgent: fmt.Sprintf("Pointquad %s", version),
		Token:     token,
		Transport: transport,
		SendResult: func(ctx context.Context, res smoketest.Results) error {
			logs.WithTag("from_endpoint", res.FromEndpoint).
				WithTag("to_endpoint", res.ToEndpoint).
				WithTag("success", res.Success).
				WithTag("duration", res.Duration.String()).
				WithTag("error", res.Error).
				Info("smoke test is over")
			return nil
		},
	})))

	service.Handle("/ping", websocket.Server{
		Handler: func(ws *websocket.Conn) {
			defer ws.Close()
			io.Copy(ws, ws)
		},
	})

	var admin http.ServeMux
	admin.Handle("/metrics", promhttp.Handler())
	admin.HandleFunc("/health", pqhttp.HandleHealthCheck)
	admin.HandleFunc("/debug/pprof/", pprof.Index)
	admin.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	admin.HandleFunc("/debug/pprof/profile", pprof.Profile)
	admin.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	admin.HandleFunc("/debug/pprof/trace", pprof.Trace)
	admin.Handle("/debug/pprof/goroutine", pprof.Handler("goroutine"))
	admin.Handle("/debug/pprof/heap", pprof.Handler("heap"))
	admin.Handle("/debug/pprof/threadcreate", pprof.Handler("threadcreate"))
	admin.Handle("/debug/pprof/block", pprof.Handler("block"))
	admin.HandleFunc("/ready", pqhttp.HandleReadyCheck(&indexes, readinessCheck))

	logs.WithTag("version", version).
		WithTag("log_level", conf.LogLevel).
		WithTag("endpoint", conf.PublicEndpoint).
		WithTag("server_id", conf.ServerID).
		WithTag("auth", token != "").
		WithTag("feature_flags", featureFlags.Flags()).
		Info("starting pointquad server")

	err = pqhttp.ListenAndServe(ctx, conf.ShutdownTimeout,
		&http.Server{Addr: conf.Addr, Handler: metrics.HTTPHandler(&service,
			pqhttp.MetricsPathFormatter)},
		&http.Server{Addr: conf.AdminAddr, Handler: &admin},
	)
	if err != nil {
		logs.Error(err)
	}
}

func loadToken(conf config) (string, error) {
	token := conf.Token

	if len(conf.TokenFile) != 0 {
		tokenBytes, err := os.ReadFile(conf.TokenFile)
		if err != nil {
			return "", errors.New("error loading token from file").
				WithTag("file_name", conf.TokenFile).
				Wrap(err)
		}
		token = string(tokenBytes)
	}

	return strings.TrimSpace(token), nil
}

func validateConfig(conf config) error {
	if _, err := url.ParseRequestURI(conf.PublicEndpoint); err != nil {
		return errors.New("invalid public endpoint").Wrap(err)
	}

	if len(conf.Token) != 0 &&
		len(conf.TokenFile) != 0 {
		return errors.New("have to specify either token or token file, not both")
	}

	if conf.ServerID == "" {
		return errors.New("server id is empty")
	}

	if conf.MaxPointsPerRequest <= 0 {
		return errors.New("max points per request must be positive").
			WithTag("max_points_per_request", conf.MaxPointsPerRequest)
	}

	return nil
}
