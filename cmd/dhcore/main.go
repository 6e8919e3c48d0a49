// dhcore serves the REST API of the platform core over an in-memory backend.
//
// It lets the SDK and the dhub CLI run against a process-local core,
// for development and for tests of pipelines.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/scc-digitalhub/digitalhub-go/cmd/dhcore/handlers"
	"github.com/scc-digitalhub/digitalhub-go/cmd/dhcore/seed"
	"github.com/scc-digitalhub/digitalhub-go/pkg/buildtime"
	"github.com/scc-digitalhub/digitalhub-go/pkg/client/local"
	"github.com/scc-digitalhub/digitalhub-go/pkg/client/remote"
	"github.com/scc-digitalhub/digitalhub-go/pkg/configs/server"
	"github.com/scc-digitalhub/digitalhub-go/pkg/echoutil"
	"github.com/scc-digitalhub/digitalhub-go/pkg/metrics"
	"github.com/scc-digitalhub/digitalhub-go/pkg/sdk"
	"github.com/scc-digitalhub/digitalhub-go/pkg/utils/filewatch"
)

func main() {
	configPath := flag.String("config-path", "", "server config path")
	loglevel := flag.String("loglevel", "", "log level, overriding config. debug|info|warn|error|off")
	pversion := flag.Bool("version", false, "show version")
	flag.Parse()

	if *pversion {
		log.Println(buildtime.VersionString())
		return
	}

	conf := server.Default()
	if *configPath != "" {
		c, err := server.Load(*configPath)
		if err != nil {
			log.Fatalf("can not read configration: %s", err)
		}
		conf = c
	}
	if *loglevel != "" {
		conf.LogLevel = *loglevel
	}

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())

	// set log
	echoutil.SetLevel(e, conf.LogLevel)
	e.HTTPErrorHandler = func(err error, ctx echo.Context) {
		e.DefaultHTTPErrorHandler(err, ctx)
		e.Logger.Error(err)
	}
	e.Use(middleware.Recover())
	e.Use(echoutil.LogHandlerFunc)
	e.Use(echoutil.MetricsHandlerFunc)
	e.Use(handlers.APILevel(remote.LibAPILevel))

	backend := local.New()

	ctx := context.Background()
	if conf.Seed != "" {
		s, err := sdk.New(sdk.WithClients(backend, nil), sdk.WithLogger(e.Logger))
		if err != nil {
			log.Fatalf("can not prepare seeding: %s", err)
		}
		names, err := seed.Projects(ctx, s, conf.Seed)
		if err != nil {
			log.Fatalf("can not load projects in %s: %s", conf.Seed, err)
		}
		log.Printf("%d projects are loaded from %s", len(names), conf.Seed)
	}

	if *configPath != "" {
		wctx, cancel, err := filewatch.UntilModifyContext(ctx, *configPath)
		if err != nil {
			log.Fatalf("can not watch configration: %s", err)
		}
		defer cancel()
		context.AfterFunc(wctx, func() {
			log.Printf("config file is updated (%s). quit to restart server.", context.Cause(wctx))
			graceful, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := e.Shutdown(graceful); err != nil {
				log.Printf("error on shutdown by config update: %s", err)
			}
		})
	}

	metrics.Register()
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	handlers.Routes(e, backend, conf.PageSize)

	log.Println("registred routes:")
	for _, r := range e.Routes() {
		log.Println(r.Method, r.Path)
	}

	if err := e.Start(":" + conf.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		e.Logger.Fatal(err)
	}
}
