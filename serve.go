package main

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
	cs "github.com/webtor-io/common-services"

	wc "github.com/webtor-io/movie-catalog/handlers/catalog"
	wp "github.com/webtor-io/movie-catalog/handlers/poster"
	"github.com/webtor-io/movie-catalog/services/catalog"
	"github.com/webtor-io/movie-catalog/services/metrics"
	"github.com/webtor-io/movie-catalog/services/poster"
	"github.com/webtor-io/movie-catalog/services/tmdb"
	w "github.com/webtor-io/movie-catalog/services/web"
)

func makeServeCMD() cli.Command {
	serveCMD := cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Serves web server",
		Action:  serve,
	}
	configureServe(&serveCMD)
	return serveCMD
}

func configureServe(c *cli.Command) {
	c.Flags = cs.RegisterProbeFlags(c.Flags)
	c.Flags = cs.RegisterPprofFlags(c.Flags)
	c.Flags = w.RegisterFlags(c.Flags)
	c.Flags = catalog.RegisterFlags(c.Flags)
	c.Flags = configurePoster(c.Flags)
}

// configurePoster registers everything the poster resolver depends on.
func configurePoster(f []cli.Flag) []cli.Flag {
	f = cs.RegisterRedisClientFlags(f)
	f = tmdb.RegisterFlags(f)
	f = poster.RegisterFlags(f)
	return f
}

func makePosterResolver(c *cli.Context) (*poster.Resolver, func()) {
	// Setting HTTP Client
	cl := &http.Client{
		Timeout: 30 * time.Second,
	}

	// Setting Redis
	redis := cs.NewRedisClient(c)
	closer := func() {
		redis.Close()
	}

	// Setting TMDB API
	api := tmdb.New(c, cl, redis)
	if api == nil {
		log.Warn("tmdb api key is not set, only cached posters will be served")
	}

	return poster.New(c, api), closer
}

func serve(c *cli.Context) error {
	// Setting Catalog
	cat, err := catalog.NewFromContext(c)
	if err != nil {
		return err
	}

	// Setting Poster Resolver
	pr, closer := makePosterResolver(c)
	defer closer()
	err = pr.EnsureDir()
	if err != nil {
		return err
	}

	// Setting Metrics
	metrics.Register(prometheus.DefaultRegisterer)

	var servers []cs.Servable
	// Setting Probe
	probe := cs.NewProbe(c)
	if probe != nil {
		servers = append(servers, probe)
		defer probe.Close()
	}

	// Setting Pprof
	pprof := cs.NewPprof(c)
	if pprof != nil {
		servers = append(servers, pprof)
		defer pprof.Close()
	}

	// Setting Gin
	r := gin.New()
	r.Use(gin.Recovery(), w.RequestID, w.Logger, w.Metrics)
	r.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", w.RequestIDHeader},
		MaxAge:       12 * time.Hour,
	}))

	// Setting Web
	web, err := w.New(c, r)
	if err != nil {
		return err
	}
	servers = append(servers, web)
	defer web.Close()

	// Setting CatalogHandler
	wc.RegisterHandler(r, cat)

	// Setting PosterHandler
	wp.RegisterHandler(r, pr)

	// Setting Metrics Handler
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Setting Serve
	serve := cs.NewServe(servers...)

	// And SERVE!
	err = serve.Serve()
	if err != nil {
		log.WithError(err).Error("got server error")
	}
	return err
}
