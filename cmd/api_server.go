package cmd

import (
	"fmt"
	"log"
	"time"

	"region-index/internal"
	"region-index/routes"

	"github.com/Depado/ginprom"
	"github.com/aurowora/compress"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/kofalt/go-memoize"
	"github.com/tavsec/gin-healthcheck/checks"
	cachecontrol "go.eigsys.de/gin-cachecontrol/v2"

	healthcheck "github.com/tavsec/gin-healthcheck"
	hc_config "github.com/tavsec/gin-healthcheck/config"
)

type ServerConfig struct {
	Catalog CatalogConfig
	Points  string
	Kind    string
	Port    int
	Debug   bool
}

func ApiServer(cfg ServerConfig) {
	log.Printf("Loading region catalog from: %s", cfg.Catalog.Regions)
	index, assigner, err := cfg.Catalog.build()
	if err != nil {
		log.Fatalf("failed to create region index: %v", err)
	}

	pointIndex := newPointIndex(nil)
	if cfg.Points != "" {
		log.Printf("Loading %s records from: %s", cfg.Kind, cfg.Points)
		points, report, err := assignedPoints(assigner, cfg.Points, cfg.Kind)
		if err != nil {
			log.Fatalf("failed to load points: %v", err)
		}
		printReport(report)
		pointIndex = newPointIndex(points)
		log.Printf("Point spatial index created with %d entries", pointIndex.Len())
	}

	r := gin.New()

	prometheus := ginprom.New(
		ginprom.Engine(r),
		ginprom.Path("/metrics"),
		ginprom.Ignore("/healthz"),
	)

	r.Use(
		gin.Recovery(),
		gin.LoggerWithWriter(gin.DefaultWriter, "/healthz", "/metrics"),
		prometheus.Instrument(),
		compress.Compress(),
		cachecontrol.New(cachecontrol.CacheAssetsForeverPreset),
		cors.Default(),
	)

	if cfg.Debug {
		log.Println("WARNING: pprof endpoints are enabled and exposed. Do not run with this flag in production.")
		pprof.Register(r)
	}

	err = healthcheck.New(r, hc_config.DefaultConfig(), []checks.Check{})
	if err != nil {
		log.Fatalf("failed to initialize healthcheck: %v", err)
	}

	cache := memoize.NewMemoizer(5*time.Minute, 10*time.Minute)

	r.GET("/v1/regions/lookup", routes.RegionLookup(index, assigner))
	r.GET("/v1/regions/:id", routes.RegionFeature(internal.NewRegionsRepo(index, cache)))
	r.POST("/v1/assign", routes.AssignPoints(assigner))
	r.GET("/v1/points", routes.PointSearch(pointIndex))

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Printf("Starting HTTP API Server on port %d...", cfg.Port)
	err = r.Run(addr)
	log.Fatalf("HTTP API Server failed to start on port %d: %v", cfg.Port, err)
}
