package main

import (
	"log"
	"os"
	"strconv"

	"region-index/cmd"
	"region-index/internal"
	spatialindex "region-index/spatial-index"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func envInt(name string, fallback int) int {
	if v := os.Getenv(name); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			log.Fatalf("invalid %s value %q: %v", name, v, err)
		}
		return n
	}
	return fallback
}

func catalogFlags(c *cobra.Command, cfg *cmd.CatalogConfig) {
	c.Flags().StringVar(&cfg.Regions, "regions", "./data/regions.geojson.bz2", "Path or URL to region catalog (.geojson, .geojson.bz2, .shp or zipped shapefile)")
	c.Flags().StringVar(&cfg.Load.IDField, "id-field", "id", "Feature attribute holding the region id")
	c.Flags().StringVar(&cfg.Load.NameField, "name-field", "name", "Feature attribute holding the region name")
	c.Flags().StringVar(&cfg.Load.NamePrefix, "name-prefix", "", "Only keep regions whose name starts with this prefix")
	c.Flags().IntVar(&cfg.Load.ZeroPad, "zero-pad", 0, "Left-pad region ids with zeros to this width")
	c.Flags().IntVar(&cfg.Capacity, "capacity", envInt("REGION_INDEX_CAPACITY", spatialindex.DefaultCapacity), "Quadtree leaf capacity")
	c.Flags().IntVar(&cfg.Workers, "workers", envInt("REGION_INDEX_WORKERS", 0), "Batch assignment workers (0 = one per CPU)")
	c.Flags().StringVar(&cfg.TieBreak, "tie-break", "first", "Rule for points inside several regions: first or smallest-area")
}

func main() {
	_ = godotenv.Load(".env")

	var err error
	var assignCfg cmd.AssignConfig
	var serverCfg cmd.ServerConfig
	var shapefile, output string
	var compressOpts internal.LoadOptions

	rootCmd := &cobra.Command{
		Use:  "region-index",
		Long: `Point-to-region assignment, HTTP server & catalog conversion`,
	}

	assignCmd := &cobra.Command{
		Use:   "assign --regions <uri> --points <uri> --kind <crime|school> --output <path>",
		Short: "Assign point records to regions and write an enriched CSV",
		Run: func(_ *cobra.Command, _ []string) {
			cmd.Assign(assignCfg)
		},
	}
	catalogFlags(assignCmd, &assignCfg.Catalog)
	assignCmd.Flags().StringVar(&assignCfg.Points, "points", "", "Path or URL to point records CSV")
	assignCmd.Flags().StringVar(&assignCfg.Kind, "kind", cmd.KindCrime, "Point record kind: crime or school")
	assignCmd.Flags().StringVar(&assignCfg.Output, "output", "./data/assigned.csv", "Path to write the enriched CSV")
	_ = assignCmd.MarkFlagRequired("points")

	apiServerCmd := &cobra.Command{
		Use:   "api-server [--regions <uri>] [--points <uri> --kind <kind>] [--port <port>] [--debug]",
		Short: "Start HTTP API server",
		Run: func(_ *cobra.Command, _ []string) {
			cmd.ApiServer(serverCfg)
		},
	}
	catalogFlags(apiServerCmd, &serverCfg.Catalog)
	apiServerCmd.Flags().StringVar(&serverCfg.Points, "points", "", "Optional path or URL to point records CSV served by /v1/points")
	apiServerCmd.Flags().StringVar(&serverCfg.Kind, "kind", cmd.KindCrime, "Point record kind: crime or school")
	apiServerCmd.Flags().IntVar(&serverCfg.Port, "port", envInt("PORT", 8080), "Port to run HTTP server on")
	apiServerCmd.Flags().BoolVar(&serverCfg.Debug, "debug", false, "Enable debugging (pprof) - WARNING: do not enable in production")

	compressCmd := &cobra.Command{
		Use:   "compress-regions --shapefile <path> [--output <path>]",
		Short: "Convert a region shapefile into bzip2 GeoJSON",
		Run: func(_ *cobra.Command, _ []string) {
			cmd.CompressRegions(shapefile, output, compressOpts)
		},
	}
	compressCmd.Flags().StringVar(&shapefile, "shapefile", "", "Path to region shapefile (.shp), or path or URL to a zipped shapefile")
	compressCmd.Flags().StringVar(&output, "output", "./data/regions.geojson.bz2", "Path to write the compressed GeoJSON")
	compressCmd.Flags().StringVar(&compressOpts.IDField, "id-field", "id", "Feature attribute holding the region id")
	compressCmd.Flags().StringVar(&compressOpts.NameField, "name-field", "name", "Feature attribute holding the region name")
	compressCmd.Flags().StringVar(&compressOpts.NamePrefix, "name-prefix", "", "Only keep regions whose name starts with this prefix")
	compressCmd.Flags().IntVar(&compressOpts.ZeroPad, "zero-pad", 0, "Left-pad region ids with zeros to this width")
	_ = compressCmd.MarkFlagRequired("shapefile")

	rootCmd.AddCommand(assignCmd)
	rootCmd.AddCommand(apiServerCmd)
	rootCmd.AddCommand(compressCmd)

	if err = rootCmd.Execute(); err != nil {
		log.Fatalf("failed to execute root command: %v", err)
	}
}
