package cmd

import (
	"context"
	"os"
	"os/signal"

	"gee-tools/extract"
	"gee-tools/gee"
	"gee-tools/pointsio"
	"gee-tools/sensor"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var pad float64
var s2Lvl int

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract [points_file]",
	Short: "Extract pixel values at points from Landsat 8 or Sentinel-2",
	Long: `Fetch every image covering each point in the date range and write
	one row per (point, image) to a CSV or Parquet file named after the
	product and dates, e.g. T1_TOA_2020-12-01_2020-12-31.csv.

	Points are read from a CSV with lat, lon and id columns, or from any
	vector file GDAL can open (shapefile, GeoJSON...).

	A QA_label column is derived from QA_PIXEL (Cloud, Snow) or QA60 (Cloud).
	Landsat angles are rescaled to degrees; Sentinel-2 reflectances are
	rescaled to 0-1 and solar/view angles are joined from the first scene.

	Options:
		--product:     LANDSAT/LC08/C02/T1_TOA (landsat8) or
		               COPERNICUS/S2_HARMONIZED (sentinel2)
		--start/--end: Date range, end exclusive.
		--idCol:       Column holding the point identifier.
		--pad:         Window in km around each point.
		--aggFunc:     Reduce a padded window per image: none, mean, sum, max, min.
		--format:      csv or parquet.
		--s2Lvl:       Add an s2_cell token column at this level, 0 to disable.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		setLogLevels()
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		opts, err := optionsFromConfig()
		if err != nil {
			return err
		}
		pts, err := pointsio.Read(args[0], viper.GetString("idCol"))
		if err != nil {
			return err
		}

		session, err := gee.NewSession(ctx, viper.GetString("project"), viper.GetString("credentials"))
		if err != nil {
			return err
		}
		var clientOpts []gee.Option
		if endpoint := viper.GetString("endpoint"); endpoint != "" {
			clientOpts = append(clientOpts, gee.WithEndpoint(endpoint))
		}
		client := gee.NewClient(session, clientOpts...)

		result, err := extract.Run(ctx, client, client, pts, opts)
		if err != nil {
			return err
		}
		path, err := extract.OutputPath(pts, opts)
		if err != nil {
			return err
		}
		if err := extract.Write(result, path, opts.Format); err != nil {
			return err
		}
		logrus.Infof("Wrote %d rows to %s", result.Len(), path)
		return nil
	},
}

func optionsFromConfig() (extract.Options, error) {
	sn, err := sensor.Parse(viper.GetString("product"))
	if err != nil {
		return extract.Options{}, err
	}
	start, err := extract.ParseDate(viper.GetString("start"))
	if err != nil {
		return extract.Options{}, err
	}
	end, err := extract.ParseDate(viper.GetString("end"))
	if err != nil {
		return extract.Options{}, err
	}
	format, err := extract.ParseFormat(viper.GetString("format"))
	if err != nil {
		return extract.Options{}, err
	}
	aggFunc, err := extract.ChooseAggFunc(viper.GetString("aggFunc"))
	if err != nil {
		return extract.Options{}, err
	}
	return extract.Options{
		Sensor:    sn,
		Start:     start,
		End:       end,
		Bands:     viper.GetStringSlice("bands"),
		Pad:       viper.GetFloat64("pad"),
		Aggregate: aggFunc,
		DestDir:   viper.GetString("dest"),
		Format:    format,
		S2Level:   viper.GetInt("s2Lvl"),
	}, nil
}

func bindFlag(name string) {
	if err := viper.BindPFlag(name, extractCmd.Flags().Lookup(name)); err != nil {
		logrus.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringP("product", "p", sensor.Landsat8TOA.String(), "Product id or alias: landsat8, sentinel2")
	bindFlag("product")

	extractCmd.Flags().String("start", "2020-12-01", "Start of the date range")
	bindFlag("start")

	extractCmd.Flags().String("end", "2020-12-31", "End of the date range, exclusive")
	bindFlag("end")

	extractCmd.Flags().String("idCol", "FID", "Column holding the point identifier")
	bindFlag("idCol")

	extractCmd.Flags().StringSlice("bands", nil, "Bands to extract, default B1,B2,B3,B4. Angle and QA bands are always added")
	bindFlag("bands")

	extractCmd.Flags().Float64Var(&pad, "pad", 0, "Window in km around each point, 0 samples the point only")
	bindFlag("pad")

	extractCmd.Flags().StringP("aggFunc", "a", "none", "Function reducing a padded window to one row per image, choose from: none, mean, sum, max, min")
	bindFlag("aggFunc")

	extractCmd.Flags().String("dest", "", "Output directory, default is next to the points file")
	bindFlag("dest")

	extractCmd.Flags().StringP("format", "f", "csv", "Output format, choose from: csv, parquet")
	bindFlag("format")

	extractCmd.Flags().IntVarP(&s2Lvl, "s2Lvl", "l", 0, "S2 cell level for the s2_cell column, 0 disables it")
	bindFlag("s2Lvl")

	extractCmd.Flags().String("project", "", "Earth Engine cloud project")
	bindFlag("project")

	extractCmd.Flags().String("credentials", "", "Service account key file, default is application default credentials")
	bindFlag("credentials")

	extractCmd.Flags().String("endpoint", "", "Earth Engine API endpoint, default "+gee.DefaultEndpoint+", e.g. "+gee.HighVolumeEndpoint)
	bindFlag("endpoint")
}
