package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mapaction/hazardview/internal/geo"
	"github.com/mapaction/hazardview/internal/table"

	"github.com/jessevdk/go-flags"
	"github.com/paulmach/orb/geojson"
	"gopkg.in/yaml.v3"
)

type Options struct {
	Input  string `short:"i" long:"in" description:"Input file path (name,latitude,longitude table). Reads from stdin if empty"`
	Output string `short:"o" long:"out" description:"Output file path. Writes to stdout if empty"`
	Format string `short:"f" long:"format" description:"Output format" choice:"json" choice:"yaml" default:"json"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	// Read Input
	var inputData []byte
	var err error

	if opts.Input != "" {
		inputData, err = os.ReadFile(opts.Input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading input file: %v\n", err)
			os.Exit(1)
		}
	} else {
		inputData, err = io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading stdin: %v\n", err)
			os.Exit(1)
		}
	}

	fc, skipped := convert(string(inputData))
	for _, s := range skipped {
		fmt.Fprintf(os.Stderr, "Skipping line %d: %v\n", s.line, s.err)
	}

	outputData, err := marshal(fc, opts.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling data: %v\n", err)
		os.Exit(1)
	}

	if opts.Output != "" {
		err = os.WriteFile(opts.Output, outputData, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Successfully converted %d rows to %s (format: %s)\n", len(fc.Features), opts.Output, opts.Format)
	} else {
		fmt.Println(string(outputData))
	}
}

type skippedRow struct {
	err  error
	line int
}

// convert turns every row with a valid position into a Point feature.
// Columns after latitude and longitude become properties named by the header.
func convert(text string) (*geojson.FeatureCollection, []skippedRow) {
	header, records := table.Records(text)
	fc := geojson.NewFeatureCollection()
	var skipped []skippedRow

	for _, rec := range records {
		row := rec.Cells
		if len(row) < 3 {
			skipped = append(skipped, skippedRow{line: rec.Line, err: fmt.Errorf("%d columns, want at least 3", len(row))})
			continue
		}

		pos, err := geo.ParseLatLng(row[1], row[2])
		if err != nil {
			skipped = append(skipped, skippedRow{line: rec.Line, err: err})
			continue
		}

		f := geojson.NewFeature(pos.Point())
		f.Properties[geo.NameProperty] = row[0]
		for j := 3; j < len(row) && j < len(header); j++ {
			f.Properties[header[j]] = row[j]
		}
		fc.Append(f)
	}

	return fc, skipped
}

func marshal(fc *geojson.FeatureCollection, format string) ([]byte, error) {
	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil || format != "yaml" {
		return data, err
	}

	// orb geometries only know JSON; go through a generic tree for YAML
	var tree any
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, err
	}
	return yaml.Marshal(tree)
}
