/*
Copyright © 2025 the forestcarbon authors.
This file is part of forestcarbon.

forestcarbon is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

forestcarbon is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with forestcarbon.  If not, see <http://www.gnu.org/licenses/>.
*/

package forestcarbonutil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ctessum/geom/proj"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/forestcarbon"
	"github.com/spatialmodel/forestcarbon/gridstore"
	"github.com/spf13/cobra"
)

// ioStore reads inputs from one store and saves outputs to another.
// Grids that are not among the inputs are looked for among the outputs
// of earlier runs.
type ioStore struct {
	forestcarbon.GridStore
	out forestcarbon.GridStore
}

func (s ioStore) LoadGrid(ctx context.Context, name string) (*forestcarbon.Grid, error) {
	g, err := s.GridStore.LoadGrid(ctx, name)
	var mi *forestcarbon.MissingInputError
	if errors.As(err, &mi) {
		if og, oerr := s.out.LoadGrid(ctx, name); oerr == nil {
			return og, nil
		}
	}
	return g, err
}

func (s ioStore) SaveGrid(ctx context.Context, name string, g *forestcarbon.Grid) error {
	return s.out.SaveGrid(ctx, name, g)
}

func (s ioStore) SaveRegions(ctx context.Context, name string, regions []forestcarbon.Region) error {
	rs, ok := s.out.(forestcarbon.RegionSaver)
	if !ok {
		return fmt.Errorf("forestcarbonutil: the output store can't save regions")
	}
	return rs.SaveRegions(ctx, name, regions)
}

// RunConfig holds the settings for Run that are not part of the
// analysis configuration.
type RunConfig struct {
	// DataDir is the directory or blob storage URL that inputs are read from.
	DataDir string

	// OutputDir is where outputs are saved.
	OutputDir string

	// OutputFormat is the file extension that grids are saved with.
	OutputFormat string

	// LogFile is where the log is written to, in addition to the command
	// output.
	LogFile string

	// GridProj, if not nil, is the spatial reference that region sets are
	// projected to.
	GridProj *proj.SR

	// CacheSize is the number of loaded inputs kept in memory.
	CacheSize int
}

// Run runs the given stages (or the full analysis if stages is nil) and
// saves the results and a run report.
func Run(cmd *cobra.Command, rc RunConfig, cfg *forestcarbon.Config, stages []forestcarbon.Stage) (result *forestcarbon.Result, err error) {
	ctx := context.Background()
	startTime := time.Now()

	var upload uploader
	defer upload.cleanup()

	logfile, err := os.Create(upload.maybeUpload(rc.LogFile))
	if err != nil {
		return nil, fmt.Errorf("forestcarbon: problem creating log file: %v", err)
	}
	defer logfile.Close()
	log := logrus.New()
	log.Out = io.MultiWriter(cmd.OutOrStdout(), logfile)
	log.Formatter = &logrus.TextFormatter{DisableColors: true, FullTimestamp: true}

	in, err := openStore(ctx, rc.DataDir, rc)
	if err != nil {
		return nil, err
	}
	defer closeStore(in)
	out, err := openStore(ctx, rc.OutputDir, rc)
	if err != nil {
		return nil, err
	}
	defer closeStore(out)
	store := ioStore{GridStore: in, out: out}

	// Upload whatever was registered, including the log of a failed run.
	defer func() {
		logfile.Sync()
		if uerr := upload.uploadOutput(ctx); uerr != nil && err == nil {
			result, err = nil, uerr
		}
	}()

	p := forestcarbon.NewPipeline(cfg, log)
	if stages != nil {
		p.Stages = stages
	}
	result, err = p.Run(ctx, store, *cfg)
	if err != nil {
		log.WithError(err).Error("run failed")
		return nil, err
	}

	reportFile := joinLocation(rc.OutputDir, "run_report_"+cfg.Label()+".toml")
	if err := writeReport(upload.maybeUpload(reportFile), newReport(cfg, result, startTime)); err != nil {
		return nil, err
	}
	log.WithField("file", reportFile).Info("wrote run report")
	return result, nil
}

func openStore(ctx context.Context, location string, rc RunConfig) (forestcarbon.GridStore, error) {
	s, err := gridstore.Open(ctx, location, rc.GridProj, rc.CacheSize)
	if err != nil {
		return nil, err
	}
	if rc.OutputFormat != "" {
		switch st := s.(type) {
		case *gridstore.Dir:
			st.SaveFormat = rc.OutputFormat
		case *gridstore.Bucket:
			st.SetSaveFormat(rc.OutputFormat)
		}
	}
	return s, nil
}

func closeStore(s forestcarbon.GridStore) {
	if c, ok := s.(io.Closer); ok {
		c.Close()
	}
}

// report summarizes a run.
type report struct {
	Version    string
	Label      string
	ConfigHash string
	Start, End time.Time
	Duration   string

	Percentile    float64
	Interpolation string
	CarbonSource  string
	ForestRemap   string

	Zones             int
	HighPriorityCells int
	ZoneTable         []zoneReport
	Outputs           []string
	Warnings          []string
	Stages            []stageReport
	Filter            *filterReport `toml:",omitempty"`
}

type zoneReport struct {
	Zone        int
	Ecoregion   string
	ForestClass int
	Threshold   float64 `toml:",omitempty"`
}

type stageReport struct {
	Name    string
	Seconds float64
}

type filterReport struct {
	Median        float64
	Selected      []string
	CarbonTotals  map[string]float64
	FilteredCells int
}

func newReport(cfg *forestcarbon.Config, r *forestcarbon.Result, start time.Time) *report {
	end := time.Now()
	o := &report{
		Version:       forestcarbon.Version,
		Label:         cfg.Label(),
		ConfigHash:    r.ConfigHash,
		Start:         start,
		End:           end,
		Duration:      end.Sub(start).String(),
		Percentile:    cfg.Percentile,
		Interpolation: cfg.Interpolation.String(),
		CarbonSource:  string(cfg.CarbonSource),
		ForestRemap:   cfg.ForestRemap.String(),
		Outputs:       r.Outputs(),
	}
	if r.Zones != nil {
		o.Zones = len(r.Zones.Table)
		for _, id := range r.Zones.Table.IDs() {
			t := r.Zones.Table[id]
			z := zoneReport{Zone: id, ForestClass: t[1]}
			if t[0] >= 1 && t[0] <= len(r.EcoregionNames) {
				z.Ecoregion = r.EcoregionNames[t[0]-1]
			}
			if v, ok := r.Thresholds[id]; ok {
				z.Threshold = v
			}
			o.ZoneTable = append(o.ZoneTable, z)
		}
	}
	if r.HighPriority != nil {
		o.HighPriorityCells = r.HighPriority.Count()
	}
	for _, w := range r.Warnings {
		o.Warnings = append(o.Warnings, w.Error())
	}
	for _, t := range r.Timings {
		o.Stages = append(o.Stages, stageReport{Name: t.Stage, Seconds: t.Duration.Seconds()})
	}
	if f := r.Filter; f != nil {
		selected := append([]string{}, f.Selected...)
		sort.Strings(selected)
		o.Filter = &filterReport{
			Median:        f.Median,
			Selected:      selected,
			CarbonTotals:  f.Sums,
			FilteredCells: f.Grid.Count(),
		}
	}
	return o
}

func writeReport(path string, r *report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("forestcarbon: creating run report: %v", err)
	}
	if err := toml.NewEncoder(f).Encode(r); err != nil {
		f.Close()
		return fmt.Errorf("forestcarbon: writing run report: %v", err)
	}
	return f.Close()
}
