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

package forestcarbon

import (
	"context"
	"fmt"
	"time"

	"github.com/ctessum/geom"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/forestcarbon/internal/hash"
)

// CarbonSource specifies which carbon pool is evaluated.
type CarbonSource string

// These are the valid carbon sources.
const (
	Aboveground CarbonSource = "aboveground"
	Belowground CarbonSource = "belowground"
	Combined    CarbonSource = "combined" // aboveground + belowground
)

// ParseCarbonSource checks that s is a valid carbon source.
func ParseCarbonSource(s string) (CarbonSource, error) {
	switch c := CarbonSource(s); c {
	case Aboveground, Belowground, Combined:
		return c, nil
	}
	return "", fmt.Errorf("forestcarbon: invalid carbon source %q; valid options are aboveground, belowground and combined", s)
}

// Config holds the parameters of a high priority forest carbon run.
type Config struct {
	// Percentile is the within-zone carbon density percentile in [0, 100]
	// that a forest cell must exceed.
	Percentile    float64
	Interpolation Interpolation

	CarbonSource CarbonSource

	// ForestRemap collapses forest structural classes into the classes
	// used to form zones.
	ForestRemap RemapTable

	// Names of the input grids and region set in the GridStore.
	AbovegroundGrid, BelowgroundGrid string
	ForestGrid                       string
	RegionSet                        string

	// Filter specifies whether the output should be filtered to the
	// included biomes and the high-carbon ecoregions of interest.
	Filter bool

	// BiomesToInclude are the biomes whose ecoregions are always kept
	// by the filter.
	BiomesToInclude []string

	// EcoregionsOfInterest is the name of the list of candidate ecoregions.
	EcoregionsOfInterest string

	// TotalCarbonGrid optionally names a grid of total carbon per cell on
	// an equal-area grid. If it is empty, totals are calculated by
	// multiplying the carbon density in each forest cell by CellArea.
	TotalCarbonGrid string
	CellArea        float64

	// ClipMask, if not nil, restricts the inputs to a smaller area for
	// testing.
	ClipMask geom.Polygonal

	// VersionLabel is appended to output names. If empty, a label is
	// created from the percentile and the carbon source.
	VersionLabel string

	// SaveIntermediate specifies whether intermediate grids are saved.
	SaveIntermediate bool

	// HighPriorityGrid optionally names an existing high priority grid to be
	// filtered by FilterStages. If empty, the output of an earlier run with
	// the same label is used.
	HighPriorityGrid string
}

// DefaultBiomes are the biomes where industrial forestry occurs.
var DefaultBiomes = []string{
	"Boreal Forests/Taiga",
	"Temperate Broadleaf & Mixed Forests",
	"Temperate Conifer Forests",
	"Tropical & Subtropical Coniferous Forests",
	"Tropical & Subtropical Dry Broadleaf Forests",
	"Tropical & Subtropical Moist Broadleaf Forests",
}

// Label returns the version label used in output names.
func (c *Config) Label() string {
	l := c.VersionLabel
	if l == "" {
		l = fmt.Sprintf("%gth_percentile_%s", c.Percentile, c.CarbonSource)
	}
	if c.ClipMask != nil {
		l += "_subset"
	}
	return l
}

// Validate checks c for errors.
func (c *Config) Validate() error {
	if _, err := ParseCarbonSource(string(c.CarbonSource)); err != nil {
		return err
	}
	if err := (Statistic{Type: Percentile, Percentile: c.Percentile}).Validate(); err != nil {
		return err
	}
	if len(c.ForestRemap) == 0 {
		return fmt.Errorf("forestcarbon: the forest remap table is empty")
	}
	if c.ForestGrid == "" || c.RegionSet == "" {
		return fmt.Errorf("forestcarbon: the forest grid and ecoregion set must be specified")
	}
	if c.CarbonSource != Belowground && c.AbovegroundGrid == "" {
		return fmt.Errorf("forestcarbon: the aboveground carbon grid must be specified for carbon source %s", c.CarbonSource)
	}
	if c.CarbonSource != Aboveground && c.BelowgroundGrid == "" {
		return fmt.Errorf("forestcarbon: the belowground carbon grid must be specified for carbon source %s", c.CarbonSource)
	}
	if c.Filter {
		if c.EcoregionsOfInterest == "" {
			return fmt.Errorf("forestcarbon: filtering requires a list of ecoregions of interest")
		}
		if c.TotalCarbonGrid == "" && !(c.CellArea > 0) {
			return fmt.Errorf("forestcarbon: filtering requires either a total carbon grid or CellArea > 0")
		}
	}
	return nil
}

// Output names, without the version label.
const (
	OutputHighPriority         = "high_priority_forest_carbon_"
	OutputHighPriorityFiltered = "high_priority_forest_carbon_filtered_"
	outputCarbonClipped        = "carbon_clipped_to_forest_"
	outputForestReclassified   = "forest_reclassified_"
	outputZones                = "ecoregions_and_forest_zones_"
	outputThresholds           = "carbon_thresholds_"
	outputCellCarbon           = "carbon_in_each_forest_cell_"
	outputMask                 = "biome_and_ecoregion_mask_"
)

// StageTiming records how long a stage took.
type StageTiming struct {
	Stage    string
	Duration time.Duration
}

// Result holds the products of a run.
type Result struct {
	// Carbon is the selected carbon density grid, clipped to forest cells.
	Carbon *Grid

	// ForestClasses is the reclassified forest grid.
	ForestClasses *Grid

	// Ecoregions is the rasterized ecoregion grid and EcoregionNames
	// gives the name for each of its values (value k is EcoregionNames[k-1]).
	Ecoregions     *Grid
	EcoregionNames []string

	// Zones combines Ecoregions and ForestClasses; each zone tuple is
	// {ecoregion value, forest class}.
	Zones *ZoneGrid

	// Thresholds holds the carbon density percentile of each zone and
	// ThresholdGrid broadcasts it onto the forest grid.
	Thresholds    ZoneValues
	ThresholdGrid *Grid

	// CellCarbon is the mean carbon density within each forest cell.
	CellCarbon *Grid

	// HighPriority holds the forest cells whose carbon density exceeds
	// their zone's threshold.
	HighPriority *Grid

	// Filter is the result of the ecoregion and biome filter, if run.
	Filter *FilterResult

	Warnings   []error
	Timings    []StageTiming
	ConfigHash string

	outputs []namedGrid
}

type namedGrid struct {
	name string
	g    *Grid
}

func (r *Result) addOutput(name string, g *Grid) {
	r.outputs = append(r.outputs, namedGrid{name: name, g: g})
}

// Outputs returns the names of the grids that were saved, in order.
func (r *Result) Outputs() []string {
	o := make([]string, len(r.outputs))
	for i, ng := range r.outputs {
		o[i] = ng.name
	}
	return o
}

// State holds the information shared among the stages of a run.
type State struct {
	Context context.Context
	Store   GridStore
	Config  *Config
	Log     logrus.FieldLogger
	*Result

	aboveground, belowground, forest *Grid
	regions                          []Region
}

// warn records soft errors and logs them.
func (s *State) warn(stage string, errs ...error) {
	for _, err := range errs {
		s.Warnings = append(s.Warnings, err)
		fields := logrus.Fields{"stage": stage}
		switch w := err.(type) {
		case *EmptyZoneError:
			fields["zone"] = w.Zone
			if t, ok := s.Zones.Lookup(w.Zone); ok && t[0] >= 1 && t[0] <= len(s.EcoregionNames) {
				fields["ecoregion"] = s.EcoregionNames[t[0]-1]
				fields["forest_class"] = t[1]
			}
		case *UnmatchedRegionNameWarning:
			fields["region"] = w.Name
		}
		s.Log.WithFields(fields).Warn(err.Error())
	}
}

func (s *State) loadGrid(name string) (*Grid, error) {
	g, err := s.Store.LoadGrid(s.Context, name)
	if err != nil {
		return nil, missing("grid", name, err)
	}
	return g, nil
}

func (s *State) loadRegions() ([]Region, error) {
	if s.regions != nil {
		return s.regions, nil
	}
	r, err := s.Store.LoadRegions(s.Context, s.Config.RegionSet)
	if err != nil {
		return nil, missing("regions", s.Config.RegionSet, err)
	}
	if len(r) == 0 {
		return nil, &MissingInputError{Kind: "regions", Name: s.Config.RegionSet}
	}
	s.regions = r
	return r, nil
}

// Stage is one step of a run.
type Stage struct {
	Name string
	Run  func(*State) error
}

// Pipeline runs a sequence of stages.
type Pipeline struct {
	Log    logrus.FieldLogger
	Stages []Stage
}

// NewPipeline returns a pipeline running the full analysis, ending with
// the ecoregion and biome filter if cfg.Filter is true.
func NewPipeline(cfg *Config, log logrus.FieldLogger) *Pipeline {
	stages := ZoneStages()
	stages = append(stages,
		Stage{"calculate percentile thresholds", thresholds},
		Stage{"calculate carbon in each forest cell", cellCarbon},
		Stage{"select high priority forest carbon", selectHighPriority},
	)
	if cfg.Filter {
		stages = append(stages, Stage{"filter by ecoregion and biome", filter})
	}
	return &Pipeline{Log: log, Stages: stages}
}

// ZoneStages returns the stages that prepare the inputs and create the
// zones.
func ZoneStages() []Stage {
	return []Stage{
		{"load inputs", loadInputs},
		{"clip inputs", clipInputs},
		{"select carbon", selectCarbon},
		{"clip carbon to forest", clipCarbonToForest},
		{"reclassify forest", reclassifyForest},
		{"create zones", createZones},
	}
}

// FilterStages returns the stages that filter the high priority grid
// saved by an earlier run. If no total carbon grid is configured, the
// carbon in each forest cell must have been saved as an intermediate
// output of that run.
func FilterStages() []Stage {
	return []Stage{
		{"load high priority forest carbon", loadHighPriority},
		{"filter by ecoregion and biome", filter},
	}
}

// Run runs the stages in order. Outputs are only saved to store after all
// of the stages have succeeded.
func (p *Pipeline) Run(ctx context.Context, store GridStore, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := p.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &State{
		Context: ctx,
		Store:   store,
		Config:  &cfg,
		Log:     log,
		Result:  &Result{ConfigHash: hash.Hash(cfg)},
	}
	start := time.Now()
	log.WithFields(logrus.Fields{
		"label":  cfg.Label(),
		"config": hash.Short(cfg, 12),
	}).Info("starting run")
	for i, stage := range p.Stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		log.WithField("stage", stage.Name).Infof("%d. %s...", i+1, stage.Name)
		t0 := time.Now()
		if err := stage.Run(s); err != nil {
			return nil, fmt.Errorf("forestcarbon: %s: %w", stage.Name, err)
		}
		s.Timings = append(s.Timings, StageTiming{Stage: stage.Name, Duration: time.Since(t0)})
	}
	for _, o := range s.outputs {
		log.WithField("output", o.name).Info("saving output")
		if err := store.SaveGrid(ctx, o.name, o.g); err != nil {
			return nil, fmt.Errorf("forestcarbon: saving %s: %w", o.name, err)
		}
	}
	if s.Filter != nil && cfg.SaveIntermediate {
		if rs, ok := store.(RegionSaver); ok {
			if err := rs.SaveRegions(ctx, outputMask+cfg.Label(), s.Filter.Mask); err != nil {
				return nil, fmt.Errorf("forestcarbon: saving mask: %w", err)
			}
		}
	}
	end := time.Now()
	log.WithFields(logrus.Fields{
		"start":    start.Format(time.RFC3339),
		"end":      end.Format(time.RFC3339),
		"duration": end.Sub(start).String(),
		"warnings": len(s.Warnings),
	}).Info("run complete")
	return s.Result, nil
}

func (s *State) intermediate(prefix string, g *Grid) {
	if s.Config.SaveIntermediate {
		s.addOutput(prefix+s.Config.Label(), g)
	}
}

func loadInputs(s *State) error {
	var err error
	if s.forest, err = s.loadGrid(s.Config.ForestGrid); err != nil {
		return err
	}
	if s.Config.CarbonSource != Belowground {
		if s.aboveground, err = s.loadGrid(s.Config.AbovegroundGrid); err != nil {
			return err
		}
	}
	if s.Config.CarbonSource != Aboveground {
		if s.belowground, err = s.loadGrid(s.Config.BelowgroundGrid); err != nil {
			return err
		}
	}
	return nil
}

func clipInputs(s *State) error {
	mask := s.Config.ClipMask
	if mask == nil {
		return nil
	}
	s.forest = ExtractByPolygon(s.forest, mask)
	if s.aboveground != nil {
		s.aboveground = ExtractByPolygon(s.aboveground, mask)
	}
	if s.belowground != nil {
		s.belowground = ExtractByPolygon(s.belowground, mask)
	}
	return nil
}

func selectCarbon(s *State) error {
	switch s.Config.CarbonSource {
	case Aboveground:
		s.Carbon = s.aboveground
	case Belowground:
		s.Carbon = s.belowground
	case Combined:
		c, err := Plus(s.aboveground, s.belowground)
		if err != nil {
			return err
		}
		s.Carbon = c
	}
	return nil
}

func clipCarbonToForest(s *State) error {
	c, err := ExtractByMask(s.Carbon, s.forest)
	if err != nil {
		return err
	}
	s.Carbon = c
	s.intermediate(outputCarbonClipped, c)
	return nil
}

func reclassifyForest(s *State) error {
	f, err := Reclassify(s.forest, s.Config.ForestRemap)
	if err != nil {
		return err
	}
	s.ForestClasses = f
	s.intermediate(outputForestReclassified, f)
	return nil
}

func createZones(s *State) error {
	regions, err := s.loadRegions()
	if err != nil {
		return err
	}
	s.Ecoregions, s.EcoregionNames, err = RasterizeRegions(regions, s.forest.Geometry, RegionName)
	if err != nil {
		return err
	}
	s.Zones, err = Combine(s.Ecoregions, s.ForestClasses)
	if err != nil {
		return err
	}
	s.Log.WithField("zones", len(s.Zones.Table)).Info("created zones")
	s.intermediate(outputZones, s.Zones.Grid)
	return nil
}

func thresholds(s *State) error {
	zones, err := Align(s.Carbon.Geometry, s.Zones.Grid)
	if err != nil {
		return err
	}
	t, warnings, err := Zonal(zones, s.Carbon, Statistic{
		Type:          Percentile,
		Percentile:    s.Config.Percentile,
		Interpolation: s.Config.Interpolation,
		IgnoreNoData:  true,
	})
	if err != nil {
		return err
	}
	s.warn("thresholds", warnings...)
	s.Thresholds = t
	s.ThresholdGrid = t.Broadcast(s.Zones.Grid)
	s.intermediate(outputThresholds, s.ThresholdGrid)
	return nil
}

func cellCarbon(s *State) error {
	c, err := FootprintMean(s.forest, s.Carbon)
	if err != nil {
		return err
	}
	s.CellCarbon = c
	s.intermediate(outputCellCarbon, c)
	return nil
}

func selectHighPriority(s *State) error {
	hp, err := SelectAbove(s.CellCarbon, s.ThresholdGrid)
	if err != nil {
		return err
	}
	s.HighPriority = hp
	s.Log.WithField("cells", hp.Count()).Info("selected high priority forest cells")
	s.addOutput(OutputHighPriority+s.Config.Label(), hp)
	return nil
}

func loadHighPriority(s *State) error {
	name := s.Config.HighPriorityGrid
	if name == "" {
		name = OutputHighPriority + s.Config.Label()
	}
	hp, err := s.loadGrid(name)
	if err != nil {
		return err
	}
	s.HighPriority = hp
	if s.Config.TotalCarbonGrid == "" {
		if s.CellCarbon, err = s.loadGrid(outputCellCarbon + s.Config.Label()); err != nil {
			return err
		}
	}
	return nil
}

func filter(s *State) error {
	regions, err := s.loadRegions()
	if err != nil {
		return err
	}
	var totals *Grid
	if name := s.Config.TotalCarbonGrid; name != "" {
		if totals, err = s.loadGrid(name); err != nil {
			return err
		}
	} else {
		totals = Scale(s.CellCarbon, s.Config.CellArea)
	}
	names, err := s.Store.LoadNameList(s.Context, s.Config.EcoregionsOfInterest)
	if err != nil {
		return missing("list", s.Config.EcoregionsOfInterest, err)
	}
	r, err := FilterEcoregions(FilterInput{
		HighPriority:         s.HighPriority,
		Totals:               totals,
		Regions:              regions,
		EcoregionsOfInterest: names,
		BiomesToInclude:      s.Config.BiomesToInclude,
	})
	if err != nil {
		return err
	}
	s.warn("filter", r.Warnings...)
	s.Filter = r
	s.Log.WithFields(logrus.Fields{
		"median":   r.Median,
		"selected": len(r.Selected),
	}).Info("selected ecoregions of interest")
	s.addOutput(OutputHighPriorityFiltered+s.Config.Label(), r.Grid)
	return nil
}
