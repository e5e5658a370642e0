package artifact

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/diogo/riskchat/internal/models"
)

// ArtifactTypeChart is the only artifact_type the client knows how to draw
const ArtifactTypeChart = "chart"

// ParseChart extracts the recognized chart fields from a raw payload.
//
// The payload is either an artifact envelope whose "data" field holds the
// chart configuration, or a bare chart configuration.
func ParseChart(raw string) (*models.ChartSpec, error) {
	if !gjson.Valid(raw) {
		return nil, fmt.Errorf("chart payload is not valid JSON")
	}

	root := gjson.Parse(raw)
	if !root.IsObject() {
		return nil, fmt.Errorf("chart payload must be an object")
	}

	spec := &models.ChartSpec{
		Type:         root.Get("type").String(),
		ArtifactType: root.Get("artifact_type").String(),
		Title:        root.Get("title").String(),
		Description:  root.Get("description").String(),
	}

	if spec.ArtifactType != "" && spec.ArtifactType != ArtifactTypeChart {
		return nil, fmt.Errorf("unsupported artifact type %q", spec.ArtifactType)
	}

	cfg := root.Get("data")
	if !cfg.IsObject() {
		// Bare configuration: the envelope fields above came from the config itself.
		cfg = root
		spec.Title = ""
	}

	spec.Config = json.RawMessage(cfg.Raw)
	spec.ChartType = cfg.Get("chart.type").String()
	spec.ChartTitle = cfg.Get("title.text").String()
	spec.YAxisTitle = firstOf(cfg.Get("yAxis")).Get("title.text").String()

	for _, c := range firstOf(cfg.Get("xAxis")).Get("categories").Array() {
		spec.Categories = append(spec.Categories, c.String())
	}

	cfg.Get("series").ForEach(func(_, s gjson.Result) bool {
		series := models.Series{
			Name:  s.Get("name").String(),
			Color: s.Get("color").String(),
		}
		for _, point := range s.Get("data").Array() {
			series.Data = append(series.Data, pointValue(point))
		}
		spec.Series = append(spec.Series, series)
		return true
	})

	// Pie charts name their points instead of using axis categories.
	// Every point keeps its slot; unnamed points are left blank and drawn
	// by position.
	if len(spec.Categories) == 0 && len(spec.Series) > 0 {
		points := cfg.Get("series.0.data").Array()
		names := make([]string, len(points))
		named := false
		for i, point := range points {
			if name := point.Get("name"); name.Exists() {
				names[i] = name.String()
				named = true
			}
		}
		if named {
			spec.Categories = names
		}
	}

	return spec, nil
}

// firstOf returns the first element when r is an array, r otherwise.
// Axis options may be a single object or a list of them.
func firstOf(r gjson.Result) gjson.Result {
	if r.IsArray() {
		return r.Get("0")
	}
	return r
}

// pointValue reads the y value of a data point, which may be a number,
// an [x, y] pair or an object with a "y" field.
func pointValue(p gjson.Result) float64 {
	switch {
	case p.IsArray():
		items := p.Array()
		if len(items) == 0 {
			return 0
		}
		return items[len(items)-1].Float()
	case p.IsObject():
		return p.Get("y").Float()
	default:
		return p.Float()
	}
}
