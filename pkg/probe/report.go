package probe

import (
	"fmt"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/df07/go-spatial/pkg/core"
)

// Report formats
const (
	FormatText = "text"
	FormatYAML = "yaml"
)

type reportEntry struct {
	Name      string      `yaml:"name,omitempty"`
	Origin    [3]float64  `yaml:"origin,flow"`
	Direction [3]float64  `yaml:"direction,flow"`
	Hit       bool        `yaml:"hit"`
	Distance  *float64    `yaml:"distance,omitempty"`
	Point     *[3]float64 `yaml:"point,omitempty,flow"`
	Normal    *[3]float64 `yaml:"normal,omitempty,flow"`
	Mesh      string      `yaml:"mesh,omitempty"`
}

type report struct {
	Summary BatchStats    `yaml:"summary"`
	Results []reportEntry `yaml:"results"`
}

// WriteReport writes results in the given format
func WriteReport(w io.Writer, results []Result, format string) error {
	switch format {
	case FormatText, "":
		return WriteText(w, results)
	case FormatYAML:
		return WriteYAML(w, results)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

// WriteText writes one aligned line per result followed by a summary line
func WriteText(w io.Writer, results []Result) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tORIGIN\tDIRECTION\tHIT\tDISTANCE\tPOINT\tMESH")
	for i, r := range results {
		name := r.Name
		if name == "" {
			name = fmt.Sprintf("#%d", i)
		}
		if !r.Hit {
			fmt.Fprintf(tw, "%s\t%v\t%v\tno\t-\t-\t-\n", name, r.Ray.Origin, r.Ray.Direction)
			continue
		}
		fmt.Fprintf(tw, "%s\t%v\t%v\tyes\t%.6g\t%v\t%s\n", name, r.Ray.Origin, r.Ray.Direction, r.Distance, r.Point, r.Mesh)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	stats := Summarize(results)
	_, err := fmt.Fprintf(w, "%d rays, %d hits, %d misses\n", stats.Rays, stats.Hits, stats.Misses)
	return err
}

// WriteYAML writes a summary and the per-ray results as a YAML document
func WriteYAML(w io.Writer, results []Result) error {
	doc := report{
		Summary: Summarize(results),
		Results: make([]reportEntry, len(results)),
	}
	for i, r := range results {
		entry := reportEntry{
			Name:      r.Name,
			Origin:    array(r.Ray.Origin),
			Direction: array(r.Ray.Direction),
			Hit:       r.Hit,
		}
		if r.Hit {
			distance, point, normal := r.Distance, array(r.Point), array(r.Normal)
			entry.Distance = &distance
			entry.Point = &point
			entry.Normal = &normal
			entry.Mesh = r.Mesh
		}
		doc.Results[i] = entry
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return encoder.Close()
}

func array(v core.Vec3) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}
