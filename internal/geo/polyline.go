package geo

import (
	"fmt"

	"github.com/crossingguard/autopilot/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"
)

// Scene space is Y-up. Exported geometries use (easting, northing, elevation),
// so scene X maps to X, scene Z to Y and scene Y to Z.

// PathLineString converts an ordered scene path into an XYZ LineString.
func PathLineString(points []core.Point3) (geom.LineString, error) {
	if len(points) < 2 {
		return geom.LineString{}, fmt.Errorf("path must have at least 2 points, got %d", len(points))
	}
	flat := make([]float64, 0, len(points)*3)
	for _, p := range points {
		flat = append(flat, p.X, p.Z, p.Y)
	}
	return geom.NewLineString(geom.NewSequence(flat, geom.DimXYZ)), nil
}

// PointGeom converts a scene point into an XYZ Point.
func PointGeom(p core.Point3) geom.Point {
	return geom.NewPoint(geom.Coordinates{
		XY:   geom.XY{X: p.X, Y: p.Z},
		Z:    p.Y,
		Type: geom.DimXYZ,
	})
}

// Georeference anchors the scene origin at a geographic position so scene
// metres can be exported as WGS84 longitude/latitude.
type Georeference struct {
	originX float64 // EPSG:3857 metres
	originY float64
	toLonLat func(a, b, c float64) (float64, float64, float64)
}

// NewGeoreference anchors the scene origin at (longitude, latitude).
func NewGeoreference(longitude, latitude float64) *Georeference {
	epsg := wgs84.EPSG()
	x, y, _ := epsg.Transform(4326, 3857)(longitude, latitude, 0)
	return &Georeference{
		originX:  x,
		originY:  y,
		toLonLat: epsg.Transform(3857, 4326),
	}
}

// LonLat converts a scene point to longitude/latitude. Scene X is east, Z is north.
func (g *Georeference) LonLat(p core.Point3) (lon, lat float64) {
	lon, lat, _ = g.toLonLat(g.originX+p.X, g.originY+p.Z, 0)
	return lon, lat
}

// PathLonLat converts a scene path to [lon, lat, elevation] triples.
func (g *Georeference) PathLonLat(points []core.Point3) [][3]float64 {
	out := make([][3]float64, len(points))
	for i, p := range points {
		lon, lat := g.LonLat(p)
		out[i] = [3]float64{lon, lat, p.Y}
	}
	return out
}
