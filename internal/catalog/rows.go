package catalog

import "fmt"

// metacalRow is the flattened on-disk layout of a metacalibration catalog.
type metacalRow struct {
	RA   float64 `parquet:"name=ra, type=DOUBLE"`
	Dec  float64 `parquet:"name=dec, type=DOUBLE"`
	G1   float64 `parquet:"name=mcal_g1, type=DOUBLE"`
	G2   float64 `parquet:"name=mcal_g2, type=DOUBLE"`
	G1P1 float64 `parquet:"name=mcal_g1_1p, type=DOUBLE"`
	G2P1 float64 `parquet:"name=mcal_g2_1p, type=DOUBLE"`
	G1M1 float64 `parquet:"name=mcal_g1_1m, type=DOUBLE"`
	G2M1 float64 `parquet:"name=mcal_g2_1m, type=DOUBLE"`
	G1P2 float64 `parquet:"name=mcal_g1_2p, type=DOUBLE"`
	G2P2 float64 `parquet:"name=mcal_g2_2p, type=DOUBLE"`
	G1M2 float64 `parquet:"name=mcal_g1_2m, type=DOUBLE"`
	G2M2 float64 `parquet:"name=mcal_g2_2m, type=DOUBLE"`
}

// metacalColumns lists the metacalRow fields in struct order, for sqlite.
var metacalColumns = []string{
	"ra", "dec",
	"mcal_g1", "mcal_g2",
	"mcal_g1_1p", "mcal_g2_1p",
	"mcal_g1_1m", "mcal_g2_1m",
	"mcal_g1_2p", "mcal_g2_2p",
	"mcal_g1_2m", "mcal_g2_2m",
}

func (r *metacalRow) fields() []any {
	return []any{
		&r.RA, &r.Dec,
		&r.G1, &r.G2,
		&r.G1P1, &r.G2P1,
		&r.G1M1, &r.G2M1,
		&r.G1P2, &r.G2P2,
		&r.G1M2, &r.G2M2,
	}
}

// shearRow is the on-disk layout of a plain shear catalog.
type shearRow struct {
	RA     float64 `parquet:"name=ra, type=DOUBLE"`
	Dec    float64 `parquet:"name=dec, type=DOUBLE"`
	Shear1 float64 `parquet:"name=shear_1, type=DOUBLE"`
	Shear2 float64 `parquet:"name=shear_2, type=DOUBLE"`
}

var shearColumns = []string{"ra", "dec", "shear_1", "shear_2"}

func (r *shearRow) fields() []any {
	return []any{&r.RA, &r.Dec, &r.Shear1, &r.Shear2}
}

func fromMetacalRows(rows []metacalRow) (*Catalog, error) {
	n := len(rows)
	ra := make([]float64, n)
	dec := make([]float64, n)
	g := make([][2]float64, n)
	g1p := make([][2]float64, n)
	g1m := make([][2]float64, n)
	g2p := make([][2]float64, n)
	g2m := make([][2]float64, n)
	for i, r := range rows {
		ra[i], dec[i] = r.RA, r.Dec
		g[i] = [2]float64{r.G1, r.G2}
		g1p[i] = [2]float64{r.G1P1, r.G2P1}
		g1m[i] = [2]float64{r.G1M1, r.G2M1}
		g2p[i] = [2]float64{r.G1P2, r.G2P2}
		g2m[i] = [2]float64{r.G1M2, r.G2M2}
	}
	c, err := FromPositions(ra, dec)
	if err != nil {
		return nil, err
	}
	for _, col := range []struct {
		name string
		v    [][2]float64
	}{{ColG, g}, {ColG1P, g1p}, {ColG1M, g1m}, {ColG2P, g2p}, {ColG2M, g2m}} {
		if c, err = c.WithVec2(col.name, col.v); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func fromShearRows(rows []shearRow) (*Catalog, error) {
	n := len(rows)
	ra := make([]float64, n)
	dec := make([]float64, n)
	s1 := make([]float64, n)
	s2 := make([]float64, n)
	for i, r := range rows {
		ra[i], dec[i], s1[i], s2[i] = r.RA, r.Dec, r.Shear1, r.Shear2
	}
	c, err := FromPositions(ra, dec)
	if err != nil {
		return nil, err
	}
	if c, err = c.WithFloat(ColShear1, s1); err != nil {
		return nil, err
	}
	return c.WithFloat(ColShear2, s2)
}

func toMetacalRows(c *Catalog) ([]metacalRow, error) {
	ra, dec, err := c.Positions()
	if err != nil {
		return nil, err
	}
	cols := make([][][2]float64, 5)
	for i, name := range []string{ColG, ColG1P, ColG1M, ColG2P, ColG2M} {
		if cols[i], err = c.Vec2(name); err != nil {
			return nil, err
		}
	}
	rows := make([]metacalRow, c.Len())
	for i := range rows {
		rows[i] = metacalRow{
			RA: ra[i], Dec: dec[i],
			G1: cols[0][i][0], G2: cols[0][i][1],
			G1P1: cols[1][i][0], G2P1: cols[1][i][1],
			G1M1: cols[2][i][0], G2M1: cols[2][i][1],
			G1P2: cols[3][i][0], G2P2: cols[3][i][1],
			G1M2: cols[4][i][0], G2M2: cols[4][i][1],
		}
	}
	return rows, nil
}

func toShearRows(c *Catalog) ([]shearRow, error) {
	ra, dec, err := c.Positions()
	if err != nil {
		return nil, err
	}
	s1, err := c.Float(ColShear1)
	if err != nil {
		return nil, err
	}
	s2, err := c.Float(ColShear2)
	if err != nil {
		return nil, err
	}
	rows := make([]shearRow, c.Len())
	for i := range rows {
		rows[i] = shearRow{RA: ra[i], Dec: dec[i], Shear1: s1[i], Shear2: s2[i]}
	}
	return rows, nil
}

// ParseFormat validates a catalog format tag. The empty string selects
// metacal.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatMetacal:
		return FormatMetacal, nil
	case FormatShear:
		return FormatShear, nil
	}
	return "", fmt.Errorf("unknown catalog format %q", s)
}
