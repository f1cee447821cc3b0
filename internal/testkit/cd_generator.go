package testkit

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"spcdash/domain/measurement"
)

// CDGeneratorConfig configures the synthetic critical-dimension data set
type CDGeneratorConfig struct {
	EntityCount  int       `json:"entity_count"`
	ProcessTypes []string  `json:"process_types"`
	ProductTypes []string  `json:"product_types"`
	SPCMonitor   string    `json:"spc_monitor_name"`
	StartDate    time.Time `json:"start_date"`
	Days         int       `json:"days"`
	PointsPerDay int       `json:"points_per_day"`
	Seed         int64     `json:"seed"`
}

// DefaultCDConfig mirrors the shape of the production CD tables at a size
// suitable for local development
func DefaultCDConfig() CDGeneratorConfig {
	return CDGeneratorConfig{
		EntityCount:  6,
		ProcessTypes: []string{"900", "1000", "1100"},
		ProductTypes: []string{"XLY1", "XLY2", "BNT44", "VLQR1"},
		SPCMonitor:   "SPC_CD_L1",
		StartDate:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Days:         60,
		PointsPerDay: 40,
		Seed:         42,
	}
}

// ChartNames are the metrics that carry control limits
var ChartNames = []string{"cd_att", "cd_x_y", "cd_6sig"}

type biasState struct {
	bias       int
	biasXY     int
	nextChange time.Time
	noise      float64
}

// CDGenerator produces deterministic CD measurement records. Each
// entity/process/product combination carries a bias that shifts every ten
// to eighteen days; cd_att and cd_x_y follow the bias with Gaussian noise.
type CDGenerator struct {
	config CDGeneratorConfig
	rng    *rand.Rand
}

// NewCDGenerator creates a generator seeded from config.Seed
func NewCDGenerator(config CDGeneratorConfig) *CDGenerator {
	return &CDGenerator{config: config, rng: rand.New(rand.NewSource(config.Seed))}
}

// EntityName returns the name of the i-th (1-based) tool
func EntityName(i int) string {
	return fmt.Sprintf("FAKE_TOOL%d", i)
}

// Generate returns records in ascending time order
func (g *CDGenerator) Generate() []measurement.Record {
	cfg := g.config
	total := cfg.Days * cfg.PointsPerDay
	if total <= 0 || cfg.EntityCount <= 0 || len(cfg.ProcessTypes) == 0 || len(cfg.ProductTypes) == 0 {
		return nil
	}
	step := 24 * time.Hour / time.Duration(cfg.PointsPerDay)

	states := make(map[string]*biasState)
	records := make([]measurement.Record, 0, total)
	lot := 100000

	for i := 0; i < total; i++ {
		jitter := time.Duration(g.rng.Int63n(int64(step)))
		ts := cfg.StartDate.Add(time.Duration(i)*step + jitter)

		entity := EntityName(1 + g.rng.Intn(cfg.EntityCount))
		process := cfg.ProcessTypes[g.rng.Intn(len(cfg.ProcessTypes))]
		product := cfg.ProductTypes[g.rng.Intn(len(cfg.ProductTypes))]

		key := entity + "|" + process + "|" + product
		st, ok := states[key]
		if !ok {
			st = &biasState{
				bias:       g.rng.Intn(61) - 30,
				biasXY:     g.rng.Intn(31) - 15,
				nextChange: ts.Add(g.days(10, 18)),
				noise:      1,
			}
			states[key] = st
		}
		if !ts.Before(st.nextChange) {
			st.bias = g.rng.Intn(61) - 30
			st.biasXY = g.rng.Intn(31) - 15
			st.nextChange = ts.Add(g.days(10, 18))
			st.noise = 0.5
		} else {
			st.noise = math.Min(1, st.noise+0.01)
		}

		cdAtt := clamp(float64(st.bias)*2.5+g.rng.NormFloat64()*20*st.noise, -100, 100)
		cdXY := float64(st.biasXY)*3 + g.rng.NormFloat64()*15*st.noise
		cd6sig := math.Max(0, 50+g.rng.NormFloat64()*10)

		records = append(records, measurement.Record{
			Entity:      entity,
			Timestamp:   ts,
			Lot:         fmt.Sprintf("Lot%d", lot),
			ProcessType: process,
			ProductType: product,
			SPCMonitor:  cfg.SPCMonitor,
			Fields: map[string]interface{}{
				"bias":                         st.bias,
				"bias_x_y":                     st.biasXY,
				"cd_att":                       round2(cdAtt),
				"cd_x_y":                       round2(cdXY),
				"cd_6sig":                      round2(cd6sig),
				"duration_subseq_process_step": round2(1 + g.rng.ExpFloat64()*3),
				"fake_property1":               g.property("FP1", cdAtt),
				"fake_property2":               g.property("FP2", -cdAtt),
			},
		})
		lot++
	}

	sort.SliceStable(records, func(i, j int) bool { return records[i].Timestamp.Before(records[j].Timestamp) })
	return records
}

// GenerateLimits returns one set of limits per process/product/chart,
// effective from the generator's start date
func (g *CDGenerator) GenerateLimits() []measurement.Limits {
	cfg := g.config
	var out []measurement.Limits
	id := int64(1)
	for _, process := range cfg.ProcessTypes {
		for _, product := range cfg.ProductTypes {
			for _, chart := range ChartNames {
				l := measurement.Limits{
					ID:            id,
					ProcessType:   process,
					ProductType:   product,
					SPCMonitor:    cfg.SPCMonitor,
					ChartName:     chart,
					EffectiveDate: cfg.StartDate,
				}
				switch chart {
				case "cd_att":
					l.CL, l.LCL, l.UCL = g.intIn(-5, 5), g.intIn(-60, -30), g.intIn(30, 60)
				case "cd_x_y":
					l.CL, l.LCL, l.UCL = g.intIn(-2, 2), g.intIn(-10, -6), g.intIn(6, 10)
				case "cd_6sig":
					l.CL, l.UCL = g.intIn(10, 30), g.intIn(55, 75)
				}
				out = append(out, l)
				id++
			}
		}
	}
	return out
}

func (g *CDGenerator) days(lo, hi float64) time.Duration {
	d := lo + g.rng.Float64()*(hi-lo)
	return time.Duration(d * float64(24*time.Hour))
}

func (g *CDGenerator) intIn(lo, hi int) *float64 {
	v := float64(lo + g.rng.Intn(hi-lo+1))
	return &v
}

// property buckets v into ordinal labels A..E
func (g *CDGenerator) property(prefix string, v float64) string {
	var choices []string
	switch {
	case v > 50:
		choices = []string{"D", "E"}
	case v > 0:
		choices = []string{"B", "C", "D"}
	default:
		choices = []string{"A", "B"}
	}
	return prefix + "_" + choices[g.rng.Intn(len(choices))]
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
