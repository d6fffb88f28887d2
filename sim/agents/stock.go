package agents

import (
	"bytes"
	_ "embed"
	"fmt"
	"math"
	"math/rand/v2"
	"os"

	"gonum.org/v1/gonum/stat/distuv"
	"gopkg.in/yaml.v3"

	"github.com/agentsim/agentsim/sim"
)

//go:embed market.yaml
var defaultMarket []byte

// StockConfig describes one stock: its starting price and the normal
// distribution of its per-step multiplicative return.
type StockConfig struct {
	Name   string  `yaml:"name"`
	Price  float64 `yaml:"price"`
	Mean   float64 `yaml:"mean"`
	StdDev float64 `yaml:"std_dev"`
}

// Validate reports the first invalid field.
func (c StockConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("stock name is required")
	}
	fields := []struct {
		name string
		val  float64
	}{{"price", c.Price}, {"mean", c.Mean}, {"std_dev", c.StdDev}}
	for _, f := range fields {
		if math.IsNaN(f.val) || math.IsInf(f.val, 0) {
			return fmt.Errorf("%s: %s must be a finite number, got %f", c.Name, f.name, f.val)
		}
	}
	if c.StdDev <= 0 {
		return fmt.Errorf("%s: std_dev must be positive, got %f", c.Name, c.StdDev)
	}
	return nil
}

// Market is a list of stocks, the top-level shape of a market file.
// All fields must be listed to satisfy KnownFields(true) strict parsing.
type Market struct {
	Stocks []StockConfig `yaml:"stocks"`
}

// Validate checks every stock.
func (m Market) Validate() error {
	if len(m.Stocks) == 0 {
		return fmt.Errorf("market has no stocks")
	}
	for i, s := range m.Stocks {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("stocks[%d]: %w", i, err)
		}
	}
	return nil
}

// LoadMarket reads a market file. An empty path loads the built-in market.
func LoadMarket(path string) (Market, error) {
	data := defaultMarket
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return Market{}, fmt.Errorf("reading market file: %w", err)
		}
	}
	return ParseMarket(data)
}

// ParseMarket decodes and validates a market document. Unknown fields are
// errors.
func ParseMarket(data []byte) (Market, error) {
	var m Market
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&m); err != nil {
		return Market{}, fmt.Errorf("parsing market: %w", err)
	}
	if err := m.Validate(); err != nil {
		return Market{}, fmt.Errorf("invalid market: %w", err)
	}
	return m, nil
}

// Stock is a random-walk price agent: each tick multiplies the price by a
// sample of Normal(mean, std_dev).
type Stock struct {
	name    string
	price   float64
	returns distuv.Normal
}

// NewStock builds a Stock drawing its returns from src.
func NewStock(cfg StockConfig, src rand.Source) (*Stock, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Stock{
		name:    cfg.Name,
		price:   cfg.Price,
		returns: distuv.Normal{Mu: cfg.Mean, Sigma: cfg.StdDev, Src: src},
	}, nil
}

// Name returns the ticker name.
func (s *Stock) Name() string { return s.name }

// Price returns the current price.
func (s *Stock) Price() float64 { return s.price }

func (s *Stock) Tick() error {
	next := s.price * s.returns.Rand()
	if math.IsNaN(next) || math.IsInf(next, 0) {
		return fmt.Errorf("%s: price is no longer finite (%f)", s.name, next)
	}
	s.price = next
	return nil
}

func (s *Stock) Collect(e sim.Emitter) error {
	return e.Emit("stock",
		sim.Attr{Key: "name", Value: s.name},
		sim.Attr{Key: "price", Value: s.price},
	)
}

// StockFactory returns a sim.AgentFactory that builds the market's stocks in
// order, cycling when asked for more agents than there are stocks. All stocks
// share rng, so the factory and its agents belong to one replica.
func StockFactory(m Market, rng *rand.Rand) sim.AgentFactory {
	next := 0
	return func() (sim.Agent, error) {
		if len(m.Stocks) == 0 {
			return nil, fmt.Errorf("market has no stocks")
		}
		cfg := m.Stocks[next%len(m.Stocks)]
		next++
		s, err := NewStock(cfg, rng)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}
