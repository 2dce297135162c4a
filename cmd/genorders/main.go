package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"dealguard/internal/logger"
)

type genConfig struct {
	Count   int
	Deals   int
	DupRate float64
	Seed    int64
}

func main() {
	var cfg genConfig
	var outputFile string
	flag.IntVar(&cfg.Count, "count", 100, "number of orders to generate")
	flag.IntVar(&cfg.Deals, "deals", 5, "number of distinct deals")
	flag.Float64Var(&cfg.DupRate, "dup-rate", 0.2, "share of orders reusing an earlier identity with a new card")
	flag.Int64Var(&cfg.Seed, "seed", 0, "random seed, 0 for time based")
	flag.StringVar(&outputFile, "output", "-", "output file, - for stdout")
	flag.Parse()

	_ = logger.Init("development")
	defer logger.Sync()
	log := logger.Get()

	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	var w io.Writer = os.Stdout
	if outputFile != "-" {
		f, err := os.Create(outputFile)
		if err != nil {
			log.Fatal("create output", zap.Error(err))
		}
		defer f.Close()
		w = f
	}
	if err := generateOrders(w, cfg); err != nil {
		log.Fatal("generation failed", zap.Error(err))
	}
	log.Info("generated orders", zap.Int("count", cfg.Count), zap.Int64("seed", cfg.Seed), zap.String("output", outputFile))
}

type identity struct {
	user, domain string
	street       string
	city, state  string
	zip          string
}

var (
	users   = []string{"bugs", "elmer", "daffy", "porky", "tweety", "marvin", "yosemite", "wile"}
	domains = []string{"bunny.com", "fudd.com", "acme.com", "looney.org"}
	streets = []string{"Sesame St.", "Elm Rd", "Oak St", "Main Rd.", "Pine St."}
	places  = []struct{ city, state, longState, zip string }{
		{"New York", "NY", "New York", "10011"},
		{"Chicago", "IL", "Illinois", "60601"},
		{"Los Angeles", "CA", "California", "90001"},
	}
)

// generateOrders writes a count header and cfg.Count order lines. Repeated
// identities are written with cosmetic variants so the normalizers get work.
func generateOrders(w io.Writer, cfg genConfig) error {
	rng := rand.New(rand.NewSource(cfg.Seed))
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintln(bw, cfg.Count); err != nil {
		return errors.Wrap(err, "write count")
	}

	deals := cfg.Deals
	if deals <= 0 {
		deals = 1
	}
	var seen []identity
	for i := 0; i < cfg.Count; i++ {
		var id identity
		reuse := len(seen) > 0 && rng.Float64() < cfg.DupRate
		if reuse {
			id = seen[rng.Intn(len(seen))]
		} else {
			p := places[rng.Intn(len(places))]
			id = identity{
				user:   fmt.Sprintf("%s%d", users[rng.Intn(len(users))], rng.Intn(100)),
				domain: domains[rng.Intn(len(domains))],
				street: fmt.Sprintf("%d %s", 1+rng.Intn(999), streets[rng.Intn(len(streets))]),
				city:   p.city,
				state:  p.state,
				zip:    p.zip,
			}
			seen = append(seen, id)
		}

		email, street, state := id.user+"@"+id.domain, id.street, id.state
		if reuse {
			email = emailVariant(rng, id)
			street = streetVariant(rng, id.street)
			state = stateVariant(rng, id.state)
		}
		card := fmt.Sprintf("4%015d", rng.Int63n(1_000_000_000_000_000))
		_, err := fmt.Fprintf(bw, "%d,%d,%s,%s,%s,%s,%s,%s\n",
			i+1, 1+rng.Intn(deals), email, street, id.city, state, id.zip, card)
		if err != nil {
			return errors.Wrapf(err, "write order %d", i+1)
		}
	}
	return bw.Flush()
}

func emailVariant(rng *rand.Rand, id identity) string {
	user := id.user
	switch rng.Intn(4) {
	case 0:
		user += fmt.Sprintf("+deal%d", rng.Intn(10))
	case 1:
		if len(user) > 1 {
			k := 1 + rng.Intn(len(user)-1)
			user = user[:k] + "." + user[k:]
		}
	case 2:
		return strings.ToUpper(user + "@" + id.domain)
	}
	return user + "@" + id.domain
}

func streetVariant(rng *rand.Rand, street string) string {
	i := strings.LastIndex(street, " ")
	suffix := strings.ToLower(strings.TrimSuffix(street[i+1:], "."))
	forms := []string{suffix, suffix + ".", strings.ToUpper(suffix), strings.ToUpper(suffix[:1]) + suffix[1:] + "."}
	return street[:i+1] + forms[rng.Intn(len(forms))]
}

func stateVariant(rng *rand.Rand, state string) string {
	if rng.Intn(2) == 0 {
		return state
	}
	for _, p := range places {
		if p.state == state {
			return strings.ToLower(p.longState)
		}
	}
	return state
}
