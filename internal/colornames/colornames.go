// apps/go-server/internal/colornames/colornames.go
//
// Human-readable names for derived colors, shown at reveal time and in the
// debug derivation table.
//
// Responsibilities:
//   - Load a hue-bucket name table from an environment-provided file or fall
//     back to the embedded default.
//   - Map an HSV triple to a coarse name (achromatic floors handled in code,
//     hue buckets from the table).
//
// Table format (one bucket per line, '#' comments allowed):
//   <upper hue bound in degrees, exclusive> <name>
// Buckets must be listed in ascending order and the last bound should be 360.
//
// Environment variables:
//   COLOR_NAMES_FILE=/path/to/names.txt
//
// Initialization runs once (sync.Once); Name initializes lazily if the host
// never called Init explicitly.

package colornames

import (
	"bufio"
	_ "embed"
	"errors"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/robalobadob/hueguess/apps/go-server/internal/color"
)

//go:embed default_names.txt
var embeddedNames string

// bucket is one hue range: hues below UpTo (and above the previous bucket)
// carry Name.
type bucket struct {
	UpTo float64
	Name string
}

var (
	once       sync.Once
	initialErr error
	buckets    []bucket
)

// Init loads the name table. Safe to call more than once.
func Init() error {
	once.Do(func() {
		if path := os.Getenv("COLOR_NAMES_FILE"); path != "" {
			f, err := os.Open(path)
			if err != nil {
				initialErr = err
				return
			}
			defer f.Close()
			buckets, initialErr = parse(bufio.NewScanner(f))
			return
		}
		buckets, initialErr = parse(bufio.NewScanner(strings.NewReader(embeddedNames)))
	})
	return initialErr
}

// parse reads "<bound> <name>" lines into ascending buckets.
func parse(sc *bufio.Scanner) ([]bucket, error) {
	var out []bucket
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, errors.New("colornames: bad line: " + line)
		}
		up, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, errors.New("colornames: bad bound: " + fields[0])
		}
		if n := len(out); n > 0 && up <= out[n-1].UpTo {
			return nil, errors.New("colornames: bounds must ascend: " + line)
		}
		out = append(out, bucket{UpTo: up, Name: strings.ToLower(fields[1])})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, errors.New("colornames: empty name table")
	}
	return out, nil
}

// Name maps a color to a coarse human name. Dark colors are "black" and
// desaturated ones "gray"/"white" regardless of hue.
func Name(c color.HSV) string {
	if err := Init(); err != nil || len(buckets) == 0 {
		return "color"
	}
	if c.V < 12.5 {
		return "black"
	}
	if c.S < 12.5 {
		if c.V > 87.5 {
			return "white"
		}
		return "gray"
	}
	for _, b := range buckets {
		if c.H < b.UpTo {
			return b.Name
		}
	}
	return buckets[len(buckets)-1].Name
}

// Stats returns the number of loaded hue buckets.
func Stats() int {
	_ = Init()
	return len(buckets)
}
