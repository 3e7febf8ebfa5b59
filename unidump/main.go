// unidump prints the DMX values of a universe as glow fixture levels.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/nickysemenza/gola"

	"github.com/robmorgan/glow/config"
	"github.com/robmorgan/glow/engine/scale"
	"github.com/robmorgan/glow/fixture"
	"github.com/robmorgan/glow/logger"
)

func main() {
	url := flag.String("url", config.DefaultOLAURL, "OLA server address")
	universe := flag.Int("universe", 1, "universe to dump")
	count := flag.Int("channels", 16, "number of channels to print")
	flag.Parse()

	log := logger.GetProjectLogger()

	client, err := gola.New(*url)
	if err != nil {
		log.Fatalf("could not connect to OLA at %s: %v", *url, err)
	}
	defer client.Close()

	x, err := client.GetDmx(*universe)
	if err != nil {
		log.Errorf("GetDmx: %d: %v", *universe, err)
		os.Exit(1)
	}

	n := scale.Clamp(*count, 0, len(x.Data))
	for ch := 0; ch < n; ch++ {
		duty := int(x.Data[ch])
		percent := duty * scale.MaxPercent / fixture.DMXMaxDuty
		fmt.Printf("%3d  %3d  %3d%%\n", ch, duty, percent)
	}
}
