// osctrigger sends a single command to a glow fixture over OSC and prints the
// state the fixture publishes back.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/robmorgan/glow/config"
	"github.com/robmorgan/glow/connection"
	"github.com/robmorgan/glow/logger"
)

func main() {
	host := flag.String("host", config.DefaultOSCPublishHost, "host glow listens on for osc")
	port := flag.Int("port", 8000, "port glow listens on for osc")
	listen := flag.String("listen", "0.0.0.0:9000", "address glow publishes states to")
	topic := flag.String("topic", "", "command topic of the fixture")
	stateTopic := flag.String("state-topic", "", "state topic of the fixture (default <topic>/state)")
	wait := flag.Duration("wait", 2*time.Second, "how long to wait for the state, 0 to not wait")
	flag.Parse()

	if *topic == "" || flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: osctrigger -topic /kitchen/led [flags] <command>")
		flag.PrintDefaults()
		os.Exit(2)
	}
	if *stateTopic == "" {
		*stateTopic = *topic + "/state"
	}
	command := strings.Join(flag.Args(), " ")

	log := logger.GetProjectLogger()

	ctx, cancel := context.WithTimeout(context.Background(), *wait)
	defer cancel()

	conn := connection.NewOSC("osctrigger", *listen, *host, *port)
	states := make(chan string, 1)
	if *wait > 0 {
		if err := conn.Register(*stateTopic, func(msg string) {
			select {
			case states <- msg:
			default:
			}
		}); err != nil {
			log.Fatal(err)
		}
		if err := conn.Start(ctx); err != nil {
			log.Fatal(err)
		}
	}
	defer conn.Close()

	log.Infof("sending %q to %s", command, connection.Address(*topic))
	conn.Publish(command, *topic)
	if *wait <= 0 {
		return
	}

	select {
	case state := <-states:
		fmt.Println(state)
	case <-ctx.Done():
		// unchanged states are never published
		log.Warnf("no state received on %s within %v", *stateTopic, *wait)
		os.Exit(1)
	}
}
