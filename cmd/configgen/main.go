package main

import (
	"flag"
	"log"

	"github.com/danmuck/idlctl/internal/config"
)

const defaultPath = "idlctl.toml"

func main() {
	output := flag.String("output", defaultPath, "output path for config template")
	validate := flag.Bool("validate", false, "validate an existing config file")
	input := flag.String("input", defaultPath, "config path for validation")
	force := flag.Bool("force", false, "overwrite existing config file")
	flag.Parse()

	if *validate {
		cfg, err := config.Load(*input)
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("Validated idlctl config at %s (cluster=%s endpoint=%s)", *input, cfg.Cluster, cfg.Endpoint())
		return
	}

	if err := config.WriteTemplate(*output, *force); err != nil {
		log.Fatal(err)
	}
	log.Printf("Wrote idlctl config template to %s", *output)
}
