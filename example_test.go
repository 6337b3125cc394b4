package vemulator_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/vemulator"
	"github.com/aretw0/vemulator/pkg/adapters/memory"
	"github.com/aretw0/vemulator/pkg/config"
)

// ExampleNew runs a one-field text device against an in-memory transport.
func ExampleNew() {
	cfg, err := config.Parse([]byte(`
device: Demo
name: demo
protocol: text
emulation:
  delay: 0
fields:
  - name: Mode
    key: MODE
    values:
      - type: StringFixed
        value: "ON"
        amount: 3
`))
	if err != nil {
		log.Fatal(err)
	}

	out := memory.New()
	emu, err := vemulator.New(cfg, vemulator.WithOutput(out))
	if err != nil {
		log.Fatal(err)
	}
	if err := emu.Run(context.Background()); err != nil {
		log.Fatal(err)
	}

	fmt.Println(len(out.Frames()), emu.Values()["MODE"])
	// Output: 3 ON
}
