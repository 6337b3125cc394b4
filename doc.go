/*
Package vemulator emulates serial-line devices that speak a text key/value
protocol, a hex request/response protocol, or both.

It produces checksum-valid traffic whose field values follow a declarative,
per-field scenario description (fixed, random, boundary, fuzzing, composite),
and answers hex commands sent by a peer over the same link. It is meant for
testing host software against a device that is not on the bench.

# Concept

A device file lists the fields of the device. Each field owns an ordered queue
of scenarios; the head scenario produces the field's next value until it has
produced its amount, then the next scenario takes over. The engine serializes
the current values into text messages, answers hex Get/Set/Ping commands from
the same values, and publishes unsolicited async hex messages on a timer or on
change.

# Key Features

  - Deterministic: the same file and default seed produce the same traffic.
  - Fuzzing: scenarios can emit boundary, oversized or malformed values.
  - Timed mode: each field regenerates on its own interval.
  - Fault injection: random bit errors with or without the checksum.
  - Control surfaces: HTTP control API, Prometheus metrics and a Redis mirror.

# Usage

	emu, err := vemulator.Open("bmv712.yaml",
		vemulator.WithOutput(file.Stdout()),
	)
	if err != nil {
		log.Fatal(err)
	}
	if err := emu.Run(ctx); err != nil {
		log.Fatal(err)
	}

Transports live in pkg/adapters; any type implementing ports.Input and
ports.Output can be plugged in.
*/
package vemulator
