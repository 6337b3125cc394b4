/*
Package domain contains the core types shared by every vemulator component.

It is kept free of I/O so that scenarios, the field value store, the wire codecs and
the runtime can all depend on it without pulling in transports or configuration.

# Key Entities

  - Value: a generated field value (none, integer, float or string).
  - FieldKey: identifies a protocol slot, either a text label or a 16-bit hex id.
  - Protocol: which wire protocols a device speaks (text, hex or both).
  - StopCondition: when the main loop ends on its own.
  - Status: the lifecycle of a running emulator.
*/
package domain
