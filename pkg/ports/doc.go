/*
Package ports defines the driven ports (interfaces) of the emulator.

These interfaces decouple the engine from the byte transports it talks through
and from the optional sinks that observe generated values.

# Key Interfaces

  - Output: where text and hex frames are written (serial port, file, stdout, memory).
  - Input: where inbound hex command lines are read from.
  - ValueMirror: receives every field store change, e.g. to publish it to Redis.
*/
package ports
