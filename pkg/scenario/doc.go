/*
Package scenario implements the value generators bound to protocol fields.

Every generator satisfies Scenario. Leaf kinds produce values on their own; the
composite kinds (Loop, BitBuffer, SelectRandom) own child scenarios and combine
their output. All kinds share one generation template:

 1. decrement the remaining amount if it is bounded,
 2. produce a candidate from the scenario's private random source,
 3. replace it with an adversarial value when the scenario is in fuzzing mode,
 4. retry up to three times while the candidate is in the "invalid" set, keeping
    the previous value if every attempt is excluded,
 5. publish the display value, and for hex fields the wire value, to the store.

Composites call Generate on their children, which runs steps 1 to 4 only, so only
the composed value reaches the store.

Scenario trees are built from decoded configuration nodes by a Builder, which
derives an independent seed for every scenario from a single default seed.
*/
package scenario
