/*
Package domain contains the core model of the Tendril dispatch engine.

It defines what a command is and what a dispatch produces, without any
knowledge of how lines are tokenized, routed or parsed. This package is kept
free of I/O and of the engine internals, following Hexagonal Architecture
principles.

# Key Entities

  - Key: A typed identity token addressing context values and mappers.
  - CommandContext: The per-dispatch store of parsed argument values.
  - Command: A route, its argument descriptors, a permission and a handler.
  - Argument: A positional or flag descriptor bound to a key and a mapper key.
  - Condition: A precondition evaluated after parsing.
  - Errors: Typed failures (SyntaxError, RoutingError, MappingError, ...)
    matched with errors.As.
*/
package domain
