/*
Package ports defines the driven ports (interfaces) of the Tendril dispatcher.

These interfaces decouple the dispatch engine from host policy, allowing the
same engine to run behind a REPL, an HTTP server or a chat bot with different
permission systems and schedulers.

# Key Interfaces

  - Authorizer: Decides whether the caller in a CommandContext holds a permission.
  - RegistrationHandler: Observes and may veto individual command registrations.
  - Executor: Runs the handlers of asynchronous commands.
  - CommandSource: Produces command sets from outside the host (manifests).
  - Watchable: Signals when a CommandSource has changed.
*/
package ports
