// Package api contains the core building blocks used by the wizard step
// engine. It provides the primitives for defining wizards, resolving step
// sequences, describing navigation requests and responses, and observing
// engine behavior.
//
// Most users interact with the higher-level wizard package, which re-exports
// selected types and helpers from this package. The api package is intended
// for advanced use cases, custom integrations, or contributors extending the
// engine itself.
//
// # Concepts
//
// The api package centers around a small set of concepts:
//
//   - Wizard definitions and steps
//   - Sequence resolution with inclusion conditions
//   - Requests, responses, and navigation intents
//   - Form factories and completion hooks
//   - Persistence and observability contracts
//
// # Wizard Definitions
//
// A wizard definition describes the structure of a wizard: its name, the
// ordered list of steps, the form factory that builds a form per step, and
// the hooks invoked on completion and rendering.
//
// Definitions are immutable once constructed and are registered with an
// engine before requests can be handled. The step order is total and fixed;
// per-request variation comes exclusively from inclusion conditions.
//
// # Sequence Resolution
//
// On every request the engine recomputes the active step sequence from the
// definition and the data validated so far. Each step's condition sees only
// the cleaned data of included steps that precede it, which makes the
// resolved sequence prefix-stable: submitting data for a step can change
// which later steps appear, never which earlier ones did.
//
// # Requests and Responses
//
// A Request carries one navigation intent (render, submit, go-to, done)
// plus raw field values and file references. A Response tells the caller
// what to do next: render a step's form, possibly with validation errors,
// or present the completion result. Recoverable validation problems travel
// inside the Response; only engine-level faults are Go errors.
//
// # Persistence
//
// The StateStore interface persists per-instance state between requests.
// Implementations for memory, SQLite, Postgres, Redis, and MongoDB ship
// with the wizard package; callers can plug their own. A missing prefix is
// an empty state, never an error.
//
// # Observability
//
// The Observer interface reports lifecycle events such as step validation,
// navigation, and completion. Ready-made implementations (logging via
// log/slog, basic in-memory metrics, composition) live in this package and
// are wired through the engine constructors in the wizard package.
//
// # Usage
//
// Most applications should start from the wizard package, using the Builder
// and the engine constructors provided there. The api package is useful
// when you need lower-level access or custom composition.
package api
