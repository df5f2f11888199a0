// Package wizard provides a lightweight, embeddable multi-step form engine
// for Go.
//
// Wizard is designed for backend services that collect structured input over
// several screens: signup funnels, checkout flows, surveys, configuration
// dialogs. It keeps each step's validated data server-side, decides which
// steps apply based on earlier answers, and re-validates everything before a
// completion hook fires. It runs fully in Go, supports multiple persistence
// backends, and integrates cleanly into existing codebases.
//
// # Core Concepts
//
// The programming model is intentionally small and idiomatic:
//
//  1. Engine
//  2. Builder
//  3. FormFactory
//  4. Conditions
//  5. Runner
//
// These components form a complete wizard system with deterministic step
// resolution, durable per-step state (when using persistent backends), and a
// clear mental model.
//
// # Engine
//
// The Engine stores wizard definitions, persists instance state, resolves the
// active step sequence on every request, and provides APIs to:
//   - render a step's form
//   - accept and validate a submission
//   - navigate between steps
//   - complete a wizard after a full re-validation pass
//
// Engines can be backed by different storage systems:
//
//   - In-memory (non-durable, best for tests)
//   - SQLite (embedded durability)
//   - Postgres
//   - Redis
//   - MongoDB
//
// All intents go through Engine.Handle, which loads the instance state,
// re-derives the sequence of applicable steps, performs the intent, and saves
// state back if it changed. Validation problems are reported inside the
// Response, not as Go errors; errors are reserved for infrastructure and
// definition faults.
//
// Engines are safe for concurrent use. Requests for the same instance follow
// last-write-wins semantics, matching the one-user-per-instance shape of a
// form wizard.
//
// # Builder
//
// Builder provides the ergonomic, declarative API used to define wizards:
//
//	def := wizard.New("signup").
//	    Step("account").
//	    Step("profile").
//	    StepWhen("company", wizard.FieldEquals("profile", "kind", "business")).
//	    Forms(factory).
//	    OnComplete(createUser).
//	    Definition()
//
// Steps run in declaration order. A step's condition sees only the cleaned
// data of included steps that come before it, so toggling an early answer
// deterministically adds or removes later steps without invalidating the
// part of the sequence already walked.
//
// Definitions created with Builder are registered into an Engine before use.
//
// # FormFactory
//
// The engine never inspects field semantics itself. A FormFactory builds a
// Form for a step from raw submitted data; the Form reports validity, cleaned
// typed values, and per-field error messages. Any validation library can sit
// behind this boundary. The schemaform subpackage provides a JSON Schema
// implementation; hand-written factories work just as well.
//
// # Conditions
//
// A Condition decides whether a step is part of the active sequence. The
// package ships small combinators (FieldEquals, FieldTruthy, All, Any, Not)
// for the common cases, and the cond subpackage compiles CEL or expr
// expressions into Conditions for definitions loaded from configuration.
//
// # Runner
//
// Runner binds an Engine to one wizard instance and exposes the intents as
// plain methods (Render, Submit, GoTo, Done). It is the most convenient way
// to drive a wizard from tests, CLIs, or non-HTTP callers. HTTP services use
// the wizhttp subpackage instead, which maps requests and form posts onto
// engine intents.
//
// # Summary
//
// Wizard's goal is to give Go developers a form-flow engine that feels like
// Go: easy to embed, easy to test, deterministic, and without operational
// overhead. Engines manage instance state, Builder defines step sequences,
// FormFactory owns validation, Conditions decide step inclusion, and Runner
// provides a fast, developer-friendly driver.
//
// For examples, see the /examples directory or the project README.
package wizard
