// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// IndexService turns a corpus directory into a published build,
// RetrievalService answers queries against the current build,
// AnswerService hands retrieved chunks to an answer model and
// Scheduler rebuilds in the background. Services never import adapters.
package services
