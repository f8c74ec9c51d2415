// Package research provides the domain model of a research assistant pipeline.
// Candidate sources are found by search, filtered and approved, then acquired
// in parallel, chunked, embedded and used to generate a cited answer. Every
// paid provider call is recorded in a per-session cost ledger.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., sqlite/, gemini/, tavily/).
package research
