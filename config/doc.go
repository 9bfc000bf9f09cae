// Package config provides JSON configuration loading and validation for
// the OrderFlow pipeline.
//
// Configuration flows through three layers, each of which can reject a
// document:
//
//  1. Schema validation: the raw JSON is checked against an embedded JSON
//     Schema (ValidateDocument), catching structural mistakes with paths.
//  2. Environment overrides: ORDERFLOW_* variables replace file values, so
//     deployments can resize the pipeline without editing files.
//  3. Semantic validation: Validate methods normalize unset fields to
//     defaults and reject inconsistent combinations (negative sizes,
//     unknown admission policies, a max delay below the initial delay).
//
// Durations accept Go duration strings ("30s", "1m30s") or raw nanosecond
// numbers. The await timeout always normalizes to a positive value: the
// pipeline never waits unbounded on dependent work.
//
// SafeConfig wraps a Config for shared access: Get returns a deep copy and
// Update swaps the whole document atomically after validation.
package config
