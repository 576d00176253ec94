// Package model defines the data structures shared by the probe stages.
//
// This package contains the following main types:
//   - Iteration: one pass of the probe and everything it produced
//   - VerificationResponse: the parsed reply of the verification service
//   - OutputRecord: the four-field document written to output_<i>.json
//   - StageError: the error taxonomy used to classify iteration failures
//
// The models live in their own package so browser, pipeline, report and
// history can share them without import cycles.
package model
