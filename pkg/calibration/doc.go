// Package calibration turns operator-picked pixel samples into a ColorRange.
// It contains:
//
//   - FromSamples / MeanSample: the range computation, using a circular mean
//     for hue and arithmetic means for saturation and value
//   - Calibrator: the sample accumulator that fires once enough samples
//     have been collected and then starts over
//   - Status: a view model returned by the daemon HTTP API and shown by the CLI
//
// These types are shared across daemon, client and CLI code to keep the
// JSON contracts consistent.
package calibration
