// Package config loads and validates the deployment-tunable parameters for
// the syncengine and crypto packages.
//
// Values are assembled from multiple sources in priority order (the first
// source to set a field to a non-zero value wins; later sources only fill
// fields still at their zero value):
//  1. Environment variables
//  2. Command-line flags
//  3. JSON config file
//
// The entry point is [Get], which chains all three sources, merges them with
// [dario.cat/mergo], and validates the result.
package config
