package config

import _ "embed"

// ExampleConfig is written by the onboarding helper and documents every key.
//
//go:embed config.example.json
var ExampleConfig []byte
