// Package models lists the OpenAI models usable for speech recognition
// and translation with the configured API key.
package models
