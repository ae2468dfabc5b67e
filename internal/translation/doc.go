// Package translation provides the translation engine clients used by the
// session manager. A client is bound to one language pair, must make sure
// its model is available before translating, and is released when the pair
// changes. Engines: OpenAI chat models, Google Gemini and an offline stub.
package translation
